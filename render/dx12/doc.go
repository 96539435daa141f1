// Package dx12 renders the overlay into a DXGI swap chain driven by a
// Direct3D 12 command queue. The engine records its own command list per
// frame and submits it on the host's direct queue, so there is no host
// pipeline state to save; BackupState and RestoreState open and submit that
// list instead.
package dx12
