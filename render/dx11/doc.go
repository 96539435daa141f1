// Package dx11 renders the overlay into a DXGI swap chain owned by a
// Direct3D 11 device. The host's device context state is captured before
// every frame and rebound afterwards.
package dx11
