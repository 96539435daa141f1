package dx12

// alignUp rounds n up to a multiple of a, which must be a power of two.
func alignUp(n, a uint32) uint32 {
	return (n + a - 1) &^ (a - 1)
}

// maxBackBuffers bounds the RTV heap; DXGI allows at most 16 buffers.
const maxBackBuffers = 16

// srvHeapSize is how many textures the engine can sample from.
const srvHeapSize = 64
