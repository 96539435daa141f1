package d3d

import (
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/brahma-adshonor/overhook/vtable"
)

var (
	modD3D9  = windows.NewLazySystemDLL("d3d9.dll")
	modD3D11 = windows.NewLazySystemDLL("d3d11.dll")
	modD3D12 = windows.NewLazySystemDLL("d3d12.dll")
	modDXGI  = windows.NewLazySystemDLL("dxgi.dll")

	ProcDirect3DCreate9               = modD3D9.NewProc("Direct3DCreate9")
	ProcD3D11CreateDeviceAndSwapChain = modD3D11.NewProc("D3D11CreateDeviceAndSwapChain")
	ProcD3D12CreateDevice             = modD3D12.NewProc("D3D12CreateDevice")
	ProcD3D12SerializeRootSignature   = modD3D12.NewProc("D3D12SerializeRootSignature")
	ProcCreateDXGIFactory1            = modDXGI.NewProc("CreateDXGIFactory1")
)

// BlobBytes copies the contents of an ID3DBlob.
func BlobBytes(blob uintptr) []byte {
	p, _ := vtable.Invoke(blob, BlobGetBufferPointer)
	n, _ := vtable.Invoke(blob, BlobGetBufferSize)
	if p == 0 || n == 0 {
		return nil
	}
	return append([]byte(nil), unsafe.Slice((*byte)(unsafe.Pointer(p)), n)...)
}
