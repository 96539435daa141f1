// Package d3d holds the native layouts, interface identifiers and dispatch
// table indices of the Direct3D and DXGI interfaces the overlay touches.
// Struct layouts match the Windows x64 headers field for field.
package d3d

import "github.com/brahma-adshonor/overhook/vtable"

// DXGI formats.
const (
	FormatUnknown       = 0
	FormatR32G32Float   = 16
	FormatR8G8B8A8UNorm = 28
	FormatR32UInt       = 42
	FormatR16UInt       = 57
	FormatB8G8R8A8UNorm = 87
)

const (
	UsageRenderTargetOutput = 0x20

	SwapEffectDiscard      = 0
	SwapEffectFlipDiscard  = 4
	SwapChainFlagNone      = 0
	PresentFlagTest        = 0x1
	ErrDeviceRemoved       = 0x887A0005
	ErrDeviceReset         = 0x887A0007
	ErrInvalidCall         = 0x887A0001
	StatusOccluded         = 0x087A0001
	ErrWasStillDrawing     = 0x887A000A
	ErrDeviceHung          = 0x887A0006
	ErrDriverInternalError = 0x887A0020
)

// IDXGISwapChain, IDXGISwapChain3 and IDXGIFactory slots.
const (
	SwapChainGetDevice                 = 7
	SwapChainPresent                   = 8
	SwapChainGetBuffer                 = 9
	SwapChainGetDesc                   = 12
	SwapChainResizeBuffers             = 13
	SwapChainGetCurrentBackBufferIndex = 36

	FactoryCreateSwapChain = 10
)

type Rational struct {
	Numerator   uint32
	Denominator uint32
}

type ModeDesc struct {
	Width            uint32
	Height           uint32
	RefreshRate      Rational
	Format           uint32
	ScanlineOrdering uint32
	Scaling          uint32
}

type SampleDesc struct {
	Count   uint32
	Quality uint32
}

// SwapChainDesc is DXGI_SWAP_CHAIN_DESC.
type SwapChainDesc struct {
	BufferDesc   ModeDesc
	SampleDesc   SampleDesc
	BufferUsage  uint32
	BufferCount  uint32
	OutputWindow uintptr
	Windowed     int32
	SwapEffect   uint32
	Flags        uint32
}

var (
	IIDFactory1     = vtable.GUID{Data1: 0x770aae78, Data2: 0xf26f, Data3: 0x4dba, Data4: [8]byte{0xa8, 0x29, 0x25, 0x3c, 0x83, 0xd1, 0xb3, 0x87}}
	IIDSwapChain3   = vtable.GUID{Data1: 0x94d99bdb, Data2: 0xf1f8, Data3: 0x4ab0, Data4: [8]byte{0xb2, 0x36, 0x7d, 0xa0, 0x17, 0x0e, 0xda, 0xb1}}
	IIDD3D11Device  = vtable.GUID{Data1: 0xdb6f6ddb, Data2: 0xac77, Data3: 0x4e88, Data4: [8]byte{0x82, 0x53, 0x81, 0x9d, 0xf9, 0xbb, 0xf1, 0x40}}
	IIDTexture2D    = vtable.GUID{Data1: 0x6f15aaf2, Data2: 0xd208, Data3: 0x4e89, Data4: [8]byte{0x9a, 0xb4, 0x48, 0x95, 0x35, 0xd3, 0x4f, 0x9c}}
	IIDD3D12Device  = vtable.GUID{Data1: 0x189819f1, Data2: 0x1db6, Data3: 0x4b57, Data4: [8]byte{0xbe, 0x54, 0x18, 0x21, 0x33, 0x9b, 0x85, 0xf7}}
	IIDCommandQueue = vtable.GUID{Data1: 0x0ec870a6, Data2: 0x5d7e, Data3: 0x4c22, Data4: [8]byte{0x8c, 0xfe, 0x05, 0xaa, 0xdb, 0xe0, 0x4f, 0xe2}}
)
