package d3d

import "github.com/brahma-adshonor/overhook/vtable"

// ID3D12Device slots.
const (
	Device12CreateCommandQueue               = 8
	Device12CreateCommandAllocator           = 9
	Device12CreateGraphicsPipelineState      = 10
	Device12CreateCommandList                = 12
	Device12CreateDescriptorHeap             = 14
	Device12GetDescriptorHandleIncrementSize = 15
	Device12CreateRootSignature              = 16
	Device12CreateShaderResourceView         = 18
	Device12CreateRenderTargetView           = 20
	Device12CreateCommittedResource          = 27
	Device12CreateFence                      = 36
)

// Slots of the command queue, allocator, list, fence, heap, resource and
// blob interfaces.
const (
	CommandQueueExecuteCommandLists = 10
	CommandQueueSignal              = 14
	CommandQueueGetDesc             = 18

	CommandAllocatorReset = 8

	ListClose                          = 9
	ListReset                          = 10
	ListDrawIndexedInstanced           = 13
	ListCopyTextureRegion              = 16
	ListIASetPrimitiveTopology         = 20
	ListRSSetViewports                 = 21
	ListRSSetScissorRects              = 22
	ListOMSetBlendFactor               = 23
	ListSetPipelineState               = 25
	ListResourceBarrier                = 26
	ListSetDescriptorHeaps             = 28
	ListSetGraphicsRootSignature       = 30
	ListSetGraphicsRootDescriptorTable = 32
	ListSetGraphicsRoot32BitConstants  = 36
	ListIASetIndexBuffer               = 43
	ListIASetVertexBuffers             = 44
	ListOMSetRenderTargets             = 46

	FenceGetCompletedValue    = 8
	FenceSetEventOnCompletion = 9

	HeapGetCPUDescriptorHandleForHeapStart = 9
	HeapGetGPUDescriptorHandleForHeapStart = 10

	ResourceMap                  = 8
	ResourceUnmap                = 9
	ResourceGetGPUVirtualAddress = 11

	BlobGetBufferPointer = 3
	BlobGetBufferSize    = 4
)

const (
	CommandListTypeDirect = 0

	DescriptorHeapCBVSRVUAV     = 0
	DescriptorHeapRTV           = 2
	DescriptorHeapShaderVisible = 1

	HeapTypeDefault = 1
	HeapTypeUpload  = 2

	ResourceDimensionBuffer    = 1
	ResourceDimensionTexture2D = 3
	TextureLayoutUnknown       = 0
	TextureLayoutRowMajor      = 1

	StatePresent             = 0
	StateRenderTarget        = 0x4
	StatePixelShaderResource = 0x80
	StateCopyDest            = 0x400
	StateGenericRead         = 0xac3

	BarrierTransition      = 0
	BarrierAllSubresources = 0xffffffff

	CopyLocationSubresourceIndex = 0
	CopyLocationPlacedFootprint  = 1
	TextureDataPitchAlignment    = 256

	SRVDimension12Texture2D        = 4
	DefaultShader4ComponentMapping = 0x1688

	RootParameterDescriptorTable    = 0
	RootParameter32BitConstants     = 1
	DescriptorRangeSRV              = 0
	ShaderVisibilityAll             = 0
	ShaderVisibilityVertex          = 1
	ShaderVisibilityPixel           = 5
	RootSignatureVersion1           = 0x1
	RootSignatureAllowInputLayout   = 0x1
	RootSignatureDenyHullShader     = 0x2
	RootSignatureDenyDomainShader   = 0x4
	RootSignatureDenyGeometryShader = 0x8

	PrimitiveTopologyTypeTriangle = 3
	ConservativeRasterOff         = 0
	LogicOpNoop                   = 4
	StaticBorderTransparentBlack  = 0
)

type CommandQueueDesc struct {
	Type     int32
	Priority int32
	Flags    uint32
	NodeMask uint32
}

type DescriptorHeapDesc struct {
	Type           uint32
	NumDescriptors uint32
	Flags          uint32
	NodeMask       uint32
}

type CPUDescriptorHandle struct{ Ptr uintptr }
type GPUDescriptorHandle struct{ Ptr uint64 }

type HeapProperties struct {
	Type                 uint32
	CPUPageProperty      uint32
	MemoryPoolPreference uint32
	CreationNodeMask     uint32
	VisibleNodeMask      uint32
}

type ResourceDesc struct {
	Dimension        uint32
	Alignment        uint64
	Width            uint64
	Height           uint32
	DepthOrArraySize uint16
	MipLevels        uint16
	Format           uint32
	SampleDesc       SampleDesc
	Layout           uint32
	Flags            uint32
}

// ResourceBarrier is a D3D12_RESOURCE_BARRIER holding a transition.
type ResourceBarrier struct {
	Type        uint32
	Flags       uint32
	Resource    uintptr
	Subresource uint32
	StateBefore uint32
	StateAfter  uint32
	_           uint32
}

type VertexBufferView struct {
	BufferLocation uint64
	SizeInBytes    uint32
	StrideInBytes  uint32
}

type IndexBufferView struct {
	BufferLocation uint64
	SizeInBytes    uint32
	Format         uint32
}

type Range struct{ Begin, End uintptr }

type SubresourceFootprint struct {
	Format   uint32
	Width    uint32
	Height   uint32
	Depth    uint32
	RowPitch uint32
}

// TextureCopyLocation is D3D12_TEXTURE_COPY_LOCATION. SubresourceIndex
// shares its storage with Offset, as the union does.
type TextureCopyLocation struct {
	Resource  uintptr
	Type      uint32
	_         uint32
	Offset    uint64
	Footprint SubresourceFootprint
	_         uint32
}

type ShaderResourceViewDesc12 struct {
	Format                  uint32
	ViewDimension           uint32
	Shader4ComponentMapping uint32
	_                       uint32
	MostDetailedMip         uint32
	MipLevels               uint32
	PlaneSlice              uint32
	ResourceMinLODClamp     float32
	_                       [2]uint32
}

type DescriptorRange struct {
	RangeType                         uint32
	NumDescriptors                    uint32
	BaseShaderRegister                uint32
	RegisterSpace                     uint32
	OffsetInDescriptorsFromTableStart uint32
}

// RootParameter is D3D12_ROOT_PARAMETER with its union spelled out: a
// descriptor table stores the range count in Value0 and the ranges in
// Pointer; root constants store register, space and count in Value0,
// Value1 and Pointer.
type RootParameter struct {
	ParameterType    uint32
	_                uint32
	Value0           uint32
	Value1           uint32
	Pointer          uintptr
	ShaderVisibility uint32
	_                uint32
}

// DescriptorTable builds a table root parameter over ranges. The caller
// keeps ranges alive until the signature is serialized.
func DescriptorTable(ranges []DescriptorRange, visibility uint32) RootParameter {
	return RootParameter{
		ParameterType:    RootParameterDescriptorTable,
		Value0:           uint32(len(ranges)),
		Pointer:          vtable.Ptr(&ranges[0]),
		ShaderVisibility: visibility,
	}
}

func RootConstants(register, space, count, visibility uint32) RootParameter {
	return RootParameter{
		ParameterType:    RootParameter32BitConstants,
		Value0:           register,
		Value1:           space,
		Pointer:          uintptr(count),
		ShaderVisibility: visibility,
	}
}

type StaticSamplerDesc struct {
	Filter           uint32
	AddressU         uint32
	AddressV         uint32
	AddressW         uint32
	MipLODBias       float32
	MaxAnisotropy    uint32
	ComparisonFunc   uint32
	BorderColor      uint32
	MinLOD           float32
	MaxLOD           float32
	ShaderRegister   uint32
	RegisterSpace    uint32
	ShaderVisibility uint32
}

type RootSignatureDesc struct {
	NumParameters     uint32
	Parameters        uintptr
	NumStaticSamplers uint32
	StaticSamplers    uintptr
	Flags             uint32
}

type ShaderBytecode struct {
	Code uintptr
	Size uintptr
}

type RenderTargetBlendDesc12 struct {
	BlendEnable           int32
	LogicOpEnable         int32
	SrcBlend              uint32
	DestBlend             uint32
	BlendOp               uint32
	SrcBlendAlpha         uint32
	DestBlendAlpha        uint32
	BlendOpAlpha          uint32
	LogicOp               uint32
	RenderTargetWriteMask uint8
	_                     [3]byte
}

type RasterizerDesc12 struct {
	FillMode              uint32
	CullMode              uint32
	FrontCounterClockwise int32
	DepthBias             int32
	DepthBiasClamp        float32
	SlopeScaledDepthBias  float32
	DepthClipEnable       int32
	MultisampleEnable     int32
	AntialiasedLineEnable int32
	ForcedSampleCount     uint32
	ConservativeRaster    uint32
}

type StreamOutputDesc struct {
	SODeclaration    uintptr
	NumEntries       uint32
	BufferStrides    uintptr
	NumStrides       uint32
	RasterizedStream uint32
}

// GraphicsPipelineStateDesc is D3D12_GRAPHICS_PIPELINE_STATE_DESC.
type GraphicsPipelineStateDesc struct {
	RootSignature          uintptr
	VS, PS, DS, HS, GS     ShaderBytecode
	StreamOutput           StreamOutputDesc
	AlphaToCoverageEnable  int32
	IndependentBlendEnable int32
	RenderTarget           [8]RenderTargetBlendDesc12
	SampleMask             uint32
	RasterizerState        RasterizerDesc12
	DepthStencilState      DepthStencilDesc
	InputElementDescs      uintptr
	NumInputElements       uint32
	_                      uint32
	IBStripCutValue        uint32
	PrimitiveTopologyType  uint32
	NumRenderTargets       uint32
	RTVFormats             [8]uint32
	DSVFormat              uint32
	SampleDesc             SampleDesc
	NodeMask               uint32
	CachedPSO              ShaderBytecode
	Flags                  uint32
}

var (
	IIDCommandAllocator    = vtable.GUID{Data1: 0x6102dee4, Data2: 0xaf59, Data3: 0x4b09, Data4: [8]byte{0xb9, 0x99, 0xb4, 0x4d, 0x73, 0xf0, 0x9b, 0x24}}
	IIDGraphicsCommandList = vtable.GUID{Data1: 0x5b160d0f, Data2: 0xac1b, Data3: 0x4185, Data4: [8]byte{0x8b, 0xa8, 0xb3, 0xae, 0x42, 0xa5, 0xa4, 0x55}}
	IIDFence               = vtable.GUID{Data1: 0x0a753dcf, Data2: 0xc4d8, Data3: 0x4b91, Data4: [8]byte{0xad, 0xf6, 0xbe, 0x5a, 0x60, 0xd9, 0x5a, 0x76}}
	IIDDescriptorHeap      = vtable.GUID{Data1: 0x8efb471d, Data2: 0x616c, Data3: 0x4f49, Data4: [8]byte{0x90, 0xf7, 0x12, 0x7b, 0xb7, 0x63, 0xfa, 0x51}}
	IIDResource            = vtable.GUID{Data1: 0x696442be, Data2: 0xa72e, Data3: 0x4059, Data4: [8]byte{0xbc, 0x79, 0x5b, 0x5c, 0x98, 0x04, 0x0f, 0xad}}
	IIDRootSignature       = vtable.GUID{Data1: 0xc54a6b66, Data2: 0x72df, Data3: 0x4ee8, Data4: [8]byte{0x8b, 0xe5, 0xa9, 0x46, 0xa1, 0x42, 0x92, 0x14}}
	IIDPipelineState       = vtable.GUID{Data1: 0x765a30f3, Data2: 0xf624, Data3: 0x4c6f, Data4: [8]byte{0xa8, 0x28, 0xac, 0xe9, 0x48, 0x62, 0x24, 0x45}}
)
