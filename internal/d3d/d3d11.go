package d3d

const SDKVersion11 = 7

const (
	DriverTypeHardware = 1
	DriverTypeWARP     = 5
	FeatureLevel10_0   = 0xa000
	FeatureLevel11_0   = 0xb000
)

// ID3D11Device slots.
const (
	Device11CreateBuffer             = 3
	Device11CreateTexture2D          = 5
	Device11CreateShaderResourceView = 7
	Device11CreateRenderTargetView   = 9
	Device11CreateInputLayout        = 11
	Device11CreateVertexShader       = 12
	Device11CreatePixelShader        = 15
	Device11CreateBlendState         = 20
	Device11CreateDepthStencilState  = 21
	Device11CreateRasterizerState    = 22
	Device11CreateSamplerState       = 23
	Device11GetImmediateContext      = 40
)

// ID3D11DeviceContext slots.
const (
	Context11VSSetConstantBuffers   = 7
	Context11PSSetShaderResources   = 8
	Context11PSSetShader            = 9
	Context11PSSetSamplers          = 10
	Context11VSSetShader            = 11
	Context11DrawIndexed            = 12
	Context11Map                    = 14
	Context11Unmap                  = 15
	Context11IASetInputLayout       = 17
	Context11IASetVertexBuffers     = 18
	Context11IASetIndexBuffer       = 19
	Context11GSSetShader            = 23
	Context11IASetPrimitiveTopology = 24
	Context11OMSetRenderTargets     = 33
	Context11OMSetBlendState        = 35
	Context11OMSetDepthStencilState = 36
	Context11RSSetState             = 43
	Context11RSSetViewports         = 44
	Context11RSSetScissorRects      = 45
	Context11VSGetConstantBuffers   = 72
	Context11PSGetShaderResources   = 73
	Context11PSGetShader            = 74
	Context11PSGetSamplers          = 75
	Context11VSGetShader            = 76
	Context11IAGetInputLayout       = 78
	Context11IAGetVertexBuffers     = 79
	Context11IAGetIndexBuffer       = 80
	Context11GSGetShader            = 82
	Context11IAGetPrimitiveTopology = 83
	Context11OMGetRenderTargets     = 89
	Context11OMGetBlendState        = 91
	Context11OMGetDepthStencilState = 92
	Context11RSGetState             = 94
	Context11RSGetViewports         = 95
	Context11RSGetScissorRects      = 96
)

const (
	Usage11Default        = 0
	Usage11Dynamic        = 2
	BindVertexBuffer      = 0x1
	BindIndexBuffer       = 0x2
	BindConstantBuffer    = 0x4
	BindShaderResource    = 0x8
	CPUAccessWrite        = 0x10000
	MapWriteDiscard       = 4
	InputPerVertexData    = 0
	SRVDimensionTexture2D = 4
	TopologyTriangleList  = 4

	Blend11Zero        = 1
	Blend11One         = 2
	Blend11SrcAlpha    = 5
	Blend11InvSrcAlpha = 6
	BlendOp11Add       = 1
	ColorWriteAll      = 0xf

	Fill11Solid           = 3
	Cull11None            = 1
	ComparisonAlways      = 8
	DepthWriteMaskAll     = 1
	StencilOpKeep         = 1
	FilterMinMagMipLinear = 0x15
	AddressWrap           = 1
	AddressClamp          = 3

	// ViewportAndScissorMax is D3D11_VIEWPORT_AND_SCISSORRECT_OBJECT_COUNT_PER_PIPELINE.
	ViewportAndScissorMax     = 16
	SimultaneousRenderTargets = 8
)

type BufferDesc struct {
	ByteWidth           uint32
	Usage               uint32
	BindFlags           uint32
	CPUAccessFlags      uint32
	MiscFlags           uint32
	StructureByteStride uint32
}

type Texture2DDesc struct {
	Width          uint32
	Height         uint32
	MipLevels      uint32
	ArraySize      uint32
	Format         uint32
	SampleDesc     SampleDesc
	Usage          uint32
	BindFlags      uint32
	CPUAccessFlags uint32
	MiscFlags      uint32
}

type SubresourceData struct {
	SysMem           uintptr
	SysMemPitch      uint32
	SysMemSlicePitch uint32
}

type MappedSubresource struct {
	Data       uintptr
	RowPitch   uint32
	DepthPitch uint32
}

// InputElementDesc is shared by D3D11 and D3D12.
type InputElementDesc struct {
	SemanticName         *byte
	SemanticIndex        uint32
	Format               uint32
	InputSlot            uint32
	AlignedByteOffset    uint32
	InputSlotClass       uint32
	InstanceDataStepRate uint32
}

// ShaderResourceViewDesc is D3D11_SHADER_RESOURCE_VIEW_DESC for a 2D texture.
type ShaderResourceViewDesc struct {
	Format          uint32
	ViewDimension   uint32
	MostDetailedMip uint32
	MipLevels       uint32
	_               [2]uint32
}

type RenderTargetBlendDesc struct {
	BlendEnable           int32
	SrcBlend              uint32
	DestBlend             uint32
	BlendOp               uint32
	SrcBlendAlpha         uint32
	DestBlendAlpha        uint32
	BlendOpAlpha          uint32
	RenderTargetWriteMask uint8
	_                     [3]byte
}

type BlendDesc struct {
	AlphaToCoverageEnable  int32
	IndependentBlendEnable int32
	RenderTarget           [8]RenderTargetBlendDesc
}

type RasterizerDesc struct {
	FillMode              uint32
	CullMode              uint32
	FrontCounterClockwise int32
	DepthBias             int32
	DepthBiasClamp        float32
	SlopeScaledDepthBias  float32
	DepthClipEnable       int32
	ScissorEnable         int32
	MultisampleEnable     int32
	AntialiasedLineEnable int32
}

type DepthStencilOpDesc struct {
	StencilFailOp      uint32
	StencilDepthFailOp uint32
	StencilPassOp      uint32
	StencilFunc        uint32
}

// DepthStencilDesc is shared by D3D11 and D3D12.
type DepthStencilDesc struct {
	DepthEnable      int32
	DepthWriteMask   uint32
	DepthFunc        uint32
	StencilEnable    int32
	StencilReadMask  uint8
	StencilWriteMask uint8
	_                [2]byte
	FrontFace        DepthStencilOpDesc
	BackFace         DepthStencilOpDesc
}

type SamplerDesc struct {
	Filter         uint32
	AddressU       uint32
	AddressV       uint32
	AddressW       uint32
	MipLODBias     float32
	MaxAnisotropy  uint32
	ComparisonFunc uint32
	BorderColor    [4]float32
	MinLOD         float32
	MaxLOD         float32
}

// Viewport is shared by D3D11 and D3D12.
type Viewport struct {
	TopLeftX, TopLeftY float32
	Width, Height      float32
	MinDepth, MaxDepth float32
}

type Rect struct {
	Left, Top, Right, Bottom int32
}
