package d3d

const SDKVersion9 = 32

// IDirect3D9 and IDirect3DDevice9 slots.
const (
	Direct3D9CreateDevice = 16

	Device9GetCreationParameters  = 9
	Device9Reset                  = 16
	Device9Present                = 17
	Device9CreateTexture          = 23
	Device9BeginScene             = 41
	Device9EndScene               = 42
	Device9SetTransform           = 44
	Device9GetTransform           = 45
	Device9SetViewport            = 47
	Device9SetRenderState         = 57
	Device9CreateStateBlock       = 59
	Device9SetTexture             = 65
	Device9SetTextureStageState   = 67
	Device9SetSamplerState        = 69
	Device9SetScissorRect         = 75
	Device9DrawIndexedPrimitiveUP = 84
	Device9SetFVF                 = 89
	Device9SetVertexShader        = 92
	Device9SetPixelShader         = 107

	StateBlock9Capture = 4
	StateBlock9Apply   = 5

	Texture9LockRect   = 19
	Texture9UnlockRect = 20
)

const (
	DevTypeHAL                     = 1
	CreateSoftwareVertexProcessing = 0x20
	CreateDisableDriverManagement  = 0x100
	SwapEffect9Discard             = 1
	Fmt9Unknown                    = 0
	Fmt9A8R8G8B8                   = 21
	Fmt9Index16                    = 101
	Pool9Default                   = 0
	Usage9Dynamic                  = 0x200
	PrimitiveTriangleList          = 4
	StateBlockAll                  = 1
	TransformView                  = 2
	TransformProjection            = 3
	TransformWorld                 = 256
	FVFXYZ                         = 0x002
	FVFDiffuse                     = 0x040
	FVFTex1                        = 0x100
	ErrDeviceLost9                 = 0x88760868
	ErrDeviceNotReset9             = 0x88760869
	LockDiscard                    = 0x2000
	TextureStageColorOp            = 1
	TextureStageColorArg1          = 2
	TextureStageColorArg2          = 3
	TextureStageAlphaOp            = 4
	TextureStageAlphaArg1          = 5
	TextureStageAlphaArg2          = 6
	TextureOpModulate              = 4
	TextureOpDisable               = 1
	TextureArgDiffuse              = 0
	TextureArgTexture              = 2
	SamplerMinFilter               = 6
	SamplerMagFilter               = 5
	TextureFilterLinear            = 2
)

// Render states set by the overlay.
const (
	RSZEnable            = 7
	RSFillMode           = 8
	RSShadeMode          = 9
	RSZWriteEnable       = 14
	RSAlphaTestEnable    = 15
	RSSrcBlend           = 19
	RSDestBlend          = 20
	RSCullMode           = 22
	RSAlphaBlendEnable   = 27
	RSFogEnable          = 28
	RSLighting           = 137
	RSScissorTestEnable  = 174
	RSRangeFogEnable     = 48
	RSSpecularEnable     = 29
	RSStencilEnable      = 52
	RSClipping           = 136
	RSBlendOp            = 171
	RSSeparateAlphaBlend = 206
	RSSrcBlendAlpha      = 207
	RSDestBlendAlpha     = 208

	Blend9One         = 2
	Blend9SrcAlpha    = 5
	Blend9InvSrcAlpha = 6
	BlendOp9Add       = 1
	Cull9None         = 1
	Fill9Solid        = 3
	Shade9Gouraud     = 2
)

// PresentParameters is D3DPRESENT_PARAMETERS.
type PresentParameters struct {
	BackBufferWidth           uint32
	BackBufferHeight          uint32
	BackBufferFormat          uint32
	BackBufferCount           uint32
	MultiSampleType           uint32
	MultiSampleQuality        uint32
	SwapEffect                uint32
	DeviceWindow              uintptr
	Windowed                  int32
	EnableAutoDepthStencil    int32
	AutoDepthStencilFormat    uint32
	Flags                     uint32
	FullScreenRefreshRateInHz uint32
	PresentationInterval      uint32
}

// CreationParameters is D3DDEVICE_CREATION_PARAMETERS.
type CreationParameters struct {
	AdapterOrdinal uint32
	DeviceType     uint32
	FocusWindow    uintptr
	BehaviorFlags  uint32
}

// Viewport9 is D3DVIEWPORT9.
type Viewport9 struct {
	X, Y, Width, Height uint32
	MinZ, MaxZ          float32
}

// LockedRect is D3DLOCKED_RECT.
type LockedRect struct {
	Pitch int32
	Bits  uintptr
}

// Matrix is a row major D3DMATRIX.
type Matrix [16]float32
