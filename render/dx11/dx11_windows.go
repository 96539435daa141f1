package dx11

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/brahma-adshonor/overhook/internal/d3d"
	"github.com/brahma-adshonor/overhook/render"
	"github.com/brahma-adshonor/overhook/render/internal/hlsl"
	"github.com/brahma-adshonor/overhook/ui"
	"github.com/brahma-adshonor/overhook/vtable"
)

const (
	vertexSize   = int(unsafe.Sizeof(ui.DrawVert{}))
	indexSize    = int(unsafe.Sizeof(ui.DrawIdx(0)))
	vertexGrowth = 5000
	indexGrowth  = 10000
)

// Backend draws with its own shaders and pipeline state objects through the
// immediate context of the swap chain's device.
type Backend struct {
	swapChain uintptr
	device    uintptr
	ctx       uintptr

	vs, ps  uintptr
	layout  uintptr
	cb      uintptr
	blend   uintptr
	raster  uintptr
	depth   uintptr
	sampler uintptr

	vb, ib         uintptr
	vbSize, ibSize int
	rtv            uintptr
	textures       []uintptr
}

var _ render.Backend = (*Backend)(nil)

// New builds an engine drawing into swapChain, an IDXGISwapChain whose
// device is an ID3D11Device.
func New(swapChain uintptr) (*render.Renderer, error) {
	b, err := NewBackend(swapChain)
	if err != nil {
		return nil, err
	}
	return render.NewRenderer(b), nil
}

func NewBackend(swapChain uintptr) (b *Backend, err error) {
	b = &Backend{swapChain: swapChain}
	vtable.AddRef(swapChain)
	defer func() {
		if err != nil {
			_ = b.Release()
		}
	}()
	if _, err := vtable.Call(swapChain, d3d.SwapChainGetDevice, vtable.Ptr(&d3d.IIDD3D11Device), vtable.Ptr(&b.device)); err != nil {
		return nil, errors.WithMessage(err, "IDXGISwapChain::GetDevice")
	}
	vtable.Invoke(b.device, d3d.Device11GetImmediateContext, vtable.Ptr(&b.ctx))
	if b.ctx == 0 {
		return nil, errors.New("device has no immediate context")
	}
	if err := b.createShaders(); err != nil {
		return nil, err
	}
	if err := b.createStates(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) device11(index int, args ...uintptr) error {
	_, err := vtable.Call(b.device, index, args...)
	return err
}

func (b *Backend) context(index int, args ...uintptr) {
	_, _ = vtable.Invoke(b.ctx, index, args...)
}

func (b *Backend) createShaders() error {
	vsCode, err := hlsl.Compile(hlsl.VertexShader, hlsl.TargetVertex)
	if err != nil {
		return err
	}
	psCode, err := hlsl.Compile(hlsl.PixelShader, hlsl.TargetPixel)
	if err != nil {
		return err
	}
	if err := b.device11(d3d.Device11CreateVertexShader,
		vtable.Ptr(&vsCode[0]), uintptr(len(vsCode)), 0, vtable.Ptr(&b.vs)); err != nil {
		return errors.WithMessage(err, "CreateVertexShader")
	}
	if err := b.device11(d3d.Device11CreatePixelShader,
		vtable.Ptr(&psCode[0]), uintptr(len(psCode)), 0, vtable.Ptr(&b.ps)); err != nil {
		return errors.WithMessage(err, "CreatePixelShader")
	}

	layout := inputLayout()
	if err := b.device11(d3d.Device11CreateInputLayout,
		vtable.Ptr(&layout[0]), uintptr(len(layout)),
		vtable.Ptr(&vsCode[0]), uintptr(len(vsCode)), vtable.Ptr(&b.layout)); err != nil {
		return errors.WithMessage(err, "CreateInputLayout")
	}

	cb := d3d.BufferDesc{
		ByteWidth:      64,
		Usage:          d3d.Usage11Dynamic,
		BindFlags:      d3d.BindConstantBuffer,
		CPUAccessFlags: d3d.CPUAccessWrite,
	}
	if err := b.device11(d3d.Device11CreateBuffer, vtable.Ptr(&cb), 0, vtable.Ptr(&b.cb)); err != nil {
		return errors.WithMessage(err, "CreateBuffer(constants)")
	}
	return nil
}

var (
	semPosition, _ = windows.BytePtrFromString("POSITION")
	semTexcoord, _ = windows.BytePtrFromString("TEXCOORD")
	semColor, _    = windows.BytePtrFromString("COLOR")
)

// inputLayout describes ui.DrawVert.
func inputLayout() []d3d.InputElementDesc {
	return []d3d.InputElementDesc{
		{SemanticName: semPosition, Format: d3d.FormatR32G32Float, AlignedByteOffset: 0},
		{SemanticName: semTexcoord, Format: d3d.FormatR32G32Float, AlignedByteOffset: 8},
		{SemanticName: semColor, Format: d3d.FormatR8G8B8A8UNorm, AlignedByteOffset: 16},
	}
}

func (b *Backend) createStates() error {
	var blend d3d.BlendDesc
	blend.RenderTarget[0] = d3d.RenderTargetBlendDesc{
		BlendEnable:           1,
		SrcBlend:              d3d.Blend11SrcAlpha,
		DestBlend:             d3d.Blend11InvSrcAlpha,
		BlendOp:               d3d.BlendOp11Add,
		SrcBlendAlpha:         d3d.Blend11One,
		DestBlendAlpha:        d3d.Blend11InvSrcAlpha,
		BlendOpAlpha:          d3d.BlendOp11Add,
		RenderTargetWriteMask: d3d.ColorWriteAll,
	}
	if err := b.device11(d3d.Device11CreateBlendState, vtable.Ptr(&blend), vtable.Ptr(&b.blend)); err != nil {
		return errors.WithMessage(err, "CreateBlendState")
	}

	raster := d3d.RasterizerDesc{
		FillMode:        d3d.Fill11Solid,
		CullMode:        d3d.Cull11None,
		ScissorEnable:   1,
		DepthClipEnable: 1,
	}
	if err := b.device11(d3d.Device11CreateRasterizerState, vtable.Ptr(&raster), vtable.Ptr(&b.raster)); err != nil {
		return errors.WithMessage(err, "CreateRasterizerState")
	}

	face := d3d.DepthStencilOpDesc{
		StencilFailOp:      d3d.StencilOpKeep,
		StencilDepthFailOp: d3d.StencilOpKeep,
		StencilPassOp:      d3d.StencilOpKeep,
		StencilFunc:        d3d.ComparisonAlways,
	}
	depth := d3d.DepthStencilDesc{
		DepthWriteMask: d3d.DepthWriteMaskAll,
		DepthFunc:      d3d.ComparisonAlways,
		FrontFace:      face,
		BackFace:       face,
	}
	if err := b.device11(d3d.Device11CreateDepthStencilState, vtable.Ptr(&depth), vtable.Ptr(&b.depth)); err != nil {
		return errors.WithMessage(err, "CreateDepthStencilState")
	}

	sampler := d3d.SamplerDesc{
		Filter:         d3d.FilterMinMagMipLinear,
		AddressU:       d3d.AddressWrap,
		AddressV:       d3d.AddressWrap,
		AddressW:       d3d.AddressWrap,
		ComparisonFunc: d3d.ComparisonAlways,
	}
	if err := b.device11(d3d.Device11CreateSamplerState, vtable.Ptr(&sampler), vtable.Ptr(&b.sampler)); err != nil {
		return errors.WithMessage(err, "CreateSamplerState")
	}
	return nil
}

func (b *Backend) CreateFontTexture(atlas *ui.FontAtlas) (ui.TextureID, error) {
	desc := d3d.Texture2DDesc{
		Width:      uint32(atlas.Width),
		Height:     uint32(atlas.Height),
		MipLevels:  1,
		ArraySize:  1,
		Format:     d3d.FormatR8G8B8A8UNorm,
		SampleDesc: d3d.SampleDesc{Count: 1},
		Usage:      d3d.Usage11Default,
		BindFlags:  d3d.BindShaderResource,
	}
	data := d3d.SubresourceData{
		SysMem:      vtable.Ptr(&atlas.Pixels[0]),
		SysMemPitch: uint32(atlas.Width * 4),
	}
	var tex uintptr
	if err := b.device11(d3d.Device11CreateTexture2D, vtable.Ptr(&desc), vtable.Ptr(&data), vtable.Ptr(&tex)); err != nil {
		return 0, errors.WithMessage(err, "CreateTexture2D")
	}
	defer vtable.Release(tex)

	view := d3d.ShaderResourceViewDesc{
		Format:        d3d.FormatR8G8B8A8UNorm,
		ViewDimension: d3d.SRVDimensionTexture2D,
		MipLevels:     1,
	}
	var srv uintptr
	if err := b.device11(d3d.Device11CreateShaderResourceView, tex, vtable.Ptr(&view), vtable.Ptr(&srv)); err != nil {
		return 0, errors.WithMessage(err, "CreateShaderResourceView")
	}
	b.textures = append(b.textures, srv)
	return ui.TextureID(srv), nil
}

func (b *Backend) ensureBuffer(buf *uintptr, size *int, need, growth, elem int, bind uint32) error {
	if *buf != 0 && *size >= need {
		return nil
	}
	vtable.Release(*buf)
	*buf = 0
	*size = need + growth
	desc := d3d.BufferDesc{
		ByteWidth:      uint32(*size * elem),
		Usage:          d3d.Usage11Dynamic,
		BindFlags:      bind,
		CPUAccessFlags: d3d.CPUAccessWrite,
	}
	return b.device11(d3d.Device11CreateBuffer, vtable.Ptr(&desc), 0, vtable.Ptr(buf))
}

func (b *Backend) mapBuffer(buf uintptr) (uintptr, error) {
	var m d3d.MappedSubresource
	if _, err := vtable.Call(b.ctx, d3d.Context11Map, buf, 0, d3d.MapWriteDiscard, 0, vtable.Ptr(&m)); err != nil {
		return 0, errors.WithMessage(err, "Map")
	}
	return m.Data, nil
}

// Upload copies every list's vertices and indices into the dynamic buffers,
// growing them with some headroom when needed.
func (b *Backend) Upload(dd *ui.DrawData) error {
	if err := b.ensureBuffer(&b.vb, &b.vbSize, dd.TotalVtxCount, vertexGrowth, vertexSize, d3d.BindVertexBuffer); err != nil {
		return errors.WithMessage(err, "CreateBuffer(vertices)")
	}
	if err := b.ensureBuffer(&b.ib, &b.ibSize, dd.TotalIdxCount, indexGrowth, indexSize, d3d.BindIndexBuffer); err != nil {
		return errors.WithMessage(err, "CreateBuffer(indices)")
	}

	vp, err := b.mapBuffer(b.vb)
	if err != nil {
		return err
	}
	ip, err := b.mapBuffer(b.ib)
	if err != nil {
		b.context(d3d.Context11Unmap, b.vb, 0)
		return err
	}
	vtx := unsafe.Slice((*ui.DrawVert)(unsafe.Pointer(vp)), b.vbSize)
	idx := unsafe.Slice((*ui.DrawIdx)(unsafe.Pointer(ip)), b.ibSize)
	for _, l := range dd.Lists {
		vtx = vtx[copy(vtx, l.VtxBuffer):]
		idx = idx[copy(idx, l.IdxBuffer):]
	}
	b.context(d3d.Context11Unmap, b.vb, 0)
	b.context(d3d.Context11Unmap, b.ib, 0)
	return nil
}

func (b *Backend) renderTarget() (uintptr, error) {
	if b.rtv != 0 {
		return b.rtv, nil
	}
	var tex uintptr
	if _, err := vtable.Call(b.swapChain, d3d.SwapChainGetBuffer, 0, vtable.Ptr(&d3d.IIDTexture2D), vtable.Ptr(&tex)); err != nil {
		return 0, errors.WithMessage(err, "IDXGISwapChain::GetBuffer")
	}
	defer vtable.Release(tex)
	if err := b.device11(d3d.Device11CreateRenderTargetView, tex, 0, vtable.Ptr(&b.rtv)); err != nil {
		return 0, errors.WithMessage(err, "CreateRenderTargetView")
	}
	return b.rtv, nil
}

func (b *Backend) SetupRenderState(dd *ui.DrawData) error {
	rtv, err := b.renderTarget()
	if err != nil {
		return err
	}
	p, err := b.mapBuffer(b.cb)
	if err != nil {
		return err
	}
	*(*[16]float32)(unsafe.Pointer(p)) = render.Ortho(dd)
	b.context(d3d.Context11Unmap, b.cb, 0)

	scale := dd.FramebufferScale
	if scale.X == 0 || scale.Y == 0 {
		scale = ui.Vec2{X: 1, Y: 1}
	}
	vp := d3d.Viewport{Width: dd.DisplaySize.X * scale.X, Height: dd.DisplaySize.Y * scale.Y, MaxDepth: 1}
	b.context(d3d.Context11RSSetViewports, 1, vtable.Ptr(&vp))

	stride, offset := uint32(vertexSize), uint32(0)
	b.context(d3d.Context11IASetInputLayout, b.layout)
	b.context(d3d.Context11IASetVertexBuffers, 0, 1, vtable.Ptr(&b.vb), vtable.Ptr(&stride), vtable.Ptr(&offset))
	b.context(d3d.Context11IASetIndexBuffer, b.ib, d3d.FormatR16UInt, 0)
	b.context(d3d.Context11IASetPrimitiveTopology, d3d.TopologyTriangleList)
	b.context(d3d.Context11VSSetShader, b.vs, 0, 0)
	b.context(d3d.Context11VSSetConstantBuffers, 0, 1, vtable.Ptr(&b.cb))
	b.context(d3d.Context11PSSetShader, b.ps, 0, 0)
	b.context(d3d.Context11PSSetSamplers, 0, 1, vtable.Ptr(&b.sampler))
	b.context(d3d.Context11GSSetShader, 0, 0, 0)

	var factor [4]float32
	b.context(d3d.Context11OMSetBlendState, b.blend, vtable.Ptr(&factor), 0xffffffff)
	b.context(d3d.Context11OMSetDepthStencilState, b.depth, 0)
	b.context(d3d.Context11RSSetState, b.raster)
	b.context(d3d.Context11OMSetRenderTargets, 1, vtable.Ptr(&rtv), 0)
	return nil
}

func (b *Backend) SetScissor(r render.Rect) error {
	rc := d3d.Rect{Left: r.Left, Top: r.Top, Right: r.Right, Bottom: r.Bottom}
	b.context(d3d.Context11RSSetScissorRects, 1, vtable.Ptr(&rc))
	return nil
}

func (b *Backend) SetTexture(id ui.TextureID) error {
	srv := uintptr(id)
	b.context(d3d.Context11PSSetShaderResources, 0, 1, vtable.Ptr(&srv))
	return nil
}

func (b *Backend) DrawIndexed(count, firstIndex, baseVertex int) error {
	b.context(d3d.Context11DrawIndexed, uintptr(count), uintptr(firstIndex), uintptr(int32(baseVertex)))
	return nil
}

// Resize drops the back buffer view so ResizeBuffers can succeed.
func (b *Backend) Resize(w, h uint32) error {
	vtable.Release(b.rtv)
	b.rtv = 0
	return nil
}

func (b *Backend) Present() error {
	_, err := vtable.Call(b.swapChain, d3d.SwapChainPresent, 1, 0)
	return errors.WithMessage(err, "IDXGISwapChain::Present")
}

func (b *Backend) Release() error {
	for _, p := range []*uintptr{&b.rtv, &b.vb, &b.ib, &b.sampler, &b.depth, &b.raster, &b.blend, &b.cb, &b.layout, &b.ps, &b.vs, &b.ctx, &b.device, &b.swapChain} {
		vtable.Release(*p)
		*p = 0
	}
	for _, t := range b.textures {
		vtable.Release(t)
	}
	b.textures = nil
	return nil
}
