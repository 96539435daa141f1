package dx9

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/brahma-adshonor/overhook/internal/d3d"
	"github.com/brahma-adshonor/overhook/render"
	"github.com/brahma-adshonor/overhook/ui"
	"github.com/brahma-adshonor/overhook/vtable"
)

// fontTexture stands for the font atlas texture, which is recreated after
// every device reset.
const fontTexture ui.TextureID = 1

const fvf = d3d.FVFXYZ | d3d.FVFDiffuse | d3d.FVFTex1

type Backend struct {
	device uintptr

	atlas *ui.FontAtlas
	font  uintptr

	vtx []vertex
	idx []ui.DrawIdx
}

var _ render.Backend = (*Backend)(nil)

// New builds an engine drawing through device, an IDirect3DDevice9.
func New(device uintptr) (*render.Renderer, error) {
	if device == 0 {
		return nil, vtable.ErrNilObject
	}
	vtable.AddRef(device)
	return render.NewRenderer(&Backend{device: device}), nil
}

func (b *Backend) call(index int, args ...uintptr) error {
	_, err := vtable.Call(b.device, index, args...)
	return err
}

type state struct {
	block                   uintptr
	world, view, projection d3d.Matrix
}

func (b *Backend) BackupState() (render.State, error) {
	s := &state{}
	if err := b.call(d3d.Device9CreateStateBlock, d3d.StateBlockAll, vtable.Ptr(&s.block)); err != nil {
		return nil, errors.WithMessage(err, "CreateStateBlock")
	}
	if _, err := vtable.Call(s.block, d3d.StateBlock9Capture); err != nil {
		vtable.Release(s.block)
		return nil, errors.WithMessage(err, "IDirect3DStateBlock9::Capture")
	}
	b.call(d3d.Device9GetTransform, d3d.TransformWorld, vtable.Ptr(&s.world))
	b.call(d3d.Device9GetTransform, d3d.TransformView, vtable.Ptr(&s.view))
	b.call(d3d.Device9GetTransform, d3d.TransformProjection, vtable.Ptr(&s.projection))
	return s, nil
}

func (b *Backend) RestoreState(st render.State) error {
	s, ok := st.(*state)
	if !ok || s == nil {
		return nil
	}
	b.call(d3d.Device9SetTransform, d3d.TransformWorld, vtable.Ptr(&s.world))
	b.call(d3d.Device9SetTransform, d3d.TransformView, vtable.Ptr(&s.view))
	b.call(d3d.Device9SetTransform, d3d.TransformProjection, vtable.Ptr(&s.projection))
	_, err := vtable.Call(s.block, d3d.StateBlock9Apply)
	vtable.Release(s.block)
	return errors.WithMessage(err, "IDirect3DStateBlock9::Apply")
}

// Upload converts the draw lists into one vertex and one index array drawn
// with DrawIndexedPrimitiveUP; no device buffers are involved.
func (b *Backend) Upload(dd *ui.DrawData) error {
	b.vtx, b.idx = b.vtx[:0], b.idx[:0]
	for _, l := range dd.Lists {
		b.vtx = convert(b.vtx, l.VtxBuffer)
		b.idx = append(b.idx, l.IdxBuffer...)
	}
	return nil
}

var renderStates = [][2]uintptr{
	{d3d.RSFillMode, d3d.Fill9Solid},
	{d3d.RSShadeMode, d3d.Shade9Gouraud},
	{d3d.RSZWriteEnable, 0},
	{d3d.RSAlphaTestEnable, 0},
	{d3d.RSCullMode, d3d.Cull9None},
	{d3d.RSZEnable, 0},
	{d3d.RSAlphaBlendEnable, 1},
	{d3d.RSBlendOp, d3d.BlendOp9Add},
	{d3d.RSSrcBlend, d3d.Blend9SrcAlpha},
	{d3d.RSDestBlend, d3d.Blend9InvSrcAlpha},
	{d3d.RSSeparateAlphaBlend, 1},
	{d3d.RSSrcBlendAlpha, d3d.Blend9One},
	{d3d.RSDestBlendAlpha, d3d.Blend9InvSrcAlpha},
	{d3d.RSScissorTestEnable, 1},
	{d3d.RSFogEnable, 0},
	{d3d.RSRangeFogEnable, 0},
	{d3d.RSSpecularEnable, 0},
	{d3d.RSStencilEnable, 0},
	{d3d.RSClipping, 1},
	{d3d.RSLighting, 0},
}

var stageStates = [][3]uintptr{
	{0, d3d.TextureStageColorOp, d3d.TextureOpModulate},
	{0, d3d.TextureStageColorArg1, d3d.TextureArgTexture},
	{0, d3d.TextureStageColorArg2, d3d.TextureArgDiffuse},
	{0, d3d.TextureStageAlphaOp, d3d.TextureOpModulate},
	{0, d3d.TextureStageAlphaArg1, d3d.TextureArgTexture},
	{0, d3d.TextureStageAlphaArg2, d3d.TextureArgDiffuse},
	{1, d3d.TextureStageColorOp, d3d.TextureOpDisable},
	{1, d3d.TextureStageAlphaOp, d3d.TextureOpDisable},
}

func (b *Backend) SetupRenderState(dd *ui.DrawData) error {
	if b.font == 0 && b.atlas != nil {
		if err := b.createFont(); err != nil {
			return err
		}
	}
	vp := d3d.Viewport9{Width: uint32(dd.DisplaySize.X), Height: uint32(dd.DisplaySize.Y), MaxZ: 1}
	if err := b.call(d3d.Device9SetViewport, vtable.Ptr(&vp)); err != nil {
		return errors.WithMessage(err, "SetViewport")
	}
	b.call(d3d.Device9SetPixelShader, 0)
	b.call(d3d.Device9SetVertexShader, 0)
	b.call(d3d.Device9SetFVF, fvf)
	for _, rs := range renderStates {
		b.call(d3d.Device9SetRenderState, rs[0], rs[1])
	}
	for _, ts := range stageStates {
		b.call(d3d.Device9SetTextureStageState, ts[0], ts[1], ts[2])
	}
	b.call(d3d.Device9SetSamplerState, 0, d3d.SamplerMinFilter, d3d.TextureFilterLinear)
	b.call(d3d.Device9SetSamplerState, 0, d3d.SamplerMagFilter, d3d.TextureFilterLinear)

	identity := d3d.Matrix{0: 1, 5: 1, 10: 1, 15: 1}
	proj := d3d.Matrix(projection(dd))
	b.call(d3d.Device9SetTransform, d3d.TransformWorld, vtable.Ptr(&identity))
	b.call(d3d.Device9SetTransform, d3d.TransformView, vtable.Ptr(&identity))
	b.call(d3d.Device9SetTransform, d3d.TransformProjection, vtable.Ptr(&proj))
	return nil
}

func (b *Backend) SetScissor(r render.Rect) error {
	rc := d3d.Rect{Left: r.Left, Top: r.Top, Right: r.Right, Bottom: r.Bottom}
	return errors.WithMessage(b.call(d3d.Device9SetScissorRect, vtable.Ptr(&rc)), "SetScissorRect")
}

func (b *Backend) SetTexture(id ui.TextureID) error {
	tex := uintptr(id)
	if id == fontTexture {
		tex = b.font
	}
	return errors.WithMessage(b.call(d3d.Device9SetTexture, 0, tex), "SetTexture")
}

func (b *Backend) DrawIndexed(count, firstIndex, baseVertex int) error {
	if firstIndex+count > len(b.idx) || baseVertex >= len(b.vtx) {
		return errors.Errorf("draw out of range: %d indices at %d, base vertex %d", count, firstIndex, baseVertex)
	}
	err := b.call(d3d.Device9DrawIndexedPrimitiveUP,
		d3d.PrimitiveTriangleList,
		0, uintptr(len(b.vtx)-baseVertex), uintptr(count/3),
		vtable.Ptr(&b.idx[firstIndex]), d3d.Fmt9Index16,
		vtable.Ptr(&b.vtx[baseVertex]), unsafe.Sizeof(vertex{}))
	return errors.WithMessage(err, "DrawIndexedPrimitiveUP")
}

func (b *Backend) CreateFontTexture(atlas *ui.FontAtlas) (ui.TextureID, error) {
	b.atlas = atlas
	vtable.Release(b.font)
	b.font = 0
	if err := b.createFont(); err != nil {
		return 0, err
	}
	return fontTexture, nil
}

func (b *Backend) createFont() error {
	a := b.atlas
	var tex uintptr
	if err := b.call(d3d.Device9CreateTexture,
		uintptr(a.Width), uintptr(a.Height), 1, d3d.Usage9Dynamic, d3d.Fmt9A8R8G8B8, d3d.Pool9Default,
		vtable.Ptr(&tex), 0); err != nil {
		return errors.WithMessage(err, "CreateTexture")
	}
	var lr d3d.LockedRect
	if _, err := vtable.Call(tex, d3d.Texture9LockRect, 0, vtable.Ptr(&lr), 0, 0); err != nil {
		vtable.Release(tex)
		return errors.WithMessage(err, "LockRect")
	}
	row := a.Width * 4
	for y := 0; y < a.Height; y++ {
		dst := unsafe.Slice((*byte)(unsafe.Pointer(lr.Bits+uintptr(y*int(lr.Pitch)))), row)
		copy(dst, a.Pixels[y*row:(y+1)*row])
		bgra(dst)
	}
	vtable.Invoke(tex, d3d.Texture9UnlockRect, 0)
	b.font = tex
	return nil
}

// Resize runs before IDirect3DDevice9::Reset, which fails while default
// pool resources are alive. The font comes back on the next frame.
func (b *Backend) Resize(w, h uint32) error {
	vtable.Release(b.font)
	b.font = 0
	return nil
}

func (b *Backend) Present() error {
	return errors.WithMessage(b.call(d3d.Device9Present, 0, 0, 0, 0), "IDirect3DDevice9::Present")
}

func (b *Backend) Release() error {
	vtable.Release(b.font)
	vtable.Release(b.device)
	b.font, b.device = 0, 0
	return nil
}
