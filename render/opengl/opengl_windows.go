package opengl

import (
	"unsafe"

	"github.com/lxn/win"
	"github.com/pkg/errors"

	"github.com/brahma-adshonor/overhook/render"
	"github.com/brahma-adshonor/overhook/ui"
)

const vertexStride = uintptr(unsafe.Sizeof(ui.DrawVert{}))

// Backend draws from client memory arrays, so nothing but the font texture
// lives in the GL context.
type Backend struct {
	hdc      win.HDC
	font     uint32
	fbHeight int32

	vtx []ui.DrawVert
	idx []ui.DrawIdx
}

var _ render.Backend = (*Backend)(nil)

// New builds an engine presenting to hdc. The context that is current on the
// calling thread at render time is the one drawn into.
func New(hdc uintptr) (*render.Renderer, error) {
	if hdc == 0 {
		return nil, errors.New("nil device context")
	}
	return render.NewRenderer(&Backend{hdc: win.HDC(hdc)}), nil
}

func current() bool {
	return gl(wglGetCurrentContext) != 0
}

type state struct {
	texture     int32
	polygonMode [2]int32
	viewport    [4]int32
	scissor     [4]int32
	shadeModel  int32
	texEnvMode  int32
}

func getInt(name uintptr, dst *int32) {
	gl(glGetIntegerv, name, uintptr(unsafe.Pointer(dst)))
}

func (b *Backend) BackupState() (render.State, error) {
	if !current() {
		return nil, errors.New("no current GL context")
	}
	s := &state{}
	getInt(glTextureBinding2D, &s.texture)
	getInt(glPolygonMode, &s.polygonMode[0])
	getInt(glViewport, &s.viewport[0])
	getInt(glScissorBox, &s.scissor[0])
	getInt(glShadeModel, &s.shadeModel)
	gl(glGetTexEnviv, glTextureEnv, glTextureEnvMode, uintptr(unsafe.Pointer(&s.texEnvMode)))
	gl(glPushAttrib, glEnableBit|glColorBufferBit|glTransformBit)
	gl(glPushClientAttrib, glClientVertexArrayBit)
	return s, nil
}

func (b *Backend) RestoreState(st render.State) error {
	s, ok := st.(*state)
	if !ok || s == nil {
		return nil
	}
	gl(glMatrixMode, glModelview)
	gl(glPopMatrix)
	gl(glMatrixMode, glProjection)
	gl(glPopMatrix)
	gl(glPopClientAttrib)
	gl(glPopAttrib)
	gl(glPolygonModeProc, glFrontAndBack, uintptr(s.polygonMode[0]))
	gl(glViewportProc, uintptr(s.viewport[0]), uintptr(s.viewport[1]), uintptr(s.viewport[2]), uintptr(s.viewport[3]))
	gl(glScissor, uintptr(s.scissor[0]), uintptr(s.scissor[1]), uintptr(s.scissor[2]), uintptr(s.scissor[3]))
	gl(glShadeModelProc, uintptr(s.shadeModel))
	gl(glTexEnvi, glTextureEnv, glTextureEnvMode, uintptr(s.texEnvMode))
	gl(glBindTexture, glTexture2D, uintptr(s.texture))
	if e := gl(glGetError); e != 0 {
		return errors.Errorf("GL error 0x%x", e)
	}
	return nil
}

func (b *Backend) Upload(dd *ui.DrawData) error {
	b.vtx, b.idx = b.vtx[:0], b.idx[:0]
	for _, l := range dd.Lists {
		b.vtx = append(b.vtx, l.VtxBuffer...)
		b.idx = append(b.idx, l.IdxBuffer...)
	}
	return nil
}

// SetupRenderState is also reached through ResetRenderState commands, where
// the matrices pushed by the first call are already on the stacks.
func (b *Backend) SetupRenderState(dd *ui.DrawData) error {
	gl(glEnable, glBlend)
	gl(glBlendFunc, glSrcAlpha, glOneMinusSrcAlpha)
	for _, c := range []uintptr{glCullFace, glDepthTest, glStencilTest, glLighting, glColorMaterial} {
		gl(glDisable, c)
	}
	gl(glEnable, glScissorTest)
	gl(glEnableClientState, glVertexArray)
	gl(glEnableClientState, glTextureCoordArray)
	gl(glEnableClientState, glColorArray)
	gl(glEnable, glTexture2D)
	gl(glPolygonModeProc, glFrontAndBack, glFill)
	gl(glShadeModelProc, glSmooth)
	gl(glTexEnvi, glTextureEnv, glTextureEnvMode, glModulate)

	scale := dd.FramebufferScale
	if scale.X == 0 || scale.Y == 0 {
		scale = ui.Vec2{X: 1, Y: 1}
	}
	w := int32(dd.DisplaySize.X * scale.X)
	b.fbHeight = int32(dd.DisplaySize.Y * scale.Y)
	gl(glViewportProc, 0, 0, uintptr(w), uintptr(b.fbHeight))

	proj := render.Ortho(dd)
	gl(glMatrixMode, glProjection)
	gl(glPushMatrix)
	gl(glLoadMatrixf, uintptr(unsafe.Pointer(&proj[0])))
	gl(glMatrixMode, glModelview)
	gl(glPushMatrix)
	gl(glLoadIdentity)
	return nil
}

func (b *Backend) SetScissor(r render.Rect) error {
	box := scissorBox(r, b.fbHeight)
	gl(glScissor, uintptr(box[0]), uintptr(box[1]), uintptr(box[2]), uintptr(box[3]))
	return nil
}

func (b *Backend) SetTexture(id ui.TextureID) error {
	gl(glBindTexture, glTexture2D, uintptr(id))
	return nil
}

func (b *Backend) DrawIndexed(count, firstIndex, baseVertex int) error {
	if firstIndex+count > len(b.idx) || baseVertex >= len(b.vtx) {
		return errors.Errorf("draw out of range: %d indices at %d, base vertex %d", count, firstIndex, baseVertex)
	}
	v := &b.vtx[baseVertex]
	gl(glVertexPointer, 2, glFloat, vertexStride, uintptr(unsafe.Pointer(&v.Pos)))
	gl(glTexCoordPointer, 2, glFloat, vertexStride, uintptr(unsafe.Pointer(&v.UV)))
	gl(glColorPointer, 4, glUnsignedByte, vertexStride, uintptr(unsafe.Pointer(&v.Col)))
	gl(glDrawElements, glTriangles, uintptr(count), glUnsignedShort, uintptr(unsafe.Pointer(&b.idx[firstIndex])))
	return nil
}

func (b *Backend) CreateFontTexture(atlas *ui.FontAtlas) (ui.TextureID, error) {
	if !current() {
		return 0, errors.New("no current GL context")
	}
	if len(atlas.Pixels) < atlas.Width*atlas.Height*4 || atlas.Width == 0 {
		return 0, errors.Errorf("font atlas %dx%d has %d bytes", atlas.Width, atlas.Height, len(atlas.Pixels))
	}
	var prev int32
	getInt(glTextureBinding2D, &prev)
	b.deleteFont()
	gl(glGenTextures, 1, uintptr(unsafe.Pointer(&b.font)))
	gl(glBindTexture, glTexture2D, uintptr(b.font))
	gl(glTexParameteri, glTexture2D, glTextureMinFilter, glLinear)
	gl(glTexParameteri, glTexture2D, glTextureMagFilter, glLinear)
	gl(glPixelStorei, glUnpackRowLength, 0)
	gl(glPixelStorei, glUnpackAlignment, 4)
	gl(glTexImage2D, glTexture2D, 0, glRGBA, uintptr(atlas.Width), uintptr(atlas.Height), 0,
		glRGBA, glUnsignedByte, uintptr(unsafe.Pointer(&atlas.Pixels[0])))
	gl(glBindTexture, glTexture2D, uintptr(prev))
	if e := gl(glGetError); e != 0 {
		return 0, errors.Errorf("upload font texture: GL error 0x%x", e)
	}
	return ui.TextureID(b.font), nil
}

func (b *Backend) deleteFont() {
	if b.font != 0 && current() {
		gl(glDeleteTextures, 1, uintptr(unsafe.Pointer(&b.font)))
	}
	b.font = 0
}

// Resize has nothing to do: the default framebuffer follows the window.
func (b *Backend) Resize(w, h uint32) error {
	return nil
}

func (b *Backend) Present() error {
	if !win.SwapBuffers(b.hdc) {
		return errors.New("SwapBuffers failed")
	}
	return nil
}

// Release deletes the font texture when the context is current on this
// thread. Otherwise the name dies with the context.
func (b *Backend) Release() error {
	b.deleteFont()
	return nil
}
