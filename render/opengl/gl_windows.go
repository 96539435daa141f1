package opengl

import "golang.org/x/sys/windows"

const (
	glTriangles            = 0x0004
	glSrcAlpha             = 0x0302
	glOneMinusSrcAlpha     = 0x0303
	glFrontAndBack         = 0x0408
	glCullFace             = 0x0B44
	glLighting             = 0x0B50
	glShadeModel           = 0x0B54
	glColorMaterial        = 0x0B57
	glDepthTest            = 0x0B71
	glStencilTest          = 0x0B90
	glPolygonMode          = 0x0B40
	glViewport             = 0x0BA2
	glBlend                = 0x0BE2
	glScissorBox           = 0x0C10
	glScissorTest          = 0x0C11
	glUnpackRowLength      = 0x0CF2
	glUnpackAlignment      = 0x0CF5
	glTexture2D            = 0x0DE1
	glUnsignedByte         = 0x1401
	glUnsignedShort        = 0x1403
	glFloat                = 0x1406
	glModelview            = 0x1700
	glProjection           = 0x1701
	glRGBA                 = 0x1908
	glFill                 = 0x1B02
	glSmooth               = 0x1D01
	glModulate             = 0x2100
	glTextureEnvMode       = 0x2200
	glTextureEnv           = 0x2300
	glLinear               = 0x2601
	glTextureMagFilter     = 0x2800
	glTextureMinFilter     = 0x2801
	glTextureBinding2D     = 0x8069
	glVertexArray          = 0x8074
	glColorArray           = 0x8076
	glTextureCoordArray    = 0x8078
	glTransformBit         = 0x1000
	glEnableBit            = 0x2000
	glColorBufferBit       = 0x4000
	glClientVertexArrayBit = 0x2
)

var (
	opengl32 = windows.NewLazySystemDLL("opengl32.dll")

	glBindTexture        = opengl32.NewProc("glBindTexture")
	glBlendFunc          = opengl32.NewProc("glBlendFunc")
	glColorPointer       = opengl32.NewProc("glColorPointer")
	glDeleteTextures     = opengl32.NewProc("glDeleteTextures")
	glDisable            = opengl32.NewProc("glDisable")
	glDrawElements       = opengl32.NewProc("glDrawElements")
	glEnable             = opengl32.NewProc("glEnable")
	glEnableClientState  = opengl32.NewProc("glEnableClientState")
	glGenTextures        = opengl32.NewProc("glGenTextures")
	glGetError           = opengl32.NewProc("glGetError")
	glGetIntegerv        = opengl32.NewProc("glGetIntegerv")
	glGetTexEnviv        = opengl32.NewProc("glGetTexEnviv")
	glLoadIdentity       = opengl32.NewProc("glLoadIdentity")
	glLoadMatrixf        = opengl32.NewProc("glLoadMatrixf")
	glMatrixMode         = opengl32.NewProc("glMatrixMode")
	glPixelStorei        = opengl32.NewProc("glPixelStorei")
	glPolygonModeProc    = opengl32.NewProc("glPolygonMode")
	glPopAttrib          = opengl32.NewProc("glPopAttrib")
	glPopClientAttrib    = opengl32.NewProc("glPopClientAttrib")
	glPopMatrix          = opengl32.NewProc("glPopMatrix")
	glPushAttrib         = opengl32.NewProc("glPushAttrib")
	glPushClientAttrib   = opengl32.NewProc("glPushClientAttrib")
	glPushMatrix         = opengl32.NewProc("glPushMatrix")
	glScissor            = opengl32.NewProc("glScissor")
	glShadeModelProc     = opengl32.NewProc("glShadeModel")
	glTexCoordPointer    = opengl32.NewProc("glTexCoordPointer")
	glTexEnvi            = opengl32.NewProc("glTexEnvi")
	glTexImage2D         = opengl32.NewProc("glTexImage2D")
	glTexParameteri      = opengl32.NewProc("glTexParameteri")
	glVertexPointer      = opengl32.NewProc("glVertexPointer")
	glViewportProc       = opengl32.NewProc("glViewport")
	wglGetCurrentContext = opengl32.NewProc("wglGetCurrentContext")
)

// gl calls a proc whose result, if any, is not an error indicator.
func gl(p *windows.LazyProc, args ...uintptr) uintptr {
	r, _, _ := p.Call(args...)
	return r
}
