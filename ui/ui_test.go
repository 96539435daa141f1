package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFontAtlas(t *testing.T) {
	a, err := NewFontAtlas()
	require.NoError(t, err)
	assert.Equal(t, 256, a.Width)
	assert.Equal(t, 128, a.Height)
	require.Len(t, a.Pixels, a.Width*a.Height*4)

	wx, wy := int(a.WhiteUV.X*float32(a.Width)), int(a.WhiteUV.Y*float32(a.Height))
	off := (wy*a.Width + wx) * 4
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, a.Pixels[off:off+4])

	g := a.Glyph('A')
	assert.Equal(t, float32(7), g.Advance)
	assert.Equal(t, float32(6), g.X1-g.X0)
	assert.Equal(t, float32(13), g.Y1-g.Y0)
	covered := false
	for y := int(g.V0 * float32(a.Height)); y < int(g.V1*float32(a.Height)); y++ {
		for x := int(g.U0 * float32(a.Width)); x < int(g.U1*float32(a.Width)); x++ {
			covered = covered || a.Pixels[(y*a.Width+x)*4+3] > 0
		}
	}
	assert.True(t, covered, "glyph A has no pixels")

	assert.Equal(t, a.Glyph('?'), a.Glyph('一'))
	assert.Equal(t, Vec2{14, 26}, a.TextSize("ab\nc"))
}

func newList() *DrawList {
	l := newDrawList(nil)
	l.reset(Vec4{0, 0, 100, 100})
	return l
}

func TestDrawListMergesAndSplitsCommands(t *testing.T) {
	l := newList()
	white := Color(255, 255, 255, 255)
	l.AddRectFilled(Vec2{0, 0}, Vec2{10, 10}, white)
	l.AddRectFilled(Vec2{10, 10}, Vec2{20, 20}, white)
	l.PushClipRect(Vec2{5, 5}, Vec2{200, 50}, true)
	l.AddRectFilled(Vec2{0, 0}, Vec2{10, 10}, white)
	l.PopClipRect()
	l.AddRectFilled(Vec2{0, 0}, Vec2{10, 10}, white)
	l.finish()

	require.Len(t, l.CmdBuffer, 3)
	assert.Equal(t, uint32(12), l.CmdBuffer[0].ElemCount)
	assert.Equal(t, Vec4{5, 5, 100, 50}, l.CmdBuffer[1].ClipRect)
	assert.Equal(t, uint32(12), l.CmdBuffer[1].IdxOffset)
	assert.Equal(t, Vec4{0, 0, 100, 100}, l.CmdBuffer[2].ClipRect)
	assert.Equal(t, uint32(18), l.CmdBuffer[2].IdxOffset)
	assert.Len(t, l.VtxBuffer, 16)
	assert.Len(t, l.IdxBuffer, 24)
}

func TestTransparentShapesAreSkipped(t *testing.T) {
	l := newList()
	l.AddRectFilled(Vec2{0, 0}, Vec2{10, 10}, Color(255, 0, 0, 0))
	l.finish()
	assert.Empty(t, l.CmdBuffer)
	assert.Empty(t, l.VtxBuffer)
}

func TestCallbackAndResetCommands(t *testing.T) {
	l := newList()
	white := Color(255, 255, 255, 255)
	called := 0
	l.AddRectFilled(Vec2{0, 0}, Vec2{10, 10}, white)
	l.AddCallback(func(*DrawList, *DrawCmd) { called++ })
	l.AddResetRenderState()
	l.AddRectFilled(Vec2{0, 0}, Vec2{10, 10}, white)
	l.finish()

	require.Len(t, l.CmdBuffer, 4)
	assert.Equal(t, uint32(6), l.CmdBuffer[0].ElemCount)
	require.NotNil(t, l.CmdBuffer[1].Callback)
	assert.Zero(t, l.CmdBuffer[1].ElemCount)
	assert.True(t, l.CmdBuffer[2].ResetRenderState)
	assert.Nil(t, l.CmdBuffer[2].Callback)
	assert.Equal(t, uint32(6), l.CmdBuffer[3].IdxOffset)
	assert.Equal(t, uint32(6), l.CmdBuffer[3].ElemCount)

	l.CmdBuffer[1].Callback(l, &l.CmdBuffer[1])
	assert.Equal(t, 1, called)
}

func TestLargeMeshMovesVertexOffset(t *testing.T) {
	l := newList()
	white := Color(255, 255, 255, 255)
	for i := 0; i < 16384; i++ {
		l.AddRectFilled(Vec2{0, 0}, Vec2{1, 1}, white)
	}
	l.finish()

	require.Len(t, l.CmdBuffer, 2)
	assert.Equal(t, uint32(16383*6), l.CmdBuffer[0].ElemCount)
	assert.Equal(t, uint32(65532), l.CmdBuffer[1].VtxOffset)
	assert.Equal(t, uint32(16383*6), l.CmdBuffer[1].IdxOffset)
	assert.Equal(t, []DrawIdx{0, 1, 2, 0, 2, 3}, l.IdxBuffer[len(l.IdxBuffer)-6:])
}

func newTestContext(t *testing.T) *Context {
	t.Helper()
	c, err := NewContext(nil)
	require.NoError(t, err)
	c.IO().DisplaySize = Vec2{800, 600}
	return c
}

func TestFrameProducesDrawData(t *testing.T) {
	c := newTestContext(t)
	u := c.NewFrame(time.Unix(100, 0))
	u.Window("stats", Vec2{10, 10}, Vec2{200, 100}, func() {
		u.Text("fps %d", 60)
		u.Separator()
	})
	dd := c.Render()

	assert.True(t, dd.Valid)
	assert.Equal(t, Vec2{800, 600}, dd.DisplaySize)
	assert.Equal(t, Vec2{1, 1}, dd.FramebufferScale)
	require.Len(t, dd.Lists, 1, "empty foreground list is dropped")
	assert.Equal(t, len(dd.Lists[0].VtxBuffer), dd.TotalVtxCount)
	assert.Equal(t, len(dd.Lists[0].IdxBuffer), dd.TotalIdxCount)

	var elems uint32
	for _, cmd := range dd.Lists[0].CmdBuffer {
		assert.GreaterOrEqual(t, cmd.ClipRect.X, float32(10))
		assert.LessOrEqual(t, cmd.ClipRect.Z, float32(210))
		assert.Equal(t, c.Fonts.TexID, cmd.TextureID)
		elems += cmd.ElemCount
	}
	assert.Equal(t, uint32(dd.TotalIdxCount), elems)

	c.NewFrame(time.Unix(100, 0).Add(20 * time.Millisecond))
	dd = c.Render()
	assert.Empty(t, dd.Lists, "windows not drawn this frame are hidden")
	assert.InDelta(t, 0.02, c.IO().DeltaTime, 1e-6)
	assert.Equal(t, 2, c.Frame())
}

func TestButtonSeesClickBetweenFrames(t *testing.T) {
	c := newTestContext(t)
	io := c.IO()
	io.MousePos = Vec2{12, 35}
	io.SetMouseButton(0, true)
	io.SetMouseButton(0, false)

	clicked := false
	u := c.NewFrame(time.Unix(1, 0))
	u.Window("w", Vec2{0, 0}, Vec2{200, 200}, func() { clicked = u.Button("ok") })
	c.Render()
	assert.True(t, clicked)

	u = c.NewFrame(time.Unix(2, 0))
	u.Window("w", Vec2{0, 0}, Vec2{200, 200}, func() { clicked = u.Button("ok") })
	c.Render()
	assert.False(t, clicked)
}

func TestWantCaptureMouseFollowsWindows(t *testing.T) {
	c := newTestContext(t)
	io := c.IO()
	frame := func() {
		u := c.NewFrame(time.Now())
		u.Window("w", Vec2{0, 0}, Vec2{100, 100}, nil)
		c.Render()
	}
	frame()

	io.MousePos = Vec2{50, 50}
	frame()
	assert.True(t, io.WantCaptureMouse)

	io.MousePos = Vec2{300, 300}
	frame()
	assert.False(t, io.WantCaptureMouse)

	io.MousePos = MousePosInvalid
	frame()
	assert.False(t, io.WantCaptureMouse)
}

func TestCaptureKeyboardAppliesToNextFrame(t *testing.T) {
	c := newTestContext(t)
	u := c.NewFrame(time.Now())
	u.CaptureKeyboard()
	assert.False(t, c.IO().WantCaptureKeyboard)
	c.Render()

	c.NewFrame(time.Now())
	assert.True(t, c.IO().WantCaptureKeyboard)
	c.Render()

	c.NewFrame(time.Now())
	assert.False(t, c.IO().WantCaptureKeyboard)
}

func TestInputCharactersJoinSurrogates(t *testing.T) {
	c := newTestContext(t)
	io := c.IO()
	io.AddInputCharacterUTF16('a')
	io.AddInputCharacterUTF16(0xd83d)
	io.AddInputCharacterUTF16(0xde00)
	io.AddInputCharacterUTF16(0xdc00) // lone low surrogate
	io.AddInputCharacterUTF16(0)
	assert.Equal(t, []rune{'a', '\U0001F600'}, io.InputCharacters())

	c.NewFrame(time.Now())
	c.Render()
	assert.Empty(t, io.InputCharacters())
}

func TestClearKeysReleasesEverything(t *testing.T) {
	io := newIO()
	io.SetKey(0x41, true)
	io.SetKey(KeyCount, true)
	io.SetMouseButton(1, true)
	io.KeyCtrl = true
	io.ClearKeys()

	assert.False(t, io.KeysDown[0x41])
	assert.False(t, io.MouseDown[1])
	assert.False(t, io.KeyCtrl)
}
