package render

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brahma-adshonor/overhook/ui"
)

// bound mirrors the pipeline state a real device context carries.
type bound struct {
	Shader   string
	Blend    string
	Raster   string
	Depth    string
	Layout   string
	VB, IB   int
	Texture  ui.TextureID
	Scissor  Rect
	Viewport [2]float32
}

type draw struct {
	Count, First, Base int
	Scissor            Rect
	Texture            ui.TextureID
}

type fakeBackend struct {
	state    bound
	draws    []draw
	setups   int
	uploads  int
	restores int
	released bool

	failDraw   error
	failBackup error
}

func hostState() bound {
	return bound{
		Shader: "host-ps", Blend: "host-blend", Raster: "host-rs", Depth: "host-ds", Layout: "host-il",
		VB: 7, IB: 8, Texture: 0x99, Scissor: Rect{1, 2, 3, 4}, Viewport: [2]float32{1920, 1080},
	}
}

func (f *fakeBackend) BackupState() (State, error) {
	if f.failBackup != nil {
		return nil, f.failBackup
	}
	return f.state, nil
}

func (f *fakeBackend) RestoreState(s State) error {
	f.restores++
	f.state = s.(bound)
	return nil
}

func (f *fakeBackend) SetupRenderState(dd *ui.DrawData) error {
	f.setups++
	f.state.Shader, f.state.Blend, f.state.Raster, f.state.Depth, f.state.Layout = "own-ps", "own-blend", "own-rs", "own-ds", "own-il"
	f.state.VB, f.state.IB = 100, 101
	f.state.Viewport = [2]float32{dd.DisplaySize.X, dd.DisplaySize.Y}
	return nil
}

func (f *fakeBackend) Upload(*ui.DrawData) error {
	f.uploads++
	return nil
}

func (f *fakeBackend) SetScissor(r Rect) error {
	f.state.Scissor = r
	return nil
}

func (f *fakeBackend) SetTexture(id ui.TextureID) error {
	f.state.Texture = id
	return nil
}

func (f *fakeBackend) DrawIndexed(count, first, base int) error {
	if f.failDraw != nil {
		return f.failDraw
	}
	f.draws = append(f.draws, draw{count, first, base, f.state.Scissor, f.state.Texture})
	return nil
}

func (f *fakeBackend) CreateFontTexture(*ui.FontAtlas) (ui.TextureID, error) { return 0x42, nil }
func (f *fakeBackend) Resize(uint32, uint32) error                           { return nil }
func (f *fakeBackend) Present() error                                        { return nil }

func (f *fakeBackend) Release() error {
	f.released = true
	return nil
}

func newFake() *fakeBackend {
	return &fakeBackend{state: hostState()}
}

func list(vtx, idx int, cmds ...ui.DrawCmd) *ui.DrawList {
	return &ui.DrawList{
		CmdBuffer: cmds,
		VtxBuffer: make([]ui.DrawVert, vtx),
		IdxBuffer: make([]ui.DrawIdx, idx),
	}
}

func drawData(lists ...*ui.DrawList) *ui.DrawData {
	dd := &ui.DrawData{
		Valid:            true,
		Lists:            lists,
		DisplaySize:      ui.Vec2{X: 800, Y: 600},
		FramebufferScale: ui.Vec2{X: 1, Y: 1},
	}
	for _, l := range lists {
		dd.TotalVtxCount += len(l.VtxBuffer)
		dd.TotalIdxCount += len(l.IdxBuffer)
	}
	return dd
}

var full = ui.Vec4{X: 0, Y: 0, Z: 800, W: 600}

func TestRenderRestoresHostState(t *testing.T) {
	cases := map[string]*ui.DrawData{
		"no lists":    drawData(),
		"no commands": drawData(list(0, 0)),
		"draws": drawData(
			list(8, 12, ui.DrawCmd{ClipRect: full, TextureID: 1, ElemCount: 12}),
			list(4, 6, ui.DrawCmd{ClipRect: ui.Vec4{X: 10, Y: 10, Z: 20, W: 20}, TextureID: 2, ElemCount: 6}),
		),
	}
	for name, dd := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFake()
			r := NewRenderer(f)
			require.NoError(t, r.Render(dd))
			assert.Equal(t, hostState(), f.state)
			assert.Equal(t, 1, f.restores)
		})
	}
}

func TestRenderGlobalOffsets(t *testing.T) {
	f := newFake()
	dd := drawData(
		list(8, 12,
			ui.DrawCmd{ClipRect: full, TextureID: 1, ElemCount: 6},
			ui.DrawCmd{ClipRect: full, TextureID: 1, IdxOffset: 6, ElemCount: 6}),
		list(70000, 9,
			ui.DrawCmd{ClipRect: full, TextureID: 2, ElemCount: 3},
			ui.DrawCmd{ClipRect: full, TextureID: 2, VtxOffset: 65532, IdxOffset: 3, ElemCount: 6}),
	)
	require.NoError(t, NewRenderer(f).Render(dd))

	require.Len(t, f.draws, 4)
	assert.Equal(t, draw{6, 0, 0, Rect{0, 0, 800, 600}, 1}, f.draws[0])
	assert.Equal(t, draw{6, 6, 0, Rect{0, 0, 800, 600}, 1}, f.draws[1])
	assert.Equal(t, draw{3, 12, 8, Rect{0, 0, 800, 600}, 2}, f.draws[2])
	assert.Equal(t, draw{6, 15, 8 + 65532, Rect{0, 0, 800, 600}, 2}, f.draws[3])
	assert.Equal(t, 1, f.uploads)
}

func TestRenderSkipsEmptyClips(t *testing.T) {
	f := newFake()
	dd := drawData(list(4, 18,
		ui.DrawCmd{ClipRect: ui.Vec4{X: 900, Y: 0, Z: 1000, W: 100}, ElemCount: 6},
		ui.DrawCmd{ClipRect: ui.Vec4{X: 10, Y: 10, Z: 10, W: 50}, IdxOffset: 6, ElemCount: 6},
		ui.DrawCmd{ClipRect: ui.Vec4{X: -50, Y: -50, Z: 900, W: 700}, IdxOffset: 12, ElemCount: 6},
	))
	require.NoError(t, NewRenderer(f).Render(dd))

	require.Len(t, f.draws, 1)
	assert.Equal(t, Rect{0, 0, 800, 600}, f.draws[0].Scissor)
	assert.Equal(t, 12, f.draws[0].First)
}

func TestRenderScalesClipToFramebuffer(t *testing.T) {
	f := newFake()
	dd := drawData(list(4, 6, ui.DrawCmd{ClipRect: ui.Vec4{X: 110, Y: 60, Z: 150, W: 80}, ElemCount: 6}))
	dd.DisplayPos = ui.Vec2{X: 100, Y: 50}
	dd.FramebufferScale = ui.Vec2{X: 2, Y: 2}
	require.NoError(t, NewRenderer(f).Render(dd))

	require.Len(t, f.draws, 1)
	assert.Equal(t, Rect{20, 20, 100, 60}, f.draws[0].Scissor)
}

func TestRenderCallbacksAndReset(t *testing.T) {
	f := newFake()
	var seen []string
	dd := drawData(list(4, 6,
		ui.DrawCmd{Callback: func(*ui.DrawList, *ui.DrawCmd) {
			seen = append(seen, f.state.Shader)
			f.state.Shader = "callback-ps"
		}},
		ui.DrawCmd{ResetRenderState: true},
		ui.DrawCmd{ClipRect: full, ElemCount: 6},
	))
	require.NoError(t, NewRenderer(f).Render(dd))

	assert.Equal(t, []string{"own-ps"}, seen)
	assert.Equal(t, 2, f.setups)
	assert.Equal(t, hostState(), f.state)
}

func TestRenderRestoresAfterDrawFailure(t *testing.T) {
	f := newFake()
	f.failDraw = errors.New("device removed")
	dd := drawData(list(4, 6, ui.DrawCmd{ClipRect: full, ElemCount: 6}))

	err := NewRenderer(f).Render(dd)
	assert.ErrorIs(t, err, f.failDraw)
	assert.Equal(t, hostState(), f.state)
	assert.Equal(t, 1, f.restores)
}

func TestRenderRejectsEmptyDisplay(t *testing.T) {
	f := newFake()
	r := NewRenderer(f)
	dd := drawData()
	dd.DisplaySize = ui.Vec2{X: 0, Y: 600}
	assert.ErrorIs(t, r.Render(dd), ErrInsufficientDisplaySize)
	assert.ErrorIs(t, r.Render(nil), ErrInsufficientDisplaySize)
	assert.Zero(t, f.restores, "nothing is touched")

	f.failBackup = errors.New("no context")
	assert.ErrorIs(t, r.Render(drawData()), f.failBackup)
	assert.Zero(t, f.restores)
}

func TestSetupFontsAndClose(t *testing.T) {
	f := newFake()
	r := NewRenderer(f)
	atlas := &ui.FontAtlas{}
	require.NoError(t, r.SetupFonts(atlas))
	assert.Equal(t, ui.TextureID(0x42), atlas.TexID)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.True(t, f.released)
	assert.ErrorIs(t, r.Render(drawData()), ErrClosed)
	assert.ErrorIs(t, r.Resize(1, 1), ErrClosed)
}

func TestOrthoMapsCorners(t *testing.T) {
	dd := drawData()
	m := Ortho(dd)
	apply := func(x, y float32) (float32, float32) {
		return m[0]*x + m[4]*y + m[12], m[1]*x + m[5]*y + m[13]
	}
	x, y := apply(0, 0)
	assert.InDelta(t, -1, x, 1e-6)
	assert.InDelta(t, 1, y, 1e-6)
	x, y = apply(800, 600)
	assert.InDelta(t, 1, x, 1e-6)
	assert.InDelta(t, -1, y, 1e-6)
}
