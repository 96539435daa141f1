package pipeline_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brahma-adshonor/overhook/pipeline"
	"github.com/brahma-adshonor/overhook/pipeline/pipelinetest"
	"github.com/brahma-adshonor/overhook/render"
	"github.com/brahma-adshonor/overhook/ui"
)

const hostProc uintptr = 0x4000

var lastHwnd atomic.Uintptr

func nextHwnd() uintptr { return 0x10000 + lastHwnd.Add(0x10) }

type snapshot struct {
	DisplaySize ui.Vec2
	MousePos    ui.Vec2
	LeftDown    bool
	Chars       string
}

type recordingLoop struct {
	mu       sync.Mutex
	inits    []*ui.Context
	before   int
	frames   []snapshot
	wndprocs []uint32
	draw     func(u *ui.Ui)
}

func (l *recordingLoop) Initialize(ctx *ui.Context, _ render.Engine) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inits = append(l.inits, ctx)
}

func (l *recordingLoop) BeforeRender(render.Engine) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.before++
}

func (l *recordingLoop) Render(u *ui.Ui) {
	io := u.IO()
	l.mu.Lock()
	l.frames = append(l.frames, snapshot{
		DisplaySize: io.DisplaySize,
		MousePos:    io.MousePos,
		LeftDown:    io.MouseDown[0],
		Chars:       string(io.InputCharacters()),
	})
	draw := l.draw
	l.mu.Unlock()
	if draw != nil {
		draw(u)
	}
}

func (l *recordingLoop) OnWndProc(_ uintptr, msg uint32, _, _ uintptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.wndprocs = append(l.wndprocs, msg)
}

func (l *recordingLoop) last() snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames[len(l.frames)-1]
}

type filterLoop struct {
	recordingLoop
	filter pipeline.MessageFilter
}

func (l *filterLoop) MessageFilter(*ui.IO) pipeline.MessageFilter { return l.filter }

type harness struct {
	hwnd   uintptr
	p      *pipeline.Pipeline
	ws     *pipelinetest.Windows
	engine *pipelinetest.Engine
}

func attach(t *testing.T, loop pipeline.RenderLoop, opts ...pipeline.Option) *harness {
	t.Helper()
	h := &harness{hwnd: nextHwnd(), ws: pipelinetest.NewWindows(640, 480)}
	h.engine = &pipelinetest.Engine{Log: h.ws}
	h.ws.CreateWindow(h.hwnd, hostProc)

	clock := time.Unix(1000, 0)
	opts = append([]pipeline.Option{
		pipeline.WithWindowSystem(h.ws),
		pipeline.WithClock(func() time.Time {
			clock = clock.Add(16 * time.Millisecond)
			return clock
		}),
	}, opts...)
	p, err := pipeline.New(h.hwnd, h.engine, loop, opts...)
	require.NoError(t, err)
	h.p = p
	t.Cleanup(func() { _ = p.Detach() })
	return h
}

func (h *harness) send(msg uint32, wparam, lparam uintptr) uintptr {
	return h.ws.Send(h.hwnd, msg, wparam, lparam)
}

func TestNewAttaches(t *testing.T) {
	loop := &recordingLoop{}
	h := attach(t, loop)

	assert.Equal(t, pipeline.Attached, h.p.State())
	assert.Equal(t, pipelinetest.Callback, h.ws.Proc(h.hwnd))
	assert.True(t, h.engine.FontsLoaded)
	require.Len(t, loop.inits, 1)
	assert.Same(t, h.p.Context(), loop.inits[0])
	assert.Equal(t, ui.Vec2{X: 640, Y: 480}, h.p.Context().IO().DisplaySize)
	assert.Equal(t, ui.TextureID(1), h.p.Context().Fonts.TexID)
}

func TestMessagesReplayInOrderBeforeFrame(t *testing.T) {
	loop := &recordingLoop{}
	h := attach(t, loop)

	sent := []pipeline.Message{
		{ID: pipeline.WM_SIZE, LParam: pipelinetest.MakeLParam(320, 200)},
		{ID: pipeline.WM_SIZE, LParam: pipelinetest.MakeLParam(800, 600)},
		{ID: pipeline.WM_MOUSEMOVE, LParam: pipelinetest.MakeLParam(10, 20)},
		{ID: pipeline.WM_LBUTTONDOWN},
		{ID: pipeline.WM_CHAR, WParam: 'h'},
		{ID: pipeline.WM_CHAR, WParam: 'i'},
	}
	var ids []uint32
	for _, m := range sent {
		assert.Equal(t, uintptr(1), h.send(m.ID, m.WParam, m.LParam))
		ids = append(ids, m.ID)
	}
	assert.Equal(t, ids, loop.wndprocs)
	assert.Len(t, h.ws.Original(), len(sent))

	require.NoError(t, h.p.Render())
	assert.Equal(t, snapshot{
		DisplaySize: ui.Vec2{X: 800, Y: 600},
		MousePos:    ui.Vec2{X: 10, Y: 20},
		LeftDown:    true,
		Chars:       "hi",
	}, loop.last())
	assert.Equal(t, ui.Vec2{X: 800, Y: 600}, h.engine.LastDisplaySize())
	assert.Equal(t, 1, loop.before)

	require.NoError(t, h.p.Render())
	assert.Empty(t, loop.last().Chars, "messages are applied once")
	assert.Equal(t, 2, h.engine.Frames)
}

func TestFilterDecidesWhoAnswers(t *testing.T) {
	loop := &filterLoop{filter: pipeline.InputMouse | pipeline.WindowClose}
	h := attach(t, loop)

	assert.Equal(t, uintptr(1), h.send(pipeline.WM_MOUSEMOVE, 0, 0), "no filter before the first frame")
	require.NoError(t, h.p.Render())
	assert.Equal(t, pipeline.InputMouse|pipeline.WindowClose, h.p.Filter())

	assert.Equal(t, uintptr(2), h.send(pipeline.WM_MOUSEMOVE, 0, 0))
	assert.Equal(t, uintptr(1), h.send(pipeline.WM_KEYDOWN, 0x41, 0))
	assert.Equal(t, uintptr(2), h.send(pipeline.WM_CLOSE, 0, 0))
	assert.Equal(t, uintptr(1), h.send(pipeline.WM_SIZE, 0, 0))
	assert.Len(t, h.ws.Default(), 2)
}

func TestDefaultFilterFollowsWantCapture(t *testing.T) {
	loop := &recordingLoop{draw: func(u *ui.Ui) {
		u.Window("overlay", ui.Vec2{}, ui.Vec2{X: 100, Y: 100}, nil)
	}}
	h := attach(t, loop)

	require.NoError(t, h.p.Render())
	h.send(pipeline.WM_MOUSEMOVE, 0, pipelinetest.MakeLParam(50, 50))
	require.NoError(t, h.p.Render())
	require.NoError(t, h.p.Render())
	assert.Equal(t, pipeline.InputMouse, h.p.Filter())
	assert.Equal(t, uintptr(2), h.send(pipeline.WM_LBUTTONDOWN, 0, pipelinetest.MakeLParam(50, 50)))
	assert.Equal(t, uintptr(1), h.send(pipeline.WM_KEYDOWN, 0x41, 0))
}

// blockNextFrame makes the next Render hold the engine lock until the
// returned release is called. entered is closed once the frame is held.
func blockNextFrame(loop *recordingLoop) (entered chan struct{}, release func()) {
	entered = make(chan struct{})
	gate := make(chan struct{})
	loop.mu.Lock()
	loop.draw = func(*ui.Ui) {
		close(entered)
		<-gate
	}
	loop.mu.Unlock()
	return entered, func() { close(gate) }
}

func TestWndProcNeverWaitsForRender(t *testing.T) {
	loop := &filterLoop{filter: pipeline.InputMouse}
	h := attach(t, loop)
	require.NoError(t, h.p.Render())

	entered, release := blockNextFrame(&loop.recordingLoop)
	done := make(chan error)
	go func() { done <- h.p.Render() }()
	<-entered

	assert.Equal(t, pipeline.Rendering, h.p.State())
	assert.Equal(t, uintptr(1), h.send(pipeline.WM_MOUSEMOVE, 0, 0), "busy engine falls back to the host")
	release()
	require.NoError(t, <-done)

	loop.mu.Lock()
	loop.draw = nil
	loop.mu.Unlock()
	assert.Equal(t, pipeline.Attached, h.p.State())
	assert.Equal(t, uintptr(2), h.send(pipeline.WM_MOUSEMOVE, 0, 0))
}

func TestFullQueueIsCounted(t *testing.T) {
	loop := &recordingLoop{}
	h := attach(t, loop, pipeline.WithQueueSize(2))

	for _, c := range "abcde" {
		assert.Equal(t, uintptr(1), h.send(pipeline.WM_CHAR, uintptr(c), 0))
	}
	assert.Equal(t, uint64(3), h.p.Dropped())
	assert.Len(t, h.ws.Original(), 5)

	require.NoError(t, h.p.Render())
	assert.Equal(t, "ab", loop.last().Chars)
}

func TestDetachRestoresWindowProcBeforeClose(t *testing.T) {
	h := attach(t, &recordingLoop{})
	require.NoError(t, h.p.Render())
	require.NoError(t, h.p.Detach())

	assert.Equal(t, []string{"wndproc 0xc0ffee0", "wndproc 0x4000", "engine close"}, h.ws.Events())
	assert.Equal(t, hostProc, h.ws.Proc(h.hwnd))
	assert.Equal(t, pipeline.Detached, h.p.State())
	assert.True(t, h.engine.Closed)

	assert.ErrorIs(t, h.p.Render(), pipeline.ErrDetached)
	assert.ErrorIs(t, h.p.Resize(1, 1), pipeline.ErrDetached)
	require.NoError(t, h.p.Detach())

	again, err := pipeline.New(h.hwnd, &pipelinetest.Engine{}, &recordingLoop{}, pipeline.WithWindowSystem(h.ws))
	require.NoError(t, err)
	require.NoError(t, again.Detach())
}

func TestStaleWndProcCallReachesHost(t *testing.T) {
	loop := &recordingLoop{}
	h := attach(t, loop)
	require.NoError(t, h.p.RestoreWindowProc())

	// a thread that read the window procedure before the restore
	assert.Equal(t, uintptr(1), pipeline.WndProc(h.hwnd, pipeline.WM_CLOSE, 0, 0))
	require.Len(t, h.ws.Original(), 1)
	assert.Equal(t, uint32(pipeline.WM_CLOSE), h.ws.Original()[0].ID)
	assert.Empty(t, h.ws.Default())
	assert.Empty(t, loop.wndprocs)

	again, err := pipeline.New(h.hwnd, &pipelinetest.Engine{}, loop, pipeline.WithWindowSystem(h.ws))
	require.NoError(t, err)
	h.send(pipeline.WM_CLOSE, 0, 0)
	assert.Len(t, loop.wndprocs, 1)
	require.NoError(t, again.Detach())
}

func TestRestoreDuringRenderDoesNotWait(t *testing.T) {
	loop := &recordingLoop{}
	h := attach(t, loop)

	entered, release := blockNextFrame(loop)
	done := make(chan error)
	go func() { done <- h.p.Render() }()
	<-entered

	require.NoError(t, h.p.RestoreWindowProc())
	assert.Equal(t, hostProc, h.ws.Proc(h.hwnd))
	assert.Equal(t, uintptr(1), h.send(pipeline.WM_MOUSEMOVE, 0, 0))
	assert.False(t, h.engine.Closed)

	release()
	require.NoError(t, <-done)
	assert.Equal(t, pipeline.Detached, h.p.State())
	require.NoError(t, h.p.Close())
	assert.True(t, h.engine.Closed)
}

func TestNewFailureLeavesWindowUntouched(t *testing.T) {
	ws := pipelinetest.NewWindows(640, 480)
	hwnd := nextHwnd()
	ws.CreateWindow(hwnd, hostProc)

	boom := errors.New("texture creation failed")
	_, err := pipeline.New(hwnd, &pipelinetest.Engine{FailFonts: boom}, &recordingLoop{}, pipeline.WithWindowSystem(ws))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, hostProc, ws.Proc(hwnd))

	refused := errors.New("access denied")
	ws.FailSetWindowProc(refused)
	_, err = pipeline.New(hwnd, &pipelinetest.Engine{}, &recordingLoop{}, pipeline.WithWindowSystem(ws))
	assert.ErrorIs(t, err, refused)
	ws.FailSetWindowProc(nil)

	p, err := pipeline.New(hwnd, &pipelinetest.Engine{}, &recordingLoop{}, pipeline.WithWindowSystem(ws))
	require.NoError(t, err)
	_, err = pipeline.New(hwnd, &pipelinetest.Engine{}, &recordingLoop{}, pipeline.WithWindowSystem(ws))
	assert.ErrorIs(t, err, pipeline.ErrAlreadyAttached)
	require.NoError(t, p.Detach())
}

func TestRenderFailureKeepsPipelineAttached(t *testing.T) {
	h := attach(t, &recordingLoop{})
	h.engine.FailRender = render.ErrInsufficientDisplaySize

	err := h.p.Render()
	assert.ErrorIs(t, err, render.ErrInsufficientDisplaySize)
	assert.Equal(t, pipeline.Attached, h.p.State())
}

func TestResizeReachesEngine(t *testing.T) {
	h := attach(t, &recordingLoop{})
	require.NoError(t, h.p.Resize(1024, 768))
	assert.Equal(t, [][2]uint32{{1024, 768}}, h.engine.Resizes)
}
