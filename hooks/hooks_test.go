package hooks_test

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brahma-adshonor/overhook/hook"
	"github.com/brahma-adshonor/overhook/hook/hooktest"
	"github.com/brahma-adshonor/overhook/hooks"
	"github.com/brahma-adshonor/overhook/pipeline"
	"github.com/brahma-adshonor/overhook/pipeline/pipelinetest"
	"github.com/brahma-adshonor/overhook/render"
	"github.com/brahma-adshonor/overhook/ui"
)

const (
	arenaBase         = 0x7ff7_0000_0000
	hostProc  uintptr = 0x4000
	sOK               = 0
)

var nextWindow atomic.Uintptr

// jumpTo is `mov rax, imm64; jmp rax`, a function body that forwards to to.
func jumpTo(to uintptr) []byte {
	code := []byte{0x48, 0xb8, 0, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xe0}
	binary.LittleEndian.PutUint64(code[2:], uint64(to))
	return code
}

type loop struct {
	mu     sync.Mutex
	frames int
	sizes  []ui.Vec2
	during func()
}

func (l *loop) Render(u *ui.Ui) {
	l.mu.Lock()
	l.frames++
	l.sizes = append(l.sizes, u.IO().DisplaySize)
	during := l.during
	l.mu.Unlock()
	u.Window("overlay", ui.Vec2{X: 10, Y: 10}, ui.Vec2{X: 120, Y: 60}, func() { u.Text("hello") })
	if during != nil {
		during()
	}
}

func (l *loop) setDuring(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.during = fn
}

func (l *loop) Frames() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

// harness is a host process with one window and one present function.
type harness struct {
	t        *testing.T
	mem      *hooktest.Arena
	cpu      *hooktest.CPU
	registry *hook.Registry
	ws       *pipelinetest.Windows
	engine   *pipelinetest.Engine
	loop     *loop

	hwnd      uintptr
	present   uintptr
	presented atomic.Int32
	detoured  atomic.Int32
	engineErr error
}

func newHarness(t *testing.T) *harness {
	h := &harness{t: t, loop: &loop{}}
	h.mem = hooktest.NewArena(arenaBase, 0x10000)
	h.cpu = hooktest.NewCPU(h.mem)
	h.registry = hook.NewRegistry(hook.WithMemory(h.mem), hook.WithCaller(h.cpu), hook.WithArch(hook.Arch{Mode: 64}))
	h.hwnd = 0x20000 + nextWindow.Add(0x10)
	h.ws = pipelinetest.NewWindows(640, 480)
	h.ws.CreateWindow(h.hwnd, hostProc)
	h.engine = &pipelinetest.Engine{Log: h.ws}

	original := h.cpu.Native(2, func(...uintptr) uintptr {
		h.presented.Add(1)
		return sOK
	})
	h.present = h.mem.Place(jumpTo(original))
	return h
}

func (h *harness) Name() string { return "harness" }

func (h *harness) Bindings() ([]hooks.Binding, error) {
	detour := h.cpu.Native(2, func(args ...uintptr) uintptr {
		h.detoured.Add(1)
		return hooks.OnPresent(hooks.Present{
			Window: h.hwnd,
			NewEngine: func() (render.Engine, error) {
				if h.engineErr != nil {
					return nil, h.engineErr
				}
				return h.engine, nil
			},
			Original: func() uintptr { return hooks.Call("present", args...) },
		})
	})
	return []hooks.Binding{{Name: "present", Target: h.present, Detour: detour}}, nil
}

func (h *harness) install(opts ...hooks.Option) *hooks.HookSet {
	h.t.Helper()
	opts = append([]hooks.Option{
		hooks.WithRegistry(h.registry),
		hooks.WithPipelineOptions(pipeline.WithWindowSystem(h.ws)),
	}, opts...)
	set, err := hooks.Install(h, h.loop, opts...)
	require.NoError(h.t, err)
	h.t.Cleanup(func() {
		if hooks.Installed() {
			_ = hooks.Uninstall()
		}
	})
	return set
}

// callPresent is the host calling its own present function.
func (h *harness) callPresent() uintptr {
	return h.cpu.Call(h.present, 0x5c, 0)
}

func TestEndToEndResizeAndPresent(t *testing.T) {
	h := newHarness(t)
	set := h.install()
	assert.Equal(t, []string{"present"}, set.Names())
	assert.True(t, set.Get("present").Enabled())

	assert.Equal(t, uintptr(sOK), h.callPresent())
	pl := hooks.Pipeline()
	require.NotNil(t, pl)
	assert.Equal(t, pipeline.Attached, pl.State())

	h.ws.Send(h.hwnd, pipeline.WM_SIZE, 0, pipelinetest.MakeLParam(800, 600))
	assert.Equal(t, uintptr(sOK), h.callPresent())

	assert.Equal(t, ui.Vec2{X: 800, Y: 600}, pl.Context().IO().DisplaySize)
	assert.Equal(t, ui.Vec2{X: 800, Y: 600}, h.engine.LastDisplaySize())
	assert.Equal(t, int32(2), h.detoured.Load())
	assert.Equal(t, int32(2), h.presented.Load(), "original present runs once per call")
	assert.Equal(t, 2, h.loop.Frames())

	require.NoError(t, hooks.Uninstall())
	assert.False(t, hooks.Installed())
	assert.Equal(t, jumpTo(0)[:2], h.mem.Bytes(h.present, 2))
	assert.Equal(t, hostProc, h.ws.Proc(h.hwnd))
	assert.True(t, h.engine.Closed)
	assert.Equal(t, 0, h.mem.Live())

	assert.Equal(t, uintptr(sOK), h.callPresent())
	assert.Equal(t, int32(2), h.detoured.Load())
	assert.Equal(t, int32(3), h.presented.Load())
}

func TestNestedPresentOnlyCallsOriginal(t *testing.T) {
	h := newHarness(t)
	h.install()

	nested := 0
	h.loop.setDuring(func() {
		nested++
		assert.Equal(t, uintptr(sOK), h.callPresent())
	})
	h.callPresent()

	assert.Equal(t, 1, nested)
	assert.Equal(t, 1, h.loop.Frames(), "the nested call does not render")
	assert.Equal(t, int32(2), h.detoured.Load())
	assert.Equal(t, int32(2), h.presented.Load())
}

func TestEngineFailureKeepsPresentWorking(t *testing.T) {
	h := newHarness(t)
	h.engineErr = errors.New("no device")
	h.install()

	assert.Equal(t, uintptr(sOK), h.callPresent())
	assert.Equal(t, uintptr(sOK), h.callPresent())
	assert.Nil(t, hooks.Pipeline())
	assert.Equal(t, hostProc, h.ws.Proc(h.hwnd), "window untouched")
	assert.Equal(t, int32(2), h.presented.Load())
	assert.Zero(t, h.loop.Frames())

	h.engineErr = nil
	h.callPresent()
	assert.NotNil(t, hooks.Pipeline())
	assert.Equal(t, 1, h.loop.Frames())
}

// holdFrame starts a present on another goroutine and blocks it inside the
// render loop until release is called.
func holdFrame(h *harness) (release func(), done chan struct{}) {
	entered := make(chan struct{})
	gate := make(chan struct{})
	h.loop.setDuring(func() {
		h.loop.setDuring(nil)
		close(entered)
		<-gate
	})
	done = make(chan struct{})
	go func() {
		defer close(done)
		h.callPresent()
	}()
	<-entered
	return func() { close(gate) }, done
}

func TestUninstallWaitsForRunningFrame(t *testing.T) {
	h := newHarness(t)
	h.install(hooks.WithTeardown(500, time.Millisecond))
	h.callPresent()

	release, done := holdFrame(h)
	uninstalled := make(chan error)
	go func() { uninstalled <- hooks.Uninstall() }()

	require.Eventually(t, func() bool { return h.ws.Proc(h.hwnd) == hostProc }, time.Second, time.Millisecond)
	select {
	case err := <-uninstalled:
		t.Fatalf("uninstall returned during a frame: %v", err)
	case <-time.After(20 * time.Millisecond):
	}
	assert.False(t, h.engine.Closed)

	release()
	<-done
	require.NoError(t, <-uninstalled)

	events := h.ws.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "wndproc 0x4000", events[1])
	assert.Equal(t, "engine close", events[2])
	assert.Equal(t, int32(2), h.presented.Load())
	assert.Equal(t, 0, h.mem.Live())
}

func TestUninstallTimeoutFreesNothing(t *testing.T) {
	h := newHarness(t)
	h.install(hooks.WithTeardown(3, time.Millisecond))
	h.callPresent()

	release, done := holdFrame(h)
	assert.ErrorIs(t, hooks.Uninstall(), hooks.ErrTeardownTimeout)
	assert.True(t, hooks.Installed())
	assert.False(t, h.engine.Closed)
	assert.Equal(t, 2, h.mem.Live(), "trampoline and relay kept for the running detour")
	assert.Equal(t, hostProc, h.ws.Proc(h.hwnd))

	release()
	<-done
	require.NoError(t, hooks.Uninstall())
	assert.True(t, h.engine.Closed)
	assert.Equal(t, 0, h.mem.Live())
}

type badBackend struct {
	bindings []hooks.Binding
	err      error
}

func (b badBackend) Name() string                       { return "bad" }
func (b badBackend) Bindings() ([]hooks.Binding, error) { return b.bindings, b.err }

func TestInstallFailureTouchesNothing(t *testing.T) {
	h := newHarness(t)
	detour := h.mem.Place([]byte{0x31, 0xc0, 0xc3})
	short := h.mem.Place([]byte{0xc3})
	before := h.mem.Bytes(h.present, 12)

	_, err := hooks.Install(badBackend{bindings: []hooks.Binding{
		{Name: "present", Target: h.present, Detour: detour},
		{Name: "resize", Target: short, Detour: detour},
	}}, h.loop, hooks.WithRegistry(h.registry))
	assert.ErrorIs(t, err, hook.ErrFunctionTooShort)
	assert.False(t, hooks.Installed())
	assert.False(t, h.registry.Initialized())
	assert.Equal(t, before, h.mem.Bytes(h.present, 12))
	assert.Equal(t, 0, h.mem.Live())

	located := errors.New("CreateDXGIFactory failed")
	_, err = hooks.Install(badBackend{err: located}, h.loop, hooks.WithRegistry(h.registry))
	assert.ErrorIs(t, err, located)

	_, err = hooks.Install(badBackend{}, h.loop, hooks.WithRegistry(h.registry))
	assert.ErrorIs(t, err, hooks.ErrNoBindings)
	assert.False(t, hooks.Installed())
}

func TestInstallTwiceAndUninstallWithoutInstall(t *testing.T) {
	assert.ErrorIs(t, hooks.Uninstall(), hooks.ErrNotInstalled)

	h := newHarness(t)
	h.install()
	_, err := hooks.Install(h, h.loop, hooks.WithRegistry(h.registry))
	assert.ErrorIs(t, err, hooks.ErrAlreadyInstalled)
}

func TestOnResizeReachesEngine(t *testing.T) {
	h := newHarness(t)
	h.install()
	called := 0
	original := func() uintptr { called++; return sOK }

	hooks.OnResize(100, 100, original)
	assert.Empty(t, h.engine.Resizes, "no pipeline yet")

	h.callPresent()
	hooks.OnResize(1024, 768, original)
	assert.Equal(t, [][2]uint32{{1024, 768}}, h.engine.Resizes)
	assert.Equal(t, 2, called)
}
