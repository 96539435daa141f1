// Package pipeline connects a host window to a render engine. The host's
// window procedure is replaced by WndProc, which only queues messages; the
// render thread drains the queue, feeds the ui toolkit and draws the frame.
package pipeline

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/brahma-adshonor/overhook/render"
	"github.com/brahma-adshonor/overhook/ui"
)

var (
	ErrNoWindowSystem  = errors.New("no window system on this platform")
	ErrAlreadyAttached = errors.New("window already attached")
	ErrDetached        = errors.New("pipeline detached")
)

type State int32

const (
	Uninitialized State = iota
	Attached
	Rendering
	Detached
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Attached:
		return "attached"
	case Rendering:
		return "rendering"
	case Detached:
		return "detached"
	}
	return "unknown"
}

// Pipeline owns the ui context and the render engine of one host window.
type Pipeline struct {
	hwnd  uintptr
	opts  options
	log   *slog.Logger
	state atomic.Int32

	shared *shared
	queue  <-chan Message

	// mu is the engine lock. The window procedure only ever tries it.
	mu     sync.Mutex
	ctx    *ui.Context
	engine render.Engine
	loop   RenderLoop
	closed bool
}

// New attaches to hwnd: it sizes the display from the client area, replaces
// the window procedure, initializes the loop and uploads the fonts. On
// failure the window is left as it was.
func New(hwnd uintptr, engine render.Engine, loop RenderLoop, opts ...Option) (*Pipeline, error) {
	o := newOptions(opts)
	if o.ws == nil {
		return nil, ErrNoWindowSystem
	}

	ctx, err := ui.NewContext(o.fonts)
	if err != nil {
		return nil, errors.WithMessage(err, "create ui context")
	}
	w, h, err := o.ws.ClientSize(hwnd)
	if err != nil {
		return nil, errors.WithMessagef(err, "client size of %#x", hwnd)
	}
	ctx.IO().DisplaySize = ui.Vec2{X: float32(w), Y: float32(h)}

	queue := make(chan Message, o.queueSize)
	p := &Pipeline{
		hwnd:   hwnd,
		opts:   o,
		log:    o.log.With("hwnd", hwnd),
		queue:  queue,
		ctx:    ctx,
		engine: engine,
		loop:   loop,
	}
	p.shared = &shared{ws: o.ws, queue: queue, engine: &p.mu, log: p.log}
	if obs, ok := loop.(WndProcObserver); ok {
		p.shared.observer = obs
	}

	if _, loaded := attached.LoadOrStore(hwnd, p.shared); loaded {
		return nil, errors.WithMessagef(ErrAlreadyAttached, "%#x", hwnd)
	}
	prev, err := o.ws.SetWindowProc(hwnd, o.ws.WndProcCallback())
	if err != nil {
		attached.Delete(hwnd)
		return nil, errors.WithMessage(err, "replace window procedure")
	}
	p.shared.origProc.Store(prev)
	restored.Delete(hwnd)
	p.state.Store(int32(Attached))

	if init, ok := loop.(Initializer); ok {
		init.Initialize(ctx, engine)
	}
	if err := engine.SetupFonts(ctx.Fonts); err != nil {
		_ = p.RestoreWindowProc()
		return nil, errors.WithMessage(err, "setup fonts")
	}
	p.log.Debug("pipeline attached", "width", w, "height", h)
	return p, nil
}

func (p *Pipeline) Window() uintptr { return p.hwnd }

func (p *Pipeline) State() State { return State(p.state.Load()) }

// Context returns the ui context. It is only safe to use from the render
// thread.
func (p *Pipeline) Context() *ui.Context { return p.ctx }

// Dropped counts messages lost to a full queue.
func (p *Pipeline) Dropped() uint64 { return p.shared.dropped.Load() }

// Render runs one cycle: replay the queued messages in order, publish the
// message filter, then build and draw the frame.
func (p *Pipeline) Render() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrDetached
	}
	if !p.state.CompareAndSwap(int32(Attached), int32(Rendering)) {
		return ErrDetached
	}
	defer p.state.CompareAndSwap(int32(Rendering), int32(Attached))

	io := p.ctx.IO()
	p.drain(io)
	p.shared.filter.Store(uint32(p.messageFilter(io)))

	if br, ok := p.loop.(BeforeRenderer); ok {
		br.BeforeRender(p.engine)
	}
	u := p.ctx.NewFrame(p.opts.clock())
	p.loop.Render(u)
	if err := p.engine.Render(p.ctx.Render()); err != nil {
		return errors.WithMessage(err, "render frame")
	}
	return nil
}

func (p *Pipeline) drain(io *ui.IO) {
	for {
		select {
		case m := <-p.queue:
			replay(io, m)
		default:
			return
		}
	}
}

func (p *Pipeline) messageFilter(io *ui.IO) MessageFilter {
	if mf, ok := p.loop.(MessageFilterer); ok {
		return mf.MessageFilter(io)
	}
	return DefaultFilter(io)
}

// Filter returns the filter published by the last cycle.
func (p *Pipeline) Filter() MessageFilter {
	return MessageFilter(p.shared.filter.Load())
}

// Resize resizes the engine. It may be called from any thread.
func (p *Pipeline) Resize(w, h uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrDetached
	}
	return p.engine.Resize(w, h)
}

// RestoreWindowProc puts the host's window procedure back and forgets the
// window. It does not wait for a running cycle and may be called from any
// thread.
func (p *Pipeline) RestoreWindowProc() error {
	if State(p.state.Swap(int32(Detached))) == Detached {
		return nil
	}
	var err error
	if orig := p.shared.origProc.Load(); orig != 0 {
		if _, err = p.opts.ws.SetWindowProc(p.hwnd, orig); err != nil {
			err = errors.WithMessage(err, "restore window procedure")
		}
	}
	restored.Store(p.hwnd, &hostProc{ws: p.opts.ws, proc: p.shared.origProc.Load()})
	attached.CompareAndDelete(p.hwnd, p.shared)
	p.log.Debug("window procedure restored")
	return err
}

// Close releases the engine. The window procedure is restored first if it
// still points at WndProc.
func (p *Pipeline) Close() error {
	first := p.RestoreWindowProc()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return first
	}
	p.closed = true
	if err := p.engine.Close(); err != nil && first == nil {
		first = errors.WithMessage(err, "close engine")
	}
	return first
}

// Detach restores the window procedure, then closes the engine.
func (p *Pipeline) Detach() error {
	first := p.RestoreWindowProc()
	if err := p.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
