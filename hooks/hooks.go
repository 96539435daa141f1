// Package hooks wires the pieces together: a Backend names the functions to
// patch, Install patches them, and the detours hand every frame to OnPresent,
// which renders the overlay through a lazily built pipeline.
//
// Detours are plain native callbacks without a closure environment, so the
// installed state lives in one process wide context reached only through the
// functions of this package.
package hooks

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/brahma-adshonor/overhook/hook"
	"github.com/brahma-adshonor/overhook/pipeline"
	"github.com/brahma-adshonor/overhook/render"
)

var (
	ErrAlreadyInstalled = errors.New("hooks already installed")
	ErrNotInstalled     = errors.New("hooks not installed")
	ErrTeardownTimeout  = errors.New("timed out waiting for detours to return")
	ErrNoBindings       = errors.New("backend produced no bindings")
)

// Binding pairs a located function with the detour replacing it.
type Binding struct {
	Name   string
	Target uintptr
	Detour uintptr
}

// Backend locates the functions of one graphics API.
type Backend interface {
	Name() string
	Bindings() ([]Binding, error)
}

// HookSet is the installed hooks by binding name.
type HookSet struct {
	names []string
	hooks map[string]*hook.Hook
}

func newHookSet() *HookSet {
	return &HookSet{hooks: make(map[string]*hook.Hook)}
}

func (s *HookSet) add(name string, h *hook.Hook) {
	s.names = append(s.names, name)
	s.hooks[name] = h
}

func (s *HookSet) Get(name string) *hook.Hook { return s.hooks[name] }

// Names returns the binding names in installation order.
func (s *HookSet) Names() []string { return append([]string(nil), s.names...) }

func (s *HookSet) all() []*hook.Hook {
	out := make([]*hook.Hook, 0, len(s.names))
	for _, n := range s.names {
		out = append(out, s.hooks[n])
	}
	return out
}

// Present is one intercepted present call as seen by a backend's detour.
type Present struct {
	// Window is the window being presented to.
	Window uintptr
	// NewEngine builds the render engine on the first frame.
	NewEngine func() (render.Engine, error)
	// Original calls the trampoline with the detour's arguments.
	Original func() uintptr
}

type context struct {
	opts     options
	log      *slog.Logger
	registry *hook.Registry
	set      *HookSet

	// rendering is true for the duration of one render pass.
	rendering atomic.Bool
	inflight  atomic.Int64

	mu             sync.Mutex
	loop           pipeline.RenderLoop
	pipeline       *pipeline.Pipeline
	closing        bool
	engineFailures int
}

var current atomic.Pointer[context]

// Install locates and patches the backend's functions. Either every hook is
// enabled or none is.
func Install(backend Backend, loop pipeline.RenderLoop, opts ...Option) (*HookSet, error) {
	o := newOptions(opts)
	c := &context{
		opts:     o,
		log:      o.log.With("backend", backend.Name()),
		registry: o.registry,
		loop:     loop,
		set:      newHookSet(),
	}
	if !current.CompareAndSwap(nil, c) {
		return nil, ErrAlreadyInstalled
	}
	if err := c.install(backend); err != nil {
		current.CompareAndSwap(c, nil)
		c.log.Error("install failed", "err", err)
		return nil, err
	}
	c.log.Info("hooks installed", "hooks", c.set.Names())
	return c.set, nil
}

func (c *context) install(backend Backend) (err error) {
	if err := c.registry.Initialize(); err != nil {
		return errors.WithMessage(err, "initialize hook registry")
	}
	defer func() {
		if err != nil {
			_ = c.registry.Unapply(c.set.all()...)
			for _, h := range c.set.all() {
				_ = c.registry.Remove(h)
			}
			_ = c.registry.Uninitialize()
		}
	}()

	bindings, err := backend.Bindings()
	if err != nil {
		return errors.WithMessagef(err, "locate %s targets", backend.Name())
	}
	if len(bindings) == 0 {
		return ErrNoBindings
	}
	for _, b := range bindings {
		h, err := c.registry.Create(b.Target, b.Detour)
		if err != nil {
			return errors.WithMessagef(err, "hook %s", b.Name)
		}
		c.set.add(b.Name, h)
		c.log.Debug("hook created", "name", b.Name, "target", b.Target, "trampoline", h.Trampoline())
	}
	return c.registry.Apply(c.set.all()...)
}

// Uninstall disables the hooks, gives the window its procedure back, waits
// for running detours, then frees everything. On ErrTeardownTimeout nothing
// has been freed and Uninstall may be called again.
func Uninstall() error {
	c := current.Load()
	if c == nil {
		return ErrNotInstalled
	}
	c.mu.Lock()
	c.closing = true
	pl := c.pipeline
	c.mu.Unlock()

	first := c.registry.Unapply(c.set.all()...)
	if pl != nil {
		if err := pl.RestoreWindowProc(); err != nil && first == nil {
			first = err
		}
	}

	if !c.waitIdle() {
		c.log.Warn("teardown timed out", "inflight", c.inflight.Load(), "rendering", c.rendering.Load())
		return ErrTeardownTimeout
	}

	if pl != nil {
		if err := pl.Close(); err != nil && first == nil {
			first = err
		}
	}
	for _, h := range c.set.all() {
		if err := c.registry.Remove(h); err != nil && first == nil {
			first = err
		}
	}
	if err := c.registry.Uninitialize(); err != nil && first == nil {
		first = err
	}

	c.mu.Lock()
	c.pipeline, c.loop = nil, nil
	c.mu.Unlock()
	current.CompareAndSwap(c, nil)
	c.log.Info("hooks uninstalled", "err", first)
	return first
}

func (c *context) idle() bool {
	return !c.rendering.Load() && c.inflight.Load() == 0
}

func (c *context) waitIdle() bool {
	for i := 0; i < c.opts.retries; i++ {
		if c.idle() {
			return true
		}
		time.Sleep(c.opts.interval)
	}
	return c.idle()
}

// Installed reports whether Install succeeded and Uninstall has not finished.
func Installed() bool { return current.Load() != nil }

// Hook returns the installed hook for a binding name.
func Hook(name string) *hook.Hook {
	c := current.Load()
	if c == nil {
		return nil
	}
	return c.set.Get(name)
}

// Call runs the original function of a binding. It returns 0 when the
// binding is not installed.
func Call(name string, args ...uintptr) uintptr {
	h := Hook(name)
	if h == nil {
		return 0
	}
	ret, err := h.Call(args...)
	if err != nil {
		return 0
	}
	return ret
}

// Pipeline returns the pipeline built by the first frame, if any.
func Pipeline() *pipeline.Pipeline {
	c := current.Load()
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pipeline
}

// Track counts a detour as running until the returned function is called.
// Uninstall waits for the count to drop to zero.
func Track() func() {
	c := current.Load()
	if c == nil {
		return func() {}
	}
	c.inflight.Add(1)
	return func() { c.inflight.Add(-1) }
}

// OnPresent is the body of every present detour. A nested call made while
// the overlay renders goes straight to the original function.
func OnPresent(p Present) uintptr {
	c := current.Load()
	if c == nil {
		return p.Original()
	}
	c.inflight.Add(1)
	defer c.inflight.Add(-1)

	if c.rendering.CompareAndSwap(false, true) {
		c.render(p)
		c.rendering.Store(false)
	}
	return p.Original()
}

func (c *context) render(p Present) {
	pl := c.pipelineFor(p)
	if pl == nil {
		return
	}
	if err := pl.Render(); err != nil {
		c.log.Debug("frame skipped", "err", err)
	}
}

func (c *context) pipelineFor(p Present) *pipeline.Pipeline {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closing {
		return nil
	}
	if c.pipeline != nil {
		if c.pipeline.Window() != p.Window {
			return nil
		}
		return c.pipeline
	}
	if p.Window == 0 || p.NewEngine == nil {
		return nil
	}

	engine, err := p.NewEngine()
	if err == nil {
		var pl *pipeline.Pipeline
		if pl, err = pipeline.New(p.Window, engine, c.loop, c.opts.pipeline...); err == nil {
			c.pipeline = pl
			c.log.Info("pipeline attached", "hwnd", p.Window)
			return pl
		}
		_ = engine.Close()
	}

	c.engineFailures++
	if c.engineFailures == 1 {
		c.log.Warn("render engine unavailable, overlay disabled for this frame", "err", err)
	} else {
		c.log.Debug("render engine unavailable", "err", err, "failures", c.engineFailures)
	}
	return nil
}

// OnResize is the body of resize detours: size dependent resources are
// dropped before the host resizes its buffers.
func OnResize(w, h uint32, original func() uintptr) uintptr {
	defer Track()()
	if pl := Pipeline(); pl != nil {
		if err := pl.Resize(w, h); err != nil {
			if c := current.Load(); c != nil {
				c.log.Debug("resize failed", "err", err)
			}
		}
	}
	return original()
}
