package hook

import (
	"sync"

	"github.com/pkg/errors"
)

// Registry is the table of installed hooks. All code patching goes through it.
type Registry struct {
	mu sync.Mutex

	mem    Memory
	caller Caller
	bounds Bounds
	arch   Arch

	initialized bool
	hooks       []*Hook
}

type Option func(*Registry)

func WithMemory(m Memory) Option {
	return func(r *Registry) { r.mem = m }
}

func WithCaller(c Caller) Option {
	return func(r *Registry) { r.caller = c }
}

// WithBounds lets Create reject functions known to be shorter than the patch.
func WithBounds(b Bounds) Option {
	return func(r *Registry) { r.bounds = b }
}

func WithArch(a Arch) Option {
	return func(r *Registry) { r.arch = a }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{arch: nativeArch()}
	for _, opt := range opts {
		opt(r)
	}
	if r.mem == nil {
		r.mem = NativeMemory()
	}
	if r.caller == nil {
		r.caller = defaultCaller()
	}
	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process wide registry patching the running process.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry(WithBounds(defaultBounds()))
	})
	return defaultRegistry
}

func (r *Registry) Initialize() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initialized {
		return ErrAlreadyInitialized
	}
	r.initialized = true
	return nil
}

func (r *Registry) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized
}

// Uninitialize disables and frees every hook still in the registry. It keeps
// going past failures and returns the first one.
func (r *Registry) Uninitialize() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		return ErrNotInitialized
	}
	first := r.setEnabled(r.hooks, false)
	for _, h := range r.hooks {
		if err := r.release(h); err != nil && first == nil {
			first = err
		}
	}
	r.hooks = nil
	r.initialized = false
	return first
}

// Hooks returns the installed hooks in creation order.
func (r *Registry) Hooks() []*Hook {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Hook(nil), r.hooks...)
}

func (r *Registry) find(target uintptr) *Hook {
	for _, h := range r.hooks {
		if h.target == target {
			return h
		}
	}
	return nil
}

// Create builds a disabled hook redirecting target to detour.
func (r *Registry) Create(target, detour uintptr) (*Hook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		return nil, ErrNotInitialized
	}
	if r.find(target) != nil {
		return nil, errors.WithMessagef(ErrAlreadyHooked, "target %#x", target)
	}
	h, err := r.build(target, detour)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to hook %#x", target)
	}
	r.hooks = append(r.hooks, h)
	return h, nil
}

func (r *Registry) allocNear(target uintptr, size int) (uintptr, error) {
	p, err := r.mem.AllocNear(target, size)
	if errors.Is(err, ErrNoNearMemory) {
		return r.mem.Alloc(size)
	}
	return p, err
}

func (r *Registry) build(target, detour uintptr) (*Hook, error) {
	h := &Hook{target: target, detour: detour, registry: r}
	built := false
	defer func() {
		if !built && h.relay != 0 {
			_ = r.mem.Free(h.relay)
		}
	}()

	patch, ok := r.arch.nearJump(target, detour)
	if !ok {
		relay, err := r.mem.AllocNear(target, r.arch.FarJumpSize())
		switch {
		case err == nil:
			h.relay = relay
			if err = r.mem.Write(relay, r.arch.farJump(detour)); err != nil {
				return nil, errors.WithMessage(err, "write relay")
			}
			patch, _ = r.arch.nearJump(target, relay)
		case errors.Is(err, ErrNoNearMemory):
			patch = r.arch.farJump(detour)
		default:
			return nil, errors.WithMessage(err, "allocate relay")
		}
	}

	if r.bounds != nil {
		if size, err := r.bounds.FuncSize(target); err == nil && int(size) < len(patch) {
			return nil, errors.WithMessagef(ErrFunctionTooShort, "%d byte function", size)
		}
	}

	code, err := r.mem.Read(target, len(patch)+maxInstLen)
	if err != nil {
		return nil, errors.WithMessage(err, "read prologue")
	}
	pro, err := analyze(r.arch.Mode, code, len(patch))
	if err != nil {
		return nil, err
	}

	tramp, err := r.allocNear(target, pro.Len()+r.arch.FarJumpSize())
	if err != nil {
		return nil, errors.WithMessage(err, "allocate trampoline")
	}
	body, err := pro.relocate(target, tramp)
	if err == nil {
		back := r.arch.jump(tramp+uintptr(len(body)), target+uintptr(pro.Len()))
		err = r.mem.Write(tramp, append(body, back...))
	}
	if err != nil {
		_ = r.mem.Free(tramp)
		return nil, err
	}

	h.original = pro.code
	h.patch = pad(patch, pro.Len())
	h.trampoline.Store(tramp)
	built = true
	return h, nil
}

// Apply enables every hook in the batch while the other threads are frozen.
// Each hook is attempted; the first failure is returned.
func (r *Registry) Apply(hooks ...*Hook) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		return ErrNotInitialized
	}
	return r.setEnabled(hooks, true)
}

// Unapply disables every hook in the batch, continuing past failures.
func (r *Registry) Unapply(hooks ...*Hook) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		return ErrNotInitialized
	}
	return r.setEnabled(hooks, false)
}

func (r *Registry) setEnabled(hooks []*Hook, enable bool) error {
	// Everything that can fail or allocate is settled before the freeze.
	var first error
	pending := make([]*Hook, 0, len(hooks))
	for _, h := range hooks {
		if err := r.check(h); err != nil {
			if first == nil {
				first = err
			}
			continue
		}
		if h.enabled != enable {
			pending = append(pending, h)
		}
	}
	if len(pending) == 0 {
		return first
	}
	failed := make([]error, len(pending))

	thaw, err := r.mem.Freeze()
	if err != nil {
		return errors.WithMessage(err, "freeze threads")
	}
	for i, h := range pending {
		data := h.original
		if enable {
			data = h.patch
		}
		if failed[i] = r.mem.Write(h.target, data); failed[i] == nil {
			h.enabled = enable
		}
	}
	thaw()

	for i, err := range failed {
		if err != nil && first == nil {
			first = errors.WithMessagef(err, "failed to patch %#x", pending[i].target)
		}
	}
	return first
}

func (r *Registry) check(h *Hook) error {
	if h == nil || h.registry != r {
		return ErrNotFound
	}
	if h.removed {
		return errors.WithMessagef(ErrHookRemoved, "target %#x", h.target)
	}
	return nil
}

// Remove disables the hook and frees its trampoline.
func (r *Registry) Remove(h *Hook) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		return ErrNotInitialized
	}
	if err := r.setEnabled([]*Hook{h}, false); err != nil {
		return err
	}
	for i, x := range r.hooks {
		if x == h {
			r.hooks = append(r.hooks[:i], r.hooks[i+1:]...)
			break
		}
	}
	return r.release(h)
}

func (r *Registry) release(h *Hook) error {
	if h.removed {
		return nil
	}
	h.removed = true
	var first error
	if tramp := h.trampoline.Swap(0); tramp != 0 {
		first = r.mem.Free(tramp)
	}
	if h.relay != 0 {
		if err := r.mem.Free(h.relay); err != nil && first == nil {
			first = err
		}
		h.relay = 0
	}
	return errors.WithMessagef(first, "release %#x", h.target)
}
