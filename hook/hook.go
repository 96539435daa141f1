// Package hook patches native functions with a jump to a detour while keeping
// a callable trampoline to the original code.
package hook

import (
	"fmt"
	"sync/atomic"
)

// Hook is one intercepted function. It is created and owned by a Registry.
type Hook struct {
	target uintptr
	detour uintptr

	registry   *Registry
	trampoline atomic.Uintptr
	relay      uintptr // far jump stub near target, when the detour is out of rel32 reach

	original []byte
	patch    []byte
	enabled  bool
	removed  bool
}

func (h *Hook) Target() uintptr { return h.target }
func (h *Hook) Detour() uintptr { return h.detour }

// Trampoline returns the address that runs the original function, or 0 once
// the hook has been removed.
func (h *Hook) Trampoline() uintptr { return h.trampoline.Load() }

// PatchLen is the number of target bytes the patch displaces.
func (h *Hook) PatchLen() int { return len(h.original) }

func (h *Hook) Enabled() bool {
	h.registry.mu.Lock()
	defer h.registry.mu.Unlock()
	return h.enabled
}

// Enable writes the jump to the detour. Enabling an enabled hook does nothing.
func (h *Hook) Enable() error {
	return h.registry.Apply(h)
}

// Disable restores the original bytes. Disabling a disabled hook does nothing.
func (h *Hook) Disable() error {
	return h.registry.Unapply(h)
}

// Call runs the original function through the trampoline.
func (h *Hook) Call(args ...uintptr) (uintptr, error) {
	tramp := h.trampoline.Load()
	if tramp == 0 {
		return 0, ErrHookRemoved
	}
	if h.registry.caller == nil {
		return 0, ErrNoCaller
	}
	return h.registry.caller.Call(tramp, args...), nil
}

func (h *Hook) String() string {
	return fmt.Sprintf("hook %#x -> %#x (trampoline %#x)", h.target, h.detour, h.trampoline.Load())
}
