package hook

import "github.com/pkg/errors"

var (
	ErrNotInitialized     = errors.New("hook registry is not initialized")
	ErrAlreadyInitialized = errors.New("hook registry is already initialized")
	ErrAlreadyHooked      = errors.New("target is already hooked")
	ErrNotFound           = errors.New("hook is not owned by this registry")
	ErrHookRemoved        = errors.New("hook has been removed")
	ErrNoCaller           = errors.New("no native caller for this platform")

	// prologue analysis
	ErrFunctionTooShort = errors.New("function is shorter than the jump patch")
	ErrRelativeBranch   = errors.New("relative branch inside the patched region")
	ErrUndecodable      = errors.New("undecodable instruction inside the patched region")
	ErrRelocation       = errors.New("rip-relative operand out of range after relocation")

	// memory
	ErrNoNearMemory = errors.New("no free memory within rel32 range")
	ErrOutOfRange   = errors.New("address out of range")
)
