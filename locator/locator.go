// Package locator finds the addresses of the present entry points of each
// graphics API. It builds a throwaway device on a hidden window, reads the
// dispatch tables and tears everything down before returning, so the
// addresses point into the system modules shared with the host.
package locator

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrUnsupported = errors.New("graphics API not available on this platform")

// CallError names the native call that failed while locating targets.
type CallError struct {
	Call string
	// Code is the HRESULT or Win32 error code, when there is one.
	Code uint32
	Err  error
}

func (e *CallError) Error() string {
	switch {
	case e.Err != nil && e.Code != 0:
		return fmt.Sprintf("%s failed (0x%08X): %v", e.Call, e.Code, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s failed: %v", e.Call, e.Err)
	default:
		return fmt.Sprintf("%s failed (0x%08X)", e.Call, e.Code)
	}
}

func (e *CallError) Unwrap() error { return e.Err }

type DX9Targets struct {
	EndScene uintptr
	Reset    uintptr
	Present  uintptr
}

type DXGITargets struct {
	Present       uintptr
	ResizeBuffers uintptr
}

type DX12Targets struct {
	DXGITargets
	ExecuteCommandLists uintptr
}

type OpenGLTargets struct {
	SwapBuffers uintptr
}
