package pipeline

import (
	"sync"

	"github.com/lxn/win"
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

type win32 struct{}

func defaultWindowSystem() WindowSystem { return win32{} }

// One callback serves every window; the runtime limits how many can exist.
var wndProcCallback = sync.OnceValue(func() uintptr {
	return windows.NewCallback(func(hwnd win.HWND, msg uint32, wparam, lparam uintptr) uintptr {
		return WndProc(uintptr(hwnd), msg, wparam, lparam)
	})
})

func (win32) WndProcCallback() uintptr { return wndProcCallback() }

func (win32) ClientSize(hwnd uintptr) (uint32, uint32, error) {
	var rc win.RECT
	if !win.GetClientRect(win.HWND(hwnd), &rc) {
		err := windows.GetLastError()
		if err == nil {
			err = errors.Errorf("invalid window %#x", hwnd)
		}
		return 0, 0, errors.Wrap(err, "GetClientRect")
	}
	return uint32(rc.Right - rc.Left), uint32(rc.Bottom - rc.Top), nil
}

func (win32) SetWindowProc(hwnd, proc uintptr) (uintptr, error) {
	prev := win.SetWindowLongPtr(win.HWND(hwnd), win.GWLP_WNDPROC, proc)
	if prev == 0 {
		err := windows.GetLastError()
		if err == nil {
			err = errors.New("no previous window procedure")
		}
		return 0, errors.Wrap(err, "SetWindowLongPtrW")
	}
	return prev, nil
}

func (win32) CallWindowProc(proc, hwnd uintptr, msg uint32, wparam, lparam uintptr) uintptr {
	return win.CallWindowProc(proc, win.HWND(hwnd), msg, wparam, lparam)
}

func (win32) DefWindowProc(hwnd uintptr, msg uint32, wparam, lparam uintptr) uintptr {
	return win.DefWindowProc(win.HWND(hwnd), msg, wparam, lparam)
}
