package locator

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

var (
	procDefWindowProcW = windows.NewLazySystemDLL("user32.dll").NewProc("DefWindowProcW")
	classSerial        atomic.Uint32
)

// dummyWindow is a hidden window owning nothing but its class.
type dummyWindow struct {
	hwnd  win.HWND
	class *uint16
}

func newDummyWindow() (*dummyWindow, error) {
	name := fmt.Sprintf("overhook-locator-%d-%d", windows.GetCurrentProcessId(), classSerial.Add(1))
	class, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, err
	}
	inst := win.GetModuleHandle(nil)
	wc := win.WNDCLASSEX{
		Style:         win.CS_HREDRAW | win.CS_VREDRAW,
		LpfnWndProc:   procDefWindowProcW.Addr(),
		HInstance:     inst,
		LpszClassName: class,
	}
	wc.CbSize = uint32(unsafe.Sizeof(wc))
	if win.RegisterClassEx(&wc) == 0 {
		return nil, lastError("RegisterClassExW")
	}
	hwnd := win.CreateWindowEx(0, class, class, win.WS_OVERLAPPEDWINDOW,
		0, 0, 100, 100, 0, 0, inst, nil)
	if hwnd == 0 {
		err := lastError("CreateWindowExW")
		win.UnregisterClass(class)
		return nil, err
	}
	return &dummyWindow{hwnd: hwnd, class: class}, nil
}

func (w *dummyWindow) Handle() uintptr { return uintptr(w.hwnd) }

func (w *dummyWindow) Close() {
	win.DestroyWindow(w.hwnd)
	win.UnregisterClass(w.class)
}

func lastError(call string) *CallError {
	err := windows.GetLastError()
	e := &CallError{Call: call, Err: err}
	if errno, ok := err.(windows.Errno); ok {
		e.Code = uint32(errno)
	}
	return e
}

func hresultError(call string, hr uintptr) *CallError {
	return &CallError{Call: call, Code: uint32(hr)}
}
