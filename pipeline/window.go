package pipeline

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// WindowSystem is the part of the windowing API the pipeline needs.
type WindowSystem interface {
	ClientSize(hwnd uintptr) (w, h uint32, err error)
	// SetWindowProc installs proc and returns the previous procedure.
	SetWindowProc(hwnd, proc uintptr) (uintptr, error)
	CallWindowProc(proc, hwnd uintptr, msg uint32, wparam, lparam uintptr) uintptr
	DefWindowProc(hwnd uintptr, msg uint32, wparam, lparam uintptr) uintptr
	// WndProcCallback is the native address that dispatches to WndProc.
	WndProcCallback() uintptr
}

// shared is the part of a pipeline the window procedure sees.
type shared struct {
	ws       WindowSystem
	origProc atomic.Uintptr
	queue    chan<- Message
	filter   atomic.Uint32
	engine   *sync.Mutex
	observer WndProcObserver
	dropped  atomic.Uint64
	log      *slog.Logger
}

// attached maps a window handle to its shared state.
var attached sync.Map

// restored keeps the host procedure of every window whose procedure was put
// back. A thread that loaded our procedure before the restore still calls
// WndProc and is forwarded from here.
var restored sync.Map

type hostProc struct {
	ws   WindowSystem
	proc uintptr
}

func (h *hostProc) call(hwnd uintptr, msg uint32, wparam, lparam uintptr) uintptr {
	if h.proc != 0 {
		return h.ws.CallWindowProc(h.proc, hwnd, msg, wparam, lparam)
	}
	return h.ws.DefWindowProc(hwnd, msg, wparam, lparam)
}

func lookup(hwnd uintptr) *shared {
	v, ok := attached.Load(hwnd)
	if !ok {
		return nil
	}
	return v.(*shared)
}

// WndProc is the replacement window procedure of every attached window. It
// never blocks: the message is queued for the next render cycle and the
// current filter decides who answers it.
func WndProc(hwnd uintptr, msg uint32, wparam, lparam uintptr) uintptr {
	s := lookup(hwnd)
	if s == nil {
		if v, ok := restored.Load(hwnd); ok {
			return v.(*hostProc).call(hwnd, msg, wparam, lparam)
		}
		if ws := defaultWindowSystem(); ws != nil {
			return ws.DefWindowProc(hwnd, msg, wparam, lparam)
		}
		return 0
	}
	return s.wndProc(hwnd, msg, wparam, lparam)
}

func (s *shared) wndProc(hwnd uintptr, msg uint32, wparam, lparam uintptr) uintptr {
	if s.observer != nil {
		s.observer.OnWndProc(hwnd, msg, wparam, lparam)
	}

	select {
	case s.queue <- Message{Window: hwnd, ID: msg, WParam: wparam, LParam: lparam}:
	default:
		n := s.dropped.Add(1)
		s.log.Warn("message queue full, dropping message", "hwnd", hwnd, "msg", msg, "dropped", n)
	}

	if !s.engine.TryLock() {
		return s.callOriginal(hwnd, msg, wparam, lparam)
	}
	s.engine.Unlock()
	if MessageFilter(s.filter.Load()).IsBlocking(msg) {
		return s.ws.DefWindowProc(hwnd, msg, wparam, lparam)
	}
	return s.callOriginal(hwnd, msg, wparam, lparam)
}

func (s *shared) callOriginal(hwnd uintptr, msg uint32, wparam, lparam uintptr) uintptr {
	if orig := s.origProc.Load(); orig != 0 {
		return s.ws.CallWindowProc(orig, hwnd, msg, wparam, lparam)
	}
	return s.ws.DefWindowProc(hwnd, msg, wparam, lparam)
}
