// Package pipelinetest provides a scripted window system and a recording
// render engine for exercising pipelines without a desktop.
package pipelinetest

import (
	"fmt"
	"sync"

	"github.com/brahma-adshonor/overhook/pipeline"
	"github.com/brahma-adshonor/overhook/render"
	"github.com/brahma-adshonor/overhook/ui"
)

// Callback is the fake native address of pipeline.WndProc.
const Callback uintptr = 0xc0ffee0

// MakeLParam packs two words the way window messages do.
func MakeLParam(lo, hi uint16) uintptr {
	return uintptr(hi)<<16 | uintptr(lo)
}

// Windows is a WindowSystem over a table of window procedures. Messages sent
// to a window whose procedure is Callback go to pipeline.WndProc; anything
// else counts as the host's own procedure.
type Windows struct {
	mu      sync.Mutex
	width   uint32
	height  uint32
	procs   map[uintptr]uintptr
	events  []string
	orig    []pipeline.Message
	def     []pipeline.Message
	failSet error
}

var _ pipeline.WindowSystem = (*Windows)(nil)

func NewWindows(width, height uint32) *Windows {
	return &Windows{width: width, height: height, procs: make(map[uintptr]uintptr)}
}

// CreateWindow registers hwnd with the host procedure proc.
func (f *Windows) CreateWindow(hwnd, proc uintptr) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.procs[hwnd] = proc
}

func (f *Windows) Proc(hwnd uintptr) uintptr {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.procs[hwnd]
}

// FailSetWindowProc makes later SetWindowProc calls fail with err.
func (f *Windows) FailSetWindowProc(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet = err
}

// Send dispatches a message like the host's message pump would.
func (f *Windows) Send(hwnd uintptr, msg uint32, wparam, lparam uintptr) uintptr {
	proc := f.Proc(hwnd)
	if proc == Callback {
		return pipeline.WndProc(hwnd, msg, wparam, lparam)
	}
	return f.CallWindowProc(proc, hwnd, msg, wparam, lparam)
}

// Log appends an event to the shared event log.
func (f *Windows) Log(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fmt.Sprintf(format, args...))
}

func (f *Windows) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

// Original returns the messages that reached a host procedure.
func (f *Windows) Original() []pipeline.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pipeline.Message(nil), f.orig...)
}

// Default returns the messages answered by DefWindowProc.
func (f *Windows) Default() []pipeline.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pipeline.Message(nil), f.def...)
}

func (f *Windows) ClientSize(uintptr) (uint32, uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.width, f.height, nil
}

func (f *Windows) SetWindowProc(hwnd, proc uintptr) (uintptr, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet != nil {
		return 0, f.failSet
	}
	prev := f.procs[hwnd]
	f.procs[hwnd] = proc
	f.events = append(f.events, fmt.Sprintf("wndproc %#x", proc))
	return prev, nil
}

func (f *Windows) CallWindowProc(proc, hwnd uintptr, msg uint32, wparam, lparam uintptr) uintptr {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orig = append(f.orig, pipeline.Message{Window: hwnd, ID: msg, WParam: wparam, LParam: lparam})
	return 1
}

func (f *Windows) DefWindowProc(hwnd uintptr, msg uint32, wparam, lparam uintptr) uintptr {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.def = append(f.def, pipeline.Message{Window: hwnd, ID: msg, WParam: wparam, LParam: lparam})
	return 2
}

func (f *Windows) WndProcCallback() uintptr { return Callback }

// Engine records what the pipeline asks of a render engine.
type Engine struct {
	mu sync.Mutex

	// Log receives "engine close" and similar events when set.
	Log *Windows

	Frames       int
	DisplaySizes []ui.Vec2
	Resizes      [][2]uint32
	FontsLoaded  bool
	Closed       bool

	FailFonts  error
	FailRender error
}

var _ render.Engine = (*Engine)(nil)

func (e *Engine) SetupFonts(atlas *ui.FontAtlas) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FailFonts != nil {
		return e.FailFonts
	}
	atlas.TexID = 1
	e.FontsLoaded = true
	return nil
}

func (e *Engine) Render(dd *ui.DrawData) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FailRender != nil {
		return e.FailRender
	}
	e.Frames++
	e.DisplaySizes = append(e.DisplaySizes, dd.DisplaySize)
	return nil
}

func (e *Engine) Resize(w, h uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Resizes = append(e.Resizes, [2]uint32{w, h})
	return nil
}

func (e *Engine) Present() error { return nil }

func (e *Engine) Close() error {
	e.mu.Lock()
	e.Closed = true
	e.mu.Unlock()
	if e.Log != nil {
		e.Log.Log("engine close")
	}
	return nil
}

func (e *Engine) LastDisplaySize() ui.Vec2 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.DisplaySizes) == 0 {
		return ui.Vec2{}
	}
	return e.DisplaySizes[len(e.DisplaySizes)-1]
}
