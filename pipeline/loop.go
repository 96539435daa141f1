package pipeline

import (
	"github.com/brahma-adshonor/overhook/render"
	"github.com/brahma-adshonor/overhook/ui"
)

// RenderLoop builds the overlay. Render runs once per frame on the host's
// render thread. The optional interfaces below extend it.
type RenderLoop interface {
	Render(u *ui.Ui)
}

// Initializer runs once, before the first frame.
type Initializer interface {
	Initialize(ctx *ui.Context, engine render.Engine)
}

// BeforeRenderer runs every frame before the frame is built.
type BeforeRenderer interface {
	BeforeRender(engine render.Engine)
}

// MessageFilterer declares which message classes to take from the host. It
// runs every frame after input replay. Loops without it get DefaultFilter.
type MessageFilterer interface {
	MessageFilter(io *ui.IO) MessageFilter
}

// WndProcObserver sees every message on the window's thread, before it is
// queued. It must not touch the ui context.
type WndProcObserver interface {
	OnWndProc(hwnd uintptr, msg uint32, wparam, lparam uintptr)
}

// DefaultFilter blocks mouse and keyboard input while the overlay wants it.
func DefaultFilter(io *ui.IO) MessageFilter {
	var f MessageFilter
	if io.WantCaptureMouse {
		f |= InputMouse
	}
	if io.WantCaptureKeyboard {
		f |= InputKeyboard
	}
	return f
}
