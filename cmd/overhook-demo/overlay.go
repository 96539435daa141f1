package main

import (
	"sync/atomic"

	"github.com/brahma-adshonor/overhook/pipeline"
	"github.com/brahma-adshonor/overhook/ui"
)

// overlay shows frame rate and input state in a window toggled by a key.
type overlay struct {
	visible  atomic.Bool
	toggleVK atomic.Int32
	wasDown  bool
}

var (
	_ pipeline.RenderLoop      = (*overlay)(nil)
	_ pipeline.MessageFilterer = (*overlay)(nil)
)

func newOverlay(toggleVK int) *overlay {
	o := &overlay{}
	o.visible.Store(true)
	o.toggleVK.Store(int32(toggleVK))
	return o
}

func (o *overlay) SetToggleKey(vk int) { o.toggleVK.Store(int32(vk)) }

func (o *overlay) Visible() bool { return o.visible.Load() }

func (o *overlay) Render(u *ui.Ui) {
	io := u.IO()
	vk := int(o.toggleVK.Load())
	down := vk > 0 && vk < ui.KeyCount && io.KeysDown[vk]
	if down && !o.wasDown {
		o.visible.Store(!o.visible.Load())
	}
	o.wasDown = down
	if !o.visible.Load() {
		return
	}

	u.Window("overhook", ui.Vec2{X: 10, Y: 10}, ui.Vec2{X: 260, Y: 150}, func() {
		u.Text("%.0f FPS (%.2f ms)", io.Framerate, io.DeltaTime*1000)
		u.Text("display %.0fx%.0f", io.DisplaySize.X, io.DisplaySize.Y)
		if io.MousePosValid() {
			u.Text("mouse %.0f,%.0f", io.MousePos.X, io.MousePos.Y)
		} else {
			u.Text("mouse outside")
		}
		u.Separator()
		if u.Button("Hide") {
			o.visible.Store(false)
		}
	})
}

// MessageFilter lets every message through to the host while hidden.
func (o *overlay) MessageFilter(io *ui.IO) pipeline.MessageFilter {
	if !o.visible.Load() {
		return 0
	}
	return pipeline.DefaultFilter(io)
}
