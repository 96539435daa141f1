package opengl

import "github.com/brahma-adshonor/overhook/render"

// scissorBox converts a top-left origin rect into the x, y, width and
// height glScissor takes, whose origin is the bottom-left corner of a
// framebuffer fbHeight pixels tall.
func scissorBox(r render.Rect, fbHeight int32) [4]int32 {
	return [4]int32{r.Left, fbHeight - r.Bottom, r.Right - r.Left, r.Bottom - r.Top}
}
