package render

import "github.com/brahma-adshonor/overhook/ui"

// Ortho returns the column major orthographic projection mapping the display
// rectangle of dd to clip space, top left at (-1, 1).
func Ortho(dd *ui.DrawData) [16]float32 {
	l := dd.DisplayPos.X
	r := dd.DisplayPos.X + dd.DisplaySize.X
	t := dd.DisplayPos.Y
	b := dd.DisplayPos.Y + dd.DisplaySize.Y
	return [16]float32{
		2 / (r - l), 0, 0, 0,
		0, 2 / (t - b), 0, 0,
		0, 0, 0.5, 0,
		(r + l) / (l - r), (t + b) / (b - t), 0.5, 1,
	}
}
