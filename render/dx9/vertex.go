package dx9

import "github.com/brahma-adshonor/overhook/ui"

// vertex matches the XYZ | DIFFUSE | TEX1 flexible vertex format.
type vertex struct {
	Pos [3]float32
	Col uint32
	UV  [2]float32
}

// argb turns a ui color, red in the low byte, into a D3DCOLOR.
func argb(c uint32) uint32 {
	return c&0xff00ff00 | (c&0xff)<<16 | (c>>16)&0xff
}

func convert(dst []vertex, src []ui.DrawVert) []vertex {
	for _, v := range src {
		dst = append(dst, vertex{
			Pos: [3]float32{v.Pos.X, v.Pos.Y, 0},
			Col: argb(v.Col),
			UV:  [2]float32{v.UV.X, v.UV.Y},
		})
	}
	return dst
}

// projection is the orthographic projection of dd shifted by half a pixel,
// as Direct3D 9 samples at pixel corners.
func projection(dd *ui.DrawData) [16]float32 {
	l := dd.DisplayPos.X + 0.5
	r := dd.DisplayPos.X + dd.DisplaySize.X + 0.5
	t := dd.DisplayPos.Y + 0.5
	b := dd.DisplayPos.Y + dd.DisplaySize.Y + 0.5
	return [16]float32{
		2 / (r - l), 0, 0, 0,
		0, 2 / (t - b), 0, 0,
		0, 0, 0.5, 0,
		(l + r) / (l - r), (t + b) / (b - t), 0.5, 1,
	}
}

// bgra swaps the red and blue channels of RGBA pixels in place.
func bgra(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
