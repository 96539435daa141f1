package dx9

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"

	"github.com/brahma-adshonor/overhook/ui"
)

func TestVertexLayout(t *testing.T) {
	assert.Equal(t, uintptr(24), unsafe.Sizeof(vertex{}))
	assert.Equal(t, uintptr(12), unsafe.Offsetof(vertex{}.Col))
}

func TestConvertSwizzlesColor(t *testing.T) {
	out := convert(nil, []ui.DrawVert{{
		Pos: ui.Vec2{X: 3, Y: 4},
		UV:  ui.Vec2{X: 0.25, Y: 0.5},
		Col: ui.Color(0x11, 0x22, 0x33, 0x44),
	}})
	assert.Equal(t, []vertex{{Pos: [3]float32{3, 4, 0}, Col: 0x44112233, UV: [2]float32{0.25, 0.5}}}, out)
}

func TestProjectionHalfPixel(t *testing.T) {
	m := projection(&ui.DrawData{DisplaySize: ui.Vec2{X: 100, Y: 50}})
	apply := func(x, y float32) (float32, float32) {
		return x*m[0] + y*m[4] + m[12], x*m[1] + y*m[5] + m[13]
	}
	x, y := apply(0.5, 0.5)
	assert.InDelta(t, -1, x, 1e-6)
	assert.InDelta(t, 1, y, 1e-6)
	x, y = apply(100.5, 50.5)
	assert.InDelta(t, 1, x, 1e-6)
	assert.InDelta(t, -1, y, 1e-6)
}

func TestBGRA(t *testing.T) {
	pix := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	bgra(pix)
	assert.Equal(t, []byte{3, 2, 1, 4, 7, 6, 5, 8}, pix)
}
