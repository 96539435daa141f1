package opengl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brahma-adshonor/overhook/render"
)

func TestScissorBoxFlipsOrigin(t *testing.T) {
	assert.Equal(t, [4]int32{10, 580, 100, 20}, scissorBox(render.Rect{Left: 10, Top: 0, Right: 110, Bottom: 20}, 600))
	assert.Equal(t, [4]int32{0, 0, 800, 600}, scissorBox(render.Rect{Right: 800, Bottom: 600}, 600))
}
