// Package ui is a small immediate mode toolkit producing indexed triangle
// lists for the render engines. Its draw data layout follows Dear ImGui so
// the backends stay interchangeable with that toolkit's renderers.
package ui

type Vec2 struct{ X, Y float32 }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Vec4 holds a clip rectangle as (min x, min y, max x, max y).
type Vec4 struct{ X, Y, Z, W float32 }

// TextureID is backend defined: a shader resource view, a texture object or a
// GL name.
type TextureID uintptr

type DrawIdx = uint16

// DrawVert is 20 bytes: position, texture coordinates and a packed color.
type DrawVert struct {
	Pos Vec2
	UV  Vec2
	Col uint32
}

// Color packs a color with red in the low byte.
func Color(r, g, b, a uint8) uint32 {
	return uint32(a)<<24 | uint32(b)<<16 | uint32(g)<<8 | uint32(r)
}

type DrawCallback func(list *DrawList, cmd *DrawCmd)

// DrawCmd is one indexed draw, or a callback when Callback is set, or a
// request to re-apply the engine's render state when ResetRenderState is set.
type DrawCmd struct {
	ClipRect         Vec4
	TextureID        TextureID
	VtxOffset        uint32
	IdxOffset        uint32
	ElemCount        uint32
	Callback         DrawCallback
	ResetRenderState bool
}

// Special reports whether the command draws nothing by itself.
func (c *DrawCmd) Special() bool {
	return c.Callback != nil || c.ResetRenderState
}

// DrawData is everything a render engine needs for one frame.
type DrawData struct {
	Valid            bool
	Lists            []*DrawList
	TotalVtxCount    int
	TotalIdxCount    int
	DisplayPos       Vec2
	DisplaySize      Vec2
	FramebufferScale Vec2
}
