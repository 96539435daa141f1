package ui

import "math"

// DrawList accumulates vertices, indices and commands for one window.
type DrawList struct {
	CmdBuffer []DrawCmd
	IdxBuffer []DrawIdx
	VtxBuffer []DrawVert

	clips    []Vec4
	textures []TextureID
	font     *FontAtlas
}

func newDrawList(font *FontAtlas) *DrawList {
	return &DrawList{font: font}
}

func (l *DrawList) reset(clip Vec4) {
	l.CmdBuffer = l.CmdBuffer[:0]
	l.IdxBuffer = l.IdxBuffer[:0]
	l.VtxBuffer = l.VtxBuffer[:0]
	l.clips = append(l.clips[:0], clip)
	l.textures = l.textures[:0]
	if l.font != nil {
		l.textures = append(l.textures, l.font.TexID)
	} else {
		l.textures = append(l.textures, 0)
	}
	l.addCmd()
}

func (l *DrawList) clip() Vec4         { return l.clips[len(l.clips)-1] }
func (l *DrawList) texture() TextureID { return l.textures[len(l.textures)-1] }
func (l *DrawList) current() *DrawCmd  { return &l.CmdBuffer[len(l.CmdBuffer)-1] }

func (l *DrawList) addCmd() {
	var vtx uint32
	if n := len(l.CmdBuffer); n > 0 {
		vtx = l.CmdBuffer[n-1].VtxOffset
	}
	l.CmdBuffer = append(l.CmdBuffer, DrawCmd{
		ClipRect:  l.clip(),
		TextureID: l.texture(),
		VtxOffset: vtx,
		IdxOffset: uint32(len(l.IdxBuffer)),
	})
}

// header makes the last command match the current clip rect and texture.
func (l *DrawList) header() {
	c := l.current()
	if c.Special() {
		l.addCmd()
		return
	}
	if c.ElemCount == 0 {
		c.ClipRect, c.TextureID = l.clip(), l.texture()
		return
	}
	if c.ClipRect != l.clip() || c.TextureID != l.texture() {
		l.addCmd()
	}
}

// PushClipRect narrows drawing to [min, max], intersected with the current
// clip rect when intersect is set.
func (l *DrawList) PushClipRect(min, max Vec2, intersect bool) {
	r := Vec4{min.X, min.Y, max.X, max.Y}
	if intersect {
		cur := l.clip()
		r.X = float32(math.Max(float64(r.X), float64(cur.X)))
		r.Y = float32(math.Max(float64(r.Y), float64(cur.Y)))
		r.Z = float32(math.Min(float64(r.Z), float64(cur.Z)))
		r.W = float32(math.Min(float64(r.W), float64(cur.W)))
	}
	l.clips = append(l.clips, r)
	l.header()
}

func (l *DrawList) PopClipRect() {
	if len(l.clips) > 1 {
		l.clips = l.clips[:len(l.clips)-1]
		l.header()
	}
}

func (l *DrawList) PushTexture(id TextureID) {
	l.textures = append(l.textures, id)
	l.header()
}

func (l *DrawList) PopTexture() {
	if len(l.textures) > 1 {
		l.textures = l.textures[:len(l.textures)-1]
		l.header()
	}
}

// AddCallback inserts a user callback between draws. The render engine calls
// it with the engine's state bound.
func (l *DrawList) AddCallback(cb DrawCallback) {
	l.special(DrawCmd{Callback: cb})
}

// AddResetRenderState asks the engine to set its render state up again, for
// use after a callback changed it.
func (l *DrawList) AddResetRenderState() {
	l.special(DrawCmd{ResetRenderState: true})
}

func (l *DrawList) special(cmd DrawCmd) {
	c := l.current()
	if c.ElemCount > 0 || c.Special() {
		l.addCmd()
		c = l.current()
	}
	c.Callback, c.ResetRenderState = cmd.Callback, cmd.ResetRenderState
	l.addCmd()
}

// reserve accounts for vtx vertices and idx indices and returns the index of
// the first new vertex relative to the command's VtxOffset.
func (l *DrawList) reserve(vtx, idx int) DrawIdx {
	l.header()
	c := l.current()
	if uint32(len(l.VtxBuffer))-c.VtxOffset+uint32(vtx) > math.MaxUint16 {
		if c.ElemCount > 0 {
			l.addCmd()
			c = l.current()
		}
		c.VtxOffset = uint32(len(l.VtxBuffer))
	}
	c.ElemCount += uint32(idx)
	return DrawIdx(uint32(len(l.VtxBuffer)) - c.VtxOffset)
}

func (l *DrawList) primRect(a, c, uvA, uvC Vec2, col uint32) {
	base := l.reserve(4, 6)
	l.VtxBuffer = append(l.VtxBuffer,
		DrawVert{Pos: a, UV: uvA, Col: col},
		DrawVert{Pos: Vec2{c.X, a.Y}, UV: Vec2{uvC.X, uvA.Y}, Col: col},
		DrawVert{Pos: c, UV: uvC, Col: col},
		DrawVert{Pos: Vec2{a.X, c.Y}, UV: Vec2{uvA.X, uvC.Y}, Col: col},
	)
	l.IdxBuffer = append(l.IdxBuffer, base, base+1, base+2, base, base+2, base+3)
}

func (l *DrawList) whiteUV() Vec2 {
	if l.font == nil {
		return Vec2{}
	}
	return l.font.WhiteUV
}

func (l *DrawList) AddRectFilled(min, max Vec2, col uint32) {
	if col>>24 == 0 {
		return
	}
	uv := l.whiteUV()
	l.primRect(min, max, uv, uv, col)
}

// AddRect outlines [min, max] with a border of the given thickness.
func (l *DrawList) AddRect(min, max Vec2, col uint32, thickness float32) {
	l.AddRectFilled(min, Vec2{max.X, min.Y + thickness}, col)
	l.AddRectFilled(Vec2{min.X, max.Y - thickness}, max, col)
	l.AddRectFilled(Vec2{min.X, min.Y + thickness}, Vec2{min.X + thickness, max.Y - thickness}, col)
	l.AddRectFilled(Vec2{max.X - thickness, min.Y + thickness}, Vec2{max.X, max.Y - thickness}, col)
}

func (l *DrawList) AddImage(tex TextureID, min, max, uvMin, uvMax Vec2, col uint32) {
	l.PushTexture(tex)
	l.primRect(min, max, uvMin, uvMax, col)
	l.PopTexture()
}

// AddText draws s with its top left corner at pos. Newlines start a new line.
func (l *DrawList) AddText(pos Vec2, col uint32, s string) {
	if l.font == nil || col>>24 == 0 {
		return
	}
	pen := pos
	for _, r := range s {
		if r == '\n' {
			pen = Vec2{pos.X, pen.Y + l.font.LineHeight}
			continue
		}
		g := l.font.Glyph(r)
		if g.X1 > g.X0 && g.Y1 > g.Y0 {
			l.primRect(
				Vec2{pen.X + g.X0, pen.Y + g.Y0}, Vec2{pen.X + g.X1, pen.Y + g.Y1},
				Vec2{g.U0, g.V0}, Vec2{g.U1, g.V1}, col)
		}
		pen.X += g.Advance
	}
}

// finish drops the trailing empty command.
func (l *DrawList) finish() {
	if n := len(l.CmdBuffer); n > 0 {
		if c := &l.CmdBuffer[n-1]; c.ElemCount == 0 && !c.Special() {
			l.CmdBuffer = l.CmdBuffer[:n-1]
		}
	}
}
