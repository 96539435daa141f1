package ui

import "fmt"

// Ui builds the content of one frame.
type Ui struct {
	ctx *Context
	win *window
}

func (u *Ui) IO() *IO           { return &u.ctx.io }
func (u *Ui) Fonts() *FontAtlas { return u.ctx.Fonts }

// Window draws a titled window at pos and runs body with the window as the
// target of the widget calls. A window drawn twice in a frame keeps the first
// position.
func (u *Ui) Window(title string, pos, size Vec2, body func()) {
	w := u.ctx.window(title)
	if !w.active {
		w.active = true
		w.pos, w.size = pos, size
		w.list.reset(u.ctx.displayClip())
		u.ctx.order = append(u.ctx.order, w)

		titleH := u.ctx.Fonts.LineHeight + 2*framePadding
		end := pos.Add(size)
		w.list.PushClipRect(pos, end, true)
		w.list.AddRectFilled(pos, end, ColWindowBg)
		w.list.AddRectFilled(pos, Vec2{end.X, pos.Y + titleH}, ColTitleBg)
		w.list.AddRect(pos, end, ColBorder, 1)
		w.list.PushClipRect(pos, Vec2{end.X, pos.Y + titleH}, true)
		w.list.AddText(Vec2{pos.X + windowPadding, pos.Y + framePadding}, ColText, title)
		w.list.PopClipRect()
		w.list.PopClipRect()
		w.cursor = Vec2{pos.X + windowPadding, pos.Y + titleH + windowPadding}
	}

	prev := u.win
	u.win = w
	w.list.PushClipRect(w.pos, w.pos.Add(w.size), true)
	if body != nil {
		body()
	}
	w.list.PopClipRect()
	u.win = prev
}

// DrawList returns the current window's list, or the foreground list outside
// of a window.
func (u *Ui) DrawList() *DrawList {
	if u.win != nil {
		return u.win.list
	}
	return u.ctx.foreground
}

// ForegroundDrawList is drawn over every window.
func (u *Ui) ForegroundDrawList() *DrawList { return u.ctx.foreground }

func (u *Ui) Text(format string, args ...any) {
	s := format
	if len(args) > 0 {
		s = fmt.Sprintf(format, args...)
	}
	size := u.ctx.Fonts.TextSize(s)
	pos := u.item(size)
	u.DrawList().AddText(pos, ColText, s)
}

// Button draws a button and reports whether it was clicked this frame.
func (u *Ui) Button(label string) bool {
	size := u.ctx.Fonts.TextSize(label).Add(Vec2{2 * framePadding, 2 * framePadding})
	pos := u.item(size)
	end := pos.Add(size)

	io := &u.ctx.io
	hovered := io.MousePosValid() &&
		io.MousePos.X >= pos.X && io.MousePos.Y >= pos.Y && io.MousePos.X < end.X && io.MousePos.Y < end.Y
	col := ColButton
	switch {
	case hovered && io.MouseDown[0]:
		col = ColButtonActive
	case hovered:
		col = ColButtonHover
	}
	l := u.DrawList()
	l.AddRectFilled(pos, end, col)
	l.AddText(pos.Add(Vec2{framePadding, framePadding}), ColText, label)
	return hovered && io.MouseClicked[0]
}

func (u *Ui) Separator() {
	width := float32(0)
	if u.win != nil {
		width = u.win.size.X - 2*windowPadding
	}
	pos := u.item(Vec2{width, 1})
	u.DrawList().AddRectFilled(pos, Vec2{pos.X + width, pos.Y + 1}, ColSeparator)
}

// AddCallback runs cb from the render engine at this point of the current
// draw list.
func (u *Ui) AddCallback(cb DrawCallback) { u.DrawList().AddCallback(cb) }

// ResetRenderState makes the engine restore its own state, typically after a
// callback.
func (u *Ui) ResetRenderState() { u.DrawList().AddResetRenderState() }

// CaptureKeyboard asks for keyboard input to be routed to the overlay during
// the next frame.
func (u *Ui) CaptureKeyboard() { u.ctx.captureKeyboard = true }

func (u *Ui) Frame() int { return u.ctx.frame }

// item lays out an item of the given size and returns its position.
func (u *Ui) item(size Vec2) Vec2 {
	if u.win == nil {
		return Vec2{windowPadding, windowPadding}
	}
	pos := u.win.cursor
	u.win.cursor.Y += size.Y + itemSpacing
	return pos
}
