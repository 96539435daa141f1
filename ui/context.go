package ui

import "time"

// Style colors and metrics.
var (
	ColWindowBg     = Color(20, 20, 24, 230)
	ColTitleBg      = Color(40, 60, 110, 255)
	ColBorder       = Color(110, 110, 128, 128)
	ColText         = Color(230, 230, 230, 255)
	ColButton       = Color(66, 110, 180, 160)
	ColButtonHover  = Color(66, 140, 230, 255)
	ColButtonActive = Color(20, 110, 230, 255)
	ColSeparator    = Color(110, 110, 128, 128)
)

const (
	windowPadding = 8
	itemSpacing   = 4
	framePadding  = 4
)

type window struct {
	title  string
	pos    Vec2
	size   Vec2
	list   *DrawList
	cursor Vec2
	active bool
}

func (w *window) contains(p Vec2) bool {
	return p.X >= w.pos.X && p.Y >= w.pos.Y && p.X < w.pos.X+w.size.X && p.Y < w.pos.Y+w.size.Y
}

// Context owns the IO, the fonts and the windows of one overlay.
type Context struct {
	io    IO
	Fonts *FontAtlas

	frame      int
	inFrame    bool
	lastFrame  time.Time
	windows    []*window
	order      []*window
	foreground *DrawList
	drawData   DrawData

	captureKeyboard bool
	mouseOwned      bool
}

// NewContext builds a context drawing text with fonts. A nil atlas builds
// the default one.
func NewContext(fonts *FontAtlas) (*Context, error) {
	if fonts == nil {
		var err error
		if fonts, err = NewFontAtlas(); err != nil {
			return nil, err
		}
	}
	return &Context{
		io:         newIO(),
		Fonts:      fonts,
		foreground: newDrawList(fonts),
	}, nil
}

func (c *Context) IO() *IO { return &c.io }

// Frame counts the frames started so far.
func (c *Context) Frame() int { return c.frame }

func (c *Context) displayClip() Vec4 {
	return Vec4{0, 0, c.io.DisplaySize.X, c.io.DisplaySize.Y}
}

// NewFrame starts a frame at now and returns the builder for it.
func (c *Context) NewFrame(now time.Time) *Ui {
	io := &c.io
	if c.lastFrame.IsZero() || !now.After(c.lastFrame) {
		io.DeltaTime = 1.0 / 60
	} else {
		io.DeltaTime = float32(now.Sub(c.lastFrame).Seconds())
	}
	c.lastFrame = now
	if io.Framerate == 0 {
		io.Framerate = 1 / io.DeltaTime
	} else {
		io.Framerate += (1/io.DeltaTime - io.Framerate) * 0.1
	}

	io.beginFrame()
	hovered := false
	if io.MousePosValid() {
		for _, w := range c.windows {
			if w.active && w.contains(io.MousePos) {
				hovered = true
				break
			}
		}
	}
	if io.MouseClicked[0] {
		c.mouseOwned = hovered
	}
	anyDown := false
	for _, d := range io.MouseDown {
		anyDown = anyDown || d
	}
	if !anyDown && !io.MouseClicked[0] {
		c.mouseOwned = false
	}
	io.WantCaptureMouse = hovered || c.mouseOwned
	io.WantCaptureKeyboard = c.captureKeyboard
	c.captureKeyboard = false

	for _, w := range c.windows {
		w.active = false
	}
	c.order = c.order[:0]
	c.foreground.reset(c.displayClip())
	c.frame++
	c.inFrame = true
	return &Ui{ctx: c}
}

// Render ends the frame and returns its draw data. The result is owned by the
// context and stays valid until the next NewFrame.
func (c *Context) Render() *DrawData {
	if !c.inFrame {
		return &c.drawData
	}
	c.inFrame = false

	dd := &c.drawData
	*dd = DrawData{
		Valid:            true,
		Lists:            dd.Lists[:0],
		DisplaySize:      c.io.DisplaySize,
		FramebufferScale: c.io.DisplayFramebufferScale,
	}
	for _, w := range c.order {
		dd.add(w.list)
	}
	dd.add(c.foreground)
	c.io.endFrame()
	return dd
}

func (d *DrawData) add(l *DrawList) {
	l.finish()
	if len(l.CmdBuffer) == 0 {
		return
	}
	d.Lists = append(d.Lists, l)
	d.TotalVtxCount += len(l.VtxBuffer)
	d.TotalIdxCount += len(l.IdxBuffer)
}

func (c *Context) window(title string) *window {
	for _, w := range c.windows {
		if w.title == title {
			return w
		}
	}
	w := &window{title: title, list: newDrawList(c.Fonts)}
	c.windows = append(c.windows, w)
	return w
}
