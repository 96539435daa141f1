package ui

import (
	"image"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Glyph places one character relative to the pen position at the top of a
// line, with its texture coordinates in the atlas.
type Glyph struct {
	Advance        float32
	X0, Y0, X1, Y1 float32
	U0, V0, U1, V1 float32
}

// FontAtlas is an RGBA32 texture holding every glyph of a bitmap face plus a
// white block used for untextured shapes.
type FontAtlas struct {
	Width, Height int
	Pixels        []byte
	LineHeight    float32
	WhiteUV       Vec2

	// TexID is set by the render engine once the texture is uploaded.
	TexID TextureID

	glyphs   map[rune]Glyph
	fallback Glyph
}

const atlasWidth = 256

var atlasRanges = [][2]rune{{0x20, 0x7e}, {0xa1, 0xff}}

// NewFontAtlas rasterizes basicfont.Face7x13.
func NewFontAtlas() (*FontAtlas, error) {
	return newFontAtlas(basicfont.Face7x13)
}

func newFontAtlas(face *basicfont.Face) (*FontAtlas, error) {
	var runes []rune
	for _, rg := range atlasRanges {
		for r := rg[0]; r <= rg[1]; r++ {
			runes = append(runes, r)
		}
	}

	cellW, cellH := face.Advance+1, face.Height+1
	perRow := atlasWidth / cellW
	rows := (len(runes)+perRow-1)/perRow + 1
	height := 1
	for height < rows*cellH {
		height <<= 1
	}

	img := image.NewRGBA(image.Rect(0, 0, atlasWidth, height))
	a := &FontAtlas{
		Width:      atlasWidth,
		Height:     height,
		LineHeight: float32(face.Height),
		glyphs:     make(map[rune]Glyph, len(runes)),
	}

	for i, r := range runes {
		cx, cy := (i%perRow)*cellW, (i/perRow)*cellH
		dot := fixed.P(cx, cy+face.Ascent)
		dr, mask, mp, adv, ok := face.Glyph(dot, r)
		if !ok {
			continue
		}
		draw.DrawMask(img, dr, image.White, image.Point{}, mask, mp, draw.Over)
		a.glyphs[r] = Glyph{
			Advance: float32(adv.Round()),
			X0:      float32(dr.Min.X - cx),
			Y0:      float32(dr.Min.Y - cy),
			X1:      float32(dr.Max.X - cx),
			Y1:      float32(dr.Max.Y - cy),
			U0:      float32(dr.Min.X) / float32(atlasWidth),
			V0:      float32(dr.Min.Y) / float32(height),
			U1:      float32(dr.Max.X) / float32(atlasWidth),
			V1:      float32(dr.Max.Y) / float32(height),
		}
	}
	if len(a.glyphs) == 0 {
		return nil, errors.New("font face produced no glyphs")
	}

	// 2x2 white block in the last row, sampled at its center
	wy := (rows - 1) * cellH
	draw.Draw(img, image.Rect(0, wy, 2, wy+2), image.White, image.Point{}, draw.Src)
	a.WhiteUV = Vec2{1 / float32(atlasWidth), float32(wy+1) / float32(height)}

	a.fallback = a.glyphs['?']
	a.Pixels = img.Pix
	return a, nil
}

// Glyph returns the glyph for r, or the glyph for '?' when the face lacks r.
func (a *FontAtlas) Glyph(r rune) Glyph {
	if g, ok := a.glyphs[r]; ok {
		return g
	}
	return a.fallback
}

// TextSize measures s, which may span several lines.
func (a *FontAtlas) TextSize(s string) Vec2 {
	var size, line Vec2
	line.Y = a.LineHeight
	for _, r := range s {
		if r == '\n' {
			size.X = max(size.X, line.X)
			size.Y += line.Y
			line.X = 0
			continue
		}
		line.X += a.Glyph(r).Advance
	}
	size.X = max(size.X, line.X)
	size.Y += line.Y
	return size
}
