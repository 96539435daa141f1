package ui

import (
	"math"
	"unicode"
	"unicode/utf16"
)

const (
	KeyCount         = 512
	MouseButtonCount = 5
)

// MousePosInvalid marks the mouse as outside the window.
var MousePosInvalid = Vec2{-math.MaxFloat32, -math.MaxFloat32}

// IO is the input state fed by the pipeline and the capture flags read back
// by it.
type IO struct {
	DisplaySize             Vec2
	DisplayFramebufferScale Vec2
	DeltaTime               float32
	Framerate               float32

	MousePos    Vec2
	MouseDown   [MouseButtonCount]bool
	MouseWheel  float32
	MouseWheelH float32

	KeysDown [KeyCount]bool
	KeyCtrl  bool
	KeyShift bool
	KeyAlt   bool
	KeySuper bool

	Focused bool

	// Set by the context at the start of every frame.
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
	MouseClicked        [MouseButtonCount]bool
	MouseReleased       [MouseButtonCount]bool

	pressed   [MouseButtonCount]bool
	released  [MouseButtonCount]bool
	chars     []rune
	surrogate uint16
}

func newIO() IO {
	return IO{
		DisplayFramebufferScale: Vec2{1, 1},
		MousePos:                MousePosInvalid,
		Focused:                 true,
	}
}

func (io *IO) MousePosValid() bool {
	return io.MousePos.X > -math.MaxFloat32 && io.MousePos.Y > -math.MaxFloat32
}

// SetMouseButton records a press or release. Presses and releases that
// happen between two frames are still seen as clicks by the next frame.
func (io *IO) SetMouseButton(button int, down bool) {
	if button < 0 || button >= MouseButtonCount {
		return
	}
	switch {
	case down && !io.MouseDown[button]:
		io.pressed[button] = true
	case !down && io.MouseDown[button]:
		io.released[button] = true
	}
	io.MouseDown[button] = down
}

func (io *IO) SetKey(key int, down bool) {
	if key >= 0 && key < KeyCount {
		io.KeysDown[key] = down
	}
}

// ClearKeys releases every key and button, as when focus is lost.
func (io *IO) ClearKeys() {
	io.KeysDown = [KeyCount]bool{}
	for i := range io.MouseDown {
		io.SetMouseButton(i, false)
	}
	io.KeyCtrl, io.KeyShift, io.KeyAlt, io.KeySuper = false, false, false, false
}

func (io *IO) AddInputCharacter(r rune) {
	if r > 0 && r != unicode.ReplacementChar {
		io.chars = append(io.chars, r)
	}
}

// AddInputCharacterUTF16 accepts one UTF-16 code unit and joins surrogate
// pairs split across calls.
func (io *IO) AddInputCharacterUTF16(c uint16) {
	switch {
	case c >= 0xd800 && c < 0xdc00:
		io.surrogate = c
	case c >= 0xdc00 && c < 0xe000:
		if io.surrogate != 0 {
			io.chars = append(io.chars, utf16.DecodeRune(rune(io.surrogate), rune(c)))
		}
		io.surrogate = 0
	default:
		io.surrogate = 0
		io.AddInputCharacter(rune(c))
	}
}

// InputCharacters returns the text typed since the last frame.
func (io *IO) InputCharacters() []rune {
	return io.chars
}

// beginFrame latches clicks and clears per frame input.
func (io *IO) beginFrame() {
	io.MouseClicked, io.pressed = io.pressed, [MouseButtonCount]bool{}
	io.MouseReleased, io.released = io.released, [MouseButtonCount]bool{}
}

func (io *IO) endFrame() {
	io.chars = io.chars[:0]
	io.MouseWheel, io.MouseWheelH = 0, 0
}
