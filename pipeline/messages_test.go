package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brahma-adshonor/overhook/ui"
)

func TestClassify(t *testing.T) {
	cases := map[uint32]MessageFilter{
		WM_MOUSEMOVE:     InputMouse,
		WM_MOUSEHWHEEL:   InputMouse,
		WM_MOUSELEAVE:    InputMouse,
		WM_KEYDOWN:       InputKeyboard,
		WM_CHAR:          InputKeyboard,
		WM_UNICHAR:       InputKeyboard,
		WM_INPUT:         InputRaw,
		WM_SETFOCUS:      WindowFocus,
		WM_ACTIVATEAPP:   WindowFocus,
		WM_MOUSEACTIVATE: WindowFocus,
		WM_SIZE:          WindowControl,
		WM_SYSCOMMAND:    WindowControl,
		WM_EXITSIZEMOVE:  WindowControl,
		WM_CLOSE:         WindowClose,
		0x000F:           0, // WM_PAINT
		0x0400:           0, // WM_USER
	}
	for msg, want := range cases {
		assert.Equal(t, want, Classify(msg), "msg %#x", msg)
	}

	f := InputKeyboard | WindowClose
	assert.True(t, f.IsBlocking(WM_KEYUP))
	assert.True(t, f.IsBlocking(WM_CLOSE))
	assert.False(t, f.IsBlocking(WM_MOUSEMOVE))
	assert.False(t, InputAll.IsBlocking(0x000F))
}

func lparam(lo, hi uint16) uintptr { return uintptr(hi)<<16 | uintptr(lo) }

func TestReplayMouse(t *testing.T) {
	io := &ui.IO{}
	replay(io, Message{ID: WM_MOUSEMOVE, LParam: lparam(0xfff6, 30)})
	assert.Equal(t, ui.Vec2{X: -10, Y: 30}, io.MousePos)

	replay(io, Message{ID: WM_RBUTTONDOWN})
	replay(io, Message{ID: WM_XBUTTONDOWN, WParam: lparam(0, 2)})
	assert.True(t, io.MouseDown[1])
	assert.True(t, io.MouseDown[4])
	replay(io, Message{ID: WM_XBUTTONUP, WParam: lparam(0, 2)})
	assert.False(t, io.MouseDown[4])

	replay(io, Message{ID: WM_MOUSEWHEEL, WParam: lparam(0, 240)})
	replay(io, Message{ID: WM_MOUSEWHEEL, WParam: lparam(0, 0xff88)})
	assert.Equal(t, float32(1), io.MouseWheel)

	replay(io, Message{ID: WM_MOUSELEAVE})
	assert.False(t, io.MousePosValid())
}

func TestReplayKeyboard(t *testing.T) {
	io := &ui.IO{}
	replay(io, Message{ID: WM_KEYDOWN, WParam: vkControl})
	replay(io, Message{ID: WM_SYSKEYDOWN, WParam: vkMenu})
	replay(io, Message{ID: WM_KEYDOWN, WParam: 'A'})
	assert.True(t, io.KeyCtrl)
	assert.True(t, io.KeyAlt)
	assert.True(t, io.KeysDown['A'])

	replay(io, Message{ID: WM_KEYUP, WParam: vkControl})
	assert.False(t, io.KeyCtrl)

	replay(io, Message{ID: WM_UNICHAR, WParam: unicodeNoChar})
	replay(io, Message{ID: WM_UNICHAR, WParam: 0x1F600})
	replay(io, Message{ID: WM_CHAR, WParam: 'z'})
	assert.Equal(t, []rune{0x1F600, 'z'}, io.InputCharacters())

	replay(io, Message{ID: WM_KILLFOCUS})
	assert.False(t, io.Focused)
	assert.False(t, io.KeysDown['A'])
	assert.False(t, io.KeyAlt)
}

func TestReplaySize(t *testing.T) {
	io := &ui.IO{}
	replay(io, Message{ID: WM_SIZE, LParam: lparam(800, 600)})
	assert.Equal(t, ui.Vec2{X: 800, Y: 600}, io.DisplaySize)

	replay(io, Message{ID: WM_SIZE, WParam: sizeMinimized})
	assert.Equal(t, ui.Vec2{X: 800, Y: 600}, io.DisplaySize, "minimizing keeps the last size")
}
