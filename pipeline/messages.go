package pipeline

// Window messages the pipeline interprets or classifies.
const (
	WM_MOVE              = 0x0003
	WM_SIZE              = 0x0005
	WM_ACTIVATE          = 0x0006
	WM_SETFOCUS          = 0x0007
	WM_KILLFOCUS         = 0x0008
	WM_CLOSE             = 0x0010
	WM_ACTIVATEAPP       = 0x001C
	WM_MOUSEACTIVATE     = 0x0021
	WM_WINDOWPOSCHANGING = 0x0046
	WM_WINDOWPOSCHANGED  = 0x0047
	WM_NCACTIVATE        = 0x0086
	WM_INPUT             = 0x00FF
	WM_KEYDOWN           = 0x0100
	WM_KEYUP             = 0x0101
	WM_CHAR              = 0x0102
	WM_SYSKEYDOWN        = 0x0104
	WM_SYSKEYUP          = 0x0105
	WM_UNICHAR           = 0x0109
	WM_SYSCOMMAND        = 0x0112
	WM_MOUSEMOVE         = 0x0200
	WM_LBUTTONDOWN       = 0x0201
	WM_LBUTTONUP         = 0x0202
	WM_LBUTTONDBLCLK     = 0x0203
	WM_RBUTTONDOWN       = 0x0204
	WM_RBUTTONUP         = 0x0205
	WM_RBUTTONDBLCLK     = 0x0206
	WM_MBUTTONDOWN       = 0x0207
	WM_MBUTTONUP         = 0x0208
	WM_MBUTTONDBLCLK     = 0x0209
	WM_MOUSEWHEEL        = 0x020A
	WM_XBUTTONDOWN       = 0x020B
	WM_XBUTTONUP         = 0x020C
	WM_XBUTTONDBLCLK     = 0x020D
	WM_MOUSEHWHEEL       = 0x020E
	WM_SIZING            = 0x0214
	WM_MOVING            = 0x0216
	WM_ENTERSIZEMOVE     = 0x0231
	WM_EXITSIZEMOVE      = 0x0232
	WM_MOUSEHOVER        = 0x02A1
	WM_MOUSELEAVE        = 0x02A3
)

const (
	sizeMinimized = 1
	xButton1      = 1
	wheelDelta    = 120
	unicodeNoChar = 0xFFFF

	vkShift   = 0x10
	vkControl = 0x11
	vkMenu    = 0x12
	vkLWin    = 0x5B
	vkRWin    = 0x5C
)

// Message is one window message as the window procedure received it.
type Message struct {
	Window uintptr
	ID     uint32
	WParam uintptr
	LParam uintptr
}

func loword(v uintptr) uint16 { return uint16(v) }
func hiword(v uintptr) uint16 { return uint16(v >> 16) }

// MessageFilter selects the classes of messages the overlay consumes. A
// message in a selected class is answered with DefWindowProc instead of
// reaching the host's window procedure.
type MessageFilter uint32

const (
	InputMouse MessageFilter = 1 << iota
	InputKeyboard
	InputRaw
	WindowFocus
	WindowControl
	WindowClose

	InputAll  = InputMouse | InputKeyboard | InputRaw
	WindowAll = WindowFocus | WindowControl | WindowClose
)

// Classify returns the class bit of msg, or 0 for messages that are never
// blocked.
func Classify(msg uint32) MessageFilter {
	switch {
	case msg >= WM_MOUSEMOVE && msg <= WM_MOUSEHWHEEL, msg == WM_MOUSEHOVER, msg == WM_MOUSELEAVE:
		return InputMouse
	case msg >= WM_KEYDOWN && msg <= WM_UNICHAR:
		return InputKeyboard
	case msg == WM_INPUT:
		return InputRaw
	}
	switch msg {
	case WM_ACTIVATE, WM_SETFOCUS, WM_KILLFOCUS, WM_ACTIVATEAPP, WM_NCACTIVATE, WM_MOUSEACTIVATE:
		return WindowFocus
	case WM_MOVE, WM_SIZE, WM_WINDOWPOSCHANGING, WM_WINDOWPOSCHANGED, WM_SYSCOMMAND,
		WM_SIZING, WM_MOVING, WM_ENTERSIZEMOVE, WM_EXITSIZEMOVE:
		return WindowControl
	case WM_CLOSE:
		return WindowClose
	}
	return 0
}

// IsBlocking reports whether f keeps msg from the host's window procedure.
func (f MessageFilter) IsBlocking(msg uint32) bool {
	return f&Classify(msg) != 0
}
