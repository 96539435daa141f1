package pipeline

import "github.com/brahma-adshonor/overhook/ui"

// replay applies one message to the toolkit's input state.
func replay(io *ui.IO, m Message) {
	switch m.ID {
	case WM_MOUSEMOVE:
		io.MousePos = ui.Vec2{X: float32(int16(loword(m.LParam))), Y: float32(int16(hiword(m.LParam)))}
	case WM_MOUSELEAVE:
		io.MousePos = ui.MousePosInvalid
	case WM_LBUTTONDOWN, WM_LBUTTONDBLCLK:
		io.SetMouseButton(0, true)
	case WM_LBUTTONUP:
		io.SetMouseButton(0, false)
	case WM_RBUTTONDOWN, WM_RBUTTONDBLCLK:
		io.SetMouseButton(1, true)
	case WM_RBUTTONUP:
		io.SetMouseButton(1, false)
	case WM_MBUTTONDOWN, WM_MBUTTONDBLCLK:
		io.SetMouseButton(2, true)
	case WM_MBUTTONUP:
		io.SetMouseButton(2, false)
	case WM_XBUTTONDOWN, WM_XBUTTONDBLCLK:
		io.SetMouseButton(xButton(m.WParam), true)
	case WM_XBUTTONUP:
		io.SetMouseButton(xButton(m.WParam), false)
	case WM_MOUSEWHEEL:
		io.MouseWheel += float32(int16(hiword(m.WParam))) / wheelDelta
	case WM_MOUSEHWHEEL:
		io.MouseWheelH += float32(int16(hiword(m.WParam))) / wheelDelta
	case WM_KEYDOWN, WM_SYSKEYDOWN:
		io.SetKey(int(m.WParam), true)
		modifiers(io)
	case WM_KEYUP, WM_SYSKEYUP:
		io.SetKey(int(m.WParam), false)
		modifiers(io)
	case WM_CHAR:
		io.AddInputCharacterUTF16(uint16(m.WParam))
	case WM_UNICHAR:
		if m.WParam != unicodeNoChar {
			io.AddInputCharacter(rune(m.WParam))
		}
	case WM_SETFOCUS:
		io.Focused = true
	case WM_KILLFOCUS:
		io.Focused = false
		io.ClearKeys()
	case WM_SIZE:
		if m.WParam != sizeMinimized {
			io.DisplaySize = ui.Vec2{X: float32(loword(m.LParam)), Y: float32(hiword(m.LParam))}
		}
	}
}

func xButton(wparam uintptr) int {
	if hiword(wparam) == xButton1 {
		return 3
	}
	return 4
}

func modifiers(io *ui.IO) {
	io.KeyShift = io.KeysDown[vkShift]
	io.KeyCtrl = io.KeysDown[vkControl]
	io.KeyAlt = io.KeysDown[vkMenu]
	io.KeySuper = io.KeysDown[vkLWin] || io.KeysDown[vkRWin]
}
