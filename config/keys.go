package config

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var namedKeys = map[string]int{
	"BACKSPACE":  0x08,
	"TAB":        0x09,
	"ENTER":      0x0d,
	"PAUSE":      0x13,
	"CAPSLOCK":   0x14,
	"ESCAPE":     0x1b,
	"SPACE":      0x20,
	"PAGEUP":     0x21,
	"PAGEDOWN":   0x22,
	"END":        0x23,
	"HOME":       0x24,
	"LEFT":       0x25,
	"UP":         0x26,
	"RIGHT":      0x27,
	"DOWN":       0x28,
	"INSERT":     0x2d,
	"DELETE":     0x2e,
	"SCROLLLOCK": 0x91,
	"OEM3":       0xc0, // `~ on US layouts
}

// ParseKey turns a key name into a Windows virtual-key code. It accepts the
// names above, F1..F24, single letters and digits, and 0x-prefixed codes.
func ParseKey(name string) (int, error) {
	s := strings.ToUpper(strings.TrimSpace(name))
	if vk, ok := namedKeys[s]; ok {
		return vk, nil
	}
	if len(s) == 1 && (s[0] >= 'A' && s[0] <= 'Z' || s[0] >= '0' && s[0] <= '9') {
		return int(s[0]), nil
	}
	if n, ok := strings.CutPrefix(s, "F"); ok {
		if i, err := strconv.Atoi(n); err == nil && i >= 1 && i <= 24 {
			return 0x70 + i - 1, nil
		}
	}
	if strings.HasPrefix(s, "0X") {
		if v, err := strconv.ParseUint(s[2:], 16, 8); err == nil && v != 0 {
			return int(v), nil
		}
	}
	return 0, errors.WithMessagef(ErrInvalid, "overlay.toggle_key %q", name)
}
