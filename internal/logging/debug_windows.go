package logging

import (
	"bytes"
	"io"
	"unsafe"

	"golang.org/x/sys/windows"
)

var procOutputDebugStringW = windows.NewLazySystemDLL("kernel32.dll").NewProc("OutputDebugStringW")

// debugWriter sends each line to the attached debugger or DebugView.
type debugWriter struct{}

func debugOutput() io.Writer {
	if procOutputDebugStringW.Find() != nil {
		return nil
	}
	return debugWriter{}
}

func (debugWriter) Write(p []byte) (int, error) {
	for _, line := range bytes.SplitAfter(p, []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		s, err := windows.UTF16PtrFromString(string(bytes.ReplaceAll(line, []byte{0}, nil)))
		if err != nil {
			return 0, err
		}
		procOutputDebugStringW.Call(uintptr(unsafe.Pointer(s)))
	}
	return len(p), nil
}
