package vtable

import "unsafe"

// GUID is laid out like the native GUID struct.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// Ptr returns the address of v for passing to a native call. v is moved to
// the heap, so the address stays valid when the calling goroutine's stack
// grows before the call is made. The caller keeps v alive until the call
// returns.
func Ptr[T any](v *T) uintptr {
	escapes(v)
	return uintptr(unsafe.Pointer(v))
}

// escapes makes x escape to the heap. The store never happens.
func escapes(x any) {
	if sink.b {
		sink.x = x
	}
}

var sink struct {
	b bool
	x any
}
