// Package vtable reads and calls through COM style dispatch tables. It is the
// only place that turns object pointers into function pointers.
package vtable

import (
	"unsafe"

	"github.com/pkg/errors"
)

var ErrNilObject = errors.New("nil object")

const ptrSize = unsafe.Sizeof(uintptr(0))

// Table returns the dispatch table of obj, the first pointer sized word of
// the object.
func Table(obj uintptr) (uintptr, error) {
	if obj == 0 {
		return 0, ErrNilObject
	}
	tbl := *(*uintptr)(unsafe.Pointer(obj))
	if tbl == 0 {
		return 0, errors.WithMessagef(ErrNilObject, "object %#x has no table", obj)
	}
	return tbl, nil
}

// Slot returns the function pointer at index in the dispatch table of obj.
func Slot(obj uintptr, index int) (uintptr, error) {
	tbl, err := Table(obj)
	if err != nil {
		return 0, err
	}
	return *(*uintptr)(unsafe.Pointer(tbl + uintptr(index)*ptrSize)), nil
}

// Slots reads several slots of the same table.
func Slots(obj uintptr, indexes ...int) ([]uintptr, error) {
	tbl, err := Table(obj)
	if err != nil {
		return nil, err
	}
	out := make([]uintptr, len(indexes))
	for i, idx := range indexes {
		out[i] = *(*uintptr)(unsafe.Pointer(tbl + uintptr(idx)*ptrSize))
	}
	return out, nil
}
