package vtable

import (
	"fmt"
	"syscall"
)

// IUnknown slots.
const (
	QueryInterfaceIndex = 0
	AddRefIndex         = 1
	ReleaseIndex        = 2
)

// HResultError is a failed HRESULT returned by a method call.
type HResultError struct {
	Index int
	Code  uint32
}

func (e *HResultError) Error() string {
	return fmt.Sprintf("vtable[%d] HRESULT 0x%08X", e.Index, e.Code)
}

// Call invokes the method at index with obj as the implicit this argument.
// A negative HRESULT is returned as *HResultError. Methods that do not return
// an HRESULT should go through Invoke.
func Call(obj uintptr, index int, args ...uintptr) (uintptr, error) {
	ret, err := Invoke(obj, index, args...)
	if err != nil {
		return 0, err
	}
	if int32(ret) < 0 {
		return ret, &HResultError{Index: index, Code: uint32(ret)}
	}
	return ret, nil
}

// Invoke calls the method at index and returns its raw result.
func Invoke(obj uintptr, index int, args ...uintptr) (uintptr, error) {
	fn, err := Slot(obj, index)
	if err != nil {
		return 0, err
	}
	var ret uintptr
	switch len(args) {
	case 0:
		ret, _, _ = syscall.SyscallN(fn, obj)
	case 1:
		ret, _, _ = syscall.SyscallN(fn, obj, args[0])
	case 2:
		ret, _, _ = syscall.SyscallN(fn, obj, args[0], args[1])
	default:
		all := make([]uintptr, 0, 1+len(args))
		all = append(all, obj)
		all = append(all, args...)
		ret, _, _ = syscall.SyscallN(fn, all...)
	}
	return ret, nil
}

// Release calls IUnknown::Release. A zero obj is ignored.
func Release(obj uintptr) {
	if obj != 0 {
		_, _ = Invoke(obj, ReleaseIndex)
	}
}

func AddRef(obj uintptr) {
	if obj != 0 {
		_, _ = Invoke(obj, AddRefIndex)
	}
}

// QueryInterface asks obj for the interface iid and returns the new reference.
func QueryInterface(obj uintptr, iid *GUID) (uintptr, error) {
	var out uintptr
	_, err := Call(obj, QueryInterfaceIndex, Ptr(iid), Ptr(&out))
	return out, err
}
