package hook

import "syscall"

type nativeCaller struct{}

func (nativeCaller) Call(addr uintptr, args ...uintptr) uintptr {
	r, _, _ := syscall.SyscallN(addr, args...)
	return r
}

func defaultCaller() Caller {
	return nativeCaller{}
}
