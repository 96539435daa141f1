package hook

// Memory is the patching primitive every hook writes code through.
type Memory interface {
	Read(addr uintptr, n int) ([]byte, error)
	// Write stores data at addr, lifting page protection for the duration of the copy.
	Write(addr uintptr, data []byte) error
	// AllocNear returns executable memory within rel32 reach of addr, or ErrNoNearMemory.
	AllocNear(addr uintptr, size int) (uintptr, error)
	// Alloc returns executable memory anywhere in the address space.
	Alloc(size int) (uintptr, error)
	Free(addr uintptr) error
	// Freeze suspends every other thread of the process until thaw is called.
	Freeze() (thaw func(), err error)
}

// Caller invokes native code.
type Caller interface {
	Call(addr uintptr, args ...uintptr) uintptr
}

// Bounds reports the size of the function starting at addr when it is known.
type Bounds interface {
	FuncSize(addr uintptr) (uint32, error)
}
