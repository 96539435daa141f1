package hook

import (
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/saferwall/pe"
	"golang.org/x/sys/windows"
)

// peBounds sizes functions from the exception directory of the module that
// contains them. Every non-leaf x64 function has a RUNTIME_FUNCTION entry.
type peBounds struct {
	mu      sync.Mutex
	modules map[uintptr]map[uint32]uint32 // module base -> begin rva -> size
}

func defaultBounds() Bounds {
	if nativeArch().Mode != 64 {
		return nil
	}
	return &peBounds{modules: make(map[uintptr]map[uint32]uint32)}
}

func moduleOf(addr uintptr) (uintptr, string, error) {
	var h windows.Handle
	const flags = windows.GET_MODULE_HANDLE_EX_FLAG_FROM_ADDRESS | windows.GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT
	if err := windows.GetModuleHandleEx(flags, (*uint16)(unsafe.Pointer(addr)), &h); err != nil {
		return 0, "", errors.Wrapf(err, "GetModuleHandleEx %#x", addr)
	}
	buf := make([]uint16, windows.MAX_PATH)
	n, err := windows.GetModuleFileName(h, &buf[0], uint32(len(buf)))
	if err != nil {
		return 0, "", errors.Wrap(err, "GetModuleFileName")
	}
	return uintptr(h), windows.UTF16ToString(buf[:n]), nil
}

func loadRuntimeFunctions(path string) (map[uint32]uint32, error) {
	f, err := pe.New(path, &pe.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	if err = f.Parse(); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	out := make(map[uint32]uint32, len(f.Exceptions))
	for _, e := range f.Exceptions {
		rf := e.RuntimeFunction
		if rf.EndAddress > rf.BeginAddress {
			out[rf.BeginAddress] = rf.EndAddress - rf.BeginAddress
		}
	}
	return out, nil
}

func (b *peBounds) FuncSize(addr uintptr) (uint32, error) {
	base, path, err := moduleOf(addr)
	if err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	funcs, ok := b.modules[base]
	if !ok {
		if funcs, err = loadRuntimeFunctions(path); err != nil {
			return 0, err
		}
		b.modules[base] = funcs
	}
	size, ok := funcs[uint32(addr-base)]
	if !ok {
		return 0, errors.Errorf("no runtime function at %#x", addr)
	}
	return size, nil
}
