//go:build unix

package hook

import (
	"sync"
	"unsafe"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

type nativeMemory struct {
	mu       sync.Mutex
	mappings map[uintptr]mmap.MMap
}

// NativeMemory patches the memory of the running process.
func NativeMemory() Memory {
	return &nativeMemory{mappings: make(map[uintptr]mmap.MMap)}
}

func pageRange(addr uintptr, n int) (uintptr, uintptr) {
	size := uintptr(unix.Getpagesize())
	start := addr &^ (size - 1)
	end := (addr + uintptr(n) + size - 1) &^ (size - 1)
	return start, end
}

func setPageProt(addr uintptr, n int, prot int) error {
	start, end := pageRange(addr, n)
	page := unsafe.Slice((*byte)(unsafe.Pointer(start)), end-start)
	return unix.Mprotect(page, prot)
}

// mappedLen returns how many of the n bytes at addr lie in mapped pages;
// msync fails with ENOMEM on the first page that is not.
func mappedLen(addr uintptr, n int) int {
	size := uintptr(unix.Getpagesize())
	start, end := pageRange(addr, n)
	for p := start; p < end; p += size {
		page := unsafe.Slice((*byte)(unsafe.Pointer(p)), size)
		if unix.Msync(page, unix.MS_ASYNC) != nil {
			if p <= addr {
				return 0
			}
			return int(p - addr)
		}
	}
	return n
}

func (m *nativeMemory) Read(addr uintptr, n int) ([]byte, error) {
	n = mappedLen(addr, n)
	if n == 0 {
		return nil, errors.WithMessagef(ErrOutOfRange, "%#x is not mapped", addr)
	}
	out := make([]byte, n)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(addr)), n))
	return out, nil
}

func (m *nativeMemory) Write(addr uintptr, data []byte) error {
	if err := setPageProt(addr, len(data), unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC); err != nil {
		return errors.Wrapf(err, "mprotect rwx %#x", addr)
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(addr)), len(data)), data)
	if err := setPageProt(addr, len(data), unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return errors.Wrapf(err, "mprotect rx %#x", addr)
	}
	return nil
}

// AllocNear is not supported: anonymous mappings take no placement hint here.
func (m *nativeMemory) AllocNear(addr uintptr, size int) (uintptr, error) {
	return 0, errors.WithMessagef(ErrNoNearMemory, "target %#x", addr)
}

func (m *nativeMemory) Alloc(size int) (uintptr, error) {
	region, err := mmap.MapRegion(nil, size, mmap.RDWR|mmap.EXEC, mmap.ANON, 0)
	if err != nil {
		return 0, errors.Wrap(err, "mmap")
	}
	addr := uintptr(unsafe.Pointer(&region[0]))
	m.mu.Lock()
	m.mappings[addr] = region
	m.mu.Unlock()
	return addr, nil
}

func (m *nativeMemory) Free(addr uintptr) error {
	m.mu.Lock()
	region, ok := m.mappings[addr]
	delete(m.mappings, addr)
	m.mu.Unlock()
	if !ok {
		return errors.WithMessagef(ErrOutOfRange, "%#x was not allocated here", addr)
	}
	return errors.Wrap(region.Unmap(), "munmap")
}

func (m *nativeMemory) Freeze() (func(), error) {
	return func() {}, nil
}
