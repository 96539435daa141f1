// Package hooktest provides an in-memory address space and a small x86-64
// interpreter so hooks can be created, enabled and called without touching
// the memory of the test process.
package hooktest

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/brahma-adshonor/overhook/hook"
)

// FarDistance separates the far allocation segment from the code segment,
// well outside rel32 reach.
var FarDistance uint64 = 0x4_0000_0000

const fill = 0xcc

type segment struct {
	base uintptr
	data []byte
}

func (s *segment) contains(addr uintptr, n int) bool {
	return addr >= s.base && addr+uintptr(n) <= s.base+uintptr(len(s.data))
}

// Arena implements hook.Memory over byte slices mapped at fake addresses.
// The code segment holds placed functions in its lower half and near
// allocations in its upper half. Alloc draws from a far segment.
type Arena struct {
	mu sync.Mutex

	segs     []*segment
	code     *segment
	far      *segment
	place    uintptr
	mid      uintptr
	near     uintptr
	farNext  uintptr
	allocs   map[uintptr]int
	failures map[uintptr]error

	// NoNear makes AllocNear fail with hook.ErrNoNearMemory.
	NoNear bool

	Writes  int
	Freezes int
	Thaws   int
}

var _ hook.Memory = (*Arena)(nil)

func NewArena(base uintptr, size int) *Arena {
	a := &Arena{
		allocs:   make(map[uintptr]int),
		failures: make(map[uintptr]error),
	}
	a.code = a.mapSegment(base, size)
	a.far = a.mapSegment(base+uintptr(FarDistance), size)
	a.place = base
	a.mid = base + uintptr(size/2)
	a.near = a.mid
	a.farNext = a.far.base
	return a
}

// Map adds a segment filled with int3, e.g. for a stack.
func (a *Arena) Map(base uintptr, size int) {
	a.mapSegment(base, size)
}

func (a *Arena) mapSegment(base uintptr, size int) *segment {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := &segment{base: base, data: make([]byte, size)}
	for i := range s.data {
		s.data[i] = fill
	}
	a.segs = append(a.segs, s)
	sort.Slice(a.segs, func(i, j int) bool { return a.segs[i].base < a.segs[j].base })
	return s
}

func (a *Arena) find(addr uintptr, n int) (*segment, error) {
	for _, s := range a.segs {
		if s.contains(addr, n) {
			return s, nil
		}
	}
	return nil, errors.WithMessagef(hook.ErrOutOfRange, "%#x+%d", addr, n)
}

// Place copies code into the code segment at a 16 byte boundary.
func (a *Arena) Place(code []byte) uintptr {
	a.mu.Lock()
	defer a.mu.Unlock()
	addr := a.place
	s, err := a.find(addr, len(code))
	if err != nil || addr+uintptr(len(code)) > a.mid {
		panic(fmt.Sprintf("hooktest: code segment full placing %d bytes", len(code)))
	}
	copy(s.data[addr-s.base:], code)
	a.place = (addr + uintptr(len(code)) + 15) &^ 15
	return addr
}

// FailWrites makes every later Write touching addr return err.
func (a *Arena) FailWrites(addr uintptr, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures[addr] = err
}

// Bytes returns a copy of n bytes at addr and panics when unmapped.
func (a *Arena) Bytes(addr uintptr, n int) []byte {
	b, err := a.Read(addr, n)
	if err != nil {
		panic(err)
	}
	return b
}

func (a *Arena) Read(addr uintptr, n int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range a.segs {
		if addr >= s.base && addr < s.base+uintptr(len(s.data)) {
			end := min(int(addr-s.base)+n, len(s.data))
			return append([]byte(nil), s.data[addr-s.base:end]...), nil
		}
	}
	return nil, errors.WithMessagef(hook.ErrOutOfRange, "%#x", addr)
}

func (a *Arena) Write(addr uintptr, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.failures[addr]; err != nil {
		return err
	}
	s, err := a.find(addr, len(data))
	if err != nil {
		return err
	}
	copy(s.data[addr-s.base:], data)
	a.Writes++
	return nil
}

func (a *Arena) AllocNear(addr uintptr, size int) (uintptr, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.NoNear {
		return 0, errors.WithMessagef(hook.ErrNoNearMemory, "target %#x", addr)
	}
	p := a.near
	if !a.code.contains(p, size) {
		return 0, errors.WithMessagef(hook.ErrNoNearMemory, "code segment full")
	}
	a.near = (p + uintptr(size) + 15) &^ 15
	a.allocs[p] = size
	return p, nil
}

func (a *Arena) Alloc(size int) (uintptr, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p := a.farNext
	if !a.far.contains(p, size) {
		return 0, errors.New("far segment full")
	}
	a.farNext = (p + uintptr(size) + 15) &^ 15
	a.allocs[p] = size
	return p, nil
}

func (a *Arena) Free(addr uintptr) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	size, ok := a.allocs[addr]
	if !ok {
		return errors.Errorf("free of unallocated %#x", addr)
	}
	delete(a.allocs, addr)
	s, err := a.find(addr, size)
	if err != nil {
		return err
	}
	for i := range size {
		s.data[int(addr-s.base)+i] = fill
	}
	return nil
}

// Live is the number of allocations not yet freed.
func (a *Arena) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.allocs)
}

func (a *Arena) Freeze() (func(), error) {
	a.mu.Lock()
	a.Freezes++
	a.mu.Unlock()
	return func() {
		a.mu.Lock()
		a.Thaws++
		a.mu.Unlock()
	}, nil
}
