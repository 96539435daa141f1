package hook

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func munmap(t *testing.T, addr uintptr, n int) {
	t.Helper()
	_, _, errno := unix.Syscall(unix.SYS_MUNMAP, addr, uintptr(n), 0)
	if errno != 0 {
		t.Fatalf("munmap %#x: %v", addr, errno)
	}
}

func TestReadStopsAtMappingEnd(t *testing.T) {
	page := unix.Getpagesize()
	addr, _, errno := unix.Syscall6(unix.SYS_MMAP, 0, uintptr(2*page),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE, ^uintptr(0), 0)
	require.Zero(t, errno)
	munmap(t, addr+uintptr(page), page)
	defer munmap(t, addr, page)

	tail := unsafe.Slice((*byte)(unsafe.Pointer(addr+uintptr(page-4))), 4)
	copy(tail, []byte{0x48, 0x31, 0xc0, 0xc3})

	got, err := NativeMemory().Read(addr+uintptr(page-4), 5+maxInstLen)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x48, 0x31, 0xc0, 0xc3}, got)

	_, err = NativeMemory().Read(addr+uintptr(page), 4)
	assert.ErrorIs(t, err, ErrOutOfRange)

	got, err = NativeMemory().Read(addr, 8)
	require.NoError(t, err)
	assert.Len(t, got, 8)
}
