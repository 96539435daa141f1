package vtable

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObject struct {
	tbl *[6]uintptr
}

func newFake() (*fakeObject, uintptr) {
	tbl := &[6]uintptr{0x1000, 0x1010, 0x1020, 0x1030, 0x1040, 0x1050}
	o := &fakeObject{tbl: tbl}
	return o, uintptr(unsafe.Pointer(o))
}

func TestSlotReadsTable(t *testing.T) {
	o, obj := newFake()

	tbl, err := Table(obj)
	require.NoError(t, err)
	assert.Equal(t, uintptr(unsafe.Pointer(o.tbl)), tbl)

	for i, want := range o.tbl {
		got, err := Slot(obj, i)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestSlotsPreservesOrder(t *testing.T) {
	_, obj := newFake()
	got, err := Slots(obj, 5, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []uintptr{0x1050, 0x1000, 0x1030}, got)
}

func TestNilObject(t *testing.T) {
	_, err := Slot(0, 1)
	assert.ErrorIs(t, err, ErrNilObject)

	empty := &fakeObject{}
	_, err = Slots(uintptr(unsafe.Pointer(empty)), 0)
	assert.ErrorIs(t, err, ErrNilObject)
}

//go:noinline
func deepStack(n int) byte {
	var frame [512]byte
	frame[n%len(frame)] = byte(n)
	if n == 0 {
		return frame[0]
	}
	return deepStack(n-1) + frame[n%len(frame)]
}

func TestPtrSurvivesStackGrowth(t *testing.T) {
	var out struct{ a, b uint64 }
	p := Ptr(&out)
	deepStack(256)

	out.a, out.b = 7, 9
	assert.Equal(t, uintptr(unsafe.Pointer(&out)), p)
	assert.Equal(t, uint64(9), (*struct{ a, b uint64 })(unsafe.Pointer(p)).b)
}
