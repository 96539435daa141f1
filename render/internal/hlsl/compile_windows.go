package hlsl

import (
	"strings"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/brahma-adshonor/overhook/internal/d3d"
	"github.com/brahma-adshonor/overhook/vtable"
)

var procD3DCompile = windows.NewLazySystemDLL("d3dcompiler_47.dll").NewProc("D3DCompile")

const optimizationLevel3 = 1 << 15

// Compile returns the bytecode of src's main function for target.
func Compile(src, target string) ([]byte, error) {
	if err := procD3DCompile.Find(); err != nil {
		return nil, errors.Wrap(err, "d3dcompiler_47.dll")
	}
	code := []byte(src)
	entry, _ := windows.BytePtrFromString("main")
	prof, err := windows.BytePtrFromString(target)
	if err != nil {
		return nil, err
	}

	var blob, diag uintptr
	hr, _, _ := procD3DCompile.Call(
		uintptr(unsafe.Pointer(&code[0])), uintptr(len(code)),
		0, 0, 0,
		uintptr(unsafe.Pointer(entry)), uintptr(unsafe.Pointer(prof)),
		optimizationLevel3, 0,
		vtable.Ptr(&blob), vtable.Ptr(&diag),
	)
	defer vtable.Release(diag)
	if int32(hr) < 0 {
		msg := strings.TrimRight(string(d3d.BlobBytes(diag)), "\x00\r\n")
		return nil, errors.Errorf("D3DCompile %s HRESULT 0x%08X: %s", target, uint32(hr), msg)
	}
	defer vtable.Release(blob)
	return d3d.BlobBytes(blob), nil
}
