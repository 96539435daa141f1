package locator

import (
	"github.com/pkg/errors"

	"github.com/brahma-adshonor/overhook/internal/d3d"
	"github.com/brahma-adshonor/overhook/vtable"
)

// LocateDX9 returns the IDirect3DDevice9 EndScene, Reset and Present
// entry points.
func LocateDX9() (DX9Targets, error) {
	if err := d3d.ProcDirect3DCreate9.Find(); err != nil {
		return DX9Targets{}, &CallError{Call: "Direct3DCreate9", Err: err}
	}
	w, err := newDummyWindow()
	if err != nil {
		return DX9Targets{}, err
	}
	defer w.Close()

	d3d9, _, _ := d3d.ProcDirect3DCreate9.Call(d3d.SDKVersion9)
	if d3d9 == 0 {
		return DX9Targets{}, &CallError{Call: "Direct3DCreate9"}
	}
	defer vtable.Release(d3d9)

	pp := d3d.PresentParameters{
		BackBufferFormat: d3d.Fmt9Unknown,
		SwapEffect:       d3d.SwapEffect9Discard,
		DeviceWindow:     w.Handle(),
		Windowed:         1,
	}
	var device uintptr
	_, err = vtable.Call(d3d9, d3d.Direct3D9CreateDevice,
		0, d3d.DevTypeHAL, w.Handle(),
		d3d.CreateSoftwareVertexProcessing|d3d.CreateDisableDriverManagement,
		vtable.Ptr(&pp), vtable.Ptr(&device))
	if err != nil {
		return DX9Targets{}, comError("IDirect3D9::CreateDevice", err)
	}
	defer vtable.Release(device)

	slots, err := vtable.Slots(device, d3d.Device9EndScene, d3d.Device9Reset, d3d.Device9Present)
	if err != nil {
		return DX9Targets{}, &CallError{Call: "IDirect3DDevice9 vtable", Err: err}
	}
	return DX9Targets{EndScene: slots[0], Reset: slots[1], Present: slots[2]}, nil
}

func comError(call string, err error) *CallError {
	var hr *vtable.HResultError
	if errors.As(err, &hr) {
		return &CallError{Call: call, Code: hr.Code}
	}
	return &CallError{Call: call, Err: err}
}
