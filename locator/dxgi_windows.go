package locator

import (
	"github.com/brahma-adshonor/overhook/internal/d3d"
	"github.com/brahma-adshonor/overhook/vtable"
)

func swapChainDesc(hwnd uintptr, buffers uint32, effect uint32) d3d.SwapChainDesc {
	return d3d.SwapChainDesc{
		BufferDesc:   d3d.ModeDesc{Width: 100, Height: 100, Format: d3d.FormatR8G8B8A8UNorm},
		SampleDesc:   d3d.SampleDesc{Count: 1},
		BufferUsage:  d3d.UsageRenderTargetOutput,
		BufferCount:  buffers,
		OutputWindow: hwnd,
		Windowed:     1,
		SwapEffect:   effect,
	}
}

func swapChainTargets(sc uintptr) (DXGITargets, error) {
	slots, err := vtable.Slots(sc, d3d.SwapChainPresent, d3d.SwapChainResizeBuffers)
	if err != nil {
		return DXGITargets{}, &CallError{Call: "IDXGISwapChain vtable", Err: err}
	}
	return DXGITargets{Present: slots[0], ResizeBuffers: slots[1]}, nil
}

// LocateDX11 returns IDXGISwapChain Present and ResizeBuffers from a swap
// chain created with a D3D11 device. A WARP device is tried when no
// hardware device can be created.
func LocateDX11() (DXGITargets, error) {
	if err := d3d.ProcD3D11CreateDeviceAndSwapChain.Find(); err != nil {
		return DXGITargets{}, &CallError{Call: "D3D11CreateDeviceAndSwapChain", Err: err}
	}
	w, err := newDummyWindow()
	if err != nil {
		return DXGITargets{}, err
	}
	defer w.Close()

	levels := [...]uint32{d3d.FeatureLevel11_0, d3d.FeatureLevel10_0}
	desc := swapChainDesc(w.Handle(), 1, d3d.SwapEffectDiscard)
	var hr uintptr
	for _, driver := range []uintptr{d3d.DriverTypeHardware, d3d.DriverTypeWARP} {
		var sc, device, context uintptr
		var level uint32
		hr, _, _ = d3d.ProcD3D11CreateDeviceAndSwapChain.Call(
			0, driver, 0, 0,
			vtable.Ptr(&levels[0]), uintptr(len(levels)),
			d3d.SDKVersion11,
			vtable.Ptr(&desc),
			vtable.Ptr(&sc), vtable.Ptr(&device), vtable.Ptr(&level), vtable.Ptr(&context),
		)
		if int32(hr) < 0 {
			continue
		}
		t, err := swapChainTargets(sc)
		vtable.Release(context)
		vtable.Release(device)
		vtable.Release(sc)
		return t, err
	}
	return DXGITargets{}, hresultError("D3D11CreateDeviceAndSwapChain", hr)
}

// LocateDX12 returns the swap chain entry points of a flip model swap chain
// created on a D3D12 direct queue, plus ExecuteCommandLists of that queue.
func LocateDX12() (DX12Targets, error) {
	for _, p := range []interface{ Find() error }{d3d.ProcD3D12CreateDevice, d3d.ProcCreateDXGIFactory1} {
		if err := p.Find(); err != nil {
			return DX12Targets{}, &CallError{Call: "load d3d12/dxgi", Err: err}
		}
	}
	w, err := newDummyWindow()
	if err != nil {
		return DX12Targets{}, err
	}
	defer w.Close()

	var factory uintptr
	if hr, _, _ := d3d.ProcCreateDXGIFactory1.Call(vtable.Ptr(&d3d.IIDFactory1), vtable.Ptr(&factory)); int32(hr) < 0 {
		return DX12Targets{}, hresultError("CreateDXGIFactory1", hr)
	}
	defer vtable.Release(factory)

	var device uintptr
	hr, _, _ := d3d.ProcD3D12CreateDevice.Call(0, d3d.FeatureLevel11_0, vtable.Ptr(&d3d.IIDD3D12Device), vtable.Ptr(&device))
	if int32(hr) < 0 {
		return DX12Targets{}, hresultError("D3D12CreateDevice", hr)
	}
	defer vtable.Release(device)

	qdesc := d3d.CommandQueueDesc{Type: d3d.CommandListTypeDirect}
	var queue uintptr
	if _, err := vtable.Call(device, d3d.Device12CreateCommandQueue,
		vtable.Ptr(&qdesc), vtable.Ptr(&d3d.IIDCommandQueue), vtable.Ptr(&queue)); err != nil {
		return DX12Targets{}, comError("ID3D12Device::CreateCommandQueue", err)
	}
	defer vtable.Release(queue)

	desc := swapChainDesc(w.Handle(), 2, d3d.SwapEffectFlipDiscard)
	var sc uintptr
	if _, err := vtable.Call(factory, d3d.FactoryCreateSwapChain,
		queue, vtable.Ptr(&desc), vtable.Ptr(&sc)); err != nil {
		return DX12Targets{}, comError("IDXGIFactory::CreateSwapChain", err)
	}
	defer vtable.Release(sc)

	t, err := swapChainTargets(sc)
	if err != nil {
		return DX12Targets{}, err
	}
	exec, err := vtable.Slot(queue, d3d.CommandQueueExecuteCommandLists)
	if err != nil {
		return DX12Targets{}, &CallError{Call: "ID3D12CommandQueue vtable", Err: err}
	}
	return DX12Targets{DXGITargets: t, ExecuteCommandLists: exec}, nil
}
