package hooks

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/lxn/win"
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/brahma-adshonor/overhook/config"
	"github.com/brahma-adshonor/overhook/internal/d3d"
	"github.com/brahma-adshonor/overhook/locator"
	"github.com/brahma-adshonor/overhook/render"
	"github.com/brahma-adshonor/overhook/render/dx11"
	"github.com/brahma-adshonor/overhook/render/dx12"
	"github.com/brahma-adshonor/overhook/render/dx9"
	"github.com/brahma-adshonor/overhook/render/opengl"
	"github.com/brahma-adshonor/overhook/vtable"
)

var procWindowFromDC = windows.NewLazySystemDLL("user32.dll").NewProc("WindowFromDC")

func moduleLoaded(name string) bool {
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return false
	}
	return win.GetModuleHandle(p) != 0
}

func byName(name string) (Backend, error) {
	switch name {
	case config.BackendDX9:
		return DX9{}, nil
	case config.BackendDX11:
		return DX11{}, nil
	case config.BackendDX12:
		return DX12{}, nil
	case config.BackendOpenGL:
		return OpenGL{}, nil
	}
	return nil, errors.WithMessagef(ErrUnknownBackend, "%q", name)
}

// Native callbacks are never freed, so each detour is made once.
var (
	endSceneDetour            = sync.OnceValue(func() uintptr { return windows.NewCallback(endScene) })
	resetDetour               = sync.OnceValue(func() uintptr { return windows.NewCallback(reset) })
	dx11PresentDetour         = sync.OnceValue(func() uintptr { return windows.NewCallback(dx11Present) })
	dx12PresentDetour         = sync.OnceValue(func() uintptr { return windows.NewCallback(dx12Present) })
	resizeBuffersDetour       = sync.OnceValue(func() uintptr { return windows.NewCallback(resizeBuffers) })
	executeCommandListsDetour = sync.OnceValue(func() uintptr { return windows.NewCallback(executeCommandLists) })
	swapBuffersDetour         = sync.OnceValue(func() uintptr { return windows.NewCallback(swapBuffers) })
)

// DX9 draws at the end of the scene and drops its resources before a
// device reset.
type DX9 struct{}

func (DX9) Name() string { return config.BackendDX9 }

func (DX9) Bindings() ([]Binding, error) {
	t, err := locator.LocateDX9()
	if err != nil {
		return nil, err
	}
	return []Binding{
		{Name: NameEndScene, Target: t.EndScene, Detour: endSceneDetour()},
		{Name: NameReset, Target: t.Reset, Detour: resetDetour()},
	}, nil
}

func endScene(device uintptr) uintptr {
	return OnPresent(Present{
		Window:    deviceWindow(device),
		NewEngine: func() (render.Engine, error) { return dx9.New(device) },
		Original:  func() uintptr { return Call(NameEndScene, device) },
	})
}

func deviceWindow(device uintptr) uintptr {
	var cp d3d.CreationParameters
	if _, err := vtable.Call(device, d3d.Device9GetCreationParameters, vtable.Ptr(&cp)); err != nil {
		return 0
	}
	return cp.FocusWindow
}

func reset(device, params uintptr) uintptr {
	var w, h uint32
	if params != 0 {
		pp := (*d3d.PresentParameters)(unsafe.Pointer(params))
		w, h = pp.BackBufferWidth, pp.BackBufferHeight
	}
	return OnResize(w, h, func() uintptr { return Call(NameReset, device, params) })
}

// DX11 draws before each swap chain present.
type DX11 struct{}

func (DX11) Name() string { return config.BackendDX11 }

func (DX11) Bindings() ([]Binding, error) {
	t, err := locator.LocateDX11()
	if err != nil {
		return nil, err
	}
	return []Binding{
		{Name: NamePresent, Target: t.Present, Detour: dx11PresentDetour()},
		{Name: NameResizeBuffers, Target: t.ResizeBuffers, Detour: resizeBuffersDetour()},
	}, nil
}

func dx11Present(swapChain, interval, flags uintptr) uintptr {
	return OnPresent(Present{
		Window:    outputWindow(swapChain),
		NewEngine: func() (render.Engine, error) { return dx11.New(swapChain) },
		Original:  func() uintptr { return Call(NamePresent, swapChain, interval, flags) },
	})
}

func outputWindow(swapChain uintptr) uintptr {
	var desc d3d.SwapChainDesc
	if _, err := vtable.Call(swapChain, d3d.SwapChainGetDesc, vtable.Ptr(&desc)); err != nil {
		return 0
	}
	return desc.OutputWindow
}

func resizeBuffers(swapChain, count, w, h, format, flags uintptr) uintptr {
	return OnResize(uint32(w), uint32(h), func() uintptr {
		return Call(NameResizeBuffers, swapChain, count, w, h, format, flags)
	})
}

// directQueue is the first direct command queue seen submitting work. The
// D3D12 engine submits on it.
var directQueue atomic.Uintptr

// DX12 draws before each present like DX11 and watches command submission
// for the queue to draw on. No engine can be built before a direct queue
// has executed a command list.
type DX12 struct{}

func (DX12) Name() string { return config.BackendDX12 }

func (DX12) Bindings() ([]Binding, error) {
	t, err := locator.LocateDX12()
	if err != nil {
		return nil, err
	}
	directQueue.Store(0)
	return []Binding{
		{Name: NamePresent, Target: t.Present, Detour: dx12PresentDetour()},
		{Name: NameResizeBuffers, Target: t.ResizeBuffers, Detour: resizeBuffersDetour()},
		{Name: NameExecuteCommandLists, Target: t.ExecuteCommandLists, Detour: executeCommandListsDetour()},
	}, nil
}

var errNoQueue = errors.New("no direct command queue seen yet")

func dx12Present(swapChain, interval, flags uintptr) uintptr {
	return OnPresent(Present{
		Window: outputWindow(swapChain),
		NewEngine: func() (render.Engine, error) {
			q := directQueue.Load()
			if q == 0 {
				return nil, errNoQueue
			}
			return dx12.New(swapChain, q)
		},
		Original: func() uintptr { return Call(NamePresent, swapChain, interval, flags) },
	})
}

func executeCommandLists(queue, n, lists uintptr) uintptr {
	defer Track()()
	if directQueue.Load() == 0 {
		var desc d3d.CommandQueueDesc
		vtable.Invoke(queue, d3d.CommandQueueGetDesc, vtable.Ptr(&desc))
		if desc.Type == d3d.CommandListTypeDirect {
			directQueue.CompareAndSwap(0, queue)
		}
	}
	return Call(NameExecuteCommandLists, queue, n, lists)
}

// OpenGL draws before wglSwapBuffers into the context current on the
// presenting thread.
type OpenGL struct{}

func (OpenGL) Name() string { return config.BackendOpenGL }

func (OpenGL) Bindings() ([]Binding, error) {
	t, err := locator.LocateOpenGL()
	if err != nil {
		return nil, err
	}
	return []Binding{{Name: NameSwapBuffers, Target: t.SwapBuffers, Detour: swapBuffersDetour()}}, nil
}

func swapBuffers(hdc uintptr) uintptr {
	hwnd, _, _ := procWindowFromDC.Call(hdc)
	return OnPresent(Present{
		Window:    hwnd,
		NewEngine: func() (render.Engine, error) { return opengl.New(hdc) },
		Original:  func() uintptr { return Call(NameSwapBuffers, hdc) },
	})
}
