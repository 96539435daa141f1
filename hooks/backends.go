package hooks

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/brahma-adshonor/overhook/config"
)

// Binding names used by the graphics backends.
const (
	NameEndScene            = "IDirect3DDevice9::EndScene"
	NameReset               = "IDirect3DDevice9::Reset"
	NamePresent             = "IDXGISwapChain::Present"
	NameResizeBuffers       = "IDXGISwapChain::ResizeBuffers"
	NameExecuteCommandLists = "ID3D12CommandQueue::ExecuteCommandLists"
	NameSwapBuffers         = "wglSwapBuffers"
)

var (
	ErrNoGraphicsModule = errors.New("no graphics module loaded")
	ErrUnknownBackend   = errors.New("unknown backend")
)

// graphicsModules is probed in order. A D3D12 title usually has d3d11.dll
// loaded as well, so the newer APIs come first.
var graphicsModules = []struct {
	module, backend string
}{
	{"d3d12.dll", config.BackendDX12},
	{"d3d11.dll", config.BackendDX11},
	{"d3d9.dll", config.BackendDX9},
	{"opengl32.dll", config.BackendOpenGL},
}

// pick names the backend of the first graphics module loaded says is there.
func pick(loaded func(module string) bool) (string, error) {
	for _, m := range graphicsModules {
		if loaded(m.module) {
			return m.backend, nil
		}
	}
	return "", ErrNoGraphicsModule
}

// Auto picks the backend matching the graphics modules loaded in the
// process.
func Auto() (Backend, error) {
	return ForName(config.BackendAuto)
}

// ForName returns the backend for a hooks.backend setting. "auto" probes
// the loaded modules.
func ForName(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == config.BackendAuto || name == "" {
		var err error
		if name, err = pick(moduleLoaded); err != nil {
			return nil, err
		}
	}
	return byName(name)
}
