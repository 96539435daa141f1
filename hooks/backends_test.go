package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brahma-adshonor/overhook/config"
)

func loadedSet(modules ...string) func(string) bool {
	return func(m string) bool {
		for _, x := range modules {
			if x == m {
				return true
			}
		}
		return false
	}
}

func TestPickPrefersNewestAPI(t *testing.T) {
	for want, modules := range map[string][]string{
		config.BackendDX12:   {"opengl32.dll", "d3d11.dll", "d3d12.dll"},
		config.BackendDX11:   {"d3d9.dll", "d3d11.dll"},
		config.BackendDX9:    {"d3d9.dll", "opengl32.dll"},
		config.BackendOpenGL: {"opengl32.dll"},
	} {
		got, err := pick(loadedSet(modules...))
		require.NoError(t, err, want)
		assert.Equal(t, want, got)
	}
	_, err := pick(loadedSet("kernel32.dll"))
	assert.ErrorIs(t, err, ErrNoGraphicsModule)
}

func TestForNameRejectsUnknown(t *testing.T) {
	_, err := ForName("vulkan")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
