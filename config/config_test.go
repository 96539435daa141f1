package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, slog.LevelInfo, c.LogLevel())
	assert.Equal(t, 0x2d, c.ToggleVK())
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadTOML(t *testing.T) {
	p := writeFile(t, "overhook.toml", `
[log]
level = "debug"
file = "C:/temp/overhook.log"
debug_output = true

[hooks]
backend = "dx11"
teardown_retries = 10
teardown_interval = "50ms"

[pipeline]
queue_size = 64

[overlay]
toggle_key = "F12"
`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, c.LogLevel())
	assert.Equal(t, "C:/temp/overhook.log", c.Log.File)
	assert.True(t, c.Log.DebugOutput)
	assert.Equal(t, BackendDX11, c.Hooks.Backend)
	assert.Equal(t, 10, c.Hooks.TeardownRetries)
	assert.Equal(t, Duration(50*time.Millisecond), c.Hooks.TeardownInterval)
	assert.Equal(t, 64, c.Pipeline.QueueSize)
	assert.Equal(t, 0x7b, c.ToggleVK())
}

func TestLoadYAMLKeepsUnsetDefaults(t *testing.T) {
	p := writeFile(t, "overhook.yaml", `
hooks:
  backend: opengl
overlay:
  toggle_key: HOME
`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, BackendOpenGL, c.Hooks.Backend)
	assert.Equal(t, 0x24, c.ToggleVK())
	assert.Equal(t, 50, c.Hooks.TeardownRetries)
	assert.Equal(t, 1024, c.Pipeline.QueueSize)
}

func TestLoadRejects(t *testing.T) {
	for name, tc := range map[string]struct {
		file, content string
		want          error
	}{
		"extension":     {"overhook.ini", "x=1", ErrUnknownFormat},
		"backend":       {"a.toml", "[hooks]\nbackend = \"vulkan\"\n", ErrInvalid},
		"level":         {"a.yaml", "log:\n  level: loud\n", ErrInvalid},
		"queue":         {"a.toml", "[pipeline]\nqueue_size = 0\n", ErrInvalid},
		"toggle":        {"a.toml", "[overlay]\ntoggle_key = \"F99\"\n", ErrInvalid},
		"zero interval": {"a.toml", "[hooks]\nteardown_interval = \"0s\"\n", ErrInvalid},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, tc.file, tc.content))
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := Load(writeFile(t, "a.toml", "[hooks]\nbakend = \"dx9\"\n"))
	assert.Error(t, err, "unknown fields are rejected")
}

func TestEnvironmentOverridesFile(t *testing.T) {
	p := writeFile(t, "overhook.toml", "[hooks]\nbackend = \"dx9\"\n")
	t.Setenv("OVERHOOK_HOOKS_BACKEND", "DX12")
	t.Setenv("OVERHOOK_LOG_DEBUG_OUTPUT", "yes")
	t.Setenv("OVERHOOK_HOOKS_TEARDOWN_INTERVAL", "1s")
	t.Setenv("OVERHOOK_PIPELINE_QUEUE_SIZE", "8")
	t.Setenv("OVERHOOK_UNRELATED", "ignored")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, BackendDX12, c.Hooks.Backend)
	assert.True(t, c.Log.DebugOutput)
	assert.Equal(t, Duration(time.Second), c.Hooks.TeardownInterval)
	assert.Equal(t, 8, c.Pipeline.QueueSize)
}

func TestEnvironmentBadValue(t *testing.T) {
	t.Setenv("OVERHOOK_HOOKS_TEARDOWN_RETRIES", "many")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseKey(t *testing.T) {
	for name, want := range map[string]int{
		"insert": 0x2d,
		"F1":     0x70,
		"f24":    0x87,
		"a":      'A',
		"7":      '7',
		"0x91":   0x91,
		" End ":  0x23,
	} {
		got, err := ParseKey(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	for _, bad := range []string{"", "F0", "F25", "0x0", "0x100", "hyper"} {
		_, err := ParseKey(bad)
		assert.ErrorIs(t, err, ErrInvalid, bad)
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	p := writeFile(t, "overhook.toml", "[log]\nlevel = \"info\"\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	require.NoError(t, Watch(ctx, p, func(c *Config, err error) {
		if err == nil {
			got <- c
		}
	}))

	require.NoError(t, os.WriteFile(p, []byte("[log]\nlevel = \"error\"\n"), 0o644))
	select {
	case c := <-got:
		assert.Equal(t, slog.LevelError, c.LogLevel())
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
	}
}
