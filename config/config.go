// Package config holds the overlay settings read from a TOML or YAML file,
// with OVERHOOK_ environment variables layered on top.
package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownFormat = errors.New("unknown config format")
	ErrInvalid       = errors.New("invalid config")
)

// Backends accepted by hooks.backend.
const (
	BackendAuto   = "auto"
	BackendDX9    = "dx9"
	BackendDX11   = "dx11"
	BackendDX12   = "dx12"
	BackendOpenGL = "opengl"
)

type Config struct {
	Log      Log      `toml:"log" yaml:"log"`
	Hooks    Hooks    `toml:"hooks" yaml:"hooks"`
	Pipeline Pipeline `toml:"pipeline" yaml:"pipeline"`
	Overlay  Overlay  `toml:"overlay" yaml:"overlay"`
}

type Log struct {
	Level string `toml:"level" yaml:"level"`
	// File is where the log goes; empty means stderr.
	File        string `toml:"file" yaml:"file"`
	DebugOutput bool   `toml:"debug_output" yaml:"debug_output"`
}

type Hooks struct {
	Backend          string   `toml:"backend" yaml:"backend"`
	TeardownRetries  int      `toml:"teardown_retries" yaml:"teardown_retries"`
	TeardownInterval Duration `toml:"teardown_interval" yaml:"teardown_interval"`
}

type Pipeline struct {
	QueueSize int `toml:"queue_size" yaml:"queue_size"`
}

type Overlay struct {
	ToggleKey string `toml:"toggle_key" yaml:"toggle_key"`
}

// Duration is a time.Duration written as "20ms" in config files.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return errors.WithMessagef(ErrInvalid, "duration %q", b)
	}
	*d = Duration(v)
	return nil
}

func Default() *Config {
	return &Config{
		Log: Log{Level: "info"},
		Hooks: Hooks{
			Backend:          BackendAuto,
			TeardownRetries:  50,
			TeardownInterval: Duration(20 * time.Millisecond),
		},
		Pipeline: Pipeline{QueueSize: 1024},
		Overlay:  Overlay{ToggleKey: "INSERT"},
	}
}

// Load reads path over the defaults, applies the environment and validates
// the result. A missing file is not an error. An empty path skips the file.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := c.decode(path, data); err != nil {
				return nil, err
			}
		case !os.IsNotExist(err):
			return nil, errors.Wrapf(err, "reading config file %s", path)
		}
	}
	if err := c.applyEnv(EnvPrefix); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) decode(path string, data []byte) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		d := toml.NewDecoder(bytes.NewReader(data))
		d.DisallowUnknownFields()
		err = d.Decode(c)
	case ".yaml", ".yml":
		d := yaml.NewDecoder(bytes.NewReader(data))
		d.KnownFields(true)
		err = d.Decode(c)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	default:
		return errors.WithMessagef(ErrUnknownFormat, "%s", path)
	}
	return errors.Wrapf(err, "parsing config file %s", path)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Hooks.Backend {
	case BackendAuto, BackendDX9, BackendDX11, BackendDX12, BackendOpenGL:
	default:
		return errors.WithMessagef(ErrInvalid, "hooks.backend %q", c.Hooks.Backend)
	}
	if c.Hooks.TeardownRetries < 1 {
		return errors.WithMessagef(ErrInvalid, "hooks.teardown_retries %d", c.Hooks.TeardownRetries)
	}
	if c.Hooks.TeardownInterval <= 0 {
		return errors.WithMessagef(ErrInvalid, "hooks.teardown_interval %s", time.Duration(c.Hooks.TeardownInterval))
	}
	if c.Pipeline.QueueSize < 1 {
		return errors.WithMessagef(ErrInvalid, "pipeline.queue_size %d", c.Pipeline.QueueSize)
	}
	if _, err := ParseKey(c.Overlay.ToggleKey); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, errors.WithMessagef(ErrInvalid, "log.level %q", s)
}

// LogLevel is the parsed log.level. Call it on validated configs only.
func (c *Config) LogLevel() slog.Level {
	l, _ := ParseLevel(c.Log.Level)
	return l
}

// ToggleVK is the virtual-key code of overlay.toggle_key.
func (c *Config) ToggleVK() int {
	vk, _ := ParseKey(c.Overlay.ToggleKey)
	return vk
}
