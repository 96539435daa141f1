package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// EnvPrefix starts every environment override, e.g. OVERHOOK_LOG_LEVEL.
const EnvPrefix = "OVERHOOK_"

// envMapping maps the variable name after the prefix to its config path.
var envMapping = map[string]string{
	"LOG_LEVEL":               "log.level",
	"LOG_FILE":                "log.file",
	"LOG_DEBUG_OUTPUT":        "log.debug_output",
	"HOOKS_BACKEND":           "hooks.backend",
	"HOOKS_TEARDOWN_RETRIES":  "hooks.teardown_retries",
	"HOOKS_TEARDOWN_INTERVAL": "hooks.teardown_interval",
	"PIPELINE_QUEUE_SIZE":     "pipeline.queue_size",
	"OVERLAY_TOGGLE_KEY":      "overlay.toggle_key",
}

// applyEnv overrides fields from prefixed environment variables. Empty values
// count as set. Unknown prefixed variables are ignored.
func (c *Config) applyEnv(prefix string) error {
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		path, ok := envMapping[strings.TrimPrefix(name, prefix)]
		if !ok {
			continue
		}
		if err := c.set(path, value); err != nil {
			return errors.WithMessagef(err, "environment %s", name)
		}
	}
	return nil
}

func (c *Config) set(path, value string) error {
	var err error
	switch path {
	case "log.level":
		c.Log.Level = value
	case "log.file":
		c.Log.File = value
	case "log.debug_output":
		c.Log.DebugOutput, err = parseBool(value)
	case "hooks.backend":
		c.Hooks.Backend = strings.ToLower(value)
	case "hooks.teardown_retries":
		c.Hooks.TeardownRetries, err = strconv.Atoi(value)
	case "hooks.teardown_interval":
		var d time.Duration
		d, err = time.ParseDuration(value)
		c.Hooks.TeardownInterval = Duration(d)
	case "pipeline.queue_size":
		c.Pipeline.QueueSize, err = strconv.Atoi(value)
	case "overlay.toggle_key":
		c.Overlay.ToggleKey = value
	default:
		return errors.WithMessagef(ErrInvalid, "unknown setting %s", path)
	}
	if err != nil {
		return errors.WithMessagef(ErrInvalid, "%s %q", path, value)
	}
	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off", "":
		return false, nil
	}
	return false, errors.Errorf("not a boolean: %q", s)
}
