package main

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/brahma-adshonor/overhook/config"
	"github.com/brahma-adshonor/overhook/hooks"
	"github.com/brahma-adshonor/overhook/internal/logging"
	"github.com/brahma-adshonor/overhook/pipeline"
)

const defaultConfig = "overhook.toml"

func configPath() string {
	if p := os.Getenv("OVERHOOK_CONFIG"); p != "" {
		return p
	}
	return defaultConfig
}

type session struct {
	log     *logging.Logger
	overlay *overlay
	cancel  context.CancelFunc
}

// start loads the config, installs the hooks and follows config changes.
func start(path string) (*session, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	l, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	s := &session{log: l, overlay: newOverlay(cfg.ToggleVK())}

	backend, err := hooks.ForName(cfg.Hooks.Backend)
	if err != nil {
		l.Error("no backend", "setting", cfg.Hooks.Backend, "err", err)
		l.Close()
		return nil, err
	}
	_, err = hooks.Install(backend, s.overlay,
		hooks.WithLogger(l.Logger),
		hooks.WithTeardown(cfg.Hooks.TeardownRetries, time.Duration(cfg.Hooks.TeardownInterval)),
		hooks.WithPipelineOptions(pipeline.WithQueueSize(cfg.Pipeline.QueueSize)),
	)
	if err != nil {
		l.Close()
		return nil, errors.WithMessagef(err, "install %s hooks", backend.Name())
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	if err := config.Watch(ctx, path, s.reload); err != nil {
		l.Warn("config changes will not be applied", "path", path, "err", err)
	}
	l.Info("overlay started", "backend", backend.Name(), "config", path)
	return s, nil
}

func (s *session) reload(cfg *config.Config, err error) {
	if err != nil {
		s.log.Warn("config reload failed, keeping previous settings", "err", err)
		return
	}
	s.log.SetLevel(cfg.LogLevel())
	s.overlay.SetToggleKey(cfg.ToggleVK())
	s.log.Info("config reloaded", "level", cfg.Log.Level, "toggle_key", cfg.Overlay.ToggleKey)
}

// stop uninstalls the hooks. The log stays open when teardown times out,
// since the hooks are then still in place.
func (s *session) stop() error {
	s.cancel()
	if err := hooks.Uninstall(); err != nil {
		s.log.Error("uninstall failed", "err", err)
		if errors.Is(err, hooks.ErrTeardownTimeout) {
			return err
		}
	}
	return s.log.Close()
}
