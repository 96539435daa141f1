package main

import "C"

import (
	"log/slog"
	"sync"
)

var (
	mu      sync.Mutex
	running *session
)

// init runs from DllMain with the loader lock held, so the work happens on
// another goroutine.
func init() {
	go func() {
		s, err := start(configPath())
		if err != nil {
			slog.Error("overlay not started", "err", err)
			return
		}
		mu.Lock()
		running = s
		mu.Unlock()
	}()
}

// OverhookUnload removes the overlay. It returns 0 on success and may be
// retried when the render thread was busy.
//
//export OverhookUnload
func OverhookUnload() C.int {
	mu.Lock()
	defer mu.Unlock()
	if running == nil {
		return 0
	}
	if err := running.stop(); err != nil {
		return 1
	}
	running = nil
	return 0
}
