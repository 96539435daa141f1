//go:build !windows

package pipeline

func defaultWindowSystem() WindowSystem { return nil }
