//go:build !linux && !windows

package hook

func defaultBounds() Bounds {
	return nil
}
