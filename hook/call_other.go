//go:build !windows

package hook

// Go cannot call raw code addresses without cgo outside windows.
func defaultCaller() Caller {
	return nil
}
