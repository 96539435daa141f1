//go:build !windows

package logging

import "io"

// debugOutput has no counterpart outside Windows.
func debugOutput() io.Writer { return nil }
