//go:build !windows

package inject

import "time"

func FindWindowProcess(title string) (int, error) { return 0, ErrUnsupported }

func Inject(pid int, dll string, timeout time.Duration) error { return ErrUnsupported }
