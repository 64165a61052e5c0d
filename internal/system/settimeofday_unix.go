//go:build linux || darwin

package system

import (
	"time"

	"golang.org/x/sys/unix"
)

func settimeofday(t time.Time) error {
	timeVal := unix.NsecToTimeval(t.UnixNano())
	return unix.Settimeofday(&timeVal)
}
