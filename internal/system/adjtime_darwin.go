package system

import (
	"time"

	"golang.org/x/sys/unix"
)

func adjtime(offset time.Duration) error {
	timeVal := unix.NsecToTimeval(offset.Nanoseconds())
	return unix.Adjtime(&timeVal, nil)
}
