package system

import (
	"time"

	"golang.org/x/sys/unix"
)

// adjtime mirrors the libc adjtime(3) call, which glibc implements with
// ADJ_OFFSET_SINGLESHOT. The kernel takes the offset in microseconds.
func adjtime(offset time.Duration) error {
	buf := &unix.Timex{
		Modes: unix.ADJ_OFFSET_SINGLESHOT,
	}
	setOffset(buf, offset.Microseconds())
	_, err := unix.Adjtimex(buf)
	return err
}
