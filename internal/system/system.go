// Package system changes the kernel clock. Stepping needs CAP_SYS_TIME (or
// root) on every platform.
package system

import "time"

// Step sets the clock to now + offset in one jump.
func Step(offset time.Duration) error {
	return settimeofday(time.Now().Add(offset))
}

// Slew asks the kernel to gradually skew the clock by offset.
func Slew(offset time.Duration) error {
	if offset == 0 {
		return nil
	}
	return adjtime(offset)
}
