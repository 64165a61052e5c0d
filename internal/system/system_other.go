//go:build !linux && !darwin

package system

import (
	"errors"
	"time"
)

func settimeofday(time.Time) error {
	return errors.ErrUnsupported
}

func adjtime(time.Duration) error {
	return errors.ErrUnsupported
}
