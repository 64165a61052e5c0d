package ntpsync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/AndrewLester/ntpsync/internal/system"
)

const DefaultSlewThreshold = 128 * time.Millisecond

// ClockSetter corrects the local clock by offset.
type ClockSetter interface {
	Apply(ctx context.Context, offset time.Duration) error
}

// SyscallClockSetter slews offsets below SlewThreshold and steps anything
// larger.
type SyscallClockSetter struct {
	SlewThreshold time.Duration

	step func(time.Duration) error
	slew func(time.Duration) error
}

func (s *SyscallClockSetter) threshold() time.Duration {
	if s.SlewThreshold <= 0 {
		return DefaultSlewThreshold
	}
	return s.SlewThreshold
}

func (s *SyscallClockSetter) Apply(ctx context.Context, offset time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	step, slew := system.Step, system.Slew
	if s.step != nil {
		step = s.step
	}
	if s.slew != nil {
		slew = s.slew
	}

	magnitude := offset
	if magnitude < 0 {
		magnitude = -magnitude
	}

	var err error
	if magnitude < s.threshold() {
		debug("Slewing clock by", offset)
		err = slew(offset)
	} else {
		info("Stepping clock by", offset)
		err = step(offset)
	}
	return classifySyscallError(err)
}

func classifySyscallError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, syscall.EPERM), errors.Is(err, syscall.EACCES):
		return fmt.Errorf("%w: %v", ErrApplyPermissionDenied, err)
	case errors.Is(err, errors.ErrUnsupported), errors.Is(err, syscall.ENOSYS):
		return fmt.Errorf("%w: %v", ErrApplyToolMissing, err)
	}
	return err
}

// DateCommandSetter sets the clock by running `date -s @<unix seconds>`,
// optionally prefixed with sudo.
type DateCommandSetter struct {
	Command string // "date" when empty
	Sudo    bool
	Now     func() time.Time
}

func (s *DateCommandSetter) command(target time.Time) (string, []string) {
	command := s.Command
	if command == "" {
		command = "date"
	}
	args := []string{"-s", "@" + strconv.FormatInt(target.Unix(), 10)}
	if s.Sudo {
		return "sudo", append([]string{"-n", command}, args...)
	}
	return command, args
}

func (s *DateCommandSetter) Apply(ctx context.Context, offset time.Duration) error {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	name, args := s.command(now().Add(offset))
	debug("Running", name, args)
	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err == nil {
		return nil
	}
	return classifyDateError(err, string(output))
}

func classifyDateError(err error, output string) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrApplyToolMissing, err)
	}

	lowered := strings.ToLower(output)
	for _, marker := range []string{"not permitted", "permission denied", "password is required"} {
		if strings.Contains(lowered, marker) {
			return fmt.Errorf("%w: %s", ErrApplyPermissionDenied, strings.TrimSpace(output))
		}
	}
	for _, marker := range []string{"bad date", "invalid date"} {
		if strings.Contains(lowered, marker) {
			return fmt.Errorf("date rejected the new time: %s", strings.TrimSpace(output))
		}
	}
	return fmt.Errorf("date failed: %v: %s", err, strings.TrimSpace(output))
}
