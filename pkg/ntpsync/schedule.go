package ntpsync

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultDailyHour   = 9
	DefaultDailyMinute = 0
)

// NextDailyFire returns today at hour:minute when now is strictly before it,
// otherwise the same time tomorrow.
func NextDailyFire(now time.Time, hour, minute int) time.Time {
	year, month, day := now.Date()
	next := time.Date(year, month, day, hour, minute, 0, 0, now.Location())
	if !now.Before(next) {
		next = time.Date(year, month, day+1, hour, minute, 0, 0, now.Location())
	}
	return next
}

// ParseDailyAt parses "HH:MM" in 24 hour form.
func ParseDailyAt(value string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid daily time %q: want HH:MM", value)
	}
	return t.Hour(), t.Minute(), nil
}

type Scheduler struct {
	Hour   int
	Minute int
	Now    func() time.Time
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Run calls fire once a day at Hour:Minute until ctx is done.
func (s *Scheduler) Run(ctx context.Context, fire func()) error {
	var last time.Time
	for {
		now := s.now()
		// A clock stepped backwards right after a fire must not fire twice
		// on the same day.
		from := now
		if from.Before(last) {
			from = last
		}
		next := NextDailyFire(from, s.Hour, s.Minute)
		debug("Next daily sync at", next)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			last = next
			fire()
		}
	}
}
