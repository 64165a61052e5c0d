package ntpsync

import (
	"context"
	"testing"
	"time"
)

func TestNextDailyFire(t *testing.T) {
	loc := time.FixedZone("test", 2*60*60)
	at := func(day, hour, minute int) time.Time {
		return time.Date(2024, 3, day, hour, minute, 0, 0, loc)
	}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before nine", at(10, 8, 59), at(10, 9, 0)},
		{"just after nine", at(10, 9, 5), at(11, 9, 0)},
		{"exactly nine", at(10, 9, 0), at(11, 9, 0)},
		{"midnight", at(10, 0, 0), at(10, 9, 0)},
		{"month end", time.Date(2024, 3, 31, 23, 0, 0, 0, loc), time.Date(2024, 4, 1, 9, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextDailyFire(tt.now, 9, 0); !got.Equal(tt.want) {
				t.Errorf("NextDailyFire(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestParseDailyAt(t *testing.T) {
	hour, minute, err := ParseDailyAt("09:00")
	if err != nil || hour != 9 || minute != 0 {
		t.Errorf("ParseDailyAt(09:00) = %d, %d, %v", hour, minute, err)
	}
	hour, minute, err = ParseDailyAt("23:45")
	if err != nil || hour != 23 || minute != 45 {
		t.Errorf("ParseDailyAt(23:45) = %d, %d, %v", hour, minute, err)
	}
	for _, bad := range []string{"", "9", "25:00", "09:60", "nine"} {
		if _, _, err := ParseDailyAt(bad); err == nil {
			t.Errorf("ParseDailyAt(%q) succeeded", bad)
		}
	}
}

func TestSchedulerFiresOncePerDay(t *testing.T) {
	now := time.Date(2024, 3, 10, 8, 59, 59, int(980*time.Millisecond), time.UTC)
	scheduler := &Scheduler{Hour: 9, Minute: 0, Now: func() time.Time { return now }}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := 0
	done := make(chan error, 1)
	go func() {
		done <- scheduler.Run(ctx, func() {
			fired++
			// the frozen clock still reads 08:59:59; the next fire must be
			// tomorrow, so give it a moment to re-arm before stopping
			time.AfterFunc(50*time.Millisecond, cancel)
		})
	}()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	if fired != 1 {
		t.Errorf("fired %d times, want 1", fired)
	}
}
