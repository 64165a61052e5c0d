package ntpsync

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Action int

const (
	QuickQuery Action = iota
	DetailedQuery
	QueryAndApply
)

func (a Action) String() string {
	switch a {
	case QuickQuery:
		return "query"
	case DetailedQuery:
		return "detailed query"
	case QueryAndApply:
		return "query and apply"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Source is what caused a trigger. Daily and ConnectivityRegained are passive
// sources: they honor the Wi-Fi only policy and wait for connectivity.
type Source int

const (
	Manual Source = iota
	Daily
	ConnectivityRegained
)

func (s Source) String() string {
	switch s {
	case Manual:
		return "manual"
	case Daily:
		return "daily"
	case ConnectivityRegained:
		return "connectivity"
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

func (s Source) passive() bool {
	return s == Daily || s == ConnectivityRegained
}

// Trigger is one request to sync. An empty Hostname means the configured
// default server.
type Trigger struct {
	Action        Action
	Hostname      string
	ApplyDirectly bool
	WifiOnly      bool
	Source        Source
}

func (t Trigger) applies() bool {
	switch t.Action {
	case QueryAndApply:
		return true
	case QuickQuery:
		return t.ApplyDirectly
	}
	return false
}

type Status int

const (
	StatusGenericError Status = iota
	StatusOk
	StatusServerTimeout
	StatusClockSetDenied
	StatusClockUtilMissing
)

func (s Status) String() string {
	switch s {
	case StatusGenericError:
		return "generic error"
	case StatusOk:
		return "ok"
	case StatusServerTimeout:
		return "server timeout"
	case StatusClockSetDenied:
		return "clock set denied"
	case StatusClockUtilMissing:
		return "clock util missing"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Message is the text shown to the user for a finished sync.
func (s Status) Message() string {
	switch s {
	case StatusOk:
		return "Time synchronized."
	case StatusServerTimeout:
		return "The NTP server did not answer in time."
	case StatusClockSetDenied:
		return "Permission to set the system clock was denied."
	case StatusClockUtilMissing:
		return "No tool to set the system clock was found."
	}
	return "An error occurred while synchronizing the time."
}

// Result is delivered exactly once per trigger. OffsetMillis and NewTime are
// set iff Status is StatusOk, AppliedTime iff the clock was set, Report iff a
// detailed query succeeded.
type Result struct {
	RequestID uuid.UUID
	Hostname  string
	Status    Status

	OffsetMillis *int64
	NewTime      *time.Time
	AppliedTime  *time.Time
	Report       *DetailReport

	Err error
}

func (r *Result) succeed(offset time.Duration, now time.Time) {
	millis := offset.Milliseconds()
	newTime := now.Add(offset)
	r.Status = StatusOk
	r.OffsetMillis = &millis
	r.NewTime = &newTime
	r.Err = nil
}

func (r *Result) fail(err error) {
	r.Status = StatusFor(err)
	r.OffsetMillis = nil
	r.NewTime = nil
	r.AppliedTime = nil
	r.Report = nil
	r.Err = err
}

// StatusFor maps an error to the single status reported for it.
func StatusFor(err error) Status {
	switch {
	case err == nil:
		return StatusOk
	case errors.Is(err, ErrTimeout):
		return StatusServerTimeout
	case errors.Is(err, ErrApplyPermissionDenied):
		return StatusClockSetDenied
	case errors.Is(err, ErrApplyToolMissing):
		return StatusClockUtilMissing
	}
	return StatusGenericError
}
