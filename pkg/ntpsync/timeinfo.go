package ntpsync

import (
	"time"

	"github.com/AndrewLester/ntpsync/internal/ntp"
)

// TimeInfo is the outcome of one request/reply exchange.
//
//	T1 client transmit, T2 server receive, T3 server transmit, T4 client receive
type TimeInfo struct {
	Hostname string
	Address  string

	T1 time.Time
	T2 time.Time
	T3 time.Time
	T4 time.Time

	Packet *ntp.Packet
}

func (i *TimeInfo) complete() bool {
	return !i.T1.IsZero() && !i.T2.IsZero() && !i.T3.IsZero() && !i.T4.IsZero()
}

// Delay is the round trip delay (T4-T1)-(T3-T2). ok is false until all four
// timestamps are known.
func (i *TimeInfo) Delay() (delay time.Duration, ok bool) {
	if !i.complete() {
		return 0, false
	}
	return i.T4.Sub(i.T1) - i.T3.Sub(i.T2), true
}

// Offset is the clock offset ((T2-T1)+(T3-T4))/2, positive when the server is
// ahead of the local clock.
func (i *TimeInfo) Offset() (offset time.Duration, ok bool) {
	if !i.complete() {
		return 0, false
	}
	return (i.T2.Sub(i.T1) + i.T3.Sub(i.T4)) / 2, true
}
