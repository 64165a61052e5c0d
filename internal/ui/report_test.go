package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/AndrewLester/ntpsync/pkg/ntpsync"
)

func TestReport(t *testing.T) {
	report := &ntpsync.DetailReport{
		Hostname:         "time.example",
		Address:          "192.0.2.1",
		Stratum:          1,
		ReferenceType:    "primary reference",
		ReferenceAddress: "71.80.83.0",
		ReferenceName:    "GPS",
		Delay:            "20.00",
		Offset:           "990.00",
	}
	out := Report(report)
	for _, want := range []string{"Server", "time.example/192.0.2.1", "1 primary reference", "71.80.83.0 (GPS)", "990.00", "N/A"} {
		if !strings.Contains(out, want) {
			t.Errorf("Report() missing %q:\n%s", want, out)
		}
	}
}

func TestOutcome(t *testing.T) {
	offset := int64(-42)
	applied := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	ok := Outcome(ntpsync.StatusOk, "time.example", &offset, nil, &applied)
	if !strings.Contains(ok, "-42 ms") || !strings.Contains(ok, "clock set at") {
		t.Errorf("Outcome() = %q", ok)
	}

	failed := Outcome(ntpsync.StatusServerTimeout, "time.example", nil, nil, nil)
	if !strings.Contains(failed, ntpsync.StatusServerTimeout.Message()) {
		t.Errorf("Outcome() = %q", failed)
	}
}
