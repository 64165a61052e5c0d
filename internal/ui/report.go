package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/AndrewLester/ntpsync/pkg/ntpsync"
)

// Report renders a detailed report as labelled sections.
func Report(report *ntpsync.DetailReport) string {
	var b strings.Builder
	for i, section := range report.Sections() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(Section(section.Title) + "\n")
		for _, line := range section.Lines {
			b.WriteString(Label(line.Label) + line.Value + "\n")
		}
	}
	return b.String()
}

// Outcome is the one or two line summary of a finished sync.
func Outcome(status ntpsync.Status, hostname string, offsetMillis *int64, newTime, appliedTime *time.Time) string {
	if status != ntpsync.StatusOk {
		return Failed(status.Message())
	}

	s := Ok(status.Message())
	if offsetMillis != nil {
		s += fmt.Sprintf(" %s offset %+d ms", hostname, *offsetMillis)
	}
	if appliedTime != nil {
		s += "\n" + Help("clock set at "+appliedTime.Format(time.RFC3339Nano))
	} else if newTime != nil {
		s += "\n" + Help("server time "+newTime.Format(time.RFC3339Nano))
	}
	return s
}
