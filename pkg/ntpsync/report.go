package ntpsync

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AndrewLester/ntpsync/internal/ntp"
)

const (
	notAvailable       = "N/A"
	localClockAddress  = "127.127.1.0"
	refClockPrefix     = "127.127."
	reverseLookupLimit = 2 * time.Second
	timestampLayout    = "Mon, Jan 02 2006 15:04:05.000"
)

// AddrResolver is satisfied by *net.Resolver and *DNSResolver.
type AddrResolver interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

// DetailReport holds the decoded reply of a detailed query in display form.
type DetailReport struct {
	Hostname string
	Address  string

	Stratum       byte
	ReferenceType string
	Leap          byte
	Version       byte
	Precision     int8
	Mode          ntp.Mode
	Poll          int8
	PollSeconds   int64

	RootDelay      string
	RootDispersion string

	ReferenceAddress string
	ReferenceName    string

	ReferenceTime   time.Time
	OriginateTime   time.Time
	ReceiveTime     time.Time
	TransmitTime    time.Time
	DestinationTime time.Time

	Delay  string
	Offset string
}

type ReportLine struct {
	Label string
	Value string
}

// ReportSection groups lines under a heading.
type ReportSection struct {
	Title string
	Lines []ReportLine
}

func (r *DetailReport) Reference() string {
	if r.ReferenceName != "" {
		return r.ReferenceAddress + " (" + r.ReferenceName + ")"
	}
	return r.ReferenceAddress
}

func (r *DetailReport) Sections() []ReportSection {
	return []ReportSection{
		{
			Title: "Server",
			Lines: []ReportLine{
				{"Host", r.Hostname + "/" + r.Address},
				{"Stratum", fmt.Sprintf("%d %s", r.Stratum, r.ReferenceType)},
				{"Leap indicator", strconv.Itoa(int(r.Leap))},
				{"Version", strconv.Itoa(int(r.Version))},
				{"Precision", fmt.Sprintf("%d (%.3g s)", r.Precision, ntp.Log2ToDouble(r.Precision))},
				{"Mode", fmt.Sprintf("%s (%d)", r.Mode, r.Mode)},
				{"Poll", fmt.Sprintf("%d seconds (2 ** %d)", r.PollSeconds, r.Poll)},
				{"Root delay (ms)", r.RootDelay},
				{"Root dispersion (ms)", r.RootDispersion},
			},
		},
		{
			Title: "Reference identifier",
			Lines: []ReportLine{{"Reference", r.Reference()}},
		},
		{
			Title: "Timestamps",
			Lines: []ReportLine{
				{"Reference", formatTimestamp(r.ReferenceTime)},
				{"Originate", formatTimestamp(r.OriginateTime)},
				{"Receive", formatTimestamp(r.ReceiveTime)},
				{"Transmit", formatTimestamp(r.TransmitTime)},
				{"Destination", formatTimestamp(r.DestinationTime)},
			},
		},
		{
			Title: "Computed",
			Lines: []ReportLine{
				{"Roundtrip delay (ms)", r.Delay},
				{"Clock offset (ms)", r.Offset},
			},
		},
	}
}

// Lines flattens Sections.
func (r *DetailReport) Lines() []ReportLine {
	var lines []ReportLine
	for _, section := range r.Sections() {
		lines = append(lines, section.Lines...)
	}
	return lines
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return notAvailable
	}
	return t.Format(timestampLayout)
}

func formatMillis(d time.Duration, ok bool) string {
	if !ok {
		return notAvailable
	}
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 2, 64)
}

func ReferenceType(stratum byte) string {
	switch {
	case stratum == 0:
		return "unspecified"
	case stratum == 1:
		return "primary reference"
	}
	return "secondary reference"
}

// ReportBuilder turns a TimeInfo into a DetailReport. Reverse lookups of the
// reference address are best effort.
type ReportBuilder struct {
	Resolver AddrResolver
}

func (b *ReportBuilder) Build(ctx context.Context, timeInfo *TimeInfo) *DetailReport {
	packet := timeInfo.Packet
	if packet == nil {
		packet = &ntp.Packet{}
	}

	delay, delayOk := timeInfo.Delay()
	offset, offsetOk := timeInfo.Offset()

	report := &DetailReport{
		Hostname:        timeInfo.Hostname,
		Address:         timeInfo.Address,
		Stratum:         packet.Stratum,
		ReferenceType:   ReferenceType(packet.Stratum),
		Leap:            packet.Leap,
		Version:         packet.Version,
		Precision:       packet.Precision,
		Mode:            packet.Mode,
		Poll:            packet.Poll,
		PollSeconds:     ntp.PollSeconds(packet.Poll),
		RootDelay:       strconv.FormatFloat(packet.RootDelayMillis(), 'f', 2, 64),
		RootDispersion:  strconv.FormatFloat(packet.RootDispersionMillis(), 'f', 2, 64),
		ReferenceTime:   ntp.TimestampToTime(packet.Reftime),
		OriginateTime:   ntp.TimestampToTime(packet.Org),
		ReceiveTime:     timeInfo.T2,
		TransmitTime:    timeInfo.T3,
		DestinationTime: timeInfo.T4,
		Delay:           formatMillis(delay, delayOk),
		Offset:          formatMillis(offset, offsetOk),
	}
	report.ReferenceAddress, report.ReferenceName = b.reference(ctx, packet)

	return report
}

func (b *ReportBuilder) reference(ctx context.Context, packet *ntp.Packet) (address, name string) {
	address = ntp.RefIDToIP(packet.Refid).String()
	if packet.Refid == 0 {
		return address, ""
	}

	switch {
	case address == localClockAddress:
		return address, "LOCAL"
	case packet.Stratum >= 2:
		// 127.127.t.u names a reference clock driver, not a host
		if strings.HasPrefix(address, refClockPrefix) {
			return address, ""
		}
		return address, b.lookup(ctx, address)
	case packet.Version >= 3:
		return address, ntp.RefIDToTag(packet.Refid)
	}
	return address, ""
}

func (b *ReportBuilder) lookup(ctx context.Context, address string) string {
	if b.Resolver == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, reverseLookupLimit)
	defer cancel()

	names, err := b.Resolver.LookupAddr(ctx, address)
	if err != nil || len(names) == 0 {
		debug("Reverse lookup of", address, "failed:", err)
		return ""
	}
	name := strings.TrimSuffix(names[0], ".")
	if name == address {
		return ""
	}
	return name
}
