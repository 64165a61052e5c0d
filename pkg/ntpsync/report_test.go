package ntpsync

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/AndrewLester/ntpsync/internal/ntp"
	"github.com/miekg/dns"
)

type mapResolver map[string][]string

func (r mapResolver) LookupAddr(_ context.Context, addr string) ([]string, error) {
	if names, ok := r[addr]; ok {
		return names, nil
	}
	return nil, errors.New("no ptr record")
}

func refID(a, b, c, d byte) uint32 {
	return uint32(a)<<24 | uint32(b)<<16 | uint32(c)<<8 | uint32(d)
}

func TestReferenceType(t *testing.T) {
	tests := []struct {
		stratum byte
		want    string
	}{
		{0, "unspecified"},
		{1, "primary reference"},
		{2, "secondary reference"},
		{5, "secondary reference"},
		{15, "secondary reference"},
	}
	for _, tt := range tests {
		if got := ReferenceType(tt.stratum); got != tt.want {
			t.Errorf("ReferenceType(%d) = %q, want %q", tt.stratum, got, tt.want)
		}
	}
}

func TestReportReference(t *testing.T) {
	resolver := mapResolver{"192.0.2.1": {"time.example.net."}}

	tests := []struct {
		name     string
		packet   ntp.Packet
		wantAddr string
		wantName string
		wantRef  string
	}{
		{
			name:     "zero",
			packet:   packet(2, 4, 0),
			wantAddr: "0.0.0.0",
			wantRef:  "0.0.0.0",
		},
		{
			name:     "local clock",
			packet:   packet(1, 4, refID(127, 127, 1, 0)),
			wantAddr: "127.127.1.0",
			wantName: "LOCAL",
			wantRef:  "127.127.1.0 (LOCAL)",
		},
		{
			name:     "secondary resolved",
			packet:   packet(3, 4, refID(192, 0, 2, 1)),
			wantAddr: "192.0.2.1",
			wantName: "time.example.net",
			wantRef:  "192.0.2.1 (time.example.net)",
		},
		{
			name:     "secondary unresolved",
			packet:   packet(5, 4, refID(198, 51, 100, 9)),
			wantAddr: "198.51.100.9",
			wantRef:  "198.51.100.9",
		},
		{
			name:     "secondary refclock driver",
			packet:   packet(2, 4, refID(127, 127, 20, 0)),
			wantAddr: "127.127.20.0",
			wantRef:  "127.127.20.0",
		},
		{
			name:     "primary tag",
			packet:   packet(1, 4, refID('G', 'P', 'S', 0)),
			wantAddr: "71.80.83.0",
			wantName: "GPS",
			wantRef:  "71.80.83.0 (GPS)",
		},
		{
			name:     "primary version 2 has no tag",
			packet:   packet(1, 2, refID('P', 'P', 'S', 0)),
			wantAddr: "80.80.83.0",
			wantRef:  "80.80.83.0",
		},
	}

	builder := &ReportBuilder{Resolver: resolver}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.packet
			report := builder.Build(context.Background(), &TimeInfo{Packet: &p})
			if report.ReferenceAddress != tt.wantAddr {
				t.Errorf("ReferenceAddress = %q, want %q", report.ReferenceAddress, tt.wantAddr)
			}
			if report.ReferenceName != tt.wantName {
				t.Errorf("ReferenceName = %q, want %q", report.ReferenceName, tt.wantName)
			}
			if got := report.Reference(); got != tt.wantRef {
				t.Errorf("Reference() = %q, want %q", got, tt.wantRef)
			}
		})
	}
}

func packet(stratum, version byte, refid uint32) ntp.Packet {
	p := ntp.Packet{Version: version, Mode: ntp.SERVER}
	p.Stratum = stratum
	p.Refid = refid
	return p
}

func TestReportValues(t *testing.T) {
	base := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	p := packet(2, 4, 0)
	p.Poll = 10
	p.Precision = -23
	p.Rootdelay = 0x00018000 // 1.5s
	p.Rootdisp = 0x00004000  // 0.25s
	p.Reftime = ntp.TimeToTimestamp(base.Add(-time.Hour))
	p.Org = ntp.TimeToTimestamp(base)

	info := &TimeInfo{
		Hostname: "time.example",
		Address:  "192.0.2.10",
		T1:       base,
		T2:       base.Add(1000 * time.Millisecond),
		T3:       base.Add(1010 * time.Millisecond),
		T4:       base.Add(30 * time.Millisecond),
		Packet:   &p,
	}
	report := (&ReportBuilder{}).Build(context.Background(), info)

	checks := map[string][2]string{
		"RootDelay":      {report.RootDelay, "1500.00"},
		"RootDispersion": {report.RootDispersion, "250.00"},
		"Delay":          {report.Delay, "20.00"},
		"Offset":         {report.Offset, "990.00"},
		"ReferenceType":  {report.ReferenceType, "secondary reference"},
	}
	for field, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %q, want %q", field, c[0], c[1])
		}
	}
	if report.PollSeconds != 1024 {
		t.Errorf("PollSeconds = %d, want 1024", report.PollSeconds)
	}
	if report.Mode != ntp.SERVER {
		t.Errorf("Mode = %v, want server", report.Mode)
	}

	var originate, precision string
	for _, line := range report.Lines() {
		switch line.Label {
		case "Originate":
			originate = line.Value
		case "Precision":
			precision = line.Value
		}
	}
	if precision != "-23 (1.19e-07 s)" {
		t.Errorf("Precision line = %q, want \"-23 (1.19e-07 s)\"", precision)
	}
	if want := base.Local().Format(timestampLayout); originate != want {
		t.Errorf("Originate line = %q, want %q", originate, want)
	}
}

func TestReportNotAvailable(t *testing.T) {
	p := packet(1, 4, 0)
	info := &TimeInfo{T1: time.Now(), Packet: &p}
	report := (&ReportBuilder{}).Build(context.Background(), info)

	if report.Delay != notAvailable || report.Offset != notAvailable {
		t.Errorf("Delay, Offset = %q, %q, want N/A", report.Delay, report.Offset)
	}
	for _, line := range report.Lines() {
		if line.Label == "Receive" && line.Value != notAvailable {
			t.Errorf("Receive line = %q, want N/A", line.Value)
		}
	}
}

func startDNSServer(t *testing.T, records map[string]string) string {
	t.Helper()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	mux := dns.NewServeMux()
	mux.HandleFunc("in-addr.arpa.", func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		name := r.Question[0].Name
		if target, ok := records[name]; ok {
			m.Answer = append(m.Answer, &dns.PTR{
				Hdr: dns.RR_Header{Name: name, Rrtype: dns.TypePTR, Class: dns.ClassINET, Ttl: 60},
				Ptr: target,
			})
		} else {
			m.Rcode = dns.RcodeNameError
		}
		w.WriteMsg(m)
	})

	started := make(chan struct{})
	server := &dns.Server{PacketConn: conn, Handler: mux, NotifyStartedFunc: func() { close(started) }}
	go server.ActivateAndServe()
	<-started
	t.Cleanup(func() { server.Shutdown() })

	return conn.LocalAddr().String()
}

func TestDNSResolver(t *testing.T) {
	address := startDNSServer(t, map[string]string{
		"1.2.0.192.in-addr.arpa.": "ntp1.example.org.",
	})
	resolver := &DNSResolver{Server: address}

	names, err := resolver.LookupAddr(context.Background(), "192.0.2.1")
	if err != nil {
		t.Fatalf("LookupAddr() error = %v", err)
	}
	if len(names) != 1 || names[0] != "ntp1.example.org." {
		t.Errorf("LookupAddr() = %v, want [ntp1.example.org.]", names)
	}

	if _, err := resolver.LookupAddr(context.Background(), "192.0.2.2"); err == nil {
		t.Error("LookupAddr() of unknown address succeeded")
	}

	p := packet(2, 4, refID(192, 0, 2, 2))
	report := (&ReportBuilder{Resolver: resolver}).Build(context.Background(), &TimeInfo{Packet: &p})
	if report.Reference() != "192.0.2.2" {
		t.Errorf("Reference() = %q, want the raw address", report.Reference())
	}
	if !strings.HasPrefix(resolver.server(), "127.0.0.1:") {
		t.Errorf("server() = %q", resolver.server())
	}
	if (&DNSResolver{Server: "192.0.2.53"}).server() != "192.0.2.53:53" {
		t.Error("server() did not add the default port")
	}
}
