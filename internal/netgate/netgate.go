// Package netgate tells whether the host has a network connection worth
// syncing over, and reports when one appears.
package netgate

import (
	"bufio"
	"context"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	DefaultSysfsDir = "/sys/class/net"
	DefaultInterval = 5 * time.Second
)

type Kind int

const (
	Wired Kind = iota
	WiFi
	Cellular
)

func (k Kind) String() string {
	switch k {
	case WiFi:
		return "wifi"
	case Cellular:
		return "cellular"
	}
	return "wired"
}

// Link is one non-loopback interface. Usable means up with a global unicast
// address.
type Link struct {
	Name   string
	Kind   Kind
	Usable bool
}

// Monitor polls the interface list. The zero value scans the real host every
// DefaultInterval.
type Monitor struct {
	SysfsDir string
	Interval time.Duration
	// Links replaces the interface scan, mostly for tests.
	Links func() ([]Link, error)

	mu        sync.Mutex
	callback  func()
	signature string
}

func (m *Monitor) links() []Link {
	scan := m.Links
	if scan == nil {
		scan = m.scan
	}
	links, err := scan()
	if err != nil {
		debug("Interface scan failed:", err)
		return nil
	}
	return links
}

func (m *Monitor) scan() ([]Link, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var links []Link
	for _, iface := range interfaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		link := Link{Name: iface.Name, Kind: m.classify(iface.Name)}
		if iface.Flags&net.FlagUp != 0 {
			addrs, _ := iface.Addrs()
			for _, addr := range addrs {
				if ipNet, ok := addr.(*net.IPNet); ok && ipNet.IP.IsGlobalUnicast() {
					link.Usable = true
					break
				}
			}
		}
		links = append(links, link)
	}
	return links, nil
}

func (m *Monitor) classify(name string) Kind {
	dir := m.SysfsDir
	if dir == "" {
		dir = DefaultSysfsDir
	}

	if _, err := os.Stat(filepath.Join(dir, name, "wireless")); err == nil {
		return WiFi
	}
	switch devtype(filepath.Join(dir, name, "uevent")) {
	case "wlan":
		return WiFi
	case "wwan":
		return Cellular
	}
	for _, prefix := range []string{"wwan", "rmnet", "ppp"} {
		if strings.HasPrefix(name, prefix) {
			return Cellular
		}
	}
	return Wired
}

func devtype(uevent string) string {
	f, err := os.Open(uevent)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if value, ok := strings.CutPrefix(scanner.Text(), "DEVTYPE="); ok {
			return value
		}
	}
	return ""
}

func usable(links []Link, wifiOnly bool) bool {
	for _, link := range links {
		if !link.Usable {
			continue
		}
		if !wifiOnly || link.Kind == WiFi || link.Kind == Wired {
			return true
		}
	}
	return false
}

// signature names the usable links, so a cellular to Wi-Fi switch counts as
// a change even though some link was usable all along.
func signature(links []Link) string {
	var names []string
	for _, link := range links {
		if link.Usable {
			names = append(names, link.Kind.String()+":"+link.Name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

// HasUsableConnection reports whether some link is usable. With wifiOnly,
// cellular links do not count.
func (m *Monitor) HasUsableConnection(wifiOnly bool) bool {
	return usable(m.links(), wifiOnly)
}

// OnConnectivityRegained registers callback to run once, on the first poll
// that sees the usable links change to a non-empty set. A new registration
// replaces the previous one.
func (m *Monitor) OnConnectivityRegained(callback func()) {
	current := signature(m.links())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.callback = callback
	m.signature = current
}

func (m *Monitor) CancelWaiting() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callback = nil
}

// Poll scans once and fires a due callback outside the lock.
func (m *Monitor) Poll() {
	current := signature(m.links())

	m.mu.Lock()
	callback := m.callback
	if callback == nil || current == "" || current == m.signature {
		m.mu.Unlock()
		return
	}
	m.callback = nil
	m.mu.Unlock()

	debug("Connectivity changed:", current)
	callback()
}

func (m *Monitor) Run(ctx context.Context) error {
	interval := m.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.Poll()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Poll()
		}
	}
}
