package ntpsync

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ntpsync.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(serverEnv, "")
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Server != DefaultServer || c.TimeoutDuration() != 10*time.Second || c.Version != 4 {
		t.Errorf("Load() = %+v, want defaults", c)
	}
	if !c.OnlyOnWifi || !c.ApplyOnSync || c.SyncDaily {
		t.Errorf("policy defaults = wifi %v apply %v daily %v", c.OnlyOnWifi, c.ApplyOnSync, c.SyncDaily)
	}
	if c.SlewThresholdDuration() != DefaultSlewThreshold {
		t.Errorf("SlewThresholdDuration() = %v", c.SlewThresholdDuration())
	}
}

func TestLoad(t *testing.T) {
	t.Setenv(serverEnv, "")
	path := writeConfig(t, `
server: time.example.org
timeout: 3s
version: 3
backend: sntp
sync_daily: true
daily_at: "07:30"
only_on_wifi: false
clock_setter: date
date_command: /usr/bin/date
date_sudo: true
dns_server: 192.0.2.53
set_time_uids: [0, 1000]
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Server != "time.example.org" || c.TimeoutDuration() != 3*time.Second || c.Version != 3 {
		t.Errorf("Load() = %+v", c)
	}
	if c.OnlyOnWifi || !c.ApplyOnSync || !c.SyncDaily {
		t.Errorf("policy = wifi %v apply %v daily %v", c.OnlyOnWifi, c.ApplyOnSync, c.SyncDaily)
	}
	if len(c.SetTimeUIDs) != 2 || c.SetTimeUIDs[1] != 1000 {
		t.Errorf("SetTimeUIDs = %v", c.SetTimeUIDs)
	}
	if c.Socket != DefaultSocket {
		t.Errorf("Socket = %q, want default", c.Socket)
	}

	if _, ok := c.NewQuerier(c.NewClient()).(*SNTPClient); !ok {
		t.Error("NewQuerier() is not the sntp backend")
	}
	setter, ok := c.NewClockSetter().(*DateCommandSetter)
	if !ok || setter.Command != "/usr/bin/date" || !setter.Sudo {
		t.Errorf("NewClockSetter() = %#v", c.NewClockSetter())
	}
	if _, ok := c.NewReportBuilder().Resolver.(*DNSResolver); !ok {
		t.Error("NewReportBuilder() does not use the configured dns server")
	}

	trigger := c.PassiveTrigger(Daily)
	if trigger.Action != QueryAndApply || trigger.WifiOnly || trigger.Source != Daily {
		t.Errorf("PassiveTrigger() = %+v", trigger)
	}
}

func TestLoadServerFromEnvironment(t *testing.T) {
	t.Setenv(serverEnv, "env.example.org")
	c, err := Load(writeConfig(t, "server: file.example.org\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Server != "env.example.org" {
		t.Errorf("Server = %q, want the environment override", c.Server)
	}
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv(serverEnv, "")
	tests := map[string]string{
		"version":        "version: 2\n",
		"backend":        "backend: chrony\n",
		"clock_setter":   "clock_setter: hwclock\n",
		"timeout":        "timeout: soon\n",
		"negative":       "timeout: -1s\n",
		"daily_at":       "daily_at: \"9am\"\n",
		"malformed yaml": "server: [\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Error("Load() succeeded")
			}
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	options := Default().Options()
	if options.Hostname != DefaultServer {
		t.Errorf("Hostname = %q", options.Hostname)
	}
	if _, ok := options.Querier.(*Client); !ok {
		t.Errorf("Querier = %T, want *Client", options.Querier)
	}
	if _, ok := options.Setter.(*SyscallClockSetter); !ok {
		t.Errorf("Setter = %T, want *SyscallClockSetter", options.Setter)
	}
}
