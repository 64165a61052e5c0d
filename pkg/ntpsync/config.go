package ntpsync

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"time"

	"github.com/AndrewLester/ntpsync/internal/ntp"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/ntpsync.yaml"
	DefaultServer     = "pool.ntp.org"
	DefaultSocket     = "/var/run/ntpsyncd.sock"

	BackendNative = "native"
	BackendSNTP   = "sntp"

	SetterSyscall = "syscall"
	SetterDate    = "date"

	serverEnv = "NTPSYNC_SERVER"
)

type Config struct {
	Server  string `yaml:"server"`
	Timeout string `yaml:"timeout"`
	Version int    `yaml:"version"`
	Backend string `yaml:"backend"` // native or sntp

	SyncDaily   bool   `yaml:"sync_daily"`
	DailyAt     string `yaml:"daily_at"`
	OnlyOnWifi  bool   `yaml:"only_on_wifi"`
	ApplyOnSync bool   `yaml:"apply_on_sync"`
	SyncOnStart bool   `yaml:"sync_on_start"`

	ClockSetter   string `yaml:"clock_setter"` // syscall or date
	DateCommand   string `yaml:"date_command"`
	DateSudo      bool   `yaml:"date_sudo"`
	SlewThreshold string `yaml:"slew_threshold"`

	DNSServer    string   `yaml:"dns_server"`
	Socket       string   `yaml:"socket"`
	WakeLock     string   `yaml:"wake_lock"`
	PollInterval string   `yaml:"poll_interval"`
	GetTimeUIDs  []uint32 `yaml:"get_time_uids"`
	SetTimeUIDs  []uint32 `yaml:"set_time_uids"`
}

func Default() *Config {
	return &Config{
		Server:        DefaultServer,
		Timeout:       "10s",
		Version:       int(ntp.DefaultVersion),
		Backend:       BackendNative,
		DailyAt:       "09:00",
		OnlyOnWifi:    true,
		ApplyOnSync:   true,
		ClockSetter:   SetterSyscall,
		DateCommand:   "date",
		SlewThreshold: DefaultSlewThreshold.String(),
		Socket:        DefaultSocket,
		WakeLock:      "ntpsync",
		PollInterval:  "5s",
	}
}

// Load reads a YAML config. A missing file yields the defaults. The
// NTPSYNC_SERVER environment variable overrides the server.
func Load(path string) (*Config, error) {
	c := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		debug("No config at", path, "using defaults")
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if server := os.Getenv(serverEnv); server != "" {
		c.Server = server
	}
	applyDefaults(c)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func applyDefaults(c *Config) {
	d := Default()
	if c.Server == "" {
		c.Server = d.Server
	}
	if c.Timeout == "" {
		c.Timeout = d.Timeout
	}
	if c.Version == 0 {
		c.Version = d.Version
	}
	if c.Backend == "" {
		c.Backend = d.Backend
	}
	if c.DailyAt == "" {
		c.DailyAt = d.DailyAt
	}
	if c.ClockSetter == "" {
		c.ClockSetter = d.ClockSetter
	}
	if c.DateCommand == "" {
		c.DateCommand = d.DateCommand
	}
	if c.SlewThreshold == "" {
		c.SlewThreshold = d.SlewThreshold
	}
	if c.Socket == "" {
		c.Socket = d.Socket
	}
	if c.WakeLock == "" {
		c.WakeLock = d.WakeLock
	}
	if c.PollInterval == "" {
		c.PollInterval = d.PollInterval
	}
}

func (c *Config) Validate() error {
	if c.Version != 3 && c.Version != 4 {
		return fmt.Errorf("version must be 3 or 4, got %d", c.Version)
	}
	switch c.Backend {
	case BackendNative, BackendSNTP:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	switch c.ClockSetter {
	case SetterSyscall, SetterDate:
	default:
		return fmt.Errorf("unknown clock_setter %q", c.ClockSetter)
	}
	for key, value := range map[string]string{
		"timeout":        c.Timeout,
		"slew_threshold": c.SlewThreshold,
		"poll_interval":  c.PollInterval,
	} {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", key, value)
		}
	}
	if _, _, err := ParseDailyAt(c.DailyAt); err != nil {
		return err
	}
	return nil
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func (c *Config) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout, DefaultTimeout)
}

func (c *Config) PollIntervalDuration() time.Duration {
	return parseDuration(c.PollInterval, 5*time.Second)
}

func (c *Config) SlewThresholdDuration() time.Duration {
	return parseDuration(c.SlewThreshold, DefaultSlewThreshold)
}

func (c *Config) NewClient() *Client {
	return &Client{
		Timeout: c.TimeoutDuration(),
		Version: byte(c.Version),
	}
}

// NewQuerier returns the backend used for quick queries and applies.
func (c *Config) NewQuerier(client *Client) Querier {
	if c.Backend == BackendSNTP {
		return NewSNTPClient(client)
	}
	return client
}

func (c *Config) NewClockSetter() ClockSetter {
	if c.ClockSetter == SetterDate {
		return &DateCommandSetter{Command: c.DateCommand, Sudo: c.DateSudo}
	}
	return &SyscallClockSetter{SlewThreshold: c.SlewThresholdDuration()}
}

func (c *Config) NewReportBuilder() *ReportBuilder {
	if c.DNSServer != "" {
		return &ReportBuilder{Resolver: &DNSResolver{Server: c.DNSServer}}
	}
	return &ReportBuilder{Resolver: net.DefaultResolver}
}

// Options fills everything the config decides. The caller adds the gate,
// the wake lock and the notify hook.
func (c *Config) Options() Options {
	client := c.NewClient()
	return Options{
		Hostname: c.Server,
		Querier:  c.NewQuerier(client),
		Detailed: client,
		Reports:  c.NewReportBuilder(),
		Setter:   c.NewClockSetter(),
		Timeout:  c.TimeoutDuration(),
	}
}

// PassiveTrigger is the request sent for daily and connectivity driven syncs.
func (c *Config) PassiveTrigger(source Source) Trigger {
	action := QuickQuery
	if c.ApplyOnSync {
		action = QueryAndApply
	}
	return Trigger{
		Action:        action,
		ApplyDirectly: c.ApplyOnSync,
		WifiOnly:      c.OnlyOnWifi,
		Source:        source,
	}
}
