package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // jobs.timezone must resolve in minimal containers

	"weatherbot/pkg/logx"
)

// Settings is Config with defaults applied and durations parsed.
type Settings struct {
	Telegram struct {
		Token          string
		PollTimeout    time.Duration
		ConnectRetries int
		ConnectBackoff time.Duration
		OpsChat        int64
		SendRatePerSec int
	}
	Storage struct {
		Driver       string
		Path         string
		DSN          string
		BusyTimeout  time.Duration
		MaxOpenConns int
	}
	Weather struct {
		Endpoint string
		Timeout  time.Duration
	}
	Dispatch struct {
		Workers      int
		SendTimeout  time.Duration
		WindowFilter bool
	}
	Jobs struct {
		Location           *time.Location
		DispatchEvery      time.Duration
		DispatchFirstAfter time.Duration
		PurgeEvery         time.Duration
		PurgeAfterDays     int
		Timeout            time.Duration
	}
	TaskEngine struct {
		Workers        int
		QueueSize      int
		HistorySize    int
		RetryMax       int
		DefaultTimeout time.Duration
	}
	Metrics struct {
		Enabled bool
		Addr    string
		Token   string
	}
}

const DefaultTimezone = "Asia/Singapore"

// Resolve validates cfg and fills defaults. The returned error names the
// offending field.
func Resolve(cfg *Config) (*Settings, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	var s Settings
	var d durations

	t := cfg.Telegram
	s.Telegram.Token = strings.TrimSpace(t.Token)
	s.Telegram.PollTimeout = d.get("telegram.poll_timeout", t.PollTimeout, 10*time.Second)
	s.Telegram.ConnectRetries = orInt(t.ConnectRetries, 5)
	s.Telegram.ConnectBackoff = d.get("telegram.connect_backoff", t.ConnectBackoff, 2*time.Second)
	s.Telegram.OpsChat = t.OpsChat
	s.Telegram.SendRatePerSec = orInt(t.SendRatePerSec, 25)
	if s.Telegram.Token == "" {
		return nil, errors.New("telegram.token is required (or set BOT_TOKEN)")
	}

	st := cfg.Storage
	s.Storage.Driver = strings.ToLower(strings.TrimSpace(st.Driver))
	if s.Storage.Driver == "" {
		s.Storage.Driver = "sqlite"
	}
	s.Storage.Path = strings.TrimSpace(st.Path)
	s.Storage.DSN = strings.TrimSpace(st.DSN)
	s.Storage.BusyTimeout = d.get("storage.busy_timeout", st.BusyTimeout, 5*time.Second)
	s.Storage.MaxOpenConns = orInt(st.MaxOpenConns, 4)
	switch s.Storage.Driver {
	case "sqlite":
		if s.Storage.Path == "" {
			s.Storage.Path = "./weatherbot.db"
		}
	case "postgres":
		if s.Storage.DSN == "" {
			return nil, errors.New("storage.dsn is required for postgres (or set DATABASE_URL)")
		}
	default:
		return nil, fmt.Errorf("storage.driver: unknown driver %q (sqlite|postgres)", st.Driver)
	}

	s.Weather.Endpoint = strings.TrimSpace(cfg.Weather.Endpoint)
	s.Weather.Timeout = d.get("weather.timeout", cfg.Weather.Timeout, 15*time.Second)

	s.Dispatch.Workers = orInt(cfg.Dispatch.Workers, 16)
	s.Dispatch.SendTimeout = d.get("dispatch.send_timeout", cfg.Dispatch.SendTimeout, 15*time.Second)
	s.Dispatch.WindowFilter = cfg.Dispatch.WindowFilter

	j := cfg.Jobs
	tz := strings.TrimSpace(j.Timezone)
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("jobs.timezone: %w", err)
	}
	s.Jobs.Location = loc
	s.Jobs.DispatchEvery = d.get("jobs.dispatch_every", j.DispatchEvery, 60*time.Minute)
	s.Jobs.DispatchFirstAfter = d.get("jobs.dispatch_first_after", j.DispatchFirstAfter, 10*time.Second)
	s.Jobs.PurgeEvery = d.get("jobs.purge_every", j.PurgeEvery, 24*time.Hour)
	s.Jobs.PurgeAfterDays = orInt(j.PurgeAfterDays, 30)
	s.Jobs.Timeout = d.get("jobs.timeout", j.Timeout, 5*time.Minute)

	te := cfg.TaskEngine
	s.TaskEngine.Workers = orInt(te.Workers, 2)
	s.TaskEngine.QueueSize = orInt(te.QueueSize, 16)
	s.TaskEngine.HistorySize = orInt(te.HistorySize, 100)
	s.TaskEngine.RetryMax = te.RetryMax
	s.TaskEngine.DefaultTimeout = d.get("task_engine.default_timeout", te.DefaultTimeout, 0)

	s.Metrics.Enabled = cfg.Metrics.Enabled
	s.Metrics.Addr = strings.TrimSpace(cfg.Metrics.Addr)
	if s.Metrics.Addr == "" {
		s.Metrics.Addr = "127.0.0.1:9090"
	}
	s.Metrics.Token = strings.TrimSpace(cfg.Metrics.Token)

	if d.err != nil {
		return nil, d.err
	}
	if err := validateLogging(cfg.Logging); err != nil {
		return nil, err
	}
	if cfg.Logging.Telegram.Enabled && s.Telegram.OpsChat == 0 {
		return nil, errors.New("logging.telegram.enabled requires telegram.ops_chat")
	}
	return &s, nil
}

func validateLogging(l LoggingConfig) error {
	if !logx.ValidLevel(l.Level) {
		return fmt.Errorf("logging.level: unknown level %q", l.Level)
	}
	if !logx.ValidLevel(l.Telegram.MinLevel) {
		return fmt.Errorf("logging.telegram.min_level: unknown level %q", l.Telegram.MinLevel)
	}
	if l.File.Enabled && strings.TrimSpace(l.File.Path) == "" {
		return errors.New("logging.file.path is required when file logging is enabled")
	}
	return nil
}

// LogConfig maps the logging section onto the logx service config.
func (c *Config) LogConfig() logx.Config {
	l := c.Logging
	var out logx.Config
	out.Level = l.Level
	out.Console = l.Console
	out.File.Enabled = l.File.Enabled
	out.File.Path = l.File.Path
	out.Telegram.Enabled = l.Telegram.Enabled
	out.Telegram.ChatID = c.Telegram.OpsChat
	out.Telegram.MinLevel = l.Telegram.MinLevel
	out.Telegram.RatePerSec = l.Telegram.RatePerSec
	return out
}

func orInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
