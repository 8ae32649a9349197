package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestResolveDefaults(t *testing.T) {
	t.Parallel()

	s, err := Resolve(&Config{Telegram: TelegramConfig{Token: " abc "}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.Telegram.Token != "abc" {
		t.Fatalf("token=%q", s.Telegram.Token)
	}
	if s.Telegram.PollTimeout != 10*time.Second || s.Telegram.ConnectRetries != 5 {
		t.Fatalf("telegram defaults: %+v", s.Telegram)
	}
	if s.Storage.Driver != "sqlite" || s.Storage.Path != "./weatherbot.db" {
		t.Fatalf("storage defaults: %+v", s.Storage)
	}
	if s.Dispatch.Workers != 16 || s.Dispatch.WindowFilter {
		t.Fatalf("dispatch defaults: %+v", s.Dispatch)
	}
	if s.Jobs.DispatchEvery != time.Hour || s.Jobs.DispatchFirstAfter != 10*time.Second {
		t.Fatalf("jobs defaults: every=%s first=%s", s.Jobs.DispatchEvery, s.Jobs.DispatchFirstAfter)
	}
	if s.Jobs.Location.String() != DefaultTimezone {
		t.Fatalf("location=%s", s.Jobs.Location)
	}
	if s.Jobs.PurgeAfterDays != 30 {
		t.Fatalf("purge days=%d", s.Jobs.PurgeAfterDays)
	}
	if s.Metrics.Addr != "127.0.0.1:9090" || s.Metrics.Enabled {
		t.Fatalf("metrics defaults: %+v", s.Metrics)
	}
}

func TestResolveErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"missing token", Config{}, "telegram.token"},
		{"bad duration", Config{Telegram: TelegramConfig{Token: "x", PollTimeout: "soon"}}, "telegram.poll_timeout"},
		{"negative duration", Config{Telegram: TelegramConfig{Token: "x"}, Jobs: JobsConfig{DispatchEvery: "-1m"}}, "jobs.dispatch_every"},
		{"postgres without dsn", Config{Telegram: TelegramConfig{Token: "x"}, Storage: StorageConfig{Driver: "postgres"}}, "storage.dsn"},
		{"unknown driver", Config{Telegram: TelegramConfig{Token: "x"}, Storage: StorageConfig{Driver: "mongo"}}, "storage.driver"},
		{"bad timezone", Config{Telegram: TelegramConfig{Token: "x"}, Jobs: JobsConfig{Timezone: "Mars/Olympus"}}, "jobs.timezone"},
		{"bad level", Config{Telegram: TelegramConfig{Token: "x"}, Logging: LoggingConfig{Level: "loud"}}, "logging.level"},
		{"file without path", Config{Telegram: TelegramConfig{Token: "x"}, Logging: LoggingConfig{File: LoggingFile{Enabled: true}}}, "logging.file.path"},
		{"telegram logs without chat", Config{Telegram: TelegramConfig{Token: "x"}, Logging: LoggingConfig{Telegram: LoggingTelegram{Enabled: true}}}, "ops_chat"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Resolve(&tt.cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err=%v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	cfg := Config{Telegram: TelegramConfig{Token: "file"}}
	ApplyEnv(&cfg, envMap(map[string]string{
		EnvBotToken:    "env",
		EnvDatabaseURL: "postgres://u@h/db",
		EnvOpenGov:     "  ",
		EnvLogLevel:    "debug",
	}))
	if cfg.Telegram.Token != "env" {
		t.Fatalf("token=%q", cfg.Telegram.Token)
	}
	if cfg.Storage.Driver != "postgres" || cfg.Storage.DSN != "postgres://u@h/db" {
		t.Fatalf("storage=%+v", cfg.Storage)
	}
	if cfg.Weather.Endpoint != "" {
		t.Fatalf("blank env value should not override, got %q", cfg.Weather.Endpoint)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level=%q", cfg.Logging.Level)
	}
}

func TestApplyEnvKeepsExplicitDriver(t *testing.T) {
	t.Parallel()

	cfg := Config{Storage: StorageConfig{Driver: "sqlite"}}
	ApplyEnv(&cfg, envMap(map[string]string{EnvDatabaseURL: "postgres://x"}))
	if cfg.Storage.Driver != "sqlite" {
		t.Fatalf("driver=%q", cfg.Storage.Driver)
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestManagerParseYAML(t *testing.T) {
	t.Parallel()

	p := writeFile(t, "config.yaml", `
telegram:
  token: from-file
dispatch:
  workers: 4
  window_filter: true
jobs:
  dispatch_every: 30m
`)
	m := NewManager(p)
	m.lookup = envMap(nil)
	snap, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.Settings.Dispatch.Workers != 4 || !snap.Settings.Dispatch.WindowFilter {
		t.Fatalf("dispatch=%+v", snap.Settings.Dispatch)
	}
	if snap.Settings.Jobs.DispatchEvery != 30*time.Minute {
		t.Fatalf("every=%s", snap.Settings.Jobs.DispatchEvery)
	}
	if got := m.Get(); got.Raw.Telegram.Token != "from-file" {
		t.Fatalf("Get token=%q", got.Raw.Telegram.Token)
	}
}

func TestManagerRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	p := writeFile(t, "config.yaml", "telegram:\n  token: x\n  tokn: typo\n")
	m := NewManager(p)
	m.lookup = envMap(nil)
	if _, err := m.Parse(); err == nil || !strings.Contains(err.Error(), "tokn") {
		t.Fatalf("err=%v, want unknown field", err)
	}
}

func TestManagerRejectsTrailingJSON(t *testing.T) {
	t.Parallel()

	p := writeFile(t, "config.json", `{"telegram":{"token":"x"}}{}`)
	m := NewManager(p)
	m.lookup = envMap(nil)
	if _, err := m.Parse(); err == nil {
		t.Fatalf("expected trailing data error")
	}
}

func TestManagerMissingFileUsesEnv(t *testing.T) {
	t.Parallel()

	m := NewManager(filepath.Join(t.TempDir(), "absent.yaml"))
	m.lookup = envMap(map[string]string{EnvBotToken: "env-only"})
	snap, err := m.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if snap.Settings.Telegram.Token != "env-only" {
		t.Fatalf("token=%q", snap.Settings.Telegram.Token)
	}
}

func TestManagerReloadPublishesOnlyChanges(t *testing.T) {
	t.Parallel()

	p := writeFile(t, "config.yaml", "telegram:\n  token: a\n")
	m := NewManager(p)
	m.lookup = envMap(nil)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	m.reload()
	select {
	case <-ch:
		t.Fatalf("unchanged config was published")
	default:
	}

	if err := os.WriteFile(p, []byte("telegram:\n  token: b\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	m.reload()
	select {
	case snap := <-ch:
		if snap.Settings.Telegram.Token != "b" {
			t.Fatalf("token=%q", snap.Settings.Telegram.Token)
		}
	default:
		t.Fatalf("changed config was not published")
	}

	// invalid content keeps the last good snapshot
	if err := os.WriteFile(p, []byte("telegram: [\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	m.reload()
	if got := m.Get().Settings.Telegram.Token; got != "b" {
		t.Fatalf("token after bad reload=%q", got)
	}
}

func TestLoadEnvFileMissing(t *testing.T) {
	t.Parallel()

	if err := LoadEnvFile(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
	if err := LoadEnvFile(""); err != nil {
		t.Fatalf("empty path: %v", err)
	}
}

func TestSummarizeChange(t *testing.T) {
	t.Parallel()

	a := &Config{Telegram: TelegramConfig{Token: "x"}}
	b := &Config{Telegram: TelegramConfig{Token: "x"}, Dispatch: DispatchConfig{Workers: 8}, Metrics: MetricsConfig{Enabled: true}}
	changed, _ := SummarizeChange(a, b)
	if strings.Join(changed, ",") != "dispatch,metrics" {
		t.Fatalf("changed=%v", changed)
	}
	if got := RequiresRestart(append(changed, "logging", "jobs")); strings.Join(got, ",") != "dispatch,metrics" {
		t.Fatalf("restart=%v", got)
	}
}
