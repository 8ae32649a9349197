package config

// Config is the on-disk configuration. Durations are Go duration strings
// ("10s", "60m"); Resolve turns them into typed settings.
type Config struct {
	Telegram   TelegramConfig   `json:"telegram"`
	Logging    LoggingConfig    `json:"logging"`
	Storage    StorageConfig    `json:"storage"`
	Weather    WeatherConfig    `json:"weather"`
	Dispatch   DispatchConfig   `json:"dispatch"`
	Jobs       JobsConfig       `json:"jobs"`
	TaskEngine TaskEngineConfig `json:"task_engine"`
	Metrics    MetricsConfig    `json:"metrics"`
}

type TelegramConfig struct {
	Token       string `json:"token"`
	PollTimeout string `json:"poll_timeout,omitempty"`
	// ConnectRetries bounds startup attempts to reach Telegram.
	ConnectRetries int    `json:"connect_retries,omitempty"`
	ConnectBackoff string `json:"connect_backoff,omitempty"`
	// OpsChat receives WARN+ logs when logging.telegram is enabled.
	OpsChat        int64 `json:"ops_chat,omitempty"`
	SendRatePerSec int   `json:"send_rate_per_sec,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// StorageConfig selects the database.
//
//	"storage": { "driver": "sqlite", "path": "./weatherbot.db" }
//	"storage": { "driver": "postgres", "dsn": "postgres://..." }
type StorageConfig struct {
	Driver       string `json:"driver"`
	Path         string `json:"path,omitempty"`
	DSN          string `json:"dsn,omitempty"`
	BusyTimeout  string `json:"busy_timeout,omitempty"`
	MaxOpenConns int    `json:"max_open_conns,omitempty"`
}

type WeatherConfig struct {
	Endpoint string `json:"endpoint,omitempty"`
	Timeout  string `json:"timeout,omitempty"`
}

type DispatchConfig struct {
	Workers     int    `json:"workers,omitempty"`
	SendTimeout string `json:"send_timeout,omitempty"`
	// WindowFilter restricts alerts to each subscriber's alert window.
	WindowFilter bool `json:"window_filter,omitempty"`
}

type JobsConfig struct {
	Timezone           string `json:"timezone,omitempty"`
	DispatchEvery      string `json:"dispatch_every,omitempty"`
	DispatchFirstAfter string `json:"dispatch_first_after,omitempty"`
	PurgeEvery         string `json:"purge_every,omitempty"`
	PurgeAfterDays     int    `json:"purge_after_days,omitempty"`
	Timeout            string `json:"timeout,omitempty"`
}

type TaskEngineConfig struct {
	Workers        int    `json:"workers,omitempty"`
	QueueSize      int    `json:"queue_size,omitempty"`
	HistorySize    int    `json:"history_size,omitempty"`
	RetryMax       int    `json:"retry_max,omitempty"`
	DefaultTimeout string `json:"default_timeout,omitempty"`
}

// MetricsConfig controls the HTTP server for /metrics, /healthz and pprof.
// Bind to loopback unless a token is set.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`
	Token   string `json:"token,omitempty"` // bearer token (never logged)
}
