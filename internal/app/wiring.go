package app

import (
	"context"
	"time"

	"weatherbot/internal/config"
	"weatherbot/internal/dispatch"
	"weatherbot/internal/observability/metrics"
	"weatherbot/internal/storage"
	"weatherbot/internal/task/engine"
	telegram "weatherbot/internal/transport/telegram/adapter"
	"weatherbot/internal/weather"
)

// commandTimeout bounds one command or conversation step.
const commandTimeout = 20 * time.Second

func storageConfig(s *config.Settings) storage.Config {
	return storage.Config{
		Driver:       s.Storage.Driver,
		Path:         s.Storage.Path,
		DSN:          s.Storage.DSN,
		BusyTimeout:  s.Storage.BusyTimeout,
		MaxOpenConns: s.Storage.MaxOpenConns,
	}
}

func adapterConfig(s *config.Settings) telegram.Config {
	return telegram.Config{
		Token:          s.Telegram.Token,
		PollTimeout:    s.Telegram.PollTimeout,
		SendRatePerSec: s.Telegram.SendRatePerSec,
		DropPending:    true,
	}
}

func weatherConfig(s *config.Settings) weather.OpenGovConfig {
	return weather.OpenGovConfig{
		Endpoint: s.Weather.Endpoint,
		Timeout:  s.Weather.Timeout,
		Location: s.Jobs.Location,
	}
}

func dispatchConfig(s *config.Settings) dispatch.Config {
	return dispatch.Config{
		Workers:      s.Dispatch.Workers,
		SendTimeout:  s.Dispatch.SendTimeout,
		WindowFilter: s.Dispatch.WindowFilter,
		Location:     s.Jobs.Location,
	}
}

func engineConfig(s *config.Settings) engine.Config {
	return engine.Config{
		Workers:        s.TaskEngine.Workers,
		QueueSize:      s.TaskEngine.QueueSize,
		DefaultTimeout: s.TaskEngine.DefaultTimeout,
		HistorySize:    s.TaskEngine.HistorySize,
		RetryMax:       s.TaskEngine.RetryMax,
	}
}

func metricsServerConfig(s *config.Settings) metrics.ServerConfig {
	return metrics.ServerConfig{Addr: s.Metrics.Addr, Token: s.Metrics.Token}
}

// menuFunc lets the bot publish the router's menu before the router exists.
type menuFunc func(ctx context.Context) error

func (f menuFunc) PublishMenu(ctx context.Context) error { return f(ctx) }
