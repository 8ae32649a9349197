package config

import (
	"strings"

	"weatherbot/pkg/logx"
)

// SummarizeChange lists the sections that differ between two configs and
// log fields describing the new values. Secrets are reported only as set or
// unset.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	var (
		changed []string
		attrs   []logx.Field
	)
	section := func(name string, differs bool, fields ...logx.Field) {
		if differs {
			changed = append(changed, name)
			attrs = append(attrs, fields...)
		}
	}

	ot, nt := oldCfg.Telegram, newCfg.Telegram
	section("telegram", ot != nt,
		logx.Bool("telegram.token_changed", ot.Token != nt.Token),
		logx.String("telegram.poll_timeout", nt.PollTimeout),
		logx.Bool("telegram.ops_chat_set", nt.OpsChat != 0),
	)
	section("logging", oldCfg.Logging != newCfg.Logging,
		logx.String("logging.level", newCfg.Logging.Level),
		logx.Bool("logging.console", newCfg.Logging.Console),
		logx.Bool("logging.file", newCfg.Logging.File.Enabled),
		logx.Bool("logging.telegram", newCfg.Logging.Telegram.Enabled),
	)
	section("storage", oldCfg.Storage != newCfg.Storage,
		logx.String("storage.driver", newCfg.Storage.Driver),
		logx.String("storage.path", strings.TrimSpace(newCfg.Storage.Path)),
		logx.Bool("storage.dsn_set", newCfg.Storage.DSN != ""),
	)
	section("weather", oldCfg.Weather != newCfg.Weather,
		logx.String("weather.endpoint", newCfg.Weather.Endpoint),
		logx.String("weather.timeout", newCfg.Weather.Timeout),
	)
	section("dispatch", oldCfg.Dispatch != newCfg.Dispatch,
		logx.Int("dispatch.workers", newCfg.Dispatch.Workers),
		logx.Bool("dispatch.window_filter", newCfg.Dispatch.WindowFilter),
	)
	section("jobs", oldCfg.Jobs != newCfg.Jobs,
		logx.String("jobs.timezone", newCfg.Jobs.Timezone),
		logx.String("jobs.dispatch_every", newCfg.Jobs.DispatchEvery),
		logx.String("jobs.purge_every", newCfg.Jobs.PurgeEvery),
	)
	section("task_engine", oldCfg.TaskEngine != newCfg.TaskEngine,
		logx.Int("task_engine.workers", newCfg.TaskEngine.Workers),
	)
	section("metrics", oldCfg.Metrics != newCfg.Metrics,
		logx.Bool("metrics.enabled", newCfg.Metrics.Enabled),
		logx.String("metrics.addr", newCfg.Metrics.Addr),
		logx.Bool("metrics.token_set", newCfg.Metrics.Token != ""),
	)
	return changed, attrs
}

// RequiresRestart reports changed sections that only take effect on
// restart. Logging and jobs apply live.
func RequiresRestart(changed []string) []string {
	var out []string
	for _, s := range changed {
		switch s {
		case "telegram", "storage", "weather", "dispatch", "task_engine", "metrics":
			out = append(out, s)
		}
	}
	return out
}
