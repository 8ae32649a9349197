package app

import (
	"context"
	"slices"
	"strings"

	"weatherbot/internal/config"
	"weatherbot/internal/task/scheduler"
	"weatherbot/pkg/logx"
)

func (a *App) reloadLoop(c context.Context) {
	sub := a.cfgm.Subscribe(4)
	defer a.cfgm.Unsubscribe(sub)

	last := a.cfgm.Get().Raw
	for {
		select {
		case <-c.Done():
			return
		case snap, ok := <-sub:
			if !ok {
				return
			}
			a.applyConfig(last, snap)
			last = snap.Raw
		}
	}
}

// applyConfig pushes the live-reloadable sections into running components.
// Other sections are only reported; they take effect on restart.
func (a *App) applyConfig(prev *config.Config, snap config.Snapshot) {
	changed, attrs := config.SummarizeChange(prev, snap.Raw)
	if len(changed) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}
	if restart := config.RequiresRestart(changed); len(restart) > 0 {
		a.log.Warn("config changed; restart required for these sections", logx.String("sections", strings.Join(restart, ",")))
	}

	if slices.Contains(changed, "logging") || slices.Contains(changed, "telegram") {
		a.logs.Apply(snap.Raw.LogConfig())
	}
	if slices.Contains(changed, "jobs") {
		a.sched.Apply(scheduler.Config{Timezone: snap.Settings.Jobs.Location.String()})
		a.bot.SetRetentionDays(snap.Settings.Jobs.PurgeAfterDays)
		if err := registerJobs(a.sched, snap.Settings, a.jobDeps()); err != nil {
			a.log.Warn("job reschedule failed; keeping previous", logx.Err(err))
		}
	}

	fields := append([]logx.Field{logx.String("changed", strings.Join(changed, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
}
