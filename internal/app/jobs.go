package app

import (
	"context"
	"fmt"
	"time"

	"weatherbot/internal/config"
	"weatherbot/internal/dispatch"
	"weatherbot/internal/eventbus"
	"weatherbot/internal/observability/metrics"
	"weatherbot/internal/task/scheduler"
	"weatherbot/pkg/logx"
)

const (
	jobDispatch = "dispatch"
	jobPurge    = "purge"

	purgeFirstAfter = time.Minute
)

type cycleRunner interface {
	RunCycle(ctx context.Context) (dispatch.CycleResult, error)
}

type purger interface {
	PurgeInactive(ctx context.Context, cutoff time.Time) (int64, error)
}

type intervalAdder interface {
	AddInterval(name string, every, firstAfter, timeout time.Duration, opt scheduler.TaskOptions, job func(ctx context.Context) error) (string, error)
}

type jobDeps struct {
	cycles  cycleRunner
	purge   purger
	bus     eventbus.Bus
	metrics *metrics.Metrics
	log     logx.Logger
	now     func() time.Time
}

// registerJobs upserts both lifecycle jobs. Calling it again with new
// settings replaces the previous definitions.
func registerJobs(sched intervalAdder, s *config.Settings, d jobDeps) error {
	skip := scheduler.TaskOptions{Overlap: scheduler.OverlapSkipIfRunning}

	// a failed selection is retried by the next tick, not by the engine
	dispatchOpt := skip
	dispatchOpt.RetryMax = -1
	if _, err := sched.AddInterval(jobDispatch, s.Jobs.DispatchEvery, s.Jobs.DispatchFirstAfter, s.Jobs.Timeout, dispatchOpt, dispatchJob(d)); err != nil {
		return fmt.Errorf("register %s: %w", jobDispatch, err)
	}
	if _, err := sched.AddInterval(jobPurge, s.Jobs.PurgeEvery, purgeFirstAfter, s.Jobs.Timeout, skip, purgeJob(d, s.Jobs.PurgeAfterDays)); err != nil {
		return fmt.Errorf("register %s: %w", jobPurge, err)
	}
	return nil
}

func dispatchJob(d jobDeps) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		res, err := d.cycles.RunCycle(ctx)
		if d.bus != nil {
			d.bus.Publish(eventbus.Event{Type: eventbus.AlertCycle, Data: res})
		}
		return err
	}
}

func purgeJob(d jobDeps, days int) func(ctx context.Context) error {
	now := d.now
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context) error {
		cutoff := now().AddDate(0, 0, -days)
		n, err := d.purge.PurgeInactive(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("purge inactive: %w", err)
		}
		d.metrics.Purged(n)
		if n > 0 {
			d.log.Info("inactive subscribers purged", logx.Int64("count", n), logx.Time("cutoff", cutoff))
		}
		return nil
	}
}
