// Package dispatch runs the alert cycle: fetch the forecast, decide whether
// it is new and rain-like, select subscribers and fan the alert out.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"weatherbot/internal/observability/metrics"
	"weatherbot/internal/storage"
	"weatherbot/internal/weather"
	"weatherbot/pkg/logx"
)

// SubscriberLister selects the subscribers an alert may go to.
type SubscriberLister interface {
	ListEligibleSubscribers(ctx context.Context) ([]storage.EligibleSubscriber, error)
}

// Sender delivers one HTML message to one chat.
type Sender interface {
	SendHTML(ctx context.Context, chatID string, html string) error
}

type Config struct {
	// Workers bounds concurrent deliveries; <=0 means unbounded.
	Workers int
	// SendTimeout bounds a single delivery; 0 means no per-send timeout.
	SendTimeout time.Duration
	// WindowFilter drops subscribers whose alert window excludes the cycle time.
	WindowFilter bool
	Location     *time.Location
}

// Outcome labels how a cycle ended.
type Outcome string

const (
	OutcomeNoForecast Outcome = "no_forecast"
	OutcomeNotRain    Outcome = "not_rain"
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeDispatched Outcome = "dispatched"
	OutcomeError      Outcome = "error"
)

type CycleResult struct {
	ID        string
	Outcome   Outcome
	Forecast  string
	Updated   time.Time
	Delivery  Status
	StartedAt time.Time
	Took      time.Duration
}

type Engine struct {
	cfg     Config
	source  weather.Source
	subs    SubscriberLister
	sender  Sender
	log     logx.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	guard Guard
}

func New(cfg Config, source weather.Source, subs SubscriberLister, sender Sender, log logx.Logger, m *metrics.Metrics) *Engine {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Engine{
		cfg:     cfg,
		source:  source,
		subs:    subs,
		sender:  sender,
		log:     log.With(logx.String("comp", "dispatch")),
		metrics: m,
		now:     time.Now,
	}
}

// LastNotified exposes the guard state.
func (e *Engine) LastNotified() time.Time { return e.guard.LastNotified() }

// RunCycle executes one dispatch cycle. It must not be called concurrently;
// the scheduler runs it with skip-if-running. Fetch failures end the cycle
// quietly. A selection error is returned and leaves the guard untouched so
// the same forecast is retried on the next tick. Delivery failures never fail
// the cycle.
func (e *Engine) RunCycle(ctx context.Context) (CycleResult, error) {
	start := e.now()
	res := CycleResult{ID: uuid.NewString(), StartedAt: start}
	log := e.log.With(logx.String("cycle", res.ID))

	finish := func(o Outcome) CycleResult {
		res.Outcome = o
		res.Took = e.now().Sub(start)
		e.metrics.ObserveCycle(string(o), start)
		return res
	}

	f := e.source.Fetch(ctx, start.In(e.cfg.Location))
	if f == nil {
		log.Debug("no forecast; cycle skipped")
		return finish(OutcomeNoForecast), nil
	}
	res.Forecast = f.Condition()
	res.Updated = f.UpdatedTimestamp

	if !e.guard.ShouldDispatch(f) {
		o := OutcomeNotRain
		if weather.IsRainLike(f) {
			o = OutcomeDuplicate
		}
		log.Debug("no dispatch", logx.String("outcome", string(o)), logx.String("forecast", f.Condition()), logx.Time("updated", f.UpdatedTimestamp))
		return finish(o), nil
	}

	recipients, err := e.subs.ListEligibleSubscribers(ctx)
	if err != nil {
		finish(OutcomeError)
		return res, fmt.Errorf("select subscribers: %w", err)
	}
	e.guard.RecordDispatched(f)

	if e.cfg.WindowFilter {
		recipients = filterWindow(recipients, start.In(e.cfg.Location))
	}

	res.Delivery = e.fanOut(ctx, recipients, weather.AlertMessage(f), log)
	out := finish(OutcomeDispatched)
	log.Info("alert dispatched",
		logx.String("forecast", f.Condition()),
		logx.Time("updated", f.UpdatedTimestamp),
		logx.Int("total", out.Delivery.Total),
		logx.Int("sent", out.Delivery.Sent),
		logx.Int("failed", out.Delivery.Failed),
		logx.Duration("took", out.Took),
	)
	return out, nil
}

func filterWindow(in []storage.EligibleSubscriber, at time.Time) []storage.EligibleSubscriber {
	out := in[:0:0]
	for _, s := range in {
		if storage.InWindow(at, s.AlertStart, s.AlertEnd) {
			out = append(out, s)
		}
	}
	return out
}
