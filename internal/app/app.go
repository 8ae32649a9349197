// Package app wires the bot together and owns its lifecycle.
package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"weatherbot/internal/bot"
	"weatherbot/internal/config"
	"weatherbot/internal/conversation"
	"weatherbot/internal/dispatch"
	"weatherbot/internal/eventbus"
	"weatherbot/internal/observability/metrics"
	rtsup "weatherbot/internal/runtime/supervisor"
	"weatherbot/internal/storage"
	"weatherbot/internal/task/engine"
	"weatherbot/internal/task/scheduler"
	kit "weatherbot/internal/transport"
	telegram "weatherbot/internal/transport/telegram/adapter"
	"weatherbot/internal/transport/telegram/router"
	"weatherbot/internal/weather"
	"weatherbot/pkg/logx"
	"weatherbot/pkg/systemd"
)

type App struct {
	cfgm *config.Manager
	sup  *rtsup.Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store *storage.Store

	adapter  *telegram.Adapter
	router   *router.Router
	bot      *bot.Bot
	tracker  *bot.Tracker
	dispatch *dispatch.Engine

	engine  *engine.Service
	sched   *scheduler.Service
	metrics *metrics.Metrics
	http    *metrics.Server

	updates chan kit.Update

	lastCycle atomic.Pointer[dispatch.CycleResult]
	lastAlert atomic.Pointer[dispatch.CycleResult]
}

// New loads config, opens storage and connects to Telegram. The Telegram
// handshake is retried per telegram.connect_retries before giving up.
func New(ctx context.Context, cfgm *config.Manager) (*App, error) {
	snap, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	s := snap.Settings

	logSvc, root := logx.New(snap.Raw.LogConfig(), nil)
	log := root.With(logx.String("comp", "app"))
	cfgm.SetLogger(root)

	var m *metrics.Metrics
	if s.Metrics.Enabled {
		m = metrics.New()
	}

	store, err := storage.Open(ctx, storageConfig(s), root.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	log.Info("storage ready", logx.String("driver", s.Storage.Driver))

	var ad *telegram.Adapter
	backoff := rtsup.Backoff{Min: s.Telegram.ConnectBackoff, Max: 30 * time.Second}
	err = rtsup.Retry(ctx, log, "telegram.connect", s.Telegram.ConnectRetries, backoff, func(context.Context) error {
		a, err := telegram.New(adapterConfig(s), root)
		if err != nil {
			return err
		}
		ad = a
		return nil
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	logSvc.SetSender(logx.SenderFunc(func(ctx context.Context, chatID int64, text string) error {
		_, err := ad.SendText(ctx, kit.ChatTarget{ChatID: chatID}, text, &kit.SendOptions{DisablePreview: true})
		return err
	}))

	bus := eventbus.New()
	convo := conversation.New(store, root)

	var rt *router.Router
	b := bot.New(store, convo, menuFunc(func(ctx context.Context) error { return rt.PublishMenu(ctx) }), root)
	b.SetRetentionDays(s.Jobs.PurgeAfterDays)
	rt = router.New(router.Options{
		Adapter:     ad,
		Log:         root,
		Bus:         bus,
		Metrics:     m,
		Convo:       convo,
		Text:        b.HandleText,
		TextTimeout: commandTimeout,
	})
	rt.SetCommands(b.Commands(commandTimeout))

	src := weather.NewOpenGovClient(weatherConfig(s), root)
	disp := dispatch.New(dispatchConfig(s), src, store, bot.AlertSender{Adapter: ad}, root, m)

	eng := engine.New(engineConfig(s), root, m)
	sched := scheduler.New(scheduler.Config{Timezone: s.Jobs.Location.String()}, eng, root)

	a := &App{
		cfgm:     cfgm,
		log:      log,
		logs:     logSvc,
		bus:      bus,
		store:    store,
		adapter:  ad,
		router:   rt,
		bot:      b,
		tracker:  bot.NewTracker(store, bus, root),
		dispatch: disp,
		engine:   eng,
		sched:    sched,
		metrics:  m,
		updates:  make(chan kit.Update, 256),
	}
	if err := registerJobs(sched, s, a.jobDeps()); err != nil {
		_ = store.Close()
		return nil, err
	}
	if s.Metrics.Enabled {
		a.http = metrics.NewServer(metricsServerConfig(s), m, store.Ping, a.status, root)
	}
	return a, nil
}

func (a *App) jobDeps() jobDeps {
	return jobDeps{
		cycles:  a.dispatch,
		purge:   a.store,
		bus:     a.bus,
		metrics: a.metrics,
		log:     a.log,
	}
}

// Done is closed when the app context is canceled (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error seen by the app supervisor.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.NewSupervisor(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))
	c := a.sup.Context()

	if a.http != nil {
		if err := a.http.Start(c); err != nil {
			return err
		}
	}
	a.engine.Start(c)
	a.sched.Start(c)

	if err := a.adapter.Start(c, a.updates); err != nil {
		return err
	}
	a.sup.Go("router.dispatch", func(c context.Context) error {
		return a.router.DispatchLoop(c, a.updates)
	})
	a.sup.Go("tracker", func(c context.Context) error {
		return a.tracker.Run(c, 256)
	})
	a.sup.Go0("menu.publish", func(c context.Context) {
		if err := a.router.PublishMenu(c); err != nil {
			a.log.Warn("publish command menu failed", logx.Err(err))
		}
	})
	a.sup.Go0("cycle.log", a.logCycles)
	a.sup.Go0("config.reload", a.reloadLoop)
	a.sup.Go("config.watch", a.cfgm.Watch)
	a.sup.Go0("systemd.watchdog", func(c context.Context) {
		if err := systemd.Watchdog(c); err != nil {
			a.log.Warn("systemd watchdog stopped", logx.Err(err))
		}
	})

	a.log.Info("app started", logx.Int("commands", len(a.router.Menu())))
	return nil
}

// logCycles records every dispatch cycle published on the bus.
func (a *App) logCycles(c context.Context) {
	events, unsub := a.bus.Subscribe(16, eventbus.AlertCycle)
	defer unsub()
	for {
		select {
		case <-c.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			res, ok := e.Data.(dispatch.CycleResult)
			if !ok {
				continue
			}
			a.recordCycle(res)
			a.log.Debug("dispatch cycle",
				logx.String("cycle", res.ID),
				logx.String("outcome", string(res.Outcome)),
				logx.Duration("took", res.Took),
			)
			if res.Outcome == dispatch.OutcomeDispatched {
				_ = systemd.Status(fmt.Sprintf("last alert %s (%d/%d sent)", res.Updated.Format(time.RFC3339), res.Delivery.Sent, res.Delivery.Total))
			}
		}
	}
}
