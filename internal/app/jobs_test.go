package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"weatherbot/internal/config"
	"weatherbot/internal/dispatch"
	"weatherbot/internal/eventbus"
	"weatherbot/internal/task/scheduler"
	"weatherbot/pkg/logx"
)

type fakeCycles struct {
	res dispatch.CycleResult
	err error
}

func (f *fakeCycles) RunCycle(context.Context) (dispatch.CycleResult, error) { return f.res, f.err }

type fakePurger struct {
	cutoff time.Time
	n      int64
	err    error
}

func (f *fakePurger) PurgeInactive(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.n, f.err
}

type added struct {
	every, first, timeout time.Duration
	opt                   scheduler.TaskOptions
}

type fakeAdder struct {
	jobs map[string]added
	fail string
}

func (f *fakeAdder) AddInterval(name string, every, firstAfter, timeout time.Duration, opt scheduler.TaskOptions, _ func(context.Context) error) (string, error) {
	if name == f.fail {
		return "", errors.New("bad schedule")
	}
	if f.jobs == nil {
		f.jobs = map[string]added{}
	}
	f.jobs[name] = added{every: every, first: firstAfter, timeout: timeout, opt: opt}
	return name, nil
}

func resolved(t *testing.T) *config.Settings {
	t.Helper()
	s, err := config.Resolve(&config.Config{Telegram: config.TelegramConfig{Token: "x"}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return s
}

func TestRegisterJobs(t *testing.T) {
	t.Parallel()

	s := resolved(t)
	ad := &fakeAdder{}
	if err := registerJobs(ad, s, jobDeps{log: logx.Nop()}); err != nil {
		t.Fatalf("registerJobs: %v", err)
	}

	d, ok := ad.jobs[jobDispatch]
	if !ok {
		t.Fatalf("dispatch job not registered")
	}
	if d.every != time.Hour || d.first != 10*time.Second {
		t.Fatalf("dispatch every=%s first=%s", d.every, d.first)
	}
	if d.opt.Overlap != scheduler.OverlapSkipIfRunning || d.opt.RetryMax >= 0 {
		t.Fatalf("dispatch opt=%+v", d.opt)
	}

	p, ok := ad.jobs[jobPurge]
	if !ok {
		t.Fatalf("purge job not registered")
	}
	if p.every != 24*time.Hour || p.opt.Overlap != scheduler.OverlapSkipIfRunning {
		t.Fatalf("purge=%+v", p)
	}
}

func TestRegisterJobsError(t *testing.T) {
	t.Parallel()

	if err := registerJobs(&fakeAdder{fail: jobPurge}, resolved(t), jobDeps{log: logx.Nop()}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDispatchJobPublishesResult(t *testing.T) {
	t.Parallel()

	bus := eventbus.New()
	events, unsub := bus.Subscribe(2, eventbus.AlertCycle)
	defer unsub()

	wantErr := errors.New("select failed")
	job := dispatchJob(jobDeps{
		cycles: &fakeCycles{res: dispatch.CycleResult{ID: "c1", Outcome: dispatch.OutcomeError}, err: wantErr},
		bus:    bus,
	})
	if err := job(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("err=%v", err)
	}

	select {
	case e := <-events:
		res, ok := e.Data.(dispatch.CycleResult)
		if !ok || res.ID != "c1" {
			t.Fatalf("event data=%#v", e.Data)
		}
	default:
		t.Fatalf("cycle result not published")
	}
}

func TestPurgeJobCutoff(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	p := &fakePurger{n: 2}
	job := purgeJob(jobDeps{purge: p, log: logx.Nop(), now: func() time.Time { return now }}, 30)
	if err := job(context.Background()); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC); !p.cutoff.Equal(want) {
		t.Fatalf("cutoff=%s want %s", p.cutoff, want)
	}

	p.err = errors.New("db locked")
	if err := job(context.Background()); err == nil {
		t.Fatalf("expected purge error")
	}
}
