package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"weatherbot/internal/task/engine"
	"weatherbot/pkg/logx"
)

func New(cfg Config, eng Enqueuer, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:    cfg,
		log:    log.With(logx.String("comp", "scheduler")),
		engine: eng,
	}
}

// Apply swaps the config; a timezone change re-registers every schedule.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	oldTZ := strings.TrimSpace(s.cfg.Timezone)
	s.cfg = cfg
	if s.c != nil && oldTZ != strings.TrimSpace(cfg.Timezone) {
		s.restartLocked()
	}
}

// Start begins triggering. Schedules added before Start are registered now.
func (s *Service) Start(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}
	s.startLocked()
	s.log.Info("service started", logx.String("tz", s.loc.String()), logx.Int("schedules", len(s.defs)))
}

// Stop halts triggering and waits for in-progress enqueue calls. Definitions
// are kept so a later Start resumes them.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
		s.log.Info("service stopped")
	case <-ctx.Done():
		s.log.Warn("service stop timed out", logx.Err(ctx.Err()))
	}
}

// AddInterval registers (or replaces, by name) a job that runs first after
// firstAfter (every, when zero) and then every interval.
func (s *Service) AddInterval(name string, every, firstAfter, timeout time.Duration, opt TaskOptions, job func(ctx context.Context) error) (string, error) {
	if every <= 0 {
		return "", fmt.Errorf("schedule %q: interval must be > 0", name)
	}
	spec := "@every " + every.String()
	return s.add(scheduleDef{name: name, spec: spec, every: every, first: firstAfter, timeout: timeout, job: job, opt: opt})
}

func (s *Service) add(d scheduleDef) (string, error) {
	d.name = strings.TrimSpace(d.name)
	if d.name == "" {
		return "", errors.New("name required")
	}
	if d.job == nil {
		return "", errors.New("job required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(d.name)
	s.defs = append(s.defs, d)
	if s.c != nil {
		s.registerLocked(&s.defs[len(s.defs)-1])
	}
	return d.name, nil
}

func (s *Service) removeLocked(name string) bool {
	for i, d := range s.defs {
		if d.name != name {
			continue
		}
		if s.c != nil && d.entryID != 0 {
			s.c.Remove(d.entryID)
		}
		s.defs = append(s.defs[:i], s.defs[i+1:]...)
		return true
	}
	return false
}

// Snapshot lists the registered schedules with their next and previous runs.
func (s *Service) Snapshot() []ScheduleInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ScheduleInfo, 0, len(s.defs))
	for _, d := range s.defs {
		info := ScheduleInfo{Name: d.name, Spec: d.spec, Timeout: d.timeout}
		if s.c != nil && d.entryID != 0 {
			e := s.c.Entry(d.entryID)
			info.Next, info.Prev = e.Next, e.Prev
		}
		out = append(out, info)
	}
	return out
}

func (s *Service) startLocked() {
	s.loc = s.loadLocationLocked()
	s.c = cron.New(cron.WithLocation(s.loc))
	for i := range s.defs {
		s.registerLocked(&s.defs[i])
	}
	s.c.Start()
}

func (s *Service) restartLocked() {
	<-s.c.Stop().Done()
	s.startLocked()
	s.log.Info("service restarted", logx.String("tz", s.loc.String()), logx.Int("schedules", len(s.defs)))
}

func (s *Service) registerLocked(d *scheduleDef) {
	def := *d
	trigger := cron.FuncJob(func() {
		err := s.engine.Enqueue(engine.Task{
			Name:    def.name,
			Timeout: def.timeout,
			Run:     def.job,
			Opt:     def.opt,
		})
		if err != nil && !errors.Is(err, engine.ErrOverlapSkip) {
			s.log.Warn("enqueue failed", logx.String("name", def.name), logx.Err(err))
		}
	})

	sched := newIntervalSchedule(d.every, d.first, time.Now().In(s.loc))
	d.entryID = s.c.Schedule(sched, trigger)
	s.log.Debug("schedule registered", logx.String("name", d.name), logx.String("spec", d.spec), logx.Time("first", sched.first))
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone; falling back to Local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}
