package app

import (
	"context"
	"time"

	"weatherbot/internal/dispatch"
	"weatherbot/internal/task/engine"
	"weatherbot/internal/task/scheduler"
)

type cycleView struct {
	ID        string    `json:"id"`
	Outcome   string    `json:"outcome"`
	Forecast  string    `json:"forecast,omitempty"`
	Updated   time.Time `json:"updated"`
	StartedAt time.Time `json:"started_at"`
	Took      string    `json:"took"`
	Total     int       `json:"recipients"`
	Sent      int       `json:"sent"`
	Failed    int       `json:"failed"`
}

func newCycleView(res *dispatch.CycleResult) *cycleView {
	if res == nil {
		return nil
	}
	return &cycleView{
		ID:        res.ID,
		Outcome:   string(res.Outcome),
		Forecast:  res.Forecast,
		Updated:   res.Updated,
		StartedAt: res.StartedAt,
		Took:      res.Took.String(),
		Total:     res.Delivery.Total,
		Sent:      res.Delivery.Sent,
		Failed:    res.Delivery.Failed,
	}
}

// statusView is served on the metrics listener at /status.
type statusView struct {
	LastCycle *cycleView               `json:"last_cycle,omitempty"`
	LastAlert *cycleView               `json:"last_alert,omitempty"`
	Schedules []scheduler.ScheduleInfo `json:"schedules"`
	Tasks     engine.Snapshot          `json:"tasks"`
}

func (a *App) recordCycle(res dispatch.CycleResult) {
	a.lastCycle.Store(&res)
	if res.Outcome == dispatch.OutcomeDispatched {
		a.lastAlert.Store(&res)
	}
}

func (a *App) status(context.Context) any {
	return statusView{
		LastCycle: newCycleView(a.lastCycle.Load()),
		LastAlert: newCycleView(a.lastAlert.Load()),
		Schedules: a.sched.Snapshot(),
		Tasks:     a.engine.Snapshot(),
	}
}
