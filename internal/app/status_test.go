package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"weatherbot/internal/dispatch"
	"weatherbot/internal/task/engine"
	"weatherbot/internal/task/scheduler"
	"weatherbot/pkg/logx"
)

func TestStatusReportsCyclesAndSchedules(t *testing.T) {
	t.Parallel()

	eng := engine.New(engine.Config{Workers: 1}, logx.Nop(), nil)
	sched := scheduler.New(scheduler.Config{Timezone: "UTC"}, eng, logx.Nop())
	if _, err := sched.AddInterval(jobDispatch, time.Minute, 0, 0, scheduler.TaskOptions{}, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("AddInterval: %v", err)
	}
	a := &App{engine: eng, sched: sched}

	v := a.status(context.Background()).(statusView)
	if v.LastCycle != nil || v.LastAlert != nil {
		t.Fatalf("cycles before any run = %+v %+v", v.LastCycle, v.LastAlert)
	}
	if len(v.Schedules) != 1 || v.Schedules[0].Name != jobDispatch {
		t.Fatalf("schedules = %+v", v.Schedules)
	}

	t1 := time.Date(2025, 3, 20, 7, 0, 0, 0, time.UTC)
	a.recordCycle(dispatch.CycleResult{ID: "c1", Outcome: dispatch.OutcomeDispatched, Updated: t1, Delivery: dispatch.Status{Total: 3, Sent: 2, Failed: 1}})
	a.recordCycle(dispatch.CycleResult{ID: "c2", Outcome: dispatch.OutcomeDuplicate, Updated: t1})

	v = a.status(context.Background()).(statusView)
	if v.LastCycle == nil || v.LastCycle.ID != "c2" || v.LastCycle.Outcome != "duplicate" {
		t.Fatalf("last cycle = %+v", v.LastCycle)
	}
	if v.LastAlert == nil || v.LastAlert.ID != "c1" || v.LastAlert.Sent != 2 || v.LastAlert.Failed != 1 {
		t.Fatalf("last alert = %+v", v.LastAlert)
	}

	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"last_cycle", "last_alert", "schedules", "tasks"} {
		if _, ok := m[k]; !ok {
			t.Fatalf("status JSON missing %q: %s", k, b)
		}
	}
}
