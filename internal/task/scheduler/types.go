package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"weatherbot/internal/task/engine"
	"weatherbot/pkg/logx"
)

type Config struct {
	Timezone string // IANA TZ, e.g. "Asia/Singapore"
}

type OverlapPolicy = engine.OverlapPolicy

type TaskOptions = engine.TaskOptions

const (
	OverlapAllow         = engine.OverlapAllow
	OverlapSkipIfRunning = engine.OverlapSkipIfRunning
)

// Enqueuer is the slice of the task engine the scheduler feeds.
type Enqueuer interface {
	Enqueue(t engine.Task) error
}

type scheduleDef struct {
	name    string
	spec    string
	every   time.Duration
	first   time.Duration
	timeout time.Duration
	job     func(ctx context.Context) error
	opt     TaskOptions
	entryID cron.EntryID
}

type Service struct {
	mu sync.Mutex

	log    logx.Logger
	cfg    Config
	loc    *time.Location
	engine Enqueuer

	c    *cron.Cron
	defs []scheduleDef
}

// ScheduleInfo describes one registered schedule for status reporting.
type ScheduleInfo struct {
	Name    string        `json:"name"`
	Spec    string        `json:"spec"`
	Timeout time.Duration `json:"timeout"`
	Next    time.Time     `json:"next"`
	Prev    time.Time     `json:"prev"`
}
