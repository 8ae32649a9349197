package scheduler

import "time"

// intervalSchedule fires first at a fixed point and then every interval.
// Unlike cron.Every it keeps sub-second precision.
type intervalSchedule struct {
	every time.Duration
	first time.Time
}

func newIntervalSchedule(every, firstAfter time.Duration, now time.Time) *intervalSchedule {
	if firstAfter <= 0 {
		firstAfter = every
	}
	return &intervalSchedule{every: every, first: now.Add(firstAfter)}
}

func (s *intervalSchedule) Next(t time.Time) time.Time {
	if t.Before(s.first) {
		return s.first
	}
	return t.Add(s.every)
}
