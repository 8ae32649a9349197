package storage

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var hhmm = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// TimeOfDay is a wall-clock minute within a day.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay accepts only zero-padded 24-hour "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if !hhmm.MatchString(s) {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	h, _ := strconv.Atoi(s[:2])
	m, _ := strconv.Atoi(s[3:])
	return TimeOfDay{Hour: h, Minute: m}, nil
}

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

func (t TimeOfDay) minutes() int { return t.Hour*60 + t.Minute }

// InWindow reports whether now falls inside [start, end]. A window whose end
// is before its start wraps past midnight. start == end means all day.
func InWindow(now time.Time, start, end TimeOfDay) bool {
	cur := now.Hour()*60 + now.Minute()
	s, e := start.minutes(), end.minutes()
	switch {
	case s == e:
		return true
	case s < e:
		return cur >= s && cur <= e
	default:
		return cur >= s || cur <= e
	}
}
