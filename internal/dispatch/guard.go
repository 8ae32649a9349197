package dispatch

import (
	"time"

	"weatherbot/internal/weather"
)

// Guard remembers the updatedTimestamp of the last forecast that triggered a
// dispatch. It is process-local and not synchronized: only one cycle runs at
// a time.
type Guard struct {
	last time.Time
}

// ShouldDispatch is true iff the forecast is rain-like and its update
// timestamp differs from the last dispatched one.
func (g *Guard) ShouldDispatch(f *weather.Forecast) bool {
	if f == nil || f.UpdatedTimestamp.Equal(g.last) {
		return false
	}
	return weather.IsRainLike(f)
}

// RecordDispatched marks f as dispatched.
func (g *Guard) RecordDispatched(f *weather.Forecast) {
	if f == nil {
		return
	}
	g.last = f.UpdatedTimestamp
}

// LastNotified returns the zero time until the first dispatch.
func (g *Guard) LastNotified() time.Time { return g.last }
