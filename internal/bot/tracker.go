package bot

import (
	"context"
	"time"

	"weatherbot/internal/eventbus"
	kit "weatherbot/internal/transport"
	"weatherbot/pkg/logx"
)

// Tracker upserts every message sender as a subscriber. It reads chat events
// from the bus, so a slow database never delays a reply.
type Tracker struct {
	store   SubscriberStore
	bus     eventbus.Bus
	log     logx.Logger
	timeout time.Duration
}

func NewTracker(store SubscriberStore, bus eventbus.Bus, log logx.Logger) *Tracker {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Tracker{store: store, bus: bus, log: log.With(logx.String("comp", "tracker")), timeout: 5 * time.Second}
}

// Run consumes events until ctx is done. buffer sizes the bus subscription.
func (t *Tracker) Run(ctx context.Context, buffer int) error {
	events, unsub := t.bus.Subscribe(buffer, eventbus.ChatMessage)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			m, ok := e.Data.(kit.Message)
			if !ok {
				continue
			}
			t.track(ctx, m)
		}
	}
}

func (t *Tracker) track(ctx context.Context, m kit.Message) {
	if m.IsBot || m.FromID == 0 {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	if err := t.store.TrackSubscriber(cctx, profileOf(m)); err != nil {
		t.log.Warn("track subscriber failed", logx.Int64("user_id", m.FromID), logx.Err(err))
	}
}
