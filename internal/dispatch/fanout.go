package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/errgroup"

	"weatherbot/internal/storage"
	"weatherbot/pkg/logx"
)

// Status is the settled result of one fan-out.
type Status struct {
	Total    int
	Sent     int
	Failed   int
	Failures []string // user ids
}

type settle struct {
	mu sync.Mutex
	st Status
}

func (s *settle) markDone() {
	s.mu.Lock()
	s.st.Sent++
	s.mu.Unlock()
}

func (s *settle) markFail(userID string) {
	s.mu.Lock()
	s.st.Failed++
	s.st.Failures = append(s.st.Failures, userID)
	s.mu.Unlock()
}

// fanOut sends msg to every recipient concurrently and returns once every
// attempt has settled. Each goroutine swallows its own error and panic so one
// recipient cannot cancel or abort the others.
func (e *Engine) fanOut(ctx context.Context, recipients []storage.EligibleSubscriber, msg string, log logx.Logger) Status {
	st := &settle{st: Status{Total: len(recipients)}}

	var g errgroup.Group
	if e.cfg.Workers > 0 {
		g.SetLimit(e.cfg.Workers)
	}
	for _, r := range recipients {
		r := r
		g.Go(func() error {
			if err := e.sendOne(ctx, r, msg); err != nil {
				st.markFail(r.UserID)
				e.metrics.Delivery(false)
				log.Warn("alert delivery failed", logx.String("user", r.UserID), logx.String("chat", r.ChatID), logx.Err(err))
				return nil
			}
			st.markDone()
			e.metrics.Delivery(true)
			return nil
		})
	}
	_ = g.Wait()
	return st.st
}

func (e *Engine) sendOne(ctx context.Context, r storage.EligibleSubscriber, msg string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v\n%s", p, debug.Stack())
		}
	}()
	if e.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.SendTimeout)
		defer cancel()
	}
	return e.sender.SendHTML(ctx, r.ChatID, msg)
}
