package supervisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"weatherbot/pkg/logx"
)

// Backoff is a doubling delay window with 20% jitter.
type Backoff struct {
	Min time.Duration
	Max time.Duration
}

func (b Backoff) first() time.Duration {
	if b.Min <= 0 {
		return 250 * time.Millisecond
	}
	return b.Min
}

func (b Backoff) next(cur time.Duration) time.Duration {
	cur *= 2
	if b.Max > 0 && cur > b.Max {
		cur = b.Max
	}
	return cur
}

func (b Backoff) jitter(d time.Duration) time.Duration {
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}
	j := time.Duration(int64(d) / 5)
	if j > 0 {
		d += time.Duration(time.Now().UnixNano() % int64(j+1))
	}
	return d
}

// ErrRetriesExhausted wraps the last error returned by Retry.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Retry calls fn up to attempts times, sleeping with jittered backoff between
// failures. It returns nil on the first success, ctx.Err() when canceled, or
// the last error wrapped with ErrRetriesExhausted.
func Retry(ctx context.Context, log logx.Logger, name string, attempts int, b Backoff, fn func(ctx context.Context) error) error {
	if attempts <= 0 {
		attempts = 1
	}
	wait := b.first()
	var last error
	for i := 1; i <= attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		last = fn(ctx)
		if last == nil {
			return nil
		}
		if i == attempts {
			break
		}
		d := b.jitter(wait)
		log.Warn("attempt failed; retrying", logx.String("name", name), logx.Int("attempt", i), logx.Int("max", attempts), logx.Duration("backoff", d), logx.Err(last))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
		wait = b.next(wait)
	}
	return fmt.Errorf("%s: %w after %d attempts: %w", name, ErrRetriesExhausted, attempts, last)
}
