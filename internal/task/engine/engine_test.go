package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"weatherbot/pkg/logx"
)

func startEngine(t *testing.T, cfg Config) *Service {
	t.Helper()
	s := New(cfg, logx.Nop(), nil)
	s.Start(context.Background())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.Stop(ctx)
	})
	return s
}

func waitHistory(t *testing.T, s *Service, n int) []HistoryItem {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h := s.Snapshot().History; len(h) >= n {
			return h
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("history never reached %d items", n)
	return nil
}

func TestPanicIsCaughtAndWorkerSurvives(t *testing.T) {
	t.Parallel()

	s := startEngine(t, Config{Workers: 1})
	if err := s.Enqueue(Task{Name: "boom", Run: func(context.Context) error { panic("x") }, Opt: TaskOptions{RetryMax: -1}}); err != nil {
		t.Fatalf("enqueue boom: %v", err)
	}
	if err := s.Enqueue(Task{Name: "ok", Run: func(context.Context) error { return nil }}); err != nil {
		t.Fatalf("enqueue ok: %v", err)
	}

	h := waitHistory(t, s, 2)
	if h[0].Name != "boom" || h[0].Error == "" {
		t.Fatalf("boom history = %+v", h[0])
	}
	if h[1].Name != "ok" || h[1].Error != "" {
		t.Fatalf("ok history = %+v", h[1])
	}
}

func TestRetriesThenNoRetry(t *testing.T) {
	t.Parallel()

	s := startEngine(t, Config{Workers: 1})
	var calls atomic.Int32
	err := s.Enqueue(Task{
		Name: "flaky",
		Opt:  TaskOptions{RetryMax: 3, RetryBase: time.Millisecond, RetryMaxDelay: 2 * time.Millisecond},
		Run: func(context.Context) error {
			if calls.Add(1) == 2 {
				return NoRetry(errors.New("permanent"))
			}
			return errors.New("transient")
		},
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	h := waitHistory(t, s, 1)
	if h[0].Attempts != 2 || h[0].Error != "permanent" {
		t.Fatalf("history = %+v, want 2 attempts ending in permanent", h[0])
	}
}

func TestOverlapSkip(t *testing.T) {
	t.Parallel()

	s := startEngine(t, Config{Workers: 2})
	release := make(chan struct{})
	slow := Task{Name: "slow", Opt: TaskOptions{Overlap: OverlapSkipIfRunning}, Run: func(context.Context) error {
		<-release
		return nil
	}}
	if err := s.Enqueue(slow); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if err := s.Enqueue(slow); !errors.Is(err, ErrOverlapSkip) {
		t.Fatalf("second enqueue err = %v, want ErrOverlapSkip", err)
	}
	close(release)
	waitHistory(t, s, 1)

	// Once finished the gate is open again.
	deadline := time.Now().Add(time.Second)
	for {
		err := s.Enqueue(Task{Name: "slow", Opt: TaskOptions{Overlap: OverlapSkipIfRunning}, Run: func(context.Context) error { return nil }})
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("gate never reopened: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTimeoutAppliesToRun(t *testing.T) {
	t.Parallel()

	s := startEngine(t, Config{Workers: 1, RetryMax: -1})
	err := s.Enqueue(Task{Name: "slow", Timeout: 20 * time.Millisecond, Run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	h := waitHistory(t, s, 1)
	if h[0].Error != context.DeadlineExceeded.Error() {
		t.Fatalf("error = %q, want deadline exceeded", h[0].Error)
	}
}

func TestEnqueueAfterStop(t *testing.T) {
	t.Parallel()

	s := New(Config{}, logx.Nop(), nil)
	if err := s.Enqueue(Task{Name: "x", Run: func(context.Context) error { return nil }}); !errors.Is(err, ErrStopped) {
		t.Fatalf("err = %v, want ErrStopped", err)
	}
}
