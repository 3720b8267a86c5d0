package extio_test

import (
	"context"
	"iter"
	"testing"
	"time"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

// timerBackend provides Schedule only, built on the shared helpers.
type timerBackend struct {
	extio.UnimplementedBackend
}

func (timerBackend) Name() string { return "timer" }

func (timerBackend) Schedule() extio.ScheduleCapability { return timerSchedule{} }

type timerSchedule struct {
	extio.UnimplementedSchedule
}

func (timerSchedule) After(ctx context.Context, d time.Duration) error {
	return extio.Sleep(ctx, extio.OpScheduleAfter, d)
}

func (timerSchedule) Every(ctx context.Context, d time.Duration) (iter.Seq[extio.Tick], error) {
	return extio.Ticks(ctx, d, nil), nil
}

// TestScenario_AfterCancelled verifies a 100ms timer cancelled at 50ms settles Cancelled before it elapses.
func TestScenario_AfterCancelled(t *testing.T) {
	b := timerBackend{}

	start := time.Now()
	if err := b.Schedule().After(t.Context(), 100*time.Millisecond); err != nil {
		t.Fatalf("After failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Fatalf("After returned after %s", elapsed)
	}

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	time.AfterFunc(50*time.Millisecond, cancel)

	start = time.Now()
	err := b.Schedule().After(ctx, 100*time.Millisecond)
	elapsed := time.Since(start)

	if !errors.Is(err, errors.ErrCancelled) {
		t.Fatalf("expected Cancelled, got %v", err)
	}
	if elapsed >= 100*time.Millisecond {
		t.Errorf("cancellation settled after %s", elapsed)
	}
	if op := err.(*errors.Error).Op(); op != extio.OpScheduleAfter {
		t.Errorf("error names %q", op)
	}
}

func TestSleep(t *testing.T) {
	ctx := t.Context()

	if err := extio.Sleep(ctx, "op", 0); err != nil {
		t.Errorf("zero duration: %v", err)
	}
	if err := extio.Sleep(ctx, "op", -time.Millisecond); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("negative duration: %v", err)
	}

	expired, cancel := context.WithTimeout(ctx, time.Millisecond)
	defer cancel()
	if err := extio.Sleep(expired, "op", time.Second); !errors.Is(err, errors.ErrTimeout) {
		t.Errorf("deadline: expected Timeout, got %v", err)
	}
}

// TestTicks verifies the tick sequence is lazy and restartable.
func TestTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	ticks, err := timerBackend{}.Schedule().Every(ctx, 2*time.Millisecond)
	if err != nil {
		t.Fatalf("Every failed: %v", err)
	}

	for round := range 2 {
		var last extio.Tick
		for tick := range ticks {
			if tick.Seq != last.Seq+1 {
				t.Fatalf("round %d: tick %d follows %d", round, tick.Seq, last.Seq)
			}
			if !last.Time.IsZero() && tick.Time.Before(last.Time) {
				t.Fatalf("round %d: tick time went backwards", round)
			}
			last = tick
			if tick.Seq == 4 {
				break
			}
		}
	}

	cancel()
	done := make(chan struct{})
	go func() {
		for range ticks {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sequence did not end after cancellation")
	}
}

func TestCheckTimeout(t *testing.T) {
	if err := extio.CheckTimeout("op", 0); err != nil {
		t.Errorf("zero timeout rejected: %v", err)
	}
	if err := extio.CheckTimeout("op", -1); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("negative timeout accepted: %v", err)
	}
}
