package extio

import (
	"context"
	"iter"
	"time"

	"github.com/mwantia/extio/errors"
)

// ScheduleCapability exposes timers.
type ScheduleCapability interface {
	// After suspends for d. Cancelling ctx before d elapses yields Cancelled.
	After(ctx context.Context, d time.Duration) error
	// Every returns a restartable sequence of ticks spaced by interval.
	// The sequence ends when ctx is done or the consumer stops.
	Every(ctx context.Context, interval time.Duration) (iter.Seq[Tick], error)
	// Now returns the backend's current time.
	Now(ctx context.Context) (time.Time, error)

	mustEmbedUnimplementedSchedule()
}

// UnimplementedSchedule must be embedded by every ScheduleCapability implementation.
type UnimplementedSchedule struct{}

func (UnimplementedSchedule) After(context.Context, time.Duration) error {
	return errors.Unsupported(OpScheduleAfter)
}

func (UnimplementedSchedule) Every(context.Context, time.Duration) (iter.Seq[Tick], error) {
	return nil, errors.Unsupported(OpScheduleEvery)
}

func (UnimplementedSchedule) Now(context.Context) (time.Time, error) {
	return time.Time{}, errors.Unsupported(OpScheduleNow)
}

func (UnimplementedSchedule) mustEmbedUnimplementedSchedule() {}

// Sleep suspends for d on behalf of op. A zero duration only checks ctx,
// a negative one is rejected.
func Sleep(ctx context.Context, op string, d time.Duration) error {
	if d < 0 {
		return errors.InvalidArgument(op, "negative duration %s", d)
	}
	if err := ctx.Err(); err != nil {
		return errors.From(op, err)
	}
	if d == 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return errors.From(op, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// Ticks builds the sequence returned by Schedule.Every. Each range over the
// sequence starts a fresh ticker and numbers ticks from 1. When now is nil
// the ticker's own timestamps are used.
func Ticks(ctx context.Context, interval time.Duration, now func() time.Time) iter.Seq[Tick] {
	return func(yield func(Tick) bool) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for seq := uint64(1); ; seq++ {
			select {
			case <-ctx.Done():
				return
			case at := <-ticker.C:
				if now != nil {
					at = now()
				}
				if !yield(Tick{Seq: seq, Time: at}) {
					return
				}
			}
		}
	}
}

// CheckTimeout validates a receive timeout on behalf of op.
func CheckTimeout(op string, timeout time.Duration) error {
	if timeout < 0 {
		return errors.InvalidArgument(op, "negative timeout %s", timeout)
	}
	return nil
}
