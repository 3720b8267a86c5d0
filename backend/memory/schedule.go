package memory

import (
	"context"
	"iter"
	"time"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

type memorySchedule struct {
	extio.UnimplementedSchedule
	mb *MemoryBackend
}

func (s *memorySchedule) After(ctx context.Context, d time.Duration) error {
	return extio.Sleep(ctx, extio.OpScheduleAfter, d)
}

func (s *memorySchedule) Every(ctx context.Context, interval time.Duration) (iter.Seq[extio.Tick], error) {
	if err := extio.ContextErr(ctx, extio.OpScheduleEvery); err != nil {
		return nil, err
	}
	if interval <= 0 {
		return nil, errors.InvalidArgument(extio.OpScheduleEvery, "interval must be positive, got %s", interval)
	}

	return extio.Ticks(ctx, interval, s.mb.now), nil
}

func (s *memorySchedule) Now(ctx context.Context) (time.Time, error) {
	if err := extio.ContextErr(ctx, extio.OpScheduleNow); err != nil {
		return time.Time{}, err
	}
	return s.mb.now(), nil
}
