package local

import (
	"context"
	"iter"
	"time"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

type localSchedule struct {
	extio.UnimplementedSchedule
}

func (localSchedule) After(ctx context.Context, d time.Duration) error {
	return extio.Sleep(ctx, extio.OpScheduleAfter, d)
}

func (localSchedule) Every(ctx context.Context, interval time.Duration) (iter.Seq[extio.Tick], error) {
	if err := extio.ContextErr(ctx, extio.OpScheduleEvery); err != nil {
		return nil, err
	}
	if interval <= 0 {
		return nil, errors.InvalidArgument(extio.OpScheduleEvery, "interval must be positive, got %s", interval)
	}
	return extio.Ticks(ctx, interval, nil), nil
}

func (localSchedule) Now(ctx context.Context) (time.Time, error) {
	if err := extio.ContextErr(ctx, extio.OpScheduleNow); err != nil {
		return time.Time{}, err
	}
	return time.Now(), nil
}
