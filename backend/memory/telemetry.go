package memory

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
	"github.com/mwantia/extio/log"
)

// Sample is a single metric recorded through Telemetry.record_metric.
type Sample struct {
	Name  string
	Value float64
	Tags  extio.Tags
	Time  time.Time
}

type memoryTelemetry struct {
	extio.UnimplementedTelemetry
	mb *MemoryBackend
}

func (t *memoryTelemetry) Log(ctx context.Context, level extio.Level, msg string, fields extio.Fields) error {
	if err := extio.ContextErr(ctx, extio.OpTelemetryLog); err != nil {
		return err
	}
	if level > extio.LevelError {
		return errors.InvalidArgument(extio.OpTelemetryLog, "unknown level %d", level)
	}

	t.mb.options.Logger.Log(level.LogLevel(), msg, log.Fields(fields))
	return nil
}

func (t *memoryTelemetry) RecordMetric(ctx context.Context, name string, value float64, tags extio.Tags) error {
	if err := extio.ContextErr(ctx, extio.OpTelemetryRecordMetric); err != nil {
		return err
	}
	if name == "" {
		return errors.InvalidArgument(extio.OpTelemetryRecordMetric, "metric name must not be empty")
	}

	t.mb.mu.Lock()
	defer t.mb.mu.Unlock()

	t.mb.samples = append(t.mb.samples, Sample{
		Name:  name,
		Value: value,
		Tags:  maps.Clone(tags),
		Time:  t.mb.now(),
	})
	return nil
}

// Samples returns every metric recorded since the backend was opened.
func (mb *MemoryBackend) Samples() []Sample {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	return slices.Clone(mb.samples)
}
