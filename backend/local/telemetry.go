package local

import (
	"context"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
	"github.com/mwantia/extio/log"
)

// localTelemetry writes both log entries and metrics through the backend
// logger. Metrics become info entries carrying the name, value and tags.
type localTelemetry struct {
	extio.UnimplementedTelemetry
	lb *LocalBackend
}

func (t *localTelemetry) Log(ctx context.Context, level extio.Level, msg string, fields extio.Fields) error {
	if err := extio.ContextErr(ctx, extio.OpTelemetryLog); err != nil {
		return err
	}
	if level > extio.LevelError {
		return errors.InvalidArgument(extio.OpTelemetryLog, "unknown level %d", level)
	}

	t.lb.options.Logger.Log(level.LogLevel(), msg, log.Fields(fields))
	return nil
}

func (t *localTelemetry) RecordMetric(ctx context.Context, name string, value float64, tags extio.Tags) error {
	if err := extio.ContextErr(ctx, extio.OpTelemetryRecordMetric); err != nil {
		return err
	}
	if name == "" {
		return errors.InvalidArgument(extio.OpTelemetryRecordMetric, "metric name must not be empty")
	}

	fields := make(log.Fields, len(tags)+2)
	for key, value := range tags {
		fields["tag."+key] = value
	}
	fields["metric"] = name
	fields["value"] = value

	t.lb.options.Logger.Log(log.Info, "metric", fields)
	return nil
}
