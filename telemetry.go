package extio

import (
	"context"

	"github.com/mwantia/extio/errors"
)

// TelemetryCapability exposes logging and metrics.
type TelemetryCapability interface {
	Log(ctx context.Context, level Level, msg string, fields Fields) error
	RecordMetric(ctx context.Context, name string, value float64, tags Tags) error

	mustEmbedUnimplementedTelemetry()
}

// UnimplementedTelemetry must be embedded by every TelemetryCapability implementation.
type UnimplementedTelemetry struct{}

func (UnimplementedTelemetry) Log(context.Context, Level, string, Fields) error {
	return errors.Unsupported(OpTelemetryLog)
}

func (UnimplementedTelemetry) RecordMetric(context.Context, string, float64, Tags) error {
	return errors.Unsupported(OpTelemetryRecordMetric)
}

func (UnimplementedTelemetry) mustEmbedUnimplementedTelemetry() {}
