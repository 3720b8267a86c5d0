package telemetry

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/armon/go-metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

// Sample is the latest value of one gauge.
type Sample struct {
	Name  string
	Value float64
	Tags  extio.Tags
}

type zapTelemetry struct {
	extio.UnimplementedTelemetry
	tb *TelemetryBackend
}

func zapLevel(level extio.Level) zapcore.Level {
	switch level {
	case extio.LevelDebug:
		return zapcore.DebugLevel
	case extio.LevelWarn:
		return zapcore.WarnLevel
	case extio.LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (t *zapTelemetry) Log(ctx context.Context, level extio.Level, msg string, fields extio.Fields) error {
	if err := extio.ContextErr(ctx, extio.OpTelemetryLog); err != nil {
		return err
	}
	if level > extio.LevelError {
		return errors.InvalidArgument(extio.OpTelemetryLog, "unknown level %d", level)
	}

	ce := t.tb.logger.Check(zapLevel(level), msg)
	if ce == nil {
		return nil
	}

	zapFields := make([]zap.Field, 0, len(fields))
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		zapFields = append(zapFields, zap.Any(key, fields[key]))
	}
	ce.Write(zapFields...)
	return nil
}

// RecordMetric sets the gauge name, split on dots into a key path, with
// one label per tag.
func (t *zapTelemetry) RecordMetric(ctx context.Context, name string, value float64, tags extio.Tags) error {
	if err := extio.ContextErr(ctx, extio.OpTelemetryRecordMetric); err != nil {
		return err
	}
	if name == "" || strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return errors.InvalidArgument(extio.OpTelemetryRecordMetric, "invalid metric name '%s'", name)
	}

	labels := make([]metrics.Label, 0, len(tags))
	for _, key := range slices.Sorted(maps.Keys(tags)) {
		labels = append(labels, metrics.Label{Name: key, Value: tags[key]})
	}

	t.tb.metrics.SetGaugeWithLabels(strings.Split(name, "."), float32(value), labels)
	return nil
}

// Snapshot returns the latest value of every gauge still retained by the
// sink, sorted by name. Names carry no service prefix.
func (tb *TelemetryBackend) Snapshot() []Sample {
	prefix := tb.options.ServiceName + "."

	// Intervals are ordered oldest first, later values win.
	latest := make(map[string]metrics.GaugeValue)
	for _, interval := range tb.sink.Data() {
		interval.RLock()
		for key, gauge := range interval.Gauges {
			latest[key] = gauge
		}
		interval.RUnlock()
	}

	samples := make([]Sample, 0, len(latest))
	for _, key := range slices.Sorted(maps.Keys(latest)) {
		gauge := latest[key]
		sample := Sample{
			Name:  strings.TrimPrefix(gauge.Name, prefix),
			Value: float64(gauge.Value),
			Tags:  make(extio.Tags, len(gauge.Labels)),
		}
		for _, label := range gauge.Labels {
			sample.Tags[label.Name] = label.Value
		}
		samples = append(samples, sample)
	}

	slices.SortStableFunc(samples, func(a, b Sample) int {
		return strings.Compare(a.Name, b.Name)
	})
	return samples
}
