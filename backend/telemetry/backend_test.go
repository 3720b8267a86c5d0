package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
	"github.com/mwantia/extio/extiotest"
)

func newTestBackend(t *testing.T, opts ...Option) *TelemetryBackend {
	t.Helper()

	tb, err := NewTelemetryBackend(opts...)
	require.NoError(t, err)
	require.NoError(t, tb.Open(t.Context()))
	t.Cleanup(func() {
		tb.Close(context.Background())
	})

	return tb
}

func newObservedBackend(t *testing.T, level zapcore.Level) (*TelemetryBackend, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return newTestBackend(t, WithLogger(zap.New(core))), logs
}

func TestTelemetryBackend_Conformance(t *testing.T) {
	factories := map[string]extiotest.Factory{
		"plain": func(t *testing.T) extio.Backend {
			return newTestBackend(t)
		},
		"guarded": func(t *testing.T) extio.Backend {
			return extio.Guard(newTestBackend(t))
		},
	}

	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			extiotest.Run(t, factory, extiotest.Fixtures{})
		})
	}
}

func TestTelemetryBackend_Log(t *testing.T) {
	tb, logs := newObservedBackend(t, zapcore.DebugLevel)
	ctx := t.Context()

	tests := []struct {
		level extio.Level
		want  zapcore.Level
	}{
		{extio.LevelDebug, zapcore.DebugLevel},
		{extio.LevelInfo, zapcore.InfoLevel},
		{extio.LevelWarn, zapcore.WarnLevel},
		{extio.LevelError, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			msg := "entry at " + tt.level.String()
			require.NoError(t, tb.Telemetry().Log(ctx, tt.level, msg, extio.Fields{
				"request": "r-1",
				"attempt": 3,
			}))

			entries := logs.FilterMessage(msg).All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.want, entries[0].Level)

			fields := entries[0].ContextMap()
			assert.Equal(t, "r-1", fields["request"])
			assert.EqualValues(t, 3, fields["attempt"])
		})
	}
}

func TestTelemetryBackend_LogFiltered(t *testing.T) {
	tb, logs := newObservedBackend(t, zapcore.WarnLevel)
	ctx := t.Context()

	require.NoError(t, tb.Telemetry().Log(ctx, extio.LevelInfo, "dropped", nil))
	require.NoError(t, tb.Telemetry().Log(ctx, extio.LevelError, "kept", nil))

	assert.Equal(t, 0, logs.FilterMessage("dropped").Len())
	assert.Equal(t, 1, logs.FilterMessage("kept").Len())
}

func TestTelemetryBackend_LogUnknownLevel(t *testing.T) {
	tb := newTestBackend(t)

	err := tb.Telemetry().Log(t.Context(), extio.Level(42), "msg", nil)
	extiotest.RequireKind(t, err, errors.KindInvalidArgument)
	extiotest.RequireOp(t, err, extio.OpTelemetryLog)
}

func TestTelemetryBackend_RecordMetric(t *testing.T) {
	tb := newTestBackend(t)
	ctx := t.Context()

	require.NoError(t, tb.Telemetry().RecordMetric(ctx, "queue.depth", 3, extio.Tags{"topic": "jobs"}))
	require.NoError(t, tb.Telemetry().RecordMetric(ctx, "queue.depth", 7, extio.Tags{"topic": "jobs"}))
	require.NoError(t, tb.Telemetry().RecordMetric(ctx, "uptime", 12.5, nil))

	samples := tb.Snapshot()
	require.Len(t, samples, 2)

	assert.Equal(t, "queue.depth", samples[0].Name)
	assert.InDelta(t, 7, samples[0].Value, 0.001)
	assert.Equal(t, extio.Tags{"topic": "jobs"}, samples[0].Tags)

	assert.Equal(t, "uptime", samples[1].Name)
	assert.InDelta(t, 12.5, samples[1].Value, 0.001)
	assert.Empty(t, samples[1].Tags)
}

func TestTelemetryBackend_RecordMetricInvalidName(t *testing.T) {
	tb := newTestBackend(t)

	for _, name := range []string{"", ".leading", "trailing.", "double..dot"} {
		t.Run(name, func(t *testing.T) {
			err := tb.Telemetry().RecordMetric(t.Context(), name, 1, nil)
			extiotest.RequireKind(t, err, errors.KindInvalidArgument)
		})
	}

	assert.Empty(t, tb.Snapshot())
}

func TestTelemetryBackend_ServiceName(t *testing.T) {
	tb := newTestBackend(t, WithServiceName("worker"))

	require.NoError(t, tb.Telemetry().RecordMetric(t.Context(), "jobs", 1, nil))

	samples := tb.Snapshot()
	require.Len(t, samples, 1)
	assert.Equal(t, "jobs", samples[0].Name)
}
