package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/armon/go-metrics"
	"go.uber.org/zap"

	"github.com/mwantia/extio"
)

// TelemetryBackend serves Telemetry: log entries go to a zap logger and
// metrics become labelled gauges in an in-memory go-metrics sink.
type TelemetryBackend struct {
	extio.UnimplementedBackend

	logger  *zap.Logger
	metrics *metrics.Metrics
	sink    *metrics.InmemSink

	options *Options
}

func NewTelemetryBackend(opts ...Option) (*TelemetryBackend, error) {
	options := newDefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	sink := metrics.NewInmemSink(options.Interval, options.Retain)

	config := metrics.DefaultConfig(options.ServiceName)
	config.EnableHostname = false
	config.EnableRuntimeMetrics = false
	config.TimerGranularity = time.Millisecond

	var target metrics.MetricSink = sink
	if len(options.Sinks) > 0 {
		target = append(metrics.FanoutSink{sink}, options.Sinks...)
	}

	m, err := metrics.New(config, target)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	return &TelemetryBackend{
		logger:  options.Logger,
		metrics: m,
		sink:    sink,
		options: options,
	}, nil
}

// Returns the identifier name defined for this backend
func (*TelemetryBackend) Name() string {
	return "telemetry"
}

// Close flushes buffered log entries.
func (tb *TelemetryBackend) Close(ctx context.Context) error {
	// Syncing a terminal fails on some platforms, there is nothing to flush then.
	_ = tb.logger.Sync()
	return nil
}

func (tb *TelemetryBackend) GetCapabilities() *extio.Capabilities {
	return &extio.Capabilities{
		Groups: []extio.CapabilityGroup{
			extio.GroupTelemetry,
		},
	}
}

func (tb *TelemetryBackend) Telemetry() extio.TelemetryCapability {
	return &zapTelemetry{tb: tb}
}

// Sink exposes the in-memory sink, e.g. for metrics.NewInmemSignal or an
// HTTP handler.
func (tb *TelemetryBackend) Sink() *metrics.InmemSink {
	return tb.sink
}
