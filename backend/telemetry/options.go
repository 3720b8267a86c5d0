package telemetry

import (
	"time"

	"github.com/armon/go-metrics"
	"go.uber.org/zap"
)

type Options struct {
	Logger      *zap.Logger
	ServiceName string

	// Interval and Retain configure the aggregation windows of the sink.
	Interval time.Duration
	Retain   time.Duration

	// Sinks receive every metric in addition to the in-memory sink.
	Sinks []metrics.MetricSink
}

type Option func(*Options)

func newDefaultOptions() *Options {
	return &Options{
		Logger:      zap.NewNop(),
		ServiceName: "extio",
		Interval:    10 * time.Second,
		Retain:      time.Minute,
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithServiceName prefixes every metric name with name.
func WithServiceName(name string) Option {
	return func(o *Options) {
		o.ServiceName = name
	}
}

func WithInterval(interval, retain time.Duration) Option {
	return func(o *Options) {
		o.Interval = interval
		o.Retain = retain
	}
}

func WithSink(sink metrics.MetricSink) Option {
	return func(o *Options) {
		o.Sinks = append(o.Sinks, sink)
	}
}
