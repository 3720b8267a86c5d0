package sqlite

import (
	"time"

	"github.com/mwantia/extio/log"
)

type Options struct {
	ReadOnly      bool
	MaxObjectSize int64
	BusyTimeout   time.Duration
	Logger        *log.Logger
}

type Option func(*Options)

func newDefaultOptions() *Options {
	return &Options{
		BusyTimeout: 5 * time.Second,
		Logger:      log.Discard(),
	}
}

// AsReadOnly opens the database with query_only set, so every write fails
// with PermissionDenied.
func AsReadOnly() Option {
	return func(o *Options) {
		o.ReadOnly = true
	}
}

// WithMaxObjectSize rejects objects larger than size bytes.
func WithMaxObjectSize(size int64) Option {
	return func(o *Options) {
		o.MaxObjectSize = size
	}
}

func WithBusyTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.BusyTimeout = timeout
	}
}

func WithLogger(l *log.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}
