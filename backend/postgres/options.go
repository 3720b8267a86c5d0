package postgres

import (
	"github.com/mwantia/extio/log"
)

type Options struct {
	Schema        string
	ReadOnly      bool
	MaxObjectSize int64
	MaxConns      int32
	Logger        *log.Logger
}

type Option func(*Options)

func newDefaultOptions() *Options {
	return &Options{
		Logger: log.Discard(),
	}
}

// WithSchema places every table in schema, creating it on Open.
func WithSchema(schema string) Option {
	return func(o *Options) {
		o.Schema = schema
	}
}

// AsReadOnly runs every transaction read-only.
func AsReadOnly() Option {
	return func(o *Options) {
		o.ReadOnly = true
	}
}

func WithMaxObjectSize(size int64) Option {
	return func(o *Options) {
		o.MaxObjectSize = size
	}
}

func WithMaxConns(n int32) Option {
	return func(o *Options) {
		o.MaxConns = n
	}
}

func WithLogger(l *log.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}
