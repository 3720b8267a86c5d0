package settings

import (
	"github.com/mwantia/extio/log"
)

type Options struct {
	// File is read on Open when set. Its type is taken from the extension
	// unless ConfigType is set.
	File       string
	ConfigType string

	// EnvPrefix enables environment lookups: key "db.host" with prefix
	// "app" resolves APP_DB_HOST.
	EnvPrefix string
	Env       bool

	Defaults map[string]any
	Logger   *log.Logger
}

type Option func(*Options)

func newDefaultOptions() *Options {
	return &Options{
		Defaults: make(map[string]any),
		Logger:   log.Discard(),
	}
}

func WithFile(file string) Option {
	return func(o *Options) {
		o.File = file
	}
}

// WithConfigType overrides the format detected from the file extension,
// e.g. "yaml", "json", "toml" or "env".
func WithConfigType(configType string) Option {
	return func(o *Options) {
		o.ConfigType = configType
	}
}

// WithEnv resolves keys from the environment before the file. An empty
// prefix matches unprefixed variables.
func WithEnv(prefix string) Option {
	return func(o *Options) {
		o.Env = true
		o.EnvPrefix = prefix
	}
}

func WithDefault(key string, value any) Option {
	return func(o *Options) {
		o.Defaults[key] = value
	}
}

func WithLogger(l *log.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}
