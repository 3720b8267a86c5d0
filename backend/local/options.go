package local

import (
	"net/http"
	"time"

	"github.com/mwantia/extio/log"
)

type Options struct {
	ReadOnly bool

	InheritEnv bool   // Spawned processes inherit the environment when Command.Env is nil.
	EnvPrefix  string // Prefix applied to keys looked up by Config.get.

	SecretsDir        string
	RestrictedSecrets map[string]bool

	IPCDir string

	HTTPClient      *http.Client
	DialTimeout     time.Duration
	MaxFrameSize    int
	MaxResponseSize int64

	Logger *log.Logger
}

type Option func(*Options)

func newDefaultOptions() *Options {
	return &Options{
		RestrictedSecrets: make(map[string]bool),
		HTTPClient:        &http.Client{},
		DialTimeout:       10 * time.Second,
		MaxFrameSize:      16 << 20,
		MaxResponseSize:   64 << 20,
		Logger:            log.Discard(),
	}
}

// AsReadOnly rejects every mutating File operation.
func AsReadOnly() Option {
	return func(o *Options) {
		o.ReadOnly = true
	}
}

// WithInheritEnv lets spawned processes inherit the backend's environment
// when a command does not specify one.
func WithInheritEnv() Option {
	return func(o *Options) {
		o.InheritEnv = true
	}
}

func WithEnvPrefix(prefix string) Option {
	return func(o *Options) {
		o.EnvPrefix = prefix
	}
}

// WithSecretsDir serves secrets and signing keys from files in dir.
func WithSecretsDir(dir string) Option {
	return func(o *Options) {
		o.SecretsDir = dir
	}
}

// WithRestrictedSecrets denies reading the named secrets.
func WithRestrictedSecrets(names ...string) Option {
	return func(o *Options) {
		for _, name := range names {
			o.RestrictedSecrets[name] = true
		}
	}
}

// WithIPCDir places IPC sockets in dir, so other processes using the same
// directory can exchange messages with this backend.
func WithIPCDir(dir string) Option {
	return func(o *Options) {
		o.IPCDir = dir
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *Options) {
		o.HTTPClient = client
	}
}

func WithMaxFrameSize(size int) Option {
	return func(o *Options) {
		o.MaxFrameSize = size
	}
}

func WithLogger(l *log.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}
