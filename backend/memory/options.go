package memory

import (
	"time"

	"github.com/mwantia/extio/log"
)

type Options struct {
	ReadOnly      bool
	MaxObjectSize int64

	Config      map[string]string
	Secrets     map[string][]byte
	Restricted  map[string]bool
	SigningKeys map[string]bool
	MasterKey   []byte
	Clock       func() time.Time
	Logger      *log.Logger
}

type Option func(*Options)

func newDefaultOptions() *Options {
	return &Options{
		Config:     make(map[string]string),
		Secrets:    make(map[string][]byte),
		Restricted: make(map[string]bool),
		Clock:      time.Now,
		Logger:     log.Discard(),
	}
}

// AsReadOnly rejects every mutating File and ObjectStore operation.
func AsReadOnly() Option {
	return func(o *Options) {
		o.ReadOnly = true
	}
}

// WithMaxObjectSize limits the size of stored objects; zero means unlimited.
func WithMaxObjectSize(size int64) Option {
	return func(o *Options) {
		o.MaxObjectSize = size
	}
}

// WithConfig sets the values served by Config.get.
func WithConfig(values map[string]string) Option {
	return func(o *Options) {
		for k, v := range values {
			o.Config[k] = v
		}
	}
}

// WithSecret stores a secret served by Crypto.get_secret.
func WithSecret(name string, value []byte) Option {
	return func(o *Options) {
		o.Secrets[name] = value
	}
}

// WithRestrictedSecret stores a secret that callers may never read.
func WithRestrictedSecret(name string, value []byte) Option {
	return func(o *Options) {
		o.Secrets[name] = value
		o.Restricted[name] = true
	}
}

// WithSigningKeys limits Crypto.sign and Crypto.verify to the given key ids.
// Without it, a key is derived for any id.
func WithSigningKeys(ids ...string) Option {
	return func(o *Options) {
		if o.SigningKeys == nil {
			o.SigningKeys = make(map[string]bool)
		}
		for _, id := range ids {
			o.SigningKeys[id] = true
		}
	}
}

// WithMasterKey sets the secret signing keys are derived from.
func WithMasterKey(key []byte) Option {
	return func(o *Options) {
		o.MasterKey = key
	}
}

func WithClock(clock func() time.Time) Option {
	return func(o *Options) {
		o.Clock = clock
	}
}

// WithLogger receives entries written through Telemetry.log.
func WithLogger(l *log.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}
