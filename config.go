package extio

import (
	"context"

	"github.com/mwantia/extio/errors"
)

// ConfigCapability exposes environment-provided settings. It is read-only.
type ConfigCapability interface {
	// Get returns the value of key, or NotFound.
	Get(ctx context.Context, key string) (string, error)

	mustEmbedUnimplementedConfig()
}

// UnimplementedConfig must be embedded by every ConfigCapability implementation.
type UnimplementedConfig struct{}

func (UnimplementedConfig) Get(context.Context, string) (string, error) {
	return "", errors.Unsupported(OpConfigGet)
}

func (UnimplementedConfig) mustEmbedUnimplementedConfig() {}
