package memory

import (
	"context"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

type memoryConfig struct {
	extio.UnimplementedConfig
	mb *MemoryBackend
}

func (c *memoryConfig) Get(ctx context.Context, key string) (string, error) {
	if err := extio.ContextErr(ctx, extio.OpConfigGet); err != nil {
		return "", err
	}
	if key == "" {
		return "", errors.InvalidArgument(extio.OpConfigGet, "key must not be empty")
	}

	value, exists := c.mb.options.Config[key]
	if !exists {
		return "", errors.NotFound(extio.OpConfigGet, "config key '%s' is not set", key)
	}
	return value, nil
}
