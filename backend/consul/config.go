package consul

import (
	"context"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

type consulConfig struct {
	extio.UnimplementedConfig
	cb *ConsulBackend
}

func (c *consulConfig) Get(ctx context.Context, key string) (string, error) {
	if err := extio.ContextErr(ctx, extio.OpConfigGet); err != nil {
		return "", err
	}
	if key == "" {
		return "", errors.InvalidArgument(extio.OpConfigGet, "key must not be empty")
	}

	pair, _, err := c.cb.kv.Get(c.cb.configKey(key), queryOptions(ctx))
	if err != nil {
		return "", mapError(ctx, extio.OpConfigGet, err)
	}
	if pair == nil {
		return "", errors.NotFound(extio.OpConfigGet, "config key '%s' is not set", key)
	}
	return string(pair.Value), nil
}
