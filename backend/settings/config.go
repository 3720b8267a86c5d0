package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

type viperConfig struct {
	extio.UnimplementedConfig
	sb *SettingsBackend
}

// Get returns the value of key rendered as a string. Lists are joined with
// commas; a key naming a whole section is InvalidArgument.
func (c *viperConfig) Get(ctx context.Context, key string) (string, error) {
	if err := extio.ContextErr(ctx, extio.OpConfigGet); err != nil {
		return "", err
	}
	if key == "" {
		return "", errors.InvalidArgument(extio.OpConfigGet, "key must not be empty")
	}

	c.sb.mu.RLock()
	defer c.sb.mu.RUnlock()

	v := c.sb.v
	if v == nil {
		return "", errors.Unavailable(extio.OpConfigGet, "settings are not loaded")
	}
	if !v.IsSet(key) {
		return "", errors.NotFound(extio.OpConfigGet, "key '%s' is not set", key)
	}

	switch value := v.Get(key).(type) {
	case map[string]any:
		return "", errors.InvalidArgument(extio.OpConfigGet, "key '%s' names a section", key)
	case []any:
		parts := make([]string, 0, len(value))
		for _, part := range value {
			parts = append(parts, fmt.Sprint(part))
		}
		return strings.Join(parts, ","), nil
	case []string:
		return strings.Join(value, ","), nil
	}

	return v.GetString(key), nil
}
