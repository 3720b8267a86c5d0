package local

import (
	"context"
	"os"
	"strings"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

var envReplacer = strings.NewReplacer(".", "_", "-", "_", "/", "_")

type localConfig struct {
	extio.UnimplementedConfig
	lb *LocalBackend
}

// EnvNames returns the environment variables consulted for key, in order:
// the prefixed key verbatim, then its upper-case form with separators
// replaced by underscores.
func EnvNames(prefix, key string) []string {
	verbatim := prefix + key
	normalized := strings.ToUpper(envReplacer.Replace(verbatim))
	if normalized == verbatim {
		return []string{verbatim}
	}
	return []string{verbatim, normalized}
}

func (c *localConfig) Get(ctx context.Context, key string) (string, error) {
	if err := extio.ContextErr(ctx, extio.OpConfigGet); err != nil {
		return "", err
	}
	if key == "" {
		return "", errors.InvalidArgument(extio.OpConfigGet, "key must not be empty")
	}

	for _, name := range EnvNames(c.lb.options.EnvPrefix, key) {
		if value, exists := os.LookupEnv(name); exists {
			return value, nil
		}
	}
	return "", errors.NotFound(extio.OpConfigGet, "config key '%s' is not set", key)
}
