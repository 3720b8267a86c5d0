package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/backend"
)

const (
	cfgKeyPrimary  = "primary"
	cfgKeyRoutes   = "routes"
	cfgKeyLogLevel = "log-level"
	cfgKeyLogFile  = "log-file"

	defaultPrimary = "memory://"
)

// loadConfig binds the persistent flags and reads the optional config file.
// A config file uses the flag names as keys:
//
//	primary: local:///srv/data
//	routes:
//	  Database: sqlite:///srv/data/extio.db
//	  Telemetry: telemetry://?log=production
func (a *app) loadConfig(cmd *cobra.Command) error {
	a.v.SetEnvPrefix("extio")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return err
	}

	if a.configFile == "" {
		return nil
	}

	a.v.SetConfigFile(a.configFile)
	if err := a.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// compose parses the primary and every routed address, then guards the
// composite so the CLI sees uniform errors.
func (a *app) compose() (extio.Backend, error) {
	logger := backend.WithLogger(a.logger.Named("backend"))

	address := a.v.GetString(cfgKeyPrimary)
	primary, err := backend.Parse(address, logger)
	if err != nil {
		return nil, err
	}
	// Groups routed to the same address share one backend.
	parsed := map[string]extio.Backend{address: primary}

	opts := []extio.ComposeOption{
		extio.WithComposeLogger(a.logger),
	}

	routes := a.v.GetStringMapString(cfgKeyRoutes)
	for _, name := range slices.Sorted(maps.Keys(routes)) {
		group, ok := extio.ParseGroup(name)
		if !ok {
			return nil, fmt.Errorf("unknown capability group '%s' in routes", name)
		}

		b, exists := parsed[routes[name]]
		if !exists {
			b, err = backend.Parse(routes[name], logger)
			if err != nil {
				return nil, fmt.Errorf("route '%s': %w", group, err)
			}
			parsed[routes[name]] = b
		}
		opts = append(opts, extio.WithGroup(group, b))
	}

	c, err := extio.Compose(primary, opts...)
	if err != nil {
		return nil, err
	}

	return extio.Guard(c, extio.WithLogger(a.logger)), nil
}
