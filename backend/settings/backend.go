package settings

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/mwantia/extio"
)

// SettingsBackend serves Config from a viper instance combining a config
// file, environment variables and defaults. Keys are case-insensitive and
// nested sections are addressed with dots.
type SettingsBackend struct {
	extio.UnimplementedBackend

	mu sync.RWMutex
	v  *viper.Viper

	options *Options
}

func NewSettingsBackend(opts ...Option) *SettingsBackend {
	options := newDefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &SettingsBackend{
		options: options,
	}
}

// Returns the identifier name defined for this backend
func (*SettingsBackend) Name() string {
	return "settings"
}

func (sb *SettingsBackend) Open(ctx context.Context) error {
	v, err := sb.load()
	if err != nil {
		return err
	}

	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.v = v
	return nil
}

// Reload reads the config file again. The previous settings stay in place
// when reading fails.
func (sb *SettingsBackend) Reload(ctx context.Context) error {
	if err := extio.ContextErr(ctx, "reload"); err != nil {
		return err
	}
	return sb.Open(ctx)
}

func (sb *SettingsBackend) load() (*viper.Viper, error) {
	v := viper.New()

	for key, value := range sb.options.Defaults {
		v.SetDefault(key, value)
	}

	if sb.options.Env {
		v.SetEnvPrefix(sb.options.EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		v.AutomaticEnv()
	}

	if sb.options.File != "" {
		v.SetConfigFile(sb.options.File)
		if sb.options.ConfigType != "" {
			v.SetConfigType(sb.options.ConfigType)
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", sb.options.File, err)
		}
		sb.options.Logger.Debug("loaded %d settings from '%s'", len(v.AllKeys()), sb.options.File)
	}

	return v, nil
}

func (sb *SettingsBackend) Close(ctx context.Context) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.v = nil
	return nil
}

func (sb *SettingsBackend) GetCapabilities() *extio.Capabilities {
	return &extio.Capabilities{
		Groups: []extio.CapabilityGroup{
			extio.GroupConfig,
		},
		Settings: extio.Settings{
			ReadOnly: true,
		},
	}
}

func (sb *SettingsBackend) Config() extio.ConfigCapability {
	return &viperConfig{sb: sb}
}
