package consul

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/consul/api"

	"github.com/mwantia/extio"
)

// ConsulBackend serves ObjectStore and Config from the Consul KV store.
//
// Layout:
// - Objects are stored at <Prefix>objects/<bucket>/<key>
// - Configuration values are read from <Prefix>config/<key>
//
// Limitations:
// - Consul KV has a 512KB limit per value
// - Deleting a missing key succeeds, Delete is declared idempotent
type ConsulBackend struct {
	extio.UnimplementedBackend

	client *api.Client
	kv     *api.KV

	config *ConsulBackendConfig
}

// ConsulBackendConfig contains configuration options for the Consul backend
type ConsulBackendConfig struct {
	// Address of the Consul server (default: "127.0.0.1:8500")
	Address string

	// Token for Consul ACL authentication (optional)
	Token string

	// Datacenter to use (optional)
	Datacenter string

	// Namespace for Consul Enterprise (optional)
	Namespace string

	// Prefix for all keys in Consul KV (default: "extio/")
	Prefix string

	// MaxObjectSize rejects larger values before they reach Consul
	// (default: 512KB)
	MaxObjectSize int64
}

// Consul rejects values above 512KB.
const defaultMaxObjectSize = 512 * 1024

// NewConsulBackend creates a new Consul-backed backend
func NewConsulBackend(config *ConsulBackendConfig) (*ConsulBackend, error) {
	if config == nil {
		config = &ConsulBackendConfig{}
	}

	// Set defaults
	if config.Address == "" {
		config.Address = "127.0.0.1:8500"
	}
	if config.Prefix == "" {
		config.Prefix = "extio/"
	}
	if !strings.HasSuffix(config.Prefix, "/") {
		config.Prefix += "/"
	}
	config.Prefix = strings.TrimPrefix(config.Prefix, "/")
	if config.MaxObjectSize <= 0 {
		config.MaxObjectSize = defaultMaxObjectSize
	}

	clientConfig := api.DefaultConfig()
	clientConfig.Address = config.Address
	if config.Token != "" {
		clientConfig.Token = config.Token
	}
	if config.Datacenter != "" {
		clientConfig.Datacenter = config.Datacenter
	}
	if config.Namespace != "" {
		clientConfig.Namespace = config.Namespace
	}

	client, err := api.NewClient(clientConfig)
	if err != nil {
		return nil, err
	}

	return &ConsulBackend{
		client: client,
		kv:     client.KV(),
		config: config,
	}, nil
}

// Name returns the identifier name defined for this backend
func (*ConsulBackend) Name() string {
	return "consul"
}

// Open verifies that the KV store answers under the configured prefix.
func (cb *ConsulBackend) Open(ctx context.Context) error {
	if _, _, err := cb.kv.Keys(cb.config.Prefix, "/", queryOptions(ctx)); err != nil {
		return fmt.Errorf("failed to reach consul at '%s': %w", cb.config.Address, err)
	}
	return nil
}

// GetCapabilities returns the groups supported by this backend
func (cb *ConsulBackend) GetCapabilities() *extio.Capabilities {
	return &extio.Capabilities{
		Groups: []extio.CapabilityGroup{
			extio.GroupObjectStore,
			extio.GroupConfig,
		},
		Settings: extio.Settings{
			MaxObjectSize:    cb.config.MaxObjectSize,
			IdempotentDelete: true,
		},
	}
}

func (cb *ConsulBackend) ObjectStore() extio.ObjectStoreCapability {
	return &consulObjectStore{cb: cb}
}

func (cb *ConsulBackend) Config() extio.ConfigCapability {
	return &consulConfig{cb: cb}
}

func (cb *ConsulBackend) objectKey(bucket, key string) string {
	return cb.config.Prefix + "objects/" + bucket + "/" + key
}

func (cb *ConsulBackend) configKey(key string) string {
	return cb.config.Prefix + "config/" + strings.TrimPrefix(key, "/")
}

func queryOptions(ctx context.Context) *api.QueryOptions {
	return (&api.QueryOptions{}).WithContext(ctx)
}

func writeOptions(ctx context.Context) *api.WriteOptions {
	return (&api.WriteOptions{}).WithContext(ctx)
}
