package extio

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/mwantia/extio/errors"
	"github.com/mwantia/extio/log"
)

// Composite routes every capability group to the backend providing it.
type Composite struct {
	UnimplementedBackend

	name      string
	primary   Backend
	routes    map[CapabilityGroup]Backend
	providers []Backend
	log       *log.Logger
}

// Compose builds a backend from primary and the group routes in opts.
// Explicit routes win; with auto routing enabled, every group declared by
// primary is served by primary. Remaining groups answer Unsupported.
func Compose(primary Backend, opts ...ComposeOption) (*Composite, error) {
	if primary == nil {
		return nil, fmt.Errorf("primary backend must not be nil")
	}

	options := newDefaultComposeOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	c := &Composite{
		name:    options.Name,
		primary: primary,
		routes:  make(map[CapabilityGroup]Backend),
		log:     options.Log.Named("compose"),
	}
	if c.name == "" {
		c.name = "composite(" + primary.Name() + ")"
	}

	caps := primary.GetCapabilities()
	for _, group := range AllGroups() {
		if b, exists := options.Backends[group]; exists {
			// Perform capability check for explicit routes
			if !b.GetCapabilities().Contains(group) {
				return nil, fmt.Errorf("backend '%s' does not declare capability group '%s'", b.Name(), group)
			}
			c.routes[group] = b
		} else if options.Auto && caps.Contains(group) {
			c.routes[group] = primary
		}
	}

	c.providers = append(c.providers, primary)
	for _, group := range AllGroups() {
		if b, exists := c.routes[group]; exists && !slices.Contains(c.providers, b) {
			c.providers = append(c.providers, b)
		}
	}

	return c, nil
}

func (c *Composite) Name() string {
	return c.name
}

// Open opens every distinct provider once. When one fails, the providers
// opened before it are closed again.
func (c *Composite) Open(ctx context.Context) error {
	for i, b := range c.providers {
		if err := b.Open(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				if cerr := c.providers[j].Close(ctx); cerr != nil {
					c.log.Warn("failed to roll back backend '%s': %v", c.providers[j].Name(), cerr)
				}
			}
			return fmt.Errorf("failed to open backend '%s': %w", b.Name(), err)
		}
		c.log.Debug("opened backend '%s'", b.Name())
	}

	return nil
}

// Close closes providers in reverse order and reports every failure.
func (c *Composite) Close(ctx context.Context) error {
	var errs []error
	for i := len(c.providers) - 1; i >= 0; i-- {
		b := c.providers[i]
		if err := b.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close backend '%s': %w", b.Name(), err))
			continue
		}
		c.log.Debug("closed backend '%s'", b.Name())
	}

	return errors.Join(errs...)
}

// GetCapabilities declares the routed groups. Object store settings come
// from the backend serving ObjectStore.
func (c *Composite) GetCapabilities() *Capabilities {
	caps := &Capabilities{}
	if pc := c.primary.GetCapabilities(); pc != nil {
		caps.Settings.ReadOnly = pc.Settings.ReadOnly
	}

	for _, group := range AllGroups() {
		if _, exists := c.routes[group]; exists {
			caps.Groups = append(caps.Groups, group)
		}
	}

	if b, exists := c.routes[GroupObjectStore]; exists {
		if oc := b.GetCapabilities(); oc != nil {
			caps.Settings.MaxObjectSize = oc.Settings.MaxObjectSize
			caps.Settings.IdempotentDelete = oc.Settings.IdempotentDelete
		}
	}

	return caps
}

// Provider returns the backend serving group.
func (c *Composite) Provider(group CapabilityGroup) (Backend, bool) {
	b, exists := c.routes[group]
	return b, exists
}

// Providers returns the distinct backends in the order they are opened.
func (c *Composite) Providers() []Backend {
	return slices.Clone(c.providers)
}

func (c *Composite) String() string {
	var parts []string
	for _, group := range AllGroups() {
		if b, exists := c.routes[group]; exists {
			parts = append(parts, string(group)+"="+b.Name())
		}
	}

	return c.name + "[" + strings.Join(parts, ",") + "]"
}

func (c *Composite) File() FileCapability {
	if b, ok := c.routes[GroupFile]; ok {
		return b.File()
	}
	return UnimplementedFile{}
}

func (c *Composite) ObjectStore() ObjectStoreCapability {
	if b, ok := c.routes[GroupObjectStore]; ok {
		return b.ObjectStore()
	}
	return UnimplementedObjectStore{}
}

func (c *Composite) Network() NetworkCapability {
	if b, ok := c.routes[GroupNetwork]; ok {
		return b.Network()
	}
	return UnimplementedNetwork{}
}

func (c *Composite) Database() DatabaseCapability {
	if b, ok := c.routes[GroupDatabase]; ok {
		return b.Database()
	}
	return UnimplementedDatabase{}
}

func (c *Composite) Process() ProcessCapability {
	if b, ok := c.routes[GroupProcess]; ok {
		return b.Process()
	}
	return UnimplementedProcess{}
}

func (c *Composite) Queue() QueueCapability {
	if b, ok := c.routes[GroupQueue]; ok {
		return b.Queue()
	}
	return UnimplementedQueue{}
}

func (c *Composite) IPC() IPCCapability {
	if b, ok := c.routes[GroupIPC]; ok {
		return b.IPC()
	}
	return UnimplementedIPC{}
}

func (c *Composite) Schedule() ScheduleCapability {
	if b, ok := c.routes[GroupSchedule]; ok {
		return b.Schedule()
	}
	return UnimplementedSchedule{}
}

func (c *Composite) Config() ConfigCapability {
	if b, ok := c.routes[GroupConfig]; ok {
		return b.Config()
	}
	return UnimplementedConfig{}
}

func (c *Composite) Telemetry() TelemetryCapability {
	if b, ok := c.routes[GroupTelemetry]; ok {
		return b.Telemetry()
	}
	return UnimplementedTelemetry{}
}

func (c *Composite) Crypto() CryptoCapability {
	if b, ok := c.routes[GroupCrypto]; ok {
		return b.Crypto()
	}
	return UnimplementedCrypto{}
}
