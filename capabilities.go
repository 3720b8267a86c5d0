package extio

import (
	"slices"
	"strings"
)

// CapabilityGroup names a cluster of related operations.
type CapabilityGroup string

const (
	GroupFile        CapabilityGroup = "File"
	GroupObjectStore CapabilityGroup = "ObjectStore"
	GroupNetwork     CapabilityGroup = "Network"
	GroupDatabase    CapabilityGroup = "Database"
	GroupProcess     CapabilityGroup = "Process"
	GroupQueue       CapabilityGroup = "Queue"
	GroupIPC         CapabilityGroup = "IPC"
	GroupSchedule    CapabilityGroup = "Schedule"
	GroupConfig      CapabilityGroup = "Config"
	GroupTelemetry   CapabilityGroup = "Telemetry"
	GroupCrypto      CapabilityGroup = "Crypto"
)

// AllGroups returns every capability group known to this version of the contract.
func AllGroups() []CapabilityGroup {
	return []CapabilityGroup{
		GroupFile,
		GroupObjectStore,
		GroupNetwork,
		GroupDatabase,
		GroupProcess,
		GroupQueue,
		GroupIPC,
		GroupSchedule,
		GroupConfig,
		GroupTelemetry,
		GroupCrypto,
	}
}

// ParseGroup resolves a group by name, ignoring case.
func ParseGroup(name string) (CapabilityGroup, bool) {
	for _, group := range AllGroups() {
		if strings.EqualFold(string(group), name) {
			return group, true
		}
	}

	return "", false
}

// Settings are backend-declared behaviors callers may rely on.
type Settings struct {
	// ReadOnly marks a backend that rejects every mutating operation.
	ReadOnly bool `json:"readonly,omitempty"`
	// MaxObjectSize limits object and file payloads (0 = unlimited).
	MaxObjectSize int64 `json:"max_object_size,omitempty"`
	// IdempotentDelete declares that deleting a missing key or path succeeds
	// instead of failing with NotFound.
	IdempotentDelete bool `json:"idempotent_delete,omitempty"`
}

// Capabilities describes which groups a backend implements for real.
type Capabilities struct {
	Groups   []CapabilityGroup `json:"groups"`
	Settings Settings          `json:"settings,omitempty"`
}

// Contains checks if a group is declared.
func (c *Capabilities) Contains(group CapabilityGroup) bool {
	if c == nil {
		return false
	}

	return slices.Contains(c.Groups, group)
}
