package extio

import "context"

// Backend is a concrete provider of external I/O. It exposes one accessor
// per capability group; groups the backend does not provide answer every
// operation with an Unsupported error.
//
// Implementations must embed UnimplementedBackend, so that groups added to
// the contract later resolve to their defaults instead of breaking the build.
type Backend interface {
	// Name returns the identifier name defined for this backend.
	Name() string
	// Open is part of the lifecycle and gets called before the first operation.
	Open(ctx context.Context) error
	// Close is part of the lifecycle and releases everything the backend holds.
	Close(ctx context.Context) error

	// GetCapabilities returns the groups and settings declared by this backend.
	GetCapabilities() *Capabilities

	File() FileCapability
	ObjectStore() ObjectStoreCapability
	Network() NetworkCapability
	Database() DatabaseCapability
	Process() ProcessCapability
	Queue() QueueCapability
	IPC() IPCCapability
	Schedule() ScheduleCapability
	Config() ConfigCapability
	Telemetry() TelemetryCapability
	Crypto() CryptoCapability

	mustEmbedUnimplementedBackend()
}

// Capability returns the group accessor of b selected by group, or nil for
// an unknown group.
func Capability(b Backend, group CapabilityGroup) any {
	switch group {
	case GroupFile:
		return b.File()
	case GroupObjectStore:
		return b.ObjectStore()
	case GroupNetwork:
		return b.Network()
	case GroupDatabase:
		return b.Database()
	case GroupProcess:
		return b.Process()
	case GroupQueue:
		return b.Queue()
	case GroupIPC:
		return b.IPC()
	case GroupSchedule:
		return b.Schedule()
	case GroupConfig:
		return b.Config()
	case GroupTelemetry:
		return b.Telemetry()
	case GroupCrypto:
		return b.Crypto()
	}

	return nil
}
