package extio

import "context"

// UnimplementedBackend must be embedded by every Backend implementation.
// It provides lifecycle no-ops, empty capabilities and the default group
// accessors; backends override the accessors of the groups they provide.
type UnimplementedBackend struct{}

func (UnimplementedBackend) Open(context.Context) error  { return nil }
func (UnimplementedBackend) Close(context.Context) error { return nil }

func (UnimplementedBackend) GetCapabilities() *Capabilities {
	return &Capabilities{}
}

func (UnimplementedBackend) File() FileCapability               { return UnimplementedFile{} }
func (UnimplementedBackend) ObjectStore() ObjectStoreCapability { return UnimplementedObjectStore{} }
func (UnimplementedBackend) Network() NetworkCapability         { return UnimplementedNetwork{} }
func (UnimplementedBackend) Database() DatabaseCapability       { return UnimplementedDatabase{} }
func (UnimplementedBackend) Process() ProcessCapability         { return UnimplementedProcess{} }
func (UnimplementedBackend) Queue() QueueCapability             { return UnimplementedQueue{} }
func (UnimplementedBackend) IPC() IPCCapability                 { return UnimplementedIPC{} }
func (UnimplementedBackend) Schedule() ScheduleCapability       { return UnimplementedSchedule{} }
func (UnimplementedBackend) Config() ConfigCapability           { return UnimplementedConfig{} }
func (UnimplementedBackend) Telemetry() TelemetryCapability     { return UnimplementedTelemetry{} }
func (UnimplementedBackend) Crypto() CryptoCapability           { return UnimplementedCrypto{} }

func (UnimplementedBackend) mustEmbedUnimplementedBackend() {}

// unsupportedBackend provides no group at all.
type unsupportedBackend struct {
	UnimplementedBackend
}

func (unsupportedBackend) Name() string { return "unsupported" }

// Unsupported returns a backend answering every operation with an
// Unsupported error.
func Unsupported() Backend {
	return unsupportedBackend{}
}
