package memory

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/btree"

	"github.com/mwantia/extio"
)

// MemoryBackend keeps every resource in process memory. It serves File,
// ObjectStore, Queue, IPC, Schedule, Config, Telemetry and Crypto.
//
// All state is guarded by a single lock, so handles issued by this backend
// are safe for concurrent use; operations on one handle are applied in the
// order they acquire the lock.
type MemoryBackend struct {
	extio.UnimplementedBackend

	mu sync.Mutex

	files   *btree.Map[string, *file]
	handles map[string]*openFile
	objects *btree.Map[string, []byte]

	topics        map[string]map[string]*mailbox
	subscriptions map[string]*subscription
	channels      map[string]*mailbox

	samples []Sample

	options *Options
}

func NewMemoryBackend(opts ...Option) *MemoryBackend {
	options := newDefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	if len(options.MasterKey) == 0 {
		options.MasterKey = make([]byte, 32)
		rand.Read(options.MasterKey)
	}

	mb := &MemoryBackend{
		options: options,
	}
	mb.resetUnsafe()

	return mb
}

// Returns the identifier name defined for this backend
func (*MemoryBackend) Name() string {
	return "memory"
}

// Open is part of the lifecycle behaviour and gets called when opening this backend.
func (mb *MemoryBackend) Open(ctx context.Context) error {
	// No initialization needed - backend is ready to use
	return nil
}

// Close drops every resource and invalidates all issued handles.
func (mb *MemoryBackend) Close(ctx context.Context) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	for _, sub := range mb.subscriptions {
		sub.box.closeUnsafe()
	}
	for _, box := range mb.channels {
		box.closeUnsafe()
	}
	mb.resetUnsafe()

	return nil
}

// resetUnsafe MUST be called while holding the lock, or before the backend is shared.
func (mb *MemoryBackend) resetUnsafe() {
	mb.files = btree.NewMap[string, *file](0)
	mb.handles = make(map[string]*openFile)
	mb.objects = btree.NewMap[string, []byte](0)
	mb.topics = make(map[string]map[string]*mailbox)
	mb.subscriptions = make(map[string]*subscription)
	mb.channels = make(map[string]*mailbox)
	mb.samples = nil
}

// GetCapabilities returns the groups supported by this backend.
func (mb *MemoryBackend) GetCapabilities() *extio.Capabilities {
	return &extio.Capabilities{
		Groups: []extio.CapabilityGroup{
			extio.GroupFile,
			extio.GroupObjectStore,
			extio.GroupQueue,
			extio.GroupIPC,
			extio.GroupSchedule,
			extio.GroupConfig,
			extio.GroupTelemetry,
			extio.GroupCrypto,
		},
		Settings: extio.Settings{
			ReadOnly:      mb.options.ReadOnly,
			MaxObjectSize: mb.options.MaxObjectSize,
		},
	}
}

func (mb *MemoryBackend) File() extio.FileCapability               { return &memoryFile{mb: mb} }
func (mb *MemoryBackend) ObjectStore() extio.ObjectStoreCapability { return &memoryObjectStore{mb: mb} }
func (mb *MemoryBackend) Queue() extio.QueueCapability             { return &memoryQueue{mb: mb} }
func (mb *MemoryBackend) IPC() extio.IPCCapability                 { return &memoryIPC{mb: mb} }
func (mb *MemoryBackend) Schedule() extio.ScheduleCapability       { return &memorySchedule{mb: mb} }
func (mb *MemoryBackend) Config() extio.ConfigCapability           { return &memoryConfig{mb: mb} }
func (mb *MemoryBackend) Telemetry() extio.TelemetryCapability     { return &memoryTelemetry{mb: mb} }
func (mb *MemoryBackend) Crypto() extio.CryptoCapability           { return &memoryCrypto{mb: mb} }

func (mb *MemoryBackend) now() time.Time {
	return mb.options.Clock()
}

func newToken() string {
	return uuid.Must(uuid.NewV7()).String()
}
