package local

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

// LocalBackend serves the contract from the host operating system. Files
// are confined to a root directory, processes and connections are real,
// configuration comes from the environment and secrets from files.
//
// Handle tables are guarded by a lock, but a single file or stream handle
// is not safe for concurrent use: callers must serialize operations on it.
// Process handles may be waited on and killed concurrently.
type LocalBackend struct {
	extio.UnimplementedBackend

	mu sync.Mutex

	path string
	root *os.Root

	files     map[string]*localHandle
	streams   map[string]*stream
	processes map[string]*process
	receivers map[string]*receiver

	ipcDir     string
	ownsIPCDir bool

	options *Options
}

func NewLocalBackend(path string, opts ...Option) *LocalBackend {
	options := newDefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &LocalBackend{
		path:      path,
		files:     make(map[string]*localHandle),
		streams:   make(map[string]*stream),
		processes: make(map[string]*process),
		receivers: make(map[string]*receiver),
		options:   options,
	}
}

// Returns the identifier name defined for this backend
func (*LocalBackend) Name() string {
	return "local"
}

// Open creates the root and IPC directories when missing.
func (lb *LocalBackend) Open(ctx context.Context) error {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if lb.root != nil {
		return nil
	}

	if err := os.MkdirAll(lb.path, 0o755); err != nil {
		return fmt.Errorf("failed to create root '%s': %w", lb.path, err)
	}
	root, err := os.OpenRoot(lb.path)
	if err != nil {
		return fmt.Errorf("failed to open root '%s': %w", lb.path, err)
	}

	ipcDir := lb.options.IPCDir
	if ipcDir == "" {
		if ipcDir, err = os.MkdirTemp("", "extio-ipc-"); err != nil {
			root.Close()
			return fmt.Errorf("failed to create ipc directory: %w", err)
		}
		lb.ownsIPCDir = true
	} else if err := os.MkdirAll(ipcDir, 0o700); err != nil {
		root.Close()
		return fmt.Errorf("failed to create ipc directory '%s': %w", ipcDir, err)
	}

	lb.root = root
	lb.ipcDir = ipcDir
	lb.options.Logger.Debug("opened local backend at '%s'", lb.path)
	return nil
}

// Close releases every handle: files and streams are closed, spawned
// processes are killed and IPC sockets are removed.
func (lb *LocalBackend) Close(ctx context.Context) error {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	var errs []error
	for token, h := range lb.files {
		if err := h.file.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(lb.files, token)
	}
	for token, s := range lb.streams {
		if err := s.closeNow(); err != nil {
			errs = append(errs, err)
		}
		delete(lb.streams, token)
	}
	for token, p := range lb.processes {
		p.cmd.Process.Kill()
		delete(lb.processes, token)
	}
	for name, r := range lb.receivers {
		r.close()
		delete(lb.receivers, name)
	}

	if lb.ownsIPCDir && lb.ipcDir != "" {
		if err := os.RemoveAll(lb.ipcDir); err != nil {
			errs = append(errs, err)
		}
		lb.ipcDir = ""
	}
	if lb.root != nil {
		if err := lb.root.Close(); err != nil {
			errs = append(errs, err)
		}
		lb.root = nil
	}

	return errors.Join(errs...)
}

// GetCapabilities returns the groups supported by this backend.
func (lb *LocalBackend) GetCapabilities() *extio.Capabilities {
	groups := []extio.CapabilityGroup{
		extio.GroupFile,
		extio.GroupNetwork,
		extio.GroupProcess,
	}
	if ipcSupported {
		groups = append(groups, extio.GroupIPC)
	}
	groups = append(groups,
		extio.GroupSchedule,
		extio.GroupConfig,
		extio.GroupTelemetry,
		extio.GroupCrypto,
	)

	return &extio.Capabilities{
		Groups: groups,
		Settings: extio.Settings{
			ReadOnly: lb.options.ReadOnly,
		},
	}
}

func (lb *LocalBackend) File() extio.FileCapability           { return &localFile{lb: lb} }
func (lb *LocalBackend) Network() extio.NetworkCapability     { return &localNetwork{lb: lb} }
func (lb *LocalBackend) Process() extio.ProcessCapability     { return &localProcess{lb: lb} }
func (lb *LocalBackend) IPC() extio.IPCCapability             { return newLocalIPC(lb) }
func (lb *LocalBackend) Schedule() extio.ScheduleCapability   { return &localSchedule{} }
func (lb *LocalBackend) Config() extio.ConfigCapability       { return &localConfig{lb: lb} }
func (lb *LocalBackend) Telemetry() extio.TelemetryCapability { return &localTelemetry{lb: lb} }
func (lb *LocalBackend) Crypto() extio.CryptoCapability       { return &localCrypto{lb: lb} }

// fsRoot returns the opened root, or Unavailable before Open.
func (lb *LocalBackend) fsRoot(op string) (*os.Root, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if lb.root == nil {
		return nil, errors.Unavailable(op, "backend is not open")
	}
	return lb.root, nil
}
