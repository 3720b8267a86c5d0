package extio

import (
	"fmt"

	"github.com/mwantia/extio/log"
)

type ComposeOptions struct {
	Backends map[CapabilityGroup]Backend

	Name string      // Name reported by the composite backend.
	Auto bool        // Route groups declared by the primary to the primary.
	Log  *log.Logger // Logger used for lifecycle events.
}

type ComposeOption func(*ComposeOptions) error

func newDefaultComposeOptions() *ComposeOptions {
	return &ComposeOptions{
		Backends: make(map[CapabilityGroup]Backend),
		Auto:     true,
		Log:      log.Discard(),
	}
}

// WithGroup routes group to b. The backend must declare the group.
func WithGroup(group CapabilityGroup, b Backend) ComposeOption {
	return func(opts *ComposeOptions) error {
		if _, ok := ParseGroup(string(group)); !ok {
			return fmt.Errorf("unknown capability group '%s'", group)
		}
		if b == nil {
			return fmt.Errorf("no backend defined for group '%s'", group)
		}
		if _, exists := opts.Backends[group]; exists {
			return fmt.Errorf("group '%s' is already routed", group)
		}

		opts.Backends[group] = b
		return nil
	}
}

func WithFile(b Backend) ComposeOption        { return WithGroup(GroupFile, b) }
func WithObjectStore(b Backend) ComposeOption { return WithGroup(GroupObjectStore, b) }
func WithNetwork(b Backend) ComposeOption     { return WithGroup(GroupNetwork, b) }
func WithDatabase(b Backend) ComposeOption    { return WithGroup(GroupDatabase, b) }
func WithProcess(b Backend) ComposeOption     { return WithGroup(GroupProcess, b) }
func WithQueue(b Backend) ComposeOption       { return WithGroup(GroupQueue, b) }
func WithIPC(b Backend) ComposeOption         { return WithGroup(GroupIPC, b) }
func WithSchedule(b Backend) ComposeOption    { return WithGroup(GroupSchedule, b) }
func WithConfig(b Backend) ComposeOption      { return WithGroup(GroupConfig, b) }
func WithTelemetry(b Backend) ComposeOption   { return WithGroup(GroupTelemetry, b) }
func WithCrypto(b Backend) ComposeOption      { return WithGroup(GroupCrypto, b) }

// DisableAuto stops routing to the primary, so only explicitly routed groups are served.
func DisableAuto() ComposeOption {
	return func(opts *ComposeOptions) error {
		opts.Auto = false
		return nil
	}
}

// WithName overrides the name reported by the composite backend.
func WithName(name string) ComposeOption {
	return func(opts *ComposeOptions) error {
		opts.Name = name
		return nil
	}
}

// WithComposeLogger sets the logger used for lifecycle events.
func WithComposeLogger(l *log.Logger) ComposeOption {
	return func(opts *ComposeOptions) error {
		if l == nil {
			return fmt.Errorf("logger must not be nil")
		}
		opts.Log = l
		return nil
	}
}

type GuardOptions struct {
	Logger      *log.Logger
	LogLevel    log.LogLevel
	LogFile     string
	TerminalLog bool
}

type GuardOption func(*GuardOptions)

func newDefaultGuardOptions() *GuardOptions {
	return &GuardOptions{
		LogLevel: log.Info,
	}
}

// WithLogger reports every failure settled by the guard to l.
func WithLogger(l *log.Logger) GuardOption {
	return func(opts *GuardOptions) {
		opts.Logger = l
	}
}

func WithLogLevel(logLevel log.LogLevel) GuardOption {
	return func(opts *GuardOptions) {
		opts.LogLevel = logLevel
	}
}

// WithLogFile writes guard logs to a rotated file.
func WithLogFile(logFile string) GuardOption {
	return func(opts *GuardOptions) {
		opts.LogFile = logFile
	}
}

func WithTerminalLog() GuardOption {
	return func(opts *GuardOptions) {
		opts.TerminalLog = true
	}
}

func (opts *GuardOptions) logger() *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	if opts.LogFile == "" && !opts.TerminalLog {
		return log.Discard()
	}

	return log.NewLogger("extio", opts.LogLevel, opts.LogFile, !opts.TerminalLog)
}
