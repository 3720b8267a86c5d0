package extio

import (
	"context"

	"github.com/mwantia/extio/errors"
)

// ProcessCapability exposes process execution.
type ProcessCapability interface {
	// Spawn starts cmd and returns a handle to the running process.
	Spawn(ctx context.Context, cmd Command) (Handle, error)
	// Wait suspends until the process exits and returns its exit code.
	// The handle is released once Wait succeeds.
	Wait(ctx context.Context, h Handle) (int, error)
	// Kill terminates the process and releases the handle.
	Kill(ctx context.Context, h Handle) error
	// Exec runs name with args to completion and returns its exit code and
	// combined output.
	//
	// Deprecated: use Spawn and Wait. Exec is kept with its original
	// behavior for backends and callers written against it.
	Exec(ctx context.Context, name string, args ...string) (*ExecResult, error)

	mustEmbedUnimplementedProcess()
}

// UnimplementedProcess must be embedded by every ProcessCapability implementation.
type UnimplementedProcess struct{}

func (UnimplementedProcess) Spawn(context.Context, Command) (Handle, error) {
	return Handle{}, errors.Unsupported(OpProcessSpawn)
}

func (UnimplementedProcess) Wait(context.Context, Handle) (int, error) {
	return 0, errors.Unsupported(OpProcessWait)
}

func (UnimplementedProcess) Kill(context.Context, Handle) error {
	return errors.Unsupported(OpProcessKill)
}

func (UnimplementedProcess) Exec(context.Context, string, ...string) (*ExecResult, error) {
	return nil, errors.Unsupported(OpProcessExec)
}

func (UnimplementedProcess) mustEmbedUnimplementedProcess() {}
