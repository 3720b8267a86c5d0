package local

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

// process tracks a spawned command. done is closed once the command has
// exited and exitCode is set.
type process struct {
	cmd      *exec.Cmd
	done     chan struct{}
	exitCode int
	waitErr  error

	killOnce sync.Once
}

type localProcess struct {
	extio.UnimplementedProcess
	lb *LocalBackend
}

// command prepares c without starting it. The environment is empty unless
// c.Env is set or the backend inherits its own; the working directory is
// resolved inside the root.
func (p *localProcess) command(op string, c extio.Command) (*exec.Cmd, error) {
	if c.Name == "" {
		return nil, errors.InvalidArgument(op, "command name is empty")
	}

	cmd := exec.Command(c.Name, c.Args...)
	cmd.Dir = filepath.Join(p.lb.path, cleanPath(c.Dir))

	switch {
	case c.Env != nil:
		cmd.Env = make([]string, 0, len(c.Env))
		for key, value := range c.Env {
			cmd.Env = append(cmd.Env, key+"="+value)
		}
	case p.lb.options.InheritEnv:
		cmd.Env = os.Environ()
	default:
		cmd.Env = []string{}
	}

	return cmd, nil
}

// startError classifies failures of exec.Cmd.Start: a missing executable
// is NotFound, a missing working directory too.
func startError(op string, err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return errors.Wrap(err, errors.KindNotFound, op, "executable not found")
	}
	return errors.From(op, err)
}

func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, err
}

func (p *localProcess) Spawn(ctx context.Context, c extio.Command) (extio.Handle, error) {
	if err := extio.ContextErr(ctx, extio.OpProcessSpawn); err != nil {
		return extio.Handle{}, err
	}

	cmd, err := p.command(extio.OpProcessSpawn, c)
	if err != nil {
		return extio.Handle{}, err
	}
	if err := cmd.Start(); err != nil {
		return extio.Handle{}, startError(extio.OpProcessSpawn, err)
	}

	proc := &process{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go func() {
		defer close(proc.done)
		proc.exitCode, proc.waitErr = exitCode(cmd.Wait())
	}()

	token := newToken()

	p.lb.mu.Lock()
	p.lb.processes[token] = proc
	p.lb.mu.Unlock()

	p.lb.options.Logger.Debug("spawned '%s' with pid %d", c.Name, cmd.Process.Pid)
	return extio.NewHandle(extio.GroupProcess, token), nil
}

func (lb *LocalBackend) processHandle(op string, h extio.Handle) (*process, error) {
	if h.Group() != extio.GroupProcess {
		return nil, errors.StaleHandle(op, h.String())
	}

	lb.mu.Lock()
	defer lb.mu.Unlock()

	proc, exists := lb.processes[h.Token()]
	if !exists {
		return nil, errors.StaleHandle(op, h.String())
	}
	return proc, nil
}

func (lb *LocalBackend) releaseProcess(h extio.Handle, proc *process) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if lb.processes[h.Token()] == proc {
		delete(lb.processes, h.Token())
	}
}

// Wait blocks until the process exits and releases its handle. A cancelled
// wait leaves the handle valid.
func (p *localProcess) Wait(ctx context.Context, h extio.Handle) (int, error) {
	if err := extio.ContextErr(ctx, extio.OpProcessWait); err != nil {
		return 0, err
	}

	proc, err := p.lb.processHandle(extio.OpProcessWait, h)
	if err != nil {
		return 0, err
	}

	select {
	case <-ctx.Done():
		return 0, errors.From(extio.OpProcessWait, ctx.Err())
	case <-proc.done:
	}

	p.lb.releaseProcess(h, proc)
	if proc.waitErr != nil {
		return 0, errors.From(extio.OpProcessWait, proc.waitErr)
	}
	return proc.exitCode, nil
}

// Kill terminates the process, waits for it to exit and releases its handle.
func (p *localProcess) Kill(ctx context.Context, h extio.Handle) error {
	if err := extio.ContextErr(ctx, extio.OpProcessKill); err != nil {
		return err
	}

	proc, err := p.lb.processHandle(extio.OpProcessKill, h)
	if err != nil {
		return err
	}

	var killErr error
	proc.killOnce.Do(func() {
		killErr = proc.cmd.Process.Kill()
	})
	if killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
		return errors.From(extio.OpProcessKill, killErr)
	}

	select {
	case <-ctx.Done():
		return errors.From(extio.OpProcessKill, ctx.Err())
	case <-proc.done:
	}

	p.lb.releaseProcess(h, proc)
	return nil
}

// Exec runs name to completion and returns its combined output.
//
// Deprecated: Use Spawn followed by Wait.
func (p *localProcess) Exec(ctx context.Context, name string, args ...string) (*extio.ExecResult, error) {
	if err := extio.ContextErr(ctx, extio.OpProcessExec); err != nil {
		return nil, err
	}

	cmd, err := p.command(extio.OpProcessExec, extio.Command{Name: name, Args: args})
	if err != nil {
		return nil, err
	}

	type result struct {
		output []byte
		err    error
	}
	finished := make(chan result, 1)

	var output lockedBuffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Start(); err != nil {
		return nil, startError(extio.OpProcessExec, err)
	}
	go func() {
		err := cmd.Wait()
		finished <- result{output: output.Bytes(), err: err}
	}()

	select {
	case <-ctx.Done():
		cmd.Process.Kill()
		<-finished
		return nil, errors.From(extio.OpProcessExec, ctx.Err())
	case res := <-finished:
		code, err := exitCode(res.err)
		if err != nil {
			return nil, errors.From(extio.OpProcessExec, err)
		}
		return &extio.ExecResult{ExitCode: code, Output: res.output}, nil
	}
}

// lockedBuffer collects stdout and stderr written from separate goroutines.
type lockedBuffer struct {
	mu   sync.Mutex
	data []byte
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *lockedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return []byte{}
	}
	return append([]byte(nil), b.data...)
}
