package extio_test

import (
	"context"
	"testing"
	"time"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
	"github.com/mwantia/extio/extiotest"
	"github.com/mwantia/extio/log"
)

// TestGuard_ExclusiveResults verifies every operation settles with exactly one of a value or an error across randomized stubs.
func TestGuard_ExclusiveResults(t *testing.T) {
	for seed := range uint64(64) {
		stub := extiotest.NewRandomStub(seed)
		b := extio.Guard(stub)

		for _, probe := range extiotest.Probes() {
			value, err := probe.Call(t.Context(), b)
			extiotest.RequireExclusive(t, probe, value, err)

			if err == nil {
				continue
			}
			var e *errors.Error
			if !errors.As(err, &e) {
				t.Fatalf("seed %d %s: expected *errors.Error, got %T", seed, probe.Op, err)
			}
			if e.Op() == "" || !e.Kind().Valid() {
				t.Fatalf("seed %d %s: malformed descriptor %v", seed, probe.Op, err)
			}
		}
	}
}

// TestGuard_Outcomes verifies each malformed backend outcome is normalized.
func TestGuard_Outcomes(t *testing.T) {
	tests := map[extiotest.Outcome]func(probe extiotest.Probe, err error) bool{
		extiotest.OutcomeSuccess: func(_ extiotest.Probe, err error) bool {
			return err == nil
		},
		extiotest.OutcomeFailure: func(_ extiotest.Probe, err error) bool {
			return err != nil
		},
		extiotest.OutcomeBoth: func(_ extiotest.Probe, err error) bool {
			return err != nil
		},
		extiotest.OutcomePanic: func(_ extiotest.Probe, err error) bool {
			return errors.IsKind(err, errors.KindInternal)
		},
		extiotest.OutcomeNeither: func(probe extiotest.Probe, err error) bool {
			if probe.Result == extiotest.ResultRequired {
				return errors.IsKind(err, errors.KindInternal)
			}
			return err == nil
		},
	}

	for outcome, check := range tests {
		t.Run(outcome.String(), func(tst *testing.T) {
			b := extio.Guard(extiotest.NewStub(outcome))

			for _, probe := range extiotest.Probes() {
				value, err := probe.Call(tst.Context(), b)
				if !check(probe, err) {
					tst.Errorf("%s: unexpected settlement %v (value %#v)", probe.Op, err, value)
				}
				extiotest.RequireExclusive(tst, probe, value, err)
			}
		})
	}
}

// TestGuard_PreCancelled verifies an already cancelled context settles Cancelled without reaching the backend.
func TestGuard_PreCancelled(t *testing.T) {
	stub := extiotest.NewStub(extiotest.OutcomeSuccess)
	b := extio.Guard(stub)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	for _, probe := range extiotest.Probes() {
		value, err := probe.Call(ctx, b)
		if !errors.Is(err, errors.ErrCancelled) {
			t.Errorf("%s: expected Cancelled, got %v", probe.Op, err)
		}
		extiotest.RequireExclusive(t, probe, value, err)
		if n := stub.Calls(probe.Op); n != 0 {
			t.Errorf("%s reached the backend %d times", probe.Op, n)
		}
	}
	if stub.Live() != 0 {
		t.Errorf("%d handles leaked", stub.Live())
	}
}

// TestGuard_ExpiredDeadline verifies an expired deadline settles Timeout.
func TestGuard_ExpiredDeadline(t *testing.T) {
	b := extio.Guard(extiotest.NewStub(extiotest.OutcomeSuccess))

	ctx, cancel := context.WithDeadline(t.Context(), time.Now().Add(-time.Second))
	defer cancel()

	if _, err := b.Config().Get(ctx, "key"); !errors.Is(err, errors.ErrTimeout) {
		t.Fatalf("expected Timeout, got %v", err)
	}
}

// TestGuard_HandleReleasedOnCancel verifies a handle produced while the caller cancelled is released and never returned.
func TestGuard_HandleReleasedOnCancel(t *testing.T) {
	producers := map[string]func(ctx context.Context, b extio.Backend) (extio.Handle, error){
		extio.OpFileOpen: func(ctx context.Context, b extio.Backend) (extio.Handle, error) {
			return b.File().Open(ctx, "a.txt", extio.ModeRead)
		},
		extio.OpNetworkOpenStream: func(ctx context.Context, b extio.Backend) (extio.Handle, error) {
			return b.Network().OpenStream(ctx, "tcp://127.0.0.1:9")
		},
		extio.OpProcessSpawn: func(ctx context.Context, b extio.Backend) (extio.Handle, error) {
			return b.Process().Spawn(ctx, extio.Command{Name: "sleep", Args: []string{"10"}})
		},
		extio.OpQueueSubscribe: func(ctx context.Context, b extio.Backend) (extio.Handle, error) {
			return b.Queue().Subscribe(ctx, "topic")
		},
	}

	for op, produce := range producers {
		t.Run(op, func(tst *testing.T) {
			ctx, cancel := context.WithCancel(tst.Context())
			defer cancel()

			stub := extiotest.NewStub(extiotest.OutcomeSuccess)
			stub.OnCall = func(called string) {
				if called == op {
					cancel()
				}
			}

			h, err := produce(ctx, extio.Guard(stub))
			if !errors.Is(err, errors.ErrCancelled) {
				tst.Fatalf("expected Cancelled, got %v", err)
			}
			if !h.IsZero() {
				tst.Errorf("handle %v is observable", h)
			}
			if stub.Live() != 0 {
				tst.Errorf("%d handles leaked", stub.Live())
			}
		})
	}
}

// TestGuard_StaleHandles verifies zero and foreign handles are rejected before reaching the backend.
func TestGuard_StaleHandles(t *testing.T) {
	stub := extiotest.NewStub(extiotest.OutcomeSuccess)
	b := extio.Guard(stub)
	ctx := t.Context()

	_, err := b.File().Read(ctx, extio.Handle{}, 8)
	if !errors.Is(err, errors.ErrInvalidArgument) || errors.GetCode(err) != errors.CodeStaleHandle {
		t.Errorf("zero handle: %v", err)
	}

	_, err = b.Queue().Poll(ctx, extio.NewHandle(extio.GroupFile, "1"), 0)
	if !errors.Is(err, errors.ErrInvalidArgument) || errors.GetCode(err) != errors.CodeStaleHandle {
		t.Errorf("foreign handle: %v", err)
	}

	if stub.Calls(extio.OpFileRead) != 0 || stub.Calls(extio.OpQueuePoll) != 0 {
		t.Errorf("stale handles reached the backend")
	}
}

func TestGuard_InvalidInputs(t *testing.T) {
	b := extio.Guard(extiotest.NewStub(extiotest.OutcomeSuccess))
	ctx := t.Context()

	checks := map[string]error{
		"negative after":   b.Schedule().After(ctx, -time.Second),
		"negative timeout": func() error { _, err := b.IPC().Receive(ctx, "ch", -time.Second); return err }(),
		"zero interval":    func() error { _, err := b.Schedule().Every(ctx, 0); return err }(),
		"nil request":      func() error { _, err := b.Network().Request(ctx, nil); return err }(),
		"empty command":    func() error { _, err := b.Process().Spawn(ctx, extio.Command{}); return err }(),
		"negative read":    func() error { _, err := b.File().Read(ctx, extio.NewHandle(extio.GroupFile, "1"), -1); return err }(),
	}

	for name, err := range checks {
		if !errors.Is(err, errors.ErrInvalidArgument) {
			t.Errorf("%s: expected InvalidArgument, got %v", name, err)
		}
	}
}

// TestGuard_PreCancelledInvalidInputs verifies cancellation settles ahead of handle and argument checks.
func TestGuard_PreCancelledInvalidInputs(t *testing.T) {
	stub := extiotest.NewStub(extiotest.OutcomeSuccess)
	b := extio.Guard(stub)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	checks := map[string]error{
		"zero handle read":         func() error { _, err := b.File().Read(ctx, extio.Handle{}, 8); return err }(),
		"zero handle write":        func() error { _, err := b.File().Write(ctx, extio.Handle{}, []byte("x")); return err }(),
		"zero handle close":        b.File().Close(ctx, extio.Handle{}),
		"foreign handle poll":      func() error { _, err := b.Queue().Poll(ctx, extio.NewHandle(extio.GroupFile, "1"), 0); return err }(),
		"zero handle unsub":        b.Queue().Unsubscribe(ctx, extio.Handle{}),
		"zero handle send":         b.Network().SendOn(ctx, extio.Handle{}, []byte("x")),
		"zero handle recv":         func() error { _, err := b.Network().ReceiveFrom(ctx, extio.Handle{}); return err }(),
		"zero handle close stream": b.Network().CloseStream(ctx, extio.Handle{}),
		"zero handle wait":         func() error { _, err := b.Process().Wait(ctx, extio.Handle{}); return err }(),
		"zero handle kill":         b.Process().Kill(ctx, extio.Handle{}),
		"negative after":           b.Schedule().After(ctx, -time.Second),
		"negative timeout":         func() error { _, err := b.IPC().Receive(ctx, "ch", -time.Second); return err }(),
		"zero interval":            func() error { _, err := b.Schedule().Every(ctx, 0); return err }(),
		"nil request":              func() error { _, err := b.Network().Request(ctx, nil); return err }(),
		"empty command":            func() error { _, err := b.Process().Spawn(ctx, extio.Command{}); return err }(),
		"negative read":            func() error { _, err := b.File().Read(ctx, extio.NewHandle(extio.GroupFile, "1"), -1); return err }(),
	}

	for name, err := range checks {
		if !errors.Is(err, errors.ErrCancelled) {
			t.Errorf("%s: expected Cancelled, got %v", name, err)
		}
	}
	for _, probe := range extiotest.Probes() {
		if n := stub.Calls(probe.Op); n != 0 {
			t.Errorf("%s reached the backend %d times", probe.Op, n)
		}
	}
}

func TestGuard_LogsFailures(t *testing.T) {
	var buf safeBuffer
	logger := log.NewWriterLogger("test", log.Debug, &buf)

	b := extio.Guard(extiotest.NewStub(extiotest.OutcomePanic), extio.WithLogger(logger))
	if _, err := b.Config().Get(t.Context(), "key"); !errors.IsKind(err, errors.KindInternal) {
		t.Fatalf("expected Internal, got %v", err)
	}

	out := buf.String()
	for _, want := range []string{"test/guard", "op=Config.get", "kind=Internal"} {
		if !containsString(out, want) {
			t.Errorf("log output %q misses %q", out, want)
		}
	}
}

func TestGuard_Idempotent(t *testing.T) {
	b := extio.Guard(extiotest.NewStub(extiotest.OutcomeSuccess))
	if extio.Guard(b) != b {
		t.Errorf("guarding a guarded backend wraps it twice")
	}
	if b.Name() != "stub" {
		t.Errorf("Name = %q", b.Name())
	}
}
