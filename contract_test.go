package extio_test

import (
	"context"
	"strings"
	"testing"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
	"github.com/mwantia/extio/extiotest"
)

type emptyBackend struct {
	extio.UnimplementedBackend
}

func (emptyBackend) Name() string { return "empty" }

// fileReader implements only File.open and File.read.
type fileReader struct {
	extio.UnimplementedBackend
}

func (fileReader) Name() string { return "file-reader" }

func (fileReader) GetCapabilities() *extio.Capabilities {
	return &extio.Capabilities{Groups: []extio.CapabilityGroup{extio.GroupFile}}
}

func (fileReader) File() extio.FileCapability { return readerFile{} }

type readerFile struct {
	extio.UnimplementedFile
}

func (readerFile) Open(_ context.Context, path string, _ extio.OpenMode) (extio.Handle, error) {
	return extio.NewHandle(extio.GroupFile, path), nil
}

func (readerFile) Read(context.Context, extio.Handle, int) ([]byte, error) {
	return []byte{}, nil
}

// TestContract_DefaultsAreUnsupported verifies every operation of a backend overriding nothing yields Unsupported naming it.
func TestContract_DefaultsAreUnsupported(t *testing.T) {
	backends := map[string]extio.Backend{
		"empty":   emptyBackend{},
		"context": extio.FromContext(t.Context()),
		"guarded": extio.Guard(emptyBackend{}),
	}

	for name, b := range backends {
		t.Run(name, func(tst *testing.T) {
			for _, probe := range extiotest.Probes() {
				value, err := probe.Call(tst.Context(), b)
				if !errors.Is(err, errors.ErrUnsupported) {
					tst.Fatalf("%s: expected Unsupported, got %v", probe.Op, err)
				}
				if got := err.(*errors.Error).Op(); got != probe.Op {
					tst.Errorf("%s: error names %q", probe.Op, got)
				}
				if !strings.Contains(err.Error(), probe.Op) {
					tst.Errorf("%s: message %q does not name the operation", probe.Op, err.Error())
				}
				extiotest.RequireExclusive(tst, probe, value, err)
			}
		})
	}
}

// TestContract_ProbesCoverCatalog verifies the probe set and the operation catalog agree.
func TestContract_ProbesCoverCatalog(t *testing.T) {
	ops := extio.Operations()
	probes := extiotest.Probes()

	if len(ops) != len(probes) {
		t.Fatalf("catalog has %d operations, probes cover %d", len(ops), len(probes))
	}

	for i, op := range ops {
		if probes[i].Op != op.Name || probes[i].Group != op.Group {
			t.Errorf("probe %d is %s/%s, catalog has %s/%s", i, probes[i].Group, probes[i].Op, op.Group, op.Name)
		}
		group, ok := extio.GroupOf(op.Name)
		if !ok || group != op.Group {
			t.Errorf("GroupOf(%q) = %q, %v", op.Name, group, ok)
		}
	}
}

// TestContract_DeprecatedExec verifies the deprecated operation is still listed and routed.
func TestContract_DeprecatedExec(t *testing.T) {
	var found bool
	for _, op := range extio.Operations() {
		if op.Name == extio.OpProcessExec {
			found = true
			if op.Deprecated == "" {
				t.Errorf("%s is not marked deprecated", op.Name)
			}
			continue
		}
		if op.Deprecated != "" {
			t.Errorf("%s is unexpectedly deprecated", op.Name)
		}
	}
	if !found {
		t.Fatalf("%s missing from catalog", extio.OpProcessExec)
	}

	stub := extiotest.NewStub(extiotest.OutcomeSuccess)
	res, err := extio.Guard(stub).Process().Exec(t.Context(), "true") //nolint:staticcheck
	if err != nil || res == nil {
		t.Fatalf("Exec = %v, %v", res, err)
	}
	if stub.Calls(extio.OpProcessExec) != 1 {
		t.Errorf("Exec was not routed to the backend")
	}
}

// TestScenario_PartialBackend verifies a caller reaching an unimplemented group gets Unsupported naming the operation.
func TestScenario_PartialBackend(t *testing.T) {
	ctx := t.Context()
	b := fileReader{}

	h, err := b.File().Open(ctx, "notes.txt", extio.ModeRead)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := b.File().Read(ctx, h, 8); err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	_, err = b.Network().Request(ctx, &extio.Request{Method: "GET", URL: "https://example.com"})
	if !errors.Is(err, errors.ErrUnsupported) {
		t.Fatalf("expected Unsupported, got %v", err)
	}

	var e *errors.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	if e.Op() != "Network.request" {
		t.Errorf("expected operation 'Network.request', got %q", e.Op())
	}

	if err := b.File().Delete(ctx, "notes.txt"); !errors.IsKind(err, errors.KindUnsupported) {
		t.Errorf("expected Unsupported for File.delete, got %v", err)
	}
}

// TestContext_Selection verifies backends travel with the context and nothing is global.
func TestContext_Selection(t *testing.T) {
	ctx := t.Context()

	if extio.HasBackend(ctx) {
		t.Fatalf("fresh context carries a backend")
	}

	stub := extiotest.NewStub(extiotest.OutcomeSuccess)
	scoped := extio.WithBackend(ctx, stub)

	if got := extio.FromContext(scoped); got != extio.Backend(stub) {
		t.Fatalf("FromContext returned %v", got)
	}
	if !extio.HasBackend(scoped) {
		t.Errorf("HasBackend = false for scoped context")
	}

	value, err := extio.FromContext(scoped).Config().Get(scoped, "key")
	if err != nil || value != "value" {
		t.Errorf("Get = %q, %v", value, err)
	}

	if _, err := extio.FromContext(ctx).Config().Get(ctx, "key"); !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("parent context should stay unbound, got %v", err)
	}
}

func TestHandle(t *testing.T) {
	var zero extio.Handle
	if !zero.IsZero() {
		t.Errorf("zero handle reports non-zero")
	}

	h := extio.NewHandle(extio.GroupQueue, "7")
	if h.IsZero() || h.Group() != extio.GroupQueue || h.Token() != "7" {
		t.Errorf("unexpected handle %v", h)
	}
	if h != extio.NewHandle(extio.GroupQueue, "7") {
		t.Errorf("equal handles compare unequal")
	}
	if h == extio.NewHandle(extio.GroupFile, "7") {
		t.Errorf("handles of different groups compare equal")
	}
}

func TestCapabilities(t *testing.T) {
	var nilCaps *extio.Capabilities
	if nilCaps.Contains(extio.GroupFile) {
		t.Errorf("nil capabilities contain File")
	}

	caps := &extio.Capabilities{Groups: []extio.CapabilityGroup{extio.GroupFile, extio.GroupCrypto}}
	if !caps.Contains(extio.GroupCrypto) || caps.Contains(extio.GroupIPC) {
		t.Errorf("unexpected Contains result for %v", caps.Groups)
	}

	for _, group := range extio.AllGroups() {
		parsed, ok := extio.ParseGroup(strings.ToLower(string(group)))
		if !ok || parsed != group {
			t.Errorf("ParseGroup(%q) = %q, %v", group, parsed, ok)
		}
	}
	if _, ok := extio.ParseGroup("Printer"); ok {
		t.Errorf("ParseGroup accepted an unknown group")
	}
}

func TestOpenMode(t *testing.T) {
	tests := []struct {
		mode     extio.OpenMode
		readable bool
		writable bool
	}{
		{0, true, false},
		{extio.ModeRead, true, false},
		{extio.ModeWrite, false, true},
		{extio.ModeReadWrite, true, true},
		{extio.ModeAppend | extio.ModeCreate, false, true},
	}

	for _, tt := range tests {
		if got := tt.mode.IsReadable(); got != tt.readable {
			t.Errorf("%08b IsReadable = %v", tt.mode, got)
		}
		if got := tt.mode.IsWritable(); got != tt.writable {
			t.Errorf("%08b IsWritable = %v", tt.mode, got)
		}
	}
}
