package extiotest

import (
	"context"
	"fmt"
	"iter"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

// Outcome is the behavior a Stub picks for a single call.
type Outcome uint8

const (
	// OutcomeSuccess returns a value and no error.
	OutcomeSuccess Outcome = iota
	// OutcomeFailure returns an error and no value.
	OutcomeFailure
	// OutcomeBoth returns a value together with an error.
	OutcomeBoth
	// OutcomeNeither returns the zero value and no error.
	OutcomeNeither
	// OutcomePanic panics inside the backend.
	OutcomePanic

	outcomeCount
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeBoth:
		return "both"
	case OutcomeNeither:
		return "neither"
	case OutcomePanic:
		return "panic"
	default:
		return "unknown"
	}
}

// Stub is a backend declaring every group whose operations behave
// according to a chosen Outcome, including the malformed ones a careless
// backend might produce. It tracks the handles it issued, so tests can
// assert that none leaked.
type Stub struct {
	extio.UnimplementedBackend

	mu      sync.Mutex
	choose  func(op string) Outcome
	live    map[string]extio.CapabilityGroup
	calls   map[string]int
	counter int

	// OnCall, when set, runs at the start of every operation.
	OnCall func(op string)
}

// NewStub returns a stub that always picks outcome.
func NewStub(outcome Outcome) *Stub {
	return newStub(func(string) Outcome { return outcome })
}

// NewRandomStub returns a stub picking a random outcome for every call.
// Equal seeds produce equal sequences of outcomes.
func NewRandomStub(seed uint64) *Stub {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return newStub(func(string) Outcome {
		return Outcome(rng.IntN(int(outcomeCount)))
	})
}

func newStub(choose func(op string) Outcome) *Stub {
	return &Stub{
		choose: choose,
		live:   make(map[string]extio.CapabilityGroup),
		calls:  make(map[string]int),
	}
}

func (s *Stub) Name() string {
	return "stub"
}

func (s *Stub) GetCapabilities() *extio.Capabilities {
	return &extio.Capabilities{
		Groups: extio.AllGroups(),
	}
}

// Calls returns how often op reached the stub.
func (s *Stub) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls[op]
}

// Live returns the number of issued handles that were not released.
func (s *Stub) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.live)
}

func (s *Stub) enter(op string) Outcome {
	if s.OnCall != nil {
		s.OnCall(op)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[op]++
	return s.choose(op)
}

func (s *Stub) mint(group extio.CapabilityGroup) extio.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	token := strconv.Itoa(s.counter)
	s.live[token] = group
	return extio.NewHandle(group, token)
}

// release drops a live handle and reports whether it was live.
func (s *Stub) release(h extio.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live[h.Token()]; !ok {
		return false
	}
	delete(s.live, h.Token())
	return true
}

func failure(op string, n int) error {
	// Alternate between descriptors and foreign errors so both paths of
	// error normalization are exercised.
	kinds := errors.Kinds()
	if n%2 == 0 {
		return errors.New(kinds[n%len(kinds)], op, "stub failure")
	}
	return fmt.Errorf("stub failure %d in %s", n, op)
}

func result[T any](s *Stub, op string, value func() T) (T, error) {
	var zero T

	switch outcome := s.enter(op); outcome {
	case OutcomeSuccess:
		return value(), nil
	case OutcomeFailure:
		return zero, failure(op, s.Calls(op))
	case OutcomeBoth:
		return value(), failure(op, s.Calls(op))
	case OutcomeNeither:
		return zero, nil
	default:
		panic(fmt.Sprintf("stub panic in %s", op))
	}
}

func unit(s *Stub, op string) error {
	_, err := result(s, op, func() struct{} { return struct{}{} })
	return err
}

// releaseOr settles a release operation: live handles are always released,
// anything else follows the chosen outcome.
func (s *Stub) releaseOr(op string, h extio.Handle) error {
	if s.release(h) {
		s.enter(op)
		return nil
	}
	return unit(s, op)
}

func (s *Stub) File() extio.FileCapability               { return stubFile{s: s} }
func (s *Stub) ObjectStore() extio.ObjectStoreCapability { return stubObjectStore{s: s} }
func (s *Stub) Network() extio.NetworkCapability         { return stubNetwork{s: s} }
func (s *Stub) Database() extio.DatabaseCapability       { return stubDatabase{s: s} }
func (s *Stub) Process() extio.ProcessCapability         { return stubProcess{s: s} }
func (s *Stub) Queue() extio.QueueCapability             { return stubQueue{s: s} }
func (s *Stub) IPC() extio.IPCCapability                 { return stubIPC{s: s} }
func (s *Stub) Schedule() extio.ScheduleCapability       { return stubSchedule{s: s} }
func (s *Stub) Config() extio.ConfigCapability           { return stubConfig{s: s} }
func (s *Stub) Telemetry() extio.TelemetryCapability     { return stubTelemetry{s: s} }
func (s *Stub) Crypto() extio.CryptoCapability           { return stubCrypto{s: s} }

type stubFile struct {
	extio.UnimplementedFile
	s *Stub
}

func (f stubFile) Open(context.Context, string, extio.OpenMode) (extio.Handle, error) {
	return result(f.s, extio.OpFileOpen, func() extio.Handle { return f.s.mint(extio.GroupFile) })
}

func (f stubFile) Read(context.Context, extio.Handle, int) ([]byte, error) {
	return result(f.s, extio.OpFileRead, func() []byte { return []byte("data") })
}

func (f stubFile) Write(_ context.Context, _ extio.Handle, data []byte) (int, error) {
	return result(f.s, extio.OpFileWrite, func() int { return len(data) })
}

func (f stubFile) Close(_ context.Context, h extio.Handle) error {
	return f.s.releaseOr(extio.OpFileClose, h)
}

func (f stubFile) List(context.Context, string) ([]extio.Entry, error) {
	return result(f.s, extio.OpFileList, func() []extio.Entry { return []extio.Entry{{Name: "a"}} })
}

func (f stubFile) Delete(context.Context, string) error {
	return unit(f.s, extio.OpFileDelete)
}

func (f stubFile) ReadAll(context.Context, string) ([]byte, error) {
	return result(f.s, extio.OpFileReadAll, func() []byte { return []byte("data") })
}

func (f stubFile) WriteAll(context.Context, string, []byte) error {
	return unit(f.s, extio.OpFileWriteAll)
}

type stubObjectStore struct {
	extio.UnimplementedObjectStore
	s *Stub
}

func (o stubObjectStore) Put(context.Context, string, string, []byte) error {
	return unit(o.s, extio.OpObjectStorePut)
}

func (o stubObjectStore) Get(context.Context, string, string) ([]byte, error) {
	return result(o.s, extio.OpObjectStoreGet, func() []byte { return []byte("data") })
}

func (o stubObjectStore) Delete(context.Context, string, string) error {
	return unit(o.s, extio.OpObjectStoreDelete)
}

func (o stubObjectStore) List(context.Context, string, string) ([]string, error) {
	return result(o.s, extio.OpObjectStoreList, func() []string { return []string{"key"} })
}

type stubNetwork struct {
	extio.UnimplementedNetwork
	s *Stub
}

func (n stubNetwork) Request(context.Context, *extio.Request) (*extio.Response, error) {
	return result(n.s, extio.OpNetworkRequest, func() *extio.Response { return &extio.Response{StatusCode: 200} })
}

func (n stubNetwork) OpenStream(context.Context, string) (extio.Handle, error) {
	return result(n.s, extio.OpNetworkOpenStream, func() extio.Handle { return n.s.mint(extio.GroupNetwork) })
}

func (n stubNetwork) SendOn(context.Context, extio.Handle, []byte) error {
	return unit(n.s, extio.OpNetworkSendOn)
}

func (n stubNetwork) ReceiveFrom(context.Context, extio.Handle) (extio.Frame, error) {
	return result(n.s, extio.OpNetworkReceiveFrom, func() extio.Frame { return extio.Frame{Data: []byte("frame")} })
}

func (n stubNetwork) CloseStream(_ context.Context, h extio.Handle) error {
	return n.s.releaseOr(extio.OpNetworkCloseStream, h)
}

func (n stubNetwork) Exchange(context.Context, string, []byte) ([]byte, error) {
	return result(n.s, extio.OpNetworkExchange, func() []byte { return []byte("reply") })
}

func (n stubNetwork) SendDatagram(context.Context, string, []byte) error {
	return unit(n.s, extio.OpNetworkSendDatagram)
}

type stubDatabase struct {
	extio.UnimplementedDatabase
	s *Stub
}

func (d stubDatabase) Query(context.Context, string, ...any) (*extio.ResultSet, error) {
	return result(d.s, extio.OpDatabaseQuery, func() *extio.ResultSet { return &extio.ResultSet{Columns: []string{"1"}} })
}

func (d stubDatabase) Execute(context.Context, string, ...any) (int64, error) {
	return result(d.s, extio.OpDatabaseExecute, func() int64 { return 1 })
}

type stubProcess struct {
	extio.UnimplementedProcess
	s *Stub
}

func (p stubProcess) Spawn(context.Context, extio.Command) (extio.Handle, error) {
	return result(p.s, extio.OpProcessSpawn, func() extio.Handle { return p.s.mint(extio.GroupProcess) })
}

func (p stubProcess) Wait(context.Context, extio.Handle) (int, error) {
	return result(p.s, extio.OpProcessWait, func() int { return 0 })
}

func (p stubProcess) Kill(_ context.Context, h extio.Handle) error {
	return p.s.releaseOr(extio.OpProcessKill, h)
}

func (p stubProcess) Exec(context.Context, string, ...string) (*extio.ExecResult, error) {
	return result(p.s, extio.OpProcessExec, func() *extio.ExecResult { return &extio.ExecResult{} })
}

type stubQueue struct {
	extio.UnimplementedQueue
	s *Stub
}

func (q stubQueue) Publish(context.Context, string, []byte) error {
	return unit(q.s, extio.OpQueuePublish)
}

func (q stubQueue) Subscribe(context.Context, string) (extio.Handle, error) {
	return result(q.s, extio.OpQueueSubscribe, func() extio.Handle { return q.s.mint(extio.GroupQueue) })
}

func (q stubQueue) Poll(context.Context, extio.Handle, time.Duration) (extio.Delivery, error) {
	return result(q.s, extio.OpQueuePoll, func() extio.Delivery { return extio.Delivery{TimedOut: true} })
}

func (q stubQueue) Unsubscribe(_ context.Context, h extio.Handle) error {
	return q.s.releaseOr(extio.OpQueueUnsubscribe, h)
}

type stubIPC struct {
	extio.UnimplementedIPC
	s *Stub
}

func (i stubIPC) Send(context.Context, string, []byte) error {
	return unit(i.s, extio.OpIPCSend)
}

func (i stubIPC) Receive(_ context.Context, channel string, _ time.Duration) (extio.Delivery, error) {
	return result(i.s, extio.OpIPCReceive, func() extio.Delivery {
		return extio.Delivery{Message: extio.Message{Topic: channel, Data: []byte("data")}}
	})
}

type stubSchedule struct {
	extio.UnimplementedSchedule
	s *Stub
}

func (sc stubSchedule) After(context.Context, time.Duration) error {
	return unit(sc.s, extio.OpScheduleAfter)
}

func (sc stubSchedule) Every(ctx context.Context, interval time.Duration) (iter.Seq[extio.Tick], error) {
	return result(sc.s, extio.OpScheduleEvery, func() iter.Seq[extio.Tick] { return extio.Ticks(ctx, interval, nil) })
}

func (sc stubSchedule) Now(context.Context) (time.Time, error) {
	return result(sc.s, extio.OpScheduleNow, time.Now)
}

type stubConfig struct {
	extio.UnimplementedConfig
	s *Stub
}

func (c stubConfig) Get(context.Context, string) (string, error) {
	return result(c.s, extio.OpConfigGet, func() string { return "value" })
}

type stubTelemetry struct {
	extio.UnimplementedTelemetry
	s *Stub
}

func (t stubTelemetry) Log(context.Context, extio.Level, string, extio.Fields) error {
	return unit(t.s, extio.OpTelemetryLog)
}

func (t stubTelemetry) RecordMetric(context.Context, string, float64, extio.Tags) error {
	return unit(t.s, extio.OpTelemetryRecordMetric)
}

type stubCrypto struct {
	extio.UnimplementedCrypto
	s *Stub
}

func (c stubCrypto) Sign(context.Context, string, []byte) ([]byte, error) {
	return result(c.s, extio.OpCryptoSign, func() []byte { return []byte("signature") })
}

func (c stubCrypto) Verify(context.Context, string, []byte, []byte) (bool, error) {
	return result(c.s, extio.OpCryptoVerify, func() bool { return true })
}

func (c stubCrypto) GetSecret(context.Context, string) ([]byte, error) {
	return result(c.s, extio.OpCryptoGetSecret, func() []byte { return []byte("secret") })
}
