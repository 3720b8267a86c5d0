package extio

import (
	"context"
	"iter"
	"time"

	"github.com/mwantia/extio/errors"
	"github.com/mwantia/extio/log"
)

// Guard wraps b so every operation honours the contract regardless of how
// carefully b was written:
//
//   - an already cancelled or expired context settles before any argument
//     or handle check and without calling b
//   - every failure is a single *errors.Error naming the operation
//   - values returned alongside an error are dropped, and a result carrying
//     neither a value nor an error becomes Internal
//   - a panic inside b becomes Internal
//   - a handle produced after cancellation is released and never returned
//
// The guard holds no locks and never retries.
func Guard(b Backend, opts ...GuardOption) Backend {
	if g, ok := b.(*guarded); ok {
		return g
	}

	options := newDefaultGuardOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &guarded{
		inner: b,
		log:   options.logger().Named("guard"),
	}
}

type guarded struct {
	UnimplementedBackend

	inner Backend
	log   *log.Logger
}

// Unwrap returns the guarded backend.
func (g *guarded) Unwrap() Backend {
	return g.inner
}

func (g *guarded) Name() string                    { return g.inner.Name() }
func (g *guarded) Open(ctx context.Context) error  { return g.inner.Open(ctx) }
func (g *guarded) Close(ctx context.Context) error { return g.inner.Close(ctx) }

func (g *guarded) GetCapabilities() *Capabilities {
	if caps := g.inner.GetCapabilities(); caps != nil {
		return caps
	}
	return &Capabilities{}
}

func (g *guarded) fail(op string, err error) error {
	e := errors.From(op, err)
	level := log.Debug
	if e.Kind() == errors.KindInternal {
		level = log.Warn
	}
	g.log.Log(level, "operation failed", log.Fields{
		"op":   op,
		"kind": e.Kind().String(),
		"code": e.Code(),
		"err":  e.Error(),
	})

	return e
}

func call[T any](ctx context.Context, g *guarded, op string, fn func() (T, error)) (result T, err error) {
	var zero T
	if cerr := ctx.Err(); cerr != nil {
		return zero, g.fail(op, cerr)
	}

	defer func() {
		if r := recover(); r != nil {
			result, err = zero, g.fail(op, errors.Internal(op, "backend panicked: %v", r))
		}
	}()

	value, ferr := fn()
	if ferr != nil {
		return zero, g.fail(op, ferr)
	}

	return value, nil
}

func do(ctx context.Context, g *guarded, op string, fn func() error) error {
	_, err := call(ctx, g, op, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func callRef[T any](ctx context.Context, g *guarded, op string, fn func() (*T, error)) (*T, error) {
	value, err := call(ctx, g, op, fn)
	if err == nil && value == nil {
		return nil, g.fail(op, errors.Internal(op, "backend returned neither a result nor an error"))
	}
	return value, err
}

// callHandle releases a handle produced while ctx was cancelled, so it can
// never leak to the caller.
func callHandle(ctx context.Context, g *guarded, op string, fn func() (Handle, error), release func(context.Context, Handle) error) (Handle, error) {
	h, err := call(ctx, g, op, fn)
	if err != nil {
		return Handle{}, err
	}
	if h.IsZero() {
		return Handle{}, g.fail(op, errors.Internal(op, "backend returned neither a handle nor an error"))
	}

	if cerr := ctx.Err(); cerr != nil {
		if rerr := do(context.WithoutCancel(ctx), g, op, func() error {
			return release(context.WithoutCancel(ctx), h)
		}); rerr != nil {
			g.log.Warn("failed to release %s after cancellation: %v", h, rerr)
		}
		return Handle{}, g.fail(op, cerr)
	}

	return h, nil
}

func checkHandle(op string, group CapabilityGroup, h Handle) error {
	if h.IsZero() || h.Group() != group {
		return errors.StaleHandle(op, h.String())
	}
	return nil
}

func (g *guarded) File() FileCapability { return &guardFile{g: g, inner: g.inner.File()} }
func (g *guarded) ObjectStore() ObjectStoreCapability {
	return &guardObjectStore{g: g, inner: g.inner.ObjectStore()}
}
func (g *guarded) Network() NetworkCapability { return &guardNetwork{g: g, inner: g.inner.Network()} }
func (g *guarded) Database() DatabaseCapability {
	return &guardDatabase{g: g, inner: g.inner.Database()}
}
func (g *guarded) Process() ProcessCapability { return &guardProcess{g: g, inner: g.inner.Process()} }
func (g *guarded) Queue() QueueCapability     { return &guardQueue{g: g, inner: g.inner.Queue()} }
func (g *guarded) IPC() IPCCapability         { return &guardIPC{g: g, inner: g.inner.IPC()} }
func (g *guarded) Schedule() ScheduleCapability {
	return &guardSchedule{g: g, inner: g.inner.Schedule()}
}
func (g *guarded) Config() ConfigCapability { return &guardConfig{g: g, inner: g.inner.Config()} }
func (g *guarded) Telemetry() TelemetryCapability {
	return &guardTelemetry{g: g, inner: g.inner.Telemetry()}
}
func (g *guarded) Crypto() CryptoCapability { return &guardCrypto{g: g, inner: g.inner.Crypto()} }

type guardFile struct {
	UnimplementedFile
	g     *guarded
	inner FileCapability
}

func (f *guardFile) Open(ctx context.Context, path string, mode OpenMode) (Handle, error) {
	return callHandle(ctx, f.g, OpFileOpen, func() (Handle, error) {
		return f.inner.Open(ctx, path, mode)
	}, f.inner.Close)
}

func (f *guardFile) Read(ctx context.Context, h Handle, max int) ([]byte, error) {
	data, err := call(ctx, f.g, OpFileRead, func() ([]byte, error) {
		if err := checkHandle(OpFileRead, GroupFile, h); err != nil {
			return nil, err
		}
		if max < 0 {
			return nil, errors.InvalidArgument(OpFileRead, "negative read size %d", max)
		}
		return f.inner.Read(ctx, h, max)
	})
	if err == nil && data == nil {
		data = []byte{}
	}
	return data, err
}

func (f *guardFile) Write(ctx context.Context, h Handle, data []byte) (int, error) {
	return call(ctx, f.g, OpFileWrite, func() (int, error) {
		if err := checkHandle(OpFileWrite, GroupFile, h); err != nil {
			return 0, err
		}
		return f.inner.Write(ctx, h, data)
	})
}

func (f *guardFile) Close(ctx context.Context, h Handle) error {
	return do(ctx, f.g, OpFileClose, func() error {
		if err := checkHandle(OpFileClose, GroupFile, h); err != nil {
			return err
		}
		return f.inner.Close(ctx, h)
	})
}

func (f *guardFile) List(ctx context.Context, path string) ([]Entry, error) {
	return call(ctx, f.g, OpFileList, func() ([]Entry, error) {
		return f.inner.List(ctx, path)
	})
}

func (f *guardFile) Delete(ctx context.Context, path string) error {
	return do(ctx, f.g, OpFileDelete, func() error {
		return f.inner.Delete(ctx, path)
	})
}

func (f *guardFile) ReadAll(ctx context.Context, path string) ([]byte, error) {
	data, err := call(ctx, f.g, OpFileReadAll, func() ([]byte, error) {
		return f.inner.ReadAll(ctx, path)
	})
	if err == nil && data == nil {
		data = []byte{}
	}
	return data, err
}

func (f *guardFile) WriteAll(ctx context.Context, path string, data []byte) error {
	return do(ctx, f.g, OpFileWriteAll, func() error {
		return f.inner.WriteAll(ctx, path, data)
	})
}

type guardObjectStore struct {
	UnimplementedObjectStore
	g     *guarded
	inner ObjectStoreCapability
}

func (o *guardObjectStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	return do(ctx, o.g, OpObjectStorePut, func() error {
		return o.inner.Put(ctx, bucket, key, data)
	})
}

func (o *guardObjectStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	data, err := call(ctx, o.g, OpObjectStoreGet, func() ([]byte, error) {
		return o.inner.Get(ctx, bucket, key)
	})
	if err == nil && data == nil {
		data = []byte{}
	}
	return data, err
}

func (o *guardObjectStore) Delete(ctx context.Context, bucket, key string) error {
	return do(ctx, o.g, OpObjectStoreDelete, func() error {
		return o.inner.Delete(ctx, bucket, key)
	})
}

func (o *guardObjectStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	return call(ctx, o.g, OpObjectStoreList, func() ([]string, error) {
		return o.inner.List(ctx, bucket, prefix)
	})
}

type guardNetwork struct {
	UnimplementedNetwork
	g     *guarded
	inner NetworkCapability
}

func (n *guardNetwork) Request(ctx context.Context, req *Request) (*Response, error) {
	return callRef(ctx, n.g, OpNetworkRequest, func() (*Response, error) {
		if req == nil {
			return nil, errors.InvalidArgument(OpNetworkRequest, "request must not be nil")
		}
		return n.inner.Request(ctx, req)
	})
}

func (n *guardNetwork) OpenStream(ctx context.Context, url string) (Handle, error) {
	return callHandle(ctx, n.g, OpNetworkOpenStream, func() (Handle, error) {
		return n.inner.OpenStream(ctx, url)
	}, n.inner.CloseStream)
}

func (n *guardNetwork) SendOn(ctx context.Context, h Handle, frame []byte) error {
	return do(ctx, n.g, OpNetworkSendOn, func() error {
		if err := checkHandle(OpNetworkSendOn, GroupNetwork, h); err != nil {
			return err
		}
		return n.inner.SendOn(ctx, h, frame)
	})
}

func (n *guardNetwork) ReceiveFrom(ctx context.Context, h Handle) (Frame, error) {
	return call(ctx, n.g, OpNetworkReceiveFrom, func() (Frame, error) {
		if err := checkHandle(OpNetworkReceiveFrom, GroupNetwork, h); err != nil {
			return Frame{}, err
		}
		return n.inner.ReceiveFrom(ctx, h)
	})
}

func (n *guardNetwork) CloseStream(ctx context.Context, h Handle) error {
	return do(ctx, n.g, OpNetworkCloseStream, func() error {
		if err := checkHandle(OpNetworkCloseStream, GroupNetwork, h); err != nil {
			return err
		}
		return n.inner.CloseStream(ctx, h)
	})
}

func (n *guardNetwork) Exchange(ctx context.Context, addr string, data []byte) ([]byte, error) {
	reply, err := call(ctx, n.g, OpNetworkExchange, func() ([]byte, error) {
		return n.inner.Exchange(ctx, addr, data)
	})
	if err == nil && reply == nil {
		reply = []byte{}
	}
	return reply, err
}

func (n *guardNetwork) SendDatagram(ctx context.Context, addr string, data []byte) error {
	return do(ctx, n.g, OpNetworkSendDatagram, func() error {
		return n.inner.SendDatagram(ctx, addr, data)
	})
}

type guardDatabase struct {
	UnimplementedDatabase
	g     *guarded
	inner DatabaseCapability
}

func (d *guardDatabase) Query(ctx context.Context, statement string, params ...any) (*ResultSet, error) {
	return callRef(ctx, d.g, OpDatabaseQuery, func() (*ResultSet, error) {
		return d.inner.Query(ctx, statement, params...)
	})
}

func (d *guardDatabase) Execute(ctx context.Context, statement string, params ...any) (int64, error) {
	return call(ctx, d.g, OpDatabaseExecute, func() (int64, error) {
		return d.inner.Execute(ctx, statement, params...)
	})
}

type guardProcess struct {
	UnimplementedProcess
	g     *guarded
	inner ProcessCapability
}

func (p *guardProcess) Spawn(ctx context.Context, cmd Command) (Handle, error) {
	return callHandle(ctx, p.g, OpProcessSpawn, func() (Handle, error) {
		if cmd.Name == "" {
			return Handle{}, errors.InvalidArgument(OpProcessSpawn, "command name must not be empty")
		}
		return p.inner.Spawn(ctx, cmd)
	}, p.inner.Kill)
}

func (p *guardProcess) Wait(ctx context.Context, h Handle) (int, error) {
	return call(ctx, p.g, OpProcessWait, func() (int, error) {
		if err := checkHandle(OpProcessWait, GroupProcess, h); err != nil {
			return 0, err
		}
		return p.inner.Wait(ctx, h)
	})
}

func (p *guardProcess) Kill(ctx context.Context, h Handle) error {
	return do(ctx, p.g, OpProcessKill, func() error {
		if err := checkHandle(OpProcessKill, GroupProcess, h); err != nil {
			return err
		}
		return p.inner.Kill(ctx, h)
	})
}

//nolint:staticcheck // Exec stays routed to the backend's own implementation.
func (p *guardProcess) Exec(ctx context.Context, name string, args ...string) (*ExecResult, error) {
	return callRef(ctx, p.g, OpProcessExec, func() (*ExecResult, error) {
		return p.inner.Exec(ctx, name, args...)
	})
}

type guardQueue struct {
	UnimplementedQueue
	g     *guarded
	inner QueueCapability
}

func (q *guardQueue) Publish(ctx context.Context, topic string, data []byte) error {
	return do(ctx, q.g, OpQueuePublish, func() error {
		return q.inner.Publish(ctx, topic, data)
	})
}

func (q *guardQueue) Subscribe(ctx context.Context, topic string) (Handle, error) {
	return callHandle(ctx, q.g, OpQueueSubscribe, func() (Handle, error) {
		return q.inner.Subscribe(ctx, topic)
	}, q.inner.Unsubscribe)
}

func (q *guardQueue) Poll(ctx context.Context, h Handle, timeout time.Duration) (Delivery, error) {
	return call(ctx, q.g, OpQueuePoll, func() (Delivery, error) {
		if err := checkHandle(OpQueuePoll, GroupQueue, h); err != nil {
			return Delivery{}, err
		}
		if err := CheckTimeout(OpQueuePoll, timeout); err != nil {
			return Delivery{}, err
		}
		return q.inner.Poll(ctx, h, timeout)
	})
}

func (q *guardQueue) Unsubscribe(ctx context.Context, h Handle) error {
	return do(ctx, q.g, OpQueueUnsubscribe, func() error {
		if err := checkHandle(OpQueueUnsubscribe, GroupQueue, h); err != nil {
			return err
		}
		return q.inner.Unsubscribe(ctx, h)
	})
}

type guardIPC struct {
	UnimplementedIPC
	g     *guarded
	inner IPCCapability
}

func (i *guardIPC) Send(ctx context.Context, channel string, data []byte) error {
	return do(ctx, i.g, OpIPCSend, func() error {
		return i.inner.Send(ctx, channel, data)
	})
}

func (i *guardIPC) Receive(ctx context.Context, channel string, timeout time.Duration) (Delivery, error) {
	return call(ctx, i.g, OpIPCReceive, func() (Delivery, error) {
		if err := CheckTimeout(OpIPCReceive, timeout); err != nil {
			return Delivery{}, err
		}
		return i.inner.Receive(ctx, channel, timeout)
	})
}

type guardSchedule struct {
	UnimplementedSchedule
	g     *guarded
	inner ScheduleCapability
}

func (s *guardSchedule) After(ctx context.Context, d time.Duration) error {
	return do(ctx, s.g, OpScheduleAfter, func() error {
		if d < 0 {
			return errors.InvalidArgument(OpScheduleAfter, "negative duration %s", d)
		}
		return s.inner.After(ctx, d)
	})
}

func (s *guardSchedule) Every(ctx context.Context, interval time.Duration) (iter.Seq[Tick], error) {
	seq, err := call(ctx, s.g, OpScheduleEvery, func() (iter.Seq[Tick], error) {
		if interval <= 0 {
			return nil, errors.InvalidArgument(OpScheduleEvery, "interval must be positive, got %s", interval)
		}
		return s.inner.Every(ctx, interval)
	})
	if err == nil && seq == nil {
		return nil, s.g.fail(OpScheduleEvery, errors.Internal(OpScheduleEvery, "backend returned neither a sequence nor an error"))
	}
	return seq, err
}

func (s *guardSchedule) Now(ctx context.Context) (time.Time, error) {
	now, err := call(ctx, s.g, OpScheduleNow, func() (time.Time, error) {
		return s.inner.Now(ctx)
	})
	if err == nil && now.IsZero() {
		return time.Time{}, s.g.fail(OpScheduleNow, errors.Internal(OpScheduleNow, "backend returned neither a time nor an error"))
	}
	return now, err
}

type guardConfig struct {
	UnimplementedConfig
	g     *guarded
	inner ConfigCapability
}

func (c *guardConfig) Get(ctx context.Context, key string) (string, error) {
	return call(ctx, c.g, OpConfigGet, func() (string, error) {
		return c.inner.Get(ctx, key)
	})
}

type guardTelemetry struct {
	UnimplementedTelemetry
	g     *guarded
	inner TelemetryCapability
}

func (t *guardTelemetry) Log(ctx context.Context, level Level, msg string, fields Fields) error {
	return do(ctx, t.g, OpTelemetryLog, func() error {
		return t.inner.Log(ctx, level, msg, fields)
	})
}

func (t *guardTelemetry) RecordMetric(ctx context.Context, name string, value float64, tags Tags) error {
	return do(ctx, t.g, OpTelemetryRecordMetric, func() error {
		return t.inner.RecordMetric(ctx, name, value, tags)
	})
}

type guardCrypto struct {
	UnimplementedCrypto
	g     *guarded
	inner CryptoCapability
}

func (c *guardCrypto) Sign(ctx context.Context, keyID string, payload []byte) ([]byte, error) {
	signature, err := call(ctx, c.g, OpCryptoSign, func() ([]byte, error) {
		return c.inner.Sign(ctx, keyID, payload)
	})
	if err == nil && len(signature) == 0 {
		return nil, c.g.fail(OpCryptoSign, errors.Internal(OpCryptoSign, "backend returned neither a signature nor an error"))
	}
	return signature, err
}

func (c *guardCrypto) Verify(ctx context.Context, keyID string, payload, signature []byte) (bool, error) {
	return call(ctx, c.g, OpCryptoVerify, func() (bool, error) {
		return c.inner.Verify(ctx, keyID, payload, signature)
	})
}

func (c *guardCrypto) GetSecret(ctx context.Context, name string) ([]byte, error) {
	return call(ctx, c.g, OpCryptoGetSecret, func() ([]byte, error) {
		return c.inner.GetSecret(ctx, name)
	})
}
