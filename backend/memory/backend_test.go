package memory

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
	"github.com/mwantia/extio/extiotest"
	"github.com/mwantia/extio/log"
)

func newTestBackend(t *testing.T, opts ...Option) *MemoryBackend {
	t.Helper()

	mb := NewMemoryBackend(opts...)
	require.NoError(t, mb.Open(t.Context()))
	t.Cleanup(func() {
		mb.Close(context.Background())
	})

	return mb
}

func TestMemoryBackend_Conformance(t *testing.T) {
	factories := map[string]extiotest.Factory{
		"plain": func(t *testing.T) extio.Backend {
			return newTestBackend(t,
				WithConfig(map[string]string{"region": "eu-west"}),
				WithSecret("db-password", []byte("hunter2")),
				WithRestrictedSecret("root-key", []byte("nope")),
			)
		},
		"guarded": func(t *testing.T) extio.Backend {
			return extio.Guard(newTestBackend(t,
				WithConfig(map[string]string{"region": "eu-west"}),
				WithSecret("db-password", []byte("hunter2")),
				WithRestrictedSecret("root-key", []byte("nope")),
			))
		},
	}

	fixtures := extiotest.Fixtures{
		ConfigKey:    "region",
		ConfigValue:  "eu-west",
		KeyID:        "release",
		SecretName:   "db-password",
		SecretValue:  []byte("hunter2"),
		DeniedSecret: "root-key",
	}

	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			extiotest.Run(t, factory, fixtures)
		})
	}
}

func TestMemoryBackend_ReadOnly(t *testing.T) {
	mb := newTestBackend(t, AsReadOnly())
	ctx := t.Context()

	assert.True(t, mb.GetCapabilities().Settings.ReadOnly)

	err := mb.ObjectStore().Put(ctx, "b", "k", []byte("x"))
	extiotest.RequireKind(t, err, errors.KindPermissionDenied)

	err = mb.File().WriteAll(ctx, "a.txt", []byte("x"))
	extiotest.RequireKind(t, err, errors.KindPermissionDenied)

	_, err = mb.File().Open(ctx, "a.txt", extio.ModeWrite|extio.ModeCreate)
	extiotest.RequireKind(t, err, errors.KindPermissionDenied)
}

func TestMemoryBackend_MaxObjectSize(t *testing.T) {
	mb := newTestBackend(t, WithMaxObjectSize(4))
	ctx := t.Context()

	require.NoError(t, mb.ObjectStore().Put(ctx, "b", "small", []byte("1234")))
	err := mb.ObjectStore().Put(ctx, "b", "large", []byte("12345"))
	extiotest.RequireKind(t, err, errors.KindInvalidArgument)
	assert.Equal(t, int64(4), mb.GetCapabilities().Settings.MaxObjectSize)
}

func TestMemoryBackend_ObjectIsolation(t *testing.T) {
	mb := newTestBackend(t)
	store := mb.ObjectStore()
	ctx := t.Context()

	data := []byte("original")
	require.NoError(t, store.Put(ctx, "b", "k", data))
	data[0] = 'X'

	got, err := store.Get(ctx, "b", "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, err := store.Get(ctx, "b", "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)

	require.NoError(t, store.Put(ctx, "other", "k", []byte("other")))
	keys, err := store.List(ctx, "b", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, keys)

	_, err = store.Get(ctx, "", "k")
	extiotest.RequireKind(t, err, errors.KindInvalidArgument)

	// A NUL in the bucket would otherwise reach into bucket "a".
	require.NoError(t, store.Put(ctx, "a", "b\x00hidden", []byte("x")))
	keys, err = store.List(ctx, "a\x00b", "")
	extiotest.RequireKind(t, err, errors.KindInvalidArgument)
	assert.Empty(t, keys)
}

func TestMemoryBackend_ReadAfterPartialRead(t *testing.T) {
	mb := newTestBackend(t)
	fs := mb.File()
	ctx := t.Context()

	require.NoError(t, fs.WriteAll(ctx, "a.txt", []byte("hello world")))
	h, err := fs.Open(ctx, "a.txt", extio.ModeRead)
	require.NoError(t, err)
	defer fs.Close(ctx, h)

	_, err = fs.Read(ctx, h, 5)
	require.NoError(t, err)

	rest, err := fs.Read(ctx, h, math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, " world", string(rest))
}

func TestMemoryBackend_FileModes(t *testing.T) {
	mb := newTestBackend(t)
	fs := mb.File()
	ctx := t.Context()

	require.NoError(t, fs.WriteAll(ctx, "log.txt", []byte("one")))

	h, err := fs.Open(ctx, "log.txt", extio.ModeAppend)
	require.NoError(t, err)
	_, err = fs.Write(ctx, h, []byte("two"))
	require.NoError(t, err)

	_, err = fs.Read(ctx, h, 8)
	extiotest.RequireKind(t, err, errors.KindPermissionDenied)
	require.NoError(t, fs.Close(ctx, h))

	got, err := fs.ReadAll(ctx, "log.txt")
	require.NoError(t, err)
	assert.Equal(t, "onetwo", string(got))

	h, err = fs.Open(ctx, "log.txt", 0)
	require.NoError(t, err)
	_, err = fs.Write(ctx, h, []byte("x"))
	extiotest.RequireKind(t, err, errors.KindPermissionDenied)

	_, err = fs.Read(ctx, extio.NewHandle(extio.GroupQueue, h.Token()), 1)
	extiotest.RequireKind(t, err, errors.KindInvalidArgument)

	err = fs.WriteAll(ctx, "log.txt/nested", []byte("x"))
	extiotest.RequireKind(t, err, errors.KindConflict)

	require.NoError(t, fs.WriteAll(ctx, "dir/inner.txt", []byte("x")))
	err = fs.Delete(ctx, "dir")
	extiotest.RequireKind(t, err, errors.KindInvalidArgument)
	_, err = fs.List(ctx, "log.txt")
	extiotest.RequireKind(t, err, errors.KindInvalidArgument)

	root, err := fs.List(ctx, "/")
	require.NoError(t, err)
	assert.Len(t, root, 2)
}

func TestMemoryBackend_QueueDropsWithoutSubscribers(t *testing.T) {
	mb := newTestBackend(t)
	q := mb.Queue()
	ctx := t.Context()

	require.NoError(t, q.Publish(ctx, "news", []byte("lost")))

	h, err := q.Subscribe(ctx, "news")
	require.NoError(t, err)

	d, err := q.Poll(ctx, h, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, d.TimedOut)
}

func TestMemoryBackend_PollWakesOnPublish(t *testing.T) {
	mb := newTestBackend(t)
	q := mb.Queue()
	ctx := t.Context()

	h, err := q.Subscribe(ctx, "jobs")
	require.NoError(t, err)

	time.AfterFunc(20*time.Millisecond, func() {
		q.Publish(context.Background(), "jobs", []byte("job-1"))
	})

	start := time.Now()
	d, err := q.Poll(ctx, h, 5*time.Second)
	require.NoError(t, err)
	require.False(t, d.TimedOut)
	assert.Equal(t, "job-1", string(d.Message.Data))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestMemoryBackend_PollCancelled(t *testing.T) {
	mb := newTestBackend(t)
	q := mb.Queue()

	h, err := q.Subscribe(t.Context(), "jobs")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err = q.Poll(ctx, h, time.Minute)
	extiotest.RequireKind(t, err, errors.KindCancelled)

	// The subscription survives a cancelled poll.
	require.NoError(t, q.Unsubscribe(t.Context(), h))
}

func TestMemoryBackend_CloseInvalidatesHandles(t *testing.T) {
	mb := NewMemoryBackend()
	ctx := t.Context()

	require.NoError(t, mb.File().WriteAll(ctx, "a.txt", []byte("x")))
	h, err := mb.File().Open(ctx, "a.txt", extio.ModeRead)
	require.NoError(t, err)
	sub, err := mb.Queue().Subscribe(ctx, "t")
	require.NoError(t, err)

	require.NoError(t, mb.Close(ctx))

	_, err = mb.File().Read(ctx, h, 1)
	assert.Equal(t, errors.CodeStaleHandle, errors.GetCode(err))
	_, err = mb.Queue().Poll(ctx, sub, 0)
	assert.Equal(t, errors.CodeStaleHandle, errors.GetCode(err))
	_, err = mb.File().ReadAll(ctx, "a.txt")
	extiotest.RequireKind(t, err, errors.KindNotFound)
}

func TestMemoryBackend_DeterministicSignatures(t *testing.T) {
	master := bytes.Repeat([]byte{7}, 32)
	a := newTestBackend(t, WithMasterKey(master))
	b := newTestBackend(t, WithMasterKey(master))
	ctx := t.Context()

	sa, err := a.Crypto().Sign(ctx, "k1", []byte("payload"))
	require.NoError(t, err)
	sb, err := b.Crypto().Sign(ctx, "k1", []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, sa, sb)

	other, err := a.Crypto().Sign(ctx, "k2", []byte("payload"))
	require.NoError(t, err)
	assert.NotEqual(t, sa, other)

	ok, err := b.Crypto().Verify(ctx, "k2", []byte("payload"), sa)
	require.NoError(t, err)
	assert.False(t, ok)

	restricted := newTestBackend(t, WithSigningKeys("k1"))
	_, err = restricted.Crypto().Sign(ctx, "k2", []byte("payload"))
	extiotest.RequireKind(t, err, errors.KindNotFound)
}

func TestMemoryBackend_Telemetry(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWriterLogger("app", log.Debug, &buf)
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mb := newTestBackend(t, WithLogger(logger), WithClock(func() time.Time { return clock }))
	ctx := t.Context()

	require.NoError(t, mb.Telemetry().Log(ctx, extio.LevelWarn, "disk almost full", extio.Fields{"free": 3}))
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "disk almost full free=3")

	err := mb.Telemetry().Log(ctx, extio.Level(42), "bad", nil)
	extiotest.RequireKind(t, err, errors.KindInvalidArgument)

	tags := extio.Tags{"host": "a"}
	require.NoError(t, mb.Telemetry().RecordMetric(ctx, "requests", 12, tags))
	tags["host"] = "mutated"

	samples := mb.Samples()
	require.Len(t, samples, 1)
	assert.Equal(t, Sample{Name: "requests", Value: 12, Tags: extio.Tags{"host": "a"}, Time: clock}, samples[0])

	now, err := mb.Schedule().Now(ctx)
	require.NoError(t, err)
	assert.Equal(t, clock, now)
}

func TestMemoryBackend_ConcurrentUse(t *testing.T) {
	mb := newTestBackend(t)
	store := mb.ObjectStore()
	ctx := t.Context()

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 50 {
				key := fmt.Sprintf("w%d/%d", i, j)
				if err := store.Put(ctx, "b", key, []byte(key)); err != nil {
					t.Error(err)
					return
				}
				if _, err := store.Get(ctx, "b", key); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	keys, err := store.List(ctx, "b", "w3/")
	require.NoError(t, err)
	assert.Len(t, keys, 50)
}

func TestMemoryBackend_IPCSingleDelivery(t *testing.T) {
	mb := newTestBackend(t)
	ipc := mb.IPC()
	ctx := t.Context()

	require.NoError(t, ipc.Send(ctx, "work", []byte("a")))
	require.NoError(t, ipc.Send(ctx, "work", []byte("b")))

	first, err := ipc.Receive(ctx, "work", 0)
	require.NoError(t, err)
	second, err := ipc.Receive(ctx, "work", 0)
	require.NoError(t, err)
	third, err := ipc.Receive(ctx, "work", 0)
	require.NoError(t, err)

	assert.Equal(t, "a", string(first.Message.Data))
	assert.Equal(t, "b", string(second.Message.Data))
	assert.True(t, third.TimedOut)
}
