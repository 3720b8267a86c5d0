package extiotest

import (
	"bytes"
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

// Factory returns a fresh, opened backend. It registers its own cleanup.
type Factory func(t *testing.T) extio.Backend

// Fixtures are values a backend under test was prepared with. Checks
// depending on an empty fixture are skipped.
type Fixtures struct {
	ConfigKey   string
	ConfigValue string

	KeyID        string
	SecretName   string
	SecretValue  []byte
	DeniedSecret string
}

// Run checks the backend returned by factory against the contract. Groups
// the backend does not declare must answer Unsupported; declared groups are
// exercised in depth.
func Run(t *testing.T, factory Factory, fixtures Fixtures) {
	t.Helper()

	t.Run("Unsupported", func(t *testing.T) {
		b := factory(t)
		caps := b.GetCapabilities()

		for _, probe := range Probes() {
			if caps.Contains(probe.Group) {
				continue
			}
			t.Run(probe.Op, func(t *testing.T) {
				_, err := probe.Call(t.Context(), b)
				RequireKind(t, err, errors.KindUnsupported)
				RequireOp(t, err, probe.Op)
			})
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		b := factory(t)
		caps := b.GetCapabilities()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		for _, probe := range Probes() {
			if !caps.Contains(probe.Group) {
				continue
			}
			t.Run(probe.Op, func(t *testing.T) {
				value, err := probe.Call(ctx, b)
				RequireKind(t, err, errors.KindCancelled)
				RequireExclusive(t, probe, value, err)
			})
		}
	})

	groups := map[extio.CapabilityGroup]func(*testing.T, Factory, Fixtures){
		extio.GroupFile:        testFile,
		extio.GroupObjectStore: testObjectStore,
		extio.GroupDatabase:    testDatabase,
		extio.GroupQueue:       testQueue,
		extio.GroupIPC:         testIPC,
		extio.GroupSchedule:    testSchedule,
		extio.GroupConfig:      testConfig,
		extio.GroupTelemetry:   testTelemetry,
		extio.GroupCrypto:      testCrypto,
	}

	caps := factory(t).GetCapabilities()
	for _, group := range extio.AllGroups() {
		fn, exists := groups[group]
		if !exists || !caps.Contains(group) {
			continue
		}
		t.Run(string(group), func(t *testing.T) {
			fn(t, factory, fixtures)
		})
	}
}

// RequireKind asserts that err is a descriptor of the given kind.
func RequireKind(t *testing.T, err error, kind errors.Kind) {
	t.Helper()

	require.Error(t, err)
	var e *errors.Error
	require.True(t, errors.As(err, &e), "expected *errors.Error, got %T: %v", err, err)
	require.Equal(t, kind, e.Kind(), "unexpected kind for: %v", err)
}

// RequireOp asserts that err names op.
func RequireOp(t *testing.T, err error, op string) {
	t.Helper()

	var e *errors.Error
	require.True(t, errors.As(err, &e), "expected *errors.Error, got %T: %v", err, err)
	require.Equal(t, op, e.Op())
	require.Contains(t, e.Error(), op)
}

// RequireExclusive asserts that a probe produced exactly one of a success
// value or an error.
func RequireExclusive(t *testing.T, probe Probe, value any, err error) {
	t.Helper()

	if err != nil {
		require.True(t, isZero(value), "%s returned %#v together with %v", probe.Op, value, err)
		return
	}
	if probe.Result == ResultRequired {
		require.False(t, isZero(value), "%s returned neither a value nor an error", probe.Op)
	}
}

func testFile(t *testing.T, factory Factory, _ Fixtures) {
	t.Run("WriteAllReadAll", func(t *testing.T) {
		b := factory(t)
		fs := b.File()
		ctx := t.Context()

		data := []byte("hello, extio\x00\xff")
		require.NoError(t, fs.WriteAll(ctx, "docs/a.txt", data))

		got, err := fs.ReadAll(ctx, "docs/a.txt")
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("HandleLifecycle", func(t *testing.T) {
		b := factory(t)
		fs := b.File()
		ctx := t.Context()

		h, err := fs.Open(ctx, "stream.bin", extio.ModeWrite|extio.ModeCreate|extio.ModeTruncate)
		require.NoError(t, err)
		require.False(t, h.IsZero())

		n, err := fs.Write(ctx, h, []byte("abc"))
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		n, err = fs.Write(ctx, h, []byte("def"))
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		require.NoError(t, fs.Close(ctx, h))

		h, err = fs.Open(ctx, "stream.bin", extio.ModeRead)
		require.NoError(t, err)

		var buf bytes.Buffer
		for {
			chunk, err := fs.Read(ctx, h, 4)
			require.NoError(t, err)
			require.NotNil(t, chunk)
			if len(chunk) == 0 {
				break
			}
			buf.Write(chunk)
		}
		assert.Equal(t, "abcdef", buf.String())
		require.NoError(t, fs.Close(ctx, h))

		_, err = fs.Read(ctx, h, 4)
		RequireKind(t, err, errors.KindInvalidArgument)
		assert.Equal(t, errors.CodeStaleHandle, errors.GetCode(err))

		err = fs.Close(ctx, h)
		RequireKind(t, err, errors.KindInvalidArgument)
	})

	t.Run("ReadUnboundedSize", func(t *testing.T) {
		b := factory(t)
		fs := b.File()
		ctx := t.Context()

		require.NoError(t, fs.WriteAll(ctx, "large.txt", []byte("hello world")))
		h, err := fs.Open(ctx, "large.txt", extio.ModeRead)
		require.NoError(t, err)
		t.Cleanup(func() { _ = fs.Close(context.WithoutCancel(ctx), h) })

		head, err := fs.Read(ctx, h, 5)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(head))

		tail, err := fs.Read(ctx, h, math.MaxInt)
		require.NoError(t, err)
		assert.Equal(t, " world", string(tail))

		rest, err := fs.Read(ctx, h, math.MaxInt)
		require.NoError(t, err)
		assert.Empty(t, rest)
	})

	t.Run("OpenMissing", func(t *testing.T) {
		b := factory(t)

		_, err := b.File().Open(t.Context(), "missing.txt", extio.ModeRead)
		RequireKind(t, err, errors.KindNotFound)
	})

	t.Run("ListAndDelete", func(t *testing.T) {
		b := factory(t)
		fs := b.File()
		ctx := t.Context()

		require.NoError(t, fs.WriteAll(ctx, "dir/one.txt", []byte("1")))
		require.NoError(t, fs.WriteAll(ctx, "dir/two.txt", []byte("22")))
		require.NoError(t, fs.WriteAll(ctx, "dir/sub/three.txt", []byte("333")))

		entries, err := fs.List(ctx, "dir")
		require.NoError(t, err)

		names := make(map[string]extio.Entry)
		for _, entry := range entries {
			names[entry.Name] = entry
		}
		require.Len(t, names, 3)
		assert.Equal(t, int64(2), names["two.txt"].Size)
		assert.True(t, names["sub"].IsDir)

		require.NoError(t, fs.Delete(ctx, "dir/one.txt"))
		_, err = fs.ReadAll(ctx, "dir/one.txt")
		RequireKind(t, err, errors.KindNotFound)

		err = fs.Delete(ctx, "dir/one.txt")
		RequireKind(t, err, errors.KindNotFound)
	})
}

func testObjectStore(t *testing.T, factory Factory, _ Fixtures) {
	t.Run("RoundTrip", func(t *testing.T) {
		b := factory(t)
		store := b.ObjectStore()
		ctx := t.Context()

		data := []byte{0x00, 0x01, 'X', 0xfe, 0xff}
		require.NoError(t, store.Put(ctx, "b", "k", data))

		got, err := store.Get(ctx, "b", "k")
		require.NoError(t, err)
		assert.Equal(t, data, got)

		require.NoError(t, store.Put(ctx, "b", "k", []byte("replaced")))
		got, err = store.Get(ctx, "b", "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("replaced"), got)
	})

	t.Run("GetMissing", func(t *testing.T) {
		b := factory(t)

		_, err := b.ObjectStore().Get(t.Context(), "b", "missing")
		RequireKind(t, err, errors.KindNotFound)
	})

	t.Run("List", func(t *testing.T) {
		b := factory(t)
		store := b.ObjectStore()
		ctx := t.Context()

		for _, key := range []string{"logs/b", "logs/a", "data/c"} {
			require.NoError(t, store.Put(ctx, "list", key, []byte(key)))
		}

		keys, err := store.List(ctx, "list", "logs/")
		require.NoError(t, err)
		assert.Equal(t, []string{"logs/a", "logs/b"}, keys)
	})

	t.Run("InvalidBucket", func(t *testing.T) {
		b := factory(t)
		store := b.ObjectStore()
		ctx := t.Context()

		for _, bucket := range []string{"", "a\x00b"} {
			RequireKind(t, store.Put(ctx, bucket, "k", []byte("x")), errors.KindInvalidArgument)

			_, err := store.Get(ctx, bucket, "k")
			RequireKind(t, err, errors.KindInvalidArgument)

			RequireKind(t, store.Delete(ctx, bucket, "k"), errors.KindInvalidArgument)

			keys, err := store.List(ctx, bucket, "")
			RequireKind(t, err, errors.KindInvalidArgument)
			assert.Empty(t, keys)
		}
	})

	t.Run("DeleteIdempotence", func(t *testing.T) {
		b := factory(t)
		store := b.ObjectStore()
		ctx := t.Context()

		require.NoError(t, store.Put(ctx, "b", "gone", []byte("x")))
		require.NoError(t, store.Delete(ctx, "b", "gone"))

		idempotent := b.GetCapabilities().Settings.IdempotentDelete
		for range 3 {
			err := store.Delete(ctx, "b", "gone")
			if idempotent {
				require.NoError(t, err)
			} else {
				RequireKind(t, err, errors.KindNotFound)
			}
		}
	})
}

func testDatabase(t *testing.T, factory Factory, _ Fixtures) {
	b := factory(t)
	db := b.Database()
	ctx := t.Context()

	_, err := db.Execute(ctx, "CREATE TABLE conformance (id INTEGER PRIMARY KEY, name TEXT NOT NULL)")
	require.NoError(t, err)

	affected, err := db.Execute(ctx, "INSERT INTO conformance (id, name) VALUES ($1, $2)", 1, "alpha")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	_, err = db.Execute(ctx, "INSERT INTO conformance (id, name) VALUES ($1, $2)", 2, "beta")
	require.NoError(t, err)

	rs, err := db.Query(ctx, "SELECT id, name FROM conformance ORDER BY id")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, rs.Columns)
	require.Len(t, rs.Rows, 2)
	assert.EqualValues(t, 2, rs.Rows[1][0])
	assert.Equal(t, "beta", rs.Rows[1][1])

	_, err = db.Execute(ctx, "INSERT INTO conformance (id, name) VALUES ($1, $2)", 1, "duplicate")
	RequireKind(t, err, errors.KindConflict)

	affected, err = db.Execute(ctx, "DELETE FROM conformance")
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
}

func testQueue(t *testing.T, factory Factory, _ Fixtures) {
	b := factory(t)
	q := b.Queue()
	ctx := t.Context()

	first, err := q.Subscribe(ctx, "events")
	require.NoError(t, err)
	second, err := q.Subscribe(ctx, "events")
	require.NoError(t, err)

	d, err := q.Poll(ctx, first, 0)
	require.NoError(t, err)
	assert.True(t, d.TimedOut)

	require.NoError(t, q.Publish(ctx, "events", []byte("one")))
	require.NoError(t, q.Publish(ctx, "events", []byte("two")))

	for _, h := range []extio.Handle{first, second} {
		for _, want := range []string{"one", "two"} {
			d, err := q.Poll(ctx, h, time.Second)
			require.NoError(t, err)
			require.False(t, d.TimedOut)
			assert.Equal(t, want, string(d.Message.Data))
			assert.Equal(t, "events", d.Message.Topic)
		}
	}

	_, err = q.Poll(ctx, first, -time.Second)
	RequireKind(t, err, errors.KindInvalidArgument)

	require.NoError(t, q.Unsubscribe(ctx, first))
	_, err = q.Poll(ctx, first, 0)
	RequireKind(t, err, errors.KindInvalidArgument)
	assert.Equal(t, errors.CodeStaleHandle, errors.GetCode(err))

	require.NoError(t, q.Unsubscribe(ctx, second))
}

func testIPC(t *testing.T, factory Factory, _ Fixtures) {
	b := factory(t)
	ipc := b.IPC()
	ctx := t.Context()

	d, err := ipc.Receive(ctx, "conformance", 0)
	require.NoError(t, err)
	assert.True(t, d.TimedOut)

	require.NoError(t, ipc.Send(ctx, "conformance", []byte("ping")))

	d, err = ipc.Receive(ctx, "conformance", 2*time.Second)
	require.NoError(t, err)
	require.False(t, d.TimedOut)
	assert.Equal(t, []byte("ping"), d.Message.Data)

	start := time.Now()
	d, err = ipc.Receive(ctx, "conformance", 20*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, d.TimedOut)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)

	_, err = ipc.Receive(ctx, "conformance", -time.Second)
	RequireKind(t, err, errors.KindInvalidArgument)
}

func testSchedule(t *testing.T, factory Factory, _ Fixtures) {
	t.Run("After", func(t *testing.T) {
		b := factory(t)

		start := time.Now()
		require.NoError(t, b.Schedule().After(t.Context(), 20*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("AfterCancelled", func(t *testing.T) {
		b := factory(t)

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()
		time.AfterFunc(50*time.Millisecond, cancel)

		start := time.Now()
		err := b.Schedule().After(ctx, 100*time.Millisecond)
		RequireKind(t, err, errors.KindCancelled)
		assert.Less(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("Every", func(t *testing.T) {
		b := factory(t)

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		ticks, err := b.Schedule().Every(ctx, 5*time.Millisecond)
		require.NoError(t, err)

		for range 2 {
			var seqs []uint64
			for tick := range ticks {
				seqs = append(seqs, tick.Seq)
				if len(seqs) == 3 {
					break
				}
			}
			assert.Equal(t, []uint64{1, 2, 3}, seqs)
		}

		cancel()
		for range ticks {
			t.Fatal("tick produced after cancellation")
		}
	})

	t.Run("Now", func(t *testing.T) {
		b := factory(t)

		now, err := b.Schedule().Now(t.Context())
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), now, time.Minute)
	})
}

func testConfig(t *testing.T, factory Factory, fixtures Fixtures) {
	b := factory(t)
	ctx := t.Context()

	_, err := b.Config().Get(ctx, "extio_conformance_missing_key")
	RequireKind(t, err, errors.KindNotFound)

	if fixtures.ConfigKey == "" {
		return
	}
	value, err := b.Config().Get(ctx, fixtures.ConfigKey)
	require.NoError(t, err)
	assert.Equal(t, fixtures.ConfigValue, value)
}

func testTelemetry(t *testing.T, factory Factory, _ Fixtures) {
	b := factory(t)
	ctx := t.Context()

	require.NoError(t, b.Telemetry().Log(ctx, extio.LevelInfo, "conformance", extio.Fields{"step": 1}))
	require.NoError(t, b.Telemetry().Log(ctx, extio.LevelDebug, "no fields", nil))
	require.NoError(t, b.Telemetry().RecordMetric(ctx, "conformance.count", 1, extio.Tags{"suite": "extio"}))
}

func testCrypto(t *testing.T, factory Factory, fixtures Fixtures) {
	b := factory(t)
	c := b.Crypto()
	ctx := t.Context()

	if fixtures.KeyID != "" {
		payload := []byte("payload")
		signature, err := c.Sign(ctx, fixtures.KeyID, payload)
		require.NoError(t, err)
		require.NotEmpty(t, signature)

		ok, err := c.Verify(ctx, fixtures.KeyID, payload, signature)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = c.Verify(ctx, fixtures.KeyID, []byte("tampered"), signature)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	if fixtures.SecretName != "" {
		secret, err := c.GetSecret(ctx, fixtures.SecretName)
		require.NoError(t, err)
		assert.Equal(t, fixtures.SecretValue, secret)
	}

	if fixtures.DeniedSecret != "" {
		_, err := c.GetSecret(ctx, fixtures.DeniedSecret)
		RequireKind(t, err, errors.KindPermissionDenied)
	}

	_, err := c.GetSecret(ctx, "extio-conformance-missing")
	require.Error(t, err)
	assert.Contains(t, []errors.Kind{errors.KindNotFound, errors.KindPermissionDenied}, errors.KindOf(err))
}
