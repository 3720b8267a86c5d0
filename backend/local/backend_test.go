package local

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
	"github.com/mwantia/extio/extiotest"
	"github.com/mwantia/extio/log"
)

var testSeed = bytes.Repeat([]byte{0x2a}, ed25519.SeedSize)

func newTestBackend(t *testing.T, opts ...Option) *LocalBackend {
	t.Helper()

	lb := NewLocalBackend(filepath.Join(t.TempDir(), "root"), opts...)
	require.NoError(t, lb.Open(t.Context()))
	t.Cleanup(func() {
		lb.Close(context.Background())
	})

	return lb
}

func newSecretsDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db-password"), []byte("hunter2"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "root-key"), []byte("nope"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "release"+KeySuffix), []byte(hex.EncodeToString(testSeed)+"\n"), 0o600))
	return dir
}

func TestLocalBackend_Conformance(t *testing.T) {
	t.Setenv("EXTIO_TEST_REGION", "eu-west")

	newBackend := func(t *testing.T) *LocalBackend {
		return newTestBackend(t,
			WithEnvPrefix("EXTIO_TEST_"),
			WithSecretsDir(newSecretsDir(t)),
			WithRestrictedSecrets("root-key"),
		)
	}

	factories := map[string]extiotest.Factory{
		"plain": func(t *testing.T) extio.Backend {
			return newBackend(t)
		},
		"guarded": func(t *testing.T) extio.Backend {
			return extio.Guard(newBackend(t))
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

func TestLocalBackend_NotOpen(t *testing.T) {
	lb := NewLocalBackend(t.TempDir())

	_, err := lb.File().ReadAll(t.Context(), "a.txt")
	extiotest.RequireKind(t, err, errors.KindUnavailable)
}

func TestLocalBackend_ReadOnly(t *testing.T) {
	lb := newTestBackend(t, AsReadOnly())
	fs := lb.File()
	ctx := t.Context()

	assert.True(t, lb.GetCapabilities().Settings.ReadOnly)

	err := fs.WriteAll(ctx, "a.txt", []byte("x"))
	extiotest.RequireKind(t, err, errors.KindPermissionDenied)

	_, err = fs.Open(ctx, "a.txt", extio.ModeWrite|extio.ModeCreate)
	extiotest.RequireKind(t, err, errors.KindPermissionDenied)

	err = fs.Delete(ctx, "a.txt")
	extiotest.RequireKind(t, err, errors.KindPermissionDenied)
}

func TestLocalBackend_Sandbox(t *testing.T) {
	lb := newTestBackend(t)
	fs := lb.File()
	ctx := t.Context()

	require.NoError(t, fs.WriteAll(ctx, "../../escape.txt", []byte("inside")))

	data, err := os.ReadFile(filepath.Join(lb.path, "escape.txt"))
	require.NoError(t, err)
	assert.Equal(t, "inside", string(data))

	outside := filepath.Join(t.TempDir(), "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(lb.path, "link.txt")))

	_, err = fs.ReadAll(ctx, "link.txt")
	extiotest.RequireKind(t, err, errors.KindPermissionDenied)
}

func TestLocalBackend_FileModes(t *testing.T) {
	lb := newTestBackend(t)
	fs := lb.File()
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

	err = fs.WriteAll(ctx, "log.txt/nested", []byte("x"))
	extiotest.RequireKind(t, err, errors.KindConflict)

	err = fs.Delete(ctx, "/")
	extiotest.RequireKind(t, err, errors.KindInvalidArgument)

	require.NoError(t, fs.WriteAll(ctx, "dir/inner.txt", []byte("x")))
	err = fs.Delete(ctx, "dir")
	extiotest.RequireKind(t, err, errors.KindInvalidArgument)
	_, err = fs.Open(ctx, "dir", extio.ModeRead)
	extiotest.RequireKind(t, err, errors.KindInvalidArgument)
}

func TestLocalBackend_ReadLargeSize(t *testing.T) {
	lb := newTestBackend(t)
	fs := extio.Guard(lb).File()
	ctx := t.Context()

	data := bytes.Repeat([]byte("0123456789"), maxReadChunk/10+1)
	require.NoError(t, fs.WriteAll(ctx, "big.bin", data))

	h, err := fs.Open(ctx, "big.bin", extio.ModeRead)
	require.NoError(t, err)
	defer fs.Close(ctx, h)

	first, err := fs.Read(ctx, h, 1<<34)
	require.NoError(t, err)
	assert.Len(t, first, maxReadChunk)

	rest, err := fs.Read(ctx, h, math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, data, append(first, rest...))

	tail, err := fs.Read(ctx, h, math.MaxInt)
	require.NoError(t, err)
	assert.Empty(t, tail)
}

func TestLocalBackend_CloseInvalidatesHandles(t *testing.T) {
	lb := NewLocalBackend(t.TempDir())
	ctx := t.Context()
	require.NoError(t, lb.Open(ctx))

	h, err := lb.File().Open(ctx, "a.txt", extio.ModeReadWrite|extio.ModeCreate)
	require.NoError(t, err)

	require.NoError(t, lb.Close(ctx))
	require.NoError(t, lb.Open(ctx))
	defer lb.Close(ctx)

	_, err = lb.File().Read(ctx, h, 1)
	extiotest.RequireKind(t, err, errors.KindInvalidArgument)
	assert.Equal(t, errors.CodeStaleHandle, errors.GetCode(err))
}

func TestEnvNames(t *testing.T) {
	tests := []struct {
		prefix, key string
		want        []string
	}{
		{"", "HOME", []string{"HOME"}},
		{"APP_", "db.host", []string{"APP_db.host", "APP_DB_HOST"}},
		{"APP_", "log-level", []string{"APP_log-level", "APP_LOG_LEVEL"}},
	}

	for _, tt := range tests {
		t.Run(tt.prefix+tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, EnvNames(tt.prefix, tt.key))
		})
	}
}

func TestLocalBackend_ConfigVerbatimFirst(t *testing.T) {
	t.Setenv("EXTIO_CFG_db.host", "verbatim")
	t.Setenv("EXTIO_CFG_DB_HOST", "normalized")
	t.Setenv("EXTIO_CFG_DB_PORT", "5432")

	lb := newTestBackend(t, WithEnvPrefix("EXTIO_CFG_"))
	ctx := t.Context()

	value, err := lb.Config().Get(ctx, "db.host")
	require.NoError(t, err)
	assert.Equal(t, "verbatim", value)

	value, err = lb.Config().Get(ctx, "db.port")
	require.NoError(t, err)
	assert.Equal(t, "5432", value)
}

func TestLocalBackend_Crypto(t *testing.T) {
	lb := newTestBackend(t, WithSecretsDir(newSecretsDir(t)))
	c := lb.Crypto()
	ctx := t.Context()

	payload := []byte("release-1.2.3")
	signature, err := c.Sign(ctx, "release", payload)
	require.NoError(t, err)

	want := ed25519.Sign(ed25519.NewKeyFromSeed(testSeed), payload)
	assert.Equal(t, want, signature)

	_, err = c.Sign(ctx, "unknown", payload)
	extiotest.RequireKind(t, err, errors.KindNotFound)

	_, err = c.GetSecret(ctx, "../db-password")
	extiotest.RequireKind(t, err, errors.KindInvalidArgument)

	_, err = c.GetSecret(ctx, "release"+KeySuffix)
	extiotest.RequireKind(t, err, errors.KindPermissionDenied)

	ok, err := c.Verify(ctx, "release", payload, []byte("short"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalBackend_Telemetry(t *testing.T) {
	var buf bytes.Buffer
	lb := newTestBackend(t, WithLogger(log.NewWriterLogger("local", log.Info, &buf)))
	ctx := t.Context()

	require.NoError(t, lb.Telemetry().Log(ctx, extio.LevelWarn, "disk almost full", extio.Fields{"free": 3}))
	require.NoError(t, lb.Telemetry().RecordMetric(ctx, "requests", 3, extio.Tags{"route": "/api"}))

	output := buf.String()
	assert.Contains(t, output, "disk almost full free=3")
	assert.Contains(t, output, "metric=requests")
	assert.Contains(t, output, "tag.route=/api")
	assert.Contains(t, output, "value=3")
	assert.Equal(t, 2, strings.Count(output, "\n"))

	err := lb.Telemetry().Log(ctx, extio.Level(9), "bad", nil)
	extiotest.RequireKind(t, err, errors.KindInvalidArgument)
}
