package consul

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
	"github.com/mwantia/extio/extiotest"
)

// fakeKV answers the subset of the Consul KV HTTP API used by the backend.
type fakeKV struct {
	mu     sync.Mutex
	values map[string][]byte
	token  string
}

func newFakeKV(t *testing.T, token string) (*fakeKV, string) {
	t.Helper()

	kv := &fakeKV{values: make(map[string][]byte), token: token}
	server := httptest.NewServer(kv)
	t.Cleanup(server.Close)

	return kv, server.URL
}

func (f *fakeKV) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Consul-Index", "1")
	w.Header().Set("X-Consul-LastContact", "0")
	w.Header().Set("X-Consul-KnownLeader", "true")

	if f.token != "" && r.Header.Get("X-Consul-Token") != f.token {
		http.Error(w, "Permission denied", http.StatusForbidden)
		return
	}

	key, ok := strings.CutPrefix(r.URL.Path, "/v1/kv/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		if r.URL.Query().Has("keys") {
			var keys []string
			for k := range f.values {
				if strings.HasPrefix(k, key) {
					keys = append(keys, k)
				}
			}
			if len(keys) == 0 {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			slices.Sort(keys)
			json.NewEncoder(w).Encode(keys)
			return
		}

		value, exists := f.values[key]
		if !exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode([]*api.KVPair{{Key: key, Value: value}})

	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.values[key] = body
		io.WriteString(w, "true")

	case http.MethodDelete:
		delete(f.values, key)
		io.WriteString(w, "true")

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeKV) set(key string, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
}

func newTestBackend(t *testing.T, address, token string) *ConsulBackend {
	t.Helper()

	cb, err := NewConsulBackend(&ConsulBackendConfig{
		Address: address,
		Token:   token,
		Prefix:  "tenant",
	})
	require.NoError(t, err)
	return cb
}

func TestConsulBackend_Conformance(t *testing.T) {
	factory := func(t *testing.T) extio.Backend {
		kv, address := newFakeKV(t, "")
		kv.set("tenant/config/region", []byte("eu-west"))

		cb := newTestBackend(t, address, "")
		require.NoError(t, cb.Open(t.Context()))
		return cb
	}

	extiotest.Run(t, factory, extiotest.Fixtures{
		ConfigKey:   "region",
		ConfigValue: "eu-west",
	})
}

func TestConsulBackend_Layout(t *testing.T) {
	kv, address := newFakeKV(t, "")
	cb := newTestBackend(t, address, "")
	ctx := t.Context()

	require.NoError(t, cb.ObjectStore().Put(ctx, "assets", "img/logo.png", []byte("png")))

	kv.mu.Lock()
	value, exists := kv.values["tenant/objects/assets/img/logo.png"]
	kv.mu.Unlock()
	require.True(t, exists)
	assert.Equal(t, "png", string(value))

	err := cb.ObjectStore().Put(ctx, "a/b", "k", nil)
	extiotest.RequireKind(t, err, errors.KindInvalidArgument)
}

func TestConsulBackend_PermissionDenied(t *testing.T) {
	_, address := newFakeKV(t, "secret-token")
	ctx := t.Context()

	denied := newTestBackend(t, address, "wrong-token")
	_, err := denied.ObjectStore().Get(ctx, "b", "k")
	extiotest.RequireKind(t, err, errors.KindPermissionDenied)

	_, err = denied.Config().Get(ctx, "region")
	extiotest.RequireKind(t, err, errors.KindPermissionDenied)

	require.Error(t, denied.Open(ctx))

	allowed := newTestBackend(t, address, "secret-token")
	require.NoError(t, allowed.ObjectStore().Put(ctx, "b", "k", []byte("v")))
}

func TestConsulBackend_MaxObjectSize(t *testing.T) {
	_, address := newFakeKV(t, "")
	cb := newTestBackend(t, address, "")

	assert.Equal(t, int64(512*1024), cb.GetCapabilities().Settings.MaxObjectSize)

	err := cb.ObjectStore().Put(t.Context(), "b", "big", make([]byte, 512*1024+1))
	extiotest.RequireKind(t, err, errors.KindInvalidArgument)
}

func TestConsulBackend_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	address := server.URL
	server.Close()

	cb := newTestBackend(t, address, "")

	_, err := cb.ObjectStore().Get(t.Context(), "b", "k")
	extiotest.RequireKind(t, err, errors.KindUnavailable)
	assert.True(t, errors.IsRetryable(err))
}

func TestKindOf(t *testing.T) {
	tests := map[int]errors.Kind{
		http.StatusForbidden:             errors.KindPermissionDenied,
		http.StatusUnauthorized:          errors.KindPermissionDenied,
		http.StatusNotFound:              errors.KindNotFound,
		http.StatusBadRequest:            errors.KindInvalidArgument,
		http.StatusRequestEntityTooLarge: errors.KindInvalidArgument,
		http.StatusTooManyRequests:       errors.KindUnavailable,
		http.StatusServiceUnavailable:    errors.KindUnavailable,
		http.StatusTeapot:                errors.KindInternal,
	}

	for status, want := range tests {
		assert.Equal(t, want, kindOf(status), "status %d", status)
	}
}

func TestMapError_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := mapError(ctx, extio.OpConfigGet, api.StatusError{Code: http.StatusInternalServerError})
	extiotest.RequireKind(t, err, errors.KindCancelled)
}
