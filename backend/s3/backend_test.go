package s3

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
	"github.com/mwantia/extio/extiotest"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		code   string
		status int
		want   errors.Kind
	}{
		{"NoSuchKey", http.StatusNotFound, errors.KindNotFound},
		{"NoSuchBucket", http.StatusNotFound, errors.KindNotFound},
		{"AccessDenied", http.StatusForbidden, errors.KindPermissionDenied},
		{"SignatureDoesNotMatch", http.StatusForbidden, errors.KindPermissionDenied},
		{"InvalidBucketName", http.StatusBadRequest, errors.KindInvalidArgument},
		{"BucketAlreadyOwnedByYou", http.StatusConflict, errors.KindConflict},
		{"SlowDown", http.StatusServiceUnavailable, errors.KindUnavailable},
		{"RequestTimeout", http.StatusBadRequest, errors.KindTimeout},
		{"", http.StatusNotFound, errors.KindNotFound},
		{"", http.StatusBadGateway, errors.KindUnavailable},
		{"Unknown", http.StatusTeapot, errors.KindInternal},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.code, tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, kindOf(tt.code, tt.status))
		})
	}
}

func TestMapError(t *testing.T) {
	ctx := t.Context()

	assert.NoError(t, mapError(ctx, extio.OpObjectStoreGet, nil))

	resp := minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound, Message: "The specified key does not exist."}
	err := mapError(ctx, extio.OpObjectStoreGet, resp)
	extiotest.RequireKind(t, err, errors.KindNotFound)
	extiotest.RequireOp(t, err, extio.OpObjectStoreGet)

	err = mapError(ctx, extio.OpObjectStoreGet, fmt.Errorf("boom"))
	extiotest.RequireKind(t, err, errors.KindInternal)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = mapError(cancelled, extio.OpObjectStoreGet, resp)
	extiotest.RequireKind(t, err, errors.KindCancelled)
}

func TestS3Backend_BucketPrefix(t *testing.T) {
	sb, err := NewS3Backend(&S3BackendConfig{Endpoint: "127.0.0.1:9000", BucketPrefix: "tenant-"})
	require.NoError(t, err)

	assert.Equal(t, "tenant-logs", sb.bucketName("logs"))
}

func TestNewS3Backend(t *testing.T) {
	_, err := NewS3Backend(nil)
	require.Error(t, err)

	sb, err := NewS3Backend(&S3BackendConfig{Endpoint: "127.0.0.1:9000", Region: "us-east-1"})
	require.NoError(t, err)
	assert.Equal(t, "s3", sb.Name())

	caps := sb.GetCapabilities()
	assert.True(t, caps.Contains(extio.GroupObjectStore))
	assert.True(t, caps.Settings.IdempotentDelete)

	err = sb.ObjectStore().Put(t.Context(), "", "k", nil)
	extiotest.RequireKind(t, err, errors.KindInvalidArgument)
}

// TestS3Backend_Conformance runs against the MinIO server at
// EXTIO_S3_ENDPOINT using the default minioadmin credentials.
func TestS3Backend_Conformance(t *testing.T) {
	endpoint := os.Getenv("EXTIO_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("EXTIO_S3_ENDPOINT is not set")
	}

	factory := func(t *testing.T) extio.Backend {
		sb, err := NewS3Backend(&S3BackendConfig{
			Endpoint:      endpoint,
			BucketPrefix:  "extio-" + uuid.NewString()[:8] + "-",
			AccessKey:     "minioadmin",
			SecretKey:     "minioadmin",
			Region:        "us-east-1",
			CreateBuckets: true,
		})
		require.NoError(t, err)
		require.NoError(t, sb.Open(t.Context()))
		return sb
	}

	extiotest.Run(t, factory, extiotest.Fixtures{})
}
