package s3

import (
	"context"
	"fmt"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mwantia/extio"
)

// S3Backend serves ObjectStore from an S3 compatible service. The bucket
// argument of every operation names an S3 bucket.
type S3Backend struct {
	extio.UnimplementedBackend

	mu     sync.RWMutex
	client *minio.Client
	config *S3BackendConfig

	// Buckets known to exist, so automatic creation is tried only once.
	known map[string]bool
}

type S3BackendConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool

	// Region skips the bucket location lookup when set.
	Region string

	// BucketPrefix is prepended to every bucket name, so tenants can
	// share one service.
	BucketPrefix string

	// Buckets are checked for existence on Open.
	Buckets []string

	// CreateBuckets creates a missing bucket on the first Put into it.
	CreateBuckets bool
}

func NewS3Backend(config *S3BackendConfig) (*S3Backend, error) {
	if config == nil || config.Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
		Region: config.Region,
	})
	if err != nil {
		return nil, err
	}

	return &S3Backend{
		client: client,
		config: config,
		known:  make(map[string]bool),
	}, nil
}

// Returns the identifier name defined for this backend
func (*S3Backend) Name() string {
	return "s3"
}

// Open verifies that every configured bucket exists.
func (sb *S3Backend) Open(ctx context.Context) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	for _, name := range sb.config.Buckets {
		bucket := sb.bucketName(name)
		exists, err := sb.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("failed to check bucket '%s': %w", bucket, err)
		}
		if !exists {
			if !sb.config.CreateBuckets {
				return fmt.Errorf("bucket '%s' does not exist", bucket)
			}
			if err := sb.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: sb.config.Region}); err != nil {
				return fmt.Errorf("failed to create bucket '%s': %w", bucket, err)
			}
		}
		sb.known[bucket] = true
	}

	return nil
}

// GetCapabilities returns the groups supported by this backend.
func (sb *S3Backend) GetCapabilities() *extio.Capabilities {
	return &extio.Capabilities{
		Groups: []extio.CapabilityGroup{
			extio.GroupObjectStore,
		},
		Settings: extio.Settings{
			IdempotentDelete: true,
		},
	}
}

func (sb *S3Backend) ObjectStore() extio.ObjectStoreCapability {
	return &s3ObjectStore{sb: sb}
}

func (sb *S3Backend) bucketName(bucket string) string {
	return sb.config.BucketPrefix + bucket
}
