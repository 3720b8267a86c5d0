package extio

import (
	"context"
	"strings"

	"github.com/mwantia/extio/errors"
)

// ObjectStoreCapability exposes bucket/key blob storage.
type ObjectStoreCapability interface {
	// Put stores data under bucket/key, replacing any previous value.
	Put(ctx context.Context, bucket, key string, data []byte) error
	// Get returns the exact bytes last stored under bucket/key.
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	// Delete removes bucket/key. A missing key yields NotFound unless the
	// backend declares Settings.IdempotentDelete.
	Delete(ctx context.Context, bucket, key string) error
	// List returns the sorted keys of bucket starting with prefix.
	List(ctx context.Context, bucket, prefix string) ([]string, error)

	mustEmbedUnimplementedObjectStore()
}

// UnimplementedObjectStore must be embedded by every ObjectStoreCapability implementation.
type UnimplementedObjectStore struct{}

func (UnimplementedObjectStore) Put(context.Context, string, string, []byte) error {
	return errors.Unsupported(OpObjectStorePut)
}

func (UnimplementedObjectStore) Get(context.Context, string, string) ([]byte, error) {
	return nil, errors.Unsupported(OpObjectStoreGet)
}

func (UnimplementedObjectStore) Delete(context.Context, string, string) error {
	return errors.Unsupported(OpObjectStoreDelete)
}

func (UnimplementedObjectStore) List(context.Context, string, string) ([]string, error) {
	return nil, errors.Unsupported(OpObjectStoreList)
}

func (UnimplementedObjectStore) mustEmbedUnimplementedObjectStore() {}

// CheckBucket validates a bucket name passed to op. Buckets must be
// non-empty and free of NUL bytes.
func CheckBucket(op, bucket string) error {
	if bucket == "" {
		return errors.InvalidArgument(op, "bucket must not be empty")
	}
	if strings.ContainsRune(bucket, 0) {
		return errors.InvalidArgument(op, "bucket contains a NUL byte")
	}
	return nil
}

// CheckObjectKey validates the bucket and key passed to op. Keys must be
// non-empty.
func CheckObjectKey(op, bucket, key string) error {
	if err := CheckBucket(op, bucket); err != nil {
		return err
	}
	if key == "" {
		return errors.InvalidArgument(op, "key must not be empty")
	}
	return nil
}
