package memory

import (
	"context"
	"strings"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

type memoryObjectStore struct {
	extio.UnimplementedObjectStore
	mb *MemoryBackend
}

// objectKey joins bucket and key so one ordered map serves every bucket.
func objectKey(bucket, key string) string {
	return bucket + "\x00" + key
}

func (o *memoryObjectStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	if err := extio.ContextErr(ctx, extio.OpObjectStorePut); err != nil {
		return err
	}
	if err := extio.CheckObjectKey(extio.OpObjectStorePut, bucket, key); err != nil {
		return err
	}
	if o.mb.options.ReadOnly {
		return errors.PermissionDenied(extio.OpObjectStorePut, "backend is read-only")
	}
	if limit := o.mb.options.MaxObjectSize; limit > 0 && int64(len(data)) > limit {
		return errors.InvalidArgument(extio.OpObjectStorePut, "object of %d bytes exceeds the limit of %d bytes", len(data), limit)
	}

	content := make([]byte, len(data))
	copy(content, data)

	o.mb.mu.Lock()
	defer o.mb.mu.Unlock()

	o.mb.objects.Set(objectKey(bucket, key), content)
	return nil
}

func (o *memoryObjectStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := extio.ContextErr(ctx, extio.OpObjectStoreGet); err != nil {
		return nil, err
	}
	if err := extio.CheckObjectKey(extio.OpObjectStoreGet, bucket, key); err != nil {
		return nil, err
	}

	o.mb.mu.Lock()
	defer o.mb.mu.Unlock()

	content, exists := o.mb.objects.Get(objectKey(bucket, key))
	if !exists {
		return nil, errors.NotFound(extio.OpObjectStoreGet, "object '%s/%s' does not exist", bucket, key)
	}

	out := make([]byte, len(content))
	copy(out, content)
	return out, nil
}

func (o *memoryObjectStore) Delete(ctx context.Context, bucket, key string) error {
	if err := extio.ContextErr(ctx, extio.OpObjectStoreDelete); err != nil {
		return err
	}
	if err := extio.CheckObjectKey(extio.OpObjectStoreDelete, bucket, key); err != nil {
		return err
	}
	if o.mb.options.ReadOnly {
		return errors.PermissionDenied(extio.OpObjectStoreDelete, "backend is read-only")
	}

	o.mb.mu.Lock()
	defer o.mb.mu.Unlock()

	if _, exists := o.mb.objects.Delete(objectKey(bucket, key)); !exists {
		return errors.NotFound(extio.OpObjectStoreDelete, "object '%s/%s' does not exist", bucket, key)
	}
	return nil
}

func (o *memoryObjectStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	if err := extio.ContextErr(ctx, extio.OpObjectStoreList); err != nil {
		return nil, err
	}
	if err := extio.CheckBucket(extio.OpObjectStoreList, bucket); err != nil {
		return nil, err
	}

	o.mb.mu.Lock()
	defer o.mb.mu.Unlock()

	pivot := objectKey(bucket, prefix)
	keys := make([]string, 0)
	o.mb.objects.Ascend(pivot, func(k string, _ []byte) bool {
		if !strings.HasPrefix(k, pivot) {
			return false
		}
		keys = append(keys, strings.TrimPrefix(k, bucket+"\x00"))
		return true
	})

	return keys, nil
}
