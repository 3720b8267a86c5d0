package consul

import (
	"context"
	"slices"
	"strings"

	"github.com/hashicorp/consul/api"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

type consulObjectStore struct {
	extio.UnimplementedObjectStore
	cb *ConsulBackend
}

func checkBucket(op, bucket, key string) error {
	if err := extio.CheckObjectKey(op, bucket, key); err != nil {
		return err
	}
	if strings.Contains(bucket, "/") {
		return errors.InvalidArgument(op, "bucket '%s' contains a slash", bucket)
	}
	return nil
}

func (o *consulObjectStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	if err := extio.ContextErr(ctx, extio.OpObjectStorePut); err != nil {
		return err
	}
	if err := checkBucket(extio.OpObjectStorePut, bucket, key); err != nil {
		return err
	}
	if limit := o.cb.config.MaxObjectSize; int64(len(data)) > limit {
		return errors.InvalidArgument(extio.OpObjectStorePut, "object of %d bytes exceeds the limit of %d bytes", len(data), limit)
	}

	pair := &api.KVPair{
		Key:   o.cb.objectKey(bucket, key),
		Value: data,
	}
	_, err := o.cb.kv.Put(pair, writeOptions(ctx))
	return mapError(ctx, extio.OpObjectStorePut, err)
}

func (o *consulObjectStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := extio.ContextErr(ctx, extio.OpObjectStoreGet); err != nil {
		return nil, err
	}
	if err := checkBucket(extio.OpObjectStoreGet, bucket, key); err != nil {
		return nil, err
	}

	pair, _, err := o.cb.kv.Get(o.cb.objectKey(bucket, key), queryOptions(ctx))
	if err != nil {
		return nil, mapError(ctx, extio.OpObjectStoreGet, err)
	}
	if pair == nil {
		return nil, errors.NotFound(extio.OpObjectStoreGet, "object '%s/%s' does not exist", bucket, key)
	}
	if pair.Value == nil {
		return []byte{}, nil
	}
	return pair.Value, nil
}

func (o *consulObjectStore) Delete(ctx context.Context, bucket, key string) error {
	if err := extio.ContextErr(ctx, extio.OpObjectStoreDelete); err != nil {
		return err
	}
	if err := checkBucket(extio.OpObjectStoreDelete, bucket, key); err != nil {
		return err
	}

	_, err := o.cb.kv.Delete(o.cb.objectKey(bucket, key), writeOptions(ctx))
	return mapError(ctx, extio.OpObjectStoreDelete, err)
}

func (o *consulObjectStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	if err := extio.ContextErr(ctx, extio.OpObjectStoreList); err != nil {
		return nil, err
	}
	if err := checkBucket(extio.OpObjectStoreList, bucket, "-"); err != nil {
		return nil, err
	}

	base := o.cb.objectKey(bucket, "")
	found, _, err := o.cb.kv.Keys(base+prefix, "", queryOptions(ctx))
	if err != nil {
		return nil, mapError(ctx, extio.OpObjectStoreList, err)
	}

	keys := make([]string, 0, len(found))
	for _, k := range found {
		keys = append(keys, strings.TrimPrefix(k, base))
	}
	slices.Sort(keys)
	return keys, nil
}
