package s3

import (
	"bytes"
	"context"
	"io"
	"slices"

	"github.com/minio/minio-go/v7"

	"github.com/mwantia/extio"
)

type s3ObjectStore struct {
	extio.UnimplementedObjectStore
	sb *S3Backend
}

func (o *s3ObjectStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	if err := extio.ContextErr(ctx, extio.OpObjectStorePut); err != nil {
		return err
	}
	if err := extio.CheckObjectKey(extio.OpObjectStorePut, bucket, key); err != nil {
		return err
	}

	bucket = o.sb.bucketName(bucket)
	err := o.put(ctx, bucket, key, data)
	if err != nil && o.sb.config.CreateBuckets && minio.ToErrorResponse(err).Code == "NoSuchBucket" {
		if err := o.sb.ensureBucket(ctx, bucket); err != nil {
			return mapError(ctx, extio.OpObjectStorePut, err)
		}
		err = o.put(ctx, bucket, key, data)
	}
	return mapError(ctx, extio.OpObjectStorePut, err)
}

func (o *s3ObjectStore) put(ctx context.Context, bucket, key string, data []byte) error {
	_, err := o.sb.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	return err
}

func (sb *S3Backend) ensureBucket(ctx context.Context, bucket string) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.known[bucket] {
		return nil
	}

	err := sb.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: sb.config.Region})
	if err != nil {
		code := minio.ToErrorResponse(err).Code
		if code != "BucketAlreadyOwnedByYou" && code != "BucketAlreadyExists" {
			return err
		}
	}

	sb.known[bucket] = true
	return nil
}

func (o *s3ObjectStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := extio.ContextErr(ctx, extio.OpObjectStoreGet); err != nil {
		return nil, err
	}
	if err := extio.CheckObjectKey(extio.OpObjectStoreGet, bucket, key); err != nil {
		return nil, err
	}

	obj, err := o.sb.client.GetObject(ctx, o.sb.bucketName(bucket), key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapError(ctx, extio.OpObjectStoreGet, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapError(ctx, extio.OpObjectStoreGet, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// Delete succeeds for missing keys, as S3 itself does.
func (o *s3ObjectStore) Delete(ctx context.Context, bucket, key string) error {
	if err := extio.ContextErr(ctx, extio.OpObjectStoreDelete); err != nil {
		return err
	}
	if err := extio.CheckObjectKey(extio.OpObjectStoreDelete, bucket, key); err != nil {
		return err
	}

	err := o.sb.client.RemoveObject(ctx, o.sb.bucketName(bucket), key, minio.RemoveObjectOptions{})
	return mapError(ctx, extio.OpObjectStoreDelete, err)
}

func (o *s3ObjectStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	if err := extio.ContextErr(ctx, extio.OpObjectStoreList); err != nil {
		return nil, err
	}
	if err := extio.CheckBucket(extio.OpObjectStoreList, bucket); err != nil {
		return nil, err
	}

	// Stops the listing goroutine when returning early.
	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := []string{}
	for info := range o.sb.client.ListObjects(listCtx, o.sb.bucketName(bucket), minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, mapError(ctx, extio.OpObjectStoreList, info.Err)
		}
		keys = append(keys, info.Key)
	}

	slices.Sort(keys)
	return keys, nil
}
