package postgres

import (
	"context"
	"time"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

type postgresObjectStore struct {
	extio.UnimplementedObjectStore
	pb *PostgresBackend
}

func (o *postgresObjectStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	if err := extio.ContextErr(ctx, extio.OpObjectStorePut); err != nil {
		return err
	}
	if err := extio.CheckObjectKey(extio.OpObjectStorePut, bucket, key); err != nil {
		return err
	}
	if o.pb.options.ReadOnly {
		return errors.PermissionDenied(extio.OpObjectStorePut, "backend is read-only")
	}
	if limit := o.pb.options.MaxObjectSize; limit > 0 && int64(len(data)) > limit {
		return errors.InvalidArgument(extio.OpObjectStorePut, "object of %d bytes exceeds the limit of %d bytes", len(data), limit)
	}
	if data == nil {
		data = []byte{}
	}

	pool, err := o.pb.conn(extio.OpObjectStorePut)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO extio_objects (bucket, key, data, modified)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (bucket, key) DO UPDATE SET data = EXCLUDED.data, modified = EXCLUDED.modified
	`, bucket, key, data, time.Now().UnixNano())

	return mapError(ctx, extio.OpObjectStorePut, err)
}

func (o *postgresObjectStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := extio.ContextErr(ctx, extio.OpObjectStoreGet); err != nil {
		return nil, err
	}
	if err := extio.CheckObjectKey(extio.OpObjectStoreGet, bucket, key); err != nil {
		return nil, err
	}

	pool, err := o.pb.conn(extio.OpObjectStoreGet)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = pool.QueryRow(ctx, "SELECT data FROM extio_objects WHERE bucket = $1 AND key = $2", bucket, key).Scan(&data)
	if err != nil {
		mapped := mapError(ctx, extio.OpObjectStoreGet, err)
		if errors.IsKind(mapped, errors.KindNotFound) {
			return nil, errors.NotFound(extio.OpObjectStoreGet, "object '%s/%s' does not exist", bucket, key)
		}
		return nil, mapped
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

func (o *postgresObjectStore) Delete(ctx context.Context, bucket, key string) error {
	if err := extio.ContextErr(ctx, extio.OpObjectStoreDelete); err != nil {
		return err
	}
	if err := extio.CheckObjectKey(extio.OpObjectStoreDelete, bucket, key); err != nil {
		return err
	}
	if o.pb.options.ReadOnly {
		return errors.PermissionDenied(extio.OpObjectStoreDelete, "backend is read-only")
	}

	pool, err := o.pb.conn(extio.OpObjectStoreDelete)
	if err != nil {
		return err
	}

	tag, err := pool.Exec(ctx, "DELETE FROM extio_objects WHERE bucket = $1 AND key = $2", bucket, key)
	if err != nil {
		return mapError(ctx, extio.OpObjectStoreDelete, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound(extio.OpObjectStoreDelete, "object '%s/%s' does not exist", bucket, key)
	}
	return nil
}

func (o *postgresObjectStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	if err := extio.ContextErr(ctx, extio.OpObjectStoreList); err != nil {
		return nil, err
	}
	if err := extio.CheckBucket(extio.OpObjectStoreList, bucket); err != nil {
		return nil, err
	}

	pool, err := o.pb.conn(extio.OpObjectStoreList)
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, `
		SELECT key FROM extio_objects
		WHERE bucket = $1 AND starts_with(key, $2)
		ORDER BY key COLLATE "C"
	`, bucket, prefix)
	if err != nil {
		return nil, mapError(ctx, extio.OpObjectStoreList, err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, mapError(ctx, extio.OpObjectStoreList, err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(ctx, extio.OpObjectStoreList, err)
	}
	return keys, nil
}
