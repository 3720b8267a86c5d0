package sqlite

import (
	"context"
	"time"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

type sqliteObjectStore struct {
	extio.UnimplementedObjectStore
	sb *SQLiteBackend
}

func (o *sqliteObjectStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	if err := extio.ContextErr(ctx, extio.OpObjectStorePut); err != nil {
		return err
	}
	if err := extio.CheckObjectKey(extio.OpObjectStorePut, bucket, key); err != nil {
		return err
	}
	if o.sb.options.ReadOnly {
		return errors.PermissionDenied(extio.OpObjectStorePut, "backend is read-only")
	}
	if limit := o.sb.options.MaxObjectSize; limit > 0 && int64(len(data)) > limit {
		return errors.InvalidArgument(extio.OpObjectStorePut, "object of %d bytes exceeds the limit of %d bytes", len(data), limit)
	}
	if data == nil {
		data = []byte{}
	}

	db, err := o.sb.conn(extio.OpObjectStorePut)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO extio_objects (bucket, key, data, modified)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (bucket, key) DO UPDATE SET data = excluded.data, modified = excluded.modified
	`, bucket, key, data, time.Now().UnixNano())

	return mapError(ctx, extio.OpObjectStorePut, err)
}

func (o *sqliteObjectStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := extio.ContextErr(ctx, extio.OpObjectStoreGet); err != nil {
		return nil, err
	}
	if err := extio.CheckObjectKey(extio.OpObjectStoreGet, bucket, key); err != nil {
		return nil, err
	}

	db, err := o.sb.conn(extio.OpObjectStoreGet)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = db.QueryRowContext(ctx, "SELECT data FROM extio_objects WHERE bucket = ? AND key = ?", bucket, key).Scan(&data)
	if err != nil {
		if errors.IsKind(mapError(ctx, extio.OpObjectStoreGet, err), errors.KindNotFound) {
			return nil, errors.NotFound(extio.OpObjectStoreGet, "object '%s/%s' does not exist", bucket, key)
		}
		return nil, mapError(ctx, extio.OpObjectStoreGet, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

func (o *sqliteObjectStore) Delete(ctx context.Context, bucket, key string) error {
	if err := extio.ContextErr(ctx, extio.OpObjectStoreDelete); err != nil {
		return err
	}
	if err := extio.CheckObjectKey(extio.OpObjectStoreDelete, bucket, key); err != nil {
		return err
	}
	if o.sb.options.ReadOnly {
		return errors.PermissionDenied(extio.OpObjectStoreDelete, "backend is read-only")
	}

	db, err := o.sb.conn(extio.OpObjectStoreDelete)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, "DELETE FROM extio_objects WHERE bucket = ? AND key = ?", bucket, key)
	if err != nil {
		return mapError(ctx, extio.OpObjectStoreDelete, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return mapError(ctx, extio.OpObjectStoreDelete, err)
	}
	if affected == 0 {
		return errors.NotFound(extio.OpObjectStoreDelete, "object '%s/%s' does not exist", bucket, key)
	}
	return nil
}

func (o *sqliteObjectStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	if err := extio.ContextErr(ctx, extio.OpObjectStoreList); err != nil {
		return nil, err
	}
	if err := extio.CheckBucket(extio.OpObjectStoreList, bucket); err != nil {
		return nil, err
	}

	db, err := o.sb.conn(extio.OpObjectStoreList)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT key FROM extio_objects
		WHERE bucket = ? AND substr(key, 1, length(?)) = ?
		ORDER BY key
	`, bucket, prefix, prefix)
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
