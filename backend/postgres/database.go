package postgres

import (
	"context"

	"github.com/mwantia/extio"
)

type postgresDatabase struct {
	extio.UnimplementedDatabase
	pb *PostgresBackend
}

func (d *postgresDatabase) Query(ctx context.Context, statement string, params ...any) (*extio.ResultSet, error) {
	if err := extio.ContextErr(ctx, extio.OpDatabaseQuery); err != nil {
		return nil, err
	}

	pool, err := d.pb.conn(extio.OpDatabaseQuery)
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, statement, params...)
	if err != nil {
		return nil, mapError(ctx, extio.OpDatabaseQuery, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	rs := &extio.ResultSet{
		Columns: make([]string, len(fields)),
		Rows:    []extio.Row{},
	}
	for i, field := range fields {
		rs.Columns[i] = field.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, mapError(ctx, extio.OpDatabaseQuery, err)
		}
		rs.Rows = append(rs.Rows, extio.Row(values))
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(ctx, extio.OpDatabaseQuery, err)
	}

	return rs, nil
}

func (d *postgresDatabase) Execute(ctx context.Context, statement string, params ...any) (int64, error) {
	if err := extio.ContextErr(ctx, extio.OpDatabaseExecute); err != nil {
		return 0, err
	}

	pool, err := d.pb.conn(extio.OpDatabaseExecute)
	if err != nil {
		return 0, err
	}

	tag, err := pool.Exec(ctx, statement, params...)
	if err != nil {
		return 0, mapError(ctx, extio.OpDatabaseExecute, err)
	}
	return tag.RowsAffected(), nil
}
