package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/mwantia/extio"
)

type sqliteDatabase struct {
	extio.UnimplementedDatabase
	sb *SQLiteBackend
}

func (d *sqliteDatabase) Query(ctx context.Context, statement string, params ...any) (*extio.ResultSet, error) {
	if err := extio.ContextErr(ctx, extio.OpDatabaseQuery); err != nil {
		return nil, err
	}

	db, err := d.sb.conn(extio.OpDatabaseQuery)
	if err != nil {
		return nil, err
	}
	statement, params, err = bindPositional(extio.OpDatabaseQuery, statement, params)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, statement, params...)
	if err != nil {
		return nil, mapError(ctx, extio.OpDatabaseQuery, err)
	}
	defer rows.Close()

	rs, err := collect(rows)
	if err != nil {
		return nil, mapError(ctx, extio.OpDatabaseQuery, err)
	}
	return rs, nil
}

// collect reads every row. Text columns scanned as bytes are returned as
// strings, so values look the same whatever the storage class.
func collect(rows *sql.Rows) (*extio.ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	rs := &extio.ResultSet{
		Columns: columns,
		Rows:    []extio.Row{},
	}

	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		for i, value := range values {
			if raw, ok := value.([]byte); ok && isText(types[i].DatabaseTypeName()) {
				values[i] = string(raw)
			}
		}
		rs.Rows = append(rs.Rows, extio.Row(values))
	}

	return rs, rows.Err()
}

func isText(declared string) bool {
	declared = strings.ToUpper(declared)
	return strings.Contains(declared, "CHAR") || strings.Contains(declared, "TEXT") || strings.Contains(declared, "CLOB")
}

func (d *sqliteDatabase) Execute(ctx context.Context, statement string, params ...any) (int64, error) {
	if err := extio.ContextErr(ctx, extio.OpDatabaseExecute); err != nil {
		return 0, err
	}

	db, err := d.sb.conn(extio.OpDatabaseExecute)
	if err != nil {
		return 0, err
	}
	statement, params, err = bindPositional(extio.OpDatabaseExecute, statement, params)
	if err != nil {
		return 0, err
	}

	result, err := db.ExecContext(ctx, statement, params...)
	if err != nil {
		return 0, mapError(ctx, extio.OpDatabaseExecute, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, mapError(ctx, extio.OpDatabaseExecute, err)
	}
	return affected, nil
}
