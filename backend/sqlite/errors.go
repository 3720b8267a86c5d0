package sqlite

import (
	"context"
	"database/sql"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

// mapError converts a driver failure of op into a descriptor. Context
// failures take precedence over the interrupt they cause.
func mapError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if cerr := extio.ContextErr(ctx, op); cerr != nil {
		return cerr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(err, errors.KindNotFound, op, "no rows")
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return errors.Wrap(err, kindOf(sqliteErr.Code()), op, "")
	}
	return errors.From(op, err)
}

// kindOf classifies an extended SQLite result code by its primary code.
func kindOf(code int) errors.Kind {
	switch code & 0xff {
	case sqlite3.SQLITE_CONSTRAINT:
		return errors.KindConflict
	case sqlite3.SQLITE_ERROR, sqlite3.SQLITE_MISMATCH, sqlite3.SQLITE_RANGE, sqlite3.SQLITE_TOOBIG:
		return errors.KindInvalidArgument
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_FULL:
		return errors.KindUnavailable
	case sqlite3.SQLITE_PERM, sqlite3.SQLITE_AUTH, sqlite3.SQLITE_READONLY:
		return errors.KindPermissionDenied
	case sqlite3.SQLITE_INTERRUPT:
		return errors.KindCancelled
	case sqlite3.SQLITE_NOTFOUND:
		return errors.KindNotFound
	default:
		return errors.KindInternal
	}
}
