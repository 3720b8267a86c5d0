package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

// mapError converts a driver failure of op into a descriptor. Context
// failures take precedence over the cancellation they cause server-side.
func mapError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if cerr := extio.ContextErr(ctx, op); cerr != nil {
		return cerr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errors.Wrap(err, errors.KindNotFound, op, "no rows")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return errors.Wrap(err, kindOf(pgErr.Code), op, pgErr.Message)
	}

	if pgconn.Timeout(err) {
		return errors.Wrap(err, errors.KindTimeout, op, "")
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return errors.Wrap(err, errors.KindUnavailable, op, "")
	}
	return errors.From(op, err)
}

// kindOf classifies a SQLSTATE code, first by exact code and then by class.
func kindOf(code string) errors.Kind {
	switch code {
	case "42501", "25006":
		return errors.KindPermissionDenied
	case "57014":
		return errors.KindCancelled
	case "40001", "40P01", "55P03", "57P01", "57P02", "57P03":
		return errors.KindUnavailable
	}

	switch {
	case strings.HasPrefix(code, "23"):
		return errors.KindConflict
	case strings.HasPrefix(code, "22"), strings.HasPrefix(code, "42"):
		return errors.KindInvalidArgument
	case strings.HasPrefix(code, "28"):
		return errors.KindPermissionDenied
	case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "53"):
		return errors.KindUnavailable
	default:
		return errors.KindInternal
	}
}
