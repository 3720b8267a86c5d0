package extio

import (
	"context"

	"github.com/mwantia/extio/errors"
)

// DatabaseCapability exposes statement execution against a database.
// Transaction boundaries are owned by the backend.
type DatabaseCapability interface {
	// Query runs a statement returning rows.
	Query(ctx context.Context, statement string, params ...any) (*ResultSet, error)
	// Execute runs a statement and returns the number of affected rows.
	Execute(ctx context.Context, statement string, params ...any) (int64, error)

	mustEmbedUnimplementedDatabase()
}

// UnimplementedDatabase must be embedded by every DatabaseCapability implementation.
type UnimplementedDatabase struct{}

func (UnimplementedDatabase) Query(context.Context, string, ...any) (*ResultSet, error) {
	return nil, errors.Unsupported(OpDatabaseQuery)
}

func (UnimplementedDatabase) Execute(context.Context, string, ...any) (int64, error) {
	return 0, errors.Unsupported(OpDatabaseExecute)
}

func (UnimplementedDatabase) mustEmbedUnimplementedDatabase() {}
