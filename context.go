package extio

import (
	"context"

	"github.com/mwantia/extio/errors"
)

type backendKey struct{}

// WithBackend returns a copy of ctx carrying b. Operations performed by
// callers holding the derived context are served by b.
func WithBackend(ctx context.Context, b Backend) context.Context {
	return context.WithValue(ctx, backendKey{}, b)
}

// FromContext returns the backend attached to ctx. Without one it returns
// a backend that answers every operation with Unsupported.
func FromContext(ctx context.Context) Backend {
	if b, ok := ctx.Value(backendKey{}).(Backend); ok && b != nil {
		return b
	}

	return Unsupported()
}

// HasBackend reports whether a backend is attached to ctx.
func HasBackend(ctx context.Context) bool {
	b, ok := ctx.Value(backendKey{}).(Backend)
	return ok && b != nil
}

// ContextErr returns the Cancelled or Timeout descriptor for op when ctx is
// already done, and nil otherwise. Backends call it at suspension points.
func ContextErr(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return errors.From(op, err)
	}
	return nil
}
