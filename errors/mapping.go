package errors

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"os"
	"syscall"
)

// From converts any error raised while executing op into exactly one
// descriptor. Descriptors pass through unchanged (op is filled in when
// missing); well-known standard library failures are mapped onto the
// taxonomy; everything else becomes KindInternal with err as cause.
func From(op string, err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) && e != nil {
		if e.op == "" {
			return e.WithOp(op)
		}
		return e
	}

	return Wrap(err, classify(err), op, "")
}

// KindOf returns the kind err would be reported under. It returns
// KindInternal for nil, which callers should check for separately.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}

	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.kind
	}

	return classify(err)
}

// IsKind reports whether err is a failure of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return KindTimeout
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	case errors.Is(err, fs.ErrExist):
		return KindConflict
	case errors.Is(err, fs.ErrInvalid):
		return KindInvalidArgument
	case errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return KindUnavailable
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindUnavailable
	}

	return KindInternal
}
