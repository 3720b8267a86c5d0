package errors

import "fmt"

// Unsupported is the default result of every operation a backend did not implement.
func Unsupported(op string) *Error {
	return New(KindUnsupported, op, fmt.Sprintf("operation '%s' is not implemented by this backend", op))
}

func NotFound(op, format string, args ...any) *Error {
	return Newf(KindNotFound, op, format, args...)
}

func PermissionDenied(op, format string, args ...any) *Error {
	return Newf(KindPermissionDenied, op, format, args...)
}

func InvalidArgument(op, format string, args ...any) *Error {
	return Newf(KindInvalidArgument, op, format, args...)
}

func Timeout(op, format string, args ...any) *Error {
	return Newf(KindTimeout, op, format, args...)
}

// Cancelled reports an operation abandoned because its context was cancelled.
func Cancelled(op string) *Error {
	return New(KindCancelled, op, "operation cancelled")
}

func Conflict(op, format string, args ...any) *Error {
	return Newf(KindConflict, op, format, args...)
}

func Unavailable(op, format string, args ...any) *Error {
	return Newf(KindUnavailable, op, format, args...)
}

func Internal(op, format string, args ...any) *Error {
	return Newf(KindInternal, op, format, args...)
}

// StaleHandle reports the use of a handle that is closed, expired or unknown.
func StaleHandle(op, handle string) *Error {
	return New(KindInvalidArgument, op, fmt.Sprintf("handle '%s' is closed or unknown", handle), WithCode(CodeStaleHandle))
}

// Wrap builds a descriptor of the given kind around cause.
func Wrap(cause error, kind Kind, op, message string) *Error {
	return New(kind, op, message, WithCause(cause))
}

// CodeStaleHandle is the diagnostic code attached to stale handle errors.
const CodeStaleHandle = "stale_handle"
