// Package errors defines the Error Descriptor shared by every capability
// group: a closed Kind taxonomy, the operation it was raised for, a
// human-readable message and an optional backend-specific diagnostic code.
//
// Descriptors compare by kind through errors.Is against the Err* sentinels,
// so callers never need to know which backend produced a failure:
//
//	if errors.Is(err, exterrors.ErrNotFound) { ... }
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error is the uniform failure descriptor returned by every operation.
type Error struct {
	kind    Kind
	op      string
	message string
	code    string
	cause   error
}

// Sentinels used as errors.Is targets. They only carry a kind.
var (
	ErrInternal         = &Error{kind: KindInternal}
	ErrUnsupported      = &Error{kind: KindUnsupported}
	ErrNotFound         = &Error{kind: KindNotFound}
	ErrPermissionDenied = &Error{kind: KindPermissionDenied}
	ErrInvalidArgument  = &Error{kind: KindInvalidArgument}
	ErrTimeout          = &Error{kind: KindTimeout}
	ErrCancelled        = &Error{kind: KindCancelled}
	ErrConflict         = &Error{kind: KindConflict}
	ErrUnavailable      = &Error{kind: KindUnavailable}
)

// Option configures an Error during construction.
type Option func(*Error)

// WithCode attaches a backend-specific diagnostic code.
func WithCode(code string) Option {
	return func(e *Error) { e.code = code }
}

// WithCause sets the error returned by Unwrap.
func WithCause(cause error) Option {
	return func(e *Error) { e.cause = cause }
}

// New creates a descriptor of the given kind for op.
func New(kind Kind, op, message string, opts ...Option) *Error {
	e := &Error{
		kind:    kind,
		op:      op,
		message: message,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Newf is New with a formatted message.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return New(kind, op, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	text := "extio: "
	if e.op != "" {
		text += e.op + ": "
	}
	text += e.kind.String()
	if e.message != "" {
		text += ": " + e.message
	}
	if e.code != "" {
		text += " [" + e.code + "]"
	}
	if e.cause != nil {
		text += ": " + e.cause.Error()
	}

	return text
}

func (e *Error) Kind() Kind      { return e.kind }
func (e *Error) Op() string      { return e.op }
func (e *Error) Message() string { return e.message }
func (e *Error) Code() string    { return e.code }
func (e *Error) Unwrap() error   { return e.cause }

// Is matches any *Error of the same kind, so the Err* sentinels work as
// targets regardless of operation, message or code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}

	return e.kind == t.kind
}

// Retryable reports whether the kind is classified as transient.
func (e *Error) Retryable() bool {
	return Classify(e.kind).IsRetryable()
}

// WithOp returns a copy of e bound to op.
func (e *Error) WithOp(op string) *Error {
	c := *e
	c.op = op
	return &c
}

type jsonError struct {
	Kind    Kind   `json:"kind"`
	Op      string `json:"op,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Cause   string `json:"cause,omitempty"`
}

// MarshalJSON encodes the descriptor; the cause is flattened to its text.
func (e *Error) MarshalJSON() ([]byte, error) {
	out := jsonError{
		Kind:    e.kind,
		Op:      e.op,
		Message: e.message,
		Code:    e.code,
	}
	if e.cause != nil {
		out.Cause = e.cause.Error()
	}

	return json.Marshal(out)
}

func (e *Error) UnmarshalJSON(b []byte) error {
	var in jsonError
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}

	e.kind = in.Kind
	e.op = in.Op
	e.message = in.Message
	e.code = in.Code
	e.cause = nil
	if in.Cause != "" {
		e.cause = errors.New(in.Cause)
	}

	return nil
}
