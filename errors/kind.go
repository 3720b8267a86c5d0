package errors

import (
	"fmt"
	"strings"
)

// Kind is the closed taxonomy every failure is reported under.
type Kind uint8

const (
	// KindInternal is a backend-specific failure not covered by any other kind.
	KindInternal Kind = iota
	// KindUnsupported marks an operation without a real backend implementation.
	KindUnsupported
	// KindNotFound means the target resource, key or path does not exist.
	KindNotFound
	// KindPermissionDenied means the caller lacks rights for the requested action.
	KindPermissionDenied
	// KindInvalidArgument means the input violates the operation's constraints.
	KindInvalidArgument
	// KindTimeout means a caller- or backend-imposed deadline elapsed.
	KindTimeout
	// KindCancelled means the operation was cancelled before completion.
	KindCancelled
	// KindConflict means the resource state prevents the action.
	KindConflict
	// KindUnavailable means the backend or transport is temporarily unreachable.
	KindUnavailable
)

var kindNames = [...]string{
	KindInternal:         "Internal",
	KindUnsupported:      "Unsupported",
	KindNotFound:         "NotFound",
	KindPermissionDenied: "PermissionDenied",
	KindInvalidArgument:  "InvalidArgument",
	KindTimeout:          "Timeout",
	KindCancelled:        "Cancelled",
	KindConflict:         "Conflict",
	KindUnavailable:      "Unavailable",
}

// Kinds returns every kind of the taxonomy in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindInternal,
		KindUnsupported,
		KindNotFound,
		KindPermissionDenied,
		KindInvalidArgument,
		KindTimeout,
		KindCancelled,
		KindConflict,
		KindUnavailable,
	}
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k belongs to the taxonomy.
func (k Kind) Valid() bool {
	return int(k) < len(kindNames)
}

// ParseKind resolves a kind by its name, ignoring case.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if strings.EqualFold(n, name) {
			return Kind(i), nil
		}
	}

	return KindInternal, fmt.Errorf("extio: unknown error kind '%s'", name)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("extio: invalid error kind %d", uint8(k))
	}

	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}

	*k = parsed
	return nil
}
