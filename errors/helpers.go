package errors

import "errors"

// Is is errors.Is from the standard library, re-exported so callers only
// need a single errors import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As from the standard library.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join is errors.Join from the standard library.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// GetCode returns the backend code of the first descriptor in err's chain.
func GetCode(err error) string {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.code
	}

	return ""
}
