package core

import "github.com/pkg/errors"

// FieldError ties a validation message to a single request field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries field-level problems across the service boundary
// so the HTTP layer can render them as a field => message map.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

// RequiredFieldError reports a missing mandatory field or query parameter.
func RequiredFieldError(field string) error {
	return NewValidationError(nil, FieldError{Field: field, Error: "this field is required"})
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

// shutdown signals an integrity failure the process should not survive.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

// IsShutdown reports whether err was caused by a shutdown error.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
