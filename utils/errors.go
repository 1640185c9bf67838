package utils

import (
	"fmt"

	"github.com/pkg/errors"
)

// NewUnexpectedTypeError is used when there is a type mismatch.
func NewUnexpectedTypeError(expected interface{}, actual interface{}) error {
	return errors.Errorf("expected %T but got %T", expected, actual)
}

// FieldRequiredError is returned by config validation when a required field is missing.
type FieldRequiredError struct {
	Path  string
	Field string
}

func (e *FieldRequiredError) Error() string {
	return fmt.Sprintf("%s: %q is required", e.Path, e.Field)
}

// NewConfigValidationFieldRequiredError is used when a config field is missing.
func NewConfigValidationFieldRequiredError(path, field string) error {
	return &FieldRequiredError{Path: path, Field: field}
}

// NewConfigValidationError wraps a config error with the path of the offending section.
func NewConfigValidationError(path string, err error) error {
	return errors.Wrapf(err, "error validating %q", path)
}

// GetFieldFromFieldRequiredError returns the missing field name, or "" if err is not a
// field required error.
func GetFieldFromFieldRequiredError(err error) string {
	var fieldErr *FieldRequiredError
	if errors.As(err, &fieldErr) {
		return fieldErr.Field
	}
	return ""
}
