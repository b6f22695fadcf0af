package resource

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// ErrDoUnimplemented is returned if the DoCommand methods is not implemented.
var ErrDoUnimplemented = errors.New("DoCommand unimplemented")

// DependencyNotFoundError is used when a resource is not found in a dependencies.
func DependencyNotFoundError(name Name) error {
	return errors.Errorf("Resource missing from dependencies. Resource: %v", name)
}

// DependencyTypeError is used when a resource doesn't implement the expected interface.
func DependencyTypeError[T any](name Name, actual interface{}) error {
	expected := reflect.TypeOf((*T)(nil)).Elem().String()
	return errors.Errorf("dependency %q should be an implementation of %s but it was a %T", name, expected, actual)
}

// NewNotFoundError is used when a resource is not found.
func NewNotFoundError(name Name) error {
	return errors.Errorf("resource %q not found", name)
}

// MustRebuildError is returned by Reconfigure when a resource cannot be changed in place.
type MustRebuildError struct {
	Name Name
}

// NewMustRebuildError returns a new MustRebuildError for the given resource.
func NewMustRebuildError(name Name) error {
	return &MustRebuildError{Name: name}
}

func (e *MustRebuildError) Error() string {
	return fmt.Sprintf("cannot reconfigure %q; must rebuild", e.Name)
}

// IsMustRebuildError returns whether or not the given error is a MustRebuildError.
func IsMustRebuildError(err error) bool {
	var mErr *MustRebuildError
	return errors.As(err, &mErr)
}

// FieldRequiredError is returned when a config is missing a required field.
type FieldRequiredError struct {
	Path  string
	Field string
}

func (e *FieldRequiredError) Error() string {
	return fmt.Sprintf("%q is required", e.Field)
}

// NewConfigValidationError returns a config validation error
// occurring at a given path.
func NewConfigValidationError(path string, err error) error {
	return errors.Wrapf(err, "error validating %q", path)
}

// NewConfigValidationFieldRequiredError returns a config validation
// error for a field missing at a given path.
func NewConfigValidationFieldRequiredError(path, field string) error {
	return NewConfigValidationError(path, &FieldRequiredError{Path: path, Field: field})
}

// GetFieldFromFieldRequiredError returns the field that was missing, or the empty string when the
// error is not a FieldRequiredError.
func GetFieldFromFieldRequiredError(err error) string {
	var fErr *FieldRequiredError
	if errors.As(err, &fErr) {
		return fErr.Field
	}
	return ""
}
