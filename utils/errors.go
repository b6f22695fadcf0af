package utils

import (
	"reflect"

	"github.com/pkg/errors"
)

// NewUnexpectedTypeError is used when there is a type mismatch.
func NewUnexpectedTypeError(expected, actual interface{}) error {
	return errors.Errorf("expected %s but got %T", TypeStr(expected), actual)
}

// NewUnimplementedInterfaceError is used when there is a failed interface check.
func NewUnimplementedInterfaceError(expected, actual interface{}) error {
	return errors.Errorf("expected implementation of %s but got %T", TypeStr(expected), actual)
}

// TypeStr returns a readable type name for v. A pointer to an interface is reported as the
// interface itself so callers can pass (*SomeInterface)(nil).
func TypeStr(v interface{}) string {
	if v == nil {
		return "<unknown (nil interface)>"
	}
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Interface {
		return t.Elem().String()
	}
	return t.String()
}
