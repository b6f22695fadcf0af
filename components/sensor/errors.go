package sensor

import (
	"github.com/pkg/errors"
)

// ConfigError is returned when a sensor cannot be built from its config. Retrying with the same
// config fails the same way.
type ConfigError struct {
	Msg string
}

// NewConfigError returns a ConfigError with the given message.
func NewConfigError(msg string) error {
	return &ConfigError{Msg: msg}
}

func (e *ConfigError) Error() string {
	return e.Msg
}

// IsConfigError returns whether err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var cErr *ConfigError
	return errors.As(err, &cErr)
}

// GenericError is returned when a single request fails for a reason other than the underlying
// read, such as failing to take a shared lock.
type GenericError struct {
	Msg string
	Err error
}

// NewGenericError returns a GenericError with the given message and cause. cause may be nil.
func NewGenericError(msg string, cause error) error {
	return &GenericError{Msg: msg, Err: cause}
}

func (e *GenericError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *GenericError) Unwrap() error {
	return e.Err
}

// IsGenericError returns whether err is or wraps a GenericError.
func IsGenericError(err error) bool {
	var gErr *GenericError
	return errors.As(err, &gErr)
}
