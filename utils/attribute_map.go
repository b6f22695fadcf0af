package utils

import (
	"math"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// AttributeMap is a convenience wrapper for pulling out
// typed information from a map.
type AttributeMap map[string]interface{}

// Has returns whether or not the given attribute is in the map and not null.
func (am AttributeMap) Has(name string) bool {
	v, ok := am[name]
	return ok && v != nil
}

// StringE returns the attribute as a string. Numbers and booleans are formatted.
func (am AttributeMap) StringE(name string) (string, error) {
	if !am.Has(name) {
		return "", errors.Errorf("attribute %q not set", name)
	}
	return cast.ToStringE(am[name])
}

// String returns the attribute as a string, or the empty string if it is missing or not
// convertible.
func (am AttributeMap) String(name string) string {
	s, err := am.StringE(name)
	if err != nil {
		return ""
	}
	return s
}

// Int32E returns the attribute as an int32. JSON numbers and numeric strings are accepted. A
// number outside the int32 range is an error rather than being truncated.
func (am AttributeMap) Int32E(name string) (int32, error) {
	if !am.Has(name) {
		return 0, errors.Errorf("attribute %q not set", name)
	}
	if f, err := cast.ToFloat64E(am[name]); err == nil && (f < math.MinInt32 || f > math.MaxInt32) {
		return 0, errors.Errorf("attribute %q is out of range for int32: %v", name, am[name])
	}
	v, err := cast.ToInt64E(am[name])
	if err != nil {
		return 0, errors.Wrapf(err, "attribute %q", name)
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, errors.Errorf("attribute %q is out of range for int32: %d", name, v)
	}
	return int32(v), nil
}
