package utils

import (
	"testing"

	"go.viam.com/test"
)

type (
	someStruct struct{}
	someIfc    interface{}
)

func TestNewUnexpectedTypeError(t *testing.T) {
	for _, tc := range []struct {
		name     string
		expected interface{}
		actual   interface{}
		errStr   string
	}{
		{"one", "exp1", "actual1", `expected string but got string`},
		{"two", 1, "actual2", `expected int but got string`},
		{"three", nil, "actual3", `expected <unknown (nil interface)> but got string`},

		// the WRONG way to use this
		{"four", (someIfc)(nil), 4, `expected <unknown (nil interface)> but got int`},

		// the right way to use this
		{"five", (*someIfc)(nil), 5, `expected utils.someIfc but got int`},

		{"six", (*someStruct)(nil), 6, `expected *utils.someStruct but got int`},
		{"seven", someStruct{}, 7, `expected utils.someStruct but got int`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := NewUnexpectedTypeError(tc.expected, tc.actual)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.errStr)
		})
	}
}

func TestNewUnimplementedInterfaceError(t *testing.T) {
	err := NewUnimplementedInterfaceError(someStruct{}, "x")
	test.That(t, err.Error(), test.ShouldEqual, `expected implementation of utils.someStruct but got string`)
}

func TestAssertType(t *testing.T) {
	v, err := AssertType[int](3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, 3)

	_, err = AssertType[*someStruct]("nope")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldEqual, `expected *utils.someStruct but got string`)

	_, err = AssertType[someIfc](nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldEqual, `expected utils.someIfc but got <nil>`)
}
