// Package js the goja bindings of the cookie jar
package js

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"
)

// Throw js exception
func Throw(rt *goja.Runtime, err error) {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		panic(ex)
	}
	panic(rt.NewGoError(err))
}

// Unwrap the goja.Value to the raw value
func Unwrap(value goja.Value) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.Export().(type) {
	default:
		return v, nil
	case goja.ArrayBuffer:
		return v.Bytes(), nil
	case *goja.Promise:
		switch v.State() {
		case goja.PromiseStateRejected:
			return nil, errors.New(v.Result().String())
		case goja.PromiseStateFulfilled:
			return v.Result().Export(), nil
		default:
			return nil, fmt.Errorf("unexpected promise state: %v", v.State())
		}
	}
}

// isNullish reports whether the value is undefined or null.
func isNullish(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}

// stringArg returns the string argument i, throws if it is missing.
func stringArg(call goja.FunctionCall, rt *goja.Runtime, fn string, i int) string {
	v := call.Argument(i)
	if isNullish(v) {
		Throw(rt, fmt.Errorf("%s: argument %d must not be empty", fn, i))
	}
	return v.String()
}
