package object

import (
	"fmt"

	"github.com/starjs-engine/starjs/internal/value"
)

// ThrowError adapts a JS-level exception value (built via Context.NewError)
// to the Go error interface, so the object protocol methods can return
// ordinary Go errors while still carrying the throwable value.Value the
// interpreter will actually propagate as a JS exception.
type ThrowError struct {
	Value value.Value
}

func (e *ThrowError) Error() string {
	return fmt.Sprintf("%v", e.Value)
}

// newTypeErrorErr builds a TypeError via ctx.NewError and wraps it as a Go
// error, the shape every PutNonIndexed/DefineOwnNonIndexed/Delete rejection
// in this package needs when throw is requested.
func newTypeErrorErr(ctx Context, format string, args ...interface{}) error {
	return &ThrowError{Value: ctx.NewError("TypeError", format, args...)}
}
