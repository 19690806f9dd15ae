package interp

import (
	"fmt"

	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/value"
)

// asThrowError unwraps an object.ThrowError, the shape the object package
// uses to carry a throwable value.Value through the Go error interface.
func asThrowError(err error) (value.Value, bool) {
	te, ok := err.(*object.ThrowError)
	if !ok {
		return value.Value{}, false
	}
	return te.Value, true
}

// Exception is a thrown JS value propagating up through the call-frame
// chain. It is distinct from an ordinary Go error: callers that need to
// inspect or rethrow the underlying value.Value (the root package's public
// API, or a native function catching a nested call's failure) type-assert
// for *Exception rather than parsing an error string.
//
// A non-nil Host marks a host-level failure (context cancellation) riding
// the same unwinding channel: it bypasses every JS try handler (see
// unwind) and is reported by the public API as a plain Go error, never as
// a catchable JS value.
type Exception struct {
	Value value.Value
	Host  error
}

func (e *Exception) Error() string {
	if e.Host != nil {
		return e.Host.Error()
	}
	return fmt.Sprintf("uncaught exception: %v", e.Value.TypeOf())
}

// throwErr wraps a Go-level error into an *Exception, translating an
// object.ThrowError (raised deep inside the object model's property
// protocol) into the same shape every other throw site produces. A plain
// Go error that isn't an object.ThrowError is a host/internal fault, not a
// JS-catchable exception; it is reported as a generic Error value so it
// still unwinds cleanly instead of leaking a bare Go error across the
// bytecode boundary.
func (in *Interp) throwErr(err error) *Exception {
	if err == nil {
		return nil
	}
	if exc, ok := err.(*Exception); ok {
		return exc
	}
	if te, ok := asThrowError(err); ok {
		return &Exception{Value: te}
	}
	return &Exception{Value: in.NewError("Error", "%s", err.Error())}
}
