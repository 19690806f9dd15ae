package interp

import (
	"github.com/starjs-engine/starjs/internal/heap"
)

// JsString is the heap-allocated representation of a JS string value. It
// holds no outgoing references, so Trace is a no-op; it exists as a Cell
// (rather than a plain Go string boxed directly into value.Value) so that
// the snapshot serializer can walk it like any other heap entity and so
// that two reads of the same interned literal compare equal by identity
// where the compiler chooses to share one.
type JsString struct {
	header heap.Header
	s string
}

// NewString allocates a new JsString wrapping s.
func NewString(ctx Context, s string) *JsString {
	js := &JsString{s: s}
	ctx.Heap().Allocate(js)
	return js
}

func (s *JsString) Header() *heap.Header { return &s.header }
func (s *JsString) TypeName() string   { return "JsString" }
func (s *JsString) Trace(t heap.Tracer) {}
func (s *JsString) String() string     { return s.s }

// RestoreContent fills in a blank JsString's content during
// internal/snapshot's second deserialization pass; a blank JsString
// carries no outgoing references so it needs no separate blank/resize
// split the way Environment does.
func (s *JsString) RestoreContent(str string) { s.s = str }
