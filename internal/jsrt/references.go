package jsrt

import "github.com/starjs-engine/starjs/internal/object"

// ReferenceTable is the fixed, ordered list of native function objects
// Bootstrap installs. Since a Go closure cannot be serialized, internal/snapshot cannot write a
// native function's body to the snapshot the way it writes an ordinary
// heap cell's payload. Instead it writes the function's *index* into this
// table; deserialization re-runs Bootstrap against a fresh Interp (which
// reconstructs the identical table, since Bootstrap's install order is
// fixed) and resolves the index back to the matching *object.JsObject.
//
// Every native function and constructor Bootstrap creates is appended
// here in installation order via defineMethod/defineConstructor, after
// Function.prototype itself, which Bootstrap adds directly. Host natives
// registered through DefineNativeFunction/DefineNativeClass follow.
type ReferenceTable struct {
	refs  []*object.JsObject
	index map[*object.JsObject]int
}

func newReferenceTable() *ReferenceTable {
	return &ReferenceTable{index: map[*object.JsObject]int{}}
}

func (rt *ReferenceTable) add(o *object.JsObject) *object.JsObject {
	rt.index[o] = len(rt.refs)
	rt.refs = append(rt.refs, o)
	return o
}

// Len returns the number of entries in the table.
func (rt *ReferenceTable) Len() int { return len(rt.refs) }

// At returns the i'th entry, or nil if i is out of range.
func (rt *ReferenceTable) At(i int) *object.JsObject {
	if i < 0 || i >= len(rt.refs) {
		return nil
	}
	return rt.refs[i]
}

// IndexOf returns o's position in the table, or (-1, false) if o was not
// installed by Bootstrap (e.g. it is a user-defined function).
func (rt *ReferenceTable) IndexOf(o *object.JsObject) (int, bool) {
	i, ok := rt.index[o]
	return i, ok
}
