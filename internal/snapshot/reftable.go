package snapshot

import (
	"github.com/starjs-engine/starjs/internal/heap"
	"github.com/starjs-engine/starjs/internal/interp"
	"github.com/starjs-engine/starjs/internal/jsrt"
	"github.com/starjs-engine/starjs/internal/object"
)

// refTable is the snapshot's reference map, split into the independent
// lookup structures each of its roles actually needs rather than one
// combined address array: cross-cell references (cellIndex) are a
// fundamentally different operation from
// recovering a non-serializable native closure (nativeRefs), which in
// turn is unrelated to addressing a weak slot (weakIndex). Keeping them
// separate avoids the awkwardness of a Go closure and a *object.JsObject
// sharing one index space for no operational reason.
type refTable struct {
	nativeRefs *jsrt.ReferenceTable

	cells     []heap.Cell
	cellIndex map[heap.Cell]int

	weaks     []*heap.WeakSlot
	weakIndex map[*heap.WeakSlot]int
}

// buildRefTable walks in's live heap in arena order exactly once,
// assigning every live cell and weak slot a stable sequential index for
// this serialize/deserialize round. nativeRefs is Bootstrap's own
// ReferenceTable, reused as-is for native-closure recovery.
func buildRefTable(in *interp.Interp, nativeRefs *jsrt.ReferenceTable) *refTable {
	rt := &refTable{
		nativeRefs: nativeRefs,
		cellIndex:  map[heap.Cell]int{},
		weakIndex:  map[*heap.WeakSlot]int{},
	}
	in.Heap().Walk(func(c heap.Cell) {
		rt.cellIndex[c] = len(rt.cells)
		rt.cells = append(rt.cells, c)
	})
	in.Heap().WalkWeakSlots(func(w *heap.WeakSlot) {
		rt.weakIndex[w] = len(rt.weaks)
		rt.weaks = append(rt.weaks, w)
	})
	return rt
}

// nilRef is the sentinel cell-reference value meaning "no cell", since
// index 0 is a valid cell-table slot.
const nilRef = ^uint32(0)

// cellRef returns c's index in the cell table, or nilRef if c is nil.
// c must be a pointer type actually present in the table (every
// heap.Cell this package's cell encoders ever hold a direct pointer to
// satisfies that by construction, since they all came from the same
// heap.Walk).
func (rt *refTable) cellRef(c heap.Cell) (uint32, error) {
	if c == nil {
		return nilRef, nil
	}
	i, ok := rt.cellIndex[c]
	if !ok {
		return 0, errNotFound("cell", c)
	}
	return uint32(i), nil
}

// resolveCell is the deserializer's counterpart: given a previously
// written index, return the relocated cell at that position, or nil for
// nilRef. Cells must already be pre-allocated (see deserialize.go).
func (rt *refTable) resolveCell(ref uint32) (heap.Cell, error) {
	if ref == nilRef {
		return nil, nil
	}
	if int(ref) >= len(rt.cells) {
		return nil, errOutOfRange("cell", ref, len(rt.cells))
	}
	return rt.cells[ref], nil
}

// structRef and objRef are cellRef wrappers for the two pointer types
// this package dereferences-to-nil most often (a root Structure's
// prototype, a transition chain's root). Passing a nil *Structure or
// *JsObject straight through cellRef would box a non-nil heap.Cell
// interface value around a nil pointer, defeating its own c == nil
// check, so the nil test has to happen on the concrete type first.
func (rt *refTable) structRef(s *object.Structure) (uint32, error) {
	if s == nil {
		return nilRef, nil
	}
	return rt.cellRef(s)
}

func (rt *refTable) objRef(o *object.JsObject) (uint32, error) {
	if o == nil {
		return nilRef, nil
	}
	return rt.cellRef(o)
}

func (rt *refTable) envRef(e *object.Environment) (uint32, error) {
	if e == nil {
		return nilRef, nil
	}
	return rt.cellRef(e)
}

func (rt *refTable) weakRef(w *heap.WeakSlot) (uint32, error) {
	if w == nil {
		return nilRef, nil
	}
	i, ok := rt.weakIndex[w]
	if !ok {
		return 0, errNotFound("weak slot", w)
	}
	return uint32(i), nil
}

func (rt *refTable) resolveWeak(ref uint32) (*heap.WeakSlot, error) {
	if ref == nilRef {
		return nil, nil
	}
	if int(ref) >= len(rt.weaks) {
		return nil, errOutOfRange("weak slot", ref, len(rt.weaks))
	}
	return rt.weaks[ref], nil
}

// nativeRefOf returns o's index in the Bootstrap-installed native
// reference table, used when o's tail is a native (Go-closure-backed)
// function: the closure itself can't be serialized, so the payload
// records this index instead, and deserialization recovers the closure
// by re-running Bootstrap and reading the same index back out.
func (rt *refTable) nativeRefOf(o *object.JsObject) (uint32, bool) {
	i, ok := rt.nativeRefs.IndexOf(o)
	return uint32(i), ok
}

func (rt *refTable) nativeAt(i uint32) *object.JsObject {
	return rt.nativeRefs.At(int(i))
}
