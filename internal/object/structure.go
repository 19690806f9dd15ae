package object

import (
	"github.com/starjs-engine/starjs/internal/heap"
	"github.com/starjs-engine/starjs/internal/symbol"
)

// Attributes is the per-property attribute bitset.
type Attributes uint8

const (
	AttrWritable Attributes = 1 << iota
	AttrEnumerable
	AttrConfigurable
	AttrAccessor // set: slot holds an Accessor rather than a data value
)

// AttrDefault is the attribute set ordinary object-literal and assignment
// property creation uses.
const AttrDefault = AttrWritable | AttrEnumerable | AttrConfigurable

// tableEntry is a Structure's resolved view of one property: where its
// value lives in JsObject.slots and what attributes it carries.
type tableEntry struct {
	offset uint32
	attrs  Attributes
}

// transitionKey identifies an edge out of a Structure in either the
// add-property or change-attributes transition tables. The two tables
// are kept disjoint so that adding a new property and changing an
// existing one's attributes never contend for the same cached edge.
type transitionKey struct {
	sym   symbol.Symbol
	attrs Attributes
}

// Structure is the engine's hidden class: a shape descriptor shared by
// every JsObject with identical property layout, so that a cached slot
// offset from one object's read remains valid for another object of the
// same Structure.
type Structure struct {
	header heap.Header

	table map[symbol.Symbol]tableEntry

	addTransitions  map[transitionKey]*Structure
	attrTransitions map[transitionKey]*Structure
	indexedTransition *Structure

	deleted []uint32 // free-list of offsets reclaimed by a delete-transition

	prototype *JsObject
	previous  *Structure

	calculatedSize uint32
	indexed        bool
	unique         bool
}

// Header satisfies heap.Cell.
func (s *Structure) Header() *heap.Header { return &s.header }

// TypeName satisfies heap.Cell.
func (s *Structure) TypeName() string { return "Structure" }

// Trace visits the Structure's outgoing strong edges: its prototype, its
// previous-shape back-pointer, and every cached transition target. Caches
// are held strongly here (unlike the interpreter's inline caches, which
// hold Structures weakly) because the transition DAG itself is load-bearing
// structural state, not speculative feedback.
func (s *Structure) Trace(t heap.Tracer) {
	if s.prototype != nil {
		t.Visit(s.prototype)
	}
	if s.previous != nil {
		t.Visit(s.previous)
	}
	for _, child := range s.addTransitions {
		t.Visit(child)
	}
	for _, child := range s.attrTransitions {
		t.Visit(child)
	}
	if s.indexedTransition != nil {
		t.Visit(s.indexedTransition)
	}
}

// StructureEntry is one row of a Structure's resolved property table,
// exported so internal/snapshot can walk and rebuild it without reaching
// into the unexported tableEntry type.
type StructureEntry struct {
	Sym    symbol.Symbol
	Offset uint32
	Attrs  Attributes
}

// Entries returns every property this Structure's table holds, in no
// particular order; internal/snapshot sorts or not as it sees fit.
func (s *Structure) Entries() []StructureEntry {
	out := make([]StructureEntry, 0, len(s.table))
	for sym, e := range s.table {
		out = append(out, StructureEntry{Sym: sym, Offset: e.offset, Attrs: e.attrs})
	}
	return out
}

// Previous returns the Structure this one transitioned from, or nil at a
// transition chain's root.
func (s *Structure) Previous() *Structure { return s.previous }

// IsIndexed reports whether this Structure has taken the
// ChangeIndexedTransition fork.
func (s *Structure) IsIndexed() bool { return s.indexed }

// DeletedOffsets returns a copy of the free-list of slot offsets reclaimed
// by a delete-transition.
func (s *Structure) DeletedOffsets() []uint32 {
	return append([]uint32(nil), s.deleted...)
}

// NewBlankStructure allocates a Structure with none of its fields set,
// for internal/snapshot's deserializer to populate in a second pass via
// RestoreFields once every cell has an address and the relocation map is
// complete.
func NewBlankStructure(ctx Context) *Structure {
	s := &Structure{table: map[symbol.Symbol]tableEntry{}}
	ctx.Heap().Allocate(s)
	return s
}

// RestoreFields installs a deserialized Structure's complete state.
// Transition caches (addTransitions/attrTransitions/indexedTransition)
// are left empty: they are pure optimization state, and the first
// transition attempt after deserialization repopulates them exactly as a
// cache miss would during ordinary execution.
func (s *Structure) RestoreFields(prototype *JsObject, previous *Structure, entries []StructureEntry, calculatedSize uint32, deleted []uint32, indexed, unique bool) {
	s.prototype = prototype
	s.previous = previous
	s.calculatedSize = calculatedSize
	s.deleted = deleted
	s.indexed = indexed
	s.unique = unique
	s.table = make(map[symbol.Symbol]tableEntry, len(entries))
	for _, e := range entries {
		s.table[e.Sym] = tableEntry{offset: e.Offset, attrs: e.Attrs}
	}
}

// NewEmptyStructure allocates the root Structure of a transition chain: no
// properties, the given prototype, and the default (non-unique,
// non-indexed) flags.
func NewEmptyStructure(ctx Context, prototype *JsObject) *Structure {
	s := &Structure{
		table:     map[symbol.Symbol]tableEntry{},
		prototype: prototype,
	}
	ctx.Heap().Allocate(s)
	return s
}

// Prototype returns the structure's prototype object, or nil for the root
// shape of the prototype-free object.
func (s *Structure) Prototype() *JsObject { return s.prototype }

// Size returns the number of slots an object with this Structure must
// allocate.
func (s *Structure) Size() uint32 { return s.calculatedSize }

// IsUnique reports whether this Structure was forked for a single object
// and must never be shared via the transition cache.
func (s *Structure) IsUnique() bool { return s.unique }

// Get performs the O(1) property-table lookup.
func (s *Structure) Get(sym symbol.Symbol) (offset uint32, attrs Attributes, ok bool) {
	e, ok := s.table[sym]
	if !ok {
		return 0, 0, false
	}
	return e.offset, e.attrs, true
}

func (s *Structure) cloneTable() map[symbol.Symbol]tableEntry {
	n := make(map[symbol.Symbol]tableEntry, len(s.table)+1)
	for k, v := range s.table {
		n[k] = v
	}
	return n
}

func (s *Structure) nextOffset() (uint32, []uint32) {
	if len(s.deleted) > 0 {
		off := s.deleted[len(s.deleted)-1]
		return off, s.deleted[:len(s.deleted)-1]
	}
	return s.calculatedSize, s.deleted
}

// AddPropertyTransition returns the shape reached by adding (sym, attrs):
// if a transition for that pair already exists on s, it is returned
// unchanged (idempotent), otherwise a child Structure is allocated with
// one more property at the next free offset.
func (s *Structure) AddPropertyTransition(ctx Context, sym symbol.Symbol, attrs Attributes) (*Structure, uint32) {
	key := transitionKey{sym: sym, attrs: attrs}
	if existing, ok := s.addTransitions[key]; ok {
		off, _, _ := existing.Get(sym)
		return existing, off
	}

	offset, remainingDeleted := s.nextOffset()
	newTable := s.cloneTable()
	newTable[sym] = tableEntry{offset: offset, attrs: attrs}

	size := s.calculatedSize
	if offset+1 > size {
		size = offset + 1
	}

	child := &Structure{
		table:          newTable,
		previous:       s,
		prototype:      s.prototype,
		calculatedSize: size,
		deleted:        remainingDeleted,
		indexed:        s.indexed,
	}
	ctx.Heap().Allocate(child)

	if s.addTransitions == nil {
		s.addTransitions = map[transitionKey]*Structure{}
	}
	s.addTransitions[key] = child
	if len(s.addTransitions) == 64 {
		ctx.Logger().TransitionTableGrowth(len(s.addTransitions))
	}
	return child, offset
}

// DeletePropertyTransition implements delete_property_transition: the
// resulting Structure is marked unique (never shared) because deletions
// diverge shapes unpredictably, and the freed offset is recorded so a
// later add can reclaim it.
func (s *Structure) DeletePropertyTransition(ctx Context, sym symbol.Symbol) *Structure {
	entry, ok := s.table[sym]
	if !ok {
		return s
	}
	newTable := s.cloneTable()
	delete(newTable, sym)

	child := &Structure{
		table:          newTable,
		previous:       s,
		prototype:      s.prototype,
		calculatedSize: s.calculatedSize,
		deleted:        append(append([]uint32{}, s.deleted...), entry.offset),
		indexed:        s.indexed,
		unique:         true,
	}
	ctx.Heap().Allocate(child)
	return child
}

// ChangeAttributesTransition implements change_attributes_transition: a
// sibling shape differing only in sym's attributes. Cached in a table
// disjoint from add-transitions (transitionKey reused only as a
// convenient composite key, not as a shared cache).
func (s *Structure) ChangeAttributesTransition(ctx Context, sym symbol.Symbol, attrs Attributes) *Structure {
	entry, ok := s.table[sym]
	if !ok {
		return s
	}
	key := transitionKey{sym: sym, attrs: attrs}
	if existing, ok := s.attrTransitions[key]; ok {
		return existing
	}
	newTable := s.cloneTable()
	newTable[sym] = tableEntry{offset: entry.offset, attrs: attrs}

	child := &Structure{
		table:          newTable,
		previous:       s,
		prototype:      s.prototype,
		calculatedSize: s.calculatedSize,
		deleted:        s.deleted,
		indexed:        s.indexed,
	}
	ctx.Heap().Allocate(child)
	if s.attrTransitions == nil {
		s.attrTransitions = map[transitionKey]*Structure{}
	}
	s.attrTransitions[key] = child
	return child
}

// ChangePrototypeTransition forks on prototype change. This is rare
// (constructor bootstrap, Object.setPrototypeOf) so, unlike
// add/attribute transitions, the result is not cached: each call
// allocates a fresh unique Structure.
func (s *Structure) ChangePrototypeTransition(ctx Context, proto *JsObject) *Structure {
	child := &Structure{
		table:          s.cloneTable(),
		previous:       s,
		prototype:      proto,
		calculatedSize: s.calculatedSize,
		deleted:        s.deleted,
		indexed:        s.indexed,
		unique:         true,
	}
	ctx.Heap().Allocate(child)
	return child
}

// ChangeIndexedTransition sets the indexed flag, cached since it is a
// simple boolean flip with exactly one possible target.
func (s *Structure) ChangeIndexedTransition(ctx Context) *Structure {
	if s.indexed {
		return s
	}
	if s.indexedTransition != nil {
		return s.indexedTransition
	}
	child := &Structure{
		table:          s.cloneTable(),
		previous:       s,
		prototype:      s.prototype,
		calculatedSize: s.calculatedSize,
		deleted:        s.deleted,
		indexed:        true,
	}
	ctx.Heap().Allocate(child)
	s.indexedTransition = child
	return child
}

// PrototypeChain materializes the prototype chain starting at base's own
// Structure, used by the put-by-id cache to validate that a cached chain
// of shapes is still in effect link-for-link.
func PrototypeChain(base *Structure) []*Structure {
	var chain []*Structure
	s := base
	for s != nil {
		proto := s.prototype
		if proto == nil {
			break
		}
		protoStruct := proto.structure
		chain = append(chain, protoStruct)
		s = protoStruct
	}
	return chain
}
