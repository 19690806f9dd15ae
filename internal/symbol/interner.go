// Package symbol implements the engine's property-key representation:
// interned string keys and integer index keys, sharing a single Symbol
// type so that the object model's Structure tables can use Symbol as a
// map key without caring which kind it is.
package symbol

import "sync"

// Kind discriminates a Symbol's payload.
type Kind uint8

const (
	// KindIndex identifies an array-index key (an already-parsed uint32).
	KindIndex Kind = iota
	// KindKey identifies an interned string key.
	KindKey
)

// ID is the interner-assigned identifier for a string key.
type ID uint32

// PublicStart is the first ID available for strings interned at runtime.
// IDs below this are well-known symbols assigned once during bootstrap
// (see WellKnown below), so that a snapshot never needs to rewrite them.
const PublicStart ID = 512

// Symbol is a property key: either an array index or an interned string id.
type Symbol struct {
	kind  Kind
	index uint32
	id    ID
}

// Index constructs an array-index Symbol.
func Index(i uint32) Symbol { return Symbol{kind: KindIndex, index: i} }

// Key constructs a string-key Symbol from an already-interned ID.
func Key(id ID) Symbol { return Symbol{kind: KindKey, id: id} }

func (s Symbol) Kind() Kind   { return s.kind }
func (s Symbol) Index() uint32 { return s.index }
func (s Symbol) ID() ID        { return s.id }
func (s Symbol) IsIndex() bool { return s.kind == KindIndex }

// Well-known symbol names assigned fixed IDs below PublicStart during
// Table initialization. Order matters: it is part of the fixed
// reference ordering the snapshot format depends on (see
// internal/snapshot).
var wellKnownNames = []string{
	"",
	"length", "prototype", "constructor", "__proto__", "name", "message",
	"value", "valueOf", "toString", "arguments", "caller", "call", "apply",
	"bind", "Symbol.iterator",
}

// Table is an interner mapping strings to Symbol ids. Updates are
// serialized by a lock; readers observe a snapshot consistent with their
// last write. Each Interp builds its own Table with NewTable, so tables
// are not shared across Runtimes.
type Table struct {
	mu      sync.RWMutex
	strings []string
	ids     map[string]ID
}

// NewTable builds an interner preloaded with the well-known symbol
// partition at IDs 0..len(wellKnownNames)-1, all below PublicStart.
func NewTable() *Table {
	t := &Table{
		strings: make([]string, len(wellKnownNames), 256),
		ids:     make(map[string]ID, 256),
	}
	for i, s := range wellKnownNames {
		t.strings[i] = s
		t.ids[s] = ID(i)
	}
	return t
}

// Intern returns the Symbol for s, assigning a fresh public ID on first
// use. Concurrent callers are serialized by an internal RWMutex.
func (t *Table) Intern(s string) Symbol {
	t.mu.RLock()
	if id, ok := t.ids[s]; ok {
		t.mu.RUnlock()
		return Key(id)
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.ids[s]; ok {
		return Key(id)
	}
	id := ID(len(t.strings)-len(wellKnownNames)) + PublicStart
	t.strings = append(t.strings, s)
	t.ids[s] = id
	return Key(id)
}

// String resolves an already-interned ID back to its text. It panics if id
// was never interned through this table, which would indicate a snapshot
// relocation bug rather than a recoverable user error.
func (t *Table) String(id ID) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx := int(id)
	if id >= PublicStart {
		idx = int(id) - int(PublicStart) + len(wellKnownNames)
	}
	if idx < 0 || idx >= len(t.strings) {
		panic("symbol: unresolved id")
	}
	return t.strings[idx]
}

// IsWellKnown reports whether id falls below the public partition and is
// therefore implicit in snapshots rather than serialized by value.
func IsWellKnown(id ID) bool { return id < PublicStart }

// EachPublic visits every string interned at runtime (i.e. every entry
// outside the well-known partition) in ascending ID order, the order
// internal/snapshot's serializer relies on to write a deterministic
// symbol table section.
func (t *Table) EachPublic(f func(id ID, s string)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for idx := len(wellKnownNames); idx < len(t.strings); idx++ {
		id := ID(idx-len(wellKnownNames)) + PublicStart
		f(id, t.strings[idx])
	}
}

// Rebind is used by the snapshot deserializer to reconstruct a Table whose
// public-partition strings were written explicitly; well-known ids are
// identity-mapped and never touched.
func (t *Table) Rebind(id ID, s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < PublicStart {
		return
	}
	for ID(len(t.strings)) <= id-PublicStart+ID(len(wellKnownNames)) {
		t.strings = append(t.strings, "")
	}
	idx := int(id) - int(PublicStart) + len(wellKnownNames)
	t.strings[idx] = s
	t.ids[s] = id
}
