package object

import "github.com/starjs-engine/starjs/internal/value"

// DefaultMaxVectorSize is the dense-to-sparse promotion threshold used
// when a Context does not override it via MaxVectorSize(): large enough
// that ordinary push-loop workloads stay dense, small enough that a
// write to a huge index cannot force a huge allocation.
const DefaultMaxVectorSize = 8192

// StoredSlot is a sparse-mode indexed property: a value plus its
// attributes, used once an index has been promoted out of the dense
// vector.
type StoredSlot struct {
	Value value.Value
	Attrs Attributes
}

// IndexedElements holds an object's integer-keyed properties, starting
// dense and promoting to a sparse map on demand.
type IndexedElements struct {
	vector []value.Value // dense; value.Empty marks a hole
	sparse map[uint32]StoredSlot
	length uint32
	lengthWritable bool
	dense  bool
}

// NewIndexedElements returns an empty, dense IndexedElements with a
// writable length, the state every new Array/Arguments object starts in.
func NewIndexedElements() *IndexedElements {
	return &IndexedElements{dense: true, lengthWritable: true}
}

// RestoreIndexedElements rebuilds an IndexedElements from its serialized
// form: internal/snapshot always writes present entries as (index, value,
// attrs) tuples regardless of dense/sparse mode (IndexedElements.Each's
// own shape), so the deserializer hands back whichever of denseVector or
// sparseEntries applies to dense.
func RestoreIndexedElements(dense bool, length uint32, lengthWritable bool, denseVector []value.Value, sparseEntries map[uint32]StoredSlot) *IndexedElements {
	return &IndexedElements{
		dense:          dense,
		length:         length,
		lengthWritable: lengthWritable,
		vector:         denseVector,
		sparse:         sparseEntries,
	}
}

// Length returns the tracked length, independent of vector capacity.
func (e *IndexedElements) Length() uint32 { return e.length }

// LengthWritable reports whether the `length` property itself may be
// reassigned.
func (e *IndexedElements) LengthWritable() bool { return e.lengthWritable }

// SetLengthWritable updates the writability of the `length` property.
func (e *IndexedElements) SetLengthWritable(w bool) { e.lengthWritable = w }

// IsDense reports whether elements are still stored in the fast vector
// form.
func (e *IndexedElements) IsDense() bool { return e.dense }

// Get returns the value at index i and whether it is present (a hole or
// an out-of-range index both report !ok).
func (e *IndexedElements) Get(i uint32) (value.Value, bool) {
	if e.dense {
		if i >= uint32(len(e.vector)) {
			return value.Value{}, false
		}
		v := e.vector[i]
		if v.IsEmpty() {
			return value.Value{}, false
		}
		return v, true
	}
	s, ok := e.sparse[i]
	if !ok {
		return value.Value{}, false
	}
	return s.Value, true
}

// Has reports whether index i is a present own property.
func (e *IndexedElements) Has(i uint32) bool {
	_, ok := e.Get(i)
	return ok
}

// GetAttributes returns the attributes index i was stored with. Dense
// entries always report AttrDefault.
func (e *IndexedElements) GetAttributes(i uint32) Attributes {
	if e.dense {
		return AttrDefault
	}
	if s, ok := e.sparse[i]; ok {
		return s.Attrs
	}
	return AttrDefault
}

// shouldPromote decides whether writing index i with attrs requires
// leaving dense-vector mode: an out-of-threshold index, non-default
// attributes, or a hole large enough to waste significant memory.
func shouldPromote(i uint32, attrs Attributes, maxVectorSize uint32, currentLen int) bool {
	if attrs != AttrDefault {
		return true
	}
	if i >= maxVectorSize {
		return true
	}
	// A write more than 4x past the current dense length would create a
	// mostly-hole vector; sparse storage is a better fit for that shape.
	if currentLen > 0 && i > uint32(currentLen)*4+16 {
		return true
	}
	return false
}

func (e *IndexedElements) promoteToSparse() {
	if !e.dense {
		return
	}
	e.sparse = make(map[uint32]StoredSlot, len(e.vector))
	for i, v := range e.vector {
		if !v.IsEmpty() {
			e.sparse[uint32(i)] = StoredSlot{Value: v, Attrs: AttrDefault}
		}
	}
	e.vector = nil
	e.dense = false
}

// Set writes index i with the default attributes, promoting to sparse
// storage per shouldPromote's policy.
func (e *IndexedElements) Set(i uint32, v value.Value, maxVectorSize uint32) {
	e.SetWithAttrs(i, v, AttrDefault, maxVectorSize)
}

// SetWithAttrs writes index i with explicit attributes, the path
// Object.defineProperty and non-default array element definitions use.
func (e *IndexedElements) SetWithAttrs(i uint32, v value.Value, attrs Attributes, maxVectorSize uint32) {
	if e.dense && shouldPromote(i, attrs, maxVectorSize, len(e.vector)) {
		e.promoteToSparse()
	}
	if e.dense {
		for uint32(len(e.vector)) <= i {
			e.vector = append(e.vector, value.Empty)
		}
		e.vector[i] = v
	} else {
		e.sparse[i] = StoredSlot{Value: v, Attrs: attrs}
	}
	if i >= e.length {
		e.length = i + 1
	}
}

// Delete removes index i. Returns false if the index was non-configurable
// (dense entries are always configurable; only explicitly-attributed
// sparse entries can refuse deletion).
func (e *IndexedElements) Delete(i uint32) bool {
	if e.dense {
		if i < uint32(len(e.vector)) {
			e.vector[i] = value.Empty
		}
		return true
	}
	s, ok := e.sparse[i]
	if !ok {
		return true
	}
	if s.Attrs&AttrConfigurable == 0 {
		return false
	}
	delete(e.sparse, i)
	return true
}

// SetLength implements array length truncation: indices at or above
// newLength are dropped, stopping early (and reporting the failure) on
// the first non-configurable entry encountered in strict mode.
func (e *IndexedElements) SetLength(newLength uint32, strict bool) bool {
	if newLength >= e.length {
		e.length = newLength
		return true
	}
	if e.dense {
		if newLength < uint32(len(e.vector)) {
			e.vector = e.vector[:newLength]
		}
		e.length = newLength
		return true
	}
	for idx := range e.sparse {
		if idx >= newLength {
			if e.sparse[idx].Attrs&AttrConfigurable == 0 {
				if strict {
					return false
				}
				continue
			}
			delete(e.sparse, idx)
		}
	}
	e.length = newLength
	return true
}

// Each iterates present indices, in ascending order in dense mode and in
// Go map order (unspecified) in sparse mode; used for for-in enumeration
// and Array.prototype iteration helpers.
func (e *IndexedElements) Each(f func(i uint32, v value.Value, attrs Attributes)) {
	if e.dense {
		for i, v := range e.vector {
			if !v.IsEmpty() {
				f(uint32(i), v, AttrDefault)
			}
		}
		return
	}
	for i, s := range e.sparse {
		f(i, s.Value, s.Attrs)
	}
}
