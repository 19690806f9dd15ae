package snapshot

import (
	"fmt"
	"sort"

	"github.com/starjs-engine/starjs/internal/interp"
	"github.com/starjs-engine/starjs/internal/jsrt"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/symbol"
	"github.com/starjs-engine/starjs/internal/value"
)

// encodeCell writes one cell record's payload (everything after the
// type_id and payload_len fields Serialize writes itself). codes is the CodeBlock dedup table used to
// cross-reference a JsObject's FunctionData.Code.
func encodeCell(w *writer, rt *refTable, id cellTypeID, c interface{}, codes *codeTable) error {
	switch id {
	case cellTypeStructure:
		return encodeStructure(w, rt, c.(*object.Structure))
	case cellTypeJsObject:
		return encodeJsObject(w, rt, c.(*object.JsObject), codes)
	case cellTypeEnvironment:
		return encodeEnvironment(w, rt, c.(*object.Environment))
	case cellTypeJsString:
		w.str(c.(*interp.JsString).String())
		return nil
	default:
		return fmt.Errorf("snapshot: cannot encode cell type %s", id)
	}
}

// decodeCellInto fills in a pre-allocated blank cell's payload in place,
// the counterpart to encodeCell in the deserializer's second pass.
func decodeCellInto(r *reader, rt *refTable, id cellTypeID, blank interface{}, codes *codeTableDecode) error {
	switch id {
	case cellTypeStructure:
		return decodeStructure(r, rt, blank.(*object.Structure))
	case cellTypeJsObject:
		return decodeJsObject(r, rt, blank.(*object.JsObject), codes)
	case cellTypeEnvironment:
		return decodeEnvironment(r, rt, blank.(*object.Environment))
	case cellTypeJsString:
		s, err := r.str()
		if err != nil {
			return err
		}
		blank.(*interp.JsString).RestoreContent(s)
		return nil
	default:
		return fmt.Errorf("snapshot: cannot decode cell type %s", id)
	}
}

func encodeStructure(w *writer, rt *refTable, s *object.Structure) error {
	protoRef, err := rt.objRef(s.Prototype())
	if err != nil {
		return err
	}
	w.u32(protoRef)
	prevRef, err := rt.structRef(s.Previous())
	if err != nil {
		return err
	}
	w.u32(prevRef)
	w.u32(s.Size())
	w.bool(s.IsIndexed())
	w.bool(s.IsUnique())

	deleted := s.DeletedOffsets()
	w.u32(uint32(len(deleted)))
	for _, off := range deleted {
		w.u32(off)
	}

	// Entries reports table rows in Go map order; sorting by slot offset
	// makes the byte stream deterministic for a given heap.
	entries := s.Entries()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Offset < entries[j].Offset })
	w.u32(uint32(len(entries)))
	for _, e := range entries {
		encodeSymbol(w, e.Sym)
		w.u32(e.Offset)
		w.u8(uint8(e.Attrs))
	}
	return nil
}

func decodeStructure(r *reader, rt *refTable, s *object.Structure) error {
	protoRef, err := r.u32()
	if err != nil {
		return err
	}
	protoCell, err := rt.resolveCell(protoRef)
	if err != nil {
		return err
	}
	prevRef, err := r.u32()
	if err != nil {
		return err
	}
	prevCell, err := rt.resolveCell(prevRef)
	if err != nil {
		return err
	}
	size, err := r.u32()
	if err != nil {
		return err
	}
	indexed, err := r.bool()
	if err != nil {
		return err
	}
	unique, err := r.bool()
	if err != nil {
		return err
	}

	deletedCount, err := r.u32()
	if err != nil {
		return err
	}
	deleted := make([]uint32, deletedCount)
	for i := range deleted {
		if deleted[i], err = r.u32(); err != nil {
			return err
		}
	}

	entryCount, err := r.u32()
	if err != nil {
		return err
	}
	entries := make([]object.StructureEntry, entryCount)
	for i := range entries {
		sym, err := decodeSymbol(r)
		if err != nil {
			return err
		}
		off, err := r.u32()
		if err != nil {
			return err
		}
		attrs, err := r.u8()
		if err != nil {
			return err
		}
		entries[i] = object.StructureEntry{Sym: sym, Offset: off, Attrs: object.Attributes(attrs)}
	}

	var proto *object.JsObject
	if protoCell != nil {
		proto = protoCell.(*object.JsObject)
	}
	var prev *object.Structure
	if prevCell != nil {
		prev = prevCell.(*object.Structure)
	}
	s.RestoreFields(proto, prev, entries, size, deleted, indexed, unique)
	return nil
}

func encodeSymbol(w *writer, sym symbol.Symbol) {
	if sym.IsIndex() {
		w.u8(1)
		w.u32(sym.Index())
		return
	}
	w.u8(0)
	w.u32(uint32(sym.ID()))
}

func decodeSymbol(r *reader) (symbol.Symbol, error) {
	kind, err := r.u8()
	if err != nil {
		return symbol.Symbol{}, err
	}
	v, err := r.u32()
	if err != nil {
		return symbol.Symbol{}, err
	}
	if kind == 1 {
		return symbol.Index(v), nil
	}
	return symbol.Key(symbol.ID(v)), nil
}

// Tail payload discriminators. An ordinary/array/global/arguments/
// string-object JsObject carries no tail at all; only TagFunction,
// TagError, and a WeakRef-tagged ordinary object (see
// internal/jsrt.WeakSlotOf) have one.
const (
	tailNone    = 0
	tailFunc    = 1
	tailError   = 2
	tailWeakRef = 3
)

const (
	funcUser   = 0
	funcNative = 1
	funcBound  = 2
)

func encodeJsObject(w *writer, rt *refTable, o *object.JsObject, codes *codeTable) error {
	w.str(o.Class().Name)
	structRef, err := rt.structRef(o.Structure())
	if err != nil {
		return err
	}
	w.u32(structRef)
	w.u8(uint8(o.Tag()))
	w.u8(uint8(o.RawFlags()))

	slots := o.Slots()
	w.u32(uint32(len(slots)))
	for _, v := range slots {
		if err := encodeValue(w, rt, v); err != nil {
			return err
		}
	}

	if err := encodeElements(w, rt, o.RawElements()); err != nil {
		return err
	}

	return encodeTail(w, rt, o, codes)
}

func encodeTail(w *writer, rt *refTable, o *object.JsObject, codes *codeTable) error {
	if slot, ok := jsrt.WeakSlotOf(o.Tail()); ok {
		w.u8(tailWeakRef)
		ref, err := rt.weakRef(slot)
		if err != nil {
			return err
		}
		w.u32(ref)
		return nil
	}
	switch td := o.Tail().(type) {
	case nil:
		w.u8(tailNone)
		return nil
	case *object.FunctionData:
		w.u8(tailFunc)
		return encodeFunctionData(w, rt, o, td, codes)
	case *object.ErrorData:
		w.u8(tailError)
		w.str(td.Kind)
		w.u32(uint32(len(td.Stack)))
		for _, f := range td.Stack {
			w.str(f.FunctionName)
			w.u32(uint32(int32(f.CodeOffset)))
		}
		return nil
	default:
		return fmt.Errorf("snapshot: unhandled tail payload type %T", o.Tail())
	}
}

func encodeFunctionData(w *writer, rt *refTable, o *object.JsObject, td *object.FunctionData, codes *codeTable) error {
	switch td.Kind {
	case object.FuncUser:
		w.u8(funcUser)
		idx := codes.intern(td.Code)
		w.u32(idx)
		envRef, err := rt.envRef(td.Env)
		if err != nil {
			return err
		}
		w.u32(envRef)
	case object.FuncNative:
		w.u8(funcNative)
		idx, ok := rt.nativeRefOf(o)
		if !ok {
			return fmt.Errorf("snapshot: native function %q not found in bootstrap reference table", td.Name)
		}
		w.u32(idx)
		w.str(td.Name)
		w.u32(uint32(td.Length))
	case object.FuncBound:
		w.u8(funcBound)
		targetRef, err := rt.objRef(td.Target)
		if err != nil {
			return err
		}
		w.u32(targetRef)
		if err := encodeValue(w, rt, td.BoundThis); err != nil {
			return err
		}
		w.u32(uint32(len(td.BoundArgs)))
		for _, a := range td.BoundArgs {
			if err := encodeValue(w, rt, a); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("snapshot: unknown function kind %d", td.Kind)
	}
	return nil
}

func decodeJsObject(r *reader, rt *refTable, o *object.JsObject, codes *codeTableDecode) error {
	className, err := r.str()
	if err != nil {
		return err
	}
	class, err := classByName(className)
	if err != nil {
		return err
	}
	structRef, err := r.u32()
	if err != nil {
		return err
	}
	structCell, err := rt.resolveCell(structRef)
	if err != nil {
		return err
	}
	tagByte, err := r.u8()
	if err != nil {
		return err
	}
	flagsByte, err := r.u8()
	if err != nil {
		return err
	}

	slotCount, err := r.u32()
	if err != nil {
		return err
	}
	slots := make([]value.Value, slotCount)
	for i := range slots {
		if slots[i], err = decodeValue(r, rt); err != nil {
			return err
		}
	}

	elements, err := decodeElements(r, rt)
	if err != nil {
		return err
	}

	tail, err := decodeTail(r, rt, codes)
	if err != nil {
		return err
	}

	o.RestoreFields(class, structCell.(*object.Structure), object.Tag(tagByte), slots, elements, object.Flags(flagsByte), tail)
	return nil
}

func decodeTail(r *reader, rt *refTable, codes *codeTableDecode) (interface{}, error) {
	kind, err := r.u8()
	if err != nil {
		return nil, err
	}
	switch kind {
	case tailNone:
		return nil, nil
	case tailWeakRef:
		ref, err := r.u32()
		if err != nil {
			return nil, err
		}
		slot, err := rt.resolveWeak(ref)
		if err != nil {
			return nil, err
		}
		return jsrt.NewWeakRefTail(slot), nil
	case tailFunc:
		return decodeFunctionData(r, rt, codes)
	case tailError:
		kindStr, err := r.str()
		if err != nil {
			return nil, err
		}
		count, err := r.u32()
		if err != nil {
			return nil, err
		}
		stack := make([]object.StackFrameInfo, count)
		for i := range stack {
			if stack[i].FunctionName, err = r.str(); err != nil {
				return nil, err
			}
			off, err := r.u32()
			if err != nil {
				return nil, err
			}
			stack[i].CodeOffset = int(int32(off))
		}
		return &object.ErrorData{Kind: kindStr, Stack: stack}, nil
	default:
		return nil, fmt.Errorf("snapshot: unknown tail payload kind %d", kind)
	}
}

func decodeFunctionData(r *reader, rt *refTable, codes *codeTableDecode) (*object.FunctionData, error) {
	kind, err := r.u8()
	if err != nil {
		return nil, err
	}
	switch kind {
	case funcUser:
		idx, err := r.u32()
		if err != nil {
			return nil, err
		}
		code, err := codes.at(idx)
		if err != nil {
			return nil, err
		}
		envRef, err := r.u32()
		if err != nil {
			return nil, err
		}
		envCell, err := rt.resolveCell(envRef)
		if err != nil {
			return nil, err
		}
		var env *object.Environment
		if envCell != nil {
			env = envCell.(*object.Environment)
		}
		return &object.FunctionData{Kind: object.FuncUser, Code: code, Env: env}, nil
	case funcNative:
		idx, err := r.u32()
		if err != nil {
			return nil, err
		}
		name, err := r.str()
		if err != nil {
			return nil, err
		}
		length, err := r.u32()
		if err != nil {
			return nil, err
		}
		native := rt.nativeAt(idx)
		if native == nil {
			return nil, fmt.Errorf("snapshot: native function index %d not found in bootstrap reference table", idx)
		}
		nd, ok := native.Tail().(*object.FunctionData)
		if !ok {
			return nil, fmt.Errorf("snapshot: bootstrap reference %d is not a native function", idx)
		}
		return &object.FunctionData{Kind: object.FuncNative, Native: nd.Native, Name: name, Length: int(length)}, nil
	case funcBound:
		targetRef, err := r.u32()
		if err != nil {
			return nil, err
		}
		targetCell, err := rt.resolveCell(targetRef)
		if err != nil {
			return nil, err
		}
		boundThis, err := decodeValue(r, rt)
		if err != nil {
			return nil, err
		}
		argCount, err := r.u32()
		if err != nil {
			return nil, err
		}
		args := make([]value.Value, argCount)
		for i := range args {
			if args[i], err = decodeValue(r, rt); err != nil {
				return nil, err
			}
		}
		var target *object.JsObject
		if targetCell != nil {
			target = targetCell.(*object.JsObject)
		}
		return &object.FunctionData{Kind: object.FuncBound, Target: target, BoundThis: boundThis, BoundArgs: args}, nil
	default:
		return nil, fmt.Errorf("snapshot: unknown function kind %d", kind)
	}
}

// encodeElements writes an object's indexed-element storage. Only the
// present (index, value, attrs) triples are written regardless of
// dense/sparse mode; the dense flag and tracked length are enough for the
// decoder to rebuild either representation via
// object.RestoreIndexedElements.
func encodeElements(w *writer, rt *refTable, e *object.IndexedElements) error {
	if e == nil {
		w.bool(false)
		return nil
	}
	w.bool(true)
	w.bool(e.IsDense())
	w.u32(e.Length())
	w.bool(e.LengthWritable())

	type entry struct {
		idx   uint32
		v     value.Value
		attrs object.Attributes
	}
	var entries []entry
	e.Each(func(i uint32, v value.Value, attrs object.Attributes) {
		entries = append(entries, entry{i, v, attrs})
	})
	// Each's sparse-mode iteration is Go map order; sort for determinism.
	sort.Slice(entries, func(a, b int) bool { return entries[a].idx < entries[b].idx })
	w.u32(uint32(len(entries)))
	for _, en := range entries {
		w.u32(en.idx)
		if err := encodeValue(w, rt, en.v); err != nil {
			return err
		}
		w.u8(uint8(en.attrs))
	}
	return nil
}

func decodeElements(r *reader, rt *refTable) (*object.IndexedElements, error) {
	present, err := r.bool()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	dense, err := r.bool()
	if err != nil {
		return nil, err
	}
	length, err := r.u32()
	if err != nil {
		return nil, err
	}
	lengthWritable, err := r.bool()
	if err != nil {
		return nil, err
	}
	count, err := r.u32()
	if err != nil {
		return nil, err
	}

	var denseVector []value.Value
	var sparse map[uint32]object.StoredSlot
	if dense {
		denseVector = make([]value.Value, length)
		for i := range denseVector {
			denseVector[i] = value.Empty
		}
	} else {
		sparse = make(map[uint32]object.StoredSlot, count)
	}
	for i := uint32(0); i < count; i++ {
		idx, err := r.u32()
		if err != nil {
			return nil, err
		}
		v, err := decodeValue(r, rt)
		if err != nil {
			return nil, err
		}
		attrs, err := r.u8()
		if err != nil {
			return nil, err
		}
		if dense {
			denseVector[idx] = v
		} else {
			sparse[idx] = object.StoredSlot{Value: v, Attrs: object.Attributes(attrs)}
		}
	}
	return object.RestoreIndexedElements(dense, length, lengthWritable, denseVector, sparse), nil
}

func encodeEnvironment(w *writer, rt *refTable, e *object.Environment) error {
	parentRef, err := rt.envRef(e.Parent())
	if err != nil {
		return err
	}
	w.u32(parentRef)
	w.u32(uint32(e.Size()))
	for i := 0; i < e.Size(); i++ {
		if err := encodeValue(w, rt, e.Get(i)); err != nil {
			return err
		}
		w.bool(e.IsMutable(i))
	}
	return nil
}

func decodeEnvironment(r *reader, rt *refTable, e *object.Environment) error {
	parentRef, err := r.u32()
	if err != nil {
		return err
	}
	parentCell, err := rt.resolveCell(parentRef)
	if err != nil {
		return err
	}
	if parentCell != nil {
		e.SetParent(parentCell.(*object.Environment))
	}
	size, err := r.u32()
	if err != nil {
		return err
	}
	e.ResizeBlank(int(size))
	for i := 0; i < int(size); i++ {
		v, err := decodeValue(r, rt)
		if err != nil {
			return err
		}
		mutable, err := r.bool()
		if err != nil {
			return err
		}
		e.RestoreCell(i, v, mutable)
	}
	return nil
}
