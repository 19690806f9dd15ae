package snapshot

import (
	"fmt"

	"github.com/starjs-engine/starjs/internal/bytecode"
	"github.com/starjs-engine/starjs/internal/heap"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/value"
)

// Value tag bytes. 0-4 are the self-contained primitives; 5 and 6 carry a
// fixed-size payload; 7 is an object reference, further discriminated by
// a subkind byte since "object" covers three unrelated representations
// (a heap cell, an inline literal-pool placeholder, and an inline
// getter/setter pair) that Go's type system keeps distinct but the wire
// format must still flatten into one case.
const (
	vtUndefined = 0
	vtNull      = 1
	vtEmpty     = 2
	vtFalse     = 3
	vtTrue      = 4
	vtInt32     = 5
	vtNumber    = 6
	vtObject    = 7
)

const (
	subkindCellRef    = 0
	subkindStringLit  = 1
	subkindAccessor   = 2
)

// encodeValue writes v as a one-byte kind tag plus payload. rt resolves any
// heap-cell reference v carries to its table index.
func encodeValue(w *writer, rt *refTable, v value.Value) error {
	switch v.Kind() {
	case value.KindUndefined:
		w.u8(vtUndefined)
	case value.KindNull:
		w.u8(vtNull)
	case value.KindEmpty:
		w.u8(vtEmpty)
	case value.KindBool:
		if v.AsBool() {
			w.u8(vtTrue)
		} else {
			w.u8(vtFalse)
		}
	case value.KindInt32:
		w.u8(vtInt32)
		w.u32(uint32(v.AsInt32()))
	case value.KindNumber:
		w.u8(vtNumber)
		w.u64(doubleBits(v.AsFloat64()))
	case value.KindObject:
		w.u8(vtObject)
		return encodeObjectRef(w, rt, v.AsRef())
	default:
		return fmt.Errorf("snapshot: unhandled value kind %d", v.Kind())
	}
	return nil
}

func encodeObjectRef(w *writer, rt *refTable, ref value.Ref) error {
	switch r := ref.(type) {
	case heap.Cell:
		w.u8(subkindCellRef)
		idx, err := rt.cellRef(r)
		if err != nil {
			return err
		}
		w.u32(idx)
		return nil
	case bytecode.StringConstant:
		w.u8(subkindStringLit)
		w.str(string(r))
		return nil
	case *object.Accessor:
		w.u8(subkindAccessor)
		if err := encodeValue(w, rt, r.Getter); err != nil {
			return err
		}
		return encodeValue(w, rt, r.Setter)
	default:
		return fmt.Errorf("snapshot: unhandled object reference type %T", ref)
	}
}

func decodeValue(r *reader, rt *refTable) (value.Value, error) {
	tag, err := r.u8()
	if err != nil {
		return value.Value{}, err
	}
	switch tag {
	case vtUndefined:
		return value.Undefined, nil
	case vtNull:
		return value.Null, nil
	case vtEmpty:
		return value.Empty, nil
	case vtFalse:
		return value.False, nil
	case vtTrue:
		return value.True, nil
	case vtInt32:
		bits, err := r.u32()
		if err != nil {
			return value.Value{}, err
		}
		return value.Int32(int32(bits)), nil
	case vtNumber:
		bits, err := r.u64()
		if err != nil {
			return value.Value{}, err
		}
		return value.Number(floatFromBits(bits)), nil
	case vtObject:
		return decodeObjectRef(r, rt)
	default:
		return value.Value{}, fmt.Errorf("snapshot: unknown value tag %d", tag)
	}
}

func decodeObjectRef(r *reader, rt *refTable) (value.Value, error) {
	subkind, err := r.u8()
	if err != nil {
		return value.Value{}, err
	}
	switch subkind {
	case subkindCellRef:
		idx, err := r.u32()
		if err != nil {
			return value.Value{}, err
		}
		c, err := rt.resolveCell(idx)
		if err != nil {
			return value.Value{}, err
		}
		ref, ok := c.(value.Ref)
		if !ok {
			return value.Value{}, fmt.Errorf("snapshot: cell %T is not a valid value reference", c)
		}
		return value.FromObject(ref), nil
	case subkindStringLit:
		s, err := r.str()
		if err != nil {
			return value.Value{}, err
		}
		return value.FromObject(bytecode.StringConstant(s)), nil
	case subkindAccessor:
		getter, err := decodeValue(r, rt)
		if err != nil {
			return value.Value{}, err
		}
		setter, err := decodeValue(r, rt)
		if err != nil {
			return value.Value{}, err
		}
		return value.FromObject(&object.Accessor{Getter: getter, Setter: setter}), nil
	default:
		return value.Value{}, fmt.Errorf("snapshot: unknown value object subkind %d", subkind)
	}
}
