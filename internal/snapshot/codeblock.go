package snapshot

import (
	"fmt"

	"github.com/starjs-engine/starjs/internal/bytecode"
	"github.com/starjs-engine/starjs/internal/symbol"
	"github.com/starjs-engine/starjs/internal/value"
)

// codeTable deduplicates *bytecode.CodeBlock pointers by identity during
// serialization. A CodeBlock is not a heap.Cell (it is immutable and
// shared, reached only through object.FunctionData.Code and its own
// nested Codes tree), so it never appears in refTable's cellIndex; this
// package instead walks and indexes it on its own, starting from the
// FuncUser objects Serialize finds in the cell table before any cell is
// encoded.
type codeTable struct {
	index map[*bytecode.CodeBlock]int
	order []*bytecode.CodeBlock
}

func newCodeTable() *codeTable {
	return &codeTable{index: map[*bytecode.CodeBlock]int{}}
}

// intern returns cb's index in the table, registering it (and,
// recursively, every CodeBlock nested in its Codes slice) on first sight.
func (t *codeTable) intern(cb *bytecode.CodeBlock) uint32 {
	if i, ok := t.index[cb]; ok {
		return uint32(i)
	}
	i := len(t.order)
	t.index[cb] = i
	t.order = append(t.order, cb)
	for _, nested := range cb.Codes {
		t.intern(nested)
	}
	return uint32(i)
}

// encodeCodeTable writes every interned CodeBlock in registration order.
// A block's Codes field is written as a list of indices into this same
// table (every nested block is interned before intern returns for its
// parent, so indices are always resolvable as long as the whole table is
// read before any CodeBlock's Codes field is relinked).
func encodeCodeTable(w *writer, rt *refTable, t *codeTable) error {
	w.u32(uint32(len(t.order)))
	for _, cb := range t.order {
		if err := encodeCodeBlockBody(w, rt, t, cb); err != nil {
			return err
		}
	}
	return nil
}

func encodeCodeBlockBody(w *writer, rt *refTable, t *codeTable, cb *bytecode.CodeBlock) error {
	w.str(cb.Name)
	w.u32(uint32(cb.ParamCount))
	w.u32(uint32(int32(cb.RestAt)))
	w.bool(cb.UseArguments)
	w.u32(uint32(cb.VarCount))
	w.bool(cb.Strict)
	w.bool(cb.TopLevel)

	w.u32(uint32(len(cb.Code)))
	w.rawBytes(cb.Code)

	w.u32(uint32(len(cb.Literals)))
	for _, lit := range cb.Literals {
		if err := encodeValue(w, rt, lit); err != nil {
			return err
		}
	}

	w.u32(uint32(len(cb.Names)))
	for _, n := range cb.Names {
		encodeSymbol(w, n)
	}

	w.u32(uint32(len(cb.Feedback)))
	for _, fb := range cb.Feedback {
		if err := encodeFeedback(w, fb); err != nil {
			return err
		}
	}

	w.u32(uint32(len(cb.Codes)))
	for _, nested := range cb.Codes {
		w.u32(uint32(t.index[nested]))
	}

	w.u32(uint32(len(cb.Variables)))
	for _, v := range cb.Variables {
		encodeSymbol(w, v)
	}
	return nil
}

func encodeFeedback(w *writer, fb bytecode.FeedbackSlot) error {
	switch f := fb.(type) {
	case bytecode.NoFeedback:
		w.u8(0)
	case *bytecode.ArithProfile:
		w.u8(1)
		w.bool(f.SawOverflow)
		w.bool(f.SawNumber)
		w.bool(f.SawOther)
	default:
		// A property inline cache (interp.PropertyCache/PutByIdFeedback)
		// holds weak Structure references that carry no meaning in another
		// heap. Like the Structure transition caches, it is optimization
		// state a restored runtime rebuilds on first execution, so it is
		// written back as an unspecialized slot.
		w.u8(0)
	}
	return nil
}

// codeTableDecode is the deserialize-side counterpart: every CodeBlock is
// allocated blank up front (so a forward reference in some other block's
// Codes list always resolves) and then filled in during a second pass,
// mirroring the heap cell pre-allocate/restore split.
type codeTableDecode struct {
	blocks []*bytecode.CodeBlock
}

func (t *codeTableDecode) at(i uint32) (*bytecode.CodeBlock, error) {
	if int(i) >= len(t.blocks) {
		return nil, errOutOfRange("code block", i, len(t.blocks))
	}
	return t.blocks[i], nil
}

func decodeCodeTable(r *reader, rt *refTable) (*codeTableDecode, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	t := &codeTableDecode{blocks: make([]*bytecode.CodeBlock, count)}
	for i := range t.blocks {
		t.blocks[i] = &bytecode.CodeBlock{}
	}
	for i := range t.blocks {
		if err := decodeCodeBlockBody(r, rt, t, t.blocks[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func decodeCodeBlockBody(r *reader, rt *refTable, t *codeTableDecode, cb *bytecode.CodeBlock) error {
	var err error
	if cb.Name, err = r.str(); err != nil {
		return err
	}
	paramCount, err := r.u32()
	if err != nil {
		return err
	}
	cb.ParamCount = int(paramCount)
	restAt, err := r.u32()
	if err != nil {
		return err
	}
	cb.RestAt = int(int32(restAt))
	if cb.UseArguments, err = r.bool(); err != nil {
		return err
	}
	varCount, err := r.u32()
	if err != nil {
		return err
	}
	cb.VarCount = int(varCount)
	if cb.Strict, err = r.bool(); err != nil {
		return err
	}
	if cb.TopLevel, err = r.bool(); err != nil {
		return err
	}

	codeLen, err := r.u32()
	if err != nil {
		return err
	}
	raw, err := r.rawBytes(int(codeLen))
	if err != nil {
		return err
	}
	cb.Code = append([]byte(nil), raw...)

	litCount, err := r.u32()
	if err != nil {
		return err
	}
	cb.Literals = make([]value.Value, litCount)
	for i := range cb.Literals {
		if cb.Literals[i], err = decodeValue(r, rt); err != nil {
			return err
		}
	}

	nameCount, err := r.u32()
	if err != nil {
		return err
	}
	cb.Names = make([]symbol.Symbol, nameCount)
	for i := range cb.Names {
		if cb.Names[i], err = decodeSymbol(r); err != nil {
			return err
		}
	}

	fbCount, err := r.u32()
	if err != nil {
		return err
	}
	cb.Feedback = make([]bytecode.FeedbackSlot, fbCount)
	for i := range cb.Feedback {
		kind, err := r.u8()
		if err != nil {
			return err
		}
		switch kind {
		case 0:
			cb.Feedback[i] = bytecode.NoFeedback{}
		case 1:
			overflow, err := r.bool()
			if err != nil {
				return err
			}
			sawNumber, err := r.bool()
			if err != nil {
				return err
			}
			sawOther, err := r.bool()
			if err != nil {
				return err
			}
			cb.Feedback[i] = &bytecode.ArithProfile{SawOverflow: overflow, SawNumber: sawNumber, SawOther: sawOther}
		default:
			return fmt.Errorf("snapshot: unknown feedback slot kind %d", kind)
		}
	}

	nestedCount, err := r.u32()
	if err != nil {
		return err
	}
	cb.Codes = make([]*bytecode.CodeBlock, nestedCount)
	for i := range cb.Codes {
		idx, err := r.u32()
		if err != nil {
			return err
		}
		if cb.Codes[i], err = t.at(idx); err != nil {
			return err
		}
	}

	varCount2, err := r.u32()
	if err != nil {
		return err
	}
	cb.Variables = make([]symbol.Symbol, varCount2)
	for i := range cb.Variables {
		if cb.Variables[i], err = decodeSymbol(r); err != nil {
			return err
		}
	}
	return nil
}
