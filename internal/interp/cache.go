package interp

import (
	"github.com/starjs-engine/starjs/internal/bytecode"
	"github.com/starjs-engine/starjs/internal/heap"
	"github.com/starjs-engine/starjs/internal/object"
)

// maxCachedChainDepth bounds how many prototype-chain links a PutByID
// write cache will materialize and validate; a deeper chain is never
// cached.
const maxCachedChainDepth = 8

// PropertyCache is the GET_BY_ID/TRY_GET_BY_ID inline cache: the last
// Structure this site saw and the slot offset the property resolved to on
// it. The Structure is held weakly (via heap.WeakSlot) so installing a
// cache never keeps an otherwise-dead shape alive.
type PropertyCache struct {
	structure *heap.WeakSlot
	offset    uint32
}

func (*PropertyCache) IsFeedbackSlot() {}

// lookup returns (offset, true) if recv's current Structure matches the
// cached one.
func (c *PropertyCache) lookup(recv *object.Structure) (uint32, bool) {
	if c == nil || c.structure == nil {
		return 0, false
	}
	cell, ok := c.structure.Upgrade()
	if !ok || cell.(*object.Structure) != recv {
		return 0, false
	}
	return c.offset, true
}

func installPropertyCache(in *Interp, structure *object.Structure, offset uint32) *PropertyCache {
	return &PropertyCache{structure: in.heap.MakeWeak(structure), offset: offset}
}

// PutByIdFeedback is the PUT_BY_ID inline cache. If the receiver's current
// Structure equals oldStructure and the write did not require a
// transition, the write takes the fast path at offset directly. If the
// write required a transition from oldStructure to newStructure, the fast
// path additionally validates that chain (the receiver's prototype chain,
// captured at install time up to maxCachedChainDepth links) is still
// link-for-link identical before writing through the transition.
type PutByIdFeedback struct {
	oldStructure *heap.WeakSlot
	newStructure *heap.WeakSlot // nil when the write didn't transition
	offset       uint32
	chain        []*heap.WeakSlot // validated only when newStructure != nil
}

func (*PutByIdFeedback) IsFeedbackSlot() {}

// matchesNoTransition reports whether recv's Structure is exactly the
// cached old Structure with no required shape change.
func (f *PutByIdFeedback) matchesNoTransition(recv *object.Structure) (uint32, bool) {
	if f == nil || f.newStructure != nil || f.oldStructure == nil {
		return 0, false
	}
	cell, ok := f.oldStructure.Upgrade()
	if !ok || cell.(*object.Structure) != recv {
		return 0, false
	}
	return f.offset, true
}

// matchesTransition reports whether recv's Structure is the cached old
// Structure and the cached prototype chain still validates link-for-link,
// in which case the write may transition directly to the cached new
// Structure without re-running DefineOwnNonIndexed's full logic.
func (f *PutByIdFeedback) matchesTransition(recv *object.Structure) (*object.Structure, uint32, bool) {
	if f == nil || f.newStructure == nil || f.oldStructure == nil {
		return nil, 0, false
	}
	oldCell, ok := f.oldStructure.Upgrade()
	if !ok || oldCell.(*object.Structure) != recv {
		return nil, 0, false
	}
	newCell, ok := f.newStructure.Upgrade()
	if !ok {
		return nil, 0, false
	}
	chain := object.PrototypeChain(recv)
	if len(chain) != len(f.chain) {
		return nil, 0, false
	}
	for i, w := range f.chain {
		cell, ok := w.Upgrade()
		if !ok || cell.(*object.Structure) != chain[i] {
			return nil, 0, false
		}
	}
	return newCell.(*object.Structure), f.offset, true
}

func installPutByIdNoTransition(in *Interp, old *object.Structure, offset uint32) *PutByIdFeedback {
	return &PutByIdFeedback{oldStructure: in.heap.MakeWeak(old), offset: offset}
}

func installPutByIdTransition(in *Interp, old, next *object.Structure, offset uint32) *PutByIdFeedback {
	chain := object.PrototypeChain(old)
	if len(chain) > maxCachedChainDepth {
		// Too deep to cache; return a feedback value that will never
		// validate, so every subsequent execution of this site takes the
		// slow path.
		return &PutByIdFeedback{}
	}
	weakChain := make([]*heap.WeakSlot, len(chain))
	for i, s := range chain {
		weakChain[i] = in.heap.MakeWeak(s)
	}
	return &PutByIdFeedback{
		oldStructure: in.heap.MakeWeak(old),
		newStructure: in.heap.MakeWeak(next),
		offset:       offset,
		chain:        weakChain,
	}
}

// feedbackArithAt fetches the CodeBlock's feedback slot at i as an
// *ArithProfile, installing a fresh zero ArithProfile if the slot has never
// been specialized past bytecode.NoFeedback.
func feedbackArithAt(code *bytecode.CodeBlock, i uint32) *bytecode.ArithProfile {
	if ap, ok := code.Feedback[i].(*bytecode.ArithProfile); ok {
		return ap
	}
	ap := &bytecode.ArithProfile{}
	code.Feedback[i] = ap
	return ap
}

func propertyCacheAt(code *bytecode.CodeBlock, i uint32) *PropertyCache {
	pc, _ := code.Feedback[i].(*PropertyCache)
	return pc
}

func putByIdFeedbackAt(code *bytecode.CodeBlock, i uint32) *PutByIdFeedback {
	pf, _ := code.Feedback[i].(*PutByIdFeedback)
	return pf
}
