package bytecode

import (
	"encoding/binary"

	"github.com/starjs-engine/starjs/internal/symbol"
	"github.com/starjs-engine/starjs/internal/value"
)

// FeedbackSlot is the interface satisfied by every inline-cache payload a
// CodeBlock's Feedback slice may hold. Concrete cache shapes
// (PropertyCache, PutByIdFeedback) live in package interp rather than
// here: they hold weak references to object.Structure, and object in turn
// holds CodeBlocks in its function tail data, so the cache payload types
// must live above both without this package importing either.
type FeedbackSlot interface {
	IsFeedbackSlot()
}

// NoFeedback is the zero-value feedback slot reserved by the compiler at
// every property-access site before the interpreter has observed any
// shape.
type NoFeedback struct{}

func (NoFeedback) IsFeedbackSlot() {}

// ArithProfile is the per-site feedback an arithmetic opcode reads and
// updates: whether its operands have ever overflowed int32, ever been
// non-integral numbers, or ever required the generic (string/object)
// slow path.
type ArithProfile struct {
	SawOverflow bool
	SawNumber   bool
	SawOther    bool
}

func (*ArithProfile) IsFeedbackSlot() {}

// StringConstant is the literal-pool placeholder the compiler emits for a
// string literal: a Ref the interpreter replaces with a real heap string
// object the first time a CodeBlock executes (see internal/interp's
// literal-pool linking step), keeping this package free of any heap
// dependency while still letting a string literal round-trip through the
// same Literals slice every other constant uses.
type StringConstant string

func (StringConstant) TypeName() string { return "StringConstant" }

// NoRestParam marks CodeBlock.RestAt when the function declares no rest
// parameter.
const NoRestParam = -1

// CodeBlock is the compiled, immutable representation of a function or
// top-level script body.
type CodeBlock struct {
	Name         string
	ParamCount   int
	RestAt       int
	UseArguments bool
	VarCount     int
	Strict       bool
	TopLevel     bool

	Code     []byte
	Literals []value.Value
	Names    []symbol.Symbol
	Feedback []FeedbackSlot
	Codes    []*CodeBlock
	Variables []symbol.Symbol
}

// TypeName satisfies value.Ref so a CodeBlock reference can be boxed into
// a Value's object slot (used by Function.prototype.toString-style
// introspection and by closures carrying their CodeBlock).
func (c *CodeBlock) TypeName() string { return "CodeBlock" }

// EnvSize is the slot count a fresh Environment for an activation of this
// CodeBlock must allocate: parameters, locals, an optional rest-parameter
// slot, and an optional arguments-object slot.
func (c *CodeBlock) EnvSize() int {
	n := c.ParamCount + c.VarCount
	if c.RestAt != NoRestParam {
		n++
	}
	if c.UseArguments {
		n++
	}
	return n
}

// Builder incrementally assembles a CodeBlock's bytecode, following the
// compiler's need to backpatch forward jumps once their target IP is
// known.
type Builder struct {
	cb *CodeBlock
}

// NewBuilder starts assembling a CodeBlock with the given static shape.
func NewBuilder(name string, paramCount, varCount int, strict, topLevel bool) *Builder {
	return &Builder{cb: &CodeBlock{
		Name:       name,
		ParamCount: paramCount,
		VarCount:   varCount,
		RestAt:     NoRestParam,
		Strict:     strict,
		TopLevel:   topLevel,
	}}
}

// Emit appends op and returns the byte offset it was written at (the
// "site" used to compute relative jump targets).
func (b *Builder) Emit(op Op) int {
	site := len(b.cb.Code)
	b.cb.Code = append(b.cb.Code, byte(op))
	return site
}

// EmitU32 appends a little-endian u32 operand.
func (b *Builder) EmitU32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	b.cb.Code = append(b.cb.Code, buf[:]...)
}

// EmitI32 appends a little-endian i32 operand.
func (b *Builder) EmitI32(v int32) {
	b.EmitU32(uint32(v))
}

// PatchI32 overwrites the i32 operand written at byte offset at (measured
// from the start of Code) with v, used to backpatch forward jumps once
// the target IP is known.
func (b *Builder) PatchI32(at int, v int32) {
	binary.LittleEndian.PutUint32(b.cb.Code[at:at+4], uint32(v))
}

// Here returns the current end-of-code offset, i.e. the offset the next
// Emit call will write at.
func (b *Builder) Here() int { return len(b.cb.Code) }

// AddLiteral interns v into the literal pool and returns its index.
func (b *Builder) AddLiteral(v value.Value) uint32 {
	b.cb.Literals = append(b.cb.Literals, v)
	return uint32(len(b.cb.Literals) - 1)
}

// AddName interns sym into the name pool and returns its index.
func (b *Builder) AddName(sym symbol.Symbol) uint32 {
	b.cb.Names = append(b.cb.Names, sym)
	return uint32(len(b.cb.Names) - 1)
}

// AddVariable registers a hoisted var/let/const binding name.
func (b *Builder) AddVariable(sym symbol.Symbol) {
	b.cb.Variables = append(b.cb.Variables, sym)
}

// AddFeedbackSlot reserves a fresh NoFeedback entry and returns its index,
// one per property-access or arithmetic opcode site.
func (b *Builder) AddFeedbackSlot() uint32 {
	b.cb.Feedback = append(b.cb.Feedback, NoFeedback{})
	return uint32(len(b.cb.Feedback) - 1)
}

// AddNestedCode registers a compiled nested function and returns its
// index into Codes, consumed by OpGetFunction.
func (b *Builder) AddNestedCode(nested *CodeBlock) uint32 {
	b.cb.Codes = append(b.cb.Codes, nested)
	return uint32(len(b.cb.Codes) - 1)
}

// SetRestParam records that the last formal parameter is a rest
// parameter, sized by the caller during environment setup.
func (b *Builder) SetRestParam(at int) { b.cb.RestAt = at }

// SetUsesArguments marks that the function body references `arguments`.
func (b *Builder) SetUsesArguments() { b.cb.UseArguments = true }

// Finish returns the assembled, immutable CodeBlock.
func (b *Builder) Finish() *CodeBlock { return b.cb }

// ReadU32 reads an unaligned little-endian u32 operand at code[off:].
func ReadU32(code []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(code[off : off+4])
}

// ReadI32 reads an unaligned little-endian i32 operand at code[off:].
func ReadI32(code []byte, off int) int32 {
	return int32(ReadU32(code, off))
}
