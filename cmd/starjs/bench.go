package main

import "github.com/starjs-engine/starjs/internal/bytecode"

// buildBenchProgram assembles the fixed internal bytecode program -bench
// runs: a top-level script equivalent to
//
//	let sum = 0;
//	for (let i = 0; i < n; i++) sum += i;
//	return sum;
//
// hand-assembled with bytecode.Builder rather than compiled from source,
// since this module has no source-text parser (see doc.go).
func buildBenchProgram(n int32) *bytecode.CodeBlock {
	b := bytecode.NewBuilder("bench", 0, 2, true, true)
	const sumSlot, iSlot = 0, 1

	b.Emit(bytecode.OpPushInt)
	b.EmitU32(0)
	b.Emit(bytecode.OpDeclLet)
	b.EmitU32(sumSlot)

	b.Emit(bytecode.OpPushInt)
	b.EmitU32(0)
	b.Emit(bytecode.OpDeclLet)
	b.EmitU32(iSlot)

	loopStart := b.Here()
	b.Emit(bytecode.OpGetEnv0Local)
	b.EmitU32(iSlot)
	b.Emit(bytecode.OpPushInt)
	b.EmitU32(uint32(n))
	b.Emit(bytecode.OpLess)

	jmpFalse := b.Emit(bytecode.OpJmpIfFalse)
	b.EmitI32(0)

	b.Emit(bytecode.OpGetEnv0Local)
	b.EmitU32(sumSlot)
	b.Emit(bytecode.OpGetEnv0Local)
	b.EmitU32(iSlot)
	b.Emit(bytecode.OpAdd)
	b.EmitU32(b.AddFeedbackSlot())
	b.Emit(bytecode.OpSetEnv0Local)
	b.EmitU32(sumSlot)
	b.Emit(bytecode.OpPop)

	b.Emit(bytecode.OpGetEnv0Local)
	b.EmitU32(iSlot)
	b.Emit(bytecode.OpPushInt)
	b.EmitU32(1)
	b.Emit(bytecode.OpAdd)
	b.EmitU32(b.AddFeedbackSlot())
	b.Emit(bytecode.OpSetEnv0Local)
	b.EmitU32(iSlot)
	b.Emit(bytecode.OpPop)

	jmpBack := b.Emit(bytecode.OpJmp)
	b.EmitI32(0)

	loopEnd := b.Here()
	b.PatchI32(jmpFalse+1, int32(loopEnd-(jmpFalse+5)))
	b.PatchI32(jmpBack+1, int32(loopStart-(jmpBack+5)))

	b.Emit(bytecode.OpGetEnv0Local)
	b.EmitU32(sumSlot)
	b.Emit(bytecode.OpRet)

	return b.Finish()
}
