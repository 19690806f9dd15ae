// Package starjs implements an embeddable JavaScript engine: a
// hidden-class object model, a stack-based bytecode virtual machine, a
// tracing mark-sweep garbage collector, and heap snapshot serialization.
//
// A host builds a Runtime, compiles a pre-built AST (internal/ast) into a
// CodeBlock, and runs it:
//
//	rt := starjs.NewRuntime(ctx, starjs.NewRuntimeConfig())
//	cb, err := rt.Compile(prog)
//	v, err := rt.Run(cb)
//
// A Runtime's entire object graph can be serialized and later restored,
// letting a host warm-start a pool of Runtimes from a single prepared
// snapshot instead of re-running bootstrap and setup script on each one:
//
//	data, err := rt.Snapshot()
//	rt2, err := starjs.FromSnapshot(ctx, data, cfg)
//
// This module implements no JavaScript source-text parser; Compile
// consumes an already-built ast.Program. A host supplies its own lexer
// and parser, or hand-builds the AST directly, the same way this
// module's own test suite does.
package starjs
