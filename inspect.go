package starjs

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xlab/treeprint"

	"github.com/starjs-engine/starjs/internal/heap"
	"github.com/starjs-engine/starjs/internal/interp"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/symbol"
)

// Summary is a read-only snapshot of a Runtime's heap shape, meant for a
// host's diagnostic or snapshot-inspection tooling rather than for any
// decision the engine itself makes.
type Summary struct {
	RuntimeID        string
	SymbolCount      int
	CellCount        int
	CellCounts       map[string]int
	GlobalProperties []string
}

// Summarize walks r's heap and symbol table and reports their shape. It
// never mutates r.
func (r *Runtime) Summarize() Summary {
	s := Summary{
		RuntimeID:  r.ID().String(),
		CellCounts: map[string]int{},
	}
	r.in.Symbols().EachPublic(func(id symbol.ID, str string) {
		s.SymbolCount++
	})
	r.in.Heap().Walk(func(c heap.Cell) {
		s.CellCount++
		s.CellCounts[c.TypeName()]++
	})
	for _, e := range r.in.Global().Structure().Entries() {
		s.GlobalProperties = append(s.GlobalProperties, symName(r.in, e.Sym))
	}
	sort.Strings(s.GlobalProperties)
	return s
}

// DumpStructures renders the live Structure transition DAG as a tree:
// every chain root (a Structure with no previous shape) is a top-level
// branch, with each transition target nested beneath the shape it forked
// from. Meant for a debugging embedder, not for machine consumption.
func (r *Runtime) DumpStructures() string {
	var all []*object.Structure
	r.in.Heap().Walk(func(c heap.Cell) {
		if s, ok := c.(*object.Structure); ok {
			all = append(all, s)
		}
	})

	children := map[*object.Structure][]*object.Structure{}
	var roots []*object.Structure
	for _, s := range all {
		if p := s.Previous(); p != nil {
			children[p] = append(children[p], s)
		} else {
			roots = append(roots, s)
		}
	}

	label := func(s *object.Structure) string {
		entries := s.Entries()
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, symName(r.in, e.Sym))
		}
		sort.Strings(names)
		flags := ""
		if s.IsUnique() {
			flags += " unique"
		}
		if s.IsIndexed() {
			flags += " indexed"
		}
		if len(names) == 0 {
			return "{}" + flags
		}
		return "{" + strings.Join(names, ",") + "}" + flags
	}
	byLabel := func(set []*object.Structure) {
		sort.Slice(set, func(i, j int) bool { return label(set[i]) < label(set[j]) })
	}

	tree := treeprint.NewWithRoot(fmt.Sprintf("structures (%d)", len(all)))
	var add func(br treeprint.Tree, s *object.Structure)
	add = func(br treeprint.Tree, s *object.Structure) {
		kids := children[s]
		if len(kids) == 0 {
			br.AddNode(label(s))
			return
		}
		sub := br.AddBranch(label(s))
		byLabel(kids)
		for _, k := range kids {
			add(sub, k)
		}
	}
	byLabel(roots)
	for _, s := range roots {
		add(tree, s)
	}
	return tree.String()
}

// DumpCallStack renders the live call-frame chain, innermost frame
// first. Outside an active Run (e.g. called between scripts rather than
// from a native function) the chain is empty.
func (r *Runtime) DumpCallStack() string {
	frames := r.in.StackFrames()
	tree := treeprint.NewWithRoot(fmt.Sprintf("call stack (%d frames)", len(frames)))
	for _, f := range frames {
		tree.AddNode(fmt.Sprintf("%s @ %d", f.FunctionName, f.CodeOffset))
	}
	return tree.String()
}

func symName(in *interp.Interp, sym symbol.Symbol) string {
	if sym.IsIndex() {
		return strconv.FormatUint(uint64(sym.Index()), 10)
	}
	return in.SymbolName(sym.ID())
}
