package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/xlab/treeprint"

	"github.com/starjs-engine/starjs"
)

// doSnapshotDump loads the snapshot at path and pretty-prints its symbol
// table and cell counts as a tree, exercising Runtime.Snapshot's inverse
// (FromSnapshot) without requiring a script to run first.
func doSnapshotDump(path string, cfg starjs.RuntimeConfig, stdOut, stdErr io.Writer) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdErr, err)
		return 1
	}

	rt, err := starjs.FromSnapshot(context.Background(), data, cfg)
	if err != nil {
		fmt.Fprintln(stdErr, "snapshot-dump:", err)
		return 1
	}

	summary := rt.Summarize()

	root := treeprint.NewWithRoot(fmt.Sprintf("snapshot %s", summary.RuntimeID))
	root.AddNode(fmt.Sprintf("symbols: %s", humanize.Comma(int64(summary.SymbolCount))))

	cells := root.AddBranch(fmt.Sprintf("cells: %s", humanize.Comma(int64(summary.CellCount))))
	types := make([]string, 0, len(summary.CellCounts))
	for t := range summary.CellCounts {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		cells.AddNode(fmt.Sprintf("%s: %s", t, humanize.Comma(int64(summary.CellCounts[t]))))
	}

	global := root.AddBranch(fmt.Sprintf("global properties: %d", len(summary.GlobalProperties)))
	for _, name := range summary.GlobalProperties {
		global.AddNode(name)
	}

	fmt.Fprintln(stdOut, root.String())
	return 0
}
