// Command starjs is a thin driver around the starjs engine: it builds a
// Runtime, runs a fixed internal bytecode program for benchmarking, and
// inspects snapshot files. It carries no source-text front end (this
// module parses no JavaScript; see the root package's doc.go).
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/starjs-engine/starjs"
)

func main() {
	os.Exit(doMain(os.Stdout, os.Stderr, os.Args[1:]))
}

// doMain is separated from main for the purpose of unit testing.
func doMain(stdOut, stdErr io.Writer, args []string) int {
	flags := flag.NewFlagSet("starjs", flag.ContinueOnError)
	flags.SetOutput(stdErr)

	var snapshotDump string
	var bench bool
	var benchN int
	var benchCount int
	var verbose bool

	flags.StringVar(&snapshotDump, "snapshot-dump", "", "Pretty-print the symbol table and cell count of a snapshot file.")
	flags.BoolVar(&bench, "bench", false, "Run a fixed internal bytecode program repeatedly and report timing.")
	flags.IntVar(&benchN, "bench-n", 1000, "Loop bound for the -bench program.")
	flags.IntVar(&benchCount, "bench-count", 50, "Number of times to run the -bench program.")
	flags.BoolVar(&verbose, "verbose", false, "Attach a console logger to the Runtime.")

	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintln(stdErr, err)
		return 1
	}

	cfg := starjs.NewRuntimeConfig()
	if verbose {
		cfg = cfg.WithLogger(stdErr, zerolog.DebugLevel)
	}

	switch {
	case snapshotDump != "":
		return doSnapshotDump(snapshotDump, cfg, stdOut, stdErr)
	case bench:
		return doBench(benchN, benchCount, cfg, stdOut, stdErr)
	default:
		flags.PrintDefaults()
		return 0
	}
}
