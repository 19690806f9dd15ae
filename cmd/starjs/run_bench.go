package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/starjs-engine/starjs"
)

// doBench runs buildBenchProgram(n) count times against a freshly built
// Runtime and reports the total and per-iteration wall time, exercising
// Runtime.Run end to end without requiring a parser front end.
func doBench(n, count int, cfg starjs.RuntimeConfig, stdOut, stdErr io.Writer) int {
	rt := starjs.NewRuntime(context.Background(), cfg)
	cb := buildBenchProgram(int32(n))

	start := time.Now()
	var last int64
	for i := 0; i < count; i++ {
		v, err := rt.Run(cb)
		if err != nil {
			fmt.Fprintln(stdErr, "bench:", err)
			return 1
		}
		// AsFloat64 reads back both boxings the add loop can produce: the
		// int32 fast path's result and the double it overflows into.
		last = int64(v.AsFloat64())
	}
	elapsed := time.Since(start)

	fmt.Fprintf(stdOut, "ran %s iterations of sum(0..%s) = %s in %s (%s/iter)\n",
		humanize.Comma(int64(count)),
		humanize.Comma(int64(n)),
		humanize.Comma(last),
		elapsed,
		elapsed/time.Duration(count))
	return 0
}
