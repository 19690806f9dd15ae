// Package rtlog wraps zerolog with the small set of leveled events the
// engine emits: GC cycles, structure-transition table growth, and inline
// cache invalidations. It exists so the rest of the engine depends on a
// narrow logging surface instead of zerolog directly, and so a host can
// supply its own sink through the root package's WithLogger option.
package rtlog

import (
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Logger is the narrow logging surface the engine's internal packages use.
type Logger struct {
	zl zerolog.Logger
}

// New builds a Logger writing to w. If w is a terminal (checked via
// go-isatty) output is a colorized console writer; otherwise it is
// structured JSON, suitable for piping into log aggregation.
func New(w io.Writer, level zerolog.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		w = zerolog.ConsoleWriter{Out: f, TimeFormat: "15:04:05"}
	}
	zl := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// Discard returns a Logger that drops every event, used as the default
// when a host does not configure one via RuntimeConfig.WithLogger.
func Discard() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Noop reports whether l is the discard sink, letting hot paths skip
// building event fields entirely.
func (l *Logger) Noop() bool {
	return l == nil || l.zl.GetLevel() == zerolog.Disabled
}

func (l *Logger) GCCycle(runtimeID string, cycle uint64, live, reclaimed int, reclaimedBytes uint64) {
	if l == nil {
		return
	}
	l.zl.Debug().
		Str("runtime", runtimeID).
		Uint64("cycle", cycle).
		Int("live_cells", live).
		Int("reclaimed_cells", reclaimed).
		Str("reclaimed", humanize.Bytes(reclaimedBytes)).
		Msg("gc cycle")
}

func (l *Logger) TransitionTableGrowth(size int) {
	if l == nil {
		return
	}
	l.zl.Warn().
		Int("transitions", size).
		Msg("structure transition table growing large")
}

func (l *Logger) CacheInvalidated(site uint32, reason string) {
	if l == nil {
		return
	}
	l.zl.Debug().
		Uint32("site", site).
		Str("reason", reason).
		Msg("inline cache invalidated")
}

func (l *Logger) Infof(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.zl.Info().Msgf(format, args...)
}
