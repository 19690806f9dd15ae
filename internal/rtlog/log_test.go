package rtlog_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/starjs-engine/starjs/internal/rtlog"
)

func TestDiscardIsNoopAndWritesNothing(t *testing.T) {
	l := rtlog.Discard()
	require.True(t, l.Noop())

	l.GCCycle("rt", 1, 10, 5, 1024)
	l.TransitionTableGrowth(64)
	l.CacheInvalidated(3, "structure changed")
	l.Infof("unreachable %d", 1)
}

func TestNewWritesStructuredEventsToWriter(t *testing.T) {
	var buf bytes.Buffer
	l := rtlog.New(&buf, zerolog.DebugLevel)
	require.False(t, l.Noop())

	l.GCCycle("rt-1", 3, 100, 40, 2048)

	out := buf.String()
	require.Contains(t, out, "gc cycle")
	require.Contains(t, out, "rt-1")
}

func TestTransitionTableGrowthLogsAtWarnLevel(t *testing.T) {
	var buf bytes.Buffer
	l := rtlog.New(&buf, zerolog.WarnLevel)

	l.CacheInvalidated(1, "ignored below warn")
	require.Empty(t, buf.String())

	l.TransitionTableGrowth(128)
	require.Contains(t, buf.String(), "structure transition table growing large")
}

func TestNilLoggerMethodsAreSafeNoops(t *testing.T) {
	var l *rtlog.Logger
	require.True(t, l.Noop())
	l.GCCycle("rt", 1, 1, 1, 1)
	l.TransitionTableGrowth(1)
	l.CacheInvalidated(1, "x")
	l.Infof("x")
}
