package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBenchRuns(t *testing.T) {
	stdOut := &bytes.Buffer{}
	stdErr := &bytes.Buffer{}

	exitCode := doMain(stdOut, stdErr, []string{"--bench", "--bench-n", "10", "--bench-count", "3"})

	require.Equal(t, 0, exitCode)
	require.Contains(t, stdOut.String(), "sum(0..10) = 45")
}

func TestSnapshotDumpRejectsMissingFile(t *testing.T) {
	stdOut := &bytes.Buffer{}
	stdErr := &bytes.Buffer{}

	exitCode := doMain(stdOut, stdErr, []string{"--snapshot-dump", "/no/such/file"})

	require.Equal(t, 1, exitCode)
	require.NotEmpty(t, stdErr.String())
}

func TestNoFlagsPrintsUsage(t *testing.T) {
	stdOut := &bytes.Buffer{}
	stdErr := &bytes.Buffer{}

	exitCode := doMain(stdOut, stdErr, nil)

	require.Equal(t, 0, exitCode)
}
