package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goldentooth/knowledgeengine/internal/kerrors"
)

func TestNewRootCmd_HasAllSubcommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{"ingest", "query", "hybrid-query", "fuse-query", "enhanced-query", "sync-sidecars", "stats", "watch", "doctor", "relate"}
	for _, name := range want {
		_, _, err := root.Find([]string{name})
		require.NoError(t, err, "expected subcommand %q", name)
	}
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, 1, exitCodeFor(kerrors.New(kerrors.NotFound, "missing")))
	assert.Equal(t, 1, exitCodeFor(kerrors.New(kerrors.InvalidInput, "bad arg")))
	assert.Equal(t, 2, exitCodeFor(kerrors.New(kerrors.StorageFailure, "db down")))
	assert.Equal(t, 2, exitCodeFor(kerrors.New(kerrors.EmbedderFailure, "embed down")))
	assert.Equal(t, 1, exitCodeFor(assertNonKerrorsError()))
}

func assertNonKerrorsError() error {
	return &plainError{"argument error"}
}

type plainError struct{ msg string }

func (e *plainError) Error() string { return e.msg }
