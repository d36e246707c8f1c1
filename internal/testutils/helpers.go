package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/dsl"
	"github.com/stretchr/testify/require"
)

// SampleSnapshot returns a small valid workflow: a Webhook trigger ("1")
// connected to a Python code node ("2").
// It fails the test immediately on error.
func SampleSnapshot(t *testing.T) domain.Snapshot {
	t.Helper()

	b := dsl.New()
	b.Trigger("1", "Webhook").At(250, 50).Go("2")
	b.Code("2").At(300, 200).Python("return 42")

	snap, err := b.Build()
	require.NoError(t, err, "Failed to build sample snapshot")
	return snap
}

// WriteSnapshot encodes snap into a temporary file named name. The format
// follows the file extension. It returns the absolute path to the file.
func WriteSnapshot(t *testing.T, snap domain.Snapshot, name string) string {
	t.Helper()

	data, err := domain.MarshalSnapshot(snap, domain.FormatFromPath(name))
	require.NoError(t, err, "Failed to encode snapshot")
	return WriteFile(t, name, data)
}

// WriteFile writes raw content into a temporary file and returns its path.
func WriteFile(t *testing.T, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0644), "Failed to write %s", name)
	return path
}
