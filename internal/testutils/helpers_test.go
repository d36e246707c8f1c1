package testutils

import (
	"os"
	"testing"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSnapshot_RoundTripsThroughExtension(t *testing.T) {
	snap := SampleSnapshot(t)

	for _, name := range []string{"flow.json", "flow.yaml"} {
		path := WriteSnapshot(t, snap, name)
		data, err := os.ReadFile(path)
		require.NoError(t, err)

		got, err := domain.ParseSnapshot(data, domain.FormatFromPath(path))
		require.NoError(t, err)
		assert.Len(t, got.Nodes, 2, name)
		assert.Equal(t, snap.Edges, got.Edges, name)
	}
}
