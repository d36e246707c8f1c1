package domain

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() Snapshot {
	return Snapshot{
		Nodes: []Node{
			{ID: "1", Kind: KindTrigger, Label: "Webhook", Position: Position{X: 250, Y: 50}, Data: NodeData{}},
			{ID: "2", Kind: KindCustomCode, Label: "Custom Code", Position: Position{X: 120.5, Y: 300}, Data: DefaultCodeData().Patch()},
		},
		Edges: []Edge{
			NewEdge(ConnectRequest{Source: "1", Target: "2"}),
			NewEdge(ConnectRequest{Source: "2", Target: "2", SourceHandle: "out", TargetHandle: "in"}),
		},
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			snap := sampleSnapshot()

			data, err := MarshalSnapshot(snap, format)
			require.NoError(t, err)

			decoded, err := ParseSnapshot(data, format)
			require.NoError(t, err)

			again, err := MarshalSnapshot(decoded, format)
			require.NoError(t, err)

			if diff := cmp.Diff(snap, decoded); diff != "" {
				t.Errorf("snapshot mismatch after round trip (-want +got):\n%s", diff)
			}
			assert.Equal(t, string(data), string(again))
		})
	}
}

func TestParseSnapshot_EmptyLists(t *testing.T) {
	snap, err := ParseSnapshot([]byte(`{"nodes":[{"id":"1","kind":"trigger","label":"Webhook","position":{"x":0,"y":0}}]}`), FormatJSON)
	require.NoError(t, err)

	assert.NotNil(t, snap.Edges)
	assert.Empty(t, snap.Edges)
	assert.NotNil(t, snap.Nodes[0].Data)
}

func TestParseSnapshot_UnknownFormat(t *testing.T) {
	_, err := ParseSnapshot([]byte(`{}`), Format("toml"))
	assert.Error(t, err)
}

func TestSnapshot_Validate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, sampleSnapshot().Validate())
	})

	t.Run("Dangling Edge", func(t *testing.T) {
		snap := sampleSnapshot()
		snap.Edges = append(snap.Edges, NewEdge(ConnectRequest{Source: "1", Target: "ghost"}))

		err := snap.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidSnapshot))
		assert.Contains(t, err.Error(), `unknown target "ghost"`)
	})

	t.Run("Aggregates Problems", func(t *testing.T) {
		snap := Snapshot{
			Nodes: []Node{
				{ID: "1", Kind: KindTrigger},
				{ID: "1", Kind: NodeKind("loop")},
			},
			Edges: []Edge{{ID: "custom", Source: "1", Target: "1"}},
		}

		err := snap.Validate()
		var snapErr *SnapshotError
		require.ErrorAs(t, err, &snapErr)
		assert.Len(t, snapErr.Problems, 3)
	})
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("flow.yml"))
	assert.Equal(t, FormatYAML, FormatFromPath("flow.YAML"))
	assert.Equal(t, FormatJSON, FormatFromPath("flow.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("flow"))
}
