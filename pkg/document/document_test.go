package document

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func action(id, label string) domain.Node {
	return domain.Node{ID: id, Kind: domain.KindAction, Label: label, Data: domain.NodeData{}}
}

func TestNew_SeedState(t *testing.T) {
	d := New()
	snap := d.Snapshot()

	require.Len(t, snap.Nodes, 1)
	assert.Empty(t, snap.Edges)

	seed := snap.Nodes[0]
	assert.Equal(t, SeedNodeID, seed.ID)
	assert.Equal(t, domain.KindTrigger, seed.Kind)
	assert.Equal(t, "Webhook", seed.Label)
	assert.Equal(t, domain.Position{X: 250, Y: 50}, seed.Position)
}

func TestAddNode(t *testing.T) {
	d := New()

	require.NoError(t, d.AddNode(action("2", "Send Email")))
	n, ok := d.Node("2")
	require.True(t, ok, "node should be visible immediately")
	assert.Equal(t, "Send Email", n.Label)

	t.Run("Duplicate Id", func(t *testing.T) {
		err := d.AddNode(action("2", "HTTP Request"))
		assert.ErrorIs(t, err, domain.ErrDuplicateNode)
		n, _ := d.Node("2")
		assert.Equal(t, "Send Email", n.Label, "existing node must be untouched")
	})

	t.Run("Unknown Kind", func(t *testing.T) {
		err := d.AddNode(domain.Node{ID: "3", Kind: "input"})
		assert.ErrorIs(t, err, domain.ErrUnknownKind)
		assert.False(t, d.HasNode("3"))
	})

	t.Run("Empty Id", func(t *testing.T) {
		assert.Error(t, d.AddNode(domain.Node{Kind: domain.KindAction}))
	})
}

func TestUpdateNodePosition(t *testing.T) {
	d := New()
	pos := domain.Position{X: -40, Y: 1e6}

	require.NoError(t, d.UpdateNodePosition(SeedNodeID, pos))
	require.NoError(t, d.UpdateNodePosition(SeedNodeID, pos), "repeated delivery must be harmless")

	n, _ := d.Node(SeedNodeID)
	assert.Equal(t, pos, n.Position)

	assert.ErrorIs(t, d.UpdateNodePosition("missing", pos), domain.ErrNodeNotFound)
}

func TestUpdateNodeData(t *testing.T) {
	d := New()
	require.NoError(t, d.AddNode(domain.Node{
		ID:   "2",
		Kind: domain.KindCustomCode,
		Data: domain.DefaultCodeData().Patch(),
	}))

	require.NoError(t, d.UpdateNodeData("2", domain.NodeData{domain.KeyLanguage: "python", "timeout": 5}))

	n, _ := d.Node("2")
	assert.Equal(t, "2", n.ID)
	assert.Equal(t, domain.KindCustomCode, n.Kind)
	assert.Equal(t, domain.DefaultCode, n.Data[domain.KeyCode], "shallow merge keeps other keys")
	assert.Equal(t, "python", n.Data[domain.KeyLanguage])
	assert.Equal(t, 5, n.Data["timeout"])

	assert.ErrorIs(t, d.UpdateNodeData("missing", domain.NodeData{"a": 1}), domain.ErrNodeNotFound)
}

func TestNodeReturnsCopy(t *testing.T) {
	d := New()
	n, _ := d.Node(SeedNodeID)
	n.Data["leak"] = true
	n.Label = "changed"

	again, _ := d.Node(SeedNodeID)
	assert.NotContains(t, again.Data, "leak")
	assert.Equal(t, SeedNodeLabel, again.Label)
}

func TestAddEdge(t *testing.T) {
	d := New()
	require.NoError(t, d.AddNode(action("2", "Send Email")))
	req := domain.ConnectRequest{Source: "1", Target: "2"}

	t.Run("Idempotent", func(t *testing.T) {
		first, err := d.AddEdge(req)
		require.NoError(t, err)

		second, err := d.AddEdge(req)
		assert.ErrorIs(t, err, domain.ErrDuplicateEdge)
		assert.Equal(t, first.ID, second.ID)

		_, edges := d.Len()
		assert.Equal(t, 1, edges)
	})

	t.Run("Unknown Target Leaves Edges Unchanged", func(t *testing.T) {
		before := d.Snapshot().Edges
		_, err := d.AddEdge(domain.ConnectRequest{Source: "1", Target: "ghost"})
		assert.ErrorIs(t, err, domain.ErrUnknownEndpoint)
		assert.Equal(t, before, d.Snapshot().Edges)
	})

	t.Run("Self Loop And Parallel Handles", func(t *testing.T) {
		_, err := d.AddEdge(domain.ConnectRequest{Source: "2", Target: "2"})
		require.NoError(t, err)
		_, err = d.AddEdge(domain.ConnectRequest{Source: "1", Target: "2", SourceHandle: "b"})
		require.NoError(t, err)

		_, edges := d.Len()
		assert.Equal(t, 3, edges)
	})
}

func TestRemoveNode_Cascades(t *testing.T) {
	d := New()
	require.NoError(t, d.AddNode(action("2", "Send Email")))
	require.NoError(t, d.AddNode(action("3", "HTTP Request")))

	for _, req := range []domain.ConnectRequest{
		{Source: "1", Target: "2"},
		{Source: "2", Target: "3"},
		{Source: "1", Target: "3"},
		{Source: "2", Target: "2"},
	} {
		_, err := d.AddEdge(req)
		require.NoError(t, err)
	}

	removed, err := d.RemoveNode("2")
	require.NoError(t, err)
	assert.Len(t, removed, 3)

	snap := d.Snapshot()
	for _, e := range snap.Edges {
		assert.False(t, e.Touches("2"), "edge %s still references removed node", e.ID)
	}
	require.Len(t, snap.Edges, 1)
	assert.True(t, d.HasEdge(snap.Edges[0].ID), "index must follow the compaction")
	assert.True(t, d.HasNode("3"))

	_, err = d.RemoveNode("2")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestRemoveEdge(t *testing.T) {
	d := New()
	require.NoError(t, d.AddNode(action("2", "Send Email")))
	e1, _ := d.AddEdge(domain.ConnectRequest{Source: "1", Target: "2"})
	e2, _ := d.AddEdge(domain.ConnectRequest{Source: "2", Target: "1"})

	require.NoError(t, d.RemoveEdge(e1.ID))
	assert.False(t, d.HasEdge(e1.ID))
	got, ok := d.Edge(e2.ID)
	require.True(t, ok)
	assert.Equal(t, e2, got)
	assert.True(t, d.HasNode("1"), "no cascade on edge removal")
	assert.True(t, d.HasNode("2"), "no cascade on edge removal")

	assert.ErrorIs(t, d.RemoveEdge(e1.ID), domain.ErrEdgeNotFound)
}

func TestSnapshot_IsImmutableCopy(t *testing.T) {
	d := New()
	snap := d.Snapshot()
	snap.Nodes[0].Label = "mutated"
	snap.Nodes[0].Data["x"] = 1

	n, _ := d.Node(SeedNodeID)
	assert.Equal(t, SeedNodeLabel, n.Label)
	assert.Empty(t, n.Data)
}

func TestNestedPayloadIsNotShared(t *testing.T) {
	nested := map[string]any{"auth": "a"}
	d := New()
	require.NoError(t, d.AddNode(domain.Node{ID: "2", Kind: domain.KindAction, Label: "HTTP Request", Data: domain.NodeData{"headers": nested}}))

	patch := domain.NodeData{"query": []any{map[string]any{"q": "x"}}}
	require.NoError(t, d.UpdateNodeData("2", patch))

	nested["auth"] = "changed"
	patch["query"].([]any)[0].(map[string]any)["q"] = "changed"
	snap := d.Snapshot()
	snap.Nodes[1].Data["headers"].(map[string]any)["auth"] = "changed"

	n, _ := d.Node("2")
	assert.Equal(t, map[string]any{"auth": "a"}, n.Data["headers"])
	assert.Equal(t, []any{map[string]any{"q": "x"}}, n.Data["query"])
}

func TestFromSnapshot_SeedsAboveLoadedIDs(t *testing.T) {
	d, err := FromSnapshot(domain.Snapshot{
		Nodes: []domain.Node{action("4", "a"), action("9", "b")},
		Edges: []domain.Edge{},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(9), d.HighestNumericID())
}

func TestSnapshot_JSONRoundTrip(t *testing.T) {
	d := New()
	require.NoError(t, d.AddNode(domain.Node{ID: "2", Kind: domain.KindCustomCode, Label: "Custom Code", Data: domain.DefaultCodeData().Patch()}))
	_, err := d.AddEdge(domain.ConnectRequest{Source: "1", Target: "2"})
	require.NoError(t, err)

	snap := d.Snapshot()
	data, err := json.Marshal(snap)
	require.NoError(t, err)

	decoded, err := domain.ParseSnapshot(data, domain.FormatJSON)
	require.NoError(t, err)

	rebuilt, err := FromSnapshot(decoded)
	require.NoError(t, err)

	if diff := cmp.Diff(snap, rebuilt.Snapshot()); diff != "" {
		t.Errorf("re-snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestFromSnapshot_RejectsInvalid(t *testing.T) {
	_, err := FromSnapshot(domain.Snapshot{
		Nodes: []domain.Node{action("1", "Send Email")},
		Edges: []domain.Edge{domain.NewEdge(domain.ConnectRequest{Source: "1", Target: "2"})},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidSnapshot)
}

func TestHighestNumericID(t *testing.T) {
	d := NewEmpty()
	assert.Zero(t, d.HighestNumericID())

	require.NoError(t, d.AddNode(action("7", "a")))
	require.NoError(t, d.AddNode(action("12", "b")))
	require.NoError(t, d.AddNode(action("3f2a-uuid", "c")))

	assert.Equal(t, uint64(12), d.HighestNumericID())
}
