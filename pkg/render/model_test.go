package render

import (
	"testing"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot() domain.Snapshot {
	return domain.Snapshot{
		Nodes: []domain.Node{
			{ID: "1", Kind: domain.KindTrigger, Label: "Webhook", Position: domain.Position{X: 250, Y: 50}, Data: domain.NodeData{}},
			{ID: "2", Kind: domain.KindAction, Label: "Send Email", Data: domain.NodeData{}},
			{ID: "3", Kind: domain.KindCustomCode, Label: "Custom Code", Data: domain.NodeData{domain.KeyLanguage: "python"}},
			{ID: "4", Kind: domain.KindAction, Label: "Fax", Data: domain.NodeData{}},
		},
		Edges: []domain.Edge{domain.NewEdge(domain.ConnectRequest{Source: "1", Target: "2"})},
	}
}

func TestBuild(t *testing.T) {
	m := Build(snapshot(), registry.New())
	require.Len(t, m.Nodes, 4)
	require.Len(t, m.Edges, 1)

	trigger := m.Nodes[0]
	assert.Equal(t, "webhook", trigger.Icon)
	assert.Equal(t, []Handle{{Type: HandleSource, Side: SideBottom}}, trigger.Handles)
	assert.Empty(t, trigger.Subtitle)
	assert.False(t, trigger.Editable)

	action := m.Nodes[1]
	assert.Equal(t, "mail", action.Icon)
	assert.Equal(t, ActionSubtitle, action.Subtitle)
	assert.Len(t, action.Handles, 2)

	code := m.Nodes[2]
	assert.True(t, code.Editable)
	assert.Equal(t, "Python", code.Subtitle)
	assert.Equal(t, "code", code.Icon)

	unknown := m.Nodes[3]
	assert.Equal(t, registry.DefaultIcon, unknown.Icon)
	assert.Equal(t, registry.DefaultColor, unknown.ColorClass)

	assert.Equal(t, "1", m.Edges[0].Source)
	assert.Equal(t, "2", m.Edges[0].Target)
}

func TestBuild_DoesNotAliasSnapshot(t *testing.T) {
	s := snapshot()
	m := Build(s, nil)
	m.Nodes[2].Data[domain.KeyLanguage] = "javascript"
	assert.Equal(t, "python", s.Nodes[2].Data[domain.KeyLanguage])
}

func TestDecodeEvents(t *testing.T) {
	data := []byte(`[
		{"type": "position", "id": "2", "position": {"x": 10, "y": 20}},
		{"type": "connect", "source": "1", "target": "2", "sourceHandle": "out"},
		{"type": "remove_edge", "id": "e-abc"},
		{"type": "remove_node", "id": "2"}
	]`)

	events, err := DecodeEvents(data)
	require.NoError(t, err)
	require.Len(t, events, 4)

	assert.Equal(t, PositionChange{NodeID: "2", Position: domain.Position{X: 10, Y: 20}}, events[0])
	assert.Equal(t, Connect{domain.ConnectRequest{Source: "1", Target: "2", SourceHandle: "out"}}, events[1])
	assert.Equal(t, EdgeRemoval{EdgeID: "e-abc"}, events[2])
	assert.Equal(t, NodeRemoval{NodeID: "2"}, events[3])
}

func TestDecodeEvents_Errors(t *testing.T) {
	_, err := DecodeEvents([]byte(`{"type": "position"}`))
	assert.Error(t, err)

	_, err = DecodeEvents([]byte(`[{"type": "zoom"}]`))
	assert.ErrorContains(t, err, "unknown type")
}
