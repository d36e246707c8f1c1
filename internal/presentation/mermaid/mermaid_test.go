package mermaid_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/flowcanvas/internal/presentation/mermaid"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/registry"
	"github.com/aretw0/flowcanvas/pkg/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func model(nodes []domain.Node, edges ...domain.Edge) render.Model {
	if edges == nil {
		edges = []domain.Edge{}
	}
	return render.Build(domain.Snapshot{Nodes: nodes, Edges: edges}, registry.New())
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		model    render.Model
		overlay  *mermaid.Overlay
		contains []string
	}{
		{
			name:     "Trigger Shape",
			model:    model([]domain.Node{{ID: "1", Kind: domain.KindTrigger, Label: "Webhook"}}),
			contains: []string{`n1(("Webhook"))`, "class n1 trigger;"},
		},
		{
			name: "Code Shape With Language",
			model: model([]domain.Node{{ID: "c", Kind: domain.KindCustomCode, Label: "Custom Code",
				Data: domain.NodeData{domain.KeyLanguage: "python"}}}),
			contains: []string{`c[["Custom Code <br/> Python"]]`},
		},
		{
			name:     "Action Shape And Quote Escaping",
			model:    model([]domain.Node{{ID: "a-1", Kind: domain.KindAction, Label: `Say "hi"`}}),
			contains: []string{`a_1["Say 'hi'"]`},
		},
		{
			name: "Edges",
			model: model(
				[]domain.Node{
					{ID: "1", Kind: domain.KindTrigger, Label: "Webhook"},
					{ID: "2", Kind: domain.KindAction, Label: "Send Email"},
				},
				domain.NewEdge(domain.ConnectRequest{Source: "1", Target: "2"}),
				domain.NewEdge(domain.ConnectRequest{Source: "1", Target: "2", SourceHandle: "out", TargetHandle: "in"}),
			),
			contains: []string{"n1 --> n2", `n1 -- "out -> in" --> n2`},
		},
		{
			name:     "Overlay",
			model:    model([]domain.Node{{ID: "x", Kind: domain.KindAction, Label: "HTTP Request"}}),
			overlay:  &mermaid.Overlay{Selected: []string{"x", "x"}, Editing: "x"},
			contains: []string{"class x selected;", "class x editing;"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mermaid.Generate(tt.model, tt.overlay)
			assert.True(t, strings.HasPrefix(got, "graph TD\n"))
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
		})
	}
}

func TestGenerate_OverlayDeduplicates(t *testing.T) {
	got := mermaid.Generate(model([]domain.Node{{ID: "x", Kind: domain.KindAction}}), &mermaid.Overlay{Selected: []string{"x", "x"}})
	assert.Equal(t, 1, strings.Count(got, "class x selected;"))
}

func TestAdapter(t *testing.T) {
	var buf bytes.Buffer
	var a render.Adapter = mermaid.Adapter{W: &buf}

	m := model([]domain.Node{{ID: "1", Kind: domain.KindTrigger, Label: "Webhook"}})
	require.NoError(t, a.Render(context.Background(), m))
	assert.Contains(t, buf.String(), "graph TD")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, a.Render(ctx, m), context.Canceled)
}
