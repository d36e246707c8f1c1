package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	webhook := Node{ID: "1", Kind: KindTrigger, Label: "Webhook", Position: Position{X: 250, Y: 50}, Data: NodeData{}}
	moved := webhook
	moved.Position = Position{X: 10, Y: 10}
	email := Node{ID: "2", Kind: KindAction, Label: "Send Email", Data: NodeData{}}
	edge := NewEdge(ConnectRequest{Source: "1", Target: "2"})

	tests := []struct {
		name     string
		old      *Snapshot
		new      *Snapshot
		wantDiff *SnapshotDiff // nil means we expect no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  &Snapshot{Nodes: []Node{webhook}},
			wantDiff: &SnapshotDiff{
				WorkflowID: "wf-1",
				AddedNodes: []Node{webhook},
			},
		},
		{
			name:     "No Changes",
			old:      &Snapshot{Nodes: []Node{webhook}},
			new:      &Snapshot{Nodes: []Node{webhook}},
			wantDiff: nil,
		},
		{
			name: "Node Moved",
			old:  &Snapshot{Nodes: []Node{webhook}},
			new:  &Snapshot{Nodes: []Node{moved}},
			wantDiff: &SnapshotDiff{
				WorkflowID:   "wf-1",
				UpdatedNodes: []Node{moved},
			},
		},
		{
			name: "Node And Edge Added",
			old:  &Snapshot{Nodes: []Node{webhook}},
			new:  &Snapshot{Nodes: []Node{webhook, email}, Edges: []Edge{edge}},
			wantDiff: &SnapshotDiff{
				WorkflowID: "wf-1",
				AddedNodes: []Node{email},
				AddedEdges: []Edge{edge},
			},
		},
		{
			name: "Cascading Removal",
			old:  &Snapshot{Nodes: []Node{webhook, email}, Edges: []Edge{edge}},
			new:  &Snapshot{Nodes: []Node{webhook}},
			wantDiff: &SnapshotDiff{
				WorkflowID:   "wf-1",
				RemovedNodes: []string{"2"},
				RemovedEdges: []string{edge.ID},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff("wf-1", tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %v, want nil", got)
				}
				return
			}

			if got == nil {
				t.Fatalf("Diff() = nil, want %v", tt.wantDiff)
			}
			if !reflect.DeepEqual(got, tt.wantDiff) {
				t.Errorf("Diff() = %+v, want %+v", got, tt.wantDiff)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Empty Lists Omitted", func(t *testing.T) {
		diff := Diff("wf-1", &Snapshot{}, &Snapshot{Nodes: []Node{{ID: "1", Kind: KindTrigger}}})
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if strings.Contains(string(bytes), `"removed_nodes"`) {
			t.Errorf("JSON should not contain 'removed_nodes' when empty, got: %s", string(bytes))
		}
		if !strings.Contains(string(bytes), `"added_nodes"`) {
			t.Errorf("JSON should contain 'added_nodes', got: %s", string(bytes))
		}
	})

	t.Run("Nil New Snapshot", func(t *testing.T) {
		if diff := Diff("wf-1", &Snapshot{}, nil); diff != nil {
			t.Errorf("Diff() with nil new snapshot = %v, want nil", diff)
		}
	})
}
