package domain

import (
	"reflect"
)

// SnapshotDiff represents the changes between two snapshots of a document.
// It is designed to be serialized to JSON for partial updates on the canvas.
type SnapshotDiff struct {
	// WorkflowID identifies the target document.
	WorkflowID string `json:"workflow_id"`

	// AddedNodes and UpdatedNodes carry full node records.
	AddedNodes   []Node `json:"added_nodes,omitempty"`
	UpdatedNodes []Node `json:"updated_nodes,omitempty"`
	// RemovedNodes carries ids only.
	RemovedNodes []string `json:"removed_nodes,omitempty"`

	AddedEdges   []Edge   `json:"added_edges,omitempty"`
	RemovedEdges []string `json:"removed_edges,omitempty"`
}

// Diff calculates the difference between oldSnap and newSnap.
// If oldSnap is nil, it returns a diff representing the entire newSnap (initial load).
// It returns nil when nothing changed.
func Diff(workflowID string, oldSnap, newSnap *Snapshot) *SnapshotDiff {
	if newSnap == nil {
		return nil
	}
	if oldSnap == nil {
		oldSnap = &Snapshot{}
	}

	diff := &SnapshotDiff{WorkflowID: workflowID}

	oldNodes := make(map[string]Node, len(oldSnap.Nodes))
	for _, n := range oldSnap.Nodes {
		oldNodes[n.ID] = n
	}
	newNodes := make(map[string]bool, len(newSnap.Nodes))
	for _, n := range newSnap.Nodes {
		newNodes[n.ID] = true
		prev, exists := oldNodes[n.ID]
		switch {
		case !exists:
			diff.AddedNodes = append(diff.AddedNodes, n)
		case !reflect.DeepEqual(prev, n):
			diff.UpdatedNodes = append(diff.UpdatedNodes, n)
		}
	}
	for _, n := range oldSnap.Nodes {
		if !newNodes[n.ID] {
			diff.RemovedNodes = append(diff.RemovedNodes, n.ID)
		}
	}

	// Edges are immutable: an id either exists on both sides or it does not.
	oldEdges := make(map[string]bool, len(oldSnap.Edges))
	for _, e := range oldSnap.Edges {
		oldEdges[e.ID] = true
	}
	newEdges := make(map[string]bool, len(newSnap.Edges))
	for _, e := range newSnap.Edges {
		newEdges[e.ID] = true
		if !oldEdges[e.ID] {
			diff.AddedEdges = append(diff.AddedEdges, e)
		}
	}
	for _, e := range oldSnap.Edges {
		if !newEdges[e.ID] {
			diff.RemovedEdges = append(diff.RemovedEdges, e.ID)
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return len(d.AddedNodes) == 0 &&
		len(d.UpdatedNodes) == 0 &&
		len(d.RemovedNodes) == 0 &&
		len(d.AddedEdges) == 0 &&
		len(d.RemovedEdges) == 0
}
