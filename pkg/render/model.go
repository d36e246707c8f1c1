// Package render defines the contract between the editing core and a canvas.
//
// The core hands out a Model (positioned nodes, edges, per-node display
// metadata) and accepts gesture events back. Renderers never mutate the
// document themselves.
package render

import (
	"context"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/registry"
)

// HandleType is the direction of a connection point.
type HandleType string

const (
	HandleSource HandleType = "source"
	HandleTarget HandleType = "target"
)

// Side is where a handle sits on the node box.
type Side string

const (
	SideTop    Side = "top"
	SideBottom Side = "bottom"
)

// Handle is a connection point of a node.
type Handle struct {
	Type HandleType `json:"type"`
	Side Side       `json:"side"`
}

// ActionSubtitle is shown under action node labels.
const ActionSubtitle = "Click to configure"

// NodeView is a node ready to be drawn.
type NodeView struct {
	ID         string          `json:"id"`
	Kind       domain.NodeKind `json:"kind"`
	Label      string          `json:"label"`
	Position   domain.Position `json:"position"`
	Icon       string          `json:"icon"`
	ColorClass string          `json:"colorClass"`
	Subtitle   string          `json:"subtitle,omitempty"`
	Handles    []Handle        `json:"handles"`
	Editable   bool            `json:"editable"`
	Data       domain.NodeData `json:"data"`
}

// EdgeView is an edge ready to be drawn.
type EdgeView struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Model is the full render model of a document.
type Model struct {
	Nodes []NodeView `json:"nodes"`
	Edges []EdgeView `json:"edges"`
}

// Adapter draws a Model on some surface (browser canvas, terminal, diagram text).
type Adapter interface {
	Render(ctx context.Context, m Model) error
}

// Build derives the render model of a snapshot. Display metadata comes from reg.
func Build(s domain.Snapshot, reg *registry.Registry) Model {
	if reg == nil {
		reg = registry.New()
	}
	m := Model{
		Nodes: make([]NodeView, 0, len(s.Nodes)),
		Edges: make([]EdgeView, 0, len(s.Edges)),
	}
	for _, n := range s.Nodes {
		m.Nodes = append(m.Nodes, buildNode(n, reg))
	}
	for _, e := range s.Edges {
		m.Edges = append(m.Edges, EdgeView{
			ID:           e.ID,
			Source:       e.Source,
			Target:       e.Target,
			SourceHandle: e.SourceHandle,
			TargetHandle: e.TargetHandle,
		})
	}
	return m
}

func buildNode(n domain.Node, reg *registry.Registry) NodeView {
	entry := reg.Resolve(n.Kind, n.Label)
	v := NodeView{
		ID:         n.ID,
		Kind:       n.Kind,
		Label:      n.Label,
		Position:   n.Position,
		Icon:       entry.Icon,
		ColorClass: entry.ColorClass,
		Handles:    Handles(n.Kind),
		Editable:   entry.Editor == registry.EditorCode,
		Data:       n.Data.Clone(),
	}
	switch {
	case v.Editable:
		v.Subtitle = n.Code().Language.DisplayName()
	case n.Kind == domain.KindAction:
		v.Subtitle = ActionSubtitle
	}
	return v
}

// Handles returns the connection points of a kind.
// Triggers only start edges; other kinds take input on top and output at the bottom.
func Handles(kind domain.NodeKind) []Handle {
	if kind == domain.KindTrigger {
		return []Handle{{Type: HandleSource, Side: SideBottom}}
	}
	return []Handle{
		{Type: HandleTarget, Side: SideTop},
		{Type: HandleSource, Side: SideBottom},
	}
}
