package dsl

import (
	"fmt"

	"github.com/aretw0/flowcanvas"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/registry"
)

// Builder manages the graph construction. Nodes keep their insertion order.
type Builder struct {
	registry *registry.Registry
	order    []string
	nodes    map[string]*NodeBuilder
}

// New creates a new graph builder using the built-in registry for defaults.
func New() *Builder {
	return NewWithRegistry(registry.New())
}

// NewWithRegistry creates a builder taking default labels and payloads from reg.
func NewWithRegistry(reg *registry.Registry) *Builder {
	return &Builder{
		registry: reg,
		nodes:    make(map[string]*NodeBuilder),
	}
}

// Add creates a new node of the given kind.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string, kind domain.NodeKind) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.Node{
			ID:    id,
			Kind:  kind,
			Label: b.registry.DefaultLabel(kind),
			Data:  b.registry.Defaults(kind),
		},
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Trigger adds a trigger node. An empty label keeps the default label.
func (b *Builder) Trigger(id, label string) *NodeBuilder {
	return b.Add(id, domain.KindTrigger).Label(label)
}

// Action adds an action node. The label selects its icon and color.
func (b *Builder) Action(id, label string) *NodeBuilder {
	return b.Add(id, domain.KindAction).Label(label)
}

// Code adds a custom code node holding the default snippet.
func (b *Builder) Code(id string) *NodeBuilder {
	return b.Add(id, domain.KindCustomCode)
}

// Build compiles the graph into a validated snapshot.
// Identical connections declared twice produce a single edge.
func (b *Builder) Build() (domain.Snapshot, error) {
	snap := domain.Snapshot{
		Nodes: make([]domain.Node, 0, len(b.order)),
		Edges: []domain.Edge{},
	}
	seen := make(map[string]bool)
	for _, id := range b.order {
		nb := b.nodes[id]
		snap.Nodes = append(snap.Nodes, nb.Build())
		for _, req := range nb.edges {
			edge := domain.NewEdge(req)
			if seen[edge.ID] {
				continue
			}
			seen[edge.ID] = true
			snap.Edges = append(snap.Edges, edge)
		}
	}

	if err := snap.Validate(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to build graph: %w", err)
	}
	return snap, nil
}

// Editor builds the graph and opens an editor on it. The builder registry is
// used unless opts replace it.
func (b *Builder) Editor(opts ...flowcanvas.Option) (*flowcanvas.Editor, error) {
	snap, err := b.Build()
	if err != nil {
		return nil, err
	}
	base := []flowcanvas.Option{flowcanvas.WithRegistry(b.registry), flowcanvas.WithSnapshot(snap)}
	return flowcanvas.New(append(base, opts...)...)
}
