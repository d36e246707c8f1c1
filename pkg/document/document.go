package document

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/aretw0/flowcanvas/pkg/connection"
	"github.com/aretw0/flowcanvas/pkg/domain"
)

// Seed node of every new document.
const (
	SeedNodeID    = "1"
	SeedNodeLabel = "Webhook"
)

// SeedPosition is where the seed trigger is placed.
var SeedPosition = domain.Position{X: 250, Y: 50}

// Document holds the canonical set of nodes and edges.
// Nodes and edges keep their insertion order.
//
// A Document is not safe for concurrent use; callers serialize access
// (see flowcanvas.Editor).
type Document struct {
	nodes     []domain.Node
	nodeIndex map[string]int
	edges     []domain.Edge
	edgeIndex map[string]int
}

// NewEmpty creates a document without any node.
func NewEmpty() *Document {
	return &Document{
		nodes:     []domain.Node{},
		nodeIndex: make(map[string]int),
		edges:     []domain.Edge{},
		edgeIndex: make(map[string]int),
	}
}

// New creates a document holding only the seed Webhook trigger.
func New() *Document {
	d := NewEmpty()
	// The seed id cannot collide in an empty document.
	_ = d.AddNode(domain.Node{
		ID:       SeedNodeID,
		Kind:     domain.KindTrigger,
		Label:    SeedNodeLabel,
		Position: SeedPosition,
		Data:     domain.NodeData{},
	})
	return d
}

// FromSnapshot rebuilds a document from a validated snapshot.
func FromSnapshot(s domain.Snapshot) (*Document, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	d := NewEmpty()
	for _, n := range s.Nodes {
		if err := d.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, e := range s.Edges {
		d.edgeIndex[e.ID] = len(d.edges)
		d.edges = append(d.edges, e)
	}
	return d, nil
}

// AddNode appends a node. The id must not be in use and the kind must be known.
func (d *Document) AddNode(n domain.Node) error {
	if n.ID == "" {
		return errors.New("node id cannot be empty")
	}
	if _, exists := d.nodeIndex[n.ID]; exists {
		return fmt.Errorf("%w: %q", domain.ErrDuplicateNode, n.ID)
	}
	if !n.Kind.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownKind, n.Kind)
	}
	d.nodeIndex[n.ID] = len(d.nodes)
	d.nodes = append(d.nodes, n.Clone())
	return nil
}

// UpdateNodePosition overwrites the position of a node. Repeating it is harmless.
func (d *Document) UpdateNodePosition(id string, pos domain.Position) error {
	i, ok := d.nodeIndex[id]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrNodeNotFound, id)
	}
	d.nodes[i].Position = pos
	return nil
}

// UpdateNodeData shallow-merges patch into the node payload.
// The node id and kind are never affected.
func (d *Document) UpdateNodeData(id string, patch domain.NodeData) error {
	i, ok := d.nodeIndex[id]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrNodeNotFound, id)
	}
	merged := d.nodes[i].Data.Clone()
	for k, v := range patch.Clone() {
		merged[k] = v
	}
	d.nodes[i].Data = merged
	return nil
}

// RemoveNode deletes a node together with every edge incident to it.
// The removed edges are returned.
func (d *Document) RemoveNode(id string) ([]domain.Edge, error) {
	i, ok := d.nodeIndex[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrNodeNotFound, id)
	}

	d.nodes = append(d.nodes[:i], d.nodes[i+1:]...)
	delete(d.nodeIndex, id)
	for j := i; j < len(d.nodes); j++ {
		d.nodeIndex[d.nodes[j].ID] = j
	}

	var removed []domain.Edge
	kept := d.edges[:0]
	for _, e := range d.edges {
		if e.Touches(id) {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	d.edges = kept
	if len(removed) > 0 {
		d.reindexEdges()
	}
	return removed, nil
}

// AddEdge validates req with the connection rule and appends the resulting edge.
// On failure the document is unchanged.
func (d *Document) AddEdge(req domain.ConnectRequest) (domain.Edge, error) {
	edge, err := connection.Validate(req, d)
	if err != nil {
		return edge, err
	}
	d.edgeIndex[edge.ID] = len(d.edges)
	d.edges = append(d.edges, edge)
	return edge, nil
}

// RemoveEdge deletes a single edge.
func (d *Document) RemoveEdge(id string) error {
	i, ok := d.edgeIndex[id]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrEdgeNotFound, id)
	}
	d.edges = append(d.edges[:i], d.edges[i+1:]...)
	d.reindexEdges()
	return nil
}

func (d *Document) reindexEdges() {
	clear(d.edgeIndex)
	for j, e := range d.edges {
		d.edgeIndex[e.ID] = j
	}
}

// Node returns a copy of the node with the given id.
func (d *Document) Node(id string) (domain.Node, bool) {
	i, ok := d.nodeIndex[id]
	if !ok {
		return domain.Node{}, false
	}
	return d.nodes[i].Clone(), true
}

// Edge returns the edge with the given id.
func (d *Document) Edge(id string) (domain.Edge, bool) {
	i, ok := d.edgeIndex[id]
	if !ok {
		return domain.Edge{}, false
	}
	return d.edges[i], true
}

// HasNode reports whether id is a node of the document.
func (d *Document) HasNode(id string) bool {
	_, ok := d.nodeIndex[id]
	return ok
}

// HasEdge reports whether id is an edge of the document.
func (d *Document) HasEdge(id string) bool {
	_, ok := d.edgeIndex[id]
	return ok
}

// Len returns the number of nodes and edges.
func (d *Document) Len() (nodes, edges int) {
	return len(d.nodes), len(d.edges)
}

// Snapshot returns a deep copy of the document for export.
func (d *Document) Snapshot() domain.Snapshot {
	return domain.Snapshot{Nodes: d.nodes, Edges: d.edges}.Clone()
}

// HighestNumericID returns the largest node id that parses as an unsigned
// integer, or 0. Counters are seeded above it so ids are never reused.
func (d *Document) HighestNumericID() uint64 {
	var highest uint64
	for _, n := range d.nodes {
		if v, err := strconv.ParseUint(n.ID, 10, 64); err == nil && v > highest {
			highest = v
		}
	}
	return highest
}
