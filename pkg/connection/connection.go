// Package connection implements the rule that turns canvas connect gestures into edges.
package connection

import (
	"fmt"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// Graph is the read-only view of a document the rule needs.
type Graph interface {
	HasNode(id string) bool
	HasEdge(id string) bool
}

// Validate checks req against g and returns the edge record to insert.
//
// It fails with domain.ErrUnknownEndpoint when the source or the target is
// not a node of g, and with domain.ErrDuplicateEdge when an edge with the
// same derived id already exists. Self-loops, and parallel edges that differ
// by handle, are accepted.
func Validate(req domain.ConnectRequest, g Graph) (domain.Edge, error) {
	if !g.HasNode(req.Source) {
		return domain.Edge{}, fmt.Errorf("%w: source %q", domain.ErrUnknownEndpoint, req.Source)
	}
	if !g.HasNode(req.Target) {
		return domain.Edge{}, fmt.Errorf("%w: target %q", domain.ErrUnknownEndpoint, req.Target)
	}

	edge := domain.NewEdge(req)
	if g.HasEdge(edge.ID) {
		return edge, fmt.Errorf("%w: %s", domain.ErrDuplicateEdge, edge.ID)
	}
	return edge, nil
}
