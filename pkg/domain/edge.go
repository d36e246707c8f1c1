package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// EdgeIDPrefix marks derived edge ids.
const EdgeIDPrefix = "e-"

// ConnectRequest is emitted by the canvas when the user drags a connection
// from a source handle to a target handle. Handles are optional.
type ConnectRequest struct {
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
}

// Edge is a directed connection Source -> Target.
type Edge struct {
	ID           string `json:"id" yaml:"id"`
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
}

// Request returns the connect request that produces e.
func (e Edge) Request() ConnectRequest {
	return ConnectRequest{
		Source:       e.Source,
		Target:       e.Target,
		SourceHandle: e.SourceHandle,
		TargetHandle: e.TargetHandle,
	}
}

// Touches reports whether nodeID is one of the edge endpoints.
func (e Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

// EdgeID derives the id of the edge created by req.
//
// The id is the hex SHA-256 of the JSON tuple [source, target, sourceHandle, targetHandle],
// truncated to 128 bits. Encoding the tuple as JSON keeps ("ab","c") and ("a","bc") apart.
func EdgeID(req ConnectRequest) string {
	tuple := [4]string{req.Source, req.Target, req.SourceHandle, req.TargetHandle}
	// Marshalling a fixed array of strings cannot fail.
	data, _ := json.Marshal(tuple)
	sum := sha256.Sum256(data)
	return EdgeIDPrefix + hex.EncodeToString(sum[:16])
}

// NewEdge builds the edge record for req with its derived id.
func NewEdge(req ConnectRequest) Edge {
	return Edge{
		ID:           EdgeID(req),
		Source:       req.Source,
		Target:       req.Target,
		SourceHandle: req.SourceHandle,
		TargetHandle: req.TargetHandle,
	}
}
