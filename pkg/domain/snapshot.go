package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Snapshot is an immutable export of a graph document.
// Edges reference nodes by id only.
type Snapshot struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Nodes: make([]Node, 0, len(s.Nodes)),
		Edges: make([]Edge, 0, len(s.Edges)),
	}
	for _, n := range s.Nodes {
		out.Nodes = append(out.Nodes, n.Clone())
	}
	out.Edges = append(out.Edges, s.Edges...)
	return out
}

// Node looks up a node by id.
func (s Snapshot) Node(id string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Validate checks the structural invariants of the snapshot: unique node ids,
// known kinds, unique edge ids matching their derived id, and edges whose
// endpoints exist. All problems are reported in a single SnapshotError.
func (s Snapshot) Validate() error {
	var problems []string

	nodes := make(map[string]bool, len(s.Nodes))
	for i, n := range s.Nodes {
		switch {
		case n.ID == "":
			problems = append(problems, fmt.Sprintf("node #%d has an empty id", i))
		case nodes[n.ID]:
			problems = append(problems, fmt.Sprintf("node %q is duplicated", n.ID))
		}
		nodes[n.ID] = true
		if !n.Kind.Valid() {
			problems = append(problems, fmt.Sprintf("node %q has unknown kind %q", n.ID, n.Kind))
		}
	}

	edges := make(map[string]bool, len(s.Edges))
	for _, e := range s.Edges {
		if edges[e.ID] {
			problems = append(problems, fmt.Sprintf("edge %q is duplicated", e.ID))
		}
		edges[e.ID] = true
		if want := EdgeID(e.Request()); e.ID != want {
			problems = append(problems, fmt.Sprintf("edge %q does not match its endpoints (want %q)", e.ID, want))
		}
		if !nodes[e.Source] {
			problems = append(problems, fmt.Sprintf("edge %q references unknown source %q", e.ID, e.Source))
		}
		if !nodes[e.Target] {
			problems = append(problems, fmt.Sprintf("edge %q references unknown target %q", e.ID, e.Target))
		}
	}

	if len(problems) > 0 {
		return &SnapshotError{Problems: problems}
	}
	return nil
}

// Format is a serialization format for snapshots.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// MarshalSnapshot encodes the snapshot in the given format.
func MarshalSnapshot(s Snapshot, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return nil, fmt.Errorf("failed to encode snapshot as yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode snapshot as yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON, "":
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode snapshot as json: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("unsupported snapshot format %q", format)
}

// ParseSnapshot decodes a snapshot in the given format.
// Missing node or edge lists decode as empty lists.
func ParseSnapshot(data []byte, format Format) (Snapshot, error) {
	var s Snapshot
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Snapshot{}, fmt.Errorf("failed to parse yaml snapshot: %w", err)
		}
	case FormatJSON, "":
		if err := json.Unmarshal(data, &s); err != nil {
			return Snapshot{}, fmt.Errorf("failed to parse json snapshot: %w", err)
		}
	default:
		return Snapshot{}, fmt.Errorf("unsupported snapshot format %q", format)
	}
	if s.Nodes == nil {
		s.Nodes = []Node{}
	}
	if s.Edges == nil {
		s.Edges = []Edge{}
	}
	for i := range s.Nodes {
		if s.Nodes[i].Data == nil {
			s.Nodes[i].Data = NodeData{}
		}
	}
	return s, nil
}

// Workflow is the persisted record of a document, as written by a WorkflowStore.
type Workflow struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Active      bool      `json:"active" yaml:"active"`
	Graph       Snapshot  `json:"graph" yaml:"graph"`
	// Sealed holds the encrypted record when written by an encrypting store.
	// Name, Description and Graph are empty in that case.
	Sealed      string    `json:"sealed,omitempty" yaml:"sealed,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// Clone returns a copy that shares no graph data with w.
func (w Workflow) Clone() Workflow {
	w.Graph = w.Graph.Clone()
	return w
}
