package render

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// EventType names a gesture event on the wire.
type EventType string

const (
	EventPosition    EventType = "position"
	EventConnect     EventType = "connect"
	EventNodeRemoval EventType = "remove_node"
	EventEdgeRemoval EventType = "remove_edge"
)

// Event is a gesture reported by a renderer. Events are applied in arrival order.
type Event interface {
	Type() EventType
}

// PositionChange reports a node drag. Applying the same change twice is harmless.
type PositionChange struct {
	NodeID   string          `json:"id"`
	Position domain.Position `json:"position"`
	// Dragging is true for intermediate positions of an ongoing drag.
	Dragging bool `json:"dragging,omitempty"`
}

func (PositionChange) Type() EventType { return EventPosition }

// Connect reports a connection gesture between two handles.
type Connect struct {
	domain.ConnectRequest
}

func (Connect) Type() EventType { return EventConnect }

// NodeRemoval reports a node deletion (e.g. the Delete key on a selection).
type NodeRemoval struct {
	NodeID string `json:"id"`
}

func (NodeRemoval) Type() EventType { return EventNodeRemoval }

// EdgeRemoval reports an edge deletion.
type EdgeRemoval struct {
	EdgeID string `json:"id"`
}

func (EdgeRemoval) Type() EventType { return EventEdgeRemoval }

// envelope is the wire form of an event: {"type": "...", ...fields}.
type envelope struct {
	Type EventType `json:"type"`
}

// DecodeEvents parses a JSON array of typed events.
func DecodeEvents(data []byte) ([]Event, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	events := make([]Event, 0, len(raws))
	for i, raw := range raws {
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("event #%d: %w", i, err)
		}

		var (
			ev  Event
			err error
		)
		switch env.Type {
		case EventPosition:
			var e PositionChange
			err = json.Unmarshal(raw, &e)
			ev = e
		case EventConnect:
			var e Connect
			err = json.Unmarshal(raw, &e)
			ev = e
		case EventNodeRemoval:
			var e NodeRemoval
			err = json.Unmarshal(raw, &e)
			ev = e
		case EventEdgeRemoval:
			var e EdgeRemoval
			err = json.Unmarshal(raw, &e)
			ev = e
		default:
			return nil, fmt.Errorf("event #%d: unknown type %q", i, env.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("event #%d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}
