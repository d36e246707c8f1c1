package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeAdded     EventType = "node_added"
	EventNodeMoved     EventType = "node_moved"
	EventNodeUpdated   EventType = "node_updated"
	EventNodeRemoved   EventType = "node_removed"
	EventEdgeAdded     EventType = "edge_added"
	EventEdgeRemoved   EventType = "edge_removed"
	EventEdgeRejected  EventType = "edge_rejected"
	EventEditorOpened  EventType = "editor_opened"
	EventEditorSaved   EventType = "editor_saved"
	EventEditorDropped EventType = "editor_discarded"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// NodeEvent reports a change to a node.
type NodeEvent struct {
	EventBase
	NodeID string   `json:"node_id"`
	Kind   NodeKind `json:"kind"`
	Label  string   `json:"label,omitempty"`
	// Cascaded lists the edges removed together with the node.
	Cascaded []Edge `json:"cascaded,omitempty"`
}

// EdgeEvent reports an accepted, removed or rejected connection.
type EdgeEvent struct {
	EventBase
	Edge Edge `json:"edge"`
	// Reason is set on rejections (ErrUnknownEndpoint or ErrDuplicateEdge).
	Reason error `json:"-"`
}

// EditorEvent reports a transition of the code dialog.
type EditorEvent struct {
	EventBase
	NodeID   string   `json:"node_id"`
	Language Language `json:"language,omitempty"`
}

// LifecycleHooks defines callbacks for editor observability.
// Any hook may be nil.
type LifecycleHooks struct {
	OnNodeAdded    func(context.Context, *NodeEvent)
	OnNodeMoved    func(context.Context, *NodeEvent)
	OnNodeUpdated  func(context.Context, *NodeEvent)
	OnNodeRemoved  func(context.Context, *NodeEvent)
	OnEdgeAdded    func(context.Context, *EdgeEvent)
	OnEdgeRemoved  func(context.Context, *EdgeEvent)
	OnEdgeRejected func(context.Context, *EdgeEvent)
	OnEditor       func(context.Context, *EditorEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeAdded:    chain(h.OnNodeAdded, other.OnNodeAdded),
		OnNodeMoved:    chain(h.OnNodeMoved, other.OnNodeMoved),
		OnNodeUpdated:  chain(h.OnNodeUpdated, other.OnNodeUpdated),
		OnNodeRemoved:  chain(h.OnNodeRemoved, other.OnNodeRemoved),
		OnEdgeAdded:    chain(h.OnEdgeAdded, other.OnEdgeAdded),
		OnEdgeRemoved:  chain(h.OnEdgeRemoved, other.OnEdgeRemoved),
		OnEdgeRejected: chain(h.OnEdgeRejected, other.OnEdgeRejected),
		OnEditor:       chain(h.OnEditor, other.OnEditor),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
