package flowcanvas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/pkg/codeeditor"
	"github.com/aretw0/flowcanvas/pkg/document"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/factory"
	"github.com/aretw0/flowcanvas/pkg/registry"
	"github.com/aretw0/flowcanvas/pkg/render"
	"github.com/aretw0/flowcanvas/pkg/sanitize"
)

// Version of the flowcanvas library and CLI.
const Version = "0.4.0"

// Editor is the high-level entry point of the library.
// It owns one graph document and serializes every operation on it: events are
// applied one at a time, in arrival order.
//
// Lifecycle hooks run synchronously while the editor lock is held; they must
// not call back into the Editor.
type Editor struct {
	mu sync.Mutex

	doc      *document.Document
	registry *registry.Registry
	factory  *factory.Factory
	dialog   *codeeditor.Controller

	ids      factory.IDGenerator
	rng      factory.RandSource
	box      *factory.Box
	snapshot *domain.Snapshot
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithLogger sets a custom structured logger for the editor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithRegistry replaces the built-in node type registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Editor) {
		e.registry = reg
	}
}

// WithIDGenerator replaces the default node id counter.
func WithIDGenerator(ids factory.IDGenerator) Option {
	return func(e *Editor) {
		e.ids = ids
	}
}

// WithRandSource injects the random source used to place new nodes.
func WithRandSource(rng factory.RandSource) Option {
	return func(e *Editor) {
		e.rng = rng
	}
}

// WithPlacement replaces the box new nodes are placed in.
func WithPlacement(box factory.Box) Option {
	return func(e *Editor) {
		e.box = &box
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Editor) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithSnapshot starts the editor from an existing snapshot instead of the seed document.
func WithSnapshot(s domain.Snapshot) Option {
	return func(e *Editor) {
		e.snapshot = &s
	}
}

// New initializes an Editor. Without WithSnapshot the document holds only the
// seed Webhook trigger.
func New(opts ...Option) (*Editor, error) {
	e := &Editor{}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.registry == nil {
		e.registry = registry.New()
	}

	if e.snapshot != nil {
		doc, err := document.FromSnapshot(*e.snapshot)
		if err != nil {
			return nil, err
		}
		e.doc = doc
		e.snapshot = nil
	} else {
		e.doc = document.New()
	}

	if e.ids == nil {
		// Ids already present in the document are never handed out again.
		// A counter cannot go above the largest uint64, so uuids take over.
		if highest := e.doc.HighestNumericID(); highest == math.MaxUint64 {
			e.ids = factory.UUID{}
		} else {
			e.ids = factory.NewCounter(highest + 1)
		}
	}
	factoryOpts := []factory.Option{factory.WithIDGenerator(e.ids)}
	if e.rng != nil {
		factoryOpts = append(factoryOpts, factory.WithRandSource(e.rng))
	}
	if e.box != nil {
		factoryOpts = append(factoryOpts, factory.WithBox(*e.box))
	}
	e.factory = factory.New(e.registry, factoryOpts...)
	e.dialog = codeeditor.New(e.doc, e.registry, codeeditor.WithLogger(e.logger))

	return e, nil
}

// Registry returns the node type registry used by the editor.
func (e *Editor) Registry() *registry.Registry {
	return e.registry
}

// Palette lists the node types the user can add.
func (e *Editor) Palette() []registry.PaletteItem {
	return e.registry.Palette()
}

// AddNode creates a node of the given kind through the factory and appends it
// to the document. An empty label uses the default label of the kind.
func (e *Editor) AddNode(ctx context.Context, kind domain.NodeKind, label string, vp factory.Viewport) (domain.Node, error) {
	clean, err := sanitize.Label(label)
	if err != nil {
		return domain.Node{}, fmt.Errorf("invalid label: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	node, err := e.factory.Create(kind, clean, vp)
	if err != nil {
		return domain.Node{}, err
	}
	if err := e.doc.AddNode(node); err != nil {
		// A custom id generator may collide with nodes loaded from a snapshot.
		return domain.Node{}, err
	}

	e.logger.Debug("node added", "node_id", node.ID, "kind", node.Kind, "label", node.Label)
	if e.hooks.OnNodeAdded != nil {
		e.hooks.OnNodeAdded(ctx, &domain.NodeEvent{
			EventBase: newBase(domain.EventNodeAdded),
			NodeID:    node.ID,
			Kind:      node.Kind,
			Label:     node.Label,
		})
	}
	return node, nil
}

// MoveNode overwrites the position of a node. Repeated moves to the same
// position are harmless.
func (e *Editor) MoveNode(ctx context.Context, id string, pos domain.Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.moveNode(ctx, id, pos)
}

func (e *Editor) moveNode(ctx context.Context, id string, pos domain.Position) error {
	if err := e.doc.UpdateNodePosition(id, pos); err != nil {
		e.logger.Warn("move ignored", "node_id", id, "err", err)
		return err
	}
	if e.hooks.OnNodeMoved != nil {
		node, _ := e.doc.Node(id)
		e.hooks.OnNodeMoved(ctx, &domain.NodeEvent{
			EventBase: newBase(domain.EventNodeMoved),
			NodeID:    id,
			Kind:      node.Kind,
			Label:     node.Label,
		})
	}
	return nil
}

// UpdateNodeData merges patch into the node payload. Nested values are copied,
// so the caller keeps no handle on the stored payload. A "code" entry must be
// a string accepted by the code sanitizer and a "language" entry a supported
// language.
func (e *Editor) UpdateNodeData(ctx context.Context, id string, patch domain.NodeData) error {
	clean, err := checkPatch(patch)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.updateNodeData(ctx, id, clean)
}

// UpdateNode moves a node and merges a payload patch as one change. A nil
// position or an empty patch leaves that part alone. Nothing is applied when
// either part is rejected.
func (e *Editor) UpdateNode(ctx context.Context, id string, pos *domain.Position, patch domain.NodeData) error {
	clean, err := checkPatch(patch)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.doc.HasNode(id) {
		err := fmt.Errorf("%w: %q", domain.ErrNodeNotFound, id)
		e.logger.Warn("update ignored", "node_id", id, "err", err)
		return err
	}
	if pos != nil {
		if err := e.moveNode(ctx, id, *pos); err != nil {
			return err
		}
	}
	if len(clean) > 0 {
		return e.updateNodeData(ctx, id, clean)
	}
	return nil
}

func (e *Editor) updateNodeData(ctx context.Context, id string, patch domain.NodeData) error {
	if err := e.doc.UpdateNodeData(id, patch); err != nil {
		e.logger.Warn("update ignored", "node_id", id, "err", err)
		return err
	}
	e.fireNodeUpdated(ctx, id)
	return nil
}

// checkPatch copies patch and validates the entries owned by the code dialog.
func checkPatch(patch domain.NodeData) (domain.NodeData, error) {
	patch = patch.Clone()
	if raw, ok := patch[domain.KeyCode]; ok {
		code, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a string, got %T", domain.ErrInvalidPayload, domain.KeyCode, raw)
		}
		clean, err := sanitize.Code(code)
		if err != nil {
			return nil, fmt.Errorf("invalid code: %w", err)
		}
		patch[domain.KeyCode] = clean
	}
	if raw, ok := patch[domain.KeyLanguage]; ok {
		var name string
		switch v := raw.(type) {
		case string:
			name = v
		case domain.Language:
			name = string(v)
		default:
			return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedLanguage, raw)
		}
		lang, err := domain.ParseLanguage(name)
		if err != nil {
			return nil, err
		}
		patch[domain.KeyLanguage] = string(lang)
	}
	return patch, nil
}

// RemoveNode deletes a node and every edge incident to it. If the code dialog
// is editing the node, its draft is discarded.
func (e *Editor) RemoveNode(ctx context.Context, id string) ([]domain.Edge, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.removeNode(ctx, id)
}

func (e *Editor) removeNode(ctx context.Context, id string) ([]domain.Edge, error) {
	node, _ := e.doc.Node(id)
	removed, err := e.doc.RemoveNode(id)
	if err != nil {
		e.logger.Warn("remove ignored", "node_id", id, "err", err)
		return nil, err
	}

	if e.dialog.Discard(id) {
		e.logger.Info("draft discarded, node removed", "node_id", id)
		e.fireEditor(ctx, domain.EventEditorDropped, id, "")
	}

	e.logger.Debug("node removed", "node_id", id, "cascaded_edges", len(removed))
	if e.hooks.OnNodeRemoved != nil {
		e.hooks.OnNodeRemoved(ctx, &domain.NodeEvent{
			EventBase: newBase(domain.EventNodeRemoved),
			NodeID:    id,
			Kind:      node.Kind,
			Label:     node.Label,
			Cascaded:  removed,
		})
	}
	if e.hooks.OnEdgeRemoved != nil {
		for _, edge := range removed {
			e.hooks.OnEdgeRemoved(ctx, &domain.EdgeEvent{
				EventBase: newBase(domain.EventEdgeRemoved),
				Edge:      edge,
			})
		}
	}
	return removed, nil
}

// Connect adds the edge described by req.
//
// Connecting the same handles twice is absorbed: the existing edge is returned
// with created=false and a nil error. Unknown endpoints are rejected with
// ErrUnknownEndpoint and leave the document unchanged.
func (e *Editor) Connect(ctx context.Context, req domain.ConnectRequest) (edge domain.Edge, created bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connect(ctx, req)
}

func (e *Editor) connect(ctx context.Context, req domain.ConnectRequest) (domain.Edge, bool, error) {
	edge, err := e.doc.AddEdge(req)
	if err != nil {
		e.logger.Debug("connection rejected", "source", req.Source, "target", req.Target, "err", err)
		if e.hooks.OnEdgeRejected != nil {
			e.hooks.OnEdgeRejected(ctx, &domain.EdgeEvent{
				EventBase: newBase(domain.EventEdgeRejected),
				Edge:      domain.NewEdge(req),
				Reason:    err,
			})
		}
		if errors.Is(err, domain.ErrDuplicateEdge) {
			existing, _ := e.doc.Edge(edge.ID)
			return existing, false, nil
		}
		return domain.Edge{}, false, err
	}

	e.logger.Debug("edge added", "edge_id", edge.ID, "source", edge.Source, "target", edge.Target)
	if e.hooks.OnEdgeAdded != nil {
		e.hooks.OnEdgeAdded(ctx, &domain.EdgeEvent{
			EventBase: newBase(domain.EventEdgeAdded),
			Edge:      edge,
		})
	}
	return edge, true, nil
}

// RemoveEdge deletes one edge. Its endpoints are untouched.
func (e *Editor) RemoveEdge(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.removeEdge(ctx, id)
}

func (e *Editor) removeEdge(ctx context.Context, id string) error {
	edge, _ := e.doc.Edge(id)
	if err := e.doc.RemoveEdge(id); err != nil {
		e.logger.Warn("edge removal ignored", "edge_id", id, "err", err)
		return err
	}
	if e.hooks.OnEdgeRemoved != nil {
		e.hooks.OnEdgeRemoved(ctx, &domain.EdgeEvent{
			EventBase: newBase(domain.EventEdgeRemoved),
			Edge:      edge,
		})
	}
	return nil
}

// OpenEditor opens the code dialog on a node. A draft open on another node is discarded.
func (e *Editor) OpenEditor(ctx context.Context, nodeID string) (codeeditor.Draft, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	previous, hadDraft := e.dialog.Draft()
	draft, err := e.dialog.Open(nodeID)
	if err != nil {
		e.logger.Warn("editor not opened", "node_id", nodeID, "err", err)
		return codeeditor.Draft{}, err
	}
	if hadDraft {
		e.fireEditor(ctx, domain.EventEditorDropped, previous.NodeID, previous.Language)
	}
	e.fireEditor(ctx, domain.EventEditorOpened, nodeID, draft.Language)
	return draft, nil
}

// SetDraftCode replaces the code of the open draft.
func (e *Editor) SetDraftCode(code string) error {
	clean, err := sanitize.Code(code)
	if err != nil {
		return fmt.Errorf("invalid code: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.logTransition(e.dialog.SetCode(clean))
}

// SetDraftLanguage replaces the language of the open draft.
func (e *Editor) SetDraftLanguage(lang domain.Language) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.logTransition(e.dialog.SetLanguage(lang))
}

// SaveEditor writes the draft to its node and closes the dialog.
func (e *Editor) SaveEditor(ctx context.Context) (codeeditor.Draft, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	draft, err := e.dialog.Save()
	if err != nil {
		if errors.Is(err, domain.ErrNodeNotFound) {
			e.logger.Warn("draft dropped, node removed", "node_id", draft.NodeID)
			e.fireEditor(ctx, domain.EventEditorDropped, draft.NodeID, draft.Language)
			return draft, err
		}
		return draft, e.logTransition(err)
	}

	e.fireEditor(ctx, domain.EventEditorSaved, draft.NodeID, draft.Language)
	e.fireNodeUpdated(ctx, draft.NodeID)
	return draft, nil
}

// CancelEditor closes the dialog without touching the document.
func (e *Editor) CancelEditor(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	draft, err := e.dialog.Cancel()
	if err != nil {
		return e.logTransition(err)
	}
	e.fireEditor(ctx, domain.EventEditorDropped, draft.NodeID, draft.Language)
	return nil
}

// EditorState reports the dialog state and, when open, its draft.
func (e *Editor) EditorState() (codeeditor.State, codeeditor.Draft, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	draft, ok := e.dialog.Draft()
	return e.dialog.State(), draft, ok
}

// Node returns a copy of a node.
func (e *Editor) Node(id string) (domain.Node, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Node(id)
}

// Snapshot exports a deep copy of the document.
func (e *Editor) Snapshot() domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Snapshot()
}

// Render builds the render model of the current document.
func (e *Editor) Render() render.Model {
	return render.Build(e.Snapshot(), e.registry)
}

// Dispatch applies canvas gesture events in order. Every event is attempted;
// the failures are joined into the returned error.
// Duplicate connections are absorbed as in Connect.
func (e *Editor) Dispatch(ctx context.Context, events ...render.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	for _, ev := range events {
		var err error
		switch ev := ev.(type) {
		case render.PositionChange:
			err = e.moveNode(ctx, ev.NodeID, ev.Position)
		case render.Connect:
			_, _, err = e.connect(ctx, ev.ConnectRequest)
		case render.NodeRemoval:
			_, err = e.removeNode(ctx, ev.NodeID)
		case render.EdgeRemoval:
			err = e.removeEdge(ctx, ev.EdgeID)
		default:
			err = fmt.Errorf("unsupported event %T", ev)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// logTransition logs dialog misuse. Calls outside the Open state are caller bugs.
func (e *Editor) logTransition(err error) error {
	if errors.Is(err, domain.ErrInvalidTransition) {
		e.logger.Error("invalid editor transition", "err", err)
	}
	return err
}

func (e *Editor) fireNodeUpdated(ctx context.Context, id string) {
	if e.hooks.OnNodeUpdated == nil {
		return
	}
	node, _ := e.doc.Node(id)
	e.hooks.OnNodeUpdated(ctx, &domain.NodeEvent{
		EventBase: newBase(domain.EventNodeUpdated),
		NodeID:    id,
		Kind:      node.Kind,
		Label:     node.Label,
	})
}

func (e *Editor) fireEditor(ctx context.Context, typ domain.EventType, nodeID string, lang domain.Language) {
	e.logger.Debug("editor "+strings.TrimPrefix(string(typ), "editor_"), "node_id", nodeID)
	if e.hooks.OnEditor == nil {
		return
	}
	e.hooks.OnEditor(ctx, &domain.EditorEvent{
		EventBase: newBase(typ),
		NodeID:    nodeID,
		Language:  lang,
	})
}

func newBase(typ domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: typ}
}
