// Package codeeditor implements the custom code dialog: a two-state machine
// (Closed, Open) holding at most one draft at a time.
//
// Edits only touch the draft. The document is written exactly once, on Save,
// with the full {code, language} payload.
package codeeditor

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/registry"
)

// State of the dialog.
type State string

const (
	StateClosed State = "closed"
	StateOpen   State = "open"
)

// Draft is the working copy of a code node payload.
type Draft struct {
	NodeID   string          `json:"node_id"`
	Code     string          `json:"code"`
	Language domain.Language `json:"language"`
}

// Store is the subset of the graph document the dialog needs.
type Store interface {
	Node(id string) (domain.Node, bool)
	UpdateNodeData(id string, patch domain.NodeData) error
}

// Controller drives the dialog. It is not safe for concurrent use.
type Controller struct {
	store    Store
	registry *registry.Registry
	logger   *slog.Logger

	state State
	draft Draft
}

// Option configures the Controller.
type Option func(*Controller)

// WithLogger configures a logger for the Controller.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// New creates a closed dialog editing nodes of store.
func New(store Store, reg *registry.Registry, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		registry: reg,
		logger:   logging.NewNop(),
		state:    StateClosed,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = registry.New()
	}
	return c
}

// State returns the current dialog state.
func (c *Controller) State() State {
	return c.state
}

// Draft returns the active draft. ok is false when the dialog is closed.
func (c *Controller) Draft() (Draft, bool) {
	if c.state != StateOpen {
		return Draft{}, false
	}
	return c.draft, true
}

// Open starts editing nodeID. An already open draft for another node is discarded.
func (c *Controller) Open(nodeID string) (Draft, error) {
	node, ok := c.store.Node(nodeID)
	if !ok {
		return Draft{}, fmt.Errorf("%w: %q", domain.ErrNodeNotFound, nodeID)
	}
	if !c.registry.Editable(node) {
		return Draft{}, fmt.Errorf("%w: %q (%s)", domain.ErrNotEditable, nodeID, node.Kind)
	}

	if c.state == StateOpen {
		c.logger.Info("discarding unsaved draft", "node_id", c.draft.NodeID, "opening", nodeID)
	}

	code := node.Code()
	c.draft = Draft{NodeID: nodeID, Code: code.Code, Language: code.Language}
	c.state = StateOpen
	return c.draft, nil
}

// SetCode replaces the draft code.
func (c *Controller) SetCode(code string) error {
	if err := c.requireOpen("set code"); err != nil {
		return err
	}
	c.draft.Code = code
	return nil
}

// SetLanguage replaces the draft language.
func (c *Controller) SetLanguage(lang domain.Language) error {
	if err := c.requireOpen("set language"); err != nil {
		return err
	}
	if !lang.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedLanguage, lang)
	}
	c.draft.Language = lang
	return nil
}

// Save commits the draft to the node and closes the dialog.
// If the node has been removed meanwhile, the draft is dropped and
// ErrNodeNotFound is returned.
func (c *Controller) Save() (Draft, error) {
	if err := c.requireOpen("save"); err != nil {
		return Draft{}, err
	}
	saved := c.draft
	c.close()

	patch := domain.CodeData{Code: saved.Code, Language: saved.Language}.Patch()
	if err := c.store.UpdateNodeData(saved.NodeID, patch); err != nil {
		return saved, err
	}
	return saved, nil
}

// Cancel closes the dialog and drops the draft. The document is untouched.
func (c *Controller) Cancel() (Draft, error) {
	if err := c.requireOpen("cancel"); err != nil {
		return Draft{}, err
	}
	dropped := c.draft
	c.close()
	return dropped, nil
}

// Discard closes the dialog if it is editing nodeID. It reports whether it did.
func (c *Controller) Discard(nodeID string) bool {
	if c.state != StateOpen || c.draft.NodeID != nodeID {
		return false
	}
	c.close()
	return true
}

func (c *Controller) requireOpen(op string) error {
	if c.state != StateOpen {
		return fmt.Errorf("%w: %s while %s", domain.ErrInvalidTransition, op, c.state)
	}
	return nil
}

func (c *Controller) close() {
	c.state = StateClosed
	c.draft = Draft{}
}
