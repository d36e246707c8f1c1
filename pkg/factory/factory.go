// Package factory creates fully-formed nodes for palette actions.
// It never touches the document: creation and insertion stay separately testable.
package factory

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/registry"
	"github.com/google/uuid"
)

// IDGenerator hands out node ids that are never reused.
type IDGenerator interface {
	NextID() string
}

// Counter is a monotonic decimal id generator. Safe for concurrent use.
type Counter struct {
	mu   sync.Mutex
	next uint64
}

// NewCounter creates a counter whose first id is start.
func NewCounter(start uint64) *Counter {
	return &Counter{next: start}
}

// NextID returns the current value and advances the counter.
func (c *Counter) NextID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := strconv.FormatUint(c.next, 10)
	c.next++
	return id
}

// UUID generates random (version 4) UUID ids.
type UUID struct{}

// NextID returns a new random UUID.
func (UUID) NextID() string {
	return uuid.NewString()
}

// RandSource is the random source used for placement. *rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// Box is the placement area of new nodes, near the palette.
type Box struct {
	X, Y          float64
	Width, Height float64
}

// DefaultBox places nodes in [100, 500) on both axes.
var DefaultBox = Box{X: 100, Y: 100, Width: 400, Height: 400}

// Viewport offsets the placement box, e.g. by the current pan of the canvas.
// The zero value means no offset.
type Viewport struct {
	OffsetX float64 `json:"offsetX,omitempty"`
	OffsetY float64 `json:"offsetY,omitempty"`
}

// Factory builds nodes with fresh ids, an initial position and default payloads.
type Factory struct {
	ids      IDGenerator
	rng      RandSource
	registry *registry.Registry
	box      Box
}

// Option configures the Factory.
type Option func(*Factory)

// WithIDGenerator replaces the default counter (starting at 1).
func WithIDGenerator(ids IDGenerator) Option {
	return func(f *Factory) {
		f.ids = ids
	}
}

// WithRandSource injects the placement random source.
func WithRandSource(rng RandSource) Option {
	return func(f *Factory) {
		f.rng = rng
	}
}

// WithBox replaces the placement box.
func WithBox(b Box) Option {
	return func(f *Factory) {
		f.box = b
	}
}

// New creates a factory backed by reg for default payloads and labels.
func New(reg *registry.Registry, opts ...Option) *Factory {
	f := &Factory{
		ids:      NewCounter(1),
		rng:      globalRand{},
		registry: reg,
		box:      DefaultBox,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.registry == nil {
		f.registry = registry.New()
	}
	return f
}

// Create builds a node of the given kind. An empty label is replaced by the
// default label of the kind.
func (f *Factory) Create(kind domain.NodeKind, label string, vp Viewport) (domain.Node, error) {
	if !kind.Valid() {
		return domain.Node{}, fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
	}
	if label == "" {
		label = f.registry.DefaultLabel(kind)
	}

	return domain.Node{
		ID:    f.ids.NextID(),
		Kind:  kind,
		Label: label,
		Position: domain.Position{
			X: vp.OffsetX + f.box.X + f.rng.Float64()*f.box.Width,
			Y: vp.OffsetY + f.box.Y + f.rng.Float64()*f.box.Height,
		},
		Data: f.registry.Defaults(kind),
	}, nil
}
