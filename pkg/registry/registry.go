// Package registry maps node kinds and action labels to display metadata and
// editing behavior. Lookups are total: unknown keys resolve to the fallback
// entry and never fail.
package registry

import (
	"sync"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// EditorKind selects the configuration dialog of a node.
type EditorKind string

const (
	EditorNone EditorKind = "none"
	EditorCode EditorKind = "code"
)

// Entry is the display metadata and editing behavior of a node type.
type Entry struct {
	Icon        string          `json:"icon" yaml:"icon" mapstructure:"icon"`
	ColorClass  string          `json:"color" yaml:"color" mapstructure:"color"`
	Editor      EditorKind      `json:"editor,omitempty" yaml:"editor,omitempty" mapstructure:"editor"`
	DefaultData domain.NodeData `json:"defaults,omitempty" yaml:"defaults,omitempty" mapstructure:"defaults"`
}

// PaletteItem is one button of the node palette.
type PaletteItem struct {
	Group string          `json:"group" yaml:"group" mapstructure:"group"`
	Kind  domain.NodeKind `json:"kind" yaml:"kind" mapstructure:"kind"`
	Label string          `json:"label" yaml:"label" mapstructure:"label"`
}

// Built-in fallback metadata for unknown labels and kinds.
const (
	DefaultIcon  = "globe"
	DefaultColor = "border-gray-500 bg-gray-50"
)

// Registry manages the node type metadata.
type Registry struct {
	mu       sync.RWMutex
	kinds    map[domain.NodeKind]Entry
	labels   map[string]Entry
	names    map[domain.NodeKind]string
	fallback Entry
	palette  []PaletteItem
}

// NewEmpty creates a registry that resolves everything to the fallback entry.
func NewEmpty() *Registry {
	return &Registry{
		kinds:    make(map[domain.NodeKind]Entry),
		labels:   make(map[string]Entry),
		names:    make(map[domain.NodeKind]string),
		fallback: Entry{Icon: DefaultIcon, ColorClass: DefaultColor, Editor: EditorNone},
	}
}

// New creates a registry preloaded with the built-in node types and palette.
func New() *Registry {
	r := NewEmpty()

	r.RegisterKind(domain.KindTrigger, "Webhook", Entry{
		Icon:       "webhook",
		ColorClass: "border-emerald-600 bg-emerald-500 text-white",
	})
	r.RegisterKind(domain.KindCustomCode, "Custom Code", Entry{
		Icon:        "code",
		ColorClass:  "border-purple-500 bg-white",
		Editor:      EditorCode,
		DefaultData: domain.DefaultCodeData().Patch(),
	})
	r.RegisterKind(domain.KindAction, "Action", r.fallback)

	r.RegisterLabel("Send Email", Entry{Icon: "mail", ColorClass: "border-blue-500 bg-blue-50"})
	r.RegisterLabel("HTTP Request", Entry{Icon: "globe", ColorClass: "border-orange-500 bg-orange-50"})
	r.RegisterLabel("Post to Social Media", Entry{Icon: "share-2", ColorClass: "border-green-500 bg-green-50"})
	r.RegisterLabel("Add to CRM", Entry{Icon: "user-plus", ColorClass: "border-pink-500 bg-pink-50"})

	r.AddPaletteItem(PaletteItem{Group: "Triggers", Kind: domain.KindTrigger, Label: "Webhook"})
	r.AddPaletteItem(PaletteItem{Group: "Code", Kind: domain.KindCustomCode, Label: "Custom Code"})
	for _, label := range []string{"Send Email", "HTTP Request", "Post to Social Media", "Add to CRM"} {
		r.AddPaletteItem(PaletteItem{Group: "Actions", Kind: domain.KindAction, Label: label})
	}

	return r
}

// RegisterKind sets the entry and default label of a kind.
// If the kind already exists, it is overwritten.
func (r *Registry) RegisterKind(kind domain.NodeKind, defaultLabel string, e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[kind] = normalize(e)
	if defaultLabel != "" {
		r.names[kind] = defaultLabel
	}
}

// RegisterLabel sets the entry of an action label.
// If the label already exists, it is overwritten.
func (r *Registry) RegisterLabel(label string, e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels[label] = normalize(e)
}

// SetFallback replaces the entry used for unknown keys.
func (r *Registry) SetFallback(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.Icon == "" {
		e.Icon = DefaultIcon
	}
	if e.ColorClass == "" {
		e.ColorClass = DefaultColor
	}
	r.fallback = normalize(e)
}

// AddPaletteItem appends a palette entry.
func (r *Registry) AddPaletteItem(item PaletteItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.palette = append(r.palette, item)
}

// Palette returns the palette entries in registration order.
func (r *Registry) Palette() []PaletteItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]PaletteItem(nil), r.palette...)
}

// Resolve returns the entry for a node.
// Action nodes are keyed by label, other kinds by kind. Unknown keys resolve to the fallback.
func (r *Registry) Resolve(kind domain.NodeKind, label string) Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if kind == domain.KindAction {
		if e, ok := r.labels[label]; ok {
			return clone(e)
		}
		return clone(r.fallback)
	}
	if e, ok := r.kinds[kind]; ok {
		return clone(e)
	}
	return clone(r.fallback)
}

// Defaults returns a fresh copy of the default payload of a kind.
func (r *Registry) Defaults(kind domain.NodeKind) domain.NodeData {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.kinds[kind].DefaultData.Clone()
}

// DefaultLabel returns the label used when a node is created without one.
func (r *Registry) DefaultLabel(kind domain.NodeKind) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name, ok := r.names[kind]; ok {
		return name
	}
	return string(kind)
}

// Editable reports whether the node opens the code dialog.
func (r *Registry) Editable(n domain.Node) bool {
	return r.Resolve(n.Kind, n.Label).Editor == EditorCode
}

func normalize(e Entry) Entry {
	if e.Editor == "" {
		e.Editor = EditorNone
	}
	return clone(e)
}

func clone(e Entry) Entry {
	e.DefaultData = e.DefaultData.Clone()
	return e
}
