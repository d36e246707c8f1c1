package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// File is the structure of a palette file (palette.yaml or palette.json).
//
//	fallback: {icon: globe, color: "border-gray-500 bg-gray-50"}
//	labels:
//	  Send Slack Message: {icon: message-square, color: "border-sky-500 bg-sky-50"}
//	palette:
//	  - {group: Actions, kind: action, label: Send Slack Message}
type File struct {
	Fallback *Entry           `mapstructure:"fallback"`
	Kinds    map[string]Entry `mapstructure:"kinds"`
	Labels   map[string]Entry `mapstructure:"labels"`
	Palette  []PaletteItem    `mapstructure:"palette"`
	// ReplacePalette drops the built-in palette instead of appending to it.
	ReplacePalette bool `mapstructure:"replace_palette"`
}

// LoadFile reads a palette file (YAML or JSON) and applies it on top of the built-in registry.
// A missing file yields the built-in registry.
func LoadFile(path string) (*Registry, error) {
	r := New()
	if path == "" {
		return r, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("failed to read palette file: %w", err)
	}

	var raw map[string]any
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse palette json: %w", err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse palette yaml: %w", err)
		}
	}

	var f File
	if err := mapstructure.Decode(raw, &f); err != nil {
		return nil, fmt.Errorf("invalid palette file: %w", err)
	}
	if err := r.Apply(f); err != nil {
		return nil, err
	}
	return r, nil
}

// Apply merges a palette file into the registry.
func (r *Registry) Apply(f File) error {
	for name, e := range f.Kinds {
		kind := domain.NodeKind(name)
		if !kind.Valid() {
			return fmt.Errorf("%w: %q", domain.ErrUnknownKind, name)
		}
		r.RegisterKind(kind, "", e)
	}
	for label, e := range f.Labels {
		r.RegisterLabel(label, e)
	}
	if f.Fallback != nil {
		r.SetFallback(*f.Fallback)
	}

	if f.ReplacePalette {
		r.mu.Lock()
		r.palette = nil
		r.mu.Unlock()
	}
	for _, item := range f.Palette {
		if !item.Kind.Valid() {
			return fmt.Errorf("palette item %q: %w: %q", item.Label, domain.ErrUnknownKind, item.Kind)
		}
		r.AddPaletteItem(item)
	}
	return nil
}
