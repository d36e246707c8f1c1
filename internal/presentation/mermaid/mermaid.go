package mermaid

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/render"
)

// Overlay contains editor state to highlight on the diagram.
type Overlay struct {
	Selected []string
	// Editing is the node whose code dialog is open.
	Editing string
}

// Generate produces a Mermaid flowchart from a render model.
// It applies semantic shapes:
// - Trigger: ((Circle))
// - Custom code: [[Subroutine]]
// - Action: [Rectangle]
// Edges with handles are labelled "source -> target".
func Generate(m render.Model, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range m.Nodes {
		safeID := sanitizeID(node.ID)

		opener, closer := "[", "]"
		switch node.Kind {
		case domain.KindTrigger:
			opener, closer = "((", "))"
		case domain.KindCustomCode:
			opener, closer = "[[", "]]"
		}

		label := escape(node.Label)
		if node.Subtitle != "" && node.Kind == domain.KindCustomCode {
			label = fmt.Sprintf("%s <br/> %s", label, escape(node.Subtitle))
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)
	}

	for _, e := range m.Edges {
		arrow := "-->"
		if e.SourceHandle != "" || e.TargetHandle != "" {
			arrow = fmt.Sprintf("-- \"%s -> %s\" -->", escape(e.SourceHandle), escape(e.TargetHandle))
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeID(e.Source), arrow, sanitizeID(e.Target))
	}

	// Kind styles, roughly matching the canvas colors
	sb.WriteString("\n    classDef trigger fill:#10b981,stroke:#059669,color:#fff;\n")
	sb.WriteString("    classDef customCode fill:#fff,stroke:#a855f7,stroke-width:2px,color:#000;\n")
	byKind := make(map[domain.NodeKind][]string)
	for _, node := range m.Nodes {
		if node.Kind == domain.KindTrigger || node.Kind == domain.KindCustomCode {
			byKind[node.Kind] = append(byKind[node.Kind], sanitizeID(node.ID))
		}
	}
	for _, kind := range []domain.NodeKind{domain.KindTrigger, domain.KindCustomCode} {
		if ids := byKind[kind]; len(ids) > 0 {
			fmt.Fprintf(&sb, "    class %s %s;\n", strings.Join(ids, ","), kind)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme
		sb.WriteString("    classDef selected fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef editing fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Selected {
			safeID := sanitizeID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s selected;\n", safeID)
			}
		}
		if overlay.Editing != "" {
			fmt.Fprintf(&sb, "    class %s editing;\n", sanitizeID(overlay.Editing))
		}
	}

	return sb.String()
}

// Adapter is a render.Adapter writing Mermaid text.
type Adapter struct {
	W       io.Writer
	Overlay *Overlay
}

// Render writes the diagram of m.
func (a Adapter) Render(ctx context.Context, m render.Model) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := io.WriteString(a.W, Generate(m, a.Overlay))
	return err
}

var _ render.Adapter = Adapter{}

// sanitizeID maps node ids onto Mermaid-safe identifiers.
// Numeric ids get a prefix since Mermaid ids cannot start with a digit in every renderer.
func sanitizeID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	s := r.Replace(id)
	if s != "" && s[0] >= '0' && s[0] <= '9' {
		s = "n" + s
	}
	return s
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
