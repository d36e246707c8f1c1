package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowcanvas/pkg/render"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// The style follows the terminal background.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// Summary describes a render model as markdown: a node table, the edge list
// and the source of every code node.
func Summary(title string, m render.Model) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)

	fmt.Fprintf(&sb, "## Nodes (%d)\n\n", len(m.Nodes))
	sb.WriteString("| ID | Kind | Label | Position | Info |\n")
	sb.WriteString("|----|------|-------|----------|------|\n")
	for _, n := range m.Nodes {
		fmt.Fprintf(&sb, "| %s | %s | %s %s | %g, %g | %s |\n",
			cell(n.ID), n.Kind, n.Icon, cell(n.Label), n.Position.X, n.Position.Y, cell(n.Subtitle))
	}

	fmt.Fprintf(&sb, "\n## Edges (%d)\n\n", len(m.Edges))
	if len(m.Edges) == 0 {
		sb.WriteString("_none_\n")
	}
	for _, e := range m.Edges {
		fmt.Fprintf(&sb, "- `%s` → `%s`", e.Source, e.Target)
		if e.SourceHandle != "" || e.TargetHandle != "" {
			fmt.Fprintf(&sb, " (%s → %s)", e.SourceHandle, e.TargetHandle)
		}
		sb.WriteString("\n")
	}

	for _, n := range m.Nodes {
		if !n.Editable {
			continue
		}
		code, _ := n.Data["code"].(string)
		lang, _ := n.Data["language"].(string)
		fmt.Fprintf(&sb, "\n### %s (%s)\n\n```%s\n%s\n```\n", cell(n.Label), n.ID, lang, code)
	}
	return sb.String()
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
