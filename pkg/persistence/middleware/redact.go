package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

type redactMiddleware struct {
	next     ports.WorkflowStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that masks node data values whose
// key matches one of the patterns (e.g. "(?i)token|password|secret").
// Nested maps are masked too. Code snippets are never inspected.
func NewRedactMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.WorkflowStore) ports.WorkflowStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactMiddleware) Save(ctx context.Context, wf *domain.Workflow) error {
	// Work on a copy: the caller's workflow is the live editor state.
	cloned := *wf
	cloned.Graph.Nodes = make([]domain.Node, len(wf.Graph.Nodes))
	for i, n := range wf.Graph.Nodes {
		n.Data = n.Data.Clone()
		maskMap(n.Data, m.patterns)
		cloned.Graph.Nodes[i] = n
	}
	return m.next.Save(ctx, &cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, workflowID string) (*domain.Workflow, error) {
	return m.next.Load(ctx, workflowID)
}

func (m *redactMiddleware) Delete(ctx context.Context, workflowID string) error {
	return m.next.Delete(ctx, workflowID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		if k == domain.KeyCode || k == domain.KeyLanguage {
			continue
		}
		masked := false
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				masked = true
				break
			}
		}
		if subMap, ok := v.(map[string]any); ok && !masked {
			maskMap(subMap, patterns)
		}
	}
}
