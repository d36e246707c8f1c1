package dsl

import "github.com/aretw0/flowcanvas/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node  domain.Node
	edges []domain.ConnectRequest
}

// Label sets the display label. An empty label is ignored.
func (n *NodeBuilder) Label(label string) *NodeBuilder {
	if label != "" {
		n.node.Label = label
	}
	return n
}

// At places the node on the canvas.
func (n *NodeBuilder) At(x, y float64) *NodeBuilder {
	n.node.Position = domain.Position{X: x, Y: y}
	return n
}

// Data sets one payload entry.
func (n *NodeBuilder) Data(key string, value any) *NodeBuilder {
	if n.node.Data == nil {
		n.node.Data = domain.NodeData{}
	}
	n.node.Data[key] = value
	return n
}

// JavaScript sets the code payload with language javascript.
func (n *NodeBuilder) JavaScript(code string) *NodeBuilder {
	return n.Source(code, domain.LanguageJavaScript)
}

// Python sets the code payload with language python.
func (n *NodeBuilder) Python(code string) *NodeBuilder {
	return n.Source(code, domain.LanguagePython)
}

// Source sets the full code payload.
func (n *NodeBuilder) Source(code string, lang domain.Language) *NodeBuilder {
	for k, v := range (domain.CodeData{Code: code, Language: lang}).Patch() {
		n.Data(k, v)
	}
	return n
}

// Go adds a connection to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	return n.Connect(target, "", "")
}

// Connect adds a connection to the target node between specific handles.
func (n *NodeBuilder) Connect(target, sourceHandle, targetHandle string) *NodeBuilder {
	n.edges = append(n.edges, domain.ConnectRequest{
		Source:       n.node.ID,
		Target:       target,
		SourceHandle: sourceHandle,
		TargetHandle: targetHandle,
	})
	return n
}

// Build returns a copy of the underlying domain.Node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() domain.Node {
	return n.node.Clone()
}
