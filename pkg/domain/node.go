package domain

import "fmt"

// NodeKind selects the editing behavior and rendering template of a node.
type NodeKind string

const (
	// KindTrigger starts a workflow (e.g. a webhook). It only exposes a source handle.
	KindTrigger NodeKind = "trigger"
	// KindAction performs a side-effect. Its label is a key into the registry metadata.
	KindAction NodeKind = "action"
	// KindCustomCode runs a user supplied snippet configured through the code dialog.
	KindCustomCode NodeKind = "customCode"
)

// Kinds lists the closed vocabulary of node kinds.
var Kinds = []NodeKind{KindTrigger, KindAction, KindCustomCode}

// Valid reports whether k belongs to the closed vocabulary.
func (k NodeKind) Valid() bool {
	switch k {
	case KindTrigger, KindAction, KindCustomCode:
		return true
	}
	return false
}

// Language is the language of a custom code snippet.
type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
)

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	return l == LanguageJavaScript || l == LanguagePython
}

// DisplayName returns the human readable name shown on code nodes.
func (l Language) DisplayName() string {
	if l == LanguagePython {
		return "Python"
	}
	return "JavaScript"
}

// ParseLanguage validates a raw language string.
func ParseLanguage(s string) (Language, error) {
	l := Language(s)
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
	return l, nil
}

// Payload keys of a custom code node.
const (
	KeyCode     = "code"
	KeyLanguage = "language"
)

// DefaultCode is the sample snippet seeded into new custom code nodes.
const DefaultCode = "// Write your code here\nconsole.log(\"Hello World\");"

// Position is a point on the (unbounded) canvas.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NodeData is the kind-specific payload of a node.
type NodeData map[string]any

// Clone returns a deep copy of the payload. Nested maps and slices are
// copied too. A nil payload clones to an empty one.
func (d NodeData) Clone() NodeData {
	out := make(NodeData, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case NodeData:
		return t.Clone()
	case map[string]any:
		return map[string]any(NodeData(t).Clone())
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	}
	return v
}

// Node represents a vertex in the workflow graph.
type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Kind     NodeKind `json:"kind" yaml:"kind"`
	Label    string   `json:"label" yaml:"label"`
	Position Position `json:"position" yaml:"position"`
	Data     NodeData `json:"data" yaml:"data"`
}

// Clone returns a copy of the node that shares no payload map with the original.
func (n Node) Clone() Node {
	n.Data = n.Data.Clone()
	return n
}

// CodeData is the typed view of a custom code payload.
type CodeData struct {
	Code     string   `json:"code"`
	Language Language `json:"language"`
}

// Patch converts the typed payload back into a data patch.
func (c CodeData) Patch() NodeData {
	return NodeData{KeyCode: c.Code, KeyLanguage: string(c.Language)}
}

// DefaultCodeData returns the payload of a fresh custom code node.
func DefaultCodeData() CodeData {
	return CodeData{Code: DefaultCode, Language: LanguageJavaScript}
}

// Code decodes the custom code payload of the node.
// Each field is read on its own: an absent or malformed code falls back to the
// default snippet and an unsupported language falls back to javascript.
// An explicitly empty snippet is kept.
func (n Node) Code() CodeData {
	c := DefaultCodeData()
	if code, ok := n.Data[KeyCode].(string); ok {
		c.Code = code
	}
	var lang Language
	switch v := n.Data[KeyLanguage].(type) {
	case string:
		lang = Language(v)
	case Language:
		lang = v
	}
	if lang.Valid() {
		c.Language = lang
	}
	return c
}
