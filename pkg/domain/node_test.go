package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_Code(t *testing.T) {
	tests := []struct {
		name string
		data NodeData
		want CodeData
	}{
		{
			name: "Absent Payload Uses Defaults",
			data: nil,
			want: DefaultCodeData(),
		},
		{
			name: "Stored Values",
			data: NodeData{KeyCode: "print(1)", KeyLanguage: "python", "label": "ignored"},
			want: CodeData{Code: "print(1)", Language: LanguagePython},
		},
		{
			name: "Empty Code Is Kept",
			data: NodeData{KeyCode: "", KeyLanguage: "javascript"},
			want: CodeData{Code: "", Language: LanguageJavaScript},
		},
		{
			name: "Unsupported Language Falls Back",
			data: NodeData{KeyCode: "x", KeyLanguage: "cobol"},
			want: CodeData{Code: "x", Language: LanguageJavaScript},
		},
		{
			name: "Wrong Types Fall Back",
			data: NodeData{KeyCode: 42},
			want: DefaultCodeData(),
		},
		{
			name: "Malformed Code Keeps Valid Language",
			data: NodeData{KeyCode: 5, KeyLanguage: "python"},
			want: CodeData{Code: DefaultCode, Language: LanguagePython},
		},
		{
			name: "Typed Language",
			data: NodeData{KeyCode: "x", KeyLanguage: LanguagePython},
			want: CodeData{Code: "x", Language: LanguagePython},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Node{ID: "1", Kind: KindCustomCode, Data: tt.data}
			assert.Equal(t, tt.want, n.Code())
		})
	}
}

func TestNode_CloneIsolatesData(t *testing.T) {
	n := Node{ID: "1", Kind: KindAction, Data: NodeData{"a": 1}}
	c := n.Clone()
	c.Data["a"] = 2

	assert.Equal(t, 1, n.Data["a"])
	assert.NotNil(t, Node{}.Clone().Data)
}

func TestNodeData_CloneIsDeep(t *testing.T) {
	d := NodeData{
		"headers": map[string]any{"auth": "a"},
		"nested":  NodeData{"inner": map[string]any{"k": "v"}},
		"list":    []any{map[string]any{"x": 1}, "y"},
		"tags":    []string{"a", "b"},
	}
	c := d.Clone()

	c["headers"].(map[string]any)["auth"] = "changed"
	c["nested"].(NodeData)["inner"].(map[string]any)["k"] = "changed"
	c["list"].([]any)[0].(map[string]any)["x"] = 2
	c["tags"].([]string)[0] = "changed"

	assert.Equal(t, "a", d["headers"].(map[string]any)["auth"])
	assert.Equal(t, "v", d["nested"].(NodeData)["inner"].(map[string]any)["k"])
	assert.Equal(t, 1, d["list"].([]any)[0].(map[string]any)["x"])
	assert.Equal(t, []string{"a", "b"}, d["tags"])
}

func TestParseLanguage(t *testing.T) {
	l, err := ParseLanguage("python")
	require.NoError(t, err)
	assert.Equal(t, LanguagePython, l)
	assert.Equal(t, "Python", l.DisplayName())

	_, err = ParseLanguage("ruby")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestNodeKind_Valid(t *testing.T) {
	for _, k := range Kinds {
		assert.True(t, k.Valid(), k)
	}
	assert.False(t, NodeKind("input").Valid())
}

func TestEdgeID(t *testing.T) {
	req := ConnectRequest{Source: "1", Target: "2", SourceHandle: "a", TargetHandle: "b"}

	t.Run("Deterministic", func(t *testing.T) {
		assert.Equal(t, EdgeID(req), EdgeID(req))
		assert.Equal(t, EdgeID(req), NewEdge(req).ID)
		assert.Equal(t, req, NewEdge(req).Request())
	})

	t.Run("Handles Distinguish Edges", func(t *testing.T) {
		other := req
		other.SourceHandle = "c"
		assert.NotEqual(t, EdgeID(req), EdgeID(other))
	})

	t.Run("No Concatenation Ambiguity", func(t *testing.T) {
		a := ConnectRequest{Source: "ab", Target: "c"}
		b := ConnectRequest{Source: "a", Target: "bc"}
		assert.NotEqual(t, EdgeID(a), EdgeID(b))
	})

	t.Run("Touches", func(t *testing.T) {
		e := NewEdge(req)
		assert.True(t, e.Touches("1"))
		assert.True(t, e.Touches("2"))
		assert.False(t, e.Touches("3"))
	})
}
