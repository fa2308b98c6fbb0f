package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probelab/codegraph/internal/graph"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// findNode returns the first EntityNode whose Name matches, or nil.
func findNode(nodes []graph.EntityNode, name string) *graph.EntityNode {
	for i := range nodes {
		if nodes[i].Name == name {
			return &nodes[i]
		}
	}
	return nil
}

// edgesByKind returns all edges matching the given kind.
func edgesByKind(edges []graph.Edge, kind graph.EdgeKind) []graph.Edge {
	var out []graph.Edge
	for _, e := range edges {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// parseFile runs Dispatch with a fresh sink and fails the test on any
// diagnostic.
func parseFile(t *testing.T, path, content string) Result {
	t.Helper()
	var sink CollectorSink
	res := Dispatch(Request{FilePath: path, Content: content}, &sink)
	require.Empty(t, sink.Diagnostics, "unexpected diagnostics for %s", path)
	return res
}

// ---------------------------------------------------------------------------
// TestLanguageFor
// ---------------------------------------------------------------------------

func TestLanguageFor(t *testing.T) {
	cases := []struct {
		path string
		lang graph.Language
		ok   bool
	}{
		{"src/Main.java", graph.LangJava, true},
		{"app/models.py", graph.LangPython, true},
		{"src/index.ts", graph.LangTypeScript, true},
		{"src/App.tsx", graph.LangTypeScript, true},
		{"lib/util.js", graph.LangJavaScript, true},
		{"lib/App.jsx", graph.LangJavaScript, true},
		{"lib/mod.mjs", graph.LangJavaScript, true},
		{"lib/mod.cjs", graph.LangJavaScript, true},
		{"README.md", "", false},
		{"styles.css", "", false},
		{"Makefile", "", false},
	}
	for _, c := range cases {
		lang, ok := LanguageFor(c.path)
		assert.Equal(t, c.ok, ok, c.path)
		assert.Equal(t, c.lang, lang, c.path)
	}
}

// ---------------------------------------------------------------------------
// TestDispatch
// ---------------------------------------------------------------------------

func TestDispatch_UnsupportedExtension(t *testing.T) {
	var sink CollectorSink
	res := Dispatch(Request{FilePath: "notes.txt", Content: "class Foo {}"}, &sink)
	assert.Empty(t, res.Nodes)
	assert.Empty(t, res.Edges)
	assert.Empty(t, sink.Diagnostics)
}

func TestDispatch_Idempotent(t *testing.T) {
	src := `export function add(a: number, b: number): number {
  return a + b;
}
`
	first := parseFile(t, "src/math.ts", src)
	second := parseFile(t, "src/math.ts", src)
	assert.Equal(t, first, second, "same input must produce identical output")
}

func TestDispatch_SyntheticModuleForEmptyEntryFile(t *testing.T) {
	var sink CollectorSink
	res := Dispatch(Request{FilePath: "scripts/run.py", Content: "print('hi')\n", IsEntryPoint: true}, &sink)

	require.Len(t, res.Nodes, 1)
	mod := res.Nodes[0]
	assert.Equal(t, graph.NodeKindModule, mod.Kind)
	assert.Equal(t, "run", mod.Name)
	assert.Equal(t, 1, mod.StartLine)
}
