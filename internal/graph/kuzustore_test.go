//go:build cgo

package graph

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore creates a fresh in-memory KuzuStore with an initialized
// schema. It registers a cleanup function to close the store when the test
// finishes.
func newTestStore(t *testing.T) *KuzuStore {
	t.Helper()
	s, err := NewMemKuzuStore()
	require.NoError(t, err, "NewMemKuzuStore should not fail")
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	require.NoError(t, s.InitSchema(ctx), "InitSchema should not fail")
	return s
}

// snapshotGraph builds a two-file graph with a resolved import, an
// unresolved external import, and an intra-file containment edge.
func snapshotGraph() *Graph {
	app := EntityNode{
		ID: NodeID("src/app.py", NodeKindClass, "App", 3), Name: "App",
		Kind: NodeKindClass, Language: LangPython, FilePath: "src/app.py",
		StartLine: 3, EndLine: 20,
		Modifiers: Modifiers{Visibility: VisibilityPublic},
	}
	boot := EntityNode{
		ID: NodeID("src/app.py", NodeKindMethod, "boot", 5), Name: "boot",
		Kind: NodeKindMethod, Language: LangPython, FilePath: "src/app.py",
		StartLine: 5, EndLine: 9,
		Modifiers:    Modifiers{Visibility: VisibilityProtected, Async: true},
		IsEntryPoint: true,
	}
	helper := EntityNode{
		ID: NodeID("src/util.py", NodeKindFunction, "helper", 1), Name: "helper",
		Kind: NodeKindFunction, Language: LangPython, FilePath: "src/util.py",
		StartLine: 1, EndLine: 4,
		Modifiers:      Modifiers{Visibility: VisibilityPublic},
		IsEntryPoint:   true,
		IsPrimaryEntry: true,
	}

	nodes := []EntityNode{app, boot, helper}
	edges := []Edge{
		{From: "src/app.py", To: "src/util.py", Kind: EdgeKindImports, Label: "helper"},
		{From: "src/app.py", To: "flask", Kind: EdgeKindImports},
		{From: app.ID, To: boot.ID, Kind: EdgeKindContains},
	}

	g := BuildFromEntryPoints(nodes, edges, "/repo", []string{"src/util.py"})
	g.Metadata.GeneratedAt = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	return g
}

// sortEdges orders a copy of the given edges for deterministic assertions;
// edge row order out of the database is not guaranteed.
func sortEdges(es []Edge) []Edge {
	out := make([]Edge, len(es))
	copy(out, es)
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		if out[i].To != out[j].To {
			return out[i].To < out[j].To
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestKuzuStore_InitSchema(t *testing.T) {
	s, err := NewMemKuzuStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()

	// First call creates the tables.
	require.NoError(t, s.InitSchema(ctx))

	// Second call should be idempotent (IF NOT EXISTS).
	require.NoError(t, s.InitSchema(ctx))
}

func TestKuzuStore_SaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := snapshotGraph()
	require.NoError(t, s.Save(ctx, g))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)

	// Entities come back ordered by file path and start line, which matches
	// the fixture's order.
	require.Len(t, got.Nodes, 3)
	assert.Equal(t, g.Nodes, got.Nodes)

	assert.Equal(t, sortEdges(g.Edges), sortEdges(got.Edges))

	assert.Equal(t, g.Metadata.RootPath, got.Metadata.RootPath)
	assert.Equal(t, g.Metadata.GeneratedAt, got.Metadata.GeneratedAt)
	assert.Equal(t, g.Metadata.FileCount, got.Metadata.FileCount)
	assert.Equal(t, g.Metadata.NodeCount, got.Metadata.NodeCount)
	assert.Equal(t, []Language{LangPython}, got.Metadata.Languages)
}

func TestKuzuStore_EntryFlagsSurvive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, snapshotGraph()))

	got, err := s.Load(ctx)
	require.NoError(t, err)

	helper := FindNode(got, NodeID("src/util.py", NodeKindFunction, "helper", 1))
	require.NotNil(t, helper)
	assert.True(t, helper.IsEntryPoint)
	assert.True(t, helper.IsPrimaryEntry)

	boot := FindNode(got, NodeID("src/app.py", NodeKindMethod, "boot", 5))
	require.NotNil(t, boot)
	assert.True(t, boot.IsEntryPoint)
	assert.False(t, boot.IsPrimaryEntry)
	assert.True(t, boot.Modifiers.Async)
	assert.Equal(t, VisibilityProtected, boot.Modifiers.Visibility)
}

func TestKuzuStore_ExternalEndpointsSurvive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, snapshotGraph()))

	got, err := s.Load(ctx)
	require.NoError(t, err)

	// The unresolved "flask" import is an endpoint without an Entity row,
	// visible only through its edge.
	var external *Edge
	for i := range got.Edges {
		if got.Edges[i].To == "flask" {
			external = &got.Edges[i]
		}
	}
	require.NotNil(t, external)
	assert.Equal(t, "src/app.py", external.From)
	assert.Equal(t, EdgeKindImports, external.Kind)
}

func TestKuzuStore_LoadEmpty(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Empty(t, got.Nodes)
	assert.Empty(t, got.Edges)
	assert.Empty(t, got.Metadata.Languages)
}

func TestKuzuStore_Close(t *testing.T) {
	s, err := NewMemKuzuStore()
	require.NoError(t, err)

	// Close should succeed without error.
	require.NoError(t, s.Close())
}
