package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probelab/codegraph/internal/graph"
)

// ---------------------------------------------------------------------------
// TestParsePython_ClassWithBase
// ---------------------------------------------------------------------------

func TestParsePython_ClassWithBase(t *testing.T) {
	src := `class Dog(Animal):
    def speak(self):
        return "woof"
`
	res := parseFile(t, "pets/dog.py", src)

	require.Len(t, res.Nodes, 2)

	dog := findNode(res.Nodes, "Dog")
	require.NotNil(t, dog)
	assert.Equal(t, graph.NodeKindClass, dog.Kind)
	assert.Equal(t, graph.LangPython, dog.Language)
	assert.Equal(t, 1, dog.StartLine)
	assert.Equal(t, 3, dog.EndLine)

	speak := findNode(res.Nodes, "speak")
	require.NotNil(t, speak)
	assert.Equal(t, graph.NodeKindMethod, speak.Kind)
	assert.Empty(t, speak.Parameters, "self is dropped from method parameters")

	ext := edgesByKind(res.Edges, graph.EdgeKindExtends)
	require.Len(t, ext, 1)
	assert.Equal(t, "pets/dog.py", ext[0].From)
	assert.Equal(t, "Animal", ext[0].To)
	assert.Equal(t, "Dog extends Animal", ext[0].Label)

	contains := edgesByKind(res.Edges, graph.EdgeKindContains)
	require.Len(t, contains, 1)
	assert.Equal(t, dog.ID, contains[0].From)
	assert.Equal(t, speak.ID, contains[0].To)
}

// ---------------------------------------------------------------------------
// TestParsePython_ObjectBaseIgnored
// ---------------------------------------------------------------------------

func TestParsePython_ObjectBaseIgnored(t *testing.T) {
	src := `class Config(object, metaclass=Singleton):
    pass
`
	res := parseFile(t, "config.py", src)

	require.NotNil(t, findNode(res.Nodes, "Config"))
	assert.Empty(t, edgesByKind(res.Edges, graph.EdgeKindExtends),
		"object and keyword bases produce no extends edges")
}

// ---------------------------------------------------------------------------
// TestParsePython_FunctionSignature
// ---------------------------------------------------------------------------

func TestParsePython_FunctionSignature(t *testing.T) {
	src := `def fetch(url: str, timeout: int = 30) -> Response:
    return get(url, timeout=timeout)
`
	res := parseFile(t, "client.py", src)

	fetch := findNode(res.Nodes, "fetch")
	require.NotNil(t, fetch)
	assert.Equal(t, graph.NodeKindFunction, fetch.Kind)
	assert.Equal(t, "Response", fetch.ReturnType)

	require.Len(t, fetch.Parameters, 2)
	assert.Equal(t, graph.Parameter{Name: "url", Type: "str"}, fetch.Parameters[0])
	assert.Equal(t, graph.Parameter{Name: "timeout", Type: "int", Default: "30", Optional: true}, fetch.Parameters[1])
}

func TestParsePython_MultiLineSignature(t *testing.T) {
	src := `def combine(
    first: dict[str, int],
    second: dict[str, int],
) -> dict[str, int]:
    return {**first, **second}
`
	res := parseFile(t, "merge.py", src)

	combine := findNode(res.Nodes, "combine")
	require.NotNil(t, combine)
	require.Len(t, combine.Parameters, 2)
	assert.Equal(t, "first", combine.Parameters[0].Name)
	assert.Equal(t, "dict[str, int]", combine.Parameters[0].Type)
	assert.Equal(t, "dict[str, int]", combine.ReturnType)
}

func TestParsePython_InlineSuite(t *testing.T) {
	src := `class Animal:
    def speak(self): pass
    def size(self) -> int: return 1
`
	res := parseFile(t, "animal.py", src)

	speak := findNode(res.Nodes, "speak")
	require.NotNil(t, speak)
	assert.Empty(t, speak.ReturnType, "an inline suite is not a return annotation")
	assert.Empty(t, speak.Parameters)

	size := findNode(res.Nodes, "size")
	require.NotNil(t, size)
	assert.Equal(t, "int", size.ReturnType, "annotation ends at the suite colon")
}

// ---------------------------------------------------------------------------
// TestParsePython_Decorators
// ---------------------------------------------------------------------------

func TestParsePython_Decorators(t *testing.T) {
	src := `class Registry:
    @staticmethod
    def default():
        return Registry()

    @classmethod
    def create(cls, name):
        return cls()

    async def refresh(self):
        await self._load()
`
	res := parseFile(t, "registry.py", src)

	dflt := findNode(res.Nodes, "default")
	require.NotNil(t, dflt)
	assert.True(t, dflt.Modifiers.Static)

	create := findNode(res.Nodes, "create")
	require.NotNil(t, create)
	assert.True(t, create.Modifiers.Static)
	require.Len(t, create.Parameters, 1, "cls is dropped like self")
	assert.Equal(t, "name", create.Parameters[0].Name)

	refresh := findNode(res.Nodes, "refresh")
	require.NotNil(t, refresh)
	assert.True(t, refresh.Modifiers.Async)
	assert.False(t, refresh.Modifiers.Static)
}

// ---------------------------------------------------------------------------
// TestParsePython_Visibility
// ---------------------------------------------------------------------------

func TestParsePython_Visibility(t *testing.T) {
	src := `class Cache:
    def __init__(self):
        self.data = {}

    def get(self, key):
        return self.data.get(key)

    def _evict(self):
        pass

    def __rebuild(self):
        pass
`
	res := parseFile(t, "cache.py", src)

	init := findNode(res.Nodes, "__init__")
	require.NotNil(t, init)
	assert.Equal(t, graph.VisibilityPublic, init.Modifiers.Visibility, "dunders are public")

	assert.Equal(t, graph.VisibilityPublic, findNode(res.Nodes, "get").Modifiers.Visibility)
	assert.Equal(t, graph.VisibilityProtected, findNode(res.Nodes, "_evict").Modifiers.Visibility)
	assert.Equal(t, graph.VisibilityPrivate, findNode(res.Nodes, "__rebuild").Modifiers.Visibility)
}

// ---------------------------------------------------------------------------
// TestParsePython_Imports
// ---------------------------------------------------------------------------

func TestParsePython_Imports(t *testing.T) {
	src := `import os, sys
import numpy as np
from .models import User as U, Post
from collections import OrderedDict

def main():
    pass
`
	res := parseFile(t, "app/main.py", src)

	imports := edgesByKind(res.Edges, graph.EdgeKindImports)
	require.Len(t, imports, 5)

	assert.Equal(t, "os", imports[0].To)
	assert.Equal(t, "sys", imports[1].To)
	assert.Equal(t, "numpy", imports[2].To, "aliases are stripped")
	assert.Equal(t, ".models", imports[3].To)
	assert.Equal(t, "User, Post", imports[3].Label)
	assert.Equal(t, "collections", imports[4].To)
	assert.Equal(t, "OrderedDict", imports[4].Label)
}

// ---------------------------------------------------------------------------
// TestParsePython_NestedDefsSkipped
// ---------------------------------------------------------------------------

func TestParsePython_NestedDefsSkipped(t *testing.T) {
	src := `def outer():
    def inner():
        pass
    return inner

class Holder:
    def method(self):
        def helper():
            pass
        return helper
`
	res := parseFile(t, "nested.py", src)

	names := make([]string, 0, len(res.Nodes))
	for _, n := range res.Nodes {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"outer", "Holder", "method"}, names,
		"nested defs are not separate entities")
}
