package graph

import (
	"fmt"
	"time"
)

// --- Enums ---

// NodeKind classifies parsed declarations.
type NodeKind string

const (
	NodeKindClass     NodeKind = "class"
	NodeKindFunction  NodeKind = "function"
	NodeKindMethod    NodeKind = "method"
	NodeKindComponent NodeKind = "component"
	NodeKindModule    NodeKind = "module"
	NodeKindInterface NodeKind = "interface"
)

// EdgeKind classifies relationships between nodes or files.
type EdgeKind string

const (
	EdgeKindImports    EdgeKind = "imports"
	EdgeKindExtends    EdgeKind = "extends"
	EdgeKindImplements EdgeKind = "implements"
	EdgeKindContains   EdgeKind = "contains"
	EdgeKindCalls      EdgeKind = "calls"
	EdgeKindUses       EdgeKind = "uses"
)

// Language identifies the source language of a parsed file.
type Language string

const (
	LangJava       Language = "java"
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangPython     Language = "python"
)

// Visibility is the declared (or defaulted) access level of an entity.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
)

// --- Models ---

// Parameter is one entry of an entity's signature, as recovered from text.
type Parameter struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Optional bool   `json:"optional,omitempty"`
	Default  string `json:"default,omitempty"`
}

// Modifiers holds the language-dependent declaration modifiers of an entity.
// Zero values mean the modifier is absent or not applicable.
type Modifiers struct {
	Visibility Visibility `json:"visibility,omitempty"`
	Static     bool       `json:"static,omitempty"`
	Async      bool       `json:"async,omitempty"`
	Abstract   bool       `json:"abstract,omitempty"`
}

// EntityNode is a single declaration extracted from source text. Nodes are
// immutable after parsing except for the entry-point flags, which are set
// once entry detection has run.
type EntityNode struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Kind       NodeKind    `json:"kind"`
	Language   Language    `json:"language"`
	FilePath   string      `json:"filePath"`
	StartLine  int         `json:"startLine"` // 1-based, inclusive
	EndLine    int         `json:"endLine"`   // 1-based, inclusive
	Modifiers  Modifiers   `json:"modifiers,omitempty"`
	Parameters []Parameter `json:"parameters,omitempty"`
	ReturnType string      `json:"returnType,omitempty"`

	// Component extras (TS/JS only).
	Props []string `json:"props,omitempty"`
	Hooks []string `json:"hooks,omitempty"`

	IsEntryPoint   bool `json:"isEntryPoint,omitempty"`
	IsPrimaryEntry bool `json:"isPrimaryEntry,omitempty"`

	// Source is the verbatim declaration text, kept for downstream
	// documentation consumers. Never reformatted.
	Source string `json:"source,omitempty"`
}

// Edge is a directed relation. From and To are entity IDs for same-file
// containment and absolute file paths for cross-file relations. Targets of
// unresolved extends/implements edges keep the raw source-level name;
// consumers treat those as external, not as dangling references.
type Edge struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Kind  EdgeKind `json:"kind"`
	Label string   `json:"label,omitempty"`
}

// EntryPoint is a ranked entry-file candidate. It exists only during
// analysis; the outcome is reflected onto EntityNode flags.
type EntryPoint struct {
	FilePath  string `json:"filePath"`
	Type      string `json:"type"`
	Score     int    `json:"score"`
	IsPrimary bool   `json:"isPrimary"`
}

// Metadata summarizes an assembled graph.
type Metadata struct {
	FileCount   int        `json:"fileCount"`
	NodeCount   int        `json:"nodeCount"`
	Languages   []Language `json:"languages"` // sorted, unique
	RootPath    string     `json:"rootPath"`
	GeneratedAt time.Time  `json:"generatedAt"`
	EntryPoints []string   `json:"entryPoints"`
}

// Graph is the assembled, deduplicated result of one workspace analysis.
// It is handed to consumers as a read-only snapshot; a fresh Graph is built
// on every analysis run.
type Graph struct {
	Nodes    []EntityNode `json:"nodes"`
	Edges    []Edge       `json:"edges"`
	Metadata Metadata     `json:"metadata"`
}

// NodeID derives the stable identity key for a declaration. Identical file
// content always yields identical keys, which makes first-wins dedup during
// assembly safe.
func NodeID(filePath string, kind NodeKind, name string, startLine int) string {
	return fmt.Sprintf("%s#%s:%s@%d", filePath, kind, name, startLine)
}
