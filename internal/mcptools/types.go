package mcptools

import "github.com/probelab/codegraph/internal/graph"

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// BuildGraphInput is the input for the build_graph MCP tool.
type BuildGraphInput struct {
	RootPath    string   `json:"rootPath" jsonschema:"the absolute path to the workspace to analyze"`
	Languages   []string `json:"languages,omitempty" jsonschema:"languages to analyze (default: all). Values: java, python, typescript, javascript"`
	ExcludeDirs []string `json:"excludeDirs,omitempty" jsonschema:"directory names to exclude from scanning (e.g. vendor, generated)"`
	MaxDepth    int      `json:"maxDepth,omitempty" jsonschema:"maximum traversal depth from entry points (default: 10)"`
}

// BuildGraphOutput is the result of the build_graph MCP tool.
type BuildGraphOutput struct {
	Metadata graph.Metadata  `json:"metadata"`
	Errors   []analyzerError `json:"errors,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}

// analyzerError mirrors analyzer.Error for tool output.
type analyzerError struct {
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// QueryNodesInput is the input for the query_nodes MCP tool.
type QueryNodesInput struct {
	Query string `json:"query" jsonschema:"search query for entity names (substring match, case-insensitive)"`
	Kind  string `json:"kind,omitempty" jsonschema:"filter by entity kind: class, interface, function, method, component, module"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default: 20)"`
}

// QueryNodesOutput is the result of the query_nodes MCP tool.
type QueryNodesOutput struct {
	Nodes []graph.EntityNode `json:"nodes"`
	Total int                `json:"total"`
}

// GetDependenciesInput is the input for the get_dependencies and
// get_dependents MCP tools.
type GetDependenciesInput struct {
	NodeID string `json:"nodeId" jsonschema:"entity node ID (filePath#kind:name@line)"`
}

// GetDependenciesOutput is the result of get_dependencies and get_dependents.
type GetDependenciesOutput struct {
	Nodes []graph.EntityNode `json:"nodes"`
}

// GetSubgraphInput is the input for the get_subgraph MCP tool.
type GetSubgraphInput struct {
	NodeID   string `json:"nodeId" jsonschema:"entity node ID to start the traversal from"`
	MaxDepth int    `json:"maxDepth,omitempty" jsonschema:"maximum traversal depth (default: 3)"`
}

// GetSubgraphOutput is the result of the get_subgraph MCP tool.
type GetSubgraphOutput struct {
	Graph *graph.Graph `json:"graph"`
}

// ListEntryPointsInput is the input for the list_entry_points MCP tool.
type ListEntryPointsInput struct{}

// ListEntryPointsOutput is the result of the list_entry_points MCP tool.
type ListEntryPointsOutput struct {
	EntryPoints []graph.EntryPoint `json:"entryPoints"`
}
