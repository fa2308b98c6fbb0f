package mcptools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/probelab/codegraph/internal/analyzer"
	"github.com/probelab/codegraph/internal/config"
	"github.com/probelab/codegraph/internal/graph"
)

// CodeGraphService holds the most recent analysis result for the MCP tool
// handlers. build_graph replaces the cached graph; the query tools read it.
type CodeGraphService struct {
	mu     sync.RWMutex
	result *analyzer.Result
}

// NewCodeGraphService creates an empty service. No graph is available
// until build_graph runs.
func NewCodeGraphService() *CodeGraphService {
	return &CodeGraphService{}
}

// SetResult seeds the service with an existing analysis, so a server can
// start with a graph already built by the CLI.
func (s *CodeGraphService) SetResult(res *analyzer.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = res
}

func (s *CodeGraphService) current() (*analyzer.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil || s.result.Graph == nil {
		return nil, fmt.Errorf("no graph available; run build_graph first")
	}
	return s.result, nil
}

// BuildGraph analyzes a workspace and caches the resulting graph for the
// query tools.
func (s *CodeGraphService) BuildGraph(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input BuildGraphInput,
) (*mcp.CallToolResult, BuildGraphOutput, error) {
	if input.RootPath == "" {
		return nil, BuildGraphOutput{}, fmt.Errorf("rootPath is required")
	}

	cfg := &config.ProjectConfig{
		Languages:   input.Languages,
		ExcludeDirs: input.ExcludeDirs,
		MaxDepth:    input.MaxDepth,
	}

	res, err := analyzer.New(cfg).Analyze(ctx, input.RootPath)
	if err != nil {
		return nil, BuildGraphOutput{}, err
	}

	s.mu.Lock()
	s.result = res
	s.mu.Unlock()

	out := BuildGraphOutput{
		Metadata: res.Graph.Metadata,
		Warnings: res.Warnings,
	}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, analyzerError{
			File:    e.File,
			Line:    e.Line,
			Message: e.Message,
			Type:    e.Type,
		})
	}
	return nil, out, nil
}

// QueryNodes searches the cached graph for entities by name substring.
func (s *CodeGraphService) QueryNodes(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input QueryNodesInput,
) (*mcp.CallToolResult, QueryNodesOutput, error) {
	res, err := s.current()
	if err != nil {
		return nil, QueryNodesOutput{}, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	query := strings.ToLower(input.Query)
	kind := graph.NodeKind(strings.ToLower(input.Kind))

	var matched []graph.EntityNode
	total := 0
	for _, n := range res.Graph.Nodes {
		if query != "" && !strings.Contains(strings.ToLower(n.Name), query) {
			continue
		}
		if input.Kind != "" && n.Kind != kind {
			continue
		}
		total++
		if len(matched) < limit {
			matched = append(matched, n)
		}
	}

	return nil, QueryNodesOutput{Nodes: matched, Total: total}, nil
}

// GetDependencies returns the entities the given node's file imports.
func (s *CodeGraphService) GetDependencies(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetDependenciesInput,
) (*mcp.CallToolResult, GetDependenciesOutput, error) {
	res, err := s.current()
	if err != nil {
		return nil, GetDependenciesOutput{}, err
	}
	if input.NodeID == "" {
		return nil, GetDependenciesOutput{}, fmt.Errorf("nodeId is required")
	}

	if graph.FindNode(res.Graph, input.NodeID) == nil {
		return nil, GetDependenciesOutput{}, fmt.Errorf("unknown node: %s", input.NodeID)
	}
	return nil, GetDependenciesOutput{Nodes: graph.Dependencies(res.Graph, input.NodeID)}, nil
}

// GetDependents returns the entities whose files import the given node's file.
func (s *CodeGraphService) GetDependents(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetDependenciesInput,
) (*mcp.CallToolResult, GetDependenciesOutput, error) {
	res, err := s.current()
	if err != nil {
		return nil, GetDependenciesOutput{}, err
	}
	if input.NodeID == "" {
		return nil, GetDependenciesOutput{}, fmt.Errorf("nodeId is required")
	}

	if graph.FindNode(res.Graph, input.NodeID) == nil {
		return nil, GetDependenciesOutput{}, fmt.Errorf("unknown node: %s", input.NodeID)
	}
	return nil, GetDependenciesOutput{Nodes: graph.Dependents(res.Graph, input.NodeID)}, nil
}

// GetSubgraph returns the subgraph reachable from a node within maxDepth hops.
func (s *CodeGraphService) GetSubgraph(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetSubgraphInput,
) (*mcp.CallToolResult, GetSubgraphOutput, error) {
	res, err := s.current()
	if err != nil {
		return nil, GetSubgraphOutput{}, err
	}
	if input.NodeID == "" {
		return nil, GetSubgraphOutput{}, fmt.Errorf("nodeId is required")
	}
	if graph.FindNode(res.Graph, input.NodeID) == nil {
		return nil, GetSubgraphOutput{}, fmt.Errorf("unknown node: %s", input.NodeID)
	}

	maxDepth := input.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 3
	}

	sub := graph.FilterByDepth(res.Graph, input.NodeID, maxDepth)
	return nil, GetSubgraphOutput{Graph: sub}, nil
}

// ListEntryPoints returns the entry point candidates from the last analysis.
func (s *CodeGraphService) ListEntryPoints(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListEntryPointsInput,
) (*mcp.CallToolResult, ListEntryPointsOutput, error) {
	res, err := s.current()
	if err != nil {
		return nil, ListEntryPointsOutput{}, err
	}
	return nil, ListEntryPointsOutput{EntryPoints: res.EntryPoints}, nil
}
