package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewCodeGraphMCPServer creates an MCP server with all 6 graph tools registered.
func NewCodeGraphMCPServer(svc *CodeGraphService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "codegraph",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "build_graph",
		Description: "Analyze a workspace and build its dependency graph. Scans the file tree, detects entry points, parses Java, Python, and TypeScript/JavaScript sources, and resolves imports to project files.",
	}, svc.BuildGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_nodes",
		Description: "Search for entities (classes, functions, methods, components, interfaces) by name substring match. Optionally filter by kind and limit results.",
	}, svc.QueryNodes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_dependencies",
		Description: "Return the entities declared in files that a given node's file imports.",
	}, svc.GetDependencies)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_dependents",
		Description: "Return the entities declared in files that import a given node's file.",
	}, svc.GetDependents)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_subgraph",
		Description: "Extract the sub-graph reachable from a node within a maximum depth, following forward edges only.",
	}, svc.GetSubgraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_entry_points",
		Description: "List the entry point candidates detected during the last build, primary candidate first.",
	}, svc.ListEntryPoints)

	return server
}

// RunMCPServer starts an HTTP server exposing the graph tools.
func RunMCPServer(ctx context.Context, svc *CodeGraphService, addr string) error {
	server := NewCodeGraphMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
