package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/probelab/codegraph/internal/analyzer"
	"github.com/probelab/codegraph/internal/config"
	"github.com/probelab/codegraph/internal/export"
	"github.com/probelab/codegraph/internal/mcptools"
)

// CLI flags parsed from command line.
type cliFlags struct {
	Root        string
	JSONPath    string
	MermaidPath string
	ExportDB    string
	MaxDepth    int
	Workers     int
	ServeMCP    bool
	Addr        string
	Verbose     bool
	Version     bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("codegraph", flag.ContinueOnError)
	fs.StringVar(&flags.Root, "root", ".", "path to the workspace to analyze")
	fs.StringVar(&flags.JSONPath, "json", "", "write the graph JSON to this file instead of stdout")
	fs.StringVar(&flags.MermaidPath, "mermaid", "", "also write a Mermaid diagram to this file (\"-\" for stdout)")
	fs.StringVar(&flags.ExportDB, "export", "", "also export the graph to a KuzuDB at this path")
	fs.IntVar(&flags.MaxDepth, "max-depth", 0, "maximum traversal depth from entry points (0 = config or default)")
	fs.IntVar(&flags.Workers, "workers", 0, "parallel parse workers (0 = config or sequential)")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as MCP server instead of printing the graph")
	fs.StringVar(&flags.Addr, "addr", "127.0.0.1:7420", "listen address for the MCP server")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable verbose output")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flags.ServeMCP {
		svc := mcptools.NewCodeGraphService()
		return mcptools.RunMCPServer(ctx, svc, flags.Addr)
	}

	cfg, err := config.Load(flags.Root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flags.MaxDepth > 0 {
		cfg.MaxDepth = flags.MaxDepth
	}
	if flags.Workers > 0 {
		cfg.Workers = flags.Workers
	}
	if flags.Verbose {
		cfg.Verbose = true
	}

	res, err := analyzer.New(cfg).Analyze(ctx, flags.Root)
	if err != nil {
		return err
	}

	if flags.Verbose {
		for _, w := range res.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		for _, e := range res.Errors {
			fmt.Fprintf(os.Stderr, "%s: %s: %s\n", e.Type, e.File, e.Message)
		}
	}

	if flags.ExportDB != "" {
		if err := exportGraph(ctx, res, flags.ExportDB); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
	}

	if flags.MermaidPath != "" {
		if err := writeMermaid(res, flags.MermaidPath); err != nil {
			return fmt.Errorf("write diagram: %w", err)
		}
	}

	return export.WriteJSON(res, flags.JSONPath)
}
