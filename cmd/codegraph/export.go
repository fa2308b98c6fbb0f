package main

import (
	"context"
	"os"

	"github.com/probelab/codegraph/internal/analyzer"
	"github.com/probelab/codegraph/internal/export"
	"github.com/probelab/codegraph/internal/graph"
)

// writeMermaid renders the dependency diagram and writes it to path, or to
// stdout when path is "-".
func writeMermaid(res *analyzer.Result, path string) error {
	out := export.GenerateMermaid(res.Graph)
	if path == "-" {
		_, err := os.Stdout.WriteString(out)
		return err
	}
	return os.WriteFile(path, []byte(out), 0o644)
}

// exportGraph writes the graph snapshot to a file-based KuzuDB. The old
// database is removed first to avoid stale data.
func exportGraph(ctx context.Context, res *analyzer.Result, dbPath string) error {
	os.RemoveAll(dbPath)

	store, err := graph.OpenKuzuStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Save(ctx, res.Graph)
}
