// Package export renders an analysis result into consumer-facing formats:
// a self-describing JSON document and a Mermaid dependency diagram.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/probelab/codegraph/internal/analyzer"
	"github.com/probelab/codegraph/internal/graph"
)

// GraphExport is the top-level JSON export structure.
type GraphExport struct {
	Name        string             `json:"name"`
	ExportedAt  string             `json:"exportedAt"`
	Metadata    graph.Metadata     `json:"metadata"`
	EntryPoints []graph.EntryPoint `json:"entryPoints"`
	Nodes       []graph.EntityNode `json:"nodes"`
	Edges       []graph.Edge       `json:"edges"`
	Errors      []analyzer.Error   `json:"errors,omitempty"`
	Warnings    []string           `json:"warnings,omitempty"`
}

// BuildExport assembles a GraphExport from an analysis result. The document
// name is the base name of the analyzed root.
func BuildExport(res *analyzer.Result) *GraphExport {
	return &GraphExport{
		Name:        filepath.Base(res.Graph.Metadata.RootPath),
		ExportedAt:  time.Now().UTC().Format(time.RFC3339),
		Metadata:    res.Graph.Metadata,
		EntryPoints: res.EntryPoints,
		Nodes:       res.Graph.Nodes,
		Edges:       res.Graph.Edges,
		Errors:      res.Errors,
		Warnings:    res.Warnings,
	}
}

// WriteJSON marshals the export document and writes it to path, or to
// stdout when path is empty.
func WriteJSON(res *analyzer.Result, path string) error {
	out, err := json.MarshalIndent(BuildExport(res), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	out = append(out, '\n')

	if path == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(path, out, 0o644)
}
