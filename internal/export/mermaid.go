package export

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/probelab/codegraph/internal/graph"
)

// GenerateMermaid produces a Mermaid graph TD diagram from an assembled
// graph. Entities are grouped into a subgraph per source file; file-level
// import edges become arrows. Unresolved import targets appear as plain
// nodes so external dependencies stay visible.
func GenerateMermaid(g *graph.Graph) string {
	// Build node → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(path string) string {
		if id, ok := nodeIDs[path]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[path] = id
		return id
	}

	// Group entities by declaring file.
	byFile := make(map[string][]graph.EntityNode)
	for _, n := range g.Nodes {
		byFile[n.FilePath] = append(byFile[n.FilePath], n)
	}
	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	// Emit one subgraph per file.
	for _, f := range files {
		sb.WriteString(fmt.Sprintf("  subgraph %s[\"%.40s\"]\n", getID(f), shortPath(f)))
		for _, n := range byFile[f] {
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", getID(n.ID), n.Name))
		}
		sb.WriteString("  end\n")
	}

	// Emit file-level import edges. External targets have no subgraph, so
	// declare them with a label on first sight.
	for _, e := range g.Edges {
		if e.Kind != graph.EdgeKindImports {
			continue
		}
		if _, ok := byFile[e.From]; !ok {
			continue
		}
		srcID := getID(e.From)
		if _, seen := nodeIDs[e.To]; !seen {
			sb.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", getID(e.To), shortPath(e.To)))
		}
		sb.WriteString(fmt.Sprintf("  %s --> %s\n", srcID, getID(e.To)))
	}

	return sb.String()
}

// shortPath returns the last 2 path segments for readability.
func shortPath(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= 2 {
		return path
	}
	return strings.Join(parts[len(parts)-2:], "/")
}
