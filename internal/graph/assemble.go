package graph

import (
	"sort"
	"time"
)

// edgeKey identifies an edge for dedup purposes. Label is deliberately
// excluded: two edges relating the same endpoints the same way are one edge.
type edgeKey struct {
	from string
	to   string
	kind EdgeKind
}

// BuildFromEntryPoints merges per-file parse output into a single graph.
// Nodes are deduplicated by identity key and edges by (from, to, kind),
// first occurrence wins in both cases. Callers guarantee deterministic
// identity keys, so dropping later duplicates is safe.
func BuildFromEntryPoints(nodes []EntityNode, edges []Edge, rootPath string, entryFiles []string) *Graph {
	seenNodes := make(map[string]bool, len(nodes))
	outNodes := make([]EntityNode, 0, len(nodes))
	for _, n := range nodes {
		if seenNodes[n.ID] {
			continue
		}
		seenNodes[n.ID] = true
		outNodes = append(outNodes, n)
	}

	seenEdges := make(map[edgeKey]bool, len(edges))
	outEdges := make([]Edge, 0, len(edges))
	for _, e := range edges {
		k := edgeKey{from: e.From, to: e.To, kind: e.Kind}
		if seenEdges[k] {
			continue
		}
		seenEdges[k] = true
		outEdges = append(outEdges, e)
	}

	files := make(map[string]bool)
	langs := make(map[Language]bool)
	for _, n := range outNodes {
		files[n.FilePath] = true
		langs[n.Language] = true
	}

	sortedLangs := make([]Language, 0, len(langs))
	for l := range langs {
		sortedLangs = append(sortedLangs, l)
	}
	sort.Slice(sortedLangs, func(i, j int) bool { return sortedLangs[i] < sortedLangs[j] })

	return &Graph{
		Nodes: outNodes,
		Edges: outEdges,
		Metadata: Metadata{
			FileCount:   len(files),
			NodeCount:   len(outNodes),
			Languages:   sortedLangs,
			RootPath:    rootPath,
			GeneratedAt: time.Now().UTC(),
			EntryPoints: entryFiles,
		},
	}
}

// FindNode returns the node with the given identity key, or nil.
func FindNode(g *Graph, nodeID string) *EntityNode {
	for i := range g.Nodes {
		if g.Nodes[i].ID == nodeID {
			return &g.Nodes[i]
		}
	}
	return nil
}

// Dependencies returns every entity declared in a file that the given
// node's file imports or otherwise points at. Cross-file edges operate at
// file granularity, so the result covers all entities of each dependency
// file, not only the imported symbols. An unknown nodeID returns nil.
func Dependencies(g *Graph, nodeID string) []EntityNode {
	node := FindNode(g, nodeID)
	if node == nil {
		return nil
	}

	targets := make(map[string]bool)
	for _, e := range g.Edges {
		if e.From == node.FilePath && e.To != node.FilePath {
			targets[e.To] = true
		}
	}

	return nodesInFiles(g, targets)
}

// Dependents is the mirror of Dependencies: every entity declared in a file
// whose edges point at the given node's file.
func Dependents(g *Graph, nodeID string) []EntityNode {
	node := FindNode(g, nodeID)
	if node == nil {
		return nil
	}

	sources := make(map[string]bool)
	for _, e := range g.Edges {
		if e.To == node.FilePath && e.From != node.FilePath {
			sources[e.From] = true
		}
	}

	return nodesInFiles(g, sources)
}

// nodesInFiles collects graph nodes whose file path is in the given set,
// preserving graph node order for reproducible output.
func nodesInFiles(g *Graph, files map[string]bool) []EntityNode {
	var out []EntityNode
	for _, n := range g.Nodes {
		if files[n.FilePath] {
			out = append(out, n)
		}
	}
	return out
}

// --- Depth-limited extraction ---

// FilterByDepth extracts the sub-graph reachable from rootNodeID within
// maxDepth hops, traversing strictly forward. File-path edges are the
// canonical cross-file relation; traversal runs over a node-keyed view
// derived on demand (see entityAdjacency). Traversal is level-order, so
// every node is reached at its shortest depth and growing maxDepth never
// shrinks the result. Visited IDs never re-enter the frontier, so cyclic
// graphs terminate for any finite maxDepth.
func FilterByDepth(g *Graph, rootNodeID string, maxDepth int) *Graph {
	root := FindNode(g, rootNodeID)
	if root == nil {
		return &Graph{Metadata: g.Metadata}
	}

	adj := entityAdjacency(g)
	visited := map[string]bool{rootNodeID: true}
	var edges []Edge

	frontier := []string{rootNodeID}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			for _, e := range adj[id] {
				edges = append(edges, e)
				if visited[e.To] {
					continue
				}
				visited[e.To] = true
				next = append(next, e.To)
			}
		}
		frontier = next
	}

	var nodes []EntityNode
	files := make(map[string]bool)
	langs := make(map[Language]bool)
	for _, n := range g.Nodes {
		if visited[n.ID] {
			nodes = append(nodes, n)
			files[n.FilePath] = true
			langs[n.Language] = true
		}
	}

	sortedLangs := make([]Language, 0, len(langs))
	for l := range langs {
		sortedLangs = append(sortedLangs, l)
	}
	sort.Slice(sortedLangs, func(i, j int) bool { return sortedLangs[i] < sortedLangs[j] })

	md := g.Metadata
	md.FileCount = len(files)
	md.NodeCount = len(nodes)
	md.Languages = sortedLangs

	return &Graph{Nodes: nodes, Edges: dedupAdjEdges(edges), Metadata: md}
}

// entityAdjacency derives a node-ID-keyed edge view from the graph.
// Entity-to-entity edges (containment) pass through unchanged. A file-level
// edge F1 -> F2 is expanded to edges from each top-level entity of F1 to
// each top-level entity of F2, so depth traversal can cross file boundaries
// while staying on entity IDs.
func entityAdjacency(g *Graph) map[string][]Edge {
	byID := make(map[string]bool, len(g.Nodes))
	byFile := make(map[string][]string)
	contained := make(map[string]bool)

	for _, n := range g.Nodes {
		byID[n.ID] = true
	}
	for _, e := range g.Edges {
		if e.Kind == EdgeKindContains && byID[e.From] && byID[e.To] {
			contained[e.To] = true
		}
	}
	for _, n := range g.Nodes {
		if !contained[n.ID] {
			byFile[n.FilePath] = append(byFile[n.FilePath], n.ID)
		}
	}

	adj := make(map[string][]Edge)
	for _, e := range g.Edges {
		if byID[e.From] && byID[e.To] {
			adj[e.From] = append(adj[e.From], e)
			continue
		}
		// File-level edge: expand across top-level entities of both files.
		// Edges at unknown targets (external imports, unresolved names)
		// have no node expansion and are skipped here; they stay visible
		// in Graph.Edges.
		froms := byFile[e.From]
		tos := byFile[e.To]
		for _, f := range froms {
			for _, t := range tos {
				adj[f] = append(adj[f], Edge{From: f, To: t, Kind: e.Kind, Label: e.Label})
			}
		}
	}
	return adj
}

// dedupAdjEdges removes duplicates produced by re-traversed adjacency
// entries, first occurrence wins.
func dedupAdjEdges(edges []Edge) []Edge {
	seen := make(map[edgeKey]bool, len(edges))
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		k := edgeKey{from: e.From, to: e.To, kind: e.Kind}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}
