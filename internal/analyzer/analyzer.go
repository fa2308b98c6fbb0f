// Package analyzer orchestrates one workspace analysis: enumerate files,
// detect entry points, resolve imports, select the working file set by a
// depth-bounded traversal from the entry points, parse each file, and
// assemble the result graph. Per-file failures degrade the output instead
// of aborting it; only workspace enumeration is fatal.
package analyzer

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/probelab/codegraph/internal/config"
	"github.com/probelab/codegraph/internal/entry"
	"github.com/probelab/codegraph/internal/graph"
	"github.com/probelab/codegraph/internal/parse"
	"github.com/probelab/codegraph/internal/resolve"
	"github.com/probelab/codegraph/internal/scanner"
)

// Error classifications for the soft-failure channel.
const (
	ErrorTypeParse = "parse-error"
	ErrorTypeFile  = "file-error"
)

// Error is one per-file soft failure.
type Error struct {
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Result wraps the graph with the soft-failure channel.
type Result struct {
	Graph       *graph.Graph       `json:"graph"`
	EntryPoints []graph.EntryPoint `json:"entryPoints"`
	Errors      []Error            `json:"errors,omitempty"`
	Warnings    []string           `json:"warnings,omitempty"`
}

// Analyzer runs workspace analyses. It holds no state between runs; every
// Analyze call produces a fresh graph.
type Analyzer struct {
	cfg *config.ProjectConfig
}

// New creates an Analyzer with the given configuration.
func New(cfg *config.ProjectConfig) *Analyzer {
	if cfg == nil {
		cfg = &config.ProjectConfig{}
	}
	return &Analyzer{cfg: cfg}
}

// Analyze builds the dependency graph of the workspace rooted at rootPath.
func (a *Analyzer) Analyze(ctx context.Context, rootPath string) (*Result, error) {
	rootPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("analyzer: resolve root: %w", err)
	}

	files, err := scanner.Scan(rootPath, scanner.Options{
		ExcludeDirs:  a.cfg.ExcludeDirs,
		ExcludeGlobs: a.cfg.ExcludeGlobs,
	})
	if err != nil {
		return nil, fmt.Errorf("analyzer: enumerate workspace: %w", err)
	}

	files = a.filterLanguages(files)

	res := &Result{}

	// Read everything up front; unreadable files drop out with a
	// file-error and never reach a parser.
	contents := make(map[string]string, len(files))
	readable := files[:0]
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			res.Errors = append(res.Errors, Error{File: f, Message: err.Error(), Type: ErrorTypeFile})
			continue
		}
		contents[f] = string(data)
		readable = append(readable, f)
	}
	files = readable

	entryPoints := entry.Detect(rootPath, files, func(path string) (string, error) {
		if c, ok := contents[path]; ok {
			return c, nil
		}
		return "", fmt.Errorf("not read: %s", path)
	})
	if a.cfg.MaxEntryPoints > 0 && len(entryPoints) > a.cfg.MaxEntryPoints {
		entryPoints = entryPoints[:a.cfg.MaxEntryPoints]
	}
	res.EntryPoints = entryPoints

	resolver := resolve.New(rootPath, files)
	importMap := make(map[string][]resolve.ResolvedImport, len(files))
	for _, f := range files {
		importMap[f] = resolver.FileImports(f, contents[f])
	}

	selected := a.selectWorkingSet(files, entryPoints, importMap, res)

	if a.cfg.Verbose {
		log.Printf("analyzer: %d files enumerated, %d selected, %d entry candidates", len(files)+len(res.Errors), len(selected), len(entryPoints))
	}

	nodes, edges := a.parseFiles(ctx, selected, contents, entryPoints, res)

	// Canonical file-to-file dependency edges from the import map.
	for _, f := range selected {
		for _, imp := range importMap[f] {
			edges = append(edges, graph.Edge{
				From:  f,
				To:    imp.TargetFile,
				Kind:  graph.EdgeKindImports,
				Label: strings.Join(imp.ImportedItems, ", "),
			})
		}
	}

	edges = a.rewriteImportTargets(resolver, edges)
	edges = resolveInheritanceByName(nodes, edges)
	applyEntryFlags(nodes, entryPoints)

	var entryFiles []string
	for _, ep := range entryPoints {
		entryFiles = append(entryFiles, ep.FilePath)
	}

	res.Graph = graph.BuildFromEntryPoints(nodes, edges, rootPath, entryFiles)
	return res, nil
}

// filterLanguages applies the configured language allow-list.
func (a *Analyzer) filterLanguages(files []string) []string {
	if len(a.cfg.Languages) == 0 {
		return files
	}
	allowed := make(map[graph.Language]bool, len(a.cfg.Languages))
	for _, l := range a.cfg.Languages {
		allowed[graph.Language(strings.ToLower(l))] = true
	}
	out := files[:0]
	for _, f := range files {
		if lang, ok := parse.LanguageFor(f); ok && allowed[lang] {
			out = append(out, f)
		}
	}
	return out
}

// selectWorkingSet walks the file-level import map from the entry points,
// bounded by the configured depth, and returns the reachable files in
// enumeration order. Without entry candidates the whole workspace is
// analyzed.
func (a *Analyzer) selectWorkingSet(files []string, entryPoints []graph.EntryPoint, importMap map[string][]resolve.ResolvedImport, res *Result) []string {
	if len(entryPoints) == 0 {
		res.Warnings = append(res.Warnings, "no entry points detected; analyzing all files")
		return files
	}

	maxDepth := a.cfg.MaxDepthOrDefault()
	visited := make(map[string]bool)
	frontier := make([]string, 0, len(entryPoints))
	for _, ep := range entryPoints {
		if !visited[ep.FilePath] {
			visited[ep.FilePath] = true
			frontier = append(frontier, ep.FilePath)
		}
	}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, f := range frontier {
			for _, imp := range importMap[f] {
				if visited[imp.TargetFile] {
					continue
				}
				visited[imp.TargetFile] = true
				next = append(next, imp.TargetFile)
			}
		}
		frontier = next
	}

	selected := make([]string, 0, len(visited))
	for _, f := range files {
		if visited[f] {
			selected = append(selected, f)
		}
	}
	return selected
}

// parseFiles dispatches every selected file to its language parser.
// Sequential by default; with Workers > 1 files parse concurrently into
// ordered slots, so output order stays identical to the sequential run.
func (a *Analyzer) parseFiles(ctx context.Context, selected []string, contents map[string]string, entryPoints []graph.EntryPoint, res *Result) ([]graph.EntityNode, []graph.Edge) {
	entrySet := make(map[string]bool, len(entryPoints))
	for _, ep := range entryPoints {
		entrySet[ep.FilePath] = true
	}

	type slot struct {
		result parse.Result
		sink   parse.CollectorSink
	}
	slots := make([]slot, len(selected))

	workers := a.cfg.WorkersOrDefault()
	if workers <= 1 {
		for i, f := range selected {
			slots[i].result = parse.Dispatch(parse.Request{
				FilePath:     f,
				Content:      contents[f],
				IsEntryPoint: entrySet[f],
			}, &slots[i].sink)
		}
	} else {
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i, f := range selected {
			g.Go(func() error {
				slots[i].result = parse.Dispatch(parse.Request{
					FilePath:     f,
					Content:      contents[f],
					IsEntryPoint: entrySet[f],
				}, &slots[i].sink)
				return nil
			})
		}
		// Workers never return errors; soft failures land in the sinks.
		_ = g.Wait()
	}

	var nodes []graph.EntityNode
	var edges []graph.Edge
	for i := range slots {
		nodes = append(nodes, slots[i].result.Nodes...)
		edges = append(edges, slots[i].result.Edges...)
		for _, d := range slots[i].sink.Diagnostics {
			res.Errors = append(res.Errors, Error{File: d.File, Line: d.Line, Message: d.Message, Type: ErrorTypeParse})
		}
	}
	return nodes, edges
}

// rewriteImportTargets upgrades parser-emitted import edges whose target is
// still a raw specifier to resolved workspace paths where possible.
// Unresolvable targets keep the raw specifier: consumers treat them as
// external, not as errors.
func (a *Analyzer) rewriteImportTargets(resolver *resolve.Resolver, edges []graph.Edge) []graph.Edge {
	for i := range edges {
		e := &edges[i]
		if e.Kind != graph.EdgeKindImports || filepath.IsAbs(e.To) {
			continue
		}
		kind := resolve.ImportDynamic
		if strings.HasSuffix(e.From, ".py") || strings.HasSuffix(e.From, ".java") {
			kind = resolve.ImportPlain
		}
		if target, ok := resolver.Resolve(e.From, resolve.RawImport{Specifier: e.To, Kind: kind}); ok {
			e.To = target
		}
	}
	return edges
}

// resolveInheritanceByName rewrites extends/implements edges whose target
// is a bare type name to the file declaring a type of that name, when one
// exists in the graph. Java and Python inheritance is name-based, unlike
// path-based imports. First declaration wins; unmatched names stay raw.
func resolveInheritanceByName(nodes []graph.EntityNode, edges []graph.Edge) []graph.Edge {
	declFile := make(map[string]string)
	for _, n := range nodes {
		switch n.Kind {
		case graph.NodeKindClass, graph.NodeKindInterface, graph.NodeKindComponent:
			if _, ok := declFile[n.Name]; !ok {
				declFile[n.Name] = n.FilePath
			}
		}
	}

	for i := range edges {
		e := &edges[i]
		if e.Kind != graph.EdgeKindExtends && e.Kind != graph.EdgeKindImplements {
			continue
		}
		if filepath.IsAbs(e.To) {
			continue
		}
		if target, ok := declFile[e.To]; ok && target != e.From {
			e.To = target
		}
	}
	return edges
}

// applyEntryFlags reflects the entry-point outcome onto nodes. Every node
// in a ranked entry file is flagged; exactly one node, the first of the
// primary file, carries the primary flag.
func applyEntryFlags(nodes []graph.EntityNode, entryPoints []graph.EntryPoint) {
	entrySet := make(map[string]bool, len(entryPoints))
	primaryFile := ""
	for _, ep := range entryPoints {
		entrySet[ep.FilePath] = true
		if ep.IsPrimary {
			primaryFile = ep.FilePath
		}
	}

	primaryAssigned := false
	for i := range nodes {
		if !entrySet[nodes[i].FilePath] {
			continue
		}
		nodes[i].IsEntryPoint = true
		if !primaryAssigned && nodes[i].FilePath == primaryFile {
			nodes[i].IsPrimaryEntry = true
			primaryAssigned = true
		}
	}
}
