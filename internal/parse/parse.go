// Package parse contains the per-language source parsers. Each parser turns
// one file's text into entity nodes and raw relationship edges. Parsers are
// best-effort lexical analyzers, not compiler front ends: Java and Python
// use line, brace, and indentation heuristics; TypeScript and JavaScript go
// through tree-sitter.
package parse

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/probelab/codegraph/internal/graph"
)

// Request is one file handed to a parser.
type Request struct {
	FilePath     string
	Content      string
	IsEntryPoint bool
}

// Result is the shared output shape of every language parser.
type Result struct {
	Nodes []graph.EntityNode
	Edges []graph.Edge
}

// Diagnostic is one message emitted while parsing a file.
type Diagnostic struct {
	File    string
	Line    int
	Message string
}

// DiagnosticSink collects parser diagnostics. Parsers never log on their
// own; the caller owns the sink and decides what to do with its contents.
type DiagnosticSink interface {
	Report(d Diagnostic)
}

// CollectorSink is an append-only DiagnosticSink.
type CollectorSink struct {
	Diagnostics []Diagnostic
}

func (c *CollectorSink) Report(d Diagnostic) {
	c.Diagnostics = append(c.Diagnostics, d)
}

// LanguageFor maps a file extension to the language its parser handles.
// Unknown extensions return false.
func LanguageFor(path string) (graph.Language, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".java":
		return graph.LangJava, true
	case ".py":
		return graph.LangPython, true
	case ".ts", ".tsx":
		return graph.LangTypeScript, true
	case ".js", ".jsx", ".mjs", ".cjs":
		return graph.LangJavaScript, true
	default:
		return "", false
	}
}

// Dispatch routes a file to the parser for its extension. The language set
// is closed, so this is a plain switch rather than a registry. Files with
// unsupported extensions produce an empty Result. A parser panic is
// converted into an empty Result plus a diagnostic so one bad file never
// aborts a workspace analysis.
func Dispatch(req Request, sink DiagnosticSink) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			sink.Report(Diagnostic{
				File:    req.FilePath,
				Message: fmt.Sprintf("parser panic: %v", r),
			})
			res = Result{}
		}
	}()

	lang, ok := LanguageFor(req.FilePath)
	if !ok {
		return Result{}
	}

	switch lang {
	case graph.LangJava:
		return ParseJava(req, sink)
	case graph.LangPython:
		return ParsePython(req, sink)
	case graph.LangTypeScript, graph.LangJavaScript:
		return ParseTypeScript(req, sink)
	}
	return Result{}
}

// moduleName derives the synthetic module node name for a file.
func moduleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// syntheticModuleNode creates the module node emitted for entry-point files
// with no detected declarations, so every marked entry point stays visible
// in the graph.
func syntheticModuleNode(req Request, lang graph.Language, lineCount int) graph.EntityNode {
	end := lineCount
	if end < 1 {
		end = 1
	}
	return graph.EntityNode{
		ID:        graph.NodeID(req.FilePath, graph.NodeKindModule, moduleName(req.FilePath), 1),
		Name:      moduleName(req.FilePath),
		Kind:      graph.NodeKindModule,
		Language:  lang,
		FilePath:  req.FilePath,
		StartLine: 1,
		EndLine:   end,
	}
}

// splitLines splits file content into lines without dropping a trailing
// newline artifact line.
func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
