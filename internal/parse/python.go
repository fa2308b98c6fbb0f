package parse

import (
	"regexp"
	"strings"

	"github.com/probelab/codegraph/internal/graph"
)

// Python parsing works off indentation depth. A line at or below a
// declaration's own indent level ends its block. Tab/space-mixed files are
// a known accuracy limit.

var (
	pyClassRe     = regexp.MustCompile(`^(\s*)class\s+([A-Za-z_]\w*)\s*(?:\(([^)]*)\))?\s*:`)
	pyDefRe       = regexp.MustCompile(`^(\s*)(async\s+)?def\s+([A-Za-z_]\w*)\s*\((.*)$`)
	pyDecoratorRe = regexp.MustCompile(`^\s*@([\w.]+)`)
	pyImportRe    = regexp.MustCompile(`^\s*import\s+([\w.]+(?:\s*,\s*[\w.]+)*)`)
	pyFromRe      = regexp.MustCompile(`^\s*from\s+([.\w]+)\s+import\s+(.+)$`)
)

// ParsePython extracts classes, methods, module-level functions, and import
// edges from Python source text.
func ParsePython(req Request, sink DiagnosticSink) Result {
	lines := splitLines(req.Content)
	var res Result
	var pendingDecorators []string

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if m := pyDecoratorRe.FindStringSubmatch(lines[i]); m != nil {
			pendingDecorators = append(pendingDecorators, m[1])
			continue
		}

		if m := pyClassRe.FindStringSubmatch(lines[i]); m != nil && len(m[1]) == 0 {
			end := pyBlockEnd(lines, i, 0)
			res = appendPyClass(res, req, lines, i, end)
			pendingDecorators = nil
			i = end
			continue
		}

		if m := pyDefRe.FindStringSubmatch(lines[i]); m != nil && len(m[1]) == 0 {
			node := pyFunctionNode(req, lines, i, m, graph.NodeKindFunction, pendingDecorators, false)
			res.Nodes = append(res.Nodes, node)
			pendingDecorators = nil
			i = node.EndLine - 1
			continue
		}

		if e, ok := pyImportEdge(req.FilePath, lines[i]); ok {
			res.Edges = append(res.Edges, e...)
			pendingDecorators = nil
			continue
		}

		pendingDecorators = nil
	}

	if len(res.Nodes) == 0 && req.IsEntryPoint {
		res.Nodes = append(res.Nodes, syntheticModuleNode(req, graph.LangPython, len(lines)))
	}
	return res
}

func appendPyClass(res Result, req Request, lines []string, startIdx, endIdx int) Result {
	m := pyClassRe.FindStringSubmatch(lines[startIdx])
	name := m[2]

	classNode := graph.EntityNode{
		ID:        graph.NodeID(req.FilePath, graph.NodeKindClass, name, startIdx+1),
		Name:      name,
		Kind:      graph.NodeKindClass,
		Language:  graph.LangPython,
		FilePath:  req.FilePath,
		StartLine: startIdx + 1,
		EndLine:   endIdx + 1,
		Modifiers: graph.Modifiers{Visibility: pyVisibility(name)},
		Source:    strings.Join(lines[startIdx:endIdx+1], "\n"),
	}
	res.Nodes = append(res.Nodes, classNode)

	for _, base := range pyBases(m[3]) {
		res.Edges = append(res.Edges, graph.Edge{
			From:  req.FilePath,
			To:    base,
			Kind:  graph.EdgeKindExtends,
			Label: name + " extends " + base,
		})
	}

	classIndent := len(m[1])
	var pendingDecorators []string
	for i := startIdx + 1; i <= endIdx && i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if indentWidth(lines[i]) != classIndent+4 {
			continue
		}

		if dm := pyDecoratorRe.FindStringSubmatch(lines[i]); dm != nil {
			pendingDecorators = append(pendingDecorators, dm[1])
			continue
		}

		if dm := pyDefRe.FindStringSubmatch(lines[i]); dm != nil {
			method := pyFunctionNode(req, lines, i, dm, graph.NodeKindMethod, pendingDecorators, true)
			res.Nodes = append(res.Nodes, method)
			res.Edges = append(res.Edges, graph.Edge{
				From: classNode.ID,
				To:   method.ID,
				Kind: graph.EdgeKindContains,
			})
			pendingDecorators = nil
			i = method.EndLine - 1
			continue
		}

		pendingDecorators = nil
	}
	return res
}

func pyFunctionNode(req Request, lines []string, startIdx int, m []string, kind graph.NodeKind, decorators []string, dropSelf bool) graph.EntityNode {
	name := m[3]
	indent := len(m[1])
	sig, headerEnd := pySignature(lines, startIdx, m[4])
	end := pyBlockEnd(lines, headerEnd, indent)

	static := false
	for _, d := range decorators {
		if d == "staticmethod" || d == "classmethod" {
			static = true
		}
	}

	params := pyParams(sig.params)
	if dropSelf && len(params) > 0 && (params[0].Name == "self" || params[0].Name == "cls") {
		params = params[1:]
	}

	return graph.EntityNode{
		ID:        graph.NodeID(req.FilePath, kind, name, startIdx+1),
		Name:      name,
		Kind:      kind,
		Language:  graph.LangPython,
		FilePath:  req.FilePath,
		StartLine: startIdx + 1,
		EndLine:   end + 1,
		Modifiers: graph.Modifiers{
			Visibility: pyVisibility(name),
			Static:     static,
			Async:      strings.TrimSpace(m[2]) == "async",
		},
		Parameters: params,
		ReturnType: sig.returnType,
		Source:     strings.Join(lines[startIdx:min(end+1, len(lines))], "\n"),
	}
}

type pySig struct {
	params     string
	returnType string
}

// pySignature gathers the parameter list (which may span lines) and the
// annotated return type of a def whose header starts at startIdx. afterParen
// is the header-line text following the opening paren. It returns the
// signature and the index of the line holding the terminating colon.
func pySignature(lines []string, startIdx int, afterParen string) (pySig, int) {
	depth := 1
	var params strings.Builder
	var tail strings.Builder
	text := afterParen
	idx := startIdx

scan:
	for {
		for pos, r := range text {
			switch r {
			case '(', '[', '{':
				depth++
			case ')', ']', '}':
				depth--
				if depth == 0 {
					tail.WriteString(text[pos+1:])
					break scan
				}
			}
			params.WriteRune(r)
		}
		idx++
		if idx >= len(lines) || idx > startIdx+20 {
			break
		}
		params.WriteRune(' ')
		text = lines[idx]
	}

	// The tail is either ": [inline suite]" or "-> Type: [inline suite]".
	// Without an arrow there is no annotation, whatever follows the colon.
	ret := strings.TrimSpace(tail.String())
	if strings.HasPrefix(ret, "->") {
		ret = strings.TrimSpace(strings.TrimPrefix(ret, "->"))
		if c := indexTopLevel(ret, ':'); c >= 0 {
			ret = strings.TrimSpace(ret[:c])
		}
	} else {
		ret = ""
	}

	return pySig{params: params.String(), returnType: ret}, idx
}

// pyParams parses a def parameter list, splitting on commas outside any
// bracket nesting and recovering name, annotation, and default text.
func pyParams(paramText string) []graph.Parameter {
	paramText = strings.TrimSpace(paramText)
	if paramText == "" {
		return nil
	}

	var out []graph.Parameter
	for _, part := range splitRespectingAngles(paramText) {
		part = strings.TrimSpace(part)
		if part == "" || part == "*" || part == "/" {
			continue
		}

		var p graph.Parameter
		if eq := indexTopLevel(part, '='); eq >= 0 {
			p.Default = strings.TrimSpace(part[eq+1:])
			p.Optional = true
			part = strings.TrimSpace(part[:eq])
		}
		if colon := indexTopLevel(part, ':'); colon >= 0 {
			p.Type = strings.TrimSpace(part[colon+1:])
			part = strings.TrimSpace(part[:colon])
		}
		p.Name = part
		out = append(out, p)
	}
	return out
}

// indexTopLevel finds the first occurrence of sep outside bracket nesting.
func indexTopLevel(s string, sep rune) int {
	depth := 0
	for i, r := range s {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		default:
			if r == sep && depth == 0 {
				return i
			}
		}
	}
	return -1
}

// pyImportEdge extracts import edges from a single line. Targets keep the
// raw module path; resolution to files happens later and only for relative
// imports.
func pyImportEdge(filePath, line string) ([]graph.Edge, bool) {
	if m := pyFromRe.FindStringSubmatch(line); m != nil {
		module := m[1]
		var items []string
		for _, item := range strings.Split(m[2], ",") {
			item = strings.TrimSpace(item)
			// Strip "as alias".
			if at := strings.Index(item, " as "); at >= 0 {
				item = strings.TrimSpace(item[:at])
			}
			item = strings.Trim(item, "()")
			if item != "" {
				items = append(items, item)
			}
		}
		return []graph.Edge{{
			From:  filePath,
			To:    module,
			Kind:  graph.EdgeKindImports,
			Label: strings.Join(items, ", "),
		}}, true
	}

	if m := pyImportRe.FindStringSubmatch(line); m != nil {
		var edges []graph.Edge
		for _, module := range strings.Split(m[1], ",") {
			module = strings.TrimSpace(module)
			if at := strings.Index(module, " as "); at >= 0 {
				module = strings.TrimSpace(module[:at])
			}
			if module != "" {
				edges = append(edges, graph.Edge{
					From: filePath,
					To:   module,
					Kind: graph.EdgeKindImports,
				})
			}
		}
		return edges, len(edges) > 0
	}

	return nil, false
}

// pyBlockEnd returns the index of the last line belonging to the block whose
// header ends at headerIdx with the given indent. Blank and comment-only
// lines never terminate a block.
func pyBlockEnd(lines []string, headerIdx, indent int) int {
	end := headerIdx
	for i := headerIdx + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if indentWidth(lines[i]) <= indent {
			return end
		}
		end = i
	}
	return end
}

func indentWidth(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// pyBases splits a class base list, dropping the literal object base and
// keyword arguments such as metaclass=.
func pyBases(baseText string) []string {
	baseText = strings.TrimSpace(baseText)
	if baseText == "" {
		return nil
	}
	var out []string
	for _, b := range strings.Split(baseText, ",") {
		b = strings.TrimSpace(b)
		if b == "" || b == "object" || strings.Contains(b, "=") {
			continue
		}
		out = append(out, b)
	}
	return out
}

// pyVisibility applies Python's name-mangling convention: leading double
// underscore (without a trailing one) is private, a single leading
// underscore is protected.
func pyVisibility(name string) graph.Visibility {
	if strings.HasPrefix(name, "__") && !strings.HasSuffix(name, "__") {
		return graph.VisibilityPrivate
	}
	if strings.HasPrefix(name, "_") && !strings.HasPrefix(name, "__") {
		return graph.VisibilityProtected
	}
	return graph.VisibilityPublic
}
