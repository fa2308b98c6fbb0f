package parse

import (
	"regexp"
	"strings"

	"github.com/probelab/codegraph/internal/graph"
)

// Java parsing is a line/brace heuristic, not a tokenizer. Brace counting
// is fooled by braces inside string literals or comments; that is a known
// accuracy limit of this design.

var (
	javaClassRe = regexp.MustCompile(
		`^\s*(?:(public|private|protected)\s+)?((?:(?:abstract|static|final|sealed|strictfp)\s+)*)(class|interface)\s+([A-Za-z_$][\w$]*)\s*(<[^{]*?>)?` +
			`(?:\s+extends\s+([\w.$]+(?:\s*<[^{]*?>)?))?` +
			`(?:\s+implements\s+([^{]+?))?\s*(?:\{.*)?$`)

	javaMethodRe = regexp.MustCompile(
		`^\s*(?:(public|private|protected)\s+)?((?:(?:static|final|abstract|synchronized|native|default)\s+)*)(?:<[^>]+>\s+)?` +
			`([\w$.]+(?:\s*<.*?>)?(?:\[\])*)\s+([A-Za-z_$][\w$]*)\s*\((.*)$`)

	javaAnnotationRe = regexp.MustCompile(`^\s*@[\w.]+(\(.*\))?\s*$`)
)

// ParseJava extracts class, interface, and method declarations from Java
// source text along with containment and inheritance edges.
func ParseJava(req Request, sink DiagnosticSink) Result {
	lines := splitLines(req.Content)
	var res Result
	var pendingAnnotations []string

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])

		if trimmed == "" || isJavaComment(trimmed) {
			continue
		}
		if javaAnnotationRe.MatchString(trimmed) {
			pendingAnnotations = append(pendingAnnotations, trimmed)
			continue
		}

		m := javaClassRe.FindStringSubmatch(lines[i])
		if m == nil {
			// A substantive non-declaration line invalidates any
			// accumulated annotations.
			pendingAnnotations = nil
			continue
		}

		endIdx := javaBlockEnd(lines, i)
		res = appendJavaClass(res, req, lines, i, endIdx, m, pendingAnnotations)
		pendingAnnotations = nil
		i = endIdx
	}

	if len(res.Nodes) == 0 && req.IsEntryPoint {
		res.Nodes = append(res.Nodes, syntheticModuleNode(req, graph.LangJava, len(lines)))
	}
	return res
}

func appendJavaClass(res Result, req Request, lines []string, startIdx, endIdx int, m []string, annotations []string) Result {
	visibility := m[1]
	modifierText := m[2]
	declKeyword := m[3]
	name := m[4]
	extendsRaw := strings.TrimSpace(m[6])
	implementsRaw := strings.TrimSpace(m[7])

	kind := graph.NodeKindClass
	if declKeyword == "interface" {
		kind = graph.NodeKindInterface
	}

	// Annotations belong to the declaration text; the identity line stays
	// the header itself.
	source := strings.Join(lines[startIdx:endIdx+1], "\n")
	if len(annotations) > 0 {
		source = strings.Join(annotations, "\n") + "\n" + source
	}

	classNode := graph.EntityNode{
		ID:        graph.NodeID(req.FilePath, kind, name, startIdx+1),
		Name:      name,
		Kind:      kind,
		Language:  graph.LangJava,
		FilePath:  req.FilePath,
		StartLine: startIdx + 1,
		EndLine:   endIdx + 1,
		Modifiers: graph.Modifiers{
			Visibility: javaVisibility(visibility),
			Static:     strings.Contains(modifierText, "static"),
			Abstract:   strings.Contains(modifierText, "abstract"),
		},
		Source: source,
	}
	res.Nodes = append(res.Nodes, classNode)

	if extendsRaw != "" {
		target := stripGenerics(extendsRaw)
		res.Edges = append(res.Edges, graph.Edge{
			From:  req.FilePath,
			To:    target,
			Kind:  graph.EdgeKindExtends,
			Label: name + " extends " + target,
		})
	}
	for _, iface := range splitTypeList(implementsRaw) {
		target := stripGenerics(iface)
		if target == "" {
			continue
		}
		res.Edges = append(res.Edges, graph.Edge{
			From:  req.FilePath,
			To:    target,
			Kind:  graph.EdgeKindImplements,
			Label: name + " implements " + target,
		})
	}

	methods := parseJavaMethods(req, lines, startIdx, endIdx, name, kind)
	for _, method := range methods {
		res.Nodes = append(res.Nodes, method)
		res.Edges = append(res.Edges, graph.Edge{
			From: classNode.ID,
			To:   method.ID,
			Kind: graph.EdgeKindContains,
		})
	}
	return res
}

// parseJavaMethods scans a class body for method declarations sitting
// directly at brace depth 1, skipping constructors.
func parseJavaMethods(req Request, lines []string, classStart, classEnd int, className string, classKind graph.NodeKind) []graph.EntityNode {
	var methods []graph.EntityNode

	// Locate the line carrying the class's opening brace.
	openIdx := classStart
	for openIdx <= classEnd && !strings.Contains(lines[openIdx], "{") {
		openIdx++
	}
	if openIdx > classEnd {
		return nil
	}

	// A member sharing the class's opening-brace line (one-line classes).
	braceAt := strings.Index(lines[openIdx], "{")
	rest := lines[openIdx][braceAt+1:]
	if m := javaMethodRe.FindStringSubmatch(rest); m != nil && m[4] != className && !isJavaKeywordType(m[3]) {
		methods = append(methods, javaMethodNode(req, lines, openIdx, openIdx, m, classKind))
	}

	depth := braceDelta(lines[openIdx])
	for i := openIdx + 1; i <= classEnd && i < len(lines); i++ {
		if depth == 1 {
			trimmed := strings.TrimSpace(lines[i])
			if trimmed != "" && !isJavaComment(trimmed) && !javaAnnotationRe.MatchString(trimmed) {
				if m := javaMethodRe.FindStringSubmatch(lines[i]); m != nil && m[4] != className && !isJavaKeywordType(m[3]) {
					end := javaMemberEnd(lines, i, classEnd)
					methods = append(methods, javaMethodNode(req, lines, i, end, m, classKind))
					for j := i; j <= end && j < len(lines); j++ {
						depth += braceDelta(lines[j])
					}
					i = end
					continue
				}
			}
		}
		depth += braceDelta(lines[i])
	}
	return methods
}

func javaMethodNode(req Request, lines []string, startIdx, endIdx int, m []string, classKind graph.NodeKind) graph.EntityNode {
	visibility := javaVisibility(m[1])
	if classKind == graph.NodeKindInterface {
		visibility = graph.VisibilityPublic
	}

	paramText := collectJavaParams(lines, startIdx, m[5])

	return graph.EntityNode{
		ID:        graph.NodeID(req.FilePath, graph.NodeKindMethod, m[4], startIdx+1),
		Name:      m[4],
		Kind:      graph.NodeKindMethod,
		Language:  graph.LangJava,
		FilePath:  req.FilePath,
		StartLine: startIdx + 1,
		EndLine:   endIdx + 1,
		Modifiers: graph.Modifiers{
			Visibility: visibility,
			Static:     strings.Contains(m[2], "static"),
			Abstract:   strings.Contains(m[2], "abstract"),
		},
		Parameters: parseJavaParams(paramText),
		ReturnType: strings.TrimSpace(m[3]),
		Source:     strings.Join(lines[startIdx:min(endIdx+1, len(lines))], "\n"),
	}
}

// collectJavaParams returns the parameter list text for a method whose
// header starts at startIdx. m5 is the text after the opening paren on the
// header line; the list may continue over following lines.
func collectJavaParams(lines []string, startIdx int, m5 string) string {
	depth := 1
	var b strings.Builder
	text := m5
	idx := startIdx
	for {
		for _, r := range text {
			switch r {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					return b.String()
				}
			}
			if depth > 0 {
				b.WriteRune(r)
			}
		}
		idx++
		if idx >= len(lines) || idx > startIdx+20 {
			return b.String()
		}
		b.WriteRune(' ')
		text = lines[idx]
	}
}

// parseJavaParams splits a Java parameter list on commas at angle-bracket
// depth 0, so Map<String, Integer> stays one parameter.
func parseJavaParams(paramText string) []graph.Parameter {
	paramText = strings.TrimSpace(paramText)
	if paramText == "" {
		return nil
	}

	var params []graph.Parameter
	for _, part := range splitRespectingAngles(paramText) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		// Drop leading annotations and the final modifier.
		fields := strings.Fields(part)
		filtered := fields[:0]
		for _, f := range fields {
			if strings.HasPrefix(f, "@") || f == "final" {
				continue
			}
			filtered = append(filtered, f)
		}
		if len(filtered) == 0 {
			continue
		}
		name := filtered[len(filtered)-1]
		typ := strings.Join(filtered[:len(filtered)-1], " ")
		params = append(params, graph.Parameter{Name: name, Type: typ})
	}
	return params
}

// splitRespectingAngles splits on commas outside <>, (), and [] nesting.
func splitRespectingAngles(s string) []string {
	var parts []string
	var depth int
	last := 0
	for i, r := range s {
		switch r {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}

// javaBlockEnd finds the line index where the brace opened by the
// declaration at startIdx closes again.
func javaBlockEnd(lines []string, startIdx int) int {
	depth := 0
	opened := false
	for i := startIdx; i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if opened && depth <= 0 {
			return i
		}
	}
	return len(lines) - 1
}

// javaMemberEnd finds the end of a method declaration: either the matching
// close brace of its body or the terminating semicolon for abstract and
// interface methods.
func javaMemberEnd(lines []string, startIdx, limit int) int {
	depth := 0
	opened := false
	for i := startIdx; i <= limit && i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if opened && depth <= 0 {
			return i
		}
		if !opened && strings.Contains(lines[i], ";") {
			return i
		}
	}
	return limit
}

func braceDelta(line string) int {
	return strings.Count(line, "{") - strings.Count(line, "}")
}

func javaVisibility(v string) graph.Visibility {
	switch v {
	case "private":
		return graph.VisibilityPrivate
	case "protected":
		return graph.VisibilityProtected
	default:
		// Package-private collapses to public in this model.
		return graph.VisibilityPublic
	}
}

// isJavaKeywordType filters method-regex matches whose "return type" is
// actually a statement keyword (return new ..., if (...), etc.).
func isJavaKeywordType(t string) bool {
	switch strings.TrimSpace(t) {
	case "return", "new", "throw", "if", "else", "for", "while", "switch", "case", "break", "continue", "package", "import", "super", "this":
		return true
	}
	return false
}

func isJavaComment(trimmed string) bool {
	return strings.HasPrefix(trimmed, "//") ||
		strings.HasPrefix(trimmed, "/*") ||
		strings.HasPrefix(trimmed, "*")
}

func stripGenerics(s string) string {
	if i := strings.IndexByte(s, '<'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

// splitTypeList splits a comma-separated implements list, respecting
// generic nesting.
func splitTypeList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := splitRespectingAngles(s)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
