package parse

import (
	"path/filepath"
	"regexp"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/probelab/codegraph/internal/graph"
)

var hookNameRe = regexp.MustCompile(`^use[A-Z0-9_]`)

// ParseTypeScript parses TypeScript, TSX, JavaScript, and JSX sources with
// tree-sitter and extracts functions, components, classes, methods,
// interfaces, and import edges.
func ParseTypeScript(req Request, sink DiagnosticSink) Result {
	lang, language := tsGrammarFor(req.FilePath)

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(language); err != nil {
		sink.Report(Diagnostic{File: req.FilePath, Message: "set grammar: " + err.Error()})
		return Result{}
	}

	source := []byte(req.Content)
	tree := parser.Parse(source, nil)
	if tree == nil {
		sink.Report(Diagnostic{File: req.FilePath, Message: "tree-sitter returned no tree"})
		return Result{}
	}
	defer tree.Close()

	e := &tsExtractor{req: req, lang: lang, source: source}
	e.extractProgram(tree.RootNode())

	res := Result{Nodes: e.nodes, Edges: e.edges}
	if len(res.Nodes) == 0 && (e.hasBootstrap || req.IsEntryPoint) {
		res.Nodes = append(res.Nodes, syntheticModuleNode(req, lang, len(splitLines(req.Content))))
	}
	return res
}

// tsGrammarFor picks the grammar for a file: the TSX grammar covers .tsx,
// plain TypeScript covers .ts, and everything else goes through the
// JavaScript grammar (which includes JSX).
func tsGrammarFor(path string) (graph.Language, *tree_sitter.Language) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts":
		return graph.LangTypeScript, tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	case ".tsx":
		return graph.LangTypeScript, tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	default:
		return graph.LangJavaScript, tree_sitter.NewLanguage(tree_sitter_javascript.Language())
	}
}

type tsExtractor struct {
	req    Request
	lang   graph.Language
	source []byte

	nodes        []graph.EntityNode
	edges        []graph.Edge
	hasBootstrap bool
}

func (e *tsExtractor) text(n *tree_sitter.Node) string {
	return n.Utf8Text(e.source)
}

// extractProgram walks the whole tree. Declarations are collected at any
// nesting level except inside other collected declarations' bodies;
// import and call analysis runs everywhere.
func (e *tsExtractor) extractProgram(root *tree_sitter.Node) {
	e.walk(root, false)
}

func (e *tsExtractor) walk(n *tree_sitter.Node, exported bool) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "export_statement":
		for i := uint(0); i < n.NamedChildCount(); i++ {
			e.walk(n.NamedChild(i), true)
		}
		return

	case "function_declaration", "generator_function_declaration":
		e.extractFunction(n, exported)
		return

	case "lexical_declaration", "variable_declaration":
		handled := false
		for i := uint(0); i < n.NamedChildCount(); i++ {
			child := n.NamedChild(i)
			if child.Kind() == "variable_declarator" && e.extractDeclarator(child, exported) {
				handled = true
			}
		}
		if handled {
			return
		}

	case "class_declaration":
		e.extractClass(n, exported)
		return

	case "interface_declaration":
		e.extractInterface(n, exported)
		return

	case "import_statement":
		e.extractImport(n)
		return

	case "call_expression":
		e.inspectCall(n)
	}

	for i := uint(0); i < n.NamedChildCount(); i++ {
		e.walk(n.NamedChild(i), false)
	}
}

// --- Functions and components ---

func (e *tsExtractor) extractFunction(n *tree_sitter.Node, exported bool) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	body := n.ChildByFieldName("body")
	e.emitCallable(n, n, e.text(nameNode), body, exported)
}

// extractDeclarator handles "const Foo = () => ..." and function-expression
// bindings. Returns false when the declarator holds no callable value.
func (e *tsExtractor) extractDeclarator(decl *tree_sitter.Node, exported bool) bool {
	value := decl.ChildByFieldName("value")
	if value == nil {
		return false
	}
	switch value.Kind() {
	case "arrow_function", "function_expression", "function":
	default:
		return false
	}

	nameNode := decl.ChildByFieldName("name")
	if nameNode == nil || nameNode.Kind() != "identifier" {
		return false
	}

	body := value.ChildByFieldName("body")
	e.emitCallable(decl, value, e.text(nameNode), body, exported)
	return true
}

// emitCallable classifies a function-like declaration as a component or a
// plain function and emits the node. span carries the source range, fn the
// parameters/async/return-type syntax.
func (e *tsExtractor) emitCallable(span, fn *tree_sitter.Node, name string, body *tree_sitter.Node, exported bool) {
	kind := graph.NodeKindFunction
	var props, hooks []string

	if body != nil && returnsJSX(body) {
		kind = graph.NodeKindComponent
		props = e.propNames(fn)
		hooks = e.hookNames(body)
	}

	node := graph.EntityNode{
		ID:        graph.NodeID(e.req.FilePath, kind, name, int(span.StartPosition().Row)+1),
		Name:      name,
		Kind:      kind,
		Language:  e.lang,
		FilePath:  e.req.FilePath,
		StartLine: int(span.StartPosition().Row) + 1,
		EndLine:   int(span.EndPosition().Row) + 1,
		Modifiers: graph.Modifiers{
			Async: hasKeywordChild(fn, "async"),
		},
		Parameters: e.parameters(fn),
		ReturnType: e.returnType(fn),
		Props:      props,
		Hooks:      hooks,
		Source:     e.text(span),
	}
	if exported {
		node.Modifiers.Visibility = graph.VisibilityPublic
	}
	e.nodes = append(e.nodes, node)

	if body != nil {
		e.scanCalls(body)
	}
}

// --- Classes ---

func (e *tsExtractor) extractClass(n *tree_sitter.Node, exported bool) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := e.text(nameNode)

	superclass, interfaces := e.heritage(n)

	kind := graph.NodeKindClass
	if isComponentBase(superclass) {
		kind = graph.NodeKindComponent
	}

	classNode := graph.EntityNode{
		ID:        graph.NodeID(e.req.FilePath, kind, name, int(n.StartPosition().Row)+1),
		Name:      name,
		Kind:      kind,
		Language:  e.lang,
		FilePath:  e.req.FilePath,
		StartLine: int(n.StartPosition().Row) + 1,
		EndLine:   int(n.EndPosition().Row) + 1,
		Modifiers: graph.Modifiers{
			Abstract: hasKeywordChild(n, "abstract"),
		},
		Source: e.text(n),
	}
	if exported {
		classNode.Modifiers.Visibility = graph.VisibilityPublic
	}
	e.nodes = append(e.nodes, classNode)

	if superclass != "" && !isComponentBase(superclass) {
		e.edges = append(e.edges, graph.Edge{
			From:  e.req.FilePath,
			To:    superclass,
			Kind:  graph.EdgeKindExtends,
			Label: name + " extends " + superclass,
		})
	}
	for _, iface := range interfaces {
		e.edges = append(e.edges, graph.Edge{
			From:  e.req.FilePath,
			To:    iface,
			Kind:  graph.EdgeKindImplements,
			Label: name + " implements " + iface,
		})
	}

	if body := n.ChildByFieldName("body"); body != nil {
		e.extractMethods(body, classNode.ID)
	}
}

// heritage reads the extends/implements clauses. The TS grammar nests them
// under class_heritage; the JS grammar puts the extends expression directly
// in class_heritage.
func (e *tsExtractor) heritage(class *tree_sitter.Node) (superclass string, interfaces []string) {
	for i := uint(0); i < class.NamedChildCount(); i++ {
		child := class.NamedChild(i)
		if child.Kind() != "class_heritage" {
			continue
		}
		for j := uint(0); j < child.NamedChildCount(); j++ {
			clause := child.NamedChild(j)
			switch clause.Kind() {
			case "extends_clause":
				if v := clause.ChildByFieldName("value"); v != nil {
					superclass = e.text(v)
				} else if clause.NamedChildCount() > 0 {
					superclass = e.text(clause.NamedChild(0))
				}
			case "implements_clause":
				for k := uint(0); k < clause.NamedChildCount(); k++ {
					interfaces = append(interfaces, stripGenerics(e.text(clause.NamedChild(k))))
				}
			case "identifier", "member_expression":
				// JS grammar: class_heritage wraps the expression itself.
				superclass = e.text(clause)
			}
		}
	}
	return stripGenerics(superclass), interfaces
}

// isComponentBase reports whether an extends target is literally Component
// or a member expression ending in .Component (React class components).
func isComponentBase(superclass string) bool {
	return superclass == "Component" || strings.HasSuffix(superclass, ".Component") ||
		superclass == "PureComponent" || strings.HasSuffix(superclass, ".PureComponent")
}

func (e *tsExtractor) extractMethods(body *tree_sitter.Node, classID string) {
	for i := uint(0); i < body.NamedChildCount(); i++ {
		member := body.NamedChild(i)
		if member.Kind() != "method_definition" && member.Kind() != "abstract_method_signature" {
			continue
		}
		nameNode := member.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := e.text(nameNode)
		if name == "constructor" {
			continue
		}

		method := graph.EntityNode{
			ID:        graph.NodeID(e.req.FilePath, graph.NodeKindMethod, name, int(member.StartPosition().Row)+1),
			Name:      name,
			Kind:      graph.NodeKindMethod,
			Language:  e.lang,
			FilePath:  e.req.FilePath,
			StartLine: int(member.StartPosition().Row) + 1,
			EndLine:   int(member.EndPosition().Row) + 1,
			Modifiers: graph.Modifiers{
				Visibility: e.accessibility(member),
				Static:     hasKeywordChild(member, "static"),
				Async:      hasKeywordChild(member, "async"),
				Abstract:   member.Kind() == "abstract_method_signature" || hasKeywordChild(member, "abstract"),
			},
			Parameters: e.parameters(member),
			ReturnType: e.returnType(member),
			Source:     e.text(member),
		}
		e.nodes = append(e.nodes, method)
		e.edges = append(e.edges, graph.Edge{From: classID, To: method.ID, Kind: graph.EdgeKindContains})

		if mb := member.ChildByFieldName("body"); mb != nil {
			e.scanCalls(mb)
		}
	}
}

func (e *tsExtractor) accessibility(member *tree_sitter.Node) graph.Visibility {
	for i := uint(0); i < member.ChildCount(); i++ {
		child := member.Child(i)
		if child != nil && child.Kind() == "accessibility_modifier" {
			switch e.text(child) {
			case "private":
				return graph.VisibilityPrivate
			case "protected":
				return graph.VisibilityProtected
			case "public":
				return graph.VisibilityPublic
			}
		}
	}
	return ""
}

// --- Interfaces ---

func (e *tsExtractor) extractInterface(n *tree_sitter.Node, exported bool) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	node := graph.EntityNode{
		ID:        graph.NodeID(e.req.FilePath, graph.NodeKindInterface, e.text(nameNode), int(n.StartPosition().Row)+1),
		Name:      e.text(nameNode),
		Kind:      graph.NodeKindInterface,
		Language:  e.lang,
		FilePath:  e.req.FilePath,
		StartLine: int(n.StartPosition().Row) + 1,
		EndLine:   int(n.EndPosition().Row) + 1,
		Source:    e.text(n),
	}
	if exported {
		node.Modifiers.Visibility = graph.VisibilityPublic
	}
	e.nodes = append(e.nodes, node)
}

// --- Imports and calls ---

func (e *tsExtractor) extractImport(n *tree_sitter.Node) {
	sourceNode := n.ChildByFieldName("source")
	if sourceNode == nil {
		for i := uint(0); i < n.ChildCount(); i++ {
			if c := n.Child(i); c != nil && c.Kind() == "string" {
				sourceNode = c
				break
			}
		}
	}
	if sourceNode == nil {
		return
	}

	spec := strings.Trim(e.text(sourceNode), "\"'`")
	if spec == "" {
		return
	}

	var items []string
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child.Kind() != "import_clause" {
			continue
		}
		items = append(items, e.importedNames(child)...)
	}

	e.edges = append(e.edges, graph.Edge{
		From:  e.req.FilePath,
		To:    spec,
		Kind:  graph.EdgeKindImports,
		Label: strings.Join(items, ", "),
	})
}

func (e *tsExtractor) importedNames(clause *tree_sitter.Node) []string {
	var names []string
	var collect func(n *tree_sitter.Node)
	collect = func(n *tree_sitter.Node) {
		switch n.Kind() {
		case "identifier":
			names = append(names, e.text(n))
			return
		case "namespace_import":
			if n.NamedChildCount() > 0 {
				names = append(names, "* as "+e.text(n.NamedChild(n.NamedChildCount()-1)))
			}
			return
		case "import_specifier":
			if nm := n.ChildByFieldName("name"); nm != nil {
				names = append(names, e.text(nm))
			}
			return
		}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			collect(n.NamedChild(i))
		}
	}
	collect(clause)
	return names
}

// inspectCall records dynamic imports, require calls, and bootstrap
// signatures (createRoot / ReactDOM.render / bare render).
func (e *tsExtractor) inspectCall(n *tree_sitter.Node) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return
	}
	callee := e.text(fn)

	switch {
	case fn.Kind() == "import", callee == "require":
		if spec := e.firstStringArg(n); spec != "" {
			e.edges = append(e.edges, graph.Edge{
				From: e.req.FilePath,
				To:   spec,
				Kind: graph.EdgeKindImports,
			})
		}
	case callee == "createRoot" || strings.HasSuffix(callee, ".createRoot"),
		callee == "ReactDOM.render",
		callee == "render":
		e.hasBootstrap = true
	}
}

func (e *tsExtractor) firstStringArg(call *tree_sitter.Node) string {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return ""
	}
	for i := uint(0); i < args.NamedChildCount(); i++ {
		arg := args.NamedChild(i)
		if arg.Kind() == "string" {
			return strings.Trim(e.text(arg), "\"'`")
		}
	}
	return ""
}

// scanCalls walks a body subtree for import/require/bootstrap calls without
// re-collecting declarations.
func (e *tsExtractor) scanCalls(body *tree_sitter.Node) {
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if n.Kind() == "call_expression" {
			e.inspectCall(n)
		}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(body)
}

// --- Signature helpers ---

func (e *tsExtractor) parameters(fn *tree_sitter.Node) []graph.Parameter {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		// Arrow functions with a single bare parameter.
		if p := fn.ChildByFieldName("parameter"); p != nil {
			return []graph.Parameter{{Name: e.text(p)}}
		}
		return nil
	}

	var out []graph.Parameter
	for i := uint(0); i < params.NamedChildCount(); i++ {
		child := params.NamedChild(i)
		switch child.Kind() {
		case "required_parameter", "optional_parameter":
			p := graph.Parameter{Optional: child.Kind() == "optional_parameter"}
			if pat := child.ChildByFieldName("pattern"); pat != nil {
				p.Name = e.text(pat)
			}
			if typ := child.ChildByFieldName("type"); typ != nil {
				p.Type = strings.TrimSpace(strings.TrimPrefix(e.text(typ), ":"))
			}
			if val := child.ChildByFieldName("value"); val != nil {
				p.Default = e.text(val)
				p.Optional = true
			}
			out = append(out, p)
		case "identifier", "object_pattern", "array_pattern", "rest_pattern":
			out = append(out, graph.Parameter{Name: e.text(child)})
		case "assignment_pattern":
			p := graph.Parameter{Optional: true}
			if left := child.ChildByFieldName("left"); left != nil {
				p.Name = e.text(left)
			}
			if right := child.ChildByFieldName("right"); right != nil {
				p.Default = e.text(right)
			}
			out = append(out, p)
		}
	}
	return out
}

func (e *tsExtractor) returnType(fn *tree_sitter.Node) string {
	rt := fn.ChildByFieldName("return_type")
	if rt == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(e.text(rt), ":"))
}

// propNames reads component prop names off an object-destructuring first
// parameter.
func (e *tsExtractor) propNames(fn *tree_sitter.Node) []string {
	params := fn.ChildByFieldName("parameters")
	if params == nil || params.NamedChildCount() == 0 {
		return nil
	}

	first := params.NamedChild(0)
	if first.Kind() == "required_parameter" || first.Kind() == "optional_parameter" {
		if pat := first.ChildByFieldName("pattern"); pat != nil {
			first = pat
		}
	}
	if first.Kind() != "object_pattern" {
		return nil
	}

	var props []string
	for i := uint(0); i < first.NamedChildCount(); i++ {
		entry := first.NamedChild(i)
		switch entry.Kind() {
		case "shorthand_property_identifier_pattern", "shorthand_property_identifier":
			props = append(props, e.text(entry))
		case "pair_pattern":
			if key := entry.ChildByFieldName("key"); key != nil {
				props = append(props, e.text(key))
			}
		case "object_assignment_pattern":
			if left := entry.ChildByFieldName("left"); left != nil {
				props = append(props, e.text(left))
			}
		}
	}
	return props
}

// hookNames collects useXxx(...) call names in source order, deduplicated.
func (e *tsExtractor) hookNames(body *tree_sitter.Node) []string {
	var hooks []string
	seen := make(map[string]bool)

	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if n.Kind() == "call_expression" {
			if fn := n.ChildByFieldName("function"); fn != nil && fn.Kind() == "identifier" {
				name := e.text(fn)
				if hookNameRe.MatchString(name) && !seen[name] {
					seen[name] = true
					hooks = append(hooks, name)
				}
			}
		}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(body)
	return hooks
}

// returnsJSX decides component-ness: the body is itself a JSX expression
// (implicit arrow return) or some return statement in it returns JSX.
func returnsJSX(body *tree_sitter.Node) bool {
	if isJSXExpr(body) {
		return true
	}

	var found bool
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if found {
			return
		}
		if n.Kind() == "return_statement" {
			for i := uint(0); i < n.NamedChildCount(); i++ {
				if isJSXExpr(n.NamedChild(i)) {
					found = true
					return
				}
			}
		}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(body)
	return found
}

// isJSXExpr unwraps parentheses and reports whether a node is a JSX
// element, fragment, or self-closing element.
func isJSXExpr(n *tree_sitter.Node) bool {
	for n != nil && n.Kind() == "parenthesized_expression" {
		if n.NamedChildCount() == 0 {
			return false
		}
		n = n.NamedChild(0)
	}
	if n == nil {
		return false
	}
	switch n.Kind() {
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return true
	}
	return false
}

// hasKeywordChild reports whether a node has an anonymous child token with
// the given kind (async, static, abstract).
func hasKeywordChild(n *tree_sitter.Node, keyword string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		if c := n.Child(i); c != nil && c.Kind() == keyword {
			return true
		}
	}
	return false
}
