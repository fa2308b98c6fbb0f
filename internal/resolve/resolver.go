// Package resolve extracts import statements from source text and maps
// their specifiers to files inside the workspace. External package imports
// never resolve; unresolvable relative imports are dropped silently, since
// a typo is indistinguishable from a generated or virtual module at this
// level.
package resolve

import (
	"path/filepath"
	"regexp"
	"strings"
)

// ImportKind classifies how a TS/JS import binds its names.
type ImportKind string

const (
	ImportDefault    ImportKind = "default"
	ImportNamespace  ImportKind = "namespace"
	ImportNamed      ImportKind = "named"
	ImportSideEffect ImportKind = "side-effect"
	ImportDynamic    ImportKind = "dynamic"
	ImportRequire    ImportKind = "require"
	ImportPlain      ImportKind = "plain" // Java / Python statement imports
)

// RawImport is one extracted import statement before resolution.
type RawImport struct {
	Specifier string
	Items     []string
	Kind      ImportKind
	Line      int // 1-based
}

// ResolvedImport maps an import to a workspace file.
type ResolvedImport struct {
	TargetFile    string
	ImportedItems []string
}

// resolutionExts is the fixed extension probe order for relative imports.
var resolutionExts = []string{".ts", ".tsx", ".js", ".jsx", ".java"}

// Resolver resolves import specifiers against the set of files enumerated
// in the workspace. Probing runs against that known-file index, which gives
// the same answers as stat-ing the disk for intra-workspace paths and keeps
// resolution deterministic.
type Resolver struct {
	rootPath string
	fileSet  map[string]bool
}

// New builds a Resolver for a workspace root and its enumerated files.
func New(rootPath string, knownFiles []string) *Resolver {
	r := &Resolver{
		rootPath: rootPath,
		fileSet:  make(map[string]bool, len(knownFiles)),
	}
	for _, f := range knownFiles {
		r.fileSet[f] = true
	}
	return r
}

// FileImports extracts and resolves every local import of one file.
// External specifiers (not starting with "." or "/") produce no entry.
func (r *Resolver) FileImports(filePath, content string) []ResolvedImport {
	var out []ResolvedImport
	for _, raw := range ExtractImports(filePath, content) {
		if target, ok := r.Resolve(filePath, raw); ok {
			out = append(out, ResolvedImport{TargetFile: target, ImportedItems: raw.Items})
		}
	}
	return out
}

// Resolve maps one raw import to a workspace file path.
func (r *Resolver) Resolve(filePath string, raw RawImport) (string, bool) {
	switch raw.Kind {
	case ImportPlain:
		if strings.HasSuffix(filePath, ".java") {
			return r.resolveJava(raw.Specifier)
		}
		return r.resolvePython(filePath, raw.Specifier)
	default:
		return r.resolveRelative(filePath, raw.Specifier)
	}
}

// resolveRelative handles TS/JS style specifiers: only "."/"/" prefixed
// paths are workspace-local. Candidates are tried in order: the literal
// path, each known extension appended, then each index file.
func (r *Resolver) resolveRelative(filePath, spec string) (string, bool) {
	if !strings.HasPrefix(spec, ".") && !strings.HasPrefix(spec, "/") {
		return "", false
	}

	var base string
	if strings.HasPrefix(spec, "/") {
		base = filepath.Clean(spec)
	} else {
		base = filepath.Clean(filepath.Join(filepath.Dir(filePath), spec))
	}

	return r.probe(base)
}

func (r *Resolver) probe(base string) (string, bool) {
	if r.fileSet[base] {
		return base, true
	}
	for _, ext := range resolutionExts {
		if candidate := base + ext; r.fileSet[candidate] {
			return candidate, true
		}
	}
	for _, ext := range resolutionExts {
		if candidate := filepath.Join(base, "index"+ext); r.fileSet[candidate] {
			return candidate, true
		}
	}
	return "", false
}

// resolveJava maps a package import (a.b.C) onto the workspace by replacing
// dots with path separators and probing the conventional source roots.
// Wildcard imports (a.b.*) and anything outside the workspace are dropped.
func (r *Resolver) resolveJava(spec string) (string, bool) {
	if strings.HasSuffix(spec, ".*") {
		return "", false
	}
	rel := strings.ReplaceAll(spec, ".", string(filepath.Separator))
	for _, prefix := range []string{"", "src", filepath.Join("src", "main", "java")} {
		candidate := filepath.Join(r.rootPath, prefix, rel) + ".java"
		if r.fileSet[candidate] {
			return candidate, true
		}
	}
	return "", false
}

// resolvePython handles relative imports (leading dots). Absolute module
// imports are external by definition here.
func (r *Resolver) resolvePython(filePath, spec string) (string, bool) {
	if !strings.HasPrefix(spec, ".") {
		return "", false
	}

	dots := 0
	for _, c := range spec {
		if c != '.' {
			break
		}
		dots++
	}
	modulePart := spec[dots:]

	baseDir := filepath.Dir(filePath)
	for i := 1; i < dots; i++ {
		baseDir = filepath.Dir(baseDir)
	}

	if modulePart == "" {
		candidate := filepath.Join(baseDir, "__init__.py")
		if r.fileSet[candidate] {
			return candidate, true
		}
		return "", false
	}

	base := filepath.Join(baseDir, strings.ReplaceAll(modulePart, ".", string(filepath.Separator)))
	if candidate := base + ".py"; r.fileSet[candidate] {
		return candidate, true
	}
	if candidate := filepath.Join(base, "__init__.py"); r.fileSet[candidate] {
		return candidate, true
	}
	return "", false
}

// --- Extraction ---

var (
	tsFromImportRe  = regexp.MustCompile(`^\s*import\s+(?:type\s+)?(.+?)\s+from\s+['"]([^'"]+)['"]`)
	tsBareImportRe  = regexp.MustCompile(`^\s*import\s+['"]([^'"]+)['"]`)
	tsDynamicRe     = regexp.MustCompile(`import\(\s*['"]([^'"]+)['"]\s*\)`)
	tsRequireRe     = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	javaImportRe    = regexp.MustCompile(`^\s*import\s+(static\s+)?([\w.]+(?:\.\*)?)\s*;`)
	pyImportStmtRe  = regexp.MustCompile(`^\s*import\s+([\w.]+)`)
	pyFromImportRe  = regexp.MustCompile(`^\s*from\s+([.\w]+)\s+import\s+(.+)$`)
	namespaceClause = regexp.MustCompile(`^\*\s+as\s+(\w+)$`)
)

// ExtractImports scans one file's text for import statements, dispatching
// on extension. Line numbers are 1-based.
func ExtractImports(filePath, content string) []RawImport {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".java":
		return extractJavaImports(content)
	case ".py":
		return extractPythonImports(content)
	case ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs":
		return extractTSImports(content)
	default:
		return nil
	}
}

func extractTSImports(content string) []RawImport {
	var out []RawImport
	for i, line := range strings.Split(content, "\n") {
		lineNo := i + 1

		if m := tsFromImportRe.FindStringSubmatch(line); m != nil {
			clause := strings.TrimSpace(m[1])
			out = append(out, classifyTSClause(clause, m[2], lineNo))
		} else if m := tsBareImportRe.FindStringSubmatch(line); m != nil {
			out = append(out, RawImport{Specifier: m[1], Kind: ImportSideEffect, Line: lineNo})
		}

		for _, m := range tsDynamicRe.FindAllStringSubmatch(line, -1) {
			out = append(out, RawImport{Specifier: m[1], Kind: ImportDynamic, Line: lineNo})
		}
		for _, m := range tsRequireRe.FindAllStringSubmatch(line, -1) {
			out = append(out, RawImport{Specifier: m[1], Kind: ImportRequire, Line: lineNo})
		}
	}
	return out
}

// classifyTSClause splits "Default, { a, b as c }" style clauses into
// imported item names with a best-effort kind.
func classifyTSClause(clause, spec string, line int) RawImport {
	raw := RawImport{Specifier: spec, Line: line}

	if m := namespaceClause.FindStringSubmatch(clause); m != nil {
		raw.Kind = ImportNamespace
		raw.Items = []string{m[1]}
		return raw
	}

	if strings.HasPrefix(clause, "{") {
		raw.Kind = ImportNamed
	} else {
		raw.Kind = ImportDefault
	}

	clause = strings.Trim(clause, "{} ")
	for _, item := range strings.Split(clause, ",") {
		item = strings.TrimSpace(strings.Trim(item, "{} "))
		if item == "" {
			continue
		}
		if at := strings.Index(item, " as "); at >= 0 {
			item = strings.TrimSpace(item[:at])
		}
		raw.Items = append(raw.Items, item)
	}
	return raw
}

func extractJavaImports(content string) []RawImport {
	var out []RawImport
	for i, line := range strings.Split(content, "\n") {
		if m := javaImportRe.FindStringSubmatch(line); m != nil {
			spec := m[2]
			items := []string{spec[strings.LastIndex(spec, ".")+1:]}
			out = append(out, RawImport{Specifier: spec, Items: items, Kind: ImportPlain, Line: i + 1})
		}
	}
	return out
}

func extractPythonImports(content string) []RawImport {
	var out []RawImport
	for i, line := range strings.Split(content, "\n") {
		if m := pyFromImportRe.FindStringSubmatch(line); m != nil {
			var items []string
			for _, item := range strings.Split(m[2], ",") {
				item = strings.TrimSpace(item)
				if at := strings.Index(item, " as "); at >= 0 {
					item = strings.TrimSpace(item[:at])
				}
				item = strings.Trim(item, "() ")
				if item != "" {
					items = append(items, item)
				}
			}
			out = append(out, RawImport{Specifier: m[1], Items: items, Kind: ImportPlain, Line: i + 1})
		} else if m := pyImportStmtRe.FindStringSubmatch(line); m != nil {
			out = append(out, RawImport{Specifier: m[1], Kind: ImportPlain, Line: i + 1})
		}
	}
	return out
}
