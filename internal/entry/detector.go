// Package entry detects likely application entry-point files. Detection is
// two heuristics: filename/path conventions and content signatures (Java
// main methods, Python __main__ blocks). Scores are additive and the final
// primary pick follows a fixed fallback chain, so results are deterministic
// for a fixed file set.
package entry

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/probelab/codegraph/internal/graph"
)

// MaxCandidates bounds the ranked list returned by Detect.
const MaxCandidates = 10

// primaryBoost is added to a candidate promoted through the pattern chain.
const primaryBoost = 100

var (
	javaMainRe   = regexp.MustCompile(`public\s+static\s+void\s+main\s*\(\s*String(\[\]|\.\.\.)\s*\w+\s*\)`)
	pythonMainRe = regexp.MustCompile(`if\s+__name__\s*==\s*["']__main__["']\s*:`)
)

// pythonEntryNames are the Python entry filename patterns in primary
// fallback priority order.
var pythonEntryNames = []string{"__main__.py", "main.py", "app.py", "manage.py", "run.py", "wsgi.py", "asgi.py"}

// ReadFunc supplies file content for content-signature scanning.
type ReadFunc func(path string) (string, error)

// Detect scores and ranks entry-point candidates among the given files.
// At most one result has IsPrimary set; the list is sorted primary first,
// then by descending score, and truncated to MaxCandidates.
func Detect(rootPath string, files []string, read ReadFunc) []graph.EntryPoint {
	var candidates []graph.EntryPoint
	seen := make(map[string]bool)

	add := func(ep graph.EntryPoint) {
		if seen[ep.FilePath] {
			return
		}
		seen[ep.FilePath] = true
		candidates = append(candidates, ep)
	}

	for _, f := range files {
		if score, typ := scoreByName(rootPath, f); score > 0 {
			add(graph.EntryPoint{FilePath: f, Type: typ, Score: score})
		}
	}

	// Content signatures: any Java main method and any Python __main__
	// block qualify regardless of filename.
	for _, f := range files {
		switch strings.ToLower(filepath.Ext(f)) {
		case ".java":
			if content, err := read(f); err == nil && javaMainRe.MatchString(content) {
				add(graph.EntryPoint{FilePath: f, Type: "main", Score: 10})
			}
		case ".py":
			if content, err := read(f); err == nil && pythonMainRe.MatchString(content) {
				add(graph.EntryPoint{FilePath: f, Type: "python-main", Score: 8})
			}
		}
	}

	selectPrimary(rootPath, candidates)

	// Primary first, then descending score. Stable to keep enumeration
	// order as the final tie-break.
	stableSort(candidates)

	if len(candidates) > MaxCandidates {
		candidates = candidates[:MaxCandidates]
	}
	return candidates
}

// scoreByName applies the filename, path-segment, and depth heuristics.
func scoreByName(rootPath, path string) (int, string) {
	origBase := filepath.Base(path)
	base := strings.ToLower(origBase)
	rel := relSlash(rootPath, path)
	score := 0
	typ := ""

	switch {
	case base == "index.tsx" || base == "index.ts" || base == "index.jsx" || base == "index.js":
		score, typ = 10, "react"
	case base == "app.tsx" || base == "app.ts" || base == "app.jsx" || base == "app.js":
		score, typ = 9, "react"
	case base == "main.tsx" || base == "main.ts" || base == "main.jsx" || base == "main.js":
		score, typ = 8, "react"
	// Case-sensitive on the original name: Domain.java is not *Main.java.
	case strings.HasSuffix(origBase, "Main.java") || base == "main.java":
		score, typ = 10, "java"
	case strings.HasSuffix(origBase, "Application.java") || base == "application.java":
		score, typ = 9, "java"
	case base == "__main__.py":
		score, typ = 10, "python"
	case base == "main.py" || base == "manage.py":
		score, typ = 9, "python"
	case base == "app.py":
		score, typ = 8, "python"
	case base == "wsgi.py" || base == "asgi.py" || base == "run.py":
		score, typ = 7, "python"
	default:
		return 0, ""
	}

	// Path-segment hints.
	stem := strings.TrimSuffix(rel, filepath.Ext(rel))
	switch {
	case strings.HasPrefix(stem, "src/index"), strings.HasPrefix(stem, "src/app"), strings.HasPrefix(stem, "src/main"):
		score += 3
	case strings.HasPrefix(rel, "public/"):
		score += 2
	case strings.Contains(rel, "/pages/"):
		score += 2
	}

	// Shallow files are better roots.
	if strings.Count(rel, "/")+1 <= 5 {
		score += 2
	}

	return score, typ
}

// selectPrimary runs the ordered fallback chain and mutates the winning
// candidate in place. Pattern-chain winners get the score boost; the
// highest-score fallback does not.
func selectPrimary(rootPath string, candidates []graph.EntryPoint) {
	if len(candidates) == 0 {
		return
	}

	// 1. TS/JS conventional roots, in strict priority order.
	for _, pattern := range []string{"src/index", "src/main", "index", "main"} {
		for i := range candidates {
			rel := relSlash(rootPath, candidates[i].FilePath)
			stem := strings.TrimSuffix(rel, filepath.Ext(rel))
			if stem != pattern || !hasTSExt(rel) {
				continue
			}
			candidates[i].IsPrimary = true
			candidates[i].Score += primaryBoost
			return
		}
	}

	// 2. Java main method.
	for i := range candidates {
		if candidates[i].Type == "main" && strings.HasSuffix(candidates[i].FilePath, ".java") {
			candidates[i].IsPrimary = true
			candidates[i].Score += primaryBoost
			return
		}
	}

	// 3. Python entry filenames, in priority order.
	for _, name := range pythonEntryNames {
		for i := range candidates {
			if strings.ToLower(filepath.Base(candidates[i].FilePath)) == name {
				candidates[i].IsPrimary = true
				candidates[i].Score += primaryBoost
				return
			}
		}
	}

	// 4. Fallback: highest score wins, no boost.
	best := 0
	for i := range candidates {
		if candidates[i].Score > candidates[best].Score {
			best = i
		}
	}
	candidates[best].IsPrimary = true
}

func stableSort(candidates []graph.EntryPoint) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].IsPrimary != candidates[j].IsPrimary {
			return candidates[i].IsPrimary
		}
		return candidates[i].Score > candidates[j].Score
	})
}

func hasTSExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx", ".js", ".jsx":
		return true
	}
	return false
}

// relSlash returns the slash-normalized path of a file relative to the
// workspace root.
func relSlash(rootPath, path string) string {
	rel, err := filepath.Rel(rootPath, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}
