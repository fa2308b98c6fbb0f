// Package scanner enumerates the source files of a workspace. It walks the
// tree once, skipping version-control and dependency directories, honoring
// the root .gitignore, and applying user-supplied exclude globs.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/probelab/codegraph/internal/parse"
)

// defaultSkipDirs are never descended into.
var defaultSkipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"venv":         true,
	".venv":        true,
	"__pycache__":  true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"out":          true,
}

// Options controls workspace enumeration.
type Options struct {
	ExcludeDirs  []string // directory names, matched exactly
	ExcludeGlobs []string // glob patterns matched against root-relative paths
}

// Scan returns the supported source files under rootPath in walk order.
// A failure to enumerate the workspace is fatal: without a file list no
// partial analysis is meaningful.
func Scan(rootPath string, opts Options) ([]string, error) {
	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, fmt.Errorf("scanner: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scanner: root is not a directory: %s", rootPath)
	}

	excludeDirs := make(map[string]bool, len(opts.ExcludeDirs))
	for _, d := range opts.ExcludeDirs {
		excludeDirs[d] = true
	}

	globs := make([]glob.Glob, 0, len(opts.ExcludeGlobs))
	for _, pattern := range opts.ExcludeGlobs {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("scanner: bad exclude glob %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}

	// Best-effort gitignore; a missing file is not an error.
	gi, _ := ignore.CompileIgnoreFile(filepath.Join(rootPath, ".gitignore"))

	var files []string
	walkErr := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == rootPath {
				return fmt.Errorf("scanner: walk root: %w", err)
			}
			return nil // skip inaccessible entries
		}

		rel, relErr := filepath.Rel(rootPath, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == rootPath {
				return nil
			}
			name := d.Name()
			if defaultSkipDirs[name] || excludeDirs[name] {
				return filepath.SkipDir
			}
			if gi != nil && gi.MatchesPath(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if _, ok := parse.LanguageFor(path); !ok {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		for _, g := range globs {
			if g.Match(rel) {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return files, nil
}
