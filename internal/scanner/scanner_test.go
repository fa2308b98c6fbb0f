package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files (with parent directories) under root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func relPaths(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestScan_SupportedExtensionsOnly(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/app.ts":    "",
		"src/Main.java": "",
		"src/tool.py":   "",
		"README.md":     "",
		"styles.css":    "",
	})

	files, err := Scan(root, Options{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"src/app.ts", "src/Main.java", "src/tool.py"}, relPaths(t, root, files))
}

func TestScan_DefaultSkipDirs(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/app.ts":              "",
		"node_modules/pkg/idx.js": "",
		"dist/bundle.js":          "",
		"venv/lib/site.py":        "",
		"__pycache__/mod.py":      "",
	})

	files, err := Scan(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/app.ts"}, relPaths(t, root, files))
}

func TestScan_ExcludeDirsAndGlobs(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/app.ts":           "",
		"src/app.test.ts":      "",
		"generated/schema.ts":  "",
		"src/deep/wire.gen.ts": "",
	})

	files, err := Scan(root, Options{
		ExcludeDirs:  []string{"generated"},
		ExcludeGlobs: []string{"**.test.ts", "**.gen.ts"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/app.ts"}, relPaths(t, root, files))
}

func TestScan_BadGlob(t *testing.T) {
	root := t.TempDir()
	_, err := Scan(root, Options{ExcludeGlobs: []string{"[unclosed"}})
	assert.Error(t, err)
}

func TestScan_Gitignore(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":     "coverage/\nsecret.py\n",
		"src/app.py":     "",
		"secret.py":      "",
		"coverage/x.js":  "",
		"src/visible.ts": "",
	})

	files, err := Scan(root, Options{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"src/app.py", "src/visible.ts"}, relPaths(t, root, files))
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"), Options{})
	assert.Error(t, err, "enumeration failure is fatal")
}

func TestScan_RootNotDirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.ts")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := Scan(file, Options{})
	assert.Error(t, err)
}

func TestScan_Deterministic(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"b/two.py":   "",
		"a/one.py":   "",
		"c/three.py": "",
	})

	first, err := Scan(root, Options{})
	require.NoError(t, err)
	second, err := Scan(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, first, second, "walk order is stable")
}
