package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfig holds analysis settings loaded from codegraph.yml.
type ProjectConfig struct {
	Languages      []string `yaml:"languages,omitempty"`
	ExcludeDirs    []string `yaml:"excludeDirs,omitempty"`
	ExcludeGlobs   []string `yaml:"excludeGlobs,omitempty"`
	MaxDepth       int      `yaml:"maxDepth,omitempty"`
	MaxEntryPoints int      `yaml:"maxEntryPoints,omitempty"`
	Workers        int      `yaml:"workers,omitempty"`
	Verbose        bool     `yaml:"verbose,omitempty"`
}

// Load attempts to read codegraph.yml or codegraph.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"codegraph.yml", "codegraph.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}

// MaxDepthOrDefault returns the traversal depth bound, defaulting to 10.
func (c *ProjectConfig) MaxDepthOrDefault() int {
	if c.MaxDepth > 0 {
		return c.MaxDepth
	}
	return 10
}

// WorkersOrDefault returns the parse worker count, defaulting to
// sequential parsing.
func (c *ProjectConfig) WorkersOrDefault() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return 1
}
