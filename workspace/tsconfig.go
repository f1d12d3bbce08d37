package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/tailscale/hujson"
)

type tsConfig struct {
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// readTSConfigPaths returns compilerOptions.paths of the tsconfig file at rel,
// a slash-separated path under root.
func readTSConfigPaths(root, rel string) (map[string][]string, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("failed to read tsconfig: %w", err)
	}
	return parseTSConfigPaths(data, path.Dir(filepath.ToSlash(rel)))
}

// parseTSConfigPaths decodes tsconfig content found in dir. Targets are made
// workspace-relative by joining dir and baseUrl, both of which tsc resolves
// against the tsconfig location.
func parseTSConfigPaths(data []byte, dir string) (map[string][]string, error) {
	data, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tsconfig: %w", err)
	}

	var cfg tsConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse tsconfig: %w", err)
	}

	base := path.Join(dir, filepath.ToSlash(cfg.CompilerOptions.BaseURL))
	paths := make(map[string][]string, len(cfg.CompilerOptions.Paths))
	for alias, targets := range cfg.CompilerOptions.Paths {
		resolved := make([]string, 0, len(targets))
		for _, target := range targets {
			resolved = append(resolved, path.Join(base, target))
		}
		paths[alias] = resolved
	}
	return paths, nil
}

// mergePaths returns base overlaid with overrides.
func mergePaths(base, overrides map[string][]string) map[string][]string {
	merged := make(map[string][]string, len(base)+len(overrides))
	for alias, targets := range base {
		merged[alias] = targets
	}
	for alias, targets := range overrides {
		merged[alias] = targets
	}
	return merged
}
