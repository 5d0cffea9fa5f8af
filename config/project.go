// Package config loads the .xcstrans.yaml project file, discovers catalogs
// and layers run settings.
//
// The project file declares the languages a project ships, where its
// catalogs live and the defaults for provider settings. It is optional:
// without it, catalogs are discovered by walking the project tree.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/xcstrans/catalog"
	"github.com/minios-linux/xcstrans/langmeta"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// FileName is the project file name.
const FileName = ".xcstrans.yaml"

// ProjectFile is the top-level .xcstrans.yaml structure.
type ProjectFile struct {
	// SourceLang is the expected source language of the catalogs.
	SourceLang string `yaml:"source_lang,omitempty"`
	// Languages are the target languages the project ships, in addition to
	// those already present in each catalog.
	Languages []string `yaml:"languages,omitempty"`
	// Catalogs are catalog paths or globs relative to the project root.
	// Empty means discover.
	Catalogs []string `yaml:"catalogs,omitempty"`
	// AppDescription is passed to the provider as context for every request.
	AppDescription string `yaml:"app_description,omitempty"`
	// BatchSize overrides the number of units per provider request.
	BatchSize int `yaml:"batch_size,omitempty"`
	// Provider and Model select the default AI provider.
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	// Prompt overrides the translation system prompt.
	Prompt string `yaml:"prompt,omitempty"`

	// path is where the file was loaded from.
	path string
}

// LoadProjectFile loads and validates .xcstrans.yaml from rootDir.
// Returns nil if no project file exists.
func LoadProjectFile(rootDir string) (*ProjectFile, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var pf ProjectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	pf.path = path

	if pf.BatchSize < 0 {
		return nil, fmt.Errorf("%s: batch_size must not be negative (got %d)", path, pf.BatchSize)
	}
	seen := make(map[string]bool)
	for i, lang := range pf.Languages {
		lang = strings.TrimSpace(lang)
		if lang == "" {
			return nil, fmt.Errorf("%s: language #%d is empty", path, i+1)
		}
		c := langmeta.Canonicalize(lang)
		if seen[c] {
			return nil, fmt.Errorf("%s: language %q is listed twice", path, lang)
		}
		seen[c] = true
		pf.Languages[i] = lang
	}
	if pf.SourceLang != "" && seen[langmeta.Canonicalize(pf.SourceLang)] {
		return nil, fmt.Errorf("%s: source language %q is also listed as a target", path, pf.SourceLang)
	}
	for _, c := range pf.Catalogs {
		if _, err := filepath.Match(c, ""); err != nil {
			return nil, fmt.Errorf("%s: catalog pattern %q: %w", path, c, err)
		}
	}
	return &pf, nil
}

// Path returns the file the project was loaded from.
func (pf *ProjectFile) Path() string {
	return pf.path
}

// CatalogPaths resolves the declared catalogs against rootDir. Plain paths
// must exist; globs may match nothing. Without declared catalogs the tree
// is discovered.
func (pf *ProjectFile) CatalogPaths(rootDir string) ([]string, error) {
	if pf == nil || len(pf.Catalogs) == 0 {
		return Discover(rootDir)
	}

	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	for _, pattern := range pf.Catalogs {
		full := pattern
		if !filepath.IsAbs(full) {
			full = filepath.Join(rootDir, pattern)
		}
		if !strings.ContainsAny(pattern, "*?[") {
			info, err := os.Stat(full)
			if err != nil {
				return nil, fmt.Errorf("%s: catalog %q: %w", pf.path, pattern, err)
			}
			if info.IsDir() {
				found, err := Discover(full)
				if err != nil {
					return nil, err
				}
				for _, f := range found {
					add(f)
				}
				continue
			}
			add(full)
			continue
		}
		matches, err := filepath.Glob(full)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if strings.HasSuffix(m, catalog.FileExt) {
				add(m)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}
