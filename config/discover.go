package config

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minios-linux/xcstrans/catalog"
)

// skipDirs are directory names never searched for catalogs.
var skipDirs = map[string]bool{
	".git":         true,
	".build":       true,
	"build":        true,
	"DerivedData":  true,
	"Pods":         true,
	"Carthage":     true,
	"node_modules": true,
}

// Discover returns every .xcstrings file under rootDir, sorted.
// Build output, dependency checkouts and hidden directories are skipped.
func Discover(rootDir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != rootDir && (skipDirs[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), catalog.FileExt) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// IsCatalog reports whether path names a string catalog file.
func IsCatalog(path string) bool {
	return strings.HasSuffix(path, catalog.FileExt)
}
