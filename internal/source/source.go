// Package source loads source units from disk, choosing a frontend by file
// extension. A directory is loaded as a Go package.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"matseed/internal/syntax"
	"matseed/internal/syntax/goparse"
	"matseed/internal/syntax/tsparse"
)

// Frontends lists the registered frontends in lookup order.
var Frontends = []syntax.Frontend{
	tsparse.Frontend{},
	goparse.Frontend{},
}

// ForPath returns the frontend that accepts path's extension.
func ForPath(path string) (syntax.Frontend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range Frontends {
		for _, e := range f.Extensions() {
			if e == ext {
				return f, nil
			}
		}
	}
	return nil, fmt.Errorf("source: no frontend for %q", path)
}

// Load reads and parses the unit at path.
func Load(path string) (*syntax.Unit, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	if info.IsDir() {
		return goparse.LoadDir(path)
	}
	fe, err := ForPath(path)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", path, err)
	}
	unit, err := fe.Parse(path, src)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	return unit, nil
}
