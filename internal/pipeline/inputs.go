package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"matseed/internal/eval"
	"matseed/internal/logger"
	"matseed/internal/source"
	"matseed/internal/syntax"
	"matseed/internal/value"
)

// Inputs are the loaded source units and the scope built over each of them.
// Units are chained: unit i's scope starts from unit i-1's.
type Inputs struct {
	Units  []*syntax.Unit
	Scopes []eval.Scope
}

// LoadInputs parses every path and builds the chained constant scopes. The
// named bindings are kept out of the scope; they are loaded strictly later.
func LoadInputs(paths []string, skip []string, log *logger.Logger) (*Inputs, error) {
	if log == nil {
		log = logger.Nop()
	}
	in := &Inputs{}
	scope := eval.Scope{}
	for _, p := range paths {
		unit, err := source.Load(p)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		omitted := 0
		scope = eval.BuildScope(unit, scope,
			eval.SkipBinding(skip...),
			eval.OnOmit(func(b syntax.Binding, err error) {
				omitted++
				log.Debug("binding omitted from scope", "unit", unit.Path, "binding", b.Name, "reason", err)
			}),
		)
		log.Info("source unit loaded", "unit", unit.Path, "bindings", len(unit.Bindings), "omitted", omitted)
		in.Units = append(in.Units, unit)
		in.Scopes = append(in.Scopes, scope)
	}
	return in, nil
}

// Scope returns the scope after the last unit.
func (in *Inputs) Scope() eval.Scope {
	if len(in.Scopes) == 0 {
		return eval.Scope{}
	}
	return in.Scopes[len(in.Scopes)-1]
}

// Resolve strictly evaluates the first binding called name, against the
// scope of the unit that declares it.
func (in *Inputs) Resolve(name string) (value.Value, error) {
	for i, u := range in.Units {
		if _, ok := u.Lookup(name); ok {
			return eval.LoadBinding(u, name, in.Scopes[i])
		}
	}
	return nil, fmt.Errorf("pipeline: %w", &eval.Error{Code: eval.CodeBindingNotFound, Name: name})
}

// inputFiles lists the files a source path contributes: the file itself, or
// the non-test Go files of a package directory.
func inputFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		files = append(files, filepath.Join(path, name))
	}
	sort.Strings(files)
	return files, nil
}
