package eval

import (
	"fmt"

	"matseed/internal/syntax"
	"matseed/internal/value"
)

// Option configures BuildScope.
type Option func(*scopeConfig)

type scopeConfig struct {
	skip   map[string]bool
	onOmit func(b syntax.Binding, err error)
}

// SkipBinding excludes the named bindings from the scope. The catalog binding
// is skipped this way and loaded separately with LoadBinding.
func SkipBinding(names ...string) Option {
	return func(c *scopeConfig) {
		for _, n := range names {
			c.skip[n] = true
		}
	}
}

// OnOmit registers fn to be called for every binding that failed to evaluate
// and was left out of the scope.
func OnOmit(fn func(b syntax.Binding, err error)) Option {
	return func(c *scopeConfig) { c.onOmit = fn }
}

// BuildScope evaluates the unit's bindings in declaration order, each against
// the scope accumulated so far, and returns the result. Bindings that fail to
// evaluate are omitted; they are not errors. initial pre-seeds the scope and
// is never modified.
func BuildScope(unit *syntax.Unit, initial Scope, opts ...Option) Scope {
	cfg := scopeConfig{skip: make(map[string]bool)}
	for _, o := range opts {
		o(&cfg)
	}

	scope := initial.Clone()
	for _, b := range unit.Bindings {
		if cfg.skip[b.Name] {
			continue
		}
		v, err := Evaluate(b.Init, scope)
		if err != nil {
			if cfg.onOmit != nil {
				cfg.onOmit(b, err)
			}
			continue
		}
		scope[b.Name] = v
	}
	return scope
}

// LoadBinding strictly evaluates the named binding of unit against scope.
// A missing binding fails with ErrBindingNotFound; evaluation errors are
// returned as-is (wrapped with the unit path and binding name).
func LoadBinding(unit *syntax.Unit, name string, scope Scope) (value.Value, error) {
	b, ok := unit.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("eval: %s: %w", unit.Path, &Error{Code: CodeBindingNotFound, Name: name})
	}
	v, err := Evaluate(b.Init, scope)
	if err != nil {
		return nil, fmt.Errorf("eval: %s: binding %s: %w", unit.Path, name, err)
	}
	return v, nil
}
