// Package eval evaluates literal expressions into plain values and builds
// constant scopes from source units.
//
// Only the literal sub-language is interpreted: strings, numbers, booleans,
// null, arrays, objects with simple keys, references to earlier bindings,
// parentheses/type assertions and unary minus on numbers. Every other
// expression fails with ErrUnsupportedNode.
package eval

import (
	"maps"

	"matseed/internal/syntax"
	"matseed/internal/value"
)

// Scope maps binding names to their evaluated values.
type Scope map[string]value.Value

// Clone returns a copy of s. A nil scope clones to an empty one.
func (s Scope) Clone() Scope {
	out := make(Scope, len(s))
	maps.Copy(out, s)
	return out
}

// Evaluate evaluates n against scope. It has no side effects.
func Evaluate(n syntax.Node, scope Scope) (value.Value, error) {
	switch x := n.(type) {
	case *syntax.StringLit:
		return value.String(x.Value), nil
	case *syntax.NumberLit:
		return value.Number(x.Value), nil
	case *syntax.BoolLit:
		return value.Bool(x.Value), nil
	case *syntax.NullLit:
		return value.Null{}, nil
	case *syntax.ArrayLit:
		arr := make(value.Array, 0, len(x.Elements))
		for _, el := range x.Elements {
			v, err := Evaluate(el, scope)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case *syntax.ObjectLit:
		obj := value.NewObject()
		for _, p := range x.Properties {
			// Computed keys, spreads and shorthands arrive as Unsupported values.
			if u, ok := p.Value.(*syntax.Unsupported); ok {
				return nil, unsupported(u.Kind, u.Pos)
			}
			v, err := Evaluate(p.Value, scope)
			if err != nil {
				return nil, err
			}
			obj.Set(p.Key, v)
		}
		return obj, nil
	case *syntax.Ident:
		v, ok := scope[x.Name]
		if !ok {
			return nil, &Error{Code: CodeUnknownIdentifier, Name: x.Name, Pos: x.Pos}
		}
		return v, nil
	case *syntax.Paren:
		return Evaluate(x.X, scope)
	case *syntax.UnaryMinus:
		v, err := Evaluate(x.X, scope)
		if err != nil {
			return nil, err
		}
		n, ok := v.(value.Number)
		if !ok {
			return nil, unsupported("PrefixUnaryExpression", x.Pos)
		}
		return -n, nil
	case *syntax.Unsupported:
		return nil, unsupported(x.Kind, x.Pos)
	case nil:
		return nil, unsupported("MissingInitializer", syntax.Pos{})
	}
	return nil, unsupported("Unknown", n.Position())
}
