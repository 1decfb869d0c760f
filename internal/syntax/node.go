// Package syntax holds the frontend-neutral representation of a source unit:
// an ordered list of top-level constant bindings whose initializers are
// lowered into a closed set of expression nodes.
//
// Frontends (TypeScript constant modules, Go source) translate their own
// ASTs into these nodes; everything outside the literal sub-language becomes
// an Unsupported node that records the original syntactic kind.
package syntax

import "fmt"

// Pos is a 1-based source position.
type Pos struct {
	File string
	Line int
	Col  int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Node is one of StringLit, NumberLit, BoolLit, NullLit, ArrayLit, ObjectLit,
// Ident, Paren, UnaryMinus or Unsupported.
type Node interface {
	node()
	Position() Pos
}

// StringLit is a string literal (quotes and escapes already resolved).
type StringLit struct {
	Pos   Pos
	Value string
}

// NumberLit is a numeric literal.
type NumberLit struct {
	Pos   Pos
	Value float64
}

// BoolLit is true or false.
type BoolLit struct {
	Pos   Pos
	Value bool
}

// NullLit is null (TS) or nil (Go).
type NullLit struct {
	Pos Pos
}

// ArrayLit is an ordered list of element expressions.
type ArrayLit struct {
	Pos      Pos
	Elements []Node
}

// Property is one key/value entry of an object literal. A property whose key
// cannot be expressed (computed keys, spreads, shorthand, methods) carries an
// Unsupported value and an empty key.
type Property struct {
	Key   string
	Value Node
}

// ObjectLit is an ordered list of properties.
type ObjectLit struct {
	Pos        Pos
	Properties []Property
}

// Ident is a reference to another binding.
type Ident struct {
	Pos  Pos
	Name string
}

// Paren wraps an expression without changing its meaning: parentheses and
// type assertions of every flavour.
type Paren struct {
	Pos Pos
	X   Node
}

// UnaryMinus negates its operand.
type UnaryMinus struct {
	Pos Pos
	X   Node
}

// Unsupported stands in for any expression outside the literal
// sub-language. Kind is the frontend's name for the construct.
type Unsupported struct {
	Pos  Pos
	Kind string
}

func (*StringLit) node()   {}
func (*NumberLit) node()   {}
func (*BoolLit) node()     {}
func (*NullLit) node()     {}
func (*ArrayLit) node()    {}
func (*ObjectLit) node()   {}
func (*Ident) node()       {}
func (*Paren) node()       {}
func (*UnaryMinus) node()  {}
func (*Unsupported) node() {}

func (n *StringLit) Position() Pos   { return n.Pos }
func (n *NumberLit) Position() Pos   { return n.Pos }
func (n *BoolLit) Position() Pos     { return n.Pos }
func (n *NullLit) Position() Pos     { return n.Pos }
func (n *ArrayLit) Position() Pos    { return n.Pos }
func (n *ObjectLit) Position() Pos   { return n.Pos }
func (n *Ident) Position() Pos       { return n.Pos }
func (n *Paren) Position() Pos       { return n.Pos }
func (n *UnaryMinus) Position() Pos  { return n.Pos }
func (n *Unsupported) Position() Pos { return n.Pos }

// Binding is a top-level immutable name bound to an initializer.
type Binding struct {
	Name     string
	Init     Node
	Exported bool
	Pos      Pos
}

// Unit is a parsed source unit: its bindings in textual declaration order.
type Unit struct {
	Path     string
	Bindings []Binding
}

// Lookup returns the binding called name.
func (u *Unit) Lookup(name string) (Binding, bool) {
	for _, b := range u.Bindings {
		if b.Name == name {
			return b, true
		}
	}
	return Binding{}, false
}

// Names returns binding names in declaration order.
func (u *Unit) Names() []string {
	names := make([]string, len(u.Bindings))
	for i, b := range u.Bindings {
		names[i] = b.Name
	}
	return names
}
