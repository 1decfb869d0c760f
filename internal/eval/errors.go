package eval

import (
	"fmt"

	"matseed/internal/syntax"
)

// ErrorCode classifies evaluation failures.
type ErrorCode string

const (
	// CodeUnsupportedNode indicates an expression outside the literal sub-language.
	CodeUnsupportedNode ErrorCode = "unsupported-node"
	// CodeUnknownIdentifier indicates an identifier with no binding in scope.
	CodeUnknownIdentifier ErrorCode = "unknown-identifier"
	// CodeBindingNotFound indicates a named top-level binding is absent from a unit.
	CodeBindingNotFound ErrorCode = "binding-not-found"
)

// Sentinels for errors.Is. Any *Error with the same code matches.
var (
	ErrUnsupportedNode   = &Error{Code: CodeUnsupportedNode}
	ErrUnknownIdentifier = &Error{Code: CodeUnknownIdentifier}
	ErrBindingNotFound   = &Error{Code: CodeBindingNotFound}
)

// Error is an evaluation failure. Kind is set for unsupported nodes, Name for
// unknown identifiers and missing bindings.
type Error struct {
	Code ErrorCode
	Kind string
	Name string
	Pos  syntax.Pos
}

func (e *Error) Error() string {
	var msg string
	switch e.Code {
	case CodeUnsupportedNode:
		msg = fmt.Sprintf("unsupported expression %s", e.Kind)
	case CodeUnknownIdentifier:
		msg = fmt.Sprintf("unknown identifier %q", e.Name)
	case CodeBindingNotFound:
		msg = fmt.Sprintf("binding %q not found", e.Name)
	default:
		msg = string(e.Code)
	}
	if e.Pos.Line > 0 {
		return e.Pos.String() + ": " + msg
	}
	return msg
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func unsupported(kind string, pos syntax.Pos) error {
	return &Error{Code: CodeUnsupportedNode, Kind: kind, Pos: pos}
}
