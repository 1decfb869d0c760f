// Package tsparse is the TypeScript/JavaScript frontend. It reads constant
// modules such as
//
//	export const MATERIAL_PALETTE: MaterialOption[] = [ { id: 'oak-1', ... } ];
//
// and lowers every top-level `const` initializer into syntax nodes. Anything
// outside the literal sub-language is recognised well enough to be skipped
// and is reported as syntax.Unsupported with the TypeScript node kind.
package tsparse

import (
	"fmt"

	"matseed/internal/syntax"
)

// Frontend implements syntax.Frontend for TypeScript and JavaScript sources.
type Frontend struct{}

func (Frontend) Name() string { return "ts" }

func (Frontend) Extensions() []string {
	return []string{".ts", ".tsx", ".mts", ".cts", ".js", ".mjs", ".cjs", ".jsx"}
}

// Parse tokenizes src and collects its top-level const bindings.
func (Frontend) Parse(path string, src []byte) (*syntax.Unit, error) {
	toks, err := newLexer(path, src).tokenize()
	if err != nil {
		return nil, fmt.Errorf("tsparse: %w", err)
	}
	p := &parser{toks: toks}
	unit := &syntax.Unit{Path: path}
	for !p.at(tokEOF) {
		unit.Bindings = append(unit.Bindings, p.statement()...)
	}
	return unit, nil
}

// statementStarts are keywords that, at the start of a line and outside any
// brackets, begin a new top-level statement.
var statementStarts = map[string]bool{
	"export": true, "import": true, "const": true, "let": true, "var": true,
	"function": true, "class": true, "interface": true, "type": true,
	"enum": true, "declare": true, "async": true, "abstract": true,
	"namespace": true, "module": true,
}

// binaryOperators produce a BinaryExpression when they follow an operand.
var binaryOperators = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true, "**": true,
	"==": true, "!=": true, "===": true, "!==": true,
	"<": true, ">": true, "<=": true, ">=": true,
	"&&": true, "||": true, "??": true, "&": true, "|": true, "^": true,
	"<<": true, ">>": true, ">>>": true,
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"**=": true, "<<=": true, ">>=": true, ">>>=": true, "&=": true,
	"|=": true, "^=": true, "&&=": true, "||=": true, "??=": true,
}

type parser struct {
	toks []token
	i    int
}

type parseError struct {
	pos syntax.Pos
	msg string
}

func (e *parseError) Error() string { return fmt.Sprintf("%s: %s", e.pos, e.msg) }

func (p *parser) tok() token { return p.toks[p.i] }

func (p *parser) peek(n int) token {
	if p.i+n < len(p.toks) {
		return p.toks[p.i+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) at(kind tokenKind) bool { return p.tok().kind == kind }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) expect(punct string) error {
	if !p.tok().punct(punct) {
		return p.errorf("expected %q, found %s", punct, describe(p.tok()))
	}
	p.next()
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &parseError{pos: p.tok().pos, msg: fmt.Sprintf(format, args...)}
}

func describe(t token) string {
	switch t.kind {
	case tokIdent, tokPunct:
		return fmt.Sprintf("%q", t.text)
	default:
		return t.kind.String()
	}
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (p *parser) statement() []syntax.Binding {
	exported := false
	if p.tok().ident("export") {
		if p.peek(1).ident("default") {
			p.skipStatement()
			return nil
		}
		exported = true
		p.next()
	}
	if p.tok().ident("const") && !p.peek(1).ident("enum") {
		return p.constDeclaration(exported)
	}
	p.skipStatement()
	return nil
}

// skipStatement consumes one statement we do not interpret. It stops after a
// semicolon at bracket depth zero, or before a statement keyword that opens
// a new line at depth zero.
func (p *parser) skipStatement() {
	depth := 0
	first := true
	for !p.at(tokEOF) {
		t := p.tok()
		if !first && depth == 0 && t.nl && t.kind == tokIdent && statementStarts[t.text] {
			return
		}
		first = false
		p.next()
		if t.kind != tokPunct {
			continue
		}
		switch t.text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			if depth > 0 {
				depth--
			}
		case ";":
			if depth == 0 {
				return
			}
		}
	}
}

func (p *parser) constDeclaration(exported bool) []syntax.Binding {
	p.next() // const
	var out []syntax.Binding
	for {
		name := p.tok()
		if name.kind != tokIdent {
			// Destructuring patterns bind nothing we can name.
			p.skipStatement()
			return out
		}
		p.next()
		if p.tok().punct("!") {
			p.next()
		}
		if p.tok().punct(":") {
			p.next()
			p.skipType()
		}
		if p.tok().punct("=") {
			p.next()
			init := p.initializer()
			out = append(out, syntax.Binding{
				Name:     name.text,
				Init:     init,
				Exported: exported,
				Pos:      name.pos,
			})
		}
		switch {
		case p.tok().punct(","):
			p.next()
			continue
		case p.tok().punct(";"):
			p.next()
		}
		return out
	}
}

// initializer parses one const initializer. When the expression cannot be
// parsed the parser resynchronises at the end of the declarator and the
// binding is reported as unsupported.
func (p *parser) initializer() syntax.Node {
	start := p.i
	node, err := p.expression()
	if err == nil && (p.at(tokEOF) || p.tok().punct(",") || p.tok().punct(";") || p.tok().nl) {
		return node
	}
	p.i = start
	p.skipDeclarator()
	return &syntax.Unsupported{Pos: p.toks[start].pos, Kind: "UnparsedExpression"}
}

// skipDeclarator advances to the next "," or ";" at depth zero, or to a new
// statement.
func (p *parser) skipDeclarator() {
	depth := 0
	for !p.at(tokEOF) {
		t := p.tok()
		if depth == 0 {
			if t.punct(",") || t.punct(";") {
				return
			}
			if t.nl && t.kind == tokIdent && statementStarts[t.text] {
				return
			}
		}
		if t.kind == tokPunct {
			switch t.text {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				if depth > 0 {
					depth--
				}
			}
		}
		p.next()
	}
}

// skipType consumes a type annotation or the target of an `as`/`satisfies`
// assertion.
func (p *parser) skipType() {
	depth := 0
	var prev token
	first := true
	for !p.at(tokEOF) {
		t := p.tok()
		if depth == 0 && !first {
			if t.kind == tokPunct {
				switch t.text {
				case ",", ";", ")", "]", "}", "=", "?", ">", ">>", ">>>":
					return
				}
			}
			if t.nl && !typeContinues(prev, t) {
				return
			}
		}
		first = false
		if t.kind == tokPunct {
			switch t.text {
			case "(", "[", "{", "<":
				depth++
			case ")", "]", "}", ">":
				depth--
			case ">>":
				depth -= 2
			case ">>>":
				depth -= 3
			}
		}
		if depth < 0 {
			// The closing bracket belonged to an enclosing construct.
			return
		}
		prev = t
		p.next()
	}
}

func typeContinues(prev, cur token) bool {
	if cur.punct("|") || cur.punct("&") || cur.punct(".") || cur.punct("[") {
		return true
	}
	if prev.kind == tokPunct {
		switch prev.text {
		case "|", "&", ".", "=>", ":", ",":
			return true
		}
	}
	return prev.ident("keyof") || prev.ident("typeof") || prev.ident("extends") || prev.ident("readonly")
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func unsupported(pos syntax.Pos, kind string) syntax.Node {
	return &syntax.Unsupported{Pos: pos, Kind: kind}
}

func (p *parser) expression() (syntax.Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.tok()
		switch {
		case t.kind == tokPunct && binaryOperators[t.text]:
			p.next()
			if _, err := p.unary(); err != nil {
				return nil, err
			}
			left = unsupported(left.Position(), "BinaryExpression")
		case t.ident("instanceof") || t.ident("in"):
			p.next()
			if _, err := p.unary(); err != nil {
				return nil, err
			}
			left = unsupported(left.Position(), "BinaryExpression")
		case t.punct("?"):
			p.next()
			if _, err := p.expression(); err != nil {
				return nil, err
			}
			if err := p.expect(":"); err != nil {
				return nil, err
			}
			if _, err := p.expression(); err != nil {
				return nil, err
			}
			left = unsupported(left.Position(), "ConditionalExpression")
		case (t.ident("as") || t.ident("satisfies")) && !t.nl:
			p.next()
			p.skipType()
			left = &syntax.Paren{Pos: left.Position(), X: left}
		default:
			return left, nil
		}
	}
}

func (p *parser) unary() (syntax.Node, error) {
	t := p.tok()
	switch {
	case t.punct("-"):
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &syntax.UnaryMinus{Pos: t.pos, X: x}, nil
	case t.punct("+"), t.punct("!"), t.punct("~"), t.punct("++"), t.punct("--"):
		p.next()
		if _, err := p.unary(); err != nil {
			return nil, err
		}
		return unsupported(t.pos, "PrefixUnaryExpression"), nil
	case t.ident("typeof"), t.ident("void"), t.ident("delete"), t.ident("await"):
		if isOperandStart(p.peek(1)) {
			p.next()
			if _, err := p.unary(); err != nil {
				return nil, err
			}
			return unsupported(t.pos, keywordExpressionKind[t.text]), nil
		}
	case t.punct("<"):
		// Angle-bracket type assertion: <T>expr.
		p.next()
		p.skipType()
		if err := p.expect(">"); err != nil {
			return nil, err
		}
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &syntax.Paren{Pos: t.pos, X: x}, nil
	}
	return p.postfix()
}

var keywordExpressionKind = map[string]string{
	"typeof": "TypeOfExpression",
	"void":   "VoidExpression",
	"delete": "DeleteExpression",
	"await":  "AwaitExpression",
}

func isOperandStart(t token) bool {
	switch t.kind {
	case tokIdent, tokString, tokTemplate, tokNumber, tokBigInt, tokRegex:
		return true
	case tokPunct:
		switch t.text {
		case "(", "[", "{", "-", "+", "!", "~", "<":
			return true
		}
	}
	return false
}

func (p *parser) postfix() (syntax.Node, error) {
	x, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.tok()
		switch {
		case t.punct("."), t.punct("?."):
			p.next()
			switch {
			case p.tok().punct("("):
				if err := p.skipBalanced(); err != nil {
					return nil, err
				}
				x = unsupported(x.Position(), "CallExpression")
				continue
			case p.tok().punct("["):
				if err := p.skipBalanced(); err != nil {
					return nil, err
				}
				x = unsupported(x.Position(), "ElementAccessExpression")
				continue
			case p.tok().punct("#"):
				p.next()
			}
			if !p.at(tokIdent) {
				return nil, p.errorf("expected property name, found %s", describe(p.tok()))
			}
			p.next()
			x = unsupported(x.Position(), "PropertyAccessExpression")
		case t.punct("["):
			if err := p.skipBalanced(); err != nil {
				return nil, err
			}
			x = unsupported(x.Position(), "ElementAccessExpression")
		case t.punct("(") && !t.nl:
			if err := p.skipBalanced(); err != nil {
				return nil, err
			}
			x = unsupported(x.Position(), "CallExpression")
		case t.kind == tokTemplate && !t.nl:
			p.next()
			x = unsupported(x.Position(), "TaggedTemplateExpression")
		case t.punct("!") && !t.nl:
			// Non-null assertion.
			p.next()
			x = &syntax.Paren{Pos: x.Position(), X: x}
		case (t.punct("++") || t.punct("--")) && !t.nl:
			p.next()
			x = unsupported(x.Position(), "PostfixUnaryExpression")
		default:
			return x, nil
		}
	}
}

func (p *parser) primary() (syntax.Node, error) {
	t := p.tok()
	switch t.kind {
	case tokString:
		p.next()
		return &syntax.StringLit{Pos: t.pos, Value: t.str}, nil
	case tokTemplate:
		p.next()
		if t.subst {
			return unsupported(t.pos, "TemplateExpression"), nil
		}
		return &syntax.StringLit{Pos: t.pos, Value: t.str}, nil
	case tokNumber:
		p.next()
		return &syntax.NumberLit{Pos: t.pos, Value: t.num}, nil
	case tokBigInt:
		p.next()
		return unsupported(t.pos, "BigIntLiteral"), nil
	case tokRegex:
		p.next()
		return unsupported(t.pos, "RegularExpressionLiteral"), nil
	case tokIdent:
		return p.identifierExpression()
	case tokPunct:
		switch t.text {
		case "[":
			return p.arrayLiteral()
		case "{":
			return p.objectLiteral()
		case "(":
			return p.parenthesized()
		}
	}
	return nil, p.errorf("unexpected %s in expression", describe(t))
}

func (p *parser) identifierExpression() (syntax.Node, error) {
	t := p.tok()
	switch t.text {
	case "true", "false":
		p.next()
		return &syntax.BoolLit{Pos: t.pos, Value: t.text == "true"}, nil
	case "null":
		p.next()
		return &syntax.NullLit{Pos: t.pos}, nil
	case "this", "super":
		p.next()
		return unsupported(t.pos, "ThisKeyword"), nil
	case "new":
		p.next()
		if _, err := p.postfix(); err != nil {
			return nil, err
		}
		return unsupported(t.pos, "NewExpression"), nil
	case "function":
		return p.skipFunction(t.pos, "FunctionExpression")
	case "class":
		p.next()
		for !p.at(tokEOF) && !p.tok().punct("{") {
			p.next()
		}
		if err := p.skipBalanced(); err != nil {
			return nil, err
		}
		return unsupported(t.pos, "ClassExpression"), nil
	case "async":
		if p.peek(1).ident("function") && !p.peek(1).nl {
			p.next()
			return p.skipFunction(t.pos, "FunctionExpression")
		}
		if (p.peek(1).punct("(") || p.peek(1).kind == tokIdent) && !p.peek(1).nl {
			p.next()
			x, err := p.primary()
			if err != nil {
				return nil, err
			}
			if u, ok := x.(*syntax.Unsupported); ok && u.Kind == "ArrowFunction" {
				return x, nil
			}
			return unsupported(t.pos, "CallExpression"), nil
		}
	}
	p.next()
	if p.tok().punct("=>") {
		p.next()
		if err := p.arrowBody(); err != nil {
			return nil, err
		}
		return unsupported(t.pos, "ArrowFunction"), nil
	}
	return &syntax.Ident{Pos: t.pos, Name: t.text}, nil
}

func (p *parser) skipFunction(pos syntax.Pos, kind string) (syntax.Node, error) {
	for !p.at(tokEOF) && !p.tok().punct("{") {
		if p.tok().punct("(") {
			if err := p.skipBalanced(); err != nil {
				return nil, err
			}
			continue
		}
		p.next()
	}
	if err := p.skipBalanced(); err != nil {
		return nil, err
	}
	return unsupported(pos, kind), nil
}

func (p *parser) arrowBody() error {
	if p.tok().punct("{") {
		return p.skipBalanced()
	}
	_, err := p.expression()
	return err
}

// skipBalanced consumes a bracketed group starting at the current token.
func (p *parser) skipBalanced() error {
	open := p.tok()
	depth := 0
	for !p.at(tokEOF) {
		t := p.next()
		if t.kind != tokPunct {
			continue
		}
		switch t.text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
	return &parseError{pos: open.pos, msg: fmt.Sprintf("unbalanced %q", open.text)}
}

// arrowAhead reports whether the "(" at the current position opens the
// parameter list of an arrow function.
func (p *parser) arrowAhead() bool {
	depth := 0
	for j := p.i; j < len(p.toks); j++ {
		t := p.toks[j]
		if t.kind != tokPunct {
			continue
		}
		switch t.text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
			if depth == 0 {
				return j+1 < len(p.toks) && p.toks[j+1].punct("=>")
			}
		}
	}
	return false
}

func (p *parser) parenthesized() (syntax.Node, error) {
	open := p.tok()
	if p.arrowAhead() {
		if err := p.skipBalanced(); err != nil {
			return nil, err
		}
		p.next() // =>
		if err := p.arrowBody(); err != nil {
			return nil, err
		}
		return unsupported(open.pos, "ArrowFunction"), nil
	}
	p.next()
	x, err := p.expression()
	if err != nil {
		return nil, err
	}
	if p.tok().punct(",") {
		for p.tok().punct(",") {
			p.next()
			if _, err := p.expression(); err != nil {
				return nil, err
			}
		}
		x = unsupported(open.pos, "CommaListExpression")
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return &syntax.Paren{Pos: open.pos, X: x}, nil
}

func (p *parser) arrayLiteral() (syntax.Node, error) {
	open := p.next()
	arr := &syntax.ArrayLit{Pos: open.pos}
	for !p.tok().punct("]") {
		t := p.tok()
		switch {
		case t.kind == tokEOF:
			return nil, &parseError{pos: open.pos, msg: "unterminated array literal"}
		case t.punct(","):
			arr.Elements = append(arr.Elements, unsupported(t.pos, "OmittedExpression"))
			p.next()
			continue
		case t.punct("..."):
			p.next()
			if _, err := p.expression(); err != nil {
				return nil, err
			}
			arr.Elements = append(arr.Elements, unsupported(t.pos, "SpreadElement"))
		default:
			x, err := p.expression()
			if err != nil {
				return nil, err
			}
			arr.Elements = append(arr.Elements, x)
		}
		if p.tok().punct(",") {
			p.next()
		} else if !p.tok().punct("]") {
			return nil, p.errorf("expected \",\" or \"]\" in array literal, found %s", describe(p.tok()))
		}
	}
	p.next()
	return arr, nil
}

func (p *parser) objectLiteral() (syntax.Node, error) {
	open := p.next()
	obj := &syntax.ObjectLit{Pos: open.pos}
	for !p.tok().punct("}") {
		if p.at(tokEOF) {
			return nil, &parseError{pos: open.pos, msg: "unterminated object literal"}
		}
		prop, err := p.property()
		if err != nil {
			return nil, err
		}
		obj.Properties = append(obj.Properties, prop)
		if p.tok().punct(",") {
			p.next()
		} else if !p.tok().punct("}") {
			return nil, p.errorf("expected \",\" or \"}\" in object literal, found %s", describe(p.tok()))
		}
	}
	p.next()
	return obj, nil
}

func (p *parser) property() (syntax.Property, error) {
	t := p.tok()
	bad := func(kind string) syntax.Property {
		return syntax.Property{Value: unsupported(t.pos, kind)}
	}
	switch {
	case t.punct("..."):
		p.next()
		if _, err := p.expression(); err != nil {
			return syntax.Property{}, err
		}
		return bad("SpreadAssignment"), nil
	case t.punct("["):
		if err := p.skipBalanced(); err != nil {
			return syntax.Property{}, err
		}
		if err := p.propertyTail(); err != nil {
			return syntax.Property{}, err
		}
		return bad("ComputedPropertyName"), nil
	case t.punct("*"):
		p.next()
		return p.method(t.pos)
	case t.kind == tokNumber || t.kind == tokBigInt:
		p.next()
		if err := p.propertyTail(); err != nil {
			return syntax.Property{}, err
		}
		return bad("NumericPropertyName"), nil
	case t.kind == tokString:
		p.next()
		return p.propertyValue(t.str, t.pos)
	case t.kind == tokIdent:
		next := p.peek(1)
		if (t.text == "get" || t.text == "set" || t.text == "async") &&
			(next.kind == tokIdent || next.kind == tokString || next.punct("[")) {
			p.next()
			return p.method(t.pos)
		}
		p.next()
		return p.propertyValue(t.text, t.pos)
	}
	return syntax.Property{}, p.errorf("unexpected %s in object literal", describe(t))
}

func (p *parser) propertyValue(key string, pos syntax.Pos) (syntax.Property, error) {
	switch {
	case p.tok().punct(":"):
		p.next()
		x, err := p.expression()
		if err != nil {
			return syntax.Property{}, err
		}
		return syntax.Property{Key: key, Value: x}, nil
	case p.tok().punct("("), p.tok().punct("<"):
		return p.method(pos)
	case p.tok().punct(","), p.tok().punct("}"):
		return syntax.Property{Value: unsupported(pos, "ShorthandPropertyAssignment")}, nil
	}
	return syntax.Property{}, p.errorf("expected \":\" after property name, found %s", describe(p.tok()))
}

// propertyTail skips the value part of a property whose key we reject.
func (p *parser) propertyTail() error {
	switch {
	case p.tok().punct(":"):
		p.next()
		_, err := p.expression()
		return err
	case p.tok().punct("("):
		_, err := p.method(p.tok().pos)
		return err
	}
	return nil
}

func (p *parser) method(pos syntax.Pos) (syntax.Property, error) {
	for !p.at(tokEOF) && !p.tok().punct("{") {
		if p.tok().punct("(") || p.tok().punct("[") {
			if err := p.skipBalanced(); err != nil {
				return syntax.Property{}, err
			}
			continue
		}
		p.next()
	}
	if err := p.skipBalanced(); err != nil {
		return syntax.Property{}, err
	}
	return syntax.Property{Value: unsupported(pos, "MethodDeclaration")}, nil
}
