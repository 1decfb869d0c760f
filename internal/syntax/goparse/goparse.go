// Package goparse is the Go-source frontend: package-level const and var
// declarations become bindings, and their initializers are lowered into
// syntax nodes.
//
// Catalogs written in Go use map or struct composite literals:
//
//	var MaterialPalette = []map[string]any{
//		{"id": "oak-1", "name": "Oak", "finish": "Matte Oil"},
//	}
package goparse

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"matseed/internal/syntax"
)

// Frontend implements syntax.Frontend for single Go files.
type Frontend struct{}

func (Frontend) Name() string { return "go" }

func (Frontend) Extensions() []string { return []string{".go"} }

// Parse parses one Go file.
func (Frontend) Parse(path string, src []byte) (*syntax.Unit, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("goparse: %w", err)
	}
	l := &lowerer{fset: fset}
	return &syntax.Unit{Path: path, Bindings: l.bindings(file)}, nil
}

// LoadDir loads the Go package in dir as one unit. Files are visited in
// filename order, declarations in source order. go/packages is tried first so
// build constraints are honoured; when it cannot load the package (no module,
// no toolchain) every non-test .go file is parsed directly.
func LoadDir(dir string) (*syntax.Unit, error) {
	fset, files, err := loadPackageFiles(dir)
	if err != nil {
		fset, files, err = parseDirFiles(dir)
		if err != nil {
			return nil, fmt.Errorf("goparse: load %s: %w", dir, err)
		}
	}
	sort.SliceStable(files, func(i, j int) bool {
		return fset.Position(files[i].Pos()).Filename < fset.Position(files[j].Pos()).Filename
	})
	l := &lowerer{fset: fset}
	unit := &syntax.Unit{Path: dir}
	for _, f := range files {
		unit.Bindings = append(unit.Bindings, l.bindings(f)...)
	}
	return unit, nil
}

func loadPackageFiles(dir string) (*token.FileSet, []*ast.File, error) {
	fset := token.NewFileSet()
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax,
		Dir:  dir,
		Fset: fset,
	}
	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		return nil, nil, err
	}
	if len(pkgs) == 0 {
		return nil, nil, fmt.Errorf("no packages found")
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, nil, pkg.Errors[0]
	}
	if len(pkg.Syntax) == 0 {
		return nil, nil, fmt.Errorf("no syntax for package %s", pkg.PkgPath)
	}
	return fset, pkg.Syntax, nil
}

func parseDirFiles(dir string) (*token.FileSet, []*ast.File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	fset := token.NewFileSet()
	var files []*ast.File
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".go" || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.SkipObjectResolution)
		if err != nil {
			return nil, nil, err
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no Go files in %s", dir)
	}
	return fset, files, nil
}

// ---------------------------------------------------------------------------
// Lowering
// ---------------------------------------------------------------------------

type lowerer struct {
	fset *token.FileSet
}

func (l *lowerer) pos(p token.Pos) syntax.Pos {
	position := l.fset.Position(p)
	return syntax.Pos{File: position.Filename, Line: position.Line, Col: position.Column}
}

func (l *lowerer) bindings(file *ast.File) []syntax.Binding {
	var out []syntax.Binding
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || (gd.Tok != token.CONST && gd.Tok != token.VAR) {
			continue
		}
		for _, spec := range gd.Specs {
			vs := spec.(*ast.ValueSpec)
			// Implicitly repeated const specs (iota blocks) and multi-value
			// assignments carry no per-name initializer.
			if len(vs.Values) != len(vs.Names) {
				continue
			}
			for i, name := range vs.Names {
				if name.Name == "_" {
					continue
				}
				out = append(out, syntax.Binding{
					Name:     name.Name,
					Init:     l.expr(vs.Values[i], vs.Type),
					Exported: ast.IsExported(name.Name),
					Pos:      l.pos(name.Pos()),
				})
			}
		}
	}
	return out
}

func unsupported(pos syntax.Pos, e ast.Node) syntax.Node {
	return &syntax.Unsupported{Pos: pos, Kind: strings.TrimPrefix(fmt.Sprintf("%T", e), "*ast.")}
}

// expr lowers e. hint is the type an elided composite literal inherits from
// its parent (nil when unknown).
func (l *lowerer) expr(e ast.Expr, hint ast.Expr) syntax.Node {
	pos := l.pos(e.Pos())
	switch x := e.(type) {
	case *ast.BasicLit:
		return l.basicLit(x, pos)
	case *ast.Ident:
		switch x.Name {
		case "true", "false":
			return &syntax.BoolLit{Pos: pos, Value: x.Name == "true"}
		case "nil":
			return &syntax.NullLit{Pos: pos}
		case "iota":
			return unsupported(pos, x)
		}
		return &syntax.Ident{Pos: pos, Name: x.Name}
	case *ast.ParenExpr:
		return &syntax.Paren{Pos: pos, X: l.expr(x.X, hint)}
	case *ast.TypeAssertExpr:
		return &syntax.Paren{Pos: pos, X: l.expr(x.X, nil)}
	case *ast.UnaryExpr:
		if x.Op == token.SUB {
			return &syntax.UnaryMinus{Pos: pos, X: l.expr(x.X, nil)}
		}
		return unsupported(pos, x)
	case *ast.CompositeLit:
		return l.composite(x, hint, pos)
	}
	return unsupported(pos, e)
}

func (l *lowerer) basicLit(x *ast.BasicLit, pos syntax.Pos) syntax.Node {
	switch x.Kind {
	case token.STRING:
		s, err := strconv.Unquote(x.Value)
		if err != nil {
			return unsupported(pos, x)
		}
		return &syntax.StringLit{Pos: pos, Value: s}
	case token.INT:
		n, err := strconv.ParseInt(x.Value, 0, 64)
		if err != nil {
			return unsupported(pos, x)
		}
		return &syntax.NumberLit{Pos: pos, Value: float64(n)}
	case token.FLOAT:
		f, err := strconv.ParseFloat(strings.ReplaceAll(x.Value, "_", ""), 64)
		if err != nil {
			return unsupported(pos, x)
		}
		return &syntax.NumberLit{Pos: pos, Value: f}
	}
	// CHAR and IMAG have no JSON counterpart.
	return unsupported(pos, x)
}

func (l *lowerer) composite(x *ast.CompositeLit, hint ast.Expr, pos syntax.Pos) syntax.Node {
	typ := x.Type
	if typ == nil {
		typ = hint
	}
	keyed := len(x.Elts) > 0
	for _, el := range x.Elts {
		if _, ok := el.(*ast.KeyValueExpr); !ok {
			keyed = false
		}
	}

	switch t := typ.(type) {
	case *ast.ArrayType:
		return l.array(x, t.Elt, pos)
	case *ast.MapType:
		return l.object(x, t.Value, pos)
	case *ast.StarExpr:
		// Elided &T{...} inside []*T.
		if at, ok := t.X.(*ast.ArrayType); ok {
			return l.array(x, at.Elt, pos)
		}
		return l.object(x, nil, pos)
	case nil:
		if keyed || len(x.Elts) == 0 {
			return l.object(x, nil, pos)
		}
		return l.array(x, nil, pos)
	}
	// Named struct types: only keyed literals map onto objects.
	if keyed || len(x.Elts) == 0 {
		return l.object(x, nil, pos)
	}
	return unsupported(pos, x)
}

func (l *lowerer) array(x *ast.CompositeLit, elem ast.Expr, pos syntax.Pos) syntax.Node {
	arr := &syntax.ArrayLit{Pos: pos}
	for _, el := range x.Elts {
		if kv, ok := el.(*ast.KeyValueExpr); ok {
			// Indexed array literals ([...]T{3: x}) have no positional meaning.
			arr.Elements = append(arr.Elements, unsupported(l.pos(kv.Pos()), kv))
			continue
		}
		arr.Elements = append(arr.Elements, l.expr(el, elem))
	}
	return arr
}

func (l *lowerer) object(x *ast.CompositeLit, valueType ast.Expr, pos syntax.Pos) syntax.Node {
	obj := &syntax.ObjectLit{Pos: pos}
	for _, el := range x.Elts {
		kv, ok := el.(*ast.KeyValueExpr)
		if !ok {
			obj.Properties = append(obj.Properties, syntax.Property{Value: unsupported(l.pos(el.Pos()), el)})
			continue
		}
		key, ok := l.key(kv.Key)
		if !ok {
			obj.Properties = append(obj.Properties, syntax.Property{Value: unsupported(l.pos(kv.Key.Pos()), kv.Key)})
			continue
		}
		obj.Properties = append(obj.Properties, syntax.Property{Key: key, Value: l.expr(kv.Value, valueType)})
	}
	return obj
}

func (l *lowerer) key(e ast.Expr) (string, bool) {
	switch k := e.(type) {
	case *ast.Ident:
		return k.Name, true
	case *ast.BasicLit:
		if k.Kind != token.STRING {
			return "", false
		}
		s, err := strconv.Unquote(k.Value)
		return s, err == nil
	}
	return "", false
}
