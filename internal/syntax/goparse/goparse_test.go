package goparse_test

import (
	"os"
	"path/filepath"
	"testing"

	"matseed/internal/syntax"
	"matseed/internal/syntax/goparse"
)

const catalogSrc = `package catalog

import "strings"

const Base = 4

var (
	Limit   = -Base
	Skipped = strings.ToUpper("x")
)

var MaterialPalette = []map[string]any{
	{"id": "oak-1", "name": "Oak", "finishOptions": []string{"Matte Oil", "Satin Oil"}, "supportsColor": true},
	{"id": "steel", "tone": nil, "weight": 1.5},
}

type Kind int

const (
	KindA Kind = iota
	KindB
)
`

func TestParseLowersBindings(t *testing.T) {
	unit, err := goparse.Frontend{}.Parse("catalog.go", []byte(catalogSrc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := unit.Names()
	want := []string{"Base", "Limit", "Skipped", "MaterialPalette", "KindA"}
	if len(got) != len(want) {
		t.Fatalf("names: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("names[%d]: got %q want %q", i, got[i], want[i])
		}
	}

	skipped, _ := unit.Lookup("Skipped")
	u, ok := skipped.Init.(*syntax.Unsupported)
	if !ok || u.Kind != "CallExpr" {
		t.Errorf("Skipped: expected Unsupported CallExpr, got %#v", skipped.Init)
	}

	kindA, _ := unit.Lookup("KindA")
	if u, ok := kindA.Init.(*syntax.Unsupported); !ok || u.Kind != "Ident" {
		t.Errorf("KindA: expected unsupported iota, got %#v", kindA.Init)
	}

	palette, _ := unit.Lookup("MaterialPalette")
	arr, ok := palette.Init.(*syntax.ArrayLit)
	if !ok {
		t.Fatalf("MaterialPalette: expected ArrayLit, got %T", palette.Init)
	}
	if len(arr.Elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(arr.Elements))
	}
	first, ok := arr.Elements[0].(*syntax.ObjectLit)
	if !ok {
		t.Fatalf("elided element: expected ObjectLit, got %T", arr.Elements[0])
	}
	if first.Properties[0].Key != "id" {
		t.Errorf("first key: got %q", first.Properties[0].Key)
	}
	opts, ok := first.Properties[2].Value.(*syntax.ArrayLit)
	if !ok || len(opts.Elements) != 2 {
		t.Errorf("finishOptions: expected 2-element ArrayLit, got %#v", first.Properties[2].Value)
	}
	if b, ok := first.Properties[3].Value.(*syntax.BoolLit); !ok || !b.Value {
		t.Errorf("supportsColor: expected true, got %#v", first.Properties[3].Value)
	}
	second := arr.Elements[1].(*syntax.ObjectLit)
	if _, ok := second.Properties[1].Value.(*syntax.NullLit); !ok {
		t.Errorf("nil should lower to NullLit, got %T", second.Properties[1].Value)
	}
	if n, ok := second.Properties[2].Value.(*syntax.NumberLit); !ok || n.Value != 1.5 {
		t.Errorf("weight: got %#v", second.Properties[2].Value)
	}
	if palette.Pos.Line != 12 {
		t.Errorf("binding line: got %d want 12", palette.Pos.Line)
	}
}

func TestParseStructLiterals(t *testing.T) {
	src := `package p

var Keyed = Color{label: "Red", "tone": "#f00"}
var Positional = Color{"Red", "#f00"}
var Computed = map[string]int{prefix + "a": 1}
`
	unit, err := goparse.Frontend{}.Parse("p.go", []byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	keyed, _ := unit.Lookup("Keyed")
	obj, ok := keyed.Init.(*syntax.ObjectLit)
	if !ok || len(obj.Properties) != 2 || obj.Properties[0].Key != "label" || obj.Properties[1].Key != "tone" {
		t.Errorf("Keyed: got %#v", keyed.Init)
	}
	positional, _ := unit.Lookup("Positional")
	if _, ok := positional.Init.(*syntax.Unsupported); !ok {
		t.Errorf("Positional: expected Unsupported, got %T", positional.Init)
	}
	computed, _ := unit.Lookup("Computed")
	cobj := computed.Init.(*syntax.ObjectLit)
	if u, ok := cobj.Properties[0].Value.(*syntax.Unsupported); !ok || u.Kind != "BinaryExpr" {
		t.Errorf("Computed key: got %#v", cobj.Properties[0].Value)
	}
}

func TestParseSyntaxError(t *testing.T) {
	if _, err := (goparse.Frontend{}).Parse("bad.go", []byte("package p\nvar = \n")); err == nil {
		t.Fatal("expected syntax error")
	}
}

func TestLoadDirParsesFilesInNameOrder(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.go":      "package data\n\nvar Second = First\n",
		"a.go":      "package data\n\nvar First = \"one\"\n",
		"a_test.go": "package data\n\nvar Ignored = 1\n",
	}
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	unit, err := goparse.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	names := unit.Names()
	if len(names) != 2 || names[0] != "First" || names[1] != "Second" {
		t.Errorf("names: got %v want [First Second]", names)
	}
}
