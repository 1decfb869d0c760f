package tsparse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matseed/internal/syntax"
	"matseed/internal/syntax/tsparse"
)

func parse(t *testing.T, src string) *syntax.Unit {
	t.Helper()
	unit, err := tsparse.Frontend{}.Parse("constants.ts", []byte(src))
	require.NoError(t, err)
	return unit
}

func kindOf(n syntax.Node) string {
	if u, ok := n.(*syntax.Unsupported); ok {
		return u.Kind
	}
	return ""
}

func TestParseCollectsConstBindingsInOrder(t *testing.T) {
	unit := parse(t, `
import { Icon } from './icons';
import type { MaterialOption } from './types'

type Tone = string;
export interface Palette { label: string; tone?: Tone }

export const BASE = 4;
const LIMIT: number = -BASE, OTHER = 'x'
let mutable = 3;
export function helper(a: number): number {
  const inner = 1;
  return a + inner;
}
export const MATERIALS: MaterialOption[] = [
  { id: 'oak-1', name: "Oak", finish: 'Matte Oil', },
] as const;
`)
	assert.Equal(t, []string{"BASE", "LIMIT", "OTHER", "MATERIALS"}, unit.Names())

	base, ok := unit.Lookup("BASE")
	require.True(t, ok)
	assert.True(t, base.Exported)
	assert.Equal(t, &syntax.NumberLit{Pos: base.Init.Position(), Value: 4}, base.Init)

	limit, _ := unit.Lookup("LIMIT")
	assert.False(t, limit.Exported)
	neg, ok := limit.Init.(*syntax.UnaryMinus)
	require.True(t, ok)
	assert.Equal(t, "BASE", neg.X.(*syntax.Ident).Name)

	mats, _ := unit.Lookup("MATERIALS")
	paren, ok := mats.Init.(*syntax.Paren)
	require.True(t, ok, "as const lowers to a passthrough wrapper")
	arr, ok := paren.X.(*syntax.ArrayLit)
	require.True(t, ok)
	require.Len(t, arr.Elements, 1)
	obj := arr.Elements[0].(*syntax.ObjectLit)
	require.Len(t, obj.Properties, 3)
	assert.Equal(t, "id", obj.Properties[0].Key)
	assert.Equal(t, "oak-1", obj.Properties[0].Value.(*syntax.StringLit).Value)
	assert.Equal(t, "Oak", obj.Properties[1].Value.(*syntax.StringLit).Value)
}

func TestParseRecognisesUnsupportedExpressions(t *testing.T) {
	unit := parse(t, "const CALL = build(1, 2);\n"+
		"const TPL = `a ${x} b`;\n"+
		"const PLAIN_TPL = `plain`;\n"+
		"const COND = a ? 1 : 2;\n"+
		"const MEMBER = Colors.red;\n"+
		"const SUM = 1 + 2;\n"+
		"const ARROW = (x: number) => x * 2;\n"+
		"const FN = function () { return 1 };\n"+
		"const RE = /oak|ash/i;\n"+
		"const NEW = new Map();\n"+
		"const SPREAD = [...BASE];\n"+
		"const COMPUTED = { [key]: 1 };\n"+
		"const SHORT = { key };\n"+
		"const NOT = !flag;\n")

	want := map[string]string{
		"CALL":   "CallExpression",
		"TPL":    "TemplateExpression",
		"COND":   "ConditionalExpression",
		"MEMBER": "PropertyAccessExpression",
		"SUM":    "BinaryExpression",
		"ARROW":  "ArrowFunction",
		"FN":     "FunctionExpression",
		"RE":     "RegularExpressionLiteral",
		"NEW":    "NewExpression",
		"NOT":    "PrefixUnaryExpression",
	}
	for name, kind := range want {
		b, ok := unit.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, kind, kindOf(b.Init), name)
	}

	plain, _ := unit.Lookup("PLAIN_TPL")
	assert.Equal(t, "plain", plain.Init.(*syntax.StringLit).Value)

	spread, _ := unit.Lookup("SPREAD")
	assert.Equal(t, "SpreadElement", kindOf(spread.Init.(*syntax.ArrayLit).Elements[0]))

	computed, _ := unit.Lookup("COMPUTED")
	assert.Equal(t, "ComputedPropertyName", kindOf(computed.Init.(*syntax.ObjectLit).Properties[0].Value))

	short, _ := unit.Lookup("SHORT")
	assert.Equal(t, "ShorthandPropertyAssignment", kindOf(short.Init.(*syntax.ObjectLit).Properties[0].Value))
}

func TestParseStringEscapesAndNumbers(t *testing.T) {
	unit := parse(t, `
const S = 'it\'s é\x41\n\u{1F600}';
const D = "double \"q\"";
const HEX = 0xff;
const SEP = 1_000.5;
const EXP = 2e3;
const FRAC = .25;
`)
	s, _ := unit.Lookup("S")
	assert.Equal(t, "it's éA\n\U0001F600", s.Init.(*syntax.StringLit).Value)
	d, _ := unit.Lookup("D")
	assert.Equal(t, `double "q"`, d.Init.(*syntax.StringLit).Value)

	nums := map[string]float64{"HEX": 255, "SEP": 1000.5, "EXP": 2000, "FRAC": 0.25}
	for name, want := range nums {
		b, ok := unit.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, want, b.Init.(*syntax.NumberLit).Value, name)
	}
}

func TestParseTypeAssertionsArePassthrough(t *testing.T) {
	unit := parse(t, `
const A = <number>5;
const B = { a: 1 } satisfies Record<string, number>;
const C = value!;
const D = ('x');
`)
	for _, name := range []string{"A", "B", "C", "D"} {
		b, ok := unit.Lookup(name)
		require.True(t, ok, name)
		_, isParen := b.Init.(*syntax.Paren)
		assert.True(t, isParen, "%s should lower to Paren, got %T", name, b.Init)
	}
}

func TestParseRecoversFromUnparsableInitializer(t *testing.T) {
	unit := parse(t, `
const WEIRD = <T,>(x: T): T => x;
const GOOD = 'ok';
`)
	good, ok := unit.Lookup("GOOD")
	require.True(t, ok)
	assert.Equal(t, "ok", good.Init.(*syntax.StringLit).Value)
}

func TestParseSkipsNonBindings(t *testing.T) {
	unit := parse(t, `
declare const GLOBAL: string;
const { a, b } = obj;
export const enum Mode { A, B }
export default { id: 1 };
export { BASE as ALIAS };
class Foo { bar = 1; baz() { const q = 2; } }
`)
	assert.Empty(t, unit.Bindings)
}

func TestParseLexicalErrors(t *testing.T) {
	cases := map[string]string{
		"string":  "const A = 'oops\n",
		"comment": "/* never closed",
		"tpl":     "const A = `abc",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := tsparse.Frontend{}.Parse("bad.ts", []byte(src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "bad.ts:")
		})
	}
}

func TestParsePositions(t *testing.T) {
	unit := parse(t, "\n\n  const X = missing;\n")
	b, ok := unit.Lookup("X")
	require.True(t, ok)
	assert.Equal(t, syntax.Pos{File: "constants.ts", Line: 3, Col: 9}, b.Pos)
	assert.Equal(t, syntax.Pos{File: "constants.ts", Line: 3, Col: 13}, b.Init.Position())
}
