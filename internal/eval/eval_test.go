package eval_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matseed/internal/eval"
	"matseed/internal/syntax"
	"matseed/internal/syntax/tsparse"
	"matseed/internal/value"
)

func unitFrom(t *testing.T, src string) *syntax.Unit {
	t.Helper()
	unit, err := tsparse.Frontend{}.Parse("materials.ts", []byte(src))
	require.NoError(t, err)
	return unit
}

func mustJSON(t *testing.T, v value.Value) string {
	t.Helper()
	b, err := value.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestEvaluateLiterals(t *testing.T) {
	pos := syntax.Pos{Line: 1, Col: 1}
	node := &syntax.ObjectLit{Pos: pos, Properties: []syntax.Property{
		{Key: "s", Value: &syntax.StringLit{Pos: pos, Value: "oak"}},
		{Key: "n", Value: &syntax.UnaryMinus{Pos: pos, X: &syntax.NumberLit{Pos: pos, Value: 2.5}}},
		{Key: "b", Value: &syntax.BoolLit{Pos: pos, Value: true}},
		{Key: "z", Value: &syntax.NullLit{Pos: pos}},
		{Key: "a", Value: &syntax.ArrayLit{Pos: pos, Elements: []syntax.Node{
			&syntax.Paren{Pos: pos, X: &syntax.NumberLit{Pos: pos, Value: 1}},
			&syntax.Ident{Pos: pos, Name: "TONE"},
		}}},
	}}
	v, err := eval.Evaluate(node, eval.Scope{"TONE": value.String("#fff")})
	require.NoError(t, err)
	assert.Equal(t, `{"s":"oak","n":-2.5,"b":true,"z":null,"a":[1,"#fff"]}`, mustJSON(t, v))
}

func TestEvaluateFailures(t *testing.T) {
	unit := unitFrom(t, `
const CALL = [1, build()];
const MISSING = { tone: UNKNOWN };
const NEG_STR = -'x';
const COMPUTED = { [k]: 1 };
const TPL = `+"`a${b}`"+`;
`)
	cases := []struct {
		name   string
		target error
		kind   string
	}{
		{"CALL", eval.ErrUnsupportedNode, "CallExpression"},
		{"MISSING", eval.ErrUnknownIdentifier, ""},
		{"NEG_STR", eval.ErrUnsupportedNode, "PrefixUnaryExpression"},
		{"COMPUTED", eval.ErrUnsupportedNode, "ComputedPropertyName"},
		{"TPL", eval.ErrUnsupportedNode, "TemplateExpression"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, ok := unit.Lookup(tc.name)
			require.True(t, ok)
			_, err := eval.Evaluate(b.Init, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.target)
			var evalErr *eval.Error
			require.True(t, errors.As(err, &evalErr))
			assert.Equal(t, tc.kind, evalErr.Kind)
			assert.Positive(t, evalErr.Pos.Line)
		})
	}
}

func TestErrorIsDistinguishesCodes(t *testing.T) {
	err := &eval.Error{Code: eval.CodeUnknownIdentifier, Name: "X"}
	assert.ErrorIs(t, err, eval.ErrUnknownIdentifier)
	assert.NotErrorIs(t, err, eval.ErrUnsupportedNode)
	assert.Equal(t, `unknown identifier "X"`, err.Error())
}

func TestEvaluateObjectDuplicateKeys(t *testing.T) {
	unit := unitFrom(t, `const O = { a: 1, b: 2, a: 3 };`)
	b, _ := unit.Lookup("O")
	v, err := eval.Evaluate(b.Init, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"b":2}`, mustJSON(t, v))
}
