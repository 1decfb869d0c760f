// Package value defines the closed set of plain data values produced by the
// literal evaluator: Null, Bool, Number, String, Array and Object.
//
// Objects keep their keys in insertion order so that encoded documents are
// byte-stable across runs.
package value

import (
	"fmt"
	"math"
	"strconv"
)

// Value is one of Null, Bool, Number, String, Array or *Object.
type Value interface {
	isValue()
	// Kind names the variant ("null", "bool", "number", "string", "array", "object").
	Kind() string
}

// Null is the null value.
type Null struct{}

// Bool is a boolean value.
type Bool bool

// Number is a double-precision number.
type Number float64

// String is a string value.
type String string

// Array is an ordered list of values.
type Array []Value

func (Null) isValue()   {}
func (Bool) isValue()   {}
func (Number) isValue() {}
func (String) isValue() {}
func (Array) isValue()  {}
func (*Object) isValue() {}

func (Null) Kind() string    { return "null" }
func (Bool) Kind() string    { return "bool" }
func (Number) Kind() string  { return "number" }
func (String) Kind() string  { return "string" }
func (Array) Kind() string   { return "array" }
func (*Object) Kind() string { return "object" }

// Object is an insertion-ordered string-keyed mapping.
type Object struct {
	keys   []string
	fields map[string]Value
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{fields: make(map[string]Value)}
}

// Set stores v under key. A key that already exists keeps its position and
// takes the new value.
func (o *Object) Set(key string, v Value) {
	if o.fields == nil {
		o.fields = make(map[string]Value)
	}
	if _, ok := o.fields[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.fields[key] = v
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.fields[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Keys returns the keys in insertion order. The slice must not be modified.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Clone returns a shallow copy of o.
func (o *Object) Clone() *Object {
	out := &Object{
		keys:   make([]string, len(o.Keys())),
		fields: make(map[string]Value, o.Len()),
	}
	copy(out.keys, o.Keys())
	for _, k := range o.Keys() {
		out.fields[k] = o.fields[k]
	}
	return out
}

// Str builds a String value from s. Handy when assembling documents.
func Str(s string) Value { return String(s) }

// OptionalStr returns Null for nil and a String otherwise.
func OptionalStr(s *string) Value {
	if s == nil {
		return Null{}
	}
	return String(*s)
}

// Strings builds an Array of String values.
func Strings(ss []string) Array {
	out := make(Array, len(ss))
	for i, s := range ss {
		out[i] = String(s)
	}
	return out
}

// AsString returns the string held by v.
func AsString(v Value) (string, bool) {
	s, ok := v.(String)
	return string(s), ok
}

// AsObject returns the object held by v.
func AsObject(v Value) (*Object, bool) {
	o, ok := v.(*Object)
	return o, ok && o != nil
}

// AsArray returns the array held by v.
func AsArray(v Value) (Array, bool) {
	a, ok := v.(Array)
	return a, ok
}

// IsNull reports whether v is Null (or a nil interface).
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// FormatNumber renders n the way a JSON document expects it: integral values
// without a fraction, everything else in the shortest round-trip form.
func FormatNumber(n float64) (string, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "", fmt.Errorf("value: unsupported number %v", n)
	}
	if n == 0 {
		// Covers negative zero.
		return "0", nil
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64), nil
	}
	return strconv.FormatFloat(n, 'g', -1, 64), nil
}

// FromAny converts the output of encoding/json (or any tree of
// map[string]any, []any and scalars) into a Value. Map keys are sorted since
// Go maps carry no order.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(t), nil
	case int:
		return Number(t), nil
	case int64:
		return Number(t), nil
	case interface{ Float64() (float64, error) }:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("value: %w", err)
		}
		return Number(f), nil
	case []any:
		out := make(Array, len(t))
		for i, e := range t {
			v, err := FromAny(e)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case map[string]any:
		obj := NewObject()
		for _, k := range sortedKeys(t) {
			v, err := FromAny(t[k])
			if err != nil {
				return nil, err
			}
			obj.Set(k, v)
		}
		return obj, nil
	case Value:
		return t, nil
	default:
		return nil, fmt.Errorf("value: unsupported Go type %T", x)
	}
}
