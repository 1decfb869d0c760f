// Package catalog decodes an evaluated material catalog into typed records.
//
// Only the fields the normalizer depends on are typed; every original field,
// typed or not, stays available in Fields in its authored order.
package catalog

import (
	"fmt"

	"matseed/internal/value"
)

// ColorOption is one selectable color: a label and an optional tone.
type ColorOption struct {
	Label string
	Tone  *string
}

// MaterialRecord is one flat catalog entry.
type MaterialRecord struct {
	ID            string
	Name          string
	Category      string
	Finish        string
	FinishOptions []string
	ColorOptions  []ColorOption
	SupportsColor bool

	// Fields holds every authored field in source order.
	Fields *value.Object
}

// Text returns the free-form string field key, or "" when absent or not a
// string.
func (m MaterialRecord) Text(key string) string {
	v, _ := m.Fields.Get(key)
	s, _ := value.AsString(v)
	return s
}

// DecodeError reports a malformed catalog entry.
type DecodeError struct {
	Index int
	Field string
	Msg   string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("catalog: entry %d: %s", e.Index, e.Msg)
	}
	return fmt.Sprintf("catalog: entry %d: field %s: %s", e.Index, e.Field, e.Msg)
}

// Decode converts an evaluated catalog (an array of objects) into records.
// Duplicate or missing ids are fatal.
func Decode(v value.Value) ([]MaterialRecord, error) {
	arr, ok := value.AsArray(v)
	if !ok {
		return nil, fmt.Errorf("catalog: expected an array, got %s", v.Kind())
	}
	out := make([]MaterialRecord, 0, len(arr))
	seen := make(map[string]int, len(arr))
	for i, item := range arr {
		m, err := decodeRecord(i, item)
		if err != nil {
			return nil, err
		}
		if first, dup := seen[m.ID]; dup {
			return nil, &DecodeError{Index: i, Field: "id", Msg: fmt.Sprintf("duplicate id %q (first at entry %d)", m.ID, first)}
		}
		seen[m.ID] = i
		out = append(out, m)
	}
	return out, nil
}

func decodeRecord(i int, item value.Value) (MaterialRecord, error) {
	obj, ok := value.AsObject(item)
	if !ok {
		return MaterialRecord{}, &DecodeError{Index: i, Msg: "expected an object, got " + item.Kind()}
	}
	m := MaterialRecord{Fields: obj}

	var err error
	if m.ID, err = optionalString(i, obj, "id"); err != nil {
		return m, err
	}
	if m.ID == "" {
		return m, &DecodeError{Index: i, Field: "id", Msg: "required"}
	}
	if m.Name, err = optionalString(i, obj, "name"); err != nil {
		return m, err
	}
	if m.Category, err = optionalString(i, obj, "category"); err != nil {
		return m, err
	}
	if m.Finish, err = optionalString(i, obj, "finish"); err != nil {
		return m, err
	}
	if m.FinishOptions, err = stringList(i, obj, "finishOptions"); err != nil {
		return m, err
	}
	if m.ColorOptions, err = colorOptions(i, obj); err != nil {
		return m, err
	}
	if v, ok := obj.Get("supportsColor"); ok && !value.IsNull(v) {
		b, ok := v.(value.Bool)
		if !ok {
			return m, &DecodeError{Index: i, Field: "supportsColor", Msg: "expected bool, got " + v.Kind()}
		}
		m.SupportsColor = bool(b)
	}
	return m, nil
}

func optionalString(i int, obj *value.Object, key string) (string, error) {
	return optionalStringAt(i, obj, key, key)
}

func optionalStringAt(i int, obj *value.Object, key, field string) (string, error) {
	v, ok := obj.Get(key)
	if !ok || value.IsNull(v) {
		return "", nil
	}
	s, ok := value.AsString(v)
	if !ok {
		return "", &DecodeError{Index: i, Field: field, Msg: "expected string, got " + v.Kind()}
	}
	return s, nil
}

func stringList(i int, obj *value.Object, key string) ([]string, error) {
	v, ok := obj.Get(key)
	if !ok || value.IsNull(v) {
		return nil, nil
	}
	arr, ok := value.AsArray(v)
	if !ok {
		return nil, &DecodeError{Index: i, Field: key, Msg: "expected array, got " + v.Kind()}
	}
	out := make([]string, len(arr))
	for j, e := range arr {
		s, ok := value.AsString(e)
		if !ok {
			return nil, &DecodeError{Index: i, Field: fmt.Sprintf("%s[%d]", key, j), Msg: "expected string, got " + e.Kind()}
		}
		out[j] = s
	}
	return out, nil
}

func colorOptions(i int, obj *value.Object) ([]ColorOption, error) {
	v, ok := obj.Get("colorOptions")
	if !ok || value.IsNull(v) {
		return nil, nil
	}
	arr, ok := value.AsArray(v)
	if !ok {
		return nil, &DecodeError{Index: i, Field: "colorOptions", Msg: "expected array, got " + v.Kind()}
	}
	out := make([]ColorOption, len(arr))
	for j, e := range arr {
		field := fmt.Sprintf("colorOptions[%d]", j)
		o, ok := value.AsObject(e)
		if !ok {
			return nil, &DecodeError{Index: i, Field: field, Msg: "expected object, got " + e.Kind()}
		}
		label, err := optionalStringAt(i, o, "label", field+".label")
		if err != nil {
			return nil, err
		}
		tone, err := optionalStringAt(i, o, "tone", field+".tone")
		if err != nil {
			return nil, err
		}
		out[j] = ColorOption{Label: label}
		if tv, ok := o.Get("tone"); ok && !value.IsNull(tv) {
			out[j].Tone = &tone
		}
	}
	return out, nil
}
