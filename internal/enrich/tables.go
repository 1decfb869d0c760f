// Package enrich joins auxiliary keyed tables onto catalog materials:
// lifecycle profiles, insights, specification actions, health data, risks
// and the service-life overrides with their category defaults.
package enrich

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/antonholmquist/jason"
	"golang.org/x/sync/errgroup"

	"matseed/internal/lifecycle"
	"matseed/internal/value"
)

// Table names, as used in configuration and error messages.
const (
	TableLifecycle = "lifecycle"
	TableInsights  = "insights"
	TableActions   = "actions"
	TableHealth    = "health"
	TableRisks     = "risks"
	TableOverrides = "overrides"
	TableDefaults  = "defaults"
)

// KeyedTables lists the tables keyed by material id, in report order.
var KeyedTables = []string{TableLifecycle, TableInsights, TableActions, TableHealth, TableRisks}

// Source locates one table: a JSON file, or a binding in the loaded source
// units. A zero Source means the table is absent and loads empty.
type Source struct {
	Path    string
	Binding string
}

// IsZero reports whether s names nothing.
func (s Source) IsZero() bool { return s.Path == "" && s.Binding == "" }

func (s Source) String() string {
	if s.Binding != "" {
		return "binding " + s.Binding
	}
	return s.Path
}

// Sources maps table names to their sources.
type Sources map[string]Source

// Resolver strictly evaluates a named binding from the loaded source units.
type Resolver func(binding string) (value.Value, error)

// TableError reports a table that could not be loaded.
type TableError struct {
	Table  string
	Source string
	Err    error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("enrich: table %s (%s): %v", e.Table, e.Source, e.Err)
}

func (e *TableError) Unwrap() error { return e.Err }

// Tables holds every loaded auxiliary table.
type Tables struct {
	Lifecycle map[string]lifecycle.Profile
	// lifecycleKeys keeps the authored key order of Lifecycle.
	lifecycleKeys []string

	Insights *value.Object
	Actions  *value.Object
	Health   *value.Object
	Risks    *value.Object

	Overrides []Override
	Defaults  *value.Object

	// InferMissing fills absent lifecycle profiles from the archetype
	// classifier.
	InferMissing bool
}

// NewTables returns empty tables.
func NewTables() *Tables {
	return &Tables{
		Lifecycle: make(map[string]lifecycle.Profile),
		Insights:  value.NewObject(),
		Actions:   value.NewObject(),
		Health:    value.NewObject(),
		Risks:     value.NewObject(),
		Defaults:  value.NewObject(),
	}
}

// Keys returns the material ids a keyed table holds, in table order.
func (t *Tables) Keys(table string) []string {
	switch table {
	case TableLifecycle:
		return t.lifecycleKeys
	case TableInsights:
		return t.Insights.Keys()
	case TableActions:
		return t.Actions.Keys()
	case TableHealth:
		return t.Health.Keys()
	case TableRisks:
		return t.Risks.Keys()
	}
	return nil
}

// SetLifecycle stores an authored profile for id.
func (t *Tables) SetLifecycle(id string, p lifecycle.Profile) {
	if _, ok := t.Lifecycle[id]; !ok {
		t.lifecycleKeys = append(t.lifecycleKeys, id)
	}
	t.Lifecycle[id] = p
}

// LoadTables loads every table named in sources concurrently. Absent tables
// load empty; the first failure cancels the rest.
func LoadTables(ctx context.Context, sources Sources, resolve Resolver) (*Tables, error) {
	t := NewTables()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	load := func(table string, apply func(v value.Value) error) {
		src, ok := sources[table]
		if !ok || src.IsZero() {
			return
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := readSource(src, resolve)
			if err == nil {
				err = apply(v)
			}
			if err != nil {
				return &TableError{Table: table, Source: src.String(), Err: err}
			}
			return nil
		})
	}

	load(TableLifecycle, func(v value.Value) error {
		obj, err := keyed(v)
		if err != nil {
			return err
		}
		for _, id := range obj.Keys() {
			raw, _ := obj.Get(id)
			p, err := lifecycle.Parse(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			t.SetLifecycle(id, p)
		}
		return nil
	})
	load(TableInsights, func(v value.Value) (err error) {
		t.Insights, err = keyedOf(v, "string", "object")
		return err
	})
	load(TableActions, func(v value.Value) (err error) {
		t.Actions, err = keyedOf(v, "array")
		return err
	})
	load(TableHealth, func(v value.Value) (err error) {
		t.Health, err = keyedOf(v, "object")
		return err
	})
	load(TableRisks, func(v value.Value) (err error) {
		t.Risks, err = keyedOf(v, "array")
		return err
	})
	load(TableOverrides, func(v value.Value) (err error) {
		t.Overrides, err = decodeOverrides(v)
		return err
	})
	load(TableDefaults, func(v value.Value) (err error) {
		t.Defaults, err = keyed(v)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return t, nil
}

func readSource(src Source, resolve Resolver) (value.Value, error) {
	if src.Binding != "" {
		if resolve == nil {
			return nil, fmt.Errorf("no source units to resolve %s", src.Binding)
		}
		return resolve(src.Binding)
	}
	data, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, err
	}
	return decodeJSON(data)
}

// decodeJSON parses a table file. Object keys are sorted.
func decodeJSON(data []byte) (value.Value, error) {
	jv, err := jason.NewValueFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}
	return fromJason(jv)
}

func fromJason(jv *jason.Value) (value.Value, error) {
	if jv.Null() == nil {
		return value.Null{}, nil
	}
	if b, err := jv.Boolean(); err == nil {
		return value.Bool(b), nil
	}
	if s, err := jv.String(); err == nil {
		return value.String(s), nil
	}
	if _, err := jv.Number(); err == nil {
		f, err := jv.Float64()
		if err != nil {
			return nil, fmt.Errorf("number: %w", err)
		}
		return value.Number(f), nil
	}
	if items, err := jv.Array(); err == nil {
		out := make(value.Array, len(items))
		for i, item := range items {
			v, err := fromJason(item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	jo, err := jv.Object()
	if err != nil {
		return nil, fmt.Errorf("unexpected JSON value: %w", err)
	}
	m := jo.Map()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	obj := value.NewObject()
	for _, k := range keys {
		v, err := fromJason(m[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		obj.Set(k, v)
	}
	return obj, nil
}

func keyed(v value.Value) (*value.Object, error) {
	obj, ok := value.AsObject(v)
	if !ok {
		return nil, fmt.Errorf("expected an object keyed by material id, got %s", v.Kind())
	}
	return obj, nil
}

// keyedOf checks every entry of a keyed table against the allowed kinds.
// Null entries are kept; they enrich as absent.
func keyedOf(v value.Value, kinds ...string) (*value.Object, error) {
	obj, err := keyed(v)
	if err != nil {
		return nil, err
	}
	for _, id := range obj.Keys() {
		e, _ := obj.Get(id)
		if value.IsNull(e) {
			continue
		}
		ok := false
		for _, k := range kinds {
			ok = ok || e.Kind() == k
		}
		if !ok {
			return nil, fmt.Errorf("%s: expected %v, got %s", id, kinds, e.Kind())
		}
	}
	return obj, nil
}
