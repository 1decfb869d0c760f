package enrich

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"matseed/internal/catalog"
	"matseed/internal/lifecycle"
	"matseed/internal/value"
)

// Fields are the enrichment results for one material. Absent data is Null
// (insight, health, service life), an empty Array (actions, risks) or a nil
// profile.
type Fields struct {
	Lifecycle   *lifecycle.Profile
	Insight     value.Value
	Actions     value.Value
	Health      value.Value
	Risks       value.Value
	ServiceLife value.Value
}

// Enrich looks m up in every table. Missing data is never an error.
func Enrich(m catalog.MaterialRecord, t *Tables) Fields {
	f := Fields{
		Insight:     lookup(t.Insights, m.ID, value.Null{}),
		Actions:     lookup(t.Actions, m.ID, value.Array{}),
		Health:      lookup(t.Health, m.ID, value.Null{}),
		Risks:       lookup(t.Risks, m.ID, value.Array{}),
		ServiceLife: ServiceLife(m, t.Overrides, t.Defaults),
	}
	if p, ok := t.Lifecycle[m.ID]; ok {
		f.Lifecycle = &p
	} else if t.InferMissing {
		p := lifecycle.Infer(m.Name, m.Text("description"), keywords(m))
		f.Lifecycle = &p
	}
	return f
}

func lookup(table *value.Object, id string, absent value.Value) value.Value {
	v, ok := table.Get(id)
	if !ok || value.IsNull(v) {
		return absent
	}
	return v
}

// keywords accepts either a list of strings or a single string.
func keywords(m catalog.MaterialRecord) []string {
	v, _ := m.Fields.Get("keywords")
	switch k := v.(type) {
	case value.String:
		return []string{string(k)}
	case value.Array:
		out := make([]string, 0, len(k))
		for _, e := range k {
			if s, ok := value.AsString(e); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// EnrichAll enriches every material on a bounded pool of workers (GOMAXPROCS
// when workers <= 0). Results are stored by index, so out[i] belongs to
// materials[i].
func EnrichAll(ctx context.Context, materials []catalog.MaterialRecord, t *Tables, workers int) ([]Fields, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]Fields, len(materials))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range materials {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = Enrich(materials[i], t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Orphan is a keyed-table entry whose key matches no catalog material.
type Orphan struct {
	Table string
	Key   string
}

// Orphans lists entries of the keyed tables that match no material id,
// ordered by table then table order.
func Orphans(t *Tables, materials []catalog.MaterialRecord) []Orphan {
	ids := make(map[string]bool, len(materials))
	for _, m := range materials {
		ids[m.ID] = true
	}
	var out []Orphan
	for _, table := range KeyedTables {
		for _, k := range t.Keys(table) {
			if !ids[k] {
				out = append(out, Orphan{Table: table, Key: k})
			}
		}
	}
	return out
}
