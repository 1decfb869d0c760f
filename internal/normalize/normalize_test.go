package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matseed/internal/catalog"
	"matseed/internal/normalize"
)

func tone(s string) *string { return &s }

func TestKey(t *testing.T) {
	cases := map[string]string{
		"Brushed Steel":     "brushed-steel",
		"brushed-steel":     "brushed-steel",
		"  BRUSHED__steel ": "brushed-steel",
		"Oil & Wax":         "oil-and-wax",
		"Satin (2x)":        "satin-2x",
		"Émail":             "mail",
		"---":               "",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalize.Key(in), in)
	}
}

func TestRoundTripOak(t *testing.T) {
	g := normalize.Normalize([]catalog.MaterialRecord{{
		ID: "oak-1", Name: "Oak", Category: "floor", Finish: "Matte Oil",
		FinishOptions: []string{"Matte Oil", "Satin Oil"},
	}}, nil)

	require.Len(t, g.Finishes, 2)
	assert.Equal(t, "finish:matte-oil", g.Finishes[0].ID)
	assert.Equal(t, "Matte Oil", g.Finishes[0].Label)
	assert.Equal(t, "finish:satin-oil", g.Finishes[1].ID)

	require.Len(t, g.FinishSets, 1)
	set := g.FinishSets[0]
	assert.Equal(t, normalize.SetTextOptions, set.Type)
	assert.Equal(t, `{"type":"textOptions","options":[{"label":"Matte Oil","tone":null},{"label":"Satin Oil","tone":null}]}`, set.Signature)
	assert.Regexp(t, `^fs:textOptions:[0-9a-f]{12}$`, set.ID)
	assert.Equal(t, normalize.SetID(normalize.SetTextOptions, set.Signature), set.ID)

	refs := g.Materials[0]
	assert.Equal(t, "finish:matte-oil", refs.PrimaryFinishID)
	assert.Equal(t, set.ID, refs.PrimaryFinishSetID)
	assert.Equal(t, []string{"finish:matte-oil", "finish:satin-oil"}, refs.FinishIDs)

	// The inline finish repeated in finishOptions keeps its own link row.
	require.Len(t, g.FinishLinks, 3)
	assert.True(t, g.FinishLinks[0].IsPrimary)
	assert.False(t, g.FinishLinks[1].IsPrimary)
	assert.Equal(t, g.FinishLinks[0].FinishID, g.FinishLinks[1].FinishID)
	assert.NotEqual(t, g.FinishLinks[0].ID, g.FinishLinks[1].ID)
}

func TestFinishDedupAcrossMaterials(t *testing.T) {
	g := normalize.Normalize([]catalog.MaterialRecord{
		{ID: "a", Finish: "Brushed Steel"},
		{ID: "b", Finish: "brushed-steel"},
	}, nil)
	require.Len(t, g.Finishes, 1)
	assert.Equal(t, "Brushed Steel", g.Finishes[0].Label, "first label wins")
	assert.Equal(t, "finish:brushed-steel", g.Materials[1].PrimaryFinishID)

	// Single sets differ because the labels differ.
	assert.Len(t, g.FinishSets, 2)
}

func TestFinishSetDedupIsOrderSensitive(t *testing.T) {
	red := catalog.ColorOption{Label: "Red", Tone: tone("#f00")}
	blue := catalog.ColorOption{Label: "Blue", Tone: tone("#00f")}
	g := normalize.Normalize([]catalog.MaterialRecord{
		{ID: "a", Finish: "Gloss", ColorOptions: []catalog.ColorOption{red, blue}},
		{ID: "b", Finish: "Gloss", ColorOptions: []catalog.ColorOption{red, blue}},
		{ID: "c", Finish: "Gloss", ColorOptions: []catalog.ColorOption{blue, red}},
	}, nil)

	ids := func(i int) string { return g.Materials[i].PrimaryFinishSetID }
	assert.Equal(t, ids(0), ids(1))
	assert.NotEqual(t, ids(0), ids(2))
	assert.Len(t, g.FinishSets, 2)
	assert.Regexp(t, `^fs:colorOptions:`, ids(0))
}

func TestCandidatePriorityAndDefaults(t *testing.T) {
	palette := []catalog.ColorOption{{Label: "RAL 3020 Traffic Red", Tone: tone("#c1121c")}}
	g := normalize.Normalize([]catalog.MaterialRecord{
		{ID: "colors", Finish: "Matt", ColorOptions: []catalog.ColorOption{{Label: "White"}}, FinishOptions: []string{"Matt", "Gloss"}, SupportsColor: true},
		{ID: "ral", Finish: "Powder", SupportsColor: true, FinishOptions: []string{" "}},
		{ID: "plain", Finish: "Raw"},
		{ID: "blank", Finish: "  "},
	}, palette)

	types := func(id string) []string {
		var out []string
		for _, l := range g.FinishSetLinks {
			if l.MaterialID != id {
				continue
			}
			for _, s := range g.FinishSets {
				if s.ID == l.FinishSetID {
					out = append(out, s.Type)
				}
			}
		}
		return out
	}
	assert.Equal(t, []string{"colorOptions", "textOptions"}, types("colors"))
	assert.Equal(t, []string{"ral"}, types("ral"))
	assert.Equal(t, []string{"single"}, types("plain"))
	assert.Equal(t, []string{"single"}, types("blank"))

	// Exactly one default set per material, and one primary finish for
	// every material with a non-blank finish.
	defaults := map[string]int{}
	for _, l := range g.FinishSetLinks {
		if l.IsDefault {
			defaults[l.MaterialID]++
		}
	}
	primaries := map[string]int{}
	for _, l := range g.FinishLinks {
		if l.IsPrimary {
			primaries[l.MaterialID]++
		}
	}
	assert.Equal(t, map[string]int{"colors": 1, "ral": 1, "plain": 1, "blank": 1}, defaults)
	assert.Equal(t, map[string]int{"colors": 1, "ral": 1, "plain": 1}, primaries)
	assert.Empty(t, g.Materials[3].PrimaryFinishID)
}

func TestNormalizeIsDeterministic(t *testing.T) {
	in := []catalog.MaterialRecord{
		{ID: "a", Finish: "Oiled", FinishOptions: []string{"Waxed"}},
		{ID: "b", Finish: "Waxed", SupportsColor: true},
	}
	assert.Equal(t, normalize.Normalize(in, nil), normalize.Normalize(in, nil))
}
