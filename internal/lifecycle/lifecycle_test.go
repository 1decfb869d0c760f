package lifecycle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matseed/internal/lifecycle"
	"matseed/internal/value"
)

func stage(impact float64, confidence string) *value.Object {
	o := value.NewObject()
	o.Set("impact", value.Number(impact))
	if confidence != "" {
		o.Set("confidence", value.String(confidence))
	}
	return o
}

func fullProfile() *value.Object {
	o := value.NewObject()
	for i, st := range lifecycle.Stages {
		o.Set(string(st), stage(float64(i%5+1), "high"))
	}
	return o
}

func TestParseAuthoredProfile(t *testing.T) {
	p, err := lifecycle.Parse(fullProfile())
	require.NoError(t, err)
	assert.Equal(t, lifecycle.SourceAuthored, p.Source)
	assert.Equal(t, lifecycle.StageImpact{Impact: 1, Confidence: lifecycle.High}, p.Impact(lifecycle.Raw))
	assert.Equal(t, 2, p.Impact(lifecycle.EndOfLife).Impact)

	b, err := value.Marshal(p.StagesValue())
	require.NoError(t, err)
	assert.Contains(t, string(b), `{"raw":{"impact":1,"confidence":"high"},"manufacturing":{"impact":2`)
}

func TestParseRejectsMalformedProfiles(t *testing.T) {
	cases := map[string]func(o *value.Object){
		"impact too high":  func(o *value.Object) { o.Set("raw", stage(6, "")) },
		"impact fraction":  func(o *value.Object) { o.Set("raw", stage(2.5, "")) },
		"bad confidence":   func(o *value.Object) { o.Set("raw", stage(2, "certain")) },
		"unknown stage":    func(o *value.Object) { o.Set("shipping", stage(2, "")) },
		"stage not object": func(o *value.Object) { o.Set("transport", value.Number(2)) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			o := fullProfile()
			mutate(o)
			_, err := lifecycle.Parse(o)
			assert.Error(t, err)
		})
	}

	missing := value.NewObject()
	missing.Set("raw", stage(1, ""))
	_, err := lifecycle.Parse(missing)
	assert.ErrorContains(t, err, "missing stage manufacturing")
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name, desc string
		keywords   []string
		want       string
	}{
		{"European Oak", "engineered boards", nil, "timber"},
		{"Weathering Steel", "", []string{"corten"}, "metal"},
		{"Polished Microcement", "", nil, "concrete"},
		{"Handmade Tile", "glazed terracotta", nil, "ceramic"},
		{"Cork Panel", "", nil, "biobased"},
		{"Lime Render", "", nil, "earth"},
		{"Carrara", "honed marble", nil, "stone"},
		{"Wool Carpet", "", nil, "plastic"},
		{"Chalk Emulsion", "", nil, "paint"},
		{"Mystery", "", nil, "concrete"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, lifecycle.Classify(tc.name, tc.desc, tc.keywords).Name)
		})
	}
}

func TestInfer(t *testing.T) {
	p := lifecycle.Infer("Oak", "", []string{"floor"})
	assert.Equal(t, lifecycle.SourceInferred, p.Source)
	assert.Equal(t, "timber", p.Archetype)
	assert.Equal(t, lifecycle.StageImpact{Impact: 2, Confidence: lifecycle.Medium}, p.Impact(lifecycle.Transport))

	plastic := lifecycle.Infer("Recycled PET", "", nil)
	assert.Equal(t, lifecycle.StageImpact{Impact: 4, Confidence: lifecycle.Low}, plastic.Impact(lifecycle.EndOfLife))
}
