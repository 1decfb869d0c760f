// Package lifecycle models per-material lifecycle impact profiles: seven
// fixed stages, each ranked 1 to 5 with an optional confidence.
package lifecycle

import (
	"fmt"
	"math"

	"matseed/internal/value"
)

// Stage names one lifecycle stage.
type Stage string

const (
	Raw           Stage = "raw"
	Manufacturing Stage = "manufacturing"
	Transport     Stage = "transport"
	Installation  Stage = "installation"
	InUse         Stage = "inUse"
	Maintenance   Stage = "maintenance"
	EndOfLife     Stage = "endOfLife"
)

// Stages lists every stage in document order.
var Stages = [...]Stage{Raw, Manufacturing, Transport, Installation, InUse, Maintenance, EndOfLife}

// Confidence qualifies an impact rank.
type Confidence string

const (
	High   Confidence = "high"
	Medium Confidence = "medium"
	Low    Confidence = "low"
)

// Source records where a profile came from.
const (
	SourceAuthored = "authored"
	SourceInferred = "inferred"
)

// StageImpact is the impact rank of one stage.
type StageImpact struct {
	Impact     int
	Confidence Confidence // empty when not given
}

// Profile holds one impact per stage, indexed like Stages.
type Profile struct {
	Source    string
	Archetype string // set for inferred profiles
	Impacts   [len(Stages)]StageImpact
}

// Impact returns the entry for stage s.
func (p Profile) Impact(s Stage) StageImpact {
	for i, st := range Stages {
		if st == s {
			return p.Impacts[i]
		}
	}
	return StageImpact{}
}

// StagesValue renders the stages as an ordered object
// {raw: {impact, confidence?}, ...}.
func (p Profile) StagesValue() *value.Object {
	out := value.NewObject()
	for i, st := range Stages {
		si := value.NewObject()
		si.Set("impact", value.Number(p.Impacts[i].Impact))
		if c := p.Impacts[i].Confidence; c != "" {
			si.Set("confidence", value.String(c))
		}
		out.Set(string(st), si)
	}
	return out
}

// Parse decodes an authored profile. Every stage must be present with an
// integral impact between 1 and 5; unknown stage keys are rejected.
func Parse(v value.Value) (Profile, error) {
	obj, ok := value.AsObject(v)
	if !ok {
		return Profile{}, fmt.Errorf("lifecycle: expected an object, got %s", v.Kind())
	}
	p := Profile{Source: SourceAuthored}
	index := make(map[string]int, len(Stages))
	for i, st := range Stages {
		index[string(st)] = i
	}
	for _, key := range obj.Keys() {
		if _, ok := index[key]; !ok {
			return Profile{}, fmt.Errorf("lifecycle: unknown stage %q", key)
		}
	}
	for i, st := range Stages {
		raw, ok := obj.Get(string(st))
		if !ok {
			return Profile{}, fmt.Errorf("lifecycle: missing stage %s", st)
		}
		si, err := parseStage(raw)
		if err != nil {
			return Profile{}, fmt.Errorf("lifecycle: stage %s: %w", st, err)
		}
		p.Impacts[i] = si
	}
	return p, nil
}

func parseStage(v value.Value) (StageImpact, error) {
	obj, ok := value.AsObject(v)
	if !ok {
		return StageImpact{}, fmt.Errorf("expected an object, got %s", v.Kind())
	}
	iv, _ := obj.Get("impact")
	n, ok := iv.(value.Number)
	if !ok {
		return StageImpact{}, fmt.Errorf("impact must be a number")
	}
	f := float64(n)
	if f != math.Trunc(f) || f < 1 || f > 5 {
		return StageImpact{}, fmt.Errorf("impact %v out of range 1..5", f)
	}
	si := StageImpact{Impact: int(f)}
	if cv, ok := obj.Get("confidence"); ok && !value.IsNull(cv) {
		s, _ := value.AsString(cv)
		switch c := Confidence(s); c {
		case High, Medium, Low:
			si.Confidence = c
		default:
			return StageImpact{}, fmt.Errorf("invalid confidence %q", s)
		}
	}
	return si, nil
}
