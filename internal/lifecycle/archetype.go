package lifecycle

import (
	"regexp"
	"strings"
)

// Archetype is a material family with a typical lifecycle profile.
type Archetype struct {
	Name    string
	match   *regexp.Regexp
	impacts [len(Stages)]StageImpact
}

func si(impact int, c Confidence) StageImpact { return StageImpact{Impact: impact, Confidence: c} }

// archetypes are tried in order; the first whose pattern matches wins.
var archetypes = []Archetype{
	{"timber", regexp.MustCompile(`timber|wood|oak|bamboo|larch|cedar|plywood`),
		[7]StageImpact{si(1, High), si(2, High), si(2, Medium), si(2, High), si(1, High), si(2, Medium), si(1, High)}},
	{"metal", regexp.MustCompile(`steel|aluminum|aluminium|metal|brass|copper|zinc`),
		[7]StageImpact{si(5, High), si(5, High), si(3, Medium), si(2, High), si(1, High), si(1, High), si(1, High)}},
	{"concrete", regexp.MustCompile(`concrete|cement|microcement`),
		[7]StageImpact{si(3, High), si(5, High), si(3, Medium), si(3, High), si(1, High), si(1, High), si(3, Medium)}},
	{"glass", regexp.MustCompile(`glass|glazing`),
		[7]StageImpact{si(3, High), si(4, High), si(3, Medium), si(2, High), si(1, High), si(1, High), si(3, Medium)}},
	{"ceramic", regexp.MustCompile(`ceramic|terracotta|porcelain|clay|brick|tile`),
		[7]StageImpact{si(2, High), si(5, High), si(3, Medium), si(2, High), si(1, High), si(1, High), si(2, Medium)}},
	{"plastic", regexp.MustCompile(`plastic|vinyl|upvc|composite|grp|pet|epoxy|resin`),
		[7]StageImpact{si(4, High), si(4, High), si(2, Medium), si(1, High), si(1, High), si(1, High), si(4, Low)}},
	{"biobased", regexp.MustCompile(`hemp|cork|mycelium|bio-based|biobased|wool|felt`),
		[7]StageImpact{si(1, High), si(1, High), si(2, Medium), si(2, Medium), si(1, High), si(1, High), si(1, High)}},
	{"earth", regexp.MustCompile(`earth|rammed|lime|plaster|render`),
		[7]StageImpact{si(1, High), si(1, High), si(1, High), si(2, Medium), si(1, High), si(1, High), si(1, High)}},
	{"stone", regexp.MustCompile(`stone|marble|granite|slate|travertine`),
		[7]StageImpact{si(3, High), si(3, High), si(4, Medium), si(2, High), si(1, High), si(1, High), si(2, Medium)}},
	{"textile", regexp.MustCompile(`fabric|textile|carpet|leather|upholster`),
		[7]StageImpact{si(2, Medium), si(3, Medium), si(2, Medium), si(1, High), si(1, High), si(2, Medium), si(2, Low)}},
	{"paint", regexp.MustCompile(`paint|emulsion`),
		[7]StageImpact{si(3, Medium), si(3, Medium), si(2, Medium), si(2, Medium), si(1, High), si(2, Medium), si(2, Low)}},
}

// fallback is used when nothing matches.
const fallback = "concrete"

// Classify returns the archetype for a material described by its name,
// description and keywords. Matching is substring-based on the lowercased
// text, so "carpet" classifies as plastic through "pet".
func Classify(name, description string, keywords []string) Archetype {
	text := strings.ToLower(name + " " + description + " " + strings.Join(keywords, " "))
	for _, a := range archetypes {
		if a.match.MatchString(text) {
			return a
		}
	}
	return lookup(fallback)
}

func lookup(name string) Archetype {
	for _, a := range archetypes {
		if a.Name == name {
			return a
		}
	}
	panic("lifecycle: unknown archetype " + name)
}

// Infer returns the inferred profile for a material.
func Infer(name, description string, keywords []string) Profile {
	a := Classify(name, description, keywords)
	return Profile{Source: SourceInferred, Archetype: a.Name, Impacts: a.impacts}
}
