// Package normalize decomposes the flat catalog into deduplicated Finish and
// FinishSet entities plus the link records that tie materials to them.
//
// Identifiers are content-addressed: a Finish id is derived from its
// normalized label and a FinishSet id from the hash of its signature, so
// identical inputs always produce identical ids.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"matseed/internal/catalog"
	"matseed/internal/value"
)

// FinishSet types, in candidate priority order.
const (
	SetColorOptions = "colorOptions"
	SetRAL          = "ral"
	SetTextOptions  = "textOptions"
	SetSingle       = "single"
)

// digestLen is the number of hex characters of the signature hash kept in a
// FinishSet id.
const digestLen = 12

// Finish is a deduplicated finish label.
type Finish struct {
	ID              string
	Label           string // first label seen
	NormalizedLabel string
}

// FinishSet is a deduplicated, typed bundle of options.
type FinishSet struct {
	ID        string
	Type      string
	Options   []catalog.ColorOption
	Signature string
}

// FinishLink ties a material to a finish. There is one per label occurrence.
type FinishLink struct {
	ID         string
	MaterialID string
	FinishID   string
	IsPrimary  bool
	SortOrder  int
}

// FinishSetLink ties a material to one of its candidate finish sets.
type FinishSetLink struct {
	ID          string
	MaterialID  string
	FinishSetID string
	IsDefault   bool
	SortOrder   int
}

// Refs are the derived pointers stored on a material document. Empty
// primary ids mean none.
type Refs struct {
	FinishIDs          []string // distinct, in link order
	FinishSetIDs       []string
	PrimaryFinishID    string
	PrimaryFinishSetID string
}

// Graph is the normalized output. Tables keep first-discovery order and
// Materials is index-aligned with the input catalog.
type Graph struct {
	Finishes       []Finish
	FinishSets     []FinishSet
	FinishLinks    []FinishLink
	FinishSetLinks []FinishSetLink
	Materials      []Refs
}

type normalizer struct {
	lower      cases.Caser
	palette    []catalog.ColorOption
	graph      *Graph
	finishes   map[string]bool
	finishSets map[string]bool
}

// Normalize builds the graph for materials. palette is the shared RAL table
// offered to materials that support color without listing colorOptions; a
// nil palette disables the ral set type.
func Normalize(materials []catalog.MaterialRecord, palette []catalog.ColorOption) *Graph {
	n := &normalizer{
		lower:      cases.Lower(language.Und),
		palette:    palette,
		graph:      &Graph{Materials: make([]Refs, 0, len(materials))},
		finishes:   make(map[string]bool),
		finishSets: make(map[string]bool),
	}
	for _, m := range materials {
		refs := n.finishLinks(m)
		n.finishSetLinks(m, &refs)
		n.graph.Materials = append(n.graph.Materials, refs)
	}
	return n.graph
}

func (n *normalizer) finishLinks(m catalog.MaterialRecord) Refs {
	var refs Refs
	labels := make([]string, 0, 1+len(m.FinishOptions))
	labels = append(labels, m.Finish)
	labels = append(labels, m.FinishOptions...)

	seen := make(map[string]bool)
	order := 0
	for _, label := range labels {
		if strings.TrimSpace(label) == "" {
			continue
		}
		key := n.key(label)
		if key == "" {
			continue
		}
		id := "finish:" + key
		if !n.finishes[id] {
			n.finishes[id] = true
			n.graph.Finishes = append(n.graph.Finishes, Finish{ID: id, Label: label, NormalizedLabel: key})
		}
		primary := refs.PrimaryFinishID == "" && label == m.Finish
		if primary {
			refs.PrimaryFinishID = id
		}
		n.graph.FinishLinks = append(n.graph.FinishLinks, FinishLink{
			ID:         fmt.Sprintf("mf:%s:%d:%s", m.ID, order, key),
			MaterialID: m.ID,
			FinishID:   id,
			IsPrimary:  primary,
			SortOrder:  order,
		})
		order++
		if !seen[id] {
			seen[id] = true
			refs.FinishIDs = append(refs.FinishIDs, id)
		}
	}
	return refs
}

type candidate struct {
	typ     string
	options []catalog.ColorOption
}

// candidates returns the finish-set candidates of m in priority order.
func (n *normalizer) candidates(m catalog.MaterialRecord) []candidate {
	var out []candidate
	if len(m.ColorOptions) > 0 {
		out = append(out, candidate{SetColorOptions, m.ColorOptions})
	} else if m.SupportsColor && len(n.palette) > 0 {
		out = append(out, candidate{SetRAL, n.palette})
	}
	var text []catalog.ColorOption
	for _, o := range m.FinishOptions {
		if strings.TrimSpace(o) != "" {
			text = append(text, catalog.ColorOption{Label: o})
		}
	}
	if len(text) > 0 {
		out = append(out, candidate{SetTextOptions, text})
	}
	if len(out) == 0 {
		out = append(out, candidate{SetSingle, []catalog.ColorOption{{Label: m.Finish}}})
	}
	return out
}

func (n *normalizer) finishSetLinks(m catalog.MaterialRecord, refs *Refs) {
	for i, c := range n.candidates(m) {
		sig := Signature(c.typ, c.options)
		id := SetID(c.typ, sig)
		if !n.finishSets[id] {
			n.finishSets[id] = true
			n.graph.FinishSets = append(n.graph.FinishSets, FinishSet{
				ID:        id,
				Type:      c.typ,
				Options:   c.options,
				Signature: sig,
			})
		}
		if i == 0 {
			refs.PrimaryFinishSetID = id
		}
		refs.FinishSetIDs = append(refs.FinishSetIDs, id)
		n.graph.FinishSetLinks = append(n.graph.FinishSetLinks, FinishSetLink{
			ID:          fmt.Sprintf("mfs:%s:%s", m.ID, c.typ),
			MaterialID:  m.ID,
			FinishSetID: id,
			IsDefault:   i == 0,
			SortOrder:   i,
		})
	}
}

func (n *normalizer) key(label string) string {
	s := n.lower.String(label)
	s = strings.ReplaceAll(s, "&", "and")
	var b strings.Builder
	dash := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// Key returns the normalized finish key of label: lowercased, "&" spelled
// "and", runs of anything outside [a-z0-9] collapsed to "-", outer dashes
// trimmed.
func Key(label string) string {
	n := normalizer{lower: cases.Lower(language.Und)}
	return n.key(label)
}

// OptionsValue renders options as [{label, tone|null}, ...].
func OptionsValue(options []catalog.ColorOption) value.Array {
	out := make(value.Array, len(options))
	for i, o := range options {
		obj := value.NewObject()
		obj.Set("label", value.String(o.Label))
		obj.Set("tone", value.OptionalStr(o.Tone))
		out[i] = obj
	}
	return out
}

// Signature is the canonical compact JSON of a finish set:
// {"type":...,"options":[{"label":...,"tone":...|null},...]}. Option order
// is significant.
func Signature(typ string, options []catalog.ColorOption) string {
	obj := value.NewObject()
	obj.Set("type", value.String(typ))
	obj.Set("options", OptionsValue(options))
	b, err := value.Marshal(obj)
	if err != nil {
		// Only strings and nulls are encoded here.
		panic("normalize: signature: " + err.Error())
	}
	return string(b)
}

// SetID derives the FinishSet id fs:<type>:<digest> from a signature.
func SetID(typ, signature string) string {
	sum := sha256.Sum256([]byte(signature))
	return "fs:" + typ + ":" + hex.EncodeToString(sum[:])[:digestLen]
}
