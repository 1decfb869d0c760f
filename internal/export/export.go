// Package export turns the normalized graph into seed files for the
// document store.
//
// Output layout:
//
//	materials.json               enriched material documents, catalog order
//	finishes.json                deduplicated finishes
//	finish-sets.json             deduplicated finish sets
//	material-finishes.json       material -> finish links
//	material-finish-sets.json    material -> finish-set links
//	lifecycle-profiles.json      one profile per material that has one
//	manifest.json                counts, partition keys, batch id
//	REPORT.md                    review items; frontmatter records the input digest
package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"matseed/internal/catalog"
	"matseed/internal/enrich"
	"matseed/internal/normalize"
	"matseed/internal/value"
)

// Input is everything Generate needs. Enrichment is index-aligned with
// Materials, as is Graph.Materials.
type Input struct {
	Materials  []catalog.MaterialRecord
	Enrichment []enrich.Fields
	Graph      *normalize.Graph
	Orphans    []enrich.Orphan
}

// Options control the non-content parts of the output.
type Options struct {
	// InputDigest identifies the inputs; it seeds the batch id and the
	// up-to-date check.
	InputDigest string
	// Now supplies generatedAt. Defaults to time.Now.
	Now func() time.Time
}

// Bundle holds generated file contents keyed by path relative to the output
// directory.
type Bundle struct {
	files    map[string][]byte
	Manifest *value.Object
	Counts   Counts
}

// Files returns the relative paths in the bundle, sorted.
func (b *Bundle) Files() []string {
	paths := make([]string, 0, len(b.files))
	for p := range b.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// File returns the content of path.
func (b *Bundle) File(path string) ([]byte, bool) {
	data, ok := b.files[path]
	return data, ok
}

// Generate builds every output file. Nothing is written.
func Generate(in Input, opts Options) (*Bundle, error) {
	if len(in.Enrichment) != len(in.Materials) || len(in.Graph.Materials) != len(in.Materials) {
		return nil, fmt.Errorf("export: %d materials, %d enrichment rows, %d graph rows",
			len(in.Materials), len(in.Enrichment), len(in.Graph.Materials))
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	var (
		materials, finishes, finishSets value.Array
		finishLinks, setLinks, profiles value.Array
	)
	for i, m := range in.Materials {
		materials = append(materials, materialDocument(i, m, in.Graph.Materials[i], in.Enrichment[i]))
		if in.Enrichment[i].Lifecycle != nil {
			profiles = append(profiles, lifecycleDocument(m.ID, in.Enrichment[i]))
		}
	}
	for _, f := range in.Graph.Finishes {
		finishes = append(finishes, finishDocument(f))
	}
	for _, s := range in.Graph.FinishSets {
		finishSets = append(finishSets, finishSetDocument(s))
	}
	for _, l := range in.Graph.FinishLinks {
		finishLinks = append(finishLinks, finishLinkDocument(l))
	}
	for _, l := range in.Graph.FinishSetLinks {
		setLinks = append(setLinks, finishSetLinkDocument(l))
	}

	collections := map[string]value.Array{
		ContainerMaterials:          materials,
		ContainerFinishes:           finishes,
		ContainerFinishSets:         finishSets,
		ContainerMaterialFinishes:   finishLinks,
		ContainerMaterialFinishSets: setLinks,
		ContainerLifecycleProfiles:  profiles,
	}

	b := &Bundle{files: make(map[string][]byte), Counts: make(Counts)}
	for _, c := range Containers {
		docs := collections[c.Name]
		if docs == nil {
			docs = value.Array{}
		}
		data, err := encodeJSON(docs)
		if err != nil {
			return nil, fmt.Errorf("export: encode %s: %w", c.File, err)
		}
		b.files[c.File] = data
		b.Counts[c.Name] = len(docs)
	}

	b.Manifest = buildManifest(b.Counts, opts.InputDigest, now().UTC())
	data, err := encodeJSON(b.Manifest)
	if err != nil {
		return nil, fmt.Errorf("export: encode manifest: %w", err)
	}
	b.files[ManifestFile] = data

	report, err := buildReport(in, b.Counts, opts.InputDigest)
	if err != nil {
		return nil, err
	}
	b.files[ReportFile] = report
	return b, nil
}

// Write writes every file of bundle to dir in sorted path order.
func Write(bundle *Bundle, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: mkdir %s: %w", dir, err)
	}
	for _, p := range bundle.Files() {
		abs := filepath.Join(dir, filepath.FromSlash(p))
		if err := os.WriteFile(abs, bundle.files[p], 0o644); err != nil {
			return fmt.Errorf("export: write %s: %w", abs, err)
		}
	}
	return nil
}

func encodeJSON(v value.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := value.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
