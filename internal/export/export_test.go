package export_test

// export_test.go exercises Generate + Write on a small in-memory catalog and
// asserts on file contents: document shapes, manifest counts, report review
// items, byte-identical reruns and the up-to-date check.

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"matseed/internal/catalog"
	"matseed/internal/enrich"
	"matseed/internal/export"
	"matseed/internal/lifecycle"
	"matseed/internal/normalize"
	"matseed/internal/value"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func record(id, category, finish string, options ...string) catalog.MaterialRecord {
	f := value.NewObject()
	f.Set("id", value.String(id))
	f.Set("category", value.String(category))
	f.Set("finish", value.String(finish))
	if len(options) > 0 {
		f.Set("finishOptions", value.Strings(options))
	}
	return catalog.MaterialRecord{ID: id, Category: category, Finish: finish, FinishOptions: options, Fields: f}
}

func fixture() export.Input {
	materials := []catalog.MaterialRecord{
		record("oak-1", "floor", "Matte Oil", "Matte Oil", "Satin Oil"),
		record("slate", "roof", ""),
	}
	oakProfile := lifecycle.Infer("Oak", "", nil)
	fields := []enrich.Fields{
		{Lifecycle: &oakProfile, Insight: value.String("Warm."), Actions: value.Array{}, Health: value.Null{}, Risks: value.Array{}, ServiceLife: value.Number(50)},
		{Insight: value.Null{}, Actions: value.Array{}, Health: value.Null{}, Risks: value.Array{}, ServiceLife: value.Null{}},
	}
	return export.Input{
		Materials:  materials,
		Enrichment: fields,
		Graph:      normalize.Normalize(materials, nil),
		Orphans:    []enrich.Orphan{{Table: enrich.TableRisks, Key: "ghost"}},
	}
}

func fixedClock() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

func generate(t *testing.T, in export.Input, digest string) *export.Bundle {
	t.Helper()
	b, err := export.Generate(in, export.Options{InputDigest: digest, Now: fixedClock})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return b
}

func file(t *testing.T, b *export.Bundle, path string) string {
	t.Helper()
	data, ok := b.File(path)
	if !ok {
		t.Fatalf("bundle has no %s", path)
	}
	return string(data)
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestGenerateFiles(t *testing.T) {
	b := generate(t, fixture(), "abc")
	want := []string{
		"REPORT.md", "finish-sets.json", "finishes.json", "lifecycle-profiles.json",
		"manifest.json", "material-finish-sets.json", "material-finishes.json", "materials.json",
	}
	got := b.Files()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("files: got %v want %v", got, want)
	}
}

func TestMaterialDocument(t *testing.T) {
	b := generate(t, fixture(), "abc")
	mats := file(t, b, "materials.json")

	for _, want := range []string{
		`"id": "oak-1"`,
		`"pk": "floor"`,
		`"type": "material"`,
		`"sortOrder": 0`,
		`"primaryFinishId": "finish:matte-oil"`,
		`"lifecycleProfileId": "lifecycle:oak-1"`,
		`"serviceLife": 50`,
		`"sortOrder": 1`,
		`"primaryFinishId": null`,
		`"lifecycleProfileId": null`,
	} {
		if !strings.Contains(mats, want) {
			t.Errorf("materials.json missing %s", want)
		}
	}
	// Authored fields come first, in authored order.
	if strings.Index(mats, `"finishOptions"`) > strings.Index(mats, `"pk"`) {
		t.Error("derived fields must follow authored ones")
	}
	if !strings.HasSuffix(mats, "]\n") {
		t.Error("collections end with a newline")
	}
}

func TestManifest(t *testing.T) {
	b := generate(t, fixture(), "abc")
	m := file(t, b, "manifest.json")

	for _, want := range []string{
		`"generatedAt": "2024-01-01T00:00:00Z"`,
		`"sha256": "abc"`,
		`"batchId": "` + export.BatchID("abc") + `"`,
		`"materials": 2`,
		`"finishes": 2`,
		`"materialFinishes": 3`,
		`"lifecycleProfiles": 1`,
		`"partitionKeyPath": "/pk"`,
		`"file": "finish-sets.json"`,
	} {
		if !strings.Contains(m, want) {
			t.Errorf("manifest missing %s\n%s", want, m)
		}
	}
	if b.Counts[export.ContainerFinishSets] != 2 {
		t.Errorf("finish set count: got %d want 2", b.Counts[export.ContainerFinishSets])
	}
}

func TestReport(t *testing.T) {
	b := generate(t, fixture(), "abc")
	r := file(t, b, "REPORT.md")

	if !strings.HasPrefix(r, "---\ninputs_sha256: abc\n") {
		t.Errorf("report frontmatter:\n%s", r)
	}
	for _, want := range []string{
		"| oak-1 | `finish:matte-oil` | 2 |",
		"## Materials Without a Primary Finish\n\n- slate\n",
		"| risks | ghost |",
	} {
		if !strings.Contains(r, want) {
			t.Errorf("report missing %q\n%s", want, r)
		}
	}
}

func TestBatchIDIsStable(t *testing.T) {
	if export.BatchID("abc") != export.BatchID("abc") {
		t.Fatal("batch id must be deterministic")
	}
	if export.BatchID("abc") == export.BatchID("abd") {
		t.Fatal("different digests must give different batch ids")
	}
}

func TestDigestIgnoresLineOrder(t *testing.T) {
	a := export.Digest([]string{export.FileLine("a.ts", []byte("x")), "catalog=MATERIALS"})
	b := export.Digest([]string{"catalog=MATERIALS", export.FileLine("a.ts", []byte("x"))})
	c := export.Digest([]string{"catalog=OTHER", export.FileLine("a.ts", []byte("x"))})
	if a != b {
		t.Error("digest must not depend on line order")
	}
	if a == c {
		t.Error("digest must depend on content")
	}
}

func TestGenerateRejectsMisalignedInput(t *testing.T) {
	in := fixture()
	in.Enrichment = in.Enrichment[:1]
	if _, err := export.Generate(in, export.Options{}); err == nil {
		t.Fatal("expected error for misaligned enrichment")
	}
}

// Idempotency: a second Generate + Write yields byte-identical files.
func TestWriteIdempotent(t *testing.T) {
	dir1, dir2 := t.TempDir(), t.TempDir()
	for _, dir := range []string{dir1, dir2} {
		if err := export.Write(generate(t, fixture(), "abc"), dir); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	entries, err := os.ReadDir(dir1)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		a, _ := os.ReadFile(filepath.Join(dir1, e.Name()))
		b, _ := os.ReadFile(filepath.Join(dir2, e.Name()))
		if !bytes.Equal(a, b) {
			t.Errorf("%s differs between runs", e.Name())
		}
	}
}

func TestUpToDate(t *testing.T) {
	dir := t.TempDir()

	ok, err := export.UpToDate(dir, "abc")
	if err != nil || ok {
		t.Fatalf("empty dir: got %v, %v", ok, err)
	}

	if err := export.Write(generate(t, fixture(), "abc"), dir); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if ok, err := export.UpToDate(dir, "abc"); err != nil || !ok {
		t.Fatalf("same digest: got %v, %v", ok, err)
	}
	if ok, _ := export.UpToDate(dir, "other"); ok {
		t.Fatal("different digest must not be up to date")
	}

	if err := os.Remove(filepath.Join(dir, "finishes.json")); err != nil {
		t.Fatal(err)
	}
	if ok, _ := export.UpToDate(dir, "abc"); ok {
		t.Fatal("missing collection must not be up to date")
	}
}

// Rows are counted per material: another material linking the same finish
// does not make a single row look duplicated.
func TestReportCountsPrimaryRowsPerMaterial(t *testing.T) {
	materials := []catalog.MaterialRecord{
		record("ash", "floor", "Matte Oil", "Matte Oil"),
		record("birch", "floor", "Matte Oil"),
		record("cedar", "wall", "Matte Oil", "Satin Oil"),
	}
	empty := enrich.Fields{Insight: value.Null{}, Actions: value.Array{}, Health: value.Null{}, Risks: value.Array{}, ServiceLife: value.Null{}}
	in := export.Input{
		Materials:  materials,
		Enrichment: []enrich.Fields{empty, empty, empty},
		Graph:      normalize.Normalize(materials, nil),
	}
	r := file(t, generate(t, in, "abc"), "REPORT.md")

	if !strings.Contains(r, "| ash | `finish:matte-oil` | 2 |") {
		t.Errorf("report missing ash duplicate:\n%s", r)
	}
	for _, id := range []string{"birch", "cedar"} {
		if strings.Contains(r, "| "+id+" |") {
			t.Errorf("report lists %s as duplicated:\n%s", id, r)
		}
	}
	if !strings.Contains(r, "## Materials Without a Primary Finish\n\n_None found._\n") {
		t.Errorf("every material has a primary finish:\n%s", r)
	}
	if !strings.Contains(r, "## Orphan Enrichment Keys\n\n_None found._\n") {
		t.Errorf("no orphans expected:\n%s", r)
	}
}
