package export

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"matseed/internal/frontmatter"
)

// reportFrontmatter is the YAML block at the top of REPORT.md.
type reportFrontmatter struct {
	InputsSHA256 string         `yaml:"inputs_sha256"`
	BatchID      string         `yaml:"batch_id"`
	Counts       map[string]int `yaml:"counts"`
}

// buildReport renders REPORT.md: the input digest in frontmatter and the
// review items in the body.
func buildReport(in Input, counts Counts, digest string) ([]byte, error) {
	var b strings.Builder
	b.WriteString("# Seed Report\n\n")

	// --- Duplicate primary-finish rows ---
	b.WriteString("## Duplicate Primary Finish Rows\n\n")
	type dup struct {
		material, finish string
		rows             int
	}
	type linkKey struct{ material, finish string }
	linkRows := make(map[linkKey]int, len(in.Graph.FinishLinks))
	for _, l := range in.Graph.FinishLinks {
		linkRows[linkKey{l.MaterialID, l.FinishID}]++
	}
	var dups []dup
	var missing []string
	for i, refs := range in.Graph.Materials {
		id := in.Materials[i].ID
		if refs.PrimaryFinishID == "" {
			missing = append(missing, id)
			continue
		}
		if rows := linkRows[linkKey{id, refs.PrimaryFinishID}]; rows > 1 {
			dups = append(dups, dup{id, refs.PrimaryFinishID, rows})
		}
	}
	if len(dups) == 0 {
		b.WriteString("_None found._\n")
	} else {
		b.WriteString("| Material | Finish | Rows |\n")
		b.WriteString("|----------|--------|------|\n")
		for _, d := range dups {
			b.WriteString(fmt.Sprintf("| %s | `%s` | %d |\n", d.material, d.finish, d.rows))
		}
	}
	b.WriteString("\n")

	// --- Missing primary finish ---
	b.WriteString("## Materials Without a Primary Finish\n\n")
	if len(missing) == 0 {
		b.WriteString("_None found._\n")
	} else {
		for _, id := range missing {
			b.WriteString("- " + id + "\n")
		}
	}
	b.WriteString("\n")

	// --- Orphan enrichment keys ---
	b.WriteString("## Orphan Enrichment Keys\n\n")
	if len(in.Orphans) == 0 {
		b.WriteString("_None found._\n")
	} else {
		b.WriteString("| Table | Key |\n")
		b.WriteString("|-------|-----|\n")
		for _, o := range in.Orphans {
			b.WriteString(fmt.Sprintf("| %s | %s |\n", o.Table, o.Key))
		}
	}

	fm := reportFrontmatter{
		InputsSHA256: digest,
		BatchID:      BatchID(digest),
		Counts:       counts,
	}
	data, err := frontmatter.Write(fm, b.String())
	if err != nil {
		return nil, fmt.Errorf("export: report: %w", err)
	}
	return data, nil
}

// UpToDate reports whether dir holds a complete export generated from
// inputs with the given digest. A missing or malformed report means not up
// to date, without error.
func UpToDate(dir, digest string) (bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, ReportFile))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("export: %w", err)
	}
	var fm reportFrontmatter
	if _, err := frontmatter.Decode(data, &fm); err != nil {
		return false, nil
	}
	if fm.InputsSHA256 != digest {
		return false, nil
	}
	for _, p := range append(containerFiles(), ManifestFile) {
		if _, err := os.Stat(filepath.Join(dir, p)); err != nil {
			return false, nil
		}
	}
	return true, nil
}

func containerFiles() []string {
	out := make([]string, len(Containers))
	for i, c := range Containers {
		out[i] = c.File
	}
	return out
}
