// Package pipeline runs one matseed build: source units to constant scope,
// catalog, enrichment, normalization and export.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"matseed/internal/catalog"
	"matseed/internal/config"
	"matseed/internal/enrich"
	"matseed/internal/export"
	"matseed/internal/logger"
	"matseed/internal/normalize"
)

// Options configure a build.
type Options struct {
	// Sources are source unit paths, loaded in order.
	Sources []string
	// Root makes input paths in the digest relative, so moving the project
	// does not invalidate a previous build.
	Root           string
	CatalogBinding string
	PaletteBinding string
	Tables         enrich.Sources
	InferMissing   bool
	OutputDir      string
	Workers        int
	// Force rebuilds even when the output is up to date.
	Force bool
	// DryRun generates the bundle without writing it.
	DryRun bool
	Now    func() time.Time
	Log    *logger.Logger
}

// FromConfig maps a loaded config onto build options.
func FromConfig(cfg *config.Config) Options {
	return Options{
		Sources:        cfg.SourcePaths(),
		Root:           cfg.Dir,
		CatalogBinding: cfg.Catalog.Binding,
		PaletteBinding: cfg.Catalog.Palette,
		Tables:         cfg.TableSources(),
		InferMissing:   cfg.Lifecycle.InferMissing,
		OutputDir:      cfg.OutputDir(),
		Workers:        cfg.Workers,
	}
}

// Result summarises a build.
type Result struct {
	Digest  string
	BatchID string
	// Skipped is set when the output directory was already up to date.
	Skipped bool
	Bundle  *export.Bundle
	Counts  export.Counts
}

// Run executes the build.
func Run(ctx context.Context, opts Options) (*Result, error) {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	if opts.CatalogBinding == "" {
		return nil, fmt.Errorf("pipeline: no catalog binding")
	}

	digest, err := InputDigest(opts)
	if err != nil {
		return nil, err
	}
	res := &Result{Digest: digest, BatchID: export.BatchID(digest)}
	log = log.With("batch", res.BatchID)

	if !opts.Force && !opts.DryRun && opts.OutputDir != "" {
		ok, err := export.UpToDate(opts.OutputDir, digest)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		if ok {
			log.Info("output up to date", "dir", opts.OutputDir)
			res.Skipped = true
			return res, nil
		}
	}

	in, err := LoadInputs(opts.Sources, []string{opts.CatalogBinding}, log)
	if err != nil {
		return nil, err
	}

	raw, err := in.Resolve(opts.CatalogBinding)
	if err != nil {
		return nil, fmt.Errorf("pipeline: catalog: %w", err)
	}
	materials, err := catalog.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("pipeline: catalog %s: %w", opts.CatalogBinding, err)
	}
	log.Info("catalog loaded", "binding", opts.CatalogBinding, "materials", len(materials))

	var palette []catalog.ColorOption
	if opts.PaletteBinding != "" {
		raw, err := in.Resolve(opts.PaletteBinding)
		if err != nil {
			return nil, fmt.Errorf("pipeline: palette: %w", err)
		}
		if palette, err = catalog.DecodePalette(raw); err != nil {
			return nil, fmt.Errorf("pipeline: palette %s: %w", opts.PaletteBinding, err)
		}
		log.Info("palette loaded", "binding", opts.PaletteBinding, "colors", len(palette))
	}

	tables, err := enrich.LoadTables(ctx, opts.Tables, in.Resolve)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	tables.InferMissing = opts.InferMissing

	fields, err := enrich.EnrichAll(ctx, materials, tables, opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("pipeline: enrich: %w", err)
	}
	orphans := enrich.Orphans(tables, materials)
	for _, o := range orphans {
		log.Warn("enrichment key matches no material", "table", o.Table, "key", o.Key)
	}

	graph := normalize.Normalize(materials, palette)
	log.Info("catalog normalized",
		"finishes", len(graph.Finishes),
		"finishSets", len(graph.FinishSets),
		"finishLinks", len(graph.FinishLinks),
		"finishSetLinks", len(graph.FinishSetLinks))

	bundle, err := export.Generate(export.Input{
		Materials:  materials,
		Enrichment: fields,
		Graph:      graph,
		Orphans:    orphans,
	}, export.Options{InputDigest: digest, Now: opts.Now})
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	res.Bundle = bundle
	res.Counts = bundle.Counts

	if opts.DryRun || opts.OutputDir == "" {
		return res, nil
	}
	if err := export.Write(bundle, opts.OutputDir); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	log.Info("seed written", "dir", opts.OutputDir, "files", len(bundle.Files()))
	return res, nil
}

// InputDigest hashes every input file plus the options that change output.
func InputDigest(opts Options) (string, error) {
	var lines []string
	addFile := func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("pipeline: digest: %w", err)
		}
		lines = append(lines, export.FileLine(digestPath(opts.Root, path), data))
		return nil
	}
	for i, src := range opts.Sources {
		files, err := inputFiles(src)
		if err != nil {
			return "", fmt.Errorf("pipeline: digest: %w", err)
		}
		for _, f := range files {
			if err := addFile(f); err != nil {
				return "", err
			}
		}
		lines = append(lines, "source."+strconv.Itoa(i)+"="+digestPath(opts.Root, src))
	}

	tables := make([]string, 0, len(opts.Tables))
	for name := range opts.Tables {
		tables = append(tables, name)
	}
	sort.Strings(tables)
	for _, name := range tables {
		src := opts.Tables[name]
		switch {
		case src.Binding != "":
			lines = append(lines, "table."+name+"=binding:"+src.Binding)
		case src.Path != "":
			if err := addFile(src.Path); err != nil {
				return "", err
			}
			lines = append(lines, "table."+name+"=file:"+digestPath(opts.Root, src.Path))
		}
	}

	lines = append(lines,
		"catalog="+opts.CatalogBinding,
		"palette="+opts.PaletteBinding,
		"inferMissing="+strconv.FormatBool(opts.InferMissing),
	)
	return export.Digest(lines), nil
}

func digestPath(root, p string) string {
	if root != "" {
		if rel, err := filepath.Rel(root, p); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(p)
}
