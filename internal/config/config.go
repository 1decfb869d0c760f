// Package config loads and writes matseed.yaml, the pipeline configuration.
//
// Example:
//
//	sources:
//	  - src/constants.ts
//	  - palette/            # a directory is loaded as a Go package
//	catalog:
//	  binding: MATERIAL_PALETTE
//	  palette: RAL_COLORS   # optional shared color table binding
//	tables:
//	  lifecycle: {binding: MATERIAL_LIFECYCLE_PROFILES}
//	  insights:  {path: data/insights.json}
//	  overrides: {path: data/duration-overrides.json}
//	lifecycle:
//	  inferMissing: false
//	output:
//	  dir: seed
//
// Every key can be overridden from the environment with a MATSEED_ prefix,
// e.g. MATSEED_OUTPUT_DIR. Relative paths resolve against the directory of
// the config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"matseed/internal/enrich"
)

// DefaultFile is the config file name looked up in the working directory.
const DefaultFile = "matseed.yaml"

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "MATSEED"

// Table locates one auxiliary table.
type Table struct {
	Path    string `mapstructure:"path" yaml:"path,omitempty"`
	Binding string `mapstructure:"binding" yaml:"binding,omitempty"`
}

type Catalog struct {
	Binding string `mapstructure:"binding" yaml:"binding"`
	Palette string `mapstructure:"palette" yaml:"palette,omitempty"`
}

type Lifecycle struct {
	InferMissing bool `mapstructure:"infermissing" yaml:"inferMissing"`
}

type Output struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

type Log struct {
	Mode  string `mapstructure:"mode" yaml:"mode"`
	Level string `mapstructure:"level" yaml:"level"`
}

// Config is the parsed matseed.yaml.
type Config struct {
	Sources   []string         `mapstructure:"sources" yaml:"sources"`
	Catalog   Catalog          `mapstructure:"catalog" yaml:"catalog"`
	Tables    map[string]Table `mapstructure:"tables" yaml:"tables,omitempty"`
	Lifecycle Lifecycle        `mapstructure:"lifecycle" yaml:"lifecycle"`
	Output    Output           `mapstructure:"output" yaml:"output"`
	Workers   int              `mapstructure:"workers" yaml:"workers,omitempty"`
	Log       Log              `mapstructure:"log" yaml:"log"`

	// Dir is the directory relative paths resolved against.
	Dir string `mapstructure:"-" yaml:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.binding", "MATERIAL_PALETTE")
	v.SetDefault("catalog.palette", "")
	v.SetDefault("lifecycle.infermissing", false)
	v.SetDefault("output.dir", "seed")
	v.SetDefault("workers", 0)
	v.SetDefault("log.mode", "dev")
	v.SetDefault("log.level", "info")
}

// Default returns the configuration written by `matseed init` before the
// user's answers are applied.
func Default() *Config {
	return &Config{
		Catalog: Catalog{Binding: "MATERIAL_PALETTE"},
		Output:  Output{Dir: "seed"},
		Log:     Log{Mode: "dev", Level: "info"},
	}
}

// Load reads the config file at path, applies defaults and MATSEED_*
// environment overrides, resolves relative paths and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	// Unmarshal drops empty table entries; restore them so Validate sees them.
	for name := range v.GetStringMap("tables") {
		if _, ok := cfg.Tables[name]; !ok {
			if cfg.Tables == nil {
				cfg.Tables = make(map[string]Table)
			}
			cfg.Tables[name] = Table{}
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Dir = filepath.Dir(abs)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for missing or contradictory settings.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("config: no sources configured")
	}
	if c.Catalog.Binding == "" {
		return fmt.Errorf("config: catalog.binding is required")
	}
	known := make(map[string]bool)
	for _, t := range append(append([]string{}, enrich.KeyedTables...), enrich.TableOverrides, enrich.TableDefaults) {
		known[t] = true
	}
	for name, t := range c.Tables {
		if !known[name] {
			return fmt.Errorf("config: unknown table %q", name)
		}
		if (t.Path == "") == (t.Binding == "") {
			return fmt.Errorf("config: table %s needs exactly one of path or binding", name)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must not be negative")
	}
	return nil
}

// Resolve returns p relative to the config directory unless it is absolute.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// SourcePaths returns the configured sources, resolved.
func (c *Config) SourcePaths() []string {
	out := make([]string, len(c.Sources))
	for i, s := range c.Sources {
		out[i] = c.Resolve(s)
	}
	return out
}

// OutputDir returns the resolved output directory.
func (c *Config) OutputDir() string { return c.Resolve(c.Output.Dir) }

// TableSources converts the table settings for enrich.LoadTables.
func (c *Config) TableSources() enrich.Sources {
	out := make(enrich.Sources, len(c.Tables))
	for name, t := range c.Tables {
		out[name] = enrich.Source{Path: c.Resolve(t.Path), Binding: t.Binding}
	}
	return out
}

// Write marshals cfg to path. It refuses to overwrite an existing file.
func Write(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists", path)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
