package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"matseed/internal/config"
	"matseed/internal/export"
	"matseed/internal/logger"
	"matseed/internal/pipeline"
	"matseed/internal/value"
)

// command describes a CLI subcommand.
type command struct {
	name  string
	short string
	usage string
	long  string
	run   func(args []string) error
}

var commands = []command{
	{
		name:  "init",
		short: "Write a matseed.yaml for this project",
		usage: "matseed init [--config path] [--no-prompt] [--source path ...]",
		long: `Write a new matseed.yaml.

Prompts for the source units, the catalog and palette bindings and the
output directory. With --no-prompt the flags and defaults are used as-is.

Errors if the config file already exists.
`,
		run: runInit,
	},
	{
		name:  "build",
		short: "Compile the catalog into seed collections",
		usage: "matseed build [--config path] [--force] [--dry-run] [--workers n] [--log-level level]",
		long: `Load the source units, evaluate the catalog, join the auxiliary tables,
normalize finishes and finish sets and write the seed collections, manifest
and REPORT.md to the output directory.

The build is skipped when REPORT.md records the same input digest; --force
rebuilds anyway. --dry-run builds without writing.
`,
		run: runBuild,
	},
	{
		name:  "scope",
		short: "Print the evaluated constant scope",
		usage: "matseed scope [--config path] [--binding name]",
		long: `Evaluate the source units and print the constant scope as JSON.

Bindings that cannot be evaluated are left out (run with --log-level debug
to see why). With --binding, evaluate that one binding strictly and print
it, failing on any unsupported expression.
`,
		run: runScope,
	},
}

var stdout io.Writer = os.Stdout

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "matseed - material catalog seed compiler\n\n")
	fmt.Fprintf(w, "Usage:\n  matseed <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nRun 'matseed help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.name == name {
			fmt.Fprintf(w, "Usage: %s\n\n%s", cmd.usage, cmd.long)
			return
		}
	}
	fmt.Fprintf(w, "matseed: unknown command %q\n\nRun 'matseed help' for usage.\n", name)
}

func dispatch(args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(stdout, args[1])
		} else {
			printUsage(stdout)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(args[1:])
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'matseed help' for usage.", args[0])
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %w\n\nRun 'matseed help %s' for usage.", fs.Name(), err, fs.Name())
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%s: unexpected argument %q\n\nRun 'matseed help %s' for usage.", fs.Name(), fs.Arg(0), fs.Name())
	}
	return nil
}

// ---------------------------------------------------------------------------
// init
// ---------------------------------------------------------------------------

func runInit(args []string) error {
	fs := newFlagSet("init")
	path := fs.StringP("config", "c", config.DefaultFile, "config file to write")
	noPrompt := fs.Bool("no-prompt", false, "do not prompt; use flags and defaults")
	sources := fs.StringSlice("source", nil, "source unit path (repeatable)")
	catalogBinding := fs.String("catalog", "", "catalog binding name")
	palette := fs.String("palette", "", "palette binding name")
	output := fs.String("output", "", "output directory")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg := config.Default()
	if *catalogBinding != "" {
		cfg.Catalog.Binding = *catalogBinding
	}
	if *output != "" {
		cfg.Output.Dir = *output
	}
	cfg.Catalog.Palette = *palette
	cfg.Sources = *sources

	if !*noPrompt {
		questions := []question{
			{key: "sources", prompt: "Source units (comma separated)", def: strings.Join(cfg.Sources, ",")},
			{key: "catalog", prompt: "Catalog binding", def: cfg.Catalog.Binding},
			{key: "palette", prompt: "Palette binding (optional)", def: cfg.Catalog.Palette},
			{key: "output", prompt: "Output directory", def: cfg.Output.Dir},
		}
		answers, err := promptQuestions(questions)
		if err != nil {
			return fmt.Errorf("prompt: %w", err)
		}
		cfg.Sources = splitList(answers["sources"])
		cfg.Catalog.Binding = answers["catalog"]
		cfg.Catalog.Palette = answers["palette"]
		cfg.Output.Dir = answers["output"]
	}

	if len(cfg.Sources) == 0 {
		return fmt.Errorf("init: at least one source unit is required")
	}
	if err := config.Write(*path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", *path)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// build
// ---------------------------------------------------------------------------

func runBuild(args []string) error {
	fs := newFlagSet("build")
	path := fs.StringP("config", "c", config.DefaultFile, "config file")
	force := fs.Bool("force", false, "rebuild even when the output is up to date")
	dryRun := fs.Bool("dry-run", false, "build without writing the output")
	workers := fs.Int("workers", -1, "enrichment workers (default from config)")
	level := fs.String("log-level", "", "log level (default from config)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg, err := config.Load(*path)
	if err != nil {
		return err
	}
	lg, err := newLogger(cfg, *level)
	if err != nil {
		return err
	}
	defer lg.Sync()

	opts := pipeline.FromConfig(cfg)
	opts.Force = *force
	opts.DryRun = *dryRun
	opts.Log = lg
	if *workers >= 0 {
		opts.Workers = *workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := pipeline.Run(ctx, opts)
	if err != nil {
		return err
	}
	if res.Skipped {
		fmt.Fprintf(stdout, "up to date (%s)\n", shortDigest(res.Digest))
		return nil
	}
	for _, c := range export.Containers {
		fmt.Fprintf(stdout, "  %-24s %d\n", c.File, res.Counts[c.Name])
	}
	if opts.DryRun {
		fmt.Fprintf(stdout, "dry run, batch %s\n", res.BatchID)
		return nil
	}
	fmt.Fprintf(stdout, "wrote %s, batch %s\n", opts.OutputDir, res.BatchID)
	return nil
}

func newLogger(cfg *config.Config, level string) (*logger.Logger, error) {
	if level == "" {
		level = cfg.Log.Level
	}
	return logger.New(cfg.Log.Mode, level)
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

// ---------------------------------------------------------------------------
// scope
// ---------------------------------------------------------------------------

func runScope(args []string) error {
	fs := newFlagSet("scope")
	path := fs.StringP("config", "c", config.DefaultFile, "config file")
	binding := fs.String("binding", "", "evaluate one binding strictly")
	level := fs.String("log-level", "", "log level (default from config)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg, err := config.Load(*path)
	if err != nil {
		return err
	}
	lg, err := newLogger(cfg, *level)
	if err != nil {
		return err
	}
	defer lg.Sync()

	in, err := pipeline.LoadInputs(cfg.SourcePaths(), []string{cfg.Catalog.Binding}, lg)
	if err != nil {
		return err
	}

	var out value.Value
	if *binding != "" {
		if out, err = in.Resolve(*binding); err != nil {
			return err
		}
	} else {
		scope := in.Scope()
		names := make([]string, 0, len(scope))
		for name := range scope {
			names = append(names, name)
		}
		sort.Strings(names)
		obj := value.NewObject()
		for _, name := range names {
			obj.Set(name, scope[name])
		}
		out = obj
	}
	return value.NewEncoder(stdout).Encode(out)
}

// ---------------------------------------------------------------------------
// TUI prompt helpers
// ---------------------------------------------------------------------------

// question is one init prompt; an empty answer keeps def.
type question struct {
	key    string
	prompt string
	def    string
}

// promptModel is a bubbletea model that asks one question at a time.
type promptModel struct {
	questions []question
	idx       int
	inputs    []textinput.Model
	done      bool
}

func newPromptModel(questions []question) promptModel {
	inputs := make([]textinput.Model, len(questions))
	for i, q := range questions {
		ti := textinput.New()
		ti.Placeholder = q.def
		ti.CharLimit = 512
		inputs[i] = ti
	}
	m := promptModel{
		questions: questions,
		inputs:    inputs,
	}
	if len(inputs) > 0 {
		m.inputs[0].Focus()
	}
	return m
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.idx < len(m.inputs)-1 {
				m.inputs[m.idx].Blur()
				m.idx++
				m.inputs[m.idx].Focus()
				return m, textinput.Blink
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.inputs[m.idx], cmd = m.inputs[m.idx].Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done || len(m.questions) == 0 {
		return ""
	}
	q := m.questions[m.idx]
	return fmt.Sprintf("%s: %s\n", q.prompt, m.inputs[m.idx].View())
}

// answers returns the typed values keyed by question, defaults filling the
// blanks.
func (m promptModel) answers() map[string]string {
	out := make(map[string]string, len(m.questions))
	for i, q := range m.questions {
		v := strings.TrimSpace(m.inputs[i].Value())
		if v == "" {
			v = q.def
		}
		out[q.key] = v
	}
	return out
}

// promptQuestions runs the TUI and returns answers keyed by question key.
func promptQuestions(questions []question) (map[string]string, error) {
	if len(questions) == 0 {
		return map[string]string{}, nil
	}
	p := tea.NewProgram(newPromptModel(questions))
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	final, ok := result.(promptModel)
	if !ok || !final.done {
		return nil, fmt.Errorf("prompt cancelled")
	}
	return final.answers(), nil
}

func main() {
	if err := dispatch(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
