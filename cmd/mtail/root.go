package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/TimelordUK/mtail/internal/archive"
	"github.com/TimelordUK/mtail/internal/config"
	"github.com/TimelordUK/mtail/internal/dispatch"
	"github.com/TimelordUK/mtail/internal/logx"
	"github.com/TimelordUK/mtail/internal/render"
	"github.com/TimelordUK/mtail/internal/status"
	"github.com/TimelordUK/mtail/internal/tail"
	"github.com/TimelordUK/mtail/internal/ui"
	"github.com/TimelordUK/mtail/internal/version"
)

// flags holds the raw command line values before they become Options
type flags struct {
	configPath  string
	location    string
	lines       string
	follow      bool
	quiet       bool
	verbose     bool
	nonRecurse  bool
	marker      string
	lineNumbers bool
	regex       bool
	show        []string
	hide        []string
	highlight   []string
	comparison  string
	all         bool
	truncate    bool
	after       string
	before      string
	context     string

	tui         bool
	maxLines    int
	syntax      bool
	levels      bool
	writeConfig bool
}

// redirected reports whether standard input is redirected
var redirected = stdinRedirected

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&flags{})
}

func newRootCmdWith(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mtail [flags] [file|folder\\mask|archive\\member ...]",
		Short: "Print, filter and follow the end of many files",
		Long: `Print the last part of files, wildcard sets, archive members and
standard input, following them as they grow.

Files can be plain paths, folder masks such as logs/*.log, archives
(.zip, .rar, .7z) or members inside them such as logs.zip/app*.log.
Redirected standard input is read as the file "-".`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, args)
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &config.ArgumentError{Arg: "flag", Err: err}
	})

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/mtail/config.toml)")
	fl.StringVarP(&f.location, "location", "c", "", "starting location as <n>b bytes or <n>p percent")
	fl.StringVarP(&f.lines, "lines", "n", "", "print the last N logical lines, or skip the first N with +N")
	fl.BoolVarP(&f.follow, "follow", "f", false, "keep printing appended data")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "never print file name headers")
	fl.BoolVar(&f.quiet, "silent", false, "same as --quiet")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "always print file name headers")
	fl.BoolVar(&f.nonRecurse, "non-recursive", false, "do not descend into subfolders of wildcard entries")
	fl.StringVarP(&f.marker, "logical-lines", "l", "", "prefix that starts a new logical line")
	fl.BoolVarP(&f.lineNumbers, "line-number", "N", false, "print logical line numbers")
	fl.BoolVarP(&f.regex, "regex", "R", false, "treat filters as regular expressions")
	fl.StringArrayVarP(&f.show, "show", "S", nil, "show only lines matching the filter")
	fl.StringArrayVarP(&f.hide, "hide", "H", nil, "hide lines matching the filter")
	fl.StringArrayVarP(&f.highlight, "highlight", "L", nil, "highlight the filter without changing visibility")
	fl.StringVarP(&f.comparison, "comparison-option", "o", "", "Ordinal or OrdinalIgnoreCase plain filter comparison")
	fl.BoolVarP(&f.all, "all", "a", false, "require all show or hide filters to match")
	fl.BoolVarP(&f.truncate, "truncate", "t", false, "truncate lines to the terminal width")
	fl.StringVarP(&f.after, "after-context", "A", "", "print N logical lines after each match")
	fl.StringVarP(&f.before, "before-context", "B", "", "print N logical lines before each match")
	fl.StringVarP(&f.context, "context", "C", "", "print N logical lines around each match")

	fl.BoolVar(&f.tui, "tui", false, "show the output in a scrollable viewer")
	fl.IntVar(&f.maxLines, "max-lines", ui.DefaultMaxLines, "rows kept by the viewer")
	fl.BoolVar(&f.syntax, "syntax", false, "syntax color source-like files")
	fl.BoolVar(&f.levels, "levels", false, "color plain text by detected log level")
	fl.BoolVar(&f.writeConfig, "write-config", false, "write the effective config file and exit")

	return cmd
}

// buildOptions merges the config defaults, the flags and the positional
// arguments. stdin tells whether standard input is redirected.
func buildOptions(cmd *cobra.Command, f *flags, cfg *config.Config, args []string, stdin bool) (config.Options, error) {
	opts := config.DefaultOptions()
	def := cfg.Defaults
	changed := cmd.Flags().Changed

	opts.Files = append(opts.Files, args...)
	if stdin && !slices.Contains(opts.Files, config.ConsoleName) {
		opts.Files = append(opts.Files, config.ConsoleName)
	}

	opts.Follow = f.follow
	opts.Recursive = !(f.nonRecurse || def.NonRecursive)
	opts.ShowLineNumbers = f.lineNumbers || def.ShowLineNumbers
	opts.Truncate = f.truncate || def.Truncate
	opts.Regex = f.regex || def.Regex

	switch {
	case f.quiet:
		opts.ShowFile = config.ShowFileNever
	case f.verbose:
		opts.ShowFile = config.ShowFileAlways
	}

	opts.LogicalLineMarker = def.LogicalLineMarker
	if changed("logical-lines") {
		opts.LogicalLineMarker = f.marker
	}

	comparison := def.Comparison
	if changed("comparison-option") {
		comparison = f.comparison
	}
	if comparison != "" {
		c, err := config.ParseComparison(comparison)
		if err != nil {
			return opts, err
		}
		opts.Comparison = c
	}

	if changed("location") {
		n, unit, err := config.ParseLocation(f.location)
		if err != nil {
			return opts, err
		}
		opts.StartLocation, opts.StartUnit = n, unit
	}
	if changed("lines") {
		n, from, err := config.ParseLines(f.lines)
		if err != nil {
			return opts, err
		}
		opts.Lines, opts.LinesFrom = n, from
	}

	if def.Context > 0 {
		opts.ContextBefore, opts.ContextAfter = def.Context, def.Context
	}
	// -C first so explicit -A/-B win
	for _, c := range []struct {
		name  string
		value string
		set   func(int)
	}{
		{"context", f.context, func(n int) { opts.ContextBefore, opts.ContextAfter = n, n }},
		{"after-context", f.after, func(n int) { opts.ContextAfter = n }},
		{"before-context", f.before, func(n int) { opts.ContextBefore = n }},
	} {
		if !changed(c.name) {
			continue
		}
		n, err := config.ParseContext(c.value)
		if err != nil {
			return opts, err
		}
		c.set(n)
	}

	opts.Filters.Show = f.show
	opts.Filters.Hide = f.hide
	opts.Filters.Highlight = f.highlight
	opts.Filters.All = f.all

	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

func stdinRedirected() bool {
	fd := os.Stdin.Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}

func terminalWidth() int {
	w, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || w <= 0 {
		return config.DefaultWidth
	}
	return w
}

func run(cmd *cobra.Command, f *flags, args []string) error {
	logClose, err := logx.SetLevelFromEnv()
	if err != nil {
		return err
	}
	defer logClose.Close()

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	if f.writeConfig {
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), config.GetConfigPath())
		return nil
	}

	opts, err := buildOptions(cmd, f, cfg, args, redirected())
	if err != nil {
		return err
	}
	opts.MaxWidth = terminalWidth()
	logx.Infof("starting %s on %d arguments, follow %v", version.String(), len(opts.Files), opts.Follow)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var console *tail.ConsoleSource
	if slices.Contains(opts.Files, config.ConsoleName) {
		console = tail.NewConsoleSource(os.Stdin, nil)
	}

	renderOpts := render.Options{
		ColorFiles: opts.Follow,
		Levels:     f.levels || cfg.Defaults.LevelColors,
		Syntax:     f.syntax || cfg.Defaults.Syntax,
	}

	var (
		sink render.Sink
		feed *ui.Feed
	)
	if f.tui {
		feed = ui.NewFeed()
		r := render.NewStringRenderer(lipgloss.NewRenderer(os.Stdout), cfg, renderOpts)
		sink = render.NewFuncSink(r, feed.Append)
	} else {
		sink = render.NewConsoleRenderer(cmd.OutOrStdout(), cfg, renderOpts)
	}

	d := dispatch.New(&opts, sink, archive.NewSupport(), console)
	defer d.Close()
	if console != nil {
		console.Start()
	}

	var titleOut *termenv.Output
	if !f.tui && isatty.IsTerminal(os.Stderr.Fd()) {
		titleOut = termenv.NewOutput(os.Stderr)
	}
	reporter := status.NewReporter(d, opts.Follow, titleOut, terminalWidth)

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	g.Go(func() error {
		err := d.Run(runCtx)
		if !f.tui {
			cancel()
		}
		return err
	})
	g.Go(func() error {
		return reporter.Run(runCtx)
	})
	if f.tui {
		model := ui.NewModel(ui.ModelOptions{
			Feed:     feed,
			Config:   cfg,
			Title:    reporter.Title,
			MaxLines: f.maxLines,
			Follow:   opts.Follow,
		})
		g.Go(func() error {
			defer cancel()
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(runCtx))
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("viewer: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}

// exitCode maps run errors to the process exit status
func exitCode(err error, stderr io.Writer, cmd *cobra.Command) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	var argErr *config.ArgumentError
	if errors.As(err, &argErr) || errors.Is(err, config.ErrNoFiles) {
		fmt.Fprintln(stderr, cmd.UsageString())
	}
	return 1
}
