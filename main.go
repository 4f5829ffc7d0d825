// gitref checks that code referenced from documentation has not changed
// since the references were last recorded.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/phobologic/gitref/internal/config"
	"github.com/phobologic/gitref/internal/logging"
)

var version = "dev"

// Output formats for pass results.
const (
	formatText = "text"
	formatTOON = "toon"
	formatJSON = "json"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	logLevel string
	format   string
	links    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:   "gitref",
		Short: "Keep code references in documentation honest",
		Long: `gitref resolves inline references to source files and definitions in
reStructuredText and Markdown documentation, renders them as links to the
hosted repository, and fails when referenced code changed since the last
"gitref update".

Reference a file or a definition inside it:

  :gitref:` + "`reader.py`" + `
  :gitref:` + "`reader.py::Reader.read`" + `
  {gitref}` + "`the reader <reader.py::Reader>`" + `   (MyST)`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("gitref {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides log_level)")
	pf.StringVar(&g.format, "format", formatText, "output format: text, toon or json")
	pf.BoolVar(&g.links, "links", false, "include every resolved link in the output")

	root.AddCommand(
		newCheckCmd(g),
		newUpdateCmd(g),
		newWatchCmd(g),
		newInitCmd(),
	)
	return root
}

// setup loads and validates the configuration of docsDir and builds the
// logger for the command.
func (g *globalOptions) setup(docsDir string, stderr io.Writer) (*config.Resolved, *slog.Logger, error) {
	switch g.format {
	case formatText, formatTOON, formatJSON:
	default:
		return nil, nil, fmt.Errorf("unsupported format %q", g.format)
	}

	info, err := os.Stat(docsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("docs directory: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%s: not a directory", docsDir)
	}

	cfg, err := config.Load(docsDir)
	if err != nil {
		return nil, nil, err
	}
	resolved, err := cfg.Validate(docsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level := resolved.LogLevel
	if g.logLevel != "" {
		var ok bool
		if level, ok = logging.ParseLevel(g.logLevel); !ok {
			return nil, nil, fmt.Errorf("unknown log level %q", g.logLevel)
		}
	}
	return resolved, logging.New(stderr, level), nil
}

func docsDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
