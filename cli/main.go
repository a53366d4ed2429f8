package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/routekit/core/route"
	"github.com/aledsdavies/routekit/runtime/declare"
	"github.com/aledsdavies/routekit/runtime/router"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// globalOptions carries the persistent flags and output streams
type globalOptions struct {
	debug   bool
	noColor bool
	stdout  io.Writer
	stderr  io.Writer
}

func (g *globalOptions) palette(w io.Writer) Palette {
	return NewPalette(w, ShouldUseColor(g.noColor, w))
}

// logger writes debug traces to stderr when --debug or ROUTEKIT_DEBUG is set
func (g *globalOptions) logger() *slog.Logger {
	level := slog.LevelInfo
	if g.debug || os.Getenv("ROUTEKIT_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(g.stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && (a.Key == slog.TimeKey || a.Key == slog.LevelKey) {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	g := &globalOptions{stdout: stdout, stderr: stderr}
	rootCmd := newRootCmd(g)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		FormatError(stderr, err, g.palette(stderr))
		return 1
	}
	return 0
}

func newRootCmd(g *globalOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "routekit",
		Short:         "Check, format and try out CLI route patterns",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(g.stdout)
	rootCmd.SetErr(g.stderr)

	rootCmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "Enable debug output (or set ROUTEKIT_DEBUG)")
	rootCmd.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "Disable colored output (or set NO_COLOR)")

	rootCmd.AddCommand(
		newCheckCmd(g),
		newMatchCmd(g),
		newFmtCmd(g),
		newTableCmd(g),
	)
	return rootCmd
}

// compileOptions are the router options shared by several commands
type compileOptions struct {
	ignoreCase  bool
	strictTypes bool
	groups      bool
}

func (c compileOptions) routerOpts(logger *slog.Logger) []router.RouterOpt {
	opts := []router.RouterOpt{router.WithLogger(logger)}
	if c.ignoreCase {
		opts = append(opts, router.WithCaseInsensitive())
	}
	if c.strictTypes {
		opts = append(opts, router.WithStrictTypes())
	}
	if c.groups {
		opts = append(opts, router.WithSingleLiteralGroups())
	}
	return opts
}

// compileFile loads and compiles a declaration file
func compileFile(path string, g *globalOptions, c compileOptions) (*router.Router, []route.Diagnostic, error) {
	logger := g.logger()
	decls, err := declare.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("declarations loaded", "file", path, "routes", len(decls))

	r, diags := router.Compile(decls, c.routerOpts(logger)...)
	return r, diags, nil
}

func requireFile(args []string) error {
	if len(args) == 0 {
		return &CLIError{
			Message: "missing declaration file",
			Hint:    "pass a .yaml, .json, .jsonc or .toml file",
		}
	}
	return nil
}
