package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/aledsdavies/routekit/core/route"
)

func newCheckCmd(g *globalOptions) *cobra.Command {
	var (
		compile compileOptions
		watch   bool
		strict  bool
	)

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a route declaration file",
		Long: `Parse every pattern of a declaration file, validate the whole route set and
print all diagnostics. Exits non-zero when any error is found, or any warning
with --strict.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := requireFile(args); err != nil {
				return err
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			out := cmd.OutOrStdout()
			check := func() error {
				return runCheck(out, path, g, compile, strict)
			}
			if !watch {
				return check()
			}

			if err := check(); err != nil {
				FormatError(g.stderr, err, g.palette(g.stderr))
			}
			return watchFile(cmd.Context(), path, g.logger(), func() {
				_, _ = fmt.Fprintf(out, "\n%s\n", g.palette(out).Muted.Render("re-checking "+path))
				if err := check(); err != nil {
					FormatError(g.stderr, err, g.palette(g.stderr))
				}
			})
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Re-check whenever the file changes")
	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as failures")
	cmd.Flags().BoolVar(&compile.groups, "groups", false, "Require grouped routes to use a single literal")
	cmd.Flags().BoolVar(&compile.ignoreCase, "ignore-case", false, "Validate for case-insensitive literal matching")
	return cmd
}

func runCheck(w io.Writer, path string, g *globalOptions, compile compileOptions, strict bool) error {
	_, diags, err := compileFile(path, g, compile)
	if err != nil {
		return err
	}

	DisplayDiagnostics(w, diags, g.palette(w))
	if route.HasErrors(diags) || (strict && route.Count(diags, route.SeverityWarning) > 0) {
		return errFailed
	}
	return nil
}

// watchFile calls onChange whenever path is written or recreated, until ctx
// is done. The parent directory is watched so editors that replace the file
// are followed.
func watchFile(ctx context.Context, path string, logger *slog.Logger, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	target := filepath.Clean(path)
	logger.Debug("watching", "file", target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			logger.Debug("file changed", "file", target, "op", event.Op.String())
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Debug("watch error", "error", err)
		}
	}
}
