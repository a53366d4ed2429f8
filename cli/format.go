package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/routekit/runtime/declare"
	"github.com/aledsdavies/routekit/runtime/parser"
)

func newFmtCmd(g *globalOptions) *cobra.Command {
	var (
		file  string
		write bool
	)

	cmd := &cobra.Command{
		Use:   "fmt [flags] [--] [pattern...]",
		Short: "Print patterns in canonical form",
		Long: `Print each pattern argument in canonical form, one per line. With --file,
print the declaration file with every pattern canonicalised, or rewrite it in
place with --write.

Put patterns after "--" when one starts with a dash, otherwise it is read as a
routekit flag.`,
		Example: `  routekit fmt "copy   {*files}"
  routekit fmt -- "--verbose,-v?"
  routekit fmt --file routes.yaml --write`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				return formatFile(cmd, file, write)
			}
			if len(args) == 0 {
				return &CLIError{
					Message: "nothing to format",
					Hint:    "pass patterns as arguments or a declaration file with --file",
				}
			}

			failed := false
			for _, pattern := range args {
				canonical, err := parser.Canonicalize(pattern)
				if err != nil {
					FormatError(g.stderr, err, g.palette(g.stderr))
					failed = true
					continue
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), canonical)
			}
			if failed {
				return errFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Declaration file to format")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Rewrite the file in place (with --file)")
	return cmd
}

func formatFile(cmd *cobra.Command, path string, write bool) error {
	format, err := declare.FormatOf(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	file, err := declare.Parse(data, format)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := file.Canonicalize(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	out, err := file.Encode(format)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if !write {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, info.Mode().Perm())
}
