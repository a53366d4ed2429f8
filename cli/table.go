package main

import (
	"github.com/spf13/cobra"

	"github.com/aledsdavies/routekit/core/route"
)

func newTableCmd(g *globalOptions) *cobra.Command {
	var compile compileOptions

	cmd := &cobra.Command{
		Use:   "table <file>",
		Short: "Print the ranked route table and its fingerprint",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := requireFile(args); err != nil {
				return err
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			r, diags, err := compileFile(args[0], g, compile)
			if err != nil {
				return err
			}
			fingerprint, err := r.Table().Fingerprint()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			DisplayTable(out, args[0], r, fingerprint, g.palette(out))
			if len(diags) > 0 {
				DisplayDiagnostics(g.stderr, diags, g.palette(g.stderr))
			}
			if route.HasErrors(diags) {
				return errFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&compile.ignoreCase, "ignore-case", false, "Validate for case-insensitive literal matching")
	return cmd
}
