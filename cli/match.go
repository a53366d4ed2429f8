package main

import (
	"encoding"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/routekit/core/route"
	"github.com/aledsdavies/routekit/runtime/binder"
)

type matchOutput struct {
	Route       string           `json:"route"`
	Handler     string           `json:"handler"`
	Specificity int              `json:"specificity"`
	Source      string           `json:"source,omitempty"`
	Arguments   []argumentOutput `json:"arguments"`
}

type argumentOutput struct {
	Name  string   `json:"name"`
	State string   `json:"state"`
	Value any      `json:"value"`
	Raw   []string `json:"raw,omitempty"`
	Type  string   `json:"type,omitempty"`
}

func newMatchCmd(g *globalOptions) *cobra.Command {
	var compile compileOptions

	cmd := &cobra.Command{
		Use:   "match <file> -- <tokens...>",
		Short: "Show which route a token list selects",
		Long: `Match a token list against the routes of a declaration file and print the
selected route with its bound arguments as JSON. Put the tokens after "--" so
their options are not read as routekit flags.`,
		Example: "  routekit match routes.yaml -- deploy prod --force",
		Args: func(cmd *cobra.Command, args []string) error {
			return requireFile(args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			r, diags, err := compileFile(args[0], g, compile)
			if err != nil {
				return err
			}
			if route.HasErrors(diags) {
				g.logger().Debug("route set has errors", "errors", route.Count(diags, route.SeverityError))
			}

			inv, err := r.Resolve(args[1:])
			if err != nil {
				return err
			}

			out := matchOutput{
				Route:       inv.Route.Canonical(),
				Handler:     inv.Route.Handler().Name,
				Specificity: inv.Route.Specificity(),
				Source:      inv.Route.Source(),
				Arguments:   []argumentOutput{},
			}
			for _, arg := range inv.Args.All() {
				out.Arguments = append(out.Arguments, argumentOutput{
					Name:  arg.Name,
					State: arg.State.String(),
					Value: jsonValue(arg.Value),
					Raw:   arg.Raw,
					Type:  arg.Type,
				})
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().BoolVar(&compile.ignoreCase, "ignore-case", false, "Match literals case-insensitively")
	cmd.Flags().BoolVar(&compile.strictTypes, "strict-types", false, "Let type mismatches fall through to the next route")
	return cmd
}

// jsonValue turns converted values into something JSON shows readably
func jsonValue(v any) any {
	switch v := v.(type) {
	case nil, string, bool, int, int64, uint, float64:
		return v
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = jsonValue(elem)
		}
		return out
	case binder.Version:
		return string(v)
	case encoding.TextMarshaler:
		text, err := v.MarshalText()
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(text)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
