// Package overlap finds route pairs that can claim the same input.
//
// Two routes overlap when some token list is accepted by both. The check runs
// the matcher's own per-route machines over a finite alphabet of
// representative tokens, so it reports exactly the pairs the matcher could
// confuse. Type constraints are treated as wildcards; a pair reported as
// disjoint can never both match.
package overlap

import (
	"io"
	"log/slog"
	"strings"

	"github.com/aledsdavies/routekit/core/route"
	"github.com/aledsdavies/routekit/runtime/matcher"
)

// ValidatorOpt represents a validator configuration option
type ValidatorOpt func(*ValidatorConfig)

// ValidatorConfig holds validator configuration
type ValidatorConfig struct {
	caseInsensitive    bool
	singleLiteralGroup bool
	logger             *slog.Logger
}

// WithCaseInsensitive validates for a matcher built WithCaseInsensitive.
func WithCaseInsensitive() ValidatorOpt {
	return func(c *ValidatorConfig) {
		c.caseInsensitive = true
	}
}

// WithSingleLiteralGroups reports grouped routes that use more than one
// literal, for embeddings that key groups by a single literal.
func WithSingleLiteralGroups() ValidatorOpt {
	return func(c *ValidatorConfig) {
		c.singleLiteralGroup = true
	}
}

// WithLogger traces pair checks at debug level
func WithLogger(logger *slog.Logger) ValidatorOpt {
	return func(c *ValidatorConfig) {
		c.logger = logger
	}
}

// Validate checks a whole route set and returns its diagnostics in a stable
// order. Every problem is reported; no route is dropped.
func Validate(routes []*route.Route, opts ...ValidatorOpt) []route.Diagnostic {
	config := &ValidatorConfig{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(config)
	}

	var matcherOpts []matcher.MatcherOpt
	if config.caseInsensitive {
		matcherOpts = append(matcherOpts, matcher.WithCaseInsensitive())
	}
	machines := make([]*matcher.Machine, len(routes))
	for i, r := range routes {
		machines[i] = matcher.NewMachine(r, matcherOpts...)
	}

	var diags []route.Diagnostic
	for _, r := range routes {
		diags = append(diags, checkOrdering(r)...)
		if config.singleLiteralGroup {
			diags = append(diags, checkGrouping(r)...)
		}
	}

	for i := 0; i < len(routes); i++ {
		for j := i + 1; j < len(routes); j++ {
			a, b := routes[i], routes[j]
			if a.Shape() == b.Shape() {
				config.logger.Debug("duplicate", "a", a.Pattern(), "b", b.Pattern())
				diags = append(diags, duplicate(a, b))
				continue
			}
			witness, ok := Witness(machines[i], machines[j], config.caseInsensitive)
			if !ok {
				continue
			}
			config.logger.Debug("overlap", "a", a.Pattern(), "b", b.Pattern(), "witness", witness)
			diags = append(diags, overlapDiag(a, b, witness))
		}
	}

	route.SortDiagnostics(diags)
	return diags
}

func duplicate(a, b *route.Route) route.Diagnostic {
	return route.Diagnostic{
		Severity: route.SeverityError,
		Code:     route.CodeDuplicate,
		Template: "route %q duplicates %q (declared at %s); they accept exactly the same input",
		Args:     []any{b.Pattern(), a.Pattern(), sourceOf(a)},
		Pattern:  b.Pattern(),
		Related:  []string{a.Pattern()},
		Source:   b.Source(),
	}
}

// overlapDiag reports a pair with a common input. Equal specificity is a
// runtime tie; otherwise the higher-ranked route shadows the other for the
// witness input.
func overlapDiag(a, b *route.Route, witness []string) route.Diagnostic {
	winner, loser := a, b
	if b.Specificity() > a.Specificity() || (b.Specificity() == a.Specificity() && b.Order() < a.Order()) {
		winner, loser = b, a
	}

	if a.Specificity() == b.Specificity() {
		return route.Diagnostic{
			Severity: route.SeverityError,
			Code:     route.CodeOverlap,
			Template: "routes %q and %q both match %s with equal specificity %d",
			Args:     []any{winner.Pattern(), loser.Pattern(), quoteTokens(witness), a.Specificity()},
			Pattern:  loser.Pattern(),
			Related:  []string{winner.Pattern()},
			Source:   loser.Source(),
		}
	}
	return route.Diagnostic{
		Severity: route.SeverityWarning,
		Code:     route.CodeShadow,
		Template: "route %q shadows %q for input %s",
		Args:     []any{winner.Pattern(), loser.Pattern(), quoteTokens(witness)},
		Pattern:  loser.Pattern(),
		Related:  []string{winner.Pattern()},
		Source:   loser.Source(),
	}
}

// checkOrdering flags an optional positional parameter followed by another
// positional parameter: which one a single token fills is decided only by
// the left-first alignment rule.
func checkOrdering(r *route.Route) []route.Diagnostic {
	var diags []route.Diagnostic
	var optional *route.Parameter
	for _, seg := range r.Segments() {
		p, ok := seg.(route.Parameter)
		if !ok {
			continue
		}
		if optional != nil {
			diags = append(diags, route.Diagnostic{
				Severity: route.SeverityWarning,
				Code:     route.CodeOrdering,
				Template: "optional parameter %q is followed by parameter %q; a single token always binds to %q",
				Args:     []any{optional.Name, p.Name, optional.Name},
				Pattern:  r.Pattern(),
				Source:   r.Source(),
			})
			optional = nil
		}
		if p.Optional {
			optional = &p
		}
	}
	return diags
}

// checkGrouping flags grouped routes with more than one literal.
func checkGrouping(r *route.Route) []route.Diagnostic {
	if r.Group() == "" || r.Literals() <= 1 {
		return nil
	}
	return []route.Diagnostic{{
		Severity: route.SeverityError,
		Code:     route.CodeGrouping,
		Template: "route in group %q has %d literal segments; grouped routes are keyed by a single literal",
		Args:     []any{r.Group(), r.Literals()},
		Pattern:  r.Pattern(),
		Source:   r.Source(),
	}}
}

func sourceOf(r *route.Route) string {
	if r.Source() == "" {
		return r.String()
	}
	return r.Source()
}

func quoteTokens(tokens []string) string {
	if len(tokens) == 0 {
		return "empty input"
	}
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = `"` + tok + `"`
	}
	return "[" + strings.Join(quoted, " ") + "]"
}
