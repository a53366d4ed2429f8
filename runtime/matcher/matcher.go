// Package matcher selects the route a token list invokes.
//
// Candidates are tried in table order, most specific first, and the first
// route that accepts every token wins. Each route is compiled into a Machine;
// the overlap validator runs the same machines, so a route set it accepts
// cannot tie at runtime.
package matcher

import (
	"io"
	"log/slog"
	"slices"

	"github.com/aledsdavies/routekit/core/invariant"
	"github.com/aledsdavies/routekit/core/route"
	"github.com/aledsdavies/routekit/runtime/table"
)

// TypeChecker decides whether a raw token converts to a named type.
// The binder's converter registry implements it.
type TypeChecker interface {
	Accepts(typ, raw string) bool
}

// MatcherOpt represents a matcher configuration option
type MatcherOpt func(*MatcherConfig)

// MatcherConfig holds matcher configuration
type MatcherConfig struct {
	caseInsensitive bool
	checker         TypeChecker
	ambiguityCheck  bool
	logger          *slog.Logger
}

// WithCaseInsensitive matches literals without regard to case.
// Option keys are always case-sensitive.
func WithCaseInsensitive() MatcherOpt {
	return func(c *MatcherConfig) {
		c.caseInsensitive = true
	}
}

// WithStrictTypes makes typed parameters reject tokens the checker cannot
// convert, so the next candidate gets a chance. Without it, type errors
// surface when binding.
func WithStrictTypes(checker TypeChecker) MatcherOpt {
	return func(c *MatcherConfig) {
		c.checker = checker
	}
}

// WithoutAmbiguityCheck stops at the first accepting candidate without
// checking its equal-specificity peers.
func WithoutAmbiguityCheck() MatcherOpt {
	return func(c *MatcherConfig) {
		c.ambiguityCheck = false
	}
}

// WithLogger traces candidate decisions at debug level
func WithLogger(logger *slog.Logger) MatcherOpt {
	return func(c *MatcherConfig) {
		c.logger = logger
	}
}

func newConfig(opts []MatcherOpt) *MatcherConfig {
	config := &MatcherConfig{
		ambiguityCheck: true,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// Kind is the outcome of a match.
type Kind int

const (
	NoMatch Kind = iota
	Matched
	Ambiguous // Several equal-specificity routes accept the input
)

func (k Kind) String() string {
	switch k {
	case Matched:
		return "matched"
	case Ambiguous:
		return "ambiguous"
	default:
		return "no match"
	}
}

// Result is the outcome of Match.
type Result struct {
	Kind     Kind
	Route    *route.Route       // Winning route, or the first of an ambiguous set
	Captures map[string]Capture // Raw captures of Route when Kind is Matched
	Tokens   []string           // Input tokens

	// Candidates lists every route in rank order when Kind is NoMatch.
	Candidates []*route.Route
	// Conflicts lists the other accepting routes when Kind is Ambiguous.
	Conflicts []*route.Route
}

// Matcher dispatches token lists against a route table.
// It is read-only after New and safe for concurrent use.
type Matcher struct {
	table    *table.Table
	machines []*Machine
	config   *MatcherConfig
}

// New compiles every route of the table.
func New(tbl *table.Table, opts ...MatcherOpt) *Matcher {
	invariant.NotNil(tbl, "table")
	config := newConfig(opts)

	m := &Matcher{
		table:    tbl,
		machines: make([]*Machine, 0, tbl.Len()),
		config:   config,
	}
	for _, r := range tbl.All() {
		m.machines = append(m.machines, NewMachine(r, opts...))
	}
	return m
}

// Table returns the table the matcher dispatches against.
func (m *Matcher) Table() *table.Table { return m.table }

// Match finds the route the tokens invoke.
func (m *Matcher) Match(tokens []string) Result {
	tokens = slices.Clone(tokens)
	logger := m.config.logger

	for rank, machine := range m.machines {
		captures, ok := machine.Captures(tokens)
		if !ok {
			logger.Debug("candidate rejected", "rank", rank, "route", machine.Route().Pattern())
			continue
		}

		if m.config.ambiguityCheck {
			if conflicts := m.conflicts(rank, tokens); len(conflicts) > 0 {
				logger.Debug("ambiguous match", "route", machine.Route().Pattern(), "conflicts", len(conflicts))
				return Result{
					Kind:      Ambiguous,
					Route:     machine.Route(),
					Tokens:    tokens,
					Conflicts: conflicts,
				}
			}
		}

		logger.Debug("matched", "rank", rank, "route", machine.Route().Pattern())
		return Result{
			Kind:     Matched,
			Route:    machine.Route(),
			Captures: captures,
			Tokens:   tokens,
		}
	}

	logger.Debug("no match", "tokens", tokens, "candidates", len(m.machines))
	return Result{
		Kind:       NoMatch,
		Tokens:     tokens,
		Candidates: m.table.Routes(),
	}
}

// conflicts returns the lower-ranked routes of equal specificity that also
// accept tokens. Higher-ranked peers already failed.
func (m *Matcher) conflicts(rank int, tokens []string) []*route.Route {
	var out []*route.Route
	for _, peer := range m.table.Peers(rank) {
		if peer > rank && m.machines[peer].Accepts(tokens) {
			out = append(out, m.machines[peer].Route())
		}
	}
	return out
}
