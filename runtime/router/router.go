// Package router ties the pattern pipeline together for an embedding.
//
// Compile parses declarations, scores them into a table, validates the set
// and reports every problem as a diagnostic. The resulting Router matches
// token lists, binds arguments and invokes registered handlers. Which
// diagnostics are fatal is the caller's decision.
package router

import (
	"errors"
	"io"
	"log/slog"

	"github.com/aledsdavies/routekit/core/route"
	"github.com/aledsdavies/routekit/runtime/binder"
	"github.com/aledsdavies/routekit/runtime/matcher"
	"github.com/aledsdavies/routekit/runtime/overlap"
	"github.com/aledsdavies/routekit/runtime/parser"
	"github.com/aledsdavies/routekit/runtime/specificity"
	"github.com/aledsdavies/routekit/runtime/table"
)

// Declaration is one route as an embedding registers it.
type Declaration struct {
	Pattern     string
	Handler     route.HandlerRef
	Group       string
	Description string
	Source      string // e.g. "routes.yaml#routes[3]"
}

// RouterOpt represents a router configuration option
type RouterOpt func(*RouterConfig)

// RouterConfig holds router configuration
type RouterConfig struct {
	registry           *binder.Registry
	handlers           *Handlers
	caseInsensitive    bool
	strictTypes        bool
	singleLiteralGroup bool
	ambiguityCheck     bool
	logger             *slog.Logger
}

// WithRegistry sets the converter registry. The default holds the built-ins.
func WithRegistry(registry *binder.Registry) RouterOpt {
	return func(c *RouterConfig) {
		c.registry = registry
	}
}

// WithHandlers sets the handler registry Dispatch invokes.
func WithHandlers(handlers *Handlers) RouterOpt {
	return func(c *RouterConfig) {
		c.handlers = handlers
	}
}

// WithCaseInsensitive matches literals without regard to case
func WithCaseInsensitive() RouterOpt {
	return func(c *RouterConfig) {
		c.caseInsensitive = true
	}
}

// WithStrictTypes lets a failed type check move on to the next candidate
// instead of failing the bind.
func WithStrictTypes() RouterOpt {
	return func(c *RouterConfig) {
		c.strictTypes = true
	}
}

// WithSingleLiteralGroups reports grouped routes with more than one literal.
func WithSingleLiteralGroups() RouterOpt {
	return func(c *RouterConfig) {
		c.singleLiteralGroup = true
	}
}

// WithoutAmbiguityCheck skips the runtime tie check
func WithoutAmbiguityCheck() RouterOpt {
	return func(c *RouterConfig) {
		c.ambiguityCheck = false
	}
}

// WithLogger sets the logger for compile and dispatch tracing
func WithLogger(logger *slog.Logger) RouterOpt {
	return func(c *RouterConfig) {
		c.logger = logger
	}
}

// Router is a compiled route set. It is read-only after Compile and safe for
// concurrent use.
type Router struct {
	table        *table.Table
	matcher      *matcher.Matcher
	binder       *binder.Binder
	handlers     *Handlers
	descriptions map[*route.Route]string
	diagnostics  []route.Diagnostic
	config       *RouterConfig
}

// Compile builds a router from declarations. A declaration whose pattern does
// not parse is left out and reported; every other problem is reported without
// dropping the route. Diagnostics come back sorted, errors first.
func Compile(decls []Declaration, opts ...RouterOpt) (*Router, []route.Diagnostic) {
	config := &RouterConfig{
		ambiguityCheck: true,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(config)
	}
	if config.registry == nil {
		config.registry = binder.NewRegistry()
	}
	if config.handlers == nil {
		config.handlers = NewHandlers()
	}

	var diags []route.Diagnostic
	var routes []*route.Route
	descriptions := make(map[*route.Route]string)

	for i, decl := range decls {
		segments, err := parser.Parse(decl.Pattern, parser.WithLogger(config.logger))
		if err != nil {
			diags = append(diags, parseDiagnostic(decl, err))
			continue
		}

		r := route.New(route.Definition{
			Pattern:     decl.Pattern,
			Segments:    segments,
			Specificity: specificity.Score(segments),
			Order:       i,
			Handler:     decl.Handler,
			Group:       decl.Group,
			Source:      decl.Source,
		})
		routes = append(routes, r)
		descriptions[r] = decl.Description

		diags = append(diags, unknownTypes(r, config.registry)...)
		_, bindingDiags := route.Bindings(r)
		diags = append(diags, bindingDiags...)

		config.logger.Debug("route compiled", "pattern", r.Pattern(), "specificity", r.Specificity(), "source", r.Source())
	}

	var validatorOpts []overlap.ValidatorOpt
	var matcherOpts []matcher.MatcherOpt
	validatorOpts = append(validatorOpts, overlap.WithLogger(config.logger))
	matcherOpts = append(matcherOpts, matcher.WithLogger(config.logger))
	if config.caseInsensitive {
		validatorOpts = append(validatorOpts, overlap.WithCaseInsensitive())
		matcherOpts = append(matcherOpts, matcher.WithCaseInsensitive())
	}
	if config.singleLiteralGroup {
		validatorOpts = append(validatorOpts, overlap.WithSingleLiteralGroups())
	}
	if config.strictTypes {
		matcherOpts = append(matcherOpts, matcher.WithStrictTypes(config.registry))
	}
	if !config.ambiguityCheck {
		matcherOpts = append(matcherOpts, matcher.WithoutAmbiguityCheck())
	}

	diags = append(diags, overlap.Validate(routes, validatorOpts...)...)
	route.SortDiagnostics(diags)

	tbl := table.Build(routes)
	config.logger.Debug("route set compiled",
		"routes", tbl.Len(),
		"errors", route.Count(diags, route.SeverityError),
		"warnings", route.Count(diags, route.SeverityWarning))

	return &Router{
		table:        tbl,
		matcher:      matcher.New(tbl, matcherOpts...),
		binder:       binder.New(config.registry),
		handlers:     config.handlers,
		descriptions: descriptions,
		diagnostics:  diags,
		config:       config,
	}, diags
}

// Table returns the ranked route table
func (r *Router) Table() *table.Table { return r.table }

// Diagnostics returns the diagnostics of Compile
func (r *Router) Diagnostics() []route.Diagnostic {
	return append([]route.Diagnostic(nil), r.diagnostics...)
}

// Handlers returns the handler registry Dispatch invokes
func (r *Router) Handlers() *Handlers { return r.handlers }

// Description returns the declared description of a route
func (r *Router) Description(rt *route.Route) string { return r.descriptions[rt] }

func parseDiagnostic(decl Declaration, err error) route.Diagnostic {
	d := route.Diagnostic{
		Severity: route.SeverityError,
		Code:     route.CodeParse,
		Template: "%s",
		Args:     []any{err.Error()},
		Pattern:  decl.Pattern,
		Source:   decl.Source,
	}
	var pe parser.ParseError
	if errors.As(err, &pe) {
		d.Template = "invalid pattern %q: %s"
		d.Args = []any{decl.Pattern, pe.Message}
		d.Column = pe.Column()
	}
	return d
}

// unknownTypes reports type constraints, on segments or handler parameters,
// that no converter is registered for.
func unknownTypes(r *route.Route, registry *binder.Registry) []route.Diagnostic {
	var diags []route.Diagnostic
	reported := make(map[[2]string]bool)
	report := func(param, typ string) {
		if typ == "" || registry.Known(typ) || reported[[2]string{param, typ}] {
			return
		}
		reported[[2]string{param, typ}] = true
		diags = append(diags, route.Diagnostic{
			Severity: route.SeverityError,
			Code:     route.CodeUnknownType,
			Template: "parameter %q has unknown type %q",
			Args:     []any{param, typ},
			Pattern:  r.Pattern(),
			Source:   r.Source(),
		})
	}

	for _, seg := range r.Segments() {
		switch s := seg.(type) {
		case route.Parameter:
			report(s.Name, s.Type)
		case route.Option:
			if s.Value != nil {
				report(s.Value.Name, s.Value.Type)
			}
		}
	}
	for _, hp := range r.Handler().Params {
		report(hp.Name, hp.Type)
	}
	return diags
}
