package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/aledsdavies/routekit/core/route"
	"github.com/aledsdavies/routekit/runtime/binder"
	"github.com/aledsdavies/routekit/runtime/matcher"
)

// NoMatchError reports input no route accepts.
type NoMatchError struct {
	Tokens      []string
	Suggestions []*route.Route // Closest routes, best first
}

func (e *NoMatchError) Error() string {
	var b strings.Builder
	if len(e.Tokens) == 0 {
		b.WriteString("no route matches empty input")
	} else {
		fmt.Fprintf(&b, "no route matches %q", strings.Join(e.Tokens, " "))
	}
	if len(e.Suggestions) > 0 {
		b.WriteString("; did you mean ")
		for i, r := range e.Suggestions {
			if i > 0 {
				b.WriteString(" or ")
			}
			fmt.Fprintf(&b, "%q", r.Pattern())
		}
		b.WriteByte('?')
	}
	return b.String()
}

// AmbiguousError reports input several equally specific routes accept.
// It only happens when the overlap errors of Compile were ignored.
type AmbiguousError struct {
	Tokens []string
	Routes []*route.Route
}

func (e *AmbiguousError) Error() string {
	patterns := make([]string, len(e.Routes))
	for i, r := range e.Routes {
		patterns[i] = fmt.Sprintf("%q", r.Pattern())
	}
	return fmt.Sprintf("input %q is ambiguous between %s", strings.Join(e.Tokens, " "), strings.Join(patterns, " and "))
}

// Invocation is a matched and bound route.
type Invocation struct {
	Route    *route.Route
	Args     binder.Arguments
	Captures map[string]matcher.Capture
}

// Match runs the matcher without binding.
func (r *Router) Match(tokens []string) matcher.Result {
	return r.matcher.Match(tokens)
}

// Resolve matches tokens and binds the winner's arguments. It returns a
// *NoMatchError, an *AmbiguousError, or the joined conversion errors of the
// matched route.
func (r *Router) Resolve(tokens []string) (Invocation, error) {
	res := r.matcher.Match(tokens)
	switch res.Kind {
	case matcher.NoMatch:
		return Invocation{}, &NoMatchError{
			Tokens:      res.Tokens,
			Suggestions: r.Suggest(res.Tokens),
		}
	case matcher.Ambiguous:
		return Invocation{}, &AmbiguousError{
			Tokens: res.Tokens,
			Routes: append([]*route.Route{res.Route}, res.Conflicts...),
		}
	}

	args, err := r.binder.Bind(res.Route, res.Captures)
	inv := Invocation{Route: res.Route, Args: args, Captures: res.Captures}
	if err != nil {
		return inv, fmt.Errorf("route %q: %w", res.Route.Pattern(), err)
	}
	return inv, nil
}

// Dispatch resolves tokens and invokes the handler the matched route names.
func (r *Router) Dispatch(ctx context.Context, tokens []string) error {
	inv, err := r.Resolve(tokens)
	if err != nil {
		r.config.logger.Debug("dispatch failed", "tokens", tokens, "error", err)
		return err
	}

	name := inv.Route.Handler().Name
	fn, ok := r.handlers.Lookup(name)
	if !ok {
		return fmt.Errorf("route %q: %w %q", inv.Route.Pattern(), ErrNoHandler, name)
	}

	r.config.logger.Debug("dispatch", "route", inv.Route.Pattern(), "handler", name)
	return fn(ctx, inv.Args)
}
