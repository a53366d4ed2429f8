package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aledsdavies/routekit/runtime/binder"
	"github.com/aledsdavies/routekit/runtime/declare"
	"github.com/aledsdavies/routekit/runtime/router"
)

// errFailed reports a failure whose details were already printed
var errFailed = errors.New("failed")

// CLIError represents a formatted CLI error with context
type CLIError struct {
	Message string
	Details string // Additional context
	Hint    string // How to fix it
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Details != "" {
		b.WriteString("\n")
		b.WriteString(e.Details)
	}
	if e.Hint != "" {
		b.WriteString("\n")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// FormatError formats an error for CLI output
func FormatError(w io.Writer, err error, p Palette) {
	if err == nil || errors.Is(err, errFailed) {
		return
	}

	var (
		cliErr      *CLIError
		noMatch     *router.NoMatchError
		ambiguous   *router.AmbiguousError
		validation  *declare.ValidationError
		conversions = binder.ConversionErrors(err)
	)
	switch {
	case errors.As(err, &cliErr):
		formatCLIError(w, cliErr, p)
	case errors.As(err, &noMatch):
		formatNoMatch(w, noMatch, p)
	case errors.As(err, &ambiguous):
		_, _ = fmt.Fprintf(w, "%s%s\n", p.Error.Render("Error: "), ambiguous.Error())
		_, _ = fmt.Fprintf(w, "%s%s\n", p.Warning.Render("Hint: "), "run 'routekit check' to see the overlapping routes")
	case errors.As(err, &validation):
		_, _ = fmt.Fprintf(w, "%s%s\n", p.Error.Render("Error: "), "invalid route declarations")
		for _, problem := range validation.Problems {
			location := problem.Location
			if location == "" {
				location = "/"
			}
			_, _ = fmt.Fprintf(w, "  %s %s\n", p.Muted.Render(location+":"), problem.Message)
		}
	case len(conversions) > 0:
		_, _ = fmt.Fprintf(w, "%s%s\n", p.Error.Render("Error: "), "cannot bind arguments")
		for _, ce := range conversions {
			_, _ = fmt.Fprintf(w, "  %s\n", ce.Error())
		}
	default:
		_, _ = fmt.Fprintf(w, "%s%s\n", p.Error.Render("Error: "), err.Error())
	}
}

// formatCLIError formats CLI errors
func formatCLIError(w io.Writer, err *CLIError, p Palette) {
	_, _ = fmt.Fprintf(w, "%s%s\n", p.Error.Render("Error: "), err.Message)

	if err.Details != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", err.Details)
	}

	if err.Hint != "" {
		_, _ = fmt.Fprintf(w, "%s%s\n", p.Warning.Render("Hint: "), err.Hint)
	}
}

// formatNoMatch prints the rejected input with usage suggestions
func formatNoMatch(w io.Writer, err *router.NoMatchError, p Palette) {
	if len(err.Tokens) == 0 {
		_, _ = fmt.Fprintf(w, "%s%s\n", p.Error.Render("Error: "), "no route matches empty input")
	} else {
		_, _ = fmt.Fprintf(w, "%sno route matches %q\n", p.Error.Render("Error: "), strings.Join(err.Tokens, " "))
	}
	if len(err.Suggestions) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "%s\n", p.Warning.Render("Did you mean:"))
	for _, r := range err.Suggestions {
		_, _ = fmt.Fprintf(w, "  %s\n", p.Accent.Render(r.Canonical()))
	}
}
