package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/aledsdavies/routekit/core/route"
	"github.com/aledsdavies/routekit/runtime/router"
)

// DisplayDiagnostics renders diagnostics followed by a summary line
func DisplayDiagnostics(w io.Writer, diags []route.Diagnostic, p Palette) {
	for _, d := range diags {
		label := fmt.Sprintf("%s[%s]", d.Severity, d.Code)
		switch d.Severity {
		case route.SeverityError:
			label = p.Error.Render(label)
		case route.SeverityWarning:
			label = p.Warning.Render(label)
		default:
			label = p.Info.Render(label)
		}

		_, _ = fmt.Fprintf(w, "%s: %s\n", label, d.Message())
		if d.Source != "" {
			_, _ = fmt.Fprintf(w, "  %s %s\n", p.Muted.Render("-->"), d.Source)
		}
		if d.Column > 0 {
			_, _ = fmt.Fprintf(w, "   %s %s\n", p.Muted.Render("|"), d.Pattern)
			_, _ = fmt.Fprintf(w, "   %s %s%s\n", p.Muted.Render("|"), strings.Repeat(" ", d.Column-1), p.Error.Render("^"))
		}
		for _, related := range d.Related {
			_, _ = fmt.Fprintf(w, "   %s %s\n", p.Muted.Render("= see"), related)
		}
	}

	errs := route.Count(diags, route.SeverityError)
	warnings := route.Count(diags, route.SeverityWarning)
	summary := fmt.Sprintf("%s, %s", plural(errs, "error"), plural(warnings, "warning"))
	switch {
	case errs > 0:
		summary = p.Error.Render(summary)
	case warnings > 0:
		summary = p.Warning.Render(summary)
	default:
		summary = p.Success.Render(summary)
	}
	_, _ = fmt.Fprintln(w, summary)
}

// DisplayTable renders the ranked route table as a tree
func DisplayTable(w io.Writer, name string, r *router.Router, fingerprint string, p Palette) {
	tbl := r.Table()
	_, _ = fmt.Fprintf(w, "%s %s\n", p.Bold.Render(name+":"), p.Muted.Render(fmt.Sprintf("(%s, %s)", plural(tbl.Len(), "route"), fingerprint)))
	if tbl.Len() == 0 {
		_, _ = fmt.Fprintf(w, "(no routes)\n")
		return
	}

	width := 0
	for _, rt := range tbl.All() {
		width = max(width, len(rt.Canonical()))
	}
	for i, rt := range tbl.All() {
		prefix := "├─ "
		if i == tbl.Len()-1 {
			prefix = "└─ "
		}
		line := fmt.Sprintf("%s%4d  %-*s  %s %s", prefix, rt.Specificity(), width, rt.Canonical(),
			p.Muted.Render("->"), p.Accent.Render(rt.Handler().Name))
		if desc := r.Description(rt); desc != "" {
			line += "  " + p.Muted.Render(desc)
		}
		_, _ = fmt.Fprintln(w, line)
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
