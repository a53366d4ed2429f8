package route

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Severity ranks diagnostics. The embedding decides which severities are fatal.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Code classifies a diagnostic.
type Code string

const (
	CodeParse       Code = "parse"        // Malformed pattern
	CodeDuplicate   Code = "duplicate"    // Identical shapes
	CodeOverlap     Code = "overlap"      // Equal specificity, common input
	CodeShadow      Code = "shadow"       // Different specificity, common input
	CodeOrdering    Code = "ordering"     // Optional positional before another positional
	CodeGrouping    Code = "grouping"     // Grouped route with several literals
	CodeUnknownType Code = "unknown-type" // Type constraint without a converter
	CodeBinding     Code = "binding"      // Handler parameters and captures disagree
)

// Diagnostic is a structured problem report about one or more routes.
// Message text is produced from Template and Args so front ends can localise
// or restyle it.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Template string
	Args     []any
	Pattern  string   // Offending pattern text
	Related  []string // Other patterns involved, e.g. the overlapping peer
	Source   string   // Declaration source, e.g. "routes.yaml#routes[2]"
	Column   int      // 1-based column in Pattern, 0 when not applicable
}

// Message renders the diagnostic text.
func (d Diagnostic) Message() string {
	if len(d.Args) == 0 {
		return d.Template
	}
	return fmt.Sprintf(d.Template, d.Args...)
}

// String renders "severity[code] source: message".
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.Severity.String())
	b.WriteByte('[')
	b.WriteString(string(d.Code))
	b.WriteByte(']')
	if d.Source != "" {
		b.WriteByte(' ')
		b.WriteString(d.Source)
		if d.Column > 0 {
			fmt.Fprintf(&b, ":%d", d.Column)
		}
	}
	b.WriteString(": ")
	b.WriteString(d.Message())
	return b.String()
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	return slices.ContainsFunc(diags, func(d Diagnostic) bool {
		return d.Severity == SeverityError
	})
}

// Count returns the number of diagnostics at the given severity.
func Count(diags []Diagnostic, sev Severity) int {
	n := 0
	for _, d := range diags {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// SortDiagnostics orders diagnostics by severity, then source, then message.
// The sort is stable so equal diagnostics keep their discovery order.
func SortDiagnostics(diags []Diagnostic) {
	slices.SortStableFunc(diags, func(a, b Diagnostic) int {
		return cmp.Or(
			cmp.Compare(a.Severity, b.Severity),
			cmp.Compare(a.Source, b.Source),
			cmp.Compare(a.Message(), b.Message()),
		)
	})
}
