// Package route defines the data model shared by every stage of routekit:
// pattern segments, compiled routes, handler references, parameter bindings
// and diagnostics.
//
// A Segment is a tagged union of Literal, Parameter and Option. Segment order
// is fixed when a pattern is parsed; routes hand out copies so that order can
// never be mutated afterwards.
package route

import (
	"slices"
	"strings"
)

// Segment is one grammatical unit of a route pattern.
// The set of implementations is closed: Literal, Parameter and Option.
type Segment interface {
	segment()
	// String returns the canonical pattern text of the segment.
	String() string
}

// Literal matches exactly one positional token with the same text.
type Literal struct {
	Value string
}

// Parameter captures positional tokens.
// A catch-all parameter absorbs every remaining positional token.
type Parameter struct {
	Name     string
	Type     string // Type constraint, empty when untyped
	Optional bool
	CatchAll bool
}

// Option is a named flag (Value == nil) or valued option.
//
// Value.Optional makes the value optional (the flag may be given bare).
// Value.CatchAll marks the option as repeatable, each occurrence adding one value.
type Option struct {
	Long     string   // Long form without the leading "--"
	Short    string   // Canonical short form without the leading "-", may be empty
	Aliases  []string // Additional short forms, match keys only
	Optional bool
	Value    *Parameter
}

func (Literal) segment()   {}
func (Parameter) segment() {}
func (Option) segment()    {}

func (l Literal) String() string { return l.Value }

func (p Parameter) String() string {
	var b strings.Builder
	b.WriteByte('{')
	if p.CatchAll {
		b.WriteByte('*')
	}
	b.WriteString(p.Name)
	if p.Type != "" {
		b.WriteByte(':')
		b.WriteString(p.Type)
	}
	if p.Optional {
		b.WriteByte('?')
	}
	b.WriteByte('}')
	return b.String()
}

func (o Option) String() string {
	var b strings.Builder
	b.WriteString("--")
	b.WriteString(o.Long)
	if o.Short != "" {
		b.WriteString(",-")
		b.WriteString(o.Short)
	}
	for _, alias := range o.Aliases {
		b.WriteString(",-")
		b.WriteString(alias)
	}
	if o.Optional {
		b.WriteByte('?')
	}
	if o.Value != nil {
		b.WriteByte(' ')
		b.WriteString(o.Value.String())
	}
	return b.String()
}

// ExpectsValue reports whether the option takes a value.
func (o Option) ExpectsValue() bool { return o.Value != nil }

// Omittable reports whether input may leave the option out: it is marked
// with "?" or its value slot is optional. Bare flags and options with a
// required value must be given.
func (o Option) Omittable() bool {
	return o.Optional || (o.Value != nil && o.Value.Optional)
}

// Repeated reports whether the option may appear more than once.
func (o Option) Repeated() bool { return o.Value != nil && o.Value.CatchAll }

// ParameterName returns the name values bind under: the value parameter's
// name for valued options, the long form for boolean flags.
func (o Option) ParameterName() string {
	if o.Value != nil {
		return o.Value.Name
	}
	return o.Long
}

// Keys returns every input token that selects this option, canonical first.
func (o Option) Keys() []string {
	keys := make([]string, 0, 2+len(o.Aliases))
	keys = append(keys, "--"+o.Long)
	if o.Short != "" {
		keys = append(keys, "-"+o.Short)
	}
	for _, alias := range o.Aliases {
		keys = append(keys, "-"+alias)
	}
	return keys
}

// IsPositional reports whether seg consumes positional tokens.
func IsPositional(seg Segment) bool {
	switch seg.(type) {
	case Literal, Parameter:
		return true
	default:
		return false
	}
}

// Format renders segments as canonical pattern text.
// Parsing the result yields the same segment sequence.
func Format(segments []Segment) string {
	parts := make([]string, len(segments))
	for i, seg := range segments {
		parts[i] = seg.String()
	}
	return strings.Join(parts, " ")
}

// Shape renders the structure of a segment sequence with parameter names and
// type constraints removed and options sorted by long form. Two routes with
// the same shape accept exactly the same inputs.
func Shape(segments []Segment) string {
	var positional []string
	var options []string
	for _, seg := range segments {
		switch s := seg.(type) {
		case Literal:
			positional = append(positional, s.Value)
		case Parameter:
			positional = append(positional, paramShape(s))
		case Option:
			keys := s.Keys()
			slices.Sort(keys[1:])
			shape := strings.Join(keys, ",")
			if s.Omittable() {
				shape += "?"
			}
			if s.Value != nil {
				shape += " " + paramShape(*s.Value)
			}
			options = append(options, shape)
		}
	}
	slices.Sort(options)
	return strings.Join(append(positional, options...), " ")
}

func paramShape(p Parameter) string {
	switch {
	case p.CatchAll:
		return "{*}"
	case p.Optional:
		return "{?}"
	default:
		return "{}"
	}
}

// cloneSegment deep-copies a segment so callers cannot alias route internals.
func cloneSegment(seg Segment) Segment {
	o, ok := seg.(Option)
	if !ok {
		return seg
	}
	o.Aliases = slices.Clone(o.Aliases)
	if o.Value != nil {
		v := *o.Value
		o.Value = &v
	}
	return o
}

// CloneSegments deep-copies a segment sequence.
func CloneSegments(segments []Segment) []Segment {
	if segments == nil {
		return nil
	}
	out := make([]Segment, len(segments))
	for i, seg := range segments {
		out[i] = cloneSegment(seg)
	}
	return out
}
