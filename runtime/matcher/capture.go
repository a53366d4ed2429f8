package matcher

import (
	"github.com/aledsdavies/routekit/core/invariant"
	"github.com/aledsdavies/routekit/core/route"
)

// CaptureKind says which kind of segment produced a capture.
type CaptureKind int

const (
	CapturePositional CaptureKind = iota
	CaptureCatchAll
	CaptureOption // Valued option, possibly repeated
	CaptureFlag
)

func (k CaptureKind) String() string {
	switch k {
	case CapturePositional:
		return "positional"
	case CaptureCatchAll:
		return "catch-all"
	case CaptureOption:
		return "option"
	case CaptureFlag:
		return "flag"
	default:
		return "unknown"
	}
}

// Capture holds the raw tokens bound to one parameter name.
//
// Present is false when the segment was not given at all. For options,
// Present with HasValue false means the option was given without its
// optional value. A catch-all is always present; Values may be empty.
type Capture struct {
	Kind     CaptureKind
	Segment  int // Index of the segment in the route
	Values   []string
	Present  bool
	HasValue bool
}

// Value returns the first captured value, or "" if there is none.
func (c Capture) Value() string {
	if len(c.Values) == 0 {
		return ""
	}
	return c.Values[0]
}

// Captures runs the machine over tokens and returns the raw captures by name.
// It reports false when the route does not accept the tokens.
//
// Positional captures use the leftmost alignment that fills optional
// parameters first: "{a?} {b?}" given one token binds it to a.
func (m *Machine) Captures(tokens []string) (map[string]Capture, bool) {
	captures := m.emptyCaptures()

	var positional []string
	s := m.Start()
	for _, tok := range tokens {
		var role Role
		s, role = m.Step(s, tok)
		switch role.Kind {
		case RoleReject:
			return nil, false
		case RolePositional:
			positional = append(positional, tok)
		case RoleOption:
			opt := m.options[role.Option]
			c := captures[opt.ParameterName()]
			c.Present = true
			if role.HasInline {
				c.Values = append(c.Values, role.Inline)
				c.HasValue = true
			}
			captures[opt.ParameterName()] = c
		case RoleValue:
			name := m.options[role.Option].ParameterName()
			c := captures[name]
			c.Values = append(c.Values, tok)
			c.HasValue = true
			captures[name] = c
		}
	}
	if !m.Accepting(s) {
		return nil, false
	}

	m.alignPositional(positional, captures)
	return captures, true
}

func (m *Machine) emptyCaptures() map[string]Capture {
	captures := make(map[string]Capture)
	for i, seg := range m.route.Segments() {
		switch s := seg.(type) {
		case route.Parameter:
			if s.CatchAll {
				captures[s.Name] = Capture{Kind: CaptureCatchAll, Segment: i, Values: []string{}, Present: true}
			} else {
				captures[s.Name] = Capture{Kind: CapturePositional, Segment: i}
			}
		case route.Option:
			kind := CaptureFlag
			if s.ExpectsValue() {
				kind = CaptureOption
			}
			captures[s.ParameterName()] = Capture{Kind: kind, Segment: i}
		}
	}
	return captures
}

// alignPositional assigns positional tokens to segments. feasible[i][j]
// reports whether segments i.. can consume exactly tokens j..; the forward
// walk then takes a token for an optional parameter whenever the rest can
// still match.
func (m *Machine) alignPositional(tokens []string, captures map[string]Capture) {
	n, t := len(m.positional), len(tokens)
	feasible := make([][]bool, n+1)
	for i := range feasible {
		feasible[i] = make([]bool, t+1)
	}
	feasible[n][t] = true

	for i := n - 1; i >= 0; i-- {
		for j := t; j >= 0; j-- {
			switch seg := m.positional[i].(type) {
			case route.Literal:
				feasible[i][j] = j < t && m.literalEqual(seg.Value, tokens[j]) && feasible[i+1][j+1]
			case route.Parameter:
				switch {
				case seg.CatchAll:
					feasible[i][j] = feasible[i+1][j] ||
						(j < t && m.accepts(&seg, tokens[j]) && feasible[i][j+1])
				case seg.Optional:
					feasible[i][j] = feasible[i+1][j] ||
						(j < t && m.accepts(&seg, tokens[j]) && feasible[i+1][j+1])
				default:
					feasible[i][j] = j < t && m.accepts(&seg, tokens[j]) && feasible[i+1][j+1]
				}
			}
		}
	}
	invariant.Invariant(feasible[0][0], "accepted route %s has no positional alignment", m.route)

	j := 0
	for i := 0; i < n; i++ {
		seg, ok := m.positional[i].(route.Parameter)
		if !ok {
			j++
			continue
		}
		c := captures[seg.Name]
		switch {
		case seg.CatchAll:
			for j < t && m.accepts(&seg, tokens[j]) && feasible[i][j+1] {
				c.Values = append(c.Values, tokens[j])
				j++
			}
			c.HasValue = len(c.Values) > 0
		case seg.Optional:
			if j < t && m.accepts(&seg, tokens[j]) && feasible[i+1][j+1] {
				c.Values = []string{tokens[j]}
				c.Present, c.HasValue = true, true
				j++
			}
		default:
			c.Values = []string{tokens[j]}
			c.Present, c.HasValue = true, true
			j++
		}
		captures[seg.Name] = c
	}
}
