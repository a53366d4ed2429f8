// Package specificity ranks routes by how restrictive their segments are.
//
// The score is a plain sum of per-segment weights. Every weight is positive,
// so adding a segment to a pattern always raises its score, and a literal
// always outweighs any capture.
package specificity

import "github.com/aledsdavies/routekit/core/route"

// Segment weights, highest first. Only their relative order is a contract.
const (
	Literal        = 100
	TypedParameter = 60
	Parameter      = 50
	RequiredValued = 40 // Required option with a value, repeated or not
	FlagOrOptional = 20 // Boolean flag, optional parameter, omittable option
	CatchAll       = 5
)

// Weight returns the contribution of a single segment.
func Weight(seg route.Segment) int {
	switch s := seg.(type) {
	case route.Literal:
		return Literal
	case route.Parameter:
		switch {
		case s.CatchAll:
			return CatchAll
		case s.Optional:
			return FlagOrOptional
		case s.Type != "":
			return TypedParameter
		default:
			return Parameter
		}
	case route.Option:
		if s.Omittable() || !s.ExpectsValue() {
			return FlagOrOptional
		}
		return RequiredValued
	default:
		return 0
	}
}

// Score returns the specificity of a segment sequence.
func Score(segments []route.Segment) int {
	total := 0
	for _, seg := range segments {
		total += Weight(seg)
	}
	return total
}

// Compare orders two routes the way the route table does: higher specificity
// first, then earlier registration. It returns a negative number when a
// ranks before b.
func Compare(a, b *route.Route) int {
	if a.Specificity() != b.Specificity() {
		return b.Specificity() - a.Specificity()
	}
	return a.Order() - b.Order()
}
