package route

import (
	"fmt"

	"github.com/aledsdavies/routekit/core/invariant"
)

// HandlerParam describes one parameter of the handler a route dispatches to.
type HandlerParam struct {
	Name     string
	Type     string // Type name understood by the binder, empty for string
	Optional bool
}

// HandlerRef is an opaque reference to the code a route invokes.
// The core only reads its name and parameter metadata; invocation belongs to
// the embedding.
type HandlerRef struct {
	Name   string
	Params []HandlerParam
}

// Arity returns the number of handler parameters.
func (h HandlerRef) Arity() int { return len(h.Params) }

// Param looks up a handler parameter by name.
func (h HandlerRef) Param(name string) (HandlerParam, bool) {
	for _, p := range h.Params {
		if p.Name == name {
			return p, true
		}
	}
	return HandlerParam{}, false
}

// Definition carries everything needed to construct a Route.
type Definition struct {
	Pattern     string
	Segments    []Segment
	Specificity int
	Order       int // Registration order, the tie-break for equal specificity
	Handler     HandlerRef
	Group       string // Registration context, e.g. the command group a route was declared under
	Source      string // Where the route was declared, for diagnostics
}

// Route is a compiled pattern. It is immutable after New.
type Route struct {
	pattern     string
	segments    []Segment
	specificity int
	order       int
	handler     HandlerRef
	group       string
	source      string
}

// New builds a Route from a definition, copying every slice it is given.
func New(def Definition) *Route {
	invariant.Precondition(len(def.Segments) > 0, "route %q must have segments", def.Pattern)
	invariant.Precondition(def.Order >= 0, "registration order must be non-negative, got %d", def.Order)

	handler := def.Handler
	if handler.Params != nil {
		handler.Params = append([]HandlerParam(nil), handler.Params...)
	}

	return &Route{
		pattern:     def.Pattern,
		segments:    CloneSegments(def.Segments),
		specificity: def.Specificity,
		order:       def.Order,
		handler:     handler,
		group:       def.Group,
		source:      def.Source,
	}
}

func (r *Route) Pattern() string  { return r.pattern }
func (r *Route) Specificity() int { return r.specificity }
func (r *Route) Order() int       { return r.order }
func (r *Route) Group() string    { return r.group }
func (r *Route) Source() string   { return r.source }
func (r *Route) Len() int         { return len(r.segments) }

// Handler returns the route's handler reference with its own copy of Params.
func (r *Route) Handler() HandlerRef {
	h := r.handler
	if h.Params != nil {
		h.Params = append([]HandlerParam(nil), h.Params...)
	}
	return h
}

// Segment returns the i-th segment.
func (r *Route) Segment(i int) Segment {
	invariant.InRange(i, 0, len(r.segments)-1, "segment index")
	return cloneSegment(r.segments[i])
}

// Segments returns a copy of the route's segments in pattern order.
func (r *Route) Segments() []Segment {
	return CloneSegments(r.segments)
}

// Canonical returns the canonical pattern text.
func (r *Route) Canonical() string { return Format(r.segments) }

// Shape returns the name-free structure used for duplicate detection.
func (r *Route) Shape() string { return Shape(r.segments) }

// Literals returns the number of literal segments.
func (r *Route) Literals() int {
	n := 0
	for _, seg := range r.segments {
		if _, ok := seg.(Literal); ok {
			n++
		}
	}
	return n
}

// String identifies the route in logs and diagnostics.
func (r *Route) String() string {
	return fmt.Sprintf("#%d %q", r.order, r.pattern)
}
