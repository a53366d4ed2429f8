// Package table holds compiled routes in dispatch order.
//
// A Table is built once and is read-only afterwards. Routes are ordered by
// specificity, highest first, with registration order breaking ties, so the
// order never depends on how the input slice happened to be arranged.
package table

import (
	"iter"
	"slices"

	"github.com/aledsdavies/routekit/core/invariant"
	"github.com/aledsdavies/routekit/core/route"
	"github.com/aledsdavies/routekit/runtime/specificity"
)

// Table is an immutable, ranked list of routes. Safe for concurrent use.
type Table struct {
	routes []*route.Route
}

// Build ranks routes by (specificity desc, registration order asc).
// The input slice is not modified.
func Build(routes []*route.Route) *Table {
	ranked := make([]*route.Route, len(routes))
	for i, r := range routes {
		invariant.NotNil(r, "route")
		ranked[i] = r
	}
	slices.SortStableFunc(ranked, specificity.Compare)
	return &Table{routes: ranked}
}

// Len returns the number of routes.
func (t *Table) Len() int { return len(t.routes) }

// At returns the route at rank i.
func (t *Table) At(i int) *route.Route {
	invariant.InRange(i, 0, len(t.routes)-1, "table index")
	return t.routes[i]
}

// All iterates routes in rank order.
func (t *Table) All() iter.Seq2[int, *route.Route] {
	return func(yield func(int, *route.Route) bool) {
		for i, r := range t.routes {
			if !yield(i, r) {
				return
			}
		}
	}
}

// Routes returns a copy of the ranked routes.
func (t *Table) Routes() []*route.Route {
	return slices.Clone(t.routes)
}

// Peers returns the ranks of routes sharing the specificity of the route at
// rank i, excluding i itself.
func (t *Table) Peers(i int) []int {
	score := t.At(i).Specificity()
	var peers []int
	for j := i - 1; j >= 0 && t.routes[j].Specificity() == score; j-- {
		peers = append(peers, j)
	}
	slices.Reverse(peers)
	for j := i + 1; j < len(t.routes) && t.routes[j].Specificity() == score; j++ {
		peers = append(peers, j)
	}
	return peers
}
