package router

import (
	"cmp"
	"slices"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/aledsdavies/routekit/core/route"
	"github.com/aledsdavies/routekit/runtime/matcher"
)

const (
	maxSuggestions  = 3
	maxTypoDistance = 2
)

// Suggest returns the routes closest to input no route accepted, best first.
// Routes are compared by their leading literals: the first one must be a
// fuzzy match or a near typo of the first positional token.
func (r *Router) Suggest(tokens []string) []*route.Route {
	words := positionalWords(tokens)
	if len(words) == 0 {
		return nil
	}

	firsts := make(map[string]int)
	var targets []string
	for _, rt := range r.table.Routes() {
		if lits := leadingLiterals(rt); len(lits) > 0 {
			if _, ok := firsts[lits[0]]; !ok {
				firsts[lits[0]] = -1
				targets = append(targets, lits[0])
			}
		}
	}
	for _, rank := range fuzzy.RankFindFold(words[0], targets) {
		firsts[rank.Target] = rank.Distance
	}
	for _, target := range targets {
		if d := typoDistance(words[0], target); d <= maxTypoDistance && (firsts[target] < 0 || d < firsts[target]) {
			firsts[target] = d
		}
	}

	type scored struct {
		route    *route.Route
		distance int
	}
	var found []scored
	for _, rt := range r.table.Routes() {
		lits := leadingLiterals(rt)
		if len(lits) == 0 || firsts[lits[0]] < 0 {
			continue
		}
		distance := firsts[lits[0]]
		for i := 1; i < len(lits) && i < len(words); i++ {
			distance += typoDistance(words[i], lits[i])
		}
		found = append(found, scored{rt, distance})
	}

	slices.SortStableFunc(found, func(a, b scored) int {
		return cmp.Compare(a.distance, b.distance)
	})
	var out []*route.Route
	for _, s := range found[:min(len(found), maxSuggestions)] {
		out = append(out, s.route)
	}
	return out
}

func typoDistance(a, b string) int {
	return fuzzy.LevenshteinDistance(strings.ToLower(a), strings.ToLower(b))
}

// positionalWords returns the tokens a route's literals could match.
func positionalWords(tokens []string) []string {
	var words []string
	for _, tok := range tokens {
		if tok == matcher.Terminator {
			break
		}
		if !matcher.IsOptionLike(tok) {
			words = append(words, tok)
		}
	}
	return words
}

// leadingLiterals returns the literal values before the first parameter.
func leadingLiterals(r *route.Route) []string {
	var lits []string
	for _, seg := range r.Segments() {
		switch s := seg.(type) {
		case route.Literal:
			lits = append(lits, s.Value)
		case route.Parameter:
			return lits
		}
	}
	return lits
}
