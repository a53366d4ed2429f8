package overlap

import (
	"slices"
	"strconv"
	"strings"

	"github.com/aledsdavies/routekit/core/invariant"
	"github.com/aledsdavies/routekit/runtime/matcher"
)

// Alphabet returns one representative token for every class of tokens the
// two machines can tell apart: each literal, one fresh positional token,
// every option key bare, every long key of a valued option with an inline
// value, and the terminator. Machines only compare positional tokens with
// literals and look option tokens up by key, so any input accepted by both
// maps onto an input over this alphabet that is accepted by both.
func Alphabet(a, b *matcher.Machine, caseInsensitive bool) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(tok string) {
		if !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}

	literals := append(a.Literals(), b.Literals()...)
	for _, lit := range literals {
		add(lit)
	}
	add(freshToken(literals, caseInsensitive))
	for _, key := range append(a.OptionKeys(), b.OptionKeys()...) {
		add(key)
	}
	for _, key := range append(a.LongKeys(), b.LongKeys()...) {
		add(key + "=x")
	}
	add(matcher.Terminator)
	return out
}

// freshToken returns a positional token equal to no literal.
func freshToken(literals []string, caseInsensitive bool) string {
	for n := 0; ; n++ {
		tok := "value" + strconv.Itoa(n)
		if !slices.ContainsFunc(literals, func(lit string) bool {
			if caseInsensitive {
				return strings.EqualFold(lit, tok)
			}
			return lit == tok
		}) {
			return tok
		}
	}
}

type pair struct {
	a, b matcher.State
}

type visit struct {
	parent pair
	token  string
	root   bool
}

// Witness searches breadth-first over the product of two machines for the
// shortest token list both accept. The state space is finite, so the search
// terminates.
func Witness(a, b *matcher.Machine, caseInsensitive bool) ([]string, bool) {
	alphabet := Alphabet(a, b, caseInsensitive)

	start := pair{a.Start(), b.Start()}
	visited := map[pair]visit{start: {root: true}}
	queue := []pair{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if a.Accepting(cur.a) && b.Accepting(cur.b) {
			witness := reconstruct(visited, cur)
			invariant.Postcondition(a.Accepts(witness) && b.Accepts(witness),
				"witness %q must be accepted by %s and %s", witness, a.Route(), b.Route())
			return witness, true
		}

		for _, tok := range alphabet {
			na, _ := a.Step(cur.a, tok)
			if na.Dead {
				continue
			}
			nb, _ := b.Step(cur.b, tok)
			if nb.Dead {
				continue
			}
			next := pair{na, nb}
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = visit{parent: cur, token: tok}
			queue = append(queue, next)
		}
	}
	return nil, false
}

func reconstruct(visited map[pair]visit, end pair) []string {
	var tokens []string
	for cur := end; ; {
		v := visited[cur]
		if v.root {
			break
		}
		tokens = append(tokens, v.token)
		cur = v.parent
	}
	slices.Reverse(tokens)
	return tokens
}
