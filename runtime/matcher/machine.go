package matcher

import (
	"math/bits"
	"strings"

	"github.com/aledsdavies/routekit/core/invariant"
	"github.com/aledsdavies/routekit/core/route"
	"github.com/aledsdavies/routekit/runtime/parser"
)

// RoleKind says how a machine consumed a token.
type RoleKind int

const (
	RoleReject     RoleKind = iota // Token killed the candidate
	RolePositional                 // Fed to the positional segments
	RoleOption                     // Option key, possibly with an inline value
	RoleValue                      // Value of the pending option
	RoleTerminator                 // "--"
)

func (k RoleKind) String() string {
	switch k {
	case RolePositional:
		return "positional"
	case RoleOption:
		return "option"
	case RoleValue:
		return "value"
	case RoleTerminator:
		return "terminator"
	default:
		return "reject"
	}
}

// Role describes one consumed token.
type Role struct {
	Kind      RoleKind
	Option    int    // Option index for RoleOption and RoleValue
	Inline    string // Inline value of "--key=value"
	HasInline bool
}

// noPending marks a State with no option waiting for its value.
const noPending = -1

// State is a machine configuration between tokens. It is comparable, so the
// overlap validator can use it as a map key.
type State struct {
	Positions       uint64 // Reachable positional states, closed under optional skips
	Seen            uint64 // Options already given
	Pending         int    // Option awaiting its value, or noPending
	AfterTerminator bool
	Dead            bool
}

// Machine is the match predicate for one route: a deterministic option
// scanner in front of an NFA over the positional segments. Positional state i
// means "segment i is next"; state len(positional) is the end.
//
// The matcher runs machines on concrete tokens and the overlap validator runs
// them on representative tokens, so both agree on what a route accepts.
type Machine struct {
	route      *route.Route
	positional []route.Segment
	options    []route.Option
	keys       map[string]int
	required   uint64 // Options that must be given
	fold       bool
	checker    TypeChecker
}

// NewMachine compiles a route. Only the case-sensitivity and strict-type
// options affect a machine.
func NewMachine(r *route.Route, opts ...MatcherOpt) *Machine {
	invariant.NotNil(r, "route")
	config := newConfig(opts)

	m := &Machine{
		route:   r,
		keys:    make(map[string]int),
		fold:    config.caseInsensitive,
		checker: config.checker,
	}
	for _, seg := range r.Segments() {
		switch s := seg.(type) {
		case route.Option:
			idx := len(m.options)
			m.options = append(m.options, s)
			for _, key := range s.Keys() {
				m.keys[key] = idx
			}
			if !s.Omittable() {
				m.required |= 1 << idx
			}
		default:
			m.positional = append(m.positional, seg)
		}
	}

	invariant.Invariant(len(m.positional) <= parser.MaxPositional,
		"route %s has %d positional segments", r, len(m.positional))
	invariant.Invariant(len(m.options) <= parser.MaxOptions,
		"route %s has %d options", r, len(m.options))
	return m
}

// Route returns the compiled route.
func (m *Machine) Route() *route.Route { return m.route }

// Literals returns the literal values of the route in pattern order.
func (m *Machine) Literals() []string {
	var out []string
	for _, seg := range m.positional {
		if lit, ok := seg.(route.Literal); ok {
			out = append(out, lit.Value)
		}
	}
	return out
}

// OptionKeys returns every option key of the route.
func (m *Machine) OptionKeys() []string {
	var out []string
	for _, opt := range m.options {
		out = append(out, opt.Keys()...)
	}
	return out
}

// LongKeys returns the "--long" key of every valued option.
func (m *Machine) LongKeys() []string {
	var out []string
	for _, opt := range m.options {
		if opt.ExpectsValue() {
			out = append(out, "--"+opt.Long)
		}
	}
	return out
}

// Start returns the state before any token.
func (m *Machine) Start() State {
	return State{Positions: m.closure(1), Pending: noPending}
}

// Step consumes one token.
func (m *Machine) Step(s State, tok string) (State, Role) {
	if s.Dead {
		return s, Role{Kind: RoleReject}
	}

	if s.AfterTerminator {
		return m.stepPositional(s, tok)
	}

	if s.Pending != noPending {
		idx := s.Pending
		s.Pending = noPending
		if tok != Terminator && !IsOptionLike(tok) {
			if !m.accepts(m.options[idx].Value, tok) {
				return dead(s)
			}
			return s, Role{Kind: RoleValue, Option: idx}
		}
		if !m.options[idx].Value.Optional {
			return dead(s)
		}
	}

	if tok == Terminator {
		s.AfterTerminator = true
		return s, Role{Kind: RoleTerminator}
	}
	if !IsOptionLike(tok) {
		return m.stepPositional(s, tok)
	}

	key, value, inline := splitInline(tok)
	idx, ok := m.keys[key]
	if !ok {
		return dead(s)
	}
	opt := m.options[idx]
	bit := uint64(1) << idx
	if s.Seen&bit != 0 && !opt.Repeated() {
		return dead(s)
	}
	s.Seen |= bit

	role := Role{Kind: RoleOption, Option: idx}
	switch {
	case !opt.ExpectsValue():
		if inline {
			return dead(s)
		}
	case inline:
		if !m.accepts(opt.Value, value) {
			return dead(s)
		}
		role.Inline, role.HasInline = value, true
	default:
		s.Pending = idx
	}
	return s, role
}

// Accepting reports whether input may end in state s.
func (m *Machine) Accepting(s State) bool {
	if s.Dead {
		return false
	}
	if s.Pending != noPending && !m.options[s.Pending].Value.Optional {
		return false
	}
	end := uint64(1) << len(m.positional)
	return s.Positions&end != 0 && m.required&^s.Seen == 0
}

// Accepts runs the machine over tokens.
func (m *Machine) Accepts(tokens []string) bool {
	s := m.Start()
	for _, tok := range tokens {
		if s, _ = m.Step(s, tok); s.Dead {
			return false
		}
	}
	return m.Accepting(s)
}

func dead(s State) (State, Role) {
	s.Dead = true
	return s, Role{Kind: RoleReject}
}

func (m *Machine) stepPositional(s State, tok string) (State, Role) {
	var next uint64
	for set := s.Positions; set != 0; set &= set - 1 {
		i := bits.TrailingZeros64(set)
		if i >= len(m.positional) {
			continue
		}
		switch seg := m.positional[i].(type) {
		case route.Literal:
			if m.literalEqual(seg.Value, tok) {
				next |= 1 << (i + 1)
			}
		case route.Parameter:
			if !m.accepts(&seg, tok) {
				continue
			}
			if seg.CatchAll {
				next |= 1 << i
			} else {
				next |= 1 << (i + 1)
			}
		}
	}

	s.Positions = m.closure(next)
	if s.Positions == 0 {
		return dead(s)
	}
	return s, Role{Kind: RolePositional}
}

// closure adds the states reachable by skipping optional parameters and
// empty catch-alls. Skips only move forward, so one ascending pass suffices.
func (m *Machine) closure(set uint64) uint64 {
	for i, seg := range m.positional {
		if set&(1<<i) == 0 {
			continue
		}
		if p, ok := seg.(route.Parameter); ok && (p.Optional || p.CatchAll) {
			set |= 1 << (i + 1)
		}
	}
	return set
}

func (m *Machine) literalEqual(literal, tok string) bool {
	if m.fold {
		return strings.EqualFold(literal, tok)
	}
	return literal == tok
}

// accepts applies the strict type check, if configured.
func (m *Machine) accepts(p *route.Parameter, raw string) bool {
	if m.checker == nil || p.Type == "" {
		return true
	}
	return m.checker.Accepts(p.Type, raw)
}
