package parser

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/routekit/core/route"
)

func TestParseValidPatterns(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		expected []route.Segment
	}{
		{
			name:     "single literal",
			pattern:  "status",
			expected: []route.Segment{route.Literal{Value: "status"}},
		},
		{
			name:    "literal with interior dash",
			pattern: "add-user {name}",
			expected: []route.Segment{
				route.Literal{Value: "add-user"},
				route.Parameter{Name: "name"},
			},
		},
		{
			name:    "typed and optional parameters",
			pattern: "greet {name:string} {times:int?}",
			expected: []route.Segment{
				route.Literal{Value: "greet"},
				route.Parameter{Name: "name", Type: "string"},
				route.Parameter{Name: "times", Type: "int", Optional: true},
			},
		},
		{
			name:    "catch-all",
			pattern: "copy {*files}",
			expected: []route.Segment{
				route.Literal{Value: "copy"},
				route.Parameter{Name: "files", CatchAll: true},
			},
		},
		{
			name:    "typed catch-all",
			pattern: "sum {*values:int}",
			expected: []route.Segment{
				route.Literal{Value: "sum"},
				route.Parameter{Name: "values", Type: "int", CatchAll: true},
			},
		},
		{
			name:    "boolean flag with alias",
			pattern: "deploy {env} --force,-f",
			expected: []route.Segment{
				route.Literal{Value: "deploy"},
				route.Parameter{Name: "env"},
				route.Option{Long: "force", Short: "f"},
			},
		},
		{
			name:    "several aliases keep the first as canonical",
			pattern: "log --verbose,-v,-V,-x?",
			expected: []route.Segment{
				route.Literal{Value: "log"},
				route.Option{Long: "verbose", Short: "v", Aliases: []string{"V", "x"}, Optional: true},
			},
		},
		{
			name:    "option with value",
			pattern: "build --config {mode}",
			expected: []route.Segment{
				route.Literal{Value: "build"},
				route.Option{Long: "config", Value: &route.Parameter{Name: "mode"}},
			},
		},
		{
			name:    "option with optional value",
			pattern: "build --config {mode?}",
			expected: []route.Segment{
				route.Literal{Value: "build"},
				route.Option{Long: "config", Value: &route.Parameter{Name: "mode", Optional: true}},
			},
		},
		{
			name:    "optional option with typed value",
			pattern: "serve --port,-p? {port:int}",
			expected: []route.Segment{
				route.Literal{Value: "serve"},
				route.Option{Long: "port", Short: "p", Optional: true, Value: &route.Parameter{Name: "port", Type: "int"}},
			},
		},
		{
			name:    "repeated option",
			pattern: "run --env,-e {*vars}",
			expected: []route.Segment{
				route.Literal{Value: "run"},
				route.Option{Long: "env", Short: "e", Value: &route.Parameter{Name: "vars", CatchAll: true}},
			},
		},
		{
			name:    "options after catch-all",
			pattern: "exec {*args} --dry-run?",
			expected: []route.Segment{
				route.Literal{Value: "exec"},
				route.Parameter{Name: "args", CatchAll: true},
				route.Option{Long: "dry-run", Optional: true},
			},
		},
		{
			name:    "extra whitespace",
			pattern: "  git \t commit   {message}  ",
			expected: []route.Segment{
				route.Literal{Value: "git"},
				route.Literal{Value: "commit"},
				route.Parameter{Name: "message"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments, err := Parse(tt.pattern)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.expected, segments); diff != "" {
				t.Errorf("segments mismatch (-expected +actual):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		errType ErrorType
		column  int
		message string
	}{
		{"empty", "", ErrorMissing, 1, "empty pattern"},
		{"blank", "   ", ErrorMissing, 4, "empty pattern"},
		{"unterminated at end", "deploy {env", ErrorMissing, 8, "unterminated '{'"},
		{"unterminated before next token", "deploy {env prod", ErrorMissing, 8, "unterminated '{'"},
		{"unterminated after type colon", "deploy {env:", ErrorMissing, 8, "unterminated '{'"},
		{"empty name", "deploy {}", ErrorMissing, 9, "empty parameter name"},
		{"empty name with type", "deploy {:int}", ErrorMissing, 9, "empty parameter name"},
		{"empty type", "deploy {env:}", ErrorMissing, 13, "empty type constraint"},
		{"misplaced star", "copy {fi*les}", ErrorInvalid, 9, "catch-all marker '*' must directly follow '{'"},
		{"double star", "copy {**files}", ErrorInvalid, 8, "only one '*'"},
		{"question before type", "greet {n?:int}", ErrorInvalid, 10, "type constraint must come before '?'"},
		{"two catch-alls", "copy {*a} {*b}", ErrorInvalid, 11, "only one catch-all"},
		{"catch-all not last", "copy {*files} to", ErrorInvalid, 6, "must be the last positional segment"},
		{"catch-all before parameter", "copy {*files} {dest}", ErrorInvalid, 6, "must be the last positional segment"},
		{"missing whitespace", "deploy{env}", ErrorSyntax, 7, "expected whitespace"},
		{"word glued to parameter", "deploy {env}now", ErrorSyntax, 13, "expected whitespace"},
		{"single dash option", "list -v", ErrorInvalid, 6, "options must start with '--'"},
		{"missing option name", "list --", ErrorMissing, 8, "missing option name"},
		{"long alias", "list --verbose,--v", ErrorInvalid, 16, "aliases must be short forms"},
		{"multi-char short alias", "list --verbose,-vv", ErrorInvalid, 17, "single non-digit character"},
		{"digit short alias", "list --one,-1", ErrorInvalid, 13, "single non-digit character"},
		{"option glued to value", "build --config{mode}", ErrorSyntax, 15, "expected whitespace between --config"},
		{"option inline value", "build --config=x", ErrorSyntax, 15, "unexpected"},
		{"stray brace", "build }", ErrorSyntax, 7, "unexpected character"},
		{"bad parameter name", "get {1st}", ErrorInvalid, 6, "must start with a letter"},
		{"duplicate names", "mv {a} {a}", ErrorInvalid, 8, `duplicate parameter name "a"`},
		{"flag name clashes with parameter", "deploy {force} --force", ErrorInvalid, 16, `duplicate parameter name "force"`},
		{"duplicate option key", "x --a,-b --c,-b", ErrorInvalid, 10, "option key -b is declared twice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments, err := Parse(tt.pattern)
			require.Error(t, err)
			assert.Nil(t, segments, "errors never return partial segments")

			var pe ParseError
			require.True(t, errors.As(err, &pe), "expected ParseError, got %T", err)
			assert.Equal(t, tt.errType, pe.Type)
			assert.Equal(t, tt.column, pe.Column(), "column for %q", tt.pattern)
			assert.Contains(t, pe.Message, tt.message)
		})
	}
}

func TestParseErrorSnippet(t *testing.T) {
	_, err := Parse("deploy {env")
	require.Error(t, err)

	expected := strings.Join([]string{
		"missing: unterminated '{'",
		"  --> column 8",
		"   |",
		"   | deploy {env",
		"   |        ^",
	}, "\n")
	assert.Equal(t, expected, err.Error())
}

func TestTooManyPositionalSegments(t *testing.T) {
	parts := make([]string, MaxPositional+1)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	_, err := Parse(strings.Join(parts, " "))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many positional segments")
}

func TestCanonicalize(t *testing.T) {
	got, err := Canonicalize("  deploy   {env}  --force,-f?  --tag   {*tags} ")
	require.NoError(t, err)
	assert.Equal(t, "deploy {env} --force,-f? --tag {*tags}", got)

	_, err = Canonicalize("deploy {")
	assert.Error(t, err)
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("{") })
	assert.NotPanics(t, func() { MustParse("status") })
}

// TestRoundTrip checks parse -> print -> parse yields identical segments for
// randomly generated valid segment sequences.
func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		segments := randomSegments(rng)
		text := Print(segments)

		parsed, err := Parse(text)
		require.NoError(t, err, "pattern %q", text)
		if diff := cmp.Diff(segments, parsed); diff != "" {
			t.Fatalf("round trip of %q mismatch (-generated +parsed):\n%s", text, diff)
		}

		again, err := Parse(Print(parsed))
		require.NoError(t, err)
		if diff := cmp.Diff(parsed, again); diff != "" {
			t.Fatalf("second round trip of %q mismatch:\n%s", text, diff)
		}
	}
}

func randomSegments(rng *rand.Rand) []route.Segment {
	words := []string{"deploy", "add-user", "git", "status", "v1.2", "größe", "x?y"}
	types := []string{"", "", "int", "uuid", "version"}
	shorts := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	var segments []route.Segment
	name := 0
	nextName := func() string {
		name++
		return fmt.Sprintf("p%d", name)
	}

	positional := 1 + rng.Intn(4)
	for i := 0; i < positional; i++ {
		if i == 0 || rng.Intn(2) == 0 {
			segments = append(segments, route.Literal{Value: words[rng.Intn(len(words))]})
			continue
		}
		segments = append(segments, route.Parameter{
			Name:     nextName(),
			Type:     types[rng.Intn(len(types))],
			Optional: rng.Intn(3) == 0,
		})
	}
	if rng.Intn(3) == 0 {
		segments = append(segments, route.Parameter{Name: nextName(), CatchAll: true, Type: types[rng.Intn(len(types))]})
	}

	used := 0
	for n := rng.Intn(3); n > 0; n-- {
		opt := route.Option{Long: fmt.Sprintf("opt-%d", n), Optional: rng.Intn(2) == 0}
		if rng.Intn(2) == 0 && used < len(shorts) {
			opt.Short = shorts[used]
			used++
			if rng.Intn(3) == 0 && used < len(shorts) {
				opt.Aliases = []string{shorts[used]}
				used++
			}
		}
		if rng.Intn(2) == 0 {
			opt.Value = &route.Parameter{
				Name:     nextName(),
				Type:     types[rng.Intn(len(types))],
				Optional: rng.Intn(3) == 0,
				CatchAll: rng.Intn(4) == 0,
			}
		}
		segments = append(segments, opt)
	}
	return segments
}
