package binder

import (
	"errors"
	"math/big"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/routekit/core/route"
	"github.com/aledsdavies/routekit/runtime/matcher"
	"github.com/aledsdavies/routekit/runtime/parser"
	"github.com/aledsdavies/routekit/runtime/specificity"
	"github.com/aledsdavies/routekit/runtime/table"
)

func newRoute(t *testing.T, pattern string, params ...route.HandlerParam) *route.Route {
	t.Helper()
	segments, err := parser.Parse(pattern)
	require.NoError(t, err)
	return route.New(route.Definition{
		Pattern:     pattern,
		Segments:    segments,
		Specificity: specificity.Score(segments),
		Handler:     route.HandlerRef{Name: "handler", Params: params},
	})
}

// matchAndBind runs the full pipeline for a single route.
func matchAndBind(t *testing.T, r *route.Route, tokens ...string) (Arguments, error) {
	t.Helper()
	res := matcher.New(table.Build([]*route.Route{r})).Match(tokens)
	require.Equal(t, matcher.Matched, res.Kind, "tokens %v must match %q", tokens, r.Pattern())
	return New(NewRegistry()).Bind(r, res.Captures)
}

func TestConversionFailureNamesParameter(t *testing.T) {
	r := newRoute(t, "greet {name:int}")
	_, err := matchAndBind(t, r, "greet", "abc")
	require.Error(t, err)

	var ce *ConversionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "name", ce.Param)
	assert.Equal(t, "abc", ce.Raw)
	assert.Equal(t, "int", ce.Type)
	assert.Contains(t, err.Error(), `parameter "name": cannot convert "abc" to int`)
}

func TestCatchAllBindsOrderedList(t *testing.T) {
	r := newRoute(t, "copy {*files}")
	args, err := matchAndBind(t, r, "copy", "a.txt", "b.txt", "c.txt")
	require.NoError(t, err)

	files, ok := Lookup[[]any](args, "files")
	require.True(t, ok)
	if diff := cmp.Diff([]any{"a.txt", "b.txt", "c.txt"}, files); diff != "" {
		t.Errorf("files mismatch (-expected +actual):\n%s", diff)
	}
}

func TestTypedCatchAllConvertsEachElement(t *testing.T) {
	r := newRoute(t, "sum {*values:int}")

	args, err := matchAndBind(t, r, "sum", "1", "2", "3")
	require.NoError(t, err)
	values, _ := Lookup[[]any](args, "values")
	assert.Equal(t, []any{1, 2, 3}, values)

	_, err = matchAndBind(t, r, "sum", "1", "x", "3", "y")
	require.Error(t, err)
	failures := ConversionErrors(err)
	require.Len(t, failures, 2, "every failure is reported")
	assert.Equal(t, 1, failures[0].Index)
	assert.Equal(t, "y", failures[1].Raw)
}

func TestOptionStates(t *testing.T) {
	r := newRoute(t, "build --config? {mode?} --verbose,-v?")

	tests := []struct {
		name    string
		tokens  []string
		mode    State
		verbose bool
	}{
		{"option absent", []string{"build"}, Absent, false},
		{"option without value", []string{"build", "--config"}, NoValue, false},
		{"option with value", []string{"build", "--config", "release", "-v"}, Present, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := matchAndBind(t, r, tt.tokens...)
			require.NoError(t, err)

			mode, ok := args.Get("mode")
			require.True(t, ok)
			assert.Equal(t, tt.mode, mode.State)

			verbose, ok := args.Get("verbose")
			require.True(t, ok)
			assert.Equal(t, tt.verbose, verbose.Value)
		})
	}
}

func TestOptionalValueSeparatesAbsentFromNoValue(t *testing.T) {
	r := newRoute(t, "build --config {mode?}")

	args, err := matchAndBind(t, r, "build", "--config")
	require.NoError(t, err)
	mode, _ := args.Get("mode")
	assert.Equal(t, NoValue, mode.State)
	assert.Nil(t, mode.Value)

	args, err = matchAndBind(t, r, "build")
	require.NoError(t, err)
	mode, ok := args.Get("mode")
	require.True(t, ok)
	assert.Equal(t, Absent, mode.State)
	assert.Nil(t, mode.Value)
}

func TestAbsentIsDistinctFromZeroValues(t *testing.T) {
	r := newRoute(t, "list {limit:int?}")

	args, err := matchAndBind(t, r, "list")
	require.NoError(t, err)
	limit, _ := args.Get("limit")
	assert.Equal(t, Absent, limit.State)
	_, ok := Lookup[int](args, "limit")
	assert.False(t, ok)

	args, err = matchAndBind(t, r, "list", "0")
	require.NoError(t, err)
	n, ok := Lookup[int](args, "limit")
	assert.True(t, ok)
	assert.Equal(t, 0, n)
}

func TestBindingFollowsHandlerOrderAndTypes(t *testing.T) {
	r := newRoute(t, "deploy {env} {replicas} --force?",
		route.HandlerParam{Name: "force", Type: "bool"},
		route.HandlerParam{Name: "replicas", Type: "int"},
		route.HandlerParam{Name: "env"},
		route.HandlerParam{Name: "region", Optional: true},
	)
	args, err := matchAndBind(t, r, "deploy", "prod", "3")
	require.NoError(t, err)

	var names []string
	for _, arg := range args.All() {
		names = append(names, arg.Name)
	}
	assert.Equal(t, []string{"force", "replicas", "env", "region"}, names)

	replicas, ok := Lookup[int](args, "replicas")
	require.True(t, ok, "handler type applies to untyped captures")
	assert.Equal(t, 3, replicas)

	region, _ := args.Get("region")
	assert.Equal(t, Absent, region.State)
}

func TestBindRejectsUnsuppliedHandlerParameter(t *testing.T) {
	r := newRoute(t, "deploy {env}",
		route.HandlerParam{Name: "env"},
		route.HandlerParam{Name: "region"},
	)
	args, err := matchAndBind(t, r, "deploy", "prod")
	require.Error(t, err)

	var be *BindingError
	require.True(t, errors.As(err, &be), "%v", err)
	assert.Equal(t, "deploy {env}", be.Pattern)
	assert.Contains(t, err.Error(), `parameter "region" is not captured by the pattern`)
	assert.Equal(t, 0, args.Len())
	assert.Empty(t, ConversionErrors(err))
}

func TestBindAllowsBindingWarnings(t *testing.T) {
	r := newRoute(t, "deploy {env} {region?}",
		route.HandlerParam{Name: "env"},
		route.HandlerParam{Name: "region"},
	)
	args, err := matchAndBind(t, r, "deploy", "prod")
	require.NoError(t, err, "an optional capture for a required parameter is only a warning")
	region, _ := args.Get("region")
	assert.Equal(t, Absent, region.State)
}

func TestRepeatedOptionList(t *testing.T) {
	r := newRoute(t, "run --port,-p? {*ports:uint}")
	args, err := matchAndBind(t, r, "run", "-p", "80", "--port", "443")
	require.NoError(t, err)
	ports, ok := Lookup[[]any](args, "ports")
	require.True(t, ok)
	assert.Equal(t, []any{uint(80), uint(443)}, ports)

	args, err = matchAndBind(t, r, "run")
	require.NoError(t, err)
	arg, _ := args.Get("ports")
	assert.Equal(t, Absent, arg.State)
}

func TestUnknownTypeFailsConversion(t *testing.T) {
	r := newRoute(t, "paint {color:rgb}")
	_, err := matchAndBind(t, r, "paint", "red")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownType))
}

func TestBuiltinConverters(t *testing.T) {
	reg := NewRegistry()
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	tests := []struct {
		typ      string
		raw      string
		expected any
	}{
		{"string", "hello", "hello"},
		{"int", "-42", -42},
		{"long", "9000000000", int64(9000000000)},
		{"int64", "7", int64(7)},
		{"uint", "7", uint(7)},
		{"double", "2.5", 2.5},
		{"float", "1e3", 1000.0},
		{"bool", "true", true},
		{"bool", "off", false},
		{"guid", id.String(), id},
		{"uuid", id.String(), id},
		{"duration", "1h30m", 90 * time.Minute},
		{"duration", "1w2d", 9 * 24 * time.Hour},
		{"datetime", "2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"datetime", "2024-03-01T10:20:30Z", time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)},
		{"date", "2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"version", "1.2.3", Version("v1.2.3")},
		{"semver", "v2.0", Version("v2.0.0")},
	}
	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.raw, func(t *testing.T) {
			v, err := reg.Convert(tt.typ, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}

	d, err := reg.Convert("decimal", "12.50")
	require.NoError(t, err)
	assert.Equal(t, 0, d.(*big.Rat).Cmp(big.NewRat(25, 2)))

	u, err := reg.Convert("uri", "https://example.com/x?y=1")
	require.NoError(t, err)
	assert.Equal(t, "example.com", u.(*url.URL).Host)

	for typ, raw := range map[string]string{
		"int": "1.5", "uint": "-1", "bool": "maybe", "guid": "nope",
		"uri": "relative/path", "version": "1.2.3.4", "duration": "30m1d", "datetime": "yesterday",
	} {
		_, err := reg.Convert(typ, raw)
		assert.Error(t, err, "%s %q", typ, raw)
	}
}

func TestVersionCompare(t *testing.T) {
	a, err := ParseVersion("1.2.3")
	require.NoError(t, err)
	b, err := ParseVersion("v1.10.0")
	require.NoError(t, err)
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, "v1", a.Major())
}
