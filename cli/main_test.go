package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/routekit/runtime/binder"
)

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCheckCleanFile(t *testing.T) {
	code, stdout, stderr := execute(t, "check", "testdata/routes.yaml")
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "0 errors, 0 warnings\n", stdout)
}

func TestCheckReportsOverlaps(t *testing.T) {
	code, stdout, _ := execute(t, "check", "testdata/overlap.yaml")
	assert.Equal(t, 1, code)

	expected := `error[duplicate]: route "status" duplicates "status" (declared at testdata/overlap.yaml#routes[0]); they accept exactly the same input
  --> testdata/overlap.yaml#routes[1]
   = see status
warning[shadow]: route "deploy prod" shadows "deploy {env}" for input ["deploy" "prod"]
  --> testdata/overlap.yaml#routes[2]
   = see deploy prod
1 error, 1 warning
`
	if diff := cmp.Diff(expected, stdout); diff != "" {
		t.Errorf("check output mismatch (-expected +actual):\n%s", diff)
	}
}

func TestCheckStrictFailsOnWarnings(t *testing.T) {
	code, stdout, _ := execute(t, "check", "testdata/shadow.jsonc")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "warning[shadow]")

	code, _, _ = execute(t, "check", "--strict", "testdata/shadow.jsonc")
	assert.Equal(t, 1, code)
}

func TestCheckShowsParseErrorColumn(t *testing.T) {
	code, stdout, _ := execute(t, "check", "testdata/bad.toml")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, `error[parse]: invalid pattern "greet {name": unterminated '{'`)
	assert.Contains(t, stdout, "   | greet {name\n   | "+strings.Repeat(" ", 6)+"^\n")
}

func TestCheckInputErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{"missing file argument", []string{"check"}, []string{"Error: missing declaration file", "Hint: "}},
		{"schema violation", []string{"check", "testdata/invalid.json"}, []string{"invalid route declarations", "/routes/0"}},
		{"unknown format", []string{"check", "routes.ini"}, []string{"unsupported declaration format"}},
		{"missing file", []string{"check", "testdata/nope.yaml"}, []string{"reading testdata/nope.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := execute(t, tt.args...)
			assert.Equal(t, 1, code)
			for _, want := range tt.expected {
				assert.Contains(t, stderr, want)
			}
		})
	}
}

func TestMatchPrintsBoundArguments(t *testing.T) {
	code, stdout, stderr := execute(t, "match", "testdata/routes.yaml", "--", "deploy", "prod", "--force")
	require.Equal(t, 0, code, stderr)

	var out matchOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "deploy {env} --force,-f?", out.Route)
	assert.Equal(t, "deploy", out.Handler)
	assert.Equal(t, 170, out.Specificity)
	assert.Equal(t, "testdata/routes.yaml#routes[0]", out.Source)

	expected := []argumentOutput{
		{Name: "env", State: "present", Value: "prod", Raw: []string{"prod"}},
		{Name: "force", State: "present", Value: true, Type: "bool"},
	}
	if diff := cmp.Diff(expected, out.Arguments); diff != "" {
		t.Errorf("arguments mismatch (-expected +actual):\n%s", diff)
	}
}

func TestMatchConvertsTypedValues(t *testing.T) {
	code, stdout, stderr := execute(t, "match", "testdata/routes.yaml", "--", "wait", "90s")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `"value": "1m30s"`)

	code, stdout, _ = execute(t, "match", "testdata/routes.yaml", "--", "wait")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `"state": "absent"`)
	assert.Contains(t, stdout, `"value": null`)
}

func TestMatchNoMatchSuggests(t *testing.T) {
	code, stdout, stderr := execute(t, "match", "testdata/routes.yaml", "--", "deplyo", "prod")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, `Error: no route matches "deplyo prod"`)
	assert.Contains(t, stderr, "Did you mean:\n  deploy {env} --replicas,-r {count:int}\n  deploy {env} --force,-f?\n")
}

func TestMatchConversionFailure(t *testing.T) {
	code, _, stderr := execute(t, "match", "testdata/routes.yaml", "--", "deploy", "prod", "-r", "many")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Error: cannot bind arguments")
	assert.Contains(t, stderr, `parameter "count": cannot convert "many" to int`)
}

func TestMatchStrictTypesFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "greet.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"routes": [
		{"pattern": "greet {n:int} --loud?", "handler": "count"},
		{"pattern": "greet {name}", "handler": "hello"}
	]}`), 0o644))

	code, _, _ := execute(t, "match", path, "--", "greet", "bob")
	assert.Equal(t, 1, code, "without strict types the int route is chosen and fails to bind")

	code, stdout, stderr := execute(t, "match", "--strict-types", path, "--", "greet", "bob")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `"handler": "hello"`)
}

func TestFmtPatterns(t *testing.T) {
	code, stdout, stderr := execute(t, "fmt", "copy   {*files}", "build --config? {mode?}")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "copy {*files}\nbuild --config? {mode?}\n", stdout)

	code, stdout, stderr = execute(t, "fmt", "status", "greet {name")
	assert.Equal(t, 1, code)
	assert.Equal(t, "status\n", stdout)
	assert.Contains(t, stderr, "unterminated '{'")

	code, _, stderr = execute(t, "fmt")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "nothing to format")
}

func TestFmtPatternsAfterTerminator(t *testing.T) {
	code, stdout, stderr := execute(t, "fmt", "--", "--verbose,-v?", "build   --config {mode?}")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "--verbose,-v?\nbuild --config {mode?}\n", stdout)

	code, _, stderr = execute(t, "fmt", "--verbose?")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown flag")
}

func TestFmtFileWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[routes]]\npattern = \"deploy   {env}  --force\"\nhandler = \"deploy\"\n"), 0o600))

	code, stdout, stderr := execute(t, "fmt", "--file", path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `pattern = "deploy {env} --force"`)

	code, _, stderr = execute(t, "fmt", "--file", path, "--write")
	require.Equal(t, 0, code, stderr)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `pattern = "deploy {env} --force"`)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestTablePrintsRanking(t *testing.T) {
	code, stdout, stderr := execute(t, "table", "testdata/routes.yaml")
	require.Equal(t, 0, code, stderr)

	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "testdata/routes.yaml: (5 routes, blake2b:"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "├─  190  deploy {env} --replicas,-r {count:int}  -> scale"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "├─  170  deploy {env} --force,-f?"), lines[2])
	assert.True(t, strings.HasSuffix(lines[2], "-> deploy  Deploy an environment"), lines[2])
	assert.True(t, strings.HasPrefix(lines[5], "└─  100  status"), lines[5])

	_, again, _ := execute(t, "table", "testdata/routes.yaml")
	assert.Equal(t, stdout, again, "fingerprint is stable")
}

func TestDebugLogging(t *testing.T) {
	t.Setenv("ROUTEKIT_DEBUG", "1")
	code, _, stderr := execute(t, "check", "testdata/routes.yaml")
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr, "declarations loaded")
	assert.NotContains(t, stderr, "time=")
	assert.NotContains(t, stderr, "level=")
}

// syncBuffer lets the watch loop and the test share output
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestCheckWatchRechecksOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routes:\n  - {pattern: status, handler: status}\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr syncBuffer
	done := make(chan int, 1)
	go func() {
		done <- run(ctx, []string{"check", "--watch", path}, &stdout, &stderr)
	}()

	changed := []byte("routes:\n  - {pattern: status, handler: status}\n  - {pattern: status, handler: again}\n")
	deadline := time.Now().Add(10 * time.Second)
	for !strings.Contains(stdout.String(), "error[duplicate]") {
		require.True(t, time.Now().Before(deadline), "no re-check after change; output:\n%s", stdout.String())
		require.NoError(t, os.WriteFile(path, changed, 0o644))
		time.Sleep(100 * time.Millisecond)
	}

	cancel()
	select {
	case code := <-done:
		assert.Equal(t, 0, code)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
	assert.Contains(t, stdout.String(), "re-checking "+path)
}

func TestJSONValue(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	u, err := url.Parse("https://example.com/x")
	require.NoError(t, err)

	tests := []struct {
		in       any
		expected any
	}{
		{nil, nil},
		{"x", "x"},
		{42, 42},
		{true, true},
		{90 * time.Second, "1m30s"},
		{id, id.String()},
		{big.NewRat(25, 2), "25/2"},
		{u, "https://example.com/x"},
		{binder.Version("v1.2.3"), "v1.2.3"},
		{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "2024-03-01T00:00:00Z"},
		{[]any{1, 2 * time.Minute}, []any{1, "2m0s"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, jsonValue(tt.in), "%v", tt.in)
	}
}
