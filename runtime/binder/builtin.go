package binder

import (
	"fmt"
	"math/big"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/mod/semver"

	"github.com/aledsdavies/routekit/core/invariant"
)

// Version is a semantic version in canonical "vMAJOR.MINOR.PATCH[-pre]" form.
type Version string

// ParseVersion accepts versions with or without the leading "v".
func ParseVersion(raw string) (Version, error) {
	// semver.IsValid requires the "v" prefix
	v := raw
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", fmt.Errorf("invalid semantic version %q", raw)
	}
	return Version(semver.Canonical(v)), nil
}

// Compare returns -1, 0 or +1 following semantic version precedence.
func (v Version) Compare(other Version) int {
	return semver.Compare(string(v), string(other))
}

// Major returns the major version prefix, e.g. "v2".
func (v Version) Major() string { return semver.Major(string(v)) }

func (v Version) String() string { return string(v) }

func registerBuiltins(r *Registry) {
	must := func(err error) {
		invariant.ExpectNoError(err, "built-in converter registration")
	}

	must(RegisterType(r, "string", func(raw string) (string, error) { return raw, nil }))

	must(RegisterType(r, "int", strconv.Atoi))
	must(RegisterType(r, "long", func(raw string) (int64, error) {
		return strconv.ParseInt(raw, 10, 64)
	}))
	must(r.Alias("int64", "long"))
	must(RegisterType(r, "uint", func(raw string) (uint, error) {
		n, err := strconv.ParseUint(raw, 10, 0)
		return uint(n), err
	}))

	must(RegisterType(r, "double", func(raw string) (float64, error) {
		return strconv.ParseFloat(raw, 64)
	}))
	must(r.Alias("float", "double"))
	must(r.Alias("float64", "double"))
	must(RegisterType(r, "decimal", parseDecimal))

	must(RegisterType(r, "bool", parseBool))

	must(RegisterType(r, "guid", uuid.Parse))
	must(r.Alias("uuid", "guid"))

	must(RegisterType(r, "datetime", parseDateTime))
	must(r.Register("date", func(raw string) (any, error) {
		return time.Parse(time.DateOnly, raw)
	}))
	must(r.Register("time", func(raw string) (any, error) {
		if t, err := time.Parse(time.TimeOnly, raw); err == nil {
			return t, nil
		}
		return time.Parse("15:04", raw)
	}))
	must(RegisterType(r, "duration", ParseDuration))

	must(RegisterType(r, "uri", parseURI))
	must(r.Alias("url", "uri"))

	must(RegisterType(r, "version", ParseVersion))
	must(r.Alias("semver", "version"))
}

func parseDecimal(raw string) (*big.Rat, error) {
	d, ok := new(big.Rat).SetString(raw)
	if !ok {
		return nil, fmt.Errorf("invalid decimal %q", raw)
	}
	return d, nil
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	return strconv.ParseBool(raw)
}

// parseDateTime accepts RFC 3339, with or without a zone, or a bare date.
func parseDateTime(raw string) (time.Time, error) {
	layouts := []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateTime, time.DateOnly}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q: want RFC 3339 or YYYY-MM-DD", raw)
}

func parseURI(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("invalid uri %q: missing scheme", raw)
	}
	return u, nil
}
