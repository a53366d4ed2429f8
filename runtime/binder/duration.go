package binder

import (
	"fmt"
	"math"
	"time"
)

// Day-scale units on top of the ones time.ParseDuration understands.
const (
	day  = 24 * time.Hour
	week = 7 * day
	year = 365 * day
)

// unitOrder is the canonical descending order of duration units.
var unitOrder = []struct {
	name       string
	multiplier time.Duration
}{
	{"y", year},
	{"w", week},
	{"d", day},
	{"h", time.Hour},
	{"m", time.Minute},
	{"s", time.Second},
	{"ms", time.Millisecond},
	{"us", time.Microsecond},
	{"ns", time.Nanosecond},
}

// ParseDuration parses Go durations ("1h30m", "1.5s") and the day-scale
// form "2w3d4h", whose components are non-negative integers in descending
// unit order, each unit at most once.
func ParseDuration(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, fmt.Errorf("duration cannot be empty")
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	return parseUnits(raw)
}

func parseUnits(s string) (time.Duration, error) {
	var total, num time.Duration
	hasDigit := false
	lastUnit := -1

	for i := 0; i < len(s); {
		ch := s[i]
		if ch >= '0' && ch <= '9' {
			digit := time.Duration(ch - '0')
			if num > (math.MaxInt64-digit)/10 {
				return 0, fmt.Errorf("invalid duration %q: number too large", s)
			}
			num = num*10 + digit
			hasDigit = true
			i++
			continue
		}
		if !hasDigit {
			return 0, fmt.Errorf("invalid duration %q: missing number before unit at position %d", s, i)
		}

		// Longest match first so "ms" wins over "m".
		unit, size := -1, 0
		for idx, u := range unitOrder {
			if len(u.name) > size && i+len(u.name) <= len(s) && s[i:i+len(u.name)] == u.name {
				unit, size = idx, len(u.name)
			}
		}
		if unit < 0 {
			return 0, fmt.Errorf("invalid duration %q: unknown unit at position %d", s, i)
		}
		if unit <= lastUnit {
			return 0, fmt.Errorf("invalid duration %q: units must be in descending order (found %s after larger unit)", s, unitOrder[unit].name)
		}
		lastUnit = unit

		mult := unitOrder[unit].multiplier
		if num > math.MaxInt64/mult || total > math.MaxInt64-num*mult {
			return 0, fmt.Errorf("invalid duration %q: overflow", s)
		}
		total += num * mult
		num, hasDigit = 0, false
		i += size
	}

	if hasDigit {
		return 0, fmt.Errorf("invalid duration %q: missing unit after number", s)
	}
	return total, nil
}
