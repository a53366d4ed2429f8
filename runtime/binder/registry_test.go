package binder

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color struct{ r, g, b uint8 }

func parseColor(raw string) (color, error) {
	var c color
	if _, err := fmt.Sscanf(raw, "#%02x%02x%02x", &c.r, &c.g, &c.b); err != nil {
		return color{}, fmt.Errorf("invalid color %q", raw)
	}
	return c, nil
}

func TestRegisterTypeByNameAndIdentity(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, RegisterType(reg, "color", parseColor))

	v, err := reg.Convert("color", "#ff8000")
	require.NoError(t, err)
	assert.Equal(t, color{255, 128, 0}, v)

	c, err := ConvertTo[color](reg, "#000001")
	require.NoError(t, err)
	assert.Equal(t, color{0, 0, 1}, c)

	d, err := ConvertTo[time.Duration](reg, "2d")
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, d)

	_, err = ConvertTo[struct{ x int }](reg, "1")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()

	err := reg.Register("int", func(raw string) (any, error) { return raw, nil })
	assert.ErrorIs(t, err, ErrDuplicate)

	err = RegisterType(reg, "integer", func(raw string) (int, error) { return 0, nil })
	assert.ErrorIs(t, err, ErrDuplicate, "Go type int is already taken")

	assert.Error(t, reg.Register("", func(string) (any, error) { return nil, nil }))
	assert.Error(t, reg.Register("nil", nil))
}

func TestAlias(t *testing.T) {
	reg := NewEmptyRegistry()
	require.NoError(t, reg.Register("upper", func(raw string) (any, error) { return strings.ToUpper(raw), nil }))
	require.NoError(t, reg.Alias("loud", "upper"))

	v, err := reg.Convert("loud", "hey")
	require.NoError(t, err)
	assert.Equal(t, "HEY", v)

	assert.ErrorIs(t, reg.Alias("x", "missing"), ErrUnknownType)
}

func TestFreezeEndsRegistration(t *testing.T) {
	reg := NewRegistry()
	assert.False(t, reg.Frozen())
	reg.Freeze()
	reg.Freeze()
	assert.True(t, reg.Frozen())

	err := reg.Register("late", func(raw string) (any, error) { return raw, nil })
	assert.ErrorIs(t, err, ErrFrozen)
	assert.False(t, reg.Known("late"))

	assert.True(t, reg.Known("int"))
	assert.True(t, reg.Accepts("int", "5"))
	assert.False(t, reg.Accepts("int", "five"))
	assert.False(t, reg.Accepts("nope", "x"))
	assert.Contains(t, reg.Types(), "version")
}

func TestEmptyTypeConvertsToString(t *testing.T) {
	v, err := NewEmptyRegistry().Convert("", "raw")
	require.NoError(t, err)
	assert.Equal(t, "raw", v)
}

func TestConcurrentRegistrationAndLookup(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("t%d", i)
			if err := reg.Register(name, func(raw string) (any, error) { return raw, nil }); err != nil {
				errs <- err
			}
			reg.Accepts("int", "1")
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	reg.Freeze()
	for i := 0; i < 50; i++ {
		assert.True(t, reg.Known(fmt.Sprintf("t%d", i)))
	}
}

func TestParseDurationForms(t *testing.T) {
	tests := map[string]time.Duration{
		"90s":      90 * time.Second,
		"1.5h":     90 * time.Minute,
		"1y":       365 * 24 * time.Hour,
		"1d12h":    36 * time.Hour,
		"2w":       14 * 24 * time.Hour,
		"1d500ms":  24*time.Hour + 500*time.Millisecond,
		"3d4h5m6s": 3*24*time.Hour + 4*time.Hour + 5*time.Minute + 6*time.Second,
	}
	for raw, expected := range tests {
		d, err := ParseDuration(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, expected, d, raw)
	}

	for _, raw := range []string{"", "d", "1d1d", "1h1d", "5", "1d5", "1q", "99999999999999999999d"} {
		_, err := ParseDuration(raw)
		assert.Error(t, err, raw)
	}
}

func TestConversionErrorsFromPlainError(t *testing.T) {
	assert.Empty(t, ConversionErrors(nil))
	assert.Empty(t, ConversionErrors(errors.New("other")))

	ce := &ConversionError{Param: "p", Raw: "r", Type: "int", Index: -1, Err: errors.New("bad")}
	wrapped := fmt.Errorf("bind: %w", ce)
	assert.Equal(t, []*ConversionError{ce}, ConversionErrors(wrapped))
}
