// Package binder converts raw captures into typed handler arguments.
//
// Conversion happens after a route has been chosen and never changes the
// choice: a failed conversion is reported as a ConversionError for the
// matched route. Every failure is reported, none is dropped.
package binder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aledsdavies/routekit/core/invariant"
	"github.com/aledsdavies/routekit/core/route"
	"github.com/aledsdavies/routekit/runtime/matcher"
)

// State distinguishes "not provided" from any provided value.
type State int

const (
	Absent  State = iota // Segment not given
	NoValue              // Option given without its optional value
	Present
)

func (s State) String() string {
	switch s {
	case NoValue:
		return "no-value"
	case Present:
		return "present"
	default:
		return "absent"
	}
}

// Argument is one bound handler parameter.
//
// Value holds the converted value when State is Present. Lists (catch-alls
// and repeated options) hold a []any with one converted element per token.
// Boolean flags hold true when given and false otherwise.
type Argument struct {
	Name  string
	State State
	Value any
	Raw   []string
	Type  string
	List  bool
}

// Arguments are the bound parameters of a route in binding order.
type Arguments struct {
	list  []Argument
	index map[string]int
}

// Len returns the number of arguments.
func (a Arguments) Len() int { return len(a.list) }

// All returns the arguments in binding order.
func (a Arguments) All() []Argument {
	return append([]Argument(nil), a.list...)
}

// Get looks up an argument by parameter name.
func (a Arguments) Get(name string) (Argument, bool) {
	i, ok := a.index[name]
	if !ok {
		return Argument{}, false
	}
	return a.list[i], true
}

// Lookup returns the value of a present argument as T.
// It reports false when the argument is missing, not present or of another type.
func Lookup[T any](a Arguments, name string) (T, bool) {
	var zero T
	arg, ok := a.Get(name)
	if !ok || arg.State != Present {
		return zero, false
	}
	v, ok := arg.Value.(T)
	return v, ok
}

// Binder converts captures with a converter registry.
type Binder struct {
	registry *Registry
}

// New creates a binder. The registry should be frozen before concurrent use.
func New(registry *Registry) *Binder {
	invariant.NotNil(registry, "registry")
	return &Binder{registry: registry}
}

// Bind converts the captures of a matched route. Bindings come from
// route.Bindings: handler order when the handler declares parameters,
// segment order otherwise. Failures are joined into one error whose parts are
// *ConversionError values.
//
// A route whose bindings have error diagnostics (a required handler parameter
// no capture supplies, a conflicting type) is not bound: Bind returns a
// *BindingError instead.
func (b *Binder) Bind(r *route.Route, captures map[string]matcher.Capture) (Arguments, error) {
	invariant.NotNil(r, "route")
	bindings, diags := route.Bindings(r)
	if route.HasErrors(diags) {
		return Arguments{}, &BindingError{Pattern: r.Pattern(), Diagnostics: diags}
	}

	args := Arguments{
		list:  make([]Argument, 0, len(bindings)),
		index: make(map[string]int, len(bindings)),
	}
	var errs []error
	for _, binding := range bindings {
		arg, err := b.bindOne(binding, captures[binding.Param])
		if err != nil {
			errs = append(errs, err)
		}
		args.index[arg.Name] = len(args.list)
		args.list = append(args.list, arg)
	}
	return args, errors.Join(errs...)
}

func (b *Binder) bindOne(binding route.ParameterBinding, capture matcher.Capture) (Argument, error) {
	arg := Argument{
		Name: binding.Param,
		Raw:  capture.Values,
		Type: binding.Type,
		List: binding.List,
	}

	switch {
	case binding.Flag:
		arg.Type = "bool"
		arg.Value = capture.Present
		if capture.Present {
			arg.State = Present
		}
		return arg, nil
	case !capture.Present:
		return arg, nil
	case !capture.HasValue && capture.Kind == matcher.CaptureOption:
		arg.State = NoValue
		return arg, nil
	}

	arg.State = Present
	if binding.List {
		values := make([]any, 0, len(capture.Values))
		var errs []error
		for i, raw := range capture.Values {
			v, err := b.convert(binding, raw, i)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			values = append(values, v)
		}
		arg.Value = values
		return arg, errors.Join(errs...)
	}

	v, err := b.convert(binding, capture.Value(), -1)
	arg.Value = v
	return arg, err
}

func (b *Binder) convert(binding route.ParameterBinding, raw string, index int) (any, error) {
	if !binding.RequiresConversion {
		return raw, nil
	}
	v, err := b.registry.Convert(binding.Type, raw)
	if err != nil {
		return nil, &ConversionError{
			Param: binding.Param,
			Raw:   raw,
			Type:  binding.Type,
			Index: index,
			Err:   err,
		}
	}
	return v, nil
}

// BindingError reports a route whose captures cannot supply its handler's
// parameters.
type BindingError struct {
	Pattern     string
	Diagnostics []route.Diagnostic
}

func (e *BindingError) Error() string {
	var msgs []string
	for _, d := range e.Diagnostics {
		if d.Severity == route.SeverityError {
			msgs = append(msgs, d.Message())
		}
	}
	return fmt.Sprintf("route %q cannot be bound: %s", e.Pattern, strings.Join(msgs, "; "))
}

// ConversionError reports a raw value that does not convert to its declared
// type. It never changes which route matched.
type ConversionError struct {
	Param string
	Raw   string
	Type  string
	Index int // Element index within a list, -1 for single values
	Err   error
}

func (e *ConversionError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("parameter %q[%d]: cannot convert %q to %s: %v", e.Param, e.Index, e.Raw, e.Type, e.Err)
	}
	return fmt.Sprintf("parameter %q: cannot convert %q to %s: %v", e.Param, e.Raw, e.Type, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// ConversionErrors extracts every ConversionError from an error returned by Bind.
func ConversionErrors(err error) []*ConversionError {
	var out []*ConversionError
	var walk func(error)
	walk = func(err error) {
		if err == nil {
			return
		}
		if ce, ok := err.(*ConversionError); ok {
			out = append(out, ce)
			return
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				walk(e)
			}
			return
		}
		walk(errors.Unwrap(err))
	}
	walk(err)
	return out
}
