package binder

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
)

var (
	// ErrFrozen is returned when registering after Freeze.
	ErrFrozen = errors.New("converter registry is frozen")
	// ErrDuplicate is returned when a type name or Go type is registered twice.
	ErrDuplicate = errors.New("converter already registered")
	// ErrUnknownType is returned when converting to a type nobody registered.
	ErrUnknownType = errors.New("unknown type")
)

// Converter turns a raw token into a typed value.
type Converter func(raw string) (any, error)

type converterInfo struct {
	name    string
	goType  reflect.Type
	convert Converter
}

type snapshot struct {
	byName map[string]converterInfo
	byType map[reflect.Type]converterInfo
}

// Registry holds converters keyed by type name and by Go type.
//
// Registration is append-only and may run from several goroutines while the
// registry is being set up. Freeze publishes an immutable snapshot; from then
// on lookups take no lock and registration fails.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]converterInfo
	byType map[reflect.Type]converterInfo
	frozen atomic.Pointer[snapshot]
}

// NewRegistry creates a registry holding the built-in converters.
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	registerBuiltins(r)
	return r
}

// NewEmptyRegistry creates a registry with no converters, not even "string".
func NewEmptyRegistry() *Registry {
	return &Registry{
		byName: make(map[string]converterInfo),
		byType: make(map[reflect.Type]converterInfo),
	}
}

// Register adds a converter under a type name.
func (r *Registry) Register(name string, convert Converter) error {
	return r.register(converterInfo{name: name, convert: convert})
}

// RegisterType adds a converter under a type name and under the Go type T,
// so values can also be converted with ConvertTo[T].
func RegisterType[T any](r *Registry, name string, convert func(raw string) (T, error)) error {
	return r.register(converterInfo{
		name:   name,
		goType: reflect.TypeFor[T](),
		convert: func(raw string) (any, error) {
			return convert(raw)
		},
	})
}

// Alias registers an existing converter under another name.
func (r *Registry) Alias(alias, name string) error {
	info, ok := r.lookup(name)
	if !ok {
		return fmt.Errorf("alias %q: %w %q", alias, ErrUnknownType, name)
	}
	info.name = alias
	info.goType = nil
	return r.register(info)
}

func (r *Registry) register(info converterInfo) error {
	if info.name == "" {
		return fmt.Errorf("converter needs a type name")
	}
	if info.convert == nil {
		return fmt.Errorf("converter %q is nil", info.name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() != nil {
		return fmt.Errorf("register %q: %w", info.name, ErrFrozen)
	}
	if _, exists := r.byName[info.name]; exists {
		return fmt.Errorf("type %q: %w", info.name, ErrDuplicate)
	}
	if info.goType != nil {
		if _, exists := r.byType[info.goType]; exists {
			return fmt.Errorf("Go type %s: %w", info.goType, ErrDuplicate)
		}
		r.byType[info.goType] = info
	}
	r.byName[info.name] = info
	return nil
}

// Freeze ends the registration phase. It is idempotent.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() != nil {
		return
	}
	r.frozen.Store(&snapshot{
		byName: maps.Clone(r.byName),
		byType: maps.Clone(r.byType),
	})
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	return r.frozen.Load() != nil
}

func (r *Registry) lookup(name string) (converterInfo, bool) {
	if s := r.frozen.Load(); s != nil {
		info, ok := s.byName[name]
		return info, ok
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.byName[name]
	return info, ok
}

func (r *Registry) lookupType(t reflect.Type) (converterInfo, bool) {
	if s := r.frozen.Load(); s != nil {
		info, ok := s.byType[t]
		return info, ok
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.byType[t]
	return info, ok
}

// Known reports whether a converter is registered under name.
func (r *Registry) Known(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	if s := r.frozen.Load(); s != nil {
		return slices.Sorted(maps.Keys(s.byName))
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.byName))
}

// Convert converts raw with the converter registered under typ.
// An empty type name converts to string.
func (r *Registry) Convert(typ, raw string) (any, error) {
	if typ == "" {
		return raw, nil
	}
	info, ok := r.lookup(typ)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, typ)
	}
	return info.convert(raw)
}

// Accepts reports whether raw converts to typ. Unknown types accept nothing.
func (r *Registry) Accepts(typ, raw string) bool {
	_, err := r.Convert(typ, raw)
	return err == nil
}

// ConvertTo converts raw with the converter registered for the Go type T.
func ConvertTo[T any](r *Registry, raw string) (T, error) {
	var zero T
	t := reflect.TypeFor[T]()
	info, ok := r.lookupType(t)
	if !ok {
		return zero, fmt.Errorf("%w: no converter for Go type %s", ErrUnknownType, t)
	}
	v, err := info.convert(raw)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("converter %q returned %T, want %s", info.name, v, t)
	}
	return typed, nil
}
