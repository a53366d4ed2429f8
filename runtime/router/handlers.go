package router

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/aledsdavies/routekit/runtime/binder"
)

var (
	// ErrHandlersFrozen is returned when registering after Freeze.
	ErrHandlersFrozen = errors.New("handler registry is frozen")
	// ErrDuplicateHandler is returned when a handler name is registered twice.
	ErrDuplicateHandler = errors.New("handler already registered")
	// ErrNoHandler is returned when a matched route names an unregistered handler.
	ErrNoHandler = errors.New("no handler registered")
)

// HandlerFunc is the code a route invokes.
type HandlerFunc func(ctx context.Context, args binder.Arguments) error

// Handlers maps handler names to functions. Like the converter registry it
// is append-only until Freeze, after which lookups take no lock.
type Handlers struct {
	mu     sync.RWMutex
	byName map[string]HandlerFunc
	frozen atomic.Pointer[map[string]HandlerFunc]
}

// NewHandlers creates an empty handler registry
func NewHandlers() *Handlers {
	return &Handlers{byName: make(map[string]HandlerFunc)}
}

// Register adds a handler under a name.
func (h *Handlers) Register(name string, fn HandlerFunc) error {
	if name == "" {
		return fmt.Errorf("handler needs a name")
	}
	if fn == nil {
		return fmt.Errorf("handler %q is nil", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.frozen.Load() != nil {
		return fmt.Errorf("register %q: %w", name, ErrHandlersFrozen)
	}
	if _, exists := h.byName[name]; exists {
		return fmt.Errorf("handler %q: %w", name, ErrDuplicateHandler)
	}
	h.byName[name] = fn
	return nil
}

// Freeze ends the registration phase. It is idempotent.
func (h *Handlers) Freeze() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.frozen.Load() != nil {
		return
	}
	snapshot := maps.Clone(h.byName)
	h.frozen.Store(&snapshot)
}

// Lookup returns the handler registered under name.
func (h *Handlers) Lookup(name string) (HandlerFunc, bool) {
	if s := h.frozen.Load(); s != nil {
		fn, ok := (*s)[name]
		return fn, ok
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn, ok := h.byName[name]
	return fn, ok
}

// Names returns the registered handler names, sorted.
func (h *Handlers) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Sorted(maps.Keys(h.byName))
}
