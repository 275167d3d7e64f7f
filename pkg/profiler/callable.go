package profiler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Separator joins a scope name and a symbol name in a qualified reference.
const Separator = "."

// Func is the calling contract shared by every profilable target.
type Func func(ctx context.Context, args ...any) (any, error)

// Callable is a handle to a function bound in a namespace.
// Its pointer is the target identity used by the registry and the statistics store.
type Callable struct {
	name      string
	namespace Namespace
	fn        Func

	// origin is set on wrappers and points at the instrumented target.
	origin *Callable
}

// NewCallable creates a handle for fn named name in ns without binding it.
// Use Scope.Define to create and bind in one step.
func NewCallable(ns Namespace, name string, fn Func) *Callable {
	return &Callable{name: name, namespace: ns, fn: fn}
}

// Name returns the symbol name.
func (c *Callable) Name() string {
	return c.name
}

// Namespace returns the owning namespace, or nil for detached callables.
func (c *Callable) Namespace() Namespace {
	return c.namespace
}

// QualifiedName returns "scope.symbol", or the bare name when detached.
func (c *Callable) QualifiedName() string {
	if c.namespace == nil {
		return c.name
	}
	return c.namespace.Name() + Separator + c.name
}

// Target returns the original callable behind a wrapper, or c itself.
func (c *Callable) Target() *Callable {
	if c.origin != nil {
		return c.origin
	}
	return c
}

// Wrapped reports whether c is an instrumentation wrapper.
func (c *Callable) Wrapped() bool {
	return c.origin != nil
}

// Call invokes the function.
func (c *Callable) Call(ctx context.Context, args ...any) (any, error) {
	return c.fn(ctx, args...)
}

func (c *Callable) String() string {
	return c.QualifiedName()
}

// Namespace is an indirection table mapping symbol names to callables.
type Namespace interface {
	// Name returns the namespace name used in qualified references.
	Name() string

	// Lookup returns the callable currently bound to symbol.
	Lookup(symbol string) (*Callable, bool)

	// Rebind replaces the binding of symbol with replacement only if it is
	// still expected. The check and the swap are atomic.
	Rebind(symbol string, expected, replacement *Callable) bool
}

// Scope is the default Namespace implementation.
type Scope struct {
	name     string
	mu       sync.RWMutex
	bindings map[string]*Callable
}

// NewScope creates an empty scope.
func NewScope(name string) *Scope {
	return &Scope{
		name:     name,
		bindings: make(map[string]*Callable),
	}
}

// Name returns the scope name.
func (s *Scope) Name() string {
	return s.name
}

// Define binds fn to symbol, replacing any previous binding, and returns its handle.
func (s *Scope) Define(symbol string, fn Func) *Callable {
	c := NewCallable(s, symbol, fn)

	s.mu.Lock()
	s.bindings[symbol] = c
	s.mu.Unlock()

	return c
}

// Lookup returns the callable currently bound to symbol.
func (s *Scope) Lookup(symbol string) (*Callable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.bindings[symbol]
	return c, ok
}

// Rebind swaps the binding of symbol from expected to replacement.
func (s *Scope) Rebind(symbol string, expected, replacement *Callable) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.bindings[symbol]
	if !ok || current != expected {
		return false
	}
	s.bindings[symbol] = replacement
	return true
}

// Call dispatches to the callable currently bound to symbol.
func (s *Scope) Call(ctx context.Context, symbol string, args ...any) (any, error) {
	c, ok := s.Lookup(symbol)
	if !ok {
		return nil, fmt.Errorf("%w: %s%s%s is not defined", ErrLookup, s.name, Separator, symbol)
	}
	return c.Call(ctx, args...)
}

// Symbols returns the bound symbol names in sorted order.
func (s *Scope) Symbols() []string {
	s.mu.RLock()
	symbols := make([]string, 0, len(s.bindings))
	for symbol := range s.bindings {
		symbols = append(symbols, symbol)
	}
	s.mu.RUnlock()

	sort.Strings(symbols)
	return symbols
}

// Catalog is a set of namespaces addressable by name.
type Catalog struct {
	mu         sync.RWMutex
	namespaces map[string]Namespace
}

// NewCatalog creates a catalog holding the given namespaces.
func NewCatalog(namespaces ...Namespace) *Catalog {
	c := &Catalog{namespaces: make(map[string]Namespace, len(namespaces))}
	for _, ns := range namespaces {
		c.Add(ns)
	}
	return c
}

// Add registers ns, replacing a namespace with the same name.
func (c *Catalog) Add(ns Namespace) {
	c.mu.Lock()
	c.namespaces[ns.Name()] = ns
	c.mu.Unlock()
}

// Namespace returns the namespace called name.
func (c *Catalog) Namespace(name string) (Namespace, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ns, ok := c.namespaces[name]
	return ns, ok
}

// Names returns the namespace names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.namespaces))
	for name := range c.namespaces {
		names = append(names, name)
	}
	c.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Resolve turns a "scope.symbol" reference into the target it names.
// The reference is split on the first separator only. When the symbol is
// currently instrumented the original target is returned, not the wrapper.
func (c *Catalog) Resolve(ref string) (*Callable, error) {
	scopeName, symbol, ok := strings.Cut(ref, Separator)
	if !ok || scopeName == "" || symbol == "" {
		return nil, fmt.Errorf("%w: %q is not a scope%ssymbol reference", ErrLookup, ref, Separator)
	}

	ns, ok := c.Namespace(scopeName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown scope %q", ErrLookup, scopeName)
	}

	target, ok := ns.Lookup(symbol)
	if !ok {
		return nil, fmt.Errorf("%w: scope %q has no symbol %q", ErrLookup, scopeName, symbol)
	}
	return target.Target(), nil
}
