package profiler

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
)

// BindingRecord remembers how to restore an instrumented symbol.
type BindingRecord struct {
	Target      *Callable
	Replacement *Callable
	Namespace   Namespace
	Symbol      string
	Since       time.Time
}

// Registry tracks which targets are currently rebound to a replacement.
// At most one record exists per target.
type Registry struct {
	mu      sync.Mutex
	records map[*Callable]*BindingRecord
	order   []*Callable
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		records: make(map[*Callable]*BindingRecord),
	}
}

// Register rebinds target's symbol to replacement in its owning namespace.
// It fails with ErrAlreadyTracked if target already has a record and with
// ErrRebindUnsupported if the namespace no longer binds the symbol to target.
func (r *Registry) Register(target, replacement *Callable) error {
	target = target.Target()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[target]; exists {
		return fmt.Errorf("register %s: %w", target, ErrAlreadyTracked)
	}

	ns := target.Namespace()
	if ns == nil {
		return fmt.Errorf("register %s: %w: no owning scope", target, ErrLookup)
	}

	if !ns.Rebind(target.Name(), target, replacement) {
		return fmt.Errorf("register %s: %w", target, ErrRebindUnsupported)
	}

	r.records[target] = &BindingRecord{
		Target:      target,
		Replacement: replacement,
		Namespace:   ns,
		Symbol:      target.Name(),
		Since:       time.Now(),
	}
	r.order = append(r.order, target)
	return nil
}

// Unregister restores the original binding of target and drops its record.
// The record is dropped even when the namespace was rebound by someone
// else; that case is reported as ErrRebindUnsupported and the foreign
// binding is left in place.
func (r *Registry) Unregister(target *Callable) error {
	target = target.Target()

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[target]
	if !ok {
		return fmt.Errorf("unregister %s: %w", target, ErrNotTracked)
	}
	r.removeLocked(target)
	return restore(rec)
}

// UnregisterAll restores every tracked target, in registration order.
func (r *Registry) UnregisterAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs error
	for _, target := range r.order {
		errs = multierr.Append(errs, restore(r.records[target]))
	}
	r.records = make(map[*Callable]*BindingRecord)
	r.order = nil
	return errs
}

// Tracked reports whether target has a record.
func (r *Registry) Tracked(target *Callable) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.records[target.Target()]
	return ok
}

// Replacement returns the callable target is currently rebound to.
func (r *Registry) Replacement(target *Callable) (*Callable, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[target.Target()]
	if !ok {
		return nil, false
	}
	return rec.Replacement, true
}

// Records returns a copy of the current records in registration order.
func (r *Registry) Records() []BindingRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]BindingRecord, 0, len(r.order))
	for _, target := range r.order {
		out = append(out, *r.records[target])
	}
	return out
}

// Len returns the number of tracked targets.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func (r *Registry) removeLocked(target *Callable) {
	delete(r.records, target)
	for i, t := range r.order {
		if t == target {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func restore(rec *BindingRecord) error {
	if !rec.Namespace.Rebind(rec.Symbol, rec.Replacement, rec.Target) {
		return fmt.Errorf("restore %s: %w", rec.Target, ErrRebindUnsupported)
	}
	return nil
}
