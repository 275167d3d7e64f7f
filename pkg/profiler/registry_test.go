package profiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndUnregister(t *testing.T) {
	s := NewScope("s")
	target := s.Define("f", noop)
	wrapper := Wrap(target, NewStore(), WrapOptions{})
	r := NewRegistry()

	require.NoError(t, r.Register(target, wrapper))
	assert.True(t, r.Tracked(target))
	assert.True(t, r.Tracked(wrapper), "a wrapper resolves to its target")
	assert.Equal(t, 1, r.Len())

	bound, _ := s.Lookup("f")
	assert.Same(t, wrapper, bound)

	repl, ok := r.Replacement(target)
	require.True(t, ok)
	assert.Same(t, wrapper, repl)

	records := r.Records()
	require.Len(t, records, 1)
	assert.Same(t, target, records[0].Target)
	assert.Equal(t, "f", records[0].Symbol)
	assert.Equal(t, Namespace(s), records[0].Namespace)

	require.NoError(t, r.Unregister(target))
	assert.False(t, r.Tracked(target))
	assert.Equal(t, 0, r.Len())

	bound, _ = s.Lookup("f")
	assert.Same(t, target, bound, "the original binding is restored by identity")
}

func TestRegistry_RegisterTwice(t *testing.T) {
	s := NewScope("s")
	target := s.Define("f", noop)
	first := Wrap(target, NewStore(), WrapOptions{})
	second := Wrap(target, NewStore(), WrapOptions{})
	r := NewRegistry()

	require.NoError(t, r.Register(target, first))

	err := r.Register(target, second)
	assert.ErrorIs(t, err, ErrAlreadyTracked)

	repl, _ := r.Replacement(target)
	assert.Same(t, first, repl, "the existing record is untouched")
	bound, _ := s.Lookup("f")
	assert.Same(t, first, bound)
}

func TestRegistry_RegisterAfterForeignRebind(t *testing.T) {
	s := NewScope("s")
	target := s.Define("f", noop)
	s.Define("f", noop) // someone else rebinds the name
	r := NewRegistry()

	err := r.Register(target, Wrap(target, NewStore(), WrapOptions{}))
	assert.ErrorIs(t, err, ErrRebindUnsupported)
	assert.False(t, r.Tracked(target))
}

func TestRegistry_RegisterDetached(t *testing.T) {
	target := NewCallable(nil, "loose", noop)
	r := NewRegistry()

	err := r.Register(target, Wrap(target, NewStore(), WrapOptions{}))
	assert.ErrorIs(t, err, ErrLookup)
}

func TestRegistry_UnregisterNotTracked(t *testing.T) {
	s := NewScope("s")
	target := s.Define("f", noop)
	r := NewRegistry()

	assert.ErrorIs(t, r.Unregister(target), ErrNotTracked)
}

func TestRegistry_UnregisterAfterForeignRebind(t *testing.T) {
	s := NewScope("s")
	target := s.Define("f", noop)
	r := NewRegistry()
	require.NoError(t, r.Register(target, Wrap(target, NewStore(), WrapOptions{})))

	foreign := s.Define("f", noop)

	err := r.Unregister(target)
	assert.ErrorIs(t, err, ErrRebindUnsupported)
	assert.False(t, r.Tracked(target), "the record is dropped anyway")

	bound, _ := s.Lookup("f")
	assert.Same(t, foreign, bound, "the foreign binding is not clobbered")
}

func TestRegistry_UnregisterAll(t *testing.T) {
	s := NewScope("s")
	f := s.Define("f", noop)
	g := s.Define("g", noop)
	h := s.Define("h", noop)
	r := NewRegistry()

	for _, target := range []*Callable{f, g, h} {
		require.NoError(t, r.Register(target, Wrap(target, NewStore(), WrapOptions{})))
	}
	s.Define("h", noop)

	err := r.UnregisterAll()
	assert.ErrorIs(t, err, ErrRebindUnsupported)
	assert.Equal(t, 0, r.Len())

	bound, _ := s.Lookup("f")
	assert.Same(t, f, bound)
	bound, _ = s.Lookup("g")
	assert.Same(t, g, bound)
}
