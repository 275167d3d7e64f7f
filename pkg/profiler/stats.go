package profiler

import (
	"sync"
	"time"
)

// Stat is the aggregated call statistic of one target.
type Stat struct {
	TotalTime time.Duration
	Calls     int64
}

// Average returns the mean call duration, or zero when nothing was recorded.
func (s Stat) Average() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.TotalTime / time.Duration(s.Calls)
}

// Entry pairs a target with a copy of its statistic.
type Entry struct {
	Target *Callable
	Stat
}

// Store maps targets to their call statistics.
// Both fields of an entry are always updated under the same lock.
// Every Clear starts a new generation.
type Store struct {
	mu         sync.Mutex
	entries    map[*Callable]*Stat
	order      []*Callable
	generation uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		entries: make(map[*Callable]*Stat),
	}
}

// Record adds one call of duration d to target's statistic.
func (s *Store) Record(target *Callable, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stat := s.entryLocked(target)
	stat.TotalTime += d
	stat.Calls++
}

// WindowRecorder returns a Recorder bound to the current generation.
// Calls it records after the next Clear are dropped.
func (s *Store) WindowRecorder() Recorder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return windowRecorder{store: s, generation: s.generation}
}

type windowRecorder struct {
	store      *Store
	generation uint64
}

func (w windowRecorder) Record(target *Callable, d time.Duration) {
	s := w.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != w.generation {
		return
	}
	stat := s.entryLocked(target)
	stat.TotalTime += d
	stat.Calls++
}

// Ensure creates an empty statistic for target if it has none.
func (s *Store) Ensure(target *Callable) {
	s.mu.Lock()
	s.entryLocked(target)
	s.mu.Unlock()
}

// Get returns a copy of target's statistic.
func (s *Store) Get(target *Callable) (Stat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stat, ok := s.entries[target.Target()]
	if !ok {
		return Stat{}, false
	}
	return *stat, true
}

// Snapshot returns copies of all entries in the order they were first seen.
func (s *Store) Snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.order))
	for _, target := range s.order {
		out = append(out, Entry{Target: target, Stat: *s.entries[target]})
	}
	return out
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[*Callable]*Stat)
	s.order = nil
	s.generation++
	s.mu.Unlock()
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) entryLocked(target *Callable) *Stat {
	target = target.Target()
	stat, ok := s.entries[target]
	if !ok {
		stat = &Stat{}
		s.entries[target] = stat
		s.order = append(s.order, target)
	}
	return stat
}
