package profiler

import "errors"

var (
	// ErrLookup is returned when a scope or symbol cannot be resolved.
	ErrLookup = errors.New("lookup failure")

	// ErrAlreadyTracked is returned when a target is registered twice.
	ErrAlreadyTracked = errors.New("target already tracked")

	// ErrNotTracked is returned when an untracked target is unregistered.
	ErrNotTracked = errors.New("target not tracked")

	// ErrRebindUnsupported is returned when the owning scope no longer binds
	// the symbol to the expected callable.
	ErrRebindUnsupported = errors.New("binding changed outside the profiler")

	// ErrConfigUnreadable is returned when a targets file cannot be opened.
	ErrConfigUnreadable = errors.New("config unreadable")
)
