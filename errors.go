package hyperdash

import "errors"

var (
	// ErrNotInitialized is returned when Login or Logout is invoked before
	// Initialize has run.
	ErrNotInitialized = errors.New("session manager not initialized")

	// ErrSuperseded is returned when a newer state-mutating call started
	// while this one was awaiting the network; its result was discarded.
	ErrSuperseded = errors.New("superseded by a newer call")
)
