package types

import "errors"

// Store is the key/value medium the engagement heuristic persists into.
// Values are primitive strings; callers own parsing. Implementations are
// safe for concurrent use and follow last-writer-wins semantics.
type Store interface {
	// Get returns the value stored under key. found is false when the key
	// has never been written.
	Get(key string) (value string, found bool, err error)

	// Set creates or overwrites the value stored under key.
	// Returns ErrInvalidKey if key is empty.
	Set(key, value string) error

	// All returns a copy of every stored entry.
	All() (map[string]string, error)
}

// Backend is a Store with an explicit lifecycle.
// Callers attach to a backend, read and write keys, and detach when done.
type Backend interface {
	Store

	// Attach connects the backend to the medium described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach flushes pending writes and releases resources. Idempotent:
	// multiple calls succeed. After Detach, Get and Set return
	// ErrStoreDetached.
	Detach() error
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Store operation errors.
var (
	ErrInvalidKey = errors.New("invalid key")
)
