// Package memstore implements an in-process counter store. Nothing is
// persisted; Detach discards the entries.
package memstore

import (
	"maps"
	"sync"

	"github.com/mesh-intelligence/engage/pkg/types"
)

var _ types.Backend = (*Store)(nil)

// Store is a map guarded by a mutex.
type Store struct {
	mu       sync.RWMutex
	attached bool
	entries  map[string]string
}

// New returns an attached, empty store.
func New() *Store {
	return &Store{attached: true, entries: make(map[string]string)}
}

// NewDetached returns a store that must be attached before use.
func NewDetached() *Store {
	return &Store{}
}

// Attach validates config and resets the store to empty.
func (s *Store) Attach(config types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	s.entries = make(map[string]string)
	s.attached = true
	return nil
}

// Detach is idempotent.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = false
	s.entries = nil
	return nil
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return "", false, types.ErrStoreDetached
	}
	if key == "" {
		return "", false, types.ErrInvalidKey
	}
	v, ok := s.entries[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return types.ErrStoreDetached
	}
	if key == "" {
		return types.ErrInvalidKey
	}
	s.entries[key] = value
	return nil
}

// All returns a copy of every entry.
func (s *Store) All() (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return nil, types.ErrStoreDetached
	}
	return maps.Clone(s.entries), nil
}
