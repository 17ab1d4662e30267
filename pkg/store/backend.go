// Package store provides the public factory for counter store backends.
// This package exposes backend selection while keeping implementation
// details internal.
package store

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/engage/internal/badgerstore"
	"github.com/mesh-intelligence/engage/internal/memstore"
	"github.com/mesh-intelligence/engage/internal/sqlite"
	"github.com/mesh-intelligence/engage/pkg/types"
)

// NewBackend creates a detached backend for the named implementation.
// Returns an error wrapping ErrBackendUnknown for unrecognized names.
//
// Example:
//
//	backend, err := store.NewBackend(types.BackendSQLite, logger)
//	err = backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".engage-db",
//	})
//	defer backend.Detach()
func NewBackend(name string, logger *zap.Logger) (types.Backend, error) {
	switch name {
	case types.BackendSQLite:
		return sqlite.NewBackend(logger), nil
	case types.BackendBadger:
		return badgerstore.New(logger), nil
	case types.BackendMemory:
		return memstore.NewDetached(), nil
	case "":
		return nil, types.ErrBackendEmpty
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, name)
	}
}

// Open creates and attaches the backend named by config.Backend.
// The caller must Detach the returned backend.
func Open(config types.Config, logger *zap.Logger) (types.Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	b, err := NewBackend(config.Backend, logger)
	if err != nil {
		return nil, err
	}
	if err := b.Attach(config); err != nil {
		return nil, fmt.Errorf("attach %s backend: %w", config.Backend, err)
	}
	return b, nil
}
