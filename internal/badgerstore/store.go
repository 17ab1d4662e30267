// Package badgerstore implements the counter store on an embedded BadgerDB.
//
// Badger keeps a single version per key and writes synchronously, so a
// counter increment survives a crash once Set returns. An empty DataDir
// opens the database in memory.
package badgerstore

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/engage/internal/logging"
	"github.com/mesh-intelligence/engage/pkg/types"
)

var _ types.Backend = (*Store)(nil)

// Store implements types.Backend over a *badger.DB.
type Store struct {
	mu       sync.RWMutex
	attached bool
	db       *badger.DB
	logger   *zap.Logger
}

// New creates a detached Badger store.
func New(logger *zap.Logger) *Store {
	return &Store{logger: logging.OrNop(logger).Named("badger")}
}

// zapLogger adapts zap to Badger's Logger interface.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Errorf(format string, args ...any)   { l.s.Errorf(format, args...) }
func (l zapLogger) Warningf(format string, args ...any) { l.s.Warnf(format, args...) }
func (l zapLogger) Infof(format string, args ...any)    { l.s.Debugf(format, args...) }
func (l zapLogger) Debugf(format string, args ...any)   { l.s.Debugf(format, args...) }

// Attach opens the database under config.DataDir.
func (s *Store) Attach(config types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	var opts badger.Options
	if config.DataDir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(config.DataDir, 0o750); err != nil {
			return fmt.Errorf("create database directory %s: %w", config.DataDir, err)
		}
		opts = badger.DefaultOptions(config.DataDir).WithSyncWrites(true)
	}
	opts = opts.
		WithNumVersionsToKeep(1).
		WithLogger(zapLogger{s: s.logger.Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("open badger database: %w", err)
	}

	s.db = db
	s.attached = true
	s.logger.Debug("attached", zap.String("data_dir", config.DataDir))
	return nil
}

// Detach closes the database. Idempotent.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	s.attached = false
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close badger database: %w", err)
	}
	s.db = nil
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

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting %s: %w", key, err)
	}
	return string(value), true, nil
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return types.ErrStoreDetached
	}
	if key == "" {
		return types.ErrInvalidKey
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("persisting %s: %w", key, err)
	}
	return nil
}

// All returns every stored entry.
func (s *Store) All() (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return nil, types.ErrStoreDetached
	}

	out := make(map[string]string)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out[string(item.KeyCopy(nil))] = string(v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return out, nil
}
