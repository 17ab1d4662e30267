// Package sqlite implements the SQLite storage backend for the engage
// counter store. SQLite is the query engine; entries.jsonl in the data
// directory is the source of truth and is reloaded on every Attach.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/engage/internal/logging"
	"github.com/mesh-intelligence/engage/pkg/types"
)

const (
	dbFileName      = "store.db"
	entriesFileName = "entries.jsonl"
)

var _ types.Backend = (*Backend)(nil)

// Backend implements types.Backend using SQLite as the query engine and
// a JSONL file as the source of truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	dataDir  string
	db       *sql.DB
	logger   *zap.Logger

	// syncStrategy is the effective strategy: immediate or on_close.
	syncStrategy string
	// dirty is set when on_close has deferred a JSONL write.
	dirty bool
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(logger *zap.Logger) *Backend {
	return &Backend{logger: logging.OrNop(logger).Named("sqlite")}
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, rebuilds the SQLite schema, and
// loads entries.jsonl into it.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// The database is a cache of entries.jsonl; start from a fresh schema.
	dbPath := filepath.Join(dataDir, dbFileName)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("create schema: %w", err)
		}
	}

	jsonlPath := filepath.Join(dataDir, entriesFileName)
	if err := ensureJSONLFile(jsonlPath); err != nil {
		db.Close()
		return err
	}

	loaded, err := loadEntriesJSONL(db, jsonlPath)
	if err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.config = config
	b.dataDir = dataDir
	b.syncStrategy = config.EffectiveSyncStrategy()
	b.dirty = false
	b.attached = true

	b.logger.Debug("attached",
		zap.String("data_dir", dataDir),
		zap.String("sync_strategy", b.syncStrategy),
		zap.Int("entries", loaded))
	return nil
}

// Detach releases all resources held by the backend. For the on_close sync
// strategy it flushes the deferred JSONL write first. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.dirty {
		if err := b.persistLocked(); err != nil {
			return fmt.Errorf("flush pending writes: %w", err)
		}
		b.dirty = false
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	b.logger.Debug("detached", zap.String("data_dir", b.dataDir))
	return nil
}

// shouldPersistImmediately reports whether Set writes entries.jsonl before
// returning.
func (b *Backend) shouldPersistImmediately() bool {
	return b.syncStrategy == types.SyncImmediate
}

// jsonlPath returns the path of the source-of-truth file.
func (b *Backend) jsonlPath() string {
	return filepath.Join(b.dataDir, entriesFileName)
}
