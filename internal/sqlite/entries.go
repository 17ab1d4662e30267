// This file implements the key/value accessors over the entries table.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/engage/pkg/types"
)

// Get returns the value stored under key.
// Returns ErrStoreDetached if the backend is not attached.
func (b *Backend) Get(key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return "", false, types.ErrStoreDetached
	}
	if key == "" {
		return "", false, types.ErrInvalidKey
	}

	var value string
	err := b.db.QueryRow(selectEntry, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts key and persists entries.jsonl according to the sync strategy.
func (b *Backend) Set(key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	if key == "" {
		return types.ErrInvalidKey
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := b.db.Exec(upsertEntry, key, value, now); err != nil {
		return fmt.Errorf("persisting %s: %w", key, err)
	}

	if !b.shouldPersistImmediately() {
		b.dirty = true
		return nil
	}
	if err := b.persistLocked(); err != nil {
		return fmt.Errorf("persisting %s: %w", entriesFileName, err)
	}
	return nil
}

// All returns every stored entry.
func (b *Backend) All() (map[string]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	recs, err := queryEntries(b.db)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(recs))
	for _, r := range recs {
		out[r.Key] = r.Value
	}
	return out, nil
}

// persistLocked rewrites entries.jsonl from the entries table.
// The caller must hold b.mu write lock.
func (b *Backend) persistLocked() error {
	recs, err := queryEntries(b.db)
	if err != nil {
		return err
	}
	lines, err := encodeEntries(recs)
	if err != nil {
		return err
	}
	if err := writeJSONL(b.jsonlPath(), lines); err != nil {
		return err
	}
	b.logger.Debug("persisted", zap.Int("entries", len(recs)))
	return nil
}

// queryEntries reads all rows ordered by key.
func queryEntries(db *sql.DB) ([]entryRecord, error) {
	rows, err := db.Query(selectEntries)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var recs []entryRecord
	for rows.Next() {
		var r entryRecord
		if err := rows.Scan(&r.Key, &r.Value, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return recs, nil
}
