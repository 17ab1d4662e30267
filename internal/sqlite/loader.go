// This file implements JSONL loading for startup.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// loadEntriesJSONL reads entries.jsonl and inserts its records into the
// entries table. Loading is transactional: all records load or the table
// stays empty. Lines that do not decode into an entry, or that have an empty
// key, are skipped. When a key repeats, the last line wins. Unknown fields
// are ignored. Returns the number of rows in the table after loading.
func loadEntriesJSONL(db *sql.DB, path string) (int, error) {
	records, err := readJSONL(path)
	if err != nil {
		return 0, err
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(upsertEntry)
	if err != nil {
		return 0, fmt.Errorf("preparing entry insert: %w", err)
	}
	defer stmt.Close()

	for _, raw := range records {
		var rec entryRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		if rec.Key == "" {
			continue
		}
		if rec.UpdatedAt == "" {
			rec.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
		}
		if _, err := stmt.Exec(rec.Key, rec.Value, rec.UpdatedAt); err != nil {
			return 0, fmt.Errorf("loading entry %s: %w", rec.Key, err)
		}
	}

	var n int
	if err := tx.QueryRow("SELECT COUNT(*) FROM entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load transaction: %w", err)
	}
	return n, nil
}
