package sqlite

// Schema DDL. The entries table mirrors entries.jsonl one row per key.
const (
	createEntries = `CREATE TABLE entries (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	idxEntriesUpdated = `CREATE INDEX idx_entries_updated ON entries(updated_at);`
)

// schemaDDL lists all statements executed on Attach, in order.
var schemaDDL = []string{
	createEntries,
	idxEntriesUpdated,
}

// Statements used by the entries accessor.
const (
	selectEntry   = "SELECT value FROM entries WHERE key = ?"
	selectEntries = "SELECT key, value, updated_at FROM entries ORDER BY key"
	upsertEntry   = `INSERT INTO entries (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
)
