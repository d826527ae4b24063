// Package catalog exports decoded eventlogs into a SQLite database so captures
// can be queried after the fact.
package catalog

// CreateCapturesTableSQL creates the table of exported captures. One row per
// distinct input buffer, keyed by a content fingerprint for idempotent export.
const CreateCapturesTableSQL = `
CREATE TABLE IF NOT EXISTS captures (
    capture_id TEXT PRIMARY KEY,
    fingerprint TEXT NOT NULL UNIQUE,
    source TEXT NOT NULL,
    size_bytes INTEGER NOT NULL,
    header_bytes INTEGER NOT NULL,
    body_bytes INTEGER NOT NULL,
    type_count INTEGER NOT NULL,
    event_count INTEGER NOT NULL,
    created_at INTEGER NOT NULL
)`

// CreateEventTypesTableSQL creates the type dictionary table. ordinal keeps
// file order, so duplicate ids are preserved as declared.
const CreateEventTypesTableSQL = `
CREATE TABLE IF NOT EXISTS event_types (
    capture_id TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    type_id INTEGER NOT NULL,
    variable INTEGER NOT NULL,
    width INTEGER NOT NULL,
    description BLOB NOT NULL,
    extra_info BLOB NOT NULL,
    PRIMARY KEY (capture_id, ordinal),
    FOREIGN KEY (capture_id) REFERENCES captures(capture_id)
)`

// CreateEventsTableSQL creates the event stream table. time_ns holds the
// unsigned timestamp bit-cast to a signed integer.
const CreateEventsTableSQL = `
CREATE TABLE IF NOT EXISTS events (
    capture_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    type_id INTEGER NOT NULL,
    time_ns INTEGER NOT NULL,
    data BLOB NOT NULL,
    PRIMARY KEY (capture_id, seq),
    FOREIGN KEY (capture_id) REFERENCES captures(capture_id)
)`

// CreateIndexesSQL creates lookup indexes.
var CreateIndexesSQL = []string{
	`CREATE INDEX IF NOT EXISTS idx_events_type ON events(capture_id, type_id, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_captures_created ON captures(created_at)`,
}

// AllSchemaSQL returns all schema statements in execution order.
func AllSchemaSQL() []string {
	stmts := []string{
		CreateCapturesTableSQL,
		CreateEventTypesTableSQL,
		CreateEventsTableSQL,
	}
	return append(stmts, CreateIndexesSQL...)
}
