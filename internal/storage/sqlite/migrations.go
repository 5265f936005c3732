package sqlite

import "database/sql"

// schema holds the ledger document spread over one table per collection.
// These run on startup to ensure tables exist.
// ledger_meta has at most one row; its presence means the document has been
// created, even when every other table is empty.
const schema = `
CREATE TABLE IF NOT EXISTS ledger_meta (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS people (
    position INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS paid_dates (
    date TEXT PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_messages (
    seq INTEGER PRIMARY KEY,
    id TEXT NOT NULL DEFAULT '',
    user_name TEXT NOT NULL,
    text TEXT NOT NULL,
    timestamp TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_paid_dates_name ON paid_dates(name);
`

// runMigrations executes the schema creation SQL.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
