// Package store provides the SQLite-backed card store.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS cards (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	section     TEXT NOT NULL,
	card_name   TEXT NOT NULL,
	icon        TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	sets        INTEGER,
	reps        INTEGER,
	equipment   TEXT,
	targets     TEXT,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(section, card_name)
);

CREATE INDEX IF NOT EXISTS idx_cards_card_name ON cards(card_name);

-- Every key that was ever stored. Rows outlive the card so seeding never
-- brings back a deleted card.
CREATE TABLE IF NOT EXISTS card_keys (
	section   TEXT NOT NULL,
	card_name TEXT NOT NULL,
	PRIMARY KEY (section, card_name)
);

CREATE TRIGGER IF NOT EXISTS cards_record_key AFTER INSERT ON cards
BEGIN
	INSERT OR IGNORE INTO card_keys (section, card_name) VALUES (NEW.section, NEW.card_name);
END;

INSERT OR IGNORE INTO card_keys (section, card_name) SELECT section, card_name FROM cards;
`

// DB wraps a sql.DB with card-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
// Write transactions start with BEGIN IMMEDIATE so concurrent patches to the
// same card serialize instead of failing on lock upgrade.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// New wraps an already opened connection. The schema is not applied.
func New(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
