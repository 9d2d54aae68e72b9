package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	// necessary import to wire up the postgres driver
	_ "github.com/lib/pq"
)

func NewConnection(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// EnsureSessionsTable creates the sessions table in the given schema if it is missing
func EnsureSessionsTable(db *sqlx.DB, schema string) error {
	if _, err := db.Exec(fmt.Sprintf(sessionsTableDDL, schema, schema, schema)); err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}
	return nil
}

const sessionsTableDDL = `
CREATE TABLE IF NOT EXISTS %s.sessions (
	session_key TEXT PRIMARY KEY,
	payload     JSONB NOT NULL,
	revision    BIGINT NOT NULL DEFAULT 0,
	expires_at  TIMESTAMPTZ NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS sessions_expires_at_idx ON %s.sessions (expires_at);
COMMENT ON TABLE %s.sessions IS 'conversation contexts keyed by session id';
`
