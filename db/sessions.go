package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	// necessary import to wire up the postgres driver
	_ "github.com/lib/pq"

	dbtx "mynahbackend/db/tx"
)

// SessionRow is one persisted conversation context
type SessionRow struct {
	SessionKey string    `db:"session_key"`
	Payload    []byte    `db:"payload"`
	Revision   int64     `db:"revision"`
	ExpiresAt  time.Time `db:"expires_at"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type PostgresSessionsRepository struct {
	db     *sqlx.DB
	schema string
}

var sessionColumns = []string{
	"session_key",
	"payload",
	"revision",
	"expires_at",
	"created_at",
	"updated_at",
}

func NewPostgresSessionsRepository(db *sqlx.DB, schema string) *PostgresSessionsRepository {
	return &PostgresSessionsRepository{db: db, schema: schema}
}

func (r *PostgresSessionsRepository) UpsertSession(
	ctx context.Context,
	sessionKey string,
	payload []byte,
	revision int64,
	ttl time.Duration,
) error {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		INSERT INTO %s.sessions (session_key, payload, revision, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, NOW() + $4 * INTERVAL '1 second', NOW(), NOW())
		ON CONFLICT (session_key) DO UPDATE
		SET payload = EXCLUDED.payload,
			revision = EXCLUDED.revision,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()`, r.schema)

	if _, err := db.ExecContext(ctx, query, sessionKey, payload, revision, ttl.Seconds()); err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

// InsertSessionIfAbsent writes a new session unless a live one already exists under the key.
// Returns false when a live row was in the way.
func (r *PostgresSessionsRepository) InsertSessionIfAbsent(
	ctx context.Context,
	sessionKey string,
	payload []byte,
	revision int64,
	ttl time.Duration,
) (bool, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		INSERT INTO %s.sessions AS s (session_key, payload, revision, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, NOW() + $4 * INTERVAL '1 second', NOW(), NOW())
		ON CONFLICT (session_key) DO UPDATE
		SET payload = EXCLUDED.payload,
			revision = EXCLUDED.revision,
			expires_at = EXCLUDED.expires_at,
			created_at = NOW(),
			updated_at = NOW()
		WHERE s.expires_at <= NOW()`, r.schema)

	result, err := db.ExecContext(ctx, query, sessionKey, payload, revision, ttl.Seconds())
	if err != nil {
		return false, fmt.Errorf("failed to insert session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// GetAndTouchSession returns the live session and slides its expiry forward
func (r *PostgresSessionsRepository) GetAndTouchSession(
	ctx context.Context,
	sessionKey string,
	ttl time.Duration,
) (*SessionRow, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	returningStr := strings.Join(sessionColumns, ", ")
	query := fmt.Sprintf(`
		UPDATE %s.sessions
		SET expires_at = NOW() + $2 * INTERVAL '1 second'
		WHERE session_key = $1 AND expires_at > NOW()
		RETURNING %s`, r.schema, returningStr)

	row := &SessionRow{}
	err := db.QueryRowxContext(ctx, query, sessionKey, ttl.Seconds()).StructScan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return row, nil
}

// PeekSession reads a live session without touching its expiry
func (r *PostgresSessionsRepository) PeekSession(ctx context.Context, sessionKey string) (*SessionRow, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.sessions
		WHERE session_key = $1 AND expires_at > NOW()`, strings.Join(sessionColumns, ", "), r.schema)

	row := &SessionRow{}
	if err := db.GetContext(ctx, row, query, sessionKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to peek session: %w", err)
	}
	return row, nil
}

// LockSessionRevision reads the stored revision under a row lock. Must run inside a transaction.
func (r *PostgresSessionsRepository) LockSessionRevision(ctx context.Context, sessionKey string) (int64, bool, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT revision
		FROM %s.sessions
		WHERE session_key = $1 AND expires_at > NOW()
		FOR UPDATE`, r.schema)

	var revision int64
	if err := db.GetContext(ctx, &revision, query, sessionKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to lock session revision: %w", err)
	}
	return revision, true, nil
}

func (r *PostgresSessionsRepository) DeleteSession(ctx context.Context, sessionKey string) (bool, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`DELETE FROM %s.sessions WHERE session_key = $1`, r.schema)
	result, err := db.ExecContext(ctx, query, sessionKey)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *PostgresSessionsRepository) SessionExists(ctx context.Context, sessionKey string) (bool, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT EXISTS(SELECT 1 FROM %s.sessions WHERE session_key = $1 AND expires_at > NOW())`, r.schema)

	var exists bool
	if err := db.GetContext(ctx, &exists, query, sessionKey); err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}
	return exists, nil
}

// ListSessionKeys returns live session keys, optionally filtered by a LIKE pattern
func (r *PostgresSessionsRepository) ListSessionKeys(ctx context.Context, likePattern string) ([]string, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT session_key
		FROM %s.sessions
		WHERE expires_at > NOW() AND session_key LIKE $1
		ORDER BY updated_at DESC`, r.schema)

	if likePattern == "" {
		likePattern = "%"
	}

	var keys []string
	if err := db.SelectContext(ctx, &keys, query, likePattern); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return keys, nil
}

// ListLiveSessions returns every unexpired row without touching expiries
func (r *PostgresSessionsRepository) ListLiveSessions(ctx context.Context) ([]*SessionRow, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.sessions
		WHERE expires_at > NOW()
		ORDER BY updated_at DESC`, strings.Join(sessionColumns, ", "), r.schema)

	var rows []*SessionRow
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list live sessions: %w", err)
	}
	return rows, nil
}

// GetSessionTTL returns the remaining lifetime of a live session
func (r *PostgresSessionsRepository) GetSessionTTL(ctx context.Context, sessionKey string) (time.Duration, bool, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT EXTRACT(EPOCH FROM (expires_at - NOW()))::BIGINT
		FROM %s.sessions
		WHERE session_key = $1 AND expires_at > NOW()`, r.schema)

	var seconds int64
	if err := db.GetContext(ctx, &seconds, query, sessionKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get session ttl: %w", err)
	}
	return time.Duration(seconds) * time.Second, true, nil
}

// DeleteExpiredSessions removes rows past their expiry and returns how many went
func (r *PostgresSessionsRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`DELETE FROM %s.sessions WHERE expires_at <= NOW()`, r.schema)
	result, err := db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}
