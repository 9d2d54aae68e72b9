package sessions

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"mynahbackend/core"
	"mynahbackend/db"
	"mynahbackend/services"
	"mynahbackend/services/txmanager"
)

type PostgresBackend struct {
	conn      *sqlx.DB
	repo      *db.PostgresSessionsRepository
	txManager services.TransactionManager
}

func NewPostgresBackend(conn *sqlx.DB, schema string) *PostgresBackend {
	return &PostgresBackend{
		conn:      conn,
		repo:      db.NewPostgresSessionsRepository(conn, schema),
		txManager: txmanager.NewTransactionManager(conn, txmanager.WithIsolation(sql.LevelReadCommitted)),
	}
}

func (b *PostgresBackend) Name() string {
	return "postgres"
}

func (b *PostgresBackend) Put(
	ctx context.Context,
	sessionID string,
	payload []byte,
	revision int64,
	ttl time.Duration,
) error {
	return b.repo.UpsertSession(ctx, sessionID, payload, revision, ttl)
}

func (b *PostgresBackend) PutIfRevision(
	ctx context.Context,
	sessionID string,
	payload []byte,
	revision, expected int64,
	ttl time.Duration,
) error {
	return b.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		current, found, err := b.repo.LockSessionRevision(ctx, sessionID)
		if err != nil {
			return err
		}

		if !found {
			if expected != 0 {
				return core.ErrRevisionConflict
			}
			inserted, err := b.repo.InsertSessionIfAbsent(ctx, sessionID, payload, revision, ttl)
			if err != nil {
				return err
			}
			if !inserted {
				return core.ErrRevisionConflict
			}
			return nil
		}

		if current != expected {
			return core.ErrRevisionConflict
		}
		return b.repo.UpsertSession(ctx, sessionID, payload, revision, ttl)
	})
}

func (b *PostgresBackend) Get(ctx context.Context, sessionID string, ttl time.Duration) ([]byte, bool, error) {
	row, err := b.repo.GetAndTouchSession(ctx, sessionID, ttl)
	if err != nil || row == nil {
		return nil, false, err
	}
	return row.Payload, true, nil
}

func (b *PostgresBackend) Peek(ctx context.Context, sessionID string) ([]byte, bool, error) {
	row, err := b.repo.PeekSession(ctx, sessionID)
	if err != nil || row == nil {
		return nil, false, err
	}
	return row.Payload, true, nil
}

func (b *PostgresBackend) Delete(ctx context.Context, sessionID string) (bool, error) {
	return b.repo.DeleteSession(ctx, sessionID)
}

func (b *PostgresBackend) Exists(ctx context.Context, sessionID string) (bool, error) {
	return b.repo.SessionExists(ctx, sessionID)
}

func (b *PostgresBackend) SessionIDs(ctx context.Context) ([]string, error) {
	return b.repo.ListSessionKeys(ctx, "")
}

func (b *PostgresBackend) TTL(ctx context.Context, sessionID string) (time.Duration, bool, error) {
	return b.repo.GetSessionTTL(ctx, sessionID)
}

// DeleteExpired lets the cleanup service keep the table small. Expired rows are already
// invisible to every read.
func (b *PostgresBackend) DeleteExpired(ctx context.Context) (int64, error) {
	return b.repo.DeleteExpiredSessions(ctx)
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	if err := b.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping postgres: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Close() error {
	return b.conn.Close()
}
