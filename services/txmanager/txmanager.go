package txmanager

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"

	dbtx "mynahbackend/db/tx"
)

const defaultSlowThreshold = 500 * time.Millisecond

type TransactionManager struct {
	db            *sqlx.DB
	txOptions     *sql.TxOptions
	slowThreshold time.Duration
}

type Option func(*TransactionManager)

// WithIsolation sets the isolation level of every transaction the manager opens
func WithIsolation(level sql.IsolationLevel) Option {
	return func(tm *TransactionManager) {
		tm.txOptions = &sql.TxOptions{Isolation: level}
	}
}

// WithSlowThreshold sets how long a transaction may stay open before it is logged as slow
func WithSlowThreshold(threshold time.Duration) Option {
	return func(tm *TransactionManager) {
		tm.slowThreshold = threshold
	}
}

func NewTransactionManager(db *sqlx.DB, opts ...Option) *TransactionManager {
	tm := &TransactionManager{db: db, slowThreshold: defaultSlowThreshold}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// WithTransaction runs fn inside a transaction carried on the context.
// Nested calls join the outer transaction, so only the outermost call commits.
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	if _, ok := dbtx.TransactionFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := tm.db.BeginTxx(ctx, tm.txOptions)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	startedAt := time.Now()
	defer func() {
		if elapsed := time.Since(startedAt); elapsed > tm.slowThreshold {
			log.Printf("⚠️ Slow session transaction: held for %s", elapsed)
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Panic inside session transaction, rolling back: %v", r)
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				log.Printf("❌ Failed to rollback after panic: %v", rollbackErr)
			}
			panic(r)
		}
	}()

	if err := fn(dbtx.WithTransaction(ctx, tx)); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rollbackErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
