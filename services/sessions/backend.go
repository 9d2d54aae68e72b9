package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Backend stores serialized contexts keyed by session id. It never interprets the payload
// beyond the revision counter needed for compare-and-swap.
type Backend interface {
	Name() string
	Put(ctx context.Context, sessionID string, payload []byte, revision int64, ttl time.Duration) error
	// PutIfRevision writes only when the stored revision equals expected (0 means absent).
	// Returns core.ErrRevisionConflict otherwise.
	PutIfRevision(ctx context.Context, sessionID string, payload []byte, revision, expected int64, ttl time.Duration) error
	// Get returns the payload and resets its expiry to ttl
	Get(ctx context.Context, sessionID string, ttl time.Duration) ([]byte, bool, error)
	// Peek returns the payload without touching its expiry
	Peek(ctx context.Context, sessionID string) ([]byte, bool, error)
	Delete(ctx context.Context, sessionID string) (bool, error)
	Exists(ctx context.Context, sessionID string) (bool, error)
	SessionIDs(ctx context.Context) ([]string, error)
	TTL(ctx context.Context, sessionID string) (time.Duration, bool, error)
	Close() error
}

// Reaper is implemented by backends that need expired entries removed on a schedule
type Reaper interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type revisionEnvelope struct {
	Revision int64 `json:"revision"`
}

func payloadRevision(payload []byte) (int64, error) {
	var envelope revisionEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return 0, fmt.Errorf("failed to read stored revision: %w", err)
	}
	return envelope.Revision, nil
}
