package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/samber/mo"
	log "github.com/sirupsen/logrus"

	"mynahbackend/core"
	"mynahbackend/models"
)

const (
	DefaultTTL       = time.Hour
	operationTimeout = 5 * time.Second
)

type pinger interface {
	Ping(ctx context.Context) error
}

type prefixed interface {
	KeyPrefix() string
}

// Store serialises conversation contexts into a Backend with a sliding TTL
type Store struct {
	backend Backend
	ttl     time.Duration
	now     func() time.Time
}

func NewStore(backend Backend, ttl time.Duration, now func() time.Time) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Store{backend: backend, ttl: ttl, now: now}
}

func (s *Store) Backend() string {
	return s.backend.Name()
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Save writes the context unconditionally and bumps its revision
func (s *Store) Save(ctx context.Context, convCtx *models.ConversationContext) bool {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	previousRevision, previousUpdatedAt := convCtx.Revision, convCtx.UpdatedAt
	convCtx.Revision++
	convCtx.UpdatedAt = s.now()

	err := s.write(convCtx, func(payload []byte) error {
		return s.backend.Put(ctx, convCtx.SessionID, payload, convCtx.Revision, s.ttl)
	})
	if err != nil {
		convCtx.Revision, convCtx.UpdatedAt = previousRevision, previousUpdatedAt
		log.Printf("❌ Failed to save session %s to %s: %v", convCtx.SessionID, s.Backend(), err)
		return false
	}
	return true
}

// SaveIfRevision writes the context only if nobody saved it since expectedRevision was read
func (s *Store) SaveIfRevision(
	ctx context.Context,
	convCtx *models.ConversationContext,
	expectedRevision int64,
) error {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	previousRevision, previousUpdatedAt := convCtx.Revision, convCtx.UpdatedAt
	convCtx.Revision = expectedRevision + 1
	convCtx.UpdatedAt = s.now()

	err := s.write(convCtx, func(payload []byte) error {
		return s.backend.PutIfRevision(ctx, convCtx.SessionID, payload, convCtx.Revision, expectedRevision, s.ttl)
	})
	if err != nil {
		convCtx.Revision, convCtx.UpdatedAt = previousRevision, previousUpdatedAt
		if errors.Is(err, core.ErrRevisionConflict) {
			return err
		}
		return fmt.Errorf("failed to save session %s: %w", convCtx.SessionID, err)
	}
	return nil
}

func (s *Store) write(convCtx *models.ConversationContext, put func(payload []byte) error) error {
	payload, err := json.Marshal(convCtx)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}
	return put(payload)
}

// Load returns the stored context and refreshes its TTL
func (s *Store) Load(ctx context.Context, sessionID string) mo.Option[*models.ConversationContext] {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	payload, found, err := s.backend.Get(ctx, sessionID, s.ttl)
	if err != nil {
		log.Printf("❌ Failed to load session %s from %s: %v", sessionID, s.Backend(), err)
		return mo.None[*models.ConversationContext]()
	}
	if !found {
		return mo.None[*models.ConversationContext]()
	}
	return s.decode(sessionID, payload)
}

// Peek reads the stored context without refreshing its TTL
func (s *Store) Peek(ctx context.Context, sessionID string) mo.Option[*models.ConversationContext] {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	payload, found, err := s.backend.Peek(ctx, sessionID)
	if err != nil {
		log.Printf("❌ Failed to peek session %s in %s: %v", sessionID, s.Backend(), err)
		return mo.None[*models.ConversationContext]()
	}
	if !found {
		return mo.None[*models.ConversationContext]()
	}
	return s.decode(sessionID, payload)
}

func (s *Store) decode(sessionID string, payload []byte) mo.Option[*models.ConversationContext] {
	var convCtx models.ConversationContext
	if err := json.Unmarshal(payload, &convCtx); err != nil {
		log.Printf("❌ Corrupt payload for session %s, treating as absent: %v", sessionID, err)
		return mo.None[*models.ConversationContext]()
	}
	return mo.Some(&convCtx)
}

func (s *Store) Delete(ctx context.Context, sessionID string) bool {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	deleted, err := s.backend.Delete(ctx, sessionID)
	if err != nil {
		log.Printf("❌ Failed to delete session %s from %s: %v", sessionID, s.Backend(), err)
		return false
	}
	return deleted
}

func (s *Store) Exists(ctx context.Context, sessionID string) bool {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	exists, err := s.backend.Exists(ctx, sessionID)
	if err != nil {
		log.Printf("❌ Failed to check session %s in %s: %v", sessionID, s.Backend(), err)
		return false
	}
	return exists
}

// GetTTL reports the remaining lifetime without refreshing it
func (s *Store) GetTTL(ctx context.Context, sessionID string) mo.Option[time.Duration] {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	ttl, found, err := s.backend.TTL(ctx, sessionID)
	if err != nil {
		log.Printf("❌ Failed to get ttl of session %s in %s: %v", sessionID, s.Backend(), err)
		return mo.None[time.Duration]()
	}
	if !found {
		return mo.None[time.Duration]()
	}
	return mo.Some(ttl)
}

// ListSessions summarises every live session, most recently updated first
func (s *Store) ListSessions(ctx context.Context) []models.SessionInfo {
	contexts := s.liveContexts(ctx)

	infos := make([]models.SessionInfo, 0, len(contexts))
	for _, convCtx := range contexts {
		infos = append(infos, models.SessionInfo{
			SessionID:     convCtx.SessionID,
			DebtorID:      convCtx.DebtorID,
			Intent:        convCtx.Intent,
			AwaitingInput: convCtx.AwaitingInput,
			Revision:      convCtx.Revision,
			TTL:           s.GetTTL(ctx, convCtx.SessionID).OrElse(0),
			UpdatedAt:     convCtx.UpdatedAt,
		})
	}

	slices.SortFunc(infos, func(a, b models.SessionInfo) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return infos
}

func (s *Store) GetStats(ctx context.Context) models.SessionStats {
	stats := models.SessionStats{
		Backend:  s.Backend(),
		TTL:      s.ttl,
		ByIntent: map[models.Intent]int{},
	}
	if p, ok := s.backend.(prefixed); ok {
		stats.KeyPrefix = p.KeyPrefix()
	}

	for _, convCtx := range s.liveContexts(ctx) {
		stats.TotalSessions++
		stats.ByIntent[convCtx.Intent]++
		if convCtx.AwaitingInput != models.AwaitingNothing {
			stats.AwaitingInput++
		}
		if convCtx.HasVerifiedAccount() {
			stats.Verified++
		}
	}
	return stats
}

// liveContexts peeks every live session. Entries that vanish or fail to decode are skipped.
func (s *Store) liveContexts(ctx context.Context) []*models.ConversationContext {
	listCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	ids, err := s.backend.SessionIDs(listCtx)
	cancel()
	if err != nil {
		log.Printf("❌ Failed to list sessions in %s: %v", s.Backend(), err)
		return nil
	}

	contexts := make([]*models.ConversationContext, 0, len(ids))
	for _, id := range ids {
		if convCtx, ok := s.Peek(ctx, id).Get(); ok {
			contexts = append(contexts, convCtx)
		}
	}
	return contexts
}

// Ping checks the backend connection for durable backends
func (s *Store) Ping(ctx context.Context) error {
	p, ok := s.backend.(pinger)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()
	return p.Ping(ctx)
}

func (s *Store) Close() error {
	return s.backend.Close()
}
