package sessions

import (
	"context"
	"slices"
	"sync"
	"time"

	"mynahbackend/core"
)

type memoryEntry struct {
	payload   []byte
	revision  int64
	expiresAt time.Time
}

// MemoryBackend keeps sessions in process. Expired entries are invisible on access and
// removed by DeleteExpired.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryBackend(now func() time.Time) *MemoryBackend {
	if now == nil {
		now = time.Now
	}
	return &MemoryBackend{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

func (b *MemoryBackend) Name() string {
	return "memory"
}

func (b *MemoryBackend) Put(
	ctx context.Context,
	sessionID string,
	payload []byte,
	revision int64,
	ttl time.Duration,
) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[sessionID] = memoryEntry{
		payload:   slices.Clone(payload),
		revision:  revision,
		expiresAt: b.now().Add(ttl),
	}
	return nil
}

func (b *MemoryBackend) PutIfRevision(
	ctx context.Context,
	sessionID string,
	payload []byte,
	revision, expected int64,
	ttl time.Duration,
) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var current int64
	if entry, ok := b.liveEntry(sessionID); ok {
		current = entry.revision
	}
	if current != expected {
		return core.ErrRevisionConflict
	}

	b.entries[sessionID] = memoryEntry{
		payload:   slices.Clone(payload),
		revision:  revision,
		expiresAt: b.now().Add(ttl),
	}
	return nil
}

func (b *MemoryBackend) Get(ctx context.Context, sessionID string, ttl time.Duration) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.liveEntry(sessionID)
	if !ok {
		return nil, false, nil
	}
	entry.expiresAt = b.now().Add(ttl)
	b.entries[sessionID] = entry
	return slices.Clone(entry.payload), true, nil
}

func (b *MemoryBackend) Peek(ctx context.Context, sessionID string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.liveEntry(sessionID)
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(entry.payload), true, nil
}

func (b *MemoryBackend) Delete(ctx context.Context, sessionID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.liveEntry(sessionID)
	delete(b.entries, sessionID)
	return ok, nil
}

func (b *MemoryBackend) Exists(ctx context.Context, sessionID string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.liveEntry(sessionID)
	return ok, nil
}

func (b *MemoryBackend) SessionIDs(ctx context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.entries))
	for id := range b.entries {
		if _, ok := b.liveEntry(id); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (b *MemoryBackend) TTL(ctx context.Context, sessionID string) (time.Duration, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.liveEntry(sessionID)
	if !ok {
		return 0, false, nil
	}
	return entry.expiresAt.Sub(b.now()), true, nil
}

// DeleteExpired drops every entry whose expiry has passed
func (b *MemoryBackend) DeleteExpired(ctx context.Context) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	var removed int64
	for id, entry := range b.entries {
		if !now.Before(entry.expiresAt) {
			delete(b.entries, id)
			removed++
		}
	}
	return removed, nil
}

func (b *MemoryBackend) Close() error {
	return nil
}

// liveEntry must be called with the lock held
func (b *MemoryBackend) liveEntry(sessionID string) (memoryEntry, bool) {
	entry, ok := b.entries[sessionID]
	if !ok || !b.now().Before(entry.expiresAt) {
		return memoryEntry{}, false
	}
	return entry, true
}
