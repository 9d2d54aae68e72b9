package sessions

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mynahbackend/config"
	"mynahbackend/core"
	"mynahbackend/models"
	"mynahbackend/testutils"
)

const testTTL = time.Hour

type storeFixture struct {
	store   *Store
	backend Backend
	// advance moves time forward for expiry tests; nil when the backend cannot be fast-forwarded
	advance func(time.Duration)
}

func newMemoryFixture(t *testing.T) storeFixture {
	clock := testutils.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	backend := NewMemoryBackend(clock.Now)
	return storeFixture{
		store:   NewStore(backend, testTTL, clock.Now),
		backend: backend,
		advance: clock.Advance,
	}
}

func newRedisFixture(t *testing.T) storeFixture {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	backend := NewRedisBackend(client)
	return storeFixture{
		store:   NewStore(backend, testTTL, nil),
		backend: backend,
		advance: mr.FastForward,
	}
}

func newPostgresFixture(t *testing.T) storeFixture {
	conn, schema := testutils.RequireTestDatabase(t)
	backend := NewPostgresBackend(conn, schema)
	return storeFixture{
		store:   NewStore(backend, testTTL, nil),
		backend: backend,
	}
}

func sampleContext(sessionID string) *models.ConversationContext {
	convCtx := models.NewConversationContext(sessionID, "debtor-42", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	convCtx.LastUserMessage = "I want to pay R500 per month"
	convCtx.Intent = models.IntentSetupPaymentPlan
	convCtx.Entities = models.Entities{
		Amount:    decimal.NewNullDecimal(decimal.NewFromInt(500)),
		Currency:  "ZAR",
		Frequency: "monthly",
		Raw:       map[string]any{"source": "test"},
	}
	convCtx.AgentPath = []string{models.StageIntentClassifier, models.StageEntityExtractor}
	convCtx.AwaitingInput = models.AwaitingIDNumber
	convCtx.UnderstoodMessage = true
	return &convCtx
}

func TestStore(t *testing.T) {
	fixtures := map[string]func(t *testing.T) storeFixture{
		"memory":   newMemoryFixture,
		"redis":    newRedisFixture,
		"postgres": newPostgresFixture,
	}

	for name, newFixture := range fixtures {
		t.Run(name, func(t *testing.T) {
			runStoreContract(t, newFixture)
		})
	}
}

func runStoreContract(t *testing.T, newFixture func(t *testing.T) storeFixture) {
	ctx := context.Background()

	t.Run("save then load round trips every field", func(t *testing.T) {
		f := newFixture(t)
		convCtx := sampleContext(testutils.NewTestSessionID())
		defer f.store.Delete(ctx, convCtx.SessionID)

		require.True(t, f.store.Save(ctx, convCtx))
		assert.Equal(t, int64(1), convCtx.Revision)

		loaded, ok := f.store.Load(ctx, convCtx.SessionID).Get()
		require.True(t, ok)

		expected, err := json.Marshal(convCtx)
		require.NoError(t, err)
		actual, err := json.Marshal(loaded)
		require.NoError(t, err)
		assert.JSONEq(t, string(expected), string(actual))
	})

	t.Run("missing session loads as none", func(t *testing.T) {
		f := newFixture(t)
		assert.True(t, f.store.Load(ctx, "missing-session").IsAbsent())
		assert.False(t, f.store.Exists(ctx, "missing-session"))
		assert.True(t, f.store.GetTTL(ctx, "missing-session").IsAbsent())
	})

	t.Run("delete reports removal once", func(t *testing.T) {
		f := newFixture(t)
		convCtx := sampleContext(testutils.NewTestSessionID())
		require.True(t, f.store.Save(ctx, convCtx))

		assert.True(t, f.store.Delete(ctx, convCtx.SessionID))
		assert.False(t, f.store.Delete(ctx, convCtx.SessionID))
		assert.False(t, f.store.Exists(ctx, convCtx.SessionID))
	})

	t.Run("save if revision detects a lost race", func(t *testing.T) {
		f := newFixture(t)
		convCtx := sampleContext(testutils.NewTestSessionID())
		defer f.store.Delete(ctx, convCtx.SessionID)

		require.NoError(t, f.store.SaveIfRevision(ctx, convCtx, 0))
		assert.Equal(t, int64(1), convCtx.Revision)

		stale := sampleContext(convCtx.SessionID)
		err := f.store.SaveIfRevision(ctx, stale, 0)
		require.ErrorIs(t, err, core.ErrRevisionConflict)
		assert.Equal(t, int64(0), stale.Revision)

		require.NoError(t, f.store.SaveIfRevision(ctx, convCtx, 1))
		assert.Equal(t, int64(2), convCtx.Revision)

		loaded, ok := f.store.Peek(ctx, convCtx.SessionID).Get()
		require.True(t, ok)
		assert.Equal(t, int64(2), loaded.Revision)
	})

	t.Run("list and stats describe live sessions", func(t *testing.T) {
		f := newFixture(t)
		first := sampleContext(testutils.NewTestSessionID())
		second := sampleContext(testutils.NewTestSessionID())
		second.Intent = models.IntentGetBalance
		second.AwaitingInput = models.AwaitingNothing
		second.IDNumber = "9001015009087"
		second.MatterDetails = testutils.CreateTestMatter(1000, 300)
		defer f.store.Delete(ctx, first.SessionID)
		defer f.store.Delete(ctx, second.SessionID)

		require.True(t, f.store.Save(ctx, first))
		require.True(t, f.store.Save(ctx, second))

		infos := f.store.ListSessions(ctx)
		ids := make([]string, 0, len(infos))
		for _, info := range infos {
			ids = append(ids, info.SessionID)
		}
		assert.Contains(t, ids, first.SessionID)
		assert.Contains(t, ids, second.SessionID)

		stats := f.store.GetStats(ctx)
		assert.Equal(t, f.backend.Name(), stats.Backend)
		assert.GreaterOrEqual(t, stats.TotalSessions, 2)
		assert.GreaterOrEqual(t, stats.ByIntent[models.IntentGetBalance], 1)
		assert.GreaterOrEqual(t, stats.Verified, 1)
		assert.GreaterOrEqual(t, stats.AwaitingInput, 1)
		assert.Equal(t, testTTL, stats.TTL)
	})

	t.Run("corrupt payload is reported as absent", func(t *testing.T) {
		f := newFixture(t)
		if f.backend.Name() == "postgres" {
			t.Skip("jsonb column rejects malformed payloads on write")
		}
		sessionID := testutils.NewTestSessionID()
		defer f.store.Delete(ctx, sessionID)

		require.NoError(t, f.backend.Put(ctx, sessionID, []byte("not json"), 1, testTTL))
		assert.True(t, f.store.Load(ctx, sessionID).IsAbsent())
	})

	t.Run("sessions expire after the ttl", func(t *testing.T) {
		f := newFixture(t)
		if f.advance == nil {
			t.Skip("backend cannot fast-forward time")
		}
		convCtx := sampleContext(testutils.NewTestSessionID())
		require.True(t, f.store.Save(ctx, convCtx))

		f.advance(testTTL + time.Second)

		assert.True(t, f.store.Load(ctx, convCtx.SessionID).IsAbsent())
		assert.False(t, f.store.Exists(ctx, convCtx.SessionID))
	})

	t.Run("load slides the expiry forward", func(t *testing.T) {
		f := newFixture(t)
		if f.advance == nil {
			t.Skip("backend cannot fast-forward time")
		}
		convCtx := sampleContext(testutils.NewTestSessionID())
		require.True(t, f.store.Save(ctx, convCtx))

		f.advance(40 * time.Minute)
		require.True(t, f.store.Load(ctx, convCtx.SessionID).IsPresent())

		f.advance(40 * time.Minute)
		assert.True(t, f.store.Exists(ctx, convCtx.SessionID))

		ttl, ok := f.store.GetTTL(ctx, convCtx.SessionID).Get()
		require.True(t, ok)
		assert.InDelta(t, (20 * time.Minute).Seconds(), ttl.Seconds(), 2)
	})

	t.Run("save slides the expiry forward", func(t *testing.T) {
		f := newFixture(t)
		if f.advance == nil {
			t.Skip("backend cannot fast-forward time")
		}
		convCtx := sampleContext(testutils.NewTestSessionID())
		require.True(t, f.store.Save(ctx, convCtx))

		f.advance(40 * time.Minute)
		require.True(t, f.store.Save(ctx, convCtx))

		ttl, ok := f.store.GetTTL(ctx, convCtx.SessionID).Get()
		require.True(t, ok)
		assert.InDelta(t, testTTL.Seconds(), ttl.Seconds(), 2)

		f.advance(40 * time.Minute)
		assert.True(t, f.store.Exists(ctx, convCtx.SessionID))
	})

	t.Run("peek and ttl do not refresh the expiry", func(t *testing.T) {
		f := newFixture(t)
		if f.advance == nil {
			t.Skip("backend cannot fast-forward time")
		}
		convCtx := sampleContext(testutils.NewTestSessionID())
		require.True(t, f.store.Save(ctx, convCtx))

		f.advance(40 * time.Minute)
		require.True(t, f.store.Peek(ctx, convCtx.SessionID).IsPresent())
		require.True(t, f.store.GetTTL(ctx, convCtx.SessionID).IsPresent())
		_ = f.store.ListSessions(ctx)

		f.advance(30 * time.Minute)
		assert.False(t, f.store.Exists(ctx, convCtx.SessionID))
	})
}

func TestStoreDefaults(t *testing.T) {
	store := NewStore(NewMemoryBackend(nil), 0, nil)
	assert.Equal(t, DefaultTTL, store.TTL())
	assert.Equal(t, "memory", store.Backend())
	assert.NoError(t, store.Ping(context.Background()))
}

func TestRedisStats_ReportKeyPrefix(t *testing.T) {
	f := newRedisFixture(t)
	assert.Equal(t, RedisKeyPrefix, f.store.GetStats(context.Background()).KeyPrefix)
}

func TestNewStoreFromConfig(t *testing.T) {
	t.Run("memory backend when requested", func(t *testing.T) {
		cfg := &config.AppConfig{SessionConfig: config.SessionConfig{Backend: config.SessionBackendMemory, TTL: testTTL}}
		store := NewStoreFromConfig(cfg)
		assert.Equal(t, "memory", store.Backend())
		assert.Equal(t, testTTL, store.TTL())
	})

	t.Run("redis backend when reachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := &config.AppConfig{
			SessionConfig: config.SessionConfig{Backend: config.SessionBackendRedis, TTL: testTTL},
			RedisConfig:   config.RedisConfig{URL: "redis://" + mr.Addr() + "/0"},
		}
		store := NewStoreFromConfig(cfg)
		defer store.Close()
		assert.Equal(t, "redis", store.Backend())
	})

	t.Run("falls back to memory when redis is unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := &config.AppConfig{
			SessionConfig: config.SessionConfig{Backend: config.SessionBackendRedis, TTL: testTTL},
			RedisConfig:   config.RedisConfig{URL: "redis://" + addr + "/0"},
		}
		assert.Equal(t, "memory", NewStoreFromConfig(cfg).Backend())
	})

	t.Run("falls back to memory when postgres is not configured", func(t *testing.T) {
		cfg := &config.AppConfig{SessionConfig: config.SessionConfig{Backend: config.SessionBackendPostgres, TTL: testTTL}}
		assert.Equal(t, "memory", NewStoreFromConfig(cfg).Backend())
	})
}
