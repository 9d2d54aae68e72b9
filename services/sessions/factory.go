package sessions

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"mynahbackend/config"
	"mynahbackend/db"
)

const connectTimeout = 5 * time.Second

// NewStoreFromConfig builds the configured backend. Any connection failure falls back
// to the in-memory backend with a warning.
func NewStoreFromConfig(cfg *config.AppConfig) *Store {
	backend := newBackend(cfg)
	log.Printf("✅ Session store ready (backend=%s, ttl=%s)", backend.Name(), cfg.SessionConfig.TTL)
	return NewStore(backend, cfg.SessionConfig.TTL, time.Now)
}

func newBackend(cfg *config.AppConfig) Backend {
	switch cfg.SessionConfig.Backend {
	case config.SessionBackendMemory:
		return NewMemoryBackend(time.Now)

	case config.SessionBackendPostgres:
		if !cfg.DatabaseConfig.IsConfigured() {
			log.Printf("⚠️ Postgres session backend requested without DB_URL - using memory")
			return NewMemoryBackend(time.Now)
		}
		conn, err := db.NewConnection(cfg.DatabaseConfig.URL)
		if err != nil {
			log.Printf("⚠️ Postgres unavailable, falling back to memory sessions: %v", err)
			return NewMemoryBackend(time.Now)
		}
		if err := db.EnsureSessionsTable(conn, cfg.DatabaseConfig.Schema); err != nil {
			log.Printf("⚠️ Postgres sessions table unavailable, falling back to memory sessions: %v", err)
			conn.Close()
			return NewMemoryBackend(time.Now)
		}
		return NewPostgresBackend(conn, cfg.DatabaseConfig.Schema)

	default:
		client, err := NewRedisClient(cfg.RedisConfig)
		if err != nil {
			log.Printf("⚠️ Redis misconfigured, falling back to memory sessions: %v", err)
			return NewMemoryBackend(time.Now)
		}
		backend := NewRedisBackend(client)

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := backend.Ping(ctx); err != nil {
			log.Printf("⚠️ Redis unavailable, falling back to memory sessions: %v", err)
			client.Close()
			return NewMemoryBackend(time.Now)
		}
		return backend
	}
}

// NewCleanupForStore returns a cleanup service when the store's backend needs one
func NewCleanupForStore(store *Store, interval time.Duration, wrap TaskWrapper) (*CleanupService, bool) {
	reaper, ok := store.backend.(Reaper)
	if !ok {
		return nil, false
	}
	return NewCleanupService(reaper, interval, wrap), true
}
