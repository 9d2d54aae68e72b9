package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	defaultCleanupInterval = time.Minute
	cleanupTimeout         = 30 * time.Second
	cleanupTaskName        = "CleanupExpiredSessions"
)

// TaskWrapper runs a named background task, e.g. with panic recovery and alerting
type TaskWrapper func(taskName string, task func() error) error

// CleanupService periodically removes expired sessions from backends that keep them around
type CleanupService struct {
	reaper   Reaper
	interval time.Duration
	wrap     TaskWrapper
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
}

func NewCleanupService(reaper Reaper, interval time.Duration, wrap TaskWrapper) *CleanupService {
	if interval <= 0 {
		interval = defaultCleanupInterval
	}
	if wrap == nil {
		wrap = func(_ string, task func() error) error { return task() }
	}
	return &CleanupService{reaper: reaper, interval: interval, wrap: wrap}
}

// Start launches the cleanup loop in a background goroutine
func (c *CleanupService) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.loop(ctx)
}

// Stop cancels the loop and waits for it to exit
func (c *CleanupService) Stop() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *CleanupService) loop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("📋 Session cleanup stopping")
			return
		case <-ticker.C:
			err := c.wrap(cleanupTaskName, func() error {
				_, err := c.RunOnce(ctx)
				return err
			})
			if err != nil {
				log.Printf("❌ Session cleanup failed: %v", err)
			}
		}
	}
}

// RunOnce removes expired sessions and returns how many were dropped
func (c *CleanupService) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, cleanupTimeout)
	defer cancel()

	removed, err := c.reaper.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	if removed > 0 {
		log.Printf("🧹 Removed %d expired sessions", removed)
	}
	return removed, nil
}
