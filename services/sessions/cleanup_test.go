package sessions

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mynahbackend/testutils"
)

func TestCleanupService_RunOnce(t *testing.T) {
	clock := testutils.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	backend := NewMemoryBackend(clock.Now)
	ctx := context.Background()

	require.NoError(t, backend.Put(ctx, "short", []byte(`{}`), 1, time.Minute))
	require.NoError(t, backend.Put(ctx, "long", []byte(`{}`), 1, time.Hour))

	clock.Advance(2 * time.Minute)

	cleanup := NewCleanupService(backend, time.Minute, nil)
	removed, err := cleanup.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	ids, err := backend.SessionIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"long"}, ids)
}

func TestCleanupService_StartStop(t *testing.T) {
	clock := testutils.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	backend := NewMemoryBackend(clock.Now)
	ctx := context.Background()

	require.NoError(t, backend.Put(ctx, "short", []byte(`{}`), 1, time.Minute))
	clock.Advance(2 * time.Minute)

	ran := make(chan string, 10)
	cleanup := NewCleanupService(backend, 10*time.Millisecond, func(taskName string, task func() error) error {
		select {
		case ran <- taskName:
		default:
		}
		return task()
	})
	cleanup.Start()

	select {
	case name := <-ran:
		assert.Equal(t, "CleanupExpiredSessions", name)
	case <-time.After(time.Second):
		t.Fatal("cleanup task did not run")
	}
	cleanup.Stop()

	assert.Eventually(t, func() bool {
		ids, _ := backend.SessionIDs(ctx)
		return len(ids) == 0
	}, time.Second, 10*time.Millisecond)
}

type failingReaper struct{}

func (failingReaper) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, errors.New("connection reset by peer")
}

func TestCleanupService_FailuresAreLogged(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	_, err := NewCleanupService(failingReaper{}, time.Minute, nil).RunOnce(context.Background())
	require.ErrorContains(t, err, "connection reset by peer")

	wrapped := make(chan error, 10)
	cleanup := NewCleanupService(failingReaper{}, 10*time.Millisecond, func(taskName string, task func() error) error {
		err := task()
		select {
		case wrapped <- err:
		default:
		}
		return err
	})
	cleanup.Start()
	defer cleanup.Stop()

	select {
	case err := <-wrapped:
		assert.ErrorContains(t, err, "failed to delete expired sessions")
	case <-time.After(time.Second):
		t.Fatal("cleanup task did not run")
	}

	assert.Eventually(t, func() bool {
		for _, entry := range hook.AllEntries() {
			if entry.Level == logrus.InfoLevel && strings.Contains(entry.Message, "Session cleanup failed") {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestNewCleanupForStore(t *testing.T) {
	_, ok := NewCleanupForStore(NewStore(NewMemoryBackend(nil), time.Hour, nil), time.Minute, nil)
	assert.True(t, ok)

	f := newRedisFixture(t)
	_, ok = NewCleanupForStore(f.store, time.Minute, nil)
	assert.False(t, ok)
}
