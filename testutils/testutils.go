package testutils

import (
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"mynahbackend/config"
	"mynahbackend/core"
	"mynahbackend/db"
	"mynahbackend/models"
)

// LoadTestConfig loads the database settings used by postgres-backed tests
func LoadTestConfig() (*config.AppConfig, error) {
	_ = godotenv.Load("../.env.test")
	_ = godotenv.Load("../../.env.test")
	_ = godotenv.Load(".env.test")

	databaseURL := os.Getenv("DB_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DB_URL is not set")
	}

	databaseSchema := os.Getenv("DB_SCHEMA")
	if databaseSchema == "" {
		return nil, fmt.Errorf("DB_SCHEMA is not set")
	}

	return &config.AppConfig{
		DatabaseConfig: config.DatabaseConfig{
			URL:    databaseURL,
			Schema: databaseSchema,
		},
	}, nil
}

// RequireTestDatabase connects to the test database, skipping the test when none is configured
func RequireTestDatabase(t *testing.T) (*sqlx.DB, string) {
	t.Helper()

	cfg, err := LoadTestConfig()
	if err != nil {
		t.Skipf("skipping postgres test: %v", err)
	}

	conn, err := db.NewConnection(cfg.DatabaseConfig.URL)
	require.NoError(t, err, "Failed to create database connection")
	require.NoError(t, db.EnsureSessionsTable(conn, cfg.DatabaseConfig.Schema))

	t.Cleanup(func() { conn.Close() })
	return conn, cfg.DatabaseConfig.Schema
}

// FakeClock is a settable time source for expiry tests
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// NewTestSessionID returns a unique session id for store tests
func NewTestSessionID() string {
	return core.NewID("test")
}

// CreateTestMatter returns matter details with the given balance and minimum payment
func CreateTestMatter(balance, minimum int64) *models.MatterDetails {
	return &models.MatterDetails{
		Idx:                1,
		MatterID:           "MAT-1001",
		Status:             "Active",
		OutstandingBalance: decimal.NewFromInt(balance),
		CapitalAmount:      decimal.NewFromInt(balance + balance/5),
		MinimumPayment:     decimal.NewFromInt(minimum),
		LastPaymentAmount:  decimal.NewFromInt(minimum),
		LastPaymentDate:    "2024-01-15T00:00:00",
		ClientName:         "Acme Retail",
		DebtorName:         "Thabo Nkosi",
		ActivePlan:         false,
		PaymentMethod:      "EFT",
	}
}

// CreateVerifiedContext returns a context whose account has already been looked up
func CreateVerifiedContext(sessionID string, balance, minimum int64) models.ConversationContext {
	convCtx := models.NewConversationContext(sessionID, "debtor-1", time.Now())
	convCtx.IDNumber = "9001015009087"
	convCtx.MatterDetails = CreateTestMatter(balance, minimum)
	return convCtx
}
