package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	SessionBackendRedis    = "redis"
	SessionBackendPostgres = "postgres"
	SessionBackendMemory   = "memory"
)

type IBISConfig struct {
	BaseURL       string
	APIKey        string
	UserID        string
	ApprovalEmail string
}

// IsConfigured returns true if all required IBIS configuration is present
func (c IBISConfig) IsConfigured() bool {
	return c.BaseURL != "" &&
		c.APIKey != "" &&
		c.UserID != ""
	// Note: ApprovalEmail falls back to the collections mailbox
}

type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int64
	Timeout   time.Duration
}

// IsConfigured returns true if all required Anthropic configuration is present
func (c AnthropicConfig) IsConfigured() bool {
	return c.APIKey != ""
}

type RedisConfig struct {
	URL      string
	Host     string
	Port     string
	DB       int
	Password string
}

// IsConfigured returns true if a redis address can be derived
func (c RedisConfig) IsConfigured() bool {
	return c.URL != "" || c.Host != ""
}

// Addr returns host:port for the non-URL form
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type DatabaseConfig struct {
	URL    string
	Schema string
}

// IsConfigured returns true if all required database configuration is present
func (c DatabaseConfig) IsConfigured() bool {
	return c.URL != "" && c.Schema != ""
}

type SessionConfig struct {
	Backend         string
	TTL             time.Duration
	CleanupInterval time.Duration
}

type SlackConfig struct {
	AlertWebhookURL   string
	HandoffWebhookURL string
}

// IsConfigured returns true if at least one Slack webhook is present
func (c SlackConfig) IsConfigured() bool {
	return c.AlertWebhookURL != "" || c.HandoffWebhookURL != ""
}

type ReasoningConfig struct {
	SettlementApprovalThreshold decimal.Decimal
	MaxTermMonths               int
}

type AppConfig struct {
	// Core configuration
	Port               string // Optional with default "8080"
	CORSAllowedOrigins string // Optional with default "*"
	Environment        string
	ServerLogsURL      string
	UseStrictConfig    bool // If true, error when any integration is not fully configured
	LogLevel           string
	LogFormat          string

	// Integration configurations (grouped)
	IBISConfig      IBISConfig
	AnthropicConfig AnthropicConfig
	RedisConfig     RedisConfig
	DatabaseConfig  DatabaseConfig
	SessionConfig   SessionConfig
	SlackConfig     SlackConfig
	ReasoningConfig ReasoningConfig
}

func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️ Could not load .env file, continuing with system env vars")
	}

	ttlSeconds, err := getEnvInt("SESSION_TTL_SECONDS", 3600)
	if err != nil {
		return nil, err
	}
	if ttlSeconds <= 0 {
		return nil, fmt.Errorf("SESSION_TTL_SECONDS must be positive, got %d", ttlSeconds)
	}

	cleanupInterval, err := getEnvDuration("SESSION_CLEANUP_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	maxTokens, err := getEnvInt("ANTHROPIC_MAX_TOKENS", 1024)
	if err != nil {
		return nil, err
	}

	modelTimeout, err := getEnvDuration("ANTHROPIC_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	threshold, err := decimal.NewFromString(getEnvWithDefault("SETTLEMENT_APPROVAL_THRESHOLD", "0.15"))
	if err != nil {
		return nil, fmt.Errorf("SETTLEMENT_APPROVAL_THRESHOLD is not a decimal: %w", err)
	}

	maxTermMonths, err := getEnvInt("MAX_TERM_MONTHS", 24)
	if err != nil {
		return nil, err
	}

	config := &AppConfig{
		// Core configuration
		Port:               getEnvWithDefault("PORT", "8080"),
		CORSAllowedOrigins: getEnvWithDefault("CORS_ALLOWED_ORIGINS", "*"),
		Environment:        getEnvWithDefault("ENVIRONMENT", "dev"),
		ServerLogsURL:      getEnvWithDefault("SERVER_LOGS_URL", ""),
		UseStrictConfig:    getEnvWithDefault("USE_STRICT_CONFIG", "false") == "true",
		LogLevel:           getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat:          getEnvWithDefault("LOG_FORMAT", "text"),

		// Case management (required for account lookups and approval emails)
		IBISConfig: IBISConfig{
			BaseURL:       os.Getenv("IBIS_BASE_URL"),
			APIKey:        os.Getenv("IBIS_API_KEY"),
			UserID:        os.Getenv("IBIS_USER_ID"),
			ApprovalEmail: getEnvWithDefault("IBIS_APPROVAL_EMAIL", "collections@company.com"),
		},

		// Model provider (optional, heuristic generation otherwise)
		AnthropicConfig: AnthropicConfig{
			APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
			Model:     getEnvWithDefault("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
			MaxTokens: int64(maxTokens),
			Timeout:   modelTimeout,
		},

		RedisConfig: RedisConfig{
			URL:      os.Getenv("REDIS_URL"),
			Host:     getEnvWithDefault("REDIS_HOST", "localhost"),
			Port:     getEnvWithDefault("REDIS_PORT", "6379"),
			DB:       redisDB,
			Password: os.Getenv("REDIS_PASSWORD"),
		},

		DatabaseConfig: DatabaseConfig{
			URL:    os.Getenv("DB_URL"),
			Schema: getEnvWithDefault("DB_SCHEMA", "public"),
		},

		SessionConfig: SessionConfig{
			Backend:         getEnvWithDefault("SESSION_BACKEND", SessionBackendRedis),
			TTL:             time.Duration(ttlSeconds) * time.Second,
			CleanupInterval: cleanupInterval,
		},

		SlackConfig: SlackConfig{
			AlertWebhookURL:   os.Getenv("SLACK_ALERT_WEBHOOK_URL"),
			HandoffWebhookURL: os.Getenv("SLACK_HANDOFF_WEBHOOK_URL"),
		},

		ReasoningConfig: ReasoningConfig{
			SettlementApprovalThreshold: threshold,
			MaxTermMonths:               maxTermMonths,
		},
	}

	switch config.SessionConfig.Backend {
	case SessionBackendRedis, SessionBackendPostgres, SessionBackendMemory:
	default:
		return nil, fmt.Errorf("unsupported SESSION_BACKEND %q", config.SessionConfig.Backend)
	}

	// Log which integrations are configured
	if config.IBISConfig.IsConfigured() {
		log.Printf("✅ IBIS case management configured")
	} else {
		log.Printf("⚠️ IBIS case management not configured - account lookups will be unavailable")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("IBIS integration is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	if config.AnthropicConfig.IsConfigured() {
		log.Printf("✅ Anthropic model configured (%s)", config.AnthropicConfig.Model)
	} else {
		log.Printf("⚠️ Anthropic model not configured - falling back to heuristic generation")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("anthropic integration is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	if config.SessionConfig.Backend == SessionBackendPostgres && !config.DatabaseConfig.IsConfigured() {
		log.Printf("⚠️ SESSION_BACKEND=postgres but DB_URL is not set - sessions will be kept in memory")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("database is not configured for postgres sessions (USE_STRICT_CONFIG=true)")
		}
	}

	if config.SlackConfig.IsConfigured() {
		log.Printf("✅ Slack webhooks configured")
	} else {
		log.Printf("⚠️ Slack webhooks not configured - alerts and handoff notifications will be disabled")
	}

	return config, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return parsed, nil
}
