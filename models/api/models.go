package api

import (
	"time"

	"mynahbackend/models"
)

// InteractRequest is the body of POST /interact sent by debtor-facing channels
type InteractRequest struct {
	SessionID string         `json:"session_id"`
	DebtorID  string         `json:"debtor_id"`
	Message   string         `json:"message"`
	Channel   string         `json:"channel,omitempty"`
	Locale    string         `json:"locale,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// InteractResponse is the reply for one turn
type InteractResponse struct {
	SessionID     string   `json:"session_id"`
	DebtorID      string   `json:"debtor_id"`
	Response      string   `json:"response"`
	Status        string   `json:"status"`
	AgentPath     []string `json:"agent_path"`
	Intent        string   `json:"intent"`
	NextAgent     *string  `json:"next_agent"`
	AwaitingInput *string  `json:"awaiting_input"`
}

// SessionModel is the diagnostic view of a stored session
type SessionModel struct {
	SessionID     string    `json:"session_id"`
	DebtorID      string    `json:"debtor_id"`
	Intent        string    `json:"intent"`
	AwaitingInput string    `json:"awaiting_input,omitempty"`
	Revision      int64     `json:"revision"`
	TTLSeconds    int64     `json:"ttl_seconds"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type SessionListModel struct {
	Sessions []*SessionModel `json:"sessions"`
	Count    int             `json:"count"`
}

type SessionStatsModel struct {
	Backend       string         `json:"backend"`
	TotalSessions int            `json:"total_sessions"`
	TTLSeconds    int64          `json:"ttl_seconds"`
	ByIntent      map[string]int `json:"by_intent"`
	AwaitingInput int            `json:"awaiting_input"`
	Verified      int            `json:"verified"`
	KeyPrefix     string         `json:"key_prefix,omitempty"`
}

type SessionTTLModel struct {
	SessionID  string `json:"session_id"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

// SessionDetailModel exposes a stored context without refreshing its TTL
type SessionDetailModel struct {
	Context *models.ConversationContext `json:"context"`
}

type HealthModel struct {
	Status         string `json:"status"`
	SessionBackend string `json:"session_backend"`
}
