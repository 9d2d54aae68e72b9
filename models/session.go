package models

import "time"

// SessionInfo is a diagnostic summary of a stored session
type SessionInfo struct {
	SessionID     string        `json:"session_id"`
	DebtorID      string        `json:"debtor_id"`
	Intent        Intent        `json:"intent"`
	AwaitingInput AwaitingInput `json:"awaiting_input,omitempty"`
	Revision      int64         `json:"revision"`
	TTL           time.Duration `json:"ttl"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type SessionStats struct {
	Backend       string         `json:"backend"`
	TotalSessions int            `json:"total_sessions"`
	TTL           time.Duration  `json:"ttl"`
	ByIntent      map[Intent]int `json:"by_intent"`
	AwaitingInput int            `json:"awaiting_input"`
	Verified      int            `json:"verified"`
	KeyPrefix     string         `json:"key_prefix,omitempty"`
}
