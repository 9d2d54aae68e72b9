package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TurnStatusCompleted = "completed"
	TurnStatusFailed    = "failed"
)

// ConversationContext is the per-session state threaded through every stage of a turn.
// Stages receive a snapshot and return a new one; use Clone before mutating.
type ConversationContext struct {
	SessionID       string `json:"session_id"`
	DebtorID        string `json:"debtor_id"`
	LastUserMessage string `json:"last_user_message"`

	Intent        Intent        `json:"intent"`
	Entities      Entities      `json:"entities"`
	AgentPath     []string      `json:"agent_path"`
	NextAgent     AgentName     `json:"next_agent,omitempty"`
	AwaitingInput AwaitingInput `json:"awaiting_input,omitempty"`

	UnderstoodMessage bool `json:"understood_message"`

	IDNumber       string              `json:"id_number,omitempty"`
	EmailAddress   string              `json:"email_address,omitempty"`
	MatterDetails  *MatterDetails      `json:"matter_details,omitempty"`
	ProposedAmount decimal.NullDecimal `json:"proposed_amount"`

	ReasoningResult *ReasoningResult `json:"reasoning_result,omitempty"`
	NLUReasoning    string           `json:"nlu_reasoning,omitempty"`

	FinalResponse string `json:"final_response,omitempty"`

	Revision  int64     `json:"revision"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewConversationContext(sessionID, debtorID string, now time.Time) ConversationContext {
	return ConversationContext{
		SessionID: sessionID,
		DebtorID:  debtorID,
		Intent:    IntentUnknown,
		AgentPath: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy that shares no mutable state with c
func (c ConversationContext) Clone() ConversationContext {
	cloned := c
	cloned.Entities = c.Entities.Clone()
	cloned.AgentPath = slices.Clone(c.AgentPath)
	if cloned.AgentPath == nil {
		cloned.AgentPath = []string{}
	}
	if c.MatterDetails != nil {
		matter := *c.MatterDetails
		cloned.MatterDetails = &matter
	}
	cloned.ReasoningResult = c.ReasoningResult.Clone()
	return cloned
}

// BeginTurn returns a snapshot with the per-turn fields reset for a new message.
// Sticky fields (identifiers, matter details, awaiting tag, intent) carry over.
func (c ConversationContext) BeginTurn(message string) ConversationContext {
	next := c.Clone()
	next.LastUserMessage = message
	next.AgentPath = []string{}
	next.NextAgent = AgentNone
	next.FinalResponse = ""
	next.UnderstoodMessage = false
	return next
}

// AddAgent appends a stage name to the agent path unless it is already present
func (c *ConversationContext) AddAgent(name string) {
	if !slices.Contains(c.AgentPath, name) {
		c.AgentPath = append(c.AgentPath, name)
	}
}

// HasVerifiedAccount reports whether balance-dependent replies may be produced
func (c ConversationContext) HasVerifiedAccount() bool {
	return c.IDNumber != "" && c.MatterDetails != nil
}

// AppendReasoning adds a line to the reasoning summary
func (c *ConversationContext) AppendReasoning(summary string) {
	if summary == "" {
		return
	}
	if c.ReasoningResult == nil {
		c.ReasoningResult = &ReasoningResult{}
	}
	if c.ReasoningResult.Summary == "" {
		c.ReasoningResult.Summary = summary
		return
	}
	c.ReasoningResult.Summary += " | " + summary
}

// Status is the externally reported outcome of the turn
func (c ConversationContext) Status() string {
	if c.UnderstoodMessage {
		return TurnStatusCompleted
	}
	return TurnStatusFailed
}
