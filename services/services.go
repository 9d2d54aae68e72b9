package services

import (
	"context"
	"time"

	"github.com/samber/mo"

	"mynahbackend/models"
)

// TransactionManager runs a function inside a database transaction
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SessionStore persists conversation contexts with a sliding TTL.
// Failures are logged and reported as false / None, never returned.
type SessionStore interface {
	Save(ctx context.Context, convCtx *models.ConversationContext) bool
	// SaveIfRevision fails with core.ErrRevisionConflict when the stored revision moved on
	SaveIfRevision(ctx context.Context, convCtx *models.ConversationContext, expectedRevision int64) error
	Load(ctx context.Context, sessionID string) mo.Option[*models.ConversationContext]
	Peek(ctx context.Context, sessionID string) mo.Option[*models.ConversationContext]
	Delete(ctx context.Context, sessionID string) bool
	Exists(ctx context.Context, sessionID string) bool
	ListSessions(ctx context.Context) []models.SessionInfo
	GetStats(ctx context.Context) models.SessionStats
	GetTTL(ctx context.Context, sessionID string) mo.Option[time.Duration]
	Backend() string
}

// Stage is one step of the turn pipeline. It receives a snapshot and returns the next one.
type Stage interface {
	Run(ctx context.Context, convCtx models.ConversationContext) models.ConversationContext
}

// IntentClassifier maps a message onto the closed intent set
type IntentClassifier interface {
	Stage
	Classify(ctx context.Context, message string) (models.Intent, string)
}

// EntityExtractor pulls structured financial entities out of a message
type EntityExtractor interface {
	Stage
	Extract(ctx context.Context, message string, intent models.Intent) (models.Entities, string)
}

// ResponseGenerator produces the debtor-facing reply when no stage set one
type ResponseGenerator interface {
	Stage
	Generate(ctx context.Context, convCtx models.ConversationContext) string
}

// MattersService looks up the debtor's account and summarises it
type MattersService interface {
	Stage
	LookupMatter(ctx context.Context, idNumber string) models.MatterLookupResult
}

// EmailsService submits below-minimum payment plans for manual approval
type EmailsService interface {
	Stage
	SendApprovalRequest(ctx context.Context, convCtx models.ConversationContext) models.EmailResult
}

// SettlementsService evaluates settlement offers and payment arrangements
type SettlementsService interface {
	Stage
	EvaluateSettlement(convCtx models.ConversationContext) *models.SettlementReasoning
	EvaluateArrangement(convCtx models.ConversationContext) *models.ArrangementReasoning
}

// HandoffNotifier tells the operations team a debtor asked for a human
type HandoffNotifier interface {
	NotifyHandoff(ctx context.Context, convCtx models.ConversationContext)
}
