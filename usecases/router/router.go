package router

import (
	"maps"
	"sync"

	log "github.com/sirupsen/logrus"

	"mynahbackend/models"
	"mynahbackend/utils"
)

// Handler applies one intent's policy to a snapshot of the context
type Handler func(convCtx models.ConversationContext) models.ConversationContext

// Table maps intents to their handlers
type Table map[models.Intent]Handler

// DefaultTable covers every intent of the closed set
func DefaultTable() Table {
	return Table{
		models.IntentGetBalance:            handleBalance,
		models.IntentGetStatement:          handleStatement,
		models.IntentSettlementQuote:       handleSettlement,
		models.IntentSetupPaymentPlan:      handlePaymentPlan,
		models.IntentPaymentHistory:        handlePaymentHistory,
		models.IntentQueryGuidelines:       handleUnknown,
		models.IntentEscalateToAgent:       handleEscalation,
		models.IntentEmailStatement:        handleEmailStatement,
		models.IntentPaymentDate:           handlePaymentDate,
		models.IntentConfirmBankingDetails: handleBankingDetails,
		models.IntentSmallTalk:             handleSmallTalk,
		models.IntentUnknown:               handleUnknown,
	}
}

type Router struct {
	mu    sync.RWMutex
	table Table
}

// New copies table; an unknown handler is always present
func New(table Table) *Router {
	copied := maps.Clone(table)
	if copied == nil {
		copied = Table{}
	}
	if _, ok := copied[models.IntentUnknown]; !ok {
		copied[models.IntentUnknown] = handleUnknown
	}
	return &Router{table: copied}
}

// Register replaces or adds the handler for an intent
func (r *Router) Register(intent models.Intent, handler Handler) {
	utils.AssertInvariant(handler != nil, "router handler must not be nil")

	r.mu.Lock()
	defer r.mu.Unlock()
	r.table[intent] = handler
}

func (r *Router) handlerFor(intent models.Intent) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if handler, ok := r.table[intent]; ok {
		return handler
	}
	log.Printf("⚠️ No handler registered for intent %q, using unknown", intent)
	return r.table[models.IntentUnknown]
}

// Route records the router stage and applies the policy for the context's intent
func (r *Router) Route(convCtx models.ConversationContext) models.ConversationContext {
	next := convCtx.Clone()
	if next.Intent == "" {
		next.Intent = models.IntentUnknown
	}
	next.AddAgent(models.StageIntentRouter)
	return r.handlerFor(next.Intent)(next)
}

// RequiredFields lists the entity fields an intent needs before it can be acted on
func RequiredFields(intent models.Intent) []string {
	return models.RequiredEntityFields(intent)
}

// ResumesAfterDataFetch reports whether the intent's policy must run again once the
// account has been fetched, so the same turn can answer with account-dependent terms
func ResumesAfterDataFetch(convCtx models.ConversationContext) bool {
	if !convCtx.HasVerifiedAccount() {
		return false
	}
	switch convCtx.Intent {
	case models.IntentSetupPaymentPlan:
		return len(models.MissingEntityFields(convCtx.Intent, convCtx.Entities)) == 0
	case models.IntentSettlementQuote:
		return convCtx.Entities.Has(models.EntityAmount)
	default:
		return false
	}
}
