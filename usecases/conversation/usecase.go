package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"mynahbackend/appctx"
	"mynahbackend/core"
	"mynahbackend/models"
	"mynahbackend/services"
	"mynahbackend/services/matters"
	"mynahbackend/usecases/router"
)

// maxDispatchHops bounds the hand-offs between downstream stages within one turn
const maxDispatchHops = 4

const (
	dataUnavailable  = "Account lookups are currently unavailable."
	emailUnavailable = "I'm unable to send approval requests right now. Please try again later or contact our support team directly."
)

// ErrEmptyMessage is returned for an interaction without message text
var ErrEmptyMessage = errors.New("message must not be empty")

// Dependencies are the collaborators of a turn. Matters, Emails and Handoff may be nil
// when their integrations are not configured.
type Dependencies struct {
	Store      services.SessionStore
	Classifier services.IntentClassifier
	Extractor  services.EntityExtractor
	Router     *router.Router
	Responder  services.ResponseGenerator
	Matters    services.MattersService
	Emails     services.EmailsService
	Reasoning  services.SettlementsService
	Handoff    services.HandoffNotifier
	Now        func() time.Time
}

type UseCase struct {
	deps  Dependencies
	locks *sessionLocks
}

func NewUseCase(deps Dependencies) *UseCase {
	if deps.Router == nil {
		deps.Router = router.New(router.DefaultTable())
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &UseCase{deps: deps, locks: newSessionLocks()}
}

// ProcessInteraction runs one debtor message through the pipeline and persists the outcome
func (uc *UseCase) ProcessInteraction(ctx context.Context, interaction models.Interaction) (*models.InteractionResult, error) {
	message := strings.TrimSpace(interaction.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	sessionID := interaction.SessionID
	if sessionID == "" {
		sessionID = core.NewID("sess")
	}
	ctx = appctx.SetSessionID(ctx, sessionID)
	logger := appctx.Logger(ctx)

	unlock := uc.locks.Lock(sessionID)
	defer unlock()

	logger.Printf("📋 Starting to process interaction on channel %q", interaction.Channel)

	convCtx, expectedRevision := uc.loadOrCreate(ctx, sessionID, interaction.DebtorID)
	convCtx = convCtx.BeginTurn(message)

	convCtx = uc.understand(ctx, convCtx)
	convCtx = uc.dispatch(ctx, convCtx)

	if convCtx.FinalResponse == "" {
		convCtx = uc.deps.Responder.Run(ctx, convCtx)
	}

	uc.save(ctx, &convCtx, expectedRevision)

	logger.Printf("📋 Completed successfully - intent: %s, path: %v, awaiting: %q",
		convCtx.Intent, convCtx.AgentPath, convCtx.AwaitingInput)

	return &models.InteractionResult{
		SessionID:     convCtx.SessionID,
		DebtorID:      convCtx.DebtorID,
		Response:      convCtx.FinalResponse,
		Status:        convCtx.Status(),
		AgentPath:     convCtx.AgentPath,
		Intent:        convCtx.Intent,
		NextAgent:     convCtx.NextAgent,
		AwaitingInput: convCtx.AwaitingInput,
	}, nil
}

func (uc *UseCase) loadOrCreate(ctx context.Context, sessionID, debtorID string) (models.ConversationContext, int64) {
	maybeCtx := uc.deps.Store.Load(ctx, sessionID)
	if !maybeCtx.IsPresent() {
		appctx.Logger(ctx).Printf("📋 Starting new session")
		return models.NewConversationContext(sessionID, debtorID, uc.deps.Now()), 0
	}

	convCtx := *maybeCtx.MustGet()
	if debtorID != "" {
		convCtx.DebtorID = debtorID
	}
	return convCtx, convCtx.Revision
}

// understand resolves an expected answer, or classifies, extracts and routes the message
func (uc *UseCase) understand(ctx context.Context, convCtx models.ConversationContext) models.ConversationContext {
	if resolved, handled := router.ResolveAwaitingInput(convCtx); handled {
		return resolved
	}

	priorIntent := convCtx.Intent
	awaitingDetails := convCtx.AwaitingInput == models.AwaitingPaymentDetails

	convCtx = uc.deps.Classifier.Run(ctx, convCtx)
	convCtx = uc.deps.Extractor.Run(ctx, convCtx)

	// A bare "R500" answering a details question is not classifiable on its own
	if awaitingDetails && convCtx.Intent == models.IntentUnknown && !convCtx.Entities.IsEmpty() {
		convCtx.Intent = priorIntent
		convCtx.UnderstoodMessage = true
	}

	// The question went unanswered; handlers that still need input ask again
	convCtx.AwaitingInput = models.AwaitingNothing
	return uc.deps.Router.Route(convCtx)
}

// dispatch runs the downstream stages the router asked for
func (uc *UseCase) dispatch(ctx context.Context, convCtx models.ConversationContext) models.ConversationContext {
	logger := appctx.Logger(ctx)

	for hop := 0; hop < maxDispatchHops; hop++ {
		switch convCtx.NextAgent {
		case models.AgentNone:
			return convCtx

		case models.AgentData:
			if uc.deps.Matters == nil {
				logger.Printf("⚠️ Data stage requested but case management is not configured")
				convCtx.FinalResponse = matters.FailureMessage(dataUnavailable)
				convCtx.NextAgent = models.AgentNone
				return convCtx
			}
			convCtx = uc.deps.Matters.Run(ctx, convCtx)
			if router.ResumesAfterDataFetch(convCtx) {
				convCtx = uc.deps.Router.Route(convCtx)
			}

		case models.AgentReasoning:
			convCtx = uc.deps.Reasoning.Run(ctx, convCtx)

		case models.AgentEmail:
			if uc.deps.Emails == nil {
				logger.Printf("⚠️ Email stage requested but case management is not configured")
				convCtx.FinalResponse = emailUnavailable
				convCtx.NextAgent = models.AgentNone
				return convCtx
			}
			convCtx = uc.deps.Emails.Run(ctx, convCtx)

		case models.AgentResponse:
			convCtx = uc.deps.Responder.Run(ctx, convCtx)
			convCtx.NextAgent = models.AgentNone

		case models.AgentHandoff:
			if uc.deps.Handoff != nil {
				uc.deps.Handoff.NotifyHandoff(ctx, convCtx)
			}
			return convCtx

		default:
			logger.Printf("⚠️ Unknown next agent %q, stopping dispatch", convCtx.NextAgent)
			convCtx.NextAgent = models.AgentNone
			return convCtx
		}
	}

	logger.Printf("⚠️ Dispatch stopped after %d hops at %q", maxDispatchHops, convCtx.NextAgent)
	return convCtx
}

// save writes the turn with a revision check. A lost race is retried once on top of the newer revision.
func (uc *UseCase) save(ctx context.Context, convCtx *models.ConversationContext, expectedRevision int64) {
	logger := appctx.Logger(ctx)

	err := uc.deps.Store.SaveIfRevision(ctx, convCtx, expectedRevision)
	if err == nil {
		return
	}
	if !errors.Is(err, core.ErrRevisionConflict) {
		logger.Printf("❌ Failed to save session: %v", err)
		return
	}

	logger.Printf("⚠️ Session was updated concurrently (expected revision %d), retrying on the latest revision", expectedRevision)
	latestRevision := int64(0)
	if latest := uc.deps.Store.Peek(ctx, convCtx.SessionID); latest.IsPresent() {
		latestRevision = latest.MustGet().Revision
	}

	if err := uc.deps.Store.SaveIfRevision(ctx, convCtx, latestRevision); err != nil {
		logger.Printf("❌ Failed to save session after revision conflict: %v", err)
	}
}
