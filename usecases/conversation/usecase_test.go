package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mynahbackend/clients"
	"mynahbackend/clients/heuristic"
	"mynahbackend/config"
	"mynahbackend/core"
	"mynahbackend/models"
	"mynahbackend/services"
	"mynahbackend/services/emails"
	"mynahbackend/services/entities"
	"mynahbackend/services/intents"
	"mynahbackend/services/matters"
	"mynahbackend/services/responses"
	"mynahbackend/services/sessions"
	"mynahbackend/services/settlements"
	"mynahbackend/testutils"
	"mynahbackend/usecases/router"
)

const testIDNumber = "9001015009087"

type fixture struct {
	useCase    *UseCase
	store      *sessions.Store
	caseClient *clients.MockCaseManagementClient
	handoff    *services.MockHandoffNotifier
	clock      *testutils.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := testutils.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	store := sessions.NewStore(sessions.NewMemoryBackend(clock.Now), time.Hour, clock.Now)
	generator := heuristic.NewGenerator()
	caseClient := &clients.MockCaseManagementClient{}
	handoff := &services.MockHandoffNotifier{}

	useCase := NewUseCase(Dependencies{
		Store:      store,
		Classifier: intents.NewIntentsService(generator),
		Extractor:  entities.NewEntitiesService(generator),
		Router:     router.New(router.DefaultTable()),
		Responder:  responses.NewResponsesService(generator),
		Matters:    matters.NewMattersService(caseClient),
		Emails:     emails.NewEmailsService(caseClient, "collections@company.com", clock.Now),
		Reasoning: settlements.NewSettlementsService(config.ReasoningConfig{
			SettlementApprovalThreshold: decimal.RequireFromString("0.15"),
			MaxTermMonths:               24,
		}),
		Handoff: handoff,
		Now:     clock.Now,
	})

	return &fixture{useCase: useCase, store: store, caseClient: caseClient, handoff: handoff, clock: clock}
}

func (f *fixture) expectAccount(balance, minimum int64) {
	f.caseClient.On("GetLinkedMatterDetails", mock.Anything, testIDNumber).
		Return(models.MatterLookupResult{Success: true, Matter: testutils.CreateTestMatter(balance, minimum)})
}

func (f *fixture) send(t *testing.T, sessionID, message string) *models.InteractionResult {
	t.Helper()
	result, err := f.useCase.ProcessInteraction(context.Background(), models.Interaction{
		SessionID: sessionID,
		DebtorID:  "debtor-1",
		Message:   message,
		Channel:   "test",
	})
	require.NoError(t, err)
	return result
}

func (f *fixture) stored(t *testing.T, sessionID string) *models.ConversationContext {
	t.Helper()
	maybeCtx := f.store.Peek(context.Background(), sessionID)
	require.True(t, maybeCtx.IsPresent())
	return maybeCtx.MustGet()
}

func TestProcessInteraction_PaymentPlanNeedsVerification(t *testing.T) {
	f := newFixture(t)

	result := f.send(t, "sess-plan", "I want to pay R500 per month")

	assert.Equal(t, models.IntentSetupPaymentPlan, result.Intent)
	assert.Equal(t, models.AwaitingIDNumber, result.AwaitingInput)
	assert.Contains(t, result.Response, "verify your identity")
	assert.Equal(t, models.TurnStatusCompleted, result.Status)
	assert.Equal(t, []string{models.StageIntentClassifier, models.StageEntityExtractor, models.StageIntentRouter}, result.AgentPath)

	stored := f.stored(t, "sess-plan")
	assert.True(t, stored.Entities.Amount.Decimal.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "monthly", stored.Entities.Frequency)
	assert.Equal(t, int64(1), stored.Revision)
	f.caseClient.AssertNotCalled(t, "GetLinkedMatterDetails", mock.Anything, mock.Anything)
}

func TestProcessInteraction_BareIDIsConsumed(t *testing.T) {
	f := newFixture(t)
	f.expectAccount(5000, 300)

	f.send(t, "sess-id", "I want to pay R500 per month")
	result := f.send(t, "sess-id", testIDNumber)

	assert.NotContains(t, result.AgentPath, models.StageIntentClassifier)
	assert.Equal(t, []string{models.StageInputResolver, string(models.AgentData), models.StageIntentRouter}, result.AgentPath)
	assert.Equal(t, models.IntentSetupPaymentPlan, result.Intent)
	assert.Equal(t, models.AwaitingPlanConfirmation, result.AwaitingInput)
	assert.Contains(t, result.Response, "• Minimum Payment Required: R300.00")
	assert.Contains(t, result.Response, "R500.00 monthly")
	f.caseClient.AssertExpectations(t)

	stored := f.stored(t, "sess-id")
	assert.Equal(t, testIDNumber, stored.IDNumber)
	require.NotNil(t, stored.MatterDetails)
	assert.Equal(t, "MAT-1001", stored.MatterDetails.MatterID)
	assert.Equal(t, int64(2), stored.Revision)

	t.Run("confirmation records the arrangement", func(t *testing.T) {
		result := f.send(t, "sess-id", "yes")

		assert.Equal(t, []string{models.StageInputResolver, string(models.AgentReasoning)}, result.AgentPath)
		assert.Contains(t, result.Response, "Your payment plan has been recorded")
		assert.Equal(t, models.AwaitingNothing, result.AwaitingInput)

		stored := f.stored(t, "sess-id")
		require.NotNil(t, stored.ReasoningResult)
		require.NotNil(t, stored.ReasoningResult.Arrangement)
		assert.True(t, stored.ReasoningResult.Arrangement.Confirmed)
	})
}

func TestProcessInteraction_BelowMinimumApproval(t *testing.T) {
	f := newFixture(t)
	f.expectAccount(5000, 300)
	f.caseClient.On("SendEmail", mock.Anything, mock.MatchedBy(func(request clients.EmailRequest) bool {
		return request.To == "collections@company.com" && request.MatterID == "MAT-1001"
	})).Return(models.EmailResult{Success: true})

	f.send(t, "sess-approval", "Can I pay R250 monthly")
	result := f.send(t, "sess-approval", testIDNumber)
	assert.Equal(t, models.AwaitingApprovalChoice, result.AwaitingInput)
	assert.Contains(t, result.Response, "R250.00")

	stored := f.stored(t, "sess-approval")
	assert.True(t, stored.ProposedAmount.Decimal.Equal(decimal.NewFromInt(250)))

	result = f.send(t, "sess-approval", "1")
	assert.Equal(t, models.AwaitingEmailAddress, result.AwaitingInput)

	result = f.send(t, "sess-approval", "not-an-email")
	assert.Equal(t, models.AwaitingEmailAddress, result.AwaitingInput)
	assert.Contains(t, result.Response, "valid email address")

	result = f.send(t, "sess-approval", "Debtor@Example.com")
	assert.Contains(t, result.AgentPath, string(models.AgentEmail))
	assert.Contains(t, result.Response, "Approval Request Submitted")
	assert.Equal(t, models.AwaitingNothing, result.AwaitingInput)
	assert.Equal(t, "debtor@example.com", f.stored(t, "sess-approval").EmailAddress)
	f.caseClient.AssertExpectations(t)
}

func TestProcessInteraction_UnansweredQuestionIsDropped(t *testing.T) {
	f := newFixture(t)
	f.expectAccount(5000, 300)

	f.send(t, "sess-stale", "Can I pay R250 monthly")
	result := f.send(t, "sess-stale", testIDNumber)
	require.Equal(t, models.AwaitingApprovalChoice, result.AwaitingInput)

	result = f.send(t, "sess-stale", "What is my balance?")
	assert.Equal(t, models.IntentGetBalance, result.Intent)
	assert.Equal(t, models.AwaitingNothing, result.AwaitingInput)
	assert.Equal(t, models.AwaitingNothing, f.stored(t, "sess-stale").AwaitingInput)

	result = f.send(t, "sess-stale", "yes")
	assert.NotContains(t, result.AgentPath, models.StageInputResolver)
	assert.NotEqual(t, models.AwaitingEmailAddress, result.AwaitingInput)
	assert.NotContains(t, result.Response, "email address")
	f.caseClient.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}

func TestProcessInteraction_PaymentDetailsAreMerged(t *testing.T) {
	f := newFixture(t)

	result := f.send(t, "sess-merge", "I want a payment plan")
	assert.Equal(t, models.AwaitingPaymentDetails, result.AwaitingInput)
	assert.Contains(t, result.Response, "How much would you like to pay?")
	assert.Contains(t, result.AgentPath, string(models.AgentResponse))

	result = f.send(t, "sess-merge", "R500")
	assert.Equal(t, models.IntentSetupPaymentPlan, result.Intent)
	assert.Contains(t, result.Response, "How often would you like to make payments?")

	result = f.send(t, "sess-merge", "monthly")
	assert.Equal(t, models.AwaitingIDNumber, result.AwaitingInput)

	stored := f.stored(t, "sess-merge")
	assert.True(t, stored.Entities.Amount.Decimal.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "monthly", stored.Entities.Frequency)
}

func TestProcessInteraction_BalanceWithoutID(t *testing.T) {
	f := newFixture(t)

	result := f.send(t, "sess-balance", "What is my balance?")

	assert.Equal(t, models.IntentGetBalance, result.Intent)
	assert.Equal(t, models.AwaitingIDNumber, result.AwaitingInput)
	assert.Equal(t, models.AgentNone, result.NextAgent)
	assert.NotContains(t, result.AgentPath, string(models.AgentData))
}

func TestProcessInteraction_LookupFailure(t *testing.T) {
	f := newFixture(t)
	f.caseClient.On("GetLinkedMatterDetails", mock.Anything, testIDNumber).
		Return(models.MatterLookupResult{ErrorMessage: "API request failed: 503"})

	f.send(t, "sess-fail", "What is my balance?")
	result := f.send(t, "sess-fail", testIDNumber)

	assert.Equal(t, "I wasn't able to retrieve your account information. API request failed: 503", result.Response)
	assert.Nil(t, f.stored(t, "sess-fail").MatterDetails)
}

func TestProcessInteraction_Escalation(t *testing.T) {
	f := newFixture(t)
	f.handoff.On("NotifyHandoff", mock.Anything, mock.MatchedBy(func(convCtx models.ConversationContext) bool {
		return convCtx.SessionID == "sess-human"
	})).Return()

	result := f.send(t, "sess-human", "I want to speak to a human")

	assert.Equal(t, models.AgentHandoff, result.NextAgent)
	assert.Contains(t, result.Response, "human agent")
	f.handoff.AssertExpectations(t)
}

func TestProcessInteraction_UnknownMessage(t *testing.T) {
	f := newFixture(t)

	result := f.send(t, "sess-unknown", "purple elephants")

	assert.Equal(t, models.IntentUnknown, result.Intent)
	assert.Equal(t, models.TurnStatusFailed, result.Status)
	assert.Contains(t, result.Response, "Could you please tell me")
}

func TestProcessInteraction_Validation(t *testing.T) {
	f := newFixture(t)

	t.Run("empty message", func(t *testing.T) {
		_, err := f.useCase.ProcessInteraction(context.Background(), models.Interaction{SessionID: "s", Message: "  "})
		assert.ErrorIs(t, err, ErrEmptyMessage)
	})

	t.Run("session id is generated when missing", func(t *testing.T) {
		result := f.send(t, "", "hello")
		assert.True(t, len(result.SessionID) > len("sess_"))
		assert.True(t, f.store.Exists(context.Background(), result.SessionID))
	})
}

func TestProcessInteraction_ExpiredSessionStartsFresh(t *testing.T) {
	f := newFixture(t)
	f.expectAccount(5000, 300)

	f.send(t, "sess-expiry", "I want to pay R500 per month")
	f.clock.Advance(2 * time.Hour)

	result := f.send(t, "sess-expiry", testIDNumber)
	assert.Equal(t, models.IntentGetBalance, result.Intent, "bare id on a fresh session is a balance request")
}

func TestProcessInteraction_ConcurrentTurnsOnOneSession(t *testing.T) {
	f := newFixture(t)

	const turns = 10
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.useCase.ProcessInteraction(context.Background(), models.Interaction{
				SessionID: "sess-race",
				Message:   "hello",
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(turns), f.stored(t, "sess-race").Revision)
	assert.Equal(t, 0, f.useCase.locks.size())
}

func TestProcessInteraction_RevisionConflictRetriesOnce(t *testing.T) {
	store := &services.MockSessionStore{}
	store.On("Load", mock.Anything, "sess-cas").Return(mo.None[*models.ConversationContext]())
	store.On("SaveIfRevision", mock.Anything, mock.Anything, int64(0)).Return(core.ErrRevisionConflict).Once()
	latest := models.NewConversationContext("sess-cas", "d1", time.Now())
	latest.Revision = 5
	store.On("Peek", mock.Anything, "sess-cas").Return(mo.Some(&latest))
	store.On("SaveIfRevision", mock.Anything, mock.Anything, int64(5)).Return(nil).Once()

	generator := heuristic.NewGenerator()
	useCase := NewUseCase(Dependencies{
		Store:      store,
		Classifier: intents.NewIntentsService(generator),
		Extractor:  entities.NewEntitiesService(generator),
		Responder:  responses.NewResponsesService(generator),
		Reasoning:  settlements.NewSettlementsService(config.ReasoningConfig{}),
	})

	result, err := useCase.ProcessInteraction(context.Background(), models.Interaction{SessionID: "sess-cas", Message: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Response)
	store.AssertExpectations(t)
}

func TestProcessInteraction_UnconfiguredCaseManagement(t *testing.T) {
	clock := testutils.NewFakeClock(time.Now())
	generator := heuristic.NewGenerator()
	useCase := NewUseCase(Dependencies{
		Store:      sessions.NewStore(sessions.NewMemoryBackend(clock.Now), time.Hour, clock.Now),
		Classifier: intents.NewIntentsService(generator),
		Extractor:  entities.NewEntitiesService(generator),
		Responder:  responses.NewResponsesService(generator),
		Reasoning:  settlements.NewSettlementsService(config.ReasoningConfig{}),
	})

	result, err := useCase.ProcessInteraction(context.Background(), models.Interaction{SessionID: "s", Message: testIDNumber})
	require.NoError(t, err)
	assert.Contains(t, result.Response, dataUnavailable)
}
