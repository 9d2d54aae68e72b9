package responses

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mynahbackend/clients"
	"mynahbackend/clients/heuristic"
	"mynahbackend/core"
	"mynahbackend/models"
)

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func turn(intent models.Intent, message string) models.ConversationContext {
	convCtx := models.NewConversationContext("s1", "d1", testNow).BeginTurn(message)
	convCtx.Intent = intent
	return convCtx
}

func TestResponsesService_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("model reply joined with follow-up question", func(t *testing.T) {
		generator := &clients.MockStructuredGenerator{}
		generator.On("GenerateStructured", mock.Anything, mock.MatchedBy(func(schema clients.Schema) bool {
			return schema.Name == clients.SchemaDebtorResponse
		}), mock.Anything).Return(json.RawMessage(
			`{"response":"Sure, I can help.","follow_up_question":"How much can you pay?","action_required":true}`), nil)

		service := NewResponsesService(generator)
		response := service.Generate(ctx, turn(models.IntentSetupPaymentPlan, "I want a plan"))

		assert.Equal(t, "Sure, I can help.\n\nHow much can you pay?", response)
		generator.AssertExpectations(t)
	})

	t.Run("null follow-up question is omitted", func(t *testing.T) {
		generator := &clients.MockStructuredGenerator{}
		generator.On("GenerateStructured", mock.Anything, mock.Anything, mock.Anything).Return(json.RawMessage(
			`{"response":"Hello!","follow_up_question":null,"action_required":false}`), nil)

		response := NewResponsesService(generator).Generate(ctx, turn(models.IntentSmallTalk, "hi"))
		assert.Equal(t, "Hello!", response)
	})

	t.Run("model error falls back to template", func(t *testing.T) {
		generator := &clients.MockStructuredGenerator{}
		generator.On("GenerateStructured", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, core.NewModelError(clients.SchemaDebtorResponse, errors.New("timeout")))

		response := NewResponsesService(generator).Generate(ctx, turn(models.IntentGetBalance, "balance"))
		assert.Equal(t, templates[models.IntentGetBalance], response)
	})

	t.Run("empty model reply falls back", func(t *testing.T) {
		generator := &clients.MockStructuredGenerator{}
		generator.On("GenerateStructured", mock.Anything, mock.Anything, mock.Anything).
			Return(json.RawMessage(`{"response":"  "}`), nil)

		response := NewResponsesService(generator).Generate(ctx, turn(models.IntentUnknown, "???"))
		assert.Equal(t, unknownTemplate, response)
	})

	t.Run("prompt hides balances for unverified debtors", func(t *testing.T) {
		var captured clients.Prompt
		generator := &clients.MockStructuredGenerator{}
		generator.On("GenerateStructured", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { captured = args.Get(2).(clients.Prompt) }).
			Return(json.RawMessage(`{"response":"ok"}`), nil)

		service := NewResponsesService(generator)
		convCtx := turn(models.IntentGetBalance, "balance please")
		convCtx.MatterDetails = &models.MatterDetails{MatterID: "MAT-1", OutstandingBalance: decimal.NewFromInt(5000)}
		service.Generate(ctx, convCtx)
		assert.Contains(t, captured.User, "not verified")
		assert.NotContains(t, captured.User, "MAT-1")

		convCtx.IDNumber = "9001015009087"
		service.Generate(ctx, convCtx)
		assert.Contains(t, captured.User, "MAT-1")
		assert.Contains(t, captured.User, "R5,000.00")
	})

	t.Run("heuristic generator always uses templates", func(t *testing.T) {
		service := NewResponsesService(heuristic.NewGenerator())
		response := service.Generate(ctx, turn(models.IntentEscalateToAgent, "agent please"))
		assert.Equal(t, templates[models.IntentEscalateToAgent], response)
	})
}

func TestFallback(t *testing.T) {
	t.Run("first missing field drives the clarification", func(t *testing.T) {
		convCtx := turn(models.IntentSetupPaymentPlan, "I want a plan")
		assert.Equal(t, clarificationPrefix+clarificationQuestions[models.EntityAmount], Fallback(convCtx))

		convCtx.Entities.Amount = decimal.NewNullDecimal(decimal.NewFromInt(500))
		assert.Equal(t, clarificationPrefix+clarificationQuestions[models.EntityFrequency], Fallback(convCtx))
	})

	t.Run("zero amount counts as missing", func(t *testing.T) {
		convCtx := turn(models.IntentSettlementQuote, "settle")
		convCtx.Entities.Amount = decimal.NewNullDecimal(decimal.Zero)
		assert.Equal(t, clarificationPrefix+clarificationQuestions[models.EntityAmount], Fallback(convCtx))
	})

	t.Run("complete payment plan restates the terms", func(t *testing.T) {
		convCtx := turn(models.IntentSetupPaymentPlan, "R500 monthly")
		convCtx.Entities.Amount = decimal.NewNullDecimal(decimal.NewFromInt(500))
		convCtx.Entities.Frequency = "monthly"
		assert.Equal(t, "I can help you set up a payment plan of R500.00 monthly. Shall I proceed with this arrangement?", Fallback(convCtx))
	})

	t.Run("every intent has a template", func(t *testing.T) {
		for _, intent := range models.AllIntents {
			convCtx := turn(intent, "anything")
			convCtx.Entities.Amount = decimal.NewNullDecimal(decimal.NewFromInt(100))
			convCtx.Entities.Frequency = "weekly"
			assert.NotEmpty(t, Fallback(convCtx), "intent %s", intent)
			if intent != models.IntentSetupPaymentPlan {
				_, ok := templates[intent]
				assert.True(t, ok, "template for %s", intent)
			}
		}
	})

	t.Run("unregistered intent uses the unknown menu", func(t *testing.T) {
		assert.Equal(t, unknownTemplate, Fallback(turn(models.Intent("made_up"), "x")))
	})
}

func TestResponsesService_Run(t *testing.T) {
	service := NewResponsesService(heuristic.NewGenerator())
	ctx := context.Background()

	t.Run("fills an empty final response", func(t *testing.T) {
		convCtx := turn(models.IntentSmallTalk, "hello")
		next := service.Run(ctx, convCtx)

		require.NotEmpty(t, next.FinalResponse)
		assert.Equal(t, []string{string(models.AgentResponse)}, next.AgentPath)
		assert.Empty(t, convCtx.FinalResponse)
	})

	t.Run("keeps a response set by an earlier stage", func(t *testing.T) {
		convCtx := turn(models.IntentSmallTalk, "hello")
		convCtx.FinalResponse = "already answered"
		next := service.Run(ctx, convCtx)

		assert.Equal(t, "already answered", next.FinalResponse)
		assert.Contains(t, next.AgentPath, string(models.AgentResponse))
	})
}
