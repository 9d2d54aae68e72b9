package matters

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"mynahbackend/clients"
	"mynahbackend/models"
	"mynahbackend/testutils"
)

func TestMattersService_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("balance summary for a verified debtor", func(t *testing.T) {
		caseClient := &clients.MockCaseManagementClient{}
		caseClient.On("GetLinkedMatterDetails", mock.Anything, "9001015009087").
			Return(models.MatterLookupResult{Success: true, Matter: testutils.CreateTestMatter(5000, 300)})

		convCtx := models.NewConversationContext("s1", "d1", testNow).BeginTurn("9001015009087")
		convCtx.Intent = models.IntentGetBalance
		convCtx.IDNumber = "9001015009087"
		convCtx.NextAgent = models.AgentData

		next := NewMattersService(caseClient).Run(ctx, convCtx)

		assert.NotNil(t, next.MatterDetails)
		assert.True(t, next.UnderstoodMessage)
		assert.Equal(t, models.AgentNone, next.NextAgent)
		assert.Equal(t, []string{AgentName}, next.AgentPath)
		assert.Contains(t, next.FinalResponse, "Here are your balance details")
		assert.Contains(t, next.FinalResponse, "• Matter Number: MAT-1001")
		assert.Contains(t, next.FinalResponse, "• Outstanding Balance: R5,000.00")
		assert.Contains(t, next.FinalResponse, "• Last Payment Date: 15 January 2024")
		assert.Contains(t, next.FinalResponse, "POPIA Compliance Notice")
		assert.Nil(t, convCtx.MatterDetails, "input snapshot is not mutated")
		caseClient.AssertExpectations(t)
	})

	t.Run("lookup failure is reported in plain language", func(t *testing.T) {
		caseClient := &clients.MockCaseManagementClient{}
		caseClient.On("GetLinkedMatterDetails", mock.Anything, mock.Anything).
			Return(models.MatterLookupResult{ErrorMessage: "No account found for the provided ID number."})

		convCtx := models.NewConversationContext("s1", "d1", testNow)
		convCtx.IDNumber = "9001015009087"
		next := NewMattersService(caseClient).Run(ctx, convCtx)

		assert.Nil(t, next.MatterDetails)
		assert.False(t, next.UnderstoodMessage)
		assert.Equal(t, "I wasn't able to retrieve your account information. No account found for the provided ID number.", next.FinalResponse)
	})

	t.Run("missing id never reaches the case system", func(t *testing.T) {
		caseClient := &clients.MockCaseManagementClient{}
		next := NewMattersService(caseClient).Run(ctx, models.NewConversationContext("s1", "d1", testNow))

		assert.Contains(t, next.FinalResponse, "An ID number is required")
		caseClient.AssertNotCalled(t, "GetLinkedMatterDetails", mock.Anything, mock.Anything)
	})

	t.Run("success without a matter counts as failure", func(t *testing.T) {
		caseClient := &clients.MockCaseManagementClient{}
		caseClient.On("GetLinkedMatterDetails", mock.Anything, mock.Anything).Return(models.MatterLookupResult{Success: true})

		result := NewMattersService(caseClient).LookupMatter(ctx, "9001015009087")
		assert.False(t, result.Success)
	})
}

func TestAccountSummary(t *testing.T) {
	t.Run("payment plan variant shows the minimum and the terms", func(t *testing.T) {
		convCtx := testutils.CreateVerifiedContext("s1", 5000, 300)
		convCtx.Intent = models.IntentSetupPaymentPlan
		convCtx.Entities.Amount = decimal.NewNullDecimal(decimal.NewFromInt(500))
		convCtx.Entities.Frequency = "monthly"

		summary := AccountSummary(convCtx)
		assert.Contains(t, summary, "• Minimum Payment Required: R300.00")
		assert.Contains(t, summary, "I can set up a payment plan of R500.00 monthly.")
		assert.Contains(t, summary, "Would you like me to proceed with this arrangement?")
	})

	t.Run("default variant for other intents", func(t *testing.T) {
		convCtx := testutils.CreateVerifiedContext("s1", 5000, 300)
		convCtx.Intent = models.IntentPaymentHistory
		convCtx.MatterDetails.LastPaymentDate = "1900-01-01T00:00:00"

		summary := AccountSummary(convCtx)
		assert.Contains(t, summary, "I've located your account.")
		assert.Contains(t, summary, "• Last Payment Date: N/A")
		assert.NotContains(t, summary, "Minimum Payment Required")
		assert.Contains(t, summary, "How would you like to proceed?")
	})

	t.Run("no matter renders nothing", func(t *testing.T) {
		assert.Empty(t, AccountSummary(models.NewConversationContext("s1", "d1", testNow)))
	})

	t.Run("plan terms fall back to neutral wording", func(t *testing.T) {
		assert.Equal(t, "the amount you mentioned as discussed", PlanTerms(models.Entities{}))
	})

	t.Run("failure message default", func(t *testing.T) {
		assert.Equal(t, "I wasn't able to retrieve your account information. Please try again later.", FailureMessage(""))
	})
}

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
