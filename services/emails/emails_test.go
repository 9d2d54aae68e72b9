package emails

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

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func approvalContext() models.ConversationContext {
	convCtx := testutils.CreateVerifiedContext("s1", 5000, 300)
	convCtx.Intent = models.IntentSetupPaymentPlan
	convCtx.ProposedAmount = decimal.NewNullDecimal(decimal.NewFromInt(250))
	convCtx.EmailAddress = "debtor@example.com"
	convCtx.AwaitingInput = models.AwaitingEmailAddress
	convCtx.NextAgent = models.AgentEmail
	return convCtx
}

func TestEmailsService_Run(t *testing.T) {
	ctx := context.Background()
	clock := func() time.Time { return testNow }

	t.Run("approval request sent", func(t *testing.T) {
		caseClient := &clients.MockCaseManagementClient{}
		caseClient.On("SendEmail", mock.Anything, mock.MatchedBy(func(request clients.EmailRequest) bool {
			return request.To == "collections@company.com" &&
				request.Subject == "Payment Plan Approval Request - MAT-1001" &&
				request.MatterID == "MAT-1001"
		})).Return(models.EmailResult{Success: true})

		next := NewEmailsService(caseClient, "collections@company.com", clock).Run(ctx, approvalContext())

		assert.True(t, next.UnderstoodMessage)
		assert.Equal(t, models.AwaitingNothing, next.AwaitingInput)
		assert.Equal(t, models.AgentNone, next.NextAgent)
		assert.Equal(t, []string{AgentName}, next.AgentPath)
		assert.Contains(t, next.FinalResponse, "✅ Approval Request Submitted")
		assert.Contains(t, next.FinalResponse, "• Proposed Amount: R250.00")
		assert.Contains(t, next.FinalResponse, "• Your Email: debtor@example.com")
		caseClient.AssertExpectations(t)
	})

	t.Run("case system failure", func(t *testing.T) {
		caseClient := &clients.MockCaseManagementClient{}
		caseClient.On("SendEmail", mock.Anything, mock.Anything).
			Return(models.EmailResult{ErrorMessage: "Email API request failed: 500"})

		next := NewEmailsService(caseClient, "collections@company.com", clock).Run(ctx, approvalContext())

		assert.False(t, next.UnderstoodMessage)
		assert.Contains(t, next.FinalResponse, "I apologize, but I wasn't able to submit your approval request.")
		assert.Contains(t, next.FinalResponse, "Email API request failed: 500")
	})

	t.Run("missing information guard", func(t *testing.T) {
		caseClient := &clients.MockCaseManagementClient{}
		convCtx := approvalContext()
		convCtx.EmailAddress = ""

		next := NewEmailsService(caseClient, "collections@company.com", clock).Run(ctx, convCtx)

		assert.Equal(t, missingInfoMessage, next.FinalResponse)
		caseClient.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
	})
}

func TestApprovalBody(t *testing.T) {
	convCtx := approvalContext()
	convCtx.Entities.Frequency = "monthly"
	body := ApprovalBody(convCtx, testNow)

	assert.Contains(t, body, "Date: 01 March 2024")
	assert.Contains(t, body, "- Name: Thabo Nkosi")
	assert.Contains(t, body, "- Outstanding Balance: R5,000.00")
	assert.Contains(t, body, "- Proposed Amount: R250.00")
	assert.Contains(t, body, "- Frequency: monthly")
	assert.Contains(t, body, "- Minimum Payment Required: R300.00")
	assert.Contains(t, body, "- Difference: R50.00 below minimum")
	assert.Contains(t, body, "Please review and respond to: debtor@example.com")
}
