package router

import (
	"mynahbackend/models"
	"mynahbackend/services/matters"
)

// requireVerifiedAccount gates account-dependent intents. It returns false with the
// prompt or data fetch already set when the account is not available yet.
func requireVerifiedAccount(convCtx *models.ConversationContext) bool {
	if convCtx.IDNumber == "" {
		convCtx.AwaitingInput = models.AwaitingIDNumber
		convCtx.FinalResponse = verificationPrompt
		convCtx.NextAgent = models.AgentNone
		return false
	}
	if convCtx.MatterDetails == nil {
		convCtx.NextAgent = models.AgentData
		return false
	}
	return true
}

func dataFetch(ack string) Handler {
	return func(convCtx models.ConversationContext) models.ConversationContext {
		if convCtx.IDNumber == "" {
			requireVerifiedAccount(&convCtx)
			return convCtx
		}
		convCtx.FinalResponse = ack
		convCtx.NextAgent = models.AgentData
		return convCtx
	}
}

var (
	handleBalance        = dataFetch(balanceAck)
	handleStatement      = dataFetch(statementAck)
	handlePaymentHistory = dataFetch(paymentHistoryAck)
	handlePaymentDate    = dataFetch(paymentDateAck)
)

func handlePaymentPlan(convCtx models.ConversationContext) models.ConversationContext {
	if len(models.MissingEntityFields(convCtx.Intent, convCtx.Entities)) > 0 {
		// The response generator asks for whatever is missing
		convCtx.AwaitingInput = models.AwaitingPaymentDetails
		convCtx.NextAgent = models.AgentResponse
		return convCtx
	}

	if !requireVerifiedAccount(&convCtx) {
		return convCtx
	}

	matter := convCtx.MatterDetails
	amount := convCtx.Entities.Amount
	convCtx.ProposedAmount = amount
	convCtx.NextAgent = models.AgentNone
	convCtx.UnderstoodMessage = true

	if amount.Decimal.LessThan(matter.MinimumPayment) {
		convCtx.AwaitingInput = models.AwaitingApprovalChoice
		convCtx.FinalResponse = belowMinimumPrompt(amount.Decimal, matter.MinimumPayment)
		return convCtx
	}

	convCtx.AwaitingInput = models.AwaitingPlanConfirmation
	convCtx.FinalResponse = matters.AccountSummary(convCtx)
	return convCtx
}

func handleSettlement(convCtx models.ConversationContext) models.ConversationContext {
	if !convCtx.Entities.Has(models.EntityAmount) {
		convCtx.FinalResponse = settlementOfferQuestion
		convCtx.NextAgent = models.AgentNone
		return convCtx
	}

	if !requireVerifiedAccount(&convCtx) {
		return convCtx
	}

	convCtx.FinalResponse = settlementAck(convCtx.Entities.Amount.Decimal)
	convCtx.NextAgent = models.AgentReasoning
	return convCtx
}

func handleBankingDetails(convCtx models.ConversationContext) models.ConversationContext {
	convCtx.FinalResponse = bankingDetails
	return convCtx
}

func handleEscalation(convCtx models.ConversationContext) models.ConversationContext {
	convCtx.FinalResponse = escalationMessage
	convCtx.NextAgent = models.AgentHandoff
	return convCtx
}

func handleEmailStatement(convCtx models.ConversationContext) models.ConversationContext {
	convCtx.FinalResponse = emailStatementAck
	return convCtx
}

func handleSmallTalk(convCtx models.ConversationContext) models.ConversationContext {
	convCtx.FinalResponse = smallTalkMenu
	return convCtx
}

func handleUnknown(convCtx models.ConversationContext) models.ConversationContext {
	convCtx.FinalResponse = unknownMenu
	return convCtx
}

// requestApproval starts or continues the below-minimum approval sub-flow
func requestApproval(convCtx models.ConversationContext) models.ConversationContext {
	if convCtx.EmailAddress == "" {
		convCtx.AwaitingInput = models.AwaitingEmailAddress
		convCtx.FinalResponse = emailPrompt
		convCtx.NextAgent = models.AgentNone
		return convCtx
	}
	convCtx.NextAgent = models.AgentEmail
	return convCtx
}
