package router

import (
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"mynahbackend/models"
	"mynahbackend/utils"
)

// ResolveAwaitingInput interprets the message as the answer to the question asked on the
// previous turn. It returns false when the message should go through classification instead.
func ResolveAwaitingInput(convCtx models.ConversationContext) (models.ConversationContext, bool) {
	message := strings.TrimSpace(convCtx.LastUserMessage)

	switch convCtx.AwaitingInput {
	case models.AwaitingIDNumber:
		return resolveIDNumber(convCtx, message)
	case models.AwaitingEmailAddress:
		return resolveEmailAddress(convCtx, message)
	case models.AwaitingApprovalChoice:
		if next, ok := resolveApprovalChoice(convCtx, message); ok {
			return next, true
		}
	case models.AwaitingPlanConfirmation:
		if next, ok := resolvePlanConfirmation(convCtx, message); ok {
			return next, true
		}
	}

	return resolveBareID(convCtx, message)
}

func resolved(convCtx models.ConversationContext) models.ConversationContext {
	next := convCtx.Clone()
	next.AddAgent(models.StageInputResolver)
	return next
}

func captureID(convCtx models.ConversationContext, idNumber string) models.ConversationContext {
	next := resolved(convCtx)
	if next.IDNumber != idNumber {
		next.MatterDetails = nil
	}
	next.IDNumber = idNumber
	next.AwaitingInput = models.AwaitingNothing
	next.NextAgent = models.AgentData
	next.UnderstoodMessage = true
	if next.Intent == models.IntentUnknown || next.Intent == "" {
		next.Intent = models.IntentGetBalance
	}
	return next
}

func resolveIDNumber(convCtx models.ConversationContext, message string) (models.ConversationContext, bool) {
	if idNumber, ok := utils.DetectIDNumber(message); ok {
		log.Printf("📋 Captured ID number for session %s", convCtx.SessionID)
		return captureID(convCtx, idNumber), true
	}
	if idNumber, ok := utils.FindIDNumber(message); ok {
		log.Printf("📋 Captured ID number from free text for session %s", convCtx.SessionID)
		return captureID(convCtx, idNumber), true
	}

	if utils.IsNumericReply(message) {
		next := resolved(convCtx)
		next.FinalResponse = invalidIDPrompt
		next.NextAgent = models.AgentNone
		return next, true
	}

	return convCtx, false
}

func resolveBareID(convCtx models.ConversationContext, message string) (models.ConversationContext, bool) {
	idNumber, ok := utils.DetectIDNumber(message)
	if !ok {
		return convCtx, false
	}
	log.Printf("📋 Message is a bare ID number, keeping intent %s", convCtx.Intent)
	return captureID(convCtx, idNumber), true
}

func resolveEmailAddress(convCtx models.ConversationContext, message string) (models.ConversationContext, bool) {
	// Longer free text without an address is a new request
	if !strings.Contains(message, "@") && len(strings.Fields(message)) > 1 {
		return convCtx, false
	}

	next := resolved(convCtx)
	email, err := utils.ValidateEmail(message)
	if err != nil {
		next.FinalResponse = invalidEmailPrompt(err)
		next.NextAgent = models.AgentNone
		return next, true
	}

	next.EmailAddress = email
	next.AwaitingInput = models.AwaitingNothing
	next.UnderstoodMessage = true
	return requestApproval(next), true
}

// newAmount re-runs the payment plan policy with the amount found in the message
func newAmount(convCtx models.ConversationContext, amount decimal.Decimal) models.ConversationContext {
	next := resolved(convCtx)
	next.Intent = models.IntentSetupPaymentPlan
	next.Entities.Amount = decimal.NewNullDecimal(amount)
	next.AwaitingInput = models.AwaitingNothing
	next.UnderstoodMessage = true
	return handlePaymentPlan(next)
}

func resolveApprovalChoice(convCtx models.ConversationContext, message string) (models.ConversationContext, bool) {
	if utils.IsApprovalRequest(message) {
		next := resolved(convCtx)
		next.UnderstoodMessage = true
		return requestApproval(next), true
	}

	reply := utils.NormalizeReply(message)
	if reply == "2" || reply == "option 2" {
		next := resolved(convCtx)
		next.UnderstoodMessage = true
		next.NextAgent = models.AgentNone
		if next.MatterDetails != nil {
			next.FinalResponse = newAmountPrompt(next.MatterDetails.MinimumPayment)
		} else {
			next.FinalResponse = newAmountPrompt(decimal.Zero)
		}
		return next, true
	}

	if amount, ok := utils.FindStatedAmount(message); ok {
		return newAmount(convCtx, amount), true
	}

	return convCtx, false
}

func resolvePlanConfirmation(convCtx models.ConversationContext, message string) (models.ConversationContext, bool) {
	if utils.IsAffirmative(message) {
		next := resolved(convCtx)
		next.UnderstoodMessage = true
		next.NextAgent = models.AgentReasoning
		return next, true
	}

	if utils.IsNegative(message) {
		next := resolved(convCtx)
		next.UnderstoodMessage = true
		next.AwaitingInput = models.AwaitingPaymentDetails
		next.NextAgent = models.AgentNone
		next.FinalResponse = planChangePrompt
		return next, true
	}

	if amount, ok := utils.FindStatedAmount(message); ok {
		return newAmount(convCtx, amount), true
	}

	return convCtx, false
}
