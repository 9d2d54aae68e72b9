package responses

import (
	"fmt"

	"mynahbackend/models"
	"mynahbackend/utils"
)

const clarificationPrefix = "I'd be happy to help you with that. "

var clarificationQuestions = map[string]string{
	models.EntityAmount:      "How much would you like to pay?",
	models.EntityFrequency:   "How often would you like to make payments? (e.g., weekly, monthly, or once-off)",
	models.EntityDate:        "When would you like to start or make this payment?",
	models.EntityPaymentType: "Would you prefer to pay in installments or as a lump sum settlement?",
}

const unknownTemplate = "I'm not sure I understood your request. Could you please tell me if you'd like to:\n" +
	"• Check your balance\n" +
	"• Set up a payment plan\n" +
	"• Get a settlement quote\n" +
	"• Something else?"

var templates = map[models.Intent]string{
	models.IntentGetBalance:            "I'll look up your current balance for you. One moment please...",
	models.IntentGetStatement:          "I'll retrieve your statement. Please give me a moment...",
	models.IntentSettlementQuote:       "I'll calculate a settlement quote for you based on your account. One moment...",
	models.IntentPaymentHistory:        "Let me pull up your recent payment history...",
	models.IntentConfirmBankingDetails: "I'll confirm our banking details for you to make a secure payment.",
	models.IntentEmailStatement:        "I'll arrange for your statement to be emailed to you.",
	models.IntentPaymentDate:           "Let me check when your next payment is due...",
	models.IntentEscalateToAgent:       "I understand you'd like to speak with a human agent. Let me connect you with someone who can help.",
	models.IntentQueryGuidelines:       "I can explain how we handle your account and your personal information. What would you like to know?",
	models.IntentSmallTalk:             "Hello! I'm here to help with your account. Would you like to check your balance, set up a payment plan or get a settlement quote?",
	models.IntentUnknown:               unknownTemplate,
}

// Fallback builds a reply without the model: a clarification for the first missing
// required field, otherwise the intent's template.
func Fallback(convCtx models.ConversationContext) string {
	if missing := models.MissingEntityFields(convCtx.Intent, convCtx.Entities); len(missing) > 0 {
		question, ok := clarificationQuestions[missing[0]]
		if !ok {
			question = fmt.Sprintf("Could you please provide your %s?", missing[0])
		}
		return clarificationPrefix + question
	}

	if convCtx.Intent == models.IntentSetupPaymentPlan {
		amount := "the amount you mentioned"
		if convCtx.Entities.Has(models.EntityAmount) {
			amount = utils.FormatRand(convCtx.Entities.Amount.Decimal)
		}
		frequency := "as discussed"
		if convCtx.Entities.Frequency != "" {
			frequency = convCtx.Entities.Frequency
		}
		return fmt.Sprintf("I can help you set up a payment plan of %s %s. Shall I proceed with this arrangement?", amount, frequency)
	}

	if template, ok := templates[convCtx.Intent]; ok {
		return template
	}
	return unknownTemplate
}
