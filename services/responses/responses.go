package responses

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"mynahbackend/clients"
	"mynahbackend/models"
	"mynahbackend/utils"
)

const (
	AgentName = string(models.AgentResponse)

	systemPrompt = `You are a friendly, professional debt resolution assistant replying to a debtor.

Tone: empathetic, clear, concise, plain language, never judgmental.

Rules:
1. If the request is clear and complete, confirm what you understood and explain the next step.
2. If required information is missing, ask for it politely.
3. For payment plans, restate the proposed amount and frequency.
4. For greetings, be warm and steer toward how you can help.
5. For unclear requests, ask for clarification.
6. Only mention balances or account figures that appear in the account section below.
End with a clear next step or question when action is needed.`
)

var responseSchema = clients.Schema{
	Name:        clients.SchemaDebtorResponse,
	Description: "the reply to send to the debtor",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"response":           map[string]any{"type": "string"},
			"follow_up_question": map[string]any{"type": []string{"string", "null"}},
			"action_required":    map[string]any{"type": "boolean"},
		},
		"required": []string{"response"},
	},
}

type responseOutput struct {
	Response         string `json:"response"`
	FollowUpQuestion string `json:"follow_up_question"`
	ActionRequired   bool   `json:"action_required"`
}

type ResponsesService struct {
	generator clients.StructuredGenerator
}

func NewResponsesService(generator clients.StructuredGenerator) *ResponsesService {
	return &ResponsesService{generator: generator}
}

// Generate produces the debtor-facing reply, falling back to templates on any model failure
func (s *ResponsesService) Generate(ctx context.Context, convCtx models.ConversationContext) string {
	output, err := clients.Generate[responseOutput](ctx, s.generator, responseSchema, clients.Prompt{
		System: systemPrompt,
		User:   buildUserPrompt(convCtx),
		Input:  convCtx.LastUserMessage,
	})
	if err != nil || strings.TrimSpace(output.Response) == "" {
		if err != nil {
			log.Debugf("📋 Response generation fell back to templates: %v", err)
		}
		return Fallback(convCtx)
	}

	response := strings.TrimSpace(output.Response)
	if followUp := strings.TrimSpace(output.FollowUpQuestion); followUp != "" {
		response += "\n\n" + followUp
	}
	return response
}

// Run sets the final response unless an earlier stage already answered
func (s *ResponsesService) Run(ctx context.Context, convCtx models.ConversationContext) models.ConversationContext {
	next := convCtx.Clone()
	next.AddAgent(AgentName)
	if next.FinalResponse == "" {
		next.FinalResponse = s.Generate(ctx, next)
	}
	return next
}

func buildUserPrompt(convCtx models.ConversationContext) string {
	var sb strings.Builder

	missing := models.MissingEntityFields(convCtx.Intent, convCtx.Entities)
	missingText := "None - all required info available"
	if len(missing) > 0 {
		missingText = strings.Join(missing, ", ")
	}

	reasoning := convCtx.NLUReasoning
	if reasoning == "" && convCtx.ReasoningResult != nil {
		reasoning = convCtx.ReasoningResult.Summary
	}
	if reasoning == "" {
		reasoning = "No reasoning available"
	}

	fmt.Fprintf(&sb, "Intent detected: %s\n", convCtx.Intent)
	fmt.Fprintf(&sb, "Entities extracted: %s\n", describeEntities(convCtx.Entities))
	fmt.Fprintf(&sb, "Missing required info: %s\n", missingText)
	fmt.Fprintf(&sb, "Previous reasoning: %s\n", reasoning)

	if convCtx.HasVerifiedAccount() {
		matter := convCtx.MatterDetails
		fmt.Fprintf(&sb, "Account: matter %s, outstanding balance %s, minimum payment %s\n",
			matter.MatterID, utils.FormatRand(matter.OutstandingBalance), utils.FormatRand(matter.MinimumPayment))
	} else {
		sb.WriteString("Account: not verified - do not quote any balances\n")
	}

	fmt.Fprintf(&sb, "\nDebtor's message: %q\n", convCtx.LastUserMessage)
	return sb.String()
}

func describeEntities(entities models.Entities) string {
	var parts []string
	if entities.Has(models.EntityAmount) {
		parts = append(parts, "amount: "+utils.FormatRand(entities.Amount.Decimal))
	}
	if entities.Currency != "" {
		parts = append(parts, "currency: "+entities.Currency)
	}
	if entities.Frequency != "" {
		parts = append(parts, "frequency: "+entities.Frequency)
	}
	if entities.PaymentType != "" {
		parts = append(parts, "payment_type: "+entities.PaymentType)
	}
	if entities.Date != "" {
		parts = append(parts, "date: "+entities.Date)
	}
	if entities.NumberOfPayments > 0 {
		parts = append(parts, fmt.Sprintf("number_of_payments: %d", entities.NumberOfPayments))
	}
	if len(parts) == 0 {
		return "None extracted"
	}
	return strings.Join(parts, ", ")
}
