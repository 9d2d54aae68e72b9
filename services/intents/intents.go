package intents

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"mynahbackend/clients"
	"mynahbackend/models"
)

const systemPrompt = `You classify messages sent by debtors to a debt collection assistant.

Pick exactly one intent label:
- get_balance: asking for the current balance or how much is owed
- get_statement: asking for a statement
- request_settlement_quote: wants to settle the debt, possibly for a reduced lump sum
- setup_payment_plan: wants to pay in instalments or proposes an amount per period
- query_payment_history: asking about payments already made
- query_guidelines: asking about policies, rights or data protection
- escalate_to_agent: wants to speak to a person
- email_statement: wants a statement sent by email
- payment_date: asking when the next payment is due
- confirm_banking_details: asking where or how to pay
- small_talk: greetings or thanks with no request
- unknown: anything else

Never invent labels. Keep the reasoning to one sentence.`

var intentSchema = clients.Schema{
	Name:        clients.SchemaIntentClassification,
	Description: "the intent of the debtor's message",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"intent":    map[string]any{"type": "string", "enum": intentLabels()},
			"reasoning": map[string]any{"type": "string"},
		},
		"required": []string{"intent", "reasoning"},
	},
}

func intentLabels() []string {
	labels := make([]string, 0, len(models.AllIntents))
	for _, intent := range models.AllIntents {
		labels = append(labels, string(intent))
	}
	return labels
}

type intentOutput struct {
	Intent    string `json:"intent"`
	Reasoning string `json:"reasoning"`
}

type IntentsService struct {
	generator clients.StructuredGenerator
}

func NewIntentsService(generator clients.StructuredGenerator) *IntentsService {
	return &IntentsService{generator: generator}
}

// Classify maps a message onto the closed intent set. Model failures and
// unrecognised labels become unknown.
func (s *IntentsService) Classify(ctx context.Context, message string) (models.Intent, string) {
	if strings.TrimSpace(message) == "" {
		return models.IntentUnknown, "Empty message"
	}

	output, err := clients.Generate[intentOutput](ctx, s.generator, intentSchema, clients.Prompt{
		System: systemPrompt,
		User:   fmt.Sprintf("Debtor message: %s", message),
		Input:  message,
	})
	if err != nil {
		log.Printf("⚠️ Intent classification failed, treating as unknown: %v", err)
		return models.IntentUnknown, "Intent classification unavailable"
	}

	intent := models.NormalizeIntent(strings.ToLower(strings.TrimSpace(output.Intent)))
	return intent, output.Reasoning
}

// Run classifies the last user message and records the outcome on the context
func (s *IntentsService) Run(ctx context.Context, convCtx models.ConversationContext) models.ConversationContext {
	next := convCtx.Clone()
	next.AddAgent(models.StageIntentClassifier)

	intent, reasoning := s.Classify(ctx, next.LastUserMessage)
	next.Intent = intent
	if intent != models.IntentUnknown {
		next.UnderstoodMessage = true
	}
	next.AppendReasoning(reasoning)
	return next
}
