package entities

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"mynahbackend/clients"
	"mynahbackend/models"
	"mynahbackend/utils"
)

const systemPrompt = `You extract payment details from messages sent by debtors to a debt collection assistant.

Rules:
- If no amount is clearly mentioned, leave amount null.
- Amounts are South African Rand unless stated otherwise; use currency "ZAR".
- A number of months or payments goes in number_of_payments.
- "once-off", "one payment" or "lump sum" means frequency "once" and payment_type "settlement".
- Regular payments (weekly, monthly) are payment_type "installment".
- Leave anything you are unsure about null.`

var entitySchema = clients.Schema{
	Name:        clients.SchemaEntityExtraction,
	Description: "the payment details mentioned in the debtor's message",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"entities": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"amount":             map[string]any{"type": []string{"number", "null"}},
					"currency":           map[string]any{"type": []string{"string", "null"}},
					"frequency":          map[string]any{"type": []string{"string", "null"}, "enum": []any{"once", "weekly", "fortnightly", "monthly", nil}},
					"payment_type":       map[string]any{"type": []string{"string", "null"}, "enum": []any{"installment", "settlement", nil}},
					"date":               map[string]any{"type": []string{"string", "null"}},
					"number_of_payments": map[string]any{"type": []string{"integer", "null"}},
				},
			},
			"reasoning": map[string]any{"type": "string"},
		},
		"required": []string{"entities", "reasoning"},
	},
}

type extractionOutput struct {
	Entities  map[string]any `json:"entities"`
	Reasoning string         `json:"reasoning"`
}

var placeholderValues = map[string]bool{"": true, "unknown": true, "null": true, "none": true, "n/a": true}

type EntitiesService struct {
	generator clients.StructuredGenerator
}

func NewEntitiesService(generator clients.StructuredGenerator) *EntitiesService {
	return &EntitiesService{generator: generator}
}

// Extract returns a fresh entity record for the message. The intent is context for the
// model only and is never changed here.
func (s *EntitiesService) Extract(ctx context.Context, message string, intent models.Intent) (models.Entities, string) {
	if strings.TrimSpace(message) == "" {
		return models.Entities{}, "Empty message"
	}

	output, err := clients.Generate[extractionOutput](ctx, s.generator, entitySchema, clients.Prompt{
		System: systemPrompt,
		User:   fmt.Sprintf("Current intent: %s\nDebtor message: %s", intent, message),
		Input:  message,
	})
	if err != nil {
		log.Printf("⚠️ Entity extraction failed, continuing without entities: %v", err)
		return models.Entities{}, "Entity extraction unavailable"
	}

	return toEntities(output.Entities), output.Reasoning
}

// Run extracts entities for the last user message. When the previous turn asked for
// payment details, earlier values fill the gaps in the new extraction.
func (s *EntitiesService) Run(ctx context.Context, convCtx models.ConversationContext) models.ConversationContext {
	next := convCtx.Clone()
	next.AddAgent(models.StageEntityExtractor)

	extracted, reasoning := s.Extract(ctx, next.LastUserMessage, next.Intent)
	if convCtx.AwaitingInput == models.AwaitingPaymentDetails {
		extracted = extracted.FillFrom(convCtx.Entities)
	}

	next.Entities = extracted
	next.NLUReasoning = reasoning
	if !extracted.IsEmpty() {
		next.UnderstoodMessage = true
	}
	return next
}

func toEntities(raw map[string]any) models.Entities {
	var entities models.Entities
	extra := map[string]any{}

	for key, value := range raw {
		switch key {
		case models.EntityAmount:
			if amount, ok := toAmount(value); ok {
				entities.Amount = decimal.NewNullDecimal(amount)
			}
		case models.EntityCurrency:
			entities.Currency = strings.ToUpper(toText(value))
		case models.EntityFrequency:
			entities.Frequency = strings.ToLower(toText(value))
		case models.EntityPaymentType:
			entities.PaymentType = strings.ToLower(toText(value))
		case models.EntityDate:
			entities.Date = toText(value)
		case "number_of_payments":
			entities.NumberOfPayments = toCount(value)
		case "lump_sum":
			if lumpSum, ok := value.(bool); ok && lumpSum {
				extra[key] = true
			}
		default:
			if value != nil {
				extra[key] = value
			}
		}
	}

	if extra["lump_sum"] == true {
		if entities.Frequency == "" {
			entities.Frequency = "once"
		}
		if entities.PaymentType == "" {
			entities.PaymentType = "settlement"
		}
	}
	if entities.Amount.Valid && entities.Currency == "" {
		entities.Currency = "ZAR"
	}
	if len(extra) > 0 {
		entities.Raw = extra
	}
	return entities
}

func toAmount(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case float64:
		amount := decimal.NewFromFloat(v)
		return amount, amount.IsPositive()
	case string:
		if placeholderValues[strings.ToLower(strings.TrimSpace(v))] {
			return decimal.Zero, false
		}
		return utils.FindAmount(v)
	default:
		return decimal.Zero, false
	}
}

func toText(value any) string {
	text, ok := value.(string)
	if !ok {
		return ""
	}
	text = strings.TrimSpace(text)
	if placeholderValues[strings.ToLower(text)] {
		return ""
	}
	return text
}

func toCount(value any) int {
	switch v := value.(type) {
	case float64:
		if v > 0 {
			return int(v)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
