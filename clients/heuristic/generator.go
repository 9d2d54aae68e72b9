package heuristic

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"mynahbackend/clients"
	"mynahbackend/core"
	"mynahbackend/models"
	"mynahbackend/utils"
)

// Generator answers classification and extraction schemas with keyword rules so the
// service runs without a model provider. Free-text schemas are refused, which sends
// callers to their template fallbacks.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Name() string {
	return "heuristic"
}

func (g *Generator) GenerateStructured(
	ctx context.Context,
	schema clients.Schema,
	prompt clients.Prompt,
) (json.RawMessage, error) {
	message := prompt.Input
	if message == "" {
		message = prompt.User
	}

	var output any
	switch schema.Name {
	case clients.SchemaIntentClassification:
		intent, reasoning := ClassifyIntent(message)
		output = map[string]any{"intent": intent, "reasoning": reasoning}
	case clients.SchemaEntityExtraction:
		output = map[string]any{
			"entities":  ExtractEntities(message),
			"reasoning": "Extracted with keyword rules",
		}
	default:
		return nil, core.NewModelError(schema.Name, fmt.Errorf("no heuristic for schema %s", schema.Name))
	}

	raw, err := json.Marshal(output)
	if err != nil {
		return nil, core.NewModelError(schema.Name, err)
	}
	return raw, nil
}

type intentRule struct {
	intent   models.Intent
	keywords []string
}

// Ordered: the first matching rule wins
var intentRules = []intentRule{
	{models.IntentEscalateToAgent, []string{"human", "real person", "speak to someone", "talk to someone", "consultant", "speak to an agent", "talk to an agent", "manager", "supervisor"}},
	{models.IntentEmailStatement, []string{"email my statement", "email me my statement", "email me the statement", "send my statement", "statement to my email", "email statement", "email the statement"}},
	{models.IntentGetStatement, []string{"statement"}},
	{models.IntentConfirmBankingDetails, []string{"bank details", "banking details", "branch code", "where do i pay", "where can i pay", "which account"}},
	{models.IntentPaymentDate, []string{"next payment", "due date", "when is my payment", "when must i pay", "when do i pay", "payment due"}},
	{models.IntentPaymentHistory, []string{"payment history", "last payment", "previous payments", "payments i made", "past payments", "recent payments"}},
	{models.IntentSettlementQuote, []string{"settle", "settlement", "lump sum", "discount", "pay it all", "pay off", "once-off", "once off"}},
	{models.IntentSetupPaymentPlan, []string{"payment plan", "arrangement", "instalment", "installment", "per month", "a month", "monthly", "weekly", "per week", "want to pay", "can i pay", "can pay", "afford"}},
	{models.IntentGetBalance, []string{"balance", "how much do i owe", "how much i owe", "what do i owe", "outstanding", "amount owing"}},
	{models.IntentQueryGuidelines, []string{"policy", "guideline", "popia", "my rights", "privacy", "terms"}},
	{models.IntentSmallTalk, []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening", "thanks", "thank you"}},
}

var wordCleaner = regexp.MustCompile(`[^a-z0-9\-\s]+`)

// normalizeWords lowercases, drops punctuation and pads with spaces for whole-phrase matching
func normalizeWords(message string) string {
	return " " + strings.Join(strings.Fields(wordCleaner.ReplaceAllString(strings.ToLower(message), " ")), " ") + " "
}

// ClassifyIntent picks an intent from keyword rules
func ClassifyIntent(message string) (models.Intent, string) {
	normalized := normalizeWords(message)

	for _, rule := range intentRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(normalized, " "+keyword+" ") {
				return rule.intent, fmt.Sprintf("Matched keyword %q", keyword)
			}
		}
	}
	return models.IntentUnknown, "No keyword matched"
}

var (
	numberOfPaymentsRegex = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(?:months|payments|instalments|installments|weeks)\b`)
	isoDateRegex          = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	dayOfMonthRegex       = regexp.MustCompile(`(?i)\bon the (\d{1,2}(?:st|nd|rd|th))\b`)
)

type frequencyRule struct {
	frequency   string
	paymentType string
	keywords    []string
}

var frequencyRules = []frequencyRule{
	{"once", "settlement", []string{"once-off", "once off", "one payment", "lump sum", "in full", "settle"}},
	{"fortnightly", "installment", []string{"fortnight", "fortnightly", "every two weeks", "bi-weekly", "biweekly"}},
	{"weekly", "installment", []string{"weekly", "per week", "a week", "every week"}},
	{"monthly", "installment", []string{"monthly", "per month", "a month", "every month", "each month"}},
}

// ExtractEntities pulls amount, frequency, payment type, date and term from a message
func ExtractEntities(message string) map[string]any {
	entities := map[string]any{}

	// An ID number on its own is not an amount
	if _, isID := utils.DetectIDNumber(message); !isID {
		if amount, ok := utils.FindAmount(message); ok {
			entities[models.EntityAmount] = amount.String()
			entities[models.EntityCurrency] = "ZAR"
		}
	}

	words := normalizeWords(message)
	for _, rule := range frequencyRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(words, " "+keyword+" ") {
				entities[models.EntityFrequency] = rule.frequency
				entities[models.EntityPaymentType] = rule.paymentType
				break
			}
		}
		if _, found := entities[models.EntityFrequency]; found {
			break
		}
	}

	if match := numberOfPaymentsRegex.FindStringSubmatch(message); match != nil {
		if n, err := strconv.Atoi(match[1]); err == nil {
			entities["number_of_payments"] = n
		}
	}

	if date := isoDateRegex.FindString(message); date != "" {
		entities[models.EntityDate] = date
	} else if match := dayOfMonthRegex.FindStringSubmatch(message); match != nil {
		entities[models.EntityDate] = match[1]
	}

	return entities
}
