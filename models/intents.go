package models

// Intent is the closed set of debtor goals a turn can be classified into
type Intent string

const (
	IntentGetBalance            Intent = "get_balance"
	IntentGetStatement          Intent = "get_statement"
	IntentSettlementQuote       Intent = "request_settlement_quote"
	IntentSetupPaymentPlan      Intent = "setup_payment_plan"
	IntentPaymentHistory        Intent = "query_payment_history"
	IntentQueryGuidelines       Intent = "query_guidelines"
	IntentEscalateToAgent       Intent = "escalate_to_agent"
	IntentEmailStatement        Intent = "email_statement"
	IntentPaymentDate           Intent = "payment_date"
	IntentConfirmBankingDetails Intent = "confirm_banking_details"
	IntentSmallTalk             Intent = "small_talk"
	IntentUnknown               Intent = "unknown"
)

var AllIntents = []Intent{
	IntentGetBalance,
	IntentGetStatement,
	IntentSettlementQuote,
	IntentSetupPaymentPlan,
	IntentPaymentHistory,
	IntentQueryGuidelines,
	IntentEscalateToAgent,
	IntentEmailStatement,
	IntentPaymentDate,
	IntentConfirmBankingDetails,
	IntentSmallTalk,
	IntentUnknown,
}

// Labels used by older extraction prompts
var intentAliases = map[string]Intent{
	"create_payment_arrangement": IntentSetupPaymentPlan,
	"request_settlement":         IntentSettlementQuote,
	"ask_balance":                IntentGetBalance,
	"other":                      IntentUnknown,
}

// NormalizeIntent maps a raw label onto the closed set. Anything unrecognised is unknown.
func NormalizeIntent(label string) Intent {
	intent := Intent(label)
	if intent.IsValid() {
		return intent
	}
	if alias, ok := intentAliases[label]; ok {
		return alias
	}
	return IntentUnknown
}

func (i Intent) IsValid() bool {
	for _, known := range AllIntents {
		if i == known {
			return true
		}
	}
	return false
}

// Entity fields that must be present before an intent can be acted on, in the
// order they are asked for.
var requiredEntityFields = map[Intent][]string{
	IntentSetupPaymentPlan: {EntityAmount, EntityFrequency},
	IntentSettlementQuote:  {EntityAmount},
}

// RequiredEntityFields returns the declared required fields of an intent
func RequiredEntityFields(intent Intent) []string {
	return requiredEntityFields[intent]
}

// MissingEntityFields returns the required fields of intent that entities does not carry
func MissingEntityFields(intent Intent, entities Entities) []string {
	var missing []string
	for _, field := range requiredEntityFields[intent] {
		if !entities.Has(field) {
			missing = append(missing, field)
		}
	}
	return missing
}
