package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MatterDetails is the case system's snapshot of a single debt account
type MatterDetails struct {
	Idx                int             `json:"idx"`
	MatterID           string          `json:"matter_id"`
	Status             string          `json:"status"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	CapitalAmount      decimal.Decimal `json:"capital_amount"`
	MinimumPayment     decimal.Decimal `json:"minimum_payment"`
	LastPaymentAmount  decimal.Decimal `json:"last_payment_amount"`
	LastPaymentDate    string          `json:"last_payment_date"`
	ClientName         string          `json:"client_name"`
	DebtorName         string          `json:"debtor_name"`
	ActivePlan         bool            `json:"active_plan"`
	PaymentMethod      string          `json:"payment_method"`
}

// FirstName is used to personalise replies
func (m *MatterDetails) FirstName() string {
	fields := strings.Fields(m.DebtorName)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}

// MatterLookupResult is the outcome of an account lookup. Failures carry a debtor-safe message.
type MatterLookupResult struct {
	Success      bool
	Matter       *MatterDetails
	ErrorMessage string
}

// EmailResult is the outcome of an outbound email request
type EmailResult struct {
	Success      bool
	ErrorMessage string
}
