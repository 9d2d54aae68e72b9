package models

import (
	"maps"

	"github.com/shopspring/decimal"
)

const (
	EntityAmount      = "amount"
	EntityCurrency    = "currency"
	EntityFrequency   = "frequency"
	EntityPaymentType = "payment_type"
	EntityDate        = "date"
)

// Entities are the structured financial details pulled from a single message
type Entities struct {
	Amount           decimal.NullDecimal `json:"amount"`
	Currency         string              `json:"currency,omitempty"`
	Frequency        string              `json:"frequency,omitempty"`
	PaymentType      string              `json:"payment_type,omitempty"`
	Date             string              `json:"date,omitempty"`
	NumberOfPayments int                 `json:"number_of_payments,omitempty"`
	Raw              map[string]any      `json:"raw,omitempty"`
}

// Has treats absent, empty and zero values as missing
func (e Entities) Has(field string) bool {
	switch field {
	case EntityAmount:
		return e.Amount.Valid && !e.Amount.Decimal.IsZero()
	case EntityCurrency:
		return e.Currency != ""
	case EntityFrequency:
		return e.Frequency != ""
	case EntityPaymentType:
		return e.PaymentType != ""
	case EntityDate:
		return e.Date != ""
	default:
		return false
	}
}

// IsEmpty reports whether no field was extracted
func (e Entities) IsEmpty() bool {
	return !e.Has(EntityAmount) &&
		!e.Has(EntityCurrency) &&
		!e.Has(EntityFrequency) &&
		!e.Has(EntityPaymentType) &&
		!e.Has(EntityDate) &&
		e.NumberOfPayments == 0
}

// FillFrom returns e with gaps filled from previous. Values in e win.
func (e Entities) FillFrom(previous Entities) Entities {
	merged := e.Clone()
	if !merged.Has(EntityAmount) {
		merged.Amount = previous.Amount
	}
	if merged.Currency == "" {
		merged.Currency = previous.Currency
	}
	if merged.Frequency == "" {
		merged.Frequency = previous.Frequency
	}
	if merged.PaymentType == "" {
		merged.PaymentType = previous.PaymentType
	}
	if merged.Date == "" {
		merged.Date = previous.Date
	}
	if merged.NumberOfPayments == 0 {
		merged.NumberOfPayments = previous.NumberOfPayments
	}
	for key, value := range previous.Raw {
		if _, ok := merged.Raw[key]; !ok {
			if merged.Raw == nil {
				merged.Raw = map[string]any{}
			}
			merged.Raw[key] = value
		}
	}
	return merged
}

func (e Entities) Clone() Entities {
	cloned := e
	cloned.Raw = maps.Clone(e.Raw)
	return cloned
}
