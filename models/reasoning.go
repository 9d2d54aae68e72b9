package models

import (
	"github.com/shopspring/decimal"
)

type ArrangementReasoning struct {
	MeetsMinimumInstallment   bool                `json:"meets_minimum_installment"`
	ProposedInstallmentAmount decimal.NullDecimal `json:"proposed_installment_amount"`
	Frequency                 string              `json:"frequency,omitempty"`
	TermMonths                int                 `json:"term_months,omitempty"`
	RequiresHumanReview       bool                `json:"requires_human_review"`
	Confirmed                 bool                `json:"confirmed"`
	Reason                    string              `json:"reason,omitempty"`
}

type SettlementReasoning struct {
	ProposedSettlementAmount decimal.NullDecimal `json:"proposed_settlement_amount"`
	DiscountRatio            decimal.NullDecimal `json:"discount_ratio"`
	AboveApprovalThreshold   bool                `json:"above_approval_threshold"`
	RequiresManagerApproval  bool                `json:"requires_manager_approval"`
	Reason                   string              `json:"reason,omitempty"`
}

// ReasoningResult is the audit trail of classifier and policy decisions
type ReasoningResult struct {
	Arrangement *ArrangementReasoning `json:"arrangement,omitempty"`
	Settlement  *SettlementReasoning  `json:"settlement,omitempty"`
	Summary     string                `json:"summary,omitempty"`
}

func (r *ReasoningResult) Clone() *ReasoningResult {
	if r == nil {
		return nil
	}
	cloned := *r
	if r.Arrangement != nil {
		arrangement := *r.Arrangement
		cloned.Arrangement = &arrangement
	}
	if r.Settlement != nil {
		settlement := *r.Settlement
		cloned.Settlement = &settlement
	}
	return &cloned
}
