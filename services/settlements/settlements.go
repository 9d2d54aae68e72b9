package settlements

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"mynahbackend/config"
	"mynahbackend/models"
	"mynahbackend/utils"
)

const AgentName = string(models.AgentReasoning)

var (
	defaultApprovalThreshold = decimal.RequireFromString("0.15")
	hundred                  = decimal.NewFromInt(100)
	monthsPerYear            = decimal.NewFromInt(12)
)

const defaultMaxTermMonths = 24

// Payments per year by frequency. Unrecognised frequencies are treated as monthly.
var paymentsPerYear = map[string]int64{
	"weekly":      52,
	"fortnightly": 26,
	"biweekly":    26,
	"monthly":     12,
	"quarterly":   4,
}

type SettlementsService struct {
	approvalThreshold decimal.Decimal
	maxTermMonths     int
}

func NewSettlementsService(cfg config.ReasoningConfig) *SettlementsService {
	threshold := cfg.SettlementApprovalThreshold
	if !threshold.IsPositive() {
		threshold = defaultApprovalThreshold
	}
	maxTerm := cfg.MaxTermMonths
	if maxTerm <= 0 {
		maxTerm = defaultMaxTermMonths
	}
	return &SettlementsService{approvalThreshold: threshold, maxTermMonths: maxTerm}
}

// EvaluateSettlement compares a lump-sum offer with the outstanding balance.
// Returns nil when the account or the offer is unknown.
func (s *SettlementsService) EvaluateSettlement(convCtx models.ConversationContext) *models.SettlementReasoning {
	if convCtx.MatterDetails == nil || !convCtx.Entities.Has(models.EntityAmount) {
		return nil
	}

	offer := convCtx.Entities.Amount.Decimal
	balance := convCtx.MatterDetails.OutstandingBalance

	ratio := decimal.Zero
	if balance.IsPositive() {
		ratio = balance.Sub(offer).Div(balance).Round(4)
	}
	if ratio.IsNegative() {
		ratio = decimal.Zero
	}

	above := ratio.GreaterThan(s.approvalThreshold)
	reasoning := &models.SettlementReasoning{
		ProposedSettlementAmount: decimal.NewNullDecimal(offer),
		DiscountRatio:            decimal.NewNullDecimal(ratio),
		AboveApprovalThreshold:   above,
		RequiresManagerApproval:  above,
	}
	if above {
		reasoning.Reason = fmt.Sprintf("discount of %s%% exceeds the %s%% approval threshold",
			percent(ratio), percent(s.approvalThreshold))
	} else {
		reasoning.Reason = fmt.Sprintf("discount of %s%% is within the %s%% approval threshold",
			percent(ratio), percent(s.approvalThreshold))
	}
	return reasoning
}

// EvaluateArrangement checks an instalment plan against the minimum payment and the maximum term.
// Returns nil when the account or the instalment is unknown.
func (s *SettlementsService) EvaluateArrangement(convCtx models.ConversationContext) *models.ArrangementReasoning {
	amount := convCtx.Entities.Amount
	if !convCtx.Entities.Has(models.EntityAmount) {
		amount = convCtx.ProposedAmount
	}
	if convCtx.MatterDetails == nil || !amount.Valid || !amount.Decimal.IsPositive() {
		return nil
	}

	matter := convCtx.MatterDetails
	frequency := convCtx.Entities.Frequency
	reasoning := &models.ArrangementReasoning{
		MeetsMinimumInstallment:   !amount.Decimal.LessThan(matter.MinimumPayment),
		ProposedInstallmentAmount: amount,
		Frequency:                 frequency,
		TermMonths:                termMonths(matter.OutstandingBalance, amount.Decimal, frequency),
	}

	switch {
	case !reasoning.MeetsMinimumInstallment:
		reasoning.RequiresHumanReview = true
		reasoning.Reason = fmt.Sprintf("instalment of %s is below the minimum of %s",
			utils.FormatRand(amount.Decimal), utils.FormatRand(matter.MinimumPayment))
	case reasoning.TermMonths > s.maxTermMonths:
		reasoning.RequiresHumanReview = true
		reasoning.Reason = fmt.Sprintf("term of %d months exceeds the %d month maximum", reasoning.TermMonths, s.maxTermMonths)
	default:
		reasoning.Reason = fmt.Sprintf("meets the minimum and settles in %d months", reasoning.TermMonths)
	}
	return reasoning
}

// Run evaluates the settlement offer or the confirmed plan of the current turn
func (s *SettlementsService) Run(ctx context.Context, convCtx models.ConversationContext) models.ConversationContext {
	next := convCtx.Clone()
	next.AddAgent(AgentName)
	next.NextAgent = models.AgentNone

	switch next.Intent {
	case models.IntentSettlementQuote:
		s.runSettlement(&next)
	case models.IntentSetupPaymentPlan:
		s.runArrangement(&next)
	default:
		log.Printf("⚠️ Reasoning requested for intent %s, nothing to evaluate", next.Intent)
	}
	return next
}

func (s *SettlementsService) runSettlement(convCtx *models.ConversationContext) {
	reasoning := s.EvaluateSettlement(*convCtx)
	if reasoning == nil {
		convCtx.FinalResponse = "I can help you with a settlement quote. " +
			"Would you like me to calculate the best settlement amount for your account?"
		return
	}

	if convCtx.ReasoningResult == nil {
		convCtx.ReasoningResult = &models.ReasoningResult{}
	}
	convCtx.ReasoningResult.Settlement = reasoning
	convCtx.AppendReasoning("settlement: " + reasoning.Reason)
	convCtx.UnderstoodMessage = true

	offer := utils.FormatRand(reasoning.ProposedSettlementAmount.Decimal)
	balance := utils.FormatRand(convCtx.MatterDetails.OutstandingBalance)
	discount := percent(reasoning.DiscountRatio.Decimal)

	if reasoning.RequiresManagerApproval {
		convCtx.FinalResponse = fmt.Sprintf(
			"Your settlement offer of %s on an outstanding balance of %s is a %s%% discount, "+
				"which is more than I can approve automatically.\n\n"+
				"I've referred your offer to a manager for approval and we'll be in touch with their decision.",
			offer, balance, discount)
		return
	}

	convCtx.FinalResponse = fmt.Sprintf(
		"Good news! Your settlement offer of %s on an outstanding balance of %s (a %s%% discount) "+
			"falls within our settlement guidelines.\n\n"+
			"Our team will send you a settlement letter confirming these terms. "+
			"Is there anything else I can help you with?",
		offer, balance, discount)
}

func (s *SettlementsService) runArrangement(convCtx *models.ConversationContext) {
	reasoning := s.EvaluateArrangement(*convCtx)
	if reasoning == nil {
		log.Printf("⚠️ Arrangement evaluation skipped: account or instalment missing")
		return
	}
	reasoning.Confirmed = true

	if convCtx.ReasoningResult == nil {
		convCtx.ReasoningResult = &models.ReasoningResult{}
	}
	convCtx.ReasoningResult.Arrangement = reasoning
	convCtx.AppendReasoning("arrangement: " + reasoning.Reason)
	convCtx.AwaitingInput = models.AwaitingNothing
	convCtx.UnderstoodMessage = true

	terms := utils.FormatRand(reasoning.ProposedInstallmentAmount.Decimal)
	if reasoning.Frequency != "" {
		terms += " " + reasoning.Frequency
	}

	if reasoning.RequiresHumanReview {
		convCtx.FinalResponse = fmt.Sprintf(
			"I've recorded your payment plan of %s. At this rate it would take about %d months to settle your account, "+
				"so a consultant will review the arrangement and contact you to confirm it.",
			terms, reasoning.TermMonths)
		return
	}

	convCtx.FinalResponse = fmt.Sprintf(`✅ Your payment plan has been recorded.

• Instalment: %s
• Estimated term: %d months

You'll receive confirmation of the arrangement shortly. Is there anything else I can help you with?`,
		terms, reasoning.TermMonths)
}

// termMonths is how long the instalments take to clear the balance, rounded up
func termMonths(balance, instalment decimal.Decimal, frequency string) int {
	if !balance.IsPositive() || !instalment.IsPositive() {
		return 0
	}
	if frequency == "once" {
		return 1
	}

	perYear, ok := paymentsPerYear[frequency]
	if !ok {
		perYear = 12
	}
	monthly := instalment.Mul(decimal.NewFromInt(perYear)).Div(monthsPerYear)
	return int(balance.Div(monthly).Ceil().IntPart())
}

func percent(ratio decimal.Decimal) string {
	return ratio.Mul(hundred).StringFixed(1)
}
