package emails

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"mynahbackend/clients"
	"mynahbackend/models"
	"mynahbackend/utils"
)

const (
	AgentName = string(models.AgentEmail)

	missingInfoMessage = "I'm missing some information needed to send the approval request."
)

type EmailsService struct {
	caseClient    clients.CaseManagementClient
	approvalEmail string
	now           func() time.Time
}

func NewEmailsService(caseClient clients.CaseManagementClient, approvalEmail string, now func() time.Time) *EmailsService {
	if now == nil {
		now = time.Now
	}
	return &EmailsService{
		caseClient:    caseClient,
		approvalEmail: approvalEmail,
		now:           now,
	}
}

// SendApprovalRequest mails the collections team a below-minimum plan for manual review
func (s *EmailsService) SendApprovalRequest(ctx context.Context, convCtx models.ConversationContext) models.EmailResult {
	if convCtx.EmailAddress == "" || convCtx.MatterDetails == nil {
		return models.EmailResult{ErrorMessage: missingInfoMessage}
	}

	matter := convCtx.MatterDetails
	log.Printf("📋 Starting to send approval request for matter %s", matter.MatterID)

	result := s.caseClient.SendEmail(ctx, clients.EmailRequest{
		To:       s.approvalEmail,
		Subject:  ApprovalSubject(matter.MatterID),
		Body:     ApprovalBody(convCtx, s.now()),
		MatterID: matter.MatterID,
	})
	if !result.Success {
		log.Printf("❌ Failed to send approval request for matter %s: %s", matter.MatterID, result.ErrorMessage)
		return result
	}

	log.Printf("📋 Completed successfully - sent approval request for matter %s", matter.MatterID)
	return result
}

func (s *EmailsService) Run(ctx context.Context, convCtx models.ConversationContext) models.ConversationContext {
	next := convCtx.Clone()
	next.AddAgent(AgentName)
	next.NextAgent = models.AgentNone

	if next.EmailAddress == "" || next.MatterDetails == nil {
		next.FinalResponse = missingInfoMessage
		return next
	}

	result := s.SendApprovalRequest(ctx, next)
	if !result.Success {
		next.FinalResponse = "I apologize, but I wasn't able to submit your approval request.\n\n" +
			result.ErrorMessage +
			"\n\nPlease try again later or contact our support team directly."
		return next
	}

	next.AwaitingInput = models.AwaitingNothing
	next.UnderstoodMessage = true
	next.FinalResponse = fmt.Sprintf(`✅ Approval Request Submitted

I've sent your payment plan approval request to our collections team.

Request Details:
• Proposed Amount: %s
• Your Email: %s

You should receive a response within 24-48 business hours at your email address.

Is there anything else I can help you with?`, utils.FormatRand(next.ProposedAmount.Decimal), next.EmailAddress)
	return next
}

func ApprovalSubject(matterID string) string {
	return "Payment Plan Approval Request - " + matterID
}

func ApprovalBody(convCtx models.ConversationContext, now time.Time) string {
	matter := convCtx.MatterDetails
	proposed := convCtx.ProposedAmount.Decimal

	var sb strings.Builder
	sb.WriteString("Payment Plan Approval Request\n\n")
	fmt.Fprintf(&sb, "Date: %s\n\n", now.Format("02 January 2006"))
	sb.WriteString("Debtor Details:\n")
	fmt.Fprintf(&sb, "- Name: %s\n", matter.DebtorName)
	fmt.Fprintf(&sb, "- Matter ID: %s\n", matter.MatterID)
	fmt.Fprintf(&sb, "- Outstanding Balance: %s\n\n", utils.FormatRand(matter.OutstandingBalance))
	sb.WriteString("Payment Plan Request:\n")
	fmt.Fprintf(&sb, "- Proposed Amount: %s\n", utils.FormatRand(proposed))
	if convCtx.Entities.Frequency != "" {
		fmt.Fprintf(&sb, "- Frequency: %s\n", convCtx.Entities.Frequency)
	}
	fmt.Fprintf(&sb, "- Minimum Payment Required: %s\n", utils.FormatRand(matter.MinimumPayment))
	fmt.Fprintf(&sb, "- Difference: %s below minimum\n\n", utils.FormatRand(matter.MinimumPayment.Sub(proposed)))
	sb.WriteString("The debtor has requested approval for a payment plan below the minimum required amount. ")
	fmt.Fprintf(&sb, "Please review and respond to: %s\n\n", convCtx.EmailAddress)
	sb.WriteString("---\nThis request was submitted via the AI Collections Assistant.\n")
	return sb.String()
}
