package matters

import (
	"context"

	log "github.com/sirupsen/logrus"

	"mynahbackend/clients"
	"mynahbackend/models"
)

const AgentName = string(models.AgentData)

type MattersService struct {
	caseClient clients.CaseManagementClient
}

func NewMattersService(caseClient clients.CaseManagementClient) *MattersService {
	return &MattersService{caseClient: caseClient}
}

func (s *MattersService) LookupMatter(ctx context.Context, idNumber string) models.MatterLookupResult {
	log.Printf("📋 Starting to look up linked matter")
	if idNumber == "" {
		return models.MatterLookupResult{ErrorMessage: "An ID number is required to look up your account."}
	}

	result := s.caseClient.GetLinkedMatterDetails(ctx, idNumber)
	if !result.Success || result.Matter == nil {
		log.Printf("⚠️ Matter lookup failed: %s", result.ErrorMessage)
		result.Success = false
		return result
	}

	log.Printf("📋 Completed successfully - found matter %s", result.Matter.MatterID)
	return result
}

// Run fetches the account for the verified ID and replies with a summary of it
func (s *MattersService) Run(ctx context.Context, convCtx models.ConversationContext) models.ConversationContext {
	next := convCtx.Clone()
	next.AddAgent(AgentName)
	next.NextAgent = models.AgentNone

	result := s.LookupMatter(ctx, next.IDNumber)
	if !result.Success {
		next.FinalResponse = FailureMessage(result.ErrorMessage)
		return next
	}

	next.MatterDetails = result.Matter
	next.FinalResponse = AccountSummary(next)
	next.UnderstoodMessage = true
	return next
}
