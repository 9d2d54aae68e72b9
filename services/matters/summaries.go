package matters

import (
	"fmt"
	"strings"

	"mynahbackend/models"
	"mynahbackend/utils"
)

const popiaNotice = "POPIA Compliance Notice: Your personal information is processed in accordance with the " +
	"Protection of Personal Information Act (POPIA). We only use your data to service your account and will " +
	"not share it with third parties without your consent. You have the right to access, correct, or request " +
	"deletion of your personal information."

// AccountSummary renders the verified account for the current intent, followed by the POPIA notice
func AccountSummary(convCtx models.ConversationContext) string {
	matter := convCtx.MatterDetails
	if matter == nil {
		return ""
	}

	var sb strings.Builder
	switch convCtx.Intent {
	case models.IntentGetBalance:
		sb.WriteString("Thank you for verifying your account. Here are your balance details:\n\n")
		sb.WriteString("Account Balance:\n")
		writeAccountLines(&sb, matter, false)
		sb.WriteString("\nWould you like to set up a payment plan or get a settlement quote?")

	case models.IntentSetupPaymentPlan:
		sb.WriteString("Thank you for providing your details. I've located your account.\n\n")
		sb.WriteString("Account Summary:\n")
		writeAccountLines(&sb, matter, true)
		fmt.Fprintf(&sb, "\nBased on your request, I can set up a payment plan of %s.\n\n", PlanTerms(convCtx.Entities))
		sb.WriteString("Would you like me to proceed with this arrangement?")

	default:
		sb.WriteString("I've located your account.\n\n")
		sb.WriteString("Account Details:\n")
		writeAccountLines(&sb, matter, false)
		sb.WriteString("\nHow would you like to proceed?")
	}

	sb.WriteString("\n\n")
	sb.WriteString(popiaNotice)
	return sb.String()
}

// PlanTerms renders "R500.00 monthly" with neutral wording for whatever is missing
func PlanTerms(entities models.Entities) string {
	amount := "the amount you mentioned"
	if entities.Has(models.EntityAmount) {
		amount = utils.FormatRand(entities.Amount.Decimal)
	}
	frequency := "as discussed"
	if entities.Frequency != "" {
		frequency = entities.Frequency
	}
	return amount + " " + frequency
}

// FailureMessage is shown when the account could not be retrieved
func FailureMessage(errorMessage string) string {
	if errorMessage == "" {
		errorMessage = "Please try again later."
	}
	return "I wasn't able to retrieve your account information. " + errorMessage
}

func writeAccountLines(sb *strings.Builder, matter *models.MatterDetails, withMinimum bool) {
	fmt.Fprintf(sb, "• Matter Number: %s\n", matter.MatterID)
	fmt.Fprintf(sb, "• Creditor: %s\n", matter.ClientName)
	fmt.Fprintf(sb, "• Outstanding Balance: %s\n", utils.FormatRand(matter.OutstandingBalance))
	fmt.Fprintf(sb, "• Original Amount: %s\n", utils.FormatRand(matter.CapitalAmount))
	if withMinimum {
		fmt.Fprintf(sb, "• Minimum Payment Required: %s\n", utils.FormatRand(matter.MinimumPayment))
	}
	fmt.Fprintf(sb, "• Last Payment Date: %s\n", utils.FormatPaymentDate(matter.LastPaymentDate))
}
