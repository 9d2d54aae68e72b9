package router

import (
	"fmt"

	"github.com/shopspring/decimal"

	"mynahbackend/utils"
)

const (
	verificationPrompt = "To protect your account, I first need to verify your identity. " +
		"Please reply with your 13-digit South African ID number."

	invalidIDPrompt = "That doesn't look like a valid ID number. " +
		"Please enter your 13-digit South African ID number (spaces or dashes are fine)."

	balanceAck        = "I'm retrieving your balance information..."
	statementAck      = "I'll retrieve your statement. Would you like to view it here or have it emailed to you?"
	paymentHistoryAck = "Let me pull up your recent payment history..."
	paymentDateAck    = "Let me check your next payment due date..."

	settlementOfferQuestion = "I can help you with a settlement quote. " +
		"Would you like me to calculate the best settlement amount for your account?"

	bankingDetails = "Here are our verified banking details for payments:\n\n" +
		"Bank: [Your Bank Name]\n" +
		"Account Name: [Account Name]\n" +
		"Account Number: [Account Number]\n" +
		"Branch Code: [Branch Code]\n" +
		"Reference: Please use your account number as reference.\n\n" +
		"⚠️ Please verify these details match our official correspondence before making any payment."

	escalationMessage = "I understand you'd like to speak with a human agent. " +
		"I'm connecting you now. Please hold while I transfer you to the next available consultant.\n\n" +
		"Alternatively, you can call us directly at [Phone Number] during business hours."

	emailStatementAck = "I'll send your statement to the email address on file. " +
		"You should receive it within the next few minutes. " +
		"Would you like me to confirm the email address we have?"

	smallTalkMenu = "Hello! I'm here to help you with your account. " +
		"I can assist you with:\n" +
		"• Checking your balance\n" +
		"• Setting up a payment plan\n" +
		"• Getting a settlement quote\n" +
		"• Viewing your payment history\n" +
		"• And more!\n\n" +
		"How can I help you today?"

	unknownMenu = "Hi! Could you please tell me if you'd like to:\n\n" +
		"• Check your balance - See your current account balance\n" +
		"• Make a payment - Set up a payment plan or once-off payment\n" +
		"• Get a settlement quote - See options to settle your account\n" +
		"• View payment history - See your recent payments\n" +
		"• Speak to an agent - Connect with a human consultant\n\n" +
		"Just let me know how I can help!"

	emailPrompt = "To request approval, I need an email address where our team can reach you with their decision. " +
		"Please reply with your email address."

	planChangePrompt = "No problem. What would you like to change? " +
		"You can tell me a different amount or how often you'd like to pay."
)

func settlementAck(amount decimal.Decimal) string {
	return fmt.Sprintf("I'll calculate a settlement quote based on your proposed amount of %s. "+
		"Please give me a moment to review your account...", utils.FormatRand(amount))
}

func belowMinimumPrompt(proposed, minimum decimal.Decimal) string {
	return fmt.Sprintf("The minimum payment on your account is %[2]s, and your proposed payment of %[1]s is below it.\n\n"+
		"You can:\n"+
		"1. Request approval for %[1]s - I'll send your request to our collections team\n"+
		"2. Propose a new amount of at least %[2]s\n\n"+
		"Reply \"1\" or \"approval\" to request approval, or tell me a new amount.",
		utils.FormatRand(proposed), utils.FormatRand(minimum))
}

func newAmountPrompt(minimum decimal.Decimal) string {
	return fmt.Sprintf("Please tell me the new amount you'd like to pay (at least %s).", utils.FormatRand(minimum))
}

func invalidEmailPrompt(err error) string {
	return err.Error() + " Please reply with the email address where we can reach you."
}
