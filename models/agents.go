package models

// AgentName is a downstream action the router can direct the orchestrator to.
// The empty value means "await user input".
type AgentName string

const (
	AgentNone      AgentName = ""
	AgentData      AgentName = "DataAgent"
	AgentResponse  AgentName = "ResponseAgent"
	AgentReasoning AgentName = "ReasoningAgent"
	AgentHandoff   AgentName = "HumanHandoff"
	AgentEmail     AgentName = "EmailAgent"
)

// Stage names recorded in the agent path
const (
	StageInputResolver    = "InputResolver"
	StageIntentClassifier = "IntentClassifier"
	StageEntityExtractor  = "EntityExtractor"
	StageIntentRouter     = "IntentRouter"
)

// AwaitingInput names the kind of reply expected on the next turn
type AwaitingInput string

const (
	AwaitingNothing          AwaitingInput = ""
	AwaitingIDNumber         AwaitingInput = "id_number"
	AwaitingPaymentDetails   AwaitingInput = "payment_details"
	AwaitingEmailAddress     AwaitingInput = "email_address"
	AwaitingPlanConfirmation AwaitingInput = "plan_confirmation"
	AwaitingApprovalChoice   AwaitingInput = "approval_choice"
)
