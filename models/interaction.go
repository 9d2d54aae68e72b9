package models

// Interaction is one debtor message submitted to the pipeline
type Interaction struct {
	SessionID string
	DebtorID  string
	Message   string
	Channel   string
	Locale    string
	Metadata  map[string]any
}

// InteractionResult is what the pipeline reports back for a turn
type InteractionResult struct {
	SessionID     string
	DebtorID      string
	Response      string
	Status        string
	AgentPath     []string
	Intent        Intent
	NextAgent     AgentName
	AwaitingInput AwaitingInput
}
