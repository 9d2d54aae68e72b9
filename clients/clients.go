package clients

import (
	"context"
	"encoding/json"

	"github.com/slack-go/slack"

	"mynahbackend/models"
)

// Schema names shared by the pipeline stages and the offline generator
const (
	SchemaIntentClassification = "intent_classification"
	SchemaEntityExtraction     = "entity_extraction"
	SchemaDebtorResponse       = "debtor_response"
)

// Schema names the structured output a prompt asks for. Definition is a JSON schema
// document handed to the model verbatim.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

type Prompt struct {
	System string
	User   string
	// Input is the raw debtor message the prompt is built around
	Input string
}

// StructuredGenerator turns a prompt into a JSON document matching schema.
// Failures are *core.ModelError.
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, schema Schema, prompt Prompt) (json.RawMessage, error)
	Name() string
}

// CaseManagementClient talks to the external case-management system. Failures are
// reported in the result, never returned.
type CaseManagementClient interface {
	GetLinkedMatterDetails(ctx context.Context, idNumber string) models.MatterLookupResult
	SendEmail(ctx context.Context, request EmailRequest) models.EmailResult
}

type EmailRequest struct {
	To       string
	Subject  string
	Body     string
	MatterID string
}

// WebhookPoster delivers a message to a Slack incoming webhook
type WebhookPoster interface {
	PostWebhook(ctx context.Context, webhookURL string, message *slack.WebhookMessage) error
}
