package clients

import (
	"context"
	"encoding/json"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/mock"

	"mynahbackend/models"
)

type MockStructuredGenerator struct {
	mock.Mock
}

func (m *MockStructuredGenerator) GenerateStructured(
	ctx context.Context,
	schema Schema,
	prompt Prompt,
) (json.RawMessage, error) {
	args := m.Called(ctx, schema, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockStructuredGenerator) Name() string {
	return "mock"
}

type MockCaseManagementClient struct {
	mock.Mock
}

func (m *MockCaseManagementClient) GetLinkedMatterDetails(ctx context.Context, idNumber string) models.MatterLookupResult {
	args := m.Called(ctx, idNumber)
	return args.Get(0).(models.MatterLookupResult)
}

func (m *MockCaseManagementClient) SendEmail(ctx context.Context, request EmailRequest) models.EmailResult {
	args := m.Called(ctx, request)
	return args.Get(0).(models.EmailResult)
}

type MockWebhookPoster struct {
	mock.Mock
}

func (m *MockWebhookPoster) PostWebhook(ctx context.Context, webhookURL string, message *slack.WebhookMessage) error {
	args := m.Called(ctx, webhookURL, message)
	return args.Error(0)
}
