package slack

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"
)

// WebhookClient implements clients.WebhookPoster using slack-go incoming webhooks
type WebhookClient struct {
	httpClient *http.Client
}

func NewWebhookClient() *WebhookClient {
	return &WebhookClient{httpClient: &http.Client{Timeout: 10 * time.Second}}
}

func (c *WebhookClient) PostWebhook(ctx context.Context, webhookURL string, message *slack.WebhookMessage) error {
	if webhookURL == "" {
		return fmt.Errorf("webhook url is empty")
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, webhookURL, c.httpClient, message); err != nil {
		return fmt.Errorf("failed to post slack webhook: %w", err)
	}
	return nil
}

// Fields builds a section of mrkdwn key/value fields
func Fields(pairs ...[2]string) *slack.SectionBlock {
	fields := make([]*slack.TextBlockObject, 0, len(pairs))
	for _, pair := range pairs {
		fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*%s:* %s", pair[0], pair[1]), false, false))
	}
	return slack.NewSectionBlock(nil, fields, nil)
}

// Text builds a mrkdwn text section
func Text(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil)
}
