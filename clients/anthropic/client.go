package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	log "github.com/sirupsen/logrus"

	"mynahbackend/clients"
	"mynahbackend/config"
	"mynahbackend/core"
)

// AnthropicClient implements clients.StructuredGenerator over the Messages API
type AnthropicClient struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	timeout   time.Duration
	tokens    *core.TokenEstimator
}

func NewAnthropicClient(cfg config.AnthropicConfig, opts ...option.RequestOption) (*AnthropicClient, error) {
	if !cfg.IsConfigured() {
		return nil, &core.ConfigError{Component: "Anthropic", Missing: []string{"ANTHROPIC_API_KEY"}}
	}

	requestOptions := append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return &AnthropicClient{
		client:    anthropic.NewClient(requestOptions...),
		model:     anthropic.Model(cfg.Model),
		maxTokens: maxTokens,
		timeout:   cfg.Timeout,
		tokens:    core.NewTokenEstimator(),
	}, nil
}

func (c *AnthropicClient) Name() string {
	return "anthropic"
}

// GenerateStructured asks the model for a single JSON object matching schema
func (c *AnthropicClient) GenerateStructured(
	ctx context.Context,
	schema clients.Schema,
	prompt clients.Prompt,
) (json.RawMessage, error) {
	systemPrompt, err := buildSystemPrompt(schema, prompt.System)
	if err != nil {
		return nil, core.NewModelError(schema.Name, err)
	}

	if !c.tokens.FitsContext(c.model, systemPrompt, prompt.User, c.maxTokens) {
		return nil, core.NewModelError(schema.Name, errors.New("prompt exceeds the model context window"))
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	log.Debugf("📋 Starting to generate %s with %s", schema.Name, c.model)
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User)),
		},
	})
	if err != nil {
		return nil, core.NewModelError(schema.Name, fmt.Errorf("failed to call messages api: %w", err))
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	raw, err := extractJSONObject(text.String())
	if err != nil {
		return nil, core.NewModelError(schema.Name, err)
	}

	log.Debugf("📋 Completed successfully - generated %s", schema.Name)
	return raw, nil
}

func buildSystemPrompt(schema clients.Schema, system string) (string, error) {
	definition, err := json.MarshalIndent(schema.Definition, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema %s: %w", schema.Name, err)
	}

	var sb strings.Builder
	sb.WriteString(system)
	sb.WriteString("\n\nRespond with a single JSON object and nothing else.")
	if schema.Description != "" {
		sb.WriteString(" The object is ")
		sb.WriteString(schema.Description)
		sb.WriteString(".")
	}
	sb.WriteString(" It must validate against this JSON schema:\n")
	sb.Write(definition)
	return sb.String(), nil
}

// extractJSONObject strips code fences and surrounding prose from a model reply
func extractJSONObject(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end < start {
		return nil, errors.New("model reply contained no JSON object")
	}

	candidate := []byte(trimmed[start : end+1])
	if !json.Valid(candidate) {
		return nil, errors.New("model reply was not valid JSON")
	}
	return json.RawMessage(candidate), nil
}
