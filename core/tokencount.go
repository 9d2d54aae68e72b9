package core

import (
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
)

// Context window shared by the current Claude models
const ModelContextTokens = 200000

// TokenEstimator gives a rough token count for prompts before they are sent,
// so oversized prompts fail fast as model errors instead of upstream 400s.
type TokenEstimator struct {
	cache sync.Map
	ttl   time.Duration
}

type tokenCountCache struct {
	Tokens    int
	Timestamp time.Time
}

func NewTokenEstimator() *TokenEstimator {
	return &TokenEstimator{ttl: 5 * time.Minute}
}

// CountPromptTokens estimates the tokens for a system + user prompt pair
func (te *TokenEstimator) CountPromptTokens(model anthropic.Model, systemMsg, userMsg string) int {
	if systemMsg == "" && userMsg == "" {
		return 0
	}

	cacheKey := string(model) + ":sys:" + systemMsg + ":user:" + userMsg
	if cached, ok := te.cache.Load(cacheKey); ok {
		if item, ok := cached.(tokenCountCache); ok && time.Since(item.Timestamp) < te.ttl {
			return item.Tokens
		}
		te.cache.Delete(cacheKey)
	}

	tokens := EstimateTokens(systemMsg + " " + userMsg)
	te.cache.Store(cacheKey, tokenCountCache{Tokens: tokens, Timestamp: time.Now()})
	return tokens
}

// FitsContext reports whether a prompt plus the reserved completion budget fits the model window
func (te *TokenEstimator) FitsContext(model anthropic.Model, systemMsg, userMsg string, maxTokens int64) bool {
	return int64(te.CountPromptTokens(model, systemMsg, userMsg))+maxTokens <= ModelContextTokens
}

// EstimateTokens is a word/character hybrid estimate, ~1.3 tokens per English word
func EstimateTokens(content string) int {
	if content == "" {
		return 0
	}

	wordCount := len(strings.Fields(content))
	charCount := len(strings.ReplaceAll(content, " ", ""))

	estimate := float64(wordCount) * 1.3
	if wordCount < 10 {
		estimate = float64(charCount) / 3.5
	}

	// punctuation and formatting
	estimate *= 1.1

	return int(estimate)
}
