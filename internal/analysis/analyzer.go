// Package analysis sends compiled documents to a language model and caches
// the prose it returns.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

// Analyzer turns a JSON-serialisable payload into an analysis text.
type Analyzer interface {
	Analyze(ctx context.Context, payload any, systemPrompt string) (string, error)
}

// OpenAIConfig configures OpenAIAnalyzer.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// OpenAIAnalyzer calls the chat completions endpoint.
type OpenAIAnalyzer struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
}

// NewOpenAIAnalyzer creates an analyzer. An empty model selects gpt-4o.
func NewOpenAIAnalyzer(cfg OpenAIConfig) (*OpenAIAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	a := &OpenAIAnalyzer{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
	}
	if a.model == "" {
		a.model = openai.GPT4o
	}
	if a.maxTokens == 0 {
		a.maxTokens = 4000
	}
	if a.timeout == 0 {
		a.timeout = 2 * time.Minute
	}
	return a, nil
}

// Analyze implements Analyzer.
func (a *OpenAIAnalyzer) Analyze(ctx context.Context, payload any, systemPrompt string) (string, error) {
	msg, err := UserMessage(payload)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: msg},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	log.Debug().
		Str("model", a.model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Dur("took", time.Since(start)).
		Msg("analysis received")
	return resp.Choices[0].Message.Content, nil
}

// UserMessage renders the payload as the user turn of the conversation.
// Aggregate market payloads get their own framing.
func UserMessage(payload any) (string, error) {
	if m, ok := payload.(MarketPayload); ok {
		return marketMessage(m)
	}
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return fmt.Sprintf(instrumentMessage, body), nil
}

// MarketPayload is the input of the aggregate market analysis.
type MarketPayload struct {
	MacroAssets      map[string]any             `json:"macro_assets"`
	TradeAssets      map[string]any             `json:"trade_assets"`
	FailedAnalyses   []string                   `json:"failed_analyses"`
	AlphaVantageData map[string]json.RawMessage `json:"alpha_vantage_data"`
}

func marketMessage(m MarketPayload) (string, error) {
	parts := make([]any, 0, 4)
	for _, v := range []any{m.MacroAssets, m.TradeAssets, m.FailedAnalyses, m.AlphaVantageData} {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode market payload: %w", err)
		}
		parts = append(parts, b)
	}
	return fmt.Sprintf(marketMessageTmpl, parts...), nil
}
