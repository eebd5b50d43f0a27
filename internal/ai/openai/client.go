// Package openai adapts the OpenAI chat completion API to ai.Provider.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/spigell/lead-scorer/internal/ai"
)

const (
	defaultModel     = openai.GPT3Dot5Turbo
	defaultMaxTokens = 150
)

// ChatClient is the part of the go-openai client used here.
type ChatClient interface {
	CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config holds OpenAI request settings.
type Config struct {
	Model     string
	BaseURL   string
	MaxTokens int
}

// Client sends single-turn prompts to the chat completion endpoint.
type Client struct {
	chat      ChatClient
	model     string
	maxTokens int
}

// New creates a Client backed by the official API (or a compatible BaseURL).
func New(apiKey string, cfg Config) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		clientCfg.BaseURL = baseURL
	}

	return NewWithClient(openai.NewClientWithConfig(clientCfg), cfg), nil
}

// NewWithClient creates a Client around an existing chat client.
func NewWithClient(chat ChatClient, cfg Config) *Client {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Client{chat: chat, model: model, maxTokens: maxTokens}
}

func (c *Client) Name() string { return ai.ProviderOpenAI }

func (c *Client) Model() string { return c.model }

// GenerateText returns the content of the first choice.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", ai.NewError(ai.ProviderOpenAI, ai.KindMalformedResponse, errors.New("openai returned no choices"))
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func classify(err error) *ai.ProviderError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return ai.NewError(ai.ProviderOpenAI, ai.KindFromStatus(apiErr.HTTPStatusCode), fmt.Errorf("chat completion: %w", err))
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return ai.NewError(ai.ProviderOpenAI, ai.KindFromStatus(reqErr.HTTPStatusCode), fmt.Errorf("chat completion: %w", err))
	}

	return ai.NewError(ai.ProviderOpenAI, ai.KindTransport, fmt.Errorf("chat completion: %w", err))
}
