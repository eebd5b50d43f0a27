package openai

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/spigell/lead-scorer/internal/ai"
)

type fakeChat struct {
	resp    openai.ChatCompletionResponse
	err     error
	lastReq openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	return f.resp, f.err
}

func TestGenerateText(t *testing.T) {
	chat := &fakeChat{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "  Medium intent: evaluating tools.  "}}},
	}}
	client := NewWithClient(chat, Config{})

	out, err := client.GenerateText(context.Background(), "classify this lead")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Medium intent: evaluating tools." {
		t.Fatalf("unexpected output %q", out)
	}

	req := chat.lastReq
	if req.Model != openai.GPT3Dot5Turbo || req.MaxTokens != defaultMaxTokens || req.Temperature != 0 {
		t.Fatalf("unexpected request parameters: %+v", req)
	}
	if len(req.Messages) != 1 || req.Messages[0].Content != "classify this lead" || req.Messages[0].Role != openai.ChatMessageRoleUser {
		t.Fatalf("unexpected messages: %+v", req.Messages)
	}
	if client.Name() != ai.ProviderOpenAI || client.Model() != openai.GPT3Dot5Turbo {
		t.Fatalf("unexpected identity %s/%s", client.Name(), client.Model())
	}
}

func TestGenerateTextNoChoices(t *testing.T) {
	client := NewWithClient(&fakeChat{}, Config{Model: "gpt-4o-mini"})

	_, err := client.GenerateText(context.Background(), "prompt")

	var perr *ai.ProviderError
	if !errors.As(err, &perr) || perr.Kind != ai.KindMalformedResponse {
		t.Fatalf("expected malformed response error, got %v", err)
	}
}

func TestGenerateTextClassifiesErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		kind ai.Kind
	}{
		{name: "auth", err: &openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "invalid api key"}, kind: ai.KindAuth},
		{name: "rate limit", err: &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"}, kind: ai.KindRateLimit},
		{name: "server", err: &openai.APIError{HTTPStatusCode: http.StatusBadGateway}, kind: ai.KindTransport},
		{name: "request", err: &openai.RequestError{HTTPStatusCode: http.StatusForbidden, Err: errors.New("forbidden")}, kind: ai.KindAuth},
		{name: "timeout", err: context.DeadlineExceeded, kind: ai.KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := NewWithClient(&fakeChat{err: tt.err}, Config{})
			_, err := client.GenerateText(context.Background(), "prompt")

			var perr *ai.ProviderError
			if !errors.As(err, &perr) {
				t.Fatalf("expected provider error, got %v", err)
			}
			if perr.Kind != tt.kind {
				t.Fatalf("expected %s, got %s", tt.kind, perr.Kind)
			}
		})
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New("  ", Config{}); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
