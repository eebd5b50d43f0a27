package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/spigell/lead-scorer/internal/ai"
)

const (
	defaultModel = "gemini-1.5-flash"
)

type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator wraps the Google GenAI client to provide simple prompt-based interactions.
type Generator struct {
	models    contentModels
	modelName string
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, model), nil
}

func newGenerator(models contentModels, model string) *Generator {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	return &Generator{models: models, modelName: model}
}

func (g *Generator) Name() string { return ai.ProviderGemini }

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}

// GenerateText sends the prompt to Gemini and returns the joined text parts of
// the response. An empty answer is not an error.
func (g *Generator) GenerateText(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", ai.NewError(ai.ProviderGemini, ai.KindTransport, errors.New("gemini generator is not initialized"))
	}

	config := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0)}

	resp, err := g.models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", classify(err)
	}
	if resp == nil {
		return "", ai.NewError(ai.ProviderGemini, ai.KindMalformedResponse, errors.New("gemini api returned no response"))
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

func classify(err error) *ai.ProviderError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		kind := ai.KindFromStatus(apiErr.Code)
		if apiErr.Status == "RESOURCE_EXHAUSTED" {
			kind = ai.KindRateLimit
		}
		if apiErr.Status == "UNAUTHENTICATED" || apiErr.Status == "PERMISSION_DENIED" {
			kind = ai.KindAuth
		}
		return ai.NewError(ai.ProviderGemini, kind, fmt.Errorf("generate content: %w", err))
	}

	return ai.NewError(ai.ProviderGemini, ai.KindTransport, fmt.Errorf("generate content: %w", err))
}
