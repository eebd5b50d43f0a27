package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"google.golang.org/genai"

	"github.com/spigell/lead-scorer/internal/ai"
)

type fakeModels struct {
	resp       *genai.GenerateContentResponse
	err        error
	lastModel  string
	lastPrompt string
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.lastModel = model
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.lastPrompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func TestGenerateTextJoinsParts(t *testing.T) {
	models := &fakeModels{resp: textResponse(" High intent. ", "", "Founder of a SaaS company.")}
	g := newGenerator(models, "")

	out, err := g.GenerateText(context.Background(), "classify")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out != "High intent.\nFounder of a SaaS company." {
		t.Fatalf("unexpected output: %q", out)
	}
	if models.lastModel != defaultModel {
		t.Fatalf("expected default model, got %q", models.lastModel)
	}
	if models.lastPrompt != "classify" {
		t.Fatalf("unexpected prompt: %q", models.lastPrompt)
	}
}

func TestGenerateTextEmptyIsNotAnError(t *testing.T) {
	g := newGenerator(&fakeModels{resp: &genai.GenerateContentResponse{}}, "gemini-pro")

	out, err := g.GenerateText(context.Background(), "classify")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
	if g.Model() != "gemini-pro" {
		t.Fatalf("unexpected model %q", g.Model())
	}
}

func TestGenerateTextClassifiesErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		kind ai.Kind
	}{
		{name: "auth", err: genai.APIError{Code: http.StatusUnauthorized, Status: "UNAUTHENTICATED"}, kind: ai.KindAuth},
		{name: "permission", err: genai.APIError{Code: http.StatusBadRequest, Status: "PERMISSION_DENIED"}, kind: ai.KindAuth},
		{name: "quota", err: genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}, kind: ai.KindRateLimit},
		{name: "server", err: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}, kind: ai.KindTransport},
		{name: "network", err: errors.New("connection reset"), kind: ai.KindTransport},
		{name: "deadline", err: context.DeadlineExceeded, kind: ai.KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := newGenerator(&fakeModels{err: tt.err}, "")
			_, err := g.GenerateText(context.Background(), "classify")

			var perr *ai.ProviderError
			if !errors.As(err, &perr) {
				t.Fatalf("expected provider error, got %v", err)
			}
			if perr.Kind != tt.kind {
				t.Fatalf("expected %s, got %s", tt.kind, perr.Kind)
			}
			if perr.Provider != ai.ProviderGemini {
				t.Fatalf("unexpected provider %q", perr.Provider)
			}
		})
	}
}

func TestGenerateTextNilResponse(t *testing.T) {
	g := newGenerator(&fakeModels{}, "")

	_, err := g.GenerateText(context.Background(), "classify")

	var perr *ai.ProviderError
	if !errors.As(err, &perr) || perr.Kind != ai.KindMalformedResponse {
		t.Fatalf("expected malformed response error, got %v", err)
	}
}
