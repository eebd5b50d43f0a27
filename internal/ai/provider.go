// Package ai defines the text generation capability shared by every LLM backend.
package ai

import (
	"context"
	"fmt"
	"strings"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	// PreferAuto lets the classifier pick the default provider order.
	PreferAuto = "auto"
)

// Provider generates text for a prompt. Implementations must be safe for
// concurrent use and must report failures as *ProviderError.
type Provider interface {
	Name() string
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Modeler is implemented by providers that can report the model they call.
type Modeler interface {
	Model() string
}

// ModelOf returns the provider's model name when it exposes one.
func ModelOf(p Provider) string {
	if m, ok := p.(Modeler); ok {
		return m.Model()
	}
	return ""
}

// Order arranges the available providers by preference. Unknown preferences
// are rejected; providers missing from available are skipped.
func Order(preferred string, available map[string]Provider) ([]Provider, error) {
	var names []string
	switch strings.ToLower(strings.TrimSpace(preferred)) {
	case "", PreferAuto, ProviderGemini:
		names = []string{ProviderGemini, ProviderOpenAI}
	case ProviderOpenAI:
		names = []string{ProviderOpenAI, ProviderGemini}
	default:
		return nil, fmt.Errorf("unsupported preferred provider %q (want auto, gemini or openai)", preferred)
	}

	ordered := make([]Provider, 0, len(names))
	for _, name := range names {
		if p, ok := available[name]; ok && p != nil {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}
