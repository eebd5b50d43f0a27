// Package intent classifies a lead's buying intent for an offer using the
// configured LLM providers, falling back to a keyword stub when they cannot
// give a usable answer.
package intent

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spigell/lead-scorer/internal/ai"
	"github.com/spigell/lead-scorer/internal/logger"
	"github.com/spigell/lead-scorer/internal/metrics"
	"github.com/spigell/lead-scorer/internal/model"
	"go.uber.org/zap"
)

const (
	defaultTimeout      = 20 * time.Second
	defaultMaxLogLength = 200
)

// Config controls how the classifier reaches the providers.
type Config struct {
	Enabled      bool
	Timeout      time.Duration
	MaxLogLength int
}

// Assessment is the AI half of a lead score.
type Assessment struct {
	Points    int
	Intent    model.Intent
	Reasoning string
}

// Classifier walks the ordered providers and returns the first usable answer.
type Classifier struct {
	cfg       Config
	providers []ai.Provider
	logger    *zap.Logger
}

// New builds a classifier. Providers are tried in the given order.
func New(cfg Config, providers []ai.Provider, log *zap.Logger) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxLogLength <= 0 {
		cfg.MaxLogLength = defaultMaxLogLength
	}

	return &Classifier{
		cfg:       cfg,
		providers: providers,
		logger:    log,
	}
}

// Providers returns the names of the providers in the order they are tried.
func (c *Classifier) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// Classify never fails: provider errors end in the fallback stub with the
// last error recorded in the reasoning.
func (c *Classifier) Classify(ctx context.Context, lead model.Lead, offer model.Offer) Assessment {
	log := logger.WithFields(c.logger, logger.ScoringFields(offer.ID, lead.ID)...)

	if !c.cfg.Enabled || len(c.providers) == 0 {
		reason := metrics.FallbackDisabled
		if c.cfg.Enabled {
			reason = metrics.FallbackNoProvider
		}
		metrics.RecordFallback(reason)
		log.Debug("using fallback stub", zap.String("reason", reason))
		return Fallback(lead, offer)
	}

	prompt := BuildPrompt(lead, offer)

	var lastErr *ai.ProviderError
	for i, provider := range c.providers {
		plog := logger.WithCommonFields(log, provider.Name(), ai.ModelOf(provider))

		text, err := c.call(ctx, provider, prompt, plog)
		if err != nil {
			lastErr = err
			next := "fallback"
			if i+1 < len(c.providers) {
				next = c.providers[i+1].Name()
			}
			plog.Warn("provider failed, moving on",
				zap.String("kind", err.Kind.String()),
				zap.String("next", next),
				zap.Error(err),
			)
			continue
		}

		text = strings.TrimSpace(text)
		points, intent, ok := MapText(text)
		if !ok {
			metrics.RecordFallback(metrics.FallbackAmbiguousOutput)
			plog.Info("model output has no intent label, using fallback stub",
				zap.String("response_preview", logger.TruncateForLog(text, c.cfg.MaxLogLength)),
			)
			stub := Fallback(lead, offer)
			stub.Reasoning = fmt.Sprintf("%s; model output: %s", stub.Reasoning, text)
			return stub
		}

		return Assessment{Points: points, Intent: intent, Reasoning: text}
	}

	metrics.RecordFallback(metrics.FallbackProvidersFailed)
	log.Warn("all providers failed, using fallback stub", zap.Int("providers", len(c.providers)))

	stub := Fallback(lead, offer)
	stub.Reasoning = fmt.Sprintf("%s; AI scoring failed: %s - %s", stub.Reasoning, lastErr.Kind, lastErr.Message())
	return stub
}

func (c *Classifier) call(ctx context.Context, provider ai.Provider, prompt string, log *zap.Logger) (string, *ai.ProviderError) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	log.Debug("provider request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, c.cfg.MaxLogLength)),
	)

	started := time.Now()
	text, err := provider.GenerateText(callCtx, prompt)
	elapsed := time.Since(started)

	if err != nil {
		perr := ai.Wrap(provider.Name(), err)
		if ai.IsTimeout(err) {
			log.Debug("provider call timed out", zap.Duration("timeout", c.cfg.Timeout))
		}
		metrics.RecordProviderCall(provider.Name(), metrics.OutcomeFailure, perr.Kind.String(), elapsed)
		return "", perr
	}

	metrics.RecordProviderCall(provider.Name(), metrics.OutcomeSuccess, "", elapsed)
	log.Debug("provider response",
		zap.Duration("elapsed", elapsed),
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", logger.TruncateForLog(text, c.cfg.MaxLogLength)),
	)

	return text, nil
}
