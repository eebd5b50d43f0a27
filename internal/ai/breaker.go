package ai

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerConfig holds circuit breaker settings for a single provider.
type BreakerConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	MaxRequests         uint32        `mapstructure:"max-requests"`
	Interval            time.Duration `mapstructure:"interval"`
	Timeout             time.Duration `mapstructure:"timeout"`
	ConsecutiveFailures uint32        `mapstructure:"consecutive-failures"`
}

// DefaultBreakerConfig trips after five consecutive failures and lets a
// trial call through after thirty seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:             true,
		MaxRequests:         1,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// Breaker stops calling a provider that keeps failing so a scoring run falls
// through to the next provider without paying for its timeout on every lead.
type Breaker struct {
	provider Provider
	cb       *gobreaker.CircuitBreaker[string]
}

// NewBreaker wraps provider with a circuit breaker.
func NewBreaker(provider Provider, cfg BreakerConfig, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = DefaultBreakerConfig().ConsecutiveFailures
	}

	settings := gobreaker.Settings{
		Name:        provider.Name(),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// Malformed responses do not count against availability.
			var perr *ProviderError
			return errors.As(err, &perr) && perr.Kind == KindMalformedResponse
		},
	}

	return &Breaker{
		provider: provider,
		cb:       gobreaker.NewCircuitBreaker[string](settings),
	}
}

func (b *Breaker) Name() string { return b.provider.Name() }

func (b *Breaker) Model() string { return ModelOf(b.provider) }

// GenerateText calls the wrapped provider unless the breaker is open.
func (b *Breaker) GenerateText(ctx context.Context, prompt string) (string, error) {
	text, err := b.cb.Execute(func() (string, error) {
		return b.provider.GenerateText(ctx, prompt)
	})
	if err == nil {
		return text, nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", NewError(b.provider.Name(), KindTransport, err)
	}

	return "", Wrap(b.provider.Name(), err)
}
