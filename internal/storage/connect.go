package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// RetryConfig bounds how long a backend is waited for at startup.
type RetryConfig struct {
	MaxAttempts  uint64        `mapstructure:"max-attempts"`
	InitialDelay time.Duration `mapstructure:"initial-delay"`
	MaxDelay     time.Duration `mapstructure:"max-delay"`
}

// DefaultRetryConfig waits for roughly half a minute.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  5,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
	}
}

func (c RetryConfig) backoff() retry.Backoff {
	d := DefaultRetryConfig()
	if c.MaxAttempts == 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = d.InitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}

	return retry.WithMaxRetries(
		c.MaxAttempts,
		retry.WithCappedDuration(
			c.MaxDelay,
			retry.WithJitter(
				c.InitialDelay/10,
				retry.NewExponential(c.InitialDelay),
			),
		),
	)
}

// WaitFor calls ping until it succeeds, the attempts run out or ctx ends.
func WaitFor(ctx context.Context, name string, cfg RetryConfig, logger *zap.Logger, ping func(context.Context) error) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	attempt := 0
	err := retry.Do(ctx, cfg.backoff(), func(ctx context.Context) error {
		attempt++
		if err := ping(ctx); err != nil {
			logger.Warn("backend is not ready",
				zap.String("backend", name),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", name, err)
	}

	logger.Debug("backend is ready", zap.String("backend", name), zap.Int("attempts", attempt))
	return nil
}
