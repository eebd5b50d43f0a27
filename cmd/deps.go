package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/lead-scorer/internal/ai"
	"github.com/spigell/lead-scorer/internal/ai/gemini"
	"github.com/spigell/lead-scorer/internal/ai/openai"
	"github.com/spigell/lead-scorer/internal/intent"
	"github.com/spigell/lead-scorer/internal/logger"
	"github.com/spigell/lead-scorer/internal/rules"
	"github.com/spigell/lead-scorer/internal/scoring"
	"github.com/spigell/lead-scorer/internal/secrets"
	"github.com/spigell/lead-scorer/internal/storage"
	"github.com/spigell/lead-scorer/internal/storage/mongo"
	"github.com/spigell/lead-scorer/internal/storage/postgres"
)

const (
	driverPostgres = "postgres"
	driverMongo    = "mongo"
	driverMemory   = "memory"
)

// bootstrap builds the logger and config every command starts from.
func bootstrap() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return logger, config
}

func openStore(ctx context.Context, cfg *StorageConfig, logger *zap.Logger) (storage.Store, error) {
	var store storage.Store

	switch driver := strings.ToLower(strings.TrimSpace(cfg.Driver)); driver {
	case driverMemory:
		logger.Warn("using in-memory storage, data is lost when the command exits")
		store = storage.NewMemory()
	case "", driverPostgres:
		if cfg.Postgres == nil || strings.TrimSpace(cfg.Postgres.DSN) == "" {
			return nil, fmt.Errorf("storage.postgres.dsn is required for the postgres driver (or set DATABASE_URL)")
		}
		pg, err := postgres.Open(cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		if err := storage.WaitFor(ctx, driverPostgres, cfg.Retry, logger, pg.Ping); err != nil {
			pg.Close(ctx)
			return nil, err
		}
		store = pg
	case driverMongo:
		if cfg.Mongo == nil || strings.TrimSpace(cfg.Mongo.URI) == "" {
			return nil, fmt.Errorf("storage.mongo.uri is required for the mongo driver (or set MONGODB_URI)")
		}
		m, err := mongo.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		if err := storage.WaitFor(ctx, driverMongo, cfg.Retry, logger, m.Ping); err != nil {
			m.Close(ctx)
			return nil, err
		}
		if err := m.EnsureIndexes(ctx); err != nil {
			m.Close(ctx)
			return nil, err
		}
		store = m
	default:
		return nil, fmt.Errorf("unsupported storage driver %q (want postgres, mongo or memory)", cfg.Driver)
	}

	if cfg.Redis == nil || strings.TrimSpace(cfg.Redis.Addr) == "" {
		return store, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	if err := storage.WaitFor(ctx, "redis", cfg.Retry, logger, ping); err != nil {
		client.Close()
		store.Close(ctx)
		return nil, err
	}

	logger.Debug("results cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))
	return storage.NewCached(store, client, cfg.Redis.TTL, logger), nil
}

// newProviders builds every provider that has a key, in preference order.
// Keys missing from cfg fall back to their environment variables.
func newProviders(ctx context.Context, cfg *AIConfig, logger *zap.Logger) ([]ai.Provider, error) {
	available := make(map[string]ai.Provider, 2)

	geminiKey, ok, err := secrets.Optional(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   envGeminiAPIKey,
	})
	if err != nil {
		return nil, err
	}
	if ok {
		generator, err := gemini.NewGenerator(ctx, geminiKey, cfg.Gemini.Model)
		if err != nil {
			return nil, err
		}
		available[ai.ProviderGemini] = withBreaker(generator, cfg.Breaker, logger)
	}

	openaiKey, ok, err := secrets.Optional(secrets.Source{
		Name:  "openai api key",
		Value: cfg.OpenAI.APIKey,
		File:  cfg.OpenAI.APIKeyFile,
		Env:   envOpenAIAPIKey,
	})
	if err != nil {
		return nil, err
	}
	if ok {
		client, err := openai.New(openaiKey, openai.Config{
			Model:     cfg.OpenAI.Model,
			BaseURL:   cfg.OpenAI.BaseURL,
			MaxTokens: cfg.OpenAI.MaxTokens,
		})
		if err != nil {
			return nil, err
		}
		available[ai.ProviderOpenAI] = withBreaker(client, cfg.Breaker, logger)
	}

	return ai.Order(cfg.PreferredProvider, available)
}

func withBreaker(p ai.Provider, cfg ai.BreakerConfig, logger *zap.Logger) ai.Provider {
	if !cfg.Enabled {
		return p
	}
	return ai.NewBreaker(p, cfg, logger)
}

func newClassifier(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (*intent.Classifier, error) {
	var providers []ai.Provider
	if cfg.Enabled {
		var err error
		providers, err = newProviders(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("building ai providers: %w", err)
		}
	}

	classifier := intent.New(intent.Config{
		Enabled:      cfg.Enabled,
		Timeout:      time.Duration(cfg.CallTimeoutMS) * time.Millisecond,
		MaxLogLength: cfg.MaxLogLength,
	}, providers, logger)

	logger.Info("intent classifier ready",
		zap.Bool("ai_enabled", cfg.Enabled),
		zap.Strings("providers", classifier.Providers()),
	)
	return classifier, nil
}

func newService(ctx context.Context, config *Config, store storage.Store, logger *zap.Logger) (*scoring.Service, error) {
	classifier, err := newClassifier(ctx, config.AI, logger)
	if err != nil {
		return nil, err
	}

	scorer := rules.New(config.Scoring.Rules)
	return scoring.New(store, scorer, classifier, scoring.Config{Workers: config.Scoring.Workers}, logger), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
