package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/lead-scorer/internal/ai"
	"github.com/spigell/lead-scorer/internal/storage"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()

	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		t.Fatalf("binding env: %v", err)
	}
	return v
}

func TestDecodeConfigDefaults(t *testing.T) {
	config, err := decodeConfig(newTestViper(t))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !config.AI.Enabled {
		t.Fatalf("ai must be enabled by default")
	}
	if config.AI.PreferredProvider != ai.PreferAuto {
		t.Fatalf("expected auto provider preference, got %q", config.AI.PreferredProvider)
	}
	if config.AI.CallTimeoutMS != 20000 {
		t.Fatalf("unexpected timeout %d", config.AI.CallTimeoutMS)
	}
	if config.AI.Breaker.ConsecutiveFailures != ai.DefaultBreakerConfig().ConsecutiveFailures || !config.AI.Breaker.Enabled {
		t.Fatalf("unexpected breaker config %+v", config.AI.Breaker)
	}
	if config.AI.Gemini == nil || config.AI.OpenAI == nil {
		t.Fatalf("provider sections must never be nil")
	}
	if config.Storage.Driver != driverPostgres {
		t.Fatalf("expected postgres driver by default, got %q", config.Storage.Driver)
	}
	if config.Storage.Retry.MaxAttempts != storage.DefaultRetryConfig().MaxAttempts {
		t.Fatalf("unexpected retry config %+v", config.Storage.Retry)
	}
	if len(config.Scoring.Rules.DecisionMakers) == 0 || config.Scoring.Workers != 4 {
		t.Fatalf("unexpected scoring config %+v", config.Scoring)
	}
}

func TestDecodeConfigEnvironment(t *testing.T) {
	t.Setenv("USE_AI", "false")
	t.Setenv("PREFERRED_AI", "openai")
	t.Setenv("PROVIDER_CALL_TIMEOUT_MS", "1500")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENAI_API_KEY", "o-key")
	t.Setenv("STORAGE_DRIVER", "memory")

	config, err := decodeConfig(newTestViper(t))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if config.AI.Enabled {
		t.Fatalf("USE_AI=false must disable ai")
	}
	if config.AI.PreferredProvider != ai.ProviderOpenAI {
		t.Fatalf("expected openai preference, got %q", config.AI.PreferredProvider)
	}
	if config.AI.CallTimeoutMS != 1500 {
		t.Fatalf("expected timeout from env, got %d", config.AI.CallTimeoutMS)
	}
	if config.AI.Gemini.APIKey != "g-key" || config.AI.OpenAI.APIKey != "o-key" {
		t.Fatalf("expected api keys from env")
	}
	if config.Storage.Driver != driverMemory {
		t.Fatalf("expected memory driver, got %q", config.Storage.Driver)
	}
}

func TestPrimaryEnvNameWins(t *testing.T) {
	t.Setenv("AI_ENABLED", "true")
	t.Setenv("USE_AI", "false")
	t.Setenv("PREFERRED_PROVIDER", "gemini")
	t.Setenv("PREFERRED_AI", "openai")

	config, err := decodeConfig(newTestViper(t))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !config.AI.Enabled || config.AI.PreferredProvider != ai.ProviderGemini {
		t.Fatalf("expected AI_ENABLED and PREFERRED_PROVIDER to win, got %+v", config.AI)
	}
}

func TestDecodeConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lead-scorer.yaml")
	content := []byte(`
ai:
  preferred-provider: openai
  breaker:
    timeout: 5s
scoring:
  workers: 8
  rules:
    decision-makers: [owner]
storage:
  driver: mongo
  redis:
    addr: localhost:6379
    ttl: 1m
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	v := newTestViper(t)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("read: %v", err)
	}

	config, err := decodeConfig(v)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if config.AI.Breaker.Timeout != 5*time.Second {
		t.Fatalf("expected breaker timeout from file, got %s", config.AI.Breaker.Timeout)
	}
	if config.AI.Breaker.ConsecutiveFailures != ai.DefaultBreakerConfig().ConsecutiveFailures {
		t.Fatalf("breaker defaults must survive a partial section, got %+v", config.AI.Breaker)
	}
	if config.Scoring.Workers != 8 || len(config.Scoring.Rules.DecisionMakers) != 1 || config.Scoring.Rules.DecisionMakers[0] != "owner" {
		t.Fatalf("unexpected scoring config %+v", config.Scoring)
	}
	if len(config.Scoring.Rules.Influencers) == 0 {
		t.Fatalf("influencer defaults must survive")
	}
	if config.Storage.Driver != driverMongo || config.Storage.Redis.Addr != "localhost:6379" || config.Storage.Redis.TTL != time.Minute {
		t.Fatalf("unexpected storage config %+v", config.Storage)
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	store, err := openStore(ctx, &StorageConfig{Driver: "memory"}, zap.NewNop())
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	if _, ok := store.(*storage.Memory); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}

	if _, err := openStore(ctx, &StorageConfig{Driver: "postgres"}, zap.NewNop()); err == nil {
		t.Fatalf("expected missing dsn to be rejected")
	}
	if _, err := openStore(ctx, &StorageConfig{Driver: "mongo"}, zap.NewNop()); err == nil {
		t.Fatalf("expected missing uri to be rejected")
	}
	if _, err := openStore(ctx, &StorageConfig{Driver: "sqlite"}, zap.NewNop()); err == nil {
		t.Fatalf("expected unknown driver to be rejected")
	}
}

func TestNewProvidersOrder(t *testing.T) {
	t.Setenv(envGeminiAPIKey, "")
	t.Setenv(envOpenAIAPIKey, "")

	cfg := &AIConfig{
		Enabled:           true,
		PreferredProvider: ai.ProviderOpenAI,
		Breaker:           ai.DefaultBreakerConfig(),
		Gemini:            &GeminiConfig{APIKey: "g-key"},
		OpenAI:            &OpenAIConfig{APIKey: "o-key"},
	}

	providers, err := newProviders(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("providers: %v", err)
	}
	if len(providers) != 2 || providers[0].Name() != ai.ProviderOpenAI || providers[1].Name() != ai.ProviderGemini {
		t.Fatalf("unexpected providers %v", providers)
	}
	if _, ok := providers[0].(*ai.Breaker); !ok {
		t.Fatalf("expected providers to be wrapped in a breaker, got %T", providers[0])
	}

	cfg.OpenAI.APIKey = ""
	providers, err = newProviders(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("providers: %v", err)
	}
	if len(providers) != 1 || providers[0].Name() != ai.ProviderGemini {
		t.Fatalf("expected unconfigured provider to be skipped, got %v", providers)
	}
}

func TestNewProvidersReadsKeysFromEnvironment(t *testing.T) {
	t.Setenv(envGeminiAPIKey, "")
	t.Setenv(envOpenAIAPIKey, "o-env-key")

	cfg := &AIConfig{
		Enabled:           true,
		PreferredProvider: ai.PreferAuto,
		Gemini:            &GeminiConfig{},
		OpenAI:            &OpenAIConfig{},
	}

	providers, err := newProviders(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("providers: %v", err)
	}
	if len(providers) != 1 || providers[0].Name() != ai.ProviderOpenAI {
		t.Fatalf("expected only the openai provider from the environment, got %v", providers)
	}
}

func TestNewClassifierDisabledSkipsProviders(t *testing.T) {
	cfg := &AIConfig{
		Enabled: false,
		Gemini:  &GeminiConfig{APIKeyFile: "/does/not/exist"},
		OpenAI:  &OpenAIConfig{},
	}

	classifier, err := newClassifier(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("disabled ai must not resolve keys: %v", err)
	}
	if len(classifier.Providers()) != 0 {
		t.Fatalf("expected no providers, got %v", classifier.Providers())
	}
}
