package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/lead-scorer/internal/ai"
	"github.com/spigell/lead-scorer/internal/rules"
	"github.com/spigell/lead-scorer/internal/storage"
)

const (
	app = "lead-scorer"
)

type Config struct {
	AI      *AIConfig      `mapstructure:"ai"`
	Scoring *ScoringConfig `mapstructure:"scoring"`
	Storage *StorageConfig `mapstructure:"storage"`
	Metrics *MetricsConfig `mapstructure:"metrics"`
}

type AIConfig struct {
	Enabled           bool             `mapstructure:"enabled"`
	PreferredProvider string           `mapstructure:"preferred-provider"`
	CallTimeoutMS     int              `mapstructure:"call-timeout-ms"`
	MaxLogLength      int              `mapstructure:"max-log-length"`
	Breaker           ai.BreakerConfig `mapstructure:"breaker"`
	Gemini            *GeminiConfig    `mapstructure:"gemini"`
	OpenAI            *OpenAIConfig    `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key" json:"-"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey     string `mapstructure:"api-key" json:"-"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base-url"`
	MaxTokens  int    `mapstructure:"max-tokens"`
}

type ScoringConfig struct {
	Workers int          `mapstructure:"workers"`
	Rules   rules.Config `mapstructure:"rules"`
}

type StorageConfig struct {
	Driver   string              `mapstructure:"driver"`
	Postgres *PostgresConfig     `mapstructure:"postgres"`
	Mongo    *MongoConfig        `mapstructure:"mongo"`
	Redis    *RedisConfig        `mapstructure:"redis"`
	Retry    storage.RetryConfig `mapstructure:"retry"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn" json:"-"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri" json:"-"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password" json:"-"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway-url"`
	Job            string `mapstructure:"job"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "lead-scorer scores uploaded sales leads against an offer with rules and an LLM",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

const (
	envGeminiAPIKey = "GEMINI_API_KEY"
	envOpenAIAPIKey = "OPENAI_API_KEY"
)

// envBindings maps config keys to the environment variables read for them,
// in lookup order.
var envBindings = map[string][]string{
	"ai.enabled":              {"AI_ENABLED", "USE_AI"},
	"ai.preferred-provider":   {"PREFERRED_PROVIDER", "PREFERRED_AI"},
	"ai.call-timeout-ms":      {"PROVIDER_CALL_TIMEOUT_MS"},
	"ai.gemini.api-key":       {envGeminiAPIKey},
	"ai.gemini.api-key-file":  {"GEMINI_API_KEY_FILE"},
	"ai.openai.api-key":       {envOpenAIAPIKey},
	"ai.openai.api-key-file":  {"OPENAI_API_KEY_FILE"},
	"storage.driver":          {"STORAGE_DRIVER"},
	"storage.postgres.dsn":    {"DATABASE_URL"},
	"storage.mongo.uri":       {"MONGODB_URI"},
	"storage.redis.addr":      {"REDIS_ADDR"},
	"metrics.pushgateway-url": {"PUSHGATEWAY_URL"},
}

func init() {
	setDefaults(viper.GetViper())

	if err := bindEnv(viper.GetViper()); err != nil {
		log.Fatal(err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is lead-scorer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func bindEnv(v *viper.Viper) error {
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("binding %v environment variables: %w", envs, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.preferred-provider", ai.PreferAuto)
	v.SetDefault("ai.call-timeout-ms", 20000)
	v.SetDefault("ai.max-log-length", 200)

	breaker := ai.DefaultBreakerConfig()
	v.SetDefault("ai.breaker.enabled", breaker.Enabled)
	v.SetDefault("ai.breaker.max-requests", breaker.MaxRequests)
	v.SetDefault("ai.breaker.interval", breaker.Interval)
	v.SetDefault("ai.breaker.timeout", breaker.Timeout)
	v.SetDefault("ai.breaker.consecutive-failures", breaker.ConsecutiveFailures)

	keywords := rules.DefaultConfig()
	v.SetDefault("scoring.workers", 4)
	v.SetDefault("scoring.rules.decision-makers", keywords.DecisionMakers)
	v.SetDefault("scoring.rules.influencers", keywords.Influencers)

	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("storage.mongo.database", "lead_scorer")
	v.SetDefault("storage.redis.ttl", "10m")

	retry := storage.DefaultRetryConfig()
	v.SetDefault("storage.retry.max-attempts", retry.MaxAttempts)
	v.SetDefault("storage.retry.initial-delay", retry.InitialDelay)
	v.SetDefault("storage.retry.max-delay", retry.MaxDelay)

	v.SetDefault("metrics.job", "lead_scorer")
}

func initConfig() {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Only an explicitly requested config file is mandatory.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	err := v.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.AI.OpenAI == nil {
		config.AI.OpenAI = &OpenAIConfig{}
	}
	if config.Scoring == nil {
		config.Scoring = &ScoringConfig{}
	}
	if config.Storage == nil {
		config.Storage = &StorageConfig{}
	}
	if config.Metrics == nil {
		config.Metrics = &MetricsConfig{}
	}

	return config, nil
}
