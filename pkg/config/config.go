package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	ScoringURL    string `mapstructure:"SCORING_URL"`
	ScoringAPIKey string `mapstructure:"SCORING_API_KEY"`

	RequestTimeoutMs int `mapstructure:"REQUEST_TIMEOUT_MS"`
	MaxRetries       int `mapstructure:"MAX_RETRIES"`
	BackoffBaseMs    int `mapstructure:"BACKOFF_BASE_MS"`
	CacheTTLMs       int `mapstructure:"CACHE_TTL_MS"`
	DebounceMs       int `mapstructure:"DEBOUNCE_MS"`
	MaxImages        int `mapstructure:"MAX_IMAGES"`

	MutationPollMs         int `mapstructure:"MUTATION_POLL_MS"`
	PageLoadTimeoutSeconds int `mapstructure:"PAGE_LOAD_TIMEOUT_SECONDS"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	PostgresURL string `mapstructure:"POSTGRES_URL"`
}

// Load reads configuration from a .env file when present, falling back to
// environment variables and the reference defaults.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Missing .env is fine; production configures through the environment.
	_ = viper.ReadInConfig()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SCORING_URL", "")
	viper.SetDefault("SCORING_API_KEY", "")
	viper.SetDefault("REQUEST_TIMEOUT_MS", 250)
	viper.SetDefault("MAX_RETRIES", 3)
	viper.SetDefault("BACKOFF_BASE_MS", 100)
	viper.SetDefault("CACHE_TTL_MS", 300000)
	viper.SetDefault("DEBOUNCE_MS", 500)
	viper.SetDefault("MAX_IMAGES", 5)
	viper.SetDefault("MUTATION_POLL_MS", 1000)
	viper.SetDefault("PAGE_LOAD_TIMEOUT_SECONDS", 30)
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("POSTGRES_URL", "")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

func (c *Config) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseMs) * time.Millisecond
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMs) * time.Millisecond
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

func (c *Config) MutationPoll() time.Duration {
	return time.Duration(c.MutationPollMs) * time.Millisecond
}

func (c *Config) PageLoadTimeout() time.Duration {
	return time.Duration(c.PageLoadTimeoutSeconds) * time.Second
}
