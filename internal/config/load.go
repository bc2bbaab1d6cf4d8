package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// VOCAB_SERVER_PORT or VOCAB_LLM_GEMINI_API_KEY.
const EnvPrefix = "VOCAB"

// keys without a default still need an explicit env binding so Unmarshal
// sees them.
var envOnlyKeys = []string{
	"database.url",
	"auth.jwt_secret",
	"llm.gemini_api_key",
	"llm.openai_api_key",
	"llm.openai_base_url",
	"llm.model_name",
	"llm.word_prompt_path",
	"llm.examples_prompt_path",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("auth.token_lifetime_minutes", 24*60)

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.retry_delay_seconds", 1)
	v.SetDefault("llm.requests_per_minute", 60)
	v.SetDefault("llm.burst", 5)

	v.SetDefault("session.generation_timeout_seconds", 20)
	v.SetDefault("session.auto_advance_delay_ms", 800)
	v.SetDefault("session.seed_vocabulary", true)
	v.SetDefault("session.idle_timeout_minutes", 60)
}

// Load configuration from defaults, an optional config.yaml in the working
// directory and environment variables. Environment variables take precedence
// over values from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom is Load with an explicit directory to search for config.yaml.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envOnlyKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
