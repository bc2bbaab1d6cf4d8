package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Session  SessionConfig  `mapstructure:"session" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains the optional snapshot database. Sessions live only
// in memory when URL is empty.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// AuthConfig contains session token settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// TokenLifetime returns the token lifetime as a duration.
func (a AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(a.TokenLifetimeMinutes) * time.Minute
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	// Provider selects the adapter: gemini, openai or none.
	Provider      string `mapstructure:"provider" validate:"required,oneof=gemini openai none"`
	GeminiAPIKey  string `mapstructure:"gemini_api_key"`
	OpenAIAPIKey  string `mapstructure:"openai_api_key"`
	OpenAIBaseURL string `mapstructure:"openai_base_url" validate:"omitempty,url"`
	// ModelName overrides the provider's default model.
	ModelName         string  `mapstructure:"model_name"`
	Temperature       float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"gte=0"`
	// RequestsPerMinute caps calls across all sessions; 0 disables the cap.
	RequestsPerMinute  float64 `mapstructure:"requests_per_minute" validate:"gte=0"`
	Burst              int     `mapstructure:"burst" validate:"gte=0"`
	WordPromptPath     string  `mapstructure:"word_prompt_path"`
	ExamplesPromptPath string  `mapstructure:"examples_prompt_path"`
}

// APIKey returns the key of the selected provider.
func (l LLMConfig) APIKey() string {
	switch l.Provider {
	case "gemini":
		return l.GeminiAPIKey
	case "openai":
		return l.OpenAIAPIKey
	}
	return ""
}

// SessionConfig contains trainer session settings.
type SessionConfig struct {
	GenerationTimeoutSeconds int  `mapstructure:"generation_timeout_seconds" validate:"required,gt=0"`
	AutoAdvanceDelayMillis   int  `mapstructure:"auto_advance_delay_ms" validate:"gte=0"`
	SeedVocabulary           bool `mapstructure:"seed_vocabulary"`
	// IdleTimeoutMinutes evicts sessions from memory after inactivity.
	// Persisted snapshots are purged once they are older than the token lifetime.
	IdleTimeoutMinutes int `mapstructure:"idle_timeout_minutes" validate:"required,gt=0"`
}

// GenerationTimeout returns the per-call generation timeout.
func (s SessionConfig) GenerationTimeout() time.Duration {
	return time.Duration(s.GenerationTimeoutSeconds) * time.Second
}

// IdleTimeout returns how long an unused session stays in memory.
func (s SessionConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutMinutes) * time.Minute
}

// AutoAdvanceDelay returns how long a correct answer stays on screen.
func (s SessionConfig) AutoAdvanceDelay() time.Duration {
	return time.Duration(s.AutoAdvanceDelayMillis) * time.Millisecond
}
