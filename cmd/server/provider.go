package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/vocab-api/internal/config"
	"github.com/phrazzld/vocab-api/internal/generation"
	"github.com/phrazzld/vocab-api/internal/platform/gemini"
	"github.com/phrazzld/vocab-api/internal/platform/openai"
)

// newProvider builds the configured LLM adapter behind the shared rate
// limiter. Without a provider or credentials the trainer still runs in
// browse and manual-entry mode.
func newProvider(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (generation.Provider, error) {
	prompts, err := generation.LoadPrompts(cfg.WordPromptPath, cfg.ExamplesPromptPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}

	retryDelay := time.Duration(cfg.RetryDelaySeconds) * time.Second
	log := logger.With(slog.String("component", "llm_generator"))

	var provider generation.Provider
	switch {
	case cfg.Provider == "none":
		log.Info("word generation disabled by configuration")
		return generation.Unavailable{Reason: "llm provider is none"}, nil

	case cfg.Provider == "gemini" && cfg.GeminiAPIKey != "":
		provider, err = gemini.NewGenerator(ctx, log, gemini.Config{
			APIKey:      cfg.GeminiAPIKey,
			ModelName:   cfg.ModelName,
			Temperature: cfg.Temperature,
			MaxRetries:  cfg.MaxRetries,
			RetryDelay:  retryDelay,
		}, prompts)

	case cfg.Provider == "openai" && (cfg.OpenAIAPIKey != "" || cfg.OpenAIBaseURL != ""):
		provider, err = openai.NewGenerator(log, openai.Config{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			ModelName:   cfg.ModelName,
			Temperature: cfg.Temperature,
			MaxRetries:  cfg.MaxRetries,
			RetryDelay:  retryDelay,
		}, prompts)

	default:
		log.Warn("no API key configured, word generation unavailable",
			slog.String("provider", cfg.Provider))
		return generation.Unavailable{Reason: "no API key configured for " + cfg.Provider}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s generator: %w", cfg.Provider, err)
	}

	log.Info("LLM generator initialized",
		slog.String("provider", cfg.Provider),
		slog.Float64("requests_per_minute", cfg.RequestsPerMinute))
	return generation.NewRateLimited(provider, cfg.RequestsPerMinute, cfg.Burst), nil
}
