// Package openai implements generation.Provider on any OpenAI-compatible
// chat completion endpoint (OpenAI itself, Ollama, vLLM, LM Studio).
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/generation"
	goopenai "github.com/sashabaranov/go-openai"
)

// DefaultModel is used when Config.ModelName is empty.
const DefaultModel = "gpt-4o-mini"

const systemPrompt = "You are a German language teacher preparing vocabulary flashcards."

// Config holds the adapter settings.
type Config struct {
	APIKey string
	// BaseURL points at a compatible server; empty means api.openai.com.
	BaseURL     string
	ModelName   string
	Temperature float32
	MaxRetries  int
	RetryDelay  time.Duration
}

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Generator implements generation.Provider using chat completions.
type Generator struct {
	logger      *slog.Logger
	client      chatCompleter
	model       string
	temperature float32
	prompts     *generation.Prompts
	retry       generation.RetryPolicy
}

var _ generation.Provider = (*Generator)(nil)

// NewGenerator creates a client for cfg. Local servers usually ignore the
// key, so an empty key is only rejected when BaseURL is empty too.
func NewGenerator(logger *slog.Logger, cfg Config, prompts *generation.Prompts) (*Generator, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", generation.ErrInvalidConfig)
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return newGenerator(logger, goopenai.NewClientWithConfig(clientCfg), cfg, prompts), nil
}

func newGenerator(logger *slog.Logger, client chatCompleter, cfg Config, prompts *generation.Prompts) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if prompts == nil {
		prompts = generation.DefaultPrompts()
	}
	model := cfg.ModelName
	if model == "" {
		model = DefaultModel
	}
	return &Generator{
		logger:      logger.With(slog.String("component", "openai"), slog.String("model", model)),
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
		prompts:     prompts,
		retry:       generation.RetryPolicy{MaxRetries: cfg.MaxRetries, BaseDelay: cfg.RetryDelay},
	}
}

// GenerateWord implements generation.WordGenerator.
func (g *Generator) GenerateWord(ctx context.Context, req generation.WordRequest) (domain.VocabularyEntry, error) {
	prompt, err := g.prompts.WordPrompt(req)
	if err != nil {
		return domain.VocabularyEntry{}, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	text, err := g.retry.Do(ctx, g.logger, func(ctx context.Context) (string, error) {
		return g.complete(ctx, prompt, true)
	})
	if err != nil {
		return domain.VocabularyEntry{}, err
	}

	entry, err := generation.ParseWordResponse(text, req.Level)
	if err != nil {
		g.logger.WarnContext(ctx, "discarding malformed word response",
			slog.String("error", err.Error()))
		return domain.VocabularyEntry{}, err
	}
	return entry, nil
}

// GenerateExamples implements generation.ExampleProvider.
func (g *Generator) GenerateExamples(ctx context.Context, entry domain.VocabularyEntry) (string, error) {
	prompt, err := g.prompts.ExamplesPrompt(entry)
	if err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	text, err := g.retry.Do(ctx, g.logger, func(ctx context.Context) (string, error) {
		return g.complete(ctx, prompt, false)
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (g *Generator) complete(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model: g.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.temperature,
	}
	if jsonMode {
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", generation.ErrInvalidResponse)
	}

	choice := resp.Choices[0]
	g.logger.DebugContext(ctx, "received chat completion",
		slog.String("finish_reason", string(choice.FinishReason)))
	if choice.FinishReason == goopenai.FinishReasonContentFilter {
		return "", fmt.Errorf("%w: content filtered", generation.ErrContentBlocked)
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}
	return choice.Message.Content, nil
}

func classifyError(err error) error {
	status := 0
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: credentials rejected: %v", generation.ErrInvalidConfig, err)
	case http.StatusBadRequest, http.StatusNotFound:
		return fmt.Errorf("%w: request rejected (%d): %v", generation.ErrGenerationFailed, status, err)
	}
	return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
}
