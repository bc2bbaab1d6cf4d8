package gemini

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
	"google.golang.org/genai"
)

// DefaultModel is used when Config.ModelName is empty.
const DefaultModel = "gemini-2.0-flash"

// Config holds the adapter settings.
type Config struct {
	APIKey      string
	ModelName   string
	Temperature float32
	MaxRetries  int
	RetryDelay  time.Duration
}

// contentGenerator is the subset of *genai.Models the adapter calls.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Generator implements generation.Provider using Gemini.
type Generator struct {
	logger      *slog.Logger
	models      contentGenerator
	model       string
	temperature float32
	prompts     *generation.Prompts
	retry       generation.RetryPolicy
}

var _ generation.Provider = (*Generator)(nil)

// NewGenerator creates a Gemini client and wraps it in a Generator.
// A nil prompts selects the built-in templates.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg Config, prompts *generation.Prompts) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newGenerator(logger, client.Models, cfg, prompts), nil
}

func newGenerator(logger *slog.Logger, models contentGenerator, cfg Config, prompts *generation.Prompts) *Generator {
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
		logger:      logger.With(slog.String("component", "gemini"), slog.String("model", model)),
		models:      models,
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

	g.logger.DebugContext(ctx, "requesting word",
		slog.String("category", req.Category),
		slog.String("level", string(req.Level)),
		slog.Int("avoid_count", len(req.Avoid)))

	text, err := g.retry.Do(ctx, g.logger, func(ctx context.Context) (string, error) {
		return g.call(ctx, prompt, "application/json")
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
		return g.call(ctx, prompt, "")
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// call makes a single request and classifies the outcome.
func (g *Generator) call(ctx context.Context, prompt, mimeType string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.temperature),
		ResponseMIMEType: mimeType,
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", classifyError(err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" &&
		resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		return "", fmt.Errorf("%w: prompt blocked (%s)", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}
	return text, nil
}

// classifyError maps API failures onto the generation error set. Rejected
// credentials make the generator unavailable; everything else is treated
// as transient.
func classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: credentials rejected: %s", generation.ErrInvalidConfig, apiErr.Message)
		case http.StatusBadRequest, http.StatusNotFound:
			return fmt.Errorf("%w: request rejected (%d): %s", generation.ErrGenerationFailed, apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("%w: gemini returned %d: %s", generation.ErrTransientFailure, apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
}
