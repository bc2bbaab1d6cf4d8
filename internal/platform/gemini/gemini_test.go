package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type call struct {
	model  string
	prompt string
	config *genai.GenerateContentConfig
}

// fakeModels replays queued responses and records requests.
type fakeModels struct {
	mu        sync.Mutex
	responses []*genai.GenerateContentResponse
	errs      []error
	calls     []call
}

func (f *fakeModels) GenerateContent(
	_ context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prompt := ""
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		prompt = contents[0].Parts[0].Text
	}
	i := len(f.calls)
	f.calls = append(f.calls, call{model: model, prompt: prompt, config: config})

	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var resp *genai.GenerateContentResponse
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	return resp, err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: []*genai.Part{{Text: text}}},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

func newTestGenerator(models *fakeModels) *Generator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newGenerator(logger, models, Config{Temperature: 0.5, MaxRetries: 2}, nil)
}

func TestNewGeneratorRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := NewGenerator(context.Background(), nil, Config{}, nil)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	assert.ErrorIs(t, err, domain.ErrGeneratorUnavailable)
}

func TestGenerateWord(t *testing.T) {
	t.Parallel()

	models := &fakeModels{responses: []*genai.GenerateContentResponse{
		textResponse(`{"german": "der Apfel", "english": "apple", "article": "der", "category": "food", "level": "A1"}`),
	}}
	g := newTestGenerator(models)

	entry, err := g.GenerateWord(context.Background(), generation.WordRequest{
		Category: "food",
		Level:    domain.LevelA1,
		Avoid:    []string{"der Hund"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.VocabularyEntry{
		German: "der Apfel", English: "apple", Article: domain.ArticleDer, Category: "food", Level: domain.LevelA1,
	}, entry)

	require.Len(t, models.calls, 1)
	assert.Equal(t, DefaultModel, models.calls[0].model)
	assert.Equal(t, "application/json", models.calls[0].config.ResponseMIMEType)
	assert.Equal(t, float32(0.5), *models.calls[0].config.Temperature)
	assert.Contains(t, models.calls[0].prompt, "in the category 'food'")
	assert.Contains(t, models.calls[0].prompt, "der Hund")
}

func TestGenerateWordFillsRequestedLevel(t *testing.T) {
	t.Parallel()

	models := &fakeModels{responses: []*genai.GenerateContentResponse{
		textResponse(`[{"german": "laufen", "english": "to run", "article": "", "category": "verbs"}]`),
	}}
	g := newTestGenerator(models)

	entry, err := g.GenerateWord(context.Background(), generation.WordRequest{Level: domain.LevelB1})
	require.NoError(t, err)
	assert.Equal(t, domain.LevelB1, entry.Level)
	assert.Equal(t, domain.ArticleNone, entry.Article)
}

func TestGenerateWordRetriesTransientErrors(t *testing.T) {
	t.Parallel()

	models := &fakeModels{
		errs: []error{genai.APIError{Code: 503, Message: "overloaded"}, nil},
		responses: []*genai.GenerateContentResponse{
			nil,
			textResponse(`{"german": "die Birne", "english": "pear", "article": "die", "category": "food", "level": "A2"}`),
		},
	}
	g := newTestGenerator(models)

	entry, err := g.GenerateWord(context.Background(), generation.WordRequest{})
	require.NoError(t, err)
	assert.Equal(t, "die Birne", entry.German)
	assert.Len(t, models.calls, 2)
}

func TestGenerateWordFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		models    *fakeModels
		wantErr   error
		wantCalls int
	}{
		{
			name: "safety block",
			models: &fakeModels{responses: []*genai.GenerateContentResponse{{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			}}},
			wantErr:   generation.ErrContentBlocked,
			wantCalls: 1,
		},
		{
			name: "prompt blocked",
			models: &fakeModels{responses: []*genai.GenerateContentResponse{{
				PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
			}}},
			wantErr:   generation.ErrContentBlocked,
			wantCalls: 1,
		},
		{
			name:      "no candidates",
			models:    &fakeModels{responses: []*genai.GenerateContentResponse{{}}},
			wantErr:   domain.ErrMalformedGeneratedEntry,
			wantCalls: 1,
		},
		{
			name:      "malformed JSON",
			models:    &fakeModels{responses: []*genai.GenerateContentResponse{textResponse("Sorry, no.")}},
			wantErr:   domain.ErrMalformedGeneratedEntry,
			wantCalls: 1,
		},
		{
			name:      "rejected key",
			models:    &fakeModels{errs: []error{genai.APIError{Code: 403, Message: "API key not valid"}}},
			wantErr:   domain.ErrGeneratorUnavailable,
			wantCalls: 1,
		},
		{
			name: "network errors exhaust retries",
			models: &fakeModels{errs: []error{
				errors.New("dial tcp: connection refused"),
				errors.New("dial tcp: connection refused"),
				errors.New("dial tcp: connection refused"),
			}},
			wantErr:   generation.ErrTransientFailure,
			wantCalls: 3,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			g := newTestGenerator(tc.models)
			_, err := g.GenerateWord(context.Background(), generation.WordRequest{})
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Len(t, tc.models.calls, tc.wantCalls)
		})
	}
}

func TestGenerateExamples(t *testing.T) {
	t.Parallel()

	models := &fakeModels{responses: []*genai.GenerateContentResponse{
		textResponse("\nGerman: Ich gehe nach Hause.\nEnglish: I am going home.\n"),
	}}
	g := newTestGenerator(models)

	text, err := g.GenerateExamples(context.Background(), domain.VocabularyEntry{German: "gehen", Level: domain.LevelA2})
	require.NoError(t, err)
	assert.Equal(t, "German: Ich gehe nach Hause.\nEnglish: I am going home.", text)

	require.Len(t, models.calls, 1)
	assert.Empty(t, models.calls[0].config.ResponseMIMEType)
	assert.Contains(t, models.calls[0].prompt, `"gehen"`)
	assert.Contains(t, models.calls[0].prompt, "A2 level")
}
