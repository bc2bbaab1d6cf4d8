package openai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/generation"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	responses []goopenai.ChatCompletionResponse
	errs      []error
	requests  []goopenai.ChatCompletionRequest
}

func (f *fakeClient) CreateChatCompletion(_ context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
	i := len(f.requests)
	f.requests = append(f.requests, req)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var resp goopenai.ChatCompletionResponse
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	return resp, err
}

func reply(content string, reason goopenai.FinishReason) goopenai.ChatCompletionResponse {
	return goopenai.ChatCompletionResponse{Choices: []goopenai.ChatCompletionChoice{{
		Message:      goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleAssistant, Content: content},
		FinishReason: reason,
	}}}
}

func newTestGenerator(client *fakeClient) *Generator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newGenerator(logger, client, Config{ModelName: "llama3", MaxRetries: 1}, nil)
}

func TestNewGeneratorConfig(t *testing.T) {
	t.Parallel()

	_, err := NewGenerator(nil, Config{}, nil)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	g, err := NewGenerator(nil, Config{BaseURL: "http://localhost:11434/v1/"}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, g.model)
}

func TestGenerateWordUsesJSONMode(t *testing.T) {
	t.Parallel()

	client := &fakeClient{responses: []goopenai.ChatCompletionResponse{
		reply("Here you go: {\"german\": \"das Brot\", \"english\": \"bread\", \"article\": \"das\", \"category\": \"food\", \"level\": \"A1\"}", goopenai.FinishReasonStop),
	}}
	g := newTestGenerator(client)

	entry, err := g.GenerateWord(context.Background(), generation.WordRequest{Category: "food"})
	require.NoError(t, err)
	assert.Equal(t, "das Brot", entry.German)
	assert.Equal(t, domain.ArticleDas, entry.Article)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "llama3", req.Model)
	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, goopenai.ChatCompletionResponseFormatTypeJSONObject, req.ResponseFormat.Type)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, goopenai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[1].Content, "in the category 'food'")
}

func TestGenerateWordFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		client    *fakeClient
		wantErr   error
		wantCalls int
	}{
		{
			name:      "content filter",
			client:    &fakeClient{responses: []goopenai.ChatCompletionResponse{reply("", goopenai.FinishReasonContentFilter)}},
			wantErr:   generation.ErrContentBlocked,
			wantCalls: 1,
		},
		{
			name:      "no choices",
			client:    &fakeClient{responses: []goopenai.ChatCompletionResponse{{}}},
			wantErr:   domain.ErrMalformedGeneratedEntry,
			wantCalls: 1,
		},
		{
			name:      "unauthorized",
			client:    &fakeClient{errs: []error{&goopenai.APIError{HTTPStatusCode: 401, Message: "invalid key"}}},
			wantErr:   domain.ErrGeneratorUnavailable,
			wantCalls: 1,
		},
		{
			name:      "server errors exhaust retries",
			client:    &fakeClient{errs: []error{errors.New("EOF"), &goopenai.APIError{HTTPStatusCode: 500}}},
			wantErr:   generation.ErrTransientFailure,
			wantCalls: 2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := newTestGenerator(tc.client).GenerateWord(context.Background(), generation.WordRequest{})
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Len(t, tc.client.requests, tc.wantCalls)
		})
	}
}

func TestGenerateExamplesPlainText(t *testing.T) {
	t.Parallel()

	client := &fakeClient{responses: []goopenai.ChatCompletionResponse{
		reply("German: Das Haus ist groß.\nEnglish: The house is big.\n", goopenai.FinishReasonStop),
	}}
	g := newTestGenerator(client)

	text, err := g.GenerateExamples(context.Background(), domain.VocabularyEntry{German: "das Haus"})
	require.NoError(t, err)
	assert.Equal(t, "German: Das Haus ist groß.\nEnglish: The house is big.", text)
	assert.Nil(t, client.requests[0].ResponseFormat)
	assert.Contains(t, client.requests[0].Messages[1].Content, "A1 level")
}
