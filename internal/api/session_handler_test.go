package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/vocab-api/internal/api/middleware"
	"github.com/phrazzld/vocab-api/internal/api/shared"
	"github.com/phrazzld/vocab-api/internal/config"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/generation"
	"github.com/phrazzld/vocab-api/internal/service/auth"
	"github.com/phrazzld/vocab-api/internal/session"
	"github.com/phrazzld/vocab-api/internal/vocabulary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var apfel = domain.VocabularyEntry{
	German: "der Apfel", English: "apple", Article: domain.ArticleDer, Category: "food", Level: domain.LevelA1,
}

// queueGenerator hands out queued words and fails once the queue is empty.
type queueGenerator struct {
	mu       sync.Mutex
	words    []domain.VocabularyEntry
	examples string
}

func (q *queueGenerator) GenerateWord(context.Context, generation.WordRequest) (domain.VocabularyEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.words) == 0 {
		return domain.VocabularyEntry{}, errors.New("generator down")
	}
	w := q.words[0]
	q.words = q.words[1:]
	return w, nil
}

func (q *queueGenerator) GenerateExamples(context.Context, domain.VocabularyEntry) (string, error) {
	return q.examples, nil
}

type testServer struct {
	handler  http.Handler
	registry *session.Registry
}

func newTestServer(t *testing.T, seed []domain.VocabularyEntry, words ...domain.VocabularyEntry) *testServer {
	t.Helper()

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	gen := &queueGenerator{words: words, examples: "Der Hund bellt."}
	registry := session.NewRegistry(session.Options{
		Generator:        gen,
		AutoAdvanceDelay: -1,
		Seed:             seed,
		Logger:           discard,
	}, nil, discard)
	t.Cleanup(registry.Close)

	jwtService, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:            "test-secret-that-is-at-least-32-characters",
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	h := NewSessionHandler(registry, jwtService, time.Hour, discard)
	authMW := middleware.NewAuthMiddleware(jwtService, registry)

	r := chi.NewRouter()
	r.Use(middleware.NewTraceMiddleware(discard))
	RegisterRoutes(r, h, authMW.Authenticate)

	return &testServer{handler: r, registry: registry}
}

func (ts *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func (ts *testServer) createSession(t *testing.T) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/sessions", "", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeBody[CreateSessionResponse](t, w)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestCreateSessionAndSnapshot(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, domain.DefaultVocabulary())

	w := ts.do(t, http.MethodPost, "/api/sessions", "", "")
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody[CreateSessionResponse](t, w)
	assert.NotEmpty(t, created.SessionID)
	assert.True(t, created.ExpiresAt.After(time.Now()))
	assert.Equal(t, 1, ts.registry.Len())

	w = ts.do(t, http.MethodGet, "/api/session", created.Token, "")
	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeBody[session.Snapshot](t, w)
	assert.Equal(t, created.SessionID, snap.ID)
	assert.Nil(t, snap.State.CurrentWord)
	assert.Equal(t, session.ModeAllWords, snap.Mode)
	assert.Equal(t, 5, snap.Stats.VocabularySize)
	assert.Equal(t, domain.DefaultFilterState(), snap.Filters)
	assert.Equal(t, []string{"All", "animals", "places", "verbs"}, snap.Categories)
	assert.Equal(t, []string{"All", "A1", "A2", "B1", "B2", "C1", "C2"}, snap.Levels)
	assert.Equal(t, []session.CollectionSummary{{Name: "Default", Size: 0}}, snap.Collections)
	assert.True(t, snap.GenerationAvailable)

	w = ts.do(t, http.MethodGet, "/api/session/status", created.Token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeBody[StatusResponse](t, w).Busy)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, domain.DefaultVocabulary())

	for _, path := range []string{"/api/session", "/api/session/words", "/api/session/export"} {
		w := ts.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := ts.do(t, http.MethodGet, "/api/session", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNextAndAnswer(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, domain.DefaultVocabulary(), apfel)
	token := ts.createSession(t)

	w := ts.do(t, http.MethodPost, "/api/session/answer", token, `{"answer":"apple"}`)
	assert.Equal(t, http.StatusConflict, w.Code, "no current word yet")

	w = ts.do(t, http.MethodPost, "/api/session/next", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sel := decodeBody[SelectionResponse](t, w)
	assert.Equal(t, apfel, sel.Word)
	assert.Equal(t, session.SourceGenerated, sel.Source)
	assert.Equal(t, session.ModeAllWords, sel.Mode)

	w = ts.do(t, http.MethodPost, "/api/session/answer", token, `{"answer":"pear"}`)
	require.Equal(t, http.StatusOK, w.Code)
	ans := decodeBody[AnswerResponse](t, w)
	assert.Equal(t, session.FeedbackIncorrect, ans.Feedback)
	assert.False(t, ans.Correct)
	assert.Equal(t, 0, ans.Stats.Score)
	assert.Equal(t, 1, ans.Stats.TotalAttempts)

	w = ts.do(t, http.MethodPost, "/api/session/answer", token, `{"answer":"  Apple "}`)
	require.Equal(t, http.StatusOK, w.Code)
	ans = decodeBody[AnswerResponse](t, w)
	assert.True(t, ans.Correct)
	assert.False(t, ans.AutoAdvance, "auto-advance is disabled in tests")
	assert.Equal(t, 1, ans.Stats.Score)
	assert.Equal(t, 2, ans.Stats.TotalAttempts)
	assert.InDelta(t, 50.0, ans.Stats.Accuracy, 0.001)
	assert.Equal(t, 6, ans.Stats.VocabularySize)

	w = ts.do(t, http.MethodPost, "/api/session/score/reset", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decodeBody[session.Stats](t, w)
	assert.Zero(t, stats.Score)
	assert.Zero(t, stats.TotalAttempts)
}

func TestReveal(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, domain.DefaultVocabulary(), apfel)
	token := ts.createSession(t)

	w := ts.do(t, http.MethodPost, "/api/session/reveal", token, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "There is no current word", decodeBody[shared.ErrorResponse](t, w).Error)

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/session/next", token, "").Code)

	w = ts.do(t, http.MethodPost, "/api/session/reveal", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[RevealResponse](t, w)
	assert.Equal(t, apfel, resp.Word)
	assert.Equal(t, "Der Hund bellt.", resp.Examples)

	w = ts.do(t, http.MethodGet, "/api/session", token, "")
	assert.True(t, decodeBody[session.Snapshot](t, w).State.AnswerRevealed)
}

func TestApplyFilter(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, domain.DefaultVocabulary())
	token := ts.createSession(t)

	w := ts.do(t, http.MethodPut, "/api/session/filter", token, `{"category":"animals","level":"Z9"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Level must be one of A1, A2, B1, B2, C1, C2", decodeBody[shared.ErrorResponse](t, w).Error)

	w = ts.do(t, http.MethodPut, "/api/session/filter", token, `{"category":"animals","level":"All"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sel := decodeBody[SelectionResponse](t, w)
	assert.Equal(t, session.SourceFailureFallback, sel.Source)
	assert.Equal(t, "animals", sel.Word.Category)
	assert.Equal(t, domain.FilterState{Category: "animals", Level: "All"}, sel.Filters)

	w = ts.do(t, http.MethodPut, "/api/session/filter", token, `{"category":"verbs","level":"A1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sel = decodeBody[SelectionResponse](t, w)
	assert.Equal(t, session.SourceFailureFallback, sel.Source)
	assert.Equal(t, "verbs", sel.Word.Category)

	w = ts.do(t, http.MethodPut, "/api/session/filter", token, `{"bogus":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request format", decodeBody[shared.ErrorResponse](t, w).Error)

	w = ts.do(t, http.MethodPut, "/api/session/filter", token, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Request body is required", decodeBody[shared.ErrorResponse](t, w).Error)
}

func TestNoWordAvailable(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)
	token := ts.createSession(t)

	w := ts.do(t, http.MethodPost, "/api/session/next", token, "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	body := decodeBody[shared.ErrorResponse](t, w)
	assert.True(t, body.Retryable)
	assert.Equal(t, shared.NoticeWarning, body.Level)
	assert.NotEmpty(t, body.TraceID)
}

func TestAddWord(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, domain.DefaultVocabulary())
	token := ts.createSession(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "valid word with defaults",
			body:       `{"german":" der Tisch ","english":"table","article":"Der"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "duplicate",
			body:       `{"german":"der Hund","english":"dog"}`,
			wantStatus: http.StatusConflict,
			wantError:  "This word is already in your vocabulary",
		},
		{
			name:       "missing english",
			body:       `{"german":"die Lampe"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid english: required field",
		},
		{
			name:       "blank english",
			body:       `{"german":"die Lampe","english":"   "}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "German word and English translation are required",
		},
		{
			name:       "invalid level",
			body:       `{"german":"die Lampe","english":"lamp","level":"D1"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Level must be one of A1, A2, B1, B2, C1, C2",
		},
		{
			name:       "invalid article",
			body:       `{"german":"die Lampe","english":"lamp","article":"dem"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Article must be der, die, das or empty",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/session/words", token, tc.body)
			require.Equal(t, tc.wantStatus, w.Code, w.Body.String())
			if tc.wantError != "" {
				assert.Equal(t, tc.wantError, decodeBody[shared.ErrorResponse](t, w).Error)
			}
		})
	}

	w := ts.do(t, http.MethodGet, "/api/session/words", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	words := decodeBody[WordsResponse](t, w)
	require.Equal(t, 6, words.Count)
	assert.Equal(t, domain.VocabularyEntry{
		German: "der Tisch", English: "table", Article: domain.ArticleDer, Level: domain.LevelA1,
	}, words.Words[5])
}

func TestCollections(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, domain.DefaultVocabulary())
	token := ts.createSession(t)

	w := ts.do(t, http.MethodPost, "/api/session/collections", token, `{"name":" Travel "}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody[CollectionResponse](t, w)
	assert.Equal(t, "Travel", created.Name)
	assert.Equal(t, "Travel", created.ActiveCollection)

	w = ts.do(t, http.MethodPost, "/api/session/collections", token, `{"name":"Travel"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodPost, "/api/session/collections", token, `{"name":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Collection name cannot be empty", decodeBody[shared.ErrorResponse](t, w).Error)

	w = ts.do(t, http.MethodPost, "/api/session/view/collection", token, "")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, shared.NoticeWarning, decodeBody[shared.ErrorResponse](t, w).Level)

	w = ts.do(t, http.MethodPost, "/api/session/collections/active/words", token, "")
	assert.Equal(t, http.StatusConflict, w.Code, "nothing to save without a current word")

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/session/next", token, "").Code)

	w = ts.do(t, http.MethodPost, "/api/session/collections/active/words", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	saved := decodeBody[SaveWordResponse](t, w)
	assert.Equal(t, "Travel", saved.Collection)
	assert.Equal(t, 1, saved.Size)
	assert.Nil(t, saved.Notice)

	w = ts.do(t, http.MethodPost, "/api/session/collections/active/words", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	again := decodeBody[SaveWordResponse](t, w)
	require.NotNil(t, again.Notice)
	assert.Equal(t, shared.NoticeInfo, again.Notice.Level)
	assert.Equal(t, 1, again.Size)

	w = ts.do(t, http.MethodPost, "/api/session/view/collection", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	sel := decodeBody[SelectionResponse](t, w)
	assert.Equal(t, session.SourceCollection, sel.Source)
	assert.Equal(t, session.ModeViewingCollection, sel.Mode)
	assert.Equal(t, saved.Word, sel.Word.German)

	w = ts.do(t, http.MethodPut, "/api/session/collections/active", token, `{"name":"Default"}`)
	assert.Equal(t, http.StatusConflict, w.Code, "cannot switch the view to an empty collection")

	w = ts.do(t, http.MethodPut, "/api/session/collections/active", token, `{"name":"Nope"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/api/session/view/all", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, session.ModeAllWords, decodeBody[SelectionResponse](t, w).Mode)

	w = ts.do(t, http.MethodPut, "/api/session/collections/active", token, `{"name":"Default"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Default", decodeBody[session.Snapshot](t, w).State.ActiveCollection)
}

func TestExport(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, domain.DefaultVocabulary())
	token := ts.createSession(t)

	w := ts.do(t, http.MethodGet, "/api/session/export", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ExportFileName)

	entries, err := vocabulary.ParseCSV(w.Body)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultVocabulary(), entries)
}

func TestSessionsAreIsolated(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, domain.DefaultVocabulary())
	first := ts.createSession(t)
	second := ts.createSession(t)

	w := ts.do(t, http.MethodPost, "/api/session/words", first, `{"german":"der Tisch","english":"table"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodGet, "/api/session/words", second, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, decodeBody[WordsResponse](t, w).Count)
}
