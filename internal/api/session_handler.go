package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/vocab-api/internal/api/shared"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
	"github.com/phrazzld/vocab-api/internal/redact"
	"github.com/phrazzld/vocab-api/internal/service/auth"
	"github.com/phrazzld/vocab-api/internal/session"
)

// ExportFileName is the attachment name of the CSV export.
const ExportFileName = "german_vocabulary.csv"

// SessionRegistry creates and persists trainer sessions.
type SessionRegistry interface {
	Create(ctx context.Context) (*session.Session, error)
	Save(ctx context.Context, s *session.Session) error
}

// SessionHandler serves the trainer commands of one authenticated session.
type SessionHandler struct {
	sessions      SessionRegistry
	jwtService    auth.JWTService
	tokenLifetime time.Duration
	logger        *slog.Logger
	timeFunc      func() time.Time
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(
	sessions SessionRegistry,
	jwtService auth.JWTService,
	tokenLifetime time.Duration,
	logger *slog.Logger,
) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{
		sessions:      sessions,
		jwtService:    jwtService,
		tokenLifetime: tokenLifetime,
		logger:        logger.With(slog.String("component", "session_handler")),
		timeFunc:      time.Now,
	}
}

// CreateSession handles POST /api/sessions.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Create(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to create session", err)
		return
	}

	token, err := h.jwtService.GenerateToken(r.Context(), s.ID())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to create session", err)
		return
	}

	h.log(r).Info("session created", slog.String("session_id", s.ID()))
	shared.RespondWithJSON(w, r, http.StatusCreated, CreateSessionResponse{
		SessionID: s.ID(),
		Token:     token,
		ExpiresAt: h.timeFunc().Add(h.tokenLifetime).UTC(),
	})
}

// GetSession handles GET /api/session.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, s.Snapshot())
}

// Status handles GET /api/session/status. It never waits for the session lock.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{Busy: s.Busy()})
}

// Next handles POST /api/session/next.
func (h *SessionHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, func(ctx context.Context, s *session.Session) (session.Selection, error) {
		return s.Advance(ctx)
	})
}

// ViewCollection handles POST /api/session/view/collection.
func (h *SessionHandler) ViewCollection(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, func(ctx context.Context, s *session.Session) (session.Selection, error) {
		return s.EnterCollectionView(ctx)
	})
}

// ViewAll handles POST /api/session/view/all.
func (h *SessionHandler) ViewAll(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, func(ctx context.Context, s *session.Session) (session.Selection, error) {
		return s.ViewAll(ctx)
	})
}

// ApplyFilter handles PUT /api/session/filter.
func (h *SessionHandler) ApplyFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.advance(w, r, func(ctx context.Context, s *session.Session) (session.Selection, error) {
		return s.ApplyFilter(ctx, req.Category, req.Level)
	})
}

func (h *SessionHandler) advance(
	w http.ResponseWriter,
	r *http.Request,
	fn func(context.Context, *session.Session) (session.Selection, error),
) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	sel, err := fn(r.Context(), s)
	if err != nil {
		// Filters may have changed even when no word was produced.
		if errors.Is(err, domain.ErrNoWordAvailable) {
			h.persist(r, s)
		}
		respondWithDomainError(w, r, err)
		return
	}

	h.persist(r, s)
	shared.RespondWithJSON(w, r, http.StatusOK, selectionResponse(sel, s.Snapshot()))
}

// CheckAnswer handles POST /api/session/answer.
func (h *SessionHandler) CheckAnswer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	fb, err := s.CheckAnswer(req.Answer)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	h.persist(r, s)
	snap := s.Snapshot()
	shared.RespondWithJSON(w, r, http.StatusOK, AnswerResponse{
		Feedback:    fb,
		Correct:     fb == session.FeedbackCorrect,
		AutoAdvance: snap.AutoAdvancePending,
		Stats:       snap.Stats,
	})
}

// Reveal handles POST /api/session/reveal. Example sentences are generated
// for the revealed word; a generator failure is reported in the text.
func (h *SessionHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	word, examples, err := s.Reveal(r.Context())
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	h.persist(r, s)
	shared.RespondWithJSON(w, r, http.StatusOK, RevealResponse{Word: word, Examples: examples})
}

// ResetScore handles POST /api/session/score/reset.
func (h *SessionHandler) ResetScore(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.ResetScore()
	h.persist(r, s)
	shared.RespondWithJSON(w, r, http.StatusOK, s.Stats())
}

// AddWord handles POST /api/session/words.
func (h *SessionHandler) AddWord(w http.ResponseWriter, r *http.Request) {
	var req AddWordRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	entry, err := s.AddWord(req.German, req.English, req.Article, req.Category, req.Level)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	h.persist(r, s)
	h.log(r).Info("word added manually", slog.String("german", entry.German))
	shared.RespondWithJSON(w, r, http.StatusCreated, entry)
}

// ListWords handles GET /api/session/words.
func (h *SessionHandler) ListWords(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	words := s.Vocabulary()
	shared.RespondWithJSON(w, r, http.StatusOK, WordsResponse{Words: words, Count: len(words)})
}

// Export handles GET /api/session/export as a CSV download.
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	data, err := s.ExportHistory()
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to export vocabulary", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFileName+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log(r).Error("failed to write export", slog.String("error", redact.Error(err)))
	}
}

// CreateCollection handles POST /api/session/collections.
func (h *SessionHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req CollectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	name, err := s.CreateCollection(req.Name)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	h.persist(r, s)
	shared.RespondWithJSON(w, r, http.StatusCreated, CollectionResponse{
		Name:             name,
		ActiveCollection: s.Stats().ActiveCollection,
	})
}

// SelectCollection handles PUT /api/session/collections/active.
func (h *SessionHandler) SelectCollection(w http.ResponseWriter, r *http.Request) {
	var req CollectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := s.SelectCollection(r.Context(), req.Name); err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	h.persist(r, s)
	shared.RespondWithJSON(w, r, http.StatusOK, s.Snapshot())
}

// SaveCurrentWord handles POST /api/session/collections/active/words.
// A word that is already saved is reported as an info notice with 200.
func (h *SessionHandler) SaveCurrentWord(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	name, err := s.SaveCurrentWord()
	var notice *Notice
	switch {
	case errors.Is(err, domain.ErrAlreadyInCollection):
		notice = &Notice{Level: shared.NoticeInfo, Message: GetSafeErrorMessage(err)}
	case err != nil:
		respondWithDomainError(w, r, err)
		return
	default:
		h.persist(r, s)
	}

	snap := s.Snapshot()
	resp := SaveWordResponse{
		Collection: name,
		Size:       snap.Stats.ActiveCollectionSize,
		Notice:     notice,
	}
	if snap.State.CurrentWord != nil {
		resp.Word = snap.State.CurrentWord.German
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// session extracts the authenticated session or writes a 401.
func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := shared.SessionFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Session not found or invalid")
		return nil, false
	}
	return s, true
}

// decode parses and validates a JSON body, writing a 400 on failure.
func (h *SessionHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		if errors.Is(err, shared.ErrEmptyBody) {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, GetSafeErrorMessage(err), err)
			return false
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}

// persist saves the session snapshot. The in-memory session stays
// authoritative, so a failed save is logged and the request still succeeds.
func (h *SessionHandler) persist(r *http.Request, s *session.Session) {
	if err := h.sessions.Save(r.Context(), s); err != nil {
		h.log(r).Warn("failed to persist session",
			slog.String("session_id", s.ID()),
			slog.String("error", redact.Error(err)))
	}
}

func (h *SessionHandler) log(r *http.Request) *slog.Logger {
	return logger.FromContextOrDefault(r.Context(), h.logger)
}
