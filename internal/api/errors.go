package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/vocab-api/internal/api/shared"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/service/auth"
	"github.com/phrazzld/vocab-api/internal/session"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes based on
// the error type. Every trainer error is recoverable and maps to a 4xx,
// except ErrNoWordAvailable which is a retryable 503.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, domain.ErrCollectionNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, domain.ErrDuplicateWord),
		errors.Is(err, domain.ErrDuplicateCollectionName),
		errors.Is(err, domain.ErrEmptyCollection),
		errors.Is(err, domain.ErrNoCurrentWord),
		errors.Is(err, domain.ErrAnswerNotRevealed),
		errors.Is(err, session.ErrBusy):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEmptyName),
		errors.Is(err, domain.ErrInvalidLevel),
		errors.Is(err, domain.ErrInvalidArticle),
		errors.Is(err, shared.ErrEmptyBody):
		return http.StatusBadRequest

	// Special cases
	case errors.Is(err, domain.ErrAlreadyInCollection):
		return http.StatusOK

	case errors.Is(err, domain.ErrNoWordAvailable),
		errors.Is(err, domain.ErrGeneratorUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err that never
// includes internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	case errors.Is(err, session.ErrSessionNotFound):
		return "Session not found"
	case errors.Is(err, session.ErrBusy):
		return "Please wait for the next word"

	case errors.Is(err, domain.ErrCollectionNotFound):
		return "Collection not found"
	case errors.Is(err, domain.ErrDuplicateCollectionName):
		return "A collection with this name already exists"
	case errors.Is(err, domain.ErrEmptyName):
		return "Collection name cannot be empty"
	case errors.Is(err, domain.ErrEmptyCollection):
		return "This collection has no saved words yet"
	case errors.Is(err, domain.ErrAlreadyInCollection):
		return "Word is already in this collection"

	case errors.Is(err, domain.ErrDuplicateWord):
		return "This word is already in your vocabulary"
	case errors.Is(err, domain.ErrInvalidLevel):
		return "Level must be one of A1, A2, B1, B2, C1, C2"
	case errors.Is(err, domain.ErrInvalidArticle):
		return "Article must be der, die, das or empty"
	case errors.Is(err, domain.ErrValidation):
		return "German word and English translation are required"

	case errors.Is(err, domain.ErrNoCurrentWord):
		return "There is no current word"
	case errors.Is(err, domain.ErrAnswerNotRevealed):
		return "Reveal the answer first"
	case errors.Is(err, domain.ErrNoWordAvailable):
		return "No word is available right now, please try again"
	case errors.Is(err, domain.ErrGeneratorUnavailable):
		return "Word generation is unavailable"

	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"

	default:
		return "An unexpected error occurred"
	}
}

// noticeLevel returns the notice severity shown with recoverable errors,
// or "" for plain failures.
func noticeLevel(err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadyInCollection):
		return shared.NoticeInfo
	case errors.Is(err, domain.ErrEmptyCollection),
		errors.Is(err, domain.ErrNoWordAvailable):
		return shared.NoticeWarning
	default:
		return ""
	}
}

// respondWithDomainError writes the mapped status and safe message for err.
func respondWithDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)

	var opts []shared.ResponseOption
	if level := noticeLevel(err); level != "" {
		opts = append(opts, shared.WithNoticeLevel(level))
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
		opts = append(opts, shared.WithRetryable())
	}

	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err, opts...)
}

// SanitizeValidationError turns validator errors into a short message that
// names the first failing field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(fe.Tag()))
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
