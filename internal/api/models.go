package api

import (
	"time"

	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/session"
)

// AnswerRequest is the body of POST /session/answer. An empty answer is
// allowed and counts as an attempt.
type AnswerRequest struct {
	Answer string `json:"answer" validate:"max=200"`
}

// FilterRequest is the body of PUT /session/filter. Empty values mean "All".
type FilterRequest struct {
	Category string `json:"category" validate:"max=100"`
	Level    string `json:"level" validate:"max=3"`
}

// AddWordRequest is the body of POST /session/words.
type AddWordRequest struct {
	German   string `json:"german" validate:"required,max=100"`
	English  string `json:"english" validate:"required,max=200"`
	Article  string `json:"article" validate:"max=3"`
	Category string `json:"category" validate:"max=100"`
	Level    string `json:"level" validate:"max=2"`
}

// CollectionRequest names a collection.
type CollectionRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// CreateSessionResponse is returned by POST /sessions.
type CreateSessionResponse struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SelectionResponse reports the word chosen by an advance.
type SelectionResponse struct {
	Word    domain.VocabularyEntry `json:"word"`
	Source  session.Source         `json:"source"`
	Filters domain.FilterState     `json:"filters"`
	Mode    session.Mode           `json:"mode"`
}

// AnswerResponse reports the outcome of an answer check. AutoAdvance is
// true when the next word will be selected after the display delay.
type AnswerResponse struct {
	Feedback    session.Feedback `json:"feedback"`
	Correct     bool             `json:"correct"`
	AutoAdvance bool             `json:"auto_advance"`
	Stats       session.Stats    `json:"stats"`
}

// RevealResponse carries the revealed word and example sentences.
type RevealResponse struct {
	Word     domain.VocabularyEntry `json:"word"`
	Examples string                 `json:"examples"`
}

// WordsResponse is the vocabulary table.
type WordsResponse struct {
	Words []domain.VocabularyEntry `json:"words"`
	Count int                      `json:"count"`
}

// CollectionResponse reports the result of a collection command.
type CollectionResponse struct {
	Name             string `json:"name"`
	ActiveCollection string `json:"active_collection"`
	Size             int    `json:"size"`
}

// SaveWordResponse reports where the current word was saved. Notice is set
// when the word was already there.
type SaveWordResponse struct {
	Collection string  `json:"collection"`
	Word       string  `json:"word"`
	Size       int     `json:"size"`
	Notice     *Notice `json:"notice,omitempty"`
}

// Notice is an informational message returned alongside a success.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// StatusResponse reports whether a generator call is outstanding.
type StatusResponse struct {
	Busy bool `json:"busy"`
}

func selectionResponse(sel session.Selection, snap session.Snapshot) SelectionResponse {
	return SelectionResponse{
		Word:    sel.Word,
		Source:  sel.Source,
		Filters: snap.Filters,
		Mode:    snap.Mode,
	}
}
