package session

import "github.com/phrazzld/vocab-api/internal/domain"

// Feedback is the result of the most recent answer check.
type Feedback string

// Feedback values.
const (
	FeedbackNone      Feedback = "none"
	FeedbackCorrect   Feedback = "correct"
	FeedbackIncorrect Feedback = "incorrect"
)

// Mode is the selection mode.
type Mode string

// Selection modes.
const (
	ModeAllWords          Mode = "all_words"
	ModeViewingCollection Mode = "viewing_collection"
)

// Source records which selection tier produced the current word.
type Source string

// Selection tiers, in the order Advance tries them.
const (
	SourceGenerated         Source = "generated"
	SourceDuplicateFallback Source = "duplicate_fallback"
	SourceFailureFallback   Source = "failure_fallback"
	SourceAnyFallback       Source = "any_fallback"
	SourceColdStart         Source = "cold_start"
	SourceCollection        Source = "collection"
)

// State is the transient quiz state of a session.
type State struct {
	CurrentWord      *domain.VocabularyEntry `json:"current_word,omitempty"`
	Viewing          bool                    `json:"viewing_saved_collection"`
	ActiveCollection string                  `json:"active_collection"`
	Score            int                     `json:"score"`
	TotalAttempts    int                     `json:"total_attempts"`
	LastFeedback     Feedback                `json:"last_feedback"`
	AnswerRevealed   bool                    `json:"answer_revealed"`
	// AnswerInput holds the last submitted answer until the word changes.
	AnswerInput string `json:"answer_input"`
}

// Mode returns the selection mode implied by the state.
func (st State) Mode() Mode {
	if st.Viewing {
		return ModeViewingCollection
	}
	return ModeAllWords
}

// Stats summarizes the score and sizes shown next to the card.
type Stats struct {
	Score                int     `json:"score"`
	TotalAttempts        int     `json:"total_attempts"`
	Accuracy             float64 `json:"accuracy"`
	VocabularySize       int     `json:"vocabulary_size"`
	ActiveCollection     string  `json:"active_collection"`
	ActiveCollectionSize int     `json:"active_collection_size"`
}

// CollectionSummary names a collection and its size.
type CollectionSummary struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// Snapshot is a read-only view of a session for the API layer.
type Snapshot struct {
	ID                 string              `json:"id"`
	State              State               `json:"state"`
	Mode               Mode                `json:"mode"`
	Filters            domain.FilterState  `json:"filters"`
	Stats              Stats               `json:"stats"`
	Categories         []string            `json:"categories"`
	Levels             []string            `json:"levels"`
	Collections        []CollectionSummary `json:"collections"`
	AutoAdvancePending bool                `json:"auto_advance_pending"`
	// GenerationAvailable is false when no word generator is configured;
	// browsing, answering and manual entry still work.
	GenerationAvailable bool `json:"generation_available"`
}

// CollectionData is the persisted form of one collection.
type CollectionData struct {
	Name  string                   `json:"name"`
	Words []domain.VocabularyEntry `json:"words"`
}

// Data is the complete persisted layout of a session: vocabulary history,
// collections, filters and quiz state.
type Data struct {
	Vocabulary  []domain.VocabularyEntry `json:"vocabulary"`
	Collections []CollectionData         `json:"collections"`
	Filters     domain.FilterState       `json:"filters"`
	State       State                    `json:"state"`
}
