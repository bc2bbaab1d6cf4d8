package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/phrazzld/vocab-api/internal/collection"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/generation"
	"github.com/phrazzld/vocab-api/internal/redact"
	"github.com/phrazzld/vocab-api/internal/vocabulary"
)

// DefaultAutoAdvanceDelay is how long a correct answer stays visible.
const DefaultAutoAdvanceDelay = 800 * time.Millisecond

// Options configures a Session.
type Options struct {
	// Generator supplies new words. Nil means generation is unavailable.
	Generator generation.WordGenerator
	// Examples supplies example sentences. Nil falls back to Generator when
	// it also implements generation.ExampleProvider.
	Examples generation.ExampleProvider
	// GenerationTimeout bounds each generator call; zero means no timeout.
	GenerationTimeout time.Duration
	// AutoAdvanceDelay is the pause after a correct answer before the next
	// word. Negative disables auto-advance.
	AutoAdvanceDelay time.Duration
	// Seed is the initial vocabulary.
	Seed []domain.VocabularyEntry
	// Rand drives random selection. Nil seeds a new source from the clock.
	Rand    *rand.Rand
	Logger  *slog.Logger
	Metrics Recorder
	// OnAutoAdvance runs after a timer-driven advance succeeds, outside the
	// session lock.
	OnAutoAdvance func(*Session)
	Now           func() time.Time
}

// Selection is the outcome of a successful advance.
type Selection struct {
	Word   domain.VocabularyEntry `json:"word"`
	Source Source                 `json:"source"`
}

// Session is one user's trainer state. It is safe for concurrent use;
// commands are serialized.
type Session struct {
	id string

	mu         sync.Mutex
	busy       atomic.Bool
	lastActive atomic.Int64
	closed     bool

	logger        *slog.Logger
	generator     generation.WordGenerator
	canGenerate   bool
	examples      generation.ExampleProvider
	timeout       time.Duration
	delay         time.Duration
	metrics       Recorder
	onAutoAdvance func(*Session)
	now           func() time.Time

	rng         *rand.Rand
	store       *vocabulary.Store
	collections *collection.Manager
	filters     domain.FilterState
	state       State

	timer    *time.Timer
	timerSeq uint64
}

// New creates a session with the seed vocabulary, default filters, the
// Default collection active and no current word.
func New(id string, opts Options) *Session {
	s := newSession(id, opts)
	for _, e := range opts.Seed {
		if err := s.store.Add(e); err != nil {
			s.logger.Debug("skipping seed word", slog.String("german", e.German), slog.String("error", err.Error()))
		}
	}
	return s
}

func newSession(id string, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	gen := opts.Generator
	if gen == nil {
		gen = generation.Unavailable{Reason: "no generator configured"}
	}
	_, unavailable := gen.(generation.Unavailable)
	examples := opts.Examples
	if examples == nil {
		if p, ok := gen.(generation.ExampleProvider); ok {
			examples = p
		} else {
			examples = generation.Unavailable{Reason: "no example provider configured"}
		}
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = noopRecorder{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Session{
		id:            id,
		logger:        logger.With(slog.String("component", "session"), slog.String("session_id", id)),
		generator:     gen,
		canGenerate:   !unavailable,
		examples:      examples,
		timeout:       opts.GenerationTimeout,
		delay:         opts.AutoAdvanceDelay,
		metrics:       metrics,
		onAutoAdvance: opts.OnAutoAdvance,
		now:           now,
		rng:           rng,
		store:         vocabulary.NewStore(),
		collections:   collection.NewManager(rng),
		filters:       domain.DefaultFilterState(),
		state: State{
			ActiveCollection: collection.DefaultName,
			LastFeedback:     FeedbackNone,
		},
	}
	s.lastActive.Store(now().UnixNano())
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Busy reports whether a generator call is outstanding. It does not take
// the session lock.
func (s *Session) Busy() bool { return s.busy.Load() }

// LastActive returns when the session last ran a command.
func (s *Session) LastActive() time.Time { return time.Unix(0, s.lastActive.Load()) }

// Close cancels a pending auto-advance. Commands still work afterwards but
// no timer fires.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cancelAutoAdvanceLocked()
}

func (s *Session) lock() {
	s.mu.Lock()
	s.lastActive.Store(s.now().UnixNano())
}

// Advance picks the next current word.
//
// While viewing a collection the word is a random member and no generator
// call is made. Otherwise the tiers are tried in order: a newly generated
// word; a random word matching the filters (after a duplicate or failed
// generation); any random word; and, for an empty vocabulary, one more
// unfiltered generation. If every tier fails the error wraps
// domain.ErrNoWordAvailable and the current word is unchanged.
func (s *Session) Advance(ctx context.Context) (Selection, error) {
	s.lock()
	defer s.mu.Unlock()

	s.cancelAutoAdvanceLocked()
	return s.advanceLocked(ctx)
}

func (s *Session) advanceLocked(ctx context.Context) (Selection, error) {
	sel, err := s.selectLocked(ctx)
	if err != nil {
		s.metrics.ObserveAdvance("no_word")
		return Selection{}, err
	}
	s.setCurrentLocked(sel.Word)
	s.metrics.ObserveAdvance(string(sel.Source))
	s.logger.DebugContext(ctx, "advanced to next word",
		slog.String("german", sel.Word.German),
		slog.String("source", string(sel.Source)))
	return sel, nil
}

func (s *Session) selectLocked(ctx context.Context) (Selection, error) {
	if s.state.Viewing {
		word, err := s.collections.RandomMember(s.state.ActiveCollection)
		if err != nil {
			return Selection{}, err
		}
		return Selection{Word: word, Source: SourceCollection}, nil
	}

	filter := s.filters.Constraints()
	entry, outcome := s.generateLocked(ctx, generation.WordRequest{
		Category: filter.Category,
		Level:    filter.Level,
		Avoid:    s.store.GermanWords(),
	})
	if outcome == outcomeOK {
		return Selection{Word: entry, Source: SourceGenerated}, nil
	}

	source := SourceFailureFallback
	if outcome == outcomeDuplicate {
		source = SourceDuplicateFallback
	}
	if word, ok := s.pick(s.store.Filtered(filter)); ok {
		return Selection{Word: word, Source: source}, nil
	}
	if word, ok := s.pick(s.store.All()); ok {
		return Selection{Word: word, Source: SourceAnyFallback}, nil
	}

	s.logger.InfoContext(ctx, "vocabulary is empty, retrying generation without filters")
	entry, outcome = s.generateLocked(ctx, generation.WordRequest{})
	if outcome == outcomeOK {
		return Selection{Word: entry, Source: SourceColdStart}, nil
	}
	return Selection{}, fmt.Errorf("%w: vocabulary is empty and generation failed", domain.ErrNoWordAvailable)
}

const (
	outcomeOK          = "ok"
	outcomeDuplicate   = "duplicate"
	outcomeMalformed   = "malformed"
	outcomeUnavailable = "unavailable"
	outcomeError       = "error"
)

// generateLocked calls the generator and inserts a valid new word into the
// store. Only outcomeOK returns a usable entry.
func (s *Session) generateLocked(ctx context.Context, req generation.WordRequest) (domain.VocabularyEntry, string) {
	s.busy.Store(true)
	defer s.busy.Store(false)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	entry, err := s.generator.GenerateWord(ctx, req)
	if err == nil {
		err = entry.ValidateGenerated()
	}
	outcome := outcomeOK
	switch {
	case err != nil:
		outcome = classifyGenerationError(err)
	case s.store.Contains(entry.German):
		outcome = outcomeDuplicate
	}
	s.metrics.ObserveGeneration(outcome, time.Since(start))

	if outcome != outcomeOK {
		attrs := []any{
			slog.String("outcome", outcome),
			slog.String("category", req.Category),
			slog.String("level", string(req.Level)),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", redact.Error(err)))
		} else {
			attrs = append(attrs, slog.String("german", entry.German))
		}
		s.logger.WarnContext(ctx, "generated word not used", attrs...)
		return domain.VocabularyEntry{}, outcome
	}

	if err := s.store.Add(entry); err != nil {
		return domain.VocabularyEntry{}, outcomeDuplicate
	}
	return entry, outcomeOK
}

func classifyGenerationError(err error) string {
	switch {
	case errors.Is(err, domain.ErrGeneratorUnavailable):
		return outcomeUnavailable
	case errors.Is(err, domain.ErrMalformedGeneratedEntry):
		return outcomeMalformed
	}
	return outcomeError
}

func (s *Session) pick(entries []domain.VocabularyEntry) (domain.VocabularyEntry, bool) {
	if len(entries) == 0 {
		return domain.VocabularyEntry{}, false
	}
	return entries[s.rng.Intn(len(entries))], true
}

func (s *Session) setCurrentLocked(word domain.VocabularyEntry) {
	s.state.CurrentWord = &word
	s.state.AnswerRevealed = false
	s.state.LastFeedback = FeedbackNone
	s.state.AnswerInput = ""
}

// CheckAnswer compares input with the English translation of the current
// word, ignoring surrounding whitespace and case. Every check counts as an
// attempt. A correct answer schedules an advance after the auto-advance
// delay; an incorrect one keeps the word for another try.
func (s *Session) CheckAnswer(input string) (Feedback, error) {
	s.lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		return "", fmt.Errorf("%w: next word is about to be shown", ErrBusy)
	}
	if s.state.CurrentWord == nil {
		return "", domain.ErrNoCurrentWord
	}

	s.state.TotalAttempts++
	s.state.AnswerInput = input

	if normalizeAnswer(input) != normalizeAnswer(s.state.CurrentWord.English) {
		s.state.LastFeedback = FeedbackIncorrect
		s.metrics.ObserveAnswer(false)
		return FeedbackIncorrect, nil
	}

	s.state.Score++
	s.state.LastFeedback = FeedbackCorrect
	s.metrics.ObserveAnswer(true)
	s.scheduleAutoAdvanceLocked()
	return FeedbackCorrect, nil
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *Session) scheduleAutoAdvanceLocked() {
	s.cancelAutoAdvanceLocked()
	if s.delay < 0 || s.closed {
		return
	}
	seq := s.timerSeq
	s.timer = time.AfterFunc(s.delay, func() { s.autoAdvance(seq) })
}

func (s *Session) cancelAutoAdvanceLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerSeq++
}

func (s *Session) autoAdvance(seq uint64) {
	s.mu.Lock()
	if s.closed || seq != s.timerSeq {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	_, err := s.advanceLocked(context.Background())
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("auto-advance failed", slog.String("error", redact.Error(err)))
		return
	}
	if s.onAutoAdvance != nil {
		s.onAutoAdvance(s)
	}
}

// ResetScore zeroes score and attempts.
func (s *Session) ResetScore() {
	s.lock()
	defer s.mu.Unlock()
	s.state.Score = 0
	s.state.TotalAttempts = 0
}

// RevealAnswer marks the answer as shown and returns the current word.
func (s *Session) RevealAnswer() (domain.VocabularyEntry, error) {
	s.lock()
	defer s.mu.Unlock()
	return s.revealLocked()
}

// Reveal shows the answer and fetches example sentences for it in one
// step, so a pending auto-advance cannot replace the word in between.
// Provider failures are returned as display text rather than an error.
func (s *Session) Reveal(ctx context.Context) (domain.VocabularyEntry, string, error) {
	s.lock()
	defer s.mu.Unlock()

	word, err := s.revealLocked()
	if err != nil {
		return domain.VocabularyEntry{}, "", err
	}
	return word, s.examplesLocked(ctx, word), nil
}

func (s *Session) revealLocked() (domain.VocabularyEntry, error) {
	if s.state.CurrentWord == nil {
		return domain.VocabularyEntry{}, domain.ErrNoCurrentWord
	}
	s.state.AnswerRevealed = true
	return *s.state.CurrentWord, nil
}

// ExampleSentences asks the example provider for sentences using the
// revealed current word at its level. Provider failures are returned as
// display text rather than an error.
func (s *Session) ExampleSentences(ctx context.Context) (string, error) {
	s.lock()
	defer s.mu.Unlock()

	if s.state.CurrentWord == nil {
		return "", domain.ErrNoCurrentWord
	}
	if !s.state.AnswerRevealed {
		return "", domain.ErrAnswerNotRevealed
	}
	return s.examplesLocked(ctx, *s.state.CurrentWord), nil
}

func (s *Session) examplesLocked(ctx context.Context, word domain.VocabularyEntry) string {
	s.busy.Store(true)
	defer s.busy.Store(false)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := s.examples.GenerateExamples(ctx, word)
	if err != nil {
		msg := redact.Error(err)
		s.logger.WarnContext(ctx, "example generation failed",
			slog.String("german", word.German),
			slog.String("error", msg))
		return "Error generating examples: " + msg
	}
	return text
}

// ApplyFilter sets both filters, leaves collection view and advances. The
// filters stay applied even when no word can be produced.
func (s *Session) ApplyFilter(ctx context.Context, category, level string) (Selection, error) {
	fs, err := domain.NewFilterState(category, level)
	if err != nil {
		return Selection{}, err
	}

	s.lock()
	defer s.mu.Unlock()

	s.cancelAutoAdvanceLocked()
	s.filters = fs
	s.state.Viewing = false
	return s.advanceLocked(ctx)
}

// EnterCollectionView switches to quizzing from the active collection. An
// empty collection is refused with domain.ErrEmptyCollection and nothing
// changes.
func (s *Session) EnterCollectionView(ctx context.Context) (Selection, error) {
	s.lock()
	defer s.mu.Unlock()

	name := s.state.ActiveCollection
	if s.collections.IsEmpty(name) {
		return Selection{}, fmt.Errorf("%w: collection %q has no saved words", domain.ErrEmptyCollection, name)
	}

	s.cancelAutoAdvanceLocked()
	s.state.Viewing = true
	return s.advanceLocked(ctx)
}

// ViewAll leaves collection view and advances.
func (s *Session) ViewAll(ctx context.Context) (Selection, error) {
	s.lock()
	defer s.mu.Unlock()

	s.cancelAutoAdvanceLocked()
	s.state.Viewing = false
	return s.advanceLocked(ctx)
}

// CreateCollection adds an empty collection and returns its trimmed name.
// It becomes the active collection unless a collection is being viewed.
func (s *Session) CreateCollection(name string) (string, error) {
	s.lock()
	defer s.mu.Unlock()

	created, err := s.collections.Create(name)
	if err != nil {
		return "", err
	}
	if !s.state.Viewing {
		s.state.ActiveCollection = created
	}
	s.logger.Info("collection created", slog.String("collection", created))
	return created, nil
}

// SelectCollection makes name the active collection. While viewing, an
// empty collection is refused and a different collection replaces the
// current word with one of its members.
func (s *Session) SelectCollection(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)

	s.lock()
	defer s.mu.Unlock()

	if !s.collections.Exists(name) {
		return fmt.Errorf("%w: %q", domain.ErrCollectionNotFound, name)
	}
	if !s.state.Viewing {
		s.state.ActiveCollection = name
		return nil
	}
	if s.collections.IsEmpty(name) {
		return fmt.Errorf("%w: collection %q has no saved words", domain.ErrEmptyCollection, name)
	}
	if name == s.state.ActiveCollection {
		return nil
	}

	s.cancelAutoAdvanceLocked()
	s.state.ActiveCollection = name
	_, err := s.advanceLocked(ctx)
	return err
}

// SaveCurrentWord adds the current word to the active collection and
// returns the collection name. A word already present yields
// domain.ErrAlreadyInCollection, which callers show as information.
func (s *Session) SaveCurrentWord() (string, error) {
	s.lock()
	defer s.mu.Unlock()

	if s.state.CurrentWord == nil {
		return "", domain.ErrNoCurrentWord
	}
	name := s.state.ActiveCollection
	if err := s.collections.Add(name, *s.state.CurrentWord); err != nil {
		return name, err
	}
	return name, nil
}

// AddWord validates a manually entered word and appends it to the
// vocabulary. The level defaults to A1.
func (s *Session) AddWord(german, english, article, category, level string) (domain.VocabularyEntry, error) {
	entry, err := domain.NewVocabularyEntry(german, english, article, category, level)
	if err != nil {
		return domain.VocabularyEntry{}, err
	}

	s.lock()
	defer s.mu.Unlock()

	if err := s.store.Add(entry); err != nil {
		return domain.VocabularyEntry{}, err
	}
	return entry, nil
}

// Stats returns score, accuracy and sizes.
func (s *Session) Stats() Stats {
	s.lock()
	defer s.mu.Unlock()
	return s.statsLocked()
}

func (s *Session) statsLocked() Stats {
	st := Stats{
		Score:                s.state.Score,
		TotalAttempts:        s.state.TotalAttempts,
		VocabularySize:       s.store.Len(),
		ActiveCollection:     s.state.ActiveCollection,
		ActiveCollectionSize: s.collections.Len(s.state.ActiveCollection),
	}
	if st.TotalAttempts > 0 {
		st.Accuracy = float64(st.Score) / float64(st.TotalAttempts) * 100
	}
	return st
}

// Snapshot returns the state shown to the user.
func (s *Session) Snapshot() Snapshot {
	s.lock()
	defer s.mu.Unlock()

	st := s.state
	if st.CurrentWord != nil {
		w := *st.CurrentWord
		st.CurrentWord = &w
	}

	levels := make([]string, 0, len(domain.Levels)+1)
	levels = append(levels, domain.AllFilter)
	for _, l := range domain.Levels {
		levels = append(levels, string(l))
	}

	names := s.collections.Names()
	collections := make([]CollectionSummary, 0, len(names))
	for _, n := range names {
		collections = append(collections, CollectionSummary{Name: n, Size: s.collections.Len(n)})
	}

	return Snapshot{
		ID:                  s.id,
		State:               st,
		Mode:                st.Mode(),
		Filters:             s.filters,
		Stats:               s.statsLocked(),
		Categories:          append([]string{domain.AllFilter}, s.store.Categories()...),
		Levels:              levels,
		Collections:         collections,
		AutoAdvancePending:  s.timer != nil,
		GenerationAvailable: s.canGenerate,
	}
}

// Vocabulary returns the full word history in insertion order.
func (s *Session) Vocabulary() []domain.VocabularyEntry {
	s.lock()
	defer s.mu.Unlock()
	return s.store.All()
}

// ExportHistory serializes the word history as CSV.
func (s *Session) ExportHistory() ([]byte, error) {
	s.lock()
	defer s.mu.Unlock()
	return s.store.ExportHistory()
}
