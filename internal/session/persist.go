package session

import (
	"fmt"

	"github.com/phrazzld/vocab-api/internal/collection"
	"github.com/phrazzld/vocab-api/internal/domain"
)

// Data returns a consistent copy of everything needed to restore the
// session. A pending auto-advance is not part of it.
func (s *Session) Data() Data {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := s.collections.Names()
	collections := make([]CollectionData, 0, len(names))
	for _, n := range names {
		words, _ := s.collections.Members(n)
		collections = append(collections, CollectionData{Name: n, Words: words})
	}

	st := s.state
	if st.CurrentWord != nil {
		w := *st.CurrentWord
		st.CurrentWord = &w
	}

	return Data{
		Vocabulary:  s.store.All(),
		Collections: collections,
		Filters:     s.filters,
		State:       st,
	}
}

// Restore rebuilds a session from persisted data. Seed in opts is ignored.
// Inconsistent data fails with ErrInvalidSnapshot.
func Restore(id string, data Data, opts Options) (*Session, error) {
	s := newSession(id, opts)

	for _, e := range data.Vocabulary {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("%w: vocabulary: %w", ErrInvalidSnapshot, err)
		}
		if err := s.store.Add(e); err != nil {
			return nil, fmt.Errorf("%w: vocabulary: %w", ErrInvalidSnapshot, err)
		}
	}

	for _, c := range data.Collections {
		if c.Name != collection.DefaultName {
			if _, err := s.collections.Create(c.Name); err != nil {
				return nil, fmt.Errorf("%w: collections: %w", ErrInvalidSnapshot, err)
			}
		}
		for _, w := range c.Words {
			if !s.store.Contains(w.German) {
				return nil, fmt.Errorf("%w: collection %q references unknown word %q", ErrInvalidSnapshot, c.Name, w.German)
			}
			if err := s.collections.Add(c.Name, w); err != nil {
				return nil, fmt.Errorf("%w: collections: %w", ErrInvalidSnapshot, err)
			}
		}
	}

	filters, err := domain.NewFilterState(data.Filters.Category, data.Filters.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: filters: %w", ErrInvalidSnapshot, err)
	}
	s.filters = filters

	st := data.State
	if st.ActiveCollection == "" {
		st.ActiveCollection = collection.DefaultName
	}
	if !s.collections.Exists(st.ActiveCollection) {
		return nil, fmt.Errorf("%w: unknown active collection %q", ErrInvalidSnapshot, st.ActiveCollection)
	}
	if st.Viewing && s.collections.IsEmpty(st.ActiveCollection) {
		st.Viewing = false
	}
	if st.CurrentWord != nil && !s.store.Contains(st.CurrentWord.German) {
		return nil, fmt.Errorf("%w: current word %q is not in the vocabulary", ErrInvalidSnapshot, st.CurrentWord.German)
	}
	if st.Score < 0 || st.TotalAttempts < 0 || st.Score > st.TotalAttempts {
		return nil, fmt.Errorf("%w: score %d/%d", ErrInvalidSnapshot, st.Score, st.TotalAttempts)
	}
	switch st.LastFeedback {
	case FeedbackCorrect, FeedbackIncorrect, FeedbackNone:
	default:
		st.LastFeedback = FeedbackNone
	}
	s.state = st

	return s, nil
}
