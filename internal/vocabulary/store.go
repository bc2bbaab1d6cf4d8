package vocabulary

import (
	"fmt"
	"sort"

	"github.com/phrazzld/vocab-api/internal/domain"
)

// Store is an insertion-ordered vocabulary with O(1) duplicate detection.
// It is not safe for concurrent use; the owning session serializes access.
type Store struct {
	entries []domain.VocabularyEntry
	index   map[string]struct{}
}

// NewStore creates a store pre-filled with seed. Duplicates within seed are
// skipped, keeping the first occurrence.
func NewStore(seed ...domain.VocabularyEntry) *Store {
	s := &Store{
		entries: make([]domain.VocabularyEntry, 0, len(seed)),
		index:   make(map[string]struct{}, len(seed)),
	}
	for _, e := range seed {
		_ = s.Add(e)
	}
	return s
}

// Contains reports whether german is already part of the vocabulary.
// The comparison is exact and case-sensitive.
func (s *Store) Contains(german string) bool {
	_, ok := s.index[german]
	return ok
}

// Add appends entry. It returns domain.ErrDuplicateWord and leaves the store
// unchanged if a word with the same German form exists.
func (s *Store) Add(entry domain.VocabularyEntry) error {
	if s.Contains(entry.German) {
		return fmt.Errorf("%w: %q", domain.ErrDuplicateWord, entry.German)
	}
	s.entries = append(s.entries, entry)
	s.index[entry.German] = struct{}{}
	return nil
}

// Len returns the number of words.
func (s *Store) Len() int {
	return len(s.entries)
}

// All returns a copy of every entry in insertion order.
func (s *Store) All() []domain.VocabularyEntry {
	out := make([]domain.VocabularyEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// GermanWords returns the German form of every entry in insertion order.
func (s *Store) GermanWords() []string {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.German
	}
	return out
}

// Filtered returns the entries matching f in insertion order. An empty
// filter returns everything.
func (s *Store) Filtered(f domain.Filter) []domain.VocabularyEntry {
	out := make([]domain.VocabularyEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// Categories returns the distinct non-empty categories, sorted.
func (s *Store) Categories() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, e := range s.entries {
		if e.Category == "" {
			continue
		}
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	sort.Strings(out)
	return out
}
