// Package collection manages the named word lists a user curates on top of
// the vocabulary.
package collection

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/phrazzld/vocab-api/internal/domain"
)

// DefaultName is the collection that always exists.
const DefaultName = "Default"

// Manager keeps collections in creation order, DefaultName first.
// It is not safe for concurrent use; the owning session serializes access.
type Manager struct {
	names   []string
	members map[string][]domain.VocabularyEntry
	rng     *rand.Rand
}

// NewManager creates a manager holding only the empty DefaultName collection.
func NewManager(rng *rand.Rand) *Manager {
	return &Manager{
		names:   []string{DefaultName},
		members: map[string][]domain.VocabularyEntry{DefaultName: nil},
		rng:     rng,
	}
}

// Create adds an empty collection. The name is trimmed; blank names fail with
// domain.ErrEmptyName and taken names (case-sensitive) with
// domain.ErrDuplicateCollectionName. It returns the trimmed name.
func (m *Manager) Create(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrEmptyName
	}
	if m.Exists(name) {
		return "", fmt.Errorf("%w: %q", domain.ErrDuplicateCollectionName, name)
	}
	m.names = append(m.names, name)
	m.members[name] = nil
	return name, nil
}

// Exists reports whether a collection called name exists.
func (m *Manager) Exists(name string) bool {
	_, ok := m.members[name]
	return ok
}

// Add appends entry to the named collection. If an equal entry is already a
// member it returns domain.ErrAlreadyInCollection and changes nothing.
func (m *Manager) Add(name string, entry domain.VocabularyEntry) error {
	members, ok := m.members[name]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrCollectionNotFound, name)
	}
	for _, e := range members {
		if e == entry {
			return fmt.Errorf("%w: %q in %q", domain.ErrAlreadyInCollection, entry.German, name)
		}
	}
	m.members[name] = append(members, entry)
	return nil
}

// Names returns the collection names in creation order.
func (m *Manager) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Len returns the number of words in the named collection, zero if unknown.
func (m *Manager) Len(name string) int {
	return len(m.members[name])
}

// IsEmpty reports whether the named collection has no members.
// Unknown collections are empty.
func (m *Manager) IsEmpty(name string) bool {
	return m.Len(name) == 0
}

// Members returns a copy of the named collection's words in insertion order.
func (m *Manager) Members(name string) ([]domain.VocabularyEntry, error) {
	members, ok := m.members[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrCollectionNotFound, name)
	}
	out := make([]domain.VocabularyEntry, len(members))
	copy(out, members)
	return out, nil
}

// RandomMember picks a uniformly random word from the named collection.
func (m *Manager) RandomMember(name string) (domain.VocabularyEntry, error) {
	members, ok := m.members[name]
	if !ok {
		return domain.VocabularyEntry{}, fmt.Errorf("%w: %q", domain.ErrCollectionNotFound, name)
	}
	if len(members) == 0 {
		return domain.VocabularyEntry{}, fmt.Errorf("%w: %q", domain.ErrEmptyCollection, name)
	}
	return members[m.rng.Intn(len(members))], nil
}
