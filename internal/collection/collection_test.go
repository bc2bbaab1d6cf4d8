package collection

import (
	"math/rand"
	"testing"

	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	hund  = domain.VocabularyEntry{German: "der Hund", English: "dog", Article: domain.ArticleDer, Category: "animals", Level: domain.LevelA1}
	katze = domain.VocabularyEntry{German: "die Katze", English: "cat", Article: domain.ArticleDie, Category: "animals", Level: domain.LevelA1}
)

func newManager() *Manager {
	return NewManager(rand.New(rand.NewSource(1)))
}

func TestNewManagerHasDefault(t *testing.T) {
	t.Parallel()

	m := newManager()
	assert.Equal(t, []string{DefaultName}, m.Names())
	assert.True(t, m.IsEmpty(DefaultName))
}

func TestCreate(t *testing.T) {
	t.Parallel()

	m := newManager()

	name, err := m.Create("  Tiere  ")
	require.NoError(t, err)
	assert.Equal(t, "Tiere", name)

	_, err = m.Create("Tiere")
	assert.ErrorIs(t, err, domain.ErrDuplicateCollectionName)

	_, err = m.Create("tiere")
	assert.NoError(t, err, "names are case-sensitive")

	_, err = m.Create("   ")
	assert.ErrorIs(t, err, domain.ErrEmptyName)

	_, err = m.Create(DefaultName)
	assert.ErrorIs(t, err, domain.ErrDuplicateCollectionName)

	assert.Equal(t, []string{DefaultName, "Tiere", "tiere"}, m.Names())
}

func TestAdd(t *testing.T) {
	t.Parallel()

	m := newManager()
	require.NoError(t, m.Add(DefaultName, hund))

	err := m.Add(DefaultName, hund)
	assert.ErrorIs(t, err, domain.ErrAlreadyInCollection)
	assert.Equal(t, 1, m.Len(DefaultName))

	require.NoError(t, m.Add(DefaultName, katze))
	members, err := m.Members(DefaultName)
	require.NoError(t, err)
	assert.Equal(t, []domain.VocabularyEntry{hund, katze}, members)

	err = m.Add("missing", hund)
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestAddUsesFullValueEquality(t *testing.T) {
	t.Parallel()

	m := newManager()
	require.NoError(t, m.Add(DefaultName, hund))

	variant := hund
	variant.English = "hound"
	assert.NoError(t, m.Add(DefaultName, variant))
	assert.Equal(t, 2, m.Len(DefaultName))
}

func TestRandomMember(t *testing.T) {
	t.Parallel()

	m := newManager()

	_, err := m.RandomMember(DefaultName)
	assert.ErrorIs(t, err, domain.ErrEmptyCollection)

	_, err = m.RandomMember("missing")
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)

	require.NoError(t, m.Add(DefaultName, hund))
	require.NoError(t, m.Add(DefaultName, katze))

	picked := make(map[string]int)
	for i := 0; i < 200; i++ {
		e, err := m.RandomMember(DefaultName)
		require.NoError(t, err)
		picked[e.German]++
	}
	assert.Len(t, picked, 2, "both members should be picked over 200 draws")
}

func TestMembersReturnsCopy(t *testing.T) {
	t.Parallel()

	m := newManager()
	require.NoError(t, m.Add(DefaultName, hund))

	members, err := m.Members(DefaultName)
	require.NoError(t, err)
	members[0] = katze

	again, err := m.Members(DefaultName)
	require.NoError(t, err)
	assert.Equal(t, hund, again[0])
}
