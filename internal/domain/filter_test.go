package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFilterState(t *testing.T) {
	t.Parallel()

	fs, err := NewFilterState("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultFilterState(), fs)

	fs, err = NewFilterState(" animals ", "a1")
	require.NoError(t, err)
	assert.Equal(t, FilterState{Category: "animals", Level: "A1"}, fs)

	fs, err = NewFilterState("All", "all")
	require.NoError(t, err)
	assert.Equal(t, DefaultFilterState(), fs)

	fs, err = NewFilterState(" all ", "ALL")
	require.NoError(t, err)
	assert.Equal(t, DefaultFilterState(), fs)
	assert.Equal(t, Filter{}, fs.Constraints())

	_, err = NewFilterState("animals", "Z9")
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestFilterStateConstraints(t *testing.T) {
	t.Parallel()

	assert.True(t, DefaultFilterState().Constraints().IsEmpty())

	f := FilterState{Category: "verbs", Level: AllFilter}.Constraints()
	assert.Equal(t, Filter{Category: "verbs"}, f)

	f = FilterState{Category: AllFilter, Level: "B1"}.Constraints()
	assert.Equal(t, Filter{Level: LevelB1}, f)
}

func TestFilterMatches(t *testing.T) {
	t.Parallel()

	hund := VocabularyEntry{German: "der Hund", English: "dog", Category: "animals", Level: LevelA1}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"unconstrained", Filter{}, true},
		{"category match", Filter{Category: "animals"}, true},
		{"category mismatch", Filter{Category: "verbs"}, false},
		{"level match", Filter{Level: LevelA1}, true},
		{"level mismatch", Filter{Level: LevelB2}, false},
		{"both match", Filter{Category: "animals", Level: LevelA1}, true},
		{"one of two mismatches", Filter{Category: "animals", Level: LevelC1}, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.filter.Matches(hund), tc.name)
	}
}
