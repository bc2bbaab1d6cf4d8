package domain

import (
	"fmt"
	"strings"
)

// AllFilter is the sentinel filter value meaning "no constraint".
// It is never a real category or level.
const AllFilter = "All"

// Filter constrains a vocabulary listing. Empty fields are unconstrained.
type Filter struct {
	Category string
	Level    Level
}

// Matches reports whether e satisfies both constraints.
func (f Filter) Matches(e VocabularyEntry) bool {
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Level != "" && e.Level != f.Level {
		return false
	}
	return true
}

// IsEmpty reports whether the filter constrains nothing.
func (f Filter) IsEmpty() bool {
	return f.Category == "" && f.Level == ""
}

// FilterState is the user's category and level selection. Both default to AllFilter.
type FilterState struct {
	Category string `json:"category"`
	Level    string `json:"level"`
}

// DefaultFilterState returns the unconstrained selection.
func DefaultFilterState() FilterState {
	return FilterState{Category: AllFilter, Level: AllFilter}
}

// NewFilterState validates and normalizes a selection. Blank values become
// AllFilter; the level must be AllFilter or a CEFR code.
func NewFilterState(category, level string) (FilterState, error) {
	fs := FilterState{
		Category: strings.TrimSpace(category),
		Level:    strings.TrimSpace(level),
	}
	if fs.Category == "" || strings.EqualFold(fs.Category, AllFilter) {
		fs.Category = AllFilter
	}
	if fs.Level == "" || strings.EqualFold(fs.Level, AllFilter) {
		fs.Level = AllFilter
	} else {
		l, err := ParseLevel(fs.Level)
		if err != nil {
			return FilterState{}, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		fs.Level = string(l)
	}
	return fs, nil
}

// Constraints translates the AllFilter sentinel into an unconstrained Filter.
func (fs FilterState) Constraints() Filter {
	var f Filter
	if fs.Category != AllFilter {
		f.Category = fs.Category
	}
	if fs.Level != AllFilter {
		f.Level = Level(fs.Level)
	}
	return f
}
