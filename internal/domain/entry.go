package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Level is a CEFR proficiency level.
type Level string

// CEFR levels from absolute beginner to proficiency.
const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

// Levels lists every CEFR level in ascending order.
var Levels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// IsValid reports whether l is one of the six CEFR codes.
func (l Level) IsValid() bool {
	for _, v := range Levels {
		if l == v {
			return true
		}
	}
	return false
}

// ParseLevel converts a string into a Level.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if !l.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
	return l, nil
}

// Article is the grammatical article of a German noun. Words that are not
// nouns carry ArticleNone.
type Article string

// Supported articles.
const (
	ArticleDer  Article = "der"
	ArticleDie  Article = "die"
	ArticleDas  Article = "das"
	ArticleNone Article = ""
)

// IsValid reports whether a is der, die, das or empty.
func (a Article) IsValid() bool {
	switch a {
	case ArticleDer, ArticleDie, ArticleDas, ArticleNone:
		return true
	}
	return false
}

// VocabularyEntry is a single German word with its translation and tags.
// Entries are immutable by convention once they enter the vocabulary.
// Two entries are the same word when their German forms match exactly.
type VocabularyEntry struct {
	German   string  `json:"german" validate:"required"`
	English  string  `json:"english" validate:"required"`
	Article  Article `json:"article" validate:"omitempty,oneof=der die das"`
	Category string  `json:"category"`
	Level    Level   `json:"level" validate:"required,oneof=A1 A2 B1 B2 C1 C2"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewVocabularyEntry builds an entry from user-entered fields. All values are
// trimmed, the article is lower-cased and an empty level defaults to A1.
// Category may be empty for manually entered words.
func NewVocabularyEntry(german, english, article, category, level string) (VocabularyEntry, error) {
	e := VocabularyEntry{
		German:   strings.TrimSpace(german),
		English:  strings.TrimSpace(english),
		Article:  Article(strings.ToLower(strings.TrimSpace(article))),
		Category: strings.TrimSpace(category),
		Level:    Level(strings.ToUpper(strings.TrimSpace(level))),
	}
	if e.Level == "" {
		e.Level = LevelA1
	}

	if err := e.Validate(); err != nil {
		return VocabularyEntry{}, err
	}
	return e, nil
}

// Validate checks the fields every entry must satisfy.
func (e VocabularyEntry) Validate() error {
	if strings.TrimSpace(e.German) == "" {
		return fmt.Errorf("%w: german is required", ErrValidation)
	}
	if strings.TrimSpace(e.English) == "" {
		return fmt.Errorf("%w: english is required", ErrValidation)
	}
	// Line breaks would not survive a CSV export and re-import.
	for _, f := range []struct{ name, value string }{
		{"german", e.German},
		{"english", e.English},
		{"category", e.Category},
	} {
		if strings.IndexFunc(f.value, unicode.IsControl) >= 0 {
			return fmt.Errorf("%w: %s contains control characters", ErrValidation, f.name)
		}
	}

	if err := validate.Struct(e); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		switch verrs[0].Field() {
		case "Level":
			return fmt.Errorf("%w: %w: %q", ErrValidation, ErrInvalidLevel, e.Level)
		case "Article":
			return fmt.Errorf("%w: %w: %q", ErrValidation, ErrInvalidArticle, e.Article)
		default:
			return fmt.Errorf("%w: %s failed on %s", ErrValidation,
				strings.ToLower(verrs[0].Field()), verrs[0].Tag())
		}
	}
	return nil
}

// ValidateGenerated applies the stricter rules for entries produced by the
// language model: on top of Validate, the category must be present.
// Every failure wraps ErrMalformedGeneratedEntry.
func (e VocabularyEntry) ValidateGenerated() error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedGeneratedEntry, err)
	}
	if strings.TrimSpace(e.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrMalformedGeneratedEntry)
	}
	return nil
}

// IsZero reports whether e is the empty entry.
func (e VocabularyEntry) IsZero() bool {
	return e == VocabularyEntry{}
}

// SameWord reports whether e and other denote the same German word.
func (e VocabularyEntry) SameWord(other VocabularyEntry) bool {
	return e.German == other.German
}
