package generation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/phrazzld/vocab-api/internal/domain"
)

// WordSchema is the JSON object a model is asked to return. Pointer fields
// distinguish missing keys from empty values.
type WordSchema struct {
	German   *string `json:"german"`
	English  *string `json:"english"`
	Article  *string `json:"article"`
	Category *string `json:"category"`
	Level    *string `json:"level"`
}

var (
	objectPattern = regexp.MustCompile(`(?s)\{.*\}`)
	fencePattern  = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// ParseWordResponse turns raw model output into a validated entry.
//
// The output may be a JSON object, a JSON array whose first element is the
// object, or prose/markdown around a single object. When the level key is
// missing and requested is set, the requested level is used. Every failure
// wraps ErrInvalidResponse or domain.ErrMalformedGeneratedEntry.
func ParseWordResponse(text string, requested domain.Level) (domain.VocabularyEntry, error) {
	text = strings.TrimSpace(text)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	if text == "" {
		return domain.VocabularyEntry{}, fmt.Errorf("%w: empty response", ErrInvalidResponse)
	}

	schema, err := decodeWordSchema(text)
	if err != nil {
		match := objectPattern.FindString(text)
		if match == "" {
			return domain.VocabularyEntry{}, fmt.Errorf("%w: no JSON object in response", ErrInvalidResponse)
		}
		schema, err = decodeWordSchema(match)
		if err != nil {
			return domain.VocabularyEntry{}, fmt.Errorf("%w: failed to parse JSON response: %v", ErrInvalidResponse, err)
		}
	}

	if schema.Level == nil && requested != "" {
		lvl := string(requested)
		schema.Level = &lvl
	}

	return schema.ToEntry()
}

func decodeWordSchema(text string) (WordSchema, error) {
	var raw json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return WordSchema{}, err
	}

	// A list of words is accepted; only the first is used.
	if strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return WordSchema{}, err
		}
		if len(list) == 0 {
			return WordSchema{}, fmt.Errorf("empty list")
		}
		raw = list[0]
	}

	var schema WordSchema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return WordSchema{}, err
	}
	return schema, nil
}

// ToEntry checks that all five keys are present, normalizes them and
// validates the result as a generated entry.
func (s WordSchema) ToEntry() (domain.VocabularyEntry, error) {
	missing := make([]string, 0, 5)
	for key, v := range map[string]*string{
		"german":   s.German,
		"english":  s.English,
		"article":  s.Article,
		"category": s.Category,
		"level":    s.Level,
	} {
		if v == nil {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return domain.VocabularyEntry{}, fmt.Errorf("%w: missing keys %s",
			ErrInvalidResponse, strings.Join(missing, ", "))
	}

	entry := domain.VocabularyEntry{
		German:   strings.TrimSpace(*s.German),
		English:  strings.TrimSpace(*s.English),
		Article:  domain.Article(strings.ToLower(strings.TrimSpace(*s.Article))),
		Category: strings.TrimSpace(*s.Category),
		Level:    domain.Level(strings.ToUpper(strings.TrimSpace(*s.Level))),
	}
	if err := entry.ValidateGenerated(); err != nil {
		return domain.VocabularyEntry{}, err
	}
	return entry, nil
}
