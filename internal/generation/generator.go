package generation

import (
	"context"
	"fmt"

	"github.com/phrazzld/vocab-api/internal/domain"
)

// WordRequest parameterizes a request for one new word. Empty Category or
// Level means unconstrained.
type WordRequest struct {
	Category string
	Level    domain.Level
	// Avoid lists German words the model must not suggest.
	Avoid []string
}

// WordGenerator defines the interface for generating new vocabulary.
// This interface serves as a boundary between the session core and
// external AI/LLM services, following the hexagonal architecture pattern.
type WordGenerator interface {
	// GenerateWord asks the model for one vocabulary entry matching req.
	// Implementations return the parsed candidate; shape errors wrap
	// ErrInvalidResponse and provider outages wrap ErrTransientFailure or
	// domain.ErrGeneratorUnavailable. Callers still validate the result.
	GenerateWord(ctx context.Context, req WordRequest) (domain.VocabularyEntry, error)
}

// ExampleProvider produces example sentences for a word after its answer
// has been revealed.
type ExampleProvider interface {
	// GenerateExamples returns free-form text with sentences using entry,
	// pitched at entry.Level.
	GenerateExamples(ctx context.Context, entry domain.VocabularyEntry) (string, error)
}

// Provider is implemented by adapters that serve both purposes.
type Provider interface {
	WordGenerator
	ExampleProvider
}

// Unavailable is the Provider used when no LLM is configured. Every call
// fails with domain.ErrGeneratorUnavailable, which leaves the trainer in
// browse and manual-entry mode.
type Unavailable struct {
	// Reason is included in returned errors.
	Reason string
}

var _ Provider = Unavailable{}

// GenerateWord implements WordGenerator.
func (u Unavailable) GenerateWord(context.Context, WordRequest) (domain.VocabularyEntry, error) {
	return domain.VocabularyEntry{}, u.err()
}

// GenerateExamples implements ExampleProvider.
func (u Unavailable) GenerateExamples(context.Context, domain.VocabularyEntry) (string, error) {
	return "", u.err()
}

func (u Unavailable) err() error {
	if u.Reason == "" {
		return domain.ErrGeneratorUnavailable
	}
	return fmt.Errorf("%w: %s", domain.ErrGeneratorUnavailable, u.Reason)
}
