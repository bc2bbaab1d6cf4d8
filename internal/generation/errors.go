package generation

import (
	"errors"
	"fmt"

	"github.com/phrazzld/vocab-api/internal/domain"
)

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when word generation fails for any general reason
	ErrGenerationFailed = errors.New("failed to generate vocabulary")

	// ErrInvalidResponse is returned when the LLM response cannot be parsed or is malformed.
	// It wraps domain.ErrMalformedGeneratedEntry so callers can treat both alike.
	ErrInvalidResponse = fmt.Errorf("%w: invalid response from language model", domain.ErrMalformedGeneratedEntry)

	// ErrContentBlocked is returned when the LLM blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during generation")

	// ErrRateLimited is returned when the local request budget is exhausted
	ErrRateLimited = fmt.Errorf("%w: rate limit exceeded", ErrTransientFailure)

	// ErrInvalidConfig is returned when the generator configuration is invalid.
	// It wraps domain.ErrGeneratorUnavailable.
	ErrInvalidConfig = fmt.Errorf("%w: invalid generator configuration", domain.ErrGeneratorUnavailable)
)
