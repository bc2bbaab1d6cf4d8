package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// It is usually wrapped with the failing field.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateWord is returned when a word with the same German form
	// is already part of the vocabulary.
	ErrDuplicateWord = errors.New("word already exists in vocabulary")

	// ErrDuplicateCollectionName is returned when a collection name is taken.
	ErrDuplicateCollectionName = errors.New("collection with this name already exists")

	// ErrEmptyName is returned when a collection name is blank after trimming.
	ErrEmptyName = errors.New("collection name cannot be empty")

	// ErrCollectionNotFound is returned for operations on an unknown collection.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrAlreadyInCollection signals that the word is already saved in the collection.
	// Callers treat it as an informational notice, not a failure.
	ErrAlreadyInCollection = errors.New("word is already in this collection")

	// ErrEmptyCollection is returned when a word is requested from an empty collection.
	ErrEmptyCollection = errors.New("collection is empty")

	// ErrMalformedGeneratedEntry is returned when the language model produced
	// something that is not a complete vocabulary entry.
	ErrMalformedGeneratedEntry = errors.New("malformed generated entry")

	// ErrGeneratorUnavailable is returned when no word generator is configured
	// or its credentials are rejected.
	ErrGeneratorUnavailable = errors.New("word generator unavailable")

	// ErrNoWordAvailable is returned when no current word can be produced at all.
	ErrNoWordAvailable = errors.New("no word available")

	// ErrNoCurrentWord is returned by operations that need a current word.
	ErrNoCurrentWord = errors.New("no current word")

	// ErrInvalidLevel is returned for a level outside the CEFR scale.
	ErrInvalidLevel = errors.New("invalid CEFR level")

	// ErrInvalidArticle is returned for an article other than der, die, das or none.
	ErrInvalidArticle = errors.New("invalid article")

	// ErrAnswerNotRevealed is returned when example sentences are requested
	// before the answer was revealed.
	ErrAnswerNotRevealed = errors.New("answer has not been revealed")
)
