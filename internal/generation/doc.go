// Package generation provides interfaces and shared plumbing for the
// external AI/LLM services that produce vocabulary content. It abstracts the
// LLM API integration (Gemini, OpenAI-compatible endpoints) so that the
// session state machine can request new words and example sentences without
// coupling to a specific provider.
//
// The package owns the prompt templates, the lenient parsing of model output
// into strict domain.VocabularyEntry values, and decorators such as rate
// limiting. Provider adapters live under internal/platform.
package generation
