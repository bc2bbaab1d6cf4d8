// Package gemini implements generation.Provider on Google's Gemini API.
//
// Word requests ask for a JSON response and are parsed leniently by
// generation.ParseWordResponse; example sentence requests return plain text.
// Transient API failures are retried with exponential backoff and jitter,
// while blocked content and malformed output fail immediately.
package gemini
