// Package domain contains the core vocabulary entities, value objects, and
// sentinel errors of the trainer. It has no knowledge of sessions, storage,
// or the language model that produces new words.
package domain
