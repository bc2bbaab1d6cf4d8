// Package session implements the trainer's per-user state machine.
//
// A Session owns an isolated vocabulary store, collection manager, filter
// selection and quiz state. Every command runs under the session lock, so at
// most one state transition (including its generation call) is in flight.
// Advance is the single place a new current word is chosen; it degrades from
// a freshly generated word to existing words so the user is never left
// without a card while any word exists.
//
// Registry maps session IDs to sessions and optionally persists them through
// a SnapshotStore.
package session
