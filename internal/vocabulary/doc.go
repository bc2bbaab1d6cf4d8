// Package vocabulary holds the authoritative, append-only word list of a
// session together with its history export.
//
// Store is the single gate through which every word, generated or entered
// by hand, joins the vocabulary. It rejects duplicate German forms, keeps
// insertion order (which doubles as the history order used for export) and
// offers filtered views for the selection fallbacks.
package vocabulary
