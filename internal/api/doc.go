// Package api serves the trainer over HTTP. Handlers resolve the caller's
// session from the request context, run one session command, persist the
// snapshot and translate domain errors into status codes and safe
// messages.
package api
