// Package config handles configuration loading, parsing, and validation
// from defaults, an optional config.yaml and VOCAB_-prefixed environment
// variables. It provides type-safe access to application settings needed by
// different components while keeping configuration details separate from
// the trainer logic.
package config
