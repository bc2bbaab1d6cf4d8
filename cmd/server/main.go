// Package main implements the entry point for the vocab-api server, a German
// vocabulary trainer that draws new words from a generative language model.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd creates the root command with the serve and migrate subcommands.
func newRootCmd() *cobra.Command {
	var configDir string

	root := &cobra.Command{
		Use:   "vocab-api",
		Short: "German vocabulary trainer API",
		Long: `vocab-api serves a flashcard trainer for German vocabulary.

New words come from Gemini or an OpenAI-compatible model. Each client
session keeps its own vocabulary, collections, filters and score.
Configuration is read from config.yaml and VOCAB_* environment variables.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory containing config.yaml")

	root.AddCommand(newServeCmd(&configDir))
	root.AddCommand(newMigrateCmd(&configDir))
	return root
}
