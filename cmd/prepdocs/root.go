package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/pagegest/internal/config"
	"github.com/dgallion1/pagegest/internal/embed"
	"github.com/dgallion1/pagegest/internal/searchindex"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "prepdocs",
	Short: "Index documents page by page and answer questions from them",
	Long: `prepdocs linearizes documents into per-page text, embeds each page and
uploads it to the search index. Configuration comes from the same
environment variables as the pagegest server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newEmbedder(cfg config.Config) *embed.OpenAIClient {
	return embed.NewOpenAIClient(embed.Config{
		Provider:   embed.Provider(cfg.EmbeddingProvider),
		APIKey:     cfg.OpenAIAPIKey,
		Endpoint:   cfg.OpenAIEndpoint,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
		RPS:        cfg.EmbeddingRPS,
	})
}

func newIndex(cfg config.Config) *searchindex.Client {
	return searchindex.NewClient(cfg.SearchEndpoint, cfg.SearchAPIKey, cfg.SearchIndex)
}
