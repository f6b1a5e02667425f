package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/pagegest/internal/config"
	"github.com/dgallion1/pagegest/internal/synth"
	"github.com/spf13/cobra"
)

var topK int

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the indexed pages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if err := cfg.ValidateAsk(); err != nil {
			return err
		}
		if topK > 0 {
			cfg.RetrieveTopK = topK
		}
		log := newLogger()

		idx := newIndex(cfg)
		defer idx.Close()
		claude := synth.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		defer claude.Close()

		answerer := synth.NewAnswerer(newEmbedder(cfg), idx, claude, synth.Config{
			TopK:             cfg.RetrieveTopK,
			Ceiling:          cfg.ModelTokenLimit,
			CompletionTokens: cfg.MaxCompletionTokens,
			Margin:           cfg.BudgetMargin,
		}, log)

		ans, err := answerer.Ask(cmd.Context(), strings.Join(args, " "))
		out := cmd.OutOrStdout()
		if errors.Is(err, synth.ErrNoAnswer) {
			fmt.Fprintf(out, "strategy: %s\nNo indexed content matched the question.\n", ans.Strategy)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "strategy: %s\n\n%s\n", ans.Strategy, ans.Text)
		if len(ans.Sources) > 0 {
			fmt.Fprintln(out, "\nsources:")
			for _, s := range ans.Sources {
				fmt.Fprintf(out, "  %s p%d\n", s.SourceName, s.PageNumber)
			}
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <source>",
	Short: "Remove every indexed page of a source document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if err := cfg.ValidateIndexing(); err != nil {
			return err
		}
		idx := newIndex(cfg)
		defer idx.Close()
		n, err := idx.DeleteSource(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d pages of %s\n", n, args[0])
		return nil
	},
}

func init() {
	askCmd.Flags().IntVarP(&topK, "top", "k", 0, "Chunks to retrieve (default RETRIEVE_TOP_K)")
	rootCmd.AddCommand(askCmd, deleteCmd)
}
