package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/pagegest/internal/api"
	"github.com/dgallion1/pagegest/internal/config"
	"github.com/dgallion1/pagegest/internal/embed"
	"github.com/dgallion1/pagegest/internal/indexer"
	"github.com/dgallion1/pagegest/internal/pipeline"
	"github.com/dgallion1/pagegest/internal/searchindex"
	"github.com/dgallion1/pagegest/internal/synth"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	emb := embed.NewOpenAIClient(embed.Config{
		Provider:   embed.Provider(cfg.EmbeddingProvider),
		APIKey:     cfg.OpenAIAPIKey,
		Endpoint:   cfg.OpenAIEndpoint,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
		RPS:        cfg.EmbeddingRPS,
	})
	idx := searchindex.NewClient(cfg.SearchEndpoint, cfg.SearchAPIKey, cfg.SearchIndex)
	if err := idx.EnsureIndex(ctx, cfg.EmbeddingDimensions); err != nil {
		log.Warn("could not ensure search index", "index", idx.Index(), "error", err)
	}
	claude := synth.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)

	// Initialize pipeline.
	ix := indexer.New(emb, idx, log, cfg.MaxConcurrentIndex)
	orch := pipeline.NewOrchestrator(cfg, ix, log)
	orch.Start(ctx)

	answerer := synth.NewAnswerer(emb, idx, claude, synth.Config{
		TopK:             cfg.RetrieveTopK,
		Ceiling:          cfg.ModelTokenLimit,
		CompletionTokens: cfg.MaxCompletionTokens,
		Margin:           cfg.BudgetMargin,
	}, log)

	// Initialize HTTP server.
	srv := api.NewServer(orch, answerer, idx, claude, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		claude.Close()
		idx.Close()
	}()

	log.Info("starting pagegest", "port", cfg.Port, "index", idx.Index())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
