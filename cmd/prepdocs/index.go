package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/dgallion1/pagegest/internal/config"
	"github.com/dgallion1/pagegest/internal/indexer"
	"github.com/dgallion1/pagegest/internal/layout"
	"github.com/dgallion1/pagegest/internal/parser"
	"github.com/dgallion1/pagegest/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	analysisInput bool
	locationBase  string
)

var indexCmd = &cobra.Command{
	Use:   "index <file>...",
	Short: "Index documents into the search index",
	Long: `Index linearizes, embeds and uploads every page of each file. A page that
fails is reported and skipped; the command fails only when every document
failed.

With --analysis each file is a layout analysis JSON document instead of a
source file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if err := cfg.ValidateIndexing(); err != nil {
			return err
		}
		log := newLogger()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		idx := newIndex(cfg)
		defer idx.Close()
		if err := idx.EnsureIndex(ctx, cfg.EmbeddingDimensions); err != nil {
			log.Warn("could not ensure search index", "index", idx.Index(), "error", err)
		}

		jobs := loadJobs(args, analysisInput, locationBase)

		ix := indexer.New(newEmbedder(cfg), idx, log, cfg.MaxConcurrentIndex)
		w := pipeline.NewWorker(ix, log, parser.Options{
			PageRunes:         cfg.PageRunes,
			FallbackPdftotext: cfg.PDFFallbackPdftotext,
		}, pipeline.WithLinearizeWorkers(cfg.LinearizeWorkers))
		sum := pipeline.RunBatch(ctx, w, jobs)
		printSummary(cmd.OutOrStdout(), sum)
		if sum.AllFailed() {
			return fmt.Errorf("all %d documents failed", sum.Documents)
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&analysisInput, "analysis", false, "Treat inputs as layout analysis JSON")
	indexCmd.Flags().StringVar(&locationBase, "location", "", "Base URL recorded as each page's source location")
	rootCmd.AddCommand(indexCmd)
}

// loadJobs turns every path into a job. An input that cannot be read or
// decoded becomes a failed job so the rest of the batch still runs.
func loadJobs(paths []string, analysis bool, base string) []*pipeline.Job {
	jobs := make([]*pipeline.Job, 0, len(paths))
	for _, path := range paths {
		name := filepath.Base(path)
		if analysis {
			name = strings.TrimSuffix(name, filepath.Ext(name))
		}

		job := loadJob(path, name, analysis)
		if base != "" {
			job.SourceLocation = strings.TrimRight(base, "/") + "/" + job.SourceName
		}
		jobs = append(jobs, job)
	}
	return jobs
}

func loadJob(path, name string, analysis bool) *pipeline.Job {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.NewFailedJob(name, "reading", err)
	}
	if !analysis {
		return pipeline.NewJob(name, "", data)
	}
	res, err := layout.ParseAnalysisResult(data)
	if err != nil {
		return pipeline.NewFailedJob(name, "reading", fmt.Errorf("%s: %w", path, err))
	}
	return pipeline.NewAnalysisJob(name, res)
}

func printSummary(out io.Writer, sum pipeline.BatchSummary) {
	fmt.Fprintf(out, "documents: %d  completed: %d  partial: %d  failed: %d\n",
		sum.Documents, sum.Completed, sum.Partial, len(sum.Failed))
	for _, f := range sum.Failed {
		fmt.Fprintf(out, "  failed  %s: %s\n", f.Source, f.Error)
	}
	for _, p := range sum.FailedPages {
		fmt.Fprintf(out, "  page    %s p%d (%s): %s\n", p.Source, p.PageNumber, p.Stage, p.Error)
	}
}
