package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	PagegestAPIKey string

	// Search index
	SearchEndpoint string
	SearchAPIKey   string
	SearchIndex    string

	// Embeddings
	EmbeddingProvider   string
	OpenAIAPIKey        string
	OpenAIEndpoint      string
	EmbeddingModel      string
	EmbeddingDimensions int
	EmbeddingRPS        float64

	// Answer synthesis
	AnthropicAPIKey     string
	AnthropicModel      string
	ModelTokenLimit     int
	MaxCompletionTokens int
	BudgetMargin        float64
	RetrieveTopK        int

	// Worker pool
	WorkerCount        int
	MaxQueueSize       int
	MaxConcurrentIndex int

	// Upload limits
	MaxUploadBytes int64

	// Local analyzer
	PageRunes            int
	PDFFallbackPdftotext bool
	LinearizeWorkers     int

	// Job state
	JobTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		PagegestAPIKey: os.Getenv("PAGEGEST_API_KEY"),

		SearchEndpoint: os.Getenv("SEARCH_ENDPOINT"),
		SearchAPIKey:   os.Getenv("SEARCH_API_KEY"),
		SearchIndex:    envOr("SEARCH_INDEX", "gptkbindex"),

		EmbeddingProvider:   envOr("EMBEDDING_PROVIDER", "azure"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIEndpoint:      os.Getenv("OPENAI_ENDPOINT"),
		EmbeddingModel:      envOr("EMBEDDING_MODEL", "text-embedding-ada-002"),
		EmbeddingDimensions: envInt("EMBEDDING_DIMENSIONS", 1536),
		EmbeddingRPS:        envFloat("EMBEDDING_RPS", 10),

		AnthropicAPIKey:     os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:      envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		ModelTokenLimit:     envInt("MODEL_TOKEN_LIMIT", 4096),
		MaxCompletionTokens: envInt("MAX_COMPLETION_TOKENS", 1000),
		BudgetMargin:        envFloat("BUDGET_MARGIN", 0.9),
		RetrieveTopK:        envInt("RETRIEVE_TOP_K", 3),

		WorkerCount:        envInt("WORKER_COUNT", 4),
		MaxQueueSize:       envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentIndex: envInt("MAX_CONCURRENT_INDEX", 5),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		PageRunes:            envInt("PAGE_RUNES", 4000),
		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
		LinearizeWorkers:     envInt("LINEARIZE_WORKERS", 1),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),
	}

	if cfg.EmbeddingDimensions <= 0 {
		cfg.EmbeddingDimensions = 1536
	}
	if cfg.EmbeddingRPS < 0 {
		cfg.EmbeddingRPS = 0
	}
	if cfg.ModelTokenLimit <= 0 {
		cfg.ModelTokenLimit = 4096
	}
	if cfg.MaxCompletionTokens <= 0 {
		cfg.MaxCompletionTokens = 1000
	}
	if cfg.BudgetMargin <= 0 || cfg.BudgetMargin > 1 {
		cfg.BudgetMargin = 0.9
	}
	if cfg.RetrieveTopK <= 0 {
		cfg.RetrieveTopK = 3
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentIndex <= 0 {
		cfg.MaxConcurrentIndex = 5
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.PageRunes <= 0 {
		cfg.PageRunes = 4000
	}
	if cfg.LinearizeWorkers <= 0 {
		cfg.LinearizeWorkers = 1
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// ValidateIndexing checks what ingestion needs: the search index and the
// embedding endpoint.
func (c Config) ValidateIndexing() error {
	var errs []error
	if c.SearchEndpoint == "" {
		errs = append(errs, fmt.Errorf("SEARCH_ENDPOINT is required"))
	}
	if c.SearchAPIKey == "" {
		errs = append(errs, fmt.Errorf("SEARCH_API_KEY is required"))
	}
	if c.OpenAIAPIKey == "" {
		errs = append(errs, fmt.Errorf("OPENAI_API_KEY is required"))
	}
	switch c.EmbeddingProvider {
	case "azure":
		if c.OpenAIEndpoint == "" {
			errs = append(errs, fmt.Errorf("OPENAI_ENDPOINT is required for the azure provider"))
		}
	case "openai":
	default:
		errs = append(errs, fmt.Errorf("EMBEDDING_PROVIDER must be azure or openai, got %q", c.EmbeddingProvider))
	}
	return errors.Join(errs...)
}

// ValidateAsk checks what answering needs on top of indexing.
func (c Config) ValidateAsk() error {
	err := c.ValidateIndexing()
	if c.AnthropicAPIKey == "" {
		err = errors.Join(err, fmt.Errorf("ANTHROPIC_API_KEY is required"))
	}
	return err
}

// Validate checks the full server configuration.
func (c Config) Validate() error {
	err := c.ValidateAsk()
	if c.PagegestAPIKey == "" {
		err = errors.Join(err, fmt.Errorf("PAGEGEST_API_KEY is required"))
	}
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
