// Package embed turns text into fixed-length vectors via an OpenAI-compatible
// embeddings endpoint.
package embed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgallion1/pagegest/internal/metrics"
	"github.com/dgallion1/pagegest/internal/retry"
	openai "github.com/meguminnnnnnnnn/go-openai"
	"golang.org/x/time/rate"
)

// Embedder produces an embedding vector for one text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Provider selects the flavour of the embeddings endpoint.
type Provider string

const (
	ProviderAzure  Provider = "azure"
	ProviderOpenAI Provider = "openai"
)

// Config configures an OpenAIClient.
type Config struct {
	Provider   Provider
	APIKey     string
	Endpoint   string // Azure resource endpoint, or OpenAI base URL override
	Model      string // model name, or Azure deployment name
	Dimensions int    // expected vector length; 0 disables the check
	RPS        float64
}

// OpenAIClient embeds text through OpenAI or Azure OpenAI.
type OpenAIClient struct {
	client     *openai.Client
	model      string
	dimensions int
	limiter    *rate.Limiter
}

func NewOpenAIClient(cfg Config) *OpenAIClient {
	var oc openai.ClientConfig
	switch cfg.Provider {
	case ProviderAzure:
		oc = openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
		deployment := cfg.Model
		oc.AzureModelMapperFunc = func(string) string { return deployment }
	default:
		oc = openai.DefaultConfig(cfg.APIKey)
		if cfg.Endpoint != "" {
			oc.BaseURL = cfg.Endpoint
		}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), max(int(cfg.RPS), 1))
	}

	return &OpenAIClient{
		client:     openai.NewClientWithConfig(oc),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		limiter:    limiter,
	}
}

// Embed returns the embedding of text. Rate-limit and server errors come
// back as *retry.RetryableError.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embed rate limit: %w", err)
	}

	start := time.Now()
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.model),
	})
	metrics.CollaboratorDuration.WithLabelValues("embedding").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	vec := resp.Data[0].Embedding
	if c.dimensions > 0 && len(vec) != c.dimensions {
		return nil, fmt.Errorf("embedding has %d dimensions, want %d", len(vec), c.dimensions)
	}
	return vec, nil
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && retry.RetryableStatus(apiErr.HTTPStatusCode) {
		return &retry.RetryableError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && retry.RetryableStatus(reqErr.HTTPStatusCode) {
		return &retry.RetryableError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}
	return fmt.Errorf("create embeddings: %w", err)
}
