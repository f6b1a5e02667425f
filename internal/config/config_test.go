package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "SEARCH_INDEX", "BUDGET_MARGIN", "MODEL_TOKEN_LIMIT", "EMBEDDING_PROVIDER", "JOB_TTL", "LINEARIZE_WORKERS"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "gptkbindex", cfg.SearchIndex)
	assert.Equal(t, "azure", cfg.EmbeddingProvider)
	assert.Equal(t, 1536, cfg.EmbeddingDimensions)
	assert.Equal(t, 4096, cfg.ModelTokenLimit)
	assert.Equal(t, 1000, cfg.MaxCompletionTokens)
	assert.InDelta(t, 0.9, cfg.BudgetMargin, 1e-9)
	assert.Equal(t, 3, cfg.RetrieveTopK)
	assert.Equal(t, time.Hour, cfg.JobTTL)
	assert.True(t, cfg.PDFFallbackPdftotext)
	assert.Equal(t, 1, cfg.LinearizeWorkers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BUDGET_MARGIN", "0.75")
	t.Setenv("MODEL_TOKEN_LIMIT", "8192")
	t.Setenv("JOB_TTL", "30m")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")
	t.Setenv("LINEARIZE_WORKERS", "8")

	cfg := Load()
	assert.InDelta(t, 0.75, cfg.BudgetMargin, 1e-9)
	assert.Equal(t, 8192, cfg.ModelTokenLimit)
	assert.Equal(t, 30*time.Minute, cfg.JobTTL)
	assert.False(t, cfg.PDFFallbackPdftotext)
	assert.Equal(t, 8, cfg.LinearizeWorkers)
}

func TestLoad_OutOfRangeMarginFallsBack(t *testing.T) {
	for _, v := range []string{"0", "-1", "1.5", "abc"} {
		t.Setenv("BUDGET_MARGIN", v)
		assert.InDelta(t, 0.9, Load().BudgetMargin, 1e-9, "BUDGET_MARGIN=%s", v)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{EmbeddingProvider: "azure"}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"SEARCH_ENDPOINT", "SEARCH_API_KEY", "OPENAI_API_KEY", "OPENAI_ENDPOINT", "ANTHROPIC_API_KEY", "PAGEGEST_API_KEY"} {
		assert.Contains(t, err.Error(), want)
	}

	cfg = Config{
		PagegestAPIKey:    "k",
		SearchEndpoint:    "https://search",
		SearchAPIKey:      "s",
		EmbeddingProvider: "openai",
		OpenAIAPIKey:      "o",
	}
	assert.NoError(t, cfg.ValidateIndexing())
	assert.Error(t, cfg.ValidateAsk())
	cfg.AnthropicAPIKey = "a"
	assert.NoError(t, cfg.Validate())

	cfg.EmbeddingProvider = "bedrock"
	assert.ErrorContains(t, cfg.Validate(), "EMBEDDING_PROVIDER")
}
