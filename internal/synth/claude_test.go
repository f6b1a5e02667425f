package synth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgallion1/pagegest/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaudeClient_Complete(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"content":[{"type":"text","text":"Revenue grew "},{"type":"text","text":"12%."}]}`))
	}))
	defer srv.Close()

	c := NewClaudeClient("k", "claude-test").WithBaseURL(srv.URL)
	out, err := c.Complete(context.Background(), "sys", "question?", 256)
	require.NoError(t, err)
	assert.Equal(t, "Revenue grew 12%.", out)

	assert.Equal(t, "claude-test", got.Model)
	assert.Equal(t, 256, got.MaxTokens)
	assert.Equal(t, "sys", got.System)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "question?", got.Messages[0].Content)

	assert.Equal(t, 1, c.Stats.Snapshot().Count)
	assert.Equal(t, "claude-test", c.Model())
}

func TestClaudeClient_OverloadedIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(529)
		w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
	}))
	defer srv.Close()

	c := NewClaudeClient("k", "m").WithBaseURL(srv.URL)
	_, err := c.Complete(context.Background(), "", "q", 10)
	require.Error(t, err)
	assert.True(t, retry.IsRetryable(err))
	assert.Equal(t, 1, c.Stats.Snapshot().Failures)
}

func TestClaudeClient_BadRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens too large"}}`))
	}))
	defer srv.Close()

	c := NewClaudeClient("k", "m").WithBaseURL(srv.URL)
	_, err := c.Complete(context.Background(), "", "q", 10)
	require.Error(t, err)
	assert.False(t, retry.IsRetryable(err))
	assert.Contains(t, err.Error(), "max_tokens too large")
}

func TestClaudeClient_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	c := NewClaudeClient("k", "m").WithBaseURL(srv.URL)
	_, err := c.Complete(context.Background(), "", "q", 10)
	assert.ErrorContains(t, err, "empty response")
}
