package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgallion1/pagegest/internal/metrics"
	"github.com/dgallion1/pagegest/internal/retry"
	"github.com/sony/gobreaker"
)

const apiVersion = "2023-11-01"

// Client communicates with the search service's REST API.
type Client struct {
	baseURL    string
	apiKey     string
	index      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

func NewClient(endpoint, apiKey, index string) *Client {
	return &Client{
		baseURL: strings.TrimRight(endpoint, "/"),
		apiKey:  apiKey,
		index:   index,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "searchindex-upload",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// Index returns the name of the index this client writes to.
func (c *Client) Index() string {
	return c.index
}

type indexAction struct {
	Action string `json:"@search.action"`
	ChunkDocument
}

type deleteAction struct {
	Action string `json:"@search.action"`
	ID     string `json:"id"`
}

type indexingResult struct {
	Key          string `json:"key"`
	Status       bool   `json:"status"`
	ErrorMessage string `json:"errorMessage"`
	StatusCode   int    `json:"statusCode"`
}

// EnsureIndex creates or updates the chunk index with a vector field of the
// given dimension.
func (c *Client) EnsureIndex(ctx context.Context, dimensions int) error {
	body, err := json.Marshal(IndexSchema(c.index, dimensions))
	if err != nil {
		return fmt.Errorf("marshal index schema: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPut, "/indexes/"+url.PathEscape(c.index), body)
	if err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return statusError("ensure index "+c.index, resp)
	}
	return nil
}

// Upload merges or uploads documents by key, so uploading the same page
// twice overwrites the earlier chunk.
func (c *Client) Upload(ctx context.Context, docs []ChunkDocument) error {
	if len(docs) == 0 {
		return nil
	}
	actions := make([]indexAction, len(docs))
	for i, d := range docs {
		actions[i] = indexAction{Action: "mergeOrUpload", ChunkDocument: d}
	}
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.postActions(ctx, actions)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("upload to %s: %w", c.index, err)
	}
	return err
}

// DeleteSource removes every chunk whose sourceName equals source and
// returns the number of chunks deleted.
func (c *Client) DeleteSource(ctx context.Context, source string) (int, error) {
	ids, err := c.sourceIDs(ctx, source)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	actions := make([]deleteAction, len(ids))
	for i, id := range ids {
		actions[i] = deleteAction{Action: "delete", ID: id}
	}
	if err := c.postActions(ctx, actions); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (c *Client) postActions(ctx context.Context, actions any) error {
	body, err := json.Marshal(map[string]any{"value": actions})
	if err != nil {
		return fmt.Errorf("marshal documents: %w", err)
	}

	start := time.Now()
	resp, err := c.do(ctx, http.MethodPost, "/indexes/"+url.PathEscape(c.index)+"/docs/index", body)
	metrics.CollaboratorDuration.WithLabelValues("search_index").Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("index documents: %w", err)
	}
	defer resp.Body.Close()

	// 207 means some documents failed; the per-document results say which.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusMultiStatus {
		return statusError("index documents", resp)
	}
	var result struct {
		Value []indexingResult `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode indexing result: %w", err)
	}
	var failed []string
	for _, r := range result.Value {
		if !r.Status {
			failed = append(failed, fmt.Sprintf("%s: %d %s", r.Key, r.StatusCode, r.ErrorMessage))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("index rejected %d document(s): %s", len(failed), strings.Join(failed, "; "))
	}
	return nil
}

func (c *Client) sourceIDs(ctx context.Context, source string) ([]string, error) {
	var ids []string
	const page = 1000
	for skip := 0; ; skip += page {
		body, err := json.Marshal(map[string]any{
			"search": "*",
			"filter": fmt.Sprintf("sourceName eq '%s'", strings.ReplaceAll(source, "'", "''")),
			"select": "id",
			"top":    page,
			"skip":   skip,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal query: %w", err)
		}
		results, err := c.search(ctx, body)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			ids = append(ids, r.ID)
		}
		if len(results) < page {
			return ids, nil
		}
	}
}

func (c *Client) search(ctx context.Context, body []byte) ([]Result, error) {
	start := time.Now()
	resp, err := c.do(ctx, http.MethodPost, "/indexes/"+url.PathEscape(c.index)+"/docs/search", body)
	metrics.CollaboratorDuration.WithLabelValues("search_index").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("search", resp)
	}
	var out struct {
		Value []Result `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}
	return out.Value, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	u := c.baseURL + path + "?api-version=" + apiVersion
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("api-key", c.apiKey)
	return c.httpClient.Do(httpReq)
}

func statusError(op string, resp *http.Response) error {
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if retry.RetryableStatus(resp.StatusCode) {
		return &retry.RetryableError{StatusCode: resp.StatusCode, Message: op + ": " + string(respBody)}
	}
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, string(respBody))
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
