package searchindex

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dgallion1/pagegest/internal/retry"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentID(t *testing.T) {
	id := DocumentID("report.pdf", 3)
	raw, err := base64.RawURLEncoding.DecodeString(id)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf-3", string(raw))
	assert.Equal(t, id, DocumentID("report.pdf", 3))
	assert.NotEqual(t, id, DocumentID("report.pdf", 4))
	assert.NotContains(t, id, "=")
}

type fakeIndex struct {
	mu   sync.Mutex
	docs map[string]map[string]any
}

func newFakeIndex(t *testing.T) (*fakeIndex, *Client) {
	t.Helper()
	f := &fakeIndex{docs: map[string]map[string]any{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, NewClient(srv.URL, "secret", "chunks")
}

func (f *fakeIndex) serve(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("api-key") != "secret" {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.URL.Path {
	case "/indexes/chunks/docs/index":
		var body struct {
			Value []map[string]any `json:"value"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		var results []map[string]any
		for _, d := range body.Value {
			id := d["id"].(string)
			switch d["@search.action"] {
			case "delete":
				delete(f.docs, id)
			default:
				f.docs[id] = d
			}
			results = append(results, map[string]any{"key": id, "status": true, "statusCode": 200})
		}
		json.NewEncoder(w).Encode(map[string]any{"value": results})
	case "/indexes/chunks/docs/search":
		var results []map[string]any
		for _, d := range f.docs {
			results = append(results, d)
		}
		json.NewEncoder(w).Encode(map[string]any{"value": results})
	case "/indexes/chunks":
		w.WriteHeader(http.StatusCreated)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestUpload_MergeOrUploadIsIdempotent(t *testing.T) {
	f, c := newFakeIndex(t)
	ctx := context.Background()
	doc := ChunkDocument{
		ID:         DocumentID("a.pdf", 1),
		Chunk:      "first",
		SourceName: "a.pdf",
		PageNum:    1,
	}
	require.NoError(t, c.Upload(ctx, []ChunkDocument{doc}))
	doc.Chunk = "second"
	require.NoError(t, c.Upload(ctx, []ChunkDocument{doc}))

	require.Len(t, f.docs, 1)
	stored := f.docs[doc.ID]
	assert.Equal(t, "second", stored["chunk"])
	assert.Equal(t, "mergeOrUpload", stored["@search.action"])
}

func TestUpload_PartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMultiStatus)
		w.Write([]byte(`{"value":[{"key":"a","status":true,"statusCode":200},{"key":"b","status":false,"statusCode":400,"errorMessage":"bad vector"}]}`))
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "k", "chunks")

	err := c.Upload(context.Background(), []ChunkDocument{{ID: "a"}, {ID: "b"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad vector")
}

func TestUpload_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "k", "chunks")

	err := c.Upload(context.Background(), []ChunkDocument{{ID: "a"}})
	assert.True(t, retry.IsRetryable(err))
}

func TestUpload_OpenBreakerFailsFast(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "k", "chunks")

	for range 5 {
		require.Error(t, c.Upload(context.Background(), []ChunkDocument{{ID: "a"}}))
	}
	err := c.Upload(context.Background(), []ChunkDocument{{ID: "a"}})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.False(t, retry.IsRetryable(err), "retrying into an open breaker is pointless")
	assert.EqualValues(t, 5, calls.Load())
}

func TestDeleteSource(t *testing.T) {
	f, c := newFakeIndex(t)
	ctx := context.Background()
	require.NoError(t, c.Upload(ctx, []ChunkDocument{
		{ID: DocumentID("a.pdf", 1), SourceName: "a.pdf", PageNum: 1},
		{ID: DocumentID("a.pdf", 2), SourceName: "a.pdf", PageNum: 2},
	}))

	n, err := c.DeleteSource(ctx, "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, f.docs)
}

func TestSearch_SendsVectorQuery(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"value":[{"id":"x","chunk":"hello","sourceName":"a.pdf","pageNum":2,"@search.score":1.5}]}`))
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "k", "chunks")

	res, err := c.Search(context.Background(), "hello", []float32{0.1, 0.2}, 3)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, 2, res[0].PageNum)
	assert.InDelta(t, 1.5, res[0].Score, 1e-9)

	assert.Equal(t, "hello", got["search"])
	vq := got["vectorQueries"].([]any)[0].(map[string]any)
	assert.Equal(t, "vector", vq["kind"])
	assert.Equal(t, "chunkVector", vq["fields"])
}

func TestEnsureIndex(t *testing.T) {
	var method string
	var schema map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		json.NewDecoder(r.Body).Decode(&schema)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "k", "chunks")

	require.NoError(t, c.EnsureIndex(context.Background(), 1536))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "chunks", schema["name"])
}
