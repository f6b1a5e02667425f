// Package searchindex stores page chunks in a hybrid keyword/vector search
// index over its REST API.
package searchindex

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
)

// ChunkDocument is one indexed page.
type ChunkDocument struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Chunk          string    `json:"chunk"`
	ChunkVector    []float32 `json:"chunkVector"`
	SourceName     string    `json:"sourceName"`
	SourceLocation string    `json:"sourceLocation"`
	PageNum        int       `json:"pageNum"`
	SectionHeading string    `json:"sectionHeading"`
}

// Result is one search hit.
type Result struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Chunk          string  `json:"chunk"`
	SourceName     string  `json:"sourceName"`
	SourceLocation string  `json:"sourceLocation"`
	PageNum        int     `json:"pageNum"`
	SectionHeading string  `json:"sectionHeading"`
	Score          float64 `json:"@search.score"`
}

// DocumentID derives the chunk key from the source name and page number.
// The key is stable, so re-indexing a page replaces its chunk.
func DocumentID(source string, page int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(source + "-" + strconv.Itoa(page)))
}

// Search runs a hybrid query: keyword match on query plus nearest neighbours
// of vector over chunkVector. An empty vector runs a keyword-only search.
func (c *Client) Search(ctx context.Context, query string, vector []float32, top int) ([]Result, error) {
	if top <= 0 {
		top = 5
	}
	q := map[string]any{
		"search": query,
		"top":    top,
		"select": "id,title,chunk,sourceName,sourceLocation,pageNum,sectionHeading",
	}
	if len(vector) > 0 {
		q["vectorQueries"] = []map[string]any{{
			"kind":   "vector",
			"vector": vector,
			"fields": "chunkVector",
			"k":      top,
		}}
	}
	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}
	return c.search(ctx, body)
}

type field struct {
	Name                string `json:"name"`
	Type                string `json:"type"`
	Key                 bool   `json:"key,omitempty"`
	Searchable          bool   `json:"searchable"`
	Filterable          bool   `json:"filterable"`
	Retrievable         bool   `json:"retrievable"`
	Dimensions          int    `json:"dimensions,omitempty"`
	VectorSearchProfile string `json:"vectorSearchProfile,omitempty"`
}

// IndexSchema returns the index definition for chunk documents.
func IndexSchema(name string, dimensions int) map[string]any {
	fields := []field{
		{Name: "id", Type: "Edm.String", Key: true, Filterable: true, Retrievable: true},
		{Name: "title", Type: "Edm.String", Searchable: true, Retrievable: true},
		{Name: "chunk", Type: "Edm.String", Searchable: true, Retrievable: true},
		{Name: "chunkVector", Type: "Collection(Edm.Single)", Searchable: true, Dimensions: dimensions, VectorSearchProfile: "chunk-profile"},
		{Name: "sourceName", Type: "Edm.String", Filterable: true, Retrievable: true},
		{Name: "sourceLocation", Type: "Edm.String", Retrievable: true},
		{Name: "pageNum", Type: "Edm.Int32", Filterable: true, Retrievable: true},
		{Name: "sectionHeading", Type: "Edm.String", Searchable: true, Retrievable: true},
	}
	return map[string]any{
		"name":   name,
		"fields": fields,
		"vectorSearch": map[string]any{
			"algorithms": []map[string]any{{"name": "chunk-hnsw", "kind": "hnsw"}},
			"profiles":   []map[string]any{{"name": "chunk-profile", "algorithm": "chunk-hnsw"}},
		},
	}
}
