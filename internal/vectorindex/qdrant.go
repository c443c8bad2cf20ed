// Package vectorindex provides a per-job vector index for the embedding-
// based keyphrase extractor (SPEC_FULL.md §4.E): selected phrase
// embeddings are upserted into a job-scoped Qdrant collection. The
// pipeline does not search the collection; the coverage signal's top-5%
// IDF vocabulary check is done on the in-memory IDF table.
//
// Adapted from the teacher's pipeline/qdrant.go QdrantClient (RAG/call-
// history point storage), repurposed from long-lived cross-call memory to
// a collection created once per job. The orchestrator does not drop the
// collection when the job ends.
package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// Client talks to Qdrant's REST API.
type Client struct {
	url    string
	client *http.Client
}

// New creates a Qdrant REST client.
func New(url string, httpClient *http.Client) *Client {
	return &Client{url: url, client: httpClient}
}

// EnsureCollection creates a job-scoped collection if it doesn't already exist.
func (q *Client) EnsureCollection(ctx context.Context, name string, vectorSize int) error {
	body, err := json.Marshal(createCollectionRequest{
		Vectors: vectorConfig{Size: vectorSize, Distance: "Cosine"},
	})
	if err != nil {
		return fmt.Errorf("marshal collection config: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, q.url+"/collections/"+name, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusOK {
		return nil
	}
	return fmt.Errorf("create collection status %d", resp.StatusCode)
}

// DropCollection removes a job's collection. Job-arena teardown does not
// call it.
func (q *Client) DropCollection(ctx context.Context, name string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, q.url+"/collections/"+name, nil)
	if err != nil {
		return fmt.Errorf("drop collection request: %w", err)
	}
	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("drop collection: %w", err)
	}
	defer resp.Body.Close()
	return nil
}

// Point is a vector with an arbitrary JSON payload.
type Point struct {
	ID      string                 `json:"id"`
	Vector  []float64              `json:"vector"`
	Payload map[string]interface{} `json:"payload"`
}

// NewPoint builds a Point with a fresh random ID, for callers that don't
// need a caller-chosen point identity.
func NewPoint(vector []float64, payload map[string]interface{}) Point {
	return Point{ID: uuid.NewString(), Vector: vector, Payload: payload}
}

// Upsert inserts or updates points in a collection.
func (q *Client) Upsert(ctx context.Context, collection string, points []Point) error {
	body, err := json.Marshal(upsertRequest{Points: points})
	if err != nil {
		return fmt.Errorf("marshal upsert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, q.url+"/collections/"+collection+"/points", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upsert status %d", resp.StatusCode)
	}
	return nil
}

// SearchResult holds a single search hit.
type SearchResult struct {
	ID      string                 `json:"id"`
	Score   float64                `json:"score"`
	Payload map[string]interface{} `json:"payload"`
}

// Search finds nearest neighbors in a collection.
func (q *Client) Search(ctx context.Context, collection string, vector []float64, topK int, scoreThreshold float64) ([]SearchResult, error) {
	body, err := json.Marshal(searchRequest{
		Vector:         vector,
		Limit:          topK,
		ScoreThreshold: scoreThreshold,
		WithPayload:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.url+"/collections/"+collection+"/points/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return result.Result, nil
}

// CollectionPointCount returns the number of points in a collection.
func (q *Client) CollectionPointCount(ctx context.Context, collection string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.url+"/collections/"+collection, nil)
	if err != nil {
		return 0, fmt.Errorf("create collection info request: %w", err)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("collection info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("collection info status %d", resp.StatusCode)
	}

	var result collectionInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("decode collection info: %w", err)
	}
	return result.Result.PointsCount, nil
}

type createCollectionRequest struct {
	Vectors vectorConfig `json:"vectors"`
}

type vectorConfig struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type upsertRequest struct {
	Points []Point `json:"points"`
}

type searchRequest struct {
	Vector         []float64 `json:"vector"`
	Limit          int       `json:"limit"`
	ScoreThreshold float64   `json:"score_threshold"`
	WithPayload    bool      `json:"with_payload"`
}

type searchResponse struct {
	Result []SearchResult `json:"result"`
}

type collectionInfoResponse struct {
	Result struct {
		PointsCount int `json:"points_count"`
	} `json:"result"`
}

// CollectionName derives a job-scoped collection name, avoiding cross-job
// collisions when Qdrant is shared across concurrent clipforge runs.
func CollectionName(jobID string) string {
	return "clipforge_" + jobID
}
