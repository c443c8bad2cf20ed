// Package embed implements the embedding client used by the embedding-based
// keyphrase extractor (SPEC_FULL.md §4.E). Adapted from the teacher's
// pipeline/embeddings.go EmbeddingClient (Ollama /api/embed), unchanged in
// wire contract since clipforge embeds whole phrases/windows instead of
// call utterances but talks to the same server API.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/clipforge/clipforge/internal/metrics"
)

// Client generates vector embeddings via an Ollama-compatible /api/embed endpoint.
type Client struct {
	url    string
	model  string
	client *http.Client
}

// New creates an embedding client against an Ollama-compatible server.
func New(url, model string, httpClient *http.Client) *Client {
	return &Client{url: url, model: model, client: httpClient}
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed returns the embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	start := time.Now()

	body, err := json.Marshal(embedRequest{Model: c.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed status %d", resp.StatusCode)
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}

	metrics.EmbeddingDuration.Observe(time.Since(start).Seconds())
	return result.Embeddings[0], nil
}

// EmbedBatch embeds each input in turn. The server's /api/embed endpoint is
// called once per phrase since the job-scale phrase counts (tens per
// window) don't justify the batching complexity of a single multi-input
// request.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := c.Embed(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("embed %q: %w", t, err)
		}
		out[i] = v
	}
	return out, nil
}

// CosineSimilarity returns the cosine similarity of a and b, or 0 if either
// is a zero vector or they differ in length.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
