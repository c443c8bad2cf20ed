// Package health implements clipforge's `--health-check` command
// (SPEC_FULL.md §9, supplemented feature): it dials the ASR and chat
// model servers and reports per-endpoint status, not just a boolean,
// generalizing the teacher's generic multi-service registry/control
// probe down to clipforge's two fixed external dependencies.
package health

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// EndpointStatus is the result of probing one model server.
type EndpointStatus struct {
	Name      string
	URL       string
	Healthy   bool
	LatencyMs float64
	Error     string
}

// Checker dials configured model-server endpoints over HTTP.
type Checker struct {
	httpClient *http.Client
}

// NewChecker creates a Checker with a short, fixed probe timeout — a
// health check must fail fast, not hang for the pipeline's normal
// per-stage timeouts.
func NewChecker() *Checker {
	return &Checker{httpClient: &http.Client{Timeout: 5 * time.Second}}
}

// CheckASR probes the ASR server's health endpoint.
func (c *Checker) CheckASR(ctx context.Context, baseURL string) EndpointStatus {
	return c.probe(ctx, "asr", baseURL)
}

// CheckChat probes the chat server's health endpoint.
func (c *Checker) CheckChat(ctx context.Context, baseURL string) EndpointStatus {
	return c.probe(ctx, "chat", baseURL)
}

// CheckAll probes both endpoints and returns their statuses in a fixed
// [asr, chat] order.
func (c *Checker) CheckAll(ctx context.Context, asrURL, chatURL string) []EndpointStatus {
	return []EndpointStatus{
		c.CheckASR(ctx, asrURL),
		c.CheckChat(ctx, chatURL),
	}
}

// probe mirrors the teacher's HTTPControlManager.probeHealth (GET the
// health URL, 200 means healthy) but keeps the latency and error detail
// instead of collapsing the result to a bare bool.
func (c *Checker) probe(ctx context.Context, name, baseURL string) EndpointStatus {
	status := EndpointStatus{Name: name, URL: baseURL}
	if baseURL == "" {
		status.Error = "no URL configured"
		return status
	}

	healthURL := strings.TrimSuffix(baseURL, "/") + "/health"
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		status.Error = err.Error()
		return status
	}

	resp, err := c.httpClient.Do(req)
	status.LatencyMs = float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		status.Error = "unexpected status " + resp.Status
		return status
	}
	status.Healthy = true
	return status
}
