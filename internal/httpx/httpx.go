// Package httpx builds pooled, timeout-bounded HTTP clients shared by the
// ASR and grader backends. Adapted from the teacher's pipeline/httpclient.go.
package httpx

import (
	"net/http"
	"time"
)

// NewPooled creates an http.Client with connection pooling and a tuned transport.
func NewPooled(poolSize int, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:          poolSize,
			MaxIdleConnsPerHost:   poolSize,
			IdleConnTimeout:       90 * time.Second,
			ResponseHeaderTimeout: timeout,
			ForceAttemptHTTP2:     true,
		},
	}
}
