// Package grader implements the LLM Grader Client (SPEC_FULL.md §4.F): it
// dispatches per-window grading requests to one of several interchangeable
// chat-completion backends, enforces the robustness contract (JSON parse
// with one repair pass, sentinel grade on second failure), and bounds
// in-flight requests to grader_concurrency.
//
// Grounded on the teacher's pipeline/router.go generic Router[T] (O(1)
// dispatch by name with a configurable fallback), generalized from routing
// streaming chat engines to routing one-shot structured-grading backends.
package grader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/clipforge/clipforge/internal/media"
	"github.com/clipforge/clipforge/internal/metrics"
	"github.com/clipforge/clipforge/internal/retry"
	"golang.org/x/sync/semaphore"
)

// Backend performs one chat-completion grading call. Implementations (see
// grader/openai and grader/anthropic) own their own HTTP/SDK client and
// model name; Grade must honor the sampling parameters from Request.
type Backend interface {
	Grade(ctx context.Context, req Request) (string, error)
}

// Request carries everything a Backend needs for one grading call.
type Request struct {
	SystemPrompt string
	WindowText   string
	Temperature  float64
	TopP         float64
	MaxTokens    int
}

// Router is the generic name→Backend dispatcher, a direct generalization
// of the teacher's Router[T].
type Router struct {
	backends map[string]Backend
	fallback string
}

// NewRouter creates a Router with the given backends and a fallback engine
// name used when the requested engine is not registered.
func NewRouter(backends map[string]Backend, fallback string) *Router {
	return &Router{backends: backends, fallback: fallback}
}

// Route returns the backend for engine, falling back to the default.
func (r *Router) Route(engine string) (Backend, error) {
	if b, ok := r.backends[engine]; ok {
		return b, nil
	}
	if b, ok := r.backends[r.fallback]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("no grader backend for engine %q", engine)
}

// Engines returns the names of all registered backends.
func (r *Router) Engines() []string {
	names := make([]string, 0, len(r.backends))
	for k := range r.backends {
		names = append(names, k)
	}
	return names
}

// Grader grades windows against a routed Backend, honoring §4.F's
// robustness contract and bounding concurrency with a weighted semaphore.
type Grader struct {
	router *Router
	engine string
	sem    *semaphore.Weighted
}

// New creates a Grader bound to engine, admitting at most concurrency
// in-flight requests at once.
func New(router *Router, engine string, concurrency int) *Grader {
	return &Grader{router: router, engine: engine, sem: semaphore.NewWeighted(int64(concurrency))}
}

// Grade grades a batch of windows, returning LLMGrades aligned positionally
// with the input. Each window is graded independently under the bounded
// semaphore; a per-window failure (after retries and the repair pass)
// degrades to a sentinel grade rather than failing the whole batch, per
// SPEC_FULL.md §4.F/§4.J's degrade-and-continue policy.
func (g *Grader) Grade(ctx context.Context, windows []media.Window) ([]media.LLMGrade, error) {
	grades := make([]media.LLMGrade, len(windows))

	var wg sync.WaitGroup
	for i, w := range windows {
		i, w := i, w
		if err := g.sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("acquire grader slot: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer g.sem.Release(1)
			grades[i] = g.gradeOne(ctx, w)
		}()
	}
	wg.Wait()

	return grades, nil
}

func (g *Grader) gradeOne(ctx context.Context, w media.Window) media.LLMGrade {
	backend, err := g.router.Route(g.engine)
	if err != nil {
		metrics.WindowsDegraded.WithLabelValues("no_backend").Inc()
		return media.SentinelGrade()
	}

	req := Request{
		SystemPrompt: RubricSystemPrompt,
		WindowText:   w.Text,
		Temperature:  0.2,
		TopP:         0.9,
		MaxTokens:    400,
	}

	start := time.Now()
	var raw string
	err = retry.Do(ctx, retry.GraderBackoff(), retryableOnly, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, 45*time.Second)
		defer cancel()
		out, callErr := backend.Grade(callCtx, req)
		if callErr != nil {
			return callErr
		}
		raw = out
		return nil
	})
	metrics.GraderLatency.WithLabelValues(g.engine).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.Errors.WithLabelValues("grade", "backend").Inc()
		metrics.WindowsDegraded.WithLabelValues("backend_error").Inc()
		return media.SentinelGrade()
	}

	grade, ok := parseGrade(raw)
	if ok {
		return grade
	}

	grade, ok = parseGrade(repairJSON(raw))
	if ok {
		return grade
	}

	metrics.WindowsDegraded.WithLabelValues("parse_failure").Inc()
	return media.SentinelGrade()
}

// retryableOnly classifies errors carrying a RetryableError marker as
// worth retrying; 4xx/validation errors from a Backend are expected to be
// returned as plain (non-retryable) errors.
func retryableOnly(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryableError marks a Backend error as transport/5xx-class and worth
// retrying under §4.F's 2s/8s backoff; Backend implementations wrap
// connection and 5xx errors in this type and return 4xx/validation errors
// bare.
type RetryableError struct{ Cause error }

func (e *RetryableError) Error() string { return e.Cause.Error() }
func (e *RetryableError) Unwrap() error { return e.Cause }

type gradeJSON struct {
	Cogency      int      `json:"cogency"`
	Quotes       []string `json:"quotes"`
	SalientTerms []string `json:"salient_terms"`
}

func parseGrade(raw string) (media.LLMGrade, bool) {
	var g gradeJSON
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	if err := dec.Decode(&g); err != nil {
		return media.LLMGrade{}, false
	}
	if g.Cogency < 1 || g.Cogency > 5 {
		return media.LLMGrade{}, false
	}
	if len(g.Quotes) > 3 {
		g.Quotes = g.Quotes[:3]
	}
	if len(g.SalientTerms) > 8 {
		g.SalientTerms = g.SalientTerms[:8]
	}
	return media.LLMGrade{Cogency: g.Cogency, Quotes: g.Quotes, SalientTerms: g.SalientTerms}, true
}

// repairJSON strips markdown code fences and locates the outermost
// {...} span, the one-shot repair pass required by §4.F before falling
// back to a sentinel grade.
func repairJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
