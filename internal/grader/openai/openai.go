// Package openai implements a grader.Backend on top of the official OpenAI
// Go SDK. Grounded on the openai-go usage pattern in the example pack
// (provider/llm/openai in the glyphoxa repo: oai.NewClient with
// option.WithAPIKey/WithBaseURL, ChatCompletionNewParams, param.NewOpt for
// optional scalars), generalized from a streaming chat provider to a
// single non-streaming structured-grading call with a json_schema response
// format enforcing the {cogency, quotes, salient_terms} shape server-side.
package openai

import (
	"context"
	"errors"
	"fmt"

	oai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/param"
	"github.com/openai/openai-go/v2/shared"

	"github.com/clipforge/clipforge/internal/grader"
)

// Backend grades windows via an OpenAI-compatible chat completions endpoint.
type Backend struct {
	client oai.Client
	model  string
}

// New constructs a Backend. baseURL may be empty to use OpenAI's default.
func New(apiKey, baseURL, model string) *Backend {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Backend{client: oai.NewClient(opts...), model: model}
}

var gradeSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"cogency":       map[string]any{"type": "integer", "minimum": 1, "maximum": 5},
		"quotes":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "maxItems": 3},
		"salient_terms": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "maxItems": 8},
	},
	"required":             []string{"cogency", "quotes", "salient_terms"},
	"additionalProperties": false,
}

// Grade issues one chat completion request per §4.F's sampling contract.
// 5xx/connection errors are wrapped in grader.RetryableError so the
// caller's bounded-backoff retrier knows to retry them; 4xx errors are
// returned bare.
func (b *Backend) Grade(ctx context.Context, req grader.Request) (string, error) {
	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(b.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(req.SystemPrompt),
			oai.UserMessage(req.WindowText),
		},
		Temperature: param.NewOpt(req.Temperature),
		TopP:        param.NewOpt(req.TopP),
		MaxTokens:   param.NewOpt(int64(req.MaxTokens)),
		ResponseFormat: oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &oai.ResponseFormatJSONSchemaParam{
				JSONSchema: oai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "window_grade",
					Schema: gradeSchema,
					Strict: param.NewOpt(true),
				},
			},
		},
	}

	resp, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		wrapped := fmt.Errorf("openai chat completion: %w", err)
		if isRetryableStatus(err) {
			return "", &grader.RetryableError{Cause: wrapped}
		}
		return "", wrapped
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// isRetryableStatus reports whether err is a connection failure or an
// HTTP 5xx from the OpenAI API; 4xx errors (bad request, auth, rate limit)
// are not retried per §4.F.
func isRetryableStatus(err error) bool {
	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	// Not an API error shape at all: treat as a transport/connection
	// failure, which is retryable.
	return true
}
