// Package anthropic implements a grader.Backend on top of the official
// Anthropic Go SDK. Grounded on the teacher's pipeline/llm_anthropic.go
// (AnthropicLLMClient: model/max-tokens/system-prompt shape, x-api-key auth),
// generalized from a hand-rolled streaming HTTP client to the official SDK's
// non-streaming Messages.New call, since Anthropic has no native
// JSON-schema response format and the rubric/schema both fold into the
// request body instead of a server-enforced response_format.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/clipforge/clipforge/internal/grader"
)

// Backend grades windows via the Anthropic Messages API.
type Backend struct {
	client anthropic.Client
	model  string
}

// New constructs a Backend. baseURL may be empty to use Anthropic's default.
func New(apiKey, baseURL, model string) *Backend {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Backend{client: anthropic.NewClient(opts...), model: model}
}

const schemaReminder = `Respond with only a JSON object of the exact shape ` +
	`{"cogency": 1..5, "quotes": [string, up to 3], "salient_terms": [string, up to 8]}. ` +
	`No markdown, no commentary, no text outside the JSON object.`

// Grade issues one Messages.New call. The rubric is carried in the system
// field; the schema reminder is appended to the user turn since Anthropic
// has no native json_schema response_format to enforce it server-side —
// the client-side repair/validate path in internal/grader is what actually
// enforces the contract for this backend.
func (b *Backend) Grade(ctx context.Context, req grader.Request) (string, error) {
	resp, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(b.model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
		TopP:        anthropic.Float(req.TopP),
		System: []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.WindowText + "\n\n" + schemaReminder)),
		},
	})
	if err != nil {
		wrapped := fmt.Errorf("anthropic messages: %w", err)
		if isRetryableStatus(err) {
			return "", &grader.RetryableError{Cause: wrapped}
		}
		return "", wrapped
	}

	var out string
	for _, block := range resp.Content {
		if text := block.AsText(); text.Text != "" {
			out += text.Text
		}
	}
	if out == "" {
		return "", fmt.Errorf("anthropic: empty text content in response")
	}
	return out, nil
}

// isRetryableStatus reports whether err is a connection failure or an
// HTTP 5xx from the Anthropic API; 4xx errors are not retried per §4.F.
func isRetryableStatus(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return true
}
