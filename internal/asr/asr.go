// Package asr implements the ASR Client (SPEC_FULL.md §4.B): it uploads the
// ingested audio to the whisper.cpp-compatible transcription server and
// normalizes its word-timestamped response into a media.Transcript.
//
// Grounded on the teacher's pipeline/asr.go ASRClient (pooled HTTP client,
// multipart upload, metrics-wrapped Transcribe call), generalized from
// streamed 16kHz PCM samples to a whole local file and from plain-text
// output to verbose_json word timestamps, since clipforge needs per-token
// timing for window snapping (§4.D) that the real-time call pipeline never
// needed.
package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clipforge/clipforge/internal/clipforgeerr"
	"github.com/clipforge/clipforge/internal/media"
	"github.com/clipforge/clipforge/internal/metrics"
)

// Client sends a local media file to the whisper.cpp server and returns a
// normalized, word-timestamped Transcript.
type Client struct {
	url    string
	client *http.Client
}

// New creates a Client pointed at the whisper.cpp server base URL.
func New(url string, httpClient *http.Client) *Client {
	return &Client{url: url, client: httpClient}
}

// verboseWord is one word-level timestamp entry from the server's
// verbose_json response.
type verboseWord struct {
	Word        string  `json:"word"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Probability float64 `json:"probability"`
}

type verboseSegment struct {
	Text  string        `json:"text"`
	Start float64       `json:"start"`
	End   float64       `json:"end"`
	Words []verboseWord `json:"words"`
}

type verboseResponse struct {
	Text     string           `json:"text"`
	Segments []verboseSegment `json:"segments"`
}

// Transcribe uploads localPath and returns the normalized transcript. It
// does not retry; the orchestrator wraps Transcribe with internal/retry
// using the 1s/4s/16s schedule and retries any error that is not a
// clipforgeerr Config error: HTTP status codes and malformed responses
// are not told apart. A response with no words yields an empty
// transcript, not an error.
func (c *Client) Transcribe(ctx context.Context, localPath string) (media.Transcript, error) {
	start := time.Now()

	body, contentType, err := buildMultipartFile(localPath)
	if err != nil {
		return media.Transcript{}, clipforgeerr.New(clipforgeerr.Asr, "upload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/inference", body)
	if err != nil {
		return media.Transcript{}, clipforgeerr.New(clipforgeerr.Asr, "upload", fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("asr", "http").Inc()
		return media.Transcript{}, clipforgeerr.New(clipforgeerr.Asr, "request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		metrics.Errors.WithLabelValues("asr", "status").Inc()
		return media.Transcript{}, clipforgeerr.New(clipforgeerr.Asr, "request",
			fmt.Errorf("asr status %d: %s", resp.StatusCode, string(respBody)))
	}

	var parsed verboseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return media.Transcript{}, clipforgeerr.New(clipforgeerr.Asr, "decode", err)
	}

	metrics.StageDuration.WithLabelValues("asr").Observe(time.Since(start).Seconds())

	return normalize(parsed), nil
}

// normalize flattens segments/words into a single Token sequence, dropping
// words that are empty or whitespace-only and trimming surrounding
// whitespace from the rest. When a
// segment has no word-level timestamps, its text is split on whitespace and
// the segment's own [start,end] is evenly divided across those words so
// downstream window snapping still has per-token anchors to work with.
func normalize(resp verboseResponse) media.Transcript {
	var tokens []media.Token
	for _, seg := range resp.Segments {
		if len(seg.Words) > 0 {
			for _, w := range seg.Words {
				text := strings.TrimSpace(w.Word)
				if text == "" {
					continue
				}
				tokens = append(tokens, media.Token{
					Text:       text,
					Start:      w.Start,
					End:        w.End,
					Confidence: w.Probability,
					HasConf:    true,
				})
			}
			continue
		}
		tokens = append(tokens, splitSegmentEvenly(seg)...)
	}
	return media.Transcript{Tokens: tokens}
}

func splitSegmentEvenly(seg verboseSegment) []media.Token {
	words := splitFields(seg.Text)
	if len(words) == 0 {
		return nil
	}
	span := seg.End - seg.Start
	step := span / float64(len(words))
	tokens := make([]media.Token, 0, len(words))
	for i, w := range words {
		tokens = append(tokens, media.Token{
			Text:  w,
			Start: seg.Start + float64(i)*step,
			End:   seg.Start + float64(i+1)*step,
		})
	}
	return tokens
}

// splitFields avoids pulling in strings.Fields's locale assumptions; plain
// ASCII whitespace splitting matches what whisper.cpp emits.
func splitFields(s string) []string {
	var out []string
	var cur []byte
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = nil
		}
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			flush()
		default:
			cur = append(cur, s[i])
		}
	}
	flush()
	return out
}

func buildMultipartFile(localPath string) (*bytes.Buffer, string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, "", fmt.Errorf("open media file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return nil, "", fmt.Errorf("write response_format field: %w", err)
	}
	if err := writer.WriteField("word_timestamps", "true"); err != nil {
		return nil, "", fmt.Errorf("write word_timestamps field: %w", err)
	}
	if err := writer.WriteField("timestamp_granularities[]", "word"); err != nil {
		return nil, "", fmt.Errorf("write timestamp_granularities field: %w", err)
	}

	part, err := writer.CreateFormFile("file", filepath.Base(localPath))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copy media into form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return &body, writer.FormDataContentType(), nil
}
