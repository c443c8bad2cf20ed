package textfeat

import (
	"context"
	"fmt"
	"sort"

	"github.com/clipforge/clipforge/internal/embed"
	"github.com/clipforge/clipforge/internal/media"
	"github.com/clipforge/clipforge/internal/vectorindex"
)

// EmbeddingExtractor scores candidate phrases by cosine similarity between
// the phrase's embedding and the window's full-text embedding. Selected
// phrase embeddings are upserted into a per-job vectorindex collection via
// IndexPhrase; the coverage signal's top-vocabulary check does not query
// that collection (it is a CorpusIDF map lookup).
type EmbeddingExtractor struct {
	embedder *embed.Client
	index    *vectorindex.Client
	jobID    string
}

// NewEmbeddingExtractor constructs an extractor scoped to one job's vector
// collection.
func NewEmbeddingExtractor(embedder *embed.Client, index *vectorindex.Client, jobID string) *EmbeddingExtractor {
	return &EmbeddingExtractor{embedder: embedder, index: index, jobID: jobID}
}

// Prepare ensures the job's vector collection exists, sized to the
// embedder's output dimensionality (probed from a throwaway embed call).
func (e *EmbeddingExtractor) Prepare(ctx context.Context) (int, error) {
	probe, err := e.embedder.Embed(ctx, "clipforge dimension probe")
	if err != nil {
		return 0, fmt.Errorf("probe embedding dimension: %w", err)
	}
	dim := len(probe)
	if err := e.index.EnsureCollection(ctx, vectorindex.CollectionName(e.jobID), dim); err != nil {
		return 0, fmt.Errorf("ensure vector collection: %w", err)
	}
	return dim, nil
}

// IndexPhrase upserts one candidate phrase's embedding, tagged with its
// window ID, into the job's collection.
func (e *EmbeddingExtractor) IndexPhrase(ctx context.Context, phrase string, windowID string) error {
	vec, err := e.embedder.Embed(ctx, phrase)
	if err != nil {
		return fmt.Errorf("embed phrase %q: %w", phrase, err)
	}
	point := vectorindex.NewPoint(vec, map[string]interface{}{
		"phrase":    phrase,
		"window_id": windowID,
	})
	return e.index.Upsert(ctx, vectorindex.CollectionName(e.jobID), []vectorindex.Point{point})
}

// Keyphrases embeds candidate 1-3 grams (the same candidate set the
// statistical extractor draws from) and the window's own text, scoring
// each candidate by cosine similarity to the window embedding, returning
// the top 10 normalized to [0,1].
func (e *EmbeddingExtractor) Keyphrases(ctx context.Context, w media.Window) ([]media.KeyPhrase, error) {
	windowVec, err := e.embedder.Embed(ctx, w.Text)
	if err != nil {
		return nil, fmt.Errorf("embed window text: %w", err)
	}

	candidates := dedupeStrings(ngrams(tokenize(w.Text), 1, 3))
	var scoredCandidates []scoredPhrase
	for _, phrase := range candidates {
		vec, err := e.embedder.Embed(ctx, phrase)
		if err != nil {
			return nil, fmt.Errorf("embed phrase %q: %w", phrase, err)
		}
		scoredCandidates = append(scoredCandidates, scoredPhrase{phrase, embed.CosineSimilarity(vec, windowVec)})
	}

	sort.Slice(scoredCandidates, func(i, j int) bool { return scoredCandidates[i].score > scoredCandidates[j].score })

	limit := 10
	if limit > len(scoredCandidates) {
		limit = len(scoredCandidates)
	}
	out := make([]media.KeyPhrase, 0, limit)
	for i := 0; i < limit; i++ {
		weight := scoredCandidates[i].score
		if weight < 0 {
			weight = 0
		}
		out = append(out, media.KeyPhrase{Phrase: scoredCandidates[i].phrase, Weight: weight})
	}
	return out, nil
}

type scoredPhrase struct {
	phrase string
	score  float64
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
