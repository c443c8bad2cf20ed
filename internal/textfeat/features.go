// Package textfeat computes the per-window text signals of SPEC_FULL.md
// §4.E: keyphrase extraction (statistical ∪ embedding-based), coverage,
// density, filler ratio, and scene-cut penalty. Grounded on the teacher's
// small pure text-utility style (wer.go's ComputeWER): deterministic
// functions over token slices, unit tested directly, no I/O in the
// scoring math itself (I/O lives behind the embedding extractor's Client).
package textfeat

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/clipforge/clipforge/internal/media"
)

// Compute fills in TextFeatures for window w, given the job-wide corpus
// IDF and an optional embedding extractor. When embedder is nil, coverage
// and keyphrases are derived from the statistical extractor alone — the
// embedding index is an enrichment, not a requirement, since §4.E defines
// phrase weight as "max across extractors" over however many run.
func Compute(ctx context.Context, w media.Window, idf CorpusIDF, embedder *EmbeddingExtractor) (media.TextFeatures, error) {
	statistical := StatisticalKeyphrases(w.Text, idf)

	phrases := statistical
	if embedder != nil {
		embedded, err := embedder.Keyphrases(ctx, w)
		if err != nil {
			return media.TextFeatures{}, err
		}
		phrases = mergeByMaxWeight(statistical, embedded)
	}

	coverage := coverageScore(phrases, idf)
	density := densityScore(w.Text)
	filler := fillerRatio(w.Text)
	scenePenalty := math.Min(1.0, float64(w.ContainsSceneCuts)/3.0)

	return media.TextFeatures{
		KeyPhrases:      phrases,
		CoverageScore:   coverage,
		DensityScore:    density,
		FillerRatio:     filler,
		SceneCutPenalty: scenePenalty,
	}, nil
}

// mergeByMaxWeight unions two phrase lists, keeping the maximum weight per
// normalized phrase, then truncates to the top 10 by weight.
func mergeByMaxWeight(a, b []media.KeyPhrase) []media.KeyPhrase {
	best := make(map[string]media.KeyPhrase, len(a)+len(b))
	merge := func(list []media.KeyPhrase) {
		for _, p := range list {
			key := normalizePhrase(p.Phrase)
			if existing, ok := best[key]; !ok || p.Weight > existing.Weight {
				best[key] = media.KeyPhrase{Phrase: p.Phrase, Weight: p.Weight}
			}
		}
	}
	merge(a)
	merge(b)

	out := make([]media.KeyPhrase, 0, len(best))
	for _, p := range best {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })

	if len(out) > 10 {
		out = out[:10]
	}
	return out
}

// coverageScore sums phrase weights whose phrase is in the job-wide top-5%
// IDF vocabulary and caps the sum at 1. It is computed per window against
// a fixed idf; no per-job min-max normalization across windows is applied.
func coverageScore(phrases []media.KeyPhrase, idf CorpusIDF) float64 {
	var sum float64
	for _, p := range phrases {
		if idf.InTopVocabulary(p.Phrase) {
			sum += p.Weight
		}
	}
	if sum > 1.0 {
		sum = 1.0
	}
	return sum
}

// densityScore blends three [0,1]-valued measurements per §4.E: type/token
// ratio and normalized Shannon entropy over the window's non-stopword
// tokens, and the content-word ratio over all tokens (weights 0.4/0.3/0.3).
func densityScore(text string) float64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	content := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !isStopword(t) {
			content = append(content, t)
		}
	}
	if len(content) == 0 {
		return 0
	}

	typeTokenRatio := typeTokenRatio(content)
	entropy := normalizedEntropy(content)
	contentRatio := contentWordRatio(tokens)

	return 0.4*typeTokenRatio + 0.3*entropy + 0.3*contentRatio
}

func typeTokenRatio(tokens []string) float64 {
	types := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		types[t] = struct{}{}
	}
	return float64(len(types)) / float64(len(tokens))
}

func normalizedEntropy(tokens []string) float64 {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	n := float64(len(tokens))
	var h float64
	for _, c := range counts {
		p := float64(c) / n
		h -= p * math.Log(p)
	}
	if len(counts) <= 1 {
		return 0
	}
	return h / math.Log(float64(len(tokens)))
}

func contentWordRatio(tokens []string) float64 {
	content := 0
	for _, t := range tokens {
		if !isStopword(t) {
			content++
		}
	}
	return float64(content) / float64(len(tokens))
}

// fillerRatio returns the fraction of tokens consumed by filler phrases
// from the fixed filler set, matched case-insensitively as contiguous
// token runs (phrase-aware: "you know" counts as one two-token match, not
// two independent single-token misses).
func fillerRatio(text string) float64 {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return 0
	}

	fillerTokenCount := 0
	i := 0
	for i < len(tokens) {
		matched := 0
		for _, phrase := range fillers {
			if matchesAt(tokens, i, phrase) {
				if len(phrase) > matched {
					matched = len(phrase)
				}
			}
		}
		if matched > 0 {
			fillerTokenCount += matched
			i += matched
			continue
		}
		i++
	}

	return float64(fillerTokenCount) / float64(len(tokens))
}

func matchesAt(tokens []string, start int, phrase []string) bool {
	if start+len(phrase) > len(tokens) {
		return false
	}
	for i, w := range phrase {
		if strings.Trim(tokens[start+i], ".,!?;:\"'()[]") != w {
			return false
		}
	}
	return true
}
