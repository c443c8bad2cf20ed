package textfeat

import (
	"math"
	"sort"
	"strings"

	"github.com/clipforge/clipforge/internal/media"
)

// CorpusIDF holds the job-wide inverse-document-frequency table computed
// once from all window texts (SPEC_FULL.md §4.E), plus its top-5% vocabulary
// used by the coverage signal.
type CorpusIDF struct {
	idf        map[string]float64
	topVocab   map[string]struct{}
}

// BuildCorpusIDF computes document frequency per 1-3 gram across all window
// texts, then IDF = log(N / (1+df)), then keeps the top 5% of terms by IDF
// as the coverage vocabulary.
func BuildCorpusIDF(windows []media.Window) CorpusIDF {
	n := len(windows)
	df := make(map[string]int)
	for _, w := range windows {
		seen := make(map[string]struct{})
		for _, gram := range ngrams(tokenize(w.Text), 1, 3) {
			seen[gram] = struct{}{}
		}
		for gram := range seen {
			df[gram]++
		}
	}

	idf := make(map[string]float64, len(df))
	for gram, d := range df {
		idf[gram] = math.Log(float64(n) / (1 + float64(d)))
	}

	type scored struct {
		term  string
		score float64
	}
	all := make([]scored, 0, len(idf))
	for term, score := range idf {
		all = append(all, scored{term, score})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].score > all[j].score })

	topN := (len(all) + 19) / 20 // top 5%, rounded up, at least 1 when all is non-empty
	if topN > len(all) {
		topN = len(all)
	}
	top := make(map[string]struct{}, topN)
	for i := 0; i < topN; i++ {
		top[all[i].term] = struct{}{}
	}

	return CorpusIDF{idf: idf, topVocab: top}
}

// InTopVocabulary reports whether phrase is in the job-wide top-5% IDF vocabulary.
func (c CorpusIDF) InTopVocabulary(phrase string) bool {
	_, ok := c.topVocab[normalizePhrase(phrase)]
	return ok
}

// StatisticalKeyphrases scores each 1-3 gram in text by TF * corpus IDF,
// normalized to [0,1] within this window, and returns the top 10.
func StatisticalKeyphrases(text string, idf CorpusIDF) []media.KeyPhrase {
	tokens := tokenize(text)
	grams := ngrams(tokens, 1, 3)

	tf := make(map[string]int)
	for _, g := range grams {
		tf[g]++
	}

	type scored struct {
		phrase string
		score  float64
	}
	scoredGrams := make([]scored, 0, len(tf))
	maxScore := 0.0
	for gram, count := range tf {
		s := float64(count) * idf.idf[gram]
		scoredGrams = append(scoredGrams, scored{gram, s})
		if s > maxScore {
			maxScore = s
		}
	}

	sort.Slice(scoredGrams, func(i, j int) bool { return scoredGrams[i].score > scoredGrams[j].score })

	limit := 10
	if limit > len(scoredGrams) {
		limit = len(scoredGrams)
	}
	out := make([]media.KeyPhrase, 0, limit)
	for i := 0; i < limit; i++ {
		weight := 0.0
		if maxScore > 0 {
			weight = scoredGrams[i].score / maxScore
		}
		if weight < 0 {
			weight = 0
		}
		out = append(out, media.KeyPhrase{Phrase: scoredGrams[i].phrase, Weight: weight})
	}
	return out
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()[]")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ngrams returns all contiguous 1..maxN grams over tokens with stopwords
// stripped from gram boundaries (a gram may not start or end on a stopword).
func ngrams(tokens []string, minN, maxN int) []string {
	var out []string
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			gram := tokens[i : i+n]
			if isStopword(gram[0]) || isStopword(gram[len(gram)-1]) {
				continue
			}
			out = append(out, strings.Join(gram, " "))
		}
	}
	return out
}

func normalizePhrase(phrase string) string {
	return strings.Join(tokenize(phrase), " ")
}
