package textfeat

import "strings"

// stopwords are excluded from density/content-word measurements and from
// statistical n-gram candidates.
var stopwords = buildSet([]string{
	"a", "an", "the", "and", "or", "but", "if", "then", "else", "of", "to",
	"in", "on", "at", "for", "with", "by", "from", "as", "is", "are", "was",
	"were", "be", "been", "being", "it", "its", "this", "that", "these",
	"those", "i", "you", "he", "she", "we", "they", "them", "his", "her",
	"our", "your", "their", "not", "no", "so", "do", "does", "did", "have",
	"has", "had", "can", "could", "will", "would", "should", "just", "there",
	"here", "what", "when", "where", "who", "how", "all", "also", "into",
})

// fillers is the fixed filler phrase set from SPEC_FULL.md §4.E, matched
// case-insensitively and phrase-aware (multi-word entries match as
// contiguous token runs).
var fillers = [][]string{
	{"um"}, {"uh"}, {"like"}, {"you", "know"}, {"i", "mean"}, {"sort", "of"},
	{"kind", "of"}, {"basically"}, {"literally"},
}

func buildSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

func isStopword(w string) bool {
	_, ok := stopwords[strings.ToLower(w)]
	return ok
}
