// Package rank implements the Ranker (SPEC_FULL.md §4.G): it scores each
// window's TextFeatures/LLMGrade, excludes sentinel-graded windows, and
// greedily selects the top-K non-overlapping clips with a three-level
// tie-break.
//
// Grounded on the teacher's small pure text-utility style (wer.go), since
// ranking is a deterministic fold over already-computed signals with no
// I/O.
package rank

import (
	"math"

	"github.com/clipforge/clipforge/internal/media"
)

// Weights holds the configurable blend weights from §4.G; Default returns
// the spec's defaults.
type Weights struct {
	Coverage        float64
	Density         float64
	Cogency         float64
	QuoteBonus      float64
	SceneCutPenalty float64
	FillerRatio     float64
}

// Default returns the weights given in SPEC_FULL.md §4.G.
func Default() Weights {
	return Weights{
		Coverage:        0.35,
		Density:         0.20,
		Cogency:         0.25,
		QuoteBonus:      0.10,
		SceneCutPenalty: 0.05,
		FillerRatio:     0.05,
	}
}

// Score computes the final [0,1]-clamped score for one window's signals.
func Score(features media.TextFeatures, grade media.LLMGrade, w Weights) float64 {
	quoteBonus := math.Min(1.0, float64(len(grade.Quotes))/3.0)

	score := w.Coverage*features.CoverageScore +
		w.Density*features.DensityScore +
		w.Cogency*(float64(grade.Cogency)/5.0) +
		w.QuoteBonus*quoteBonus -
		w.SceneCutPenalty*features.SceneCutPenalty -
		w.FillerRatio*features.FillerRatio

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// candidate pairs a window with its derived signals and final score,
// mirroring media.RankedClip but kept internal to the selection loop
// until a window is actually chosen.
type candidate struct {
	window   media.Window
	features media.TextFeatures
	grade    media.LLMGrade
	score    float64
}

// SelectTopK scores every (window, features, grade) triple, excludes
// sentinel grades, then greedily selects up to k non-overlapping windows
// (overlap tolerance: up to 10% of the candidate's own duration may
// intersect an already-picked interval), breaking ties by higher cogency,
// then higher coverage, then earlier start.
func SelectTopK(windows []media.Window, features []media.TextFeatures, grades []media.LLMGrade, k int, w Weights) []media.RankedClip {
	if len(windows) != len(features) || len(windows) != len(grades) {
		return nil
	}

	candidates := make([]candidate, 0, len(windows))
	for i := range windows {
		if grades[i].IsSentinel() {
			continue
		}
		candidates = append(candidates, candidate{
			window:   windows[i],
			features: features[i],
			grade:    grades[i],
			score:    Score(features[i], grades[i], w),
		})
	}

	sortCandidates(candidates)

	var picked []media.RankedClip
	var pickedIntervals [][2]float64
	for _, c := range candidates {
		if len(picked) >= k {
			break
		}
		if overlapsExisting(c.window, pickedIntervals) {
			continue
		}
		picked = append(picked, media.RankedClip{
			Window:     c.window,
			Features:   c.features,
			Grade:      c.grade,
			FinalScore: c.score,
		})
		pickedIntervals = append(pickedIntervals, [2]float64{c.window.Start, c.window.End})
	}

	return picked
}

// overlapsExisting reports whether w's interval intersects any picked
// interval by more than 10% of w's own length.
func overlapsExisting(w media.Window, picked [][2]float64) bool {
	length := w.Duration()
	if length <= 0 {
		return false
	}
	for _, p := range picked {
		overlap := math.Min(w.End, p[1]) - math.Max(w.Start, p[0])
		if overlap <= 0 {
			continue
		}
		if overlap/length > 0.10 {
			return true
		}
	}
	return false
}

// sortCandidates orders by score descending, tie-breaking on higher
// cogency, then higher coverage, then earlier start.
func sortCandidates(c []candidate) {
	less := func(a, b candidate) bool {
		if a.score != b.score {
			return a.score > b.score
		}
		if a.grade.Cogency != b.grade.Cogency {
			return a.grade.Cogency > b.grade.Cogency
		}
		if a.features.CoverageScore != b.features.CoverageScore {
			return a.features.CoverageScore > b.features.CoverageScore
		}
		return a.window.Start < b.window.Start
	}
	for i := 1; i < len(c); i++ {
		j := i
		for j > 0 && less(c[j], c[j-1]) {
			c[j-1], c[j] = c[j], c[j-1]
			j--
		}
	}
}
