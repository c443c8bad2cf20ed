// Package window implements the Windower (SPEC_FULL.md §4.D): it turns a
// Transcript plus detected scene cuts into an ordered list of candidate
// clip Windows, snapped to token and scene-cut boundaries and deduplicated
// by token-span overlap.
//
// Grounded on the teacher's small, pure text-utility style (wer.go,
// noise.go: deterministic functions over slices with no I/O) generalized
// from scoring a single transcript to generating a candidate set over one.
package window

import "github.com/clipforge/clipforge/internal/media"

const (
	snapTolerance   = 0.75
	pausePreference = 0.15
	sceneTolerance  = 1.5
	overlapDedupPct = 0.85
)

// Params carries the operator-tunable window sizing from Config
// (window_duration/stride/min/max, SPEC_FULL.md §6) into Generate. Kept
// separate from the boundary-snapping tolerances above, which are fixed
// algorithm constants rather than pipeline tuning knobs.
type Params struct {
	TargetLength float64
	Stride       float64
	MinLength    float64
	MaxLength    float64
}

// DefaultParams mirrors config.Default()'s window values.
func DefaultParams() Params {
	return Params{TargetLength: 90, Stride: 15, MinLength: 45, MaxLength: 120}
}

// Generate produces the ordered, deduplicated candidate window list for one
// transcript. An empty transcript yields no windows; a transcript shorter
// than params.MinLength collapses to a single full-span window, per §4.D's
// edge cases.
func Generate(mediaID string, transcript media.Transcript, cuts []media.SceneCut, params Params) []media.Window {
	if len(transcript.Tokens) == 0 {
		return nil
	}

	duration := transcript.Tokens[len(transcript.Tokens)-1].End
	if duration < params.MinLength {
		return []media.Window{fullSpanWindow(mediaID, transcript)}
	}

	var candidates []media.Window
	for anchor := 0.0; anchor <= duration-params.MinLength; anchor += params.Stride {
		w, ok := buildWindow(mediaID, transcript, cuts, anchor, anchor+params.TargetLength, duration, params)
		if ok {
			candidates = append(candidates, w)
		}
	}

	deduped := dedup(candidates, cuts)

	for i := range deduped {
		deduped[i].ContainsSceneCuts = countInteriorCuts(cuts, deduped[i].Start, deduped[i].End)
	}

	sortByStart(deduped)
	return deduped
}

func fullSpanWindow(mediaID string, transcript media.Transcript) media.Window {
	start := transcript.Tokens[0].Start
	end := transcript.Tokens[len(transcript.Tokens)-1].End
	span := media.TokenSpan{Start: 0, End: len(transcript.Tokens) - 1}
	return media.Window{
		ID:      media.WindowID(mediaID, start, end),
		MediaID: mediaID,
		Start:   start,
		End:     end,
		TokenSpan: span,
		Text:    transcript.Text(span.Start, span.End),
	}
}

// buildWindow snaps the nominal [nominalStart, nominalEnd] interval to
// token/scene boundaries, discarding the window (ok=false) when the
// snapped length falls outside [MinLength, MaxLength].
func buildWindow(mediaID string, transcript media.Transcript, cuts []media.SceneCut, nominalStart, nominalEnd, duration float64, params Params) (media.Window, bool) {
	if nominalEnd > duration {
		nominalEnd = duration
	}

	startIdx, snappedStart, ok := snapBoundary(transcript, cuts, nominalStart, true)
	if !ok {
		return media.Window{}, false
	}
	endIdx, snappedEnd, ok := snapBoundary(transcript, cuts, nominalEnd, false)
	if !ok {
		return media.Window{}, false
	}

	if endIdx <= startIdx || snappedEnd <= snappedStart {
		return media.Window{}, false
	}

	length := snappedEnd - snappedStart
	if length < params.MinLength || length > params.MaxLength {
		return media.Window{}, false
	}

	span := media.TokenSpan{Start: startIdx, End: endIdx}
	return media.Window{
		ID:        media.WindowID(mediaID, snappedStart, snappedEnd),
		MediaID:   mediaID,
		Start:     snappedStart,
		End:       snappedEnd,
		TokenSpan: span,
		Text:      transcript.Text(span.Start, span.End),
	}, true
}

// snapBoundary finds the best token boundary near nominal, preferring a
// scene cut within sceneTolerance over the token-pause heuristic, and
// within the token heuristic preferring a token whose preceding token ends
// no more than pausePreference before it (a speech-pause boundary).
func snapBoundary(transcript media.Transcript, cuts []media.SceneCut, nominal float64, isStart bool) (int, float64, bool) {
	if cut, ok := nearestSceneCut(cuts, nominal); ok {
		idx, t, found := nearestTokenBoundary(transcript, cut, snapTolerance, isStart)
		if found {
			return idx, t, true
		}
	}

	bestIdx := -1
	bestTime := 0.0
	bestIsPause := false
	bestDist := snapTolerance + 1

	for i, tok := range transcript.Tokens {
		var boundaryTime float64
		if isStart {
			boundaryTime = tok.Start
		} else {
			boundaryTime = tok.End
		}
		dist := abs(boundaryTime - nominal)
		if dist > snapTolerance {
			continue
		}

		isPause := false
		if isStart && i > 0 {
			isPause = tok.Start-transcript.Tokens[i-1].End <= pausePreference
		}
		if !isStart && i > 0 {
			isPause = tok.Start-transcript.Tokens[i-1].End <= pausePreference
		}

		switch {
		case isPause && !bestIsPause:
			bestIdx, bestTime, bestIsPause, bestDist = i, boundaryTime, true, dist
		case isPause == bestIsPause && dist < bestDist:
			bestIdx, bestTime, bestIsPause, bestDist = i, boundaryTime, isPause, dist
		}
	}

	if bestIdx < 0 {
		return 0, 0, false
	}
	return bestIdx, bestTime, true
}

func nearestSceneCut(cuts []media.SceneCut, nominal float64) (float64, bool) {
	best := 0.0
	bestDist := sceneTolerance + 1
	found := false
	for _, c := range cuts {
		d := abs(c.Time - nominal)
		if d <= sceneTolerance && d < bestDist {
			best, bestDist, found = c.Time, d, true
		}
	}
	return best, found
}

func nearestTokenBoundary(transcript media.Transcript, target float64, tolerance float64, isStart bool) (int, float64, bool) {
	bestIdx := -1
	bestTime := 0.0
	bestDist := tolerance + 1
	for i, tok := range transcript.Tokens {
		boundaryTime := tok.End
		if isStart {
			boundaryTime = tok.Start
		}
		d := abs(boundaryTime - target)
		if d <= tolerance && d < bestDist {
			bestIdx, bestTime, bestDist = i, boundaryTime, d
		}
	}
	if bestIdx < 0 {
		return 0, 0, false
	}
	return bestIdx, bestTime, true
}

// dedup collapses windows whose token spans overlap by at least
// overlapDedupPct, keeping whichever is closer to a scene cut, else the
// earlier one.
func dedup(candidates []media.Window, cuts []media.SceneCut) []media.Window {
	kept := make([]media.Window, 0, len(candidates))
	for _, w := range candidates {
		replaced := false
		dropped := false
		for i, k := range kept {
			if !spansOverlapEnough(w.TokenSpan, k.TokenSpan) {
				continue
			}
			if preferWindow(w, k, cuts) {
				kept[i] = w
				replaced = true
			} else {
				dropped = true
			}
			break
		}
		if !replaced && !dropped {
			kept = append(kept, w)
		}
	}
	return kept
}

func spansOverlapEnough(a, b media.TokenSpan) bool {
	overlapStart := max(a.Start, b.Start)
	overlapEnd := min(a.End, b.End)
	if overlapEnd < overlapStart {
		return false
	}
	overlapLen := float64(overlapEnd - overlapStart + 1)
	aLen := float64(a.End - a.Start + 1)
	bLen := float64(b.End - b.Start + 1)
	shorter := aLen
	if bLen < shorter {
		shorter = bLen
	}
	return overlapLen/shorter >= overlapDedupPct
}

// preferWindow reports whether candidate should replace existing: the
// window with a boundary (start or end) closer to a scene cut wins, else
// the earlier window (existing, by construction of anchor ordering) wins.
func preferWindow(candidate, existing media.Window, cuts []media.SceneCut) bool {
	cutDistance := func(w media.Window) float64 {
		best := -1.0
		for _, c := range cuts {
			for _, d := range []float64{abs(c.Time - w.Start), abs(c.Time - w.End)} {
				if best < 0 || d < best {
					best = d
				}
			}
		}
		return best
	}
	return cutDistance(candidate) < cutDistance(existing) // tie or no cuts: existing wins
}

func countInteriorCuts(cuts []media.SceneCut, start, end float64) int {
	n := 0
	for _, c := range cuts {
		if c.Time > start && c.Time < end {
			n++
		}
	}
	return n
}

func sortByStart(windows []media.Window) {
	for i := 1; i < len(windows); i++ {
		j := i
		for j > 0 && windows[j-1].Start > windows[j].Start {
			windows[j-1], windows[j] = windows[j], windows[j-1]
			j--
		}
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
