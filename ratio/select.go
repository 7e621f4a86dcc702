package ratio

import (
	"errors"
	"fmt"
	"math"

	"github.com/carbocation/calcium/peaks"
)

// TieMargin is the largest score difference still treated as a tie.
const TieMargin = 1e-9

// Selector picks the physiological ratio among candidates.
type Selector struct {
	Mode Mode

	// Invert declares that the recording's transients are expected upside
	// down, so the least transient-like candidate wins. Adding 1/R1 and 1/R2
	// to the candidates would only repeat R2 and R1, so negating every score
	// stands in for selecting among the reciprocals.
	Invert bool

	Peaks peaks.Params

	// Limit > 0 restricts time scoring to the first Limit wavelets.
	Limit int
}

// Selection is the outcome of Select. Scores are those of Mode, which is the
// fallback strategy when the configured one tied. Margin is the lead of the
// winner over the runner-up.
type Selection struct {
	Index     int
	Candidate Candidate
	Peaks     []peaks.Peak

	Mode      Mode
	Scores    []float64
	Margin    float64
	Ambiguous bool
}

// Warning returns ErrAmbiguous for an ambiguous selection, nil otherwise.
func (s Selection) Warning() error {
	if s.Ambiguous {
		return ErrAmbiguous
	}
	return nil
}

// Select detects peaks on every candidate, scores them and returns the best.
// Candidates are never rejected; an unresolved tie selects the first one and
// sets Ambiguous.
func (sel Selector) Select(cands []Candidate) (Selection, error) {
	if len(cands) == 0 {
		return Selection{}, errors.New("no ratio candidates to select from")
	}
	if sel.Mode != Time && sel.Mode != Amplitude {
		return Selection{}, fmt.Errorf("unknown ratio mode %q", sel.Mode)
	}
	if err := sel.Peaks.Validate(); err != nil {
		return Selection{}, err
	}

	found := make([][]peaks.Peak, len(cands))
	for i, c := range cands {
		found[i] = peaks.Detect(c.Series, sel.Peaks)
	}

	out := Selection{Mode: sel.Mode}
	out.Scores = sel.score(sel.Mode, cands, found)
	out.Index, out.Margin = best(out.Scores)

	if out.Margin <= TieMargin {
		fallback := sel.score(sel.Mode.Other(), cands, found)
		if idx, margin := best(fallback); margin > TieMargin {
			out.Mode, out.Scores, out.Index, out.Margin = sel.Mode.Other(), fallback, idx, margin
		} else {
			out.Index, out.Ambiguous = 0, true
		}
	}

	out.Candidate = cands[out.Index]
	out.Peaks = found[out.Index]

	return out, nil
}

func (sel Selector) score(m Mode, cands []Candidate, found [][]peaks.Peak) []float64 {
	scorer := m.Scorer(sel.Limit)

	out := make([]float64, len(cands))
	for i, c := range cands {
		out[i] = scorer.Score(c.Series, found[i])
		if sel.Invert {
			out[i] = -out[i]
		}
	}
	return out
}

// best returns the index of the highest score (the earliest on a tie) and its
// lead over the next highest. A single candidate wins by an infinite margin.
func best(scores []float64) (int, float64) {
	idx := 0
	for i, v := range scores {
		if v > scores[idx] {
			idx = i
		}
	}

	runnerUp := math.Inf(-1)
	for i, v := range scores {
		if i != idx && v > runnerUp {
			runnerUp = v
		}
	}

	return idx, scores[idx] - runnerUp
}
