// Package peaks finds alternating maxima and minima in a series with a
// look-ahead detector, and derives the rise/decay wavelets between them.
//
// Detection runs in two stages, each of which can be tested on its own:
//
//   - an accumulator that scans the series once, holding a candidate maximum,
//     a candidate minimum and the kind of the last confirmed extremum. Once a
//     maximum is confirmed only a minimum can be confirmed next, and vice
//     versa, so a second, higher maximum before the decay is confirmed
//     replaces the candidate instead of producing a double peak;
//   - an edge policy that drops a leading minimum and a trailing maximum,
//     since only complete max->min decays are analyzed.
package peaks

import (
	"fmt"
	"math"

	"github.com/carbocation/calcium/series"
)

type Kind int8

const (
	Max Kind = iota + 1
	Min
)

func (k Kind) String() string {
	switch k {
	case Max:
		return "max"
	case Min:
		return "min"
	}
	return "none"
}

// Peak is a confirmed extremum. Position is the sample's time.
type Peak struct {
	Index     int
	Position  float64
	Amplitude float64
	Kind      Kind
}

// Params control the detector. Lookahead is the number of samples that must
// follow a candidate without exceeding it; Delta is the minimum drop (for a
// maximum) or rise (for a minimum) that must be seen before confirming it.
type Params struct {
	Lookahead int
	Delta     float64
}

func (p Params) Validate() error {
	if p.Lookahead < 1 {
		return fmt.Errorf("lookahead must be at least 1, got %d", p.Lookahead)
	}
	if p.Delta < 0 || math.IsNaN(p.Delta) {
		return fmt.Errorf("delta must be non-negative, got %v", p.Delta)
	}
	return nil
}

// source yields peaks one at a time.
type source interface {
	next() (Peak, bool)
}

// Detector lazily yields the alternating peaks of one series. It holds no
// state that outlives a single pass; build a new Detector to start over.
type Detector struct {
	src source

	seenMax bool
	queued  Peak
	hasNext bool
}

// NewDetector prepares a pass over s. Invalid params yield an empty sequence;
// call Params.Validate first to surface the reason.
func NewDetector(s series.Series, p Params) *Detector {
	if p.Validate() != nil {
		return &Detector{src: emptySource{}}
	}
	return &Detector{src: newAccumulator(s, p)}
}

// Next returns the next peak, or false once the series is exhausted. Peaks
// strictly alternate, the first is always a Max and the last always a Min.
func (d *Detector) Next() (Peak, bool) {
	if d.hasNext {
		d.hasNext = false
		return d.queued, true
	}

	for {
		p, ok := d.src.next()
		if !ok {
			return Peak{}, false
		}

		if p.Kind == Min {
			if !d.seenMax {
				// Series started mid-decay
				continue
			}
			return p, true
		}

		// A max is only reported once the min that ends its decay is known.
		following, ok := d.src.next()
		if !ok {
			return Peak{}, false
		}
		d.seenMax = true
		d.queued, d.hasNext = following, true
		return p, true
	}
}

// Detect drains a fresh Detector.
func Detect(s series.Series, p Params) []Peak {
	out := make([]Peak, 0)
	d := NewDetector(s, p)
	for {
		pk, ok := d.Next()
		if !ok {
			return out
		}
		out = append(out, pk)
	}
}

// Split separates maxima from minima, preserving order.
func Split(ps []Peak) (maxima, minima []Peak) {
	for _, p := range ps {
		if p.Kind == Max {
			maxima = append(maxima, p)
		} else {
			minima = append(minima, p)
		}
	}
	return maxima, minima
}

type emptySource struct{}

func (emptySource) next() (Peak, bool) { return Peak{}, false }
