package peaks

import (
	"math"

	"github.com/carbocation/calcium/series"
)

type candidate struct {
	index int
	value float64
	set   bool
}

// accumulator is the look-ahead state machine. After confirming a maximum it
// only looks for a minimum, and vice versa, which is what keeps its raw output
// alternating.
type accumulator struct {
	s      series.Series
	params Params

	i     int
	end   int
	first int

	hi, lo candidate
	last   Kind
}

func newAccumulator(s series.Series, p Params) *accumulator {
	first := 0
	for first < s.Len() && !s.Valid(first) {
		first++
	}

	return &accumulator{
		s:      s,
		params: p,
		i:      first,
		end:    s.Len() - p.Lookahead,
		first:  first,
	}
}

func (a *accumulator) next() (Peak, bool) {
	for ; a.i < a.end; a.i++ {
		if !a.s.Valid(a.i) {
			continue
		}
		y := a.s.Value(a.i)

		if a.last != Max && (!a.hi.set || y > a.hi.value) {
			a.hi = candidate{index: a.i, value: y, set: true}
		}
		if a.last != Min && (!a.lo.set || y < a.lo.value) {
			a.lo = candidate{index: a.i, value: y, set: true}
		}

		var confirmed candidate
		var kind Kind
		switch {
		case a.last != Max && a.hi.set && y < a.hi.value-a.params.Delta && a.windowMax(a.i) < a.hi.value:
			confirmed, kind = a.hi, Max
		case a.last != Min && a.lo.set && y > a.lo.value+a.params.Delta && a.windowMin(a.i) > a.lo.value:
			confirmed, kind = a.lo, Min
		default:
			continue
		}

		// The confirming sample already moved delta the other way, so it
		// opens the search for the opposite extremum.
		a.last = kind
		a.hi, a.lo = candidate{}, candidate{}
		if kind == Max {
			a.lo = candidate{index: a.i, value: y, set: true}
		} else {
			a.hi = candidate{index: a.i, value: y, set: true}
		}
		a.i++

		if confirmed.index == a.first {
			// The first sample is a boundary, not a turning point.
			return a.next()
		}

		return Peak{
			Index:     confirmed.index,
			Position:  a.s.Time(confirmed.index),
			Amplitude: confirmed.value,
			Kind:      kind,
		}, true
	}

	return Peak{}, false
}

func (a *accumulator) windowMax(from int) float64 {
	out := math.Inf(-1)
	for j := from; j < from+a.params.Lookahead && j < a.s.Len(); j++ {
		if v := a.s.Value(j); !math.IsNaN(v) && v > out {
			out = v
		}
	}
	return out
}

func (a *accumulator) windowMin(from int) float64 {
	out := math.Inf(1)
	for j := from; j < from+a.params.Lookahead && j < a.s.Len(); j++ {
		if v := a.s.Value(j); !math.IsNaN(v) && v < out {
			out = v
		}
	}
	return out
}
