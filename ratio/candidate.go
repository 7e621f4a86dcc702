// Package ratio builds the candidate ratios of a de-interleaved recording and
// decides which one carries the physiological calcium transient.
package ratio

import (
	"errors"
	"fmt"
	"math"

	"github.com/carbocation/calcium/interleave"
	"github.com/carbocation/calcium/series"
)

// GuardEpsilon is the smallest denominator magnitude that is divided through.
const GuardEpsilon = 1e-12

// DivisionGuard is the value stored wherever a denominator was zero or nearly
// so. Guarded samples are skipped by the peak detector and by every scorer.
var DivisionGuard = math.NaN()

// ErrAmbiguous marks a selection where no strategy could tell the candidates
// apart. It is reported alongside the result rather than returned.
var ErrAmbiguous = errors.New("ambiguous ratio: candidates scored identically under every strategy")

// Channel names one half of an interleave.Pair.
type Channel int8

const (
	Even Channel = iota
	Odd
)

func (c Channel) String() string {
	if c == Odd {
		return "odd"
	}
	return "even"
}

func (c Channel) other() Channel {
	if c == Odd {
		return Even
	}
	return Odd
}

// Candidate is one possible ratio of the two channels.
type Candidate struct {
	Series series.Series

	// Numerator is the channel on top of the ratio before any inversion.
	Numerator Channel
	Inverted  bool

	// Guarded counts the samples set to DivisionGuard.
	Guarded int
}

// Name describes the pairing, e.g. "even/odd" or "1/(odd/even)".
func (c Candidate) Name() string {
	out := fmt.Sprintf("%s/%s", c.Numerator, c.Numerator.other())
	if c.Inverted {
		return "1/(" + out + ")"
	}
	return out
}

// Build returns R1 = Even/Odd and R2 = Odd/Even, truncated to the number of
// complete sample pairs. Times come from the Even channel. Channels may differ
// by one trailing sample; anything more means the split went wrong.
func Build(p interleave.Pair) ([]Candidate, error) {
	if d := p.Even.Len() - p.Odd.Len(); d > 1 || d < -1 {
		return nil, fmt.Errorf("even channel has %d samples, odd has %d: %w", p.Even.Len(), p.Odd.Len(), series.ErrDimensionMismatch)
	}

	n := p.Common()
	r1, g1 := divide(p.Even, p.Odd, p.Even, n)
	r2, g2 := divide(p.Odd, p.Even, p.Even, n)

	return []Candidate{
		{Series: r1, Numerator: Even, Guarded: g1},
		{Series: r2, Numerator: Odd, Guarded: g2},
	}, nil
}

// Reciprocal is 1/c, evaluated through the same guard.
func Reciprocal(c Candidate) Candidate {
	guarded := c.Guarded
	inv := c.Series.Map(func(_ int, v float64) float64 {
		out, ok := guard(1, v)
		if !ok {
			guarded++
		}
		return out
	})

	return Candidate{
		Series:    inv,
		Numerator: c.Numerator,
		Inverted:  !c.Inverted,
		Guarded:   guarded,
	}
}

func divide(num, den, clock series.Series, n int) (series.Series, int) {
	out := make([]series.Sample, n)
	guarded := 0

	for i := 0; i < n; i++ {
		v, ok := guard(num.Value(i), den.Value(i))
		if !ok {
			guarded++
		}
		out[i] = series.Sample{Time: clock.Time(i), Value: v}
	}

	return series.Build(out), guarded
}

func guard(num, den float64) (float64, bool) {
	if math.Abs(den) < GuardEpsilon {
		return DivisionGuard, false
	}
	return num / den, true
}
