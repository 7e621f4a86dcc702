package ratio

import (
	"fmt"
	"math"
	"strings"

	"github.com/carbocation/calcium/peaks"
	"github.com/carbocation/calcium/series"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mode selects the scoring strategy.
type Mode string

const (
	// Time prefers the candidate whose rises are much shorter than its
	// decays.
	Time Mode = "time"
	// Amplitude prefers the candidate that spends most of each cycle near
	// its minima, i.e. a sharp excursion over a resting baseline.
	Amplitude Mode = "amplitude"
)

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case string(Time):
		return Time, nil
	case string(Amplitude):
		return Amplitude, nil
	}
	return "", fmt.Errorf("unknown ratio mode %q (want %q or %q)", s, Time, Amplitude)
}

// Other is the fallback strategy used when m cannot tell candidates apart.
func (m Mode) Other() Mode {
	if m == Amplitude {
		return Time
	}
	return Amplitude
}

// Scorer rates how closely a candidate resembles a calcium transient, given
// its detected peaks. Scores lie in [-1, 1]; a ratio and its reciprocal score
// with opposite signs.
type Scorer interface {
	Score(s series.Series, ps []peaks.Peak) float64
}

// Scorer returns the built-in strategy for m. Limit restricts time scoring to
// the earliest wavelets.
func (m Mode) Scorer(limit int) Scorer {
	if m == Amplitude {
		return AmplitudeScorer{}
	}
	return TimeScorer{Limit: limit}
}

// TimeScorer computes (mean decay - mean rise) / (mean decay + mean rise).
type TimeScorer struct {
	Limit int
}

func (ts TimeScorer) Score(_ series.Series, ps []peaks.Peak) float64 {
	ws := peaks.Limit(peaks.Wavelets(ps), ts.Limit)

	decays := make([]float64, 0, len(ws))
	rises := make([]float64, 0, len(ws))
	for _, w := range ws {
		decays = append(decays, w.DecayDuration())
		if w.HasRise() {
			rises = append(rises, w.RiseDuration())
		}
	}
	if len(decays) == 0 || len(rises) == 0 {
		return 0
	}

	decay, rise := stat.Mean(decays, nil), stat.Mean(rises, nil)
	if decay+rise <= 0 {
		return 0
	}

	return (decay - rise) / (decay + rise)
}

// AmplitudeScorer compares how many valid samples sit nearer the low level
// than the high level. Levels are the mean detected minimum and maximum, or
// the observed extremes when no peaks were found.
type AmplitudeScorer struct{}

func (AmplitudeScorer) Score(s series.Series, ps []peaks.Peak) float64 {
	values := validValues(s)
	if len(values) == 0 {
		return 0
	}

	hi, lo := floats.Max(values), floats.Min(values)
	maxima, minima := peaks.Split(ps)
	if len(maxima) > 0 && len(minima) > 0 {
		hi, lo = meanAmplitude(maxima), meanAmplitude(minima)
	}
	if !(hi > lo) {
		return 0
	}

	var low, high int
	for _, v := range values {
		switch dl, dh := math.Abs(v-lo), math.Abs(v-hi); {
		case dl < dh:
			low++
		case dh < dl:
			high++
		}
	}

	return float64(low-high) / float64(len(values))
}

func validValues(s series.Series) []float64 {
	out := make([]float64, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		if s.Valid(i) {
			out = append(out, s.Value(i))
		}
	}
	return out
}

func meanAmplitude(ps []peaks.Peak) float64 {
	amps := make([]float64, len(ps))
	for i, p := range ps {
		amps[i] = p.Amplitude
	}
	return stat.Mean(amps, nil)
}
