package decay

import (
	"fmt"
	"math"

	"github.com/carbocation/calcium/series"
	"github.com/jfcg/butter"
)

// Smoother returns a smoothed copy of a decay segment. The first and last
// samples anchor the peaks and must be preserved.
type Smoother interface {
	Smooth(s series.Series) (series.Series, error)
}

// None leaves the segment as it is.
type None struct{}

func (None) Smooth(s series.Series) (series.Series, error) { return s, nil }

// MovingAverage is a centered moving average applied Passes times. Near the
// ends the window shrinks symmetrically so that it stays centered. NaN samples
// are left out of each average.
type MovingAverage struct {
	Width  int
	Passes int
}

func (m MovingAverage) Smooth(s series.Series) (series.Series, error) {
	if m.Width < 1 || m.Passes < 0 {
		return series.Series{}, fmt.Errorf("invalid moving average width %d, passes %d", m.Width, m.Passes)
	}

	values := s.Values()
	half := m.Width / 2
	n := len(values)

	for pass := 0; pass < m.Passes; pass++ {
		prev := make([]float64, n)
		copy(prev, values)

		for k := 1; k < n-1; k++ {
			h := min(half, k, n-1-k)

			var sum float64
			var count int
			for j := k - h; j <= k+h; j++ {
				if !math.IsNaN(prev[j]) {
					sum += prev[j]
					count++
				}
			}
			if count > 0 {
				values[k] = sum / float64(count)
			}
		}
	}

	return s.Map(func(i int, _ float64) float64 { return values[i] }), nil
}

// LowPass is a zero-phase first-order Butterworth low-pass filter. Cutoff is
// the normalized angular frequency in radians per sample and must lie in
// (0.0001, pi).
type LowPass struct {
	Cutoff float64
}

func (lp LowPass) Smooth(s series.Series) (series.Series, error) {
	values := s.Values()
	n := len(values)
	if n < 3 {
		return s, nil
	}
	for _, v := range values {
		if math.IsNaN(v) {
			return series.Series{}, fmt.Errorf("low-pass filter cannot run across missing samples")
		}
	}

	first, last := values[0], values[n-1]

	forward := butter.NewLowPass1(lp.Cutoff)
	if forward == nil {
		return series.Series{}, fmt.Errorf("invalid low-pass filter (attempted wc=%f, but expect .0001 < wc && wc < 3.1415)", lp.Cutoff)
	}
	for i := range values {
		values[i] = forward.Next(values[i]-first) + first
	}

	// Run back over the result to cancel the phase lag of the forward pass.
	backward := butter.NewLowPass1(lp.Cutoff)
	end := values[n-1]
	for i := n - 1; i >= 0; i-- {
		values[i] = backward.Next(values[i]-end) + end
	}

	values[0], values[n-1] = first, last

	return s.Map(func(i int, _ float64) float64 { return values[i] }), nil
}
