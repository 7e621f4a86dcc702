// Package decay isolates the decay phase of each wavelet, fits it to a single
// exponential and summarizes the fits of a whole series.
package decay

import (
	"errors"
	"fmt"

	"github.com/carbocation/calcium/peaks"
	"github.com/carbocation/calcium/series"
)

// ErrFitFailed marks a wavelet whose decay could not be fitted. It never
// affects the other wavelets of the series.
var ErrFitFailed = errors.New("decay fit failed")

// Window is the inclusive index range of a decay that is passed to the fitter,
// and the amplitude thresholds that produced it.
type Window struct {
	Start, End       int
	StartAmp, EndAmp float64
}

func (w Window) Len() int { return w.End - w.Start + 1 }

// SelectWindow trims the decay of w to the portion between two relative
// amplitudes. With min and max the wavelet's extremes, the window opens at the
// first sample at or after the maximum that has fallen to
// min + start*(max-min), and closes at the last sample at or before the
// minimum still at or above min + end*(max-min). s is normally the smoothed
// series.
func SelectWindow(s series.Series, w peaks.Wavelet, start, end float64, minLen int) (Window, error) {
	lo, hi := w.Min.Amplitude, w.Max.Amplitude
	out := Window{
		Start:    -1,
		End:      -1,
		StartAmp: lo + start*(hi-lo),
		EndAmp:   lo + end*(hi-lo),
	}

	for i := w.Max.Index; i <= w.Min.Index && i < s.Len(); i++ {
		if s.Valid(i) && s.Value(i) <= out.StartAmp {
			out.Start = i
			break
		}
	}
	if out.Start < 0 {
		return out, fmt.Errorf("decay never falls to %v: %w", out.StartAmp, ErrFitFailed)
	}

	for i := w.Min.Index; i >= out.Start; i-- {
		if i < s.Len() && s.Valid(i) && s.Value(i) >= out.EndAmp {
			out.End = i
			break
		}
	}
	if out.End < 0 {
		return out, fmt.Errorf("decay never stays above %v: %w", out.EndAmp, ErrFitFailed)
	}

	if out.Len() < minLen {
		return out, fmt.Errorf("window of %d samples is shorter than %d: %w", out.Len(), minLen, ErrFitFailed)
	}

	return out, nil
}
