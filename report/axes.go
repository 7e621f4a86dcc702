package report

import (
	"errors"
	"math"

	"github.com/carbocation/calcium/series"
)

// Axes override the plotted range. Nil limits are taken from the data.
type Axes struct {
	XMin, XMax *float64
	YMin, YMax *float64
}

func (a Axes) Validate() error {
	if a.YMin != nil && a.YMax != nil && !(*a.YMax > *a.YMin) {
		return errors.New("ymax must be greater than ymin")
	}
	if a.XMin != nil && a.XMax != nil && !(*a.XMax > *a.XMin) {
		return errors.New("xmax must be greater than xmin")
	}
	return nil
}

// xRange returns the x limits for s: the full recording unless overridden.
func (a Axes) xRange(s series.Series) (lo, hi float64) {
	lo, hi = math.NaN(), math.NaN()
	if s.Len() > 0 {
		lo, hi = s.Time(0), s.Time(s.Len()-1)
	}
	if a.XMin != nil {
		lo = *a.XMin
	}
	if a.XMax != nil {
		hi = *a.XMax
	}
	return lo, hi
}

// yRange returns the y limits for s, with a small margin around the data.
func (a Axes) yRange(s series.Series) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for i := 0; i < s.Len(); i++ {
		if s.Valid(i) {
			lo, hi = math.Min(lo, s.Value(i)), math.Max(hi, s.Value(i))
		}
	}
	if math.IsInf(lo, 0) {
		lo, hi = 0, 1
	}
	pad := 0.05 * (hi - lo)
	if pad == 0 {
		pad = 0.5
	}
	lo, hi = lo-pad, hi+pad

	if a.YMin != nil {
		lo = *a.YMin
	}
	if a.YMax != nil {
		hi = *a.YMax
	}
	return lo, hi
}
