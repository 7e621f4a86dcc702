// Package background removes the background fluorescence of a worksheet from
// each of its cell-line columns.
package background

import (
	"fmt"
	"strings"

	"github.com/carbocation/calcium/series"
)

type Mode string

const (
	// Average subtracts the background sample-by-sample.
	Average Mode = "average"
	// Point subtracts the first background sample from every sample.
	Point Mode = "point"
	// Channel subtracts, separately for the even and the odd rows, the mean
	// of the background's rows of the same parity.
	Channel Mode = "channel"
	None    Mode = "none"
)

var Modes = []Mode{Average, Point, Channel, None}

func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown background reduction mode %q", s)
}

// Result is the reduced version of one column, or the reason it could not be
// reduced.
type Result struct {
	Column series.Column
	Err    error
}

// Reduce subtracts bg from every column in cols according to mode. The
// background column itself is skipped if it appears in cols. Failures are
// reported per column so that one misaligned column does not affect the
// others.
func Reduce(cols []series.Column, bg series.Column, mode Mode) []Result {
	out := make([]Result, 0, len(cols))

	for _, col := range cols {
		if col.Index == bg.Index {
			continue
		}

		reduced, err := reduceOne(col.Series, bg.Series, mode)
		if err != nil {
			out = append(out, Result{Column: col, Err: fmt.Errorf("column %d (%s): %w", col.Index, col.Name, err)})
			continue
		}

		out = append(out, Result{Column: series.Column{Index: col.Index, Name: col.Name, Series: reduced}})
	}

	return out
}

func reduceOne(s, bg series.Series, mode Mode) (series.Series, error) {
	switch mode {
	case None, "":
		return s, nil
	case Average:
		if err := s.AlignedWith(bg); err != nil {
			return series.Series{}, err
		}
		return s.Map(func(i int, v float64) float64 { return v - bg.Value(i) }), nil
	case Point:
		if bg.Len() == 0 {
			return series.Series{}, fmt.Errorf("empty background: %w", series.ErrDimensionMismatch)
		}
		first := bg.Value(0)
		return s.Map(func(_ int, v float64) float64 { return v - first }), nil
	case Channel:
		if bg.Len() < 2 {
			return series.Series{}, fmt.Errorf("background has %d samples, need at least 2: %w", bg.Len(), series.ErrDimensionMismatch)
		}
		means := parityMeans(bg)
		return s.Map(func(i int, v float64) float64 { return v - means[i%2] }), nil
	}

	return series.Series{}, fmt.Errorf("unknown background reduction mode %q", mode)
}

func parityMeans(bg series.Series) [2]float64 {
	var sums [2]float64
	var counts [2]int
	for i := 0; i < bg.Len(); i++ {
		sums[i%2] += bg.Value(i)
		counts[i%2]++
	}
	return [2]float64{sums[0] / float64(counts[0]), sums[1] / float64(counts[1])}
}
