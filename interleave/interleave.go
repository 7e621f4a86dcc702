// Package interleave splits a combined two-wavelength recording into its two
// alternating channels and zips them back together.
package interleave

import "github.com/carbocation/calcium/series"

// Pair holds the two channels recovered from an interleaved series. Which of
// the two is the numerator of the physiological ratio is not known at this
// point.
type Pair struct {
	Even series.Series
	Odd  series.Series
}

// Split assigns the even-indexed samples to Even and the odd-indexed samples
// to Odd. Times are carried through unchanged. For an odd-length input, Even
// holds the extra trailing sample.
func Split(s series.Series) Pair {
	n := s.Len()
	even := make([]series.Sample, 0, (n+1)/2)
	odd := make([]series.Sample, 0, n/2)

	for i := 0; i < n; i++ {
		if i%2 == 0 {
			even = append(even, s.At(i))
		} else {
			odd = append(odd, s.At(i))
		}
	}

	return Pair{Even: series.Build(even), Odd: series.Build(odd)}
}

// Interleave is the inverse of Split.
func Interleave(p Pair) series.Series {
	out := make([]series.Sample, 0, p.Even.Len()+p.Odd.Len())

	for i := 0; i < p.Even.Len() || i < p.Odd.Len(); i++ {
		if i < p.Even.Len() {
			out = append(out, p.Even.At(i))
		}
		if i < p.Odd.Len() {
			out = append(out, p.Odd.At(i))
		}
	}

	return series.Build(out)
}

// Common is the number of sample pairs available to both channels.
func (p Pair) Common() int {
	if p.Even.Len() < p.Odd.Len() {
		return p.Even.Len()
	}
	return p.Odd.Len()
}
