// Package series holds the immutable time series values that flow between the
// pipeline stages. A Series is built once and never modified afterwards; every
// stage derives a new Series from its input.
package series

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is returned when two series that must be aligned
// sample-for-sample differ in length or time axis.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// Sample is one (time, amplitude) observation.
type Sample struct {
	Time  float64
	Value float64
}

// Series is an ordered, immutable sequence of samples.
type Series struct {
	samples []Sample
}

// New copies samples into a new Series.
func New(samples []Sample) Series {
	out := make([]Sample, len(samples))
	copy(out, samples)
	return Series{samples: out}
}

// FromSlices builds a Series from parallel time and value slices.
func FromSlices(times, values []float64) (Series, error) {
	if len(times) != len(values) {
		return Series{}, fmt.Errorf("%d times but %d values: %w", len(times), len(values), ErrDimensionMismatch)
	}

	out := make([]Sample, len(times))
	for i := range times {
		out[i] = Sample{Time: times[i], Value: values[i]}
	}

	return Series{samples: out}, nil
}

// Build hands a freshly allocated slice to a new Series without copying it.
// The caller must not retain samples.
func Build(samples []Sample) Series {
	return Series{samples: samples}
}

func (s Series) Len() int { return len(s.samples) }

func (s Series) At(i int) Sample { return s.samples[i] }

func (s Series) Time(i int) float64 { return s.samples[i].Time }

func (s Series) Value(i int) float64 { return s.samples[i].Value }

// Samples returns a copy of the underlying samples.
func (s Series) Samples() []Sample {
	out := make([]Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

func (s Series) Times() []float64 {
	out := make([]float64, len(s.samples))
	for i, v := range s.samples {
		out[i] = v.Time
	}
	return out
}

func (s Series) Values() []float64 {
	out := make([]float64, len(s.samples))
	for i, v := range s.samples {
		out[i] = v.Value
	}
	return out
}

// Slice returns the samples in [from, to) as a new Series.
func (s Series) Slice(from, to int) Series {
	return New(s.samples[from:to])
}

// Map applies fn to every value, keeping the times.
func (s Series) Map(fn func(i int, v float64) float64) Series {
	out := make([]Sample, len(s.samples))
	for i, v := range s.samples {
		out[i] = Sample{Time: v.Time, Value: fn(i, v.Value)}
	}
	return Build(out)
}

// Duration is the elapsed time between the first and last samples.
func (s Series) Duration() float64 {
	if len(s.samples) < 2 {
		return 0
	}
	return s.samples[len(s.samples)-1].Time - s.samples[0].Time
}

// Valid reports whether the value at i is usable, i.e. not a NaN sentinel.
func (s Series) Valid(i int) bool {
	return !math.IsNaN(s.samples[i].Value)
}

// AlignedWith reports whether s and o have the same length and the same time
// axis, within a relative tolerance.
func (s Series) AlignedWith(o Series) error {
	if len(s.samples) != len(o.samples) {
		return fmt.Errorf("%d samples vs %d samples: %w", len(s.samples), len(o.samples), ErrDimensionMismatch)
	}

	for i := range s.samples {
		a, b := s.samples[i].Time, o.samples[i].Time
		if math.Abs(a-b) > 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b))) {
			return fmt.Errorf("time %v vs %v at sample %d: %w", a, b, i, ErrDimensionMismatch)
		}
	}

	return nil
}
