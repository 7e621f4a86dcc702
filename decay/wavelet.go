package decay

import (
	"fmt"
	"math"

	"github.com/carbocation/calcium/peaks"
	"github.com/carbocation/calcium/series"
)

// Options configure the fitting of every wavelet in a series.
type Options struct {
	// DecayStart and DecayEnd are relative amplitudes in [0, 1] with
	// DecayStart > DecayEnd. 1 and 0 fit the whole decay.
	DecayStart float64
	DecayEnd   float64

	Smoothing Smoother
	Bounds    bool

	MinWindow      int
	MaxIterations  int
	VelocityWindow int
}

func DefaultOptions() Options {
	return Options{
		DecayStart:     1,
		DecayEnd:       0,
		Smoothing:      MovingAverage{Width: 5, Passes: 2},
		MinWindow:      7,
		MaxIterations:  defaultMaxIterations,
		VelocityWindow: 3,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Smoothing == nil {
		o.Smoothing = None{}
	}
	if o.MinWindow <= 0 {
		o.MinWindow = def.MinWindow
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = def.MaxIterations
	}
	if o.VelocityWindow <= 0 {
		o.VelocityWindow = def.VelocityWindow
	}
	return o
}

// WaveletResult is everything measured on one wavelet. When Err is set only
// the fields that do not depend on the fit are populated.
type WaveletResult struct {
	Wavelet peaks.Wavelet
	Window  Window
	Fit     Fit

	// Curve is the fitted model sampled at the window's times.
	Curve series.Series

	DecayDuration float64
	Amplitude     float64
	Velocity      float64
	Diastolic     float64
	RiseTime      float64

	Err error
}

// Tau is the fitted time constant, or NaN for a failed fit.
func (r WaveletResult) Tau() float64 {
	if r.Err != nil {
		return math.NaN()
	}
	return r.Fit.Tau
}

// FitWavelet smooths the decay of w, windows it and fits the exponential.
// Failures are recorded in the result's Err and wrap ErrFitFailed.
func FitWavelet(s series.Series, w peaks.Wavelet, opts Options) WaveletResult {
	opts = opts.withDefaults()

	out := WaveletResult{
		Wavelet:   w,
		Amplitude: w.Amplitude(),
		Diastolic: w.Min.Amplitude,
		Velocity:  velocity(s, w, opts.VelocityWindow),
		RiseTime:  math.NaN(),
	}
	if w.HasRise() {
		out.RiseTime = w.RiseDuration()
	}

	if !(opts.DecayStart > opts.DecayEnd) {
		out.Err = fmt.Errorf("decay start %v must exceed decay end %v: %w", opts.DecayStart, opts.DecayEnd, ErrFitFailed)
		return out
	}
	if w.Min.Index <= w.Max.Index || w.Min.Index >= s.Len() {
		out.Err = fmt.Errorf("wavelet %d..%d does not lie within %d samples: %w", w.Max.Index, w.Min.Index, s.Len(), ErrFitFailed)
		return out
	}

	segment, err := opts.Smoothing.Smooth(s.Slice(w.Max.Index, w.Min.Index+1))
	if err != nil {
		out.Err = fmt.Errorf("%v: %w", err, ErrFitFailed)
		return out
	}

	// Window indices are relative to the segment until shifted below.
	local := peaks.Wavelet{
		Max: peaks.Peak{Index: 0, Amplitude: w.Max.Amplitude, Kind: peaks.Max},
		Min: peaks.Peak{Index: segment.Len() - 1, Amplitude: w.Min.Amplitude, Kind: peaks.Min},
	}
	win, err := SelectWindow(segment, local, opts.DecayStart, opts.DecayEnd, opts.MinWindow)
	out.Window = Window{Start: win.Start + w.Max.Index, End: win.End + w.Max.Index, StartAmp: win.StartAmp, EndAmp: win.EndAmp}
	if err != nil {
		out.Err = err
		return out
	}

	fitted := validSamples(segment.Slice(win.Start, win.End+1))
	if fitted.Len() < opts.MinWindow {
		out.Err = fmt.Errorf("only %d usable samples in window: %w", fitted.Len(), ErrFitFailed)
		return out
	}
	t, y := fitted.Times(), fitted.Values()
	out.DecayDuration = t[len(t)-1] - t[0]

	fo := FitOptions{MaxIterations: opts.MaxIterations}
	if opts.Bounds {
		_, _, k0 := InitialGuess(t, y)
		b := DefaultBounds(y, k0)
		fo.Bounds = &b
	}

	fit, err := FitExponential(t, y, fo)
	out.Fit = fit
	if err != nil {
		out.Err = err
		return out
	}
	out.Curve = fitted.Map(func(i int, _ float64) float64 { return fit.Evaluate(t[i]) })

	return out
}

// FitAll fits every wavelet of s.
func FitAll(s series.Series, ws []peaks.Wavelet, opts Options) []WaveletResult {
	out := make([]WaveletResult, 0, len(ws))
	for _, w := range ws {
		out = append(out, FitWavelet(s, w, opts))
	}
	return out
}

func validSamples(s series.Series) series.Series {
	out := make([]series.Sample, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		if s.Valid(i) {
			out = append(out, s.At(i))
		}
	}
	return series.Build(out)
}

// velocity is the rate of change over the first n samples of the rise.
func velocity(s series.Series, w peaks.Wavelet, n int) float64 {
	if !w.HasRise() {
		return math.NaN()
	}

	from := w.RiseFrom.Index
	to := min(from+n, w.Max.Index)
	if to <= from || to >= s.Len() {
		return math.NaN()
	}

	dt := s.Time(to) - s.Time(from)
	if dt <= 0 {
		return math.NaN()
	}

	return (s.Value(to) - s.Value(from)) / dt
}
