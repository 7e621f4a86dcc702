package decay

import (
	"math"

	"github.com/carbocation/calcium/series"
	"github.com/carbocation/runningvariance"
	dsptime "github.com/cwbudde/algo-dsp/stats/time"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Metrics summarize the wavelets of one series. Fit-derived means only use
// wavelets whose fit succeeded; a value with nothing to average is NaN.
type Metrics struct {
	Wavelets int
	Fitted   int
	Failed   int

	// BeatRate is wavelets per unit time; BPM is 60 over the mean interval
	// between maxima, for time in seconds.
	BeatRate float64
	BPM      float64

	// BeatVariability is the coefficient of variation of the intervals
	// between maxima. BeatVariation is the standard deviation of the
	// instantaneous rates 1/interval.
	BeatVariability float64
	BeatVariation   float64

	MinMean   float64
	MaxMean   float64
	Amplitude float64

	RiseTime     float64
	RiseVelocity float64
	Velocity     float64
	Diastolic    float64

	Y0   float64
	A    float64
	RC   float64
	Tau  float64
	RC1d float64
	RC2d float64

	TauSD      float64
	RSquared   float64
	RSquaredSD float64

	DecayTime float64
	// TauValue is the mean height of the fitted curves at their Tau markers.
	TauValue float64

	Signal dsptime.Stats
}

// Summarize aggregates the per-wavelet results of s. With limited set the
// elapsed time used for the beat rate ends at the last processed wavelet
// instead of the end of the recording.
func Summarize(s series.Series, results []WaveletResult, limited bool) Metrics {
	out := Metrics{
		Wavelets: len(results),
		Signal:   dsptime.Calculate(validSamples(s).Values()),
	}

	var maxima, minima, riseTimes, velocities, diastolic []float64
	var y0s, as, rcs, decayTimes, tauValues, r2s []float64
	taus := runningvariance.NewRunningStat()
	fits := runningvariance.NewRunningStat()

	for _, r := range results {
		maxima = append(maxima, r.Wavelet.Max.Amplitude)
		minima = append(minima, r.Wavelet.Min.Amplitude)
		diastolic = append(diastolic, r.Diastolic)
		if !math.IsNaN(r.RiseTime) {
			riseTimes = append(riseTimes, r.RiseTime)
		}
		if !math.IsNaN(r.Velocity) {
			velocities = append(velocities, r.Velocity)
		}

		if r.Err != nil {
			out.Failed++
			continue
		}
		out.Fitted++

		y0s = append(y0s, r.Fit.Y0)
		as = append(as, r.Fit.A)
		rcs = append(rcs, r.Fit.K)
		decayTimes = append(decayTimes, r.DecayDuration)
		_, tv := r.Fit.Marker()
		tauValues = append(tauValues, tv)
		r2s = append(r2s, r.Fit.RSquared)

		taus.Push(r.Fit.Tau)
		fits.Push(r.Fit.RSquared)
	}

	out.MinMean, out.MaxMean = mean(minima), mean(maxima)
	out.Amplitude = out.MaxMean - out.MinMean
	out.Diastolic = mean(diastolic)
	out.Velocity = mean(velocities)
	out.RiseTime = mean(riseTimes)
	out.RiseVelocity = math.NaN()
	if out.RiseTime > 0 {
		out.RiseVelocity = out.Amplitude / out.RiseTime
	}

	out.Y0, out.A, out.RC = mean(y0s), mean(as), mean(rcs)
	out.Tau = math.NaN()
	if out.RC > 0 {
		out.Tau = 1 / out.RC
	}
	out.RC1d, out.RC2d = out.RC*3, out.RC/2
	out.DecayTime, out.TauValue = mean(decayTimes), mean(tauValues)
	out.RSquared = mean(r2s)

	out.TauSD, out.RSquaredSD = math.NaN(), math.NaN()
	if out.Fitted > 1 {
		out.TauSD, out.RSquaredSD = taus.StandardDeviation(), fits.StandardDeviation()
	}

	out.BeatRate = beatRate(s, results, limited)
	out.BPM, out.BeatVariability, out.BeatVariation = beatIntervals(results)

	return out
}

func beatRate(s series.Series, results []WaveletResult, limited bool) float64 {
	if len(results) == 0 || s.Len() == 0 {
		return 0
	}

	elapsed := s.Duration()
	if limited {
		elapsed = results[len(results)-1].Wavelet.Min.Position - s.Time(0)
	}
	if elapsed <= 0 {
		return 0
	}

	return float64(len(results)) / elapsed
}

func beatIntervals(results []WaveletResult) (bpm, variability, variation float64) {
	if len(results) < 2 {
		return 0, 0, 0
	}

	intervals := make(stats.Float64Data, 0, len(results)-1)
	rates := make(stats.Float64Data, 0, len(results)-1)
	for i := 1; i < len(results); i++ {
		d := results[i].Wavelet.Max.Position - results[i-1].Wavelet.Max.Position
		intervals = append(intervals, d)
		if d > 0 {
			rates = append(rates, 1/d)
		}
	}

	m, err := stats.Mean(intervals)
	if err != nil || m <= 0 {
		return 0, 0, 0
	}
	bpm = 60 / m

	if sd, err := stats.StandardDeviation(intervals); err == nil {
		variability = sd / m
	}
	if sd, err := stats.StandardDeviation(rates); err == nil {
		variation = sd
	}

	return bpm, variability, variation
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}
