// Package report writes analysis results: the processed CSV, per-sheet PDF
// figures, optional per-column PNG charts and a terminal Tau histogram.
package report

import (
	"io"
	"math"
	"strings"

	"github.com/carbocation/calcium/calcicycle"
	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"
)

// ColumnRow is one line of the processed CSV.
type ColumnRow struct {
	Sheet           string  `csv:"Sheet"`
	Name            string  `csv:"Cell Line Name"`
	Number          int     `csv:"Cell Line #"`
	Min             float64 `csv:"Min"`
	Max             float64 `csv:"Max"`
	Amplitude       float64 `csv:"Amplitude"`
	BeatRate        float64 `csv:"Beat Rate"`
	BeatVariation   float64 `csv:"Beat Variation"`
	RiseTime        float64 `csv:"Rise Time"`
	RiseVelocity    float64 `csv:"Rise Velocity"`
	Y0              float64 `csv:"Y0"`
	A               float64 `csv:"A"`
	RC              float64 `csv:"RC"`
	Tau             float64 `csv:"Tau"`
	RC1d            float64 `csv:"RC1d"`
	RC2d            float64 `csv:"RC2d"`
	GoodnessOfFit   float64 `csv:"Goodness of Fit"`
	DecayTime       float64 `csv:"Decay Time"`
	CurveDecayTime  float64 `csv:"Curve Fit Decay Time 36%"`
	CurveDecayValue float64 `csv:"Curve Fit Decay Value 36%"`
	BPM             float64 `csv:"BPM"`
	BeatVariability float64 `csv:"Beat Variability"`
	TauSD           float64 `csv:"Tau SD"`
	RSquaredSD      float64 `csv:"Goodness of Fit SD"`
	Diastolic       float64 `csv:"Diastolic"`
	Velocity        float64 `csv:"Velocity"`
	SignalMean      float64 `csv:"Signal Mean"`
	SignalRMS       float64 `csv:"Signal RMS"`
	SignalRange     float64 `csv:"Signal Range"`
	SignalVariance  float64 `csv:"Signal Variance"`
	Wavelets        int     `csv:"Wavelets"`
	FailedFits      int     `csv:"Failed Fits"`
	Ratio           string  `csv:"Ratio"`
	RatioMargin     float64 `csv:"Ratio Margin"`
	Ambiguous       bool    `csv:"Ambiguous"`
	Notes           string  `csv:"Notes"`
	Error           string  `csv:"Error"`
}

// WaveletRow is one fitted wavelet.
type WaveletRow struct {
	Sheet      string  `csv:"Sheet"`
	Name       string  `csv:"Cell Line Name"`
	Number     int     `csv:"Cell Line #"`
	Wavelet    int     `csv:"Wavelet"`
	MaxTime    float64 `csv:"Max Time"`
	MaxValue   float64 `csv:"Max Value"`
	MinTime    float64 `csv:"Min Time"`
	MinValue   float64 `csv:"Min Value"`
	RiseTime   float64 `csv:"Rise Time"`
	Velocity   float64 `csv:"Velocity"`
	Y0         float64 `csv:"Y0"`
	A          float64 `csv:"A"`
	RC         float64 `csv:"RC"`
	Tau        float64 `csv:"Tau"`
	RSquared   float64 `csv:"Goodness of Fit"`
	Iterations int     `csv:"Iterations"`
	Converged  bool    `csv:"Converged"`
	Error      string  `csv:"Error"`
}

// ColumnRows flattens sheets into one row per analyzed column.
func ColumnRows(sheets []calcicycle.SheetResult) []ColumnRow {
	var out []ColumnRow
	for _, sh := range sheets {
		for _, res := range sh.Columns {
			out = append(out, columnRow(res))
		}
	}
	return out
}

func columnRow(res calcicycle.ColumnResult) ColumnRow {
	row := ColumnRow{
		Sheet:  res.Sheet,
		Name:   res.Column.Name,
		Number: res.Column.Index + 1,
		Notes:  strings.Join(res.Notes, "; "),
	}
	if res.Err != nil {
		row.Error = res.Err.Error()
		return row
	}

	m := res.Metrics
	row.Min, row.Max, row.Amplitude = m.MinMean, m.MaxMean, m.Amplitude
	row.BeatRate, row.BeatVariation = m.BeatRate, m.BeatVariation
	row.RiseTime, row.RiseVelocity = m.RiseTime, m.RiseVelocity
	row.Y0, row.A, row.RC, row.Tau = m.Y0, m.A, m.RC, m.Tau
	row.RC1d, row.RC2d = m.RC1d, m.RC2d
	row.GoodnessOfFit = m.RSquared
	row.DecayTime = m.DecayTime
	row.CurveDecayTime = meanMarkerDelay(res)
	row.CurveDecayValue = m.TauValue
	row.BPM, row.BeatVariability = m.BPM, m.BeatVariability
	row.TauSD, row.RSquaredSD = m.TauSD, m.RSquaredSD
	row.Diastolic, row.Velocity = m.Diastolic, m.Velocity
	row.SignalMean, row.SignalRMS = m.Signal.DC, m.Signal.RMS
	row.SignalRange, row.SignalVariance = m.Signal.Range, m.Signal.Variance
	row.Wavelets, row.FailedFits = m.Wavelets, m.Failed

	row.Ratio = res.Selection.Candidate.Name()
	row.RatioMargin = res.Selection.Margin
	row.Ambiguous = res.Selection.Ambiguous

	return row
}

// meanMarkerDelay is the mean time from a maximum to the 1/e marker of its
// fitted curve. The fit starts at the decay window, which may begin after the
// maximum.
func meanMarkerDelay(res calcicycle.ColumnResult) float64 {
	var delays []float64
	for _, w := range res.Wavelets {
		if w.Err == nil {
			t, _ := w.Fit.Marker()
			delays = append(delays, t-w.Wavelet.Max.Position)
		}
	}
	if len(delays) == 0 {
		return math.NaN()
	}
	return stat.Mean(delays, nil)
}

// WaveletRows flattens sheets into one row per wavelet.
func WaveletRows(sheets []calcicycle.SheetResult) []WaveletRow {
	var out []WaveletRow
	for _, sh := range sheets {
		for _, res := range sh.Columns {
			for i, w := range res.Wavelets {
				row := WaveletRow{
					Sheet:    res.Sheet,
					Name:     res.Column.Name,
					Number:   res.Column.Index + 1,
					Wavelet:  i + 1,
					MaxTime:  w.Wavelet.Max.Position,
					MaxValue: w.Wavelet.Max.Amplitude,
					MinTime:  w.Wavelet.Min.Position,
					MinValue: w.Wavelet.Min.Amplitude,
					RiseTime: w.RiseTime,
					Velocity: w.Velocity,
				}
				if w.Err != nil {
					row.Y0, row.A, row.RC, row.Tau, row.RSquared = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
					row.Error = w.Err.Error()
				} else {
					row.Y0, row.A, row.RC, row.Tau = w.Fit.Y0, w.Fit.A, w.Fit.K, w.Fit.Tau
					row.RSquared = w.Fit.RSquared
					row.Iterations, row.Converged = w.Fit.Iterations, w.Fit.Converged
				}
				out = append(out, row)
			}
		}
	}
	return out
}

// WriteColumns writes the per-column summary CSV.
func WriteColumns(w io.Writer, sheets []calcicycle.SheetResult) error {
	rows := ColumnRows(sheets)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return pfx.Err(err)
	}
	return nil
}

// WriteWavelets writes one CSV row per wavelet.
func WriteWavelets(w io.Writer, sheets []calcicycle.SheetResult) error {
	rows := WaveletRows(sheets)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return pfx.Err(err)
	}
	return nil
}
