package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/carbocation/calcium/calcicycle"
	"github.com/carbocation/calcium/decay"
	"github.com/carbocation/calcium/peaks"
	"github.com/carbocation/calcium/series"
)

// analyzed runs the full pipeline on a synthetic interleaved recording with a
// transient every 0.5s, and adds one failed column.
func analyzed(t *testing.T) calcicycle.SheetResult {
	t.Helper()

	var times, raw []float64
	for i := 0; i < 400; i++ {
		r := 1.0
		switch p := i % 50; {
		case p == 5:
			r = 1.5
		case p > 5:
			r = 1 + math.Exp(-float64(p-6)/8)
		}
		times = append(times, float64(2*i)*0.005, float64(2*i+1)*0.005)
		raw = append(raw, 2*r, 2)
	}

	cfg := calcicycle.DefaultConfig()
	cfg.Lookahead = 5
	cfg.Delta = 0.1
	cfg.Smoothing = decay.None{}

	cols, err := calcicycle.RunFromSlices(times, []string{"Cell 1"}, [][]float64{raw}, -1, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if cols[0].Err != nil || len(cols[0].Wavelets) == 0 {
		t.Fatalf("Fixture did not analyze cleanly: %v, %d wavelets", cols[0].Err, len(cols[0].Wavelets))
	}
	cols[0].Sheet = "Plate 1"

	cols = append(cols, calcicycle.ColumnResult{
		Sheet:  "Plate 1",
		Column: series.Column{Index: 1, Name: "Cell 2"},
		Err:    series.ErrDimensionMismatch,
	})

	return calcicycle.SheetResult{Name: "Plate 1", Columns: cols}
}

func TestWriteColumns(t *testing.T) {
	sh := analyzed(t)

	var buf bytes.Buffer
	if err := WriteColumns(&buf, []calcicycle.SheetResult{sh}); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected a header and 2 rows, got %d lines", len(records))
	}

	field := map[string]int{}
	for i, h := range records[0] {
		field[h] = i
	}
	for _, h := range []string{"Sheet", "Cell Line Name", "Cell Line #", "Tau", "Goodness of Fit", "Goodness of Fit SD", "Curve Fit Decay Time 36%", "Signal Mean", "Signal RMS", "Ratio", "Error"} {
		if _, ok := field[h]; !ok {
			t.Fatalf("Missing column %q in header %v", h, records[0])
		}
	}

	ok, failed := records[1], records[2]
	if ok[field["Cell Line #"]] != "1" || ok[field["Ratio"]] != "even/odd" || ok[field["Error"]] != "" {
		t.Fatalf("Unexpected row for the analyzed column: %v", ok)
	}
	if failed[field["Cell Line Name"]] != "Cell 2" || !strings.Contains(failed[field["Error"]], "dimension") {
		t.Fatalf("Unexpected row for the failed column: %v", failed)
	}

	// The ratio rests at 1 and peaks at 2.
	mean, err := strconv.ParseFloat(ok[field["Signal Mean"]], 64)
	if err != nil || mean <= 1 || mean >= 2 {
		t.Fatalf("Unexpected signal mean %q", ok[field["Signal Mean"]])
	}
	rng, err := strconv.ParseFloat(ok[field["Signal Range"]], 64)
	if err != nil || math.Abs(rng-1) > 1e-9 {
		t.Fatalf("Unexpected signal range %q", ok[field["Signal Range"]])
	}
}

func TestCurveDecayTimeIsMeasuredFromMaximum(t *testing.T) {
	res := calcicycle.ColumnResult{Wavelets: []decay.WaveletResult{
		{
			Wavelet: peaks.Wavelet{Max: peaks.Peak{Position: 1.0, Kind: peaks.Max}},
			Fit:     decay.Fit{T0: 1.2, Tau: 0.5},
		},
		{
			Wavelet: peaks.Wavelet{Max: peaks.Peak{Position: 3.0, Kind: peaks.Max}},
			Fit:     decay.Fit{T0: 3.0, Tau: 0.3},
		},
		{Err: decay.ErrFitFailed},
	}}

	rows := ColumnRows([]calcicycle.SheetResult{{Columns: []calcicycle.ColumnResult{res}}})
	if got := rows[0].CurveDecayTime; math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("Expected a mean delay of 0.5 from maximum to marker, got %v", got)
	}
}

func TestWriteWavelets(t *testing.T) {
	sh := analyzed(t)

	var buf bytes.Buffer
	if err := WriteWavelets(&buf, []calcicycle.SheetResult{sh}); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if want := len(sh.Columns[0].Wavelets) + 1; len(records) != want {
		t.Fatalf("Expected %d lines, got %d", want, len(records))
	}
	if records[1][3] != "1" {
		t.Fatalf("Wavelets should be numbered from 1, got %q", records[1][3])
	}
}

func TestWaveletRowsMarkFailedFits(t *testing.T) {
	sh := calcicycle.SheetResult{Columns: []calcicycle.ColumnResult{{
		Wavelets: []decay.WaveletResult{{Err: decay.ErrFitFailed}},
	}}}

	rows := WaveletRows([]calcicycle.SheetResult{sh})
	if len(rows) != 1 || !math.IsNaN(rows[0].Tau) || rows[0].Error == "" {
		t.Fatalf("Unexpected rows %+v", rows)
	}
}

func TestPlotSheet(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotSheet(&buf, analyzed(t), Axes{}); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("Output is not a PDF")
	}

	if err := PlotSheet(&buf, calcicycle.SheetResult{Name: "empty"}, Axes{}); err == nil {
		t.Fatalf("Expected an error for a sheet with nothing to plot")
	}
}

func TestPlotColumnPNG(t *testing.T) {
	sh := analyzed(t)
	lo, hi := 0.0, 2.0

	var buf bytes.Buffer
	if err := PlotColumnPNG(&buf, sh.Columns[0], Axes{XMin: &lo, XMax: &hi}); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("Output is not a PNG")
	}

	if err := PlotColumnPNG(&buf, sh.Columns[1], Axes{}); !errors.Is(err, series.ErrDimensionMismatch) {
		t.Fatalf("Expected the column's own error, got %v", err)
	}
}

func TestPrintTauHistogram(t *testing.T) {
	res := calcicycle.ColumnResult{Sheet: "Plate 1", Column: series.Column{Name: "Cell 1"}}
	for i := 0; i < 20; i++ {
		res.Wavelets = append(res.Wavelets, decay.WaveletResult{Fit: decay.Fit{Tau: 0.1 + 0.01*float64(i%5)}})
	}

	var buf bytes.Buffer
	if err := PrintTauHistogram(&buf, res); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "Plate 1 - Cell 1: Tau of 20 fitted wavelets") {
		t.Fatalf("Unexpected output %q", buf.String())
	}

	buf.Reset()
	if err := PrintTauHistogram(&buf, calcicycle.ColumnResult{}); err != nil || buf.Len() != 0 {
		t.Fatalf("Expected nothing for a column without fits, got %q (%v)", buf.String(), err)
	}
}

func TestAxesValidate(t *testing.T) {
	one, two := 1.0, 2.0

	if err := (Axes{YMin: &two, YMax: &one}).Validate(); err == nil {
		t.Fatalf("Expected ymax <= ymin to be rejected")
	}
	if err := (Axes{XMin: &one, XMax: &one}).Validate(); err == nil {
		t.Fatalf("Expected xmax == xmin to be rejected")
	}
	if err := (Axes{XMin: &one, YMax: &two}).Validate(); err != nil {
		t.Fatal(err)
	}
}
