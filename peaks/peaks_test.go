package peaks

import (
	"math"
	"testing"

	"github.com/carbocation/calcium/series"
	"github.com/google/go-cmp/cmp"
)

func wave(n int, fn func(i int) float64) series.Series {
	samples := make([]series.Sample, n)
	for i := range samples {
		samples[i] = series.Sample{Time: float64(i) * 0.1, Value: fn(i)}
	}
	return series.New(samples)
}

func sine(period float64) func(i int) float64 {
	return func(i int) float64 { return math.Sin(2 * math.Pi * float64(i) / period) }
}

func indices(ps []Peak, kind Kind) []int {
	out := make([]int, 0)
	for _, p := range ps {
		if p.Kind == kind {
			out = append(out, p.Index)
		}
	}
	return out
}

func assertAlternates(t *testing.T, ps []Peak) {
	t.Helper()

	if len(ps) == 0 {
		return
	}
	if ps[0].Kind != Max {
		t.Fatalf("First peak should be a max, got %+v", ps[0])
	}
	if ps[len(ps)-1].Kind != Min {
		t.Fatalf("Last peak should be a min, got %+v", ps[len(ps)-1])
	}
	for i := 1; i < len(ps); i++ {
		if ps[i].Kind == ps[i-1].Kind {
			t.Fatalf("Peaks %d and %d are both %s: %+v %+v", i-1, i, ps[i].Kind, ps[i-1], ps[i])
		}
		if ps[i].Index <= ps[i-1].Index {
			t.Fatalf("Peaks out of order at %d: %+v %+v", i, ps[i-1], ps[i])
		}
	}
}

func TestKnownExtrema(t *testing.T) {
	ps := Detect(wave(400, sine(40)), Params{Lookahead: 5, Delta: 0.1})
	assertAlternates(t, ps)

	wantMax := make([]int, 0)
	wantMin := make([]int, 0)
	for k := 0; k < 10; k++ {
		wantMax = append(wantMax, 10+40*k)
		wantMin = append(wantMin, 30+40*k)
	}

	if diff := cmp.Diff(wantMax, indices(ps, Max)); diff != "" {
		t.Fatalf("Unexpected maxima (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantMin, indices(ps, Min)); diff != "" {
		t.Fatalf("Unexpected minima (-want +got):\n%s", diff)
	}

	for _, p := range ps {
		if p.Position != float64(p.Index)*0.1 {
			t.Fatalf("Peak position does not carry the sample time: %+v", p)
		}
	}
}

func TestNoiseBelowDeltaIsIgnored(t *testing.T) {
	noisy := func(i int) float64 {
		return sine(40)(i) + 0.02*math.Sin(float64(i)*1.7) + 0.01*math.Cos(float64(i)*2.9)
	}
	ps := Detect(wave(410, noisy), Params{Lookahead: 8, Delta: 0.3})
	assertAlternates(t, ps)

	maxima, minima := Split(ps)
	if len(maxima) != 10 || len(minima) != 10 {
		t.Fatalf("Expected 10 maxima and 10 minima, got %d and %d: %+v", len(maxima), len(minima), ps)
	}

	for k, p := range maxima {
		if want := 10 + 40*k; p.Index < want-3 || p.Index > want+3 {
			t.Fatalf("Max %d at index %d, expected near %d", k, p.Index, want)
		}
	}
	for k, p := range minima {
		if want := 30 + 40*k; p.Index < want-3 || p.Index > want+3 {
			t.Fatalf("Min %d at index %d, expected near %d", k, p.Index, want)
		}
	}
}

func TestSeriesStartingMidDecay(t *testing.T) {
	ps := Detect(wave(200, func(i int) float64 { return math.Cos(2 * math.Pi * float64(i) / 40) }), Params{Lookahead: 5})
	assertAlternates(t, ps)

	if ps[0].Index != 40 {
		t.Fatalf("Expected the first reported peak to be the max at 40, got %+v", ps[0])
	}
}

func TestNaNSamplesAreSkipped(t *testing.T) {
	s := wave(200, func(i int) float64 {
		if i%17 == 3 {
			return math.NaN()
		}
		return sine(40)(i)
	})

	ps := Detect(s, Params{Lookahead: 5, Delta: 0.1})
	assertAlternates(t, ps)

	for _, p := range ps {
		if math.IsNaN(p.Amplitude) {
			t.Fatalf("NaN sample reported as a peak: %+v", p)
		}
	}
	if maxima, _ := Split(ps); len(maxima) != 5 {
		t.Fatalf("Expected 5 maxima, got %d", len(maxima))
	}
}

func TestDetectorIsRestartable(t *testing.T) {
	s := wave(300, sine(30))
	p := Params{Lookahead: 4, Delta: 0.05}

	first := Detect(s, p)
	second := Detect(s, p)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("Repeated detection differs (-first +second):\n%s", diff)
	}

	d := NewDetector(s, p)
	for i := range first {
		pk, ok := d.Next()
		if !ok || pk != first[i] {
			t.Fatalf("Lazy detector diverged at %d: %+v vs %+v", i, pk, first[i])
		}
	}
	if _, ok := d.Next(); ok {
		t.Fatalf("Detector yielded more peaks than Detect")
	}
}

func TestInvalidParams(t *testing.T) {
	if err := (Params{Lookahead: 0}).Validate(); err == nil {
		t.Fatalf("Expected lookahead 0 to be rejected")
	}
	if ps := Detect(wave(100, sine(20)), Params{Lookahead: 0}); len(ps) != 0 {
		t.Fatalf("Expected no peaks with invalid params, got %d", len(ps))
	}
}

type sliceSource struct {
	ps []Peak
	i  int
}

func (s *sliceSource) next() (Peak, bool) {
	if s.i >= len(s.ps) {
		return Peak{}, false
	}
	s.i++
	return s.ps[s.i-1], true
}

func TestOneSampleUpstroke(t *testing.T) {
	// Flat baseline, a jump to the peak within one sample, then a decay.
	s := wave(200, func(i int) float64 {
		p := i % 50
		if p < 10 {
			return 0
		}
		return 1 + 5*math.Exp(-0.1*float64(p-10))
	})

	ps := Detect(s, Params{Lookahead: 5, Delta: 0.5})
	assertAlternates(t, ps)

	if diff := cmp.Diff([]int{10, 60, 110}, indices(ps, Max)); diff != "" {
		t.Fatalf("Unexpected maxima (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{50, 100, 150}, indices(ps, Min)); diff != "" {
		t.Fatalf("Unexpected minima (-want +got):\n%s", diff)
	}
	for _, p := range ps {
		if p.Kind == Max && p.Amplitude != 6 {
			t.Fatalf("Expected every maximum at the full height of 6, got %+v", p)
		}
	}
}

func TestDoublePeakKeepsHigher(t *testing.T) {
	// A shallow notch (less than delta) between two maxima, the second of
	// which is higher, followed by a full decay and one more transient.
	s := wave(120, func(i int) float64 {
		switch {
		case i < 10:
			return 0
		case i == 10:
			return 5
		case i == 11:
			return 4.5
		case i < 60:
			return 6 * math.Exp(-float64(i-12)/5)
		}
		return 5 * math.Exp(-float64(i-60)/5)
	})

	ps := Detect(s, Params{Lookahead: 3, Delta: 1})

	want := []Peak{
		{Index: 12, Position: s.Time(12), Amplitude: 6, Kind: Max},
		{Index: 59, Position: s.Time(59), Amplitude: s.Value(59), Kind: Min},
	}
	if diff := cmp.Diff(want, ps); diff != "" {
		t.Fatalf("Unexpected peaks (-want +got):\n%s", diff)
	}
}

func TestEdgePolicy(t *testing.T) {
	d := &Detector{src: &sliceSource{ps: []Peak{
		{Index: 1, Amplitude: 0, Kind: Min},
		{Index: 2, Amplitude: 5, Kind: Max},
		{Index: 3, Amplitude: 1, Kind: Min},
		{Index: 4, Amplitude: 6, Kind: Max},
	}}}

	got := make([]int, 0)
	for {
		p, ok := d.Next()
		if !ok {
			break
		}
		got = append(got, p.Index)
	}

	if diff := cmp.Diff([]int{2, 3}, got); diff != "" {
		t.Fatalf("Unexpected peaks after edge policy (-want +got):\n%s", diff)
	}
}

func TestWavelets(t *testing.T) {
	ps := []Peak{
		{Index: 2, Position: 2, Amplitude: 5, Kind: Max},
		{Index: 6, Position: 6, Amplitude: 1, Kind: Min},
		{Index: 7, Position: 7, Amplitude: 6, Kind: Max},
		{Index: 12, Position: 12, Amplitude: 2, Kind: Min},
		{Index: 14, Position: 14, Amplitude: 4, Kind: Max},
		{Index: 19, Position: 19, Amplitude: 1, Kind: Min},
	}

	ws := Wavelets(ps)
	if len(ws) != 3 {
		t.Fatalf("Expected 3 wavelets, got %d", len(ws))
	}
	if ws[0].HasRise() {
		t.Fatalf("First wavelet has no preceding min, got rise %+v", ws[0].RiseFrom)
	}
	if !ws[1].HasRise() || ws[1].RiseFrom.Index != 6 || ws[1].RiseDuration() != 1 {
		t.Fatalf("Unexpected rise for second wavelet: %+v", ws[1])
	}
	if ws[2].DecayDuration() != 5 || ws[2].Amplitude() != 3 {
		t.Fatalf("Unexpected third wavelet: %+v", ws[2])
	}

	if got := Limit(ws, 2); len(got) != 2 || got[1].Max.Index != 7 {
		t.Fatalf("Limit did not keep the earliest wavelets: %+v", got)
	}
	if got := Limit(ws, 0); len(got) != 3 {
		t.Fatalf("Limit 0 should keep everything, got %d", len(got))
	}
}
