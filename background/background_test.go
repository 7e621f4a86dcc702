package background

import (
	"errors"
	"testing"

	"github.com/carbocation/calcium/series"
	"github.com/google/go-cmp/cmp"
)

func column(idx int, name string, times, values []float64) series.Column {
	s, err := series.FromSlices(times, values)
	if err != nil {
		panic(err)
	}
	return series.Column{Index: idx, Name: name, Series: s}
}

var times = []float64{0, 1, 2, 3}

func TestPointSubtractsFirstBackgroundSample(t *testing.T) {
	raw := column(0, "line", times, []float64{10, 12, 14, 16})
	bg := column(1, "bg", times, []float64{3, 4, 5, 6})

	res := Reduce([]series.Column{raw, bg}, bg, Point)
	if len(res) != 1 {
		t.Fatalf("Expected 1 reduced column, got %d", len(res))
	}
	if res[0].Err != nil {
		t.Fatal(res[0].Err)
	}

	if diff := cmp.Diff([]float64{7, 9, 11, 13}, res[0].Column.Series.Values()); diff != "" {
		t.Fatalf("Unexpected point reduction (-want +got):\n%s", diff)
	}
}

func TestAverageIsSampleWise(t *testing.T) {
	raw := column(0, "line", times, []float64{10, 12, 14, 16})
	bg := column(2, "bg", times, []float64{3, 4, 5, 6})

	res := Reduce([]series.Column{raw}, bg, Average)
	if res[0].Err != nil {
		t.Fatal(res[0].Err)
	}

	if diff := cmp.Diff([]float64{7, 8, 9, 10}, res[0].Column.Series.Values()); diff != "" {
		t.Fatalf("Unexpected average reduction (-want +got):\n%s", diff)
	}
}

func TestAverageMismatchIsPerColumn(t *testing.T) {
	good := column(0, "good", times, []float64{10, 12, 14, 16})
	short := column(1, "short", times[:3], []float64{10, 12, 14})
	bg := column(2, "bg", times, []float64{3, 4, 5, 6})

	res := Reduce([]series.Column{good, short}, bg, Average)
	if len(res) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(res))
	}
	if res[0].Err != nil {
		t.Fatalf("Good column failed: %v", res[0].Err)
	}
	if !errors.Is(res[1].Err, series.ErrDimensionMismatch) {
		t.Fatalf("Expected ErrDimensionMismatch, got %v", res[1].Err)
	}
}

func TestChannelUsesParityMeans(t *testing.T) {
	raw := column(0, "line", times, []float64{10, 20, 10, 20})
	bg := column(1, "bg", times, []float64{1, 4, 3, 6})

	res := Reduce([]series.Column{raw}, bg, Channel)
	if res[0].Err != nil {
		t.Fatal(res[0].Err)
	}

	if diff := cmp.Diff([]float64{8, 15, 8, 15}, res[0].Column.Series.Values()); diff != "" {
		t.Fatalf("Unexpected channel reduction (-want +got):\n%s", diff)
	}
}

func TestNonePassesThrough(t *testing.T) {
	raw := column(0, "line", times, []float64{10, 12, 14, 16})
	bg := column(1, "bg", times, []float64{3, 4, 5, 6})

	res := Reduce([]series.Column{raw}, bg, None)
	if diff := cmp.Diff(raw.Series.Values(), res[0].Column.Series.Values()); diff != "" {
		t.Fatalf("Unexpected passthrough (-want +got):\n%s", diff)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("POINT"); err != nil || m != Point {
		t.Fatalf("Expected point, got %v %v", m, err)
	}
	if _, err := ParseMode("median"); err == nil {
		t.Fatalf("Expected an error for an unknown mode")
	}
}
