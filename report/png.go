package report

import (
	"fmt"
	"io"

	"github.com/carbocation/calcium/calcicycle"
	"github.com/carbocation/calcium/series"
	"github.com/carbocation/pfx"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

func lineStyle(col drawing.Color, width float64) chart.Style {
	return chart.Style{
		StrokeWidth: width,
		StrokeColor: col,
	}
}

// dotStyle renders points only. A zero stroke color would mean the default.
func dotStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: drawing.Color{R: 255, G: 255, B: 255, A: 0},
		DotWidth:    3,
		DotColor:    col,
	}
}

// PlotColumnPNG renders one column's ratio, fitted decays and extrema as a PNG.
func PlotColumnPNG(w io.Writer, res calcicycle.ColumnResult, axes Axes) error {
	if res.Err != nil {
		return fmt.Errorf("column %s was not analyzed: %w", res.Column.Name, res.Err)
	}

	ratio := res.Ratio()
	xs, ys := finite(ratio)
	if len(xs) < 2 {
		return fmt.Errorf("column %s has too few samples to plot", res.Column.Name)
	}

	set := []chart.Series{chart.ContinuousSeries{
		Name:    res.Selection.Candidate.Name(),
		XValues: xs,
		YValues: ys,
		Style:   lineStyle(drawing.Color{R: 191, B: 191, A: 255}, 1),
	}}

	var maxX, maxY, minX, minY []float64
	for _, wr := range res.Wavelets {
		maxX, maxY = append(maxX, wr.Wavelet.Max.Position), append(maxY, wr.Wavelet.Max.Amplitude)
		minX, minY = append(minX, wr.Wavelet.Min.Position), append(minY, wr.Wavelet.Min.Amplitude)

		if wr.Err != nil {
			continue
		}
		if cx, cy := finite(wr.Curve); len(cx) > 1 {
			set = append(set, chart.ContinuousSeries{
				XValues: cx,
				YValues: cy,
				Style:   lineStyle(drawing.Color{B: 255, A: 255}, 1.5),
			})
		}
	}

	// go-chart needs at least two points per series.
	if len(maxX) > 1 {
		set = append(set,
			chart.ContinuousSeries{Name: "max", XValues: maxX, YValues: maxY, Style: dotStyle(drawing.Color{R: 230, G: 200, A: 255})},
			chart.ContinuousSeries{Name: "min", XValues: minX, YValues: minY, Style: dotStyle(drawing.Color{G: 160, A: 255})},
		)
	}

	xlo, xhi := axes.xRange(ratio)
	ylo, yhi := axes.yRange(ratio)

	ch := chart.Chart{
		Title:  fmt.Sprintf("%s - %s", res.Sheet, res.Column.Name),
		Width:  1200,
		Height: 400,
		XAxis:  chart.XAxis{Name: "Time", Range: &chart.ContinuousRange{Min: xlo, Max: xhi}},
		YAxis:  chart.YAxis{Name: "Ratio", Range: &chart.ContinuousRange{Min: ylo, Max: yhi}},
		Series: set,
	}

	if err := ch.Render(chart.PNG, w); err != nil {
		return pfx.Err(err)
	}

	return nil
}

func finite(s series.Series) (xs, ys []float64) {
	for _, pt := range xys(s) {
		xs, ys = append(xs, pt.X), append(ys, pt.Y)
	}
	return xs, ys
}
