package report

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/carbocation/calcium/calcicycle"
	"github.com/carbocation/calcium/series"
	"github.com/carbocation/pfx"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"
)

const plotColumns = 2

var (
	ratioColor   = color.RGBA{R: 191, B: 191, A: 255}
	fitColor     = color.RGBA{B: 255, A: 255}
	markerColor  = color.RGBA{R: 255, A: 255}
	maximumColor = color.RGBA{R: 230, G: 200, A: 255}
	minimumColor = color.RGBA{G: 160, A: 255}
)

// PlotSheet draws every column of sh into a grid of panels and writes the
// figure to w as a single PDF page.
func PlotSheet(w io.Writer, sh calcicycle.SheetResult, axes Axes) error {
	if len(sh.Columns) == 0 {
		return fmt.Errorf("sheet %s has no columns to plot", sh.Name)
	}

	rows := (len(sh.Columns) + plotColumns - 1) / plotColumns
	plots := make([][]*plot.Plot, rows)
	for i := range plots {
		plots[i] = make([]*plot.Plot, plotColumns)
	}

	for i, res := range sh.Columns {
		p, err := columnPlot(res, axes)
		if err != nil {
			return err
		}
		plots[i/plotColumns][i%plotColumns] = p
	}

	c := vgpdf.New(8.5*vg.Inch, vg.Length(rows)*3*vg.Inch)
	dc := draw.New(c)
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      plotColumns,
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 4,
		PadBottom: vg.Millimeter * 4,
		PadLeft:   vg.Millimeter * 4,
		PadRight:  vg.Millimeter * 4,
	}

	canvases := plot.Align(plots, tiles, dc)
	for j := range plots {
		for i := range plots[j] {
			if plots[j][i] != nil {
				plots[j][i].Draw(canvases[j][i])
			}
		}
	}

	if _, err := c.WriteTo(w); err != nil {
		return pfx.Err(err)
	}

	return nil
}

func columnPlot(res calcicycle.ColumnResult, axes Axes) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = res.Column.Name
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Ratio"

	if res.Err != nil {
		p.Title.Text = res.Column.Name + " (failed)"
		return p, nil
	}

	ratio := res.Ratio()
	if ratio.Len() == 0 {
		return p, nil
	}
	if pts := xys(ratio); len(pts) > 1 {
		l, err := plotter.NewLine(pts)
		if err != nil {
			return nil, pfx.Err(err)
		}
		l.Color = ratioColor
		l.Width = vg.Points(0.5)
		p.Add(l)
	}

	amp := res.Metrics.Amplitude
	if math.IsNaN(amp) {
		amp = 0
	}

	var maxima, minima plotter.XYs
	for _, w := range res.Wavelets {
		maxima = append(maxima, plotter.XY{X: w.Wavelet.Max.Position, Y: w.Wavelet.Max.Amplitude})
		minima = append(minima, plotter.XY{X: w.Wavelet.Min.Position, Y: w.Wavelet.Min.Amplitude})

		if w.Err != nil {
			continue
		}

		if pts := xys(w.Curve); len(pts) > 1 {
			l, err := plotter.NewLine(pts)
			if err != nil {
				return nil, pfx.Err(err)
			}
			l.Color = fitColor
			l.Width = vg.Points(0.75)
			p.Add(l)
		}

		t, y := w.Fit.Marker()
		m, err := plotter.NewLine(plotter.XYs{{X: t, Y: y - 0.2*amp}, {X: t, Y: y + 0.2*amp}})
		if err != nil {
			return nil, pfx.Err(err)
		}
		m.Color = markerColor
		m.Width = vg.Points(0.75)
		p.Add(m)
	}

	for _, set := range []struct {
		pts plotter.XYs
		c   color.Color
	}{{maxima, maximumColor}, {minima, minimumColor}} {
		if len(set.pts) == 0 {
			continue
		}
		s, err := plotter.NewScatter(set.pts)
		if err != nil {
			return nil, pfx.Err(err)
		}
		s.GlyphStyle.Color = set.c
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(2)
		p.Add(s)
	}

	// Add widens the axes to fit the data, so limits go last.
	p.X.Min, p.X.Max = axes.xRange(ratio)
	p.Y.Min, p.Y.Max = axes.yRange(ratio)

	return p, nil
}

// xys returns the finite samples of s.
func xys(s series.Series) plotter.XYs {
	out := make(plotter.XYs, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		x, y := s.Time(i), s.Value(i)
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		out = append(out, plotter.XY{X: x, Y: y})
	}
	return out
}
