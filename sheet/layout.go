// Package sheet reads worksheets exported by imaging software and lays them
// out as tables of cell-line columns.
package sheet

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/carbocation/calcium/series"
	"github.com/xuri/excelize/v2"
)

const (
	// BackgroundLast designates the last data column of each sheet.
	BackgroundLast = -1
	NoBackground   = -2
)

// ErrTooFewColumns is returned for sheets without at least two data columns.
// Such sheets hold notes rather than recordings and are skipped.
var ErrTooFewColumns = errors.New("too few data columns")

// Layout locates the data within a worksheet. Column numbers are 0-based
// (A = 0).
type Layout struct {
	HeaderRows int
	TimeColumn int
	FirstData  int
	LastData   int

	// Background is an absolute column number, BackgroundLast or
	// NoBackground.
	Background int
}

// DefaultLayout matches an NIS-Elements export: one header row, time in
// column B, cell lines in F through P with the background in the last of
// them.
func DefaultLayout() Layout {
	return Layout{
		HeaderRows: 1,
		TimeColumn: 1,
		FirstData:  5,
		LastData:   15,
		Background: BackgroundLast,
	}
}

func (l Layout) Validate() error {
	if l.HeaderRows < 0 || l.TimeColumn < 0 || l.FirstData < 0 {
		return fmt.Errorf("layout columns and header rows must not be negative: %+v", l)
	}
	if l.LastData < l.FirstData {
		return fmt.Errorf("last data column %d precedes first data column %d", l.LastData, l.FirstData)
	}
	if l.Background >= 0 && (l.Background < l.FirstData || l.Background > l.LastData) {
		return fmt.Errorf("background column %d lies outside the data columns %d..%d", l.Background, l.FirstData, l.LastData)
	}
	return nil
}

// Grid is the raw text content of one worksheet.
type Grid struct {
	Name string
	Rows [][]string
}

func (g Grid) cell(row, col int) string {
	if row >= len(g.Rows) || col >= len(g.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(g.Rows[row][col])
}

func (g Grid) width() int {
	out := 0
	for _, r := range g.Rows {
		out = max(out, len(r))
	}
	return out
}

// Table extracts the time axis and the data columns of g. Data rows end at
// the first row without a time. Blank or non-numeric cells become NaN.
// column >= 0 keeps only that data column (counted without the background)
// and the background; an out-of-range column keeps all of them.
func (l Layout) Table(g Grid, column int) (series.Table, error) {
	if err := l.Validate(); err != nil {
		return series.Table{}, err
	}

	last := min(l.LastData, g.width()-1)
	if last-l.FirstData+1 < 2 {
		return series.Table{}, fmt.Errorf("sheet %q has %d data columns: %w", g.Name, max(0, last-l.FirstData+1), ErrTooFewColumns)
	}

	var times []float64
	for r := l.HeaderRows; r < len(g.Rows); r++ {
		cell := g.cell(r, l.TimeColumn)
		if cell == "" {
			break
		}
		t, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return series.Table{}, fmt.Errorf("sheet %q row %d: time %q is not a number", g.Name, r+1, cell)
		}
		times = append(times, t)
	}

	bg := -1
	switch {
	case l.Background == BackgroundLast:
		bg = last - l.FirstData
	case l.Background >= 0 && l.Background <= last:
		bg = l.Background - l.FirstData
	}

	cols := make([]series.Column, 0, last-l.FirstData+1)
	for c := l.FirstData; c <= last; c++ {
		values := make([]float64, len(times))
		for i := range times {
			v, err := strconv.ParseFloat(g.cell(l.HeaderRows+i, c), 64)
			if err != nil {
				v = math.NaN()
			}
			values[i] = v
		}

		s, err := series.FromSlices(times, values)
		if err != nil {
			return series.Table{}, err
		}

		cols = append(cols, series.Column{
			Index:  c - l.FirstData,
			Name:   l.header(g, c),
			Series: s,
		})
	}

	out := series.Table{Name: g.Name, Columns: cols, Background: bg}
	return filterColumn(out, column), nil
}

func (l Layout) header(g Grid, col int) string {
	if l.HeaderRows > 0 {
		if h := g.cell(l.HeaderRows-1, col); h != "" {
			return h
		}
	}
	name, err := excelize.ColumnNumberToName(col + 1)
	if err != nil {
		return strconv.Itoa(col + 1)
	}
	return "Column " + name
}

func filterColumn(t series.Table, column int) series.Table {
	data := t.Data()
	if column < 0 || column >= len(data) {
		return t
	}

	keep := []series.Column{data[column]}
	bg := -1
	if b, ok := t.BackgroundColumn(); ok {
		keep = append(keep, b)
		bg = 1
	}

	return series.Table{Name: t.Name, Columns: keep, Background: bg}
}
