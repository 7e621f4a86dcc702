package sheet

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/carbocation/calcium"
	"github.com/carbocation/calcium/series"
	"github.com/carbocation/pfx"
	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Filter restricts which sheets and columns are read. SheetNum and Column are
// 0-based; -1 selects everything.
type Filter struct {
	SheetName string
	SheetNum  int
	Column    int
}

func AllSheets() Filter {
	return Filter{SheetNum: -1, Column: -1}
}

func (f Filter) Validate() error {
	if f.SheetName != "" && f.SheetNum >= 0 {
		return fmt.Errorf("a sheet may be chosen by name or by number, not both")
	}
	if f.Column >= 0 && f.SheetName == "" && f.SheetNum < 0 {
		return fmt.Errorf("choosing a column requires choosing a sheet by name or number")
	}
	return nil
}

func (f Filter) apply(grids []Grid) ([]Grid, error) {
	switch {
	case f.SheetName != "":
		for _, g := range grids {
			if g.Name == f.SheetName {
				return []Grid{g}, nil
			}
		}
		return nil, fmt.Errorf("worksheet %q does not exist", f.SheetName)
	case f.SheetNum >= 0:
		if f.SheetNum >= len(grids) {
			return nil, fmt.Errorf("worksheet %d does not exist (%d worksheets)", f.SheetNum, len(grids))
		}
		return []Grid{grids[f.SheetNum]}, nil
	}
	return grids, nil
}

// Read loads every selected worksheet of path as a table. Sheets with too few
// data columns are skipped and logged.
func Read(path string, l Layout, f Filter) ([]series.Table, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	grids, err := ReadGrids(path)
	if err != nil {
		return nil, err
	}

	grids, err = f.apply(grids)
	if err != nil {
		return nil, err
	}

	out := make([]series.Table, 0, len(grids))
	for _, g := range grids {
		t, err := l.Table(g, f.Column)
		if errors.Is(err, ErrTooFewColumns) {
			log.Println("Skipping:", err)
			continue
		} else if err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	return out, nil
}

// ReadGrids reads the raw cells of every worksheet in path. The format is
// chosen by extension: .xls, .xlsx/.xlsm, or delimited text, optionally
// compressed.
func ReadGrids(path string) ([]Grid, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xls":
		return readXLS(path)
	case ".xlsx", ".xlsm":
		return readXLSX(path)
	}
	return readDelimited(path)
}

func readXLSX(path string) ([]Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	var out []Grid
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("sheet %q: %w", name, err))
		}
		out = append(out, Grid{Name: name, Rows: rows})
	}

	return out, nil
}

func readXLS(path string) ([]Grid, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, pfx.Err(err)
	}

	var out []Grid
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			return nil, fmt.Errorf("sheet %d of %s could not be parsed", i, path)
		}

		g := Grid{Name: sheet.Name, Rows: make([][]string, 0, int(sheet.MaxRow)+1)}
		for r := 0; r <= int(sheet.MaxRow); r++ {
			g.Rows = append(g.Rows, xlsRow(sheet, r))
		}
		out = append(out, g)
	}

	return out, nil
}

// xlsRow returns the cells of row r, or nothing for a row the file does not
// store. The xls package panics on such rows.
func xlsRow(sheet *xls.WorkSheet, r int) (cells []string) {
	defer func() {
		if recover() != nil {
			cells = nil
		}
	}()

	row := sheet.Row(r)
	if row == nil {
		return nil
	}

	for c := 0; c <= row.LastCol(); c++ {
		cells = append(cells, row.Col(c))
	}
	return cells
}

func readDelimited(path string) ([]Grid, error) {
	rc, err := calcium.OpenMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	name, ext := textName(path)

	br := bufio.NewReader(rc)
	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	switch ext {
	case ".csv":
		r.Comma = ','
	case ".tsv", ".tab":
		r.Comma = '\t'
	default:
		r.Comma = calcium.SniffDelimiter(br)
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return []Grid{{Name: name, Rows: rows}}, nil
}

// textName strips compression suffixes and returns the base name of path and
// the extension that describes its content.
func textName(path string) (name, ext string) {
	name = filepath.Base(path)
	for {
		ext = strings.ToLower(filepath.Ext(name))
		switch ext {
		case ".gz", ".bz2", ".xz", ".z", ".zip":
			name = strings.TrimSuffix(name, filepath.Ext(name))
			continue
		}
		return strings.TrimSuffix(name, filepath.Ext(name)), ext
	}
}
