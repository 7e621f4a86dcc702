package sheet

import (
	"compress/gzip"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const export = `Index,Time (s),X,Y,Z,Cell 1,Cell 2,Cell 3,Background
1,0.00,a,b,c,10,20,30,1
2,0.05,a,b,c,11,21,,1
3,0.10,a,b,c,12,22,32,2
4,0.15,a,b,c,13,23,33,2
,,,,,notes,,,
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadCSV(t *testing.T) {
	path := writeFile(t, "plate1.csv", export)

	tables, err := Read(path, DefaultLayout(), AllSheets())
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) != 1 {
		t.Fatalf("Expected 1 table, got %d", len(tables))
	}

	tbl := tables[0]
	if tbl.Name != "plate1" {
		t.Fatalf("Expected the table to be named after the file, got %q", tbl.Name)
	}
	if len(tbl.Columns) != 4 || tbl.Background != 3 {
		t.Fatalf("Expected 4 columns with the background last, got %d and %d", len(tbl.Columns), tbl.Background)
	}

	bg, ok := tbl.BackgroundColumn()
	if !ok || bg.Name != "Background" {
		t.Fatalf("Unexpected background %+v", bg)
	}

	c2 := tbl.Columns[2]
	if c2.Name != "Cell 3" || c2.Index != 2 {
		t.Fatalf("Unexpected column %+v", c2)
	}
	if diff := cmp.Diff([]float64{0, 0.05, 0.1, 0.15}, c2.Series.Times()); diff != "" {
		t.Fatalf("Unexpected times (-want +got):\n%s", diff)
	}
	if !math.IsNaN(c2.Series.Value(1)) || c2.Series.Value(3) != 33 {
		t.Fatalf("Unexpected values %v", c2.Series.Values())
	}
}

func TestReadCompressedTSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plate2.tsv.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte("i\tt\tx\ty\tz\tA\tB\n1\t0\t.\t.\t.\t5\t1\n2\t1\t.\t.\t.\t6\t1\n")); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	tables, err := Read(path, DefaultLayout(), AllSheets())
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) != 1 || tables[0].Name != "plate2" {
		t.Fatalf("Unexpected tables %+v", tables)
	}
	if diff := cmp.Diff([]float64{5, 6}, tables[0].Columns[0].Series.Values()); diff != "" {
		t.Fatalf("Unexpected values (-want +got):\n%s", diff)
	}
}

func TestColumnFilter(t *testing.T) {
	path := writeFile(t, "plate1.csv", export)

	tables, err := Read(path, DefaultLayout(), Filter{SheetNum: 0, Column: 1})
	if err != nil {
		t.Fatal(err)
	}

	tbl := tables[0]
	if len(tbl.Columns) != 2 || tbl.Columns[0].Name != "Cell 2" || tbl.Background != 1 {
		t.Fatalf("Expected Cell 2 and the background, got %+v", tbl.Columns)
	}
	if tbl.Columns[0].Index != 1 {
		t.Fatalf("The column should keep its position in the sheet, got %d", tbl.Columns[0].Index)
	}
}

func TestSheetSelection(t *testing.T) {
	path := writeFile(t, "plate1.csv", export)

	if _, err := Read(path, DefaultLayout(), Filter{SheetName: "missing", SheetNum: -1, Column: -1}); err == nil {
		t.Fatalf("Expected an error for a missing sheet")
	}
	if _, err := Read(path, DefaultLayout(), Filter{SheetNum: 3, Column: -1}); err == nil {
		t.Fatalf("Expected an error for a missing sheet number")
	}
	if err := (Filter{SheetName: "a", SheetNum: 0, Column: -1}).Validate(); err == nil {
		t.Fatalf("Expected sheet name and number to be exclusive")
	}
	if err := (Filter{SheetNum: -1, Column: 2}).Validate(); err == nil {
		t.Fatalf("Expected a column filter without a sheet to be rejected")
	}
}

func TestTooFewColumns(t *testing.T) {
	g := Grid{Name: "notes", Rows: [][]string{{"a", "b", "c", "d", "e", "f"}, {"1", "0", "", "", "", "3"}}}

	if _, err := DefaultLayout().Table(g, -1); !errors.Is(err, ErrTooFewColumns) {
		t.Fatalf("Expected ErrTooFewColumns, got %v", err)
	}
}

func TestHeaderFallback(t *testing.T) {
	g := Grid{Name: "s", Rows: [][]string{
		{"", "", "", "", "", "", ""},
		{"1", "0", "", "", "", "3", "1"},
	}}

	tbl, err := DefaultLayout().Table(g, -1)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Columns[0].Name != "Column F" {
		t.Fatalf("Expected a column-letter name, got %q", tbl.Columns[0].Name)
	}
}

func TestTextName(t *testing.T) {
	cases := []struct{ path, name, ext string }{
		{"/a/b/plate.csv", "plate", ".csv"},
		{"plate.tsv.gz", "plate", ".tsv"},
		{"plate.txt.xz", "plate", ".txt"},
	}

	for _, c := range cases {
		if name, ext := textName(c.path); name != c.name || ext != c.ext {
			t.Fatalf("%s: got %q %q, want %q %q", c.path, name, ext, c.name, c.ext)
		}
	}
}
