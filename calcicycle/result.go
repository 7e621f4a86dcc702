package calcicycle

import (
	"github.com/carbocation/calcium/decay"
	"github.com/carbocation/calcium/ratio"
	"github.com/carbocation/calcium/series"
)

// ColumnResult is the outcome for one cell-line column. When Err is set the
// column could not be analyzed and only Sheet and Column are meaningful.
type ColumnResult struct {
	Sheet  string
	Column series.Column

	Selection ratio.Selection
	Wavelets  []decay.WaveletResult
	Metrics   decay.Metrics

	// Notes are data-quality remarks that did not stop the analysis.
	Notes []string
	Err   error
}

// Ratio is the selected ratio series.
func (r ColumnResult) Ratio() series.Series {
	return r.Selection.Candidate.Series
}

// SheetResult holds the results of every analyzed column of one worksheet, in
// column order.
type SheetResult struct {
	Name    string
	Columns []ColumnResult
}
