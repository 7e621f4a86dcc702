package report

import (
	"fmt"
	"io"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/carbocation/calcium/calcicycle"
	"github.com/carbocation/pfx"
)

const histogramBins = 10

// PrintTauHistogram prints the distribution of the fitted time constants of
// res to w. Columns without successful fits print nothing.
func PrintTauHistogram(w io.Writer, res calcicycle.ColumnResult) error {
	var taus []float64
	for _, wr := range res.Wavelets {
		if wr.Err == nil {
			taus = append(taus, wr.Fit.Tau)
		}
	}
	if len(taus) == 0 {
		return nil
	}

	fmt.Fprintf(w, "%s - %s: Tau of %d fitted wavelets\n", res.Sheet, res.Column.Name, len(taus))

	hist := histogram.Hist(histogramBins, taus)
	if err := histogram.Fprint(w, hist, histogram.Linear(40)); err != nil {
		return pfx.Err(err)
	}

	return nil
}
