package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/calcium/calcicycle"
	"github.com/carbocation/calcium/report"
)

func writeCSV(path string, sheets []calcicycle.SheetResult, write func(io.Writer, []calcicycle.SheetResult) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := write(w, sheets); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	log.Println("Wrote", path)

	return f.Close()
}

func writeFigures(outDir, base string, sh calcicycle.SheetResult, axes report.Axes, png bool) error {
	if len(sh.Columns) == 0 {
		return nil
	}

	pdfPath := filepath.Join(outDir, fmt.Sprintf("%s_%s.pdf", base, safeName(sh.Name)))
	if err := writeFile(pdfPath, func(w io.Writer) error { return report.PlotSheet(w, sh, axes) }); err != nil {
		return err
	}

	if !png {
		return nil
	}

	for _, res := range sh.Columns {
		if res.Err != nil {
			continue
		}
		pngPath := filepath.Join(outDir, fmt.Sprintf("%s_%s_%s.png", base, safeName(sh.Name), safeName(res.Column.Name)))
		if err := writeFile(pngPath, func(w io.Writer) error { return report.PlotColumnPNG(w, res, axes) }); err != nil {
			// A column too short to chart does not stop the run.
			log.Printf("%s - %s: %v\n", sh.Name, res.Column.Name, err)
		}
	}

	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := write(f); err != nil {
		return err
	}

	return f.Close()
}

func printFits(res calcicycle.ColumnResult) {
	for i, w := range res.Wavelets {
		if w.Err != nil {
			log.Printf("%s - %s wavelet %d at %.4g: %v\n", res.Sheet, res.Column.Name, i+1, w.Wavelet.Max.Position, w.Err)
			continue
		}
		log.Printf("%s - %s wavelet %d at %.4g: y0=%.5g A=%.5g k=%.5g tau=%.5g R2=%.4f (%d iterations)\n",
			res.Sheet, res.Column.Name, i+1, w.Wavelet.Max.Position, w.Fit.Y0, w.Fit.A, w.Fit.K, w.Fit.Tau, w.Fit.RSquared, w.Fit.Iterations)
	}
}

// safeName makes s usable in a file name.
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}
