package calcicycle

import (
	"fmt"
	"sort"

	"github.com/carbocation/calcium/background"
	"github.com/carbocation/calcium/decay"
	"github.com/carbocation/calcium/interleave"
	"github.com/carbocation/calcium/peaks"
	"github.com/carbocation/calcium/ratio"
	"github.com/carbocation/calcium/series"
	"github.com/carbocation/calcium/sheet"
)

// Run analyzes every data column of t. The configuration is validated first;
// after that, failures are confined to the column they occur in and reported
// in its ColumnResult. Results are ordered by column index.
func Run(t series.Table, cfg Config) ([]ColumnResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.logger()

	mode := cfg.Background
	bg, ok := t.BackgroundColumn()
	var sheetNotes []string
	if !ok {
		bg = series.Column{Index: -1}
		if mode != background.None {
			sheetNotes = append(sheetNotes, "no background column; background not reduced")
			logger.Printf("%s: no background column; background not reduced\n", t.Name)
			mode = background.None
		}
	}

	reduced := background.Reduce(t.Data(), bg, mode)

	concurrency := min(cfg.workers(), max(1, len(reduced)))

	results := make(chan ColumnResult, concurrency)
	doneListening := make(chan struct{})
	out := make([]ColumnResult, 0, len(reduced))
	go func() {
		defer func() { doneListening <- struct{}{} }()
		for res := range results {
			out = append(out, res)
		}
	}()

	semaphore := make(chan struct{}, concurrency)

	for _, r := range reduced {

		// Will block after `concurrency` simultaneous goroutines are running
		semaphore <- struct{}{}

		go func(r background.Result) {
			defer func() { <-semaphore }()

			if r.Err != nil {
				results <- ColumnResult{Sheet: t.Name, Column: r.Column, Err: r.Err, Notes: sheetNotes}
				return
			}

			res := cfg.RunColumn(t.Name, r.Column)
			res.Notes = append(append([]string(nil), sheetNotes...), res.Notes...)
			results <- res
		}(r)
	}

	// Wait for the stragglers
	for i := 0; i < cap(semaphore); i++ {
		semaphore <- struct{}{}
	}

	close(results)
	<-doneListening

	sort.Slice(out, func(i, j int) bool { return out[i].Column.Index < out[j].Column.Index })

	return out, nil
}

// RunColumn analyzes one background-reduced column: it de-interleaves it,
// selects the ratio, detects the wavelets and fits their decays. cfg is
// assumed valid.
func (cfg Config) RunColumn(sheetName string, col series.Column) ColumnResult {
	logger := cfg.logger()
	out := ColumnResult{Sheet: sheetName, Column: col}

	note := func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		out.Notes = append(out.Notes, msg)
		logger.Printf("%s - %s: %s\n", sheetName, col.Name, msg)
	}

	cands, err := ratio.Build(interleave.Split(col.Series))
	if err != nil {
		out.Err = fmt.Errorf("column %d (%s): %w", col.Index, col.Name, err)
		return out
	}

	sel, err := cfg.selector().Select(cands)
	if err != nil {
		out.Err = fmt.Errorf("column %d (%s): %w", col.Index, col.Name, err)
		return out
	}
	out.Selection = sel

	if g := sel.Candidate.Guarded; g > 0 {
		note("%d of %d ratio samples had a zero denominator and were excluded", g, sel.Candidate.Series.Len())
	}
	if err := sel.Warning(); err != nil {
		note("%v; using %s", err, sel.Candidate.Name())
	}

	all := peaks.Wavelets(sel.Peaks)
	ws := peaks.Limit(all, cfg.Limit)
	limited := len(ws) < len(all)
	if len(ws) == 0 {
		note("no complete wavelets detected")
	}

	ratioSeries := sel.Candidate.Series
	out.Wavelets = decay.FitAll(ratioSeries, ws, cfg.decayOptions())
	out.Metrics = decay.Summarize(ratioSeries, out.Wavelets, limited)

	if out.Metrics.Failed > 0 {
		note("%d of %d decay fits failed", out.Metrics.Failed, out.Metrics.Wavelets)
	}

	return out
}

// RunFromSlices analyzes columns given as plain slices sharing one time axis.
// bg is the index of the background column in values, or -1.
func RunFromSlices(times []float64, names []string, values [][]float64, bg int, cfg Config) ([]ColumnResult, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("%d names for %d columns: %w", len(names), len(values), series.ErrDimensionMismatch)
	}

	t := series.Table{Name: "slices", Background: bg}
	for i, v := range values {
		s, err := series.FromSlices(times, v)
		if err != nil {
			return nil, fmt.Errorf("column %d (%s): %w", i, names[i], err)
		}
		t.Columns = append(t.Columns, series.Column{Index: i, Name: names[i], Series: s})
	}

	return Run(t, cfg)
}

// RunFromFile reads every selected worksheet of path and analyzes it.
func RunFromFile(path string, layout sheet.Layout, filter sheet.Filter, cfg Config) ([]SheetResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tables, err := sheet.Read(path, layout, filter)
	if err != nil {
		return nil, err
	}

	out := make([]SheetResult, 0, len(tables))
	for _, t := range tables {
		cfg.logger().Printf("Processing: %s - %s\n", path, t.Name)

		cols, err := Run(t, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, SheetResult{Name: t.Name, Columns: cols})
	}

	return out, nil
}
