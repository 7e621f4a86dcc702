package series

// Column is one captured cell line: its position in the source sheet, its
// header and its samples.
type Column struct {
	Index  int
	Name   string
	Series Series
}

// Table is everything read from one worksheet. Background is an index into
// Columns, or -1 if the sheet has no background column.
type Table struct {
	Name       string
	Columns    []Column
	Background int
}

// Data returns every column except the background column.
func (t Table) Data() []Column {
	out := make([]Column, 0, len(t.Columns))
	for i, c := range t.Columns {
		if i == t.Background {
			continue
		}
		out = append(out, c)
	}
	return out
}

// BackgroundColumn returns the background column, if any.
func (t Table) BackgroundColumn() (Column, bool) {
	if t.Background < 0 || t.Background >= len(t.Columns) {
		return Column{}, false
	}
	return t.Columns[t.Background], true
}
