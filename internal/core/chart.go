package core

import (
	"fmt"
	"strings"
)

// ChartSeries is one numeric column prepared for plotting.
// Values that could not be coerced are missing.
type ChartSeries struct {
	Label  string
	Values []Cell
}

// ChartData is the two-series input of the quick bar chart.
type ChartData struct {
	Series [2]ChartSeries
	Rows   int

	// Candidates lists every label that qualified, in order. Only the first
	// two are plotted.
	Candidates []string
}

// PrepareChart reduces a projected table to its numeric columns and picks the
// first two for a bar chart.
//
// Numeric columns always qualify. A text column qualifies when at least half
// of its present values coerce to numbers; the rest become missing. Labels are
// trimmed and an empty label becomes col_<n>, n being the 1-based position
// among qualifying columns.
//
// With fewer than two qualifying columns, or no rows, it returns
// ErrEmptyNumericSelection.
func PrepareChart(t *Table) (*ChartData, error) {
	var series []ChartSeries
	for _, col := range t.Columns {
		values, ok := numericValues(col)
		if !ok {
			continue
		}
		label := strings.TrimSpace(col.Name)
		if label == "" {
			label = fmt.Sprintf("col_%d", len(series)+1)
		}
		series = append(series, ChartSeries{Label: label, Values: values})
	}

	rows := t.NumRows()
	if len(series) < 2 || rows == 0 {
		return nil, fmt.Errorf("%d numeric column(s), %d row(s): %w", len(series), rows, ErrEmptyNumericSelection)
	}

	data := &ChartData{Rows: rows}
	copy(data.Series[:], series[:2])
	for _, s := range series {
		data.Candidates = append(data.Candidates, s.Label)
	}
	return data, nil
}

// numericValues coerces a column for charting and reports whether it qualifies.
func numericValues(col *Column) ([]Cell, bool) {
	values := make([]Cell, len(col.Cells))
	if col.Type == ColumnNumeric {
		copy(values, col.Cells)
		return values, true
	}

	present, coerced := 0, 0
	for i, cell := range col.Cells {
		if !cell.Valid {
			continue
		}
		present++
		if v, ok := CoerceNumber(cell.Text); ok {
			values[i] = Number(v)
			coerced++
		}
	}
	if coerced == 0 || coerced*2 < present {
		return nil, false
	}
	return values, true
}
