package core

import (
	"math"
	"strconv"
	"strings"
)

// Deduplicate removes rows that repeat an earlier row across all columns,
// keeping the first occurrence and the order of the survivors. Missing values
// compare equal to each other. It returns the number of rows removed.
func Deduplicate(t *Table) int {
	rows := t.NumRows()
	if rows < 2 {
		return 0
	}

	seen := make(map[string]struct{}, rows)
	keep := make([]bool, rows)
	removed := 0
	for i := 0; i < rows; i++ {
		key := rowKey(t, i)
		if _, dup := seen[key]; dup {
			removed++
			continue
		}
		seen[key] = struct{}{}
		keep[i] = true
	}

	if removed > 0 {
		t.keepRows(keep)
	}
	return removed
}

// rowKey encodes row i so that two rows share a key only when every cell is equal.
// Text is quoted so no value can forge the separator.
func rowKey(t *Table, i int) string {
	var b strings.Builder
	for _, col := range t.Columns {
		cell := col.Cells[i]
		switch {
		case !cell.Valid:
			b.WriteString("~")
		case col.Type == ColumnNumeric && cell.Num == 0:
			b.WriteString("0") // -0 equals 0
		case col.Type == ColumnNumeric:
			b.WriteString(strconv.FormatFloat(cell.Num, 'g', -1, 64))
		default:
			b.WriteString(strconv.Quote(cell.Text))
		}
		b.WriteByte('|')
	}
	return b.String()
}

// MeanFill replaces missing values in every numeric column with the mean of
// that column's present values. Text columns are untouched. A numeric column
// with no present values, or whose mean is not finite, stays missing. It returns the number of cells filled.
func MeanFill(t *Table) int {
	filled := 0
	for _, col := range t.Columns {
		if col.Type != ColumnNumeric {
			continue
		}
		mean, ok := columnMean(col)
		if !ok {
			continue
		}
		for i := range col.Cells {
			if !col.Cells[i].Valid {
				col.Cells[i] = Number(mean)
				filled++
			}
		}
	}
	return filled
}

func columnMean(col *Column) (float64, bool) {
	var sum float64
	n := 0
	for _, cell := range col.Cells {
		if cell.Valid {
			sum += cell.Num
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	mean := sum / float64(n)
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return 0, false
	}
	return mean, true
}
