package core

import (
	"fmt"
	"strconv"
	"strings"
)

// ColumnType is the type tag assigned to a column once at ingestion.
// Every transformation carries the tag through instead of re-inferring it.
type ColumnType int

const (
	ColumnText ColumnType = iota
	ColumnNumeric
)

// String returns the lowercase type name shown in previews.
func (t ColumnType) String() string {
	switch t {
	case ColumnNumeric:
		return "numeric"
	default:
		return "text"
	}
}

// Cell is a single value. Valid is false for a missing value.
// Num is meaningful in numeric columns, Text in text columns.
type Cell struct {
	Num   float64
	Text  string
	Valid bool
}

// Number returns a present numeric cell.
func Number(v float64) Cell {
	return Cell{Num: v, Valid: true}
}

// Text returns a present text cell.
func Text(s string) Cell {
	return Cell{Text: s, Valid: true}
}

// Missing returns a missing cell.
func Missing() Cell {
	return Cell{}
}

// Column is a named, typed sequence of cells.
type Column struct {
	Name  string
	Type  ColumnType
	Cells []Cell
}

// Format renders the cell at row i for display or CSV output.
// Missing cells render as the empty string.
func (c *Column) Format(i int) string {
	cell := c.Cells[i]
	if !cell.Valid {
		return ""
	}
	if c.Type == ColumnNumeric {
		return FormatNumber(cell.Num)
	}
	return cell.Text
}

// MissingCount returns how many cells in the column are missing.
func (c *Column) MissingCount() int {
	n := 0
	for _, cell := range c.Cells {
		if !cell.Valid {
			n++
		}
	}
	return n
}

func (c *Column) clone() *Column {
	cells := make([]Cell, len(c.Cells))
	copy(cells, c.Cells)
	return &Column{Name: c.Name, Type: c.Type, Cells: cells}
}

// Table is an ordered set of equally long columns.
// Column order is significant and user-visible.
type Table struct {
	Columns []*Column
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Cells)
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// Column looks up a column by exact name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return nil, false
}

// Record returns row i formatted as strings, one per column.
func (t *Table) Record(i int) []string {
	rec := make([]string, len(t.Columns))
	for j, col := range t.Columns {
		rec[j] = col.Format(i)
	}
	return rec
}

// Head returns a copy of the first n rows.
func (t *Table) Head(n int) *Table {
	rows := t.NumRows()
	if n > rows || n < 0 {
		n = rows
	}
	head := &Table{Columns: make([]*Column, len(t.Columns))}
	for i, col := range t.Columns {
		cells := make([]Cell, n)
		copy(cells, col.Cells[:n])
		head.Columns[i] = &Column{Name: col.Name, Type: col.Type, Cells: cells}
	}
	return head
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{Columns: make([]*Column, len(t.Columns))}
	for i, col := range t.Columns {
		out.Columns[i] = col.clone()
	}
	return out
}

// keepRows drops every row whose mask entry is false.
func (t *Table) keepRows(keep []bool) {
	for _, col := range t.Columns {
		kept := col.Cells[:0]
		for i, cell := range col.Cells {
			if keep[i] {
				kept = append(kept, cell)
			}
		}
		col.Cells = kept
	}
}

// FromRecords builds a typed table from a header and string records.
// Short records are padded with missing cells; the caller rejects long ones.
// A column is numeric when every present value parses as a number, including
// a column whose values are all missing. Columns of a header-only table are
// text.
func FromRecords(header []string, records [][]string) *Table {
	names := normalizeHeader(header)
	t := &Table{Columns: make([]*Column, len(names))}

	for j, name := range names {
		raw := make([]string, len(records))
		for i, rec := range records {
			if j < len(rec) {
				raw[i] = rec[j]
			}
		}
		t.Columns[j] = buildColumn(name, raw)
	}
	return t
}

func buildColumn(name string, raw []string) *Column {
	col := &Column{Name: name, Type: inferType(raw), Cells: make([]Cell, len(raw))}
	for i, s := range raw {
		if IsMissing(s) {
			continue
		}
		if col.Type == ColumnNumeric {
			v, _ := ParseNumber(s)
			col.Cells[i] = Number(v)
		} else {
			col.Cells[i] = Text(s)
		}
	}
	return col
}

// inferType tags a column numeric when every present value parses as a
// number. A column with rows but no present values is numeric too, so
// mean-fill and charting treat it like any other empty numeric column.
func inferType(raw []string) ColumnType {
	if len(raw) == 0 {
		return ColumnText
	}
	for _, s := range raw {
		if IsMissing(s) {
			continue
		}
		if _, ok := ParseNumber(s); !ok {
			return ColumnText
		}
	}
	return ColumnNumeric
}

// normalizeHeader trims names, names blank headers "Unnamed: <index>" and
// suffixes repeated names with ".<n>" so every column name is unique.
func normalizeHeader(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if used[name] {
			for n := 1; ; n++ {
				candidate := fmt.Sprintf("%s.%d", name, n)
				if !used[candidate] {
					name = candidate
					break
				}
			}
		}
		used[name] = true
		names[i] = name
	}
	return names
}
