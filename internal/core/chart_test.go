package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestPrepareChart_SingleNumericColumnIsInformational(t *testing.T) {
	src := mustTable(t, []string{"id", "name", "city", "amount", "note"},
		[]string{"1", "a", "x", "10", "n"},
		[]string{"2", "b", "y", "20", "m"},
	)
	proj, err := Project(src, []string{"amount"})
	if err != nil {
		t.Fatal(err)
	}

	data, err := PrepareChart(proj)
	if data != nil {
		t.Errorf("PrepareChart() = %+v, want nil", data)
	}
	if !errors.Is(err, ErrEmptyNumericSelection) {
		t.Fatalf("error = %v, want ErrEmptyNumericSelection", err)
	}
	if !IsInformational(err) {
		t.Error("not-enough-data should be informational")
	}
}

func TestPrepareChart_FirstTwoNumericColumns(t *testing.T) {
	tbl := mustTable(t, []string{"name", "q1", "q2", "q3"},
		[]string{"a", "1", "2", "3"},
		[]string{"b", "", "5", "6"},
	)

	data, err := PrepareChart(tbl)
	if err != nil {
		t.Fatalf("PrepareChart() error = %v", err)
	}
	if data.Series[0].Label != "q1" || data.Series[1].Label != "q2" {
		t.Errorf("labels = %q, %q; want q1, q2", data.Series[0].Label, data.Series[1].Label)
	}
	if !reflect.DeepEqual(data.Candidates, []string{"q1", "q2", "q3"}) {
		t.Errorf("Candidates = %q", data.Candidates)
	}
	if data.Rows != 2 {
		t.Errorf("Rows = %d, want 2", data.Rows)
	}
	if data.Series[0].Values[1].Valid {
		t.Error("missing value should stay missing")
	}
}

func TestPrepareChart_CoercesMostlyNumericText(t *testing.T) {
	tbl := mustTable(t, []string{"price", "qty"},
		[]string{"$1,000", "3"},
		[]string{"(20)", "4"},
		[]string{"n/a?", "5"},
	)
	price, _ := tbl.Column("price")
	if price.Type != ColumnText {
		t.Fatalf("price should be text at ingestion, got %v", price.Type)
	}

	data, err := PrepareChart(tbl)
	if err != nil {
		t.Fatalf("PrepareChart() error = %v", err)
	}

	got := data.Series[0].Values
	if got[0].Num != 1000 || got[1].Num != -20 {
		t.Errorf("coerced values = %+v", got)
	}
	if got[2].Valid {
		t.Error("uncoercible value should become missing")
	}
}

func TestPrepareChart_RejectsMostlyText(t *testing.T) {
	tbl := mustTable(t, []string{"mixed", "a", "b"},
		[]string{"1", "1", "1"},
		[]string{"x", "2", "2"},
		[]string{"y", "3", "3"},
	)

	data, err := PrepareChart(tbl)
	if err != nil {
		t.Fatalf("PrepareChart() error = %v", err)
	}
	if data.Series[0].Label != "a" {
		t.Errorf("first series = %q, want a", data.Series[0].Label)
	}
}

func TestPrepareChart_EmptyLabels(t *testing.T) {
	tbl := &Table{Columns: []*Column{
		{Name: " ", Type: ColumnNumeric, Cells: []Cell{Number(1)}},
		{Name: "b", Type: ColumnNumeric, Cells: []Cell{Number(2)}},
	}}

	data, err := PrepareChart(tbl)
	if err != nil {
		t.Fatal(err)
	}
	if data.Series[0].Label != "col_1" {
		t.Errorf("label = %q, want col_1", data.Series[0].Label)
	}
}

func TestPrepareChart_NoRows(t *testing.T) {
	tbl := &Table{Columns: []*Column{
		{Name: "a", Type: ColumnNumeric},
		{Name: "b", Type: ColumnNumeric},
	}}

	if _, err := PrepareChart(tbl); !errors.Is(err, ErrEmptyNumericSelection) {
		t.Errorf("error = %v, want ErrEmptyNumericSelection", err)
	}
}

func TestPrepareChart_EmptyNumericColumnCounts(t *testing.T) {
	tbl, err := ParseTable(FormatCSV, []byte("x,z\n1,\n2,\n3,\n"))
	if err != nil {
		t.Fatal(err)
	}

	data, err := PrepareChart(tbl)
	if err != nil {
		t.Fatalf("PrepareChart() error = %v", err)
	}
	if data.Series[1].Label != "z" || data.Rows != 3 {
		t.Errorf("series = %q, rows = %d", data.Series[1].Label, data.Rows)
	}
	for i, v := range data.Series[1].Values {
		if v.Valid {
			t.Errorf("z[%d] = %+v, want missing", i, v)
		}
	}
}
