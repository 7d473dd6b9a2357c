package core

import (
	"reflect"
	"testing"
)

func records(tbl *Table) [][]string {
	out := make([][]string, tbl.NumRows())
	for i := range out {
		out[i] = tbl.Record(i)
	}
	return out
}

func TestDeduplicateThenFill(t *testing.T) {
	tbl := mustTable(t, []string{"x", "y"},
		[]string{"1", "2"},
		[]string{"1", "2"},
		[]string{"3", ""},
	)

	if removed := Deduplicate(tbl); removed != 1 {
		t.Fatalf("Deduplicate removed %d rows, want 1", removed)
	}
	want := [][]string{{"1", "2"}, {"3", ""}}
	if got := records(tbl); !reflect.DeepEqual(got, want) {
		t.Fatalf("after Deduplicate = %q, want %q", got, want)
	}

	if filled := MeanFill(tbl); filled != 1 {
		t.Fatalf("MeanFill filled %d cells, want 1", filled)
	}
	y, _ := tbl.Column("y")
	if !y.Cells[1].Valid || y.Cells[1].Num != 2.0 {
		t.Errorf("y[1] = %+v, want 2.0", y.Cells[1])
	}
}

func TestDeduplicate(t *testing.T) {
	tests := []struct {
		name        string
		header      []string
		rows        [][]string
		wantRemoved int
		want        [][]string
	}{
		{
			name:        "no rows",
			header:      []string{"a"},
			wantRemoved: 0,
			want:        [][]string{},
		},
		{
			name:        "keeps first occurrence and order",
			header:      []string{"a", "b"},
			rows:        [][]string{{"2", "x"}, {"1", "y"}, {"2", "x"}, {"1", "y"}, {"3", "z"}},
			wantRemoved: 2,
			want:        [][]string{{"2", "x"}, {"1", "y"}, {"3", "z"}},
		},
		{
			name:        "missing values compare equal",
			header:      []string{"a", "b"},
			rows:        [][]string{{"1", ""}, {"1", "NA"}},
			wantRemoved: 1,
			want:        [][]string{{"1", ""}},
		},
		{
			name:        "repeated text around a missing row",
			header:      []string{"a"},
			rows:        [][]string{{"x"}, {""}, {"x"}},
			wantRemoved: 1,
			want:        [][]string{{"x"}, {""}},
		},
		{
			name:        "numbers compare by value",
			header:      []string{"a"},
			rows:        [][]string{{"1"}, {"1.0"}, {"-0"}, {"0"}},
			wantRemoved: 2,
			want:        [][]string{{"1"}, {"-0"}},
		},
		{
			name:        "separator in text cannot forge a match",
			header:      []string{"a", "b"},
			rows:        [][]string{{"x|", "y"}, {"x", "|y"}},
			wantRemoved: 0,
			want:        [][]string{{"x|", "y"}, {"x", "|y"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := FromRecords(tt.header, tt.rows)
			if got := Deduplicate(tbl); got != tt.wantRemoved {
				t.Errorf("removed = %d, want %d", got, tt.wantRemoved)
			}
			if got := records(tbl); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("rows = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeduplicate_Idempotent(t *testing.T) {
	tbl := mustTable(t, []string{"a", "b"},
		[]string{"1", "x"}, []string{"1", "x"}, []string{"2", ""}, []string{"2", ""},
	)
	Deduplicate(tbl)
	before := records(tbl)

	if removed := Deduplicate(tbl); removed != 0 {
		t.Errorf("second Deduplicate removed %d rows, want 0", removed)
	}
	if got := records(tbl); !reflect.DeepEqual(got, before) {
		t.Errorf("second Deduplicate changed rows: %q -> %q", before, got)
	}
}

func TestMeanFill(t *testing.T) {
	tbl := mustTable(t, []string{"n", "label", "blank"},
		[]string{"1", "a", ""},
		[]string{"", "", ""},
		[]string{"4", "c", ""},
	)

	if filled := MeanFill(tbl); filled != 1 {
		t.Fatalf("filled = %d, want 1", filled)
	}

	n, _ := tbl.Column("n")
	if n.Cells[1].Num != 2.5 {
		t.Errorf("n[1] = %v, want 2.5", n.Cells[1].Num)
	}

	label, _ := tbl.Column("label")
	if label.Cells[1].Valid {
		t.Error("text columns must not be filled")
	}

	blank, _ := tbl.Column("blank")
	if blank.MissingCount() != 3 {
		t.Errorf("all-missing column has %d missing, want 3", blank.MissingCount())
	}

	if again := MeanFill(tbl); again != 0 {
		t.Errorf("second MeanFill filled %d, want 0", again)
	}
}

func TestMeanFill_AllMissingNumericColumnStaysMissing(t *testing.T) {
	tbl := &Table{Columns: []*Column{
		{Name: "n", Type: ColumnNumeric, Cells: []Cell{Missing(), Missing()}},
	}}

	if filled := MeanFill(tbl); filled != 0 {
		t.Errorf("filled = %d, want 0", filled)
	}
	if tbl.Columns[0].MissingCount() != 2 {
		t.Error("column without values should stay missing")
	}
}

func TestMeanFill_NonFiniteMeanLeavesMissing(t *testing.T) {
	tbl, err := ParseTable(FormatCSV, []byte("a,b\ninf,1\n-inf,2\n,3\n"))
	if err != nil {
		t.Fatal(err)
	}

	if filled := MeanFill(tbl); filled != 0 {
		t.Errorf("filled = %d, want 0", filled)
	}
	a, _ := tbl.Column("a")
	if a.Cells[2].Valid {
		t.Errorf("a[2] = %+v, want missing", a.Cells[2])
	}

	if _, err := Export(tbl, "a.csv", ExportCSV); err != nil {
		t.Errorf("Export() after MeanFill error = %v", err)
	}
}

func TestMeanFill_EmptyColumnFromUpload(t *testing.T) {
	tbl, err := ParseTable(FormatCSV, []byte("x,z\n1,\n,\n3,\n"))
	if err != nil {
		t.Fatal(err)
	}
	z, _ := tbl.Column("z")
	if z.Type != ColumnNumeric {
		t.Fatalf("z type = %v, want numeric", z.Type)
	}

	if filled := MeanFill(tbl); filled != 1 {
		t.Errorf("filled = %d, want 1", filled)
	}
	if z.MissingCount() != 3 {
		t.Errorf("z missing = %d, want 3", z.MissingCount())
	}
	x, _ := tbl.Column("x")
	if !x.Cells[1].Valid || x.Cells[1].Num != 2 {
		t.Errorf("x[1] = %+v, want 2", x.Cells[1])
	}
}
