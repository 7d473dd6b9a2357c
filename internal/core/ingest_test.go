package core

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"data.csv", FormatCSV, false},
		{"DATA.CSV", FormatCSV, false},
		{"book.xlsx", FormatXLSX, false},
		{"book.Xlsx", FormatXLSX, false},
		{"notes.txt", "", true},
		{"old.xls", "", true},
		{"README", "", true},
		{"archive.csv.gz", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("DetectFormat(%q) error = %v, want ErrUnsupportedFormat", tt.name, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DetectFormat(%q) error = %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("DetectFormat(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestParseTable_CSV(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantNames []string
		wantRows  [][]string
		wantErr   error
	}{
		{
			name:      "simple",
			data:      "a,b\n1,x\n2,y\n",
			wantNames: []string{"a", "b"},
			wantRows:  [][]string{{"1", "x"}, {"2", "y"}},
		},
		{
			name:      "byte order mark stripped",
			data:      "\xEF\xBB\xBFid,name\n1,a\n",
			wantNames: []string{"id", "name"},
			wantRows:  [][]string{{"1", "a"}},
		},
		{
			name:      "invalid utf-8 replaced",
			data:      "a\nbad\xffbyte\n",
			wantNames: []string{"a"},
			wantRows:  [][]string{{"bad?byte"}},
		},
		{
			name:      "short rows padded",
			data:      "a,b,c\n1\n",
			wantNames: []string{"a", "b", "c"},
			wantRows:  [][]string{{"1", "", ""}},
		},
		{
			name:      "header only",
			data:      "a,b\n",
			wantNames: []string{"a", "b"},
			wantRows:  [][]string{},
		},
		{
			name:    "long row rejected",
			data:    "a,b\n1,2,3\n",
			wantErr: ErrInvalidCSV,
		},
		{
			name:    "bad quoting rejected",
			data:    "a,b\n\"unterminated,2\n",
			wantErr: ErrInvalidCSV,
		},
		{
			name:    "empty",
			data:    "",
			wantErr: ErrEmptyFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := ParseTable(FormatCSV, []byte(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseTable() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTable() error = %v", err)
			}
			if !reflect.DeepEqual(tbl.Names(), tt.wantNames) {
				t.Errorf("names = %q, want %q", tbl.Names(), tt.wantNames)
			}
			if got := records(tbl); !reflect.DeepEqual(got, tt.wantRows) {
				t.Errorf("rows = %q, want %q", got, tt.wantRows)
			}
		})
	}
}

// workbook builds an xlsx file with rows written to the first sheet.
func workbook(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", addr, &row); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestParseTable_XLSX(t *testing.T) {
	data := workbook(t,
		[]interface{}{"name", "score"},
		[]interface{}{"ann", 9.5},
		[]interface{}{"bo", 7, "stray"},
	)

	tbl, err := ParseTable(FormatXLSX, data)
	if err != nil {
		t.Fatalf("ParseTable() error = %v", err)
	}

	wantNames := []string{"name", "score", "Unnamed: 2"}
	if !reflect.DeepEqual(tbl.Names(), wantNames) {
		t.Errorf("names = %q, want %q", tbl.Names(), wantNames)
	}
	score, _ := tbl.Column("score")
	if score.Type != ColumnNumeric || score.Cells[1].Num != 7 {
		t.Errorf("score = %+v", score)
	}
	wantRows := [][]string{{"ann", "9.5", ""}, {"bo", "7", "stray"}}
	if got := records(tbl); !reflect.DeepEqual(got, wantRows) {
		t.Errorf("rows = %q, want %q", got, wantRows)
	}
}

func TestParseTable_XLSXErrors(t *testing.T) {
	t.Run("not a workbook", func(t *testing.T) {
		_, err := ParseTable(FormatXLSX, []byte("a,b\n1,2\n"))
		if !errors.Is(err, ErrUnreadableWorkbook) {
			t.Errorf("error = %v, want ErrUnreadableWorkbook", err)
		}
	})

	t.Run("empty sheet", func(t *testing.T) {
		_, err := ParseTable(FormatXLSX, workbook(t))
		if !errors.Is(err, ErrEmptyFile) {
			t.Errorf("error = %v, want ErrEmptyFile", err)
		}
	})
}

func TestUploadedFile_Digest(t *testing.T) {
	a := NewUploadedFile("a.csv", []byte("x\n1\n"))
	b := NewUploadedFile("b.csv", []byte("x\n1\n"))
	c := NewUploadedFile("a.csv", []byte("x\n2\n"))

	if a.Size != 4 {
		t.Errorf("Size = %d, want 4", a.Size)
	}
	if a.Digest() != b.Digest() {
		t.Error("same content should have the same digest")
	}
	if a.Digest() == c.Digest() {
		t.Error("different content should have different digests")
	}
	if !bytes.Equal(a.Data, []byte("x\n1\n")) {
		t.Error("data changed")
	}
}
