package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// ExportFormat selects the output encoding of an export.
type ExportFormat int

const (
	ExportCSV ExportFormat = iota
	ExportExcel
)

// MIME types of the export formats.
const (
	MIMECSV  = "text/csv"
	MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Excel limits enforced before writing.
const (
	excelMaxRows       = 1048576
	excelMaxCols       = 16384
	excelMaxCellLength = 32767
	excelSheet         = "Sheet1"
)

// String returns the label shown in the format chooser.
func (f ExportFormat) String() string {
	if f == ExportExcel {
		return "Excel"
	}
	return "CSV"
}

// Ext returns the file extension, including the dot.
func (f ExportFormat) Ext() string {
	if f == ExportExcel {
		return ".xlsx"
	}
	return ".csv"
}

// MIMEType returns the content type of the format.
func (f ExportFormat) MIMEType() string {
	if f == ExportExcel {
		return MIMEXLSX
	}
	return MIMECSV
}

// ParseExportFormat accepts "CSV" or "Excel" (also "xlsx"), case-insensitively.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return ExportCSV, nil
	case "excel", "xlsx":
		return ExportExcel, nil
	default:
		return ExportCSV, fmt.Errorf("export format %q: %w", s, ErrUnsupportedFormat)
	}
}

// Artifact is a serialized table ready for download.
type Artifact struct {
	Data     []byte
	FileName string
	MIMEType string
}

// Reader returns a reader positioned at the start of the data.
func (a *Artifact) Reader() *bytes.Reader {
	return bytes.NewReader(a.Data)
}

// ExportFileName replaces the extension of source with the format's one.
func ExportFileName(source string, format ExportFormat) string {
	stem := strings.TrimSuffix(source, filepath.Ext(source))
	return stem + format.Ext()
}

// Export serializes t in the chosen format. Row positions are never written.
// It fails with ErrSerialization when the format cannot hold the data as is.
func Export(t *Table, source string, format ExportFormat) (*Artifact, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case ExportExcel:
		data, err = encodeXLSX(t)
	default:
		data, err = encodeCSV(t)
	}
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Data:     data,
		FileName: ExportFileName(source, format),
		MIMEType: format.MIMEType(),
	}, nil
}

func encodeCSV(t *Table) ([]byte, error) {
	if err := checkFinite(t, false); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Names()); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < t.NumRows(); i++ {
		if err := w.Write(t.Record(i)); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeXLSX(t *Table) ([]byte, error) {
	if err := checkExcelLimits(t); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, t.NumCols())
	for j, name := range t.Names() {
		header[j] = name
	}
	if err := f.SetSheetRow(excelSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < t.NumRows(); i++ {
		row := make([]interface{}, t.NumCols())
		for j, col := range t.Columns {
			cell := col.Cells[i]
			switch {
			case !cell.Valid:
				row[j] = nil
			case col.Type == ColumnNumeric:
				row[j] = cell.Num
			default:
				row[j] = cell.Text
			}
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(excelSheet, addr, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// checkFinite rejects NaN, and infinities when rejectInf is set.
// CSV writes infinities as "inf", which parses back to the same value.
func checkFinite(t *Table, rejectInf bool) error {
	for _, col := range t.Columns {
		if col.Type != ColumnNumeric {
			continue
		}
		for i, cell := range col.Cells {
			if !cell.Valid {
				continue
			}
			if math.IsNaN(cell.Num) {
				return fmt.Errorf("column %q row %d is NaN: %w", col.Name, i+1, ErrSerialization)
			}
			if rejectInf && math.IsInf(cell.Num, 0) {
				return fmt.Errorf("column %q row %d is infinite: %w", col.Name, i+1, ErrSerialization)
			}
		}
	}
	return nil
}

func checkExcelLimits(t *Table) error {
	if t.NumCols() > excelMaxCols {
		return fmt.Errorf("%d columns exceed the Excel limit of %d: %w", t.NumCols(), excelMaxCols, ErrSerialization)
	}
	if t.NumRows()+1 > excelMaxRows {
		return fmt.Errorf("%d rows exceed the Excel limit of %d: %w", t.NumRows(), excelMaxRows-1, ErrSerialization)
	}
	if err := checkFinite(t, true); err != nil {
		return err
	}
	for _, name := range t.Names() {
		if utf8.RuneCountInString(name) > excelMaxCellLength {
			return fmt.Errorf("column name longer than %d characters: %w", excelMaxCellLength, ErrSerialization)
		}
	}
	for _, col := range t.Columns {
		if col.Type != ColumnText {
			continue
		}
		for i, cell := range col.Cells {
			if cell.Valid && utf8.RuneCountInString(cell.Text) > excelMaxCellLength {
				return fmt.Errorf("column %q row %d longer than %d characters: %w", col.Name, i+1, excelMaxCellLength, ErrSerialization)
			}
		}
	}
	return nil
}
