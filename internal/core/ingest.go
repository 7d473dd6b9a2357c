package core

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is an accepted upload format, named after its file suffix.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// utf8BOM is the byte order mark Windows tools put at the start of CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// UploadedFile is a file as received from the user. It is never modified.
type UploadedFile struct {
	Name string
	Size int64
	Data []byte
}

// NewUploadedFile wraps raw content under its declared name.
func NewUploadedFile(name string, data []byte) UploadedFile {
	return UploadedFile{Name: name, Size: int64(len(data)), Data: data}
}

// Digest returns the hex SHA-256 of the content.
func (f UploadedFile) Digest() string {
	sum := sha256.Sum256(f.Data)
	return hex.EncodeToString(sum[:])
}

// DetectFormat picks the format from the file name suffix, case-insensitively.
func DetectFormat(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		if ext == "" {
			ext = "(none)"
		}
		return "", fmt.Errorf("%s: %w %s", name, ErrUnsupportedFormat, ext)
	}
}

// ParseTable decodes content of the given format into a typed table.
// The first row is the header in both formats.
func ParseTable(format Format, data []byte) (*Table, error) {
	var (
		header []string
		rows   [][]string
		err    error
	)
	switch format {
	case FormatCSV:
		header, rows, err = readCSV(data)
	case FormatXLSX:
		header, rows, err = readXLSX(data)
	default:
		return nil, fmt.Errorf("format %q: %w", format, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}
	return FromRecords(header, rows), nil
}

// readCSV parses comma-separated data after dropping a BOM and replacing
// invalid UTF-8. Rows longer than the header are rejected.
func readCSV(data []byte) ([]string, [][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	data = bytes.ToValidUTF8(data, []byte("?"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}
	if len(records) == 0 {
		return nil, nil, ErrEmptyFile
	}

	header, rows := records[0], records[1:]
	for i, rec := range rows {
		if len(rec) > len(header) {
			return nil, nil, fmt.Errorf("%w: line %d has %d fields, header has %d",
				ErrInvalidCSV, i+2, len(rec), len(header))
		}
	}
	return header, rows, nil
}

// readXLSX reads the first worksheet using raw cell values, so number formats
// such as percentages or currency do not leak into the data.
func readXLSX(data []byte) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: sheet %q: %v", ErrUnreadableWorkbook, sheets[0], err)
	}
	if len(rows) == 0 || isBlankRow(rows[0]) {
		return nil, nil, ErrEmptyFile
	}

	header, body := rows[0], rows[1:]

	// Cells beyond the header get unnamed columns, as spreadsheet users expect.
	width := len(header)
	for _, row := range body {
		if len(row) > width {
			width = len(row)
		}
	}
	for len(header) < width {
		header = append(header, "")
	}
	return header, body, nil
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
