package core

import "errors"

// Sentinel errors. Callers wrap them with context using %w and test with errors.Is.
var (
	// ErrUnsupportedFormat is returned for any file suffix other than .csv or .xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrSerialization is returned when the export target cannot represent
	// the table's data without loss.
	ErrSerialization = errors.New("cannot serialize table")

	// ErrEmptyNumericSelection means a chart needs at least two numeric
	// columns with data. It is informational, not a failure.
	ErrEmptyNumericSelection = errors.New("not enough numeric columns to chart")

	ErrFileTooLarge       = errors.New("file too large")
	ErrEmptyFile          = errors.New("empty file")
	ErrInvalidCSV         = errors.New("invalid csv")
	ErrUnreadableWorkbook = errors.New("unreadable spreadsheet")
	ErrNoFile             = errors.New("no file provided")
	ErrColumnNotFound     = errors.New("column not found")
	ErrEntryNotFound      = errors.New("file not in session")
)
