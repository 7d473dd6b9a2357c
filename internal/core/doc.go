// Package core provides the business logic of Data Sweeper: reading uploaded
// CSV and Excel files into typed tables, cleaning them, and turning them back
// into files and charts.
//
// The package has no knowledge of HTTP or the terminal. Web handlers and the
// CLI both call the same [Service].
//
// # Tables
//
// A [Table] is a list of named, typed columns. Each column is either numeric
// or text, decided once when the file is parsed: a column is numeric when
// every present value is a number. Missing cells are kept as missing and never
// turned into zero or the empty string.
//
// # Sessions
//
// Each browser gets a [Session] that maps file names to [Entry] values. The
// first upload of a name is parsed; later uploads of the same name reuse the
// stored table, so cleaning done earlier is never lost by re-uploading. A
// [Store] holds every session and evicts idle ones.
//
// # Operations
//
//   - [Deduplicate] removes repeated rows, keeping the first.
//   - [MeanFill] fills missing numeric cells with the column mean.
//   - [Project] selects columns for display, charting and export.
//   - [PrepareChart] picks the first two numeric columns for the bar chart.
//   - [Export] writes a table as CSV or Excel.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE007: File errors (size, format, encoding, empty)
//   - COL001: Unknown column in a selection
//   - CHT001: Not enough numeric data to chart (informational)
//   - EXP001: The table cannot be written in the chosen format
//   - SES001: File not in this session
//   - UPL002-UPL005: Upload errors (busy, cancelled, timeout)
package core
