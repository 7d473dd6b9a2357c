package core

// convert.go holds the value conversions shared by ingestion, charting and export.
//
// There are two number parsers:
//   - ParseNumber is strict and decides the column type at ingestion. A column
//     is numeric only when every present value is a plain number.
//   - CoerceNumber is lenient and is only used when preparing charts. It accepts
//     the messy shapes people type into spreadsheets:
//     currency symbols, thousands separators and accounting negatives "(12.50)".

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates that a string is a plain decimal number after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// infinityRegex matches the spellings of infinity that dataframe tools emit.
var infinityRegex = regexp.MustCompile(`^[+-]?(?i:inf|infinity)$`)

// missingMarkers are the cell spellings treated as missing, compared after
// trimming surrounding whitespace.
var missingMarkers = map[string]bool{
	"":         true,
	"NA":       true,
	"N/A":      true,
	"n/a":      true,
	"NaN":      true,
	"nan":      true,
	"-NaN":     true,
	"-nan":     true,
	"NULL":     true,
	"null":     true,
	"None":     true,
	"<NA>":     true,
	"#N/A":     true,
	"#N/A N/A": true,
	"#NA":      true,
	"-1.#IND":  true,
	"1.#IND":   true,
	"-1.#QNAN": true,
	"1.#QNAN":  true,
}

// IsMissing reports whether a raw cell value represents a missing value.
func IsMissing(s string) bool {
	return missingMarkers[strings.TrimSpace(s)]
}

// ParseNumber parses a plain number (surrounding whitespace allowed).
// Infinity spellings are accepted; hexadecimal and underscore forms are not.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if infinityRegex.MatchString(s) {
		if strings.HasPrefix(s, "-") {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Out of range values still parse to ±Inf with a range error.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return v, true
		}
		return 0, false
	}
	return v, true
}

// CoerceNumber converts a loosely formatted string to a number.
// Handles currency symbols, thousands separators, and accounting format (parentheses for negative).
func CoerceNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	// Remove common currency symbols and thousands separators
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	return ParseNumber(s)
}

// FormatNumber renders a float with the fewest digits that round-trip.
// Whole numbers have no decimal point.
func FormatNumber(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	if math.IsInf(v, -1) {
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
