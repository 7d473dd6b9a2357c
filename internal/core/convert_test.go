package core

import (
	"math"
	"testing"
)

func TestIsMissing(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"NA", true},
		{"N/A", true},
		{"NaN", true},
		{"null", true},
		{"None", true},
		{"#N/A", true},
		{" <NA> ", true},
		{"0", false},
		{"none", false},
		{"na", false},
		{"missing", false},
		{"-", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsMissing(tt.input); got != tt.want {
				t.Errorf("IsMissing(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseNumber Tests
// ----------------------------------------------------------------------------

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		// Valid
		{name: "integer", input: "123", want: 123, wantOK: true},
		{name: "negative", input: "-45", want: -45, wantOK: true},
		{name: "explicit plus", input: "+7", want: 7, wantOK: true},
		{name: "decimal", input: "3.25", want: 3.25, wantOK: true},
		{name: "leading dot", input: ".5", want: 0.5, wantOK: true},
		{name: "trailing dot", input: "5.", want: 5, wantOK: true},
		{name: "scientific", input: "1.5e3", want: 1500, wantOK: true},
		{name: "negative exponent", input: "2E-2", want: 0.02, wantOK: true},
		{name: "surrounding whitespace", input: "  42  ", want: 42, wantOK: true},
		{name: "infinity", input: "inf", want: math.Inf(1), wantOK: true},
		{name: "negative infinity", input: "-Infinity", want: math.Inf(-1), wantOK: true},
		{name: "overflow", input: "1e400", want: math.Inf(1), wantOK: true},

		// Invalid
		{name: "empty", input: "", wantOK: false},
		{name: "text", input: "abc", wantOK: false},
		{name: "thousands separator", input: "1,000", wantOK: false},
		{name: "currency", input: "$5", wantOK: false},
		{name: "hex", input: "0x1F", wantOK: false},
		{name: "underscore", input: "1_000", wantOK: false},
		{name: "two dots", input: "1.2.3", wantOK: false},
		{name: "nan spelled out", input: "nan", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// CoerceNumber Tests
// ----------------------------------------------------------------------------

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{name: "plain", input: "12", want: 12, wantOK: true},
		{name: "dollar with separators", input: "$1,234.50", want: 1234.5, wantOK: true},
		{name: "euro", input: "€99", want: 99, wantOK: true},
		{name: "pound", input: "£ 3", want: 3, wantOK: true},
		{name: "accounting negative", input: "(12.50)", want: -12.5, wantOK: true},
		{name: "accounting negative with currency", input: "($1,000)", want: -1000, wantOK: true},
		{name: "empty", input: "", wantOK: false},
		{name: "text", input: "twelve", wantOK: false},
		{name: "unbalanced paren", input: "(12", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceNumber(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("CoerceNumber(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("CoerceNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{2, "2"},
		{2.5, "2.5"},
		{-0.125, "-0.125"},
		{1e6, "1000000"},
		{0.1 + 0.2, "0.30000000000000004"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
	}

	for _, tt := range tests {
		if got := FormatNumber(tt.input); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatNumber_RoundTrips(t *testing.T) {
	for _, v := range []float64{0, 1, -3.75, 123456.789, 1e-7, math.Inf(1), math.Inf(-1)} {
		got, ok := ParseNumber(FormatNumber(v))
		if !ok || got != v {
			t.Errorf("ParseNumber(FormatNumber(%v)) = %v, %v", v, got, ok)
		}
	}
}
