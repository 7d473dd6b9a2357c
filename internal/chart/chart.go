// Package chart draws the quick bar chart of two numeric columns as SVG.
//
// Each row becomes a pair of adjacent bars, the first column in blue and the
// second in green, labelled with the row number. Missing and infinite values
// are drawn as empty bars.
package chart

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/JonMunkholm/DataSweeper/internal/core"
)

// Defaults used when Options leaves a field at zero.
const (
	DefaultMaxBars = 100
	DefaultHeight  = 400

	barWidth    = 12
	barSpacing  = 4
	axisPadding = 120
	minWidth    = 480
)

// Series colors, in plotting order.
var (
	FirstColor  = gochart.ColorBlue
	SecondColor = gochart.ColorGreen
)

// Options controls the size of the rendered chart.
type Options struct {
	// MaxBars caps the number of rows drawn. Later rows are left out.
	MaxBars int
	Height  int
}

func (o Options) withDefaults() Options {
	if o.MaxBars <= 0 {
		o.MaxBars = DefaultMaxBars
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	return o
}

// VisibleRows returns how many rows of data a chart with opts draws.
func VisibleRows(data *core.ChartData, opts Options) int {
	opts = opts.withDefaults()
	if data.Rows < opts.MaxBars {
		return data.Rows
	}
	return opts.MaxBars
}

// RenderSVG draws data as a grouped bar chart.
func RenderSVG(data *core.ChartData, opts Options) ([]byte, error) {
	if data == nil || data.Rows == 0 {
		return nil, core.ErrEmptyNumericSelection
	}
	opts = opts.withDefaults()
	rows := VisibleRows(data, opts)

	bars := make([]gochart.Value, 0, rows*2)
	lo, hi := 0.0, 0.0
	for i := 0; i < rows; i++ {
		for s, series := range data.Series {
			v := plotValue(series.Values[i])
			lo, hi = math.Min(lo, v), math.Max(hi, v)

			bar := gochart.Value{Value: v, Style: barStyle(s)}
			if s == 0 {
				bar.Label = strconv.Itoa(i)
			}
			bars = append(bars, bar)
		}
	}
	if hi == lo {
		hi = lo + 1
	}

	bc := gochart.BarChart{
		Width:        chartWidth(len(bars)),
		Height:       opts.Height,
		BarWidth:     barWidth,
		BarSpacing:   barSpacing,
		UseBaseValue: true,
		BaseValue:    0,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 20, Left: 10, Right: 10, Bottom: 10},
		},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: lo, Max: hi},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(gochart.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// plotValue maps a cell to a bar height. Bars cannot show gaps, so missing
// and non-finite values are drawn at zero.
func plotValue(c core.Cell) float64 {
	if !c.Valid || math.IsInf(c.Num, 0) || math.IsNaN(c.Num) {
		return 0
	}
	return c.Num
}

func barStyle(series int) gochart.Style {
	color := FirstColor
	if series == 1 {
		color = SecondColor
	}
	return gochart.Style{
		FillColor:   color,
		StrokeColor: color,
		StrokeWidth: 0,
	}
}

func chartWidth(bars int) int {
	w := axisPadding + bars*(barWidth+barSpacing)
	if w < minWidth {
		return minWidth
	}
	return w
}

// CSSColor returns the color as a CSS hex value for legends drawn in HTML.
func CSSColor(c drawing.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
