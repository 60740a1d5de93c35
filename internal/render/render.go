// Package render draws a chart.Spec as SVG with gonum/plot.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"loadash/internal/chart"
	"loadash/internal/core"
)

// Options controls the canvas size. Zero values pick a height that grows
// with the number of agencies.
type Options struct {
	Width  vg.Length
	Height vg.Length
}

const (
	defaultWidth = 10 * vg.Inch
	minHeight    = 4 * vg.Inch
	rowHeight    = 0.35 * vg.Inch
)

// SVG renders spec as a horizontal grouped bar chart. Missing values are
// drawn as zero-length bars.
func SVG(w io.Writer, spec chart.Spec, opts Options) error {
	p, err := Plot(spec)
	if err != nil {
		return err
	}

	width, height := opts.Width, opts.Height
	if width == 0 {
		width = defaultWidth
	}
	if height == 0 {
		height = vg.Length(len(spec.Categories)*max(1, len(spec.Series))) * rowHeight / 2
		if height < minHeight {
			height = minHeight
		}
	}

	wt, err := p.WriterTo(width, height, "svg")
	if err != nil {
		return fmt.Errorf("svg canvas: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

// SVGBytes is SVG into a byte slice.
func SVGBytes(spec chart.Spec, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := SVG(&buf, spec, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Plot builds the gonum plot for spec.
func Plot(spec chart.Spec) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = spec.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)

	if spec.Placeholder || len(spec.Categories) == 0 || len(spec.Series) == 0 {
		p.HideAxes()
		p.X.Min, p.X.Max = 0, 1
		p.Y.Min, p.Y.Max = 0, 1
		return p, nil
	}

	p.X.Label.Text = spec.XAxisTitle
	p.Y.Label.Text = spec.YAxisTitle
	p.X.Tick.Marker = thousandsTicks{}
	p.Add(plotter.NewGrid())

	n := len(spec.Series)
	barWidth := vg.Points(math.Max(4, 48/float64(n)))
	for s, series := range spec.Series {
		values := make(plotter.Values, len(spec.Categories))
		for c := range spec.Categories {
			if v, ok := spec.Value(s, c); ok {
				values[c] = v
			}
		}

		bars, err := plotter.NewBarChart(values, barWidth)
		if err != nil {
			return nil, fmt.Errorf("series %s: %w", series.Metric, err)
		}
		bars.Horizontal = true
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = parseHex(series.Color)
		bars.Offset = vg.Length(float64(s)-float64(n-1)/2) * barWidth

		p.Add(bars)
		p.Legend.Add(series.Name, bars)
	}

	p.NominalY(spec.Categories...)
	p.Y.Tick.Label.XAlign = draw.XRight
	p.Legend.Top = true
	p.Legend.Left = false
	return p, nil
}

// parseHex turns "#RRGGBB" into a colour, gray otherwise.
func parseHex(s string) color.Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.Gray{Y: 128}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.Gray{Y: 128}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

// thousandsTicks labels the value axis with Brazilian thousands separators.
type thousandsTicks struct{}

func (thousandsTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = core.FormatNumber(ticks[i].Value, 2)
		}
	}
	return ticks
}
