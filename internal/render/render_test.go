package render

import (
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadash/internal/chart"
	"loadash/internal/core"
)

func sampleSpec() chart.Spec {
	a := core.NewRecord("Saúde", "Hospitais", "Hospital A", map[core.Metric]float64{
		core.Budget2025: 1000, core.Investment2025: 250,
	})
	b := core.NewRecord("Saúde", "Hospitais", "Hospital B", map[core.Metric]float64{
		core.Budget2025: 0, core.Investment2025: 0,
	})
	return chart.Project([]core.Record{a, b},
		core.NewMetricSelection(core.Budget2025, core.InvestmentPct2025), core.DefaultLabels())
}

func TestSVG(t *testing.T) {
	out, err := SVGBytes(sampleSpec(), Options{})
	require.NoError(t, err)
	svg := string(out)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(svg), "<?xml") || strings.Contains(svg, "<svg"))
	assert.Contains(t, svg, "Hospital A")
	assert.Contains(t, svg, "Hospital B")
}

func TestSVGPlaceholder(t *testing.T) {
	out, err := SVGBytes(chart.Placeholder(), Options{Width: 4 * 72, Height: 3 * 72})
	require.NoError(t, err)
	assert.Contains(t, string(out), "<svg")
}

func TestPlotHandlesMissingValues(t *testing.T) {
	spec := sampleSpec()
	_, ok := spec.Value(1, 0)
	require.False(t, ok, "Hospital B share over a zero budget has no value")
	_, err := Plot(spec)
	assert.NoError(t, err)
}

func TestParseHex(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 0x88, G: 0xCC, B: 0xEE, A: 255}, parseHex("#88CCEE"))
	assert.Equal(t, color.Gray{Y: 128}, parseHex("teal"))
}
