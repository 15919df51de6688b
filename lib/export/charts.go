package export

import (
	"cmp"
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/icco/cinerank/models"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	BarChartFile     = "grafico_barras.png"
	LineChartFile    = "grafico_lineas.png"
	ScatterChartFile = "grafico_dispersion.png"
	PieChartFile     = "grafico_pastel.png"

	chartWidth  = 1024
	chartHeight = 512
	pieSlices   = 5
)

var scoreRange = &chart.ContinuousRange{Min: 0, Max: 10}

// WriteCharts renders the bar, line, scatter and top-5 pie charts into dir
// and returns the files written. Nothing is rendered for an empty set, and
// the pie is skipped when every score is zero.
func WriteCharts(dir string, records models.RankedSet) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}

	renders := []struct {
		name   string
		render func(io.Writer, models.RankedSet) error
	}{
		{BarChartFile, renderBar},
		{LineChartFile, renderLine},
		{ScatterChartFile, renderScatter},
	}
	if hasPositive(records) {
		renders = append(renders, struct {
			name   string
			render func(io.Writer, models.RankedSet) error
		}{PieChartFile, renderPie})
	}

	var paths []string
	for _, r := range renders {
		path := filepath.Join(dir, r.name)
		if err := writeTo(path, func(w io.Writer) error { return r.render(w, records) }); err != nil {
			return paths, fmt.Errorf("failed to render %s: %w", r.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func hasPositive(records models.RankedSet) bool {
	for _, m := range records {
		if m.Score > 0 {
			return true
		}
	}
	return false
}

// renderBar draws scores lowest first, the way the ranking reads bottom-up.
func renderBar(w io.Writer, records models.RankedSet) error {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b models.MovieRecord) int { return cmp.Compare(a.Score, b.Score) })

	bars := make([]chart.Value, len(sorted))
	for i, m := range sorted {
		bars[i] = chart.Value{
			Label: m.Title,
			Value: m.Score,
			Style: chart.Style{FillColor: drawing.ColorFromHex("87ceeb"), StrokeColor: drawing.ColorFromHex("4682b4")},
		}
	}

	graph := chart.BarChart{
		Title:    "Gráfico de Barras - Puntuaciones",
		Width:    chartWidth,
		Height:   chartHeight,
		BarWidth: barWidth(len(bars)),
		YAxis:    chart.YAxis{Name: "Puntuación", Range: scoreRange},
		Bars:     bars,
	}
	return graph.Render(chart.PNG, w)
}

func barWidth(n int) int {
	w := (chartWidth - 100) / (n + 1)
	return min(max(w, 8), 60)
}

// indexTicks labels each index with its title. The outer empty ticks keep
// the axis range non-empty when there is a single record, since go-chart
// derives the range from the ticks when they are set.
func indexTicks(records models.RankedSet) ([]float64, []chart.Tick) {
	n := len(records)
	xs := make([]float64, n)
	ticks := make([]chart.Tick, 0, n+2)
	ticks = append(ticks, chart.Tick{Value: -0.5})
	for i, m := range records {
		xs[i] = float64(i)
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: m.Title})
	}
	ticks = append(ticks, chart.Tick{Value: float64(n) - 0.5})
	return xs, ticks
}

// indexRange pads the x axis so a single point still has a non-empty range.
func indexRange(n int) *chart.ContinuousRange {
	return &chart.ContinuousRange{Min: -0.5, Max: float64(n) - 0.5}
}

// frame is an undrawn series spanning the padded x range and the score
// range, so the data bounds are never a single point.
func frame(n int) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		XValues: []float64{-0.5, float64(n) - 0.5},
		YValues: []float64{scoreRange.Min, scoreRange.Max},
		Style:   chart.Style{StrokeWidth: chart.Disabled},
	}
}

func renderLine(w io.Writer, records models.RankedSet) error {
	xs, ticks := indexTicks(records)
	graph := chart.Chart{
		Title:  "Gráfico de Líneas - Puntuaciones",
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			Ticks:     ticks,
			Range:     indexRange(len(records)),
			TickStyle: chart.Style{TextRotationDegrees: 90},
		},
		YAxis: chart.YAxis{Name: "Puntuación", Range: scoreRange},
		Series: []chart.Series{
			frame(len(records)),
			chart.ContinuousSeries{
				Name:    "Puntuación",
				XValues: xs,
				YValues: records.Scores(),
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("ffa500"),
					StrokeWidth: 2,
					DotColor:    drawing.ColorFromHex("ffa500"),
					DotWidth:    4,
				},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}

func renderScatter(w io.Writer, records models.RankedSet) error {
	xs, _ := indexTicks(records)
	graph := chart.Chart{
		Title:  "Diagrama de Dispersión",
		Width:  chartWidth,
		Height: chartHeight,
		XAxis:  chart.XAxis{Name: "Película (índice)", Range: indexRange(len(records))},
		YAxis:  chart.YAxis{Name: "Puntuación", Range: scoreRange},
		Series: []chart.Series{
			frame(len(records)),
			chart.ContinuousSeries{
				XValues: xs,
				YValues: records.Scores(),
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotColor:    drawing.ColorFromHex("ff0000"),
					DotWidth:    5,
				},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}

// renderPie draws the five highest scores regardless of ranking direction.
func renderPie(w io.Writer, records models.RankedSet) error {
	top := slices.Clone(records)
	slices.SortStableFunc(top, func(a, b models.MovieRecord) int { return cmp.Compare(b.Score, a.Score) })
	if len(top) > pieSlices {
		top = top[:pieSlices]
	}

	var values []chart.Value
	for _, m := range top {
		if m.Score <= 0 {
			continue
		}
		values = append(values, chart.Value{Label: fmt.Sprintf("%s (%s)", m.Title, FormatScore(m.Score)), Value: m.Score})
	}

	graph := chart.PieChart{
		Title:  "Top 5 Puntuaciones - Gráfico de Pastel",
		Width:  chartHeight,
		Height: chartHeight,
		Values: values,
	}
	return graph.Render(chart.PNG, w)
}
