package tui

import (
	"fmt"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/killfeed/internal/model"
)

const countsChartHeight = 6

// renderCountsChart draws the kill outcome counters as a bar chart with a
// legend on the right.
func renderCountsChart(c model.Counters, width int) string {
	legendWidth := 18
	chartWidth := width - legendWidth - 2
	if chartWidth < 12 {
		chartWidth = 12
	}

	bars := []struct {
		name  string
		value int64
		color lipgloss.Color
	}{
		{"Sent", c.Sent, ColorGreen},
		{"Failed", c.Failed, ColorRed},
		{"Skipped", c.Skipped, ColorYellow},
	}

	barWidth := max(1, (chartWidth-2*(len(bars)-1))/len(bars))
	bc := barchart.New(chartWidth, countsChartHeight,
		barchart.WithBarGap(2),
		barchart.WithBarWidth(barWidth),
		barchart.WithNoAxis(),
	)
	for _, b := range bars {
		style := lipgloss.NewStyle().Foreground(b.color).Background(b.color)
		bc.Push(barchart.BarData{
			Label:  "",
			Values: []barchart.BarValue{{Name: b.name, Value: float64(b.value), Style: style}},
		})
	}
	bc.Draw()

	legend := make([]string, 0, len(bars)+2)
	for _, b := range bars {
		swatch := lipgloss.NewStyle().Foreground(b.color).Render("■")
		legend = append(legend, fmt.Sprintf("%s %-8s %6d", swatch, b.name, b.value))
	}
	legend = append(legend, dimStyle.Render("─────────────────"))
	legend = append(legend, fmt.Sprintf("  %-8s %6d", "Lines", c.Lines))

	legendBlock := lipgloss.NewStyle().Width(legendWidth).Render(lipgloss.JoinVertical(lipgloss.Left, legend...))
	return lipgloss.JoinHorizontal(lipgloss.Top, bc.View(), "  ", legendBlock)
}
