// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chart

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tradelens/tradelens-tui/internal/ui/styles"
	"github.com/tradelens/tradelens-tui/internal/util"
)

// axisLabelWidth is the fixed width of the y-axis price gutter.
const axisLabelWidth = 11

// pricePrinter formats dollar amounts with thousands grouping.
var pricePrinter = message.NewPrinter(language.English)

// Renderer draws a Series as text.
type Renderer struct {
	theme  *styles.Theme
	width  int
	height int
}

// NewRenderer creates a chart renderer. Width is the total budget
// including the axis gutter; height is the number of plot rows.
func NewRenderer(theme *styles.Theme, width, height int) *Renderer {
	if width < axisLabelWidth+10 {
		width = axisLabelWidth + 10
	}
	if height < 4 {
		height = 4
	}
	return &Renderer{theme: theme, width: width, height: height}
}

// Render plots the series. Buys render as B, sells as S, splits as a
// vertical column at the split date with a point marker at the split
// price when known. The legend names each split.
func (r *Renderer) Render(s *Series) string {
	plotWidth := r.width - axisLabelWidth
	min, max := priceBounds(s)
	if max == min {
		max = min + 1 // flat series still needs a scale
	}

	// Column mapping: data index -> plot column.
	col := func(i int) int {
		if len(s.Dates) == 1 {
			return 0
		}
		return i * (plotWidth - 1) / (len(s.Dates) - 1)
	}
	// Row mapping: price -> plot row, row 0 at the top.
	row := func(p float64) int {
		frac := (p - min) / (max - min)
		rw := int(float64(r.height-1)*frac + 0.5)
		return r.height - 1 - rw
	}

	type cell struct {
		ch    string
		style int // 0 none, 1 line, 2 buy, 3 sell, 4 split
	}
	grid := make([][]cell, r.height)
	for y := range grid {
		grid[y] = make([]cell, plotWidth)
	}

	// Split columns go in first so the price line draws over them.
	for _, sp := range s.Splits {
		x := col(sp.Index)
		for y := 0; y < r.height; y++ {
			grid[y][x] = cell{ch: styles.StatusIndicators.Split, style: 4}
		}
	}

	// Price line with vertical interpolation between neighbors.
	for i, p := range s.Prices {
		x := col(i)
		y := row(p)
		grid[y][x] = cell{ch: "•", style: 1}
		if i > 0 {
			prev := row(s.Prices[i-1])
			px := col(i - 1)
			if px == x {
				continue
			}
			lo, hi := prev, y
			if lo > hi {
				lo, hi = hi, lo
			}
			for yy := lo + 1; yy < hi; yy++ {
				if grid[yy][x].style == 0 || grid[yy][x].style == 4 {
					grid[yy][x] = cell{ch: "·", style: 1}
				}
			}
		}
	}

	// Split point markers sit above the line.
	for _, sp := range s.Splits {
		if sp.Price == nil {
			continue
		}
		p := clamp(*sp.Price, min, max)
		grid[row(p)][col(sp.Index)] = cell{ch: "◆", style: 4}
	}

	// Transaction markers draw last so they are always visible.
	for _, m := range s.Buys {
		grid[row(clamp(m.Price, min, max))][col(m.Index)] = cell{ch: styles.StatusIndicators.Buy, style: 2}
	}
	for _, m := range s.Sells {
		grid[row(clamp(m.Price, min, max))][col(m.Index)] = cell{ch: styles.StatusIndicators.Sell, style: 3}
	}

	var b strings.Builder
	for y := 0; y < r.height; y++ {
		b.WriteString(r.axisLabel(y, min, max))
		for x := 0; x < plotWidth; x++ {
			c := grid[y][x]
			switch c.style {
			case 1:
				b.WriteString(r.theme.ChartLine.Render(c.ch))
			case 2:
				b.WriteString(r.theme.ChartBuy.Render(c.ch))
			case 3:
				b.WriteString(r.theme.ChartSell.Render(c.ch))
			case 4:
				b.WriteString(r.theme.ChartSplit.Render(c.ch))
			default:
				b.WriteString(" ")
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(r.xAxis(s, plotWidth))
	if legend := r.legend(s); legend != "" {
		b.WriteString("\n")
		b.WriteString(legend)
	}
	return b.String()
}

// RenderError renders a validation failure in place of the chart.
// Nothing of the data appears; only the error text.
func (r *Renderer) RenderError(err error) string {
	switch err {
	case ErrNoData:
		return r.theme.ChartNoData.Render("No chart data available")
	default:
		return r.theme.ChartError.Render("Invalid chart data")
	}
}

// axisLabel renders the price gutter for a row. Only the top, middle
// and bottom rows carry labels.
func (r *Renderer) axisLabel(y int, min, max float64) string {
	var label string
	switch y {
	case 0:
		label = formatPrice(max)
	case r.height - 1:
		label = formatPrice(min)
	case r.height / 2:
		label = formatPrice(min + (max-min)/2)
	}
	return r.theme.ChartAxis.Render(util.PadRight(label, axisLabelWidth-1)) + " "
}

// xAxis renders first and last dates under the plot.
func (r *Renderer) xAxis(s *Series, plotWidth int) string {
	first := s.Dates[0]
	last := s.Dates[len(s.Dates)-1]
	gap := plotWidth - util.StringWidth(first) - util.StringWidth(last)
	if gap < 1 {
		gap = 1
	}
	line := strings.Repeat(" ", axisLabelWidth) + first + strings.Repeat(" ", gap) + last
	return r.theme.ChartAxis.Render(line)
}

// legend lists transaction counts and split annotations.
func (r *Renderer) legend(s *Series) string {
	var parts []string
	if len(s.Buys) > 0 {
		parts = append(parts, r.theme.ChartBuy.Render(
			pricePrinter.Sprintf("%s %d buys", styles.StatusIndicators.Buy, len(s.Buys))))
	}
	if len(s.Sells) > 0 {
		parts = append(parts, r.theme.ChartSell.Render(
			pricePrinter.Sprintf("%s %d sells", styles.StatusIndicators.Sell, len(s.Sells))))
	}
	for _, sp := range s.Splits {
		label := sp.Label
		if sp.Price != nil {
			label += " @ " + formatPrice(*sp.Price)
		}
		parts = append(parts, r.theme.ChartSplit.Render(label))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Repeat(" ", axisLabelWidth) + strings.Join(parts, "  ")
}

func formatPrice(p float64) string {
	return pricePrinter.Sprintf("$%.2f", p)
}

func priceBounds(s *Series) (min, max float64) {
	min, max = s.Prices[0], s.Prices[0]
	consider := func(p float64) {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	for _, p := range s.Prices[1:] {
		consider(p)
	}
	for _, m := range s.Buys {
		consider(m.Price)
	}
	for _, m := range s.Sells {
		consider(m.Price)
	}
	for _, sp := range s.Splits {
		if sp.Price != nil {
			consider(*sp.Price)
		}
	}
	return min, max
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
