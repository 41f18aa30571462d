// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chartview is the price chart pane: it fetches chart data for
// the active symbol, applies the range selection, and renders the chart
// with a transactions table underneath.
package chartview

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tradelens/tradelens-tui/internal/api"
	"github.com/tradelens/tradelens-tui/internal/chart"
	"github.com/tradelens/tradelens-tui/internal/config"
	"github.com/tradelens/tradelens-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// DataMsg carries fetched chart data for a symbol.
type DataMsg struct {
	Symbol string
	Data   *api.ChartData
	Err    error
}

// FetchCmd loads chart data for a symbol and range.
func FetchCmd(client *api.Client, symbol, rng string) tea.Cmd {
	return func() tea.Msg {
		data, err := client.StockChart(context.Background(), symbol, rng)
		return DataMsg{Symbol: symbol, Data: data, Err: err}
	}
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the chart pane.
type Model struct {
	client *api.Client
	cfg    *config.Config
	theme  *styles.Theme

	symbol   string
	rng      string
	series   *chart.Series
	loadErr  error
	viewport viewport.Model

	// transactionsLine is the content offset of the transactions table,
	// the target of the jump shortcut.
	transactionsLine int

	width  int
	height int
}

// New creates the chart pane for an initial symbol and range.
func New(client *api.Client, cfg *config.Config, theme *styles.Theme, symbol, rng string) *Model {
	if rng == "" {
		rng = cfg.Chart.DefaultRange
	}
	return &Model{
		client:   client,
		cfg:      cfg,
		theme:    theme,
		symbol:   symbol,
		rng:      rng,
		viewport: viewport.New(60, 20),
	}
}

// Init fetches the initial chart.
func (m *Model) Init() tea.Cmd {
	if m.symbol == "" {
		return nil
	}
	return FetchCmd(m.client, m.symbol, m.rng)
}

// Symbol returns the active symbol.
func (m *Model) Symbol() string { return m.symbol }

// Range returns the active range selector.
func (m *Model) Range() string { return m.rng }

// SetSymbol switches the pane to another symbol and refetches.
func (m *Model) SetSymbol(symbol string) tea.Cmd {
	if symbol == "" || symbol == m.symbol {
		return nil
	}
	m.symbol = symbol
	m.series = nil
	m.loadErr = nil
	return FetchCmd(m.client, m.symbol, m.rng)
}

// CycleRange advances to the next range selector and refetches.
func (m *Model) CycleRange() tea.Cmd {
	for i, r := range config.ValidRanges {
		if r == m.rng {
			m.rng = config.ValidRanges[(i+1)%len(config.ValidRanges)]
			break
		}
	}
	if m.symbol == "" {
		return nil
	}
	return FetchCmd(m.client, m.symbol, m.rng)
}

// SetSize adjusts the pane dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.refresh()
}

// Update handles chart messages and viewport scrolling.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DataMsg:
		if msg.Symbol != m.symbol {
			return m, nil // switched away while loading
		}
		if msg.Err != nil {
			m.series = nil
			m.loadErr = msg.Err
			m.refresh()
			return m, nil
		}
		series, err := chart.BuildSeries(msg.Data, msg.Symbol)
		if err != nil {
			m.series = nil
			m.loadErr = err
		} else {
			m.series = chart.FilterRange(series, m.rng)
			m.loadErr = nil
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// JumpToTransactions scrolls the pane to the transactions table, the
// terminal analog of following a #transactions anchor.
func (m *Model) JumpToTransactions() {
	m.viewport.SetYOffset(m.transactionsLine)
}

// View renders the pane.
func (m *Model) View() string {
	return m.viewport.View()
}

// refresh rebuilds the viewport content.
func (m *Model) refresh() {
	var b strings.Builder

	title := m.symbol
	if title == "" {
		title = "No symbol selected"
	}
	b.WriteString(m.theme.HeaderTitle.Render(title + "  [" + m.rng + "]"))
	b.WriteString("\n\n")

	switch {
	case m.loadErr != nil:
		b.WriteString(m.chartError())
	case m.series != nil:
		renderer := chart.NewRenderer(m.theme, m.chartWidth(), m.cfg.Chart.Height)
		b.WriteString(renderer.Render(m.series))
		b.WriteString("\n\n")
		m.transactionsLine = strings.Count(b.String(), "\n")
		b.WriteString(m.transactionsTable())
	default:
		b.WriteString(m.theme.ChartNoData.Render("Loading chart..."))
	}

	m.viewport.SetContent(b.String())
}

// chartError renders fetch and validation failures. Chart data errors
// render only the error text, never partial data.
func (m *Model) chartError() string {
	if m.loadErr == chart.ErrNoData || m.loadErr == chart.ErrDataMismatch {
		return chart.NewRenderer(m.theme, m.chartWidth(), m.cfg.Chart.Height).RenderError(m.loadErr)
	}
	return m.theme.ChartError.Render("Could not load chart data")
}

func (m *Model) chartWidth() int {
	if m.cfg.Chart.Width > 0 {
		return m.cfg.Chart.Width
	}
	if m.width > 0 {
		return m.width
	}
	return 60
}

// transactionsTable lists buys and sells under the chart.
func (m *Model) transactionsTable() string {
	var b strings.Builder
	b.WriteString(m.theme.HeaderTitle.Render("Transactions"))
	b.WriteString("\n")

	if len(m.series.Buys) == 0 && len(m.series.Sells) == 0 {
		b.WriteString(m.theme.ChartNoData.Render("No transactions in range"))
		return b.String()
	}

	for _, tx := range m.series.Buys {
		b.WriteString(m.theme.ChartBuy.Render(transactionRow("BUY", tx)))
		b.WriteString("\n")
	}
	for _, tx := range m.series.Sells {
		b.WriteString(m.theme.ChartSell.Render(transactionRow("SELL", tx)))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func transactionRow(kind string, tx chart.Marker) string {
	row := fmt.Sprintf("%-4s %s", kind, tx.Date)
	if tx.Time != "" {
		row += " " + tx.Time
	}
	row += fmt.Sprintf("  %g @ $%.2f", tx.Qty, tx.Price)
	return row
}
