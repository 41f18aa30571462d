// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sidebar renders the collapsible portfolio sidebar. The
// collapsed flag is the only chrome state persisted across sessions.
package sidebar

import (
	"strings"

	"github.com/tradelens/tradelens-tui/internal/model"
	"github.com/tradelens/tradelens-tui/internal/storage"
	"github.com/tradelens/tradelens-tui/internal/ui/styles"
	"github.com/tradelens/tradelens-tui/internal/util"
)

// Width of the expanded sidebar in columns.
const Width = 22

// Model is the sidebar component.
type Model struct {
	stocks    []model.Stock
	selected  int
	collapsed bool
	height    int

	theme *styles.Theme
	state *storage.StateStore
}

// New creates the sidebar, restoring the persisted collapsed flag.
func New(stocks []model.Stock, theme *styles.Theme, state *storage.StateStore) *Model {
	m := &Model{
		stocks: stocks,
		theme:  theme,
		state:  state,
	}
	if state != nil {
		m.collapsed = state.Load().SidebarCollapsed
	}
	return m
}

// Toggle flips the collapsed state and persists it immediately, so a
// crash after toggling still remembers the choice.
func (m *Model) Toggle() {
	m.collapsed = !m.collapsed
	if m.state != nil {
		st := m.state.Load()
		st.SidebarCollapsed = m.collapsed
		m.state.Save(st)
	}
}

// Collapsed reports the current state.
func (m *Model) Collapsed() bool {
	return m.collapsed
}

// Store exposes the UI state store so other panes can persist their
// own settings into the same file. May be nil.
func (m *Model) Store() *storage.StateStore {
	return m.state
}

// SetHeight sets the rendered height.
func (m *Model) SetHeight(h int) {
	m.height = h
}

// Select moves the selection by delta, clamped to the list.
func (m *Model) Select(delta int) {
	m.selected += delta
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected >= len(m.stocks) {
		m.selected = len(m.stocks) - 1
	}
}

// Selected returns the currently selected stock, or a zero Stock when
// the portfolio is empty.
func (m *Model) Selected() model.Stock {
	if m.selected < 0 || m.selected >= len(m.stocks) {
		return model.Stock{}
	}
	return m.stocks[m.selected]
}

// View renders the sidebar. Collapsed renders nothing at all, giving
// the full width back to the main pane.
func (m *Model) View() string {
	if m.collapsed {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.theme.HeaderTitle.Render("Portfolio"))
	b.WriteString("\n\n")

	for i, s := range m.stocks {
		label := util.TruncateWidth(s.Symbol+" "+s.Name, Width-2)
		if i == m.selected {
			b.WriteString(m.theme.SidebarSelected.Render(label))
		} else {
			b.WriteString(m.theme.SidebarItem.Render(label))
		}
		b.WriteString("\n")
	}
	if len(m.stocks) == 0 {
		b.WriteString(m.theme.SidebarItem.Render("(no positions)"))
	}

	return m.theme.Sidebar.Width(Width).Height(m.height).Render(b.String())
}
