// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the application. It detects the
// terminal's color capability once at startup and adjusts accordingly.
type Theme struct {
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// HEADER AND BANNER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	AIBanner    lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLE STYLES
	// ==========================================================================

	UserBubble  lipgloss.Style
	BotBubble   lipgloss.Style
	ErrorBubble lipgloss.Style
	Typing      lipgloss.Style
	Attribution lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	InputDisabled  lipgloss.Style

	// ==========================================================================
	// SIDEBAR STYLES
	// ==========================================================================

	Sidebar         lipgloss.Style
	SidebarItem     lipgloss.Style
	SidebarSelected lipgloss.Style

	// ==========================================================================
	// CHART STYLES
	// ==========================================================================

	ChartAxis   lipgloss.Style
	ChartLine   lipgloss.Style
	ChartBuy    lipgloss.Style
	ChartSell   lipgloss.Style
	ChartSplit  lipgloss.Style
	ChartError  lipgloss.Style
	ChartNoData lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
}

// NewTheme builds a Theme for the current terminal.
func NewTheme() *Theme {
	profile := termenv.ColorProfile()
	t := &Theme{
		IsDark:       lipgloss.HasDarkBackground(),
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}

	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Foreground(Blue).
		Bold(true)
	t.AIBanner = lipgloss.NewStyle().
		Foreground(Cyan).
		Italic(true)

	t.UserBubble = lipgloss.NewStyle().
		Background(UserBubbleBg).
		Foreground(UserBubbleFg).
		Padding(0, 1)
	t.BotBubble = lipgloss.NewStyle().
		Background(BotBubbleBg).
		Foreground(BotBubbleFg).
		Padding(0, 1)
	t.ErrorBubble = lipgloss.NewStyle().
		Background(ErrorBubbleBg).
		Foreground(ErrorBubbleFg).
		Padding(0, 1)
	t.Typing = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)
	t.Attribution = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.InputContainer = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Blue).
		Bold(true)
	t.InputDisabled = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Sidebar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.SidebarItem = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.SidebarSelected = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Blue).
		Bold(true)

	t.ChartAxis = lipgloss.NewStyle().Foreground(TextMuted)
	t.ChartLine = lipgloss.NewStyle().Foreground(Blue)
	t.ChartBuy = lipgloss.NewStyle().Foreground(Gain).Bold(true)
	t.ChartSell = lipgloss.NewStyle().Foreground(Loss).Bold(true)
	t.ChartSplit = lipgloss.NewStyle().Foreground(Amber)
	t.ChartError = lipgloss.NewStyle().Foreground(Loss)
	t.ChartNoData = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	return t
}
