// TradeLens TUI - a terminal interface for portfolio chat and charts.
//
// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/tradelens/tradelens-tui/internal/api"
	"github.com/tradelens/tradelens-tui/internal/config"
	"github.com/tradelens/tradelens-tui/internal/model"
	"github.com/tradelens/tradelens-tui/internal/router"
	"github.com/tradelens/tradelens-tui/internal/storage"
	"github.com/tradelens/tradelens-tui/internal/ui/chartview"
	"github.com/tradelens/tradelens-tui/internal/ui/chat"
	"github.com/tradelens/tradelens-tui/internal/ui/sidebar"
	"github.com/tradelens/tradelens-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for deliveries arriving from outside the
// Bubble Tea loop (the router's strategies run on caller goroutines).
var (
	programRef *tea.Program
	programMu  sync.Mutex

	// widgetMounted flips once the first frame has been laid out. The
	// router's polling resolver probes it.
	widgetMounted atomic.Bool
)

func program() *tea.Program {
	programMu.Lock()
	defer programMu.Unlock()
	return programRef
}

// defaultPortfolio seeds the sidebar when no holdings file exists yet.
var defaultPortfolio = []model.Stock{
	{Symbol: "AAPL", Name: "Apple Inc.", Shares: 25},
	{Symbol: "MSFT", Name: "Microsoft Corp.", Shares: 12},
	{Symbol: "NVDA", Name: "NVIDIA Corp.", Shares: 8},
	{Symbol: "VTI", Name: "Vanguard Total Market", Shares: 40},
}

func main() {
	var (
		flagSymbol       = flag.String("symbol", "", "stock symbol to open with")
		flagRange        = flag.String("range", "", "initial chart range (all, 1y, 6m, 3m, 1m)")
		flagTransactions = flag.Bool("transactions", false, "jump to the transactions table once the chart loads")
		flagConfig       = flag.String("config", "", "path to config file (default ~/.tradelens/config.toml)")
		flagVersion      = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *flagVersion {
		fmt.Printf("tradelens %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: tradelens needs an interactive terminal")
		os.Exit(1)
	}

	if os.Getenv("TRADELENS_DEBUG") != "" {
		f, err := tea.LogToFile("tradelens-debug.log", "debug")
		if err == nil {
			defer f.Close()
		}
	}

	cfg, err := loadConfig(*flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *flagRange != "" {
		cfg.Chart.DefaultRange = *flagRange
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	theme := styles.NewTheme()

	client := api.NewClientWithConfig(api.ClientConfig{
		BaseURL:      cfg.Server.BaseURL,
		Timeout:      cfg.ChatTimeout(),
		ProbeTimeout: cfg.ProbeTimeout(),
		MaxRetries:   cfg.Chat.MaxRetries,
		RetryDelay:   cfg.RetryDelay(),
	})

	stateStore, err := storage.NewStateStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: UI state will not persist: %v\n", err)
	}

	// History is best effort. A broken database disables saving but
	// never blocks the session.
	history, err := storage.NewHistoryStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: chat history disabled: %v\n", err)
		history = nil
	} else {
		defer history.Close()
	}

	watcher := startWatcher(*flagConfig)
	if watcher != nil {
		defer watcher.Close()
	}

	app := newApp(cfg, theme, client, stateStore, history, watcher)
	app.jumpOnLoad = *flagTransactions
	if *flagSymbol != "" {
		app.selectSymbol(*flagSymbol)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app.router.StartPolling(ctx, widgetMounted.Load)

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	programMu.Lock()
	programRef = p
	programMu.Unlock()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running tradelens: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// startWatcher begins hot reload of the config file. Failure to watch
// is not fatal; edits then require a restart.
func startWatcher(path string) *config.Watcher {
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return nil
		}
		path = p
	}
	w, err := config.NewWatcher(path)
	if err != nil {
		return nil
	}
	if err := w.Watch(); err != nil {
		w.Close()
		return nil
	}
	return w
}

// =============================================================================
// ROUTER ADAPTER
// =============================================================================

// widgetAdapter bridges the router's delivery strategies onto the
// running Bubble Tea program. Every path funnels into a program.Send,
// so deliveries serialize with keyboard input in the update loop.
type widgetAdapter struct {
	mu      sync.Mutex
	pending string
}

func (a *widgetAdapter) SendMessage(prompt string) bool {
	p := program()
	if p == nil {
		return false
	}
	p.Send(chat.NewDeliverPromptMsg(prompt))
	return true
}

func (a *widgetAdapter) SetInputValue(text string) {
	a.mu.Lock()
	a.pending = text
	a.mu.Unlock()
}

func (a *widgetAdapter) TriggerSend() bool {
	a.mu.Lock()
	prompt := a.pending
	a.pending = ""
	a.mu.Unlock()
	return a.SendMessage(prompt)
}

func (a *widgetAdapter) InjectSubmitKey() bool {
	a.mu.Lock()
	prompt := a.pending
	a.pending = ""
	a.mu.Unlock()

	p := program()
	if p == nil || prompt == "" {
		return false
	}
	p.Send(chat.NewDeliverPromptMsg(prompt))
	p.Send(tea.KeyMsg{Type: tea.KeyEnter})
	return true
}

func (a *widgetAdapter) deliverDirect(prompt string) bool {
	p := program()
	if p == nil {
		return false
	}
	p.Send(chat.NewDirectPromptMsg(prompt))
	return true
}

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// routeResultMsg reports the outcome of a routed suggestion prompt.
type routeResultMsg struct {
	err error
}

// configReloadedMsg carries a freshly validated config from the watcher.
type configReloadedMsg struct {
	cfg *config.Config
}

// App is the root Bubble Tea model composing the sidebar, the chart
// pane and the chat widget.
type App struct {
	theme *styles.Theme
	cfg   *config.Config

	sidebar *sidebar.Model
	chart   *chartview.Model
	chat    *chat.Model
	router  *router.Router
	watcher *config.Watcher

	client *api.Client

	width  int
	height int

	// jumpOnLoad scrolls to the transactions table after the first
	// chart payload arrives.
	jumpOnLoad bool

	// status is a transient notice shown in the status bar until the
	// next keypress.
	status string
}

func newApp(cfg *config.Config, theme *styles.Theme, client *api.Client, stateStore *storage.StateStore, history *storage.HistoryStore, watcher *config.Watcher) *App {
	side := sidebar.New(defaultPortfolio, theme, stateStore)
	stock := side.Selected()

	rng := cfg.Chart.DefaultRange
	if stateStore != nil {
		if saved := stateStore.Load().LastRange; saved != "" {
			rng = saved
		}
	}

	adapter := &widgetAdapter{}
	r := router.New(router.Config{
		DirectCall:   adapter.deliverDirect,
		Programmatic: adapter,
		Input:        adapter,
		KeyEvents:    adapter,
	})

	return &App{
		theme:   theme,
		cfg:     cfg,
		sidebar: side,
		chart:   chartview.New(client, cfg, theme, stock.Symbol, rng),
		chat:    chat.New(client, cfg, theme, history, stock),
		router:  r,
		watcher: watcher,
		client:  client,
	}
}

// selectSymbol switches the active stock to the given symbol if the
// portfolio holds it, falling back to an off-portfolio context so a
// -symbol flag for an unlisted ticker still works.
func (a *App) selectSymbol(symbol string) {
	for i, s := range defaultPortfolio {
		if s.Symbol == symbol {
			a.sidebar.Select(i - indexOf(a.sidebar.Selected()))
			a.chart.SetSymbol(s.Symbol)
			a.chat.SetStock(s)
			return
		}
	}
	stock := model.Stock{Symbol: symbol, Name: symbol}
	a.chart.SetSymbol(symbol)
	a.chat.SetStock(stock)
}

func indexOf(stock model.Stock) int {
	for i, s := range defaultPortfolio {
		if s.Symbol == stock.Symbol {
			return i
		}
	}
	return 0
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.chat.Init(), a.chart.Init()}
	if a.watcher != nil {
		cmds = append(cmds, waitForConfig(a.watcher))
	}
	return tea.Batch(cmds...)
}

// waitForConfig blocks on the watcher's update channel and surfaces the
// next validated config as a message.
func waitForConfig(w *config.Watcher) tea.Cmd {
	return func() tea.Msg {
		cfg, ok := <-w.Updates()
		if !ok {
			return nil
		}
		return configReloadedMsg{cfg: cfg}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		if !widgetMounted.Load() {
			widgetMounted.Store(true)
			a.router.NotifyMounted()
		}
		return a, nil

	case tea.KeyMsg:
		a.status = ""
		if cmd, handled := a.handleKey(msg); handled {
			return a, cmd
		}
		chatModel, cmd := a.chat.Update(msg)
		a.chat = chatModel
		return a, cmd

	case chartview.DataMsg:
		chartModel, cmd := a.chart.Update(msg)
		a.chart = chartModel
		if a.jumpOnLoad && msg.Err == nil {
			a.jumpOnLoad = false
			a.chart.JumpToTransactions()
		}
		return a, cmd

	case routeResultMsg:
		if msg.err != nil {
			if api.KindOf(msg.err) == api.KindUnavailable {
				a.status = "Chat assistant is not available"
			} else {
				a.status = msg.err.Error()
			}
		}
		return a, nil

	case configReloadedMsg:
		// Components share the config pointer, so copying in place
		// propagates the new values everywhere at once.
		*a.cfg = *msg.cfg
		a.status = "Configuration reloaded"
		return a, waitForConfig(a.watcher)
	}

	chatModel, cmd := a.chat.Update(msg)
	a.chat = chatModel
	return a, cmd
}

// handleKey consumes application-level shortcuts. Unhandled keys fall
// through to the chat widget.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit, true

	case "tab":
		a.sidebar.Toggle()
		a.layout()
		return nil, true

	case "shift+up":
		a.sidebar.Select(-1)
		return a.applySelection(), true

	case "shift+down":
		a.sidebar.Select(1)
		return a.applySelection(), true

	case "ctrl+o":
		cmd := a.chart.CycleRange()
		a.persistRange()
		return cmd, true

	case "ctrl+t":
		a.chart.JumpToTransactions()
		return nil, true

	case "alt+1", "alt+2", "alt+3":
		idx := int(msg.String()[4] - '1')
		return a.routeSuggestion(idx), true
	}
	return nil, false
}

// applySelection propagates a sidebar selection into the chart and the
// chat context.
func (a *App) applySelection() tea.Cmd {
	stock := a.sidebar.Selected()
	a.chat.SetStock(stock)
	return a.chart.SetSymbol(stock.Symbol)
}

// routeSuggestion pushes a canned prompt for the selected stock through
// the delivery router rather than straight into the widget, so the
// readiness wait, the duplicate cooldown and the strategy chain all
// apply to it.
func (a *App) routeSuggestion(idx int) tea.Cmd {
	if !a.chat.Ready() {
		a.status = "Chat assistant is not available"
		return nil
	}
	suggestions := a.sidebar.Selected().Suggestions()
	if idx < 0 || idx >= len(suggestions) {
		return nil
	}
	prompt := suggestions[idx]
	r := a.router
	return func() tea.Msg {
		return routeResultMsg{err: r.Route(context.Background(), prompt)}
	}
}

func (a *App) persistRange() {
	// The sidebar owns the state store; range persistence rides on the
	// same file through a dedicated save here.
	if store := a.sidebar.Store(); store != nil {
		state := store.Load()
		state.LastRange = a.chart.Range()
		if err := store.Save(state); err != nil {
			a.status = "Could not save UI state"
		}
	}
}

// layout distributes the terminal between the panes.
func (a *App) layout() {
	if a.width == 0 || a.height == 0 {
		return
	}
	sideW := 0
	if !a.sidebar.Collapsed() {
		sideW = sidebar.Width
	}
	rightW := a.width - sideW

	const headerH, statusH = 1, 1
	contentH := a.height - headerH - statusH

	chartH := a.cfg.Chart.Height + 10
	if chartH > contentH/2 {
		chartH = contentH / 2
	}
	chatH := contentH - chartH

	a.sidebar.SetHeight(contentH)
	a.chart.SetSize(rightW, chartH)

	chatModel, _ := a.chat.Update(tea.WindowSizeMsg{Width: rightW, Height: chatH})
	a.chat = chatModel
}

func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	stock := a.chat.Stock()
	title := a.theme.HeaderTitle.Render("TradeLens") + "  " + a.chart.Symbol()
	if stock.Name != "" {
		title += fmt.Sprintf("  %s (%g sh)", stock.Name, stock.Shares)
	}
	header := a.theme.Header.Width(a.width).Render(title)

	right := lipgloss.JoinVertical(lipgloss.Left,
		a.chart.View(),
		a.chat.View(),
	)

	var body string
	if a.sidebar.Collapsed() {
		body = right
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, a.sidebar.View(), right)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, a.statusBar())
}

func (a *App) statusBar() string {
	if a.status != "" {
		return a.theme.StatusBar.Width(a.width).Render(a.status)
	}
	switch {
	case a.chat.Pending():
		return a.theme.StatusBar.Width(a.width).Render(
			fmt.Sprintf("Thinking...  (%d messages)", a.chat.Transcript().Len()))
	case a.chat.State() == chat.StateUnavailable:
		return a.theme.StatusBar.Width(a.width).Render("AI assistant offline")
	}
	hints := []struct{ key, desc string }{
		{"tab", "sidebar"},
		{"shift+↑/↓", "stock"},
		{"ctrl+o", "range"},
		{"ctrl+t", "trades"},
		{"alt+1..3", "ask"},
		{"ctrl+r", "retry"},
		{"ctrl+s", "save"},
		{"ctrl+c", "quit"},
	}
	var b []byte
	for i, h := range hints {
		if i > 0 {
			b = append(b, "  "...)
		}
		b = append(b, a.theme.ShortcutKey.Render(h.key)...)
		b = append(b, ' ')
		b = append(b, a.theme.ShortcutDesc.Render(h.desc)...)
	}
	return a.theme.StatusBar.Width(a.width).Render(string(b))
}
