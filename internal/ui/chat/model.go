// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the TradeLens chat widget: the transcript,
// the input pipeline with duplicate suppression, the single pending
// request lifecycle, and the availability probe handling.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/tradelens/tradelens-tui/internal/api"
	"github.com/tradelens/tradelens-tui/internal/config"
	"github.com/tradelens/tradelens-tui/internal/model"
	"github.com/tradelens/tradelens-tui/internal/render"
	"github.com/tradelens/tradelens-tui/internal/storage"
	"github.com/tradelens/tradelens-tui/internal/ui/styles"
)

// =============================================================================
// WIDGET STATE
// =============================================================================

// State is the widget's lifecycle state.
type State int

const (
	// StateProbing means the startup availability probe is in flight.
	StateProbing State = iota
	// StateReady accepts input.
	StateReady
	// StatePending has a request outstanding; input is disabled.
	StatePending
	// StateError shows the last failure; typing clears it.
	StateError
	// StateUnavailable means no AI provider is configured. The widget
	// stays visible but hides AI affordances.
	StateUnavailable
)

// String returns a short name for the state.
func (s State) String() string {
	switch s {
	case StateProbing:
		return "probing"
	case StateReady:
		return "ready"
	case StatePending:
		return "pending"
	case StateError:
		return "error"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// PendingRequest tracks the single in-flight chat request. Responses
// carrying any other ID are stale and must be discarded.
type PendingRequest struct {
	ID        string
	Prompt    string
	Stock     string
	StartedAt time.Time
}

// acceptedPrompt records the last prompt that passed the gate, for the
// acceptance cooldown.
type acceptedPrompt struct {
	text string
	at   time.Time
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat widget.
type Model struct {
	state      State
	transcript *model.Transcript

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	client   *api.Client
	cfg      *config.Config
	renderer *render.Renderer
	theme    *styles.Theme
	history  *storage.HistoryStore // optional, nil disables saving

	// Active stock context; empty means a general portfolio chat.
	stock model.Stock

	// Provider settings from the availability probe.
	settings    api.ProviderSettings
	aiAvailable bool

	pending      *PendingRequest
	lastAccepted acceptedPrompt
	lastError    *api.ClientError
	lastPrompt   string // last delivered prompt, for manual retry

	width  int
	height int

	// now is swappable for tests.
	now func() time.Time
}

// New creates the chat widget.
func New(client *api.Client, cfg *config.Config, theme *styles.Theme, history *storage.HistoryStore, stock model.Stock) *Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about your portfolio..."
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Typing

	vp := viewport.New(80, 20)

	return &Model{
		state:      StateProbing,
		transcript: model.NewTranscript(cfg.Chat.WelcomeMessage),
		input:      ti,
		viewport:   vp,
		spinner:    sp,
		client:     client,
		cfg:        cfg,
		renderer:   render.New(78, cfg.UI.Markdown),
		theme:      theme,
		history:    history,
		stock:      stock,
		now:        time.Now,
	}
}

// Init starts the availability probe.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(ProbeCmd(m.client), m.spinner.Tick)
}

// State returns the widget state.
func (m *Model) State() State {
	return m.state
}

// Transcript exposes the message store.
func (m *Model) Transcript() *model.Transcript {
	return m.transcript
}

// Ready reports whether the widget can accept prompts. The probe phase
// counts as ready: prompts queue behind the pending gate, not the probe.
func (m *Model) Ready() bool {
	return m.state != StateUnavailable
}

// Pending reports whether a request is outstanding.
func (m *Model) Pending() bool {
	return m.pending != nil
}

// InputEnabled reports whether the input accepts typing. It is false
// exactly while a request is outstanding.
func (m *Model) InputEnabled() bool {
	return m.pending == nil
}

// Stock returns the active stock context.
func (m *Model) Stock() model.Stock {
	return m.stock
}

// SetStock switches the stock context for subsequent prompts. Messages
// already in the transcript keep the context they were sent under.
func (m *Model) SetStock(stock model.Stock) {
	m.stock = stock
}

// newRequestID returns a unique ID for matching responses to the
// request they answer.
func newRequestID() string {
	return uuid.NewString()
}
