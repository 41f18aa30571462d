// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tradelens/tradelens-tui/internal/api"
	"github.com/tradelens/tradelens-tui/internal/model"
)

// Update is the widget's message loop.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(4, msg.Height-5)
		m.input.Width = max(20, msg.Width-6)
		m.renderer.SetWidth(max(20, msg.Width-4))
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		if m.pending == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ProbeResultMsg:
		return m.handleProbeResult(msg)

	case ChatResponseMsg:
		return m.handleChatResponse(msg)

	case ChatErrorMsg:
		return m.handleChatError(msg)

	case DeliverPromptMsg:
		// Simulated input: fill the control, then run the normal
		// submit pipeline with all gates in place.
		m.input.SetValue(msg.Prompt)
		return m, m.submit()

	case DirectPromptMsg:
		return m, m.deliverDirect(msg.Prompt)

	case HistorySavedMsg:
		if msg.Err == nil {
			m.transcript.Append(model.NewBotMessage("Conversation saved.", model.Attribution{}))
			m.refreshViewport()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m, m.submit()

	case "ctrl+r":
		return m, m.retry()

	case "ctrl+l":
		m.transcript.Clear()
		m.lastError = nil
		if m.state == StateError {
			m.state = StateReady
		}
		m.refreshViewport()
		return m, nil

	case "ctrl+s":
		if m.history == nil || m.transcript.Len() == 0 {
			return m, nil
		}
		return m, SaveHistoryCmd(m.history, m.transcript, m.stock.Symbol)
	}

	// Typing again dismisses a shown error.
	if m.state == StateError {
		m.transcript.RemoveLastError()
		m.lastError = nil
		m.state = StateReady
		m.refreshViewport()
	}

	// The input is disabled while a request is outstanding.
	if !m.InputEnabled() {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// SUBMIT PIPELINE
// =============================================================================

// submit runs the full acceptance pipeline on the input's current
// value. Suppression clears the input and changes nothing else.
func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}
	if m.state == StateUnavailable {
		m.input.SetValue("")
		return nil
	}

	if m.shouldSuppress(text) {
		m.input.SetValue("")
		return nil
	}

	return m.accept(text)
}

// deliverDirect is the router's privileged path: no input simulation,
// but the pending gate and duplicate windows still apply.
func (m *Model) deliverDirect(prompt string) tea.Cmd {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" || m.state == StateUnavailable {
		return nil
	}
	if m.shouldSuppress(prompt) {
		return nil
	}
	return m.accept(prompt)
}

// accept commits a prompt: transcript append, typing placeholder,
// pending request, disabled input, dispatch.
func (m *Model) accept(text string) tea.Cmd {
	m.recordAccepted(text)

	if m.state == StateError {
		m.transcript.RemoveLastError()
		m.lastError = nil
	}

	m.transcript.Append(model.NewUserMessage(text))
	m.transcript.Append(model.NewTypingMessage())

	m.pending = &PendingRequest{
		ID:        newRequestID(),
		Prompt:    text,
		Stock:     m.stock.Symbol,
		StartedAt: m.now(),
	}
	m.lastPrompt = text
	m.state = StatePending
	m.input.SetValue("")
	m.input.Blur()
	m.refreshViewport()

	return tea.Batch(
		SendChatCmd(m.client, m.pending.ID, text, m.stock.Symbol),
		m.spinner.Tick,
	)
}

// retry re-dispatches the last prompt after a timeout or server error.
// It is the manual affordance: no automatic resend ever happens for
// those failure kinds.
func (m *Model) retry() tea.Cmd {
	if m.pending != nil || m.lastError == nil || !m.lastError.ManualRetry() || m.lastPrompt == "" {
		return nil
	}

	m.transcript.RemoveLastError()
	m.lastError = nil

	// Deliberate retry: the duplicate windows do not apply.
	return m.accept(m.lastPrompt)
}

// =============================================================================
// RESULT HANDLING
// =============================================================================

// stale reports whether a result belongs to anything but the current
// pending request. Stale results are discarded wholesale: no transcript
// change, no state change.
func (m *Model) stale(requestID string) bool {
	return m.pending == nil || m.pending.ID != requestID
}

func (m *Model) handleChatResponse(msg ChatResponseMsg) (*Model, tea.Cmd) {
	if m.stale(msg.RequestID) {
		return m, nil
	}

	m.transcript.RemoveTyping()

	attr := model.Attribution{Provider: msg.Response.Provider, Model: msg.Response.Model}
	m.transcript.Append(model.NewBotMessage(msg.Response.Response, attr))

	// A reply naming its provider refreshes the banner.
	if msg.Response.Provider != "" && msg.Response.Model != "" {
		m.settings = api.ProviderSettings{
			Provider: titleCase(msg.Response.Provider),
			Model:    msg.Response.Model,
		}
		m.aiAvailable = true
	}

	m.settle(StateReady)
	return m, nil
}

func (m *Model) handleChatError(msg ChatErrorMsg) (*Model, tea.Cmd) {
	if m.stale(msg.RequestID) {
		return m, nil
	}

	m.transcript.RemoveTyping()

	var ce *api.ClientError
	if !errors.As(msg.Err, &ce) {
		ce = &api.ClientError{Kind: api.KindMalformed, Message: msg.Err.Error(), Cause: msg.Err}
	}
	m.lastError = ce

	text := ce.UserMessage()
	if ce.ManualRetry() {
		text += " Press ctrl+r to retry."
	}
	m.transcript.Append(model.NewErrorMessage(text))

	m.settle(StateError)
	return m, nil
}

// settle ends the pending request. Every terminal outcome funnels
// through here so the input is re-enabled on every exit path.
func (m *Model) settle(next State) {
	m.pending = nil
	m.state = next
	m.input.Focus()
	m.refreshViewport()
}

// =============================================================================
// PROBE HANDLING
// =============================================================================

func (m *Model) handleProbeResult(msg ProbeResultMsg) (*Model, tea.Cmd) {
	if msg.Err != nil {
		// Degrade gracefully: no banner, no suggestions, no error shown.
		m.aiAvailable = false
		m.state = StateUnavailable
		m.refreshViewport()
		return m, nil
	}

	m.aiAvailable = true
	m.settings = msg.Settings
	if m.state == StateProbing {
		m.state = StateReady
	}

	if m.cfg.Chat.Suggestions && m.stock.Symbol != "" {
		var b strings.Builder
		b.WriteString("Try asking:\n")
		for _, s := range m.stock.Suggestions() {
			b.WriteString("- " + s + "\n")
		}
		m.transcript.Append(model.NewBotMessage(strings.TrimRight(b.String(), "\n"), model.Attribution{}))
	}
	m.refreshViewport()
	return m, nil
}

// titleCase uppercases the first letter of a provider identifier.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	if s == "openai" {
		return "OpenAI"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
