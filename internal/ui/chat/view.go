// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/tradelens/tradelens-tui/internal/model"
)

// View renders the widget: provider banner, transcript, input area.
func (m *Model) View() string {
	var b strings.Builder

	if m.aiAvailable {
		b.WriteString(m.theme.AIBanner.Render(m.settings.Banner()))
		b.WriteString("\n")
	}

	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.inputView())

	return b.String()
}

// refreshViewport re-renders the transcript into the viewport and
// scrolls to the latest message.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.transcriptView())
	m.viewport.GotoBottom()
}

// transcriptView renders every message in order.
func (m *Model) transcriptView() string {
	var b strings.Builder
	for _, msg := range m.transcript.Messages() {
		b.WriteString(m.messageView(msg))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// messageView renders one message with its sender's style. Bot content
// goes through the markdown renderer; user content never does.
func (m *Model) messageView(msg model.Message) string {
	switch msg.Sender {
	case model.SenderUser:
		return m.theme.UserBubble.Render("You: " + m.renderer.User(msg.Content))

	case model.SenderBot:
		out := m.theme.BotBubble.Render(m.renderer.Bot(msg.Content))
		if !msg.Attribution.IsZero() {
			out += "\n" + m.theme.Attribution.Render(
				"Model: "+msg.Attribution.Provider+" - "+msg.Attribution.Model)
		}
		return out

	case model.SenderError:
		return m.theme.ErrorBubble.Render(msg.Content)

	case model.SenderTyping:
		return m.theme.Typing.Render(m.spinner.View() + " " + msg.Content)

	default:
		return msg.Content
	}
}

// inputView renders the input line, or the disabled placeholder while
// a request is outstanding.
func (m *Model) inputView() string {
	if !m.InputEnabled() {
		return m.theme.InputContainer.Render(
			m.theme.InputDisabled.Render("Waiting for response..."))
	}
	if m.state == StateUnavailable {
		return m.theme.InputContainer.Render(
			m.theme.InputDisabled.Render("AI assistant is not available"))
	}
	return m.theme.InputContainer.Render(
		m.theme.InputPrompt.Render("> ") + m.input.View())
}
