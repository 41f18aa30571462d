// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tradelens/tradelens-tui/internal/api"
	"github.com/tradelens/tradelens-tui/internal/config"
	"github.com/tradelens/tradelens-tui/internal/model"
	"github.com/tradelens/tradelens-tui/internal/ui/styles"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	cfg := config.Default()
	cfg.Chat.WelcomeMessage = ""
	cfg.Chat.Suggestions = false
	client := api.NewClientWithConfig(api.ClientConfig{BaseURL: "http://127.0.0.1:1"})
	m := New(client, cfg, styles.NewTheme(), nil, model.Stock{Symbol: "AAPL"})
	m.state = StateReady
	m.aiAvailable = true
	return m
}

// keyMsg builds a key press for Update.
func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+l":
		return tea.KeyMsg{Type: tea.KeyCtrlL}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// sendText runs the submit pipeline as if the user typed and hit enter.
func sendText(m *Model, text string) {
	m.input.SetValue(text)
	m.submit()
}

func countSender(m *Model, s model.Sender) int {
	n := 0
	for _, msg := range m.transcript.Messages() {
		if msg.Sender == s {
			n++
		}
	}
	return n
}

func TestDoubleSendWithinCooldownAcceptsOne(t *testing.T) {
	m := newTestModel(t)
	base := time.Now()
	m.now = func() time.Time { return base }

	sendText(m, "How is AAPL doing?")
	first := m.pending
	if first == nil {
		t.Fatal("first send not accepted")
	}

	// Resolve the request so only the cooldown gate is in play.
	m.handleChatResponse(NewChatResponseMsg(first.ID, &api.ChatResponse{Response: "fine"}))

	// Identical prompt 500ms later: suppressed, nothing dispatched.
	m.now = func() time.Time { return base.Add(500 * time.Millisecond) }
	sendText(m, "How is AAPL doing?")

	if m.pending != nil {
		t.Error("duplicate within cooldown was accepted")
	}
	if got := countSender(m, model.SenderUser); got != 1 {
		t.Errorf("user messages = %d, want 1", got)
	}
	if m.input.Value() != "" {
		t.Error("suppression must still clear the input")
	}
}

func TestRenderedDuplicateSuppressed(t *testing.T) {
	m := newTestModel(t)
	base := time.Now()
	m.now = func() time.Time { return base }

	sendText(m, "resend me")
	id := m.pending.ID
	m.handleChatResponse(NewChatResponseMsg(id, &api.ChatResponse{Response: "ok"}))

	// Past the 1s acceptance cooldown but the rendered user message is
	// still younger than 2s on the widget clock.
	m.now = func() time.Time { return base.Add(1500 * time.Millisecond) }
	sendText(m, "resend me")

	if m.pending != nil {
		t.Error("rendered duplicate was accepted")
	}
	if got := countSender(m, model.SenderUser); got != 1 {
		t.Errorf("user messages = %d, want 1", got)
	}

	// Once the window expires the same text goes through again.
	m.now = func() time.Time { return base.Add(2500 * time.Millisecond) }
	sendText(m, "resend me")

	if m.pending == nil {
		t.Error("prompt outside the duplicate window was suppressed")
	}
	if got := countSender(m, model.SenderUser); got != 2 {
		t.Errorf("user messages = %d, want 2", got)
	}
}

func TestSecondSendDuringPendingIsNoOp(t *testing.T) {
	m := newTestModel(t)

	sendText(m, "first question")
	id := m.pending.ID
	before := m.transcript.Len()

	sendText(m, "second question while pending")

	if m.pending == nil || m.pending.ID != id {
		t.Error("pending request replaced")
	}
	if m.transcript.Len() != before {
		t.Error("transcript changed during pending no-op")
	}
	if m.input.Value() != "" {
		t.Error("input not cleared on suppression")
	}
}

func TestInputDisabledWhilePendingAndReEnabledOnSuccess(t *testing.T) {
	m := newTestModel(t)

	sendText(m, "question")
	if m.InputEnabled() {
		t.Fatal("input enabled while pending")
	}
	if !m.transcript.HasTyping() {
		t.Fatal("typing placeholder missing")
	}

	m.handleChatResponse(NewChatResponseMsg(m.pending.ID, &api.ChatResponse{Response: "answer"}))

	if !m.InputEnabled() {
		t.Error("input not re-enabled after success")
	}
	if m.transcript.HasTyping() {
		t.Error("typing placeholder survived the response")
	}
	if m.state != StateReady {
		t.Errorf("state = %s", m.state)
	}
}

func TestInputReEnabledOnFailure(t *testing.T) {
	m := newTestModel(t)

	sendText(m, "question")
	m.handleChatError(NewChatErrorMsg(m.pending.ID,
		&api.ClientError{Kind: api.KindTimeout, Message: "request timed out"}))

	if !m.InputEnabled() {
		t.Error("input not re-enabled after failure")
	}
	if m.state != StateError {
		t.Errorf("state = %s", m.state)
	}
	if m.transcript.HasTyping() {
		t.Error("typing placeholder survived the error")
	}
	if got := countSender(m, model.SenderError); got != 1 {
		t.Errorf("error messages = %d, want 1", got)
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	m := newTestModel(t)

	sendText(m, "question")
	staleID := m.pending.ID

	// The request fails with a timeout; the error state is entered.
	m.handleChatError(NewChatErrorMsg(staleID,
		&api.ClientError{Kind: api.KindTimeout, Message: "request timed out"}))
	errCount := countSender(m, model.SenderError)
	botCount := countSender(m, model.SenderBot)

	// The underlying call later resolves anyway; its result is stale.
	m.handleChatResponse(NewChatResponseMsg(staleID, &api.ChatResponse{Response: "too late"}))

	if got := countSender(m, model.SenderBot); got != botCount {
		t.Error("stale response was appended")
	}
	if got := countSender(m, model.SenderError); got != errCount {
		t.Error("error count changed on stale delivery")
	}
	if m.state != StateError {
		t.Errorf("state = %s, error state must be entered exactly once", m.state)
	}
}

func TestStaleErrorDiscarded(t *testing.T) {
	m := newTestModel(t)

	sendText(m, "question")
	m.handleChatResponse(NewChatResponseMsg(m.pending.ID, &api.ChatResponse{Response: "done"}))

	m.handleChatError(NewChatErrorMsg("some-old-id",
		&api.ClientError{Kind: api.KindServer, Message: "late failure"}))

	if m.state != StateReady {
		t.Errorf("stale error changed state to %s", m.state)
	}
	if countSender(m, model.SenderError) != 0 {
		t.Error("stale error was appended")
	}
}

func TestManualRetry(t *testing.T) {
	m := newTestModel(t)
	base := time.Now()
	m.now = func() time.Time { return base }

	sendText(m, "question about risk")
	m.handleChatError(NewChatErrorMsg(m.pending.ID,
		&api.ClientError{Kind: api.KindServer, Message: "overloaded", Status: 500}))

	if cmd := m.retry(); cmd == nil {
		t.Fatal("retry refused after server error")
	}
	if m.pending == nil || m.pending.Prompt != "question about risk" {
		t.Errorf("retry did not redispatch the prompt: %+v", m.pending)
	}
	if countSender(m, model.SenderError) != 0 {
		t.Error("error message not cleared on retry")
	}
}

func TestRetryRefusedForNetworkErrors(t *testing.T) {
	m := newTestModel(t)

	sendText(m, "question")
	m.handleChatError(NewChatErrorMsg(m.pending.ID,
		&api.ClientError{Kind: api.KindNetwork, Message: "unreachable"}))

	// Network failures already consumed the automatic retry budget.
	if cmd := m.retry(); cmd != nil {
		t.Error("manual retry offered for a network failure")
	}
}

func TestTypingDismissesError(t *testing.T) {
	m := newTestModel(t)

	sendText(m, "question")
	m.handleChatError(NewChatErrorMsg(m.pending.ID,
		&api.ClientError{Kind: api.KindTimeout, Message: "timed out"}))
	if countSender(m, model.SenderError) != 1 {
		t.Fatal("error not shown")
	}

	m.Update(keyMsg("a"))

	if countSender(m, model.SenderError) != 0 {
		t.Error("error message not removed when typing resumed")
	}
	if m.state != StateReady {
		t.Errorf("state = %s", m.state)
	}
}

func TestProbeFailureDegradesGracefully(t *testing.T) {
	m := newTestModel(t)
	m.state = StateProbing

	m.handleProbeResult(NewProbeResultMsg(api.ProviderSettings{}, api.ErrNotAvailable))

	if m.state != StateUnavailable {
		t.Errorf("state = %s", m.state)
	}
	if m.aiAvailable {
		t.Error("AI affordances still on")
	}
	if countSender(m, model.SenderError) != 0 {
		t.Error("probe failure must not surface an error message")
	}

	// Prompts while unavailable go nowhere.
	sendText(m, "hello?")
	if m.pending != nil {
		t.Error("prompt accepted while unavailable")
	}
}

func TestProbeSuccessSetsBannerAndSuggestions(t *testing.T) {
	m := newTestModel(t)
	m.state = StateProbing
	m.cfg.Chat.Suggestions = true

	m.handleProbeResult(NewProbeResultMsg(
		api.ProviderSettings{Provider: "OpenAI", Model: "GPT-3.5 Turbo"}, nil))

	if m.state != StateReady {
		t.Errorf("state = %s", m.state)
	}
	if !m.aiAvailable {
		t.Error("AI not marked available")
	}
	if m.settings.Banner() != "Powered by OpenAI — Model: GPT-3.5 Turbo" {
		t.Errorf("banner = %q", m.settings.Banner())
	}
	if countSender(m, model.SenderBot) != 1 {
		t.Error("suggestion shortcuts not seeded for the stock context")
	}
}

func TestDirectPromptRespectsPendingGate(t *testing.T) {
	m := newTestModel(t)

	sendText(m, "first")
	before := m.transcript.Len()

	m.Update(NewDirectPromptMsg("What is my tariff exposure?"))

	if m.transcript.Len() != before {
		t.Error("direct prompt bypassed the pending gate")
	}
}

func TestDeliverPromptRunsPipeline(t *testing.T) {
	m := newTestModel(t)

	m.Update(NewDeliverPromptMsg("Is AAPL risky right now?"))

	if m.pending == nil {
		t.Fatal("delivered prompt not accepted")
	}
	if got := countSender(m, model.SenderUser); got != 1 {
		t.Errorf("user messages = %d", got)
	}
}

func TestClearKeepsWelcome(t *testing.T) {
	cfg := config.Default()
	cfg.Chat.WelcomeMessage = "Welcome to TradeLens AI"
	cfg.Chat.Suggestions = false
	client := api.NewClientWithConfig(api.ClientConfig{BaseURL: "http://127.0.0.1:1"})
	m := New(client, cfg, styles.NewTheme(), nil, model.Stock{})
	m.state = StateReady

	sendText(m, "something")
	m.Update(keyMsg("ctrl+l"))

	if m.transcript.Len() != 1 {
		t.Fatalf("len after clear = %d", m.transcript.Len())
	}
	if m.transcript.Messages()[0].Content != "Welcome to TradeLens AI" {
		t.Error("welcome message lost on clear")
	}
}
