// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tradelens/tradelens-tui/internal/api"
	"github.com/tradelens/tradelens-tui/internal/model"
	"github.com/tradelens/tradelens-tui/internal/storage"
)

// =============================================================================
// COMMANDS
// =============================================================================

// ProbeCmd runs the startup availability probe.
func ProbeCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		settings, err := client.CheckAvailability(context.Background())
		return NewProbeResultMsg(settings, err)
	}
}

// SendChatCmd dispatches one chat request. The client owns the timeout
// and the network retry budget; whatever comes back is tagged with the
// request ID so stale results can be discarded.
func SendChatCmd(client *api.Client, requestID, prompt, stock string) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.Chat(context.Background(), prompt, stock)
		if err != nil {
			return NewChatErrorMsg(requestID, err)
		}
		return NewChatResponseMsg(requestID, resp)
	}
}

// SaveHistoryCmd persists the transcript's user and bot messages.
func SaveHistoryCmd(store *storage.HistoryStore, t *model.Transcript, stock string) tea.Cmd {
	return func() tea.Msg {
		id, err := store.Save(t, stock)
		return HistorySavedMsg{SessionID: id, Err: err}
	}
}
