// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "github.com/tradelens/tradelens-tui/internal/api"

// All Bubble Tea messages the chat widget produces or consumes live
// here so the update loop has a single catalog to dispatch over.

// =============================================================================
// PROBE MESSAGES
// =============================================================================

// ProbeResultMsg reports the availability probe outcome. Err covers
// both "no provider configured" and probe transport failures; either
// way the widget degrades by hiding AI affordances.
type ProbeResultMsg struct {
	Settings api.ProviderSettings
	Err      error
}

// NewProbeResultMsg creates a ProbeResultMsg.
func NewProbeResultMsg(settings api.ProviderSettings, err error) ProbeResultMsg {
	return ProbeResultMsg{Settings: settings, Err: err}
}

// =============================================================================
// CHAT RESPONSE MESSAGES
// =============================================================================

// ChatResponseMsg carries a successful chat reply. RequestID ties it to
// the request it answers; a mismatch means the reply is stale and is
// discarded without touching the transcript.
type ChatResponseMsg struct {
	RequestID string
	Response  *api.ChatResponse
}

// NewChatResponseMsg creates a ChatResponseMsg.
func NewChatResponseMsg(requestID string, resp *api.ChatResponse) ChatResponseMsg {
	return ChatResponseMsg{RequestID: requestID, Response: resp}
}

// ChatErrorMsg carries a failed chat request.
type ChatErrorMsg struct {
	RequestID string
	Err       error
}

// NewChatErrorMsg creates a ChatErrorMsg.
func NewChatErrorMsg(requestID string, err error) ChatErrorMsg {
	return ChatErrorMsg{RequestID: requestID, Err: err}
}

// =============================================================================
// PROMPT DELIVERY MESSAGES
// =============================================================================

// DeliverPromptMsg injects a prompt through the regular input pipeline,
// as if the user had typed it and pressed enter. Used by the prompt
// router's simulated-input and key-event strategies.
type DeliverPromptMsg struct {
	Prompt string
}

// NewDeliverPromptMsg creates a DeliverPromptMsg.
func NewDeliverPromptMsg(prompt string) DeliverPromptMsg {
	return DeliverPromptMsg{Prompt: prompt}
}

// DirectPromptMsg bypasses the input pipeline: the prompt is appended
// and dispatched immediately. Used by the router's direct-call strategy
// for privileged topics. The pending gate still applies.
type DirectPromptMsg struct {
	Prompt string
}

// NewDirectPromptMsg creates a DirectPromptMsg.
func NewDirectPromptMsg(prompt string) DirectPromptMsg {
	return DirectPromptMsg{Prompt: prompt}
}

// =============================================================================
// HISTORY MESSAGES
// =============================================================================

// HistorySavedMsg reports the outcome of saving the transcript.
type HistorySavedMsg struct {
	SessionID string
	Err       error
}
