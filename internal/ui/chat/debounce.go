// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "time"

// Duplicate suppression windows. Both checks compare exact text.
const (
	// acceptCooldown suppresses a prompt identical to one accepted
	// within the window.
	acceptCooldown = 1000 * time.Millisecond
	// renderedDupWindow suppresses a prompt identical to the most
	// recent rendered user message when that message is still fresh.
	renderedDupWindow = 2000 * time.Millisecond
)

// shouldSuppress decides whether a candidate prompt is dropped.
// Suppression is a true no-op on the transcript and the wire; the
// caller still clears the input either way.
func (m *Model) shouldSuppress(text string) bool {
	// Gate 1: one request at a time, unconditionally.
	if m.pending != nil {
		return true
	}
	// Gate 2: acceptance cooldown.
	if text == m.lastAccepted.text && m.now().Sub(m.lastAccepted.at) < acceptCooldown {
		return true
	}
	// Gate 3: identical to the freshest rendered user message.
	if m.transcript.LastUserMessageWithin(text, m.now(), renderedDupWindow) {
		return true
	}
	return false
}

// recordAccepted starts the cooldown for the accepted prompt.
func (m *Model) recordAccepted(text string) {
	m.lastAccepted = acceptedPrompt{text: text, at: m.now()}
}
