// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is the ordered message store owned by a single chat widget.
// All mutation happens on the Bubble Tea update goroutine, so the type
// carries no locking; mutation order is event order.
type Transcript struct {
	messages []Message
	welcome  string
}

// NewTranscript creates a transcript seeded with a welcome message.
// An empty welcome string seeds nothing.
func NewTranscript(welcome string) *Transcript {
	t := &Transcript{welcome: welcome}
	if welcome != "" {
		t.messages = append(t.messages, NewBotMessage(welcome, Attribution{}))
	}
	return t
}

// Append adds a message at the end of the transcript.
func (t *Transcript) Append(m Message) {
	t.messages = append(t.messages, m)
}

// Messages returns the messages in display order. The returned slice is
// shared; callers must not mutate it.
func (t *Transcript) Messages() []Message {
	return t.messages
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// HasTyping reports whether the typing placeholder is present, which is
// the visible side of an outstanding request.
func (t *Transcript) HasTyping() bool {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Sender == SenderTyping {
			return true
		}
	}
	return false
}

// RemoveTyping removes the typing placeholder if present. The placeholder
// is never converted into a response in place.
func (t *Transcript) RemoveTyping() {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Sender == SenderTyping {
			t.messages = append(t.messages[:i], t.messages[i+1:]...)
			return
		}
	}
}

// RemoveLastError removes the most recent error entry if it is the last
// message. Called when the user starts typing again.
func (t *Transcript) RemoveLastError() {
	if n := len(t.messages); n > 0 && t.messages[n-1].Sender == SenderError {
		t.messages = t.messages[:n-1]
	}
}

// LastUserMessageWithin reports whether the most recent user message has
// exactly the given text and was created within the window before now.
// Used for duplicate suppression against rendered content; the caller
// supplies now so the check shares the widget's clock.
func (t *Transcript) LastUserMessageWithin(text string, now time.Time, window time.Duration) bool {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Sender != SenderUser {
			continue
		}
		m := t.messages[i]
		return m.Content == text && now.Sub(m.CreatedAt) < window
	}
	return false
}

// Clear removes all messages, re-seeding the welcome message so the
// widget never clears to a fully blank state.
func (t *Transcript) Clear() {
	t.messages = t.messages[:0]
	if t.welcome != "" {
		t.messages = append(t.messages, NewBotMessage(t.welcome, Attribution{}))
	}
}

// Persistable returns the messages worth saving to history: user and bot
// entries only. Typing placeholders and errors are transient UI state.
func (t *Transcript) Persistable() []Message {
	out := make([]Message, 0, len(t.messages))
	for _, m := range t.messages {
		if m.Sender == SenderUser || m.Sender == SenderBot {
			out = append(out, m)
		}
	}
	return out
}
