// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat transcript.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderBot   Sender = "bot"
	SenderError Sender = "error"
	// SenderTyping marks the transient typing placeholder shown while a
	// request is outstanding. It is removed when the request settles,
	// never updated in place.
	SenderTyping Sender = "typing"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderBot:
		return "TradeLens AI"
	case SenderError:
		return "Error"
	case SenderTyping:
		return "..."
	default:
		return string(s)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Attribution names the AI provider and model that produced a bot message.
type Attribution struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// IsZero reports whether no attribution was supplied.
func (a Attribution) IsZero() bool {
	return a.Provider == "" && a.Model == ""
}

// Message is a single entry in the transcript. Messages are immutable
// after creation; CreatedAt exists only for duplicate suppression and
// is never shown to the user.
type Message struct {
	ID          string      `json:"id"`
	Sender      Sender      `json:"sender"`
	Content     string      `json:"content"`
	Attribution Attribution `json:"attribution,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// NewUserMessage creates a message authored by the user.
func NewUserMessage(content string) Message {
	return Message{
		ID:        generateID(),
		Sender:    SenderUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewBotMessage creates a bot response with optional attribution.
func NewBotMessage(content string, attr Attribution) Message {
	return Message{
		ID:          generateID(),
		Sender:      SenderBot,
		Content:     content,
		Attribution: attr,
		CreatedAt:   time.Now(),
	}
}

// NewErrorMessage creates a user-visible error entry.
func NewErrorMessage(content string) Message {
	return Message{
		ID:        generateID(),
		Sender:    SenderError,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewTypingMessage creates the typing placeholder.
func NewTypingMessage() Message {
	return Message{
		ID:        generateID(),
		Sender:    SenderTyping,
		Content:   "Thinking...",
		CreatedAt: time.Now(),
	}
}

// generateID returns a unique message ID like "msg_a1b2c3d4e5f6a7b8".
func generateID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		// Fall back to a timestamp-based ID if the system RNG fails.
		return "msg_" + hex.EncodeToString([]byte(time.Now().Format("150405.000")))
	}
	return "msg_" + hex.EncodeToString(b)
}
