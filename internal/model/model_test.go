// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
	"time"
)

func TestNewUserMessage(t *testing.T) {
	m := NewUserMessage("How is AAPL doing?")
	if m.Sender != SenderUser {
		t.Errorf("sender = %s, want user", m.Sender)
	}
	if m.Content != "How is AAPL doing?" {
		t.Errorf("content = %q", m.Content)
	}
	if !strings.HasPrefix(m.ID, "msg_") {
		t.Errorf("ID %q missing msg_ prefix", m.ID)
	}
	if m.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestMessageIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		m := NewUserMessage("x")
		if seen[m.ID] {
			t.Fatalf("duplicate ID %s", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestTranscriptWelcomeSurvivesClear(t *testing.T) {
	tr := NewTranscript("Welcome to TradeLens AI")
	tr.Append(NewUserMessage("hello"))
	tr.Append(NewBotMessage("hi", Attribution{Provider: "OpenAI", Model: "GPT-3.5 Turbo"}))

	tr.Clear()

	if tr.Len() != 1 {
		t.Fatalf("len after clear = %d, want 1", tr.Len())
	}
	if tr.Messages()[0].Content != "Welcome to TradeLens AI" {
		t.Errorf("welcome not re-seeded: %q", tr.Messages()[0].Content)
	}
}

func TestTranscriptTypingRemovedNotMutated(t *testing.T) {
	tr := NewTranscript("")
	tr.Append(NewUserMessage("question"))
	typing := NewTypingMessage()
	tr.Append(typing)

	if !tr.HasTyping() {
		t.Fatal("HasTyping = false after appending placeholder")
	}

	tr.RemoveTyping()
	tr.Append(NewBotMessage("answer", Attribution{}))

	if tr.HasTyping() {
		t.Error("placeholder still present after removal")
	}
	for _, m := range tr.Messages() {
		if m.ID == typing.ID {
			t.Error("placeholder was kept instead of removed")
		}
	}
	if tr.Len() != 2 {
		t.Errorf("len = %d, want 2", tr.Len())
	}
}

func TestTranscriptRemoveTypingNoOp(t *testing.T) {
	tr := NewTranscript("")
	tr.Append(NewUserMessage("q"))
	tr.RemoveTyping()
	if tr.Len() != 1 {
		t.Errorf("RemoveTyping changed transcript without a placeholder")
	}
}

func TestLastUserMessageWithin(t *testing.T) {
	tr := NewTranscript("")
	m := NewUserMessage("Is it a good time to buy AAPL?")
	tr.Append(m)
	tr.Append(NewBotMessage("No comment.", Attribution{}))

	now := m.CreatedAt.Add(500 * time.Millisecond)
	if !tr.LastUserMessageWithin("Is it a good time to buy AAPL?", now, 2*time.Second) {
		t.Error("fresh duplicate not detected")
	}
	if tr.LastUserMessageWithin("different text", now, 2*time.Second) {
		t.Error("non-matching text reported as duplicate")
	}

	// The same message falls out of the window as the clock advances.
	if tr.LastUserMessageWithin("Is it a good time to buy AAPL?", m.CreatedAt.Add(3*time.Second), 2*time.Second) {
		t.Error("aged message reported as duplicate")
	}
}

func TestRemoveLastError(t *testing.T) {
	tr := NewTranscript("")
	tr.Append(NewUserMessage("q"))
	tr.Append(NewErrorMessage("Request timed out."))

	tr.RemoveLastError()
	if tr.Len() != 1 {
		t.Errorf("error not removed, len = %d", tr.Len())
	}

	// Only a trailing error is removed.
	tr.Append(NewErrorMessage("boom"))
	tr.Append(NewUserMessage("retry"))
	tr.RemoveLastError()
	if tr.Len() != 3 {
		t.Errorf("non-trailing error was removed, len = %d", tr.Len())
	}
}

func TestPersistableSkipsTransient(t *testing.T) {
	tr := NewTranscript("")
	tr.Append(NewUserMessage("q"))
	tr.Append(NewTypingMessage())
	tr.Append(NewErrorMessage("failed"))
	tr.Append(NewBotMessage("a", Attribution{}))

	p := tr.Persistable()
	if len(p) != 2 {
		t.Fatalf("persistable len = %d, want 2", len(p))
	}
	if p[0].Sender != SenderUser || p[1].Sender != SenderBot {
		t.Errorf("unexpected senders: %s, %s", p[0].Sender, p[1].Sender)
	}
}

func TestStockSuggestions(t *testing.T) {
	s := Stock{Symbol: "TSLA", Name: "Tesla Inc."}
	sugg := s.Suggestions()
	if len(sugg) == 0 {
		t.Fatal("no suggestions")
	}
	for _, text := range sugg {
		if !strings.Contains(text, "TSLA") {
			t.Errorf("suggestion missing symbol: %q", text)
		}
	}
}
