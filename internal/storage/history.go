// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tradelens/tradelens-tui/internal/model"
	"github.com/tradelens/tradelens-tui/internal/util"
)

// =============================================================================
// CHAT HISTORY
// =============================================================================

// ErrSessionNotFound is returned when a history session ID is unknown.
var ErrSessionNotFound = errors.New("session not found")

// SessionMeta summarizes a saved chat session for listing.
type SessionMeta struct {
	ID           string
	StockContext string
	Summary      string
	MessageCount int
	SavedAt      time.Time
}

// HistoryStore persists chat transcripts to SQLite. Only user and bot
// messages are stored; typing placeholders and errors are transient.
type HistoryStore struct {
	db *sql.DB
}

const historySchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	stock_context TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL DEFAULT '',
	saved_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	sender TEXT NOT NULL,
	content TEXT NOT NULL,
	provider TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, position);
CREATE INDEX IF NOT EXISTS idx_sessions_saved ON sessions(saved_at DESC);
`

// NewHistoryStore opens (creating if needed) the history database at
// the default location ~/.tradelens/history.db.
func NewHistoryStore() (*HistoryStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewHistoryStoreWithPath(filepath.Join(home, ".tradelens", "history.db"))
}

// NewHistoryStoreWithPath opens the history database at an explicit path.
func NewHistoryStoreWithPath(path string) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// modernc sqlite is single-writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &HistoryStore{db: db}, nil
}

// Close releases the database.
func (h *HistoryStore) Close() error {
	return h.db.Close()
}

// Save stores the persistable messages of a transcript as a new session
// and returns its ID. An empty transcript saves nothing.
func (h *HistoryStore) Save(t *model.Transcript, stockContext string) (string, error) {
	messages := t.Persistable()
	if len(messages) == 0 {
		return "", errors.New("nothing to save")
	}

	id := generateSessionID()
	tx, err := h.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"INSERT INTO sessions (id, stock_context, summary, saved_at) VALUES (?, ?, ?, ?)",
		id, stockContext, summarize(messages), time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert session: %w", err)
	}

	for i, m := range messages {
		_, err = tx.Exec(
			`INSERT INTO messages (id, session_id, position, sender, content, provider, model, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, id, i, string(m.Sender), m.Content,
			m.Attribution.Provider, m.Attribution.Model, m.CreatedAt.Unix(),
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return id, nil
}

// Load returns the messages of a saved session in order.
func (h *HistoryStore) Load(id string) ([]model.Message, error) {
	var exists int
	err := h.db.QueryRow("SELECT COUNT(*) FROM sessions WHERE id = ?", id).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	if exists == 0 {
		return nil, ErrSessionNotFound
	}

	rows, err := h.db.Query(
		`SELECT id, sender, content, provider, model, created_at
		 FROM messages WHERE session_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		var m model.Message
		var sender string
		var createdAt int64
		if err := rows.Scan(&m.ID, &sender, &m.Content,
			&m.Attribution.Provider, &m.Attribution.Model, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Sender = model.Sender(sender)
		m.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, m)
	}
	return out, rows.Err()
}

// List returns saved sessions, newest first, up to limit (0 = all).
func (h *HistoryStore) List(limit int) ([]SessionMeta, error) {
	query := `SELECT s.id, s.stock_context, s.summary, s.saved_at,
		(SELECT COUNT(*) FROM messages m WHERE m.session_id = s.id)
		FROM sessions s ORDER BY s.saved_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionMeta
	for rows.Next() {
		var meta SessionMeta
		var savedAt int64
		if err := rows.Scan(&meta.ID, &meta.StockContext, &meta.Summary, &savedAt, &meta.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		meta.SavedAt = time.Unix(savedAt, 0)
		out = append(out, meta)
	}
	return out, rows.Err()
}

// Delete removes a session and its messages.
func (h *HistoryStore) Delete(id string) error {
	res, err := h.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Clear removes all saved sessions.
func (h *HistoryStore) Clear() error {
	_, err := h.db.Exec("DELETE FROM sessions")
	return err
}

// summarize builds a short listing line from the first user message.
func summarize(messages []model.Message) string {
	for _, m := range messages {
		if m.Sender == model.SenderUser {
			return util.TruncateRunes(m.Content, 60)
		}
	}
	return util.TruncateRunes(messages[0].Content, 60)
}

// generateSessionID returns an ID like "sess_a1b2c3d4e5f6a7b8".
func generateSessionID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "sess_" + hex.EncodeToString([]byte(time.Now().Format("150405.000")))
	}
	return "sess_" + hex.EncodeToString(b)
}
