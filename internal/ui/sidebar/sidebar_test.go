// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package sidebar

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/tradelens/tradelens-tui/internal/model"
	"github.com/tradelens/tradelens-tui/internal/storage"
	"github.com/tradelens/tradelens-tui/internal/ui/styles"
)

func testStocks() []model.Stock {
	return []model.Stock{
		{Symbol: "AAPL", Name: "Apple Inc."},
		{Symbol: "TSLA", Name: "Tesla Inc."},
	}
}

func TestTogglePersists(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	store := storage.NewStateStoreWithPath(statePath)
	theme := styles.NewTheme()

	m := New(testStocks(), theme, store)
	if m.Collapsed() {
		t.Fatal("fresh sidebar should be expanded")
	}

	m.Toggle()
	if !m.Collapsed() {
		t.Fatal("toggle did not collapse")
	}

	// A new sidebar reading the same store starts collapsed.
	m2 := New(testStocks(), theme, store)
	if !m2.Collapsed() {
		t.Error("collapsed flag not restored from persisted state")
	}
}

func TestCollapsedRendersNothing(t *testing.T) {
	m := New(testStocks(), styles.NewTheme(), nil)
	m.Toggle()
	if m.View() != "" {
		t.Error("collapsed sidebar rendered content")
	}
}

func TestSelection(t *testing.T) {
	m := New(testStocks(), styles.NewTheme(), nil)

	if m.Selected().Symbol != "AAPL" {
		t.Errorf("initial selection = %s", m.Selected().Symbol)
	}
	m.Select(1)
	if m.Selected().Symbol != "TSLA" {
		t.Errorf("selection = %s", m.Selected().Symbol)
	}
	m.Select(5)
	if m.Selected().Symbol != "TSLA" {
		t.Error("selection ran past the end")
	}
	m.Select(-10)
	if m.Selected().Symbol != "AAPL" {
		t.Error("selection ran past the start")
	}
}

func TestViewListsPositions(t *testing.T) {
	m := New(testStocks(), styles.NewTheme(), nil)
	m.SetHeight(10)
	out := m.View()
	if !strings.Contains(out, "AAPL") || !strings.Contains(out, "TSLA") {
		t.Errorf("positions missing from view: %q", out)
	}
}
