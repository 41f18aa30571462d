// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Stock is a portfolio position shown in the sidebar. Symbol doubles as
// the chat stock context sent alongside prompts.
type Stock struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Shares float64 `json:"shares,omitempty"`
}

// Suggestions returns the canned prompt shortcuts offered for a stock
// when an AI provider is available.
func (s Stock) Suggestions() []string {
	return []string{
		"Is it a good time to buy " + s.Symbol + " based on my trading history?",
		"Have I made impulse buys or panic sells with " + s.Symbol + "?",
		"What is the overall risk profile of my " + s.Symbol + " position?",
	}
}
