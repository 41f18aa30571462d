// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"strings"
)

// =============================================================================
// AVAILABILITY PROBE
// =============================================================================

// ProviderSettings describes the AI provider the backend is configured
// with, with display-ready names for the banner.
type ProviderSettings struct {
	Provider string
	Model    string
}

// Banner renders the provider line shown above the transcript.
func (p ProviderSettings) Banner() string {
	return "Powered by " + p.Provider + " — Model: " + p.Model
}

// probeResponse is the wire format of the check_api reply.
type probeResponse struct {
	APIAvailable    bool `json:"api_available"`
	CurrentSettings struct {
		AIProvider      string `json:"ai_provider"`
		PerplexityModel string `json:"perplexity_model"`
	} `json:"current_settings"`
}

// CheckAvailability asks the backend whether an AI provider is
// configured. It sends the reserved probe sentinel, which the backend
// never forwards as a chat turn.
//
// ErrNotAvailable means the backend answered and reported no provider.
// Any other error means the probe itself failed; callers degrade
// gracefully either way by hiding AI affordances.
func (c *Client) CheckAvailability(ctx context.Context) (ProviderSettings, error) {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	body, err := c.postJSON(probeCtx, "/api/chat", chatRequest{Message: ProbeMessage})
	if err != nil {
		return ProviderSettings{}, err
	}

	var probe probeResponse
	if err := json.Unmarshal(body, &probe); err != nil {
		return ProviderSettings{}, &ClientError{Kind: KindMalformed, Message: "failed to parse probe response", Cause: err}
	}
	if !probe.APIAvailable {
		return ProviderSettings{}, ErrNotAvailable
	}

	return displaySettings(probe.CurrentSettings.AIProvider, probe.CurrentSettings.PerplexityModel), nil
}

// displaySettings maps backend provider identifiers to display names.
func displaySettings(provider, perplexityModel string) ProviderSettings {
	switch provider {
	case "openai":
		return ProviderSettings{Provider: "OpenAI", Model: "GPT-3.5 Turbo"}
	case "perplexity":
		m := perplexityModel
		if m == "" {
			m = "sonar"
		}
		return ProviderSettings{Provider: "Perplexity", Model: m}
	case "":
		return ProviderSettings{Provider: "AI", Model: "Unknown"}
	default:
		return ProviderSettings{
			Provider: strings.ToUpper(provider[:1]) + provider[1:],
			Model:    "Unknown",
		}
	}
}
