// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for tradelens-tui.
//
// Configuration is TOML with sensible defaults and environment variable
// overrides. File location: ~/.tradelens/config.toml.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tradelens/tradelens-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete tradelens-tui configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Chat   ChatConfig   `toml:"chat"`
	Chart  ChartConfig  `toml:"chart"`
	UI     UIConfig     `toml:"ui"`
}

// ServerConfig names the TradeLens backend.
type ServerConfig struct {
	// BaseURL is the root of the TradeLens API, e.g. "http://localhost:5000".
	BaseURL string `toml:"base_url"`
}

// ChatConfig tunes the chat delivery pipeline.
type ChatConfig struct {
	// TimeoutSeconds bounds a single chat request. Exceeding it is reported
	// as a timeout, distinct from other failures.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// ProbeTimeoutSeconds bounds the startup availability probe.
	ProbeTimeoutSeconds int `toml:"probe_timeout_seconds"`
	// MaxRetries is the number of additional attempts after a network
	// failure. Timeouts and server errors are never retried automatically.
	MaxRetries int `toml:"max_retries"`
	// RetryDelayMillis is the fixed delay between attempts.
	RetryDelayMillis int `toml:"retry_delay_millis"`
	// WelcomeMessage seeds a new transcript. Empty disables it.
	WelcomeMessage string `toml:"welcome_message"`
	// Suggestions enables stock prompt shortcuts when a provider is available.
	Suggestions bool `toml:"suggestions"`
}

// ChartConfig tunes the price chart pane.
type ChartConfig struct {
	// DefaultRange is one of "all", "1y", "6m", "3m", "1m".
	DefaultRange string `toml:"default_range"`
	Width        int    `toml:"width"`
	Height       int    `toml:"height"`
}

// UIConfig holds presentation options.
type UIConfig struct {
	// Markdown enables glamour rendering of bot responses. When disabled
	// (or when a renderer cannot be constructed) the plain fallback is used.
	Markdown bool `toml:"markdown"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:5000",
		},
		Chat: ChatConfig{
			TimeoutSeconds:      30,
			ProbeTimeoutSeconds: 10,
			MaxRetries:          2,
			RetryDelayMillis:    2000,
			WelcomeMessage:      "Hi! Ask me anything about your portfolio.",
			Suggestions:         true,
		},
		Chart: ChartConfig{
			DefaultRange: "all",
			Width:        0, // 0 = fit terminal
			Height:       12,
		},
		UI: UIConfig{
			Markdown: true,
		},
	}
}

// ChatTimeout returns the chat request timeout as a duration.
func (c *Config) ChatTimeout() time.Duration {
	return time.Duration(c.Chat.TimeoutSeconds) * time.Second
}

// ProbeTimeout returns the availability probe timeout as a duration.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Chat.ProbeTimeoutSeconds) * time.Second
}

// RetryDelay returns the fixed inter-attempt delay as a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Chat.RetryDelayMillis) * time.Millisecond
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns ~/.tradelens, creating nothing.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".tradelens"), nil
}

// ConfigPath returns the TOML config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config file, fills defaults, applies environment
// overrides and validates. A missing file is not an error; defaults apply.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load with an explicit file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Defaults apply.
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides maps TRADELENS_* variables onto the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRADELENS_SERVER_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("TRADELENS_CHAT_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chat.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("TRADELENS_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chat.MaxRetries = n
		}
	}
	if v := os.Getenv("TRADELENS_CHART_RANGE"); v != "" {
		cfg.Chart.DefaultRange = v
	}
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the config atomically to the default path.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, []byte(sb.String()), 0600)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidRanges are the accepted chart range selectors, mirroring the web
// client's ?range= query values.
var ValidRanges = []string{"all", "1y", "6m", "3m", "1m"}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.base_url %q is not a valid URL", c.Server.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.base_url scheme %q must be http or https", u.Scheme)
	}

	if c.Chat.TimeoutSeconds < 1 || c.Chat.TimeoutSeconds > 300 {
		return fmt.Errorf("chat.timeout_seconds %d out of range 1-300", c.Chat.TimeoutSeconds)
	}
	if c.Chat.ProbeTimeoutSeconds < 1 || c.Chat.ProbeTimeoutSeconds > 60 {
		return fmt.Errorf("chat.probe_timeout_seconds %d out of range 1-60", c.Chat.ProbeTimeoutSeconds)
	}
	if c.Chat.MaxRetries < 0 || c.Chat.MaxRetries > 10 {
		return fmt.Errorf("chat.max_retries %d out of range 0-10", c.Chat.MaxRetries)
	}
	if c.Chat.RetryDelayMillis < 0 {
		return fmt.Errorf("chat.retry_delay_millis must not be negative")
	}

	valid := false
	for _, r := range ValidRanges {
		if c.Chart.DefaultRange == r {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("chart.default_range %q must be one of %s",
			c.Chart.DefaultRange, strings.Join(ValidRanges, ", "))
	}
	if c.Chart.Height < 4 {
		return fmt.Errorf("chart.height %d too small, minimum 4", c.Chart.Height)
	}

	return nil
}
