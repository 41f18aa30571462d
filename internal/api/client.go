// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for the TradeLens API.
const (
	// DefaultBaseURL points at a local TradeLens server.
	DefaultBaseURL = "http://localhost:5000"

	// DefaultTimeout bounds a single chat request. Exceeding it is a
	// timeout failure, distinct from network errors.
	DefaultTimeout = 30 * time.Second

	// DefaultProbeTimeout bounds the startup availability probe.
	DefaultProbeTimeout = 10 * time.Second

	// DefaultMaxRetries is the number of additional attempts after a
	// network failure.
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the fixed delay between attempts. No
	// exponential backoff: the budget is small and the delay is part of
	// the delivery contract.
	DefaultRetryDelay = 2 * time.Second

	// MaxResponseSize caps response bodies.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 2 * 1024 * 1024 // 2MB
)

// ProbeMessage is the reserved sentinel the backend treats as an
// availability check rather than a chat turn.
const ProbeMessage = "check_api"

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// One shared transport for all TradeLens requests.
var sharedTransport = &http.Transport{
	MaxIdleConns:        10,
	MaxIdleConnsPerHost: 4,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds the tunable parts of the client. Zero values are
// replaced with defaults by NewClientWithConfig, except MaxRetries:
// zero is a valid setting meaning no automatic retries, so callers who
// want the default budget use DefaultConfig.
type ClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	ProbeTimeout time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
}

// DefaultConfig returns the canonical delivery policy.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		BaseURL:      DefaultBaseURL,
		Timeout:      DefaultTimeout,
		ProbeTimeout: DefaultProbeTimeout,
		MaxRetries:   DefaultMaxRetries,
		RetryDelay:   DefaultRetryDelay,
	}
}

// Client talks to the TradeLens backend.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	timeout      time.Duration
	probeTimeout time.Duration
	maxRetries   int
	retryDelay   time.Duration

	// limiter throttles outbound calls so a duplicate burst can never
	// reach the wire even if the UI gate is bypassed.
	limiter *rate.Limiter
}

// NewClient creates a client with the default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client, filling zero values with
// defaults. MaxRetries is taken as given: zero disables automatic
// retries rather than restoring the default budget.
func NewClientWithConfig(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Transport: sharedTransport,
			// Per-request deadlines come from contexts, not the client.
		},
		timeout:      cfg.Timeout,
		probeTimeout: cfg.ProbeTimeout,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
		limiter:      rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

// WithBaseURL sets a custom base URL.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimSuffix(u, "/")
	return c
}

// WithTimeout sets the chat request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.timeout = timeout
	return c
}

// WithMaxRetries sets the network retry budget.
func (c *Client) WithMaxRetries(n int) *Client {
	c.maxRetries = n
	return c
}

// WithRetryDelay sets the fixed inter-attempt delay.
func (c *Client) WithRetryDelay(d time.Duration) *Client {
	c.retryDelay = d
	return c
}

// BaseURL returns the configured server root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// CHAT
// =============================================================================

// chatRequest is the wire format for POST /api/chat.
type chatRequest struct {
	Message string `json:"message"`
	Stock   string `json:"stock,omitempty"`
}

// ChatResponse is the wire format of a chat reply. The backend reports
// provider-side failures as a 200 with an error field instead of a
// non-2xx status.
type ChatResponse struct {
	Response string `json:"response"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Chat sends one chat turn. The stock context may be empty.
//
// Failure policy: network-class failures are retried up to the
// configured budget with a fixed delay between attempts; timeouts and
// server errors surface immediately with their kind so the UI can offer
// a manual retry.
func (c *Client) Chat(ctx context.Context, message, stock string) (*ChatResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &ClientError{Kind: KindNetwork, Message: "rate limiter interrupted", Cause: err}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, &ClientError{Kind: KindTimeout, Message: "canceled while waiting to retry", Cause: ctx.Err()}
			case <-time.After(c.retryDelay):
			}
		}

		resp, err := c.doChat(ctx, message, stock)
		if err == nil {
			return resp, nil
		}

		var ce *ClientError
		if errors.As(err, &ce) && ce.Retryable() {
			lastErr = err
			continue
		}
		return nil, err
	}

	return nil, lastErr
}

// doChat performs a single attempt with its own deadline.
func (c *Client) doChat(ctx context.Context, message, stock string) (*ChatResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := c.postJSON(attemptCtx, "/api/chat", chatRequest{Message: message, Stock: stock})
	if err != nil {
		return nil, err
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, &ClientError{Kind: KindMalformed, Message: "failed to parse response", Cause: err}
	}
	// A 2xx payload with an error field is the backend reporting a
	// provider failure in-band. It keeps the server kind, and with it
	// the manual retry affordance.
	if chatResp.Error != "" {
		return nil, &ClientError{Kind: KindServer, Message: chatResp.Error}
	}
	if chatResp.Response == "" {
		return nil, &ClientError{Kind: KindMalformed, Message: ErrEmptyResponse.Error(), Cause: ErrEmptyResponse}
	}
	return &chatResp, nil
}

// =============================================================================
// HTTP PLUMBING
// =============================================================================

// postJSON posts a JSON body and returns the raw 2xx response body,
// classifying every failure into a ClientError kind.
func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, &ClientError{Kind: KindMalformed, Message: "failed to encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, &ClientError{Kind: KindNetwork, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return nil, &ClientError{Kind: KindMalformed, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ClientError{
			Kind:    KindServer,
			Message: serverErrorMessage(body),
			Status:  resp.StatusCode,
		}
	}
	return body, nil
}

// getJSON fetches a path and decodes the 2xx body into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &ClientError{Kind: KindNetwork, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return &ClientError{Kind: KindMalformed, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ClientError{
			Kind:    KindServer,
			Message: serverErrorMessage(body),
			Status:  resp.StatusCode,
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &ClientError{Kind: KindMalformed, Message: "failed to parse response", Cause: err}
	}
	return nil
}

// readResponse reads the body with a size cap.
// SECURITY: Response size limit prevents memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// classifyTransportError splits timeouts from other transport failures.
// The caller's deadline expiring is a timeout, everything else on the
// wire is network class and therefore retryable.
func classifyTransportError(err error) *ClientError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Kind: KindTimeout, Message: "request timed out", Cause: err}
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return &ClientError{Kind: KindTimeout, Message: "request timed out", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &ClientError{Kind: KindTimeout, Message: "request canceled", Cause: err}
	}
	return &ClientError{Kind: KindNetwork, Message: "request failed", Cause: err}
}

// serverErrorMessage extracts an error string from a failure body.
func serverErrorMessage(body []byte) string {
	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		return parsed.Error
	}
	return "server returned an error"
}
