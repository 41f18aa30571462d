// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the TradeLens backend.
//
// The client owns the delivery policy for chat requests: a bounded
// timeout reported as its own failure kind, automatic retry for network
// class failures only, and strict classification of everything else so
// the UI can decide between auto-retry, manual retry, and giving up.
package api

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

// ErrorKind classifies a failed request. The kind decides the recovery
// path: network errors are retried automatically, timeouts and server
// errors get a manual retry affordance, malformed responses and an
// unavailable widget are terminal.
type ErrorKind int

const (
	// KindNetwork is a transport-level failure: connection refused, DNS,
	// reset. Retried automatically up to the configured attempt budget.
	KindNetwork ErrorKind = iota
	// KindTimeout means the request exceeded the configured deadline.
	// Never retried automatically.
	KindTimeout
	// KindServer is a non-2xx response from the backend.
	KindServer
	// KindMalformed is a 2xx response whose body could not be used.
	KindMalformed
	// KindUnavailable means no chat surface exists to deliver through.
	KindUnavailable
)

// String returns a short name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindServer:
		return "server"
	case KindMalformed:
		return "malformed"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// ClientError is the error type returned by all client operations.
type ClientError struct {
	Kind    ErrorKind
	Message string
	Status  int   // HTTP status for KindServer, 0 otherwise
	Cause   error // underlying error, may be nil
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s error (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the failure may be retried automatically.
func (e *ClientError) Retryable() bool {
	return e.Kind == KindNetwork
}

// ManualRetry reports whether the UI should offer a retry affordance.
func (e *ClientError) ManualRetry() bool {
	return e.Kind == KindTimeout || e.Kind == KindServer
}

// UserMessage returns the text shown in the transcript for this failure.
func (e *ClientError) UserMessage() string {
	switch e.Kind {
	case KindTimeout:
		return "The request timed out. The AI service may be busy."
	case KindNetwork:
		return "Could not reach the TradeLens server. Check your connection."
	case KindServer:
		return "The AI service returned an error. Please try again."
	case KindMalformed:
		return "Received an unexpected response from the AI service."
	case KindUnavailable:
		return "The chat assistant is not available right now."
	default:
		return "Something went wrong. Please try again."
	}
}

// KindOf extracts the ErrorKind from err, defaulting to KindNetwork for
// untyped errors so unknown transport failures stay retryable.
func KindOf(err error) ErrorKind {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindNetwork
}

// Sentinel errors for common conditions.
var (
	// ErrNotAvailable indicates the backend reports no configured AI provider.
	ErrNotAvailable = errors.New("AI provider not configured")

	// ErrEmptyResponse indicates a 2xx body with no response text.
	ErrEmptyResponse = errors.New("empty response from server")
)
