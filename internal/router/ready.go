// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package router delivers externally triggered prompts into the chat
// widget through an ordered chain of strategies.
package router

import (
	"context"
	"sync"
	"time"
)

// Readiness constants. The widget may finish mounting after the router
// is constructed; delivery waits for readiness up to the polling budget.
const (
	// ReadyPollInterval is the fixed delay between readiness checks.
	ReadyPollInterval = 500 * time.Millisecond
	// ReadyMaxAttempts bounds the polling resolver.
	ReadyMaxAttempts = 10
)

// =============================================================================
// READY SIGNAL
// =============================================================================

// ReadySignal resolves exactly once, no matter how many resolvers feed
// it. Two feed it in practice: a fixed-interval poller and an explicit
// mount notification; whichever fires first wins and the other becomes
// a no-op.
type ReadySignal struct {
	once sync.Once
	ch   chan struct{}
}

// NewReadySignal creates an unresolved signal.
func NewReadySignal() *ReadySignal {
	return &ReadySignal{ch: make(chan struct{})}
}

// Resolve marks the signal ready. Safe to call any number of times from
// any goroutine; only the first call has an effect.
func (s *ReadySignal) Resolve() {
	s.once.Do(func() { close(s.ch) })
}

// Resolved reports whether the signal has fired.
func (s *ReadySignal) Resolved() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// Done returns a channel closed on resolution.
func (s *ReadySignal) Done() <-chan struct{} {
	return s.ch
}

// Wait blocks until the signal resolves or the context ends.
func (s *ReadySignal) Wait(ctx context.Context) error {
	select {
	case <-s.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// =============================================================================
// POLLING RESOLVER
// =============================================================================

// PollReady checks probe at a fixed interval and resolves the signal on
// the first success. It stops after maxAttempts, when the signal
// resolves through another path, or when ctx ends. The bounded attempt
// count means a widget that never mounts stops costing cycles.
func PollReady(ctx context.Context, signal *ReadySignal, probe func() bool, interval time.Duration, maxAttempts int) {
	if probe() {
		signal.Resolve()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; attempt < maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-signal.Done():
			return
		case <-ticker.C:
			if probe() {
				signal.Resolve()
				return
			}
		}
	}
}
