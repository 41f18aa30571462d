// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tradelens/tradelens-tui/internal/api"
)

// promptDebounce suppresses identical prompts delivered within this
// window, matching the widget's own acceptance cooldown.
const promptDebounce = 1000 * time.Millisecond

// privilegedTopics route straight to the API, bypassing the widget's
// input pipeline. These are analysis prompts the widget may reword or
// throttle; the direct path guarantees verbatim delivery.
var privilegedTopics = []string{"tariff", "risk"}

// =============================================================================
// STRATEGY INTERFACE
// =============================================================================

// Strategy is one way of delivering a prompt into the chat pipeline.
// TryDeliver returns true when delivery happened; the chain stops at
// the first success and never falls through after one.
type Strategy interface {
	Name() string
	TryDeliver(prompt string) bool
}

// Capability interfaces a widget may implement. Each strategy probes
// for the one it needs.

// ProgrammaticSender is the widget's exported send entry point.
type ProgrammaticSender interface {
	SendMessage(prompt string) bool
}

// InputSimulator sets the input control's value and triggers the
// regular send path, as if the user had typed and submitted.
type InputSimulator interface {
	SetInputValue(text string)
	TriggerSend() bool
}

// KeyEventSimulator sets the input value and injects a synthetic
// submit key event.
type KeyEventSimulator interface {
	SetInputValue(text string)
	InjectSubmitKey() bool
}

// =============================================================================
// STRATEGIES
// =============================================================================

// DirectCallFunc performs a direct API delivery outside the widget's
// input pipeline: append the user message, show the typing indicator,
// and dispatch the request.
type DirectCallFunc func(prompt string) bool

type directCallStrategy struct {
	deliver DirectCallFunc
}

func (s *directCallStrategy) Name() string { return "direct-call" }

func (s *directCallStrategy) TryDeliver(prompt string) bool {
	if s.deliver == nil || !isPrivileged(prompt) {
		return false
	}
	return s.deliver(prompt)
}

// isPrivileged reports whether the prompt names a privileged topic.
func isPrivileged(prompt string) bool {
	lower := strings.ToLower(prompt)
	for _, topic := range privilegedTopics {
		if strings.Contains(lower, topic) {
			return true
		}
	}
	return false
}

type programmaticStrategy struct {
	widget ProgrammaticSender
}

func (s *programmaticStrategy) Name() string { return "programmatic" }

func (s *programmaticStrategy) TryDeliver(prompt string) bool {
	if s.widget == nil {
		return false
	}
	return s.widget.SendMessage(prompt)
}

type simulatedInputStrategy struct {
	widget InputSimulator
}

func (s *simulatedInputStrategy) Name() string { return "simulated-input" }

func (s *simulatedInputStrategy) TryDeliver(prompt string) bool {
	if s.widget == nil {
		return false
	}
	s.widget.SetInputValue(prompt)
	return s.widget.TriggerSend()
}

type keyEventStrategy struct {
	widget KeyEventSimulator
}

func (s *keyEventStrategy) Name() string { return "key-event" }

func (s *keyEventStrategy) TryDeliver(prompt string) bool {
	if s.widget == nil {
		return false
	}
	s.widget.SetInputValue(prompt)
	return s.widget.InjectSubmitKey()
}

// =============================================================================
// ROUTER
// =============================================================================

// Router owns the strategy chain, the readiness signal, and the
// router-level debounce.
type Router struct {
	strategies []Strategy
	ready      *ReadySignal
	hasWidget  bool

	mu         sync.Mutex
	lastPrompt string
	lastTime   time.Time

	// now is swappable for tests.
	now func() time.Time
}

// Config wires the router to a widget's capabilities. Nil fields skip
// the corresponding strategy. A config with every field nil means no
// widget exists at all.
type Config struct {
	DirectCall   DirectCallFunc
	Programmatic ProgrammaticSender
	Input        InputSimulator
	KeyEvents    KeyEventSimulator
}

// New builds a router with the canonical strategy order: direct-call,
// programmatic, simulated input, key event.
func New(cfg Config) *Router {
	r := &Router{
		ready: NewReadySignal(),
		now:   time.Now,
	}
	r.strategies = []Strategy{
		&directCallStrategy{deliver: cfg.DirectCall},
		&programmaticStrategy{widget: cfg.Programmatic},
		&simulatedInputStrategy{widget: cfg.Input},
		&keyEventStrategy{widget: cfg.KeyEvents},
	}
	r.hasWidget = cfg.DirectCall != nil || cfg.Programmatic != nil ||
		cfg.Input != nil || cfg.KeyEvents != nil
	return r
}

// Ready returns the readiness signal so the widget can resolve it on
// mount and callers can start the polling resolver.
func (r *Router) Ready() *ReadySignal {
	return r.ready
}

// NotifyMounted is the explicit readiness resolver.
func (r *Router) NotifyMounted() {
	r.ready.Resolve()
}

// StartPolling runs the polling resolver against the given probe.
func (r *Router) StartPolling(ctx context.Context, probe func() bool) {
	go PollReady(ctx, r.ready, probe, ReadyPollInterval, ReadyMaxAttempts)
}

// Route delivers a prompt through the first strategy that accepts it.
//
// A router with no widget wired fails immediately with KindUnavailable;
// there is nothing to wait for. Otherwise Route waits for readiness up
// to the polling budget, applies the duplicate cooldown, and walks the
// chain in order.
func (r *Router) Route(ctx context.Context, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil
	}

	if !r.hasWidget {
		return &api.ClientError{Kind: api.KindUnavailable, Message: "chat widget not present"}
	}

	waitCtx, cancel := context.WithTimeout(ctx, time.Duration(ReadyMaxAttempts)*ReadyPollInterval)
	defer cancel()
	if err := r.ready.Wait(waitCtx); err != nil {
		return &api.ClientError{Kind: api.KindUnavailable, Message: "chat widget never became ready", Cause: err}
	}

	if r.suppressDuplicate(prompt) {
		return nil
	}

	for _, s := range r.strategies {
		if s.TryDeliver(prompt) {
			return nil
		}
	}
	return &api.ClientError{Kind: api.KindUnavailable, Message: "no delivery strategy accepted the prompt"}
}

// suppressDuplicate applies the router-level cooldown: an identical
// prompt within the window is dropped without touching the strategies.
func (r *Router) suppressDuplicate(prompt string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if prompt == r.lastPrompt && now.Sub(r.lastTime) < promptDebounce {
		return true
	}
	r.lastPrompt = prompt
	r.lastTime = now
	return false
}
