// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func newTestClient(serverURL string) *Client {
	return NewClientWithConfig(ClientConfig{
		BaseURL:    serverURL,
		Timeout:    2 * time.Second,
		MaxRetries: 2,
		RetryDelay: 50 * time.Millisecond,
	})
}

func TestChatSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"response":"AAPL is up 2% today.","provider":"openai","model":"gpt-3.5-turbo"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Chat(context.Background(), "How is AAPL?", "AAPL")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Response != "AAPL is up 2% today." {
		t.Errorf("response = %q", resp.Response)
	}
	if resp.Provider != "openai" || resp.Model != "gpt-3.5-turbo" {
		t.Errorf("attribution = %s/%s", resp.Provider, resp.Model)
	}
}

func TestChatSendsStockContext(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Chat(context.Background(), "hi", "TSLA"); err != nil {
		t.Fatal(err)
	}
	if gotBody != `{"message":"hi","stock":"TSLA"}` {
		t.Errorf("body = %s", gotBody)
	}
}

func TestChatRetriesNetworkFailures(t *testing.T) {
	var mu sync.Mutex
	var attempts []time.Time

	// A server that drops the first two connections then succeeds.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts = append(attempts, time.Now())
		n := len(attempts)
		mu.Unlock()

		if n < 3 {
			// Hijack and close to produce a transport-level error.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("server does not support hijacking")
			}
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}
		w.Write([]byte(`{"response":"recovered"}`))
	}))
	defer srv.Close()

	client := NewClientWithConfig(ClientConfig{
		BaseURL:    srv.URL,
		Timeout:    2 * time.Second,
		MaxRetries: 2,
		RetryDelay: 100 * time.Millisecond,
	})

	resp, err := client.Chat(context.Background(), "hello", "")
	if err != nil {
		t.Fatalf("Chat failed after retries: %v", err)
	}
	if resp.Response != "recovered" {
		t.Errorf("response = %q", resp.Response)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(attempts) != 3 {
		t.Fatalf("attempts = %d, want 3 (1 initial + 2 retries)", len(attempts))
	}
	for i := 1; i < len(attempts); i++ {
		if gap := attempts[i].Sub(attempts[i-1]); gap < 100*time.Millisecond {
			t.Errorf("gap between attempts %d and %d = %v, want >= retry delay", i-1, i, gap)
		}
	}
}

func TestChatRetryBudgetExhausted(t *testing.T) {
	var mu sync.Mutex
	count := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		count++
		mu.Unlock()
		hj := w.(http.Hijacker)
		conn, _, _ := hj.Hijack()
		conn.Close()
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Chat(context.Background(), "hello", "")
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *ClientError
	if !errors.As(err, &ce) || ce.Kind != KindNetwork {
		t.Errorf("kind = %v, want network", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if count != 3 {
		t.Errorf("attempts = %d, want exactly 3", count)
	}
}

func TestChatServerErrorNotRetried(t *testing.T) {
	var mu sync.Mutex
	count := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		count++
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"model overloaded"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Chat(context.Background(), "hello", "")
	var ce *ClientError
	if !errors.As(err, &ce) {
		t.Fatalf("error is not ClientError: %v", err)
	}
	if ce.Kind != KindServer {
		t.Errorf("kind = %s, want server", ce.Kind)
	}
	if ce.Status != http.StatusInternalServerError {
		t.Errorf("status = %d", ce.Status)
	}
	if !ce.ManualRetry() {
		t.Error("server error should offer manual retry")
	}

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("server error was retried: %d attempts", count)
	}
}

func TestChatPayloadErrorIsServerKind(t *testing.T) {
	var mu sync.Mutex
	count := 0
	// The backend reports provider failures as a 200 with an error
	// field in the body.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		count++
		mu.Unlock()
		w.Write([]byte(`{"error":"model overloaded"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Chat(context.Background(), "hello", "")
	var ce *ClientError
	if !errors.As(err, &ce) {
		t.Fatalf("error is not ClientError: %v", err)
	}
	if ce.Kind != KindServer {
		t.Errorf("kind = %s, want server", ce.Kind)
	}
	if ce.Message != "model overloaded" {
		t.Errorf("message = %q, want the payload's error text", ce.Message)
	}
	if !ce.ManualRetry() {
		t.Error("in-band server error should offer manual retry")
	}

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("in-band server error was retried: %d attempts", count)
	}
}

func TestZeroRetryBudgetMakesOneAttempt(t *testing.T) {
	var mu sync.Mutex
	count := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		count++
		mu.Unlock()
		hj := w.(http.Hijacker)
		conn, _, _ := hj.Hijack()
		conn.Close()
	}))
	defer srv.Close()

	client := NewClientWithConfig(ClientConfig{
		BaseURL:    srv.URL,
		Timeout:    2 * time.Second,
		MaxRetries: 0,
		RetryDelay: 50 * time.Millisecond,
	})

	_, err := client.Chat(context.Background(), "hello", "")
	if err == nil {
		t.Fatal("expected error")
	}

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("attempts = %d, want exactly 1 with a zero budget", count)
	}
}

func TestChatTimeoutKind(t *testing.T) {
	var mu sync.Mutex
	count := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		count++
		mu.Unlock()
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(`{"response":"too late"}`))
	}))
	defer srv.Close()

	client := NewClientWithConfig(ClientConfig{
		BaseURL:    srv.URL,
		Timeout:    100 * time.Millisecond,
		MaxRetries: 2,
		RetryDelay: 50 * time.Millisecond,
	})

	_, err := client.Chat(context.Background(), "hello", "")
	var ce *ClientError
	if !errors.As(err, &ce) {
		t.Fatalf("error is not ClientError: %v", err)
	}
	if ce.Kind != KindTimeout {
		t.Errorf("kind = %s, want timeout", ce.Kind)
	}
	if ce.Retryable() {
		t.Error("timeout must not be auto-retryable")
	}

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("timeout was retried: %d attempts", count)
	}
}

func TestChatMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Chat(context.Background(), "hello", "")
	var ce *ClientError
	if !errors.As(err, &ce) || ce.Kind != KindMalformed {
		t.Errorf("kind = %v, want malformed", err)
	}
}

func TestChatEmptyResponseIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":""}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Chat(context.Background(), "hello", "")
	var ce *ClientError
	if !errors.As(err, &ce) || ce.Kind != KindMalformed {
		t.Errorf("kind = %v, want malformed", err)
	}
	if !errors.Is(err, ErrEmptyResponse) {
		t.Error("empty response should wrap ErrEmptyResponse")
	}
}

func TestCheckAvailability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"api_available":true,"current_settings":{"ai_provider":"perplexity","perplexity_model":"sonar-pro"}}`))
	}))
	defer srv.Close()

	settings, err := newTestClient(srv.URL).CheckAvailability(context.Background())
	if err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if settings.Provider != "Perplexity" || settings.Model != "sonar-pro" {
		t.Errorf("settings = %+v", settings)
	}
	if settings.Banner() != "Powered by Perplexity — Model: sonar-pro" {
		t.Errorf("banner = %q", settings.Banner())
	}
}

func TestCheckAvailabilityNotConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"api_available":false}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CheckAvailability(context.Background())
	if !errors.Is(err, ErrNotAvailable) {
		t.Errorf("err = %v, want ErrNotAvailable", err)
	}
}

func TestCheckAvailabilityOpenAINames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"api_available":true,"current_settings":{"ai_provider":"openai"}}`))
	}))
	defer srv.Close()

	settings, err := newTestClient(srv.URL).CheckAvailability(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if settings.Provider != "OpenAI" || settings.Model != "GPT-3.5 Turbo" {
		t.Errorf("settings = %+v", settings)
	}
}

func TestStockChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stock_chart/AAPL" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("range") != "6m" {
			t.Errorf("range = %s", r.URL.Query().Get("range"))
		}
		w.Write([]byte(`{
			"dates":["2026-01-02","2026-01-03"],
			"prices":[185.5,187.2],
			"buy_transactions":[{"id":1,"date":"2026-01-02","price":185.5,"qty":10}],
			"sell_transactions":[],
			"split_events":[{"date":"2026-01-03","ratio":2,"price":93.6}]
		}`))
	}))
	defer srv.Close()

	data, err := newTestClient(srv.URL).StockChart(context.Background(), "AAPL", "6m")
	if err != nil {
		t.Fatalf("StockChart failed: %v", err)
	}
	if len(data.Dates) != 2 || len(data.Prices) != 2 {
		t.Errorf("dates/prices = %d/%d", len(data.Dates), len(data.Prices))
	}
	if len(data.BuyTransactions) != 1 || data.BuyTransactions[0].Qty != 10 {
		t.Errorf("buys = %+v", data.BuyTransactions)
	}
	if len(data.SplitEvents) != 1 || data.SplitEvents[0].Ratio != 2 {
		t.Errorf("splits = %+v", data.SplitEvents)
	}
	if data.SplitEvents[0].Price == nil || *data.SplitEvents[0].Price != 93.6 {
		t.Errorf("split price = %v", data.SplitEvents[0].Price)
	}
}

func TestErrorKindStrings(t *testing.T) {
	kinds := map[ErrorKind]string{
		KindNetwork:     "network",
		KindTimeout:     "timeout",
		KindServer:      "server",
		KindMalformed:   "malformed",
		KindUnavailable: "unavailable",
	}
	for k, want := range kinds {
		if k.String() != want {
			t.Errorf("%v.String() = %q", k, k.String())
		}
	}
}
