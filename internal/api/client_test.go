package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"taste-fit/internal/localstore"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, store localstore.Store) (*Client, *[]time.Duration) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(server.URL, store, zap.NewNop())
	var slept []time.Duration
	client.SetSleep(func(d time.Duration) { slept = append(slept, d) })
	return client, &slept
}

func TestCallSuccess(t *testing.T) {
	client, slept := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %q", ct)
		}
		w.Write([]byte(`{"status":"ok"}`))
	}, nil)

	body, err := client.Call(context.Background(), http.MethodPost, "/api/events", map[string]string{"event_name": "x"}, nil, DefaultAttempts)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if string(body) != `{"status":"ok"}` {
		t.Fatalf("unexpected body %q", body)
	}
	if len(*slept) != 0 {
		t.Fatalf("expected no backoff on success, slept %v", *slept)
	}
}

func TestCallRetriesWithExponentialBackoff(t *testing.T) {
	var calls int32
	client, slept := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"boom"}`))
	}, nil)

	_, err := client.Call(context.Background(), http.MethodGet, "/api/affective/profile", nil, nil, 3)
	if err == nil {
		t.Fatalf("expected error after exhausting attempts")
	}
	reqErr, ok := IsRequestError(err)
	if !ok {
		t.Fatalf("expected RequestError, got %T", err)
	}
	if reqErr.Message != "boom" {
		t.Fatalf("expected server detail propagated, got %q", reqErr.Message)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("expected %d backoffs, got %v", len(want), *slept)
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Fatalf("backoff %d: expected %v, got %v", i, d, (*slept)[i])
		}
	}
}

func TestCallErrorDetailFallsBackToStatusText(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("not json at all"))
	}, nil)

	_, err := client.Call(context.Background(), http.MethodGet, "/x", nil, nil, 1)
	reqErr, ok := IsRequestError(err)
	if !ok {
		t.Fatalf("expected RequestError, got %v", err)
	}
	if reqErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", reqErr.StatusCode)
	}
	if reqErr.Message == "" {
		t.Fatalf("expected status text fallback, got empty message")
	}
}

func TestCallSingleAttemptDoesNotRetry(t *testing.T) {
	var calls int32
	client, slept := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Invalid credentials"}`))
	}, nil)

	_, err := client.Call(context.Background(), http.MethodPost, "/api/auth/login", map[string]string{"email": "a", "password": "b"}, nil, 1)
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected exactly 1 attempt, got %d", got)
	}
	if len(*slept) != 0 {
		t.Fatalf("expected no backoff, slept %v", *slept)
	}
}

func TestAdminCallWithoutTokenShortCircuits(t *testing.T) {
	var calls int32
	store := localstore.NewMemoryStore()
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}, store)

	_, err := client.AdminCall(context.Background(), http.MethodGet, "/api/admin/funnel", nil)
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Fatalf("expected zero network calls, got %d", got)
	}
}

func TestAdminCallInjectsBearerAndNeverRetries(t *testing.T) {
	var calls int32
	store := localstore.NewMemoryStore()
	if err := store.Set(TokenKey, "tok-123"); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	client, slept := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok-123" {
			t.Errorf("expected bearer header, got %q", auth)
		}
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"Admin role required"}`))
	}, store)

	_, err := client.AdminCall(context.Background(), http.MethodDelete, "/api/admin/data?session_id=s1", nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("admin calls must not retry: got %d attempts", got)
	}
	if len(*slept) != 0 {
		t.Fatalf("expected no backoff for admin call, slept %v", *slept)
	}
}

func TestCallRetriesTransportErrors(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", nil, zap.NewNop())
	var slept []time.Duration
	client.SetSleep(func(d time.Duration) { slept = append(slept, d) })
	client.SetHTTPClient(&http.Client{Timeout: 200 * time.Millisecond})

	_, err := client.Call(context.Background(), http.MethodGet, "/x", nil, nil, 2)
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if _, ok := IsRequestError(err); ok {
		t.Fatalf("transport failures must not be RequestError")
	}
	if len(slept) != 1 || slept[0] != 1*time.Second {
		t.Fatalf("expected single 1s backoff, got %v", slept)
	}
}
