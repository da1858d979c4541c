package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"taste-fit/internal/api"
	"taste-fit/internal/domain"
)

func TestEmitPostsEvent(t *testing.T) {
	var received domain.Event
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/events" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := api.NewClient(server.URL, nil, zap.NewNop())
	client.SetSleep(func(time.Duration) {})
	emitter := NewEmitter(client, zap.NewNop())

	emitter.Emit(context.Background(), domain.Event{
		EventName: EventFormOpened,
		SessionID: "s1",
		ProductID: "p1",
		Metadata:  map[string]any{"mode": "tasted"},
	})

	if received.EventName != EventFormOpened || received.SessionID != "s1" {
		t.Fatalf("unexpected event %+v", received)
	}
	if received.Metadata["mode"] != "tasted" {
		t.Fatalf("expected mode metadata, got %v", received.Metadata)
	}
}

func TestEmitSwallowsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"detail":"Rate limit exceeded"}`))
	}))
	defer server.Close()

	client := api.NewClient(server.URL, nil, zap.NewNop())
	client.SetSleep(func(time.Duration) {})
	emitter := NewEmitter(client, zap.NewNop())

	// No panic, no error surfaced.
	emitter.Emit(context.Background(), domain.Event{EventName: EventFormViewed, SessionID: "s1"})
}
